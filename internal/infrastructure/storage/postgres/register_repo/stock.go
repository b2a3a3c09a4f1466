// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/domain/registers/stock"
	"garasi/internal/infrastructure/storage/postgres"
)

const stockTable = "reg_stock"

var stockColumns = []string{
	"product_id", "branch_id",
	"quantity", "reserved_quantity",
	"cost_price", "selling_price",
	"reorder_point", "reorder_quantity",
	"location", "last_restocked_at", "last_restocked_by",
	"created_at", "updated_at",
}

// StockRepo implements stock.Repository on top of the reg_stock table.
//
// Reserve and Deduct embed their sufficiency guard in the UPDATE's WHERE
// clause, so two concurrent callers can never both pass a stale check:
// the row lock taken by the first UPDATE serializes the second one
// against the already-applied change.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StockRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(stockColumns...).From(stockTable)
}

// Get returns the record for (product, branch).
func (r *StockRepo) Get(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error) {
	rec, err := r.GetOrNull(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperror.NewNotFound("stock_record", productID.String())
	}
	return rec, nil
}

// GetOrNull returns the record or nil when none exists. Absence of a
// row means zero stock, not an error.
func (r *StockRepo) GetOrNull(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error) {
	q := r.baseSelect().Where(squirrel.Eq{
		"product_id": productID,
		"branch_id":  branchID,
	}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec entity.StockRecord
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}

	return &rec, nil
}

// GetForUpdate returns the record with a pessimistic row lock.
// Must be called within a transaction.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error) {
	sql := `
		SELECT product_id, branch_id,
		       quantity, reserved_quantity,
		       cost_price, selling_price,
		       reorder_point, reorder_quantity,
		       location, last_restocked_at, last_restocked_by,
		       created_at, updated_at
		FROM reg_stock
		WHERE product_id = $1 AND branch_id = $2
		FOR UPDATE
	`

	var rec entity.StockRecord
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rec, sql, productID, branchID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock_record", productID.String())
		}
		return nil, fmt.Errorf("get stock record for update: %w", err)
	}

	return &rec, nil
}

// Upsert inserts the record or overwrites all mutable columns of the
// existing (product, branch) row.
func (r *StockRepo) Upsert(ctx context.Context, record *entity.StockRecord) error {
	sql := `
		INSERT INTO reg_stock (
			product_id, branch_id,
			quantity, reserved_quantity,
			cost_price, selling_price,
			reorder_point, reorder_quantity,
			location, last_restocked_at, last_restocked_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (product_id, branch_id) DO UPDATE SET
			quantity          = EXCLUDED.quantity,
			reserved_quantity = EXCLUDED.reserved_quantity,
			cost_price        = EXCLUDED.cost_price,
			selling_price     = EXCLUDED.selling_price,
			reorder_point     = EXCLUDED.reorder_point,
			reorder_quantity  = EXCLUDED.reorder_quantity,
			location          = EXCLUDED.location,
			last_restocked_at = EXCLUDED.last_restocked_at,
			last_restocked_by = EXCLUDED.last_restocked_by,
			updated_at        = EXCLUDED.updated_at
	`

	querier := r.txm.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		record.ProductID, record.BranchID,
		record.Quantity, record.ReservedQuantity,
		record.CostPrice, record.SellingPrice,
		record.ReorderPoint, record.ReorderQuantity,
		record.Location, record.LastRestockedAt, record.LastRestockedBy,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock record: %w", err)
	}

	return nil
}

// UpsertRestock applies an inbound delivery in one statement. The
// conflict arm adds the delta instead of overwriting quantity, so two
// deliveries racing on the first record for a (product, branch) both
// survive. Optional fields overwrite only when provided; a created row
// falls back to the Insert* catalog prices.
func (r *StockRepo) UpsertRestock(ctx context.Context, w stock.RestockWrite) (*entity.StockRecord, error) {
	sql := `
		INSERT INTO reg_stock (
			product_id, branch_id,
			quantity, reserved_quantity,
			cost_price, selling_price,
			reorder_point, reorder_quantity,
			location, last_restocked_at, last_restocked_by,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, 0,
			COALESCE($4, $6), COALESCE($5, $7),
			COALESCE($8, 0), COALESCE($9, 0),
			$10, $11, $12, $11, $11
		)
		ON CONFLICT (product_id, branch_id) DO UPDATE SET
			quantity          = reg_stock.quantity + EXCLUDED.quantity,
			cost_price        = COALESCE($4, reg_stock.cost_price),
			selling_price     = COALESCE($5, reg_stock.selling_price),
			reorder_point     = COALESCE($8, reg_stock.reorder_point),
			reorder_quantity  = COALESCE($9, reg_stock.reorder_quantity),
			location          = COALESCE($10, reg_stock.location),
			last_restocked_at = EXCLUDED.last_restocked_at,
			last_restocked_by = EXCLUDED.last_restocked_by,
			updated_at        = EXCLUDED.updated_at
		RETURNING product_id, branch_id,
		          quantity, reserved_quantity,
		          cost_price, selling_price,
		          reorder_point, reorder_quantity,
		          location, last_restocked_at, last_restocked_by,
		          created_at, updated_at
	`

	var rec entity.StockRecord
	querier := r.txm.GetQuerier(ctx)
	err := pgxscan.Get(ctx, querier, &rec, sql,
		w.ProductID, w.BranchID, w.QuantityDelta,
		w.CostPrice, w.SellingPrice,
		w.InsertCostPrice, w.InsertSellingPrice,
		w.ReorderPoint, w.ReorderQuantity,
		w.Location, w.RestockedAt, w.RestockedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("restock stock record: %w", err)
	}

	return &rec, nil
}

// AddQuantity increments quantity in a single additive statement. An
// existing record keeps its own pricing and reorder settings; a created
// one takes the Insert* seeds.
func (r *StockRepo) AddQuantity(ctx context.Context, w stock.AddWrite) error {
	sql := `
		INSERT INTO reg_stock (
			product_id, branch_id,
			quantity, reserved_quantity,
			cost_price, selling_price,
			reorder_point, reorder_quantity,
			last_restocked_at, last_restocked_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, 0, $4, $5, $6, $7, $8, $9, $8, $8)
		ON CONFLICT (product_id, branch_id) DO UPDATE SET
			quantity          = reg_stock.quantity + EXCLUDED.quantity,
			last_restocked_at = EXCLUDED.last_restocked_at,
			last_restocked_by = EXCLUDED.last_restocked_by,
			updated_at        = EXCLUDED.updated_at
	`

	querier := r.txm.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		w.ProductID, w.BranchID, w.Quantity,
		w.InsertCostPrice, w.InsertSellingPrice,
		w.InsertReorderPoint, w.InsertReorderQuantity,
		w.ReceivedAt, w.ReceivedBy,
	)
	if err != nil {
		return fmt.Errorf("add stock quantity: %w", err)
	}

	return nil
}

// Reserve increments reserved_quantity by qty when enough unreserved
// stock is on hand. Returns false when the guard fails or no row exists.
func (r *StockRepo) Reserve(ctx context.Context, productID, branchID id.ID, qty int64) (bool, error) {
	sql := `
		UPDATE reg_stock
		SET reserved_quantity = reserved_quantity + $3,
		    updated_at = now()
		WHERE product_id = $1 AND branch_id = $2
		  AND quantity - reserved_quantity >= $3
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, productID, branchID, qty)
	if err != nil {
		return false, fmt.Errorf("reserve stock: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Release decrements reserved_quantity by qty, clamped at zero.
// Releasing against a missing row is a no-op.
func (r *StockRepo) Release(ctx context.Context, productID, branchID id.ID, qty int64) error {
	sql := `
		UPDATE reg_stock
		SET reserved_quantity = GREATEST(0, reserved_quantity - $3),
		    updated_at = now()
		WHERE product_id = $1 AND branch_id = $2
	`

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, productID, branchID, qty); err != nil {
		return fmt.Errorf("release stock: %w", err)
	}

	return nil
}

// Deduct decrements quantity by qty and clears the matching reservation
// when enough is on hand. Returns false when the guard fails or no row
// exists.
func (r *StockRepo) Deduct(ctx context.Context, productID, branchID id.ID, qty int64) (bool, error) {
	sql := `
		UPDATE reg_stock
		SET quantity = quantity - $3,
		    reserved_quantity = GREATEST(0, reserved_quantity - $3),
		    updated_at = now()
		WHERE product_id = $1 AND branch_id = $2
		  AND quantity >= $3
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, productID, branchID, qty)
	if err != nil {
		return false, fmt.Errorf("deduct stock: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// applyStockFilter adds the filter's conditions to a select builder.
func applyStockFilter(q squirrel.SelectBuilder, f stock.Filter) squirrel.SelectBuilder {
	if f.BranchID != nil {
		q = q.Where(squirrel.Eq{"branch_id": *f.BranchID})
	}
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.LowStock {
		q = q.Where("quantity <= reorder_point")
	}
	if f.OutOfStock {
		q = q.Where(squirrel.Eq{"quantity": int64(0)})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(`EXISTS (
			SELECT 1 FROM cat_products p
			WHERE p.id = reg_stock.product_id
			  AND (p.name ILIKE ? OR p.sku ILIKE ?)
		)`, pattern, pattern)
	}
	return q
}

// List returns records matching the filter plus the unpaginated total.
func (r *StockRepo) List(ctx context.Context, f stock.Filter) ([]*entity.StockRecord, int64, error) {
	q := applyStockFilter(r.baseSelect(), f)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock records: %w", err)
	}

	q = q.OrderBy("product_id", "branch_id")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var records []*entity.StockRecord
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select stock records: %w", err)
	}

	return records, total, nil
}

// ListByProduct returns all records for a product across branches.
func (r *StockRepo) ListByProduct(ctx context.Context, productID id.ID) ([]*entity.StockRecord, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("branch_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []*entity.StockRecord
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock records: %w", err)
	}

	return records, nil
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)
