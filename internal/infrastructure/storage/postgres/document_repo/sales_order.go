package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"garasi/internal/core/id"
	"garasi/internal/domain"
	"garasi/internal/domain/documents/sales_order"
	"garasi/internal/infrastructure/storage/postgres"
)

const (
	salesOrdersTable     = "doc_sales_orders"
	salesOrderItemsTable = "doc_sales_order_items"
)

// salesOrderItemColumns is the COPY column order for SaveItems.
var salesOrderItemColumns = []string{
	"line_id", "document_id", "line_no", "product_id", "sku", "name",
	"quantity", "unit_price", "discount", "total",
}

// SalesOrderRepo implements sales_order.Repository.
type SalesOrderRepo struct {
	*BaseDocumentRepo[*sales_order.SalesOrder]
	batch *postgres.BatchInserter
}

// NewSalesOrderRepo creates a new sales order repository.
func NewSalesOrderRepo(txm *postgres.TxManager) *SalesOrderRepo {
	return &SalesOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			salesOrdersTable,
			postgres.ExtractDBColumns[sales_order.SalesOrder](),
			func() *sales_order.SalesOrder { return &sales_order.SalesOrder{} },
		),
		batch: postgres.NewBatchInserter(txm),
	}
}

// GetItems loads the order's lines in line order.
func (r *SalesOrderRepo) GetItems(ctx context.Context, docID id.ID) ([]sales_order.OrderItem, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "product_id", "sku", "name",
			"quantity", "unit_price", "discount", "total",
		).
		From(salesOrderItemsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []sales_order.OrderItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

// SaveItems replaces the order's lines. The insert goes over COPY; callers
// already hold the document transaction, so the delete and the COPY land
// together.
func (r *SalesOrderRepo) SaveItems(ctx context.Context, docID id.ID, items []sales_order.OrderItem) error {
	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + salesOrderItemsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{
			item.LineID, docID, item.LineNo, item.ProductID, item.SKU, item.Name,
			item.Quantity, item.UnitPrice, item.Discount, item.Total,
		})
	}

	if _, err := r.batch.CopyFromSlice(ctx, salesOrderItemsTable, salesOrderItemColumns, rows); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

// List retrieves orders matching the filter.
func (r *SalesOrderRepo) List(ctx context.Context, filter sales_order.ListFilter) (domain.ListResult[*sales_order.SalesOrder], error) {
	result := domain.ListResult[*sales_order.SalesOrder]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.BranchID != nil {
		q = q.Where(squirrel.Eq{"branch_id": *filter.BranchID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.PaymentStatus != nil {
		q = q.Where(squirrel.Eq{"payment_status": *filter.PaymentStatus})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": searchPattern},
			squirrel.ILike{"customer_name": searchPattern},
		})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	return result, nil
}

// Ensure interface compliance.
var _ sales_order.Repository = (*SalesOrderRepo)(nil)
