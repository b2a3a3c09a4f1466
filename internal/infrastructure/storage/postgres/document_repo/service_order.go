package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"garasi/internal/core/id"
	"garasi/internal/domain"
	"garasi/internal/domain/documents/service_order"
	"garasi/internal/infrastructure/storage/postgres"
)

const (
	serviceOrdersTable     = "doc_service_orders"
	serviceOrderPartsTable = "doc_service_order_parts"
)

// serviceOrderPartColumns is the COPY column order for SaveParts.
var serviceOrderPartColumns = []string{
	"line_id", "document_id", "line_no", "product_id", "sku", "name",
	"quantity", "unit_price", "discount", "total",
}

// ServiceOrderRepo implements service_order.Repository.
type ServiceOrderRepo struct {
	*BaseDocumentRepo[*service_order.ServiceOrder]
	batch *postgres.BatchInserter
}

// NewServiceOrderRepo creates a new service order repository.
func NewServiceOrderRepo(txm *postgres.TxManager) *ServiceOrderRepo {
	return &ServiceOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			serviceOrdersTable,
			postgres.ExtractDBColumns[service_order.ServiceOrder](),
			func() *service_order.ServiceOrder { return &service_order.ServiceOrder{} },
		),
		batch: postgres.NewBatchInserter(txm),
	}
}

// GetParts loads the job's part lines in line order.
func (r *ServiceOrderRepo) GetParts(ctx context.Context, docID id.ID) ([]service_order.PartLine, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "product_id", "sku", "name",
			"quantity", "unit_price", "discount", "total",
		).
		From(serviceOrderPartsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var parts []service_order.PartLine
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &parts, sql, args...); err != nil {
		return nil, fmt.Errorf("get parts: %w", err)
	}

	return parts, nil
}

// SaveParts replaces the job's part lines. Same shape as the sales order
// item write: delete then COPY inside the caller's transaction.
func (r *ServiceOrderRepo) SaveParts(ctx context.Context, docID id.ID, parts []service_order.PartLine) error {
	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + serviceOrderPartsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing parts: %w", err)
	}

	if len(parts) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(parts))
	for _, part := range parts {
		rows = append(rows, []any{
			part.LineID, docID, part.LineNo, part.ProductID, part.SKU, part.Name,
			part.Quantity, part.UnitPrice, part.Discount, part.Total,
		})
	}

	if _, err := r.batch.CopyFromSlice(ctx, serviceOrderPartsTable, serviceOrderPartColumns, rows); err != nil {
		return fmt.Errorf("insert parts: %w", err)
	}

	return nil
}

// List retrieves jobs matching the filter.
func (r *ServiceOrderRepo) List(ctx context.Context, filter service_order.ListFilter) (domain.ListResult[*service_order.ServiceOrder], error) {
	result := domain.ListResult[*service_order.ServiceOrder]{
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

	if filter.AssignedTo != nil {
		q = q.Where(squirrel.Eq{"assigned_to": *filter.AssignedTo})
	}

	if filter.Priority != nil {
		q = q.Where(squirrel.Eq{"priority": *filter.Priority})
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
			squirrel.ILike{"vehicle_plate": searchPattern},
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
var _ service_order.Repository = (*ServiceOrderRepo)(nil)
