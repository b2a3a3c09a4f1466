package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"garasi/internal/domain"
	"garasi/internal/domain/documents/stock_transfer"
	"garasi/internal/infrastructure/storage/postgres"
)

const stockTransfersTable = "doc_stock_transfers"

// StockTransferRepo implements stock_transfer.Repository.
type StockTransferRepo struct {
	*BaseDocumentRepo[*stock_transfer.StockTransfer]
}

// NewStockTransferRepo creates a new stock transfer repository.
func NewStockTransferRepo(txm *postgres.TxManager) *StockTransferRepo {
	return &StockTransferRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			stockTransfersTable,
			postgres.ExtractDBColumns[stock_transfer.StockTransfer](),
			func() *stock_transfer.StockTransfer { return &stock_transfer.StockTransfer{} },
		),
	}
}

// List retrieves transfers matching the filter.
func (r *StockTransferRepo) List(ctx context.Context, filter stock_transfer.ListFilter) (domain.ListResult[*stock_transfer.StockTransfer], error) {
	result := domain.ListResult[*stock_transfer.StockTransfer]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}

	if filter.FromBranchID != nil {
		q = q.Where(squirrel.Eq{"from_branch_id": *filter.FromBranchID})
	}

	if filter.ToBranchID != nil {
		q = q.Where(squirrel.Eq{"to_branch_id": *filter.ToBranchID})
	}

	// BranchID matches either side of the movement.
	if filter.BranchID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_branch_id": *filter.BranchID},
			squirrel.Eq{"to_branch_id": *filter.BranchID},
		})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
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
var _ stock_transfer.Repository = (*StockTransferRepo)(nil)
