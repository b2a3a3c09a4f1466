// Package report_repo provides PostgreSQL implementations for report
// repositories. Reports read the live register joined with catalog
// names; they run against whatever querier the context carries.
package report_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"garasi/internal/core/id"
	"garasi/internal/domain/reports"
	"garasi/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

// GetLowStock returns records at or below their reorder point, most
// understocked first.
func (r *ReportRepo) GetLowStock(ctx context.Context, filter reports.LowStockFilter) (*reports.LowStockReport, error) {
	report := &reports.LowStockReport{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	where := `
		WHERE s.quantity <= s.reorder_point
		  AND p.deletion_mark = FALSE
		  AND b.deletion_mark = FALSE
	`
	args := []any{}
	argIdx := 1

	if filter.BranchID != nil {
		where += fmt.Sprintf(" AND s.branch_id = $%d", argIdx)
		args = append(args, *filter.BranchID)
		argIdx++
	}

	countQuery := `
		SELECT COUNT(*)
		FROM reg_stock s
		JOIN cat_products p ON s.product_id = p.id
		JOIN cat_branches b ON s.branch_id = b.id
	` + where

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countQuery, args...).Scan(&report.TotalCount); err != nil {
		return nil, fmt.Errorf("count low stock: %w", err)
	}

	query := `
		SELECT
			s.product_id,
			COALESCE(p.sku, '') AS sku,
			p.name AS product_name,
			s.branch_id,
			b.name AS branch_name,
			s.quantity,
			s.reserved_quantity,
			GREATEST(0, s.quantity - s.reserved_quantity) AS available_quantity,
			s.reorder_point,
			s.reorder_quantity
		FROM reg_stock s
		JOIN cat_products p ON s.product_id = p.id
		JOIN cat_branches b ON s.branch_id = b.id
	` + where + `
		ORDER BY (s.reorder_point - s.quantity) DESC, p.name
	`

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	if err := pgxscan.Select(ctx, querier, &report.Items, query, args...); err != nil {
		return nil, fmt.Errorf("low stock report: %w", err)
	}

	return report, nil
}

// GetStockValue aggregates inventory value per branch.
func (r *ReportRepo) GetStockValue(ctx context.Context, branchID *id.ID) ([]reports.StockValueRow, error) {
	query := `
		SELECT
			s.branch_id,
			b.name AS branch_name,
			COUNT(*) AS product_count,
			COALESCE(SUM(s.quantity), 0) AS total_quantity,
			COALESCE(SUM(s.quantity * s.cost_price), 0) AS cost_value,
			COALESCE(SUM(s.quantity * s.selling_price), 0) AS retail_value
		FROM reg_stock s
		JOIN cat_branches b ON s.branch_id = b.id
		WHERE b.deletion_mark = FALSE
	`
	args := []any{}

	if branchID != nil {
		query += " AND s.branch_id = $1"
		args = append(args, *branchID)
	}

	query += `
		GROUP BY s.branch_id, b.name
		ORDER BY b.name
	`

	var rows []reports.StockValueRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("stock value report: %w", err)
	}

	return rows, nil
}

// Ensure interface compliance
var _ reports.Repository = (*ReportRepo)(nil)
