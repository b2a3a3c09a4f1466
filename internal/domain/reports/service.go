package reports

import (
	"context"
	"fmt"

	"garasi/internal/core/id"
	"garasi/internal/core/tx"
	"garasi/internal/core/types"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
	txm  tx.ReadOnlyManager
}

// NewService creates a new reports service.
func NewService(repo Repository, txm tx.ReadOnlyManager) *Service {
	return &Service{repo: repo, txm: txm}
}

// GetLowStock generates the low stock report. The count and the page
// run in one read-only transaction so they see the same snapshot.
func (s *Service) GetLowStock(ctx context.Context, filter LowStockFilter) (*LowStockReport, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}

	var report *LowStockReport
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.repo.GetLowStock(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get low stock report: %w", err)
	}

	return report, nil
}

// GetStockValue generates the per-branch inventory value report with
// grand totals.
func (s *Service) GetStockValue(ctx context.Context, branchID *id.ID) (*StockValueReport, error) {
	rows, err := s.repo.GetStockValue(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("get stock value report: %w", err)
	}

	report := &StockValueReport{
		Branches:    rows,
		TotalCost:   types.Zero(),
		TotalRetail: types.Zero(),
	}
	for _, row := range rows {
		report.TotalCost = report.TotalCost.Add(row.CostValue)
		report.TotalRetail = report.TotalRetail.Add(row.RetailValue)
	}

	return report, nil
}
