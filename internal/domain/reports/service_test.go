package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garasi/internal/core/id"
	"garasi/internal/core/types"
)

// passTxManager runs the function directly, no real transaction.
type passTxManager struct{}

func (passTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passTxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubReportRepo struct {
	lastLowStockFilter LowStockFilter
	valueRows          []StockValueRow
}

func (s *stubReportRepo) GetLowStock(ctx context.Context, filter LowStockFilter) (*LowStockReport, error) {
	s.lastLowStockFilter = filter
	return &LowStockReport{Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *stubReportRepo) GetStockValue(ctx context.Context, branchID *id.ID) ([]StockValueRow, error) {
	return s.valueRows, nil
}

func TestGetLowStock_ClampsPagination(t *testing.T) {
	repo := &stubReportRepo{}
	svc := NewService(repo, passTxManager{})

	_, err := svc.GetLowStock(context.Background(), LowStockFilter{})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastLowStockFilter.Limit)

	_, err = svc.GetLowStock(context.Background(), LowStockFilter{Limit: 9999})
	require.NoError(t, err)
	assert.Equal(t, 500, repo.lastLowStockFilter.Limit)
}

func TestGetStockValue_SumsGrandTotals(t *testing.T) {
	repo := &stubReportRepo{
		valueRows: []StockValueRow{
			{
				BranchID:    id.New(),
				BranchName:  "Garasi Pusat",
				CostValue:   types.NewMoney(1000),
				RetailValue: types.NewMoney(1500),
			},
			{
				BranchID:    id.New(),
				BranchName:  "Garasi Cabang Timur",
				CostValue:   types.NewMoney(250),
				RetailValue: types.NewMoney(400),
			},
		},
	}
	svc := NewService(repo, passTxManager{})

	report, err := svc.GetStockValue(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, report.Branches, 2)
	assert.True(t, report.TotalCost.Equal(types.NewMoney(1250)))
	assert.True(t, report.TotalRetail.Equal(types.NewMoney(1900)))
}

func TestGetStockValue_EmptyRegisterYieldsZeroTotals(t *testing.T) {
	svc := NewService(&stubReportRepo{}, passTxManager{})

	report, err := svc.GetStockValue(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Branches)
	assert.True(t, report.TotalCost.Equal(types.Zero()))
	assert.True(t, report.TotalRetail.Equal(types.Zero()))
}
