package register_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garasi/internal/core/id"
	"garasi/internal/domain/registers/stock"
)

func baseTestSelect() squirrel.SelectBuilder {
	return squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Select("product_id", "quantity").
		From(stockTable)
}

func TestApplyStockFilter(t *testing.T) {
	branchID := id.New()
	productID := id.New()

	tests := []struct {
		name     string
		filter   stock.Filter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			filter:  stock.Filter{},
			wantSQL: "SELECT product_id, quantity FROM reg_stock",
		},
		{
			name:     "by branch",
			filter:   stock.Filter{BranchID: &branchID},
			wantSQL:  "SELECT product_id, quantity FROM reg_stock WHERE branch_id = $1",
			wantArgs: []any{branchID},
		},
		{
			name:     "by product",
			filter:   stock.Filter{ProductID: &productID},
			wantSQL:  "SELECT product_id, quantity FROM reg_stock WHERE product_id = $1",
			wantArgs: []any{productID},
		},
		{
			name:    "low stock",
			filter:  stock.Filter{LowStock: true},
			wantSQL: "SELECT product_id, quantity FROM reg_stock WHERE quantity <= reorder_point",
		},
		{
			name:     "out of stock",
			filter:   stock.Filter{OutOfStock: true},
			wantSQL:  "SELECT product_id, quantity FROM reg_stock WHERE quantity = $1",
			wantArgs: []any{int64(0)},
		},
		{
			name:     "branch and low stock",
			filter:   stock.Filter{BranchID: &branchID, LowStock: true},
			wantSQL:  "SELECT product_id, quantity FROM reg_stock WHERE branch_id = $1 AND quantity <= reorder_point",
			wantArgs: []any{branchID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := applyStockFilter(baseTestSelect(), tt.filter)

			sql, args, err := q.ToSql()
			require.NoError(t, err)

			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestStockColumns_MatchPrimaryKeyFirst(t *testing.T) {
	// The composite key columns come first so GetForUpdate and the
	// upsert conflict target stay aligned with the schema.
	require.GreaterOrEqual(t, len(stockColumns), 2)
	assert.Equal(t, "product_id", stockColumns[0])
	assert.Equal(t, "branch_id", stockColumns[1])
}
