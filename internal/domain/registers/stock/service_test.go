package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/core/security"
	"garasi/internal/core/types"
	"garasi/internal/domain/catalogs/branch"
	"garasi/internal/domain/catalogs/product"
)

// passTxManager runs the function directly, no real transaction.
type passTxManager struct{}

func (passTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memStockRepo is an in-memory Repository with the same guard semantics
// as the SQL implementation.
type memStockRepo struct {
	records map[string]*entity.StockRecord
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{records: make(map[string]*entity.StockRecord)}
}

func stockKey(productID, branchID id.ID) string {
	return productID.String() + "|" + branchID.String()
}

func (r *memStockRepo) Get(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error) {
	rec, ok := r.records[stockKey(productID, branchID)]
	if !ok {
		return nil, apperror.NewNotFound("stock_record", productID.String())
	}
	cp := *rec
	return &cp, nil
}

func (r *memStockRepo) GetOrNull(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error) {
	rec, ok := r.records[stockKey(productID, branchID)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memStockRepo) GetForUpdate(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error) {
	return r.Get(ctx, productID, branchID)
}

func (r *memStockRepo) Upsert(ctx context.Context, record *entity.StockRecord) error {
	cp := *record
	r.records[stockKey(record.ProductID, record.BranchID)] = &cp
	return nil
}

func (r *memStockRepo) UpsertRestock(ctx context.Context, w RestockWrite) (*entity.StockRecord, error) {
	key := stockKey(w.ProductID, w.BranchID)
	rec, ok := r.records[key]
	if !ok {
		rec = &entity.StockRecord{
			ProductID:    w.ProductID,
			BranchID:     w.BranchID,
			CostPrice:    w.InsertCostPrice,
			SellingPrice: w.InsertSellingPrice,
			CreatedAt:    w.RestockedAt,
		}
		r.records[key] = rec
	}
	rec.Quantity += w.QuantityDelta
	if w.CostPrice != nil {
		rec.CostPrice = *w.CostPrice
	}
	if w.SellingPrice != nil {
		rec.SellingPrice = *w.SellingPrice
	}
	if w.ReorderPoint != nil {
		rec.ReorderPoint = *w.ReorderPoint
	}
	if w.ReorderQuantity != nil {
		rec.ReorderQuantity = *w.ReorderQuantity
	}
	if w.Location != nil {
		rec.Location = w.Location
	}
	restockedAt := w.RestockedAt
	rec.LastRestockedAt = &restockedAt
	rec.LastRestockedBy = w.RestockedBy
	rec.UpdatedAt = w.RestockedAt

	cp := *rec
	return &cp, nil
}

func (r *memStockRepo) AddQuantity(ctx context.Context, w AddWrite) error {
	key := stockKey(w.ProductID, w.BranchID)
	rec, ok := r.records[key]
	if !ok {
		rec = &entity.StockRecord{
			ProductID:       w.ProductID,
			BranchID:        w.BranchID,
			CostPrice:       w.InsertCostPrice,
			SellingPrice:    w.InsertSellingPrice,
			ReorderPoint:    w.InsertReorderPoint,
			ReorderQuantity: w.InsertReorderQuantity,
			CreatedAt:       w.ReceivedAt,
		}
		r.records[key] = rec
	}
	rec.Quantity += w.Quantity
	receivedAt := w.ReceivedAt
	rec.LastRestockedAt = &receivedAt
	rec.LastRestockedBy = w.ReceivedBy
	rec.UpdatedAt = w.ReceivedAt
	return nil
}

func (r *memStockRepo) Reserve(ctx context.Context, productID, branchID id.ID, qty int64) (bool, error) {
	rec, ok := r.records[stockKey(productID, branchID)]
	if !ok {
		return false, nil
	}
	if rec.Quantity-rec.ReservedQuantity < qty {
		return false, nil
	}
	rec.ReservedQuantity += qty
	return true, nil
}

func (r *memStockRepo) Release(ctx context.Context, productID, branchID id.ID, qty int64) error {
	rec, ok := r.records[stockKey(productID, branchID)]
	if !ok {
		return nil
	}
	rec.ReservedQuantity -= qty
	if rec.ReservedQuantity < 0 {
		rec.ReservedQuantity = 0
	}
	return nil
}

func (r *memStockRepo) Deduct(ctx context.Context, productID, branchID id.ID, qty int64) (bool, error) {
	rec, ok := r.records[stockKey(productID, branchID)]
	if !ok {
		return false, nil
	}
	if rec.Quantity < qty {
		return false, nil
	}
	rec.Quantity -= qty
	rec.ReservedQuantity -= qty
	if rec.ReservedQuantity < 0 {
		rec.ReservedQuantity = 0
	}
	return true, nil
}

func (r *memStockRepo) List(ctx context.Context, f Filter) ([]*entity.StockRecord, int64, error) {
	var items []*entity.StockRecord
	for _, rec := range r.records {
		if f.BranchID != nil && rec.BranchID != *f.BranchID {
			continue
		}
		if f.ProductID != nil && rec.ProductID != *f.ProductID {
			continue
		}
		if f.LowStock && !rec.IsLowStock() {
			continue
		}
		if f.OutOfStock && !rec.IsOutOfStock() {
			continue
		}
		cp := *rec
		items = append(items, &cp)
	}
	return items, int64(len(items)), nil
}

func (r *memStockRepo) ListByProduct(ctx context.Context, productID id.ID) ([]*entity.StockRecord, error) {
	var items []*entity.StockRecord
	for _, rec := range r.records {
		if rec.ProductID == productID {
			cp := *rec
			items = append(items, &cp)
		}
	}
	return items, nil
}

type stubProducts struct {
	items map[id.ID]*product.Product
}

func (s stubProducts) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := s.items[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

type stubBranches struct {
	items map[id.ID]*branch.Branch
}

func (s stubBranches) GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error) {
	b, ok := s.items[branchID]
	if !ok {
		return nil, apperror.NewNotFound("branch", branchID.String())
	}
	return b, nil
}

type fixture struct {
	svc      *Service
	repo     *memStockRepo
	product  *product.Product
	branchA  *branch.Branch
	branchB  *branch.Branch
	adminCtx context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	prod := product.NewProduct("PRD-001", "Engine Oil 10W-40")
	prod.ID = id.New()
	prod.CostPrice = types.NewMoney(100)
	prod.SellingPrice = types.NewMoney(150)

	brA := branch.NewBranch("BR-001", "Main Workshop")
	brA.ID = id.New()
	brB := branch.NewBranch("BR-002", "North Workshop")
	brB.ID = id.New()

	repo := newMemStockRepo()
	svc := NewService(ServiceConfig{
		Repo:      repo,
		Products:  stubProducts{items: map[id.ID]*product.Product{prod.ID: prod}},
		Branches:  stubBranches{items: map[id.ID]*branch.Branch{brA.ID: brA, brB.ID: brB}},
		TxManager: passTxManager{},
	})

	adminCtx := security.WithScope(context.Background(), &security.AccessScope{
		UserID:  "admin-1",
		Roles:   []string{string(security.RoleAdmin)},
		IsAdmin: true,
	})

	return &fixture{
		svc:      svc,
		repo:     repo,
		product:  prod,
		branchA:  brA,
		branchB:  brB,
		adminCtx: adminCtx,
	}
}

func (f *fixture) seed(t *testing.T, branchID id.ID, quantity, reserved int64) {
	t.Helper()
	rec := entity.NewStockRecord(f.product.ID, branchID)
	rec.Quantity = quantity
	rec.ReservedQuantity = reserved
	rec.CostPrice = types.NewMoney(100)
	rec.SellingPrice = types.NewMoney(250)
	require.NoError(t, f.repo.Upsert(context.Background(), rec))
}

func TestRestock_CreatesWithCatalogDefaults(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Restock(f.adminCtx, RestockInput{
		ProductID:     f.product.ID,
		BranchID:      f.branchA.ID,
		QuantityDelta: 50,
		ActorID:       "admin-1",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50), rec.Quantity)
	assert.True(t, rec.CostPrice.Equal(f.product.CostPrice))
	assert.True(t, rec.SellingPrice.Equal(f.product.SellingPrice))
	assert.NotNil(t, rec.LastRestockedAt)
	require.NotNil(t, rec.LastRestockedBy)
	assert.Equal(t, "admin-1", *rec.LastRestockedBy)
}

func TestRestock_AddsDeltaAndOverwritesProvidedFields(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 100, 0)

	newPrice := types.NewMoney(300)
	reorder := int64(10)
	rec, err := f.svc.Restock(f.adminCtx, RestockInput{
		ProductID:     f.product.ID,
		BranchID:      f.branchA.ID,
		QuantityDelta: 25,
		SellingPrice:  &newPrice,
		ReorderPoint:  &reorder,
		ActorID:       "admin-1",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(125), rec.Quantity)
	assert.True(t, rec.SellingPrice.Equal(newPrice))
	assert.Equal(t, int64(10), rec.ReorderPoint)
	// Cost price was not provided, so it must be unchanged.
	assert.True(t, rec.CostPrice.Equal(types.NewMoney(100)))
}

func TestRestock_RejectsNonPositiveDelta(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Restock(f.adminCtx, RestockInput{
		ProductID:     f.product.ID,
		BranchID:      f.branchA.ID,
		QuantityDelta: 0,
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRestock_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Restock(f.adminCtx, RestockInput{
		ProductID:     id.New(),
		BranchID:      f.branchA.ID,
		QuantityDelta: 10,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestReserve_SucceedsUpToAvailable(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 100, 98)

	// Exactly the available quantity can still be reserved.
	err := f.svc.Reserve(f.adminCtx, f.product.ID, f.branchA.ID, 2)
	require.NoError(t, err)

	rec, _ := f.repo.Get(context.Background(), f.product.ID, f.branchA.ID)
	assert.Equal(t, int64(100), rec.ReservedQuantity)

	// One more unit must fail.
	err = f.svc.Reserve(f.adminCtx, f.product.ID, f.branchA.ID, 1)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestReserve_InsufficientStockCarriesDetails(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 10, 4)

	err := f.svc.Reserve(f.adminCtx, f.product.ID, f.branchA.ID, 7)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(7), appErr.Details["requested"])
	assert.Equal(t, int64(6), appErr.Details["available"])
}

func TestReserve_MissingRecordIsZeroStock(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Reserve(f.adminCtx, f.product.ID, f.branchA.ID, 1)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(0), appErr.Details["available"])
}

func TestRelease_ClampsAtZero(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 100, 5)

	// Releasing more than reserved does not error and clamps at 0.
	err := f.svc.Release(f.adminCtx, f.product.ID, f.branchA.ID, 50)
	require.NoError(t, err)

	rec, _ := f.repo.Get(context.Background(), f.product.ID, f.branchA.ID)
	assert.Equal(t, int64(0), rec.ReservedQuantity)
	assert.Equal(t, int64(100), rec.Quantity)
}

func TestRelease_MissingRecordIsNoOp(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Release(f.adminCtx, f.product.ID, f.branchA.ID, 5)
	require.NoError(t, err)
}

func TestDeduct_ClearsMatchingReservation(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 100, 2)

	err := f.svc.Deduct(f.adminCtx, f.product.ID, f.branchA.ID, 2)
	require.NoError(t, err)

	rec, _ := f.repo.Get(context.Background(), f.product.ID, f.branchA.ID)
	assert.Equal(t, int64(98), rec.Quantity)
	assert.Equal(t, int64(0), rec.ReservedQuantity)
}

func TestDeduct_ExceedsQuantity(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 5, 0)

	err := f.svc.Deduct(f.adminCtx, f.product.ID, f.branchA.ID, 6)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidOperation, appErr.Code)

	// Stock unchanged.
	rec, _ := f.repo.Get(context.Background(), f.product.ID, f.branchA.ID)
	assert.Equal(t, int64(5), rec.Quantity)
}

func TestAdjust_RequiresReason(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 40, 0)

	_, err := f.svc.Adjust(f.adminCtx, AdjustInput{
		ProductID: f.product.ID,
		BranchID:  f.branchA.ID,
		Delta:     -5,
		Reason:    "   ",
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	// Quantity unchanged after rejected adjustment.
	rec, _ := f.repo.Get(context.Background(), f.product.ID, f.branchA.ID)
	assert.Equal(t, int64(40), rec.Quantity)
}

func TestAdjust_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 40, 0)

	ctx := security.WithScope(context.Background(), &security.AccessScope{
		UserID:   "user-1",
		Roles:    []string{string(security.RoleManager)},
		BranchID: f.branchA.ID.String(),
	})

	_, err := f.svc.Adjust(ctx, AdjustInput{
		ProductID: f.product.ID,
		BranchID:  f.branchA.ID,
		Delta:     -5,
		Reason:    "damaged goods",
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestAdjust_ClampsAtZero(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 10, 3)

	rec, err := f.svc.Adjust(f.adminCtx, AdjustInput{
		ProductID: f.product.ID,
		BranchID:  f.branchA.ID,
		Delta:     -25,
		Reason:    "annual stocktake",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), rec.Quantity)
	// Reserved quantity is never touched by adjustments.
	assert.Equal(t, int64(3), rec.ReservedQuantity)
}

func TestHasSufficientStock(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 10, 4)

	ok, err := f.svc.HasSufficientStock(f.adminCtx, f.product.ID, f.branchA.ID, 6)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.HasSufficientStock(f.adminCtx, f.product.ID, f.branchA.ID, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	// Absent record means zero stock.
	ok, err = f.svc.HasSufficientStock(f.adminCtx, f.product.ID, f.branchB.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReceiveTransfer_InheritsSourcePricing(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 100, 0)

	source, _ := f.repo.Get(context.Background(), f.product.ID, f.branchA.ID)

	err := f.svc.ReceiveTransfer(f.adminCtx, ReceiveInput{
		ProductID:  f.product.ID,
		BranchID:   f.branchB.ID,
		Quantity:   30,
		Source:     source,
		ReceivedBy: "user-2",
	})
	require.NoError(t, err)

	dest, err := f.repo.Get(context.Background(), f.product.ID, f.branchB.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), dest.Quantity)
	assert.True(t, dest.SellingPrice.Equal(source.SellingPrice))
	assert.True(t, dest.CostPrice.Equal(source.CostPrice))
}

func TestReceiveTransfer_KeepsDestinationPricing(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 100, 0)

	destRec := entity.NewStockRecord(f.product.ID, f.branchB.ID)
	destRec.Quantity = 5
	destRec.SellingPrice = types.NewMoney(300)
	destRec.CostPrice = types.NewMoney(120)
	require.NoError(t, f.repo.Upsert(context.Background(), destRec))

	source, _ := f.repo.Get(context.Background(), f.product.ID, f.branchA.ID)

	err := f.svc.ReceiveTransfer(f.adminCtx, ReceiveInput{
		ProductID: f.product.ID,
		BranchID:  f.branchB.ID,
		Quantity:  30,
		Source:    source,
	})
	require.NoError(t, err)

	dest, _ := f.repo.Get(context.Background(), f.product.ID, f.branchB.ID)
	assert.Equal(t, int64(35), dest.Quantity)
	// Existing destination pricing is preserved.
	assert.True(t, dest.SellingPrice.Equal(types.NewMoney(300)))
}

func TestGetSummary_Totals(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA.ID, 100, 10)
	f.seed(t, f.branchB.ID, 50, 5)

	summary, err := f.svc.GetSummary(f.adminCtx, f.product.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(150), summary.TotalQuantity)
	assert.Equal(t, int64(15), summary.TotalReserved)
	assert.Equal(t, int64(135), summary.TotalAvailable)
	assert.Len(t, summary.Branches, 2)
}

func TestAvailableQuantity_Derived(t *testing.T) {
	rec := entity.NewStockRecord(id.New(), id.New())
	rec.Quantity = 10
	rec.ReservedQuantity = 4
	assert.Equal(t, int64(6), rec.AvailableQuantity())

	rec.ReservedQuantity = 12
	assert.Equal(t, int64(0), rec.AvailableQuantity())
}
