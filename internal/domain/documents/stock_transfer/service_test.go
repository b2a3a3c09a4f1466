package stock_transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/core/numerator"
	"garasi/internal/core/types"
	"garasi/internal/domain"
	"garasi/internal/domain/catalogs/branch"
	"garasi/internal/domain/catalogs/product"
	"garasi/internal/domain/registers/stock"
)

type passTxManager struct{}

func (passTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeStock mimics the stock register's reserve/release/deduct guards.
type fakeStock struct {
	records map[string]*entity.StockRecord
}

func newFakeStock() *fakeStock {
	return &fakeStock{records: make(map[string]*entity.StockRecord)}
}

func recKey(productID, branchID id.ID) string {
	return productID.String() + "|" + branchID.String()
}

func (f *fakeStock) GetRecord(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error) {
	rec, ok := f.records[recKey(productID, branchID)]
	if !ok {
		return nil, apperror.NewNotFound("stock_record", productID.String())
	}
	return rec, nil
}

func (f *fakeStock) Reserve(ctx context.Context, productID, branchID id.ID, qty int64) error {
	rec, ok := f.records[recKey(productID, branchID)]
	if !ok || rec.Quantity-rec.ReservedQuantity < qty {
		var available int64
		if ok {
			available = rec.AvailableQuantity()
		}
		return apperror.NewInsufficientStock(productID.String(), qty, available)
	}
	rec.ReservedQuantity += qty
	return nil
}

func (f *fakeStock) Release(ctx context.Context, productID, branchID id.ID, qty int64) error {
	rec, ok := f.records[recKey(productID, branchID)]
	if !ok {
		return nil
	}
	rec.ReservedQuantity -= qty
	if rec.ReservedQuantity < 0 {
		rec.ReservedQuantity = 0
	}
	return nil
}

func (f *fakeStock) Deduct(ctx context.Context, productID, branchID id.ID, qty int64) error {
	rec, ok := f.records[recKey(productID, branchID)]
	if !ok || rec.Quantity < qty {
		return apperror.NewInvalidOperation("deduction exceeds on-hand quantity")
	}
	rec.Quantity -= qty
	rec.ReservedQuantity -= qty
	if rec.ReservedQuantity < 0 {
		rec.ReservedQuantity = 0
	}
	return nil
}

func (f *fakeStock) ReceiveTransfer(ctx context.Context, in stock.ReceiveInput) error {
	key := recKey(in.ProductID, in.BranchID)
	rec, ok := f.records[key]
	if !ok {
		rec = entity.NewStockRecord(in.ProductID, in.BranchID)
		if in.Source != nil {
			rec.CostPrice = in.Source.CostPrice
			rec.SellingPrice = in.Source.SellingPrice
			rec.ReorderPoint = in.Source.ReorderPoint
			rec.ReorderQuantity = in.Source.ReorderQuantity
		}
		f.records[key] = rec
	}
	rec.Quantity += in.Quantity
	return nil
}

type memTransferRepo struct {
	docs map[id.ID]*StockTransfer
}

func newMemTransferRepo() *memTransferRepo {
	return &memTransferRepo{docs: make(map[id.ID]*StockTransfer)}
}

func (r *memTransferRepo) Create(ctx context.Context, doc *StockTransfer) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memTransferRepo) GetByID(ctx context.Context, docID id.ID) (*StockTransfer, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("stock_transfer", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memTransferRepo) GetByNumber(ctx context.Context, number string) (*StockTransfer, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("stock_transfer", number)
}

func (r *memTransferRepo) GetForUpdate(ctx context.Context, docID id.ID) (*StockTransfer, error) {
	return r.GetByID(ctx, docID)
}

func (r *memTransferRepo) Update(ctx context.Context, doc *StockTransfer) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("stock_transfer", doc.ID.String())
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memTransferRepo) Delete(ctx context.Context, docID id.ID) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("stock_transfer", docID.String())
	}
	doc.DeletionMark = true
	return nil
}

func (r *memTransferRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockTransfer], error) {
	result := domain.ListResult[*StockTransfer]{Limit: filter.Limit, Offset: filter.Offset}
	for _, doc := range r.docs {
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		cp := *doc
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

type transferFixture struct {
	svc     *Service
	repo    *memTransferRepo
	stock   *fakeStock
	product *product.Product
	brA     *branch.Branch
	brB     *branch.Branch
	ctx     context.Context
}

func newTransferFixture(t *testing.T) *transferFixture {
	t.Helper()

	prod := product.NewProduct("PRD-001", "Brake Pads")
	prod.ID = id.New()

	brA := branch.NewBranch("BR-001", "Main Workshop")
	brA.ID = id.New()
	brB := branch.NewBranch("BR-002", "North Workshop")
	brB.ID = id.New()

	repo := newMemTransferRepo()
	st := newFakeStock()

	svc := NewService(ServiceConfig{
		Repo:  repo,
		Stock: st,
		Products: stubProducts{items: map[id.ID]*product.Product{
			prod.ID: prod,
		}},
		Branches: stubBranches{items: map[id.ID]*branch.Branch{
			brA.ID: brA,
			brB.ID: brB,
		}},
		Numerator: &numerator.MockGenerator{},
		TxManager: passTxManager{},
	})

	return &transferFixture{
		svc:     svc,
		repo:    repo,
		stock:   st,
		product: prod,
		brA:     brA,
		brB:     brB,
		ctx:     context.Background(),
	}
}

func (f *transferFixture) seedStock(branchID id.ID, qty int64, sellingPrice float64) {
	rec := entity.NewStockRecord(f.product.ID, branchID)
	rec.Quantity = qty
	rec.CostPrice = types.NewMoney(100)
	rec.SellingPrice = types.NewMoney(sellingPrice)
	rec.ReorderPoint = 5
	f.stock.records[recKey(f.product.ID, branchID)] = rec
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

func TestCreate_ReservesAtSource(t *testing.T) {
	f := newTransferFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.ctx, CreateInput{
		ProductID:    f.product.ID,
		FromBranchID: f.brA.ID,
		ToBranchID:   f.brB.ID,
		Quantity:     30,
		ActorID:      "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, doc.Status)
	assert.NotEmpty(t, doc.Number)
	assert.Contains(t, doc.Number, "TRF")

	src := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(100), src.Quantity)
	assert.Equal(t, int64(30), src.ReservedQuantity)
}

func TestCreate_SameBranchRejected(t *testing.T) {
	f := newTransferFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	_, err := f.svc.Create(f.ctx, CreateInput{
		ProductID:    f.product.ID,
		FromBranchID: f.brA.ID,
		ToBranchID:   f.brA.ID,
		Quantity:     10,
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	// Rejected before any reservation.
	src := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(0), src.ReservedQuantity)
}

func TestCreate_MissingSourceRecord(t *testing.T) {
	f := newTransferFixture(t)

	_, err := f.svc.Create(f.ctx, CreateInput{
		ProductID:    f.product.ID,
		FromBranchID: f.brA.ID,
		ToBranchID:   f.brB.ID,
		Quantity:     10,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_InsufficientStock(t *testing.T) {
	f := newTransferFixture(t)
	f.seedStock(f.brA.ID, 10, 250)

	_, err := f.svc.Create(f.ctx, CreateInput{
		ProductID:    f.product.ID,
		FromBranchID: f.brA.ID,
		ToBranchID:   f.brB.ID,
		Quantity:     11,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// No transfer persisted for the failed reservation.
	assert.Empty(t, f.repo.docs)
}

func TestAdvance_CompletedMovesStockAndInheritsPricing(t *testing.T) {
	f := newTransferFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.ctx, CreateInput{
		ProductID:    f.product.ID,
		FromBranchID: f.brA.ID,
		ToBranchID:   f.brB.ID,
		Quantity:     30,
		ActorID:      "user-1",
	})
	require.NoError(t, err)

	doc, err = f.svc.Advance(f.ctx, doc.ID, StatusInTransit, "manager-1")
	require.NoError(t, err)
	assert.NotNil(t, doc.ShippedAt)
	require.NotNil(t, doc.ApprovedBy)
	assert.Equal(t, "manager-1", *doc.ApprovedBy)

	doc, err = f.svc.Advance(f.ctx, doc.ID, StatusCompleted, "user-2")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, doc.Status)
	assert.NotNil(t, doc.ReceivedAt)
	require.NotNil(t, doc.ReceivedBy)
	assert.Equal(t, "user-2", *doc.ReceivedBy)

	src := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(70), src.Quantity)
	assert.Equal(t, int64(0), src.ReservedQuantity)

	dest := f.stock.records[recKey(f.product.ID, f.brB.ID)]
	require.NotNil(t, dest)
	assert.Equal(t, int64(30), dest.Quantity)
	assert.True(t, dest.SellingPrice.Equal(src.SellingPrice))
	assert.Equal(t, src.ReorderPoint, dest.ReorderPoint)
}

func TestAdvance_CancelReleasesReservation(t *testing.T) {
	f := newTransferFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.ctx, CreateInput{
		ProductID:    f.product.ID,
		FromBranchID: f.brA.ID,
		ToBranchID:   f.brB.ID,
		Quantity:     30,
	})
	require.NoError(t, err)

	_, err = f.svc.Advance(f.ctx, doc.ID, StatusCancelled, "manager-1")
	require.NoError(t, err)

	src := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(100), src.Quantity)
	assert.Equal(t, int64(0), src.ReservedQuantity)
}

func TestAdvance_PendingCannotComplete(t *testing.T) {
	f := newTransferFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.ctx, CreateInput{
		ProductID:    f.product.ID,
		FromBranchID: f.brA.ID,
		ToBranchID:   f.brB.ID,
		Quantity:     30,
	})
	require.NoError(t, err)

	_, err = f.svc.Advance(f.ctx, doc.ID, StatusCompleted, "user-1")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestAdvance_TerminalStateIsFinal(t *testing.T) {
	f := newTransferFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.ctx, CreateInput{
		ProductID:    f.product.ID,
		FromBranchID: f.brA.ID,
		ToBranchID:   f.brB.ID,
		Quantity:     30,
	})
	require.NoError(t, err)

	_, err = f.svc.Advance(f.ctx, doc.ID, StatusCancelled, "manager-1")
	require.NoError(t, err)

	_, err = f.svc.Advance(f.ctx, doc.ID, StatusInTransit, "manager-1")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestDelete_OnlyCancelled(t *testing.T) {
	f := newTransferFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.ctx, CreateInput{
		ProductID:    f.product.ID,
		FromBranchID: f.brA.ID,
		ToBranchID:   f.brB.ID,
		Quantity:     30,
	})
	require.NoError(t, err)

	err = f.svc.Delete(f.ctx, doc.ID)
	require.Error(t, err)

	_, err = f.svc.Advance(f.ctx, doc.ID, StatusCancelled, "manager-1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.ctx, doc.ID))
}

func TestStatusTransitionTable(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusInTransit, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusInTransit, StatusCompleted, true},
		{StatusInTransit, StatusCancelled, true},
		{StatusInTransit, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		name := string(tt.from) + "->" + string(tt.to)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}
