package sales_order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/core/numerator"
	"garasi/internal/core/security"
	"garasi/internal/core/types"
	"garasi/internal/domain"
	"garasi/internal/domain/catalogs/branch"
	"garasi/internal/domain/catalogs/product"
	"garasi/internal/domain/ledger"
)

type passTxManager struct{}

func (passTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

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

type memOrderRepo struct {
	docs  map[id.ID]*SalesOrder
	items map[id.ID][]OrderItem
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		docs:  make(map[id.ID]*SalesOrder),
		items: make(map[id.ID][]OrderItem),
	}
}

func (r *memOrderRepo) Create(ctx context.Context, doc *SalesOrder) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, docID id.ID) (*SalesOrder, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("sales_order", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memOrderRepo) GetByNumber(ctx context.Context, number string) (*SalesOrder, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("sales_order", number)
}

func (r *memOrderRepo) GetForUpdate(ctx context.Context, docID id.ID) (*SalesOrder, error) {
	return r.GetByID(ctx, docID)
}

func (r *memOrderRepo) Update(ctx context.Context, doc *SalesOrder) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("sales_order", doc.ID.String())
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memOrderRepo) Delete(ctx context.Context, docID id.ID) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("sales_order", docID.String())
	}
	doc.DeletionMark = true
	return nil
}

func (r *memOrderRepo) GetItems(ctx context.Context, docID id.ID) ([]OrderItem, error) {
	return r.items[docID], nil
}

func (r *memOrderRepo) SaveItems(ctx context.Context, docID id.ID, items []OrderItem) error {
	r.items[docID] = append([]OrderItem(nil), items...)
	return nil
}

func (r *memOrderRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesOrder], error) {
	result := domain.ListResult[*SalesOrder]{Limit: filter.Limit, Offset: filter.Offset}
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

type stubProducts struct {
	items map[id.ID]*product.Product
}

func (s stubProducts) GetActive(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := s.items[productID]
	if !ok || p.DeletionMark || !p.IsActive {
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

type fakeLedger struct {
	entries []ledger.RecordInput
}

func (f *fakeLedger) Record(ctx context.Context, in ledger.RecordInput) (*ledger.Transaction, error) {
	f.entries = append(f.entries, in)
	tx := ledger.NewTransaction(in.Type, in.BranchID, in.Amount)
	tx.ReferenceModel = in.ReferenceModel
	tx.ReferenceID = in.ReferenceID
	return tx, nil
}

type orderFixture struct {
	svc      *Service
	repo     *memOrderRepo
	stock    *fakeStock
	ledger   *fakeLedger
	product  *product.Product
	brA      *branch.Branch
	brB      *branch.Branch
	adminCtx context.Context
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	sku := "OIL-10W40"
	prod := product.NewProduct("PRD-001", "Engine Oil 10W-40")
	prod.ID = id.New()
	prod.SKU = &sku

	brA := branch.NewBranch("BR-001", "Main Workshop")
	brA.ID = id.New()
	brB := branch.NewBranch("BR-002", "North Workshop")
	brB.ID = id.New()

	repo := newMemOrderRepo()
	st := newFakeStock()
	led := &fakeLedger{}

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
		Ledger:    led,
		Numerator: &numerator.MockGenerator{},
		TxManager: passTxManager{},
	})

	adminCtx := security.WithScope(context.Background(), &security.AccessScope{
		UserID:  "admin-1",
		Roles:   []string{string(security.RoleAdmin)},
		IsAdmin: true,
	})

	return &orderFixture{
		svc:      svc,
		repo:     repo,
		stock:    st,
		ledger:   led,
		product:  prod,
		brA:      brA,
		brB:      brB,
		adminCtx: adminCtx,
	}
}

func (f *orderFixture) seedStock(branchID id.ID, qty int64, sellingPrice float64) {
	rec := entity.NewStockRecord(f.product.ID, branchID)
	rec.Quantity = qty
	rec.CostPrice = types.NewMoney(100)
	rec.SellingPrice = types.NewMoney(sellingPrice)
	f.stock.records[recKey(f.product.ID, branchID)] = rec
}

func TestCreate_ReservesAndSnapshotsPrice(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 2}},
		PaymentMethod: types.PaymentCash,
		ActorID:       "admin-1",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, doc.Status)
	assert.Contains(t, doc.Number, "SO")
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "OIL-10W40", doc.Items[0].SKU)
	assert.True(t, doc.Items[0].UnitPrice.Equal(types.NewMoney(250)))
	assert.True(t, doc.Subtotal.Equal(types.NewMoney(500)))
	assert.True(t, doc.Total.Equal(types.NewMoney(500)))

	rec := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(100), rec.Quantity)
	assert.Equal(t, int64(2), rec.ReservedQuantity)
}

func TestCreate_BranchPricingSnapshot(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)
	f.seedStock(f.brB.ID, 100, 300)

	docA, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 1}},
		PaymentMethod: types.PaymentCash,
	})
	require.NoError(t, err)

	docB, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brB.ID,
		CustomerName:  "Sari",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 1}},
		PaymentMethod: types.PaymentCash,
	})
	require.NoError(t, err)

	assert.True(t, docA.Items[0].UnitPrice.Equal(types.NewMoney(250)))
	assert.True(t, docB.Items[0].UnitPrice.Equal(types.NewMoney(300)))
}

func TestCreate_InsufficientLineAbortsWithoutReservations(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 1, 250)

	sku := "PAD-SET"
	other := product.NewProduct("PRD-002", "Brake Pads")
	other.ID = id.New()
	other.SKU = &sku
	f.svc.products = stubProducts{items: map[id.ID]*product.Product{
		f.product.ID: f.product,
		other.ID:     other,
	}}

	rec := entity.NewStockRecord(other.ID, f.brA.ID)
	rec.Quantity = 100
	rec.SellingPrice = types.NewMoney(80)
	f.stock.records[recKey(other.ID, f.brA.ID)] = rec

	_, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:     f.brA.ID,
		CustomerName: "Budi",
		Items: []CreateItemInput{
			{ProductID: other.ID, Quantity: 5},
			{ProductID: f.product.ID, Quantity: 2}, // only 1 on hand
		},
		PaymentMethod: types.PaymentCash,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Pre-validation failed before any reservation was made.
	assert.Equal(t, int64(0), f.stock.records[recKey(other.ID, f.brA.ID)].ReservedQuantity)
	assert.Equal(t, int64(0), f.stock.records[recKey(f.product.ID, f.brA.ID)].ReservedQuantity)
	assert.Empty(t, f.repo.docs)
}

func TestCreate_BranchMismatchForbidden(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	ctx := security.WithScope(context.Background(), &security.AccessScope{
		UserID:   "sales-1",
		Roles:    []string{string(security.RoleSalesperson)},
		BranchID: f.brB.ID.String(),
	})

	_, err := f.svc.Create(ctx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 1}},
		PaymentMethod: types.PaymentCash,
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestAdvanceStatus_CompletePaidOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 2}},
		PaymentMethod: types.PaymentCash,
		AmountPaid:    types.NewMoney(500),
		ActorID:       "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentPaid, doc.PaymentStatus)

	doc, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusProcessing, "admin-1")
	require.NoError(t, err)

	doc, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCompleted, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, doc.Status)
	assert.NotNil(t, doc.CompletedAt)

	rec := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(98), rec.Quantity)
	assert.Equal(t, int64(0), rec.ReservedQuantity)

	// Exactly one ledger entry, carrying the order total.
	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, ledger.TypeSale, entry.Type)
	assert.True(t, entry.Amount.Equal(doc.Total))
	assert.Equal(t, ledger.RefSalesOrder, entry.ReferenceModel)
	assert.Equal(t, doc.ID, entry.ReferenceID)
}

func TestAdvanceStatus_CompleteUnpaidRecordsNothing(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 2}},
		PaymentMethod: types.PaymentCash,
	})
	require.NoError(t, err)

	_, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusProcessing, "admin-1")
	require.NoError(t, err)
	doc, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCompleted, "admin-1")
	require.NoError(t, err)

	// Stock deducted, but no ledger entry for an unpaid order.
	rec := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(98), rec.Quantity)
	assert.Empty(t, f.ledger.entries)
}

func TestAdvanceStatus_PendingCannotComplete(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 2}},
		PaymentMethod: types.PaymentCash,
	})
	require.NoError(t, err)

	_, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCompleted, "admin-1")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestCancel_RestoresStock(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 2}},
		PaymentMethod: types.PaymentCash,
	})
	require.NoError(t, err)

	doc, err = f.svc.Cancel(f.adminCtx, doc.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, doc.Status)

	rec := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(100), rec.Quantity)
	assert.Equal(t, int64(0), rec.ReservedQuantity)
}

func TestCancel_IsIdempotent(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 5}},
		PaymentMethod: types.PaymentCash,
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.adminCtx, doc.ID, "admin-1")
	require.NoError(t, err)
	_, err = f.svc.Cancel(f.adminCtx, doc.ID, "admin-1")
	require.NoError(t, err)

	// A second cancel releases nothing further.
	rec := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(0), rec.ReservedQuantity)
}

func TestCancel_CompletedOrderRejected(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 2}},
		PaymentMethod: types.PaymentCash,
	})
	require.NoError(t, err)

	_, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusProcessing, "admin-1")
	require.NoError(t, err)
	_, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCompleted, "admin-1")
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.adminCtx, doc.ID, "admin-1")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidOperation, appErr.Code)
}

func TestUpdatePayment_RecomputesDerivedFields(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 2}},
		PaymentMethod: types.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentPending, doc.PaymentStatus)

	partial := types.NewMoney(200)
	doc, err = f.svc.UpdatePayment(f.adminCtx, doc.ID, UpdatePaymentInput{AmountPaid: &partial})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentPartial, doc.PaymentStatus)
	assert.True(t, doc.Change.Equal(types.Zero()))

	full := types.NewMoney(600)
	doc, err = f.svc.UpdatePayment(f.adminCtx, doc.ID, UpdatePaymentInput{AmountPaid: &full})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentPaid, doc.PaymentStatus)
	assert.True(t, doc.Change.Equal(types.NewMoney(100)))
	assert.NotNil(t, doc.PaidAt)
}

func TestUpdatePayment_ClosedOrderRejected(t *testing.T) {
	f := newOrderFixture(t)
	f.seedStock(f.brA.ID, 100, 250)

	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		Items:         []CreateItemInput{{ProductID: f.product.ID, Quantity: 2}},
		PaymentMethod: types.PaymentCash,
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.adminCtx, doc.ID, "admin-1")
	require.NoError(t, err)

	amount := types.NewMoney(500)
	_, err = f.svc.UpdatePayment(f.adminCtx, doc.ID, UpdatePaymentInput{AmountPaid: &amount})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidOperation, appErr.Code)
}

func TestRecalculate_TaxAndDiscount(t *testing.T) {
	order := NewSalesOrder(id.New(), "Budi")
	order.TaxRate = types.NewMoney(0.1)
	order.Discount = types.NewMoney(50)

	order.AddItem(id.New(), "SKU-1", "Oil", 2, types.NewMoney(250), types.Zero())

	assert.True(t, order.Subtotal.Equal(types.NewMoney(500)))
	assert.True(t, order.TaxAmount.Equal(types.NewMoney(50)))
	assert.True(t, order.Total.Equal(types.NewMoney(500)))
}
