package service_order

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
	"garasi/internal/domain/auth"
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

func (f *fakeStock) GetRecordOrNull(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error) {
	return f.records[recKey(productID, branchID)], nil
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

type memJobRepo struct {
	docs  map[id.ID]*ServiceOrder
	parts map[id.ID][]PartLine
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{
		docs:  make(map[id.ID]*ServiceOrder),
		parts: make(map[id.ID][]PartLine),
	}
}

func (r *memJobRepo) Create(ctx context.Context, doc *ServiceOrder) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memJobRepo) GetByID(ctx context.Context, docID id.ID) (*ServiceOrder, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("service_order", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memJobRepo) GetByNumber(ctx context.Context, number string) (*ServiceOrder, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("service_order", number)
}

func (r *memJobRepo) GetForUpdate(ctx context.Context, docID id.ID) (*ServiceOrder, error) {
	return r.GetByID(ctx, docID)
}

func (r *memJobRepo) Update(ctx context.Context, doc *ServiceOrder) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("service_order", doc.ID.String())
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memJobRepo) Delete(ctx context.Context, docID id.ID) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("service_order", docID.String())
	}
	doc.DeletionMark = true
	return nil
}

func (r *memJobRepo) GetParts(ctx context.Context, docID id.ID) ([]PartLine, error) {
	return r.parts[docID], nil
}

func (r *memJobRepo) SaveParts(ctx context.Context, docID id.ID, parts []PartLine) error {
	r.parts[docID] = append([]PartLine(nil), parts...)
	return nil
}

func (r *memJobRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ServiceOrder], error) {
	result := domain.ListResult[*ServiceOrder]{Limit: filter.Limit, Offset: filter.Offset}
	for _, doc := range r.docs {
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		if filter.AssignedTo != nil {
			if doc.AssignedTo == nil || *doc.AssignedTo != *filter.AssignedTo {
				continue
			}
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

type stubMechanics struct {
	users map[id.ID]*auth.User
}

func (s stubMechanics) GetMechanic(ctx context.Context, userID id.ID) (*auth.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("mechanic", userID.String())
	}
	if !u.IsActive {
		return nil, apperror.NewValidation("user is not active")
	}
	if !u.HasRole(security.RoleMechanic) {
		return nil, apperror.NewValidation("user is not a mechanic")
	}
	return u, nil
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

type jobFixture struct {
	svc     *Service
	repo    *memJobRepo
	stock   *fakeStock
	ledger  *fakeLedger
	product *product.Product
	brA     *branch.Branch
	brB     *branch.Branch

	mechA  *auth.User // mechanic at branch A
	mechA2 *auth.User // second mechanic at branch A
	mechB  *auth.User // mechanic at branch B

	adminCtx   context.Context
	managerCtx context.Context
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()

	sku := "BRK-PAD-F"
	prod := product.NewProduct("PRD-010", "Front Brake Pads")
	prod.ID = id.New()
	prod.SKU = &sku

	brA := branch.NewBranch("BR-001", "Main Workshop")
	brA.ID = id.New()
	brB := branch.NewBranch("BR-002", "North Workshop")
	brB.ID = id.New()

	mechA := auth.NewUser("agus@garasi.id", "hash", "Agus", string(security.RoleMechanic))
	mechA.BranchID = &brA.ID
	mechA2 := auth.NewUser("joko@garasi.id", "hash", "Joko", string(security.RoleMechanic))
	mechA2.BranchID = &brA.ID
	mechB := auth.NewUser("rudi@garasi.id", "hash", "Rudi", string(security.RoleMechanic))
	mechB.BranchID = &brB.ID

	repo := newMemJobRepo()
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
		Mechanics: stubMechanics{users: map[id.ID]*auth.User{
			mechA.ID:  mechA,
			mechA2.ID: mechA2,
			mechB.ID:  mechB,
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
	managerCtx := security.WithScope(context.Background(), &security.AccessScope{
		UserID:   "mgr-1",
		BranchID: brA.ID.String(),
		Roles:    []string{string(security.RoleManager)},
	})

	return &jobFixture{
		svc:        svc,
		repo:       repo,
		stock:      st,
		ledger:     led,
		product:    prod,
		brA:        brA,
		brB:        brB,
		mechA:      mechA,
		mechA2:     mechA2,
		mechB:      mechB,
		adminCtx:   adminCtx,
		managerCtx: managerCtx,
	}
}

func (f *jobFixture) mechanicCtx(mech *auth.User) context.Context {
	return security.WithScope(context.Background(), &security.AccessScope{
		UserID:   mech.ID.String(),
		BranchID: mech.HomeBranch(),
		Roles:    []string{string(security.RoleMechanic)},
	})
}

func (f *jobFixture) seedStock(branchID id.ID, qty int64, sellingPrice float64) {
	rec := entity.NewStockRecord(f.product.ID, branchID)
	rec.Quantity = qty
	rec.CostPrice = types.NewMoney(90)
	rec.SellingPrice = types.NewMoney(sellingPrice)
	f.stock.records[recKey(f.product.ID, branchID)] = rec
}

func (f *jobFixture) createJob(t *testing.T, assignedTo *id.ID) *ServiceOrder {
	t.Helper()

	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		CustomerPhone: "0812-000-111",
		Description:   "front brake grinding noise",
		AssignedTo:    assignedTo,
		ActorID:       "admin-1",
	})
	require.NoError(t, err)
	return doc
}

func TestCreate_StartsPendingWithoutAssignee(t *testing.T) {
	f := newJobFixture(t)

	doc := f.createJob(t, nil)

	assert.Equal(t, StatusPending, doc.Status)
	assert.Contains(t, doc.Number, "JOB")
	assert.Equal(t, PriorityNormal, doc.Priority)
	assert.Nil(t, doc.AssignedTo)
	assert.Nil(t, doc.ScheduledAt)
	assert.True(t, doc.TotalAmount.IsZero())
}

func TestCreate_AssignedUpFrontIsScheduled(t *testing.T) {
	f := newJobFixture(t)

	doc := f.createJob(t, &f.mechA.ID)

	assert.Equal(t, StatusScheduled, doc.Status)
	require.NotNil(t, doc.AssignedTo)
	assert.Equal(t, f.mechA.ID, *doc.AssignedTo)
	assert.NotNil(t, doc.ScheduledAt)
}

func TestCreate_MechanicFromOtherBranchRejected(t *testing.T) {
	f := newJobFixture(t)

	_, err := f.svc.Create(f.managerCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		CustomerPhone: "0812-000-111",
		Description:   "oil change",
		AssignedTo:    &f.mechB.ID,
		ActorID:       "mgr-1",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	// Admin callers may assign across branches.
	doc, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		CustomerPhone: "0812-000-111",
		Description:   "oil change",
		AssignedTo:    &f.mechB.ID,
		ActorID:       "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, doc.Status)
}

func TestCreate_NonMechanicAssigneeRejected(t *testing.T) {
	f := newJobFixture(t)

	sales := auth.NewUser("sari@garasi.id", "hash", "Sari", string(security.RoleSalesperson))
	sales.BranchID = &f.brA.ID
	f.svc.mechanics = stubMechanics{users: map[id.ID]*auth.User{sales.ID: sales}}

	_, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:      f.brA.ID,
		CustomerName:  "Budi",
		CustomerPhone: "0812-000-111",
		Description:   "oil change",
		AssignedTo:    &sales.ID,
		ActorID:       "admin-1",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreate_RequiresCustomerPhone(t *testing.T) {
	f := newJobFixture(t)

	_, err := f.svc.Create(f.adminCtx, CreateInput{
		BranchID:     f.brA.ID,
		CustomerName: "Budi",
		Description:  "oil change",
		ActorID:      "admin-1",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestAssign_PendingBecomesScheduled(t *testing.T) {
	f := newJobFixture(t)
	doc := f.createJob(t, nil)

	doc, err := f.svc.Assign(f.adminCtx, doc.ID, f.mechA.ID, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, StatusScheduled, doc.Status)
	require.NotNil(t, doc.AssignedTo)
	assert.Equal(t, f.mechA.ID, *doc.AssignedTo)
	assert.NotNil(t, doc.ScheduledAt)
}

func TestAssign_ReassignmentKeepsStatus(t *testing.T) {
	f := newJobFixture(t)
	doc := f.createJob(t, &f.mechA.ID)

	_, err := f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusInProgress, "admin-1")
	require.NoError(t, err)

	doc, err = f.svc.Assign(f.adminCtx, doc.ID, f.mechA2.ID, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, StatusInProgress, doc.Status)
	assert.Equal(t, f.mechA2.ID, *doc.AssignedTo)
}

func TestAssign_ClosedJobRejected(t *testing.T) {
	f := newJobFixture(t)
	doc := f.createJob(t, nil)

	_, err := f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCancelled, "admin-1")
	require.NoError(t, err)

	_, err = f.svc.Assign(f.adminCtx, doc.ID, f.mechA.ID, "admin-1")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidOperation, appErr.Code)
}

func TestUpdateParts_SnapshotsAndComputesTotals(t *testing.T) {
	f := newJobFixture(t)
	f.seedStock(f.brA.ID, 10, 150)
	doc := f.createJob(t, nil)

	doc, err := f.svc.UpdateParts(f.adminCtx, doc.ID, []PartInput{
		{ProductID: f.product.ID, Quantity: 2},
	}, "admin-1")
	require.NoError(t, err)

	require.Len(t, doc.Parts, 1)
	assert.Equal(t, "BRK-PAD-F", doc.Parts[0].SKU)
	assert.Equal(t, "Front Brake Pads", doc.Parts[0].Name)
	assert.True(t, doc.Parts[0].UnitPrice.Equal(types.NewMoney(150)))
	assert.True(t, doc.TotalParts.Equal(types.NewMoney(300)))
	assert.True(t, doc.TotalAmount.Equal(types.NewMoney(300)))

	labor := types.NewMoney(500)
	doc, err = f.svc.UpdateCharges(f.adminCtx, doc.ID, UpdateChargesInput{
		LaborCost: &labor,
		ActorID:   "admin-1",
	})
	require.NoError(t, err)
	assert.True(t, doc.TotalParts.Equal(types.NewMoney(300)))
	assert.True(t, doc.TotalAmount.Equal(types.NewMoney(800)))

	labor = types.NewMoney(800)
	doc, err = f.svc.UpdateCharges(f.adminCtx, doc.ID, UpdateChargesInput{
		LaborCost: &labor,
		ActorID:   "admin-1",
	})
	require.NoError(t, err)
	assert.True(t, doc.TotalParts.Equal(types.NewMoney(300)))
	assert.True(t, doc.TotalAmount.Equal(types.NewMoney(1100)))
}

func TestUpdateParts_DoesNotReserve(t *testing.T) {
	f := newJobFixture(t)
	f.seedStock(f.brA.ID, 10, 150)
	doc := f.createJob(t, nil)

	_, err := f.svc.UpdateParts(f.adminCtx, doc.ID, []PartInput{
		{ProductID: f.product.ID, Quantity: 4},
	}, "admin-1")
	require.NoError(t, err)

	rec := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(10), rec.Quantity)
	assert.Equal(t, int64(0), rec.ReservedQuantity)
}

func TestUpdateParts_ChecksAvailabilityNotOnHand(t *testing.T) {
	f := newJobFixture(t)
	f.seedStock(f.brA.ID, 5, 150)
	f.stock.records[recKey(f.product.ID, f.brA.ID)].ReservedQuantity = 4
	doc := f.createJob(t, nil)

	_, err := f.svc.UpdateParts(f.adminCtx, doc.ID, []PartInput{
		{ProductID: f.product.ID, Quantity: 2},
	}, "admin-1")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(1), appErr.Details["available"])
}

func TestUpdateParts_ClosedJobRejected(t *testing.T) {
	f := newJobFixture(t)
	f.seedStock(f.brA.ID, 10, 150)
	doc := f.createJob(t, nil)

	_, err := f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCancelled, "admin-1")
	require.NoError(t, err)

	_, err = f.svc.UpdateParts(f.adminCtx, doc.ID, []PartInput{
		{ProductID: f.product.ID, Quantity: 1},
	}, "admin-1")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidOperation, appErr.Code)
}

func TestAdvanceStatus_FullFlowDeductsAndRecordsLedger(t *testing.T) {
	f := newJobFixture(t)
	f.seedStock(f.brA.ID, 10, 150)
	doc := f.createJob(t, &f.mechA.ID)

	_, err := f.svc.UpdateParts(f.adminCtx, doc.ID, []PartInput{
		{ProductID: f.product.ID, Quantity: 2},
	}, "admin-1")
	require.NoError(t, err)

	labor := types.NewMoney(500)
	_, err = f.svc.UpdateCharges(f.adminCtx, doc.ID, UpdateChargesInput{
		LaborCost: &labor,
		ActorID:   "admin-1",
	})
	require.NoError(t, err)

	doc, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusInProgress, "admin-1")
	require.NoError(t, err)
	assert.NotNil(t, doc.StartedAt)

	paid := types.NewMoney(800)
	doc, err = f.svc.UpdatePayment(f.adminCtx, doc.ID, UpdatePaymentInput{
		AmountPaid: &paid,
		ActorID:    "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentPaid, doc.PaymentStatus)

	doc, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCompleted, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, doc.Status)
	assert.NotNil(t, doc.CompletedAt)

	rec := f.stock.records[recKey(f.product.ID, f.brA.ID)]
	assert.Equal(t, int64(8), rec.Quantity)

	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, ledger.TypeService, entry.Type)
	assert.True(t, entry.Amount.Equal(types.NewMoney(800)))
	assert.Equal(t, ledger.RefServiceOrder, entry.ReferenceModel)
	assert.Equal(t, doc.ID, entry.ReferenceID)
}

func TestAdvanceStatus_UnpaidCompletionRecordsNothing(t *testing.T) {
	f := newJobFixture(t)
	f.seedStock(f.brA.ID, 10, 150)
	doc := f.createJob(t, &f.mechA.ID)

	_, err := f.svc.UpdateParts(f.adminCtx, doc.ID, []PartInput{
		{ProductID: f.product.ID, Quantity: 1},
	}, "admin-1")
	require.NoError(t, err)

	_, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusInProgress, "admin-1")
	require.NoError(t, err)

	doc, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCompleted, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, types.PaymentPending, doc.PaymentStatus)
	assert.Empty(t, f.ledger.entries)
}

func TestAdvanceStatus_CompletionRaceSurfacesInsufficiency(t *testing.T) {
	f := newJobFixture(t)
	f.seedStock(f.brA.ID, 3, 150)
	doc := f.createJob(t, &f.mechA.ID)

	_, err := f.svc.UpdateParts(f.adminCtx, doc.ID, []PartInput{
		{ProductID: f.product.ID, Quantity: 2},
	}, "admin-1")
	require.NoError(t, err)

	_, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusInProgress, "admin-1")
	require.NoError(t, err)

	// Another order consumed the stock between the parts check and
	// completion.
	f.stock.records[recKey(f.product.ID, f.brA.ID)].Quantity = 1

	_, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCompleted, "admin-1")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	stored, err := f.repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, stored.Status)
	assert.Empty(t, f.ledger.entries)
}

func TestAdvanceStatus_MechanicOwnJobsOnly(t *testing.T) {
	f := newJobFixture(t)
	doc := f.createJob(t, &f.mechA.ID)

	_, err := f.svc.AdvanceStatus(f.mechanicCtx(f.mechA2), doc.ID, StatusInProgress, f.mechA2.ID.String())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)

	doc, err = f.svc.AdvanceStatus(f.mechanicCtx(f.mechA), doc.ID, StatusInProgress, f.mechA.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, doc.Status)
}

func TestAdvanceStatus_AdminBypassesAssignment(t *testing.T) {
	f := newJobFixture(t)
	doc := f.createJob(t, &f.mechA.ID)

	doc, err := f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusInProgress, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, doc.Status)
}

func TestAdvanceStatus_TransitionTable(t *testing.T) {
	f := newJobFixture(t)
	doc := f.createJob(t, nil)

	_, err := f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCompleted, "admin-1")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)

	_, err = f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusInProgress, "admin-1")
	require.Error(t, err)
}

func TestUpdatePayment_DerivedAgainstTotalAmount(t *testing.T) {
	f := newJobFixture(t)
	f.seedStock(f.brA.ID, 10, 150)
	doc := f.createJob(t, nil)

	_, err := f.svc.UpdateParts(f.adminCtx, doc.ID, []PartInput{
		{ProductID: f.product.ID, Quantity: 2},
	}, "admin-1")
	require.NoError(t, err)

	labor := types.NewMoney(500)
	_, err = f.svc.UpdateCharges(f.adminCtx, doc.ID, UpdateChargesInput{
		LaborCost: &labor,
		ActorID:   "admin-1",
	})
	require.NoError(t, err)

	partial := types.NewMoney(300)
	doc, err = f.svc.UpdatePayment(f.adminCtx, doc.ID, UpdatePaymentInput{
		AmountPaid: &partial,
		ActorID:    "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentPartial, doc.PaymentStatus)
	assert.True(t, doc.Change.IsZero())
	assert.Nil(t, doc.PaidAt)

	full := types.NewMoney(900)
	doc, err = f.svc.UpdatePayment(f.adminCtx, doc.ID, UpdatePaymentInput{
		AmountPaid: &full,
		ActorID:    "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentPaid, doc.PaymentStatus)
	assert.True(t, doc.Change.Equal(types.NewMoney(100)))
	assert.NotNil(t, doc.PaidAt)
}

func TestUpdatePayment_ClosedJobRejected(t *testing.T) {
	f := newJobFixture(t)
	doc := f.createJob(t, nil)

	_, err := f.svc.AdvanceStatus(f.adminCtx, doc.ID, StatusCancelled, "admin-1")
	require.NoError(t, err)

	paid := types.NewMoney(100)
	_, err = f.svc.UpdatePayment(f.adminCtx, doc.ID, UpdatePaymentInput{
		AmountPaid: &paid,
		ActorID:    "admin-1",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidOperation, appErr.Code)
}

func TestStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusScheduled, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusInProgress, false},
		{StatusPending, StatusCompleted, false},
		{StatusScheduled, StatusInProgress, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}
