package service_order

import (
	"context"
	"fmt"
	"time"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/core/numerator"
	"garasi/internal/core/security"
	"garasi/internal/core/tx"
	"garasi/internal/core/types"
	"garasi/internal/domain"
	"garasi/internal/domain/auth"
	"garasi/internal/domain/catalogs/branch"
	"garasi/internal/domain/catalogs/product"
	"garasi/internal/domain/ledger"
	"garasi/pkg/logger"
)

// StockOps is the slice of the stock register the job workflow drives.
// Jobs never reserve; they read availability while the parts list is
// edited and deduct at completion.
type StockOps interface {
	GetRecord(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error)
	GetRecordOrNull(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error)
	Deduct(ctx context.Context, productID, branchID id.ID, qty int64) error
}

// ProductResolver resolves products that are active and not deleted.
type ProductResolver interface {
	GetActive(ctx context.Context, productID id.ID) (*product.Product, error)
}

// BranchResolver resolves branch references.
type BranchResolver interface {
	GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error)
}

// MechanicResolver resolves assignable mechanics. GetMechanic fails
// unless the user is active and carries the mechanic role.
type MechanicResolver interface {
	GetMechanic(ctx context.Context, userID id.ID) (*auth.User, error)
}

// LedgerRecorder appends financial transactions. Record participates in
// the caller's transaction.
type LedgerRecorder interface {
	Record(ctx context.Context, in ledger.RecordInput) (*ledger.Transaction, error)
}

// Auditor records job mutations.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

type nopAuditor struct{}

func (nopAuditor) LogChange(context.Context, string, id.ID, string, map[string]any) error {
	return nil
}

// EventPublisher pushes job lifecycle notifications.
type EventPublisher interface {
	OrderCompleted(ctx context.Context, orderID id.ID) error
}

// NopPublisher discards events.
type NopPublisher struct{}

// OrderCompleted implements EventPublisher.
func (NopPublisher) OrderCompleted(context.Context, id.ID) error { return nil }

// ServiceConfig wires the service order dependencies.
type ServiceConfig struct {
	Repo      Repository
	Stock     StockOps
	Products  ProductResolver
	Branches  BranchResolver
	Mechanics MechanicResolver
	Ledger    LedgerRecorder
	Numerator numerator.Generator
	TxManager tx.Manager
	Auditor   Auditor
	Events    EventPublisher
}

// Service provides business operations for service orders.
type Service struct {
	repo      Repository
	stock     StockOps
	products  ProductResolver
	branches  BranchResolver
	mechanics MechanicResolver
	ledger    LedgerRecorder
	numerator numerator.Generator
	txm       tx.Manager
	auditor   Auditor
	events    EventPublisher
}

// NewService creates a service order service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		stock:     cfg.Stock,
		products:  cfg.Products,
		branches:  cfg.Branches,
		mechanics: cfg.Mechanics,
		ledger:    cfg.Ledger,
		numerator: cfg.Numerator,
		txm:       cfg.TxManager,
		auditor:   cfg.Auditor,
		events:    cfg.Events,
	}
	if s.auditor == nil {
		s.auditor = nopAuditor{}
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	return s
}

// CreateInput describes a new workshop job.
type CreateInput struct {
	BranchID id.ID

	CustomerName  string
	CustomerPhone string

	VehicleMake    *string
	VehicleModel   *string
	VehicleYear    *int
	VehiclePlate   *string
	VehicleMileage *int64

	Description string
	Priority    Priority
	AssignedTo  *id.ID

	Notes   string
	ActorID string
}

// Create persists a new job. No stock is touched: parts are attached
// later through UpdateParts. When a mechanic is assigned up front the
// job starts in scheduled instead of pending.
func (s *Service) Create(ctx context.Context, in CreateInput) (*ServiceOrder, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireBranch(in.BranchID.String()); err != nil {
		return nil, err
	}

	br, err := s.branches.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	if br.DeletionMark {
		return nil, apperror.NewNotFound("branch", in.BranchID.String())
	}

	doc := NewServiceOrder(in.BranchID, in.CustomerName, in.CustomerPhone, in.Description)
	doc.VehicleMake = in.VehicleMake
	doc.VehicleModel = in.VehicleModel
	doc.VehicleYear = in.VehicleYear
	doc.VehiclePlate = in.VehiclePlate
	doc.VehicleMileage = in.VehicleMileage
	doc.Notes = in.Notes
	doc.CreatedBy = in.ActorID
	if in.Priority != "" {
		doc.Priority = in.Priority
	}

	if in.AssignedTo != nil {
		mech, err := s.resolveMechanic(ctx, *in.AssignedTo, in.BranchID, scope)
		if err != nil {
			return nil, err
		}
		doc.AssignMechanic(mech.ID)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx,
		numerator.DefaultConfig(numerator.PrefixServiceOrder),
		&numerator.Options{Strategy: NumeratorStrategy},
		time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("generate job number: %w", err)
	}
	doc.Number = number

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create service order: %w", err)
		}

		return s.auditor.LogChange(ctx, "service_order", doc.ID, "create", map[string]any{
			"number":    doc.Number,
			"branch_id": doc.BranchID.String(),
			"status":    string(doc.Status),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "service order created",
		"id", doc.ID,
		"number", doc.Number,
		"status", string(doc.Status),
	)

	return doc, nil
}

// resolveMechanic verifies the assignee. Outside admin scope the
// mechanic must belong to the job's branch.
func (s *Service) resolveMechanic(ctx context.Context, mechanicID, branchID id.ID, scope *security.AccessScope) (*auth.User, error) {
	mech, err := s.mechanics.GetMechanic(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	if !scope.IsAdmin && mech.HomeBranch() != branchID.String() {
		return nil, apperror.NewValidation("mechanic belongs to a different branch").
			WithDetail("mechanic_id", mechanicID.String()).
			WithDetail("branch_id", branchID.String())
	}
	return mech, nil
}

// GetByID retrieves a job with its parts.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*ServiceOrder, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	parts, err := s.repo.GetParts(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get parts: %w", err)
	}
	doc.Parts = parts

	return doc, nil
}

// GetByNumber retrieves a job by its document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*ServiceOrder, error) {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	parts, err := s.repo.GetParts(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get parts: %w", err)
	}
	doc.Parts = parts

	return doc, nil
}

// Assign puts the job on a mechanic. Reassignment is allowed at any
// non-terminal status; a pending job moves to scheduled.
func (s *Service) Assign(ctx context.Context, docID, mechanicID id.ID, actorID string) (*ServiceOrder, error) {
	var doc *ServiceOrder

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		scope := security.GetScope(ctx)
		if err := scope.RequireBranch(doc.BranchID.String()); err != nil {
			return err
		}

		if doc.Status.IsTerminal() {
			return apperror.NewInvalidOperation("closed jobs cannot be reassigned").
				WithDetail("status", string(doc.Status))
		}

		mech, err := s.mechanics.GetMechanic(ctx, mechanicID)
		if err != nil {
			return err
		}

		doc.AssignMechanic(mech.ID)
		doc.UpdatedBy = actorID

		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		return s.auditor.LogChange(ctx, "service_order", doc.ID, "assign", map[string]any{
			"number":      doc.Number,
			"mechanic_id": mechanicID.String(),
			"status":      string(doc.Status),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "service order assigned",
		"id", doc.ID,
		"number", doc.Number,
		"mechanic_id", mechanicID,
	)

	return doc, nil
}

// PartInput is one requested part line. Identity and price are
// snapshotted server-side from the branch stock record.
type PartInput struct {
	ProductID id.ID
	Quantity  int64
	Discount  types.Money
}

// UpdateParts replaces the job's parts list. Each part's current
// availability at the job's branch is checked, but nothing is reserved:
// two jobs editing parts concurrently can both pass this check and race
// for the same stock at completion, where the deduction guard settles it.
func (s *Service) UpdateParts(ctx context.Context, docID id.ID, parts []PartInput, actorID string) (*ServiceOrder, error) {
	var doc *ServiceOrder

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		scope := security.GetScope(ctx)
		if err := scope.RequireBranch(doc.BranchID.String()); err != nil {
			return err
		}

		if doc.Status.IsTerminal() {
			return apperror.NewInvalidOperation("parts cannot change on a closed job").
				WithDetail("status", string(doc.Status))
		}

		lines := make([]PartLine, 0, len(parts))
		for _, part := range parts {
			prod, err := s.products.GetActive(ctx, part.ProductID)
			if err != nil {
				return err
			}

			rec, err := s.stock.GetRecord(ctx, part.ProductID, doc.BranchID)
			if err != nil {
				return err
			}

			if !rec.HasSufficient(part.Quantity) {
				return apperror.NewInsufficientStock(part.ProductID.String(), part.Quantity, rec.AvailableQuantity())
			}

			sku := ""
			if prod.SKU != nil {
				sku = *prod.SKU
			}
			lines = append(lines, PartLine{
				ProductID: part.ProductID,
				SKU:       sku,
				Name:      prod.Name,
				Quantity:  part.Quantity,
				UnitPrice: rec.SellingPrice,
				Discount:  part.Discount,
			})
		}

		doc.SetParts(lines)
		doc.UpdatedBy = actorID

		if err := doc.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.SaveParts(ctx, doc.ID, doc.Parts); err != nil {
			return fmt.Errorf("save parts: %w", err)
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		return s.auditor.LogChange(ctx, "service_order", doc.ID, "update_parts", map[string]any{
			"number":      doc.Number,
			"parts":       len(doc.Parts),
			"total_parts": doc.TotalParts,
		})
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// UpdateChargesInput carries partial charge updates.
type UpdateChargesInput struct {
	LaborCost    *types.Money
	OtherCharges *types.Money
	Diagnosis    *string
	ActorID      string
}

// UpdateCharges adjusts labor cost, other charges or the diagnosis on a
// non-terminal job and recomputes the total.
func (s *Service) UpdateCharges(ctx context.Context, docID id.ID, in UpdateChargesInput) (*ServiceOrder, error) {
	var doc *ServiceOrder

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		scope := security.GetScope(ctx)
		if err := scope.RequireBranch(doc.BranchID.String()); err != nil {
			return err
		}

		if doc.Status.IsTerminal() {
			return apperror.NewInvalidOperation("charges cannot change on a closed job").
				WithDetail("status", string(doc.Status))
		}

		doc.Parts, err = s.repo.GetParts(ctx, docID)
		if err != nil {
			return fmt.Errorf("get parts: %w", err)
		}

		if in.LaborCost != nil {
			if in.LaborCost.LessThan(types.Zero()) {
				return apperror.NewValidation("labor cost must not be negative").
					WithDetail("field", "laborCost")
			}
			doc.LaborCost = *in.LaborCost
		}
		if in.OtherCharges != nil {
			if in.OtherCharges.LessThan(types.Zero()) {
				return apperror.NewValidation("other charges must not be negative").
					WithDetail("field", "otherCharges")
			}
			doc.OtherCharges = *in.OtherCharges
		}
		if in.Diagnosis != nil {
			doc.Diagnosis = in.Diagnosis
		}

		doc.Recalculate()
		doc.UpdatedBy = in.ActorID

		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		return s.auditor.LogChange(ctx, "service_order", doc.ID, "update", map[string]any{
			"number":       doc.Number,
			"labor_cost":   doc.LaborCost,
			"total_amount": doc.TotalAmount,
		})
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// AdvanceStatus moves the job to newStatus and applies the transition's
// side effects inside one transaction. A mechanic may only advance jobs
// assigned to them; other roles are bound by branch scope alone.
func (s *Service) AdvanceStatus(ctx context.Context, docID id.ID, newStatus Status, actorID string) (*ServiceOrder, error) {
	var doc *ServiceOrder

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		scope := security.GetScope(ctx)
		if err := scope.RequireBranch(doc.BranchID.String()); err != nil {
			return err
		}
		if err := requireOwnJobForMechanic(scope, doc); err != nil {
			return err
		}

		if err := doc.CanTransition(newStatus); err != nil {
			return err
		}

		doc.Parts, err = s.repo.GetParts(ctx, docID)
		if err != nil {
			return fmt.Errorf("get parts: %w", err)
		}

		switch newStatus {
		case StatusInProgress:
			now := time.Now().UTC()
			doc.StartedAt = &now

		case StatusCompleted:
			if err := s.complete(ctx, doc, actorID); err != nil {
				return err
			}
		}

		doc.Status = newStatus
		doc.UpdatedBy = actorID

		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		if err := s.auditor.LogChange(ctx, "service_order", doc.ID, "status_change", map[string]any{
			"number": doc.Number,
			"status": string(newStatus),
		}); err != nil {
			return err
		}

		if newStatus == StatusCompleted {
			return s.events.OrderCompleted(ctx, doc.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "service order advanced",
		"id", doc.ID,
		"number", doc.Number,
		"status", string(newStatus),
	)

	return doc, nil
}

// requireOwnJobForMechanic confines mechanic callers to their own
// assignments. Admins and branch staff with other roles pass through.
func requireOwnJobForMechanic(scope *security.AccessScope, doc *ServiceOrder) error {
	if scope.IsAdmin {
		return nil
	}

	mechanic := false
	for _, r := range scope.Roles {
		if r == string(security.RoleMechanic) {
			mechanic = true
			break
		}
	}
	if !mechanic {
		return nil
	}

	if doc.AssignedTo == nil || doc.AssignedTo.String() != scope.UserID {
		return apperror.NewForbidden("job is assigned to another mechanic").
			WithDetail("job", doc.Number)
	}
	return nil
}

// complete deducts every part line and, when the job is fully paid,
// appends the service charge to the ledger. Parts were never reserved,
// so a shortfall since the last parts check surfaces here.
func (s *Service) complete(ctx context.Context, doc *ServiceOrder, actorID string) error {
	for _, part := range doc.Parts {
		if err := s.deductPart(ctx, doc, part); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	doc.CompletedAt = &now

	if doc.PaymentStatus == types.PaymentPaid {
		_, err := s.ledger.Record(ctx, ledger.RecordInput{
			Type:           ledger.TypeService,
			BranchID:       doc.BranchID,
			Amount:         doc.TotalAmount,
			PaymentMethod:  doc.PaymentMethod,
			ReferenceModel: ledger.RefServiceOrder,
			ReferenceID:    doc.ID,
			Description:    "service order " + doc.Number,
			ProcessedBy:    actorID,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// deductPart consumes one part line. A failed deduction guard means the
// stock dropped below the part quantity since the parts were checked,
// which is an insufficiency to the caller, not a bad request.
func (s *Service) deductPart(ctx context.Context, doc *ServiceOrder, part PartLine) error {
	err := s.stock.Deduct(ctx, part.ProductID, doc.BranchID, part.Quantity)
	if err == nil {
		return nil
	}

	if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeInvalidOperation {
		available := int64(0)
		if rec, recErr := s.stock.GetRecordOrNull(ctx, part.ProductID, doc.BranchID); recErr == nil && rec != nil {
			available = rec.AvailableQuantity()
		}
		return apperror.NewInsufficientStock(part.ProductID.String(), part.Quantity, available)
	}

	return err
}

// UpdatePaymentInput carries partial payment updates.
type UpdatePaymentInput struct {
	AmountPaid    *types.Money
	PaymentMethod *types.PaymentMethod
	ActorID       string
}

// UpdatePayment adjusts payment fields on a non-terminal job and
// recomputes change and payment status against the total amount.
func (s *Service) UpdatePayment(ctx context.Context, docID id.ID, in UpdatePaymentInput) (*ServiceOrder, error) {
	var doc *ServiceOrder

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		scope := security.GetScope(ctx)
		if err := scope.RequireBranch(doc.BranchID.String()); err != nil {
			return err
		}

		if doc.Status.IsTerminal() {
			return apperror.NewInvalidOperation("payment cannot change on a closed job").
				WithDetail("status", string(doc.Status))
		}

		doc.Parts, err = s.repo.GetParts(ctx, docID)
		if err != nil {
			return fmt.Errorf("get parts: %w", err)
		}

		if in.AmountPaid != nil {
			if in.AmountPaid.LessThan(types.Zero()) {
				return apperror.NewValidation("amount paid must not be negative").
					WithDetail("field", "amountPaid")
			}
			doc.AmountPaid = *in.AmountPaid
		}
		if in.PaymentMethod != nil {
			if !in.PaymentMethod.Valid() {
				return apperror.NewValidation("unknown payment method").
					WithDetail("field", "paymentMethod")
			}
			doc.PaymentMethod = *in.PaymentMethod
		}

		doc.Recalculate()
		doc.UpdatedBy = in.ActorID

		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		return s.auditor.LogChange(ctx, "service_order", doc.ID, "update", map[string]any{
			"number":         doc.Number,
			"amount_paid":    doc.AmountPaid,
			"payment_status": string(doc.PaymentStatus),
		})
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// List retrieves jobs with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ServiceOrder], error) {
	return s.repo.List(ctx, filter)
}
