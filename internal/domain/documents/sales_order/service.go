package sales_order

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
	"garasi/internal/domain/catalogs/branch"
	"garasi/internal/domain/catalogs/product"
	"garasi/internal/domain/ledger"
	"garasi/pkg/logger"
)

// StockOps is the slice of the stock register the order workflow
// drives: reserve at creation, deduct at completion, release at
// cancellation.
type StockOps interface {
	GetRecord(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error)
	Reserve(ctx context.Context, productID, branchID id.ID, qty int64) error
	Release(ctx context.Context, productID, branchID id.ID, qty int64) error
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

// LedgerRecorder appends financial transactions. Record participates in
// the caller's transaction.
type LedgerRecorder interface {
	Record(ctx context.Context, in ledger.RecordInput) (*ledger.Transaction, error)
}

// Auditor records order mutations.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

type nopAuditor struct{}

func (nopAuditor) LogChange(context.Context, string, id.ID, string, map[string]any) error {
	return nil
}

// EventPublisher pushes order lifecycle notifications.
type EventPublisher interface {
	OrderCompleted(ctx context.Context, orderID id.ID) error
}

// NopPublisher discards events.
type NopPublisher struct{}

// OrderCompleted implements EventPublisher.
func (NopPublisher) OrderCompleted(context.Context, id.ID) error { return nil }

// ServiceConfig wires the sales order service dependencies.
type ServiceConfig struct {
	Repo      Repository
	Stock     StockOps
	Products  ProductResolver
	Branches  BranchResolver
	Ledger    LedgerRecorder
	Numerator numerator.Generator
	TxManager tx.Manager
	Auditor   Auditor
	Events    EventPublisher
}

// Service provides business operations for sales orders.
type Service struct {
	repo      Repository
	stock     StockOps
	products  ProductResolver
	branches  BranchResolver
	ledger    LedgerRecorder
	numerator numerator.Generator
	txm       tx.Manager
	auditor   Auditor
	events    EventPublisher
}

// NewService creates a sales order service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		stock:     cfg.Stock,
		products:  cfg.Products,
		branches:  cfg.Branches,
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

// CreateItemInput is one requested line. Price and identity are not
// accepted from the caller; they are snapshotted server-side.
type CreateItemInput struct {
	ProductID id.ID
	Quantity  int64
	Discount  types.Money
}

// CreateInput describes a new sales order.
type CreateInput struct {
	BranchID id.ID

	CustomerName    string
	CustomerPhone   *string
	CustomerEmail   *string
	CustomerAddress *string

	Items []CreateItemInput

	TaxRate  types.Money
	Discount types.Money

	PaymentMethod types.PaymentMethod
	AmountPaid    types.Money

	Notes   string
	ActorID string
}

// Create builds and persists a pending order. Every line's unit price is
// snapshotted from the branch's stock record, and the full quantity of
// every line is reserved inside the creation transaction. Sufficiency is
// pre-validated for all lines before any reservation, so a failing line
// never leaves earlier lines reserved; the per-row conditional update
// still guards against concurrent creators, and its failure aborts the
// whole transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*SalesOrder, error) {
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

	if len(in.Items) == 0 {
		return nil, apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	doc := NewSalesOrder(in.BranchID, in.CustomerName)
	doc.CustomerPhone = in.CustomerPhone
	doc.CustomerEmail = in.CustomerEmail
	doc.CustomerAddress = in.CustomerAddress
	doc.TaxRate = in.TaxRate
	doc.Discount = in.Discount
	doc.PaymentMethod = in.PaymentMethod
	doc.AmountPaid = in.AmountPaid
	doc.Notes = in.Notes
	doc.ProcessedBy = in.ActorID
	doc.CreatedBy = in.ActorID

	// Resolve and pre-validate every line before touching any stock.
	for _, item := range in.Items {
		prod, err := s.products.GetActive(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		rec, err := s.stock.GetRecord(ctx, item.ProductID, in.BranchID)
		if err != nil {
			return nil, err
		}

		if !rec.HasSufficient(item.Quantity) {
			return nil, apperror.NewInsufficientStock(item.ProductID.String(), item.Quantity, rec.AvailableQuantity())
		}

		sku := ""
		if prod.SKU != nil {
			sku = *prod.SKU
		}
		doc.AddItem(item.ProductID, sku, prod.Name, item.Quantity, rec.SellingPrice, item.Discount)
	}

	doc.Recalculate()
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx,
		numerator.DefaultConfig(numerator.PrefixSalesOrder),
		&numerator.Options{Strategy: NumeratorStrategy},
		time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}
	doc.Number = number

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, item := range doc.Items {
			if err := s.stock.Reserve(ctx, item.ProductID, doc.BranchID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		return s.auditor.LogChange(ctx, "sales_order", doc.ID, "create", map[string]any{
			"number":    doc.Number,
			"branch_id": doc.BranchID.String(),
			"total":     doc.Total,
			"items":     len(doc.Items),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales order created",
		"id", doc.ID,
		"number", doc.Number,
		"total", doc.Total,
	)

	return doc, nil
}

// GetByID retrieves an order with its items.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*SalesOrder, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items

	return doc, nil
}

// GetByNumber retrieves an order by its document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*SalesOrder, error) {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items

	return doc, nil
}

// AdvanceStatus moves the order to newStatus and applies the
// transition's stock and ledger side effects inside one transaction.
func (s *Service) AdvanceStatus(ctx context.Context, docID id.ID, newStatus Status, actorID string) (*SalesOrder, error) {
	var doc *SalesOrder

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

		if err := doc.CanTransition(newStatus); err != nil {
			return err
		}

		doc.Items, err = s.repo.GetItems(ctx, docID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}

		switch newStatus {
		case StatusCompleted:
			if err := s.complete(ctx, doc, actorID); err != nil {
				return err
			}

		case StatusCancelled:
			for _, item := range doc.Items {
				if err := s.stock.Release(ctx, item.ProductID, doc.BranchID, item.Quantity); err != nil {
					return err
				}
			}
		}

		doc.Status = newStatus
		doc.UpdatedBy = actorID

		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		if err := s.auditor.LogChange(ctx, "sales_order", doc.ID, "status_change", map[string]any{
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

	logger.Info(ctx, "sales order advanced",
		"id", doc.ID,
		"number", doc.Number,
		"status", string(newStatus),
	)

	return doc, nil
}

// complete deducts every line and, when the order is fully paid,
// appends the sale to the ledger. Completion is terminal, so the ledger
// entry cannot be produced twice.
func (s *Service) complete(ctx context.Context, doc *SalesOrder, actorID string) error {
	for _, item := range doc.Items {
		if err := s.stock.Deduct(ctx, item.ProductID, doc.BranchID, item.Quantity); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	doc.CompletedAt = &now

	if doc.PaymentStatus == types.PaymentPaid {
		_, err := s.ledger.Record(ctx, ledger.RecordInput{
			Type:           ledger.TypeSale,
			BranchID:       doc.BranchID,
			Amount:         doc.Total,
			PaymentMethod:  doc.PaymentMethod,
			ReferenceModel: ledger.RefSalesOrder,
			ReferenceID:    doc.ID,
			Description:    "sales order " + doc.Number,
			ProcessedBy:    actorID,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// UpdatePaymentInput carries partial payment updates.
type UpdatePaymentInput struct {
	AmountPaid    *types.Money
	PaymentMethod *types.PaymentMethod
	ActorID       string
}

// UpdatePayment adjusts payment fields on a non-terminal order and
// recomputes change and payment status.
func (s *Service) UpdatePayment(ctx context.Context, docID id.ID, in UpdatePaymentInput) (*SalesOrder, error) {
	var doc *SalesOrder

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
			return apperror.NewInvalidOperation("payment cannot change on a closed order").
				WithDetail("status", string(doc.Status))
		}

		doc.Items, err = s.repo.GetItems(ctx, docID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
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

		return s.auditor.LogChange(ctx, "sales_order", doc.ID, "update", map[string]any{
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

// Cancel releases every line's reservation and closes the order.
// Completed orders cannot be cancelled; cancelling an already cancelled
// order is a no-op, so reservations are never double-released.
func (s *Service) Cancel(ctx context.Context, docID id.ID, actorID string) (*SalesOrder, error) {
	var doc *SalesOrder

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

		if doc.Status == StatusCompleted {
			return apperror.NewInvalidOperation("completed orders cannot be cancelled").
				WithDetail("status", string(doc.Status))
		}
		if doc.Status == StatusCancelled {
			return nil
		}

		doc.Items, err = s.repo.GetItems(ctx, docID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}

		for _, item := range doc.Items {
			if err := s.stock.Release(ctx, item.ProductID, doc.BranchID, item.Quantity); err != nil {
				return err
			}
		}

		doc.Status = StatusCancelled
		doc.UpdatedBy = actorID

		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		return s.auditor.LogChange(ctx, "sales_order", doc.ID, "status_change", map[string]any{
			"number": doc.Number,
			"status": string(StatusCancelled),
		})
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// List retrieves orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesOrder], error) {
	return s.repo.List(ctx, filter)
}
