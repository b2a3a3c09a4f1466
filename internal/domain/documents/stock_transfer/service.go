package stock_transfer

import (
	"context"
	"fmt"
	"time"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/core/numerator"
	"garasi/internal/core/tx"
	"garasi/internal/domain"
	"garasi/internal/domain/catalogs/branch"
	"garasi/internal/domain/catalogs/product"
	"garasi/internal/domain/registers/stock"
	"garasi/pkg/logger"
)

// StockOps is the slice of the stock register the transfer workflow
// drives: reserve at creation, release at cancellation, move at
// completion.
type StockOps interface {
	GetRecord(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error)
	Reserve(ctx context.Context, productID, branchID id.ID, qty int64) error
	Release(ctx context.Context, productID, branchID id.ID, qty int64) error
	Deduct(ctx context.Context, productID, branchID id.ID, qty int64) error
	ReceiveTransfer(ctx context.Context, in stock.ReceiveInput) error
}

// ProductResolver resolves product references.
type ProductResolver interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// BranchResolver resolves branch references.
type BranchResolver interface {
	GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error)
}

// Auditor records transfer mutations.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

type nopAuditor struct{}

func (nopAuditor) LogChange(context.Context, string, id.ID, string, map[string]any) error {
	return nil
}

// EventPublisher pushes transfer lifecycle notifications.
type EventPublisher interface {
	TransferCompleted(ctx context.Context, transferID id.ID) error
}

// NopPublisher discards events.
type NopPublisher struct{}

// TransferCompleted implements EventPublisher.
func (NopPublisher) TransferCompleted(context.Context, id.ID) error { return nil }

// ServiceConfig wires the transfer service dependencies.
type ServiceConfig struct {
	Repo      Repository
	Stock     StockOps
	Products  ProductResolver
	Branches  BranchResolver
	Numerator numerator.Generator
	TxManager tx.Manager
	Auditor   Auditor
	Events    EventPublisher
}

// Service provides business operations for stock transfers.
type Service struct {
	repo      Repository
	stock     StockOps
	products  ProductResolver
	branches  BranchResolver
	numerator numerator.Generator
	txm       tx.Manager
	auditor   Auditor
	events    EventPublisher
}

// NewService creates a transfer service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		stock:     cfg.Stock,
		products:  cfg.Products,
		branches:  cfg.Branches,
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

// CreateInput describes a new transfer request.
type CreateInput struct {
	ProductID    id.ID
	FromBranchID id.ID
	ToBranchID   id.ID
	Quantity     int64
	Notes        string
	ActorID      string
}

// Create validates the request, reserves the quantity at the source
// branch and persists the transfer in pending status. The reservation
// and the insert commit atomically, so a transfer row never exists
// without its backing reservation.
func (s *Service) Create(ctx context.Context, in CreateInput) (*StockTransfer, error) {
	doc := NewStockTransfer(in.ProductID, in.FromBranchID, in.ToBranchID, in.Quantity, in.ActorID)
	doc.Notes = in.Notes
	doc.CreatedBy = in.ActorID

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	prod, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if prod.DeletionMark {
		return nil, apperror.NewNotFound("product", in.ProductID.String())
	}

	if _, err := s.branches.GetByID(ctx, in.FromBranchID); err != nil {
		return nil, err
	}
	if _, err := s.branches.GetByID(ctx, in.ToBranchID); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx,
		numerator.DefaultConfig(numerator.PrefixTransfer),
		&numerator.Options{Strategy: NumeratorStrategy},
		time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("generate transfer number: %w", err)
	}
	doc.Number = number

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		// The source record must exist; reserving against absent stock
		// is a missing-record error here, not an insufficiency.
		if _, err := s.stock.GetRecord(ctx, in.ProductID, in.FromBranchID); err != nil {
			return err
		}

		if err := s.stock.Reserve(ctx, in.ProductID, in.FromBranchID, in.Quantity); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create transfer: %w", err)
		}

		return s.auditor.LogChange(ctx, "stock_transfer", doc.ID, "create", map[string]any{
			"number":         doc.Number,
			"product_id":     doc.ProductID.String(),
			"from_branch_id": doc.FromBranchID.String(),
			"to_branch_id":   doc.ToBranchID.String(),
			"quantity":       doc.Quantity,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock transfer created",
		"id", doc.ID,
		"number", doc.Number,
		"quantity", doc.Quantity,
	)

	return doc, nil
}

// GetByID retrieves a transfer.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*StockTransfer, error) {
	return s.repo.GetByID(ctx, docID)
}

// GetByNumber retrieves a transfer by its document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*StockTransfer, error) {
	return s.repo.GetByNumber(ctx, number)
}

// Advance moves the transfer to target status and applies the
// transition's stock side effects inside one transaction.
func (s *Service) Advance(ctx context.Context, docID id.ID, target Status, actorID string) (*StockTransfer, error) {
	var doc *StockTransfer

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if err := doc.CanTransition(target); err != nil {
			return err
		}

		now := time.Now().UTC()

		switch target {
		case StatusInTransit:
			doc.ShippedAt = &now
			actor := actorID
			doc.ApprovedBy = &actor

		case StatusCancelled:
			if err := s.stock.Release(ctx, doc.ProductID, doc.FromBranchID, doc.Quantity); err != nil {
				return err
			}

		case StatusCompleted:
			if err := s.complete(ctx, doc, actorID, now); err != nil {
				return err
			}
		}

		doc.Status = target
		doc.UpdatedBy = actorID

		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		if err := s.auditor.LogChange(ctx, "stock_transfer", doc.ID, "status_change", map[string]any{
			"number": doc.Number,
			"status": string(target),
		}); err != nil {
			return err
		}

		if target == StatusCompleted {
			return s.events.TransferCompleted(ctx, doc.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock transfer advanced",
		"id", doc.ID,
		"number", doc.Number,
		"status", string(target),
	)

	return doc, nil
}

// complete moves the stock: destination gains the quantity (a missing
// destination record is created inheriting the source's pricing), then
// the source is deducted, which also clears the transfer's reservation.
// Both sides run in the caller's transaction, so a failed deduct takes
// the destination increment down with it.
func (s *Service) complete(ctx context.Context, doc *StockTransfer, actorID string, now time.Time) error {
	source, err := s.stock.GetRecord(ctx, doc.ProductID, doc.FromBranchID)
	if err != nil {
		return err
	}

	if err := s.stock.ReceiveTransfer(ctx, stock.ReceiveInput{
		ProductID:  doc.ProductID,
		BranchID:   doc.ToBranchID,
		Quantity:   doc.Quantity,
		Source:     source,
		ReceivedBy: actorID,
	}); err != nil {
		return err
	}

	if err := s.stock.Deduct(ctx, doc.ProductID, doc.FromBranchID, doc.Quantity); err != nil {
		return err
	}

	doc.ReceivedAt = &now
	actor := actorID
	doc.ReceivedBy = &actor
	return nil
}

// Delete soft-deletes a transfer. Only cancelled transfers may be
// deleted; anything holding or having moved stock stays on record.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if doc.Status != StatusCancelled {
		return apperror.NewInvalidOperation("only cancelled transfers can be deleted").
			WithDetail("status", string(doc.Status))
	}

	return s.repo.Delete(ctx, docID)
}

// List retrieves transfers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockTransfer], error) {
	return s.repo.List(ctx, filter)
}
