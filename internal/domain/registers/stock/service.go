package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/core/security"
	"garasi/internal/core/tx"
	"garasi/internal/core/types"
	"garasi/internal/domain"
	"garasi/internal/domain/catalogs/branch"
	"garasi/internal/domain/catalogs/product"
	"garasi/pkg/logger"
)

// ProductResolver resolves products for restock defaults and existence checks.
type ProductResolver interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// BranchResolver verifies branches exist.
type BranchResolver interface {
	GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error)
}

// Auditor records stock mutations for traceability.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

type nopAuditor struct{}

func (nopAuditor) LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	return nil
}

// Service provides business operations for the stock ledger.
type Service struct {
	repo     Repository
	products ProductResolver
	branches BranchResolver
	txm      tx.Manager
	events   EventPublisher
	auditor  Auditor
}

// ServiceConfig configures the stock service.
type ServiceConfig struct {
	Repo      Repository
	Products  ProductResolver
	Branches  BranchResolver
	TxManager tx.Manager
	Events    EventPublisher
	Auditor   Auditor
}

// NewService creates a new stock service.
func NewService(cfg ServiceConfig) *Service {
	events := cfg.Events
	if events == nil {
		events = NopPublisher{}
	}
	auditor := cfg.Auditor
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &Service{
		repo:     cfg.Repo,
		products: cfg.Products,
		branches: cfg.Branches,
		txm:      cfg.TxManager,
		events:   events,
		auditor:  auditor,
	}
}

// GetRecord returns the stock record for (product, branch).
func (s *Service) GetRecord(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error) {
	return s.repo.Get(ctx, productID, branchID)
}

// GetRecordOrNull returns the record or nil when none exists.
func (s *Service) GetRecordOrNull(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error) {
	return s.repo.GetOrNull(ctx, productID, branchID)
}

// RestockInput describes an inbound stock delivery.
// Optional fields overwrite the stored record when provided.
type RestockInput struct {
	ProductID       id.ID
	BranchID        id.ID
	QuantityDelta   int64
	CostPrice       *types.Money
	SellingPrice    *types.Money
	ReorderPoint    *int64
	ReorderQuantity *int64
	Location        *string
	ActorID         string
}

// Restock adds inbound quantity to a branch's record, creating the
// record on first delivery. Creation falls back to the product's
// catalog prices when no prices are given. The write is one additive
// upsert, so two deliveries racing on the first record both land.
func (s *Service) Restock(ctx context.Context, in RestockInput) (*entity.StockRecord, error) {
	if in.QuantityDelta <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", in.QuantityDelta)
	}

	scope := security.GetScope(ctx)
	if err := scope.RequireBranch(in.BranchID.String()); err != nil {
		return nil, err
	}

	prod, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if prod.DeletionMark {
		return nil, apperror.NewNotFound("product", in.ProductID.String())
	}

	br, err := s.branches.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	if br.DeletionMark {
		return nil, apperror.NewNotFound("branch", in.BranchID.String())
	}

	var result *entity.StockRecord
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		w := RestockWrite{
			ProductID:          in.ProductID,
			BranchID:           in.BranchID,
			QuantityDelta:      in.QuantityDelta,
			InsertCostPrice:    prod.CostPrice,
			InsertSellingPrice: prod.SellingPrice,
			CostPrice:          in.CostPrice,
			SellingPrice:       in.SellingPrice,
			ReorderPoint:       in.ReorderPoint,
			ReorderQuantity:    in.ReorderQuantity,
			Location:           in.Location,
			RestockedAt:        time.Now().UTC(),
		}
		if in.ActorID != "" {
			actor := in.ActorID
			w.RestockedBy = &actor
		}

		rec, err := s.repo.UpsertRestock(ctx, w)
		if err != nil {
			return fmt.Errorf("restock stock record: %w", err)
		}

		if err := s.auditor.LogChange(ctx, "stock_record", in.ProductID, "restock", map[string]any{
			"branch_id":      in.BranchID.String(),
			"quantity_delta": in.QuantityDelta,
			"quantity":       rec.Quantity,
		}); err != nil {
			return fmt.Errorf("audit restock: %w", err)
		}

		if err := s.events.StockChanged(ctx, in.ProductID, in.BranchID); err != nil {
			return fmt.Errorf("publish stock change: %w", err)
		}

		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock restocked",
		"product_id", in.ProductID,
		"branch_id", in.BranchID,
		"delta", in.QuantityDelta,
		"quantity", result.Quantity,
	)

	return result, nil
}

// AdjustInput describes a manual stock correction.
type AdjustInput struct {
	ProductID id.ID
	BranchID  id.ID
	Delta     int64 // signed
	Reason    string
	ActorID   string
}

// Adjust applies an admin-only signed correction to on-hand quantity.
// The result is clamped at 0 and reserved quantity is left untouched.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (*entity.StockRecord, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperror.NewValidation("reason is required").
			WithDetail("field", "reason")
	}

	scope := security.GetScope(ctx)
	if !scope.IsAdmin {
		return nil, apperror.NewForbidden("stock adjustment requires administrator role")
	}

	var result *entity.StockRecord
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetForUpdate(ctx, in.ProductID, in.BranchID)
		if err != nil {
			return err
		}

		before := rec.Quantity
		rec.Quantity += in.Delta
		if rec.Quantity < 0 {
			rec.Quantity = 0
		}
		rec.UpdatedAt = time.Now().UTC()

		if err := s.repo.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("upsert stock record: %w", err)
		}

		if err := s.auditor.LogChange(ctx, "stock_record", in.ProductID, "adjust", map[string]any{
			"branch_id":       in.BranchID.String(),
			"delta":           in.Delta,
			"reason":          in.Reason,
			"quantity_before": before,
			"quantity_after":  rec.Quantity,
		}); err != nil {
			return fmt.Errorf("audit adjustment: %w", err)
		}

		if err := s.events.StockChanged(ctx, in.ProductID, in.BranchID); err != nil {
			return fmt.Errorf("publish stock change: %w", err)
		}

		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock adjusted",
		"product_id", in.ProductID,
		"branch_id", in.BranchID,
		"delta", in.Delta,
		"reason", in.Reason,
	)

	return result, nil
}

// Reserve holds qty against available stock. The sufficiency check and
// the increment are a single guarded update, so two concurrent reserves
// can never both draw on the same units.
func (s *Service) Reserve(ctx context.Context, productID, branchID id.ID, qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("reserve quantity must be positive").
			WithDetail("value", qty)
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.repo.Reserve(ctx, productID, branchID, qty)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		if !ok {
			rec, err := s.repo.GetOrNull(ctx, productID, branchID)
			if err != nil {
				return err
			}
			var available int64
			if rec != nil {
				available = rec.AvailableQuantity()
			}
			return apperror.NewInsufficientStock(productID.String(), qty, available)
		}

		return s.events.StockChanged(ctx, productID, branchID)
	})
}

// Release returns qty from the reservation pool, clamped at 0.
// Releasing more than is reserved, or against a missing record, is a no-op.
func (s *Service) Release(ctx context.Context, productID, branchID id.ID, qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("release quantity must be positive").
			WithDetail("value", qty)
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Release(ctx, productID, branchID, qty); err != nil {
			return fmt.Errorf("release stock: %w", err)
		}
		return s.events.StockChanged(ctx, productID, branchID)
	})
}

// Deduct permanently removes qty from on-hand stock and clears the
// matching reservation. Fails when qty exceeds on-hand quantity.
func (s *Service) Deduct(ctx context.Context, productID, branchID id.ID, qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("deduct quantity must be positive").
			WithDetail("value", qty)
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.repo.Deduct(ctx, productID, branchID, qty)
		if err != nil {
			return fmt.Errorf("deduct stock: %w", err)
		}
		if !ok {
			rec, err := s.repo.GetOrNull(ctx, productID, branchID)
			if err != nil {
				return err
			}
			if rec == nil {
				return apperror.NewInvalidOperation("no stock record to deduct from").
					WithDetail("product_id", productID.String()).
					WithDetail("branch_id", branchID.String())
			}
			return apperror.NewInvalidOperation("deduction exceeds on-hand quantity").
				WithDetail("product_id", productID.String()).
				WithDetail("quantity", rec.Quantity).
				WithDetail("requested", qty)
		}

		return s.events.StockChanged(ctx, productID, branchID)
	})
}

// HasSufficientStock reports whether qty could be reserved right now.
// Absent records count as zero stock.
func (s *Service) HasSufficientStock(ctx context.Context, productID, branchID id.ID, qty int64) (bool, error) {
	rec, err := s.repo.GetOrNull(ctx, productID, branchID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	return rec.HasSufficient(qty), nil
}

// ReceiveInput describes the destination side of a completed transfer.
type ReceiveInput struct {
	ProductID id.ID
	BranchID  id.ID
	Quantity  int64

	// Source supplies pricing and reorder defaults when the destination
	// record does not exist yet: a new branch inherits the sending
	// branch's pricing until someone restocks it directly.
	Source *entity.StockRecord

	ReceivedBy string
}

// ReceiveTransfer adds transferred quantity at the destination branch.
// Existing destination records keep their own pricing; only quantity
// grows.
func (s *Service) ReceiveTransfer(ctx context.Context, in ReceiveInput) error {
	if in.Quantity <= 0 {
		return apperror.NewValidation("transfer quantity must be positive").
			WithDetail("value", in.Quantity)
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		w := AddWrite{
			ProductID:  in.ProductID,
			BranchID:   in.BranchID,
			Quantity:   in.Quantity,
			ReceivedAt: time.Now().UTC(),
		}
		if in.Source != nil {
			w.InsertCostPrice = in.Source.CostPrice
			w.InsertSellingPrice = in.Source.SellingPrice
			w.InsertReorderPoint = in.Source.ReorderPoint
			w.InsertReorderQuantity = in.Source.ReorderQuantity
		}
		if in.ReceivedBy != "" {
			actor := in.ReceivedBy
			w.ReceivedBy = &actor
		}

		if err := s.repo.AddQuantity(ctx, w); err != nil {
			return fmt.Errorf("add destination quantity: %w", err)
		}

		return s.events.StockChanged(ctx, in.ProductID, in.BranchID)
	})
}

// List returns stock records matching the filter.
func (s *Service) List(ctx context.Context, f Filter) (domain.ListResult[*entity.StockRecord], error) {
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.ListResult[*entity.StockRecord]{}, err
	}
	return domain.ListResult[*entity.StockRecord]{
		Items:      items,
		TotalCount: total,
		Limit:      f.Limit,
		Offset:     f.Offset,
	}, nil
}

// GetSummary aggregates one product's stock across all branches.
func (s *Service) GetSummary(ctx context.Context, productID id.ID) (*Summary, error) {
	records, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ProductID: productID,
		Branches:  make([]BranchStock, 0, len(records)),
	}

	for _, rec := range records {
		summary.TotalQuantity += rec.Quantity
		summary.TotalReserved += rec.ReservedQuantity
		summary.TotalAvailable += rec.AvailableQuantity()
		summary.Branches = append(summary.Branches, BranchStock{
			BranchID:     rec.BranchID,
			Quantity:     rec.Quantity,
			Reserved:     rec.ReservedQuantity,
			Available:    rec.AvailableQuantity(),
			CostPrice:    rec.CostPrice,
			SellingPrice: rec.SellingPrice,
			Location:     rec.Location,
		})
	}

	return summary, nil
}
