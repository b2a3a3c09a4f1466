package branch

import (
	"context"
	"fmt"
	"time"

	"garasi/internal/core/apperror"
	"garasi/internal/core/numerator"
	"garasi/internal/core/tx"
	"garasi/internal/domain"
)

// Service provides business logic for the Branch catalog.
type Service struct {
	*domain.CatalogService[*Branch]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Branch service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	numerator numerator.Generator,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Branch]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "branch",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

// prepareForCreate handles code generation and uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, item *Branch) error {
	if item.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("BR"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
		return nil
	}

	taken, err := s.repo.ExistsByCode(ctx, item.Code)
	if err != nil {
		return fmt.Errorf("check branch code: %w", err)
	}
	if taken {
		return apperror.NewDuplicate("branch", "code", item.Code)
	}
	return nil
}

// ListActive retrieves all operational branches.
func (s *Service) ListActive(ctx context.Context) ([]*Branch, error) {
	return s.repo.ListActive(ctx)
}
