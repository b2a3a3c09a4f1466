package ledger

import (
	"context"
	"fmt"
	"time"

	"garasi/internal/core/id"
	"garasi/internal/core/numerator"
	"garasi/internal/core/types"
	"garasi/internal/domain"
	"garasi/pkg/logger"
)

// NumeratorStrategy for transaction numbers. Financial records get the
// strict strategy: sequential, no gaps.
const NumeratorStrategy = numerator.StrategyStrict

// Service provides ledger operations.
type Service struct {
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a ledger service.
func NewService(repo Repository, gen numerator.Generator) *Service {
	return &Service{repo: repo, numerator: gen}
}

// RecordInput describes a new ledger entry.
type RecordInput struct {
	Type           Type
	BranchID       id.ID
	Amount         types.Money
	PaymentMethod  types.PaymentMethod
	ReferenceModel string
	ReferenceID    id.ID
	Description    string
	ProcessedBy    string
}

// Record appends one transaction. It deliberately opens no transaction
// of its own: callers invoke it inside the same transaction that
// completes the order, so the order's terminal state and its ledger
// entry commit together.
func (s *Service) Record(ctx context.Context, in RecordInput) (*Transaction, error) {
	tx := NewTransaction(in.Type, in.BranchID, in.Amount)
	tx.PaymentMethod = in.PaymentMethod
	tx.ReferenceModel = in.ReferenceModel
	tx.ReferenceID = in.ReferenceID
	tx.Description = in.Description
	tx.ProcessedBy = in.ProcessedBy

	if err := tx.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx,
		numerator.DefaultConfig(numerator.PrefixTransaction),
		&numerator.Options{Strategy: NumeratorStrategy},
		time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("generate transaction number: %w", err)
	}
	tx.Number = number

	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	logger.Info(ctx, "transaction recorded",
		"id", tx.ID,
		"number", tx.Number,
		"type", string(tx.Type),
		"amount", tx.Amount,
	)

	return tx, nil
}

// GetByID retrieves one transaction.
func (s *Service) GetByID(ctx context.Context, txID id.ID) (*Transaction, error) {
	return s.repo.GetByID(ctx, txID)
}

// GetByNumber retrieves one transaction by its number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Transaction, error) {
	return s.repo.GetByNumber(ctx, number)
}

// GetByReference returns the entries recorded for a source document.
func (s *Service) GetByReference(ctx context.Context, model string, refID id.ID) ([]*Transaction, error) {
	return s.repo.GetByReference(ctx, model, refID)
}

// List retrieves transactions with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transaction], error) {
	return s.repo.List(ctx, filter)
}
