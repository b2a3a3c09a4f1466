// Package ledger_repo provides the PostgreSQL implementation of the
// transaction ledger. The table is append-only: there is no UPDATE or
// DELETE path, matching the domain contract.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"garasi/internal/core/apperror"
	"garasi/internal/core/id"
	"garasi/internal/domain"
	"garasi/internal/domain/ledger"
	"garasi/internal/infrastructure/storage/postgres"
)

const (
	ledgerTable         = "ledger_transactions"
	uniqueViolationCode = "23505"
)

var ledgerColumns = []string{
	"id", "number", "type",
	"branch_id", "amount", "payment_method",
	"reference_model", "reference_id",
	"description", "processed_by", "created_at",
}

// TransactionRepo implements ledger.Repository.
type TransactionRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewTransactionRepo creates a new ledger transaction repository.
func NewTransactionRepo(txm *postgres.TxManager) *TransactionRepo {
	return &TransactionRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *TransactionRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(ledgerColumns...).From(ledgerTable)
}

// Create appends one entry to the ledger.
func (r *TransactionRepo) Create(ctx context.Context, tx *ledger.Transaction) error {
	data := postgres.StructToMap(tx)

	filteredData := make(map[string]any, len(ledgerColumns))
	for _, col := range ledgerColumns {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder.
		Insert(ledgerTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperror.NewConflict("transaction number already exists").
				WithDetail("number", tx.Number).
				WithCause(err)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// GetByID retrieves one entry by ID.
func (r *TransactionRepo) GetByID(ctx context.Context, txID id.ID) (*ledger.Transaction, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": txID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tx ledger.Transaction
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &tx, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transaction", txID.String())
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	return &tx, nil
}

// GetByNumber retrieves one entry by its ledger number.
func (r *TransactionRepo) GetByNumber(ctx context.Context, number string) (*ledger.Transaction, error) {
	q := r.baseSelect().Where(squirrel.Eq{"number": number}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tx ledger.Transaction
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &tx, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transaction", number)
		}
		return nil, fmt.Errorf("get transaction by number: %w", err)
	}

	return &tx, nil
}

// GetByReference returns all entries pointing at one source document,
// oldest first.
func (r *TransactionRepo) GetByReference(ctx context.Context, model string, refID id.ID) ([]*ledger.Transaction, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{
			"reference_model": model,
			"reference_id":    refID,
		}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var txs []*ledger.Transaction
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &txs, sql, args...); err != nil {
		return nil, fmt.Errorf("get transactions by reference: %w", err)
	}

	return txs, nil
}

// List retrieves entries matching the filter, newest first by default.
func (r *TransactionRepo) List(ctx context.Context, filter ledger.ListFilter) (domain.ListResult[*ledger.Transaction], error) {
	result := domain.ListResult[*ledger.Transaction]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.BranchID != nil {
		q = q.Where(squirrel.Eq{"branch_id": *filter.BranchID})
	}

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.DateTo})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": searchPattern},
			squirrel.ILike{"description": searchPattern},
		})
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	return result, nil
}

// parseOrderBy converts an API sort field into a SQL ORDER BY clause.
// Only allowlisted columns are accepted.
func (r *TransactionRepo) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "created_at DESC", nil
	}

	field := orderBy
	direction := "ASC"
	if strings.HasPrefix(orderBy, "-") {
		field = orderBy[1:]
		direction = "DESC"
	}

	switch field {
	case "number", "type", "amount", "created_at":
		return field + " " + direction, nil
	default:
		return "", apperror.NewValidation("invalid sort field").
			WithDetail("field", field)
	}
}

// Ensure interface compliance.
var _ ledger.Repository = (*TransactionRepo)(nil)
