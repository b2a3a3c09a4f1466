// Package events bridges domain-level notification interfaces to the
// transactional outbox. Domain packages publish through narrow
// interfaces they own; this package adapts those calls onto
// postgres.OutboxPublisher so the write and the notification commit
// atomically.
package events

import (
	"context"

	"garasi/internal/core/id"
	"garasi/internal/domain/registers/stock"
	"garasi/internal/infrastructure/storage/postgres"
)

// Event types carried through the outbox.
const (
	EventStockChanged      = "stock.changed"
	EventOrderCompleted    = "order.completed"
	EventTransferCompleted = "transfer.completed"
)

// Aggregate types recorded on outbox messages.
const (
	AggregateStockRecord   = "StockRecord"
	AggregateSalesOrder    = "SalesOrder"
	AggregateServiceOrder  = "ServiceOrder"
	AggregateStockTransfer = "StockTransfer"
)

// StockChangedPayload identifies the stock record whose quantities
// changed. Consumers use it to invalidate cached reads.
type StockChangedPayload struct {
	ProductID id.ID `json:"productId"`
	BranchID  id.ID `json:"branchId"`
}

// StockPublisher implements stock.EventPublisher over the outbox.
type StockPublisher struct {
	outbox *postgres.OutboxPublisher
}

// NewStockPublisher creates a stock event publisher.
func NewStockPublisher(outbox *postgres.OutboxPublisher) *StockPublisher {
	return &StockPublisher{outbox: outbox}
}

// StockChanged enqueues a stock.changed message. Must be called within
// the transaction that mutates the record.
func (p *StockPublisher) StockChanged(ctx context.Context, productID, branchID id.ID) error {
	return p.outbox.Publish(ctx, postgres.DomainEvent{
		AggregateType: AggregateStockRecord,
		AggregateID:   productID,
		EventType:     EventStockChanged,
		Payload: StockChangedPayload{
			ProductID: productID,
			BranchID:  branchID,
		},
	})
}

var _ stock.EventPublisher = (*StockPublisher)(nil)

// AuditAdapter exposes postgres.AuditService through the stringly-typed
// Auditor interfaces the domain packages declare.
type AuditAdapter struct {
	audit *postgres.AuditService
}

// NewAuditAdapter wraps an audit service.
func NewAuditAdapter(audit *postgres.AuditService) *AuditAdapter {
	return &AuditAdapter{audit: audit}
}

// LogChange records an entity change under the given action.
func (a *AuditAdapter) LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	return a.audit.LogChange(ctx, entityType, entityID, postgres.AuditAction(action), changes)
}

var _ stock.Auditor = (*AuditAdapter)(nil)
