package events

import (
	"context"

	"garasi/internal/core/id"
	"garasi/internal/domain/documents/sales_order"
	"garasi/internal/domain/documents/service_order"
	"garasi/internal/domain/documents/stock_transfer"
	"garasi/internal/infrastructure/storage/postgres"
)

// OrderCompletedPayload identifies a completed order document.
type OrderCompletedPayload struct {
	OrderID id.ID `json:"orderId"`
}

// TransferCompletedPayload identifies a completed transfer document.
type TransferCompletedPayload struct {
	TransferID id.ID `json:"transferId"`
}

// SalesOrderPublisher implements sales_order.EventPublisher over the
// outbox.
type SalesOrderPublisher struct {
	outbox *postgres.OutboxPublisher
}

// NewSalesOrderPublisher creates a sales order event publisher.
func NewSalesOrderPublisher(outbox *postgres.OutboxPublisher) *SalesOrderPublisher {
	return &SalesOrderPublisher{outbox: outbox}
}

// OrderCompleted enqueues an order.completed message. Must be called
// within the transaction that completes the order.
func (p *SalesOrderPublisher) OrderCompleted(ctx context.Context, orderID id.ID) error {
	return p.outbox.Publish(ctx, postgres.DomainEvent{
		AggregateType: AggregateSalesOrder,
		AggregateID:   orderID,
		EventType:     EventOrderCompleted,
		Payload:       OrderCompletedPayload{OrderID: orderID},
	})
}

var _ sales_order.EventPublisher = (*SalesOrderPublisher)(nil)

// ServiceOrderPublisher implements service_order.EventPublisher over
// the outbox.
type ServiceOrderPublisher struct {
	outbox *postgres.OutboxPublisher
}

// NewServiceOrderPublisher creates a service order event publisher.
func NewServiceOrderPublisher(outbox *postgres.OutboxPublisher) *ServiceOrderPublisher {
	return &ServiceOrderPublisher{outbox: outbox}
}

// OrderCompleted enqueues an order.completed message for a job.
func (p *ServiceOrderPublisher) OrderCompleted(ctx context.Context, orderID id.ID) error {
	return p.outbox.Publish(ctx, postgres.DomainEvent{
		AggregateType: AggregateServiceOrder,
		AggregateID:   orderID,
		EventType:     EventOrderCompleted,
		Payload:       OrderCompletedPayload{OrderID: orderID},
	})
}

var _ service_order.EventPublisher = (*ServiceOrderPublisher)(nil)

// TransferPublisher implements stock_transfer.EventPublisher over the
// outbox.
type TransferPublisher struct {
	outbox *postgres.OutboxPublisher
}

// NewTransferPublisher creates a transfer event publisher.
func NewTransferPublisher(outbox *postgres.OutboxPublisher) *TransferPublisher {
	return &TransferPublisher{outbox: outbox}
}

// TransferCompleted enqueues a transfer.completed message.
func (p *TransferPublisher) TransferCompleted(ctx context.Context, transferID id.ID) error {
	return p.outbox.Publish(ctx, postgres.DomainEvent{
		AggregateType: AggregateStockTransfer,
		AggregateID:   transferID,
		EventType:     EventTransferCompleted,
		Payload:       TransferCompletedPayload{TransferID: transferID},
	})
}

var _ stock_transfer.EventPublisher = (*TransferPublisher)(nil)
