// Package worker bridges ledger events to the spreadsheet export.
package worker

import (
	"context"
	"fmt"

	"ledgerd/internal/amqp"
	"ledgerd/internal/core"
	"ledgerd/internal/log"
)

// Appender receives exported rows. Satisfied by export.SheetsAppender.
type Appender interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) error
	AppendDeletion(ctx context.Context, kind core.Kind, id, ownerID string) error
}

// Consumer is the event source. Satisfied by amqp.Client.
type Consumer interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(*amqp.LedgerEvent) error) error
}

// Exporter consumes ledger events and appends one spreadsheet row per
// event. Handler errors propagate to the consumer, which requeues the
// delivery, so a transient export failure is retried rather than lost.
type Exporter struct {
	consumer Consumer
	appender Appender
	logger   *log.Logger
}

func NewExporter(consumer Consumer, appender Appender, logger *log.Logger) *Exporter {
	return &Exporter{
		consumer: consumer,
		appender: appender,
		logger:   logger,
	}
}

// Run blocks consuming events until ctx is cancelled.
func (e *Exporter) Run(ctx context.Context) error {
	e.logger.InfoContext(ctx, "Export worker started")
	return e.consumer.ConsumeLedgerEvents(ctx, func(event *amqp.LedgerEvent) error {
		return e.handle(ctx, event)
	})
}

func (e *Exporter) handle(ctx context.Context, event *amqp.LedgerEvent) error {
	switch event.Action {
	case amqp.ActionCreated:
		if event.Transaction == nil {
			// Malformed publisher; retrying cannot fix it.
			e.logger.WarnContext(ctx, "Created event without record, skipping", "id", event.ID)
			return nil
		}
		return e.appender.AppendTransaction(ctx, *event.Transaction)
	case amqp.ActionDeleted:
		return e.appender.AppendDeletion(ctx, event.Kind, event.ID, event.OwnerID)
	default:
		e.logger.WarnContext(ctx, "Unknown event action, skipping",
			"action", event.Action, "id", event.ID)
		return nil
	}
}

// Handle processes one event. Exposed for callers that drive their own
// consumption loop.
func (e *Exporter) Handle(ctx context.Context, event *amqp.LedgerEvent) error {
	if event == nil {
		return fmt.Errorf("nil event")
	}
	return e.handle(ctx, event)
}
