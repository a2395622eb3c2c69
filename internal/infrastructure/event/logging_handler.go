package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/shared"
)

// LoggingHandler records every published domain event to the application log.
// It subscribes as a wildcard handler and is the default audit sink for
// document lifecycle events.
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a handler that logs all domain events
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handle logs the event metadata
func (h *LoggingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns nil so the handler receives all events
func (h *LoggingHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*LoggingHandler)(nil)
