package sales

import (
	"context"
	"fmt"

	"github.com/vendasys/backend/internal/domain/rollup"
	"github.com/vendasys/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventHandler consumes sale confirmation and reversal events from the
// collaborating sales service.
type EventHandler struct {
	rollups *RollupService
	logger  *zap.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(rollups *RollupService, logger *zap.Logger) *EventHandler {
	return &EventHandler{rollups: rollups, logger: logger}
}

// EventTypes returns the sale event types this handler consumes
func (h *EventHandler) EventTypes() []string {
	return []string{
		rollup.EventTypeSaleConfirmed,
		rollup.EventTypeSaleReverted,
	}
}

// Handle dispatches one sale event to the matching rollup operation
func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *rollup.SaleConfirmedEvent:
		return h.rollups.RegisterConfirmed(ctx, e.PartnerID(), e.Date, e.SaleType, e.TotalAmount, e.DiscountTotal)

	case *rollup.SaleRevertedEvent:
		return h.rollups.RevertConfirmed(ctx, e.PartnerID(), e.Date, e.SaleType, e.TotalAmount, e.DiscountTotal)

	default:
		h.logger.Warn("unexpected event type for sales handler",
			zap.String("event_type", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
}

// Ensure EventHandler implements shared.EventHandler
var _ shared.EventHandler = (*EventHandler)(nil)
