package expense

import (
	"context"
	"fmt"

	"github.com/vendasys/backend/internal/domain/rollup"
	"github.com/vendasys/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventHandler consumes the expense events emitted by the collaborating
// expense service and drives the rollup write path.
type EventHandler struct {
	deltas  *DeltaService
	classes *ClassificationService
	logger  *zap.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(deltas *DeltaService, classes *ClassificationService, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		deltas:  deltas,
		classes: classes,
		logger:  logger,
	}
}

// EventTypes returns the expense event types this handler consumes
func (h *EventHandler) EventTypes() []string {
	return []string{
		rollup.EventTypeExpenseCreated,
		rollup.EventTypeExpenseInstallmentPaid,
		rollup.EventTypeExpenseReclassified,
		rollup.EventTypeExpenseRemoved,
		rollup.EventTypeExpenseClassified,
		rollup.EventTypeExpenseClassifRemoved,
	}
}

// Handle dispatches one expense event to the matching delta operation
func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *rollup.ExpenseCreatedEvent:
		return h.deltas.ApplyNew(ctx, e.PartnerID(), e.Date, e.Amount, e.Future)

	case *rollup.ExpenseInstallmentPaidEvent:
		return h.deltas.ApplyPaymentTransition(ctx, e.PartnerID(), e.Date, e.Amount)

	case *rollup.ExpenseReclassifiedEvent:
		return h.deltas.ApplyReclassification(ctx, e.PartnerID(), e.Date, e.Amount, e.WasFuture, e.IsFuture)

	case *rollup.ExpenseRemovedEvent:
		return h.deltas.ApplyRemoval(ctx, e.PartnerID(), e.Date, e.Amount, e.WasFuture)

	case *rollup.ExpenseClassifiedEvent:
		for _, c := range e.Classifications {
			if err := h.classes.Classify(ctx, e.PartnerID(), e.Date, c, e.Amount); err != nil {
				return err
			}
		}
		return nil

	case *rollup.ExpenseClassificationRemovedEvent:
		for _, c := range e.Classifications {
			if err := h.classes.RemoveClassification(ctx, e.PartnerID(), e.Date, c, e.Amount); err != nil {
				return err
			}
		}
		return nil

	default:
		h.logger.Warn("unexpected event type for expense handler",
			zap.String("event_type", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
}

// Ensure EventHandler implements shared.EventHandler
var _ shared.EventHandler = (*EventHandler)(nil)
