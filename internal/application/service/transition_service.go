package service

import (
	"context"
	"fmt"

	"github.com/procurehq/purchase-flow/internal/application/dispatcher"
	"github.com/procurehq/purchase-flow/internal/application/port"
	"github.com/procurehq/purchase-flow/internal/domain/auth"
	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/event"
	"github.com/procurehq/purchase-flow/internal/domain/transition"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
)

// TransitionService moves orders through their lifecycle. Every status change
// goes through here; there is no other write path for order status.
type TransitionService interface {
	// RequestTransition validates and, when clean, applies a status change.
	// Denials come back inside the Result, not as an error; errors are
	// reserved for infrastructure failures and lost races.
	RequestTransition(ctx context.Context, orderID string, target workflow.Status, role auth.Role, actorID, reason string) (*transition.Result, error)
}

type transitionServiceImpl struct {
	orderRepo  port.OrderRepository
	auditRepo  port.AuditRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewTransitionService creates a new TransitionService
func NewTransitionService(
	orderRepo port.OrderRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger Logger,
) TransitionService {
	return &transitionServiceImpl{
		orderRepo:  orderRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		dispatcher: d,
		logger:     logger,
	}
}

// RequestTransition loads the order fresh, runs every guard, and applies the
// change atomically. The status update is a compare-and-swap on the loaded
// status, so a concurrent transition surfaces as port.ErrStaleOrder instead
// of silently overwriting.
func (s *transitionServiceImpl) RequestTransition(ctx context.Context, orderID string, target workflow.Status, role auth.Role, actorID, reason string) (*transition.Result, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to load order for transition", "error", err, "order_id", orderID)
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	result := transition.Request(order, target, role, actorID, reason)
	if !result.OK() {
		s.logger.Info("Transition denied",
			"order_id", orderID,
			"from", order.Status.String(),
			"to", target.String(),
			"role", role.String(),
			"denial_count", len(result.Denials),
		)
		return &result, nil
	}

	tctx := result.Context
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.UpdateStatus(ctx, orderID, order.Status, target); err != nil {
			return err
		}

		return s.auditRepo.Create(ctx, &entity.AuditRecord{
			OrderID:        orderID,
			ActorID:        tctx.ActorID,
			Role:           tctx.Metadata.Role,
			PreviousStatus: tctx.Metadata.From.String(),
			NewStatus:      tctx.Metadata.To.String(),
			Reason:         tctx.Reason,
			Timestamp:      tctx.Timestamp,
		})
	})
	if err != nil {
		s.logger.Error("Failed to apply transition",
			"error", err,
			"order_id", orderID,
			"from", order.Status.String(),
			"to", target.String(),
		)
		return nil, fmt.Errorf("apply transition: %w", err)
	}

	s.logger.Info("Order transitioned",
		"order_id", orderID,
		"number", order.Number,
		"from", order.Status.String(),
		"to", target.String(),
		"actor_id", actorID,
	)

	s.publishEvents(ctx, order, target, tctx)

	return &result, nil
}

// publishEvents emits the status change plus a type-specific event for the
// outcomes downstream consumers care about
func (s *transitionServiceImpl) publishEvents(ctx context.Context, order *entity.PurchaseOrder, target workflow.Status, tctx *transition.Context) {
	base := event.NewEvent(event.TypeOrderStatusChanged, order.ID, order.Number, map[string]interface{}{
		"from":     tctx.Metadata.From.String(),
		"to":       target.String(),
		"actor_id": tctx.ActorID,
		"role":     tctx.Metadata.Role,
		"reason":   tctx.Reason,
	})
	s.dispatcher.DispatchAsync(ctx, base)

	switch target {
	case workflow.StatusApproved:
		s.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(
			event.TypeOrderApproved, order.ID, order.Number,
			map[string]interface{}{"total": order.Total.String()},
			base.CorrelationID,
		))
	case workflow.StatusCancelled:
		s.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(
			event.TypeOrderCancelled, order.ID, order.Number,
			map[string]interface{}{"reason": tctx.Reason},
			base.CorrelationID,
		))
	}
}
