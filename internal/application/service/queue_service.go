package service

import (
	"context"
	"fmt"
	"time"

	"github.com/procurehq/purchase-flow/internal/application/dispatcher"
	"github.com/procurehq/purchase-flow/internal/application/port"
	"github.com/procurehq/purchase-flow/internal/domain/auth"
	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/event"
	"github.com/procurehq/purchase-flow/internal/domain/queue"
	"github.com/procurehq/purchase-flow/internal/domain/transition"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
)

// BulkItemOutcome is the per-order result of a bulk approval. One order's
// failure never touches its siblings.
type BulkItemOutcome struct {
	OrderID  string              `json:"order_id"`
	Approved bool                `json:"approved"`
	Denials  []transition.Denial `json:"denials,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// BulkApproveResult summarizes a bulk approval run
type BulkApproveResult struct {
	Outcomes      []BulkItemOutcome `json:"outcomes"`
	ApprovedCount int               `json:"approved_count"`
	FailedCount   int               `json:"failed_count"`
}

// QueueService serves the approval queue and bulk operations on it
type QueueService interface {
	GetQueue(ctx context.Context, role auth.Role, filters queue.Filters, sortBy queue.Sort) (*queue.View, error)
	BulkApprove(ctx context.Context, orderIDs []string, role auth.Role, actorID string) (*BulkApproveResult, error)
}

type queueServiceImpl struct {
	orderRepo   port.OrderRepository
	transitions TransitionService
	dispatcher  dispatcher.Dispatcher
	logger      Logger
}

// NewQueueService creates a new QueueService
func NewQueueService(
	orderRepo port.OrderRepository,
	transitions TransitionService,
	d dispatcher.Dispatcher,
	logger Logger,
) QueueService {
	return &queueServiceImpl{
		orderRepo:   orderRepo,
		transitions: transitions,
		dispatcher:  d,
		logger:      logger,
	}
}

// queueStatuses are the statuses from which approval is reachable
var queueStatuses = []workflow.Status{workflow.StatusDraft, workflow.StatusPendingApproval}

// GetQueue builds the current approval queue for a role
func (s *queueServiceImpl) GetQueue(ctx context.Context, role auth.Role, filters queue.Filters, sortBy queue.Sort) (*queue.View, error) {
	orders, err := s.orderRepo.ListByStatuses(ctx, queueStatuses)
	if err != nil {
		s.logger.Error("Failed to load queue candidates", "error", err)
		return nil, fmt.Errorf("list queue candidates: %w", err)
	}

	snapshot := make([]entity.PurchaseOrder, 0, len(orders))
	for _, order := range orders {
		snapshot = append(snapshot, *order)
	}

	view := queue.BuildView(snapshot, role, filters, sortBy, time.Now().UTC())
	return &view, nil
}

// BulkApprove approves each order independently through the full transition
// pipeline. Every order gets its own authorization and guard checks; a denial
// or error on one is recorded and the run continues.
func (s *queueServiceImpl) BulkApprove(ctx context.Context, orderIDs []string, role auth.Role, actorID string) (*BulkApproveResult, error) {
	result := &BulkApproveResult{
		Outcomes: make([]BulkItemOutcome, 0, len(orderIDs)),
	}

	for _, orderID := range orderIDs {
		outcome := BulkItemOutcome{OrderID: orderID}

		res, err := s.transitions.RequestTransition(ctx, orderID, workflow.StatusApproved, role, actorID, "")
		switch {
		case err != nil:
			outcome.Error = err.Error()
			result.FailedCount++
		case !res.OK():
			outcome.Denials = res.Denials
			result.FailedCount++
		default:
			outcome.Approved = true
			result.ApprovedCount++
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	s.logger.Info("Bulk approval completed",
		"requested", len(orderIDs),
		"approved", result.ApprovedCount,
		"failed", result.FailedCount,
		"actor_id", actorID,
	)

	s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeQueueBulkCompleted, "", "", map[string]interface{}{
		"requested": len(orderIDs),
		"approved":  result.ApprovedCount,
		"failed":    result.FailedCount,
		"actor_id":  actorID,
	}))

	return result, nil
}
