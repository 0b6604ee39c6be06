package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/procurehq/purchase-flow/internal/domain/auth"
	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/event"
	"github.com/procurehq/purchase-flow/internal/domain/queue"
	"github.com/procurehq/purchase-flow/internal/domain/transition"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
)

type mockTransitionService struct {
	requestFunc func(ctx context.Context, orderID string, target workflow.Status, role auth.Role, actorID, reason string) (*transition.Result, error)
}

func (m *mockTransitionService) RequestTransition(ctx context.Context, orderID string, target workflow.Status, role auth.Role, actorID, reason string) (*transition.Result, error) {
	if m.requestFunc != nil {
		return m.requestFunc(ctx, orderID, target, role, actorID, reason)
	}
	return &transition.Result{}, nil
}

func TestQueueService_GetQueue(t *testing.T) {
	pending := draftOrder("po-1")
	pending.Status = workflow.StatusPendingApproval

	var gotStatuses []workflow.Status
	orderRepo := &mockOrderRepo{
		listByStatusesFunc: func(ctx context.Context, statuses []workflow.Status) ([]*entity.PurchaseOrder, error) {
			gotStatuses = statuses
			return []*entity.PurchaseOrder{pending}, nil
		},
	}
	svc := NewQueueService(orderRepo, &mockTransitionService{}, &mockDispatcher{}, &mockLogger{})

	view, err := svc.GetQueue(context.Background(), auth.RoleManager, queue.Filters{}, queue.Sort{})
	if err != nil {
		t.Fatalf("GetQueue() error = %v", err)
	}

	if len(gotStatuses) != 2 {
		t.Errorf("queried statuses = %v, want draft and pending_approval", gotStatuses)
	}
	if len(view.Entries) != 1 || view.Entries[0].Order.ID != "po-1" {
		t.Errorf("entries = %+v, want the pending order", view.Entries)
	}
	if view.Stats.Count != 1 {
		t.Errorf("Stats.Count = %d, want 1", view.Stats.Count)
	}
}

func TestQueueService_GetQueue_RepoError(t *testing.T) {
	orderRepo := &mockOrderRepo{
		listByStatusesFunc: func(ctx context.Context, statuses []workflow.Status) ([]*entity.PurchaseOrder, error) {
			return nil, errors.New("db locked")
		},
	}
	svc := NewQueueService(orderRepo, &mockTransitionService{}, &mockDispatcher{}, &mockLogger{})

	if _, err := svc.GetQueue(context.Background(), auth.RoleManager, queue.Filters{}, queue.Sort{}); err == nil {
		t.Fatal("GetQueue() should propagate repository errors")
	}
}

func TestQueueService_BulkApprove_MixedOutcomes(t *testing.T) {
	transitions := &mockTransitionService{
		requestFunc: func(ctx context.Context, orderID string, target workflow.Status, role auth.Role, actorID, reason string) (*transition.Result, error) {
			if target != workflow.StatusApproved {
				t.Errorf("target = %v, want approved", target)
			}
			switch orderID {
			case "po-ok":
				return &transition.Result{}, nil
			case "po-denied":
				return &transition.Result{Denials: []transition.Denial{
					{Code: transition.CodeMissingItems, Reason: "cannot approve purchase order without items"},
				}}, nil
			default:
				return nil, ErrOrderNotFound
			}
		},
	}
	disp := &mockDispatcher{}
	svc := NewQueueService(&mockOrderRepo{}, transitions, disp, &mockLogger{})

	result, err := svc.BulkApprove(context.Background(), []string{"po-ok", "po-denied", "po-missing"}, auth.RoleManager, "user-1")
	if err != nil {
		t.Fatalf("BulkApprove() error = %v", err)
	}

	if result.ApprovedCount != 1 || result.FailedCount != 2 {
		t.Errorf("counts = %d approved / %d failed, want 1/2", result.ApprovedCount, result.FailedCount)
	}
	if len(result.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want one per requested order", len(result.Outcomes))
	}

	if !result.Outcomes[0].Approved {
		t.Error("po-ok should be approved")
	}
	if result.Outcomes[1].Approved || len(result.Outcomes[1].Denials) == 0 {
		t.Errorf("po-denied outcome = %+v, want denials attached", result.Outcomes[1])
	}
	if result.Outcomes[2].Approved || result.Outcomes[2].Error == "" {
		t.Errorf("po-missing outcome = %+v, want error recorded", result.Outcomes[2])
	}

	types := disp.typesSeen()
	if len(types) != 1 || types[0] != event.TypeQueueBulkCompleted {
		t.Errorf("dispatched events = %v, want [queue.bulk_completed]", types)
	}
}

func TestQueueService_BulkApprove_EachOrderIndependent(t *testing.T) {
	var seen []string
	transitions := &mockTransitionService{
		requestFunc: func(ctx context.Context, orderID string, target workflow.Status, role auth.Role, actorID, reason string) (*transition.Result, error) {
			seen = append(seen, orderID)
			if orderID == "po-2" {
				return nil, errors.New("db locked")
			}
			return &transition.Result{}, nil
		},
	}
	svc := NewQueueService(&mockOrderRepo{}, transitions, &mockDispatcher{}, &mockLogger{})

	result, err := svc.BulkApprove(context.Background(), []string{"po-1", "po-2", "po-3"}, auth.RoleAdmin, "user-1")
	if err != nil {
		t.Fatalf("BulkApprove() error = %v", err)
	}

	if len(seen) != 3 {
		t.Errorf("processed %v, a failure must not stop the run", seen)
	}
	if result.ApprovedCount != 2 || result.FailedCount != 1 {
		t.Errorf("counts = %d/%d, want 2 approved, 1 failed", result.ApprovedCount, result.FailedCount)
	}
}

func TestQueueService_GetQueue_ManagerCeilingApplied(t *testing.T) {
	big := draftOrder("po-big")
	big.Status = workflow.StatusPendingApproval
	big.Items[0].UnitCost = decimal.NewFromInt(20000) // total 200000
	big.RecomputeTotals()

	orderRepo := &mockOrderRepo{
		listByStatusesFunc: func(ctx context.Context, statuses []workflow.Status) ([]*entity.PurchaseOrder, error) {
			return []*entity.PurchaseOrder{big}, nil
		},
	}
	svc := NewQueueService(orderRepo, &mockTransitionService{}, &mockDispatcher{}, &mockLogger{})

	view, err := svc.GetQueue(context.Background(), auth.RoleManager, queue.Filters{}, queue.Sort{})
	if err != nil {
		t.Fatalf("GetQueue() error = %v", err)
	}
	if len(view.Entries) != 0 {
		t.Errorf("manager should not see orders above the approval ceiling, got %d entries", len(view.Entries))
	}

	view, err = svc.GetQueue(context.Background(), auth.RoleAdmin, queue.Filters{}, queue.Sort{})
	if err != nil {
		t.Fatalf("GetQueue() error = %v", err)
	}
	if len(view.Entries) != 1 {
		t.Errorf("admin should see the order, got %d entries", len(view.Entries))
	}
}
