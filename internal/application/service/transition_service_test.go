package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/procurehq/purchase-flow/internal/application/port"
	"github.com/procurehq/purchase-flow/internal/domain/auth"
	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/event"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
)

func TestTransitionService_Success(t *testing.T) {
	order := draftOrder("po-1")
	var casExpected, casNext workflow.Status
	var auditRecord *entity.AuditRecord

	orderRepo := &mockOrderRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
			return order, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, expected, next workflow.Status) error {
			casExpected, casNext = expected, next
			return nil
		},
	}
	auditRepo := &mockAuditRepo{
		createFunc: func(ctx context.Context, record *entity.AuditRecord) error {
			auditRecord = record
			return nil
		},
	}
	disp := &mockDispatcher{}
	svc := NewTransitionService(orderRepo, auditRepo, &mockTxManager{}, disp, &mockLogger{})

	res, err := svc.RequestTransition(context.Background(), "po-1", workflow.StatusPendingApproval, auth.RoleEmployee, "user-1", "")
	if err != nil {
		t.Fatalf("RequestTransition() error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("denials = %v, want none", res.Denials)
	}

	if casExpected != workflow.StatusDraft || casNext != workflow.StatusPendingApproval {
		t.Errorf("CAS = %v -> %v, want draft -> pending_approval", casExpected, casNext)
	}
	if auditRecord == nil {
		t.Fatal("audit record was not written")
	}
	if auditRecord.PreviousStatus != "draft" || auditRecord.NewStatus != "pending_approval" {
		t.Errorf("audit record = %+v", auditRecord)
	}
	if auditRecord.ActorID != "user-1" || auditRecord.Role != "employee" {
		t.Errorf("audit actor = %s/%s, want user-1/employee", auditRecord.ActorID, auditRecord.Role)
	}

	types := disp.typesSeen()
	if len(types) != 1 || types[0] != event.TypeOrderStatusChanged {
		t.Errorf("dispatched events = %v, want [order.status_changed]", types)
	}
}

func TestTransitionService_ApproveEmitsApprovedEvent(t *testing.T) {
	order := draftOrder("po-1")
	order.Status = workflow.StatusPendingApproval

	orderRepo := &mockOrderRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
			return order, nil
		},
	}
	disp := &mockDispatcher{}
	svc := NewTransitionService(orderRepo, &mockAuditRepo{}, &mockTxManager{}, disp, &mockLogger{})

	res, err := svc.RequestTransition(context.Background(), "po-1", workflow.StatusApproved, auth.RoleManager, "user-1", "")
	if err != nil {
		t.Fatalf("RequestTransition() error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("denials = %v, want none", res.Denials)
	}

	types := disp.typesSeen()
	if len(types) != 2 || types[0] != event.TypeOrderStatusChanged || types[1] != event.TypeOrderApproved {
		t.Errorf("dispatched events = %v, want [order.status_changed order.approved]", types)
	}
}

func TestTransitionService_DenialIsNotAnError(t *testing.T) {
	order := draftOrder("po-1")
	order.Items = nil
	order.RecomputeTotals()

	updated := false
	orderRepo := &mockOrderRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
			return order, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, expected, next workflow.Status) error {
			updated = true
			return nil
		},
	}
	disp := &mockDispatcher{}
	svc := NewTransitionService(orderRepo, &mockAuditRepo{}, &mockTxManager{}, disp, &mockLogger{})

	res, err := svc.RequestTransition(context.Background(), "po-1", workflow.StatusApproved, auth.RoleManager, "user-1", "")
	if err != nil {
		t.Fatalf("RequestTransition() error = %v, denials travel in the result", err)
	}
	if res.OK() {
		t.Fatal("expected denials for approving an empty order")
	}
	if updated {
		t.Error("status must not be written when guards fail")
	}
	if len(disp.typesSeen()) != 0 {
		t.Error("no events should be dispatched on denial")
	}
}

func TestTransitionService_OrderNotFound(t *testing.T) {
	svc := NewTransitionService(&mockOrderRepo{}, &mockAuditRepo{}, &mockTxManager{}, &mockDispatcher{}, &mockLogger{})

	_, err := svc.RequestTransition(context.Background(), "missing", workflow.StatusPendingApproval, auth.RoleEmployee, "user-1", "")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("RequestTransition() error = %v, want ErrOrderNotFound", err)
	}
}

func TestTransitionService_LostRaceSurfacesStaleOrder(t *testing.T) {
	order := draftOrder("po-1")

	auditWritten := false
	orderRepo := &mockOrderRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
			return order, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, expected, next workflow.Status) error {
			return port.ErrStaleOrder
		},
	}
	auditRepo := &mockAuditRepo{
		createFunc: func(ctx context.Context, record *entity.AuditRecord) error {
			auditWritten = true
			return nil
		},
	}
	disp := &mockDispatcher{}
	svc := NewTransitionService(orderRepo, auditRepo, &mockTxManager{}, disp, &mockLogger{})

	_, err := svc.RequestTransition(context.Background(), "po-1", workflow.StatusPendingApproval, auth.RoleEmployee, "user-1", "")
	if !errors.Is(err, port.ErrStaleOrder) {
		t.Errorf("RequestTransition() error = %v, want ErrStaleOrder", err)
	}
	if auditWritten {
		t.Error("audit record must not be written when the CAS loses")
	}
	if len(disp.typesSeen()) != 0 {
		t.Error("no events should be dispatched when the CAS loses")
	}
}

func TestTransitionService_CancelRecordsReason(t *testing.T) {
	order := draftOrder("po-1")
	order.Status = workflow.StatusApproved
	order.Items[0].UnitCost = decimal.NewFromInt(10)
	order.RecomputeTotals()

	var auditRecord *entity.AuditRecord
	orderRepo := &mockOrderRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
			return order, nil
		},
	}
	auditRepo := &mockAuditRepo{
		createFunc: func(ctx context.Context, record *entity.AuditRecord) error {
			auditRecord = record
			return nil
		},
	}
	disp := &mockDispatcher{}
	svc := NewTransitionService(orderRepo, auditRepo, &mockTxManager{}, disp, &mockLogger{})

	res, err := svc.RequestTransition(context.Background(), "po-1", workflow.StatusCancelled, auth.RoleManager, "user-1", "supplier went under")
	if err != nil {
		t.Fatalf("RequestTransition() error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("denials = %v, want none", res.Denials)
	}

	if auditRecord == nil || auditRecord.Reason != "supplier went under" {
		t.Errorf("audit record = %+v, want the cancellation reason recorded", auditRecord)
	}

	types := disp.typesSeen()
	if len(types) != 2 || types[1] != event.TypeOrderCancelled {
		t.Errorf("dispatched events = %v, want order.cancelled second", types)
	}
}
