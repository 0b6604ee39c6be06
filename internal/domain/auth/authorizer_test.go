package auth

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
)

func orderIn(status workflow.Status) *entity.PurchaseOrder {
	return &entity.PurchaseOrder{
		ID:     "po-1",
		Number: "PO-2026-0001",
		Status: status,
	}
}

func amt(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestPermissionsFor_UnknownRoleFailsClosed(t *testing.T) {
	perms := PermissionsFor(Role("intern"))

	actions := []Action{
		ActionCreate, ActionView, ActionEdit, ActionApprove,
		ActionReceive, ActionCancel, ActionViewHistory, ActionViewAuditTrail,
	}
	for _, a := range actions {
		if perms.Allows(a) {
			t.Errorf("unknown role should not be granted %s", a)
		}
	}
	if perms.MaxApprovalAmount != nil {
		t.Error("unknown role should have no approval ceiling set")
	}
}

func TestAuthorize_RoleAxis(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		action  Action
		allowed bool
	}{
		{"admin approves", RoleAdmin, ActionApprove, true},
		{"manager approves", RoleManager, ActionApprove, true},
		{"employee cannot approve", RoleEmployee, ActionApprove, false},
		{"cashier receives", RoleCashier, ActionReceive, true},
		{"cashier cannot cancel", RoleCashier, ActionCancel, false},
		{"accountant views audit trail", RoleAccountant, ActionViewAuditTrail, true},
		{"accountant cannot edit", RoleAccountant, ActionEdit, false},
		{"employee creates", RoleEmployee, ActionCreate, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Authorize(tt.role, tt.action, nil, nil)
			if decision.Allowed != tt.allowed {
				t.Errorf("Authorize(%s, %s) allowed = %v, want %v (reason: %s)",
					tt.role, tt.action, decision.Allowed, tt.allowed, decision.Reason)
			}
			if !decision.Allowed && decision.Reason == "" {
				t.Error("denial must carry a reason")
			}
		})
	}
}

func TestAuthorize_ApprovalCeilingBoundary(t *testing.T) {
	order := orderIn(workflow.StatusPendingApproval)

	// Boundary is inclusive: exactly 100000 allows, 100001 denies.
	if d := Authorize(RoleManager, ActionApprove, order, amt(100000)); !d.Allowed {
		t.Errorf("manager at exact ceiling should be allowed, got denial: %s", d.Reason)
	}
	if d := Authorize(RoleManager, ActionApprove, order, amt(100001)); d.Allowed {
		t.Error("manager above ceiling should be denied")
	}
	if d := Authorize(RoleAdmin, ActionApprove, order, amt(120000)); !d.Allowed {
		t.Errorf("admin has no ceiling, got denial: %s", d.Reason)
	}
}

func TestAuthorize_CeilingDenialCitesBothAmounts(t *testing.T) {
	order := orderIn(workflow.StatusPendingApproval)

	d := Authorize(RoleManager, ActionApprove, order, amt(120000))
	if d.Allowed {
		t.Fatal("expected denial")
	}
	for _, want := range []string{"120000.00", "100000.00"} {
		if !strings.Contains(d.Reason, want) {
			t.Errorf("denial reason %q should cite %s", d.Reason, want)
		}
	}
}

func TestAuthorize_StatusAxis(t *testing.T) {
	tests := []struct {
		name    string
		status  workflow.Status
		action  Action
		allowed bool
	}{
		{"edit draft", workflow.StatusDraft, ActionEdit, true},
		{"approve pending", workflow.StatusPendingApproval, ActionApprove, true},
		{"edit approved", workflow.StatusApproved, ActionEdit, false},
		{"receive sent", workflow.StatusSentToSupplier, ActionReceive, true},
		{"cancel partially received", workflow.StatusPartiallyReceived, ActionCancel, false},
		{"receive partially received", workflow.StatusPartiallyReceived, ActionReceive, true},
		{"view closed", workflow.StatusClosed, ActionView, true},
		{"receive fully received", workflow.StatusFullyReceived, ActionReceive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Authorize(RoleAdmin, tt.action, orderIn(tt.status), nil)
			if decision.Allowed != tt.allowed {
				t.Errorf("Authorize(admin, %s, %s) allowed = %v, want %v",
					tt.action, tt.status, decision.Allowed, tt.allowed)
			}
		})
	}
}

func TestAuthorize_TerminalStatusesReadOnly(t *testing.T) {
	// Regardless of role, only view/view_history/view_audit_trail survive in
	// cancelled and closed.
	readOnly := map[Action]bool{
		ActionView: true, ActionViewHistory: true, ActionViewAuditTrail: true,
	}
	allActions := []Action{
		ActionView, ActionEdit, ActionApprove, ActionReceive,
		ActionCancel, ActionViewHistory, ActionViewAuditTrail,
	}

	for _, status := range []workflow.Status{workflow.StatusCancelled, workflow.StatusClosed} {
		for _, action := range allActions {
			decision := Authorize(RoleAdmin, action, orderIn(status), nil)
			if decision.Allowed != readOnly[action] {
				t.Errorf("Authorize(admin, %s, %s) allowed = %v, want %v",
					action, status, decision.Allowed, readOnly[action])
			}
		}
	}
}

func TestAuthorize_Deterministic(t *testing.T) {
	order := orderIn(workflow.StatusPendingApproval)

	first := Authorize(RoleManager, ActionApprove, order, amt(120000))
	second := Authorize(RoleManager, ActionApprove, order, amt(120000))

	if first != second {
		t.Errorf("Authorize() not deterministic: %+v vs %+v", first, second)
	}
}
