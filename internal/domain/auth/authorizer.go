package auth

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
)

// Decision is the outcome of an authorization check. Denials always carry a
// reason specific enough to render a non-generic message.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Allow returns an allowing decision
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with a formatted reason
func Deny(format string, args ...interface{}) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// statusActions is the fixed status-action table: which actions are meaningful
// while an order sits in a given status. Every status appears.
var statusActions = map[workflow.Status]map[Action]bool{
	workflow.StatusDraft: {
		ActionView: true, ActionEdit: true, ActionApprove: true, ActionCancel: true,
	},
	workflow.StatusPendingApproval: {
		ActionView: true, ActionEdit: true, ActionApprove: true, ActionCancel: true,
	},
	workflow.StatusApproved: {
		ActionView: true, ActionReceive: true, ActionCancel: true, ActionViewHistory: true,
	},
	workflow.StatusSentToSupplier: {
		ActionView: true, ActionReceive: true, ActionCancel: true, ActionViewHistory: true,
	},
	workflow.StatusPartiallyReceived: {
		ActionView: true, ActionReceive: true, ActionViewHistory: true,
	},
	workflow.StatusFullyReceived: {
		ActionView: true, ActionViewHistory: true, ActionViewAuditTrail: true,
	},
	workflow.StatusCancelled: {
		ActionView: true, ActionViewHistory: true, ActionViewAuditTrail: true,
	},
	workflow.StatusClosed: {
		ActionView: true, ActionViewHistory: true, ActionViewAuditTrail: true,
	},
}

// Authorize decides whether a role may perform an action, optionally scoped to
// an order's current status and an approval amount. Action legality is the
// conjunction of the role axis and the status axis; both must permit it.
// The check is pure: identical inputs always produce identical decisions.
func Authorize(role Role, action Action, order *entity.PurchaseOrder, amount *decimal.Decimal) Decision {
	perms := PermissionsFor(role)
	if !perms.Allows(action) {
		return Deny("role %s does not have permission for %s", role, action)
	}

	if action == ActionApprove && amount != nil && perms.MaxApprovalAmount != nil {
		if amount.GreaterThan(*perms.MaxApprovalAmount) {
			return Deny("amount %s exceeds approval limit %s for role %s",
				amount.StringFixed(2), perms.MaxApprovalAmount.StringFixed(2), role)
		}
	}

	if order != nil {
		allowed, known := statusActions[order.Status]
		if !known || !allowed[action] {
			return Deny("action %s is not permitted while order is %s", action, order.Status)
		}
	}

	return Allow()
}
