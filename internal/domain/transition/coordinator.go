package transition

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/procurehq/purchase-flow/internal/domain/auth"
	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
)

// Denial is a structured, non-exceptional rejection of a transition request
type Denial struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Denial codes
const (
	CodeIllegalTransition = "illegal_transition"
	CodeNotAuthorized     = "not_authorized"
	CodeMissingItems      = "missing_items"
	CodeZeroTotal         = "zero_total"
	CodeMissingSupplier   = "missing_supplier"
	CodeReasonRequired    = "reason_required"
)

// Context is the audit record assembled for a transition that passed every
// guard. It is handed to the external apply step and the audit sink; the
// coordinator itself never mutates the order.
type Context struct {
	ActorID   string    `json:"actor_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  Metadata  `json:"metadata"`
}

// Metadata records the role and the endpoints of the transition
type Metadata struct {
	Role string          `json:"role"`
	From workflow.Status `json:"from"`
	To   workflow.Status `json:"to"`
}

// Result carries the outcome of a transition request. Denials accumulate so
// the caller can present every problem at once; warnings never block.
type Result struct {
	Context  *Context `json:"context,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Denials  []Denial `json:"denials,omitempty"`
}

// OK reports whether the request passed every guard
func (r Result) OK() bool {
	return len(r.Denials) == 0
}

// actionFor maps a target status to the nearest authorization action
func actionFor(target workflow.Status) auth.Action {
	switch target {
	case workflow.StatusApproved:
		return auth.ActionApprove
	case workflow.StatusSentToSupplier, workflow.StatusPartiallyReceived, workflow.StatusFullyReceived:
		return auth.ActionReceive
	case workflow.StatusCancelled:
		return auth.ActionCancel
	default:
		return auth.ActionEdit
	}
}

// reasonRequired reports whether the target status mandates a free-text reason
func reasonRequired(target workflow.Status) bool {
	return target == workflow.StatusCancelled || target == workflow.StatusClosed
}

// Request validates a single transition request end to end: graph legality,
// authorization, and status-specific business guards. All guards run; failures
// accumulate rather than short-circuit. On a clean pass the returned Result
// carries the assembled Context and no denials.
func Request(order *entity.PurchaseOrder, target workflow.Status, role auth.Role, actorID, reason string) Result {
	var res Result

	if !workflow.CanTransition(order.Status, target) {
		res.Denials = append(res.Denials, Denial{
			Code:   CodeIllegalTransition,
			Reason: "cannot change status from " + order.Status.String() + " to " + target.String(),
		})
	}

	action := actionFor(target)
	var amount *decimal.Decimal
	if action == auth.ActionApprove {
		total := order.Total
		amount = &total
	}
	// Closing has no entry in the status-action table; the transition graph
	// already restricts it to fully received orders, so only the role axis
	// applies.
	orderForAuth := order
	if target == workflow.StatusClosed {
		orderForAuth = nil
	}
	decision := auth.Authorize(role, action, orderForAuth, amount)
	if !decision.Allowed {
		res.Denials = append(res.Denials, Denial{
			Code:   CodeNotAuthorized,
			Reason: decision.Reason,
		})
	}

	switch target {
	case workflow.StatusApproved:
		if len(order.Items) == 0 {
			res.Denials = append(res.Denials, Denial{
				Code:   CodeMissingItems,
				Reason: "cannot approve purchase order without items",
			})
		}
		if !order.Total.IsPositive() {
			res.Denials = append(res.Denials, Denial{
				Code:   CodeZeroTotal,
				Reason: "cannot approve purchase order with a total of zero or less",
			})
		}
		if strings.TrimSpace(order.SupplierID) == "" {
			res.Denials = append(res.Denials, Denial{
				Code:   CodeMissingSupplier,
				Reason: "cannot approve purchase order without a supplier",
			})
		}

	case workflow.StatusSentToSupplier, workflow.StatusPartiallyReceived, workflow.StatusFullyReceived:
		res.Warnings = append(res.Warnings,
			"receiving stock for this order will trigger inventory updates")
	}

	if reasonRequired(target) && strings.TrimSpace(reason) == "" {
		res.Denials = append(res.Denials, Denial{
			Code:   CodeReasonRequired,
			Reason: "reason is required for this status change",
		})
	}

	if !res.OK() {
		return res
	}

	res.Context = &Context{
		ActorID:   actorID,
		Reason:    strings.TrimSpace(reason),
		Timestamp: time.Now().UTC(),
		Metadata: Metadata{
			Role: role.String(),
			From: order.Status,
			To:   target,
		},
	}
	return res
}
