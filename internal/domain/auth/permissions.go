package auth

import "github.com/shopspring/decimal"

// Role represents a user role in the procurement system
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleCashier    Role = "cashier"
	RoleAccountant Role = "accountant"
	RoleEmployee   Role = "employee"
)

// Action represents an operation a role may perform on a purchase order
type Action string

const (
	ActionCreate         Action = "create"
	ActionView           Action = "view"
	ActionEdit           Action = "edit"
	ActionApprove        Action = "approve"
	ActionReceive        Action = "receive"
	ActionCancel         Action = "cancel"
	ActionViewHistory    Action = "view_history"
	ActionViewAuditTrail Action = "view_audit_trail"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// RolePermissionSet holds the action grants for a role plus an optional
// approval amount ceiling. A nil MaxApprovalAmount means unlimited.
type RolePermissionSet struct {
	CanCreate         bool
	CanView           bool
	CanEdit           bool
	CanApprove        bool
	CanReceive        bool
	CanCancel         bool
	CanViewHistory    bool
	CanViewAuditTrail bool
	MaxApprovalAmount *decimal.Decimal
}

// Allows reports whether the permission set grants the given action
func (p RolePermissionSet) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return p.CanCreate
	case ActionView:
		return p.CanView
	case ActionEdit:
		return p.CanEdit
	case ActionApprove:
		return p.CanApprove
	case ActionReceive:
		return p.CanReceive
	case ActionCancel:
		return p.CanCancel
	case ActionViewHistory:
		return p.CanViewHistory
	case ActionViewAuditTrail:
		return p.CanViewAuditTrail
	default:
		return false
	}
}

// managerApprovalCeiling is the hard ceiling on the order total a manager may
// approve; the boundary itself is inclusive.
var managerApprovalCeiling = decimal.NewFromInt(100000)

var rolePermissions = map[Role]RolePermissionSet{
	RoleAdmin: {
		CanCreate:         true,
		CanView:           true,
		CanEdit:           true,
		CanApprove:        true,
		CanReceive:        true,
		CanCancel:         true,
		CanViewHistory:    true,
		CanViewAuditTrail: true,
	},
	RoleManager: {
		CanCreate:         true,
		CanView:           true,
		CanEdit:           true,
		CanApprove:        true,
		CanReceive:        true,
		CanCancel:         true,
		CanViewHistory:    true,
		CanViewAuditTrail: true,
		MaxApprovalAmount: &managerApprovalCeiling,
	},
	RoleCashier: {
		CanView:        true,
		CanReceive:     true,
		CanViewHistory: true,
	},
	RoleAccountant: {
		CanView:           true,
		CanViewHistory:    true,
		CanViewAuditTrail: true,
	},
	RoleEmployee: {
		CanCreate: true,
		CanView:   true,
		CanEdit:   true,
	},
}

// PermissionsFor returns the permission set for a role. Unknown roles yield an
// all-false set: absence of a role grants zero privileges.
func PermissionsFor(role Role) RolePermissionSet {
	return rolePermissions[role]
}
