package entity

import "time"

// AuditRecord is the durable form of a transition context: who moved which
// order from which status to which, when, and why.
type AuditRecord struct {
	ID             int64     `json:"id"`
	OrderID        string    `json:"order_id"`
	ActorID        string    `json:"actor_id"`
	Role           string    `json:"role"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Reason         string    `json:"reason,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
