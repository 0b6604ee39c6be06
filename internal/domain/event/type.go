package event

// Type identifies the type of domain event
type Type string

const (
	TypeOrderCreated       Type = "order.created"
	TypeOrderStatusChanged Type = "order.status_changed"
	TypeOrderApproved      Type = "order.approved"
	TypeOrderCancelled     Type = "order.cancelled"
	TypeQueueBulkCompleted Type = "queue.bulk_completed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeOrderCreated,
		TypeOrderStatusChanged,
		TypeOrderApproved,
		TypeOrderCancelled,
		TypeQueueBulkCompleted:
		return true
	default:
		return false
	}
}
