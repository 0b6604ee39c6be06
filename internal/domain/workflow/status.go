package workflow

// Status represents a purchase order status in the procurement lifecycle
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPendingApproval   Status = "pending_approval"
	StatusApproved          Status = "approved"
	StatusSentToSupplier    Status = "sent_to_supplier"
	StatusPartiallyReceived Status = "partially_received"
	StatusFullyReceived     Status = "fully_received"
	StatusCancelled         Status = "cancelled"
	StatusClosed            Status = "closed"
)

var validStatuses = map[Status]bool{
	StatusDraft:             true,
	StatusPendingApproval:   true,
	StatusApproved:          true,
	StatusSentToSupplier:    true,
	StatusPartiallyReceived: true,
	StatusFullyReceived:     true,
	StatusCancelled:         true,
	StatusClosed:            true,
}

var terminalStatuses = map[Status]bool{
	StatusCancelled: true,
	StatusClosed:    true,
}

// AllStatuses returns every status in the closed enumeration
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusPendingApproval,
		StatusApproved,
		StatusSentToSupplier,
		StatusPartiallyReceived,
		StatusFullyReceived,
		StatusCancelled,
		StatusClosed,
	}
}

// IsTerminal returns true if the status is a terminal status (no further transitions allowed)
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a valid purchase order status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
