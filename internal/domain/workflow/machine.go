package workflow

import "fmt"

// transitions is the canonical transition graph. Every status has an entry;
// terminal statuses map to an empty set.
var transitions = map[Status][]Status{
	StatusDraft:             {StatusPendingApproval, StatusApproved, StatusCancelled},
	StatusPendingApproval:   {StatusApproved, StatusCancelled, StatusDraft},
	StatusApproved:          {StatusSentToSupplier, StatusCancelled},
	StatusSentToSupplier:    {StatusPartiallyReceived, StatusFullyReceived, StatusCancelled},
	StatusPartiallyReceived: {StatusFullyReceived, StatusCancelled},
	StatusFullyReceived:     {StatusClosed},
	StatusCancelled:         {},
	StatusClosed:            {},
}

// CanTransition reports whether the graph permits moving from one status to
// another. Self transitions are never permitted; unknown statuses never match.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidTransitions returns the set of statuses reachable from the given status.
// Terminal and unknown statuses yield an empty slice.
func ValidTransitions(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// ValidateTransition returns a descriptive error when the transition is not
// permitted, nil otherwise.
func ValidateTransition(from, to Status) error {
	if !from.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, from)
	}
	if !to.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
