package port

import "errors"

// ErrStaleOrder is returned by OrderRepository.UpdateStatus when the stored
// status no longer matches the expected status, meaning another request won
// the race.
var ErrStaleOrder = errors.New("order status changed concurrently")
