package domain

import "errors"

// RetriableError marks errors the feed loop may retry after backoff.
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable.
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// FeedError wraps a transport failure from the market-data connection.
// These are absorbed by the connection manager and never reach callers.
type FeedError struct {
	Op        string // "dial", "subscribe", "read"
	Err       error
	Retriable bool
}

func (e *FeedError) Error() string {
	return "feed " + e.Op + ": " + e.Err.Error()
}

func (e *FeedError) IsRetriable() bool {
	return e.Retriable
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a retriable feed transport error.
func NewFeedError(op string, err error) *FeedError {
	return &FeedError{Op: op, Err: err, Retriable: true}
}

var (
	// ErrInvalidOrder is returned when caller input fails validation.
	// Maps to a client-error HTTP status.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrBookUnavailable is returned when no synchronized, fresh snapshot
	// exists. Transient; maps to service-unavailable and is safe to retry.
	ErrBookUnavailable = errors.New("order book stale or unavailable")

	// ErrSequenceGap is returned by the store when an update's sequence
	// number is not the immediate successor. Internal; triggers resync.
	ErrSequenceGap = errors.New("sequence gap detected")

	// ErrCrossedBook is returned when an applied batch would leave the best
	// bid at or above the best ask. Treated as corruption; triggers resync.
	ErrCrossedBook = errors.New("crossed book")
)
