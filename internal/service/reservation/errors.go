package reservation

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTicketSold     = errors.New("ticket already sold")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrInvalidNumber  = errors.New("ticket number out of range")
	ErrMissingBuyer   = errors.New("buyer name and phone are required")
	ErrInvalidStatus  = errors.New("status must be available or sold")
)

// RateLimitedError reports when the caller may retry.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}
