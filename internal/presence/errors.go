package presence

import (
	"errors"
	"fmt"
)

// UnavailableError marks a store connectivity or timeout failure. Every
// store implementation wraps its transport errors in this type so callers
// can apply one degradation policy instead of matching driver errors.
type UnavailableError struct {
	Op    string
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("presence store unavailable during %s: %v", e.Op, e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// IsUnavailable reports whether err is (or wraps) a store unavailability.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

func unavailable(op string, cause error) error {
	return &UnavailableError{Op: op, Cause: cause}
}

// ErrInvalidHit marks a caller error: a hit that fails validation before
// any store access. Distinct from store unavailability so the HTTP layer
// can answer 4xx instead of a degraded acknowledgment.
var ErrInvalidHit = errors.New("invalid hit")
