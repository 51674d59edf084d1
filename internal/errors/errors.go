package errors

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Engine error taxonomy. Everything is request scoped; none is fatal.
var (
	ErrNotFound         = errors.New("not found")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrNotAMember       = errors.New("not a chat member")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrTransientStorage = errors.New("storage unavailable")
)

// Is and As are re-exported so callers importing this package under the
// errors name keep access to the stdlib helpers.
var (
	Is = errors.Is
	As = errors.As
)

// Storage classifies a gorm/driver error: missing rows become ErrNotFound,
// a cancelled or expired request context is passed through, anything else is
// treated as a retryable storage failure.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrNotAMember) || errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidArgument) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransientStorage, err)
}

// Invalid wraps a message as ErrInvalidArgument.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
