package poker

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAction          = errors.New("invalid_action")
	ErrRejectedAction         = errors.New("rejected_action")
	ErrConcurrentModification = errors.New("concurrent_modification")
	ErrInvariantViolation     = errors.New("invariant_violation")
	ErrTableNotFound          = errors.New("table_not_found")
	ErrPlayerNotFound         = errors.New("player_not_found")
)

// InvalidActionError is a malformed or semantically wrong action: bad amount,
// illegal seat, table full, insufficient balance.
type InvalidActionError struct {
	Action ActionName
	Reason string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %s: %s", e.Action, e.Reason)
}

func (e *InvalidActionError) Is(target error) bool { return target == ErrInvalidAction }

// RejectedActionError is a well-formed action that is not legal in the
// current state. It matches both ErrRejectedAction and ErrInvalidAction.
type RejectedActionError struct {
	Action ActionName
	Reason string
}

func (e *RejectedActionError) Error() string {
	return fmt.Sprintf("rejected action %s: %s", e.Action, e.Reason)
}

func (e *RejectedActionError) Is(target error) bool {
	return target == ErrRejectedAction || target == ErrInvalidAction
}

type ConcurrentModificationKind string

const (
	StaleWrite       ConcurrentModificationKind = "stale_write"
	AlreadyLocked    ConcurrentModificationKind = "already_locked"
	WriteWithoutLock ConcurrentModificationKind = "write_without_lock"
)

type ConcurrentModificationError struct {
	Kind    ConcurrentModificationKind
	TableID string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("concurrent modification (%s) on table %s", e.Kind, e.TableID)
}

func (e *ConcurrentModificationError) Is(target error) bool {
	return target == ErrConcurrentModification
}

// InvariantViolation halts processing for one table.
type InvariantViolation struct {
	TableID string
	Reason  string
	Err     error
}

func (e *InvariantViolation) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invariant violation on table %s: %s: %v", e.TableID, e.Reason, e.Err)
	}
	return fmt.Sprintf("invariant violation on table %s: %s", e.TableID, e.Reason)
}

func (e *InvariantViolation) Is(target error) bool { return target == ErrInvariantViolation }

func (e *InvariantViolation) Unwrap() error { return e.Err }

func invalid(a ActionName, format string, args ...any) error {
	return &InvalidActionError{Action: a, Reason: fmt.Sprintf(format, args...)}
}

func rejected(a ActionName, format string, args ...any) error {
	return &RejectedActionError{Action: a, Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err should be logged and acked rather
// than stopping the worker.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAction)
}
