package bookingerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Sentinel errors for business-rule rejections. These are terminal from the
// caller's point of view and are never retried inside the core.
var (
	ErrNotFound             = errors.New("record not found")
	ErrUnauthorized         = errors.New("user is not authorized")
	ErrNotCancellable       = errors.New("booking can no longer be cancelled")
	ErrReservationExpired   = errors.New("reservation has expired")
	ErrExtensionCapExceeded = errors.New("reservation extension cap exceeded")

	// ErrSeatUnavailable is the batch-hold precondition failure: at least
	// one targeted seat was not free, so none were claimed.
	ErrSeatUnavailable = errors.New("one or more seats are not free")

	// ErrLockTimeout means the seats being purchased are locked by another
	// in-flight booking. Callers surface "try again"; the core never queues.
	ErrLockTimeout = errors.New("seats are locked by another booking attempt")
)

// ValidationError reports malformed input, tagged per field. It is returned
// before any lock or storage access.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = msg
}

func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Conflict reasons distinguish the user messaging required for each case.
const (
	ReasonBooked    = "already_booked"
	ReasonHeld      = "held_by_other"
	ReasonUnknownID = "unknown_seat"
)

// SeatConflict names one seat that could not be claimed and why. ExpiresIn
// is set only for held seats, so the caller can show an estimated release.
type SeatConflict struct {
	SeatID    string        `json:"seat_id"`
	Reason    string        `json:"reason"`
	ExpiresIn time.Duration `json:"expires_in,omitempty"`
}

// ConflictError reports seats that were unavailable at check time. It is
// recoverable: the caller re-queries availability and retries with a
// different seat set.
type ConflictError struct {
	Seats []SeatConflict
}

func (e *ConflictError) Error() string {
	ids := make([]string, len(e.Seats))
	for i, s := range e.Seats {
		ids[i] = s.SeatID + " (" + s.Reason + ")"
	}
	return "seats unavailable: " + strings.Join(ids, ", ")
}

// StorageError wraps a backing-store failure. The coordinator guarantees no
// partial booking/seat state survives one of these; it is surfaced as fatal.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it already carries taxonomy
// meaning (conflict, lock timeout, validation, sentinel).
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConflictError
	var ve *ValidationError
	if errors.As(err, &ce) || errors.As(err, &ve) ||
		errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
