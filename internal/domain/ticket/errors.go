package ticket

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownMember indicates the member could not be resolved.
	ErrUnknownMember = errors.New("unknown member")
	// ErrForbidden indicates the member's role does not allow the operation.
	ErrForbidden = errors.New("forbidden for member role")
	// ErrQueueNotFound indicates the queue could not be resolved.
	ErrQueueNotFound = errors.New("queue not found")
	// ErrAlreadyQueued indicates the member already waits in the queue.
	ErrAlreadyQueued = errors.New("member already queued")
	// ErrCapacityExceeded indicates the queue has no free waiting slot.
	ErrCapacityExceeded = errors.New("queue capacity exceeded")
	// ErrNotInQueue indicates the member has no waiting ticket in the queue.
	ErrNotInQueue = errors.New("member not in queue")
	// ErrInvalidInput indicates missing identifiers.
	ErrInvalidInput = errors.New("invalid ticket input")
	// ErrStorageUnavailable wraps failures of the underlying store.
	ErrStorageUnavailable = errors.New("ticket storage unavailable")
)

// storageError classifies an unexpected store failure. Context errors pass
// through unchanged so callers can tell cancellation from an outage.
func storageError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// Outcome returns a short stable label for the result of an operation.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnknownMember):
		return "unknown_member"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrQueueNotFound):
		return "queue_not_found"
	case errors.Is(err, ErrAlreadyQueued):
		return "already_queued"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrNotInQueue):
		return "not_in_queue"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "storage_unavailable"
	}
}

func isRejection(err error) bool {
	switch Outcome(err) {
	case "ok", "invalid_input", "canceled", "storage_unavailable":
		return false
	}
	return true
}
