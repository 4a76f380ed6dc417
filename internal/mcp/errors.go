package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
)

// APIError represents an MCP tool error.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes. It returns nil for errors
// it does not know.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ticket.ErrInvalidInput), errors.Is(err, member.ErrInvalidInput), errors.Is(err, queue.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check required arguments"}
	case errors.Is(err, ticket.ErrUnknownMember), errors.Is(err, member.ErrMemberNotFound), errors.Is(err, queue.ErrCreatorNotFound):
		return &APIError{Code: "UNKNOWN_MEMBER", Message: "member not found", RecoveryHint: "Call register_member first"}
	case errors.Is(err, ticket.ErrQueueNotFound), errors.Is(err, queue.ErrQueueNotFound):
		return &APIError{Code: "QUEUE_NOT_FOUND", Message: "queue not found", RecoveryHint: "Use list_queues to find the queue ID"}
	case errors.Is(err, ticket.ErrForbidden), errors.Is(err, queue.ErrForbidden):
		return &APIError{Code: "FORBIDDEN", Message: "member role does not allow this operation"}
	case errors.Is(err, ticket.ErrAlreadyQueued):
		return &APIError{Code: "ALREADY_QUEUED", Message: "member already waits in this queue", RecoveryHint: "Call get_position instead"}
	case errors.Is(err, ticket.ErrCapacityExceeded):
		return &APIError{Code: "CAPACITY_EXCEEDED", Message: "queue is full", RecoveryHint: "Retry after a member is served"}
	case errors.Is(err, ticket.ErrNotInQueue):
		return &APIError{Code: "NOT_IN_QUEUE", Message: "member has no waiting ticket in this queue"}
	case errors.Is(err, member.ErrMemberExists), errors.Is(err, queue.ErrQueueExists):
		return &APIError{Code: "ALREADY_EXISTS", Message: err.Error()}
	case errors.Is(err, ticket.ErrStorageUnavailable):
		return &APIError{Code: "STORAGE_UNAVAILABLE", Message: "storage unavailable", RecoveryHint: "Retry later"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &APIError{Code: "CANCELED", Message: err.Error()}
	default:
		return nil
	}
}

// toolError converts err into the error returned from a tool handler.
// Unknown errors are reported without their details.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return &APIError{Code: "INTERNAL", Message: "internal error"}
}
