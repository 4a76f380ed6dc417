package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response wraps every error returned by the API.
type Response struct {
	Error *ErrorBody `json:"error"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// Order matters: the first match wins.
var errorTable = []errorMapping{
	{errBadRequest, http.StatusBadRequest, "invalid_input"},
	{ticket.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{member.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{queue.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{activity.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{ticket.ErrUnknownMember, http.StatusNotFound, "unknown_member"},
	{member.ErrMemberNotFound, http.StatusNotFound, "unknown_member"},
	{queue.ErrCreatorNotFound, http.StatusNotFound, "unknown_member"},
	{ticket.ErrQueueNotFound, http.StatusNotFound, "queue_not_found"},
	{queue.ErrQueueNotFound, http.StatusNotFound, "queue_not_found"},
	{ticket.ErrNotInQueue, http.StatusNotFound, "not_in_queue"},
	{ticket.ErrForbidden, http.StatusForbidden, "forbidden"},
	{queue.ErrForbidden, http.StatusForbidden, "forbidden"},
	{ticket.ErrAlreadyQueued, http.StatusConflict, "already_queued"},
	{member.ErrMemberExists, http.StatusConflict, "already_exists"},
	{queue.ErrQueueExists, http.StatusConflict, "already_exists"},
	{ticket.ErrCapacityExceeded, http.StatusUnprocessableEntity, "capacity_exceeded"},
	{ticket.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage_unavailable"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "canceled"},
	{context.Canceled, http.StatusServiceUnavailable, "canceled"},
}

// statusFor maps a domain error to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Response{Error: &ErrorBody{Code: code, Message: message}})
}

// writeDomainError writes err using statusFor. Internal failures are not
// echoed to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	writeError(w, status, code, message)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// queryInt parses a non-negative integer query parameter, zero when absent.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}
