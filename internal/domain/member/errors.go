package member

import "errors"

var (
	// ErrMemberNotFound indicates the member doesn't exist.
	ErrMemberNotFound = errors.New("member not found")
	// ErrMemberExists indicates a member with the same ID is already registered.
	ErrMemberExists = errors.New("member already exists")
	// ErrInvalidInput indicates invalid member input.
	ErrInvalidInput = errors.New("invalid member input")
)
