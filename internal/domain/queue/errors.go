package queue

import "errors"

var (
	// ErrQueueNotFound indicates the queue doesn't exist.
	ErrQueueNotFound = errors.New("queue not found")
	// ErrQueueExists indicates a queue with the same ID already exists.
	ErrQueueExists = errors.New("queue already exists")
	// ErrForbidden indicates the creator may not create queues.
	ErrForbidden = errors.New("only admitters can create queues")
	// ErrCreatorNotFound indicates the creator is not a registered member.
	ErrCreatorNotFound = errors.New("creator not found")
	// ErrInvalidInput indicates invalid queue input.
	ErrInvalidInput = errors.New("invalid queue input")
)
