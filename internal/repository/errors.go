package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a uniqueness constraint would be violated,
	// including a second waiting ticket for the same member in a queue
	ErrDuplicate = errors.New("duplicate entity")

	// ErrCapacityReached is returned when a queue has no free waiting slot
	ErrCapacityReached = errors.New("capacity reached")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")
)
