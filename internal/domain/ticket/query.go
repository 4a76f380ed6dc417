package ticket

import (
	"context"
	"errors"
	"strings"

	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/repository"
)

// Query serves read-only projections of the ledger.
type Query struct {
	store  Store
	queues QueueCatalog
}

// PositionOf returns the member's current position and the number of
// waiting tickets, read together.
func (q *Query) PositionOf(ctx context.Context, memberID, queueID string) (*PositionInfo, error) {
	if strings.TrimSpace(memberID) == "" || strings.TrimSpace(queueID) == "" {
		return nil, ErrInvalidInput
	}
	info, err := q.store.Position(ctx, queueID, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotInQueue
		}
		return nil, storageError("reading position", err)
	}
	return &info, nil
}

// RosterOf lists waiting tickets by position followed by served tickets in
// the order they were served.
func (q *Query) RosterOf(ctx context.Context, queueID string) ([]RosterEntry, error) {
	if strings.TrimSpace(queueID) == "" {
		return nil, ErrInvalidInput
	}
	if _, err := q.queues.CapacityOf(ctx, queueID); err != nil {
		if errors.Is(err, queue.ErrQueueNotFound) {
			return nil, ErrQueueNotFound
		}
		return nil, storageError("resolving queue", err)
	}
	entries, err := q.store.Roster(ctx, queueID)
	if err != nil {
		return nil, storageError("reading roster", err)
	}
	return entries, nil
}

// JoinedQueues lists every ticket the member holds or held, newest first.
func (q *Query) JoinedQueues(ctx context.Context, memberID string) ([]Ticket, error) {
	if strings.TrimSpace(memberID) == "" {
		return nil, ErrInvalidInput
	}
	tickets, err := q.store.ListByMember(ctx, memberID)
	if err != nil {
		return nil, storageError("listing member tickets", err)
	}
	return tickets, nil
}
