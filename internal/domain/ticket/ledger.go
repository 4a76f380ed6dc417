package ticket

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/waitline/internal/keylock"
	"github.com/rpggio/waitline/internal/repository"
)

// Ledger owns position integrity. Mutations of one queue are serialized in
// process before they reach the store, which keeps them atomic across
// processes on its own.
type Ledger struct {
	store Store
	locks *keylock.Set
	now   func() time.Time
}

// NewLedger creates a ledger over store. A nil now uses time.Now.
func NewLedger(store Store, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: store, locks: keylock.New(), now: now}
}

// AssignPosition admits memberID to queueID at the next free position.
func (l *Ledger) AssignPosition(ctx context.Context, queueID, memberID string, capacity int) (*Ticket, error) {
	unlock, err := l.locks.Lock(ctx, queueID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t := &Ticket{
		ID:       uuid.NewString(),
		QueueID:  queueID,
		MemberID: memberID,
		Status:   StatusWaiting,
		JoinedAt: l.now(),
	}
	if err := l.store.AssignPosition(ctx, t, capacity); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrAlreadyQueued
		case errors.Is(err, repository.ErrCapacityReached):
			return nil, ErrCapacityExceeded
		default:
			return nil, storageError("assigning position", err)
		}
	}
	return t, nil
}

// ServeAndCompact marks the member's waiting ticket served and closes the gap
// it leaves behind.
func (l *Ledger) ServeAndCompact(ctx context.Context, queueID, memberID string) (*Ticket, error) {
	unlock, err := l.locks.Lock(ctx, queueID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t, err := l.store.ServeAndCompact(ctx, queueID, memberID, l.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotInQueue
		}
		return nil, storageError("serving ticket", err)
	}
	return t, nil
}
