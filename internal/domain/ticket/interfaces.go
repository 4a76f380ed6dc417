package ticket

import (
	"context"
	"time"

	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
)

// Store persists tickets. AssignPosition and ServeAndCompact must each be
// atomic with respect to every other mutation of the same queue, including
// ones issued by other processes sharing the store.
type Store interface {
	// AssignPosition inserts t as a waiting ticket at position
	// count(waiting)+1 and sets t.Position. It returns
	// repository.ErrDuplicate if the member already waits in the queue and
	// repository.ErrCapacityReached if the new position would exceed
	// capacity, in that order of precedence, without mutating anything.
	AssignPosition(ctx context.Context, t *Ticket, capacity int) error
	// ServeAndCompact marks the member's waiting ticket served and shifts
	// every waiting ticket behind it down by one. It returns the served
	// ticket, or repository.ErrNotFound if there is no waiting ticket.
	ServeAndCompact(ctx context.Context, queueID, memberID string, servedAt time.Time) (*Ticket, error)
	GetWaiting(ctx context.Context, queueID, memberID string) (*Ticket, error)
	Position(ctx context.Context, queueID, memberID string) (PositionInfo, error)
	Roster(ctx context.Context, queueID string) ([]RosterEntry, error)
	ListByMember(ctx context.Context, memberID string) ([]Ticket, error)
}

// MemberDirectory resolves member roles.
type MemberDirectory interface {
	RoleOf(ctx context.Context, memberID string) (member.Role, error)
}

// QueueCatalog resolves queue capacity.
type QueueCatalog interface {
	CapacityOf(ctx context.Context, queueID string) (int, error)
}

// ActivityRepository records ticket events.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}

// Observer receives operation outcomes, typically for metrics.
type Observer interface {
	ObserveJoin(outcome string, elapsed time.Duration)
	ObserveServe(outcome string, elapsed time.Duration)
}
