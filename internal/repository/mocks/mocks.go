package mocks

import (
	"context"
	"time"

	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
	"github.com/stretchr/testify/mock"
)

// MemberRepository is a mock for member.Repository.
type MemberRepository struct {
	mock.Mock
}

func (m *MemberRepository) Create(ctx context.Context, mem *member.Member) error {
	args := m.Called(ctx, mem)
	return args.Error(0)
}

func (m *MemberRepository) Get(ctx context.Context, id string) (*member.Member, error) {
	args := m.Called(ctx, id)
	if mem, ok := args.Get(0).(*member.Member); ok {
		return mem, args.Error(1)
	}
	return nil, args.Error(1)
}

// MemberDirectory is a mock for role lookups.
type MemberDirectory struct {
	mock.Mock
}

func (m *MemberDirectory) RoleOf(ctx context.Context, memberID string) (member.Role, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).(member.Role), args.Error(1)
}

// QueueRepository is a mock for queue.Repository.
type QueueRepository struct {
	mock.Mock
}

func (m *QueueRepository) Create(ctx context.Context, q *queue.Queue) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *QueueRepository) Get(ctx context.Context, id string) (*queue.Queue, error) {
	args := m.Called(ctx, id)
	if q, ok := args.Get(0).(*queue.Queue); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QueueRepository) List(ctx context.Context, opts queue.ListOptions) ([]queue.Queue, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]queue.Queue); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// QueueCatalog is a mock for capacity lookups.
type QueueCatalog struct {
	mock.Mock
}

func (m *QueueCatalog) CapacityOf(ctx context.Context, queueID string) (int, error) {
	args := m.Called(ctx, queueID)
	return args.Int(0), args.Error(1)
}

// TicketStore is a mock for ticket.Store.
type TicketStore struct {
	mock.Mock
}

func (m *TicketStore) AssignPosition(ctx context.Context, t *ticket.Ticket, capacity int) error {
	args := m.Called(ctx, t, capacity)
	return args.Error(0)
}

func (m *TicketStore) ServeAndCompact(ctx context.Context, queueID, memberID string, servedAt time.Time) (*ticket.Ticket, error) {
	args := m.Called(ctx, queueID, memberID, servedAt)
	if t, ok := args.Get(0).(*ticket.Ticket); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketStore) GetWaiting(ctx context.Context, queueID, memberID string) (*ticket.Ticket, error) {
	args := m.Called(ctx, queueID, memberID)
	if t, ok := args.Get(0).(*ticket.Ticket); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketStore) Position(ctx context.Context, queueID, memberID string) (ticket.PositionInfo, error) {
	args := m.Called(ctx, queueID, memberID)
	return args.Get(0).(ticket.PositionInfo), args.Error(1)
}

func (m *TicketStore) Roster(ctx context.Context, queueID string) ([]ticket.RosterEntry, error) {
	args := m.Called(ctx, queueID)
	if list, ok := args.Get(0).([]ticket.RosterEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketStore) ListByMember(ctx context.Context, memberID string) ([]ticket.Ticket, error) {
	args := m.Called(ctx, memberID)
	if list, ok := args.Get(0).([]ticket.Ticket); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
