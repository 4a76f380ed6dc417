// Package memstore keeps members, queues, tickets and activity in process
// memory. It backs tests and the "memory" database driver.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
	"github.com/rpggio/waitline/internal/repository"
)

type queueLine struct {
	// waiting[i] holds position i+1.
	waiting []*ticket.Ticket
	served  []*ticket.Ticket
}

// Store is a mutex guarded in-memory repository set. Every method holds the
// lock for its whole body, so each mutation is atomic.
type Store struct {
	mu sync.RWMutex

	members    map[string]member.Member
	queues     map[string]queue.Queue
	lines      map[string]*queueLine
	byMember   map[string][]*ticket.Ticket
	activities []activity.ActivityEntry
	nextID     int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		members:  make(map[string]member.Member),
		queues:   make(map[string]queue.Queue),
		lines:    make(map[string]*queueLine),
		byMember: make(map[string][]*ticket.Ticket),
	}
}

// Members returns the store as a member.Repository.
func (s *Store) Members() member.Repository { return memberRepo{s} }

// Queues returns the store as a queue.Repository.
func (s *Store) Queues() queue.Repository { return queueRepo{s} }

// Tickets returns the store as a ticket.Store.
func (s *Store) Tickets() ticket.Store { return ticketStore{s} }

// Activities returns the store as an activity.Repository.
func (s *Store) Activities() activity.Repository { return activityRepo{s} }

type memberRepo struct{ s *Store }

func (r memberRepo) Create(ctx context.Context, m *member.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.members[m.ID]; ok {
		return repository.ErrDuplicate
	}
	r.s.members[m.ID] = *m
	return nil
}

func (r memberRepo) Get(ctx context.Context, id string) (*member.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

type queueRepo struct{ s *Store }

func (r queueRepo) Create(ctx context.Context, q *queue.Queue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.queues[q.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := r.s.members[q.CreatorID]; !ok {
		return repository.ErrForeignKeyViolation
	}
	r.s.queues[q.ID] = *q
	return nil
}

func (r queueRepo) Get(ctx context.Context, id string) (*queue.Queue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.queues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (r queueRepo) List(ctx context.Context, opts queue.ListOptions) ([]queue.Queue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := strings.ToLower(opts.Query)
	list := make([]queue.Queue, 0, len(r.s.queues))
	for _, q := range r.s.queues {
		if opts.CreatorID != "" && q.CreatorID != opts.CreatorID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(q.Name), needle) &&
			!strings.Contains(strings.ToLower(q.Description), needle) {
			continue
		}
		list = append(list, q)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, opts.Offset, opts.Limit), nil
}

type ticketStore struct{ s *Store }

func (r ticketStore) AssignPosition(ctx context.Context, t *ticket.Ticket, capacity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	line := r.s.line(t.QueueID)
	for _, w := range line.waiting {
		if w.MemberID == t.MemberID {
			return repository.ErrDuplicate
		}
	}
	if len(line.waiting) >= capacity {
		return repository.ErrCapacityReached
	}

	t.Position = len(line.waiting) + 1
	t.Status = ticket.StatusWaiting
	stored := *t
	line.waiting = append(line.waiting, &stored)
	r.s.byMember[t.MemberID] = append(r.s.byMember[t.MemberID], &stored)
	return nil
}

func (r ticketStore) ServeAndCompact(ctx context.Context, queueID, memberID string, servedAt time.Time) (*ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	line, ok := r.s.lines[queueID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	idx := -1
	for i, w := range line.waiting {
		if w.MemberID == memberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, repository.ErrNotFound
	}

	served := line.waiting[idx]
	served.Status = ticket.StatusServed
	at := servedAt
	served.ServedAt = &at

	line.waiting = append(line.waiting[:idx], line.waiting[idx+1:]...)
	for _, w := range line.waiting[idx:] {
		w.Position--
	}
	line.served = append(line.served, served)

	out := copyTicket(served)
	return &out, nil
}

func (r ticketStore) GetWaiting(ctx context.Context, queueID, memberID string) (*ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if line, ok := r.s.lines[queueID]; ok {
		for _, w := range line.waiting {
			if w.MemberID == memberID {
				out := copyTicket(w)
				return &out, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r ticketStore) Position(ctx context.Context, queueID, memberID string) (ticket.PositionInfo, error) {
	if err := ctx.Err(); err != nil {
		return ticket.PositionInfo{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if line, ok := r.s.lines[queueID]; ok {
		for _, w := range line.waiting {
			if w.MemberID == memberID {
				return ticket.PositionInfo{
					TicketID:     w.ID,
					QueueID:      queueID,
					MemberID:     memberID,
					Position:     w.Position,
					TotalWaiting: len(line.waiting),
				}, nil
			}
		}
	}
	return ticket.PositionInfo{}, repository.ErrNotFound
}

func (r ticketStore) Roster(ctx context.Context, queueID string) ([]ticket.RosterEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	line, ok := r.s.lines[queueID]
	if !ok {
		return []ticket.RosterEntry{}, nil
	}
	entries := make([]ticket.RosterEntry, 0, len(line.waiting)+len(line.served))
	for _, t := range line.waiting {
		entries = append(entries, rosterEntry(t))
	}
	for _, t := range line.served {
		entries = append(entries, rosterEntry(t))
	}
	return entries, nil
}

func (r ticketStore) ListByMember(ctx context.Context, memberID string) ([]ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	held := r.s.byMember[memberID]
	list := make([]ticket.Ticket, 0, len(held))
	for i := len(held) - 1; i >= 0; i-- {
		list = append(list, copyTicket(held[i]))
	}
	return list, nil
}

type activityRepo struct{ s *Store }

func (r activityRepo) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	entry.ID = r.s.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.s.activities = append(r.s.activities, *entry)
	return nil
}

func (r activityRepo) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []activity.ActivityEntry
	for i := len(r.s.activities) - 1; i >= 0; i-- {
		e := r.s.activities[i]
		if opts.QueueID != "" && e.QueueID != opts.QueueID {
			continue
		}
		if opts.MemberID != nil && e.MemberID != *opts.MemberID {
			continue
		}
		if opts.ActivityType != nil && e.ActivityType != *opts.ActivityType {
			continue
		}
		list = append(list, e)
	}
	return page(list, opts.Offset, opts.Limit), nil
}

func (s *Store) line(queueID string) *queueLine {
	line, ok := s.lines[queueID]
	if !ok {
		line = &queueLine{}
		s.lines[queueID] = line
	}
	return line
}

func rosterEntry(t *ticket.Ticket) ticket.RosterEntry {
	c := copyTicket(t)
	return ticket.RosterEntry{
		TicketID: c.ID,
		MemberID: c.MemberID,
		Position: c.Position,
		Status:   c.Status,
		JoinedAt: c.JoinedAt,
		ServedAt: c.ServedAt,
	}
}

func copyTicket(t *ticket.Ticket) ticket.Ticket {
	out := *t
	if t.ServedAt != nil {
		at := *t.ServedAt
		out.ServedAt = &at
	}
	return out
}

func page[T any](list []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return []T{}
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	if list == nil {
		return []T{}
	}
	return list
}
