package sqlite

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/ticket"
	"github.com/rpggio/waitline/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestTicket(queueID, memberID string) *ticket.Ticket {
	return &ticket.Ticket{
		ID:       uuid.NewString(),
		QueueID:  queueID,
		MemberID: memberID,
		JoinedAt: time.Now(),
	}
}

func seedQueue(t *testing.T, db *DB, queueID string, capacity int, members ...string) {
	t.Helper()
	insertMember(t, db, "adm-"+queueID, member.RoleAdmitter)
	insertQueue(t, db, queueID, "adm-"+queueID, capacity)
	for _, m := range members {
		insertMember(t, db, m, member.RoleJoiner)
	}
}

func TestTicketStore_AssignPosition(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedQueue(t, db, "q1", 2, "a", "b", "c")
	store := NewTicketStore(db)

	ta := newTestTicket("q1", "a")
	require.NoError(t, store.AssignPosition(ctx, ta, 2))
	require.Equal(t, 1, ta.Position)

	tb := newTestTicket("q1", "b")
	require.NoError(t, store.AssignPosition(ctx, tb, 2))
	require.Equal(t, 2, tb.Position)

	require.ErrorIs(t, store.AssignPosition(ctx, newTestTicket("q1", "c"), 2), repository.ErrCapacityReached)
	// duplicate wins over capacity
	require.ErrorIs(t, store.AssignPosition(ctx, newTestTicket("q1", "a"), 2), repository.ErrDuplicate)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tickets WHERE queue_id = 'q1'").Scan(&count))
	require.Equal(t, 2, count)
}

func TestTicketStore_AssignPositionUnknownQueue(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertMember(t, db, "a", member.RoleJoiner)
	store := NewTicketStore(db)

	err := store.AssignPosition(ctx, newTestTicket("missing", "a"), 5)
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestTicketStore_ServeAndCompact(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedQueue(t, db, "q1", 5, "a", "b", "c", "d")
	store := NewTicketStore(db)

	for _, m := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.AssignPosition(ctx, newTestTicket("q1", m), 5))
	}

	servedAt := time.Now()
	served, err := store.ServeAndCompact(ctx, "q1", "b", servedAt)
	require.NoError(t, err)
	require.Equal(t, 2, served.Position)
	require.Equal(t, ticket.StatusServed, served.Status)
	require.NotNil(t, served.ServedAt)

	for m, want := range map[string]int{"a": 1, "c": 2, "d": 3} {
		info, err := store.Position(ctx, "q1", m)
		require.NoError(t, err)
		require.Equal(t, want, info.Position, m)
		require.Equal(t, 3, info.TotalWaiting)
	}

	_, err = store.ServeAndCompact(ctx, "q1", "a", servedAt.Add(time.Second))
	require.NoError(t, err)

	roster, err := store.Roster(ctx, "q1")
	require.NoError(t, err)
	require.Len(t, roster, 4)
	got := make([]string, 0, len(roster))
	for _, e := range roster {
		got = append(got, fmt.Sprintf("%s:%d:%s", e.MemberID, e.Position, e.Status))
	}
	require.Equal(t, []string{"c:1:waiting", "d:2:waiting", "b:2:served", "a:1:served"}, got)

	_, err = store.ServeAndCompact(ctx, "q1", "b", servedAt)
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Position(ctx, "q1", "b")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.GetWaiting(ctx, "q1", "b")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTicketStore_RejoinAfterServe(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedQueue(t, db, "q1", 1, "a")
	store := NewTicketStore(db)

	first := newTestTicket("q1", "a")
	require.NoError(t, store.AssignPosition(ctx, first, 1))
	_, err := store.ServeAndCompact(ctx, "q1", "a", time.Now())
	require.NoError(t, err)

	second := newTestTicket("q1", "a")
	second.JoinedAt = first.JoinedAt.Add(time.Second)
	require.NoError(t, store.AssignPosition(ctx, second, 1))
	require.Equal(t, 1, second.Position)

	waiting, err := store.GetWaiting(ctx, "q1", "a")
	require.NoError(t, err)
	require.Equal(t, second.ID, waiting.ID)

	held, err := store.ListByMember(ctx, "a")
	require.NoError(t, err)
	require.Len(t, held, 2)
	require.Equal(t, second.ID, held[0].ID)
	require.Equal(t, first.ID, held[1].ID)
}

func TestTicketStore_EmptyRoster(t *testing.T) {
	db := NewTestDB(t)
	roster, err := NewTicketStore(db).Roster(context.Background(), "q1")
	require.NoError(t, err)
	require.NotNil(t, roster)
	require.Empty(t, roster)
}

// Separate handles on one file share nothing in process, so only the
// immediate transaction keeps joins linearized.
func TestTicketStore_ConcurrentJoinsAcrossHandles(t *testing.T) {
	path := NewTestFileDB(t)
	first := openTestDB(t, path)
	second := openTestDB(t, path)
	ctx := context.Background()

	const joiners, capacity = 12, 4
	var members []string
	for i := 0; i < joiners; i++ {
		members = append(members, fmt.Sprintf("m%d", i))
	}
	seedQueue(t, first, "q1", capacity, members...)

	stores := []*TicketStore{NewTicketStore(first), NewTicketStore(second)}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		positions []int
		errs      []error
	)
	for i, m := range members {
		wg.Add(1)
		go func(store *TicketStore, memberID string) {
			defer wg.Done()
			tk := newTestTicket("q1", memberID)
			err := store.AssignPosition(ctx, tk, capacity)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			positions = append(positions, tk.Position)
		}(stores[i%2], m)
	}
	wg.Wait()

	sort.Ints(positions)
	require.Equal(t, []int{1, 2, 3, 4}, positions)
	require.Len(t, errs, joiners-capacity)
	for _, err := range errs {
		require.ErrorIs(t, err, repository.ErrCapacityReached)
	}
}

func TestTicketStore_ConcurrentServeAndJoinKeepDensity(t *testing.T) {
	path := NewTestFileDB(t)
	first := openTestDB(t, path)
	second := openTestDB(t, path)
	ctx := context.Background()

	const n = 10
	var members []string
	for i := 0; i < 2*n; i++ {
		members = append(members, fmt.Sprintf("m%d", i))
	}
	seedQueue(t, first, "q1", 2*n, members...)

	serveStore, joinStore := NewTicketStore(first), NewTicketStore(second)
	for _, m := range members[:n] {
		require.NoError(t, serveStore.AssignPosition(ctx, newTestTicket("q1", m), 2*n))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(memberID string) {
			defer wg.Done()
			_, _ = serveStore.ServeAndCompact(ctx, "q1", memberID, time.Now())
		}(members[i])
		go func(memberID string) {
			defer wg.Done()
			_ = joinStore.AssignPosition(ctx, newTestTicket("q1", memberID), 2*n)
		}(members[n+i])
	}
	wg.Wait()

	rows, err := first.Query("SELECT position FROM tickets WHERE queue_id = 'q1' AND status = 'waiting' ORDER BY position")
	require.NoError(t, err)
	defer rows.Close()
	var positions []int
	for rows.Next() {
		var p int
		require.NoError(t, rows.Scan(&p))
		positions = append(positions, p)
	}
	require.NoError(t, rows.Err())
	require.Len(t, positions, n)
	for i, p := range positions {
		require.Equal(t, i+1, p)
	}
}
