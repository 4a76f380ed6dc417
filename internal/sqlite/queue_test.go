package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestMemberRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	m := &member.Member{ID: "m1", Name: "Ada", Email: "ada@example.com", Role: member.RoleJoiner, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, m))
	require.ErrorIs(t, repo.Create(ctx, m), repository.ErrDuplicate)

	got, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "Ada", got.Name)
	require.Equal(t, member.RoleJoiner, got.Role)
	require.Equal(t, m.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQueueRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertMember(t, db, "adm", member.RoleAdmitter)
	repo := NewQueueRepository(db)

	q := &queue.Queue{ID: "q1", CreatorID: "adm", Name: "Clinic", Description: "walk-in", MaxCapacity: 5, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, q))
	require.ErrorIs(t, repo.Create(ctx, q), repository.ErrDuplicate)

	orphan := &queue.Queue{ID: "q2", CreatorID: "ghost", Name: "x", Description: "y", MaxCapacity: 1, CreatedAt: time.Now()}
	require.ErrorIs(t, repo.Create(ctx, orphan), repository.ErrForeignKeyViolation)

	got, err := repo.Get(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, 5, got.MaxCapacity)
	require.Equal(t, "adm", got.CreatorID)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQueueRepository_List(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertMember(t, db, "adm1", member.RoleAdmitter)
	insertMember(t, db, "adm2", member.RoleAdmitter)
	repo := NewQueueRepository(db)

	now := time.Now()
	for i, q := range []*queue.Queue{
		{ID: "q1", CreatorID: "adm1", Name: "Clinic", Description: "Walk-in 100% free", MaxCapacity: 5},
		{ID: "q2", CreatorID: "adm1", Name: "Bakery", Description: "Fresh bread", MaxCapacity: 5},
		{ID: "q3", CreatorID: "adm2", Name: "DMV", Description: "licence_renewal", MaxCapacity: 5},
	} {
		q.CreatedAt = now.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(ctx, q))
	}

	all, err := repo.List(ctx, queue.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "q3", all[0].ID)

	mine, err := repo.List(ctx, queue.ListOptions{CreatorID: "adm1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	found, err := repo.List(ctx, queue.ListOptions{Query: "BREAD"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "q2", found[0].ID)

	// LIKE wildcards in the query match literally
	found, err = repo.List(ctx, queue.ListOptions{Query: "100%"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "q1", found[0].ID)

	found, err = repo.List(ctx, queue.ListOptions{Query: "e_r"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "q3", found[0].ID)

	paged, err := repo.List(ctx, queue.ListOptions{Offset: 2})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, "q1", paged[0].ID)
}
