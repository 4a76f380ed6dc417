package queue_test

import (
	"context"
	"testing"

	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/repository"
	"github.com/rpggio/waitline/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validRequest() queue.CreateRequest {
	return queue.CreateRequest{
		CreatorID:   "adm",
		Name:        "Clinic",
		Description: "Walk-in appointments",
		MaxCapacity: 10,
	}
}

func TestQueueService_Create(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.QueueRepository{}
	members := &mocks.MemberDirectory{}
	members.On("RoleOf", ctx, "adm").Return(member.RoleAdmitter, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*queue.Queue")).Return(nil)

	svc := queue.NewService(repo, members, nil)
	q, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, q.ID)
	require.Equal(t, 10, q.MaxCapacity)
	require.Equal(t, "adm", q.CreatorID)
	repo.AssertExpectations(t)
}

func TestQueueService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.QueueRepository{}
	members := &mocks.MemberDirectory{}
	svc := queue.NewService(repo, members, nil)

	for name, mutate := range map[string]func(*queue.CreateRequest){
		"no creator":        func(r *queue.CreateRequest) { r.CreatorID = "" },
		"no name":           func(r *queue.CreateRequest) { r.Name = " " },
		"no description":    func(r *queue.CreateRequest) { r.Description = "" },
		"zero capacity":     func(r *queue.CreateRequest) { r.MaxCapacity = 0 },
		"negative capacity": func(r *queue.CreateRequest) { r.MaxCapacity = -3 },
	} {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			_, err := svc.Create(ctx, req)
			require.ErrorIs(t, err, queue.ErrInvalidInput)
		})
	}
	members.AssertNotCalled(t, "RoleOf", mock.Anything, mock.Anything)
}

func TestQueueService_CreateRequiresAdmitter(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.QueueRepository{}
	members := &mocks.MemberDirectory{}
	members.On("RoleOf", ctx, "adm").Return(member.RoleJoiner, nil)
	members.On("RoleOf", ctx, "ghost").Return(member.Role(""), member.ErrMemberNotFound)

	svc := queue.NewService(repo, members, nil)
	_, err := svc.Create(ctx, validRequest())
	require.ErrorIs(t, err, queue.ErrForbidden)

	req := validRequest()
	req.CreatorID = "ghost"
	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, queue.ErrCreatorNotFound)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestQueueService_CapacityOf(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.QueueRepository{}
	repo.On("Get", ctx, "q1").Return(&queue.Queue{ID: "q1", MaxCapacity: 7}, nil)
	repo.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)

	svc := queue.NewService(repo, &mocks.MemberDirectory{}, nil)
	capacity, err := svc.CapacityOf(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, 7, capacity)

	_, err = svc.CapacityOf(ctx, "missing")
	require.ErrorIs(t, err, queue.ErrQueueNotFound)
}

func TestQueueService_Search(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.QueueRepository{}
	repo.On("List", ctx, queue.ListOptions{Query: "bread"}).Return([]queue.Queue{{ID: "q2"}}, nil)

	svc := queue.NewService(repo, &mocks.MemberDirectory{}, nil)
	list, err := svc.Search(ctx, "  bread ")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Search(ctx, "")
	require.ErrorIs(t, err, queue.ErrInvalidInput)
}
