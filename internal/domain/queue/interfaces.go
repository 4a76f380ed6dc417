package queue

import (
	"context"

	"github.com/rpggio/waitline/internal/domain/member"
)

// Repository provides persistence for queues.
type Repository interface {
	Create(ctx context.Context, q *Queue) error
	Get(ctx context.Context, id string) (*Queue, error)
	List(ctx context.Context, opts ListOptions) ([]Queue, error)
}

// MemberDirectory resolves member roles.
type MemberDirectory interface {
	RoleOf(ctx context.Context, memberID string) (member.Role, error)
}
