package member

import "context"

// Repository provides persistence for members.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	Get(ctx context.Context, id string) (*Member, error)
}
