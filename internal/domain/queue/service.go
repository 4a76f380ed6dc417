package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/repository"
)

// Service is the queue catalog.
type Service struct {
	repo    Repository
	members MemberDirectory
	logger  *slog.Logger
}

// NewService creates a new queue service.
func NewService(repo Repository, members MemberDirectory, logger *slog.Logger) *Service {
	return &Service{repo: repo, members: members, logger: logger}
}

// CreateRequest defines queue creation inputs.
type CreateRequest struct {
	ID          string
	CreatorID   string
	Name        string
	Description string
	MaxCapacity int
}

// Create creates a queue on behalf of an admitter.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Queue, error) {
	if strings.TrimSpace(req.CreatorID) == "" ||
		strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Description) == "" ||
		req.MaxCapacity <= 0 {
		return nil, ErrInvalidInput
	}

	role, err := s.members.RoleOf(ctx, req.CreatorID)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, fmt.Errorf("resolving creator: %w", err)
	}
	if role != member.RoleAdmitter {
		return nil, ErrForbidden
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	q := &Queue{
		ID:          id,
		CreatorID:   req.CreatorID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		MaxCapacity: req.MaxCapacity,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, q); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrQueueExists
		}
		return nil, fmt.Errorf("creating queue: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("queue created", "queue_id", q.ID, "creator_id", q.CreatorID, "max_capacity", q.MaxCapacity)
	}
	return q, nil
}

// Get fetches a queue by ID.
func (s *Service) Get(ctx context.Context, id string) (*Queue, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQueueNotFound
		}
		return nil, fmt.Errorf("getting queue: %w", err)
	}
	return q, nil
}

// CapacityOf returns the maximum number of waiting tickets a queue accepts.
func (s *Service) CapacityOf(ctx context.Context, id string) (int, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return q.MaxCapacity, nil
}

// List returns queues matching opts.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Queue, error) {
	opts.Query = strings.TrimSpace(opts.Query)
	return s.repo.List(ctx, opts)
}

// ListByCreator returns the queues created by a member.
func (s *Service) ListByCreator(ctx context.Context, creatorID string) ([]Queue, error) {
	if strings.TrimSpace(creatorID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, ListOptions{CreatorID: creatorID})
}

// Search returns queues whose name or description contains query.
func (s *Service) Search(ctx context.Context, query string) ([]Queue, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidInput
	}
	return s.List(ctx, ListOptions{Query: query})
}
