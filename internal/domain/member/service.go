package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/waitline/internal/repository"
)

// Service handles member registration and lookup.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new member service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RegisterRequest defines member registration inputs.
type RegisterRequest struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Register creates a new member.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Member, error) {
	if strings.TrimSpace(req.Name) == "" || !req.Role.Valid() {
		return nil, ErrInvalidInput
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	m := &Member{
		ID:        id,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Role:      req.Role,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrMemberExists
		}
		return nil, fmt.Errorf("creating member: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("member registered", "member_id", m.ID, "role", m.Role)
	}
	return m, nil
}

// Get fetches a member by ID.
func (s *Service) Get(ctx context.Context, id string) (*Member, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("getting member: %w", err)
	}
	return m, nil
}

// RoleOf resolves the role of a member.
func (s *Service) RoleOf(ctx context.Context, id string) (Role, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return m.Role, nil
}
