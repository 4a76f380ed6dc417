package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/repository"
)

// MemberRepository implements member.Repository for SQLite
type MemberRepository struct {
	db *DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts a member.
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (id, name, email, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Email, string(m.Role), toMillis(m.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// Get retrieves a member by ID
func (r *MemberRepository) Get(ctx context.Context, id string) (*member.Member, error) {
	var (
		m         member.Member
		role      string
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, created_at
		FROM members
		WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.Email, &role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	m.Role = member.Role(role)
	m.CreatedAt = fromMillis(createdAt)
	return &m, nil
}
