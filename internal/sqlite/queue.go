package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/repository"
)

// QueueRepository implements queue.Repository for SQLite
type QueueRepository struct {
	db *DB
}

// NewQueueRepository creates a new QueueRepository
func NewQueueRepository(db *DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Create inserts a queue.
func (r *QueueRepository) Create(ctx context.Context, q *queue.Queue) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO queues (id, creator_id, name, description, max_capacity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, q.ID, q.CreatorID, q.Name, q.Description, q.MaxCapacity, toMillis(q.CreatedAt))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return repository.ErrDuplicate
		case isForeignKeyViolation(err):
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create queue: %w", err)
	}
	return nil
}

// Get retrieves a queue by ID
func (r *QueueRepository) Get(ctx context.Context, id string) (*queue.Queue, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, creator_id, name, description, max_capacity, created_at
		FROM queues
		WHERE id = ?
	`, id)
	q, err := scanQueue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}
	return q, nil
}

// List returns queues matching opts, newest first.
func (r *QueueRepository) List(ctx context.Context, opts queue.ListOptions) ([]queue.Queue, error) {
	query := `
		SELECT id, creator_id, name, description, max_capacity, created_at
		FROM queues
	`
	var (
		conditions []string
		args       []interface{}
	)
	if opts.CreatorID != "" {
		conditions = append(conditions, "creator_id = ?")
		args = append(args, opts.CreatorID)
	}
	if opts.Query != "" {
		pattern := "%" + escapeLike(strings.ToLower(opts.Query)) + "%"
		conditions = append(conditions, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	defer rows.Close()

	list := []queue.Queue{}
	for rows.Next() {
		q, err := scanQueue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue: %w", err)
		}
		list = append(list, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue rows: %w", err)
	}
	return list, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanQueue(s scanner) (*queue.Queue, error) {
	var (
		q         queue.Queue
		createdAt int64
	)
	if err := s.Scan(&q.ID, &q.CreatorID, &q.Name, &q.Description, &q.MaxCapacity, &createdAt); err != nil {
		return nil, err
	}
	q.CreatedAt = fromMillis(createdAt)
	return &q, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
