package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/waitline/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (
			queue_id, member_id, ticket_id, activity_type, position, summary, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.QueueID,
		entry.MemberID,
		entry.TicketID,
		string(entry.ActivityType),
		entry.Position,
		entry.Summary,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}
	entry.CreatedAt = createdAt

	return nil
}

// List returns activity entries matching the given filters, newest first.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	query := `
		SELECT id, queue_id, member_id, ticket_id, activity_type, position, summary, created_at
		FROM activity_log
	`

	var (
		args       []interface{}
		conditions []string
	)
	if opts.QueueID != "" {
		conditions = append(conditions, "queue_id = ?")
		args = append(args, opts.QueueID)
	}
	if opts.MemberID != nil {
		conditions = append(conditions, "member_id = ?")
		args = append(args, *opts.MemberID)
	}
	if opts.ActivityType != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, string(*opts.ActivityType))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

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
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	entries := []activity.ActivityEntry{}
	for rows.Next() {
		var (
			entry     activity.ActivityEntry
			ticketID  sql.NullString
			typ       string
			createdAt int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.QueueID,
			&entry.MemberID,
			&ticketID,
			&typ,
			&entry.Position,
			&entry.Summary,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if ticketID.Valid {
			entry.TicketID = &ticketID.String
		}
		entry.ActivityType = activity.ActivityType(typ)
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return entries, nil
}
