package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/waitline/internal/domain/ticket"
	"github.com/rpggio/waitline/internal/repository"
)

// TicketStore implements ticket.Store for SQLite. Mutations run in
// BEGIN IMMEDIATE transactions, so the read of the waiting set and the write
// that depends on it are serialized against every other writer of the file.
type TicketStore struct {
	db *DB
}

// NewTicketStore creates a new TicketStore
func NewTicketStore(db *DB) *TicketStore {
	return &TicketStore{db: db}
}

// AssignPosition inserts t at the end of its queue's waiting set.
func (s *TicketStore) AssignPosition(ctx context.Context, t *ticket.Ticket, capacity int) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM tickets
			WHERE queue_id = ? AND member_id = ? AND status = 'waiting'
		`, t.QueueID, t.MemberID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if exists > 0 {
			return repository.ErrDuplicate
		}

		var waiting int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM tickets
			WHERE queue_id = ? AND status = 'waiting'
		`, t.QueueID).Scan(&waiting)
		if err != nil {
			return fmt.Errorf("failed to count waiting tickets: %w", err)
		}
		if waiting >= capacity {
			return repository.ErrCapacityReached
		}

		position := waiting + 1
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tickets (id, queue_id, member_id, position, status, joined_at)
			VALUES (?, ?, ?, ?, 'waiting', ?)
		`, t.ID, t.QueueID, t.MemberID, position, toMillis(t.JoinedAt))
		if err != nil {
			switch {
			case isUniqueViolation(err):
				return repository.ErrDuplicate
			case isForeignKeyViolation(err):
				return repository.ErrForeignKeyViolation
			}
			return fmt.Errorf("failed to insert ticket: %w", err)
		}

		t.Position = position
		t.Status = ticket.StatusWaiting
		return nil
	})
}

// ServeAndCompact marks the member's waiting ticket served and closes the gap
// with one range update.
func (s *TicketStore) ServeAndCompact(ctx context.Context, queueID, memberID string, servedAt time.Time) (*ticket.Ticket, error) {
	var served *ticket.Ticket
	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, queue_id, member_id, position, status, joined_at, served_at
			FROM tickets
			WHERE queue_id = ? AND member_id = ? AND status = 'waiting'
		`, queueID, memberID)
		t, err := scanTicket(row)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get waiting ticket: %w", err)
		}

		var seq int64
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(served_seq), 0) + 1 FROM tickets WHERE queue_id = ?
		`, queueID).Scan(&seq); err != nil {
			return fmt.Errorf("failed to sequence served ticket: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE tickets SET status = 'served', served_at = ?, served_seq = ?
			WHERE id = ?
		`, toMillis(servedAt), seq, t.ID); err != nil {
			return fmt.Errorf("failed to mark ticket served: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE tickets SET position = position - 1
			WHERE queue_id = ? AND status = 'waiting' AND position > ?
		`, queueID, t.Position); err != nil {
			return fmt.Errorf("failed to compact queue: %w", err)
		}

		at := fromMillis(toMillis(servedAt))
		t.Status = ticket.StatusServed
		t.ServedAt = &at
		served = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return served, nil
}

// GetWaiting returns the member's waiting ticket in a queue.
func (s *TicketStore) GetWaiting(ctx context.Context, queueID, memberID string) (*ticket.Ticket, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, queue_id, member_id, position, status, joined_at, served_at
		FROM tickets
		WHERE queue_id = ? AND member_id = ? AND status = 'waiting'
	`, queueID, memberID)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waiting ticket: %w", err)
	}
	return t, nil
}

// Position reads the member's position and the waiting count in one statement.
func (s *TicketStore) Position(ctx context.Context, queueID, memberID string) (ticket.PositionInfo, error) {
	info := ticket.PositionInfo{QueueID: queueID, MemberID: memberID}
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.position,
			(SELECT COUNT(*) FROM tickets w WHERE w.queue_id = t.queue_id AND w.status = 'waiting')
		FROM tickets t
		WHERE t.queue_id = ? AND t.member_id = ? AND t.status = 'waiting'
	`, queueID, memberID).Scan(&info.TicketID, &info.Position, &info.TotalWaiting)
	if errors.Is(err, sql.ErrNoRows) {
		return ticket.PositionInfo{}, repository.ErrNotFound
	}
	if err != nil {
		return ticket.PositionInfo{}, fmt.Errorf("failed to read position: %w", err)
	}
	return info, nil
}

// Roster lists waiting tickets by position, then served tickets in serve order.
func (s *TicketStore) Roster(ctx context.Context, queueID string) ([]ticket.RosterEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, queue_id, member_id, position, status, joined_at, served_at
		FROM tickets
		WHERE queue_id = ?
		ORDER BY
			CASE status WHEN 'waiting' THEN 0 ELSE 1 END,
			CASE status WHEN 'waiting' THEN position ELSE served_seq END
	`, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	defer rows.Close()

	entries := []ticket.RosterEntry{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		entries = append(entries, ticket.RosterEntry{
			TicketID: t.ID,
			MemberID: t.MemberID,
			Position: t.Position,
			Status:   t.Status,
			JoinedAt: t.JoinedAt,
			ServedAt: t.ServedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster rows: %w", err)
	}
	return entries, nil
}

// ListByMember lists every ticket the member holds or held, newest first.
func (s *TicketStore) ListByMember(ctx context.Context, memberID string) ([]ticket.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, queue_id, member_id, position, status, joined_at, served_at
		FROM tickets
		WHERE member_id = ?
		ORDER BY joined_at DESC, rowid DESC
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member tickets: %w", err)
	}
	defer rows.Close()

	tickets := []ticket.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket rows: %w", err)
	}
	return tickets, nil
}

func scanTicket(s scanner) (*ticket.Ticket, error) {
	var (
		t        ticket.Ticket
		status   string
		joinedAt int64
		servedAt sql.NullInt64
	)
	if err := s.Scan(&t.ID, &t.QueueID, &t.MemberID, &t.Position, &status, &joinedAt, &servedAt); err != nil {
		return nil, err
	}
	t.Status = ticket.Status(status)
	t.JoinedAt = fromMillis(joinedAt)
	if servedAt.Valid {
		at := fromMillis(servedAt.Int64)
		t.ServedAt = &at
	}
	return &t, nil
}
