package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
)

// JoinRequest describes a join.
type JoinRequest struct {
	MemberID string
	QueueID  string
}

// JoinResult holds the admitted ticket.
type JoinResult struct {
	Ticket   *Ticket
	Position int
}

// AdmissionController validates join requests before they reach the ledger.
type AdmissionController struct {
	ledger     *Ledger
	members    MemberDirectory
	queues     QueueCatalog
	activities ActivityRepository
	observer   Observer
	logger     *slog.Logger
}

// Join admits a member to a queue. It inserts exactly one ticket or none.
func (a *AdmissionController) Join(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	start := time.Now()
	res, err := a.join(ctx, req)
	if a.observer != nil {
		a.observer.ObserveJoin(Outcome(err), time.Since(start))
	}

	switch {
	case err == nil:
		record(ctx, a.activities, a.logger, &activity.ActivityEntry{
			QueueID:      req.QueueID,
			MemberID:     req.MemberID,
			TicketID:     &res.Ticket.ID,
			ActivityType: activity.TypeTicketJoined,
			Position:     res.Position,
			Summary:      fmt.Sprintf("joined at position %d", res.Position),
		})
	case isRejection(err):
		record(ctx, a.activities, a.logger, &activity.ActivityEntry{
			QueueID:      req.QueueID,
			MemberID:     req.MemberID,
			ActivityType: activity.TypeJoinRejected,
			Summary:      err.Error(),
		})
	}
	return res, err
}

func (a *AdmissionController) join(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if strings.TrimSpace(req.MemberID) == "" || strings.TrimSpace(req.QueueID) == "" {
		return nil, ErrInvalidInput
	}

	role, err := a.members.RoleOf(ctx, req.MemberID)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return nil, ErrUnknownMember
		}
		return nil, storageError("resolving member", err)
	}
	if role != member.RoleJoiner {
		return nil, ErrForbidden
	}

	capacity, err := a.queues.CapacityOf(ctx, req.QueueID)
	if err != nil {
		if errors.Is(err, queue.ErrQueueNotFound) {
			return nil, ErrQueueNotFound
		}
		return nil, storageError("resolving queue", err)
	}

	t, err := a.ledger.AssignPosition(ctx, req.QueueID, req.MemberID, capacity)
	if err != nil {
		return nil, err
	}

	if a.logger != nil {
		a.logger.Debug("member joined", "queue_id", t.QueueID, "member_id", t.MemberID, "position", t.Position)
	}
	return &JoinResult{Ticket: t, Position: t.Position}, nil
}

func record(ctx context.Context, repo ActivityRepository, logger *slog.Logger, entry *activity.ActivityEntry) {
	if repo == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := repo.Log(ctx, entry); err != nil && logger != nil {
		logger.Warn("failed to record activity", "type", entry.ActivityType, "queue_id", entry.QueueID, "error", err)
	}
}
