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
)

// ServeRequest describes a serve. ActorID is the member triggering it.
type ServeRequest struct {
	ActorID  string
	MemberID string
	QueueID  string
}

// ServeResult reports the served ticket and the position it held.
type ServeResult struct {
	Ticket           *Ticket
	PreviousPosition int
}

// ServiceController dequeues specific members.
type ServiceController struct {
	ledger          *Ledger
	members         MemberDirectory
	activities      ActivityRepository
	observer        Observer
	requireAdmitter bool
	logger          *slog.Logger
}

// Serve marks a member served and compacts the queue.
func (c *ServiceController) Serve(ctx context.Context, req ServeRequest) (*ServeResult, error) {
	start := time.Now()
	res, err := c.serve(ctx, req)
	if c.observer != nil {
		c.observer.ObserveServe(Outcome(err), time.Since(start))
	}

	switch {
	case err == nil:
		record(ctx, c.activities, c.logger, &activity.ActivityEntry{
			QueueID:      req.QueueID,
			MemberID:     req.MemberID,
			TicketID:     &res.Ticket.ID,
			ActivityType: activity.TypeTicketServed,
			Position:     res.PreviousPosition,
			Summary:      fmt.Sprintf("served from position %d", res.PreviousPosition),
		})
	case isRejection(err):
		record(ctx, c.activities, c.logger, &activity.ActivityEntry{
			QueueID:      req.QueueID,
			MemberID:     req.MemberID,
			ActivityType: activity.TypeServeRejected,
			Summary:      err.Error(),
		})
	}
	return res, err
}

func (c *ServiceController) serve(ctx context.Context, req ServeRequest) (*ServeResult, error) {
	if strings.TrimSpace(req.MemberID) == "" || strings.TrimSpace(req.QueueID) == "" {
		return nil, ErrInvalidInput
	}
	if err := c.authorize(ctx, req.ActorID); err != nil {
		return nil, err
	}

	t, err := c.ledger.ServeAndCompact(ctx, req.QueueID, req.MemberID)
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug("member served", "queue_id", t.QueueID, "member_id", t.MemberID, "position", t.Position)
	}
	return &ServeResult{Ticket: t, PreviousPosition: t.Position}, nil
}

func (c *ServiceController) authorize(ctx context.Context, actorID string) error {
	if !c.requireAdmitter {
		return nil
	}
	if strings.TrimSpace(actorID) == "" {
		return ErrForbidden
	}
	role, err := c.members.RoleOf(ctx, actorID)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return ErrUnknownMember
		}
		return storageError("resolving actor", err)
	}
	if role != member.RoleAdmitter {
		return ErrForbidden
	}
	return nil
}
