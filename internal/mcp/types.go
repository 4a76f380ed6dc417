package mcp

import (
	"time"

	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
)

type RegisterMemberParams struct {
	ID    string `json:"id,omitempty" jsonschema:"member ID, generated when omitted"`
	Name  string `json:"name" jsonschema:"display name"`
	Email string `json:"email,omitempty" jsonschema:"contact email"`
	Role  string `json:"role" jsonschema:"admitter or joiner"`
}

type CreateQueueParams struct {
	ID          string `json:"id,omitempty" jsonschema:"queue ID, generated when omitted"`
	CreatorID   string `json:"creator_id,omitempty" jsonschema:"admitter creating the queue, defaults to the calling member"`
	Name        string `json:"name" jsonschema:"queue name"`
	Description string `json:"description" jsonschema:"what the queue is for"`
	MaxCapacity int    `json:"max_capacity" jsonschema:"maximum number of waiting members"`
}

type ListQueuesParams struct {
	Query     string `json:"query,omitempty" jsonschema:"case-insensitive text matched against name and description"`
	CreatorID string `json:"creator_id,omitempty" jsonschema:"only queues created by this member"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of results"`
	Offset    int    `json:"offset,omitempty" jsonschema:"offset for pagination"`
}

type JoinQueueParams struct {
	QueueID  string `json:"queue_id" jsonschema:"queue to join"`
	MemberID string `json:"member_id,omitempty" jsonschema:"joining member, defaults to the calling member"`
}

type ServeMemberParams struct {
	QueueID  string `json:"queue_id" jsonschema:"queue to serve from"`
	MemberID string `json:"member_id" jsonschema:"member to serve"`
	ActorID  string `json:"actor_id,omitempty" jsonschema:"admitter performing the serve, defaults to the calling member"`
}

type GetPositionParams struct {
	QueueID  string `json:"queue_id" jsonschema:"queue to inspect"`
	MemberID string `json:"member_id,omitempty" jsonschema:"member to look up, defaults to the calling member"`
}

type GetRosterParams struct {
	QueueID string `json:"queue_id" jsonschema:"queue to list"`
}

type ListJoinedQueuesParams struct {
	MemberID string `json:"member_id,omitempty" jsonschema:"member to list, defaults to the calling member"`
}

type GetQueueActivityParams struct {
	QueueID  string `json:"queue_id" jsonschema:"queue to inspect"`
	MemberID string `json:"member_id,omitempty" jsonschema:"only entries about this member"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
}

// Results carry timestamps as RFC 3339 strings.

type MemberResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type QueueResult struct {
	ID          string `json:"id"`
	CreatorID   string `json:"creator_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxCapacity int    `json:"max_capacity"`
	CreatedAt   string `json:"created_at"`
}

type QueueListResult struct {
	Queues []QueueResult `json:"queues"`
}

type TicketResult struct {
	ID       string `json:"id"`
	QueueID  string `json:"queue_id"`
	MemberID string `json:"member_id"`
	Position int    `json:"position"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at"`
	ServedAt string `json:"served_at,omitempty"`
}

type JoinResult struct {
	Ticket   TicketResult `json:"ticket"`
	Position int          `json:"position"`
}

type ServeResult struct {
	Ticket           TicketResult `json:"ticket"`
	PreviousPosition int          `json:"previous_position"`
}

type PositionResult struct {
	TicketID     string `json:"ticket_id"`
	QueueID      string `json:"queue_id"`
	MemberID     string `json:"member_id"`
	Position     int    `json:"position"`
	TotalWaiting int    `json:"total_waiting"`
}

type RosterResult struct {
	QueueID string         `json:"queue_id"`
	Entries []TicketResult `json:"entries"`
}

type TicketListResult struct {
	Tickets []TicketResult `json:"tickets"`
}

type ActivityResult struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	MemberID string `json:"member_id"`
	TicketID string `json:"ticket_id,omitempty"`
	Position int    `json:"position,omitempty"`
	Summary  string `json:"summary"`
	At       string `json:"at"`
}

type ActivityListResult struct {
	QueueID string           `json:"queue_id"`
	Entries []ActivityResult `json:"entries"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toMemberResult(m *member.Member) MemberResult {
	return MemberResult{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      string(m.Role),
		CreatedAt: formatTime(m.CreatedAt),
	}
}

func toQueueResult(q queue.Queue) QueueResult {
	return QueueResult{
		ID:          q.ID,
		CreatorID:   q.CreatorID,
		Name:        q.Name,
		Description: q.Description,
		MaxCapacity: q.MaxCapacity,
		CreatedAt:   formatTime(q.CreatedAt),
	}
}

func toTicketResult(t ticket.Ticket) TicketResult {
	res := TicketResult{
		ID:       t.ID,
		QueueID:  t.QueueID,
		MemberID: t.MemberID,
		Position: t.Position,
		Status:   string(t.Status),
		JoinedAt: formatTime(t.JoinedAt),
	}
	if t.ServedAt != nil {
		res.ServedAt = formatTime(*t.ServedAt)
	}
	return res
}

func rosterTicket(queueID string, e ticket.RosterEntry) TicketResult {
	return toTicketResult(ticket.Ticket{
		ID:       e.TicketID,
		QueueID:  queueID,
		MemberID: e.MemberID,
		Position: e.Position,
		Status:   e.Status,
		JoinedAt: e.JoinedAt,
		ServedAt: e.ServedAt,
	})
}

func toActivityResult(e activity.ActivityEntry) ActivityResult {
	res := ActivityResult{
		ID:       e.ID,
		Type:     string(e.ActivityType),
		MemberID: e.MemberID,
		Position: e.Position,
		Summary:  e.Summary,
		At:       formatTime(e.CreatedAt),
	}
	if e.TicketID != nil {
		res.TicketID = *e.TicketID
	}
	return res
}
