package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeTicketJoined  ActivityType = "ticket_joined"
	TypeTicketServed  ActivityType = "ticket_served"
	TypeJoinRejected  ActivityType = "join_rejected"
	TypeServeRejected ActivityType = "serve_rejected"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	QueueID      string       `json:"queue_id"`
	MemberID     string       `json:"member_id"`
	TicketID     *string      `json:"ticket_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Position     int          `json:"position,omitempty"`
	Summary      string       `json:"summary"`
	CreatedAt    time.Time    `json:"created_at"`
}
