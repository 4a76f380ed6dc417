package ticket

import "time"

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusServed  Status = "served"
)

// Ticket is a member's place in a queue. A served ticket keeps the position
// it held at the moment it was served.
type Ticket struct {
	ID       string     `json:"id"`
	QueueID  string     `json:"queue_id"`
	MemberID string     `json:"member_id"`
	Position int        `json:"position"`
	Status   Status     `json:"status"`
	JoinedAt time.Time  `json:"joined_at"`
	ServedAt *time.Time `json:"served_at,omitempty"`
}

// PositionInfo is a consistent snapshot of one member's place in a queue.
type PositionInfo struct {
	TicketID     string `json:"ticket_id"`
	QueueID      string `json:"queue_id"`
	MemberID     string `json:"member_id"`
	Position     int    `json:"position"`
	TotalWaiting int    `json:"total_waiting"`
}

// RosterEntry is one line of a queue roster.
type RosterEntry struct {
	TicketID string     `json:"ticket_id"`
	MemberID string     `json:"member_id"`
	Position int        `json:"position"`
	Status   Status     `json:"status"`
	JoinedAt time.Time  `json:"joined_at"`
	ServedAt *time.Time `json:"served_at,omitempty"`
}
