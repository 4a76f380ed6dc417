package queue

import "time"

// Queue is a bounded waiting line owned by an admitter.
type Queue struct {
	ID          string    `json:"id"`
	CreatorID   string    `json:"creator_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MaxCapacity int       `json:"max_capacity"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListOptions filters queue listings.
type ListOptions struct {
	CreatorID string
	// Query matches case-insensitively against name and description.
	Query  string
	Limit  int
	Offset int
}
