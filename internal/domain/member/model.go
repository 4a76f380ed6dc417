package member

import "time"

// Role decides what a member may do with queues.
type Role string

const (
	// RoleAdmitter may create queues and serve their members.
	RoleAdmitter Role = "admitter"
	// RoleJoiner may join queues.
	RoleJoiner Role = "joiner"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmitter || r == RoleJoiner
}

// Member is a registered participant.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
