package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	QueueID      string
	MemberID     *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
