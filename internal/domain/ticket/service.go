package ticket

import (
	"context"
	"log/slog"
	"time"
)

// Config tunes ticket behaviour.
type Config struct {
	// ServeRequiresAdmitter restricts Serve to actors with the admitter role.
	ServeRequiresAdmitter bool
	// Now overrides the clock used for ticket timestamps.
	Now func() time.Time
}

// Dependencies groups the collaborators of a Service. Activities and
// Observer are optional.
type Dependencies struct {
	Store      Store
	Members    MemberDirectory
	Queues     QueueCatalog
	Activities ActivityRepository
	Observer   Observer
}

// Service is the entry point for ticket operations.
type Service struct {
	admission *AdmissionController
	serving   *ServiceController
	query     *Query
}

// NewService wires the ledger and controllers over deps.
func NewService(deps Dependencies, cfg Config, logger *slog.Logger) *Service {
	ledger := NewLedger(deps.Store, cfg.Now)
	return &Service{
		admission: &AdmissionController{
			ledger:     ledger,
			members:    deps.Members,
			queues:     deps.Queues,
			activities: deps.Activities,
			observer:   deps.Observer,
			logger:     logger,
		},
		serving: &ServiceController{
			ledger:          ledger,
			members:         deps.Members,
			activities:      deps.Activities,
			observer:        deps.Observer,
			requireAdmitter: cfg.ServeRequiresAdmitter,
			logger:          logger,
		},
		query: &Query{store: deps.Store, queues: deps.Queues},
	}
}

// Join admits a member to a queue.
func (s *Service) Join(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	return s.admission.Join(ctx, req)
}

// Serve dequeues a member.
func (s *Service) Serve(ctx context.Context, req ServeRequest) (*ServeResult, error) {
	return s.serving.Serve(ctx, req)
}

// PositionOf returns a member's place in a queue.
func (s *Service) PositionOf(ctx context.Context, memberID, queueID string) (*PositionInfo, error) {
	return s.query.PositionOf(ctx, memberID, queueID)
}

// RosterOf returns the full roster of a queue.
func (s *Service) RosterOf(ctx context.Context, queueID string) ([]RosterEntry, error) {
	return s.query.RosterOf(ctx, queueID)
}

// JoinedQueues returns all tickets of a member.
func (s *Service) JoinedQueues(ctx context.Context, memberID string) ([]Ticket, error) {
	return s.query.JoinedQueues(ctx, memberID)
}
