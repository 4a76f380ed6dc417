package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
)

// MemberService defines member operations needed by the API.
type MemberService interface {
	Register(ctx context.Context, req member.RegisterRequest) (*member.Member, error)
	Get(ctx context.Context, id string) (*member.Member, error)
	RoleOf(ctx context.Context, id string) (member.Role, error)
}

// QueueService defines queue operations needed by the API.
type QueueService interface {
	Create(ctx context.Context, req queue.CreateRequest) (*queue.Queue, error)
	Get(ctx context.Context, id string) (*queue.Queue, error)
	List(ctx context.Context, opts queue.ListOptions) ([]queue.Queue, error)
	ListByCreator(ctx context.Context, creatorID string) ([]queue.Queue, error)
}

// TicketService defines ticket operations needed by the API.
type TicketService interface {
	Join(ctx context.Context, req ticket.JoinRequest) (*ticket.JoinResult, error)
	Serve(ctx context.Context, req ticket.ServeRequest) (*ticket.ServeResult, error)
	PositionOf(ctx context.Context, memberID, queueID string) (*ticket.PositionInfo, error)
	RosterOf(ctx context.Context, queueID string) ([]ticket.RosterEntry, error)
	JoinedQueues(ctx context.Context, memberID string) ([]ticket.Ticket, error)
}

// ActivityService defines activity operations needed by the API.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by the API.
type Services struct {
	Members  MemberService
	Queues   QueueService
	Tickets  TicketService
	Activity ActivityService
}

// Instrumentation exposes HTTP metrics.
type Instrumentation interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// Options holds optional collaborators of the router.
type Options struct {
	Logger *slog.Logger
	// Metrics, when set, instruments every route and serves /metrics.
	Metrics Instrumentation
	// JoinLimiter, when set, rate limits joins per member.
	JoinLimiter *JoinLimiter
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

// Server wires HTTP handlers.
type Server struct {
	services Services
	limiter  *JoinLimiter
}

// NewServer creates the HTTP router with middleware.
func NewServer(services Services, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	srv := &Server{services: services, limiter: opts.JoinLimiter}

	r.Get("/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ActorMiddleware)

		r.Post("/members", srv.handleRegisterMember)
		r.Get("/members/{memberID}", srv.handleGetMember)
		r.Get("/members/{memberID}/role", srv.handleGetRole)
		r.Get("/members/{memberID}/tickets", srv.handleJoinedQueues)
		r.Get("/members/{memberID}/queues", srv.handleCreatedQueues)

		r.Post("/queues", srv.handleCreateQueue)
		r.Get("/queues", srv.handleListQueues)
		r.Get("/queues/{queueID}", srv.handleGetQueue)
		r.Post("/queues/{queueID}/join", srv.handleJoin)
		r.Post("/queues/{queueID}/serve", srv.handleServe)
		r.Get("/queues/{queueID}/position/{memberID}", srv.handlePosition)
		r.Get("/queues/{queueID}/roster", srv.handleRoster)
		r.Get("/queues/{queueID}/activity", srv.handleActivity)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
