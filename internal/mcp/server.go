package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
)

// MemberService defines member operations needed by MCP.
type MemberService interface {
	Register(ctx context.Context, req member.RegisterRequest) (*member.Member, error)
}

// QueueService defines queue operations needed by MCP.
type QueueService interface {
	Create(ctx context.Context, req queue.CreateRequest) (*queue.Queue, error)
	List(ctx context.Context, opts queue.ListOptions) ([]queue.Queue, error)
}

// TicketService defines ticket operations needed by MCP.
type TicketService interface {
	Join(ctx context.Context, req ticket.JoinRequest) (*ticket.JoinResult, error)
	Serve(ctx context.Context, req ticket.ServeRequest) (*ticket.ServeResult, error)
	PositionOf(ctx context.Context, memberID, queueID string) (*ticket.PositionInfo, error)
	RosterOf(ctx context.Context, queueID string) ([]ticket.RosterEntry, error)
	JoinedQueues(ctx context.Context, memberID string) ([]ticket.Ticket, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Members  MemberService
	Queues   QueueService
	Tickets  TicketService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services Services
	// DefaultActor is used when a request names no member, typically the
	// operator of a stdio session.
	DefaultActor string
	Logger       *slog.Logger
	Version      string
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "waitline",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(actorMiddleware(cfg.DefaultActor))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services, cfg.Logger)

	return server
}
