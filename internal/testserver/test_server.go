// Package testserver starts the full HTTP stack over an in-memory SQLite
// database for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
	"github.com/rpggio/waitline/internal/mcp"
	"github.com/rpggio/waitline/internal/metrics"
	"github.com/rpggio/waitline/internal/sqlite"
	"github.com/rpggio/waitline/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Members  *member.Service
	Queues   *queue.Service
	Tickets  *ticket.Service
	Activity *activity.Service
	Metrics  *metrics.Recorder
}

type options struct {
	openServe   bool
	joinLimiter *transport.JoinLimiter
}

// Option customizes a TestServer.
type Option func(*options)

// WithOpenServe lets any actor serve.
func WithOpenServe() Option {
	return func(o *options) { o.openServe = true }
}

// WithJoinLimiter enables per-member join limiting.
func WithJoinLimiter(l *transport.JoinLimiter) Option {
	return func(o *options) { o.joinLimiter = l }
}

func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(context.Background()))

	memberSvc := member.NewService(sqlite.NewMemberRepository(db), nil)
	queueSvc := queue.NewService(sqlite.NewQueueRepository(db), memberSvc, nil)
	activityRepo := sqlite.NewActivityRepository(db)
	activitySvc := activity.NewService(activityRepo, nil)
	recorder := metrics.New()
	ticketSvc := ticket.NewService(ticket.Dependencies{
		Store:      sqlite.NewTicketStore(db),
		Members:    memberSvc,
		Queues:     queueSvc,
		Activities: activityRepo,
		Observer:   recorder,
	}, ticket.Config{ServeRequiresAdmitter: !o.openServe}, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Members:  memberSvc,
			Queues:   queueSvc,
			Tickets:  ticketSvc,
			Activity: activitySvc,
		},
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	router := transport.NewServer(transport.Services{
		Members:  memberSvc,
		Queues:   queueSvc,
		Tickets:  ticketSvc,
		Activity: activitySvc,
	}, transport.Options{
		Metrics:     recorder,
		JoinLimiter: o.joinLimiter,
		MCP:         mcpHandler,
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Members:  memberSvc,
		Queues:   queueSvc,
		Tickets:  ticketSvc,
		Activity: activitySvc,
		Metrics:  recorder,
	}
}

// URL returns the absolute URL of path.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// Register adds a member directly through the service.
func (ts *TestServer) Register(t *testing.T, id string, role member.Role) {
	t.Helper()
	_, err := ts.Members.Register(context.Background(), member.RegisterRequest{ID: id, Name: id, Role: role})
	require.NoError(t, err)
}

// CreateQueue adds a queue directly through the service.
func (ts *TestServer) CreateQueue(t *testing.T, id, creatorID string, capacity int) {
	t.Helper()
	_, err := ts.Queues.Create(context.Background(), queue.CreateRequest{
		ID:          id,
		CreatorID:   creatorID,
		Name:        id,
		Description: "queue " + id,
		MaxCapacity: capacity,
	})
	require.NoError(t, err)
}
