package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
	"github.com/rpggio/waitline/internal/mcp"
	"github.com/rpggio/waitline/internal/memstore"
	"github.com/rpggio/waitline/internal/testserver"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, defaultActor string) *sdkmcp.ClientSession {
	t.Helper()

	store := memstore.New()
	members := member.NewService(store.Members(), nil)
	queues := queue.NewService(store.Queues(), members, nil)
	tickets := ticket.NewService(ticket.Dependencies{
		Store:      store.Tickets(),
		Members:    members,
		Queues:     queues,
		Activities: store.Activities(),
	}, ticket.Config{ServeRequiresAdmitter: true}, nil)

	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Members:  members,
			Queues:   queues,
			Tickets:  tickets,
			Activity: activity.NewService(store.Activities(), nil),
		},
		DefaultActor: defaultActor,
	})

	ctx := context.Background()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = clientSession.Close()
		_ = serverSession.Wait()
	})
	return clientSession
}

// call invokes a tool and decodes its structured output into out. It returns
// the error text when the tool reports an error.
func call(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)

	if res.IsError {
		require.NotEmpty(t, res.Content)
		text, ok := res.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok)
		return text.Text
	}
	if out != nil {
		data, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return ""
}

func TestServer_ListsTools(t *testing.T) {
	session := connect(t, "")

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"register_member", "create_queue", "list_queues", "join_queue", "serve_member",
		"get_position", "get_roster", "list_joined_queues", "get_queue_activity",
	}, names)
}

func TestServer_QueueLifecycle(t *testing.T) {
	session := connect(t, "")

	var admin mcp.MemberResult
	require.Empty(t, call(t, session, "register_member", map[string]any{"id": "admin", "name": "Desk", "role": "admitter"}, &admin))
	require.Equal(t, "admitter", admin.Role)
	for _, id := range []string{"a", "b", "c"} {
		require.Empty(t, call(t, session, "register_member", map[string]any{"id": id, "name": id, "role": "joiner"}, nil))
	}

	var q mcp.QueueResult
	require.Empty(t, call(t, session, "create_queue", map[string]any{
		"id": "q1", "creator_id": "admin", "name": "Clinic", "description": "walk-in clinic", "max_capacity": 2,
	}, &q))
	require.Equal(t, 2, q.MaxCapacity)

	var list mcp.QueueListResult
	require.Empty(t, call(t, session, "list_queues", map[string]any{"query": "clinic"}, &list))
	require.Len(t, list.Queues, 1)

	var joined mcp.JoinResult
	require.Empty(t, call(t, session, "join_queue", map[string]any{"queue_id": "q1", "member_id": "a"}, &joined))
	require.Equal(t, 1, joined.Position)
	require.Empty(t, call(t, session, "join_queue", map[string]any{"queue_id": "q1", "member_id": "b"}, &joined))
	require.Equal(t, 2, joined.Position)

	msg := call(t, session, "join_queue", map[string]any{"queue_id": "q1", "member_id": "c"}, nil)
	require.Contains(t, msg, "CAPACITY_EXCEEDED")
	msg = call(t, session, "join_queue", map[string]any{"queue_id": "q1", "member_id": "a"}, nil)
	require.Contains(t, msg, "ALREADY_QUEUED")

	msg = call(t, session, "serve_member", map[string]any{"queue_id": "q1", "member_id": "a", "actor_id": "b"}, nil)
	require.Contains(t, msg, "FORBIDDEN")

	var served mcp.ServeResult
	require.Empty(t, call(t, session, "serve_member", map[string]any{"queue_id": "q1", "member_id": "a", "actor_id": "admin"}, &served))
	require.Equal(t, 1, served.PreviousPosition)
	require.Equal(t, "served", served.Ticket.Status)
	require.NotEmpty(t, served.Ticket.ServedAt)

	var pos mcp.PositionResult
	require.Empty(t, call(t, session, "get_position", map[string]any{"queue_id": "q1", "member_id": "b"}, &pos))
	require.Equal(t, 1, pos.Position)
	require.Equal(t, 1, pos.TotalWaiting)

	var roster mcp.RosterResult
	require.Empty(t, call(t, session, "get_roster", map[string]any{"queue_id": "q1"}, &roster))
	var lines []string
	for _, e := range roster.Entries {
		lines = append(lines, fmt.Sprintf("%s:%d:%s", e.MemberID, e.Position, e.Status))
	}
	require.Equal(t, []string{"b:1:waiting", "a:1:served"}, lines)

	var tickets mcp.TicketListResult
	require.Empty(t, call(t, session, "list_joined_queues", map[string]any{"member_id": "a"}, &tickets))
	require.Len(t, tickets.Tickets, 1)

	var acts mcp.ActivityListResult
	require.Empty(t, call(t, session, "get_queue_activity", map[string]any{"queue_id": "q1"}, &acts))
	// two joins, two join rejections, one serve rejection, one serve
	require.Len(t, acts.Entries, 6)
	require.Equal(t, string(activity.TypeTicketServed), acts.Entries[0].Type)

	msg = call(t, session, "get_position", map[string]any{"queue_id": "q1", "member_id": "a"}, nil)
	require.Contains(t, msg, "NOT_IN_QUEUE")
}

func TestServer_DefaultActor(t *testing.T) {
	session := connect(t, "desk")

	require.Empty(t, call(t, session, "register_member", map[string]any{"id": "desk", "name": "Desk", "role": "admitter"}, nil))

	// creator falls back to the session's default actor
	var q mcp.QueueResult
	require.Empty(t, call(t, session, "create_queue", map[string]any{
		"id": "q1", "name": "Desk", "description": "front desk", "max_capacity": 1,
	}, &q))
	require.Equal(t, "desk", q.CreatorID)

	msg := call(t, session, "join_queue", map[string]any{"queue_id": "q1"}, nil)
	require.Contains(t, msg, "FORBIDDEN")
}

func TestServer_UnknownQueue(t *testing.T) {
	session := connect(t, "")
	require.Empty(t, call(t, session, "register_member", map[string]any{"id": "j", "name": "j", "role": "joiner"}, nil))

	msg := call(t, session, "join_queue", map[string]any{"queue_id": "nope", "member_id": "j"}, nil)
	require.Contains(t, msg, "QUEUE_NOT_FOUND")
	msg = call(t, session, "get_roster", map[string]any{"queue_id": "nope"}, nil)
	require.Contains(t, msg, "QUEUE_NOT_FOUND")
	msg = call(t, session, "join_queue", map[string]any{"queue_id": "nope", "member_id": "ghost"}, nil)
	require.Contains(t, msg, "UNKNOWN_MEMBER")
}

func TestServer_DocResource(t *testing.T) {
	session := connect(t, "")

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "waitline://docs/queue-rules"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "CAPACITY_EXCEEDED")
}

type actorTransport struct {
	actor string
	base  http.RoundTripper
}

func (a actorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(mcp.ActorHeader, a.actor)
	return a.base.RoundTrip(req)
}

func TestServer_StreamableHTTPUsesActorHeader(t *testing.T) {
	ts := testserver.New(t)
	ts.Register(t, "admin", member.RoleAdmitter)
	ts.Register(t, "j", member.RoleJoiner)
	ts.CreateQueue(t, "q1", "admin", 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.URL("/mcp"),
		HTTPClient: &http.Client{Transport: actorTransport{actor: "j", base: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	defer session.Close()

	var joined mcp.JoinResult
	require.Empty(t, call(t, session, "join_queue", map[string]any{"queue_id": "q1"}, &joined))
	require.Equal(t, 1, joined.Position)
	require.Equal(t, "j", joined.Ticket.MemberID)
}

func TestMapError(t *testing.T) {
	cases := map[error]string{
		ticket.ErrAlreadyQueued:    "ALREADY_QUEUED",
		ticket.ErrCapacityExceeded: "CAPACITY_EXCEEDED",
		ticket.ErrNotInQueue:       "NOT_IN_QUEUE",
		ticket.ErrForbidden:        "FORBIDDEN",
		queue.ErrForbidden:         "FORBIDDEN",
		member.ErrMemberNotFound:   "UNKNOWN_MEMBER",
		queue.ErrQueueNotFound:     "QUEUE_NOT_FOUND",
		member.ErrMemberExists:     "ALREADY_EXISTS",
		context.Canceled:           "CANCELED",
	}
	for err, code := range cases {
		apiErr := mcp.MapError(fmt.Errorf("wrapped: %w", err))
		require.NotNil(t, apiErr, err.Error())
		require.Equal(t, code, apiErr.Code)
	}

	storage := fmt.Errorf("op: %w: %w", ticket.ErrStorageUnavailable, errors.New("io"))
	require.Equal(t, "STORAGE_UNAVAILABLE", mcp.MapError(storage).Code)
	require.Nil(t, mcp.MapError(errors.New("unknown")))
	require.Nil(t, mcp.MapError(nil))
}
