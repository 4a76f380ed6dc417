package mcp

import (
	"context"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
)

const defaultActivityLimit = 50

type tools struct {
	services Services
	logger   *slog.Logger
}

func registerTools(server *sdkmcp.Server, services Services, logger *slog.Logger) {
	t := &tools{services: services, logger: logger}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "register_member",
		Description: "Register a member as an admitter (creates and serves queues) or a joiner (joins queues)",
	}, t.registerMember)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_queue",
		Description: "Create a bounded queue owned by an admitter",
	}, t.createQueue)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_queues",
		Description: "List queues, newest first, optionally filtered by text or creator",
	}, t.listQueues)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "join_queue",
		Description: "Join a queue and receive the next position, if the queue has room",
	}, t.joinQueue)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "serve_member",
		Description: "Serve a waiting member; everyone behind them moves up one position",
	}, t.serveMember)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_position",
		Description: "Get a member's current position and the number of waiting members",
	}, t.getPosition)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_roster",
		Description: "List waiting members by position, then served members in serve order",
	}, t.getRoster)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_joined_queues",
		Description: "List every ticket a member holds or held, newest first",
	}, t.listJoinedQueues)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_queue_activity",
		Description: "List recent joins, serves and rejections for a queue, newest first",
	}, t.getQueueActivity)
}

func (t *tools) fail(ctx context.Context, tool string, err error) error {
	if MapError(err) == nil && t.logger != nil {
		t.logger.ErrorContext(ctx, "tool failed", "tool", tool, "error", err)
	}
	return toolError(err)
}

func (t *tools) registerMember(ctx context.Context, _ *sdkmcp.CallToolRequest, in RegisterMemberParams) (*sdkmcp.CallToolResult, MemberResult, error) {
	m, err := t.services.Members.Register(ctx, member.RegisterRequest{
		ID:    in.ID,
		Name:  in.Name,
		Email: in.Email,
		Role:  member.Role(strings.ToLower(strings.TrimSpace(in.Role))),
	})
	if err != nil {
		return nil, MemberResult{}, t.fail(ctx, "register_member", err)
	}
	return nil, toMemberResult(m), nil
}

func (t *tools) createQueue(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateQueueParams) (*sdkmcp.CallToolResult, QueueResult, error) {
	q, err := t.services.Queues.Create(ctx, queue.CreateRequest{
		ID:          in.ID,
		CreatorID:   actorOr(ctx, in.CreatorID),
		Name:        in.Name,
		Description: in.Description,
		MaxCapacity: in.MaxCapacity,
	})
	if err != nil {
		return nil, QueueResult{}, t.fail(ctx, "create_queue", err)
	}
	return nil, toQueueResult(*q), nil
}

func (t *tools) listQueues(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListQueuesParams) (*sdkmcp.CallToolResult, QueueListResult, error) {
	queues, err := t.services.Queues.List(ctx, queue.ListOptions{
		CreatorID: in.CreatorID,
		Query:     in.Query,
		Limit:     in.Limit,
		Offset:    in.Offset,
	})
	if err != nil {
		return nil, QueueListResult{}, t.fail(ctx, "list_queues", err)
	}
	out := QueueListResult{Queues: make([]QueueResult, 0, len(queues))}
	for _, q := range queues {
		out.Queues = append(out.Queues, toQueueResult(q))
	}
	return nil, out, nil
}

func (t *tools) joinQueue(ctx context.Context, _ *sdkmcp.CallToolRequest, in JoinQueueParams) (*sdkmcp.CallToolResult, JoinResult, error) {
	res, err := t.services.Tickets.Join(ctx, ticket.JoinRequest{
		MemberID: actorOr(ctx, in.MemberID),
		QueueID:  in.QueueID,
	})
	if err != nil {
		return nil, JoinResult{}, t.fail(ctx, "join_queue", err)
	}
	return nil, JoinResult{Ticket: toTicketResult(*res.Ticket), Position: res.Position}, nil
}

func (t *tools) serveMember(ctx context.Context, _ *sdkmcp.CallToolRequest, in ServeMemberParams) (*sdkmcp.CallToolResult, ServeResult, error) {
	res, err := t.services.Tickets.Serve(ctx, ticket.ServeRequest{
		ActorID:  actorOr(ctx, in.ActorID),
		MemberID: in.MemberID,
		QueueID:  in.QueueID,
	})
	if err != nil {
		return nil, ServeResult{}, t.fail(ctx, "serve_member", err)
	}
	return nil, ServeResult{Ticket: toTicketResult(*res.Ticket), PreviousPosition: res.PreviousPosition}, nil
}

func (t *tools) getPosition(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetPositionParams) (*sdkmcp.CallToolResult, PositionResult, error) {
	info, err := t.services.Tickets.PositionOf(ctx, actorOr(ctx, in.MemberID), in.QueueID)
	if err != nil {
		return nil, PositionResult{}, t.fail(ctx, "get_position", err)
	}
	return nil, PositionResult{
		TicketID:     info.TicketID,
		QueueID:      info.QueueID,
		MemberID:     info.MemberID,
		Position:     info.Position,
		TotalWaiting: info.TotalWaiting,
	}, nil
}

func (t *tools) getRoster(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRosterParams) (*sdkmcp.CallToolResult, RosterResult, error) {
	entries, err := t.services.Tickets.RosterOf(ctx, in.QueueID)
	if err != nil {
		return nil, RosterResult{}, t.fail(ctx, "get_roster", err)
	}
	out := RosterResult{QueueID: in.QueueID, Entries: make([]TicketResult, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, rosterTicket(in.QueueID, e))
	}
	return nil, out, nil
}

func (t *tools) listJoinedQueues(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListJoinedQueuesParams) (*sdkmcp.CallToolResult, TicketListResult, error) {
	tickets, err := t.services.Tickets.JoinedQueues(ctx, actorOr(ctx, in.MemberID))
	if err != nil {
		return nil, TicketListResult{}, t.fail(ctx, "list_joined_queues", err)
	}
	out := TicketListResult{Tickets: make([]TicketResult, 0, len(tickets))}
	for _, tk := range tickets {
		out.Tickets = append(out.Tickets, toTicketResult(tk))
	}
	return nil, out, nil
}

func (t *tools) getQueueActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetQueueActivityParams) (*sdkmcp.CallToolResult, ActivityListResult, error) {
	if strings.TrimSpace(in.QueueID) == "" {
		return nil, ActivityListResult{}, toolError(ticket.ErrInvalidInput)
	}
	opts := activity.ListActivityOptions{QueueID: in.QueueID, Limit: in.Limit}
	if opts.Limit <= 0 {
		opts.Limit = defaultActivityLimit
	}
	if in.MemberID != "" {
		memberID := in.MemberID
		opts.MemberID = &memberID
	}

	entries, err := t.services.Activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return nil, ActivityListResult{}, t.fail(ctx, "get_queue_activity", err)
	}
	out := ActivityListResult{QueueID: in.QueueID, Entries: make([]ActivityResult, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, toActivityResult(e))
	}
	return nil, out, nil
}
