// Package redisstore keeps the ticket ledger in Redis. Each mutation is a
// single Lua script, so Redis runs it without interleaving other commands.
//
// Waiting tickets live in a sorted set scored by a per-queue join sequence;
// a waiting ticket's position is its rank plus one, so serving a member
// compacts the queue by removing one element. Served tickets store the
// position they held as a frozen field.
//
// Scripts address ticket hashes derived from the queue key, which requires a
// single Redis node rather than a cluster.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpggio/waitline/internal/domain/ticket"
	"github.com/rpggio/waitline/internal/repository"
)

const defaultPrefix = "waitline:"

var assignScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[3], ARGV[1]) == 1 then
	return -1
end
local n = redis.call('ZCARD', KEYS[1])
if n >= tonumber(ARGV[3]) then
	return -2
end
local seq = redis.call('INCR', KEYS[2])
redis.call('ZADD', KEYS[1], seq, ARGV[1])
redis.call('HSET', KEYS[3], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[4], 'id', ARGV[2], 'queue_id', ARGV[5], 'member_id', ARGV[1], 'status', 'waiting', 'joined_at', ARGV[4])
redis.call('LPUSH', KEYS[5], KEYS[4])
return n + 1
`)

var serveScript = redis.NewScript(`
local id = redis.call('HGET', KEYS[2], ARGV[1])
if not id then
	return false
end
local rank = redis.call('ZRANK', KEYS[1], ARGV[1])
if not rank then
	return false
end
local key = ARGV[3] .. id
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
redis.call('HSET', key, 'status', 'served', 'position', rank + 1, 'served_at', ARGV[2])
redis.call('RPUSH', KEYS[3], id)
return {id, tostring(rank + 1), redis.call('HGET', key, 'joined_at') or ''}
`)

var lookupScript = redis.NewScript(`
local id = redis.call('HGET', KEYS[2], ARGV[1])
if not id then
	return false
end
local rank = redis.call('ZRANK', KEYS[1], ARGV[1])
if not rank then
	return false
end
local joined = redis.call('HGET', ARGV[2] .. id, 'joined_at') or ''
return {id, tostring(rank + 1), tostring(redis.call('ZCARD', KEYS[1])), joined}
`)

var rosterScript = redis.NewScript(`
local out = {}
local members = redis.call('ZRANGE', KEYS[1], 0, -1)
for i, m in ipairs(members) do
	local id = redis.call('HGET', KEYS[2], m) or ''
	local joined = redis.call('HGET', ARGV[1] .. id, 'joined_at') or ''
	table.insert(out, {id, m, tostring(i), 'waiting', joined, ''})
end
local served = redis.call('LRANGE', KEYS[3], 0, -1)
for _, id in ipairs(served) do
	local f = redis.call('HMGET', ARGV[1] .. id, 'member_id', 'position', 'joined_at', 'served_at')
	table.insert(out, {id, f[1], f[2], 'served', f[3], f[4]})
end
return out
`)

// TicketStore implements ticket.Store on Redis.
type TicketStore struct {
	client *redis.Client
	prefix string
}

// New wraps an existing client. An empty prefix uses "waitline:".
func New(client *redis.Client, prefix string) *TicketStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &TicketStore{client: client, prefix: prefix}
}

// Open connects to addr and verifies the connection.
func Open(ctx context.Context, addr, prefix string) (*TicketStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, prefix), nil
}

// Close closes the underlying client.
func (s *TicketStore) Close() error {
	return s.client.Close()
}

func (s *TicketStore) queueKey(queueID, suffix string) string {
	return s.prefix + "{" + queueID + "}:" + suffix
}

func (s *TicketStore) ticketPrefix(queueID string) string {
	return s.queueKey(queueID, "ticket:")
}

func (s *TicketStore) memberKey(memberID string) string {
	return s.prefix + "member:" + memberID + ":tickets"
}

// AssignPosition appends t to the queue's waiting set.
func (s *TicketStore) AssignPosition(ctx context.Context, t *ticket.Ticket, capacity int) error {
	keys := []string{
		s.queueKey(t.QueueID, "waiting"),
		s.queueKey(t.QueueID, "seq"),
		s.queueKey(t.QueueID, "waiting_ids"),
		s.ticketPrefix(t.QueueID) + t.ID,
		s.memberKey(t.MemberID),
	}
	res, err := assignScript.Run(ctx, s.client, keys,
		t.MemberID, t.ID, capacity, t.JoinedAt.UnixMilli(), t.QueueID,
	).Int()
	if err != nil {
		return fmt.Errorf("assign position: %w", err)
	}
	switch res {
	case -1:
		return repository.ErrDuplicate
	case -2:
		return repository.ErrCapacityReached
	}
	t.Position = res
	t.Status = ticket.StatusWaiting
	return nil
}

// ServeAndCompact removes the member from the waiting set and freezes the
// position it held on the ticket.
func (s *TicketStore) ServeAndCompact(ctx context.Context, queueID, memberID string, servedAt time.Time) (*ticket.Ticket, error) {
	keys := []string{
		s.queueKey(queueID, "waiting"),
		s.queueKey(queueID, "waiting_ids"),
		s.queueKey(queueID, "served"),
	}
	vals, err := serveScript.Run(ctx, s.client, keys,
		memberID, servedAt.UnixMilli(), s.ticketPrefix(queueID),
	).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("serve ticket: %w", err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("serve ticket: unexpected reply %v", vals)
	}

	position, err := strconv.Atoi(vals[1])
	if err != nil {
		return nil, fmt.Errorf("serve ticket: position: %w", err)
	}
	at := time.UnixMilli(servedAt.UnixMilli()).UTC()
	return &ticket.Ticket{
		ID:       vals[0],
		QueueID:  queueID,
		MemberID: memberID,
		Position: position,
		Status:   ticket.StatusServed,
		JoinedAt: parseMillis(vals[2]),
		ServedAt: &at,
	}, nil
}

func (s *TicketStore) lookup(ctx context.Context, queueID, memberID string) ([]string, error) {
	keys := []string{
		s.queueKey(queueID, "waiting"),
		s.queueKey(queueID, "waiting_ids"),
	}
	vals, err := lookupScript.Run(ctx, s.client, keys, memberID, s.ticketPrefix(queueID)).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup ticket: %w", err)
	}
	if len(vals) != 4 {
		return nil, fmt.Errorf("lookup ticket: unexpected reply %v", vals)
	}
	return vals, nil
}

// GetWaiting returns the member's waiting ticket in a queue.
func (s *TicketStore) GetWaiting(ctx context.Context, queueID, memberID string) (*ticket.Ticket, error) {
	vals, err := s.lookup(ctx, queueID, memberID)
	if err != nil {
		return nil, err
	}
	position, _ := strconv.Atoi(vals[1])
	return &ticket.Ticket{
		ID:       vals[0],
		QueueID:  queueID,
		MemberID: memberID,
		Position: position,
		Status:   ticket.StatusWaiting,
		JoinedAt: parseMillis(vals[3]),
	}, nil
}

// Position reads rank and cardinality inside one script.
func (s *TicketStore) Position(ctx context.Context, queueID, memberID string) (ticket.PositionInfo, error) {
	vals, err := s.lookup(ctx, queueID, memberID)
	if err != nil {
		return ticket.PositionInfo{}, err
	}
	position, _ := strconv.Atoi(vals[1])
	total, _ := strconv.Atoi(vals[2])
	return ticket.PositionInfo{
		TicketID:     vals[0],
		QueueID:      queueID,
		MemberID:     memberID,
		Position:     position,
		TotalWaiting: total,
	}, nil
}

// Roster lists waiting tickets by rank, then served tickets in serve order.
func (s *TicketStore) Roster(ctx context.Context, queueID string) ([]ticket.RosterEntry, error) {
	keys := []string{
		s.queueKey(queueID, "waiting"),
		s.queueKey(queueID, "waiting_ids"),
		s.queueKey(queueID, "served"),
	}
	raw, err := rosterScript.Run(ctx, s.client, keys, s.ticketPrefix(queueID)).Slice()
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	entries := make([]ticket.RosterEntry, 0, len(raw))
	for _, item := range raw {
		row, ok := item.([]interface{})
		if !ok || len(row) != 6 {
			return nil, fmt.Errorf("read roster: unexpected row %v", item)
		}
		f := make([]string, len(row))
		for i, v := range row {
			f[i], _ = v.(string)
		}
		position, _ := strconv.Atoi(f[2])
		entry := ticket.RosterEntry{
			TicketID: f[0],
			MemberID: f[1],
			Position: position,
			Status:   ticket.Status(f[3]),
			JoinedAt: parseMillis(f[4]),
		}
		if f[5] != "" {
			at := parseMillis(f[5])
			entry.ServedAt = &at
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ListByMember lists the member's tickets across queues, newest first.
// Each ticket is read consistently; the list as a whole is not a snapshot.
func (s *TicketStore) ListByMember(ctx context.Context, memberID string) ([]ticket.Ticket, error) {
	ticketKeys, err := s.client.LRange(ctx, s.memberKey(memberID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list member tickets: %w", err)
	}
	if len(ticketKeys) == 0 {
		return []ticket.Ticket{}, nil
	}

	pipe := s.client.Pipeline()
	fields := make([]*redis.MapStringStringCmd, len(ticketKeys))
	for i, key := range ticketKeys {
		fields[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("list member tickets: %w", err)
	}

	tickets := make([]ticket.Ticket, 0, len(ticketKeys))
	ranks := make(map[int]*redis.IntCmd)
	pipe = s.client.Pipeline()
	for _, cmd := range fields {
		h := cmd.Val()
		if len(h) == 0 {
			continue
		}
		t := ticket.Ticket{
			ID:       h["id"],
			QueueID:  h["queue_id"],
			MemberID: h["member_id"],
			Status:   ticket.Status(h["status"]),
			JoinedAt: parseMillis(h["joined_at"]),
		}
		if t.Status == ticket.StatusServed {
			t.Position, _ = strconv.Atoi(h["position"])
			at := parseMillis(h["served_at"])
			t.ServedAt = &at
		} else {
			ranks[len(tickets)] = pipe.ZRank(ctx, s.queueKey(t.QueueID, "waiting"), t.MemberID)
		}
		tickets = append(tickets, t)
	}
	if len(ranks) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("list member tickets: %w", err)
		}
		for i, cmd := range ranks {
			if rank, err := cmd.Result(); err == nil {
				tickets[i].Position = int(rank) + 1
			}
		}
	}
	return tickets, nil
}

func parseMillis(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
