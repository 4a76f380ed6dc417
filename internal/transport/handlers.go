package transport

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
)

type registerMemberRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type createQueueRequest struct {
	ID          string `json:"id"`
	CreatorID   string `json:"creator_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxCapacity int    `json:"max_capacity"`
}

type joinRequest struct {
	MemberID string `json:"member_id"`
}

type serveRequest struct {
	MemberID string `json:"member_id"`
	ActorID  string `json:"actor_id"`
}

type roleResponse struct {
	MemberID string      `json:"member_id"`
	Role     member.Role `json:"role"`
}

type joinResponse struct {
	Ticket   *ticket.Ticket `json:"ticket"`
	Position int            `json:"position"`
}

type serveResponse struct {
	Ticket           *ticket.Ticket `json:"ticket"`
	PreviousPosition int            `json:"previous_position"`
}

type rosterResponse struct {
	QueueID string               `json:"queue_id"`
	Entries []ticket.RosterEntry `json:"entries"`
}

func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	m, err := s.services.Members.Register(r.Context(), member.RegisterRequest{
		ID:    req.ID,
		Name:  req.Name,
		Email: req.Email,
		Role:  member.Role(strings.ToLower(strings.TrimSpace(req.Role))),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.services.Members.Get(r.Context(), chi.URLParam(r, "memberID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")
	role, err := s.services.Members.RoleOf(r.Context(), memberID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roleResponse{MemberID: memberID, Role: role})
}

func (s *Server) handleJoinedQueues(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.services.Tickets.JoinedQueues(r.Context(), chi.URLParam(r, "memberID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(tickets))
}

func (s *Server) handleCreatedQueues(w http.ResponseWriter, r *http.Request) {
	queues, err := s.services.Queues.ListByCreator(r.Context(), chi.URLParam(r, "memberID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(queues))
}

func (s *Server) handleCreateQueue(w http.ResponseWriter, r *http.Request) {
	var req createQueueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	q, err := s.services.Queues.Create(r.Context(), queue.CreateRequest{
		ID:          req.ID,
		CreatorID:   actorOr(r.Context(), req.CreatorID),
		Name:        req.Name,
		Description: req.Description,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleListQueues(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	queues, err := s.services.Queues.List(r.Context(), queue.ListOptions{
		CreatorID: r.URL.Query().Get("creator"),
		Query:     r.URL.Query().Get("q"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(queues))
}

func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	q, err := s.services.Queues.Get(r.Context(), chi.URLParam(r, "queueID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	memberID := actorOr(r.Context(), req.MemberID)

	if s.limiter != nil && memberID != "" && !s.limiter.Allow(memberID) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many join attempts")
		return
	}

	res, err := s.services.Tickets.Join(r.Context(), ticket.JoinRequest{
		MemberID: memberID,
		QueueID:  chi.URLParam(r, "queueID"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, joinResponse{Ticket: res.Ticket, Position: res.Position})
}

func (s *Server) handleServe(w http.ResponseWriter, r *http.Request) {
	var req serveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := s.services.Tickets.Serve(r.Context(), ticket.ServeRequest{
		ActorID:  actorOr(r.Context(), req.ActorID),
		MemberID: req.MemberID,
		QueueID:  chi.URLParam(r, "queueID"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serveResponse{Ticket: res.Ticket, PreviousPosition: res.PreviousPosition})
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	info, err := s.services.Tickets.PositionOf(r.Context(), chi.URLParam(r, "memberID"), chi.URLParam(r, "queueID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	queueID := chi.URLParam(r, "queueID")
	entries, err := s.services.Tickets.RosterOf(r.Context(), queueID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rosterResponse{QueueID: queueID, Entries: orEmpty(entries)})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	opts := activity.ListActivityOptions{
		QueueID: chi.URLParam(r, "queueID"),
		Limit:   limit,
		Offset:  offset,
	}
	if v := r.URL.Query().Get("member"); v != "" {
		opts.MemberID = &v
	}
	if v := r.URL.Query().Get("type"); v != "" {
		t := activity.ActivityType(v)
		opts.ActivityType = &t
	}

	entries, err := s.services.Activity.GetRecentActivity(r.Context(), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(entries))
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
