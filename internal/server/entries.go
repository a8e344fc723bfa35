package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/strideapp/stride/internal/auth"
	"github.com/strideapp/stride/internal/model"
)

type entryRequest struct {
	Content string `json:"content"`
	GoalID  string `json:"goal_id"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	// Default window: the last 30 days.
	end := model.DateOf(time.Now())
	start := end.AddDays(-30)

	q := r.URL.Query()
	if raw := q.Get("start"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			s.badRequest(w, "start must be YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if raw := q.Get("end"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			s.badRequest(w, "end must be YYYY-MM-DD")
			return
		}
		end = parsed
	}

	entries, err := s.entries.InRange(auth.UserID(r.Context()), start, end)
	if err != nil {
		s.fail(w, err)
		return
	}
	if entries == nil {
		entries = []*model.ProgressEntry{}
	}
	s.respond(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleUpsertEntry(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r)
	if err != nil {
		s.badRequest(w, "date must be YYYY-MM-DD")
		return
	}

	var req entryRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "content_required", "entry content is required")
		return
	}

	entry, err := s.entries.UpsertForDate(auth.UserID(r.Context()), date, req.Content, req.GoalID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"entry": entry})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r)
	if err != nil {
		s.badRequest(w, "date must be YYYY-MM-DD")
		return
	}

	entry, err := s.entries.ForDate(auth.UserID(r.Context()), date)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"entry": entry})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r)
	if err != nil {
		s.badRequest(w, "date must be YYYY-MM-DD")
		return
	}

	if err := s.entries.Delete(auth.UserID(r.Context()), date); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
