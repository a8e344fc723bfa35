package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/strideapp/stride/internal/auth"
	"github.com/strideapp/stride/internal/model"
)

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	summaryType := q.Get("type")
	if summaryType != "" && !model.ValidSummaryType(summaryType) {
		s.badRequest(w, "type must be daily, weekly, or monthly")
		return
	}

	var start, end *model.Date
	if raw := q.Get("start"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			s.badRequest(w, "start must be YYYY-MM-DD")
			return
		}
		start = &parsed
	}
	if raw := q.Get("end"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			s.badRequest(w, "end must be YYYY-MM-DD")
			return
		}
		end = &parsed
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.badRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	summaries, err := s.summaries.List(auth.UserID(r.Context()), summaryType, start, end, limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	if summaries == nil {
		summaries = []*model.Summary{}
	}
	s.respond(w, http.StatusOK, map[string]any{"summaries": summaries})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summaries.ByID(auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"summary": summary})
}

func (s *Server) handleTodaySummary(w http.ResponseWriter, r *http.Request) {
	today := model.DateOf(time.Now())
	summary, err := s.summaries.ByPeriod(auth.UserID(r.Context()), model.SummaryDaily, today, today)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"summary": summary})
}

type generateRequest struct {
	Type string `json:"type"`
	Date string `json:"date"`
}

func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if !model.ValidSummaryType(req.Type) {
		s.badRequest(w, "type must be daily, weekly, or monthly")
		return
	}

	anchor := model.DateOf(time.Now())
	if req.Date != "" {
		parsed, err := model.ParseDate(req.Date)
		if err != nil {
			s.badRequest(w, "date must be YYYY-MM-DD")
			return
		}
		anchor = parsed
	}

	summary, err := s.generator.Run(r.Context(), auth.UserID(r.Context()), req.Type, anchor)
	if err != nil {
		s.fail(w, err)
		return
	}
	if summary == nil {
		// No entries in the period; nothing was generated.
		s.respond(w, http.StatusOK, map[string]any{"summary": nil, "skipped": true})
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"summary": summary})
}
