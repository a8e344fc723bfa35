package server

import (
	"net/http"
	"strings"

	"github.com/strideapp/stride/internal/auth"
	"github.com/strideapp/stride/internal/model"
	"github.com/strideapp/stride/internal/repository"
)

type goalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	GoalType    *string `json:"goal_type"`
	TargetDate  *string `json:"target_date"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	filter := repository.GoalFilterAll
	if r.URL.Query().Get("filter") == repository.GoalFilterActive {
		filter = repository.GoalFilterActive
	}

	goals, err := s.goals.Goals(auth.UserID(r.Context()), filter)
	if err != nil {
		s.fail(w, err)
		return
	}
	if goals == nil {
		goals = []*model.Goal{}
	}
	s.respond(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "title_required", "goal title is required")
		return
	}

	goal := &model.Goal{
		UserID: auth.UserID(r.Context()),
		Title:  strings.TrimSpace(*req.Title),
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.GoalType != nil {
		if !model.ValidGoalType(*req.GoalType) {
			s.respondError(w, http.StatusUnprocessableEntity, "invalid_goal_type", "goal_type must be habit, milestone, or project")
			return
		}
		goal.SetType(*req.GoalType)
	}
	if req.TargetDate != nil && *req.TargetDate != "" {
		date, err := model.ParseDate(*req.TargetDate)
		if err != nil {
			s.badRequest(w, "target_date must be YYYY-MM-DD")
			return
		}
		goal.TargetDate = &date
	}

	if err := s.goals.Create(goal); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, goalResponse(goal))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.goals.ByID(auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, goalResponse(goal))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	userID := auth.UserID(r.Context())
	goal, err := s.goals.ByID(userID, r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			s.respondError(w, http.StatusUnprocessableEntity, "title_required", "goal title is required")
			return
		}
		goal.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.GoalType != nil {
		if !model.ValidGoalType(*req.GoalType) {
			s.respondError(w, http.StatusUnprocessableEntity, "invalid_goal_type", "goal_type must be habit, milestone, or project")
			return
		}
		goal.SetType(*req.GoalType)
	}
	if req.TargetDate != nil {
		if *req.TargetDate == "" {
			goal.TargetDate = nil
		} else {
			date, err := model.ParseDate(*req.TargetDate)
			if err != nil {
				s.badRequest(w, "target_date must be YYYY-MM-DD")
				return
			}
			goal.TargetDate = &date
		}
	}

	if err := s.goals.Update(goal); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, goalResponse(goal))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.goals.Delete(auth.UserID(r.Context()), r.PathValue("id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	s.transitionGoal(w, r, s.goals.Complete)
}

func (s *Server) handleArchiveGoal(w http.ResponseWriter, r *http.Request) {
	s.transitionGoal(w, r, s.goals.Archive)
}

func (s *Server) transitionGoal(w http.ResponseWriter, r *http.Request, apply func(userID, goalID string) error) {
	userID := auth.UserID(r.Context())
	goalID := r.PathValue("id")

	if err := apply(userID, goalID); err != nil {
		s.fail(w, err)
		return
	}
	goal, err := s.goals.ByID(userID, goalID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, goalResponse(goal))
}

// goalResponse adds the flattened goal_type field the JSON tags hide.
func goalResponse(goal *model.Goal) map[string]any {
	return map[string]any{"goal": struct {
		*model.Goal
		GoalType string `json:"goal_type,omitempty"`
	}{Goal: goal, GoalType: goal.Type()}}
}
