package server

import (
	"net/http"

	"github.com/strideapp/stride/internal/auth"
	"github.com/strideapp/stride/internal/model"
)

type inferRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleInferGoalType(w http.ResponseWriter, r *http.Request) {
	var req inferRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	goalType, err := s.assistant.InferGoalType(r.Context(), auth.UserID(r.Context()), req.Title, req.Description)
	if err != nil {
		s.fail(w, err)
		return
	}
	// goalType is "" when the model's answer named none of the types;
	// the client leaves the goal untyped.
	s.respond(w, http.StatusOK, map[string]string{"goal_type": goalType})
}

type improveRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	GoalType    string `json:"goal_type"`
}

func (s *Server) handleImproveGoal(w http.ResponseWriter, r *http.Request) {
	var req improveRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if req.GoalType != "" && !model.ValidGoalType(req.GoalType) {
		s.respondError(w, http.StatusUnprocessableEntity, "invalid_goal_type", "goal_type must be habit, milestone, or project")
		return
	}

	suggestions, err := s.assistant.SuggestGoalImprovements(r.Context(), auth.UserID(r.Context()), req.Title, req.Description, req.GoalType)
	if err != nil {
		s.fail(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	s.respond(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}
