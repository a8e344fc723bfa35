package server

import (
	"net/http"
	"time"

	"github.com/strideapp/stride/internal/auth"
)

type accountResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	HasCustomAPIKeys bool      `json:"has_custom_api_keys"`
	CreatedAt        time.Time `json:"created_at"`
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.ByID(auth.UserID(r.Context()))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, accountResponse{
		ID:               user.ID,
		Email:            user.Email,
		HasCustomAPIKeys: user.HasCustomKeys(),
		CreatedAt:        user.CreatedAt,
	})
}

type apiKeysRequest struct {
	AnthropicAPIKey string `json:"anthropic_api_key"`
	OpenAIAPIKey    string `json:"openai_api_key"`
}

// handleUpdateAPIKeys stores the user's own provider credentials.
// Blank values clear the stored keys, falling back to the process
// defaults.
func (s *Server) handleUpdateAPIKeys(w http.ResponseWriter, r *http.Request) {
	var req apiKeysRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	userID := auth.UserID(r.Context())
	if err := s.users.UpdateAPIKeys(userID, req.AnthropicAPIKey, req.OpenAIAPIKey); err != nil {
		s.fail(w, err)
		return
	}

	user, err := s.users.ByID(userID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"message":             "API keys updated successfully",
		"has_custom_api_keys": user.HasCustomKeys(),
	})
}
