// Package assist provides the per-goal AI helpers: inferring a goal's
// type from its wording and suggesting improvements to its phrasing.
package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/strideapp/stride/internal/model"
	"github.com/strideapp/stride/internal/prompts"
	"github.com/strideapp/stride/internal/providers"
	"github.com/strideapp/stride/internal/repository"
)

var ErrTitleRequired = errors.New("goal title is required")

// Classification uses a low temperature for determinism; suggestions
// benefit from some variety.
const (
	inferenceTemperature  = 0.3
	suggestionTemperature = 0.7
)

// TextGenerator is the gateway contract the service depends on.
// Satisfied by *providers.Gateway.
type TextGenerator interface {
	Generate(ctx context.Context, req providers.GenerateRequest) (string, error)
}

type Service struct {
	users   repository.UserRepository
	gateway TextGenerator
	logger  *slog.Logger
}

func NewService(users repository.UserRepository, gateway TextGenerator, logger *slog.Logger) *Service {
	return &Service{users: users, gateway: gateway, logger: logger}
}

// InferGoalType asks the model to classify the goal as habit,
// milestone, or project. An answer that names none of the three
// returns "" without error; the caller leaves the goal untyped.
func (s *Service) InferGoalType(ctx context.Context, userID, title, description string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", ErrTitleRequired
	}

	response, err := s.generate(ctx, userID, prompts.GoalTypeInference, map[string]string{
		"title":       title,
		"description": orDefault(description, "No description provided"),
	}, inferenceTemperature)
	if err != nil {
		return "", err
	}

	inferred := parseGoalType(response)
	if inferred == "" {
		s.logger.Warn("unparseable goal type response", "user", userID, "response", response)
	}
	return inferred, nil
}

// SuggestGoalImprovements returns coaching suggestions for the goal,
// one per line of the model's answer after formatting cleanup.
func (s *Service) SuggestGoalImprovements(ctx context.Context, userID, title, description, goalType string) ([]string, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	response, err := s.generate(ctx, userID, prompts.GoalImprovement, map[string]string{
		"title":       title,
		"description": orDefault(description, "No description provided"),
		"goal_type":   orDefault(goalType, "Not specified"),
	}, suggestionTemperature)
	if err != nil {
		return nil, err
	}

	return FormatSuggestions(response), nil
}

func (s *Service) generate(ctx context.Context, userID string, key prompts.Key, vars map[string]string, temperature float64) (string, error) {
	prompt, err := prompts.Render(key, vars)
	if err != nil {
		return "", err
	}

	user, err := s.users.ByID(userID)
	if err != nil {
		return "", fmt.Errorf("resolving user: %w", err)
	}

	return s.gateway.Generate(ctx, providers.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: prompts.SystemPromptFor(key),
		Temperature:  temperature,
		UserKeys: providers.Credentials{
			AnthropicKey: user.AnthropicAPIKey,
			OpenAIKey:    user.OpenAIAPIKey,
		},
	})
}

// orDefault substitutes a placeholder for blank prompt variables so
// the rendered prompt never shows an empty field.
func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// parseGoalType extracts a recognized goal type from a free-form
// answer. The model is told to answer with one word but sometimes
// wraps it in a sentence.
func parseGoalType(response string) string {
	answer := strings.ToLower(strings.TrimSpace(response))
	switch answer {
	case model.GoalTypeHabit, model.GoalTypeMilestone, model.GoalTypeProject:
		return answer
	}
	for _, t := range []string{model.GoalTypeHabit, model.GoalTypeMilestone, model.GoalTypeProject} {
		if strings.Contains(answer, t) {
			return t
		}
	}
	return ""
}

// FormatSuggestions splits a model answer into individual suggestion
// lines, stripping list markers and numbering and dropping fragments
// too short to be a suggestion.
func FormatSuggestions(response string) []string {
	var suggestions []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		line = stripNumbering(line)
		if len(line) <= 10 {
			continue
		}
		suggestions = append(suggestions, line)
	}
	return suggestions
}

// stripNumbering removes a leading "1." or "2)" style marker.
func stripNumbering(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
