package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/strideapp/stride/internal/model"
	"github.com/strideapp/stride/internal/prompts"
	"github.com/strideapp/stride/internal/providers"
	"github.com/strideapp/stride/internal/repository"
)

const generationTemperature = 0.7

// TextGenerator is the gateway contract the generator depends on.
// Satisfied by *providers.Gateway.
type TextGenerator interface {
	Generate(ctx context.Context, req providers.GenerateRequest) (string, error)
}

// Generator runs one summary generation end to end: fetch the period's
// entries and goals, aggregate, render the prompt, call the gateway,
// and upsert the resulting summary. Re-running for the same period
// overwrites the existing row; a period with no entries is a no-op.
type Generator struct {
	entries   repository.EntryRepository
	goals     repository.GoalRepository
	summaries repository.SummaryRepository
	users     repository.UserRepository
	gateway   TextGenerator
	logger    *slog.Logger
	now       func() time.Time
}

func NewGenerator(
	entries repository.EntryRepository,
	goals repository.GoalRepository,
	summaries repository.SummaryRepository,
	users repository.UserRepository,
	gateway TextGenerator,
	logger *slog.Logger,
) *Generator {
	return &Generator{
		entries:   entries,
		goals:     goals,
		summaries: summaries,
		users:     users,
		gateway:   gateway,
		logger:    logger,
		now:       time.Now,
	}
}

// Run generates and persists the summary of the given type for the
// period containing anchor. It returns (nil, nil) when the period has
// no entries.
func (g *Generator) Run(ctx context.Context, userID, summaryType string, anchor model.Date) (*model.Summary, error) {
	period, err := PeriodFor(summaryType, anchor)
	if err != nil {
		return nil, err
	}

	log := g.logger.With("user", userID, "period", period.String())

	entries, err := g.entries.InRange(userID, period.Start, period.End)
	if err != nil {
		log.Error("fetching entries failed", "error", err)
		return nil, fmt.Errorf("fetching entries: %w", err)
	}
	if len(entries) == 0 {
		log.Info("no entries in period, skipping summary")
		return nil, nil
	}

	agg, err := g.aggregate(period, userID, entries)
	if err != nil {
		log.Error("aggregation failed", "error", err)
		return nil, err
	}

	prompt, err := prompts.Render(agg.TemplateKey, agg.Vars)
	if err != nil {
		// Unknown template key is a defect, not a runtime condition.
		log.Error("prompt rendering failed", "error", err)
		return nil, err
	}

	user, err := g.users.ByID(userID)
	if err != nil {
		log.Error("resolving user failed", "error", err)
		return nil, fmt.Errorf("resolving user: %w", err)
	}

	content, err := g.gateway.Generate(ctx, providers.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: prompts.SystemPromptFor(agg.TemplateKey),
		Temperature:  generationTemperature,
		UserKeys: providers.Credentials{
			AnthropicKey: user.AnthropicAPIKey,
			OpenAIKey:    user.OpenAIAPIKey,
		},
	})
	if err != nil {
		log.Error("generation failed", "error", err)
		return nil, fmt.Errorf("generating summary: %w", err)
	}

	record := &model.Summary{
		UserID:      userID,
		SummaryType: period.Type,
		StartDate:   period.Start,
		EndDate:     period.End,
		Content:     content,
		Metadata:    g.metadata(agg),
	}
	if err := g.summaries.Upsert(record); err != nil {
		log.Error("persisting summary failed", "error", err)
		return nil, fmt.Errorf("persisting summary: %w", err)
	}

	log.Info("summary generated", "entries", agg.EntryCount)
	return record, nil
}

func (g *Generator) aggregate(period Period, userID string, entries []*model.ProgressEntry) (Aggregate, error) {
	switch period.Type {
	case model.SummaryDaily:
		goals, err := g.goals.Goals(userID, repository.GoalFilterActive)
		if err != nil {
			return Aggregate{}, fmt.Errorf("fetching goals: %w", err)
		}
		return BuildDaily(period, entries, goals), nil

	case model.SummaryWeekly:
		goals, err := g.goals.Goals(userID, repository.GoalFilterActive)
		if err != nil {
			return Aggregate{}, fmt.Errorf("fetching goals: %w", err)
		}
		return BuildWeekly(period, entries, goals), nil

	default:
		// Monthly mentions include archived goals for historical
		// accuracy.
		goals, err := g.goals.Goals(userID, repository.GoalFilterAll)
		if err != nil {
			return Aggregate{}, fmt.Errorf("fetching goals: %w", err)
		}
		weeklyCount, err := g.summaries.CountWeeklyInRange(userID, period.Start, period.End)
		if err != nil {
			return Aggregate{}, fmt.Errorf("counting weekly summaries: %w", err)
		}
		return BuildMonthly(period, entries, goals, weeklyCount), nil
	}
}

func (g *Generator) metadata(agg Aggregate) model.Metadata {
	meta := model.Metadata{
		"generated_at": g.now().UTC().Format(time.RFC3339),
	}

	switch agg.Period.Type {
	case model.SummaryDaily:
		meta["entry_count"] = agg.EntryCount
		meta["goals_mentioned"] = agg.MentionedGoals
	case model.SummaryWeekly:
		meta["entry_count"] = agg.EntryCount
		meta["days_with_entries"] = agg.DaysWithEntries
		meta["goals_mentioned"] = agg.MentionedGoals
	case model.SummaryMonthly:
		meta["total_entries"] = agg.EntryCount
		meta["days_with_entries"] = agg.DaysWithEntries
		meta["consistency_rate"] = agg.ConsistencyRate
		meta["goals_progressed"] = agg.MentionedGoals
	}
	return meta
}
