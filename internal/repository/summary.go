package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/strideapp/stride/internal/model"
)

var ErrSummaryNotFound = errors.New("summary not found")

type SummaryRepository interface {
	// Upsert writes the summary for (user, type, period), overwriting
	// content and metadata when the row already exists.
	Upsert(summary *model.Summary) error
	ByPeriod(userID, summaryType string, start, end model.Date) (*model.Summary, error)
	ByID(userID, summaryID string) (*model.Summary, error)
	List(userID, summaryType string, start, end *model.Date, limit int) ([]*model.Summary, error)
	CountWeeklyInRange(userID string, start, end model.Date) (int, error)
}

type summaryRepository struct {
	db *sqlx.DB
}

func NewSummaryRepository(db *sqlx.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) Upsert(summary *model.Summary) error {
	now := time.Now().UTC()
	if summary.ID == "" {
		summary.ID = uuid.New().String()
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = now
	}
	summary.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO summaries (id, user_id, summary_type, start_date, end_date, content, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, summary_type, start_date, end_date)
		 DO UPDATE SET content = excluded.content, metadata = excluded.metadata, updated_at = excluded.updated_at`,
		summary.ID, summary.UserID, summary.SummaryType, summary.StartDate, summary.EndDate,
		summary.Content, summary.Metadata, summary.CreatedAt, summary.UpdatedAt,
	)
	return err
}

func (r *summaryRepository) ByPeriod(userID, summaryType string, start, end model.Date) (*model.Summary, error) {
	summary := &model.Summary{}
	err := r.db.Get(summary,
		`SELECT * FROM summaries WHERE user_id = ? AND summary_type = ? AND start_date = ? AND end_date = ?`,
		userID, summaryType, start, end,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSummaryNotFound
	}
	return summary, err
}

func (r *summaryRepository) ByID(userID, summaryID string) (*model.Summary, error) {
	summary := &model.Summary{}
	err := r.db.Get(summary, `SELECT * FROM summaries WHERE id = ? AND user_id = ?`, summaryID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSummaryNotFound
	}
	return summary, err
}

func (r *summaryRepository) List(userID, summaryType string, start, end *model.Date, limit int) ([]*model.Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT * FROM summaries WHERE user_id = ?`
	args := []any{userID}

	if summaryType != "" {
		query += ` AND summary_type = ?`
		args = append(args, summaryType)
	}
	if start != nil && end != nil {
		query += ` AND start_date >= ? AND end_date <= ?`
		args = append(args, *start, *end)
	}
	query += ` ORDER BY start_date DESC LIMIT ?`
	args = append(args, limit)

	var summaries []*model.Summary
	err := r.db.Select(&summaries, query, args...)
	return summaries, err
}

func (r *summaryRepository) CountWeeklyInRange(userID string, start, end model.Date) (int, error) {
	var count int
	err := r.db.Get(&count,
		`SELECT COUNT(*) FROM summaries WHERE user_id = ? AND summary_type = ? AND start_date >= ? AND start_date <= ?`,
		userID, model.SummaryWeekly, start, end,
	)
	return count, err
}
