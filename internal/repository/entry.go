package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/strideapp/stride/internal/model"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrGoalMismatch  = errors.New("referenced goal does not belong to user")
)

type EntryRepository interface {
	// UpsertForDate creates the entry for (user, date) or updates its
	// content and goal reference in place.
	UpsertForDate(userID string, date model.Date, content, goalID string) (*model.ProgressEntry, error)
	ForDate(userID string, date model.Date) (*model.ProgressEntry, error)
	InRange(userID string, start, end model.Date) ([]*model.ProgressEntry, error)
	Delete(userID string, date model.Date) error
}

type entryRepository struct {
	db *sqlx.DB
}

func NewEntryRepository(db *sqlx.DB) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) UpsertForDate(userID string, date model.Date, content, goalID string) (*model.ProgressEntry, error) {
	if goalID != "" {
		var n int
		if err := r.db.Get(&n, `SELECT COUNT(*) FROM goals WHERE id = ? AND user_id = ?`, goalID, userID); err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrGoalMismatch
		}
	}

	now := time.Now().UTC()
	entry := &model.ProgressEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   content,
		EntryDate: date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	entry.SetGoal(goalID)

	// The (user_id, entry_date) constraint turns a second write for
	// the same day into an in-place update.
	_, err := r.db.Exec(
		`INSERT INTO progress_entries (id, user_id, goal_id, content, entry_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, entry_date)
		 DO UPDATE SET content = excluded.content, goal_id = excluded.goal_id, updated_at = excluded.updated_at`,
		entry.ID, entry.UserID, entry.GoalID, entry.Content, entry.EntryDate, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return r.ForDate(userID, date)
}

func (r *entryRepository) ForDate(userID string, date model.Date) (*model.ProgressEntry, error) {
	entry := &model.ProgressEntry{}
	err := r.db.Get(entry, `SELECT * FROM progress_entries WHERE user_id = ? AND entry_date = ?`, userID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return entry, err
}

func (r *entryRepository) InRange(userID string, start, end model.Date) ([]*model.ProgressEntry, error) {
	var entries []*model.ProgressEntry
	err := r.db.Select(&entries,
		`SELECT * FROM progress_entries WHERE user_id = ? AND entry_date >= ? AND entry_date <= ? ORDER BY entry_date ASC`,
		userID, start, end,
	)
	return entries, err
}

func (r *entryRepository) Delete(userID string, date model.Date) error {
	result, err := r.db.Exec(`DELETE FROM progress_entries WHERE user_id = ? AND entry_date = ?`, userID, date)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrEntryNotFound
	}
	return nil
}
