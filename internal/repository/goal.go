package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/strideapp/stride/internal/model"
)

var ErrGoalNotFound = errors.New("goal not found")

const (
	GoalFilterAll    = "all"
	GoalFilterActive = "active"
)

type GoalRepository interface {
	Create(goal *model.Goal) error
	ByID(userID, goalID string) (*model.Goal, error)
	Goals(userID, filter string) ([]*model.Goal, error)
	Update(goal *model.Goal) error
	Complete(userID, goalID string) error
	Archive(userID, goalID string) error
	Delete(userID, goalID string) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(goal *model.Goal) error {
	now := time.Now().UTC()
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	goal.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO goals (id, user_id, title, description, goal_type, target_date, completed_at, archived_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.UserID, goal.Title, goal.Description, goal.GoalType,
		goal.TargetDate, goal.CompletedAt, goal.ArchivedAt, goal.CreatedAt, goal.UpdatedAt,
	)
	return err
}

func (r *goalRepository) ByID(userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	err := r.db.Get(goal, `SELECT * FROM goals WHERE id = ? AND user_id = ?`, goalID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	return goal, err
}

func (r *goalRepository) Goals(userID, filter string) ([]*model.Goal, error) {
	query := `SELECT * FROM goals WHERE user_id = ?`
	if filter == GoalFilterActive {
		query += ` AND completed_at IS NULL AND archived_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	var goals []*model.Goal
	err := r.db.Select(&goals, query, userID)
	return goals, err
}

func (r *goalRepository) Update(goal *model.Goal) error {
	goal.UpdatedAt = time.Now().UTC()
	result, err := r.db.Exec(
		`UPDATE goals SET title = ?, description = ?, goal_type = ?, target_date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		goal.Title, goal.Description, goal.GoalType, goal.TargetDate, goal.UpdatedAt,
		goal.ID, goal.UserID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *goalRepository) Complete(userID, goalID string) error {
	result, err := r.db.Exec(
		`UPDATE goals SET completed_at = ?, updated_at = ? WHERE id = ? AND user_id = ? AND completed_at IS NULL`,
		time.Now().UTC(), time.Now().UTC(), goalID, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *goalRepository) Archive(userID, goalID string) error {
	result, err := r.db.Exec(
		`UPDATE goals SET archived_at = ?, updated_at = ? WHERE id = ? AND user_id = ? AND archived_at IS NULL`,
		time.Now().UTC(), time.Now().UTC(), goalID, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *goalRepository) Delete(userID, goalID string) error {
	result, err := r.db.Exec(`DELETE FROM goals WHERE id = ? AND user_id = ?`, goalID, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGoalNotFound
	}
	return nil
}
