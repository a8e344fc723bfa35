package model

import (
	"database/sql"
	"time"
)

// ProgressEntry is a free-text journal note for a single day. At most
// one entry exists per (user, entry_date); writes for an existing date
// update in place.
type ProgressEntry struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"-"`
	GoalID    sql.NullString `db:"goal_id" json:"-"`
	Content   string         `db:"content" json:"content"`
	EntryDate Date           `db:"entry_date" json:"entry_date"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Goal returns the optional goal reference, or "" when the entry is
// not linked to a goal.
func (e *ProgressEntry) Goal() string {
	if e.GoalID.Valid {
		return e.GoalID.String
	}
	return ""
}

func (e *ProgressEntry) SetGoal(goalID string) {
	e.GoalID = sql.NullString{String: goalID, Valid: goalID != ""}
}
