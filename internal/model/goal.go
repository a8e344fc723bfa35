package model

import (
	"database/sql"
	"time"
)

const (
	GoalTypeHabit     = "habit"
	GoalTypeMilestone = "milestone"
	GoalTypeProject   = "project"
)

// ValidGoalType reports whether t is one of the recognized goal types.
// The empty string is allowed: goals may be untyped.
func ValidGoalType(t string) bool {
	switch t {
	case "", GoalTypeHabit, GoalTypeMilestone, GoalTypeProject:
		return true
	}
	return false
}

type Goal struct {
	ID          string         `db:"id" json:"id"`
	UserID      string         `db:"user_id" json:"-"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description,omitempty"`
	GoalType    sql.NullString `db:"goal_type" json:"-"`
	TargetDate  *Date          `db:"target_date" json:"target_date,omitempty"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	ArchivedAt  *time.Time     `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Type returns the goal type, or "" when untyped.
func (g *Goal) Type() string {
	if g.GoalType.Valid {
		return g.GoalType.String
	}
	return ""
}

func (g *Goal) SetType(t string) {
	g.GoalType = sql.NullString{String: t, Valid: t != ""}
}

func (g *Goal) Completed() bool { return g.CompletedAt != nil }
func (g *Goal) Archived() bool  { return g.ArchivedAt != nil }

// Active goals are neither completed nor archived.
func (g *Goal) Active() bool { return !g.Completed() && !g.Archived() }
