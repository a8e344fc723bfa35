package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	SummaryDaily   = "daily"
	SummaryWeekly  = "weekly"
	SummaryMonthly = "monthly"
)

func ValidSummaryType(t string) bool {
	switch t {
	case SummaryDaily, SummaryWeekly, SummaryMonthly:
		return true
	}
	return false
}

// Metadata holds derived statistics captured at generation time,
// stored as a JSON TEXT column. It is never recomputed on read.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *Metadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case nil:
		*m = Metadata{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}
	return json.Unmarshal(data, m)
}

// Summary is an AI-generated digest of one period. Rows are unique per
// (user, summary_type, start_date, end_date) and written only by the
// summary generator; content is stored verbatim as returned by the
// provider.
type Summary struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	SummaryType string    `db:"summary_type" json:"summary_type"`
	StartDate   Date      `db:"start_date" json:"start_date"`
	EndDate     Date      `db:"end_date" json:"end_date"`
	Content     string    `db:"content" json:"content"`
	Metadata    Metadata  `db:"metadata" json:"metadata"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
