package summary

import (
	"fmt"
	"time"

	"github.com/strideapp/stride/internal/model"
)

// Period is the contiguous date range one summary covers.
type Period struct {
	Type  string // model.SummaryDaily / SummaryWeekly / SummaryMonthly
	Start model.Date
	End   model.Date
}

// PeriodFor computes the boundaries of the period of the given type
// containing the anchor date.
func PeriodFor(summaryType string, anchor model.Date) (Period, error) {
	switch summaryType {
	case model.SummaryDaily:
		return DailyPeriod(anchor), nil
	case model.SummaryWeekly:
		return WeeklyPeriod(anchor), nil
	case model.SummaryMonthly:
		return MonthlyPeriod(anchor), nil
	}
	return Period{}, fmt.Errorf("unknown summary type %q", summaryType)
}

func DailyPeriod(anchor model.Date) Period {
	return Period{Type: model.SummaryDaily, Start: anchor, End: anchor}
}

// WeeklyPeriod returns the ISO week (Monday through Sunday) containing
// the anchor date.
func WeeklyPeriod(anchor model.Date) Period {
	offset := int(anchor.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	start := anchor.AddDays(-offset)
	return Period{Type: model.SummaryWeekly, Start: start, End: start.AddDays(6)}
}

// MonthlyPeriod returns the calendar month containing the anchor date.
func MonthlyPeriod(anchor model.Date) Period {
	start := model.NewDate(anchor.Year(), anchor.Month(), 1)
	end := model.Date{Time: start.AddDate(0, 1, -1)}
	return Period{Type: model.SummaryMonthly, Start: start, End: end}
}

// Days returns the period length in days, inclusive of both ends.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start.Time)/(24*time.Hour)) + 1
}

func (p Period) String() string {
	return fmt.Sprintf("%s %s..%s", p.Type, p.Start, p.End)
}
