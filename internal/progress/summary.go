package progress

import (
	"github.com/dukerupert/habitrack/internal/catalog"
	"github.com/dukerupert/habitrack/internal/model"
)

// Summary is everything the widget header shows for a selected date.
type Summary struct {
	Progress    DayProgress `json:"progress"`
	Streak      int         `json:"streak"`
	Badges      []Badge     `json:"badges"`
	NextBadge   *Badge      `json:"next_badge,omitempty"`
	DayPoints   int         `json:"day_points"`
	TotalPoints int         `json:"total_points"`
}

// Summarize computes progress, streak, badges and points for date.
func Summarize(cat catalog.Catalog, store model.DayStore, date model.Date, limit int) Summary {
	streak := Streak(cat, store, date, limit)
	s := Summary{
		Progress:    ForDay(cat, store, date),
		Streak:      streak,
		Badges:      Badges(streak),
		DayPoints:   DayPoints(cat, store, date),
		TotalPoints: TotalPoints(cat, store),
	}
	if next, ok := NextBadge(streak); ok {
		s.NextBadge = &next
	}
	return s
}

// Window returns day progress for the days ending at end, oldest first.
func Window(cat catalog.Catalog, store model.DayStore, end model.Date, days int) []DayProgress {
	if days <= 0 {
		return []DayProgress{}
	}
	out := make([]DayProgress, 0, days)
	for i := days - 1; i >= 0; i-- {
		out = append(out, ForDay(cat, store, end.AddDays(-i)))
	}
	return out
}
