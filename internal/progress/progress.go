package progress

import (
	"math"

	"github.com/dukerupert/habitrack/internal/catalog"
	"github.com/dukerupert/habitrack/internal/model"
)

// DefaultStreakLimit caps the backward streak walk when no limit is given.
const DefaultStreakLimit = 3650

// HabitProgress is one habit's completion on one day.
type HabitProgress struct {
	HabitID string `json:"habit_id"`
	Label   string `json:"label"`
	Icon    string `json:"icon"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Goal    int    `json:"goal"`
	GoalMet bool   `json:"goal_met"`
}

// DayProgress is every habit's completion on one day, in catalog order.
type DayProgress struct {
	Date    model.Date      `json:"date"`
	Habits  []HabitProgress `json:"habits"`
	GoalMet bool            `json:"goal_met"`
}

// ForHabit computes completion for a single habit. Only checked keys that
// belong to the habit's items count.
func ForHabit(h catalog.Habit, store model.DayStore, date model.Date) HabitProgress {
	done := 0
	for _, it := range h.Items {
		if store.Checked(date, catalog.Key(h.ID, it.ID)) {
			done++
		}
	}
	total := len(h.Items)
	return HabitProgress{
		HabitID: h.ID,
		Label:   h.Label,
		Icon:    h.Icon,
		Done:    done,
		Total:   total,
		Percent: percent(done, total),
		Goal:    h.DailyGoal,
		GoalMet: done >= h.DailyGoal,
	}
}

// ForDay computes completion for every habit on date. A date with no record
// yields zero counts.
func ForDay(cat catalog.Catalog, store model.DayStore, date model.Date) DayProgress {
	p := DayProgress{
		Date:    date,
		Habits:  make([]HabitProgress, 0, len(cat.Habits)),
		GoalMet: true,
	}
	for _, h := range cat.Habits {
		hp := ForHabit(h, store, date)
		if !hp.GoalMet {
			p.GoalMet = false
		}
		p.Habits = append(p.Habits, hp)
	}
	return p
}

// OverallGoalMet reports whether every habit met its daily goal on date.
func OverallGoalMet(cat catalog.Catalog, store model.DayStore, date model.Date) bool {
	for _, h := range cat.Habits {
		if !ForHabit(h, store, date).GoalMet {
			return false
		}
	}
	return true
}

// Streak counts consecutive qualifying days ending at date, walking backward
// at most limit days. A non-positive limit uses DefaultStreakLimit.
func Streak(cat catalog.Catalog, store model.DayStore, date model.Date, limit int) int {
	if limit <= 0 {
		limit = DefaultStreakLimit
	}
	earliest, recorded := store.Earliest()
	n := 0
	for d := date; n < limit; d = d.AddDays(-1) {
		if !recorded || d.Before(earliest) {
			// Every remaining day is unrecorded, so they all qualify or none do.
			if OverallGoalMet(cat, store, d) {
				n = limit
			}
			break
		}
		if !OverallGoalMet(cat, store, d) {
			break
		}
		n++
	}
	return n
}

// DayPoints sums item points for the catalog keys checked on date.
func DayPoints(cat catalog.Catalog, store model.DayStore, date model.Date) int {
	total := 0
	for _, h := range cat.Habits {
		for _, it := range h.Items {
			if store.Checked(date, catalog.Key(h.ID, it.ID)) {
				total += it.Points
			}
		}
	}
	return total
}

// TotalPoints sums DayPoints over every recorded date.
func TotalPoints(cat catalog.Catalog, store model.DayStore) int {
	total := 0
	for _, d := range store.Dates() {
		total += DayPoints(cat, store, d)
	}
	return total
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(done) / float64(total)))
	return min(max(p, 0), 100)
}
