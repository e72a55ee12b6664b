package progress

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dukerupert/habitrack/internal/catalog"
	"github.com/dukerupert/habitrack/internal/model"
)

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

// qualifyingChecks meets every default goal exactly.
var qualifyingChecks = []catalog.CheckKey{
	catalog.Key("smoking", "smoke_free"),
	catalog.Key("eating", "home_cooked"),
	catalog.Key("eating", "no_sugar"),
	catalog.Key("exercise", "workout_30"),
	catalog.Key("exercise", "walk_8k"),
}

func withChecks(s model.DayStore, d model.Date, keys ...catalog.CheckKey) model.DayStore {
	for _, k := range keys {
		s = s.Set(d, k, true)
	}
	return s
}

func TestForDayWorkedExample(t *testing.T) {
	cat := catalog.Default()
	d := date(t, "2026-02-05")
	store := withChecks(model.DayStore{}, d, qualifyingChecks...)

	got := ForDay(cat, store, d)

	want := DayProgress{
		Date: d,
		Habits: []HabitProgress{
			{HabitID: "smoking", Label: "Smoking", Icon: "🚭", Done: 1, Total: 2, Percent: 50, Goal: 1, GoalMet: true},
			{HabitID: "eating", Label: "Eating", Icon: "🥗", Done: 2, Total: 3, Percent: 67, Goal: 2, GoalMet: true},
			{HabitID: "exercise", Label: "Exercise", Icon: "🏃", Done: 2, Total: 3, Percent: 67, Goal: 2, GoalMet: true},
		},
		GoalMet: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ForDay mismatch (-want +got):\n%s", diff)
	}
	if !OverallGoalMet(cat, store, d) {
		t.Error("expected overall goal met")
	}
}

func TestForDayMissingRecord(t *testing.T) {
	cat := catalog.Default()
	got := ForDay(cat, model.DayStore{}, date(t, "2026-02-05"))

	if got.GoalMet {
		t.Error("empty day should not meet goals")
	}
	for _, h := range got.Habits {
		if h.Done != 0 || h.Percent != 0 || h.GoalMet {
			t.Errorf("%s = %+v, want zero progress", h.HabitID, h)
		}
	}
}

func TestGoalBoundary(t *testing.T) {
	h := catalog.Default().Habits[1] // eating, goal 2
	d := date(t, "2026-02-05")

	one := withChecks(model.DayStore{}, d, catalog.Key("eating", "home_cooked"))
	if ForHabit(h, one, d).GoalMet {
		t.Error("done < goal should not meet goal")
	}

	two := withChecks(one, d, catalog.Key("eating", "veggies_5"))
	if !ForHabit(h, two, d).GoalMet {
		t.Error("done == goal should meet goal")
	}

	three := withChecks(two, d, catalog.Key("eating", "no_sugar"))
	hp := ForHabit(h, three, d)
	if !hp.GoalMet || hp.Percent != 100 {
		t.Errorf("all checked = %+v, want goal met at 100%%", hp)
	}
}

func TestStaleAndUncheckedKeysIgnored(t *testing.T) {
	cat := catalog.Default()
	d := date(t, "2026-02-05")
	store := model.DayStore{}.
		Set(d, catalog.Key("smoking", "cigars"), true).
		Set(d, catalog.Key("sleep", "eight_hours"), true).
		Set(d, catalog.Key("smoking", "smoke_free"), false)

	got := ForDay(cat, store, d)
	if got.Habits[0].Done != 0 {
		t.Errorf("smoking done = %d, want 0", got.Habits[0].Done)
	}
	if DayPoints(cat, store, d) != 0 {
		t.Errorf("day points = %d, want 0", DayPoints(cat, store, d))
	}
}

func TestPercentAlwaysInRange(t *testing.T) {
	for total := 0; total <= 7; total++ {
		for done := -1; done <= total+2; done++ {
			p := percent(done, total)
			if p < 0 || p > 100 {
				t.Errorf("percent(%d, %d) = %d out of range", done, total, p)
			}
		}
	}
	if got := percent(1, 3); got != 33 {
		t.Errorf("percent(1,3) = %d, want 33", got)
	}
	if got := percent(1, 2); got != 50 {
		t.Errorf("percent(1,2) = %d, want 50", got)
	}
}

func TestStreak(t *testing.T) {
	cat := catalog.Default()
	store := model.DayStore{}
	for _, ds := range []string{"2026-02-01", "2026-02-02", "2026-02-03"} {
		store = withChecks(store, date(t, ds), qualifyingChecks...)
	}
	// Day 4 has a record but misses the exercise goal.
	store = withChecks(store, date(t, "2026-02-04"), catalog.Key("smoking", "smoke_free"))

	if got := Streak(cat, store, date(t, "2026-02-04"), 0); got != 0 {
		t.Errorf("streak on non-qualifying day = %d, want 0", got)
	}
	if got := Streak(cat, store, date(t, "2026-02-03"), 0); got != 3 {
		t.Errorf("streak on day 3 = %d, want 3", got)
	}
	if got := Streak(cat, store, date(t, "2026-02-01"), 0); got != 1 {
		t.Errorf("streak on day 1 = %d, want 1", got)
	}

	badges := Badges(Streak(cat, store, date(t, "2026-02-03"), 0))
	if len(badges) != 1 || badges[0].ID != "bronze_3" {
		t.Errorf("badges = %+v, want [bronze_3]", badges)
	}
}

func TestStreakGapResets(t *testing.T) {
	cat := catalog.Default()
	store := model.DayStore{}
	for _, ds := range []string{"2026-01-20", "2026-01-21", "2026-01-22", "2026-01-23", "2026-01-25"} {
		store = withChecks(store, date(t, ds), qualifyingChecks...)
	}

	// 24th missing: the 25th stands alone regardless of earlier history.
	if got := Streak(cat, store, date(t, "2026-01-25"), 0); got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
}

func TestStreakLimit(t *testing.T) {
	// A catalog with no goals qualifies every day; the walk must still stop.
	cat := catalog.Catalog{Habits: []catalog.Habit{
		{ID: "rest", Items: []catalog.Item{{ID: "nap"}}, DailyGoal: 0},
	}}
	d := date(t, "2026-02-05")

	if got := Streak(cat, model.DayStore{}, d, 45); got != 45 {
		t.Errorf("streak = %d, want 45", got)
	}
	if got := Streak(cat, model.DayStore{}, d, 0); got != DefaultStreakLimit {
		t.Errorf("streak = %d, want %d", got, DefaultStreakLimit)
	}

	// Walking past the oldest record still counts up to the limit.
	store := withChecks(model.DayStore{}, date(t, "2026-02-03"), catalog.Key("rest", "nap"))
	if got := Streak(cat, store, d, 45); got != 45 {
		t.Errorf("streak past oldest record = %d, want 45", got)
	}
}

func TestStreakStopsAtOldestRecord(t *testing.T) {
	cat := catalog.Default()
	store := model.DayStore{}
	for _, ds := range []string{"2016-02-04", "2016-02-05"} {
		store = withChecks(store, date(t, ds), qualifyingChecks...)
	}
	if got := Streak(cat, store, date(t, "2016-02-05"), 0); got != 2 {
		t.Errorf("streak = %d, want 2", got)
	}
	// Today has no record: nothing qualifies.
	if got := Streak(cat, store, date(t, "2026-02-05"), 0); got != 0 {
		t.Errorf("streak = %d, want 0", got)
	}
}

func TestStreakCrossesMonthBoundary(t *testing.T) {
	cat := catalog.Default()
	store := model.DayStore{}
	for _, ds := range []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"} {
		store = withChecks(store, date(t, ds), qualifyingChecks...)
	}
	if got := Streak(cat, store, date(t, "2026-03-02"), 0); got != 4 {
		t.Errorf("streak = %d, want 4", got)
	}
}

func TestPoints(t *testing.T) {
	cat := catalog.Default()
	d1 := date(t, "2026-02-05")
	d2 := date(t, "2026-02-06")
	store := withChecks(model.DayStore{}, d1, qualifyingChecks...)
	store = withChecks(store, d2, catalog.Key("smoking", "no_vape"))

	if got := DayPoints(cat, store, d1); got != 50 {
		t.Errorf("day points = %d, want 50", got)
	}
	if got := TotalPoints(cat, store); got != 60 {
		t.Errorf("total points = %d, want 60", got)
	}
}
