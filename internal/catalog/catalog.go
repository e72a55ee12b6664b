package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCatalog is returned by Validate for any structural problem.
var ErrInvalidCatalog = errors.New("invalid catalog")

const keySeparator = "."

// Item is a single checkable sub-habit.
type Item struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Points int    `json:"points" yaml:"points"`
}

// Habit is one tracked category and its sub-habits.
type Habit struct {
	ID        string `json:"id" yaml:"id"`
	Label     string `json:"label" yaml:"label"`
	Icon      string `json:"icon" yaml:"icon"`
	Items     []Item `json:"items" yaml:"items"`
	DailyGoal int    `json:"daily_goal" yaml:"daily_goal"`
}

// Catalog is the static set of habits. It is never mutated after construction.
type Catalog struct {
	Habits []Habit `json:"habits" yaml:"habits"`
}

// CheckKey identifies one sub-habit within the catalog.
type CheckKey struct {
	Habit string
	Item  string

	// bare marks a stored key that had no separator; it encodes back unchanged.
	bare bool
}

// Key builds a CheckKey.
func Key(habitID, itemID string) CheckKey {
	return CheckKey{Habit: habitID, Item: itemID}
}

func (k CheckKey) String() string {
	if k.bare {
		return k.Habit
	}
	return k.Habit + keySeparator + k.Item
}

func (k CheckKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText splits on the first separator. Keys without one decode to an
// item-less key that no catalog contains, so they are carried but ignored and
// re-encode exactly as read.
func (k *CheckKey) UnmarshalText(text []byte) error {
	s := string(text)
	habit, item, found := strings.Cut(s, keySeparator)
	if !found {
		*k = CheckKey{Habit: s, bare: true}
		return nil
	}
	*k = CheckKey{Habit: habit, Item: item}
	return nil
}

// Default returns the built-in Smoking / Eating / Exercise catalog.
func Default() Catalog {
	return Catalog{Habits: []Habit{
		{
			ID:    "smoking",
			Label: "Smoking",
			Icon:  "🚭",
			Items: []Item{
				{ID: "smoke_free", Label: "Smoke-free day", Points: 10},
				{ID: "no_vape", Label: "No vaping", Points: 10},
			},
			DailyGoal: 1,
		},
		{
			ID:    "eating",
			Label: "Eating",
			Icon:  "🥗",
			Items: []Item{
				{ID: "home_cooked", Label: "Home-cooked meals", Points: 10},
				{ID: "no_sugar", Label: "No added sugar", Points: 10},
				{ID: "veggies_5", Label: "5 servings of vegetables", Points: 10},
			},
			DailyGoal: 2,
		},
		{
			ID:    "exercise",
			Label: "Exercise",
			Icon:  "🏃",
			Items: []Item{
				{ID: "workout_30", Label: "30-minute workout", Points: 10},
				{ID: "walk_8k", Label: "8,000 steps", Points: 10},
				{ID: "stretch_10", Label: "10 minutes of stretching", Points: 10},
			},
			DailyGoal: 2,
		},
	}}
}

// Validate checks ids, goals and points.
func (c Catalog) Validate() error {
	if len(c.Habits) == 0 {
		return fmt.Errorf("%w: no habits", ErrInvalidCatalog)
	}
	habitIDs := make(map[string]bool, len(c.Habits))
	for _, h := range c.Habits {
		if err := validID(h.ID); err != nil {
			return fmt.Errorf("%w: habit %q: %v", ErrInvalidCatalog, h.ID, err)
		}
		if habitIDs[h.ID] {
			return fmt.Errorf("%w: duplicate habit %q", ErrInvalidCatalog, h.ID)
		}
		habitIDs[h.ID] = true

		if len(h.Items) == 0 {
			return fmt.Errorf("%w: habit %q has no items", ErrInvalidCatalog, h.ID)
		}
		if h.DailyGoal < 0 || h.DailyGoal > len(h.Items) {
			return fmt.Errorf("%w: habit %q daily goal %d outside [0,%d]", ErrInvalidCatalog, h.ID, h.DailyGoal, len(h.Items))
		}

		itemIDs := make(map[string]bool, len(h.Items))
		for _, it := range h.Items {
			if err := validID(it.ID); err != nil {
				return fmt.Errorf("%w: item %q of %q: %v", ErrInvalidCatalog, it.ID, h.ID, err)
			}
			if itemIDs[it.ID] {
				return fmt.Errorf("%w: duplicate item %q in %q", ErrInvalidCatalog, it.ID, h.ID)
			}
			itemIDs[it.ID] = true
			if it.Points < 0 {
				return fmt.Errorf("%w: item %q of %q has negative points", ErrInvalidCatalog, it.ID, h.ID)
			}
		}
	}
	return nil
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("empty id")
	}
	if strings.Contains(id, keySeparator) {
		return fmt.Errorf("id contains %q", keySeparator)
	}
	return nil
}

// Habit returns the habit with the given id.
func (c Catalog) Habit(id string) (Habit, bool) {
	for _, h := range c.Habits {
		if h.ID == id {
			return h, true
		}
	}
	return Habit{}, false
}

// Lookup resolves a key to its habit and item.
func (c Catalog) Lookup(k CheckKey) (Habit, Item, bool) {
	h, ok := c.Habit(k.Habit)
	if !ok {
		return Habit{}, Item{}, false
	}
	for _, it := range h.Items {
		if it.ID == k.Item {
			return h, it, true
		}
	}
	return Habit{}, Item{}, false
}

func (c Catalog) Contains(k CheckKey) bool {
	_, _, ok := c.Lookup(k)
	return ok
}

// Keys lists every sub-habit key, habits then items in catalog order.
func (c Catalog) Keys() []CheckKey {
	keys := make([]CheckKey, 0, c.ItemCount())
	for _, h := range c.Habits {
		for _, it := range h.Items {
			keys = append(keys, Key(h.ID, it.ID))
		}
	}
	return keys
}

// ItemCount is the total number of sub-habits across all habits.
func (c Catalog) ItemCount() int {
	n := 0
	for _, h := range c.Habits {
		n += len(h.Items)
	}
	return n
}
