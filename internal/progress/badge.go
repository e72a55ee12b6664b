package progress

// Badge is a streak milestone.
type Badge struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Threshold int    `json:"threshold"`
}

// Thresholds are ascending. IDs are persisted by clients, keep them stable.
var badges = []Badge{
	{ID: "bronze_3", Label: "Bronze", Threshold: 3},
	{ID: "silver_7", Label: "Silver", Threshold: 7},
	{ID: "gold_14", Label: "Gold", Threshold: 14},
	{ID: "platinum_30", Label: "Platinum", Threshold: 30},
}

// AllBadges returns every badge in ascending threshold order.
func AllBadges() []Badge {
	out := make([]Badge, len(badges))
	copy(out, badges)
	return out
}

// Badges returns every badge unlocked by streak.
func Badges(streak int) []Badge {
	unlocked := []Badge{}
	for _, b := range badges {
		if streak >= b.Threshold {
			unlocked = append(unlocked, b)
		}
	}
	return unlocked
}

// NextBadge returns the first badge not yet unlocked by streak.
func NextBadge(streak int) (Badge, bool) {
	for _, b := range badges {
		if streak < b.Threshold {
			return b, true
		}
	}
	return Badge{}, false
}
