package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dukerupert/habitrack/internal/catalog"
	"github.com/dukerupert/habitrack/internal/model"
)

var header = []string{"date", "habitId", "itemId", "checked"}

// WriteCSV writes one row per recorded date and catalog item. Items with no
// recorded check are written as 0. Returns the number of data rows.
func WriteCSV(w io.Writer, cat catalog.Catalog, days model.DayStore) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	keys := cat.Keys()
	rows := 0
	for _, d := range days.Dates() {
		date := d.String()
		for _, k := range keys {
			checked := "0"
			if days.Checked(d, k) {
				checked = "1"
			}
			if err := cw.Write([]string{date, k.Habit, k.Item, checked}); err != nil {
				return rows, fmt.Errorf("write row: %w", err)
			}
			rows++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush csv: %w", err)
	}
	return rows, nil
}

// Filename is the suggested download name for an export made on date.
func Filename(date model.Date) string {
	return fmt.Sprintf("habits-%s.csv", date)
}
