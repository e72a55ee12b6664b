package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/dukerupert/habitrack/internal/catalog"
	"github.com/dukerupert/habitrack/internal/model"
)

func TestWriteCSVEmptyStore(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, catalog.Default(), model.DayStore{})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != 0 {
		t.Errorf("rows = %d, want 0", n)
	}
	if got := buf.String(); got != "date,habitId,itemId,checked\n" {
		t.Errorf("output = %q", got)
	}
}

func TestWriteCSVRowsPerDatePerItem(t *testing.T) {
	cat := catalog.Default()
	d1, _ := model.ParseDate("2026-02-06")
	d2, _ := model.ParseDate("2026-02-05")
	days := model.DayStore{}.
		Set(d1, catalog.Key("smoking", "smoke_free"), true).
		Set(d2, catalog.Key("exercise", "walk_8k"), true).
		Set(d2, catalog.Key("eating", "no_sugar"), false).
		Set(d2, catalog.Key("stale", "thing"), true)

	var buf bytes.Buffer
	n, err := WriteCSV(&buf, cat, days)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	want := days.Len() * cat.ItemCount()
	if n != want {
		t.Errorf("rows = %d, want %d", n, want)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != want+1 {
		t.Fatalf("records = %d, want %d", len(records), want+1)
	}

	// Dates ascending, catalog order within a date.
	if got := strings.Join(records[1], ","); got != "2026-02-05,smoking,smoke_free,0" {
		t.Errorf("first row = %s", got)
	}
	if got := strings.Join(records[len(records)-1], ","); got != "2026-02-06,exercise,stretch_10,0" {
		t.Errorf("last row = %s", got)
	}

	checked := map[string]bool{}
	for _, r := range records[1:] {
		if r[3] == "1" {
			checked[r[0]+" "+r[1]+"."+r[2]] = true
		}
	}
	if len(checked) != 2 || !checked["2026-02-05 exercise.walk_8k"] || !checked["2026-02-06 smoking.smoke_free"] {
		t.Errorf("checked rows = %v", checked)
	}
}

func TestFilename(t *testing.T) {
	d, _ := model.ParseDate("2026-02-05")
	if got := Filename(d); got != "habits-2026-02-05.csv" {
		t.Errorf("filename = %q", got)
	}
}
