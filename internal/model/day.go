package model

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/dukerupert/habitrack/internal/catalog"
)

// DayRecord holds the checked sub-habits for one date.
type DayRecord struct {
	Date   Date                      `json:"date"`
	Checks map[catalog.CheckKey]bool `json:"checks"`
}

// Checked reports whether key is checked on this day.
func (r DayRecord) Checked(k catalog.CheckKey) bool {
	return r.Checks[k]
}

func (r DayRecord) clone() DayRecord {
	return DayRecord{Date: r.Date, Checks: maps.Clone(r.Checks)}
}

// DayStore maps dates to day records. It is an immutable value: every
// mutating method returns a new DayStore and leaves the receiver untouched.
// The zero value is an empty store.
type DayStore struct {
	days map[Date]DayRecord
}

// NewDayStore builds a store from records. Records are copied.
func NewDayStore(records ...DayRecord) DayStore {
	days := make(map[Date]DayRecord, len(records))
	for _, r := range records {
		c := r.clone()
		if c.Checks == nil {
			c.Checks = map[catalog.CheckKey]bool{}
		}
		days[r.Date] = c
	}
	return DayStore{days: days}
}

// Record returns a copy of the record for date.
func (s DayStore) Record(date Date) (DayRecord, bool) {
	r, ok := s.days[date]
	if !ok {
		return DayRecord{}, false
	}
	return r.clone(), true
}

// Checked reports whether key is checked on date. Missing records read as unchecked.
func (s DayStore) Checked(date Date, k catalog.CheckKey) bool {
	return s.days[date].Checks[k]
}

// Len is the number of recorded dates.
func (s DayStore) Len() int { return len(s.days) }

// Dates returns the recorded dates in ascending order.
func (s DayStore) Dates() []Date {
	dates := slices.Collect(maps.Keys(s.days))
	slices.SortFunc(dates, compareDates)
	return dates
}

// Earliest returns the oldest recorded date.
func (s DayStore) Earliest() (Date, bool) {
	var earliest Date
	found := false
	for d := range s.days {
		if !found || d.Before(earliest) {
			earliest = d
			found = true
		}
	}
	return earliest, found
}

func (s DayStore) with(r DayRecord) DayStore {
	days := make(map[Date]DayRecord, len(s.days)+1)
	maps.Copy(days, s.days)
	days[r.Date] = r
	return DayStore{days: days}
}

// Toggle flips key on date, creating the record if needed.
func (s DayStore) Toggle(date Date, k catalog.CheckKey) DayStore {
	return s.Set(date, k, !s.Checked(date, k))
}

// Set records key as checked or unchecked on date, creating the record if needed.
func (s DayStore) Set(date Date, k catalog.CheckKey, checked bool) DayStore {
	r, ok := s.Record(date)
	if !ok {
		r = DayRecord{Date: date, Checks: map[catalog.CheckKey]bool{}}
	}
	r.Checks[k] = checked
	return s.with(r)
}

// Clear removes the record for date entirely.
func (s DayStore) Clear(date Date) DayStore {
	if _, ok := s.days[date]; !ok {
		return s
	}
	days := maps.Clone(s.days)
	delete(days, date)
	return DayStore{days: days}
}

func (s DayStore) MarshalJSON() ([]byte, error) {
	if s.days == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.days)
}

// UnmarshalJSON decodes the persisted form. The map key is authoritative for
// each record's date.
func (s *DayStore) UnmarshalJSON(data []byte) error {
	var raw map[Date]DayRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	records := make([]DayRecord, 0, len(raw))
	for d, r := range raw {
		r.Date = d
		records = append(records, r)
	}
	*s = NewDayStore(records...)
	return nil
}

func compareDates(a, b Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
