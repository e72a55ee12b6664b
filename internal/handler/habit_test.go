package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/habitrack/internal/catalog"
	"github.com/dukerupert/habitrack/internal/database"
	"github.com/dukerupert/habitrack/internal/model"
	"github.com/dukerupert/habitrack/internal/store"
	"github.com/dukerupert/habitrack/internal/tracker"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.MemoryPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupHabitHandler(t *testing.T) (*HabitHandler, *tracker.Service) {
	t.Helper()
	db := setupTestDB(t)
	now := func() time.Time { return time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC) }
	svc, err := tracker.New(tracker.Config{Catalog: catalog.Default(), Location: time.UTC, Now: now},
		store.NewStateStore(db, slog.Default()), nil, slog.Default())
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	svc.Load(context.Background())
	return NewHabitHandler(svc, slog.Default()), svc
}

// serve routes a single request through a mux so path values are populated.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeDay(t *testing.T, rec *httptest.ResponseRecorder) dayResponse {
	t.Helper()
	var resp dayResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestCatalog(t *testing.T) {
	h, _ := setupHabitHandler(t)
	rec := serve("GET /api/catalog", h.Catalog, httptest.NewRequest("GET", "/api/catalog", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var cat catalog.Catalog
	if err := json.NewDecoder(rec.Body).Decode(&cat); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cat.Habits) != 3 || cat.Habits[0].ID != "smoking" {
		t.Errorf("catalog = %+v", cat)
	}
}

func TestToggleAndDay(t *testing.T) {
	h, svc := setupHabitHandler(t)
	const pattern = "POST /api/days/{date}/checks/{habit}/{item}/toggle"

	rec := serve(pattern, h.Toggle, httptest.NewRequest("POST", "/api/days/2026-02-05/checks/eating/home_cooked/toggle", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeDay(t, rec)
	if !resp.Record.Checked(catalog.Key("eating", "home_cooked")) {
		t.Error("expected check recorded")
	}
	if got := resp.Summary.Progress.Habits[1].Percent; got != 33 {
		t.Errorf("eating percent = %d, want 33", got)
	}

	// "today" resolves to the tracker's clock.
	rec = serve("GET /api/days/{date}", h.Day, httptest.NewRequest("GET", "/api/days/today", nil))
	resp = decodeDay(t, rec)
	if resp.Record.Date.String() != "2026-02-05" || len(resp.Record.Checks) != 1 {
		t.Errorf("today record = %+v", resp.Record)
	}

	// Toggling again unchecks.
	serve(pattern, h.Toggle, httptest.NewRequest("POST", "/api/days/2026-02-05/checks/eating/home_cooked/toggle", nil))
	if svc.Snapshot().Checked(resp.Record.Date, catalog.Key("eating", "home_cooked")) {
		t.Error("second toggle should uncheck")
	}
}

func TestToggleRejectsBadInput(t *testing.T) {
	h, svc := setupHabitHandler(t)
	const pattern = "POST /api/days/{date}/checks/{habit}/{item}/toggle"

	tests := []struct {
		name string
		path string
	}{
		{"bad date", "/api/days/2026-02-30/checks/eating/home_cooked/toggle"},
		{"unknown habit", "/api/days/2026-02-05/checks/sleeping/eight_hours/toggle"},
		{"unknown item", "/api/days/2026-02-05/checks/eating/pizza/toggle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(pattern, h.Toggle, httptest.NewRequest("POST", tt.path, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
	if svc.Snapshot().Len() != 0 {
		t.Error("rejected requests must not create records")
	}
}

func TestSet(t *testing.T) {
	h, _ := setupHabitHandler(t)
	const pattern = "PUT /api/days/{date}/checks/{habit}/{item}"

	req := httptest.NewRequest("PUT", "/api/days/2026-02-04/checks/smoking/smoke_free", strings.NewReader(`{"checked":true}`))
	rec := serve(pattern, h.Set, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeDay(t, rec)
	if !resp.Summary.Progress.Habits[0].GoalMet {
		t.Error("smoking goal should be met")
	}

	// Missing field and junk body are both rejected.
	for _, body := range []string{`{}`, `{"checked":`, `{"checked":true,"extra":1}`} {
		req := httptest.NewRequest("PUT", "/api/days/2026-02-04/checks/smoking/smoke_free", strings.NewReader(body))
		if rec := serve(pattern, h.Set, req); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestClear(t *testing.T) {
	h, svc := setupHabitHandler(t)
	d, _ := model.ParseDate("2026-02-03")
	svc.Toggle(context.Background(), d, catalog.Key("exercise", "walk_8k"))

	rec := serve("DELETE /api/days/{date}", h.Clear, httptest.NewRequest("DELETE", "/api/days/2026-02-03", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := svc.Snapshot().Record(d); ok {
		t.Error("record should be gone")
	}
}

func TestResetRequiresConfirm(t *testing.T) {
	h, svc := setupHabitHandler(t)
	d, _ := model.ParseDate("2026-02-03")
	svc.Toggle(context.Background(), d, catalog.Key("exercise", "walk_8k"))

	for _, body := range []string{"", `{"confirm":false}`} {
		rec := serve("POST /api/reset", h.Reset, httptest.NewRequest("POST", "/api/reset", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
	if svc.Snapshot().Len() != 1 {
		t.Fatal("unconfirmed reset wiped data")
	}

	rec := serve("POST /api/reset", h.Reset, httptest.NewRequest("POST", "/api/reset", strings.NewReader(`{"confirm":true}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.Snapshot().Len() != 0 {
		t.Error("confirmed reset should wipe data")
	}
}

func TestWindow(t *testing.T) {
	h, _ := setupHabitHandler(t)

	rec := serve("GET /api/days", h.Window, httptest.NewRequest("GET", "/api/days?end=2026-02-05&days=3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp windowResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Days) != 3 || resp.Days[0].Date.String() != "2026-02-03" || resp.Days[2].Date.String() != "2026-02-05" {
		t.Errorf("window = %+v", resp.Days)
	}

	rec = serve("GET /api/days", h.Window, httptest.NewRequest("GET", "/api/days", nil))
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Days) != defaultWindowDays {
		t.Errorf("default window = %d days", len(resp.Days))
	}

	for _, q := range []string{"?days=0", "?days=63", "?days=x", "?end=yesterday"} {
		if rec := serve("GET /api/days", h.Window, httptest.NewRequest("GET", "/api/days"+q, nil)); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestExportCSV(t *testing.T) {
	h, svc := setupHabitHandler(t)
	d, _ := model.ParseDate("2026-02-04")
	svc.Toggle(context.Background(), d, catalog.Key("smoking", "no_vape"))

	rec := serve("GET /api/export.csv", h.ExportCSV, httptest.NewRequest("GET", "/api/export.csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "habits-2026-02-05.csv") {
		t.Errorf("content-disposition = %q", cd)
	}
	rows, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 1+catalog.Default().ItemCount() {
		t.Errorf("rows = %d", len(rows))
	}
	if strings.Join(rows[2], ",") != "2026-02-04,smoking,no_vape,1" {
		t.Errorf("row = %v", rows[2])
	}
}
