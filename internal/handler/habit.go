package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/habitrack/internal/catalog"
	"github.com/dukerupert/habitrack/internal/export"
	"github.com/dukerupert/habitrack/internal/model"
	"github.com/dukerupert/habitrack/internal/progress"
	"github.com/dukerupert/habitrack/internal/tracker"
)

const (
	defaultWindowDays = 7
	maxWindowDays     = 62
)

type HabitHandler struct {
	svc    *tracker.Service
	logger *slog.Logger
}

func NewHabitHandler(svc *tracker.Service, logger *slog.Logger) *HabitHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HabitHandler{svc: svc, logger: logger}
}

type dayResponse struct {
	Record  model.DayRecord  `json:"record"`
	Summary progress.Summary `json:"summary"`
}

type windowResponse struct {
	End  model.Date             `json:"end"`
	Days []progress.DayProgress `json:"days"`
}

type setRequest struct {
	Checked *bool `json:"checked"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *HabitHandler) day(date model.Date) dayResponse {
	rec, ok := h.svc.Snapshot().Record(date)
	if !ok {
		rec = model.DayRecord{Date: date, Checks: map[catalog.CheckKey]bool{}}
	}
	return dayResponse{Record: rec, Summary: h.svc.Summary(date)}
}

func (h *HabitHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Catalog())
}

func (h *HabitHandler) Day(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, h.svc.Today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.day(date))
}

// Window returns per-day progress for the date strip, oldest first.
func (h *HabitHandler) Window(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	end, err := parseDate(q.Get("end"), h.svc.Today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n := defaultWindowDays
	if s := q.Get("days"); s != "" {
		n, err = strconv.Atoi(s)
		if err != nil || n < 1 || n > maxWindowDays {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", maxWindowDays))
			return
		}
	}

	writeJSON(w, http.StatusOK, windowResponse{End: end, Days: h.svc.Window(end, n)})
}

func (h *HabitHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, h.svc.Today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := catalog.Key(r.PathValue("habit"), r.PathValue("item"))

	if _, err := h.svc.Toggle(r.Context(), date, key); err != nil {
		h.mutationError(w, "toggle", err)
		return
	}
	writeJSON(w, http.StatusOK, h.day(date))
}

func (h *HabitHandler) Set(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, h.svc.Today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req setRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Checked == nil {
		writeError(w, http.StatusBadRequest, "checked is required")
		return
	}
	key := catalog.Key(r.PathValue("habit"), r.PathValue("item"))

	if _, err := h.svc.Set(r.Context(), date, key, *req.Checked); err != nil {
		h.mutationError(w, "set check", err)
		return
	}
	writeJSON(w, http.StatusOK, h.day(date))
}

// Clear removes every check recorded for the date.
func (h *HabitHandler) Clear(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, h.svc.Today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ClearDay(r.Context(), date); err != nil {
		h.mutationError(w, "clear day", err)
		return
	}
	writeJSON(w, http.StatusOK, h.day(date))
}

func (h *HabitHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.svc.Reset(r.Context(), req.Confirm); err != nil {
		h.mutationError(w, "reset", err)
		return
	}
	h.logger.Info("store reset", "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *HabitHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(h.svc.Today())))
	rows, err := export.WriteCSV(w, h.svc.Catalog(), h.svc.Snapshot())
	if err != nil {
		// Headers are gone by now; all we can do is log.
		h.logger.Error("export csv failed", "rows", rows, "error", err)
		return
	}
	h.logger.Debug("export csv", "rows", rows)
}

func (h *HabitHandler) mutationError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, tracker.ErrUnknownHabit):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrResetNotConfirmed):
		writeError(w, http.StatusBadRequest, "reset requires {\"confirm\": true}")
	default:
		h.logger.Error("mutation failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}
