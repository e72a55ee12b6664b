package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/habitrack/internal/catalog"
	"github.com/dukerupert/habitrack/internal/model"
	"github.com/dukerupert/habitrack/internal/progress"
)

var (
	ErrUnknownHabit      = errors.New("unknown habit or item")
	ErrResetNotConfirmed = errors.New("reset not confirmed")
)

// Persister loads and saves the whole day store. Delete drops it entirely.
type Persister interface {
	Load(ctx context.Context) (model.DayStore, error)
	Save(ctx context.Context, days model.DayStore) error
	Delete(ctx context.Context) error
}

type ChangeKind string

const (
	ChangeDayUpdated    ChangeKind = "day_updated"
	ChangeDayCleared    ChangeKind = "day_cleared"
	ChangeStoreReset    ChangeKind = "store_reset"
	ChangeStoreReplaced ChangeKind = "store_replaced"
)

// Change describes a committed mutation. Date is zero for store-wide changes.
type Change struct {
	Kind ChangeKind
	Date model.Date
}

// ChangeCallback is invoked after a mutation has been persisted.
type ChangeCallback func(Change)

// Config holds tracker options.
type Config struct {
	Catalog     catalog.Catalog
	StreakLimit int
	Location    *time.Location
	Now         func() time.Time
}

// Service owns the current day store snapshot. Each mutation derives a new
// snapshot, saves it, and only then makes it current.
type Service struct {
	mu       sync.RWMutex
	days     model.DayStore
	persist  Persister
	cat      catalog.Catalog
	limit    int
	loc      *time.Location
	now      func() time.Time
	onChange ChangeCallback
	logger   *slog.Logger
}

// New validates the catalog and returns a Service with an empty store.
// Call Load to read persisted state.
func New(cfg Config, p Persister, onChange ChangeCallback, logger *slog.Logger) (*Service, error) {
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		persist:  p,
		cat:      cfg.Catalog,
		limit:    cfg.StreakLimit,
		loc:      cfg.Location,
		now:      cfg.Now,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Load replaces the in-memory snapshot with persisted state. Storage that
// cannot be read leaves the tracker empty; the error is logged, not returned.
func (s *Service) Load(ctx context.Context) {
	days, err := s.persist.Load(ctx)
	if err != nil {
		s.logger.Warn("load state failed, starting empty", "error", err)
		days = model.DayStore{}
	}
	s.mu.Lock()
	s.days = days
	s.mu.Unlock()
	s.logger.Info("state loaded", "days", days.Len())
}

// Snapshot returns the current day store. The value is immutable.
func (s *Service) Snapshot() model.DayStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.days
}

func (s *Service) Catalog() catalog.Catalog { return s.cat }

// Today is the current calendar date in the tracker's location.
func (s *Service) Today() model.Date {
	return model.DateOf(s.now().In(s.loc))
}

// Toggle flips one sub-habit on date.
func (s *Service) Toggle(ctx context.Context, date model.Date, key catalog.CheckKey) (model.DayRecord, error) {
	if !s.cat.Contains(key) {
		return model.DayRecord{}, fmt.Errorf("%w: %s", ErrUnknownHabit, key)
	}
	next, err := s.commit(ctx, Change{Kind: ChangeDayUpdated, Date: date}, func(days model.DayStore) model.DayStore {
		return days.Toggle(date, key)
	})
	if err != nil {
		return model.DayRecord{}, err
	}
	r, _ := next.Record(date)
	return r, nil
}

// Set records one sub-habit as checked or unchecked on date.
func (s *Service) Set(ctx context.Context, date model.Date, key catalog.CheckKey, checked bool) (model.DayRecord, error) {
	if !s.cat.Contains(key) {
		return model.DayRecord{}, fmt.Errorf("%w: %s", ErrUnknownHabit, key)
	}
	next, err := s.commit(ctx, Change{Kind: ChangeDayUpdated, Date: date}, func(days model.DayStore) model.DayStore {
		return days.Set(date, key, checked)
	})
	if err != nil {
		return model.DayRecord{}, err
	}
	r, _ := next.Record(date)
	return r, nil
}

// ClearDay removes every check recorded for date.
func (s *Service) ClearDay(ctx context.Context, date model.Date) error {
	_, err := s.commit(ctx, Change{Kind: ChangeDayCleared, Date: date}, func(days model.DayStore) model.DayStore {
		return days.Clear(date)
	})
	return err
}

// Reset wipes the whole store. It refuses unless confirmed is true.
func (s *Service) Reset(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrResetNotConfirmed
	}
	_, err := s.commit(ctx, Change{Kind: ChangeStoreReset}, func(model.DayStore) model.DayStore {
		return model.DayStore{}
	})
	return err
}

// Replace swaps in a whole store, e.g. one restored from a backup.
func (s *Service) Replace(ctx context.Context, days model.DayStore) error {
	_, err := s.commit(ctx, Change{Kind: ChangeStoreReplaced}, func(model.DayStore) model.DayStore {
		return days
	})
	return err
}

// Summary returns progress, streak, badges and points for date.
func (s *Service) Summary(date model.Date) progress.Summary {
	return progress.Summarize(s.cat, s.Snapshot(), date, s.limit)
}

// Window returns per-day progress for the days ending at end.
func (s *Service) Window(end model.Date, days int) []progress.DayProgress {
	return progress.Window(s.cat, s.Snapshot(), end, days)
}

func (s *Service) commit(ctx context.Context, change Change, mutate func(model.DayStore) model.DayStore) (model.DayStore, error) {
	s.mu.Lock()
	next := mutate(s.days)
	var err error
	if change.Kind == ChangeStoreReset {
		err = s.persist.Delete(ctx)
	} else {
		err = s.persist.Save(ctx, next)
	}
	if err != nil {
		s.mu.Unlock()
		return model.DayStore{}, fmt.Errorf("persist %s: %w", change.Kind, err)
	}
	s.days = next
	s.mu.Unlock()

	s.logger.Debug("state changed", "kind", change.Kind, "date", change.Date, "days", next.Len())
	if s.onChange != nil {
		s.onChange(change)
	}
	return next, nil
}
