package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/habitrack/internal/model"
)

// StateKey is the fixed storage key for the day store document. The schema
// behind it has never been versioned; do not change it.
const StateKey = "habit-tracker-v1"

// StateStore keeps the whole day store as one JSON document.
type StateStore struct {
	db     *sql.DB
	key    string
	logger *slog.Logger
}

func NewStateStore(db *sql.DB, logger *slog.Logger) *StateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateStore{db: db, key: StateKey, logger: logger}
}

// Load reads the stored document. A missing or unparsable document yields an
// empty store and no error; only database failures are returned.
func (s *StateStore) Load(ctx context.Context) (model.DayStore, error) {
	raw, err := s.LoadRaw(ctx)
	if err != nil {
		return model.DayStore{}, err
	}
	if raw == nil {
		return model.DayStore{}, nil
	}

	var days model.DayStore
	if err := json.Unmarshal(raw, &days); err != nil {
		s.logger.Warn("stored state unreadable, starting empty", "key", s.key, "error", err)
		return model.DayStore{}, nil
	}
	return days, nil
}

// LoadRaw returns the stored bytes, or nil when nothing is stored.
func (s *StateStore) LoadRaw(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM storage WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return []byte(value), nil
}

// Save replaces the stored document with days.
func (s *StateStore) Save(ctx context.Context, days model.DayStore) error {
	data, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return s.SaveRaw(ctx, data)
}

// SaveRaw stores data verbatim under the state key.
func (s *StateStore) SaveRaw(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO storage (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Delete removes the stored document.
func (s *StateStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM storage WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}
