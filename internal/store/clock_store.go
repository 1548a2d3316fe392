package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/jmoiron/sqlx"
)

// ClockStore keeps clock snapshots as JSON under an opaque key.
type ClockStore struct {
	db *sqlx.DB
}

var _ clock.Store = (*ClockStore)(nil)

func NewClockStore(db *sqlx.DB) *ClockStore {
	return &ClockStore{db: db}
}

func (s *ClockStore) Load(ctx context.Context, key string) (clock.State, bool, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, "SELECT state FROM clock_snapshots WHERE snapshot_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return clock.State{}, false, nil
	}
	if err != nil {
		return clock.State{}, false, err
	}

	var state clock.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return clock.State{}, false, err
	}
	return state, true, nil
}

func (s *ClockStore) Save(ctx context.Context, key string, state clock.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO clock_snapshots (snapshot_key, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (snapshot_key) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		key, string(raw), time.Now().UTC())
	return err
}

func (s *ClockStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM clock_snapshots WHERE snapshot_key = ?", key)
	return err
}

func (s *ClockStore) DeleteTx(ctx context.Context, tx *sqlx.Tx, key string) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM clock_snapshots WHERE snapshot_key = ?", key)
	return err
}
