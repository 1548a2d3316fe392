package clock

import (
	"context"
	"sync"
	"time"
)

// Store persists clock snapshots under an opaque key, normally the fixture
// ID. Writes are not transactional with anything else.
type Store interface {
	Load(ctx context.Context, key string) (State, bool, error)
	Save(ctx context.Context, key string, s State) error
	Delete(ctx context.Context, key string) error
}

type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[key]
	return s, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}

// Resume loads the persisted clock for key and applies recovery. A missing
// snapshot yields a fresh clock. If recovery moved the clock, the new
// snapshot is written back before returning, so the same interval is never
// replayed. The bool reports whether recovery hit the limit.
func Resume(ctx context.Context, store Store, key string, cfg Config, now time.Time) (*Clock, bool, error) {
	s, ok, err := store.Load(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return New(cfg), false, nil
	}

	c := Restore(cfg, s)
	before := c.Elapsed()
	limitReached := c.Recover(now)
	if c.Elapsed() != before {
		if err := store.Save(ctx, key, c.State()); err != nil {
			return c, limitReached, err
		}
	}
	return c, limitReached, nil
}
