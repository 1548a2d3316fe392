package clock

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner drives a Clock on a recurring ticker and persists its snapshot on
// every transition. It is owned by one viewer; Run returns when its context
// is cancelled so no ticker outlives the viewer.
type Runner struct {
	mu    sync.Mutex
	clock *Clock
	store Store
	key   string

	interval time.Duration
	now      func() time.Time
	readOnly bool
	onTick   func(State)
	onLimit  func(State)
}

type RunnerOption func(*Runner)

// WithInterval sets how often the clock ticks. Each tick is one clock
// second regardless of the interval.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.interval = d }
}

func WithNow(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// ReadOnly keeps the runner from writing snapshots. The clock still runs
// in memory.
func ReadOnly() RunnerOption {
	return func(r *Runner) { r.readOnly = true }
}

// OnTick is called after every tick with the new state.
func OnTick(fn func(State)) RunnerOption {
	return func(r *Runner) { r.onTick = fn }
}

// OnLimit is called once each time the clock stops at its limit.
func OnLimit(fn func(State)) RunnerOption {
	return func(r *Runner) { r.onLimit = fn }
}

func NewRunner(c *Clock, store Store, key string, opts ...RunnerOption) *Runner {
	r := &Runner{
		clock:    c,
		store:    store,
		key:      key,
		interval: time.Second,
		now:      time.Now,
		onTick:   func(State) {},
		onLimit:  func(State) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.clock.Running() {
				r.persist(context.WithoutCancel(ctx))
			}
			r.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	r.mu.Lock()
	if !r.clock.Running() {
		r.mu.Unlock()
		return
	}
	limitReached := r.clock.Tick()
	if limitReached {
		r.persist(ctx)
	}
	state := r.clock.State()
	r.mu.Unlock()

	r.onTick(state)
	if limitReached {
		r.onLimit(state)
	}
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock.State()
}

func (r *Runner) Expired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock.Expired()
}

func (r *Runner) Start(ctx context.Context) (State, error) {
	return r.apply(ctx, func(c *Clock) error { return c.Start(r.now()) })
}

func (r *Runner) Pause(ctx context.Context) (State, error) {
	return r.apply(ctx, func(c *Clock) error { return c.Pause(r.now()) })
}

func (r *Runner) Adjust(ctx context.Context, delta time.Duration) (State, error) {
	return r.apply(ctx, func(c *Clock) error {
		c.Adjust(delta)
		return nil
	})
}

func (r *Runner) EnterOvertime(ctx context.Context) (State, error) {
	return r.apply(ctx, func(c *Clock) error { return c.EnterOvertime() })
}

func (r *Runner) Reset(ctx context.Context) (State, error) {
	return r.apply(ctx, func(c *Clock) error {
		c.Reset()
		return nil
	})
}

// Detach stops and rewinds the clock and turns the runner read-only, for a
// clock whose fixture is gone.
func (r *Runner) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock.Reset()
	r.readOnly = true
}

func (r *Runner) apply(ctx context.Context, fn func(*Clock) error) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fn(r.clock); err != nil {
		return r.clock.State(), err
	}
	return r.persist(ctx), nil
}

// persist writes the snapshot. Failures are logged and otherwise ignored:
// the snapshot is best-effort local state. Callers hold r.mu.
func (r *Runner) persist(ctx context.Context) State {
	s := r.clock.Snapshot(r.now())
	if r.readOnly {
		return s
	}
	if err := r.store.Save(ctx, r.key, s); err != nil {
		slog.Warn("failed to persist clock snapshot", "key", r.key, "error", err)
	}
	return s
}
