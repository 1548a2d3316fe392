package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_TicksUntilLimit(t *testing.T) {
	store := NewMemoryStore()
	c := New(Config{Direction: CountDown, Limit: 3 * time.Second, OvertimeLimit: time.Second})

	var ticks, limits atomic.Int32
	r := NewRunner(c, store, "fixture-1",
		WithInterval(time.Millisecond),
		OnTick(func(State) { ticks.Add(1) }),
		OnLimit(func(State) { limits.Add(1) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	_, err := r.Start(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return limits.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(3), ticks.Load())
	assert.True(t, r.Expired())

	saved, ok, err := store.Load(ctx, "fixture-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, saved.Running)
	assert.Equal(t, 0, saved.Seconds)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunner_PersistsTransitions(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	r := NewRunner(New(testConfig), store, "fixture-2", WithNow(func() time.Time { return now }))
	ctx := context.Background()

	s, err := r.Start(ctx)
	require.NoError(t, err)
	assert.True(t, s.Running)
	saved, _, _ := store.Load(ctx, "fixture-2")
	assert.Equal(t, s, saved)

	_, err = r.Start(ctx)
	assert.ErrorIs(t, err, ErrRunning)

	now = now.Add(5 * time.Second)
	s, err = r.Adjust(ctx, -time.Minute)
	require.NoError(t, err)
	assert.True(t, s.Running)
	assert.Equal(t, 6, s.Minutes)
	assert.Equal(t, now, *s.LastPersistedAt)

	s, err = r.Pause(ctx)
	require.NoError(t, err)
	assert.False(t, s.Running)
	saved, _, _ = store.Load(ctx, "fixture-2")
	assert.False(t, saved.Running)

	s, err = r.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Minutes)
	assert.Equal(t, r.State(), s)
}

func TestRunner_CancelPersistsRunningClock(t *testing.T) {
	store := NewMemoryStore()
	r := NewRunner(New(testConfig), store, "fixture-3", WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	_, err := r.Start(ctx)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return r.State().Minutes < 7 }, time.Second, time.Millisecond)

	cancel()
	<-done

	saved, ok, err := store.Load(context.Background(), "fixture-3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, saved.Running)
	assert.Equal(t, r.State(), saved)
}
