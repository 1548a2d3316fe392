package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sevenMinutes = clock.Config{Direction: clock.CountDown, Limit: 7 * time.Minute, OvertimeLimit: 2 * time.Minute}

type liveClock struct {
	runner *clock.Runner
	resets []clock.State
	closed int
	stop   func()
}

// watchClock opens a viewer's clock on the fixture the way the websocket
// feed does, and starts it.
func (h *harness) watchClock(t *testing.T, fixtureID uuid.UUID) *liveClock {
	t.Helper()
	key := ClockKey(fixtureID)
	c, _, err := clock.Resume(h.ctx, h.clocks, key, sevenMinutes, time.Now())
	require.NoError(t, err)

	lc := &liveClock{runner: clock.NewRunner(c, h.clocks, key, clock.WithInterval(time.Millisecond))}
	leave := h.hub.Join(key, lc.runner,
		func(s clock.State) { lc.resets = append(lc.resets, s) },
		func() { lc.closed++ },
	)

	ctx, cancel := context.WithCancel(h.ctx)
	done := make(chan struct{})
	go func() {
		_ = lc.runner.Run(ctx)
		close(done)
	}()
	lc.stop = func() {
		cancel()
		<-done
		leave()
	}
	t.Cleanup(func() {
		cancel()
		<-done
	})

	if !lc.runner.State().Running {
		_, err = lc.runner.Start(ctx)
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool { return lc.runner.State().Minutes < 7 }, time.Second, time.Millisecond)
	return lc
}

func assertFreshClock(t *testing.T, s clock.State) {
	t.Helper()
	assert.False(t, s.Running)
	assert.Equal(t, clock.ModeNormal, s.Mode)
	assert.Equal(t, 7, s.Minutes)
	assert.Equal(t, 0, s.Seconds)
}

func TestRotateTeams_ResetsLiveClocks(t *testing.T) {
	h := newHarness(t)
	f, match, roles := h.startedFixture(t)
	first := h.watchClock(t, f.ID)
	second := h.watchClock(t, f.ID)

	_, err := h.fixtures.RotateTeams(h.ctx, match.ID, role(t, roles, fixture.RoleHome).ID, role(t, roles, fixture.RoleAway).ID)
	require.NoError(t, err)

	for _, lc := range []*liveClock{first, second} {
		require.Len(t, lc.resets, 1)
		assertFreshClock(t, lc.resets[0])
		assertFreshClock(t, lc.runner.State())
	}

	// Viewers leaving afterwards must not bring the old clock back.
	first.stop()
	second.stop()
	s, ok, err := h.clocks.Load(h.ctx, ClockKey(f.ID))
	require.NoError(t, err)
	if ok {
		assertFreshClock(t, s)
	}

	c, _, err := clock.Resume(h.ctx, h.clocks, ClockKey(f.ID), sevenMinutes, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assertFreshClock(t, c.State())
}

func TestEndFixture_ResetsLiveClocks(t *testing.T) {
	h := newHarness(t)
	f, _, _ := h.startedFixture(t)
	lc := h.watchClock(t, f.ID)

	_, err := h.fixtures.EndFixture(h.ctx, f.ID)
	require.NoError(t, err)

	require.Len(t, lc.resets, 1)
	assertFreshClock(t, lc.runner.State())
	lc.stop()

	_, ok, err := h.clocks.Load(h.ctx, ClockKey(f.ID))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteFixture_ClosesLiveClocks(t *testing.T) {
	h := newHarness(t)
	f, _, _ := h.startedFixture(t)
	lc := h.watchClock(t, f.ID)

	require.NoError(t, h.fixtures.DeleteFixture(h.ctx, f.ID))
	assert.Equal(t, 1, lc.closed)
	assert.Zero(t, h.hub.Len(ClockKey(f.ID)))

	_, err := lc.runner.Start(h.ctx)
	require.NoError(t, err)
	lc.stop()

	_, ok, err := h.clocks.Load(h.ctx, ClockKey(f.ID))
	require.NoError(t, err)
	assert.False(t, ok, "no snapshot survives its fixture")
}

func TestCanManage(t *testing.T) {
	h := newHarness(t)
	f, _, _ := h.startedFixture(t)

	assert.NoError(t, h.fixtures.CanManage(h.ctx, f.ID))
	other := middleware.WithUserID(context.Background(), uuid.New())
	assert.ErrorIs(t, h.fixtures.CanManage(other, f.ID), fixture.ErrForbidden)
	assert.ErrorIs(t, h.fixtures.CanManage(h.ctx, uuid.New()), fixture.ErrNotFound)
}
