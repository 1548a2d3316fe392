// Package clock implements the per-fixture match clock: a countdown or
// countup timer with pause/resume whose state is persisted as a snapshot so
// it can be reconstructed after a reload.
package clock

import (
	"errors"
	"fmt"
	"time"
)

type Mode string

const (
	ModeNormal   Mode = "normal"
	ModeOvertime Mode = "overtime"
)

type Direction string

const (
	CountDown Direction = "down"
	CountUp   Direction = "up"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case CountDown, CountUp:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown clock direction %q", s)
}

var (
	ErrRunning      = errors.New("clock is running")
	ErrStopped      = errors.New("clock is stopped")
	ErrLimitReached = errors.New("clock has reached its limit")
)

type Config struct {
	Direction     Direction
	Limit         time.Duration
	OvertimeLimit time.Duration
}

func (c Config) limit(m Mode) time.Duration {
	if m == ModeOvertime {
		return c.OvertimeLimit
	}
	return c.Limit
}

// State is the persisted snapshot. Minutes and Seconds are what the clock
// displays: time remaining when counting down, time elapsed when counting up.
type State struct {
	Minutes         int        `json:"minutes"`
	Seconds         int        `json:"seconds"`
	Running         bool       `json:"running"`
	Mode            Mode       `json:"mode"`
	LastPersistedAt *time.Time `json:"last_persisted_at,omitempty"`
}

func (s State) Display() time.Duration {
	return time.Duration(s.Minutes)*time.Minute + time.Duration(s.Seconds)*time.Second
}

// String formats the display as mm:ss.
func (s State) String() string {
	return fmt.Sprintf("%02d:%02d", s.Minutes, s.Seconds)
}

type Clock struct {
	cfg         Config
	mode        Mode
	elapsed     time.Duration
	running     bool
	persistedAt *time.Time
}

// New returns a stopped clock at its initial normal-mode value.
func New(cfg Config) *Clock {
	return &Clock{cfg: cfg, mode: ModeNormal}
}

// Restore rebuilds a clock from a snapshot exactly as persisted. Call
// Recover to account for the time that passed since.
func Restore(cfg Config, s State) *Clock {
	c := &Clock{cfg: cfg, mode: s.Mode, running: s.Running, persistedAt: s.LastPersistedAt}
	if c.mode != ModeOvertime {
		c.mode = ModeNormal
	}

	shown := s.Display()
	if cfg.Direction == CountUp {
		c.elapsed = shown
	} else {
		c.elapsed = c.Limit() - shown
	}
	c.clamp()
	return c
}

func (c *Clock) Limit() time.Duration {
	return c.cfg.limit(c.mode)
}

func (c *Clock) Mode() Mode { return c.mode }

func (c *Clock) Running() bool { return c.running }

func (c *Clock) Elapsed() time.Duration { return c.elapsed }

func (c *Clock) Remaining() time.Duration {
	return c.Limit() - c.elapsed
}

func (c *Clock) Expired() bool {
	return c.elapsed >= c.Limit()
}

func (c *Clock) State() State {
	shown := c.elapsed
	if c.cfg.Direction != CountUp {
		shown = c.Remaining()
	}
	shown = shown.Truncate(time.Second)

	return State{
		Minutes:         int(shown / time.Minute),
		Seconds:         int((shown % time.Minute) / time.Second),
		Running:         c.running,
		Mode:            c.mode,
		LastPersistedAt: c.persistedAt,
	}
}

// Snapshot stamps the clock as persisted at now and returns the state to
// write.
func (c *Clock) Snapshot(now time.Time) State {
	c.persistedAt = &now
	return c.State()
}

func (c *Clock) Start(now time.Time) error {
	if c.running {
		return ErrRunning
	}
	if c.Expired() {
		return ErrLimitReached
	}
	c.running = true
	c.persistedAt = &now
	return nil
}

func (c *Clock) Pause(now time.Time) error {
	if !c.running {
		return ErrStopped
	}
	c.running = false
	c.persistedAt = &now
	return nil
}

// Tick advances a running clock by one second. It reports true when the
// clock reaches its limit, at which point it has stopped itself.
func (c *Clock) Tick() bool {
	if !c.running {
		return false
	}
	c.elapsed += time.Second
	return c.stopAtLimit()
}

// Adjust moves the displayed time by delta without touching the running
// flag. Positive delta adds time to the display, so it gives time back on a
// countdown and adds elapsed time on a countup. The result is clamped to the
// mode's range.
func (c *Clock) Adjust(delta time.Duration) {
	if c.cfg.Direction == CountUp {
		c.elapsed += delta
	} else {
		c.elapsed -= delta
	}
	c.clamp()
}

// Recover advances a running clock by the wall-clock time since its last
// persisted snapshot. Only whole seconds are applied and the snapshot time
// moves forward by the same amount, so recovering twice never counts the
// same interval twice. It reports true if the limit was reached.
func (c *Clock) Recover(now time.Time) bool {
	if !c.running || c.persistedAt == nil {
		return false
	}

	advance := now.Sub(*c.persistedAt).Truncate(time.Second)
	if advance <= 0 {
		return false
	}
	c.elapsed += advance
	at := c.persistedAt.Add(advance)
	c.persistedAt = &at

	return c.stopAtLimit()
}

// EnterOvertime switches a stopped normal-mode clock to overtime, starting
// from the overtime initial value.
func (c *Clock) EnterOvertime() error {
	if c.running {
		return ErrRunning
	}
	if c.mode == ModeOvertime {
		return fmt.Errorf("clock is already in overtime")
	}
	c.mode = ModeOvertime
	c.elapsed = 0
	return nil
}

// Reset returns the clock to its initial normal-mode value, stopped.
func (c *Clock) Reset() {
	c.mode = ModeNormal
	c.elapsed = 0
	c.running = false
}

func (c *Clock) stopAtLimit() bool {
	if c.elapsed < c.Limit() {
		return false
	}
	c.elapsed = c.Limit()
	c.running = false
	return true
}

func (c *Clock) clamp() {
	if c.elapsed < 0 {
		c.elapsed = 0
	}
	if limit := c.Limit(); c.elapsed > limit {
		c.elapsed = limit
	}
}
