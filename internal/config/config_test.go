package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, 2, c.GoalThreshold)
	assert.Equal(t, 24*time.Hour, c.SessionLifetime)
	assert.Equal(t, clock.Config{Direction: clock.CountDown, Limit: 7 * time.Minute, OvertimeLimit: 2 * time.Minute}, c.Clock())
	assert.Empty(t, c.AMQPURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GOAL_THRESHOLD", "3")
	t.Setenv("CLOCK_DIRECTION", "up")
	t.Setenv("MATCH_MINUTES", "10")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOG_LEVEL", "DEBUG")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, c.GoalThreshold)
	assert.Equal(t, clock.CountUp, c.Clock().Direction)
	assert.Equal(t, 10*time.Minute, c.Clock().Limit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, c.SlogLevel())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero threshold", "GOAL_THRESHOLD", "0"},
		{"bad direction", "CLOCK_DIRECTION", "sideways"},
		{"not a number", "MATCH_MINUTES", "seven"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
