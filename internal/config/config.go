package config

import (
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	DatabasePath    string        `envconfig:"DATABASE_PATH" default:"kickabout.db"`
	MigrationsURL   string        `envconfig:"MIGRATIONS_URL" default:"file://migrations"`
	SessionLifetime time.Duration `envconfig:"SESSION_LIFETIME" default:"24h"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	// Match rules
	GoalThreshold   int    `envconfig:"GOAL_THRESHOLD" default:"2"`
	MatchMinutes    int    `envconfig:"MATCH_MINUTES" default:"7"`
	OvertimeMinutes int    `envconfig:"OVERTIME_MINUTES" default:"2"`
	ClockDirection  string `envconfig:"CLOCK_DIRECTION" default:"down"`
	AutoRotate      bool   `envconfig:"AUTO_ROTATE" default:"false"`

	// Event submission limiter, per user
	SubmitRate  float64 `envconfig:"SUBMIT_RATE" default:"5"`
	SubmitBurst int     `envconfig:"SUBMIT_BURST" default:"10"`

	// Notifications are disabled when AMQP_URL is empty
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"kickabout.events"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:8080"`

	DiscordKey         string `envconfig:"DISCORD_KEY"`
	DiscordSecret      string `envconfig:"DISCORD_SECRET"`
	DiscordCallbackURL string `envconfig:"DISCORD_CALLBACK_URL"`
	GoogleKey          string `envconfig:"GOOGLE_KEY"`
	GoogleSecret       string `envconfig:"GOOGLE_SECRET"`
	GoogleCallbackURL  string `envconfig:"GOOGLE_CALLBACK_URL"`
}

// Load reads an optional .env file and then the process environment.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	if c.GoalThreshold < 1 {
		return c, fmt.Errorf("GOAL_THRESHOLD must be at least 1, got %d", c.GoalThreshold)
	}
	if c.MatchMinutes < 1 {
		return c, fmt.Errorf("MATCH_MINUTES must be at least 1, got %d", c.MatchMinutes)
	}
	if c.OvertimeMinutes < 0 {
		return c, fmt.Errorf("OVERTIME_MINUTES must not be negative, got %d", c.OvertimeMinutes)
	}
	if _, err := clock.ParseDirection(c.ClockDirection); err != nil {
		return c, err
	}
	return c, nil
}

func (c App) Clock() clock.Config {
	direction, err := clock.ParseDirection(c.ClockDirection)
	if err != nil {
		direction = clock.CountDown
	}
	return clock.Config{
		Direction:     direction,
		Limit:         time.Duration(c.MatchMinutes) * time.Minute,
		OvertimeLimit: time.Duration(c.OvertimeMinutes) * time.Minute,
	}
}

func (c App) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
