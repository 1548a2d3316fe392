// Package notify publishes fixture lifecycle messages for other services.
// Delivery is best effort and never part of the engine's transactions.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	KindFixtureStarted   = "fixture.started"
	KindEventsRecorded   = "events.recorded"
	KindMatchConcluded   = "match.concluded"
	KindFixtureCompleted = "fixture.completed"
	KindFixtureDeleted   = "fixture.deleted"
)

type Message struct {
	Kind       string     `json:"kind"`
	FixtureID  uuid.UUID  `json:"fixture_id"`
	MatchID    *uuid.UUID `json:"match_id,omitempty"`
	WinnerTeam *uuid.UUID `json:"winner_team_id,omitempty"`
	Events     int        `json:"events,omitempty"`
	At         time.Time  `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }

// Send publishes msg and logs a failure instead of returning it.
func Send(ctx context.Context, p Publisher, msg Message) {
	if p == nil {
		return
	}
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, msg); err != nil {
		slog.Warn("failed to publish notification", "kind", msg.Kind, "fixture_id", msg.FixtureID, "error", err)
	}
}

// Recorder keeps published messages in memory.
type Recorder struct {
	Messages []Message
}

func (r *Recorder) Publish(_ context.Context, msg Message) error {
	r.Messages = append(r.Messages, msg)
	return nil
}

func (r *Recorder) Kinds() []string {
	kinds := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		kinds = append(kinds, m.Kind)
	}
	return kinds
}
