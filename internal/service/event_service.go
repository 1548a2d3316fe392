package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/notify"
	"github.com/google/uuid"
)

type SubmitResult struct {
	Events   []fixture.Event   `json:"events"`
	Score    fixture.Scoreline `json:"score"`
	Decision fixture.Decision  `json:"decision"`
}

// SubmitEvents appends a batch of events to a match context. The batch is
// stored whole or not at all. The returned decision is computed over the
// context's full log; acting on it is up to the caller.
func (s *FixtureService) SubmitEvents(ctx context.Context, matchID uuid.UUID, drafts []fixture.Draft, clockExpired bool) (*SubmitResult, error) {
	for i, d := range drafts {
		if _, ok := d.Detail.(fixture.Win); ok {
			return nil, fmt.Errorf("%w: event %d: win markers are recorded by rotation", fixture.ErrValidation, i+1)
		}
	}

	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, notFound(err, "match", matchID)
	}
	if _, err := s.manageable(ctx, match.FixtureID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lifecycle is re-read inside the transaction so a batch racing a
	// rotation fails against the completed context.
	f, err := s.fixtureTx(ctx, tx, match.FixtureID)
	if err != nil {
		return nil, err
	}
	if err := f.RequireInProgress(); err != nil {
		return nil, err
	}
	match, err = s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, notFound(err, "match", matchID)
	}
	roles, err := s.store.GetRolesTx(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	members, err := s.store.GetRoleMembersTx(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	events, err := fixture.NewEvents(match, roles, fixture.NewLineup(members), drafts, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateEvents(ctx, tx, events); err != nil {
		return nil, fmt.Errorf("failed to append events: %w", err)
	}
	all, err := s.store.GetEventsTx(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	line := fixture.DeriveScores(all, matchID).Line(roles)
	notify.Send(ctx, s.notifier, notify.Message{Kind: notify.KindEventsRecorded, FixtureID: f.ID, MatchID: &matchID, Events: len(events)})
	return &SubmitResult{
		Events:   events,
		Score:    line,
		Decision: fixture.Evaluate(line, s.rules.GoalThreshold, clockExpired),
	}, nil
}

type Evaluation struct {
	Match    *fixture.Match    `json:"match"`
	Roles    fixture.Roles     `json:"roles"`
	Score    fixture.Scoreline `json:"score"`
	Decision fixture.Decision  `json:"decision"`
}

// WinnerRoleIDs resolves the decision to the team-role ids rotation expects.
func (e *Evaluation) WinnerRoleIDs() (winner, loser uuid.UUID, ok bool) {
	if !e.Decision.HasWinner() {
		return uuid.Nil, uuid.Nil, false
	}
	w, okW := e.Roles.ByRole(e.Decision.Winner)
	l, okL := e.Roles.ByRole(e.Decision.Loser)
	return w.ID, l.ID, okW && okL
}

// MatchFixtureID returns the fixture a match context belongs to.
func (s *FixtureService) MatchFixtureID(ctx context.Context, matchID uuid.UUID) (uuid.UUID, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return uuid.Nil, notFound(err, "match", matchID)
	}
	return match.FixtureID, nil
}

// EvaluateMatch derives the score of a match context and applies the win
// rules. It never writes.
func (s *FixtureService) EvaluateMatch(ctx context.Context, matchID uuid.UUID, clockExpired bool) (*Evaluation, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, notFound(err, "match", matchID)
	}
	roles, err := s.store.GetRoles(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	events, err := s.store.GetEvents(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	line := fixture.DeriveScores(events, matchID).Line(roles)
	return &Evaluation{
		Match:    match,
		Roles:    roles,
		Score:    line,
		Decision: fixture.Evaluate(line, s.rules.GoalThreshold, clockExpired),
	}, nil
}

// CurrentMatch returns the id of the fixture's current match context.
func (s *FixtureService) CurrentMatch(ctx context.Context, fixtureID uuid.UUID) (uuid.UUID, error) {
	f, err := s.store.GetFixture(ctx, fixtureID)
	if err != nil {
		return uuid.Nil, notFound(err, "fixture", fixtureID)
	}
	if f.CurrentMatchID == nil {
		return uuid.Nil, fmt.Errorf("%w: fixture has not started", fixture.ErrInvalidState)
	}
	return *f.CurrentMatchID, nil
}
