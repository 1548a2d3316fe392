package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/notify"
	"github.com/AdamBeresnev/kickabout/internal/utils"
	"github.com/google/uuid"
)

type RotateResult struct {
	Fixture   *fixture.Fixture `json:"fixture"`
	Concluded *fixture.Match   `json:"concluded"`
	Next      *fixture.Match   `json:"next"`
	WinEvent  fixture.Event    `json:"win_event"`
}

// RotateTeams concludes the current match context in favour of the winning
// role and opens the next one: winner to home, waiting team to away, loser
// to waiting. Nothing is written unless every precondition holds.
func (s *FixtureService) RotateTeams(ctx context.Context, matchID, winningRoleID, losingRoleID uuid.UUID) (*RotateResult, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, notFound(err, "match", matchID)
	}
	if _, err := s.manageable(ctx, match.FixtureID); err != nil {
		return nil, err
	}

	roles, err := s.store.GetRoles(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	winner, ok := roles.ByID(winningRoleID)
	if !ok || !winner.Role.Active() {
		return nil, fmt.Errorf("%w: winning role must be this match's home or away team", fixture.ErrInvalidState)
	}
	opponent, _ := winner.Role.Opponent()
	loser, ok := roles.ByID(losingRoleID)
	if !ok || loser.Role != opponent {
		return nil, fmt.Errorf("%w: losing role must be the winner's opponent", fixture.ErrInvalidState)
	}
	current, err := roles.Assignment()
	if err != nil {
		return nil, err
	}
	next, err := fixture.Rotate(current, winner.Role)
	if err != nil {
		return nil, err
	}
	squads, err := s.squads(ctx, next)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	f, err := s.fixtureTx(ctx, tx, match.FixtureID)
	if err != nil {
		return nil, err
	}
	if err := f.RequireInProgress(); err != nil {
		return nil, err
	}
	if !f.IsCurrent(matchID) {
		return nil, fmt.Errorf("%w: match is not the fixture's current match", fixture.ErrInvalidState)
	}
	match, err = s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, notFound(err, "match", matchID)
	}

	now := s.now()
	win, err := fixture.NewEvents(match, roles, nil, []fixture.Draft{{RoleID: winner.ID, Detail: fixture.Win{}}}, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateEvents(ctx, tx, win); err != nil {
		return nil, fmt.Errorf("failed to record win: %w", err)
	}
	if err := match.Complete(now); err != nil {
		return nil, err
	}
	if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	nextMatch, err := s.openMatch(ctx, tx, f.ID, uuid.New(), next, squads)
	if err != nil {
		return nil, err
	}
	if err := f.Advance(nextMatch.ID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateFixture(ctx, tx, f); err != nil {
		return nil, fmt.Errorf("failed to update fixture: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.resetClock(ctx, f.ID)
	notify.Send(ctx, s.notifier, notify.Message{
		Kind:       notify.KindMatchConcluded,
		FixtureID:  f.ID,
		MatchID:    &match.ID,
		WinnerTeam: utils.Ptr(winner.TeamID),
	})
	return &RotateResult{Fixture: f, Concluded: match, Next: nextMatch, WinEvent: win[0]}, nil
}
