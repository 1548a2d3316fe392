package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/middleware"
	"github.com/AdamBeresnev/kickabout/internal/notify"
	"github.com/AdamBeresnev/kickabout/internal/store"
	"github.com/AdamBeresnev/kickabout/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const maxTitleLength = 100

type FixtureService struct {
	db       *sqlx.DB
	store    *store.FixtureStore
	clocks   *store.ClockStore
	hub      *clock.Hub
	roster   Roster
	auth     Authorizer
	notifier notify.Publisher
	rules    Rules
	now      func() time.Time
}

type Option func(*FixtureService)

func WithAuthorizer(a Authorizer) Option {
	return func(s *FixtureService) { s.auth = a }
}

func WithPublisher(p notify.Publisher) Option {
	return func(s *FixtureService) { s.notifier = p }
}

// WithClockHub lets lifecycle changes reach the clocks of open viewers.
func WithClockHub(h *clock.Hub) Option {
	return func(s *FixtureService) { s.hub = h }
}

func WithRules(r Rules) Option {
	return func(s *FixtureService) { s.rules = r }
}

func WithNow(now func() time.Time) Option {
	return func(s *FixtureService) { s.now = now }
}

func NewFixtureService(db *sqlx.DB, store *store.FixtureStore, clocks *store.ClockStore, roster Roster, opts ...Option) *FixtureService {
	s := &FixtureService{
		db:       db,
		store:    store,
		clocks:   clocks,
		roster:   roster,
		auth:     OwnerAuthorizer{},
		notifier: notify.Nop{},
		rules:    DefaultRules,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FixtureService) Rules() Rules {
	return s.rules
}

// CanManage reports whether the caller may change the fixture, including
// its clock.
func (s *FixtureService) CanManage(ctx context.Context, fixtureID uuid.UUID) error {
	_, err := s.manageable(ctx, fixtureID)
	return err
}

func (s *FixtureService) CreateFixture(ctx context.Context, title string, scheduledAt time.Time) (*fixture.Fixture, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: not signed in", fixture.ErrForbidden)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: fixture title is required", fixture.ErrValidation)
	}
	if len(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: fixture title exceeds %d characters", fixture.ErrValidation, maxTitleLength)
	}
	if scheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled time is required", fixture.ErrValidation)
	}

	f := &fixture.Fixture{
		ID:          uuid.New(),
		OwnerID:     userID,
		Title:       title,
		ScheduledAt: scheduledAt.UTC(),
		Status:      fixture.StatusNotStarted,
		CreatedAt:   s.now(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateFixture(ctx, tx, f); err != nil {
		return nil, fmt.Errorf("failed to create fixture: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FixtureService) GetFixturesForUser(ctx context.Context) ([]fixture.Fixture, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("user ID not found in the context")
	}
	return s.store.GetFixturesByOwner(ctx, userID)
}

func (s *FixtureService) SetupFixture(ctx context.Context, fixtureID uuid.UUID, a fixture.RoleAssignment) (*fixture.Fixture, error) {
	if _, err := s.manageable(ctx, fixtureID); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	teams, err := s.roster.GetTeams(ctx, a.TeamIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	if len(teams) != 3 {
		return nil, fmt.Errorf("%w: invalid team setup: unknown team", fixture.ErrValidation)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	f, err := s.fixtureTx(ctx, tx, fixtureID)
	if err != nil {
		return nil, err
	}
	if err := f.Setup(a); err != nil {
		return nil, err
	}
	if err := s.store.UpdateFixture(ctx, tx, f); err != nil {
		return nil, fmt.Errorf("failed to update fixture: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return f, nil
}

// StartFixture opens the first match context from the setup's assignment.
func (s *FixtureService) StartFixture(ctx context.Context, fixtureID uuid.UUID) (*fixture.Fixture, *fixture.Match, error) {
	f, err := s.manageable(ctx, fixtureID)
	if err != nil {
		return nil, nil, err
	}
	a, ok := f.Assignment()
	if !ok || f.Status != fixture.StatusWaitingToStart {
		return nil, nil, fmt.Errorf("%w: fixture is %s, start requires %s", fixture.ErrInvalidTransition, f.Status, fixture.StatusWaitingToStart)
	}
	squads, err := s.squads(ctx, a)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	f, err = s.fixtureTx(ctx, tx, fixtureID)
	if err != nil {
		return nil, nil, err
	}
	matchID := uuid.New()
	if err := f.Start(matchID); err != nil {
		return nil, nil, err
	}
	// The assignment may only change in NOT_STARTED, so the squads read
	// above still belong to it.
	match, err := s.openMatch(ctx, tx, f.ID, matchID, a, squads)
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.UpdateFixture(ctx, tx, f); err != nil {
		return nil, nil, fmt.Errorf("failed to update fixture: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	s.resetClock(ctx, f.ID)
	notify.Send(ctx, s.notifier, notify.Message{Kind: notify.KindFixtureStarted, FixtureID: f.ID, MatchID: &match.ID})
	return f, match, nil
}

// EndFixture completes the fixture and closes its current match context
// without a winner.
func (s *FixtureService) EndFixture(ctx context.Context, fixtureID uuid.UUID) (*fixture.Fixture, error) {
	if _, err := s.manageable(ctx, fixtureID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	f, err := s.fixtureTx(ctx, tx, fixtureID)
	if err != nil {
		return nil, err
	}
	if err := f.End(); err != nil {
		return nil, err
	}
	if f.CurrentMatchID != nil {
		m, err := s.store.GetMatchTx(ctx, tx, *f.CurrentMatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to get current match: %w", err)
		}
		if m.Status == fixture.MatchInProgress {
			if err := m.Complete(s.now()); err != nil {
				return nil, err
			}
			if err := s.store.UpdateMatch(ctx, tx, m); err != nil {
				return nil, fmt.Errorf("failed to update match: %w", err)
			}
		}
	}
	if err := s.store.UpdateFixture(ctx, tx, f); err != nil {
		return nil, fmt.Errorf("failed to update fixture: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.resetClock(ctx, f.ID)
	notify.Send(ctx, s.notifier, notify.Message{Kind: notify.KindFixtureCompleted, FixtureID: f.ID, MatchID: f.CurrentMatchID})
	return f, nil
}

// DeleteFixture removes the fixture with its whole history and its clock.
func (s *FixtureService) DeleteFixture(ctx context.Context, fixtureID uuid.UUID) error {
	if _, err := s.manageable(ctx, fixtureID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.store.DeleteFixture(ctx, tx, fixtureID); err != nil {
		return notFound(err, "fixture", fixtureID)
	}
	if err := s.clocks.DeleteTx(ctx, tx, ClockKey(fixtureID)); err != nil {
		return fmt.Errorf("failed to delete clock snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	// A viewer may have written a snapshot between the delete and the close.
	s.hub.Close(ClockKey(fixtureID))
	if err := s.clocks.Delete(ctx, ClockKey(fixtureID)); err != nil {
		s.logClockError("delete", fixtureID, err)
	}
	notify.Send(ctx, s.notifier, notify.Message{Kind: notify.KindFixtureDeleted, FixtureID: fixtureID})
	return nil
}

type RoleData struct {
	fixture.TeamRole
	TeamName string               `json:"team_name"`
	Color    string               `json:"color"`
	Goals    int                  `json:"goals"`
	Members  []fixture.RoleMember `json:"members"`
}

type MatchData struct {
	Match   fixture.Match                     `json:"match"`
	Roles   []RoleData                        `json:"roles"`
	Events  []fixture.Event                   `json:"events"`
	Score   fixture.Scoreline                 `json:"score"`
	Tallies map[uuid.UUID]fixture.PlayerTally `json:"tallies"`
	Winner  *uuid.UUID                        `json:"winner_role_id,omitempty"`
}

type FixtureData struct {
	Fixture *fixture.Fixture `json:"fixture"`
	Matches []MatchData      `json:"matches"`
	Current *MatchData       `json:"-"`
}

func (s *FixtureService) GetFixture(ctx context.Context, fixtureID uuid.UUID) (*FixtureData, error) {
	f, err := s.store.GetFixture(ctx, fixtureID)
	if err != nil {
		return nil, notFound(err, "fixture", fixtureID)
	}
	matches, err := s.store.GetMatches(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	roles, err := s.store.GetFixtureRoles(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	members, err := s.store.GetFixtureRoleMembers(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	events, err := s.store.GetFixtureEvents(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	teams := make(map[uuid.UUID]fixture.Team)
	if a, ok := f.Assignment(); ok {
		found, err := s.roster.GetTeams(ctx, a.TeamIDs())
		if err != nil {
			return nil, fmt.Errorf("failed to get teams: %w", err)
		}
		for _, t := range found {
			teams[t.ID] = t
		}
	}

	lineup := fixture.NewLineup(members)
	data := &FixtureData{Fixture: f, Matches: make([]MatchData, 0, len(matches))}
	for _, m := range matches {
		var matchRoles fixture.Roles
		for _, r := range roles {
			if r.MatchID == m.ID {
				matchRoles = append(matchRoles, r)
			}
		}
		var matchEvents []fixture.Event
		for _, e := range events {
			if e.MatchID == m.ID {
				matchEvents = append(matchEvents, e)
			}
		}

		scores := fixture.DeriveScores(matchEvents, m.ID)
		md := MatchData{
			Match:   m,
			Events:  matchEvents,
			Score:   scores.Line(matchRoles),
			Tallies: fixture.DeriveTallies(matchEvents, m.ID),
		}
		for _, r := range matchRoles {
			team := teams[r.TeamID]
			md.Roles = append(md.Roles, RoleData{
				TeamRole: r,
				TeamName: team.Name,
				Color:    team.Color,
				Goals:    scores.Of(r.ID),
				Members:  lineup[r.ID],
			})
		}
		for _, e := range matchEvents {
			if e.Type == fixture.EventWin {
				md.Winner = utils.Ptr(e.RoleID)
			}
		}
		data.Matches = append(data.Matches, md)
	}
	for i := range data.Matches {
		if f.IsCurrent(data.Matches[i].Match.ID) {
			data.Current = &data.Matches[i]
		}
	}
	return data, nil
}

// manageable loads the fixture outside any transaction and checks the caller
// may change it.
func (s *FixtureService) manageable(ctx context.Context, fixtureID uuid.UUID) (*fixture.Fixture, error) {
	f, err := s.store.GetFixture(ctx, fixtureID)
	if err != nil {
		return nil, notFound(err, "fixture", fixtureID)
	}
	if err := s.auth.CanManage(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FixtureService) fixtureTx(ctx context.Context, tx *sqlx.Tx, fixtureID uuid.UUID) (*fixture.Fixture, error) {
	f, err := s.store.GetFixtureTx(ctx, tx, fixtureID)
	if err != nil {
		return nil, notFound(err, "fixture", fixtureID)
	}
	return f, nil
}

// squads reads the current roster of every team in the assignment.
func (s *FixtureService) squads(ctx context.Context, a fixture.RoleAssignment) (map[uuid.UUID][]fixture.Member, error) {
	squads := make(map[uuid.UUID][]fixture.Member, 3)
	for _, teamID := range a.TeamIDs() {
		members, err := s.roster.TeamMembers(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("failed to get members of team %s: %w", teamID, err)
		}
		squads[teamID] = members
	}
	return squads, nil
}

// openMatch creates an in-progress match context with its roles and member
// snapshots.
func (s *FixtureService) openMatch(ctx context.Context, tx *sqlx.Tx, fixtureID, matchID uuid.UUID, a fixture.RoleAssignment, squads map[uuid.UUID][]fixture.Member) (*fixture.Match, error) {
	seq, err := s.store.NextSequenceTx(ctx, tx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get next sequence: %w", err)
	}
	match := &fixture.Match{
		ID:        matchID,
		FixtureID: fixtureID,
		Sequence:  seq,
		Status:    fixture.MatchInProgress,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateMatch(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	roles := fixture.NewRoles(matchID, a)
	if err := s.store.CreateRoles(ctx, tx, roles); err != nil {
		return nil, fmt.Errorf("failed to create roles: %w", err)
	}

	var snapshot []fixture.RoleMember
	for _, r := range roles {
		for _, m := range squads[r.TeamID] {
			snapshot = append(snapshot, fixture.RoleMember{
				RoleID:     r.ID,
				PlayerID:   m.PlayerID,
				PlayerName: m.Name,
				Position:   m.Position,
			})
		}
	}
	if err := s.store.CreateRoleMembers(ctx, tx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to create member snapshot: %w", err)
	}
	return match, nil
}

// resetClock rewinds the clocks of open viewers and drops the persisted
// snapshot, so every viewer continues from a fresh stopped clock. It runs
// after commit and never fails the operation.
func (s *FixtureService) resetClock(ctx context.Context, fixtureID uuid.UUID) {
	s.hub.Reset(ctx, ClockKey(fixtureID))
	if err := s.clocks.Delete(ctx, ClockKey(fixtureID)); err != nil {
		s.logClockError("reset", fixtureID, err)
	}
}

func (s *FixtureService) logClockError(op string, fixtureID uuid.UUID, err error) {
	slog.Warn("failed to "+op+" clock snapshot", "fixture_id", fixtureID, "error", err)
}

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", fixture.ErrNotFound, what, id)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
