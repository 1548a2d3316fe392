package store

import (
	"context"
	"database/sql"

	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type FixtureStore struct {
	db *sqlx.DB
}

func NewFixtureStore(db *sqlx.DB) *FixtureStore {
	return &FixtureStore{db: db}
}

const (
	createFixtureQuery = `INSERT INTO fixtures (id, owner_id, title, scheduled_at, status, home_team_id, away_team_id, waiting_team_id, current_match_id, created_at)
		VALUES (:id, :owner_id, :title, :scheduled_at, :status, :home_team_id, :away_team_id, :waiting_team_id, :current_match_id, :created_at)`
	updateFixtureQuery = `UPDATE fixtures SET
		status = :status,
		home_team_id = :home_team_id,
		away_team_id = :away_team_id,
		waiting_team_id = :waiting_team_id,
		current_match_id = :current_match_id
		WHERE id = :id`
	createMatchQuery = `INSERT INTO match_contexts (id, fixture_id, sequence, status, created_at, completed_at)
		VALUES (:id, :fixture_id, :sequence, :status, :created_at, :completed_at)`
	updateMatchQuery = `UPDATE match_contexts SET status = :status, completed_at = :completed_at WHERE id = :id`
	createRolesQuery = `INSERT INTO match_roles (id, match_id, team_id, role)
		VALUES (:id, :match_id, :team_id, :role)`
	createRoleMembersQuery = `INSERT INTO match_role_members (role_id, player_id, player_name, position)
		VALUES (:role_id, :player_id, :player_name, :position)`
	createEventsQuery = `INSERT INTO events (id, match_id, role_id, type, player_id, player_name, secondary_player_id, secondary_player_name, clip_url, created_at)
		VALUES (:id, :match_id, :role_id, :type, :player_id, :player_name, :secondary_player_id, :secondary_player_name, :clip_url, :created_at)`
)

func (s *FixtureStore) CreateFixture(ctx context.Context, tx *sqlx.Tx, f *fixture.Fixture) error {
	_, err := tx.NamedExecContext(ctx, createFixtureQuery, f)
	return err
}

func (s *FixtureStore) UpdateFixture(ctx context.Context, tx *sqlx.Tx, f *fixture.Fixture) error {
	return expectOne(tx.NamedExecContext(ctx, updateFixtureQuery, f))
}

func (s *FixtureStore) GetFixture(ctx context.Context, id uuid.UUID) (*fixture.Fixture, error) {
	return getFixture(ctx, s.db, id)
}

func (s *FixtureStore) GetFixtureTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*fixture.Fixture, error) {
	return getFixture(ctx, tx, id)
}

func getFixture(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*fixture.Fixture, error) {
	var f fixture.Fixture
	if err := sqlx.GetContext(ctx, q, &f, "SELECT * FROM fixtures WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FixtureStore) GetFixturesByOwner(ctx context.Context, ownerID uuid.UUID) ([]fixture.Fixture, error) {
	var fixtures []fixture.Fixture
	err := s.db.SelectContext(ctx, &fixtures, "SELECT * FROM fixtures WHERE owner_id = ? ORDER BY scheduled_at DESC", ownerID)
	return fixtures, err
}

// DeleteFixture relies on ON DELETE CASCADE to remove match contexts, roles,
// member snapshots and events with the fixture row.
func (s *FixtureStore) DeleteFixture(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	return expectOne(tx.ExecContext(ctx, "DELETE FROM fixtures WHERE id = ?", id))
}

func (s *FixtureStore) CreateMatch(ctx context.Context, tx *sqlx.Tx, m *fixture.Match) error {
	_, err := tx.NamedExecContext(ctx, createMatchQuery, m)
	return err
}

func (s *FixtureStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, m *fixture.Match) error {
	return expectOne(tx.NamedExecContext(ctx, updateMatchQuery, m))
}

func (s *FixtureStore) GetMatch(ctx context.Context, id uuid.UUID) (*fixture.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *FixtureStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*fixture.Match, error) {
	return getMatch(ctx, tx, id)
}

func getMatch(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*fixture.Match, error) {
	var m fixture.Match
	if err := sqlx.GetContext(ctx, q, &m, "SELECT * FROM match_contexts WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *FixtureStore) GetMatches(ctx context.Context, fixtureID uuid.UUID) ([]fixture.Match, error) {
	var matches []fixture.Match
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM match_contexts WHERE fixture_id = ? ORDER BY sequence ASC", fixtureID)
	return matches, err
}

func (s *FixtureStore) NextSequenceTx(ctx context.Context, tx *sqlx.Tx, fixtureID uuid.UUID) (int, error) {
	var last int
	err := tx.GetContext(ctx, &last, "SELECT COALESCE(MAX(sequence), 0) FROM match_contexts WHERE fixture_id = ?", fixtureID)
	return last + 1, err
}

func (s *FixtureStore) CreateRoles(ctx context.Context, tx *sqlx.Tx, roles fixture.Roles) error {
	if len(roles) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createRolesQuery, []fixture.TeamRole(roles))
	return err
}

func (s *FixtureStore) GetRoles(ctx context.Context, matchID uuid.UUID) (fixture.Roles, error) {
	return getRoles(ctx, s.db, matchID)
}

func (s *FixtureStore) GetRolesTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) (fixture.Roles, error) {
	return getRoles(ctx, tx, matchID)
}

func getRoles(ctx context.Context, q sqlx.QueryerContext, matchID uuid.UUID) (fixture.Roles, error) {
	var roles []fixture.TeamRole
	err := sqlx.SelectContext(ctx, q, &roles, `SELECT * FROM match_roles WHERE match_id = ?
		ORDER BY CASE role WHEN 'home' THEN 1 WHEN 'away' THEN 2 ELSE 3 END`, matchID)
	return roles, err
}

func (s *FixtureStore) GetFixtureRoles(ctx context.Context, fixtureID uuid.UUID) (fixture.Roles, error) {
	var roles []fixture.TeamRole
	err := s.db.SelectContext(ctx, &roles, `SELECT r.* FROM match_roles r
		JOIN match_contexts m ON m.id = r.match_id
		WHERE m.fixture_id = ?
		ORDER BY m.sequence ASC, CASE r.role WHEN 'home' THEN 1 WHEN 'away' THEN 2 ELSE 3 END`, fixtureID)
	return roles, err
}

func (s *FixtureStore) CreateRoleMembers(ctx context.Context, tx *sqlx.Tx, members []fixture.RoleMember) error {
	if len(members) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createRoleMembersQuery, members)
	return err
}

func (s *FixtureStore) GetRoleMembersTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) ([]fixture.RoleMember, error) {
	var members []fixture.RoleMember
	err := tx.SelectContext(ctx, &members, `SELECT rm.* FROM match_role_members rm
		JOIN match_roles r ON r.id = rm.role_id
		WHERE r.match_id = ?
		ORDER BY rm.role_id, rm.position ASC`, matchID)
	return members, err
}

func (s *FixtureStore) GetFixtureRoleMembers(ctx context.Context, fixtureID uuid.UUID) ([]fixture.RoleMember, error) {
	var members []fixture.RoleMember
	err := s.db.SelectContext(ctx, &members, `SELECT rm.* FROM match_role_members rm
		JOIN match_roles r ON r.id = rm.role_id
		JOIN match_contexts m ON m.id = r.match_id
		WHERE m.fixture_id = ?
		ORDER BY m.sequence ASC, rm.position ASC`, fixtureID)
	return members, err
}

// CreateEvents appends to the event log. Events are never updated; they
// only go away with their fixture.
func (s *FixtureStore) CreateEvents(ctx context.Context, tx *sqlx.Tx, events []fixture.Event) error {
	if len(events) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createEventsQuery, events)
	return err
}

func (s *FixtureStore) GetEvents(ctx context.Context, matchID uuid.UUID) ([]fixture.Event, error) {
	return getEvents(ctx, s.db, matchID)
}

func (s *FixtureStore) GetEventsTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) ([]fixture.Event, error) {
	return getEvents(ctx, tx, matchID)
}

func getEvents(ctx context.Context, q sqlx.QueryerContext, matchID uuid.UUID) ([]fixture.Event, error) {
	var events []fixture.Event
	err := sqlx.SelectContext(ctx, q, &events, "SELECT * FROM events WHERE match_id = ? ORDER BY created_at ASC, rowid ASC", matchID)
	return events, err
}

func (s *FixtureStore) GetFixtureEvents(ctx context.Context, fixtureID uuid.UUID) ([]fixture.Event, error) {
	var events []fixture.Event
	err := s.db.SelectContext(ctx, &events, `SELECT e.* FROM events e
		JOIN match_contexts m ON m.id = e.match_id
		WHERE m.fixture_id = ?
		ORDER BY m.sequence ASC, e.created_at ASC, e.rowid ASC`, fixtureID)
	return events, err
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
