package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/middleware"
	"github.com/AdamBeresnev/kickabout/internal/notify"
	"github.com/AdamBeresnev/kickabout/internal/store"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations.
// One connection only, since each connection to :memory: is its own
// database.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	db.SetMaxOpenConns(1)

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return db
}

type harness struct {
	db       *sqlx.DB
	ctx      context.Context
	fixtures *FixtureService
	teams    *TeamService
	store    *store.FixtureStore
	clocks   *store.ClockStore
	hub      *clock.Hub
	notes    *notify.Recorder

	red, blue, green *TeamData
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	fixtureStore := store.NewFixtureStore(db)
	teamStore := store.NewTeamStore(db)
	clocks := store.NewClockStore(db)
	notes := &notify.Recorder{}
	hub := clock.NewHub()

	h := &harness{
		db:       db,
		ctx:      middleware.WithUserID(context.Background(), uuid.MustParse(middleware.SuperUserID)),
		fixtures: NewFixtureService(db, fixtureStore, clocks, teamStore, WithPublisher(notes), WithRules(Rules{GoalThreshold: 2}), WithClockHub(hub)),
		teams:    NewTeamService(db, teamStore),
		store:    fixtureStore,
		clocks:   clocks,
		hub:      hub,
		notes:    notes,
	}

	var err error
	h.red, err = h.teams.CreateTeam(h.ctx, "Red", "red", []string{"Rosa", "Ruben"})
	require.NoError(t, err)
	h.blue, err = h.teams.CreateTeam(h.ctx, "Blue", "blue", []string{"Bea", "Bruno"})
	require.NoError(t, err)
	h.green, err = h.teams.CreateTeam(h.ctx, "Green", "green", []string{"Gino", "Greta"})
	require.NoError(t, err)
	return h
}

func (h *harness) assignment() fixture.RoleAssignment {
	return fixture.RoleAssignment{Home: h.red.Team.ID, Away: h.blue.Team.ID, Waiting: h.green.Team.ID}
}

// startedFixture creates, sets up and starts a fixture with Red home, Blue
// away and Green waiting.
func (h *harness) startedFixture(t *testing.T) (*fixture.Fixture, *fixture.Match, fixture.Roles) {
	t.Helper()
	f, err := h.fixtures.CreateFixture(h.ctx, "Thursday five-a-side", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = h.fixtures.SetupFixture(h.ctx, f.ID, h.assignment())
	require.NoError(t, err)
	f, match, err := h.fixtures.StartFixture(h.ctx, f.ID)
	require.NoError(t, err)
	roles, err := h.store.GetRoles(h.ctx, match.ID)
	require.NoError(t, err)
	return f, match, roles
}

func role(t *testing.T, roles fixture.Roles, r fixture.Role) fixture.TeamRole {
	t.Helper()
	tr, ok := roles.ByRole(r)
	require.True(t, ok, "match has no %s role", r)
	return tr
}

func goal(t *testing.T, roleID, scorer uuid.UUID, assist *uuid.UUID) fixture.Draft {
	t.Helper()
	d, err := fixture.NewDraft(roleID, fixture.EventGoal, &scorer, assist, nil)
	require.NoError(t, err)
	return d
}

func action(t *testing.T, roleID uuid.UUID, kind fixture.EventType, player uuid.UUID) fixture.Draft {
	t.Helper()
	d, err := fixture.NewDraft(roleID, kind, &player, nil, nil)
	require.NoError(t, err)
	return d
}

func (h *harness) eventCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, h.db.Get(&n, "SELECT COUNT(*) FROM events"))
	return n
}
