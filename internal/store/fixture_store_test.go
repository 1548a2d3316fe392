package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/utils"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSuperUserID = "00000000-0000-0000-0000-000000000001"

// setupTestDB creates an in-memory SQLite database and applies migrations.
// The pool is pinned to one connection because every connection to
// :memory: is a separate database.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
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

	return database
}

func withTx(t *testing.T, db *sqlx.DB, fn func(tx *sqlx.Tx)) {
	t.Helper()
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit())
}

type seededTeams struct {
	assignment fixture.RoleAssignment
	players    map[uuid.UUID][]fixture.Player
}

func seedTeams(t *testing.T, db *sqlx.DB) seededTeams {
	t.Helper()
	teams := NewTeamStore(db)
	ctx := context.Background()

	seeded := seededTeams{players: make(map[uuid.UUID][]fixture.Player)}
	ids := make([]uuid.UUID, 0, 3)
	for _, name := range []string{"Red", "Blue", "Green"} {
		team := &fixture.Team{ID: uuid.New(), Name: name, Color: name, CreatedAt: time.Now().UTC()}
		players := []fixture.Player{
			{ID: uuid.New(), Name: name + " One", CreatedAt: time.Now().UTC()},
			{ID: uuid.New(), Name: name + " Two", CreatedAt: time.Now().UTC()},
		}
		withTx(t, db, func(tx *sqlx.Tx) {
			require.NoError(t, teams.CreateTeam(ctx, tx, team))
			require.NoError(t, teams.CreatePlayers(ctx, tx, players))
			require.NoError(t, teams.AddMembers(ctx, tx, team.ID, []uuid.UUID{players[0].ID, players[1].ID}))
		})
		ids = append(ids, team.ID)
		seeded.players[team.ID] = players
	}
	seeded.assignment = fixture.RoleAssignment{Home: ids[0], Away: ids[1], Waiting: ids[2]}
	return seeded
}

func TestFixtureRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewFixtureStore(db)
	ctx := context.Background()
	seeded := seedTeams(t, db)

	f := &fixture.Fixture{
		ID:          uuid.New(),
		OwnerID:     uuid.MustParse(testSuperUserID),
		Title:       "Thursday five-a-side",
		ScheduledAt: time.Date(2026, 6, 4, 19, 0, 0, 0, time.UTC),
		Status:      fixture.StatusNotStarted,
		CreatedAt:   time.Now().UTC(),
	}
	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, store.CreateFixture(ctx, tx, f))
	})

	require.NoError(t, f.Setup(seeded.assignment))
	match := &fixture.Match{ID: uuid.New(), FixtureID: f.ID, Sequence: 1, Status: fixture.MatchInProgress, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.Start(match.ID))
	roles := fixture.NewRoles(match.ID, seeded.assignment)

	withTx(t, db, func(tx *sqlx.Tx) {
		seq, err := store.NextSequenceTx(ctx, tx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, seq)

		require.NoError(t, store.CreateMatch(ctx, tx, match))
		require.NoError(t, store.CreateRoles(ctx, tx, roles))
		require.NoError(t, store.CreateRoleMembers(ctx, tx, []fixture.RoleMember{
			{RoleID: roles[0].ID, PlayerID: seeded.players[seeded.assignment.Home][0].ID, PlayerName: "Red One", Position: 1},
		}))
		require.NoError(t, store.UpdateFixture(ctx, tx, f))
	})

	fetched, err := store.GetFixture(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, fixture.StatusInProgress, fetched.Status)
	assert.Equal(t, match.ID, *fetched.CurrentMatchID)
	assert.Equal(t, seeded.assignment.Waiting, *fetched.WaitingTeamID)
	assert.WithinDuration(t, f.ScheduledAt, fetched.ScheduledAt, time.Second)

	fetchedRoles, err := store.GetRoles(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, fetchedRoles, 3)
	assert.Equal(t, fixture.RoleHome, fetchedRoles[0].Role)
	assert.Equal(t, fixture.RoleWaiting, fetchedRoles[2].Role)

	scorer := seeded.players[seeded.assignment.Home][0].ID
	events := []fixture.Event{
		{ID: uuid.New(), MatchID: match.ID, RoleID: roles[0].ID, Type: fixture.EventGoal, PlayerID: &scorer, PlayerName: utils.Ptr("Red One"), CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), MatchID: match.ID, RoleID: roles[1].ID, Type: fixture.EventWin, CreatedAt: time.Now().UTC()},
	}
	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, store.CreateEvents(ctx, tx, events))
		members, err := store.GetRoleMembersTx(ctx, tx, match.ID)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "Red One", members[0].PlayerName)
	})

	fetchedEvents, err := store.GetEvents(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, fetchedEvents, 2)
	assert.Equal(t, events[0].ID, fetchedEvents[0].ID)
	assert.Equal(t, "Red One", *fetchedEvents[0].PlayerName)
	assert.Nil(t, fetchedEvents[1].PlayerID)

	fixtureEvents, err := store.GetFixtureEvents(ctx, f.ID)
	require.NoError(t, err)
	assert.Len(t, fixtureEvents, 2)

	require.NoError(t, match.Complete(time.Now().UTC()))
	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, store.UpdateMatch(ctx, tx, match))
	})
	fetchedMatch, err := store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, fixture.MatchCompleted, fetchedMatch.Status)
	require.NotNil(t, fetchedMatch.CompletedAt)

	owned, err := store.GetFixturesByOwner(ctx, uuid.MustParse(testSuperUserID))
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func TestDeleteFixtureCascades(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewFixtureStore(db)
	ctx := context.Background()
	seeded := seedTeams(t, db)

	f := &fixture.Fixture{ID: uuid.New(), OwnerID: uuid.MustParse(testSuperUserID), Title: "To delete", ScheduledAt: time.Now().UTC(), Status: fixture.StatusInProgress, CreatedAt: time.Now().UTC()}
	match := &fixture.Match{ID: uuid.New(), FixtureID: f.ID, Sequence: 1, Status: fixture.MatchInProgress, CreatedAt: time.Now().UTC()}
	roles := fixture.NewRoles(match.ID, seeded.assignment)
	scorer := seeded.players[seeded.assignment.Home][0].ID

	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, store.CreateFixture(ctx, tx, f))
		require.NoError(t, store.CreateMatch(ctx, tx, match))
		require.NoError(t, store.CreateRoles(ctx, tx, roles))
		require.NoError(t, store.CreateEvents(ctx, tx, []fixture.Event{
			{ID: uuid.New(), MatchID: match.ID, RoleID: roles[0].ID, Type: fixture.EventGoal, PlayerID: &scorer, CreatedAt: time.Now().UTC()},
		}))
	})

	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, store.DeleteFixture(ctx, tx, f.ID))
	})

	for _, table := range []string{"match_contexts", "match_roles", "events"} {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table))
		assert.Zero(t, n, table)
	}

	withTx(t, db, func(tx *sqlx.Tx) {
		assert.ErrorIs(t, store.DeleteFixture(ctx, tx, f.ID), sql.ErrNoRows)
	})
	_, err := store.GetFixture(ctx, f.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTeamMembers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	teams := NewTeamStore(db)
	ctx := context.Background()
	seeded := seedTeams(t, db)
	red := seeded.assignment.Home

	members, err := teams.TeamMembers(ctx, red)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Red One", members[0].Name)
	assert.Equal(t, 1, members[0].Position)
	assert.Equal(t, 2, members[1].Position)

	late := fixture.Player{ID: uuid.New(), Name: "Late Arrival", CreatedAt: time.Now().UTC()}
	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, teams.CreatePlayers(ctx, tx, []fixture.Player{late}))
		require.NoError(t, teams.AddMembers(ctx, tx, red, []uuid.UUID{late.ID}))
	})
	members, err = teams.TeamMembers(ctx, red)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, late.ID, members[2].PlayerID)
	assert.Equal(t, 3, members[2].Position)

	require.NoError(t, teams.RemoveMember(ctx, red, late.ID))
	assert.ErrorIs(t, teams.RemoveMember(ctx, red, late.ID), sql.ErrNoRows)

	got, err := teams.GetTeams(ctx, seeded.assignment.TeamIDs())
	require.NoError(t, err)
	assert.Len(t, got, 3)

	team, err := teams.GetTeam(ctx, red)
	require.NoError(t, err)
	assert.Equal(t, "Red", team.Name)
}

func TestClockStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewClockStore(db)
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 6, 4, 19, 5, 0, 0, time.UTC)
	state := clock.State{Minutes: 5, Seconds: 30, Running: true, Mode: clock.ModeNormal, LastPersistedAt: &at}
	require.NoError(t, store.Save(ctx, "fixture", state))

	loaded, ok, err := store.Load(ctx, "fixture")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, loaded.Minutes)
	assert.True(t, loaded.Running)
	assert.True(t, at.Equal(*loaded.LastPersistedAt))

	state.Running = false
	require.NoError(t, store.Save(ctx, "fixture", state))
	loaded, _, err = store.Load(ctx, "fixture")
	require.NoError(t, err)
	assert.False(t, loaded.Running)

	require.NoError(t, store.Delete(ctx, "fixture"))
	_, ok, err = store.Load(ctx, "fixture")
	require.NoError(t, err)
	assert.False(t, ok)
}
