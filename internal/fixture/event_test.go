package fixture

import (
	"testing"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineupFixture struct {
	match   *Match
	roles   Roles
	lineup  Lineup
	home    TeamRole
	away    TeamRole
	waiting TeamRole
	alice   uuid.UUID
	bob     uuid.UUID
	carol   uuid.UUID
}

func newLineupFixture() lineupFixture {
	match := &Match{ID: uuid.New(), FixtureID: uuid.New(), Sequence: 1, Status: MatchInProgress}
	roles := NewRoles(match.ID, RoleAssignment{Home: uuid.New(), Away: uuid.New(), Waiting: uuid.New()})
	home, _ := roles.ByRole(RoleHome)
	away, _ := roles.ByRole(RoleAway)
	waiting, _ := roles.ByRole(RoleWaiting)

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	lineup := NewLineup([]RoleMember{
		{RoleID: home.ID, PlayerID: alice, PlayerName: "Alice", Position: 1},
		{RoleID: home.ID, PlayerID: bob, PlayerName: "Bob", Position: 2},
		{RoleID: away.ID, PlayerID: carol, PlayerName: "Carol", Position: 1},
	})

	return lineupFixture{match: match, roles: roles, lineup: lineup, home: home, away: away, waiting: waiting, alice: alice, bob: bob, carol: carol}
}

func TestNewDraft(t *testing.T) {
	roleID, player := uuid.New(), uuid.New()

	d, err := NewDraft(roleID, EventGoal, &player, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Goal{Scorer: player}, d.Detail)

	d, err = NewDraft(roleID, EventWin, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Win{}, d.Detail)

	_, err = NewDraft(roleID, EventSave, nil, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewDraft(roleID, EventSave, &player, &player, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewDraft(roleID, EventRedCard, &player, nil, utils.Ptr("https://example.com/clip.mp4"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewDraft(roleID, EventWin, &player, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseEventType("corner")
	assert.ErrorIs(t, err, ErrValidation)

	typ, err := ParseEventType(" yellow_card ")
	require.NoError(t, err)
	assert.Equal(t, EventYellowCard, typ)
}

func TestNewEvents(t *testing.T) {
	f := newLineupFixture()
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	events, err := NewEvents(f.match, f.roles, f.lineup, []Draft{
		{RoleID: f.home.ID, Detail: Goal{Scorer: f.alice, Assist: &f.bob}},
		{RoleID: f.away.ID, Detail: PlayerAction{Kind: EventSave, Player: f.carol}},
		{RoleID: f.away.ID, Detail: PlayerAction{Kind: EventWowMoment, Player: f.carol, ClipURL: utils.Ptr("https://youtu.be/xyz")}},
	}, now)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, EventGoal, events[0].Type)
	assert.Equal(t, "Alice", *events[0].PlayerName)
	assert.Equal(t, "Bob", *events[0].SecondaryPlayerName)
	assert.Equal(t, f.match.ID, events[0].MatchID)
	assert.Equal(t, now, events[0].CreatedAt)
	assert.Equal(t, Goal{Scorer: f.alice, Assist: &f.bob}, events[0].Detail())

	assert.Equal(t, EventSave, events[1].Type)
	assert.Nil(t, events[1].ClipURL)
	assert.Equal(t, "https://youtu.be/xyz", *events[2].ClipURL)
}

func TestNewEvents_Rejections(t *testing.T) {
	f := newLineupFixture()
	now := time.Now()

	tests := []struct {
		name  string
		draft Draft
	}{
		{"unknown role", Draft{RoleID: uuid.New(), Detail: Goal{Scorer: f.alice}}},
		{"scorer on other team", Draft{RoleID: f.away.ID, Detail: Goal{Scorer: f.alice}}},
		{"assist on other team", Draft{RoleID: f.home.ID, Detail: Goal{Scorer: f.alice, Assist: &f.carol}}},
		{"own assist", Draft{RoleID: f.home.ID, Detail: Goal{Scorer: f.alice, Assist: &f.alice}}},
		{"waiting team player", Draft{RoleID: f.waiting.ID, Detail: PlayerAction{Kind: EventSave, Player: f.carol}}},
		{"waiting team win", Draft{RoleID: f.waiting.ID, Detail: Win{}}},
		{"goal as action", Draft{RoleID: f.home.ID, Detail: PlayerAction{Kind: EventGoal, Player: f.alice}}},
		{"missing detail", Draft{RoleID: f.home.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid := Draft{RoleID: f.home.ID, Detail: Goal{Scorer: f.bob}}
			events, err := NewEvents(f.match, f.roles, f.lineup, []Draft{valid, tt.draft}, now)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Nil(t, events, "a bad draft rejects the whole batch")
		})
	}

	_, err := NewEvents(f.match, f.roles, f.lineup, nil, now)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewEvents_CompletedMatch(t *testing.T) {
	f := newLineupFixture()
	require.NoError(t, f.match.Complete(time.Now()))

	_, err := NewEvents(f.match, f.roles, f.lineup, []Draft{{RoleID: f.home.ID, Detail: Goal{Scorer: f.alice}}}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, f.match.Complete(time.Now()), ErrInvalidState)
}
