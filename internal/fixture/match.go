package fixture

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleHome    Role = "home"
	RoleAway    Role = "away"
	RoleWaiting Role = "waiting"
)

// Active reports whether the role takes part in the contest. The waiting
// team never does.
func (r Role) Active() bool {
	return r == RoleHome || r == RoleAway
}

func (r Role) Opponent() (Role, bool) {
	switch r {
	case RoleHome:
		return RoleAway, true
	case RoleAway:
		return RoleHome, true
	}
	return "", false
}

type MatchStatus string

const (
	MatchNotStarted MatchStatus = "NOT_STARTED"
	MatchInProgress MatchStatus = "IN_PROGRESS"
	MatchCompleted  MatchStatus = "COMPLETED"
)

// Match is one match context: the fixture's three teams placed into
// home/away/waiting roles, owning its own slice of the event log.
type Match struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	FixtureID   uuid.UUID   `db:"fixture_id" json:"fixture_id"`
	Sequence    int         `db:"sequence" json:"sequence"`
	Status      MatchStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	CompletedAt *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
}

func (m *Match) RequireInProgress() error {
	if m.Status != MatchInProgress {
		return invalidStatef("match is %s", m.Status)
	}
	return nil
}

func (m *Match) Complete(at time.Time) error {
	if err := m.RequireInProgress(); err != nil {
		return err
	}
	m.Status = MatchCompleted
	m.CompletedAt = &at
	return nil
}

// TeamRole binds a team to one role within a match context. Events are
// attributed to a TeamRole by its ID.
type TeamRole struct {
	ID      uuid.UUID `db:"id" json:"id"`
	MatchID uuid.UUID `db:"match_id" json:"match_id"`
	TeamID  uuid.UUID `db:"team_id" json:"team_id"`
	Role    Role      `db:"role" json:"role"`
}

type Roles []TeamRole

func (rs Roles) ByID(id uuid.UUID) (TeamRole, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return TeamRole{}, false
}

func (rs Roles) ByRole(role Role) (TeamRole, bool) {
	for _, r := range rs {
		if r.Role == role {
			return r, true
		}
	}
	return TeamRole{}, false
}

func (rs Roles) Assignment() (RoleAssignment, error) {
	var a RoleAssignment
	for _, r := range rs {
		switch r.Role {
		case RoleHome:
			a.Home = r.TeamID
		case RoleAway:
			a.Away = r.TeamID
		case RoleWaiting:
			a.Waiting = r.TeamID
		}
	}
	if len(rs) != 3 {
		return a, invalidStatef("match has %d roles", len(rs))
	}
	if err := a.Validate(); err != nil {
		return a, invalidStatef("match roles are inconsistent")
	}
	return a, nil
}

// NewRoles creates the three role rows for a new match context.
func NewRoles(matchID uuid.UUID, a RoleAssignment) Roles {
	return Roles{
		{ID: uuid.New(), MatchID: matchID, TeamID: a.Home, Role: RoleHome},
		{ID: uuid.New(), MatchID: matchID, TeamID: a.Away, Role: RoleAway},
		{ID: uuid.New(), MatchID: matchID, TeamID: a.Waiting, Role: RoleWaiting},
	}
}

// RoleMember is one entry of a role's member snapshot.
type RoleMember struct {
	RoleID     uuid.UUID `db:"role_id" json:"role_id"`
	PlayerID   uuid.UUID `db:"player_id" json:"player_id"`
	PlayerName string    `db:"player_name" json:"player_name"`
	Position   int       `db:"position" json:"position"`
}

// Lineup indexes member snapshots by role.
type Lineup map[uuid.UUID][]RoleMember

func NewLineup(members []RoleMember) Lineup {
	l := make(Lineup)
	for _, m := range members {
		l[m.RoleID] = append(l[m.RoleID], m)
	}
	return l
}

func (l Lineup) Member(roleID, playerID uuid.UUID) (RoleMember, bool) {
	for _, m := range l[roleID] {
		if m.PlayerID == playerID {
			return m, true
		}
	}
	return RoleMember{}, false
}
