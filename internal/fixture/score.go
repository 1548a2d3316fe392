package fixture

import "github.com/google/uuid"

// Scores holds goal counts keyed by team role ID.
type Scores map[uuid.UUID]int

func (s Scores) Of(roleID uuid.UUID) int {
	return s[roleID]
}

// Scoreline is the result between the two active roles.
type Scoreline struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s Scores) Line(roles Roles) Scoreline {
	var line Scoreline
	if home, ok := roles.ByRole(RoleHome); ok {
		line.Home = s.Of(home.ID)
	}
	if away, ok := roles.ByRole(RoleAway); ok {
		line.Away = s.Of(away.ID)
	}
	return line
}

// DeriveScores counts the goals of one match context. Events belonging to
// other contexts are ignored, so scores never carry across a rotation.
func DeriveScores(events []Event, matchID uuid.UUID) Scores {
	scores := make(Scores)
	for _, e := range events {
		if e.MatchID != matchID || e.Type != EventGoal {
			continue
		}
		scores[e.RoleID]++
	}
	return scores
}

// DeriveAssists counts assists per player: explicit ASSIST events plus
// assists credited on a goal.
func DeriveAssists(events []Event, matchID uuid.UUID) map[uuid.UUID]int {
	assists := make(map[uuid.UUID]int)
	for _, e := range events {
		if e.MatchID != matchID {
			continue
		}
		switch e.Type {
		case EventAssist:
			if e.PlayerID != nil {
				assists[*e.PlayerID]++
			}
		case EventGoal:
			if e.SecondaryPlayerID != nil {
				assists[*e.SecondaryPlayerID]++
			}
		}
	}
	return assists
}

type PlayerTally struct {
	Goals       int `json:"goals"`
	Assists     int `json:"assists"`
	Saves       int `json:"saves"`
	YellowCards int `json:"yellow_cards"`
	RedCards    int `json:"red_cards"`
	WowMoments  int `json:"wow_moments"`
}

// DeriveTallies builds the per-player event breakdown shown next to the
// scoreboard.
func DeriveTallies(events []Event, matchID uuid.UUID) map[uuid.UUID]PlayerTally {
	tallies := make(map[uuid.UUID]PlayerTally)
	for playerID, n := range DeriveAssists(events, matchID) {
		t := tallies[playerID]
		t.Assists = n
		tallies[playerID] = t
	}
	for _, e := range events {
		if e.MatchID != matchID || e.PlayerID == nil {
			continue
		}
		t := tallies[*e.PlayerID]
		switch e.Type {
		case EventGoal:
			t.Goals++
		case EventSave:
			t.Saves++
		case EventYellowCard:
			t.YellowCards++
		case EventRedCard:
			t.RedCards++
		case EventWowMoment:
			t.WowMoments++
		case EventAssist:
			// counted above
		}
		tallies[*e.PlayerID] = t
	}
	return tallies
}
