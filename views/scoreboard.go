package views

import (
	"sort"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/highlight"
	"github.com/AdamBeresnev/kickabout/internal/service"
	"github.com/AdamBeresnev/kickabout/internal/utils"
	"github.com/google/uuid"
)

type PlayerLine struct {
	ID    uuid.UUID
	Name  string
	Tally fixture.PlayerTally
}

type TeamPanel struct {
	RoleID  uuid.UUID
	Role    fixture.Role
	Name    string
	Color   string
	Goals   int
	Players []PlayerLine
}

type FeedItem struct {
	Type      fixture.EventType
	Team      string
	Player    string
	Secondary string
	Embed     highlight.Embed
	At        time.Time
}

type HistoryLine struct {
	Sequence int
	Home     string
	Away     string
	Score    fixture.Scoreline
	Winner   string
}

type Scoreboard struct {
	FixtureID uuid.UUID
	Title     string
	Status    fixture.Status
	MatchID   *uuid.UUID
	Sequence  int
	Teams     []TeamPanel
	Feed      []FeedItem
	History   []HistoryLine
}

func (s Scoreboard) Team(role fixture.Role) (TeamPanel, bool) {
	for _, t := range s.Teams {
		if t.Role == role {
			return t, true
		}
	}
	return TeamPanel{}, false
}

// PrepareScoreboard flattens fixture data into what the scoreboard shows:
// the current context's teams and feed plus one line per finished context.
func PrepareScoreboard(data *service.FixtureData) Scoreboard {
	board := Scoreboard{
		FixtureID: data.Fixture.ID,
		Title:     data.Fixture.Title,
		Status:    data.Fixture.Status,
	}

	for _, m := range data.Matches {
		if m.Match.Status != fixture.MatchCompleted {
			continue
		}
		line := HistoryLine{Sequence: m.Match.Sequence, Score: m.Score}
		for _, r := range m.Roles {
			switch r.Role {
			case fixture.RoleHome:
				line.Home = r.TeamName
			case fixture.RoleAway:
				line.Away = r.TeamName
			}
			if m.Winner != nil && *m.Winner == r.ID {
				line.Winner = r.TeamName
			}
		}
		board.History = append(board.History, line)
	}
	sort.Slice(board.History, func(i, j int) bool {
		return board.History[i].Sequence > board.History[j].Sequence
	})

	current := data.Current
	if current == nil {
		return board
	}
	board.MatchID = utils.Ptr(current.Match.ID)
	board.Sequence = current.Match.Sequence

	names := make(map[uuid.UUID]string)
	for _, r := range current.Roles {
		panel := TeamPanel{RoleID: r.ID, Role: r.Role, Name: r.TeamName, Color: r.Color, Goals: r.Goals}
		for _, m := range r.Members {
			panel.Players = append(panel.Players, PlayerLine{ID: m.PlayerID, Name: m.PlayerName, Tally: current.Tallies[m.PlayerID]})
		}
		board.Teams = append(board.Teams, panel)
		names[r.ID] = r.TeamName
	}

	for i := len(current.Events) - 1; i >= 0; i-- {
		e := current.Events[i]
		board.Feed = append(board.Feed, FeedItem{
			Type:      e.Type,
			Team:      names[e.RoleID],
			Player:    utils.OrZero(e.PlayerName),
			Secondary: utils.OrZero(e.SecondaryPlayerName),
			Embed:     highlight.GetEmbed(e.ClipURL),
			At:        e.CreatedAt,
		})
	}
	return board
}
