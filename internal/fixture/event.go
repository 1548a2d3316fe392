package fixture

import (
	"strings"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/utils"
	"github.com/google/uuid"
)

type EventType string

const (
	EventGoal       EventType = "GOAL"
	EventAssist     EventType = "ASSIST"
	EventSave       EventType = "SAVE"
	EventYellowCard EventType = "YELLOW_CARD"
	EventRedCard    EventType = "RED_CARD"
	EventWowMoment  EventType = "WOW_MOMENT"
	EventWin        EventType = "WIN"
)

func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case EventGoal, EventAssist, EventSave, EventYellowCard, EventRedCard, EventWowMoment, EventWin:
		return t, nil
	}
	return "", validationf("unknown event type %q", s)
}

// Detail is the type-specific part of an event. The set of implementations
// is closed: Goal, PlayerAction and Win.
type Detail interface {
	Type() EventType
	isDetail()
}

type Goal struct {
	Scorer uuid.UUID
	Assist *uuid.UUID
}

func (Goal) Type() EventType { return EventGoal }
func (Goal) isDetail()       {}

// PlayerAction covers every per-player event other than a goal.
type PlayerAction struct {
	Kind    EventType
	Player  uuid.UUID
	ClipURL *string
}

func (a PlayerAction) Type() EventType { return a.Kind }
func (PlayerAction) isDetail()         {}

type Win struct{}

func (Win) Type() EventType { return EventWin }
func (Win) isDetail()       {}

// Draft is an event as submitted, before it is stored.
type Draft struct {
	RoleID uuid.UUID
	Detail Detail
}

// NewDraft builds the tagged variant for a submitted event.
func NewDraft(roleID uuid.UUID, t EventType, player, assist *uuid.UUID, clipURL *string) (Draft, error) {
	d := Draft{RoleID: roleID}
	switch t {
	case EventGoal:
		if player == nil {
			return d, validationf("%s requires a player", t)
		}
		d.Detail = Goal{Scorer: *player, Assist: assist}
	case EventAssist, EventSave, EventYellowCard, EventRedCard, EventWowMoment:
		if player == nil {
			return d, validationf("%s requires a player", t)
		}
		if assist != nil {
			return d, validationf("only a goal can carry an assist")
		}
		if clipURL != nil && t != EventWowMoment {
			return d, validationf("only a wow moment can carry a clip")
		}
		d.Detail = PlayerAction{Kind: t, Player: *player, ClipURL: clipURL}
	case EventWin:
		if player != nil || assist != nil {
			return d, validationf("a win marker has no player")
		}
		d.Detail = Win{}
	default:
		return d, validationf("unknown event type %q", t)
	}
	return d, nil
}

type Event struct {
	ID      uuid.UUID `db:"id" json:"id"`
	MatchID uuid.UUID `db:"match_id" json:"match_id"`
	RoleID  uuid.UUID `db:"role_id" json:"role_id"`
	Type    EventType `db:"type" json:"type"`

	// Player names are copied at write time so history still reads
	// correctly after a player is renamed or removed.
	PlayerID            *uuid.UUID `db:"player_id" json:"player_id,omitempty"`
	PlayerName          *string    `db:"player_name" json:"player_name,omitempty"`
	SecondaryPlayerID   *uuid.UUID `db:"secondary_player_id" json:"secondary_player_id,omitempty"`
	SecondaryPlayerName *string    `db:"secondary_player_name" json:"secondary_player_name,omitempty"`

	ClipURL   *string   `db:"clip_url" json:"clip_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Detail rebuilds the tagged variant from the stored row.
func (e Event) Detail() Detail {
	switch e.Type {
	case EventGoal:
		return Goal{Scorer: utils.OrZero(e.PlayerID), Assist: e.SecondaryPlayerID}
	case EventWin:
		return Win{}
	default:
		return PlayerAction{Kind: e.Type, Player: utils.OrZero(e.PlayerID), ClipURL: e.ClipURL}
	}
}

// NewEvents validates a batch of drafts against a match context and turns
// them into events ready to append. Either every draft is valid or none of
// them is returned.
func NewEvents(match *Match, roles Roles, lineup Lineup, drafts []Draft, now time.Time) ([]Event, error) {
	if err := match.RequireInProgress(); err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, validationf("no events submitted")
	}

	events := make([]Event, 0, len(drafts))
	for i, d := range drafts {
		role, ok := roles.ByID(d.RoleID)
		if !ok {
			return nil, validationf("event %d: team role is not part of this match", i+1)
		}

		e := Event{
			ID:        uuid.New(),
			MatchID:   match.ID,
			RoleID:    role.ID,
			CreatedAt: now,
		}

		switch detail := d.Detail.(type) {
		case Goal:
			scorer, ok := lineup.Member(role.ID, detail.Scorer)
			if !ok {
				return nil, validationf("event %d: scorer is not on this team", i+1)
			}
			e.Type = EventGoal
			e.PlayerID = utils.Ptr(scorer.PlayerID)
			e.PlayerName = utils.Ptr(scorer.PlayerName)
			if detail.Assist != nil {
				if *detail.Assist == detail.Scorer {
					return nil, validationf("event %d: a player cannot assist their own goal", i+1)
				}
				assist, ok := lineup.Member(role.ID, *detail.Assist)
				if !ok {
					return nil, validationf("event %d: assisting player is not on this team", i+1)
				}
				e.SecondaryPlayerID = utils.Ptr(assist.PlayerID)
				e.SecondaryPlayerName = utils.Ptr(assist.PlayerName)
			}
		case PlayerAction:
			if detail.Kind == EventGoal || detail.Kind == EventWin {
				return nil, validationf("event %d: %s is not a player action", i+1, detail.Kind)
			}
			player, ok := lineup.Member(role.ID, detail.Player)
			if !ok {
				return nil, validationf("event %d: player is not on this team", i+1)
			}
			e.Type = detail.Kind
			e.PlayerID = utils.Ptr(player.PlayerID)
			e.PlayerName = utils.Ptr(player.PlayerName)
			if detail.Kind == EventWowMoment {
				e.ClipURL = detail.ClipURL
			}
		case Win:
			if !role.Role.Active() {
				return nil, validationf("event %d: the waiting team cannot win", i+1)
			}
			e.Type = EventWin
		default:
			return nil, validationf("event %d: missing event details", i+1)
		}

		events = append(events, e)
	}

	return events, nil
}
