package fixture

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNotStarted     Status = "NOT_STARTED"
	StatusWaitingToStart Status = "WAITING_TO_START"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusCompleted      Status = "COMPLETED"
)

type Fixture struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	Title       string    `db:"title" json:"title"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status      Status    `db:"status" json:"status"`

	// Pool as assigned by setup; the first match context is built from it.
	HomeTeamID    *uuid.UUID `db:"home_team_id" json:"home_team_id,omitempty"`
	AwayTeamID    *uuid.UUID `db:"away_team_id" json:"away_team_id,omitempty"`
	WaitingTeamID *uuid.UUID `db:"waiting_team_id" json:"waiting_team_id,omitempty"`

	CurrentMatchID *uuid.UUID `db:"current_match_id" json:"current_match_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// RoleAssignment maps each role of a match context to a team.
type RoleAssignment struct {
	Home    uuid.UUID `json:"home"`
	Away    uuid.UUID `json:"away"`
	Waiting uuid.UUID `json:"waiting"`
}

func (a RoleAssignment) Validate() error {
	if a.Home == uuid.Nil || a.Away == uuid.Nil || a.Waiting == uuid.Nil {
		return validationf("invalid team setup: three teams are required")
	}
	if a.Home == a.Away || a.Home == a.Waiting || a.Away == a.Waiting {
		return validationf("invalid team setup: a team can only hold one role")
	}
	return nil
}

func (a RoleAssignment) Team(role Role) uuid.UUID {
	switch role {
	case RoleHome:
		return a.Home
	case RoleAway:
		return a.Away
	case RoleWaiting:
		return a.Waiting
	}
	return uuid.Nil
}

func (a RoleAssignment) TeamIDs() []uuid.UUID {
	return []uuid.UUID{a.Home, a.Away, a.Waiting}
}

func (f *Fixture) Assignment() (RoleAssignment, bool) {
	if f.HomeTeamID == nil || f.AwayTeamID == nil || f.WaitingTeamID == nil {
		return RoleAssignment{}, false
	}
	return RoleAssignment{Home: *f.HomeTeamID, Away: *f.AwayTeamID, Waiting: *f.WaitingTeamID}, true
}

func (f *Fixture) Setup(a RoleAssignment) error {
	if f.Status != StatusNotStarted {
		return transitionf("fixture is %s, setup requires %s", f.Status, StatusNotStarted)
	}
	if err := a.Validate(); err != nil {
		return err
	}
	f.HomeTeamID = &a.Home
	f.AwayTeamID = &a.Away
	f.WaitingTeamID = &a.Waiting
	f.Status = StatusWaitingToStart
	return nil
}

func (f *Fixture) Start(firstMatchID uuid.UUID) error {
	if f.Status != StatusWaitingToStart {
		return transitionf("fixture is %s, start requires %s", f.Status, StatusWaitingToStart)
	}
	if _, ok := f.Assignment(); !ok {
		return transitionf("fixture has no team setup")
	}
	f.Status = StatusInProgress
	f.CurrentMatchID = &firstMatchID
	return nil
}

// Advance moves the current pointer to a match context created by rotation.
func (f *Fixture) Advance(nextMatchID uuid.UUID) error {
	if err := f.RequireInProgress(); err != nil {
		return err
	}
	f.CurrentMatchID = &nextMatchID
	return nil
}

func (f *Fixture) End() error {
	if f.Status != StatusInProgress {
		return transitionf("fixture is %s, end requires %s", f.Status, StatusInProgress)
	}
	f.Status = StatusCompleted
	return nil
}

func (f *Fixture) RequireInProgress() error {
	if f.Status != StatusInProgress {
		return transitionf("fixture is %s, not %s", f.Status, StatusInProgress)
	}
	return nil
}

func (f *Fixture) IsCurrent(matchID uuid.UUID) bool {
	return f.CurrentMatchID != nil && *f.CurrentMatchID == matchID
}
