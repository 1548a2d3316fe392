package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/middleware"
	"github.com/google/uuid"
)

// Roster is the read side of team management the engine depends on.
type Roster interface {
	GetTeams(ctx context.Context, ids []uuid.UUID) ([]fixture.Team, error)
	TeamMembers(ctx context.Context, teamID uuid.UUID) ([]fixture.Member, error)
}

// Authorizer decides whether the caller may change a fixture.
type Authorizer interface {
	CanManage(ctx context.Context, f *fixture.Fixture) error
}

// OwnerAuthorizer lets the fixture owner and the super user manage a fixture.
type OwnerAuthorizer struct{}

func (OwnerAuthorizer) CanManage(ctx context.Context, f *fixture.Fixture) error {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: not signed in", fixture.ErrForbidden)
	}
	if userID == f.OwnerID || userID == uuid.MustParse(middleware.SuperUserID) {
		return nil
	}
	return fmt.Errorf("%w: only the fixture owner can change it", fixture.ErrForbidden)
}

// Rules are the match rules shared by every fixture.
type Rules struct {
	GoalThreshold int
}

var DefaultRules = Rules{GoalThreshold: 2}

// ClockKey is the snapshot key of a fixture's match clock.
func ClockKey(fixtureID uuid.UUID) string {
	return "fixture:" + fixtureID.String()
}
