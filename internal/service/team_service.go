package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const maxNameLength = 50

type TeamService struct {
	db    *sqlx.DB
	store *store.TeamStore
}

func NewTeamService(db *sqlx.DB, store *store.TeamStore) *TeamService {
	return &TeamService{db: db, store: store}
}

type TeamData struct {
	Team    *fixture.Team    `json:"team"`
	Members []fixture.Member `json:"members"`
}

// CreateTeam creates a team together with new players for each name, in
// the given order.
func (s *TeamService) CreateTeam(ctx context.Context, name, color string, playerNames []string) (*TeamData, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", fixture.ErrValidation)
	}
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: team name '%s' exceeds %d characters", fixture.ErrValidation, name, maxNameLength)
	}

	now := time.Now().UTC()
	team := &fixture.Team{ID: uuid.New(), Name: name, Color: strings.TrimSpace(color), CreatedAt: now}
	players, err := newPlayers(playerNames, now)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateTeam(ctx, tx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	if err := s.addPlayers(ctx, tx, team.ID, players); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetTeam(ctx, team.ID)
}

// AddPlayers adds new players to the end of a team's roster. Match contexts
// that already exist keep their member snapshot.
func (s *TeamService) AddPlayers(ctx context.Context, teamID uuid.UUID, playerNames []string) (*TeamData, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	players, err := newPlayers(playerNames, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.addPlayers(ctx, tx, teamID, players); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetTeam(ctx, teamID)
}

func (s *TeamService) RemovePlayer(ctx context.Context, teamID, playerID uuid.UUID) error {
	if err := s.store.RemoveMember(ctx, teamID, playerID); err != nil {
		return notFound(err, "team member", playerID)
	}
	return nil
}

func (s *TeamService) GetTeam(ctx context.Context, teamID uuid.UUID) (*TeamData, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, notFound(err, "team", teamID)
	}
	members, err := s.store.TeamMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	return &TeamData{Team: team, Members: members}, nil
}

func (s *TeamService) addPlayers(ctx context.Context, tx *sqlx.Tx, teamID uuid.UUID, players []fixture.Player) error {
	if err := s.store.CreatePlayers(ctx, tx, players); err != nil {
		return fmt.Errorf("failed to create players: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	if err := s.store.AddMembers(ctx, tx, teamID, ids); err != nil {
		return fmt.Errorf("failed to add members: %w", err)
	}
	return nil
}

func newPlayers(names []string, now time.Time) ([]fixture.Player, error) {
	players := make([]fixture.Player, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if len(n) > maxNameLength {
			return nil, fmt.Errorf("%w: player name '%s' exceeds %d characters", fixture.ErrValidation, n, maxNameLength)
		}
		players = append(players, fixture.Player{ID: uuid.New(), Name: n, CreatedAt: now})
	}
	return players, nil
}
