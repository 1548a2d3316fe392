package store

import (
	"context"

	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TeamStore covers the slice of roster data the match engine reads. Team and
// player management proper lives outside this service.
type TeamStore struct {
	db *sqlx.DB
}

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

type teamPlayer struct {
	TeamID   uuid.UUID `db:"team_id"`
	PlayerID uuid.UUID `db:"player_id"`
	Position int       `db:"position"`
}

func (s *TeamStore) CreateTeam(ctx context.Context, tx *sqlx.Tx, team *fixture.Team) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO teams (id, name, color, created_at)
		VALUES (:id, :name, :color, :created_at)`, team)
	return err
}

func (s *TeamStore) CreatePlayers(ctx context.Context, tx *sqlx.Tx, players []fixture.Player) error {
	if len(players) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO players (id, name, created_at)
		VALUES (:id, :name, :created_at)`, players)
	return err
}

// AddMembers appends players to the end of a team's ordered roster.
func (s *TeamStore) AddMembers(ctx context.Context, tx *sqlx.Tx, teamID uuid.UUID, playerIDs []uuid.UUID) error {
	if len(playerIDs) == 0 {
		return nil
	}
	var last int
	if err := tx.GetContext(ctx, &last, "SELECT COALESCE(MAX(position), 0) FROM team_players WHERE team_id = ?", teamID); err != nil {
		return err
	}

	rows := make([]teamPlayer, 0, len(playerIDs))
	for i, id := range playerIDs {
		rows = append(rows, teamPlayer{TeamID: teamID, PlayerID: id, Position: last + i + 1})
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO team_players (team_id, player_id, position)
		VALUES (:team_id, :player_id, :position)`, rows)
	return err
}

func (s *TeamStore) RemoveMember(ctx context.Context, teamID, playerID uuid.UUID) error {
	return expectOne(s.db.ExecContext(ctx, "DELETE FROM team_players WHERE team_id = ? AND player_id = ?", teamID, playerID))
}

func (s *TeamStore) DeletePlayer(ctx context.Context, playerID uuid.UUID) error {
	return expectOne(s.db.ExecContext(ctx, "DELETE FROM players WHERE id = ?", playerID))
}

func (s *TeamStore) GetTeam(ctx context.Context, id uuid.UUID) (*fixture.Team, error) {
	var team fixture.Team
	if err := s.db.GetContext(ctx, &team, "SELECT * FROM teams WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamStore) GetTeams(ctx context.Context, ids []uuid.UUID) ([]fixture.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM teams WHERE id IN (?) ORDER BY name ASC", ids)
	if err != nil {
		return nil, err
	}
	var teams []fixture.Team
	err = s.db.SelectContext(ctx, &teams, s.db.Rebind(query), args...)
	return teams, err
}

// TeamMembers returns the team's roster in order.
func (s *TeamStore) TeamMembers(ctx context.Context, teamID uuid.UUID) ([]fixture.Member, error) {
	var members []fixture.Member
	err := s.db.SelectContext(ctx, &members, `SELECT tp.player_id, p.name, tp.position FROM team_players tp
		JOIN players p ON p.id = tp.player_id
		WHERE tp.team_id = ?
		ORDER BY tp.position ASC`, teamID)
	return members, err
}
