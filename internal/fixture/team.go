package fixture

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Player struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Member is a player as listed on a team or on a role's member snapshot.
type Member struct {
	PlayerID uuid.UUID `db:"player_id" json:"player_id"`
	Name     string    `db:"name" json:"name"`
	Position int       `db:"position" json:"position"`
}
