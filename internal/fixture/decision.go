package fixture

type Outcome string

const (
	OutcomeNone     Outcome = "none"
	OutcomeWinner   Outcome = "winner"
	OutcomeTieBreak Outcome = "tie_break"
)

type Decision struct {
	Outcome Outcome `json:"outcome"`
	Winner  Role    `json:"winner,omitempty"`
	Loser   Role    `json:"loser,omitempty"`
}

func (d Decision) HasWinner() bool {
	return d.Outcome == OutcomeWinner
}

// Evaluate applies the win rules to a scoreline. Reaching the goal threshold
// decides the match regardless of the clock. At clock expiry the higher score
// wins; a level score needs a manual tie-break. A batch that takes both
// teams to the threshold level is also a tie-break.
func Evaluate(line Scoreline, threshold int, clockExpired bool) Decision {
	reached := threshold > 0 && (line.Home >= threshold || line.Away >= threshold)
	if !reached && !clockExpired {
		return Decision{Outcome: OutcomeNone}
	}

	switch {
	case line.Home > line.Away:
		return winner(RoleHome)
	case line.Away > line.Home:
		return winner(RoleAway)
	}
	return Decision{Outcome: OutcomeTieBreak}
}

func winner(role Role) Decision {
	loser, _ := role.Opponent()
	return Decision{Outcome: OutcomeWinner, Winner: role, Loser: loser}
}
