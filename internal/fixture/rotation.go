package fixture

// Rotate computes the next role assignment under winner-stays-on: the winner
// takes home, the team that was waiting comes in as away, and the loser sits
// out.
func Rotate(current RoleAssignment, winner Role) (RoleAssignment, error) {
	if !winner.Active() {
		return RoleAssignment{}, invalidStatef("winner must be home or away, got %q", winner)
	}
	loser, _ := winner.Opponent()

	next := RoleAssignment{
		Home:    current.Team(winner),
		Away:    current.Waiting,
		Waiting: current.Team(loser),
	}
	if err := next.Validate(); err != nil {
		return RoleAssignment{}, invalidStatef("current roles are inconsistent")
	}
	return next, nil
}
