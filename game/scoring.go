package game

// Points is the base value of each role.
var Points = [RoleCount]int{
	Raja:   1000,
	Mantri: 800,
	Chor:   0,
	Sipahi: 500,
}

// Delta returns what a player holding role earns for a round whose
// Mantri guessed correctly or not. On a miss the Chor takes the Mantri's
// points and the Mantri gets nothing.
func Delta(role Role, correct bool) int {
	if !role.Valid() {
		return 0
	}
	if correct {
		return Points[role]
	}
	switch role {
	case Chor:
		return Points[Mantri]
	case Mantri:
		return 0
	default:
		return Points[role]
	}
}
