package scoring

// DeriveGameState classifies a point score.
//
// Once both sides have three or more points the lead alone decides the
// state; only below that does the four-point threshold apply. The function
// is total over non-negative inputs.
func DeriveGameState(pointsA, pointsB int) GameState {
	if pointsA >= 3 && pointsB >= 3 {
		switch diff := pointsA - pointsB; {
		case diff == 0:
			return GameDeuce
		case diff == 1:
			return GameAdvantageA
		case diff == -1:
			return GameAdvantageB
		case diff >= 2:
			return GameWonA
		default:
			return GameWonB
		}
	}

	if pointsA >= 4 && pointsA-pointsB >= 2 {
		return GameWonA
	}
	if pointsB >= 4 && pointsB-pointsA >= 2 {
		return GameWonB
	}
	return GameInProgress
}

var pointNames = [...]string{"0", "15", "30", "40"}

// PointDisplay maps a raw point count to its spoken value. Anything outside
// 0-3 clamps to "40".
func PointDisplay(points int) string {
	if points < 0 || points >= len(pointNames) {
		return "40"
	}
	return pointNames[points]
}

// GameDisplay returns the display strings for both sides of a game.
func GameDisplay(pointsA, pointsB int) (string, string) {
	switch DeriveGameState(pointsA, pointsB) {
	case GameDeuce:
		return "Deuce", "Deuce"
	case GameAdvantageA:
		return "Ad", "40"
	case GameAdvantageB:
		return "40", "Ad"
	default:
		return PointDisplay(pointsA), PointDisplay(pointsB)
	}
}
