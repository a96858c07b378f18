package scoring

// IsSetWon reports the set winner, if any, for a games score. A set goes to
// the first side with six games and a two-game lead, or to the side that
// reaches 7-6.
func IsSetWon(gamesA, gamesB int) (Team, bool) {
	if gamesA >= GamesPerSet && gamesA-gamesB >= 2 {
		return TeamA, true
	}
	if gamesB >= GamesPerSet && gamesB-gamesA >= 2 {
		return TeamB, true
	}
	if gamesA == GamesPerSet+1 && gamesB == GamesPerSet {
		return TeamA, true
	}
	if gamesB == GamesPerSet+1 && gamesA == GamesPerSet {
		return TeamB, true
	}
	return "", false
}

// IsTieBreak reports whether the set is tied at six games all.
func IsTieBreak(gamesA, gamesB int) bool {
	return gamesA == GamesPerSet && gamesB == GamesPerSet
}

func standardGameWon(state MatchState, winner Team) MatchState {
	if winner == TeamA {
		state.GamesA++
	} else {
		state.GamesB++
	}

	if setWinner, ok := IsSetWon(state.GamesA, state.GamesB); ok {
		if setWinner == TeamA {
			state.SetsA++
		} else {
			state.SetsB++
		}

		if state.SetsA >= SetsToWin || state.SetsB >= SetsToWin {
			state.Winner = setWinner
			state.Completed = true
		} else {
			state.GamesA, state.GamesB = 0, 0
			state.CurrentSet++
		}
	}

	state.CurrentGame = CurrentGame{
		GameNumber:  state.GamesA + state.GamesB + 1,
		ServerIndex: 0,
	}
	return state
}
