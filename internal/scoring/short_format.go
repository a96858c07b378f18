package scoring

func shortFormatGameWon(state MatchState, winner Team) MatchState {
	if winner == TeamA {
		state.GamesA++
	} else {
		state.GamesB++
	}

	if state.GamesA >= ShortFormatGamesToWin || state.GamesB >= ShortFormatGamesToWin {
		state.Winner = winner
		state.Completed = true
		state.CurrentGame.PointsA, state.CurrentGame.PointsB = 0, 0
		return state
	}

	next := state.CurrentGame.ServerIndex + 1
	if n := len(state.Servers); n > 0 {
		next %= n
	}
	state.CurrentGame = CurrentGame{
		GameNumber:  state.CurrentGame.GameNumber + 1,
		ServerIndex: next,
	}
	return state
}
