package scoring

// Side is a pair of per-team values.
type Side[T any] struct {
	A T `json:"a"`
	B T `json:"b"`
}

// Board is the display projection of a MatchState.
type Board struct {
	Mode       Mode         `json:"mode"`
	Points     Side[string] `json:"points"`
	Games      Side[int]    `json:"games"`
	Sets       *Side[int]   `json:"sets,omitempty"`
	GameNumber int          `json:"game_number"`
	CurrentSet int          `json:"current_set,omitempty"`
	TotalGames int          `json:"total_games,omitempty"`
	TieBreak   bool         `json:"tie_break"`
	Server     string       `json:"server,omitempty"`
	Winner     Team         `json:"winner,omitempty"`
	Completed  bool         `json:"completed"`
}

// Scoreboard projects state into display values.
func Scoreboard(state MatchState) Board {
	a, b := GameDisplay(state.CurrentGame.PointsA, state.CurrentGame.PointsB)
	board := Board{
		Mode:       state.Mode,
		Points:     Side[string]{A: a, B: b},
		Games:      Side[int]{A: state.GamesA, B: state.GamesB},
		GameNumber: state.CurrentGame.GameNumber,
		Winner:     state.Winner,
		Completed:  state.Completed,
	}

	if state.Mode == ModeShort {
		board.TotalGames = ShortFormatTotalGames
		board.Server = CurrentServer(state)
		return board
	}

	board.Sets = &Side[int]{A: state.SetsA, B: state.SetsB}
	board.CurrentSet = state.CurrentSet
	board.TieBreak = IsTieBreak(state.GamesA, state.GamesB)
	return board
}
