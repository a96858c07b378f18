package scoring

import "fmt"

// Mode selects the match format.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeShort    Mode = "short"
)

// Valid reports whether m is a known format.
func (m Mode) Valid() bool {
	return m == ModeStandard || m == ModeShort
}

// ParseMode converts a stored or user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", newInvalidInput("unknown match mode %q", s)
	}
	return m, nil
}

// Team identifies one side of a match.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// Valid reports whether t is A or B.
func (t Team) Valid() bool {
	return t == TeamA || t == TeamB
}

// Other returns the opposing side.
func (t Team) Other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// ParseTeam converts "A" or "B" into a Team.
func ParseTeam(s string) (Team, error) {
	t := Team(s)
	if !t.Valid() {
		return "", newInvalidInput("unknown team %q: must be A or B", s)
	}
	return t, nil
}

// GameState is the derived status of the game in progress.
type GameState string

const (
	GameInProgress GameState = "IN_PROGRESS"
	GameDeuce      GameState = "DEUCE"
	GameAdvantageA GameState = "ADVANTAGE_A"
	GameAdvantageB GameState = "ADVANTAGE_B"
	GameWonA       GameState = "WON_A"
	GameWonB       GameState = "WON_B"
)

// Format constants.
const (
	ShortFormatServers    = 3
	ShortFormatGamesToWin = 2
	ShortFormatTotalGames = 3

	GamesPerSet = 6
	SetsToWin   = 2
)

// CurrentGame is the point score of the game being played.
type CurrentGame struct {
	PointsA     int `json:"points_a"`
	PointsB     int `json:"points_b"`
	GameNumber  int `json:"game_number"`
	ServerIndex int `json:"server_index"`
}

// MatchState is the complete scoring state of a match.
//
// GamesA/GamesB count games in the current set for ModeStandard and games in
// the whole match for ModeShort. SetsA, SetsB and CurrentSet are zero in
// ModeShort.
type MatchState struct {
	Mode        Mode        `json:"mode"`
	Servers     []string    `json:"servers,omitempty"`
	CurrentGame CurrentGame `json:"current_game"`
	GamesA      int         `json:"games_a"`
	GamesB      int         `json:"games_b"`
	SetsA       int         `json:"sets_a"`
	SetsB       int         `json:"sets_b"`
	CurrentSet  int         `json:"current_set"`
	Winner      Team        `json:"winner,omitempty"`
	Completed   bool        `json:"completed"`
}

// String renders a compact score line, e.g. "standard set=2 sets=1-0 games=3-2 points=30-15".
func (s MatchState) String() string {
	a, b := GameDisplay(s.CurrentGame.PointsA, s.CurrentGame.PointsB)
	if s.Mode == ModeShort {
		return fmt.Sprintf("short game=%d games=%d-%d points=%s-%s", s.CurrentGame.GameNumber, s.GamesA, s.GamesB, a, b)
	}
	return fmt.Sprintf("standard set=%d sets=%d-%d games=%d-%d points=%s-%s",
		s.CurrentSet, s.SetsA, s.SetsB, s.GamesA, s.GamesB, a, b)
}

// clone returns a copy that shares no slices with s.
func (s MatchState) clone() MatchState {
	out := s
	if s.Servers != nil {
		out.Servers = append([]string(nil), s.Servers...)
	}
	return out
}
