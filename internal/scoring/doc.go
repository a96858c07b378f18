// Package scoring implements the racquet-sport scoring state machine.
//
// Every function in this package is pure: a MatchState goes in, a new
// MatchState comes out, and the input is never modified. Nothing here
// touches storage, the network, or the wall clock, so the engine is safe to
// call from any goroutine without locking.
//
// # Formats
//
// ModeStandard scores points into games, games into sets, and sets into a
// best-of-three match. A set is won at six games with a two-game lead, or
// 7-6 after reaching 6-6. The tie-break itself is scored as an ordinary game.
//
// ModeShort flattens the hierarchy to games only: the first side to two
// games wins the match. Service rotates through a fixed list of three
// servers, advancing one position per game and wrapping modulo the list
// length.
//
// # Terminal State
//
// Once a match is completed, ScorePoint returns the state unchanged. Points
// that arrive after completion are reported by Replay as
// ErrPointAfterCompletion so callers rebuilding a match from its event log
// can detect them.
package scoring
