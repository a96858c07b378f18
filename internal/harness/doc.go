// Package harness runs scoring scenarios as executable contract tests.
//
// A scenario names a match format, the points played and the outcome it
// expects. The harness folds the points through the scoring engine, records
// one trace event per point, and checks the final state against the
// expectation. Traces are rendered as canonical JSON so they can be compared
// against golden files.
//
// # Scenario Format
//
//	name: short_format_decider
//	description: "Third game decides a short-format match"
//	mode: short
//	servers: [p1, p2, p3]
//	points: "AAAA BBBB AAAA B"
//	expect:
//	  winner: A
//	  completed: true
//	  games: [2, 1]
//	  ignored: 1
//
// points is either a string of A/B (whitespace is ignored) or a list of such
// strings, which is convenient for writing one game per line:
//
//	points:
//	  - AAAA
//	  - BBBB
//
// # Expectations
//
// Every field of expect is optional; only the fields present are checked.
//
//   - winner: team that won the match
//   - completed: whether the match is over
//   - games: [A, B] games in the current set (standard) or the match (short)
//   - sets: [A, B] sets won, standard only
//   - current_set: set in progress, standard only
//   - display: current game score as shown on a scoreboard, e.g. "30-15", "Deuce", "Ad-40"
//   - server: player serving the next point, short only
//   - ignored: number of points played after the match was over
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/deuce.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
