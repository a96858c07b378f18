package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// ExpectationError describes one expectation that did not hold.
type ExpectationError struct {
	Field    string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "expectation failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if n := len(e.Trace); n > 0 {
		last := e.Trace[n-1]
		fmt.Fprintf(&buf, "  After point %d: games %s, points %s", last.Seq, last.Games, last.Points)
		if last.Sets != "" {
			fmt.Fprintf(&buf, ", sets %s", last.Sets)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// CheckExpect compares the result's final state against expect and returns
// one message per mismatch. A nil expect checks nothing.
func CheckExpect(expect *Expect, result *Result) []string {
	if expect == nil {
		return nil
	}

	var errs []string
	mismatch := func(field, want, got string) {
		e := &ExpectationError{Field: field, Expected: want, Actual: got, Trace: result.Trace}
		errs = append(errs, e.Error())
	}

	final := result.Final
	if expect.Winner != "" && final.Winner != expect.Winner {
		mismatch("winner", string(expect.Winner), orNone(string(final.Winner)))
	}
	if expect.Completed != nil && final.Completed != *expect.Completed {
		mismatch("completed", fmt.Sprint(*expect.Completed), fmt.Sprint(final.Completed))
	}
	if expect.Games != nil {
		got := []int{final.GamesA, final.GamesB}
		if !slices.Equal(expect.Games, got) {
			mismatch("games", pair(expect.Games), pair(got))
		}
	}
	if expect.Sets != nil {
		got := []int{final.SetsA, final.SetsB}
		if !slices.Equal(expect.Sets, got) {
			mismatch("sets", pair(expect.Sets), pair(got))
		}
	}
	if expect.CurrentSet != 0 && final.CurrentSet != expect.CurrentSet {
		mismatch("current_set", fmt.Sprint(expect.CurrentSet), fmt.Sprint(final.CurrentSet))
	}
	if expect.Display != "" {
		if got := DisplayPoints(final); got != expect.Display {
			mismatch("display", expect.Display, got)
		}
	}
	if expect.Server != "" {
		if got := scoring.CurrentServer(final); final.Completed || got != expect.Server {
			if final.Completed {
				got = "match completed"
			}
			mismatch("server", expect.Server, orNone(got))
		}
	}
	if expect.Ignored != nil && result.Ignored != *expect.Ignored {
		mismatch("ignored", fmt.Sprint(*expect.Ignored), fmt.Sprint(result.Ignored))
	}
	return errs
}

func pair(v []int) string {
	return fmt.Sprintf("%d-%d", v[0], v[1])
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
