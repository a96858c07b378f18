package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/canon"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// TraceSnapshot is the golden-file form of a scenario trace.
type TraceSnapshot struct {
	Scenario string       `json:"scenario"`
	Mode     scoring.Mode `json:"mode"`
	Trace    []TraceEvent `json:"trace"`
}

// Snapshot renders a result's trace as canonical JSON.
func Snapshot(name string, mode scoring.Mode, result *Result) ([]byte, error) {
	return canon.Marshal(TraceSnapshot{
		Scenario: name,
		Mode:     mode,
		Trace:    result.Trace,
	})
}

// RunWithGolden runs a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, scenario.Mode, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, mode scoring.Mode, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(name, mode, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
