package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/harness"
)

// DefaultScenarioDir is where test looks when no path is given.
const DefaultScenarioDir = "testdata/scenarios"

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	GoldenDir string // defaults to a "golden" directory beside the scenarios
	Filter    string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Final  string   `json:"final"`
	Golden string   `json:"golden,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test [scenarios]",
		Short: "Run scoring scenarios against the engine",
		Long: `Play YAML scoring scenarios through the scoring engine, check their
expectations and compare each trace with its golden file when one exists.

The path may be a directory of *.yaml files or a single scenario file.
Golden files are named <scenario>.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid path, malformed scenario, etc.)

Examples:
  ots test
  ots test ./scenarios --filter "standard_*"
  ots test ./scenarios --update
  ots test ./scenarios --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := DefaultScenarioDir
			if len(args) == 1 {
				path = args[0]
			}
			return runTests(cmd, opts, path)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, path string) error {
	out := newFormatter(cmd, opts.RootOptions)

	info, err := os.Stat(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenarios not found", err)
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return WrapExitError(ExitCommandError, "invalid --filter pattern", err)
		}
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		base := path
		if !info.IsDir() {
			base = filepath.Dir(path)
		}
		goldenDir = filepath.Join(filepath.Dir(filepath.Clean(base)), "golden")
	}

	scenarios, err := harness.LoadScenarios(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, s := range scenarios {
		if opts.Filter != "" {
			if ok, _ := filepath.Match(opts.Filter, s.Name); !ok {
				continue
			}
		}

		r, err := harness.Run(s)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scenario %s", s.Name), err)
		}
		sr := ScenarioResult{
			Name:   s.Name,
			Pass:   r.Pass,
			Final:  r.Final.String(),
			Errors: r.Errors,
		}

		status, err := checkGolden(goldenDir, s, r, opts.Update)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("golden file for %s", s.Name), err)
		}
		sr.Golden = status
		if status == goldenMismatch {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("trace differs from %s (rerun with --update to accept)",
				goldenPath(goldenDir, s.Name)))
		}
		out.VerboseLog("%s: %d points, golden %s", s.Name, len(r.Trace), orNone(status))

		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}
	result.Total = len(result.Scenarios)

	text := func(w io.Writer) { printTests(w, result) }
	if result.Failed > 0 {
		return out.Fail(ExitFailure, "E_SCENARIO_FAILED",
			fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total), result, text)
	}
	return out.Render(result, text)
}

const (
	goldenMatch    = "match"
	goldenMismatch = "mismatch"
	goldenWritten  = "written"
)

func goldenPath(dir, name string) string {
	return filepath.Join(dir, name+".golden")
}

// checkGolden compares the trace with its golden file. A missing golden file
// is not an error and yields an empty status.
func checkGolden(dir string, s *harness.Scenario, r *harness.Result, update bool) (string, error) {
	snap, err := harness.Snapshot(s.Name, s.Mode, r)
	if err != nil {
		return "", err
	}
	path := goldenPath(dir, s.Name)

	if update {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(path, snap, 0o644); err != nil {
			return "", err
		}
		return goldenWritten, nil
	}

	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimRight(string(want), "\n") != string(snap) {
		return goldenMismatch, nil
	}
	return goldenMatch, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func printTests(w io.Writer, r TestResult) {
	if r.Total == 0 {
		fmt.Fprintln(w, "No scenarios matched.")
		return
	}

	for _, s := range r.Scenarios {
		if s.Pass {
			fmt.Fprintf(w, "✓ %s  %s\n", s.Name, s.Final)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
}
