package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "deuce.yaml", `
name: deuce
description: "Deuce game"
mode: standard
points: "AAA BBB A"
expect:
  display: "Ad-40"
  games: [0, 0]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "deuce", scenario.Name)
	assert.Equal(t, scoring.ModeStandard, scenario.Mode)
	assert.Equal(t, "AAABBBA", scenario.Points.String())
	require.NotNil(t, scenario.Expect)
	assert.Equal(t, "Ad-40", scenario.Expect.Display)
	assert.Equal(t, []int{0, 0}, scenario.Expect.Games)
	assert.Nil(t, scenario.Expect.Completed)
}

func TestLoadScenario_PointsAsList(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "list.yaml", `
name: list
mode: short
servers: [p1, p2, p3]
points:
  - AAAA
  - B B
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, Points{"A", "A", "A", "A", "B", "B"}, scenario.Points)
	assert.Equal(t, []string{"p1", "p2", "p3"}, scenario.Servers)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "mode: standard\npoints: A\n",
			wantErr: "name is required",
		},
		{
			name:    "unknown mode",
			content: "name: x\nmode: pro\npoints: A\n",
			wantErr: "mode must be",
		},
		{
			name:    "short without three servers",
			content: "name: x\nmode: short\nservers: [p1]\npoints: A\n",
			wantErr: "requires 3 servers",
		},
		{
			name:    "empty points",
			content: "name: x\nmode: standard\npoints: \"  \"\n",
			wantErr: "points must be non-empty",
		},
		{
			name:    "bad team letter",
			content: "name: x\nmode: standard\npoints: ABC\n",
			wantErr: "unknown team",
		},
		{
			name:    "points as a map",
			content: "name: x\nmode: standard\npoints: {a: 1}\n",
			wantErr: "points must be a string or a list",
		},
		{
			name:    "unknown field",
			content: "name: x\nmode: standard\npoints: A\nexpcet: {}\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "games wrong length",
			content: "name: x\nmode: standard\npoints: A\nexpect:\n  games: [1]\n",
			wantErr: "expect.games must have two entries",
		},
		{
			name:    "sets in short format",
			content: "name: x\nmode: short\nservers: [a, b, c]\npoints: A\nexpect:\n  sets: [0, 0]\n",
			wantErr: "does not apply to short format",
		},
		{
			name:    "server in standard",
			content: "name: x\nmode: standard\npoints: A\nexpect:\n  server: p1\n",
			wantErr: "only applies to short format",
		},
		{
			name:    "bad winner",
			content: "name: x\nmode: standard\npoints: A\nexpect:\n  winner: C\n",
			wantErr: "expect.winner must be A or B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarios_Directory(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.yaml", "name: second\nmode: standard\npoints: A\n")
	writeScenario(t, dir, "a.yml", "name: first\nmode: standard\npoints: B\n")
	writeScenario(t, dir, "notes.txt", "not a scenario")

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "first", scenarios[0].Name)
	assert.Equal(t, "second", scenarios[1].Name)
}

func TestLoadScenarios_SingleFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "one.yaml", "name: one\nmode: standard\npoints: A\n")

	scenarios, err := LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "one", scenarios[0].Name)
}

func TestLoadScenarios_DuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", "name: same\nmode: standard\npoints: A\n")
	writeScenario(t, dir, "b.yaml", "name: same\nmode: standard\npoints: B\n")

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario name "same" already used by a.yaml`)
}

func TestLoadScenarios_BundledScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		assert.NotEmpty(t, s.Description, s.Name)
		assert.NotNil(t, s.Expect, s.Name)
	}
}
