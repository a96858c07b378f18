package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deuceScenario = `name: deuce_game
description: "Deuce twice before A holds"
mode: standard
points: "AAABBB ABAA"
expect:
  games: [1, 0]
  display: "0-0"
`

const failingScenario = `name: wrong_winner
mode: short
servers: [p1, p2, p3]
points: "AAAA AAAA"
expect:
  winner: B
`

func writeScenario(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, _, err := execute(t, nil, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios not found")
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenarios")
	writeScenario(t, dir, "deuce.yaml", deuceScenario)

	out, _, err := execute(t, nil, "test", dir, "--format", "json")
	require.NoError(t, err)

	result := decode[TestResult](t, out).Data
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "deuce_game", result.Scenarios[0].Name)
	assert.Empty(t, result.Scenarios[0].Golden)
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenarios")
	writeScenario(t, dir, "deuce.yaml", deuceScenario)
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, _, err := execute(t, nil, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ deuce_game")
	assert.Contains(t, out, "✗ wrong_winner")
	assert.Contains(t, out, "expectation failed: winner")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenarios")
	writeScenario(t, dir, "deuce.yaml", deuceScenario)
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, _, err := execute(t, nil, "test", dir, "--filter", "deuce_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandGoldenFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "scenarios")
	writeScenario(t, dir, "deuce.yaml", deuceScenario)
	golden := filepath.Join(root, "golden", "deuce_game.golden")

	out, _, err := execute(t, nil, "test", dir, "--update", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, goldenWritten, decode[TestResult](t, out).Data.Scenarios[0].Golden)
	assert.FileExists(t, golden)

	out, _, err = execute(t, nil, "test", dir, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, goldenMatch, decode[TestResult](t, out).Data.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario":"deuce_game"}`), 0o644))
	out, _, err = execute(t, nil, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace differs from")
}

func TestTestCommandMalformedScenario(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenarios")
	writeScenario(t, dir, "bad.yaml", "name: bad\nmode: standard\npoints: \"AXA\"\n")

	_, _, err := execute(t, nil, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
