package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ots", cmd.Use)
	assert.Contains(t, cmd.Long, "event log")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"match", "point", "undo", "sync", "cleanup", "replay", "teams", "cache", "temp", "test", "daemon"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestMatchSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"start", "list", "show", "complete", "delete", "abandon", "summary"} {
		sub, _, err := cmd.Find([]string{"match", name})
		require.NoError(t, err, name)
		assert.NotEqual(t, "match", sub.Name(), name)
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestDatabaseFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{{"point"}, {"match", "start"}, {"replay"}, {"sync"}, {"cache", "players"}, {"daemon"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err)

		dbFlag := sub.Flag("db")
		require.NotNil(t, dbFlag, "%v", path)
		assert.Equal(t, "", dbFlag.DefValue)
		assert.NotNil(t, sub.Flag("config"), "%v", path)
	}
}

func TestInvalidFormat(t *testing.T) {
	offlineDB(t)
	_, _, err := execute(t, nil, "teams", "a", "b", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}
