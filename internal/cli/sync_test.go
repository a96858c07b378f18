package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync_RequiresRemote(t *testing.T) {
	db := offlineDB(t)
	_, _, err := execute(t, nil, "sync", "--all", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSync_NeedsExactlyOneTarget(t *testing.T) {
	db := offlineDB(t)
	for _, args := range [][]string{{"sync"}, {"sync", "m1", "--all"}} {
		_, _, err := execute(t, nil, append(args, "--db", db)...)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), "give a match id or --all")
	}
}

func TestMatchStart_TakesRemoteID(t *testing.T) {
	f, opts, db := newFakeRemote(t)

	id := startMatch(t, opts, db, "--team-a", "ana", "--team-b", "bo")
	assert.Equal(t, "m-remote", id)
	assert.Equal(t, 1, f.count("POST /api/matches"))
}

func TestMatchStart_LocalSkipsRemote(t *testing.T) {
	f, opts, db := newFakeRemote(t)

	id := startMatch(t, opts, db, "--team-a", "ana", "--team-b", "bo", "--local")
	assert.NotEqual(t, "m-remote", id)
	assert.Zero(t, f.count("POST /api/matches"))
}

func TestMatchStart_RemoteFailureStartsLocally(t *testing.T) {
	f, opts, db := newFakeRemote(t)
	f.set(func(f *fakeRemote) { f.failCreate = true })

	out, errOut, err := execute(t, opts, "match", "start", "--db", db, "--format", "json",
		"--team-a", "ana", "--team-b", "bo")
	require.NoError(t, err)
	assert.Contains(t, errOut, "warning: remote registration failed")

	id := decode[MatchView](t, out).Data.Match.MatchID
	assert.NotEmpty(t, id)
	assert.NotEqual(t, "m-remote", id)
}

func TestSync_PushesUnsyncedEvents(t *testing.T) {
	f, opts, db := newFakeRemote(t)
	id := startMatch(t, opts, db, "--team-a", "ana", "--team-b", "bo")
	points(t, opts, db, id, "ABA")

	out, _, err := execute(t, opts, "sync", id, "--db", db, "--format", "json")
	require.NoError(t, err)
	report := decode[SyncReport](t, out).Data
	require.Len(t, report.Results, 1)
	assert.Equal(t, 3, report.Results[0].Confirmed)
	assert.Equal(t, 3, f.received(id))

	out, _, err = execute(t, opts, "match", "show", id, "--db", db, "--format", "json")
	require.NoError(t, err)
	v := decode[MatchView](t, out).Data
	assert.Equal(t, 3, v.Events)
	assert.Zero(t, v.Unsynced)

	_, _, err = execute(t, opts, "sync", id, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, 3, f.received(id), "confirmed events are not sent again")
}

func TestSync_FailureKeepsEventsPending(t *testing.T) {
	f, opts, db := newFakeRemote(t)
	id := startMatch(t, opts, db, "--team-a", "ana", "--team-b", "bo")
	points(t, opts, db, id, "AB")
	f.set(func(f *fakeRemote) { f.failEvents = true })

	out, _, err := execute(t, opts, "sync", id, "--db", db, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decode[SyncReport](t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Data.Failures, id)

	out, _, err = execute(t, opts, "match", "show", id, "--db", db, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, 2, decode[MatchView](t, out).Data.Unsynced)
}

func TestSyncAll(t *testing.T) {
	f, opts, db := newFakeRemote(t)

	f.set(func(f *fakeRemote) { f.createID = "m1" })
	m1 := startMatch(t, opts, db, "--team-a", "ana", "--team-b", "bo")
	f.set(func(f *fakeRemote) { f.createID = "m2" })
	m2 := startMatch(t, opts, db, "--team-a", "cy", "--team-b", "di")
	points(t, opts, db, m1, "AA")
	points(t, opts, db, m2, "B")

	out, _, err := execute(t, opts, "sync", "--all", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ m1: 2/2 events confirmed")
	assert.Contains(t, out, "✓ m2: 1/1 events confirmed")
	assert.Equal(t, 2, f.received("m1"))
	assert.Equal(t, 1, f.received("m2"))

	out, _, err = execute(t, opts, "sync", "--all", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to sync.")
}

func TestSyncAll_ReportsFailures(t *testing.T) {
	f, opts, db := newFakeRemote(t)
	id := startMatch(t, opts, db, "--team-a", "ana", "--team-b", "bo")
	points(t, opts, db, id, "A")
	f.set(func(f *fakeRemote) { f.failEvents = true })

	out, _, err := execute(t, opts, "sync", "--all", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 match(es) failed to sync")
	assert.Contains(t, out, "✗ "+id)
}

func TestMatchComplete_Online(t *testing.T) {
	f, opts, db := newFakeRemote(t)
	id := startMatch(t, opts, db, "--mode", "short", "--team-a", "ana", "--team-b", "bo")
	points(t, opts, db, id, "AAAA AAAA")

	out, _, err := execute(t, opts, "match", "complete", id, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "closed (8 events synced)")
	assert.Equal(t, 8, f.received(id))
	assert.Equal(t, 1, f.count("POST /api/matches/"+id+"/complete"))

	_, _, err = execute(t, opts, "match", "show", id, "--db", db)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
