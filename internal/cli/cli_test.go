package cli

import (
	"bytes"
	"encoding/json"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// offlineDB clears the environment the config layer reads and returns a
// fresh database path.
func offlineDB(t *testing.T) string {
	t.Helper()
	for _, name := range []string{
		"OTS_DB_PATH", "OTS_REMOTE_URL", "OTS_REMOTE_TOKEN", "OTS_CACHE_BACKEND",
		"REDIS_URL", "LOG_FILE", "LOG_FORMAT", "METRICS_ADDRESS",
		"OTS_MATCH_RETENTION", "OTS_TEMP_PLAYER_RETENTION",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(t.TempDir(), "ots.db")
}

func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	if opts == nil {
		opts = &RootOptions{}
	}
	cmd := newRootCommand(opts)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

type response[T any] struct {
	Status string    `json:"status"`
	Data   T         `json:"data"`
	Error  *CLIError `json:"error"`
}

func decode[T any](t *testing.T, out string) response[T] {
	t.Helper()
	var resp response[T]
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func startMatch(t *testing.T, opts *RootOptions, db string, args ...string) string {
	t.Helper()
	args = append([]string{"match", "start", "--db", db, "--format", "json"}, args...)
	out, _, err := execute(t, opts, args...)
	require.NoError(t, err)
	resp := decode[MatchView](t, out)
	require.NotNil(t, resp.Data.Match)
	return resp.Data.Match.MatchID
}

func points(t *testing.T, opts *RootOptions, db, matchID, winners string) {
	t.Helper()
	for _, r := range strings.ReplaceAll(winners, " ", "") {
		_, _, err := execute(t, opts, "point", matchID, string(r), "--db", db)
		require.NoError(t, err)
	}
}

// fakeRemote serves the remote API from an in-memory listener.
type fakeRemote struct {
	mu        sync.Mutex
	events    map[string][]json.RawMessage
	completed []string
	calls     map[string]int

	createID   string
	failCreate bool
	failEvents bool
	players    []map[string]any
	venues     []map[string]any
}

func newFakeRemote(t *testing.T) (*fakeRemote, *RootOptions, string) {
	t.Helper()
	db := offlineDB(t)
	t.Setenv("OTS_REMOTE_URL", "http://remote.test")
	t.Setenv("OTS_REMOTE_RETRIES", "1")

	f := &fakeRemote{
		events:   map[string][]json.RawMessage{},
		calls:    map[string]int{},
		createID: "m-remote",
	}
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: f.handle}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { ln.Close() })

	opts := &RootOptions{dial: func(string) (net.Conn, error) { return ln.Dial() }}
	return f, opts, db
}

func (f *fakeRemote) handle(ctx *fasthttp.RequestCtx) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := string(ctx.Path())
	method := string(ctx.Method())
	f.calls[method+" "+path]++

	switch {
	case method == fasthttp.MethodPost && path == "/api/matches":
		if f.failCreate {
			reply(ctx, fasthttp.StatusBadRequest, map[string]string{"error": "bad roster"})
			return
		}
		reply(ctx, fasthttp.StatusCreated, map[string]any{"data": map[string]any{"id": f.createID, "match_type": "singles"}})
	case method == fasthttp.MethodPost && strings.HasSuffix(path, "/events"):
		if f.failEvents {
			reply(ctx, fasthttp.StatusBadRequest, map[string]string{"error": "rejected"})
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/matches/"), "/events")
		var body struct {
			Events []json.RawMessage `json:"events"`
		}
		_ = json.Unmarshal(ctx.PostBody(), &body)
		f.events[id] = append(f.events[id], body.Events...)
		n := len(body.Events)
		reply(ctx, fasthttp.StatusOK, map[string]any{"data": map[string]int{"inserted": n, "total": n}})
	case method == fasthttp.MethodPost && strings.HasSuffix(path, "/complete"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/matches/"), "/complete")
		f.completed = append(f.completed, id)
		reply(ctx, fasthttp.StatusOK, map[string]any{"data": map[string]bool{"ok": true}})
	case method == fasthttp.MethodGet && path == "/api/players":
		reply(ctx, fasthttp.StatusOK, map[string]any{"data": f.players})
	case method == fasthttp.MethodGet && path == "/api/venues":
		reply(ctx, fasthttp.StatusOK, map[string]any{"data": f.venues})
	default:
		reply(ctx, fasthttp.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (f *fakeRemote) received(matchID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events[matchID])
}

func reply(ctx *fasthttp.RequestCtx, status int, body any) {
	raw, _ := json.Marshal(body)
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

func (f *fakeRemote) set(fn func(f *fakeRemote)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeRemote) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}
