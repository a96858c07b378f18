package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/eventlog"
)

// HeaderProvider allows injecting per-request headers.
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		if token == "" {
			return
		}
		c.headers = func() map[string]string {
			return map[string]string{"Authorization": "Bearer " + token}
		}
	}
}

// WithRetry sets the total number of attempts for retryable requests.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the connection dialer.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitEvents posts a batch of point events for matchID and returns the
// number the server newly inserted. Event ids make the call idempotent, so
// it is retried.
func (c *Client) SubmitEvents(ctx context.Context, matchID string, events []eventlog.PointEvent) (int, error) {
	if len(events) > MaxEventsPerRequest {
		return 0, fmt.Errorf("submit events: %d events exceeds the limit of %d", len(events), MaxEventsPerRequest)
	}
	req := eventsRequest{Events: make([]EventPayload, len(events))}
	for i, e := range events {
		req.Events[i] = EventPayload{
			ID:              e.ID,
			Timestamp:       e.Timestamp.UTC().Format(time.RFC3339Nano),
			ServerPlayerID:  e.ServerPlayerID,
			ServeType:       string(e.ServeType),
			PointWinnerTeam: string(e.PointWinnerTeam),
		}
	}

	var resp eventsResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, matchPath(matchID, "events"), req, &resp, true); err != nil {
		return 0, fmt.Errorf("submit events for %s: %w", matchID, err)
	}
	return resp.Inserted, nil
}

// CreateMatch is not retried: the server assigns the id.
func (c *Client) CreateMatch(ctx context.Context, in CreateMatchRequest) (*Match, error) {
	var m Match
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/matches", in, &m, false); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	return &m, nil
}

func (c *Client) CompleteMatch(ctx context.Context, matchID string) error {
	if err := c.doJSON(ctx, fasthttp.MethodPost, matchPath(matchID, "complete"), nil, nil, true); err != nil {
		return fmt.Errorf("complete match %s: %w", matchID, err)
	}
	return nil
}

func (c *Client) MatchSummary(ctx context.Context, matchID string) (*MatchSummary, error) {
	var s MatchSummary
	if err := c.doJSON(ctx, fasthttp.MethodGet, matchPath(matchID, "summary"), nil, &s, true); err != nil {
		return nil, fmt.Errorf("match summary %s: %w", matchID, err)
	}
	return &s, nil
}

func (c *Client) ListPlayers(ctx context.Context) ([]Player, error) {
	players := []Player{}
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/players", nil, &players, true); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func (c *Client) ListVenues(ctx context.Context) ([]Venue, error) {
	venues := []Venue{}
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/venues", nil, &venues, true); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}

func matchPath(matchID, action string) string {
	return "/api/matches/" + url.PathEscape(matchID) + "/" + action
}

// retryDelays are the pauses between attempts. The last one repeats.
var retryDelays = []time.Duration{
	100 * time.Millisecond,
	200 * time.Millisecond,
	400 * time.Millisecond,
	800 * time.Millisecond,
	1600 * time.Millisecond,
}

// doJSON sends in as the request body and decodes the envelope's data into
// out. Idempotent calls are repeated while the failure is retryable.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, idempotent bool) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	attempts := 1
	if idempotent && c.retryMax > 1 {
		attempts = c.retryMax
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.send(ctx, method, path, body, out)
		if err == nil || attempt+1 >= attempts || !retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(retryDelays[min(attempt, len(retryDelays)-1)]):
		}
	}
}

// send makes one round trip. A request that gets no response fails with
// ErrUnreachable; a non-2xx response fails with *APIError.
func (c *Client) send(ctx context.Context, method, path string, body []byte, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return &APIError{Status: status, Message: errorMessage(resp.Body())}
	}
	if out == nil {
		return nil
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return errors.New("decode response: missing data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return errors.Is(err, ErrUnreachable)
}

// errorMessage prefers the envelope's error text and falls back to the
// first 512 bytes of the body.
func errorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return env.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}
