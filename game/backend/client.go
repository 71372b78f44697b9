// Package backend talks to the remote game/profile service over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gomida/gamebot/core/logger"
	"github.com/gomida/gamebot/core/metrics"
	"github.com/gomida/gamebot/core/telegram/netutil"
	"github.com/gomida/gamebot/game/profile"
)

const (
	// MaxTimeout bounds every backend call.
	MaxTimeout = 30 * time.Second
	// maxRedirects is the number of redirect hops followed per call.
	maxRedirects = 1

	errBodyLimit = 1024

	opCreate      = "create_profile"
	opUpdate      = "update_profile"
	opFetch       = "fetch_profile"
	opLeaderboard = "fetch_leaderboard"
)

// Options configures Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Token, when set, is sent as a bearer token.
	Token string
	// Transport overrides the default tuned transport (tests).
	Transport http.RoundTripper
}

// Client is the HTTP implementation of the backend contract. It never retries.
type Client struct {
	base    *url.URL
	token   string
	timeout time.Duration
	http    *http.Client
}

// New validates options and builds a Client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("backend: base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid base url %q: %w", raw, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend: unsupported scheme %q", base.Scheme)
	}

	timeout := opts.Timeout
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	transport := opts.Transport
	if transport == nil {
		transport = netutil.NewTransport(timeout)
	}

	return &Client{
		base:    base,
		token:   strings.TrimSpace(opts.Token),
		timeout: timeout,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}, nil
}

// CreateProfile persists a new profile and returns the stored record.
func (c *Client) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	var out profile.Profile
	if err := c.do(ctx, opCreate, http.MethodPost, []string{"users"}, p, &out); err != nil {
		return profile.Profile{}, err
	}
	return profile.Normalize(out), nil
}

// UpdateProfile replaces the profile stored under id.
func (c *Client) UpdateProfile(ctx context.Context, id int64, p profile.Profile) (profile.Profile, error) {
	var out profile.Profile
	if err := c.do(ctx, opUpdate, http.MethodPut, []string{"users", strconv.FormatInt(id, 10)}, p, &out); err != nil {
		return profile.Profile{}, err
	}
	return profile.Normalize(out), nil
}

// FetchProfile returns the profile stored under id or ErrNotFound.
func (c *Client) FetchProfile(ctx context.Context, id int64) (profile.Profile, error) {
	var out profile.Profile
	if err := c.do(ctx, opFetch, http.MethodGet, []string{"users", strconv.FormatInt(id, 10)}, nil, &out); err != nil {
		return profile.Profile{}, err
	}
	return profile.Normalize(out), nil
}

// FetchLeaderboard returns the full rank-ordered snapshot.
func (c *Client) FetchLeaderboard(ctx context.Context) ([]profile.Entry, error) {
	var out []profile.Entry
	if err := c.do(ctx, opLeaderboard, http.MethodGet, []string{"users", "leaderboard"}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method string, path []string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	code, err := c.roundTrip(ctx, op, method, path, body, out)
	took := time.Since(start)

	status, outcome := "ok", "ok"
	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.Duration("duration", logger.RoundMS(took)),
	}
	if code != 0 {
		attrs = append(attrs, slog.Int("http_code", code))
	}
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
		level = slog.LevelInfo
	default:
		status, outcome = "fail", "fail"
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		var be *Error
		if errors.As(err, &be) {
			attrs = append(attrs, slog.String("err_code", be.Code()))
			if be.Kind == KindUnavailable {
				attrs = append(attrs, slog.String("err_kind", netutil.Classify(be.Err)))
			}
		}
	}
	attrs = append([]slog.Attr{slog.String("status", status)}, attrs...)
	logger.Event(ctx, "backend", level, "backend.call", attrs...)
	metrics.ObserveBackend(op, outcome, took)
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method string, path []string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, &Error{Op: op, Kind: KindMalformed, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path...).String(), reader)
	if err != nil {
		return 0, &Error{Op: op, Kind: KindUnavailable, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &Error{Op: op, Kind: KindUnavailable, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if op == opFetch && resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		var cause error
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			cause = errors.New(msg)
		}
		return resp.StatusCode, &Error{Op: op, Kind: KindRejected, Status: resp.StatusCode, Err: cause}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &Error{Op: op, Kind: KindMalformed, Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, nil
}
