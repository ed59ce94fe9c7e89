package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"missionctl/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the Mission Control HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:5000/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// Donate records a donation for an intern and returns the progression outcome.
func (c *Client) Donate(ctx context.Context, internID string, amount float64) (DonationResult, error) {
	if strings.TrimSpace(internID) == "" {
		return DonationResult{}, ErrEmptyInternID
	}

	body, err := json.Marshal(map[string]float64{"amount": amount})
	if err != nil {
		return DonationResult{}, err
	}

	u := fmt.Sprintf("%s/intern/%s/donate", c.baseURL, url.PathEscape(internID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return DonationResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DonationResult{}, err
	}
	defer resp.Body.Close()

	var result DonationResult
	if err := decodeEnvelope(resp, &result); err != nil {
		return DonationResult{}, err
	}
	return result, nil
}

// GetIntern fetches the current record for an intern.
func (c *Client) GetIntern(ctx context.Context, internID string) (Intern, error) {
	if strings.TrimSpace(internID) == "" {
		return Intern{}, ErrEmptyInternID
	}
	u := fmt.Sprintf("%s/intern/%s", c.baseURL, url.PathEscape(internID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Intern{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Intern{}, err
	}
	defer resp.Body.Close()

	var rec Intern
	if err := decodeEnvelope(resp, &rec); err != nil {
		return Intern{}, err
	}
	return rec, nil
}

// GetLeaderboard fetches the ranked leaderboard with aggregate totals.
func (c *Client) GetLeaderboard(ctx context.Context) (Leaderboard, error) {
	u := c.baseURL + "/leaderboard"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Leaderboard{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Leaderboard{}, err
	}
	defer resp.Body.Close()

	var body struct {
		Success     bool               `json:"success"`
		Data        []LeaderboardEntry `json:"data"`
		Error       string             `json:"error"`
		TotalAgents int                `json:"totalAgents"`
		TotalRaised float64            `json:"totalRaised"`
		TotalTrees  int                `json:"totalTrees"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return Leaderboard{}, err
	}
	if !body.Success {
		return Leaderboard{}, errors.New(body.Error)
	}
	return Leaderboard{
		Entries:     body.Data,
		TotalAgents: body.TotalAgents,
		TotalRaised: body.TotalRaised,
		TotalTrees:  body.TotalTrees,
	}, nil
}

// GetStats fetches aggregate mission statistics.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	u := c.baseURL + "/stats"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Stats{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Stats{}, err
	}
	defer resp.Body.Close()

	var summary Stats
	if err := decodeEnvelope(resp, &summary); err != nil {
		return Stats{}, err
	}
	return summary, nil
}

// Health probes /health and returns the reported status.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	u := c.baseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
