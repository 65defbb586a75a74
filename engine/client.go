// Package engine talks to a running dat synchronization engine: its status
// query, link creation, joins, and the peer swarm of a shared link.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jellydator/ttlcache/v3"

	"github.com/datproject/dat/internal/logging"
	"github.com/datproject/dat/progress"
)

// DefaultPort is the port the engine listens on unless configured.
const DefaultPort = 3282

// ErrUnexpectedStatus is wrapped by every error caused by a non-2xx reply.
var ErrUnexpectedStatus = errors.New("unexpected engine response")

const statusKey = "status"

// Config holds the engine endpoint and client tuning.
type Config struct {
	Host string
	Port int
	// Timeout bounds status, join and ping calls. Link creation waits for
	// the scan to finish and is bounded only by its context.
	Timeout time.Duration
	// CacheTTL lets sessions polling on the same interval share one status
	// query. Zero disables caching.
	CacheTTL time.Duration
}

// Client is an HTTP client of the engine. It is safe for concurrent use.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	linkClient *http.Client
	dialer     *websocket.Dialer
	cache      *ttlcache.Cache[string, progress.Status]
}

// New creates a client for the engine at cfg.Host:cfg.Port.
func New(cfg Config) *Client {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	hostPort := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}

	c := &Client{
		baseURL:    "http://" + hostPort,
		wsURL:      "ws://" + hostPort,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		linkClient: &http.Client{Transport: transport},
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.Timeout,
		},
	}
	if cfg.CacheTTL > 0 {
		c.cache = ttlcache.New[string, progress.Status](
			ttlcache.WithTTL[string, progress.Status](cfg.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, progress.Status](),
		)
	}
	return c
}

// BaseURL returns the engine's HTTP address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status returns the engine's status for every tracked resource. Results are
// cached for Config.CacheTTL.
func (c *Client) Status(ctx context.Context) (progress.Status, error) {
	if c.cache != nil {
		if item := c.cache.Get(statusKey); item != nil && !item.IsExpired() {
			return item.Value(), nil
		}
	}

	st, err := c.fetchStatus(ctx)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(statusKey, st, ttlcache.DefaultTTL)
	}
	return st, nil
}

// Ping checks that the engine answers its status query, bypassing the cache.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetchStatus(ctx)
	return err
}

func (c *Client) fetchStatus(ctx context.Context) (progress.Status, error) {
	var st progress.Status
	if err := c.do(ctx, c.httpClient, http.MethodGet, "/status", nil, &st); err != nil {
		return nil, fmt.Errorf("engine status: %w", err)
	}
	if st == nil {
		st = progress.Status{}
	}
	return st, nil
}

// Link asks the engine to scan dir and create a link for it. It blocks until
// the link exists or ctx ends.
func (c *Client) Link(ctx context.Context, dir string) (string, error) {
	var resp LinkResponse
	if err := c.do(ctx, c.linkClient, http.MethodPost, "/link", LinkRequest{Dir: dir}, &resp); err != nil {
		return "", fmt.Errorf("engine link %s: %w", dir, err)
	}
	if resp.Link == "" {
		return "", fmt.Errorf("engine link %s: %w: empty link", dir, ErrUnexpectedStatus)
	}
	logging.Sub("engine").Info("link created", "dir", dir, "link", resp.Link)
	return resp.Link, nil
}

// Join asks the engine to share link from dir, downloading it if dir does
// not have it yet. files limits the download to a selection.
func (c *Client) Join(ctx context.Context, link, dir string, files []string) error {
	req := JoinRequest{Link: link, Dir: dir, Files: files}
	if err := c.do(ctx, c.httpClient, http.MethodPost, "/join", req, nil); err != nil {
		return fmt.Errorf("engine join %s: %w", link, err)
	}
	logging.Sub("engine").Info("joined", "link", link, "dir", dir, "files", len(files))
	return nil
}

// Swarm connects to the peer swarm of link. The returned Swarm already holds
// the current counts.
func (c *Client) Swarm(ctx context.Context, link string) (*Swarm, error) {
	u := c.wsURL + "/swarm/" + url.PathEscape(link)
	conn, resp, err := c.dialer.DialContext(ctx, u, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("engine swarm %s: %w", link, err)
	}
	s, err := newSwarm(link, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("engine swarm %s: %w", link, err)
	}
	return s, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	l := logging.Sub("engine")
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	l.Debug("request", "method", method, "path", path, "code", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
