// Package pexels is a minimal client for the Pexels video search API.
package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL         = "https://api.pexels.com"
	DefaultTimeout         = 20 * time.Second
	DefaultRequestsPerHour = 200
	// DefaultBurst lets a whole hour's quota through without pacing
	DefaultBurst = DefaultRequestsPerHour

	searchPath = "/videos/search"
	// Bytes of an error body kept in StatusError
	maxErrorBody = 512
)

// ErrNoAPIKey is returned by Search when the client has no credential
var ErrNoAPIKey = errors.New("pexels api key not set")

// StatusError is a non-2xx answer from the API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("pexels returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("pexels returned status %d: %s", e.StatusCode, e.Body)
}

// Video is one search hit
type Video struct {
	ID         int64       `json:"id"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Duration   int         `json:"duration"`
	URL        string      `json:"url"`
	VideoFiles []VideoFile `json:"video_files"`
}

// VideoFile is one encoded rendition of a Video
type VideoFile struct {
	ID       int64  `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// SearchResponse is the body of GET /videos/search
type SearchResponse struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	Videos       []Video `json:"videos"`
}

// Options configures a Client
type Options struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	RequestsPerHour float64
	Burst           int
	HTTPClient      *http.Client
	// Observe is called once per request with the response status, 0 on transport failure
	Observe func(status int)
}

// Client calls the Pexels API
type Client struct {
	logger  zerolog.Logger
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	observe func(status int)
}

// New creates a client. Zero option values take the package defaults.
func New(logger zerolog.Logger, opts Options) *Client {
	opts = normalizeOptions(opts)

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	perSecond := rate.Limit(opts.RequestsPerHour / time.Hour.Seconds())

	return &Client{
		logger:  logger.With().Str("component", "pexels").Logger(),
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(perSecond, opts.Burst),
		observe: opts.Observe,
	}
}

func normalizeOptions(opts Options) Options {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerHour <= 0 {
		opts.RequestsPerHour = DefaultRequestsPerHour
	}
	if opts.Burst <= 0 {
		opts.Burst = max(int(opts.RequestsPerHour), 1)
	}
	return opts
}

// HasCredential reports whether an API key is configured
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// Search returns up to perPage videos matching query
func (c *Client) Search(ctx context.Context, query string, perPage int) (*SearchResponse, error) {
	if !c.HasCredential() {
		return nil, ErrNoAPIKey
	}
	if perPage <= 0 {
		perPage = 1
	}

	u, err := url.Parse(c.baseURL + searchPath)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	u.RawQuery = params.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("query", query).Int("per_page", perPage).Msg("searching videos")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(0)
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.record(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	c.logger.Debug().
		Str("query", query).
		Int("videos", len(out.Videos)).
		Dur("took", time.Since(start)).
		Msg("search complete")

	return &out, nil
}

func (c *Client) record(status int) {
	if c.observe != nil {
		c.observe(status)
	}
}
