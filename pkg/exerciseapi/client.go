// Package exerciseapi is a client for the remote exercise search API.
package exerciseapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fitdex/fitdex/pkg/exercise"
	"github.com/fitdex/fitdex/pkg/telemetry"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.api-ninjas.com/v1"

// DefaultTimeout bounds a single request.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 1 << 10

// Query holds search filters. Empty fields are not sent. Muscle, Type and
// Difficulty accept a catalog ID or display name.
type Query struct {
	Muscle     string
	Type       string
	Difficulty string
	Name       string
	Offset     int `validate:"gte=0"`
}

// HTTPError is returned for a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("exercise api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("exercise api returned status %d: %s", e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client searches exercises.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	validate *validator.Validate
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger.With().Str("component", "exerciseapi").Logger()
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// New creates a client. The default transport is wrapped with otelhttp so
// requests join the caller's trace.
func New(cfg Config, opts ...Option) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		validate: validator.New(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns the exercises matching q.
func (c *Client) Search(ctx context.Context, q Query) ([]exercise.Exercise, error) {
	params, err := c.params(q)
	if err != nil {
		return nil, err
	}

	timer := telemetry.NewTimer()
	result, err := c.get(ctx, params)
	c.metrics.RecordAPIRequest(err, timer.Duration())
	if err != nil {
		c.logger.Error().Err(err).Str("query", params.Encode()).Msg("Exercise search failed")
		return nil, err
	}

	c.logger.Debug().Str("query", params.Encode()).Int("results", len(result)).Msg("Exercise search")
	return result, nil
}

// ByMuscle searches by muscle group.
func (c *Client) ByMuscle(ctx context.Context, muscle string) ([]exercise.Exercise, error) {
	return c.Search(ctx, Query{Muscle: muscle})
}

// ByType searches by exercise type.
func (c *Client) ByType(ctx context.Context, typ string) ([]exercise.Exercise, error) {
	return c.Search(ctx, Query{Type: typ})
}

// ByDifficulty searches by difficulty level.
func (c *Client) ByDifficulty(ctx context.Context, difficulty string) ([]exercise.Exercise, error) {
	return c.Search(ctx, Query{Difficulty: difficulty})
}

// ByName searches by (partial) exercise name.
func (c *Client) ByName(ctx context.Context, name string) ([]exercise.Exercise, error) {
	return c.Search(ctx, Query{Name: name})
}

func (c *Client) params(q Query) (url.Values, error) {
	if err := c.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	params := url.Values{}
	filters := []struct {
		key     string
		value   string
		catalog exercise.Catalog
	}{
		{"muscle", q.Muscle, exercise.Muscles},
		{"type", q.Type, exercise.Types},
		{"difficulty", q.Difficulty, exercise.Difficulties},
	}
	for _, f := range filters {
		id, err := f.catalog.Normalize(f.key, f.value)
		if err != nil {
			return nil, err
		}
		if id != "" {
			params.Set(f.key, id)
		}
	}

	if name := strings.TrimSpace(q.Name); name != "" {
		params.Set("name", name)
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	return params, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]exercise.Exercise, error) {
	endpoint := c.baseURL + "/exercises"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach exercise api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result []exercise.Exercise
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode exercises: %w", err)
	}
	return result, nil
}
