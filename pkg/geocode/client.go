package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// Request describes a single lookup. An empty Provider selects Nominatim.
type Request struct {
	Provider options.GeocoderProvider
	APIKey   string
	Query    string
}

// Recorder receives one observation per lookup. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveGeocode(provider, outcome string, duration time.Duration)
}

// Option customises a Client.
type Option func(*config)

type config struct {
	httpClient Doer
	logger     zerolog.Logger
	recorder   Recorder
	baseURLs   map[options.GeocoderProvider]string
	userAgent  string
	limit      rate.Limit
	burst      int
	backends   []Backend
	now        func() time.Time
}

// WithHTTPClient overrides the HTTP client used by the built-in backends.
func WithHTTPClient(client Doer) Option {
	return func(c *config) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger routes soft failures to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRecorder reports lookups to recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *config) {
		c.recorder = recorder
	}
}

// WithBaseURL points a built-in backend at a different host.
func WithBaseURL(provider options.GeocoderProvider, baseURL string) Option {
	return func(c *config) {
		c.baseURLs[provider] = strings.TrimSpace(baseURL)
	}
}

// WithUserAgent sets the User-Agent sent to Nominatim.
func WithUserAgent(userAgent string) Option {
	return func(c *config) {
		c.userAgent = strings.TrimSpace(userAgent)
	}
}

// WithRateLimit throttles Nominatim requests. rate.Inf disables throttling.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *config) {
		c.limit = limit
		if burst < 1 {
			burst = 1
		}
		c.burst = burst
	}
}

// WithBackend registers or replaces the backend for its provider.
func WithBackend(backend Backend) Option {
	return func(c *config) {
		if backend != nil {
			c.backends = append(c.backends, backend)
		}
	}
}

// Client dispatches lookups to the backend selected by provider.
type Client struct {
	backends map[options.GeocoderProvider]Backend
	logger   zerolog.Logger
	recorder Recorder
	now      func() time.Time
}

// New constructs a Client with the three built-in backends.
func New(opts ...Option) *Client {
	cfg := config{
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
		baseURLs:   make(map[options.GeocoderProvider]string),
		limit:      rate.Every(time.Second),
		burst:      1,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var limiter *rate.Limiter
	if cfg.limit != rate.Inf {
		limiter = rate.NewLimiter(cfg.limit, cfg.burst)
	}

	client := &Client{
		backends: map[options.GeocoderProvider]Backend{
			options.GeocoderMapbox: &Mapbox{
				BaseURL: cfg.baseURLs[options.GeocoderMapbox],
				Client:  cfg.httpClient,
			},
			options.GeocoderGoogle: &Google{
				BaseURL: cfg.baseURLs[options.GeocoderGoogle],
				Client:  cfg.httpClient,
			},
			options.GeocoderNominatim: &Nominatim{
				BaseURL:   cfg.baseURLs[options.GeocoderNominatim],
				UserAgent: cfg.userAgent,
				Client:    cfg.httpClient,
				Limiter:   limiter,
			},
		},
		logger:   cfg.logger,
		recorder: cfg.recorder,
		now:      cfg.now,
	}
	for _, backend := range cfg.backends {
		client.backends[backend.Provider()] = backend
	}
	return client
}

// Geocode resolves req to a point. ok is false for every failure; details are
// logged and recorded.
func (c *Client) Geocode(ctx context.Context, req Request) (point.Point, bool) {
	pt, err := c.Lookup(ctx, req)
	return pt, err == nil
}

// Lookup resolves req and reports why it failed. Blank queries and missing
// keys return before any network call.
func (c *Client) Lookup(ctx context.Context, req Request) (point.Point, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	provider := req.Provider
	if provider == "" {
		provider = options.GeocoderNominatim
	}
	started := c.now()
	pt, called, err := c.lookup(ctx, provider, req)

	var elapsed time.Duration
	if called {
		elapsed = c.now().Sub(started)
	}
	if c.recorder != nil {
		c.recorder.ObserveGeocode(string(provider), outcome(err), elapsed)
	}
	if err != nil {
		c.logFailure(provider, req.Query, err)
		return point.Point{}, err
	}
	return pt, nil
}

func (c *Client) lookup(ctx context.Context, provider options.GeocoderProvider, req Request) (point.Point, bool, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return point.Point{}, false, ErrEmptyQuery
	}
	backend, ok := c.backends[provider]
	if !ok {
		return point.Point{}, false, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	apiKey := strings.TrimSpace(req.APIKey)
	if backend.NeedsKey() && apiKey == "" {
		return point.Point{}, false, ErrMissingKey
	}
	pt, err := backend.Lookup(ctx, query, apiKey)
	if err != nil {
		return point.Point{}, true, err
	}
	return pt, true, nil
}

func (c *Client) logFailure(provider options.GeocoderProvider, query string, err error) {
	event := c.logger.Warn()
	if errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrNoResult) {
		event = c.logger.Debug()
	}
	event.
		Err(err).
		Str("provider", string(provider)).
		Str("query", query).
		Msg("geocoding failed")
}

// Providers lists the registered backends.
func (c *Client) Providers() []options.GeocoderProvider {
	out := make([]options.GeocoderProvider, 0, len(c.backends))
	for _, provider := range []options.GeocoderProvider{
		options.GeocoderMapbox, options.GeocoderGoogle, options.GeocoderNominatim,
	} {
		if _, ok := c.backends[provider]; ok {
			out = append(out, provider)
		}
	}
	for provider := range c.backends {
		if !provider.Valid() {
			out = append(out, provider)
		}
	}
	return out
}
