package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// Default upstream base URLs.
const (
	DefaultMapboxBaseURL    = "https://api.mapbox.com"
	DefaultGoogleBaseURL    = "https://maps.googleapis.com"
	DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent        = "go-mappoint/1.0 (+https://github.com/goliatone/go-mappoint)"
)

// Backend resolves a query against one geocoding service.
type Backend interface {
	Provider() options.GeocoderProvider
	// NeedsKey reports whether Lookup must be called with a non-empty key.
	NeedsKey() bool
	Lookup(ctx context.Context, query, apiKey string) (point.Point, error)
}

// Doer is the subset of *http.Client used by the backends.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

func getJSON(ctx context.Context, client Doer, endpoint string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// coordinate accepts JSON numbers and numeric strings.
type coordinate struct {
	value float64
	set   bool
}

func (c *coordinate) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("coordinate %s: %w", data, err)
	}
	c.value = value
	c.set = true
	return nil
}

func toPoint(lng, lat coordinate) (point.Point, error) {
	if !lng.set || !lat.set {
		return point.Point{}, ErrNoResult
	}
	pt, err := point.New(lng.value, lat.value)
	if err != nil {
		return point.Point{}, fmt.Errorf("%w: %v", ErrNoResult, err)
	}
	return pt, nil
}
