package geocode

import (
	"context"
	"net/url"
	"strings"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// Mapbox queries the Mapbox places endpoint.
type Mapbox struct {
	BaseURL string
	Client  Doer
}

type mapboxResponse struct {
	Features []struct {
		Center []coordinate `json:"center"`
	} `json:"features"`
}

func (m *Mapbox) Provider() options.GeocoderProvider { return options.GeocoderMapbox }

func (m *Mapbox) NeedsKey() bool { return true }

func (m *Mapbox) Lookup(ctx context.Context, query, apiKey string) (point.Point, error) {
	if strings.TrimSpace(apiKey) == "" {
		return point.Point{}, ErrMissingKey
	}
	endpoint := strings.TrimRight(baseOr(m.BaseURL, DefaultMapboxBaseURL), "/") +
		"/geocoding/v5/mapbox.places/" + url.PathEscape(query) + ".json?" +
		url.Values{"access_token": {apiKey}}.Encode()

	var payload mapboxResponse
	if err := getJSON(ctx, clientOr(m.Client), endpoint, nil, &payload); err != nil {
		return point.Point{}, err
	}
	if len(payload.Features) == 0 || len(payload.Features[0].Center) < 2 {
		return point.Point{}, ErrNoResult
	}
	center := payload.Features[0].Center
	return toPoint(center[0], center[1])
}
