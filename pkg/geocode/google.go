package geocode

import (
	"context"
	"net/url"
	"strings"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// Google queries the Google Maps geocoding API.
type Google struct {
	BaseURL string
	Client  Doer
}

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat coordinate `json:"lat"`
				Lng coordinate `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *Google) Provider() options.GeocoderProvider { return options.GeocoderGoogle }

func (g *Google) NeedsKey() bool { return true }

func (g *Google) Lookup(ctx context.Context, query, apiKey string) (point.Point, error) {
	if strings.TrimSpace(apiKey) == "" {
		return point.Point{}, ErrMissingKey
	}
	endpoint := strings.TrimRight(baseOr(g.BaseURL, DefaultGoogleBaseURL), "/") +
		"/maps/api/geocode/json?" + url.Values{"address": {query}, "key": {apiKey}}.Encode()

	var payload googleResponse
	if err := getJSON(ctx, clientOr(g.Client), endpoint, nil, &payload); err != nil {
		return point.Point{}, err
	}
	if len(payload.Results) == 0 {
		return point.Point{}, ErrNoResult
	}
	loc := payload.Results[0].Geometry.Location
	return toPoint(loc.Lng, loc.Lat)
}
