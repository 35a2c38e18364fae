package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// Nominatim queries the OpenStreetMap search endpoint. It needs no key but
// the public instance asks for at most one request per second, which Limiter
// enforces when set.
type Nominatim struct {
	BaseURL   string
	UserAgent string
	Language  string
	Client    Doer
	Limiter   *rate.Limiter
}

type nominatimItem struct {
	Lon coordinate `json:"lon"`
	Lat coordinate `json:"lat"`
}

func (n *Nominatim) Provider() options.GeocoderProvider { return options.GeocoderNominatim }

func (n *Nominatim) NeedsKey() bool { return false }

func (n *Nominatim) Lookup(ctx context.Context, query, _ string) (point.Point, error) {
	if n.Limiter != nil {
		if err := n.Limiter.Wait(ctx); err != nil {
			return point.Point{}, err
		}
	}
	endpoint := strings.TrimRight(baseOr(n.BaseURL, DefaultNominatimBaseURL), "/") +
		"/search?" + url.Values{"q": {query}, "format": {"json"}, "limit": {"1"}}.Encode()

	header := http.Header{}
	header.Set("Accept-Language", baseOr(n.Language, "en"))
	header.Set("User-Agent", baseOr(n.UserAgent, DefaultUserAgent))

	var payload []nominatimItem
	if err := getJSON(ctx, clientOr(n.Client), endpoint, header, &payload); err != nil {
		return point.Point{}, err
	}
	if len(payload) == 0 {
		return point.Point{}, ErrNoResult
	}
	return toPoint(payload[0].Lon, payload[0].Lat)
}

func baseOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func clientOr(client Doer) Doer {
	if client == nil {
		return http.DefaultClient
	}
	return client
}
