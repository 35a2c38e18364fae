// Package keys picks the API key used for map rendering and for geocoding
// from the candidates supplied at field, plugin and environment level.
//
// Every function here is pure: the environment is passed in as resolved
// options.EnvKeys, never read from the process.
package keys

import (
	"strings"

	"github.com/goliatone/go-mappoint/pkg/options"
)

// MapRequest carries the candidates for the map rendering key.
type MapRequest struct {
	Provider    options.MapProvider
	MapKey      string
	GeocoderKey string
	// Fallback is the legacy key handed to the client component.
	Fallback string
}

// GeocoderRequest carries the candidates for the geocoding key.
type GeocoderRequest struct {
	Geocoder    options.GeocoderProvider
	MapProvider options.MapProvider
	GeocoderKey string
	MapKey      string
	Fallback    string
}

// ResolveMapKey returns the first non-empty of: map key, geocoder key, env key
// for the provider family, fallback. Empty means no key is available.
func ResolveMapKey(req MapRequest, env options.EnvKeys) string {
	return first(
		req.MapKey,
		req.GeocoderKey,
		env.ForFamily(string(req.Provider)),
		req.Fallback,
	)
}

// ResolveGeocoderKey mirrors ResolveMapKey for the geocoder. Nominatim needs
// no key and always resolves to "".
func ResolveGeocoderKey(req GeocoderRequest, env options.EnvKeys) string {
	if !NeedsKey(req.Geocoder) {
		return ""
	}
	return first(
		req.GeocoderKey,
		req.MapKey,
		env.ForFamily(string(req.MapProvider)),
		req.Fallback,
	)
}

// NeedsKey reports whether the geocoder authenticates requests.
func NeedsKey(provider options.GeocoderProvider) bool {
	switch provider {
	case options.GeocoderMapbox, options.GeocoderGoogle:
		return true
	default:
		return false
	}
}

// RequiresKey reports whether the map provider needs a key to render.
func RequiresKey(provider options.MapProvider) bool {
	switch provider {
	case options.MapProviderMapbox, options.MapProviderGoogle:
		return true
	default:
		return false
	}
}

// DefaultGeocoder selects the geocoder when none is configured: nominatim for
// leaflet maps, otherwise the geocoder matching the map provider.
func DefaultGeocoder(geocoder options.GeocoderProvider, mapProvider options.MapProvider) options.GeocoderProvider {
	if geocoder != "" {
		return geocoder
	}
	switch mapProvider {
	case options.MapProviderLeaflet:
		return options.GeocoderNominatim
	case options.MapProviderGoogle:
		return options.GeocoderGoogle
	case options.MapProviderMapbox:
		return options.GeocoderMapbox
	default:
		return options.GeocoderNominatim
	}
}

func first(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
