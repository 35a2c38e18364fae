package widget

import (
	"strings"

	"github.com/goliatone/go-mappoint/pkg/keys"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// Placeholder texts shown instead of the map when its key is missing.
const (
	MissingMapboxKey = "Mapbox access token required to render map."
	MissingGoogleKey = "Google Maps API key required to render map."
)

// Config is the resolved widget configuration for one field.
type Config struct {
	MapProvider   options.MapProvider
	MapKey        string
	Geocoder      options.GeocoderProvider
	GeocoderKey   string
	Center        point.Point
	Zoom          float64
	Placeholder   string
	SearchEnabled bool
	// KeyMissing is set when the map provider needs a key and none resolved.
	KeyMissing bool
}

// ConfigFromOptions resolves a field's merged options. fallbackKey is the
// apiKey client prop set by the annotator.
func ConfigFromOptions(opts *options.MapPointOptions, fallbackKey string, env options.EnvKeys) Config {
	mapProvider := opts.MapProviderOrDefault()

	var mapKey, geocoderKey, geocoderProvider string
	var searchEnabled bool
	if opts != nil && opts.Map != nil {
		mapKey = opts.Map.APIKey
	}
	if opts != nil && opts.Geocoder != nil {
		geocoderKey = opts.Geocoder.APIKey
		geocoderProvider = string(opts.Geocoder.Provider)
		searchEnabled = strings.TrimSpace(geocoderProvider) != "" || strings.TrimSpace(geocoderKey) != ""
	}

	geocoder := keys.DefaultGeocoder(options.GeocoderProvider(geocoderProvider), mapProvider)
	cfg := Config{
		MapProvider: mapProvider,
		MapKey: keys.ResolveMapKey(keys.MapRequest{
			Provider:    mapProvider,
			MapKey:      mapKey,
			GeocoderKey: geocoderKey,
			Fallback:    fallbackKey,
		}, env),
		Geocoder: geocoder,
		GeocoderKey: keys.ResolveGeocoderKey(keys.GeocoderRequest{
			Geocoder:    geocoder,
			MapProvider: mapProvider,
			GeocoderKey: geocoderKey,
			MapKey:      mapKey,
			Fallback:    fallbackKey,
		}, env),
		Center:        opts.Center(),
		Zoom:          opts.Zoom(),
		Placeholder:   opts.Placeholder(),
		SearchEnabled: searchEnabled,
	}
	cfg.KeyMissing = keys.RequiresKey(mapProvider) && cfg.MapKey == ""
	return cfg
}

// MissingKeyMessage is the placeholder text for a missing map key, or "".
func (c Config) MissingKeyMessage() string {
	if !c.KeyMissing {
		return ""
	}
	if c.MapProvider == options.MapProviderGoogle {
		return MissingGoogleKey
	}
	return MissingMapboxKey
}

// sameMap reports whether two configs can share a map instance.
func (c Config) sameMap(other Config) bool {
	return c.MapProvider == other.MapProvider && c.MapKey == other.MapKey && c.KeyMissing == other.KeyMissing
}
