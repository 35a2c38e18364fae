package options

import (
	"fmt"
	"math"
	"strings"

	"github.com/goliatone/go-mappoint/pkg/point"
)

// MapProvider selects the map rendering backend.
type MapProvider string

const (
	MapProviderMapbox  MapProvider = "mapbox"
	MapProviderGoogle  MapProvider = "google"
	MapProviderLeaflet MapProvider = "leaflet"
)

// GeocoderProvider selects the geocoding backend.
type GeocoderProvider string

const (
	GeocoderMapbox    GeocoderProvider = "mapbox"
	GeocoderGoogle    GeocoderProvider = "google"
	GeocoderNominatim GeocoderProvider = "nominatim"
)

// Defaults applied by the widget when neither field nor plugin set a value.
const (
	DefaultMapProvider = MapProviderMapbox
	DefaultZoom        = 12.0
	DefaultPlaceholder = "Search location"
)

// DefaultCenter is the fallback map center (lng, lat).
var DefaultCenter = point.Point{11.9, 60.6}

// Valid reports whether p is one of the supported map providers.
func (p MapProvider) Valid() bool {
	switch p {
	case MapProviderMapbox, MapProviderGoogle, MapProviderLeaflet:
		return true
	}
	return false
}

// Valid reports whether p is one of the supported geocoders.
func (p GeocoderProvider) Valid() bool {
	switch p {
	case GeocoderMapbox, GeocoderGoogle, GeocoderNominatim:
		return true
	}
	return false
}

// MapOptions configures the map renderer.
type MapOptions struct {
	Provider MapProvider `json:"provider,omitempty" yaml:"provider,omitempty"`
	APIKey   string      `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
}

// GeocoderOptions configures the search bar backend.
type GeocoderOptions struct {
	Provider    GeocoderProvider `json:"provider,omitempty" yaml:"provider,omitempty"`
	APIKey      string           `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	Placeholder string           `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// MapPointOptions is the per-field configuration bag. Every member is
// optional; nil or empty means "not set at this level".
type MapPointOptions struct {
	Enabled       *bool            `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	DefaultCenter *point.Point     `json:"defaultCenter,omitempty" yaml:"defaultCenter,omitempty"`
	DefaultZoom   *float64         `json:"defaultZoom,omitempty" yaml:"defaultZoom,omitempty"`
	Geocoder      *GeocoderOptions `json:"geocoder,omitempty" yaml:"geocoder,omitempty"`
	Map           *MapOptions      `json:"map,omitempty" yaml:"map,omitempty"`
}

// Bool returns a pointer to v, handy for option literals.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// IsEnabled reports whether the options leave the plugin enabled. Unset means
// enabled.
func (o *MapPointOptions) IsEnabled() bool {
	if o == nil || o.Enabled == nil {
		return true
	}
	return *o.Enabled
}

// Clone returns a deep copy so callers can mutate the result freely.
func (o *MapPointOptions) Clone() *MapPointOptions {
	if o == nil {
		return nil
	}
	out := &MapPointOptions{}
	if o.Enabled != nil {
		out.Enabled = Bool(*o.Enabled)
	}
	if o.DefaultCenter != nil {
		out.DefaultCenter = point.Ptr(*o.DefaultCenter)
	}
	if o.DefaultZoom != nil {
		out.DefaultZoom = Float(*o.DefaultZoom)
	}
	if o.Geocoder != nil {
		g := *o.Geocoder
		out.Geocoder = &g
	}
	if o.Map != nil {
		m := *o.Map
		out.Map = &m
	}
	return out
}

// Merge layers field-level overrides on top of plugin-level options. Scalars
// take the field value when set; the geocoder and map bags are merged key by
// key so a partial override keeps the plugin's api key.
func Merge(field, plugin *MapPointOptions) MapPointOptions {
	out := MapPointOptions{}
	base := plugin.Clone()
	if base == nil {
		base = &MapPointOptions{}
	}
	over := field.Clone()
	if over == nil {
		over = &MapPointOptions{}
	}

	out.Enabled = base.Enabled
	if over.Enabled != nil {
		out.Enabled = over.Enabled
	}
	out.DefaultCenter = base.DefaultCenter
	if over.DefaultCenter != nil {
		out.DefaultCenter = over.DefaultCenter
	}
	out.DefaultZoom = base.DefaultZoom
	if over.DefaultZoom != nil {
		out.DefaultZoom = over.DefaultZoom
	}
	out.Geocoder = mergeGeocoder(over.Geocoder, base.Geocoder)
	out.Map = mergeMap(over.Map, base.Map)
	return out
}

func mergeGeocoder(field, plugin *GeocoderOptions) *GeocoderOptions {
	if field == nil && plugin == nil {
		return nil
	}
	out := GeocoderOptions{}
	if plugin != nil {
		out = *plugin
	}
	if field == nil {
		return &out
	}
	if field.Provider != "" {
		out.Provider = field.Provider
	}
	if field.APIKey != "" {
		out.APIKey = field.APIKey
	}
	if field.Placeholder != "" {
		out.Placeholder = field.Placeholder
	}
	return &out
}

func mergeMap(field, plugin *MapOptions) *MapOptions {
	if field == nil && plugin == nil {
		return nil
	}
	out := MapOptions{}
	if plugin != nil {
		out = *plugin
	}
	if field == nil {
		return &out
	}
	if field.Provider != "" {
		out.Provider = field.Provider
	}
	if field.APIKey != "" {
		out.APIKey = field.APIKey
	}
	return &out
}

// MapProviderOrDefault returns the configured map provider or mapbox.
func (o *MapPointOptions) MapProviderOrDefault() MapProvider {
	if o == nil || o.Map == nil || o.Map.Provider == "" {
		return DefaultMapProvider
	}
	return o.Map.Provider
}

// Center returns the configured center or DefaultCenter.
func (o *MapPointOptions) Center() point.Point {
	if o == nil || o.DefaultCenter == nil {
		return DefaultCenter
	}
	return *o.DefaultCenter
}

// Zoom returns the configured zoom or DefaultZoom.
func (o *MapPointOptions) Zoom() float64 {
	if o == nil || o.DefaultZoom == nil {
		return DefaultZoom
	}
	return *o.DefaultZoom
}

// Placeholder returns the search placeholder or DefaultPlaceholder.
func (o *MapPointOptions) Placeholder() string {
	if o == nil || o.Geocoder == nil || strings.TrimSpace(o.Geocoder.Placeholder) == "" {
		return DefaultPlaceholder
	}
	return o.Geocoder.Placeholder
}

// Validate rejects unknown providers and out-of-range values.
func (o *MapPointOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.Map != nil && o.Map.Provider != "" && !o.Map.Provider.Valid() {
		return fmt.Errorf("options: unknown map provider %q", o.Map.Provider)
	}
	if o.Geocoder != nil && o.Geocoder.Provider != "" && !o.Geocoder.Provider.Valid() {
		return fmt.Errorf("options: unknown geocoder provider %q", o.Geocoder.Provider)
	}
	if o.DefaultCenter != nil && !o.DefaultCenter.Valid() {
		return fmt.Errorf("options: default center must be finite")
	}
	if o.DefaultZoom != nil {
		zoom := *o.DefaultZoom
		if math.IsNaN(zoom) || math.IsInf(zoom, 0) || zoom <= 0 {
			return fmt.Errorf("options: default zoom must be positive, got %v", zoom)
		}
	}
	return nil
}
