// Package maps holds the map-provider adapters driven by the widget. Each
// adapter owns one map instance and at most one marker inside a container,
// places and moves the marker, turns clicks into picked points and releases
// everything on Unmount.
//
// Adapters do not draw anything themselves. Scene returns a snapshot that the
// renderer serialises for the browser runtime, which drives Mapbox GL, the
// Google Maps SDK or Leaflet.
package maps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

var (
	// ErrUnknownProvider is returned by New for unsupported provider tags.
	ErrUnknownProvider = errors.New("maps: unknown provider")
	// ErrMissingContainer is returned by Mount without a container id.
	ErrMissingContainer = errors.New("maps: container is required")
	// ErrMounted is returned by Mount on an adapter that is already mounted.
	ErrMounted = errors.New("maps: adapter already mounted")
)

// Theme is the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps variant names onto a Theme; anything but "dark" is light.
func ParseTheme(value string) Theme {
	if strings.EqualFold(strings.TrimSpace(value), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

// View is the initial camera and value handed to Mount.
type View struct {
	Center point.Point
	Zoom   float64
	Value  *point.Point
	Theme  Theme
}

// PickFunc receives coordinates picked on the map.
type PickFunc func(point.Point)

// Adapter is the contract shared by every map provider.
type Adapter interface {
	Provider() options.MapProvider
	// Mount creates the map instance inside container.
	Mount(container string, view View, onPick PickFunc) error
	// Sync places, moves or removes the marker without recreating the map.
	Sync(value *point.Point)
	// Click bridges a map click: the marker moves and onPick fires.
	Click(pt point.Point)
	// SetTheme swaps the visual style, keeping marker and view.
	SetTheme(theme Theme)
	Unmount()
	Mounted() bool
	Scene() Scene
}

// Scene is the serialisable state of a mounted adapter.
type Scene struct {
	Provider    options.MapProvider `json:"provider"`
	Container   string              `json:"container"`
	Instance    string              `json:"instance,omitempty"`
	Mounted     bool                `json:"mounted"`
	Loaded      bool                `json:"loaded"`
	APIKey      string              `json:"apiKey,omitempty"`
	Style       string              `json:"style,omitempty"`
	ScriptURL   string              `json:"scriptUrl,omitempty"`
	TileURL     string              `json:"tileUrl,omitempty"`
	Attribution string              `json:"attribution,omitempty"`
	Center      point.Point         `json:"center"`
	ViewLatLng  *[2]float64         `json:"viewLatLng,omitempty"`
	Zoom        float64             `json:"zoom"`
	MinZoom     float64             `json:"minZoom,omitempty"`
	MaxZoom     float64             `json:"maxZoom,omitempty"`
	Marker      *point.Point        `json:"marker"`
	Theme       Theme               `json:"theme"`
}

// Option customises an adapter built by New.
type Option func(*settings)

type settings struct {
	ids    func() string
	logger zerolog.Logger
	loader SDKLoader
}

// WithIDGenerator replaces the uuid based instance id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *settings) {
		if fn != nil {
			s.ids = fn
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithSDKLoader sets the loader used by the Google adapter.
func WithSDKLoader(loader SDKLoader) Option {
	return func(s *settings) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// New returns the adapter for provider. apiKey is ignored by Leaflet.
func New(provider options.MapProvider, apiKey string, opts ...Option) (Adapter, error) {
	s := settings{
		ids:    uuid.NewString,
		logger: zerolog.Nop(),
		loader: ScriptLoader{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	switch provider {
	case options.MapProviderMapbox:
		return NewMapbox(apiKey, s), nil
	case options.MapProviderGoogle:
		return NewGoogle(apiKey, s), nil
	case options.MapProviderLeaflet:
		return NewLeaflet(s), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// NewContainerID returns a fresh DOM id for a map container.
func NewContainerID(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "mappoint"
	}
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
