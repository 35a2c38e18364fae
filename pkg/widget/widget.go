package widget

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint/pkg/geocode"
	"github.com/goliatone/go-mappoint/pkg/maps"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// ErrNilBinding is returned by New without a binding.
var ErrNilBinding = errors.New("widget: binding is required")

// Geocoder resolves search queries. *geocode.Client satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, req geocode.Request) (point.Point, bool)
}

// AdapterFactory builds the map adapter for a provider and key.
type AdapterFactory func(provider options.MapProvider, apiKey string) (maps.Adapter, error)

// Option customises a Widget.
type Option func(*Widget)

// WithGeocoder sets the search backend.
func WithGeocoder(geocoder Geocoder) Option {
	return func(w *Widget) {
		w.geocoder = geocoder
	}
}

// WithAdapterFactory replaces maps.New.
func WithAdapterFactory(factory AdapterFactory) Option {
	return func(w *Widget) {
		if factory != nil {
			w.factory = factory
		}
	}
}

// WithMapOptions passes options to maps.New when the default factory is used.
func WithMapOptions(opts ...maps.Option) Option {
	return func(w *Widget) {
		w.mapOpts = append(w.mapOpts, opts...)
	}
}

// WithLogger sets the widget logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Widget) {
		w.logger = logger
	}
}

// Widget is one mounted map-point field.
type Widget struct {
	mu sync.Mutex

	cfg      Config
	binding  Binding
	geocoder Geocoder
	factory  AdapterFactory
	mapOpts  []maps.Option
	logger   zerolog.Logger

	adapter   maps.Adapter
	container string
	theme     maps.Theme
	mounted   bool
	// mountGen changes on every mount and unmount; searchGen on every search.
	mountGen  uint64
	searchGen uint64
}

// New constructs an unmounted widget.
func New(cfg Config, binding Binding, opts ...Option) (*Widget, error) {
	if binding == nil {
		return nil, ErrNilBinding
	}
	w := &Widget{
		cfg:     cfg,
		binding: binding,
		logger:  zerolog.Nop(),
		theme:   maps.ThemeLight,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if w.factory == nil {
		mapOpts := append([]maps.Option{maps.WithLogger(w.logger)}, w.mapOpts...)
		w.factory = func(provider options.MapProvider, apiKey string) (maps.Adapter, error) {
			return maps.New(provider, apiKey, mapOpts...)
		}
	}
	return w, nil
}

// Config returns the current configuration.
func (w *Widget) Config() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// Mount renders the widget into container. With a missing key the widget
// mounts without a map and State reports the placeholder.
func (w *Widget) Mount(container string, theme maps.Theme) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mounted {
		return maps.ErrMounted
	}
	if theme != "" {
		w.theme = theme
	}
	return w.mountLocked(strings.TrimSpace(container))
}

func (w *Widget) mountLocked(container string) error {
	if container == "" {
		return maps.ErrMissingContainer
	}
	w.container = container
	w.mountGen++
	w.mounted = true

	if w.cfg.KeyMissing {
		w.logger.Warn().
			Str("provider", string(w.cfg.MapProvider)).
			Msg(w.cfg.MissingKeyMessage())
		return nil
	}

	adapter, err := w.factory(w.cfg.MapProvider, w.cfg.MapKey)
	if err != nil {
		w.mounted = false
		return err
	}
	view := maps.View{
		Center: w.cfg.Center,
		Zoom:   w.cfg.Zoom,
		Value:  w.binding.Value(),
		Theme:  w.theme,
	}
	if err := adapter.Mount(container, view, w.onPick(w.mountGen)); err != nil {
		w.mounted = false
		return err
	}
	w.adapter = adapter
	return nil
}

// onPick returns the click listener for one mount generation.
func (w *Widget) onPick(gen uint64) maps.PickFunc {
	return func(pt point.Point) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.mounted || w.mountGen != gen {
			return
		}
		w.binding.SetValue(point.Ptr(pt))
	}
}

// Pick handles a map click at pt. It reports false when no map is mounted.
func (w *Widget) Pick(pt point.Point) bool {
	w.mu.Lock()
	adapter := w.adapter
	w.mu.Unlock()
	if adapter == nil || !pt.Valid() {
		return false
	}
	adapter.Click(pt)
	return true
}

// Search geocodes query and, on success, sets the value and moves the
// marker. A failed lookup leaves the value untouched. Results that arrive
// after Unmount or after a newer search started are discarded.
func (w *Widget) Search(ctx context.Context, query string) bool {
	w.mu.Lock()
	if !w.mounted || !w.cfg.SearchEnabled || w.geocoder == nil || strings.TrimSpace(query) == "" {
		w.mu.Unlock()
		return false
	}
	w.searchGen++
	searchGen, mountGen := w.searchGen, w.mountGen
	req := geocode.Request{
		Provider: w.cfg.Geocoder,
		APIKey:   w.cfg.GeocoderKey,
		Query:    query,
	}
	geocoder := w.geocoder
	w.mu.Unlock()

	pt, ok := geocoder.Geocode(ctx, req)
	if !ok {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.mounted || w.mountGen != mountGen || w.searchGen != searchGen {
		w.logger.Debug().Str("query", query).Msg("discarding stale search result")
		return false
	}
	w.binding.SetValue(point.Ptr(pt))
	if w.adapter != nil {
		w.adapter.Sync(&pt)
	}
	return true
}

// Clear resets the value to nil and removes the marker.
func (w *Widget) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.binding.SetValue(nil)
	if w.adapter != nil {
		w.adapter.Sync(nil)
	}
}

// SyncExternal re-reads the binding after an outside change and moves the
// marker without recreating the map.
func (w *Widget) SyncExternal() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.adapter != nil {
		w.adapter.Sync(w.binding.Value())
	}
}

// Reconfigure applies cfg and container. The map is torn down and recreated
// only when the provider, key or container changed.
func (w *Widget) Reconfigure(cfg Config, container string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	container = strings.TrimSpace(container)
	if container == "" {
		container = w.container
	}
	recreate := !w.cfg.sameMap(cfg) || container != w.container
	w.cfg = cfg
	if !w.mounted {
		w.container = container
		return nil
	}
	if !recreate {
		if leaflet, ok := w.adapter.(*maps.Leaflet); ok {
			leaflet.SetView(cfg.Center, cfg.Zoom)
		}
		return nil
	}
	w.teardownLocked()
	return w.mountLocked(container)
}

// SetTheme swaps the map style where the provider supports it.
func (w *Widget) SetTheme(theme maps.Theme) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if theme == "" {
		return
	}
	w.theme = theme
	if w.adapter != nil {
		w.adapter.SetTheme(theme)
	}
}

// Unmount releases the map. Pending searches are discarded when they return.
func (w *Widget) Unmount() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.teardownLocked()
}

func (w *Widget) teardownLocked() {
	if w.adapter != nil {
		w.adapter.Unmount()
		w.adapter = nil
	}
	if w.mounted {
		w.mountGen++
	}
	w.mounted = false
}

// State is a snapshot used by renderers and tests.
type State struct {
	Mounted           bool         `json:"mounted"`
	Value             *point.Point `json:"value"`
	Footer            string       `json:"footer"`
	CanClear          bool         `json:"canClear"`
	SearchEnabled     bool         `json:"searchEnabled"`
	SearchPlaceholder string       `json:"searchPlaceholder,omitempty"`
	Placeholder       string       `json:"placeholder,omitempty"`
	Scene             *maps.Scene  `json:"scene,omitempty"`
}

// State returns the current widget state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	value := w.binding.Value()
	state := State{
		Mounted:       w.mounted,
		Value:         value,
		Footer:        point.Format(value),
		CanClear:      value != nil,
		SearchEnabled: w.cfg.SearchEnabled,
		Placeholder:   w.cfg.MissingKeyMessage(),
	}
	if w.cfg.SearchEnabled {
		state.SearchPlaceholder = w.cfg.Placeholder
	}
	if w.adapter != nil {
		scene := w.adapter.Scene()
		state.Scene = &scene
	}
	return state
}
