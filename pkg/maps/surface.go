package maps

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// surface is the state shared by every adapter: one map instance, one
// optional marker, one click listener.
type surface struct {
	mu sync.Mutex

	provider  options.MapProvider
	apiKey    string
	ids       func() string
	logger    zerolog.Logger
	container string
	instance  string
	center    point.Point
	zoom      float64
	theme     Theme
	marker    *point.Point
	onPick    PickFunc
	mounted   bool
}

func (s *surface) init(provider options.MapProvider, apiKey string, cfg settings) {
	s.provider = provider
	s.apiKey = strings.TrimSpace(apiKey)
	s.ids = cfg.ids
	s.logger = cfg.logger.With().Str("provider", string(provider)).Logger()
	s.theme = ThemeLight
}

func (s *surface) Provider() options.MapProvider {
	return s.provider
}

func (s *surface) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// begin records the container and view; callers hold mu.
func (s *surface) begin(container string, view View, onPick PickFunc) error {
	container = strings.TrimSpace(container)
	if container == "" {
		return ErrMissingContainer
	}
	if s.mounted {
		return ErrMounted
	}
	s.container = container
	s.center = view.Center
	if view.Value != nil {
		s.center = *view.Value
	}
	s.zoom = view.Zoom
	if view.Theme != "" {
		s.theme = view.Theme
	}
	s.onPick = onPick
	s.mounted = true
	return nil
}

// create builds the map instance and the initial marker; callers hold mu.
func (s *surface) create(value *point.Point) {
	s.instance = s.ids()
	s.marker = nil
	if value != nil && value.Valid() {
		s.marker = point.Ptr(*value)
	}
	s.logger.Debug().
		Str("container", s.container).
		Str("instance", s.instance).
		Msg("map instance created")
}

func (s *surface) sync(value *point.Point) {
	if !s.mounted || s.instance == "" {
		return
	}
	if value == nil || !value.Valid() {
		s.marker = nil
		return
	}
	s.marker = point.Ptr(*value)
}

// click moves the marker and returns the listener to call outside the lock.
func (s *surface) click(pt point.Point) PickFunc {
	if !s.mounted || s.instance == "" || !pt.Valid() {
		return nil
	}
	s.marker = point.Ptr(pt)
	return s.onPick
}

func (s *surface) release() {
	if s.instance != "" {
		s.logger.Debug().
			Str("container", s.container).
			Str("instance", s.instance).
			Msg("map instance released")
	}
	s.instance = ""
	s.marker = nil
	s.onPick = nil
	s.mounted = false
}

func (s *surface) scene() Scene {
	scene := Scene{
		Provider:  s.provider,
		Container: s.container,
		Instance:  s.instance,
		Mounted:   s.mounted,
		Loaded:    s.instance != "",
		APIKey:    s.apiKey,
		Center:    s.center,
		Zoom:      s.zoom,
		Theme:     s.theme,
	}
	if s.marker != nil {
		scene.Marker = point.Ptr(*s.marker)
	}
	return scene
}
