package maps

import (
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// Mapbox GL styles and zoom bounds.
const (
	MapboxStyleLight = "mapbox://styles/mapbox/outdoors-v12"
	MapboxStyleDark  = "mapbox://styles/mapbox/dark-v11"
	MapboxMinZoom    = 1
	MapboxMaxZoom    = 16
)

// MapboxStyle returns the style URL for theme.
func MapboxStyle(theme Theme) string {
	if theme == ThemeDark {
		return MapboxStyleDark
	}
	return MapboxStyleLight
}

// Mapbox drives a Mapbox GL map.
type Mapbox struct {
	surface
}

// NewMapbox builds a Mapbox adapter using accessToken.
func NewMapbox(accessToken string, s settings) *Mapbox {
	m := &Mapbox{}
	m.init(options.MapProviderMapbox, accessToken, s)
	return m
}

func (m *Mapbox) Mount(container string, view View, onPick PickFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(container, view, onPick); err != nil {
		return err
	}
	m.create(view.Value)
	return nil
}

func (m *Mapbox) Sync(value *point.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sync(value)
}

func (m *Mapbox) Click(pt point.Point) {
	m.mu.Lock()
	pick := m.click(pt)
	m.mu.Unlock()
	if pick != nil {
		pick(pt)
	}
}

// SetTheme swaps the style in place; marker, center and zoom survive.
func (m *Mapbox) SetTheme(theme Theme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if theme == "" || theme == m.theme {
		return
	}
	m.theme = theme
	m.logger.Debug().Str("style", MapboxStyle(theme)).Msg("map style swapped")
}

func (m *Mapbox) Unmount() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *Mapbox) Scene() Scene {
	m.mu.Lock()
	defer m.mu.Unlock()
	scene := m.scene()
	scene.Style = MapboxStyle(m.theme)
	scene.MinZoom = MapboxMinZoom
	scene.MaxZoom = MapboxMaxZoom
	return scene
}
