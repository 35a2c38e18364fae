package maps

import (
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// OpenStreetMap tile layer used by Leaflet.
const (
	LeafletTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	LeafletAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	LeafletMaxZoom     = 19
)

// Leaflet drives a Leaflet map over OpenStreetMap tiles. It needs no key and
// has no theme support.
type Leaflet struct {
	surface
}

// NewLeaflet builds a Leaflet adapter.
func NewLeaflet(s settings) *Leaflet {
	l := &Leaflet{}
	l.init(options.MapProviderLeaflet, "", s)
	return l
}

func (l *Leaflet) Mount(container string, view View, onPick PickFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.begin(container, view, onPick); err != nil {
		return err
	}
	l.create(view.Value)
	return nil
}

// Sync moves the marker and recenters the view on the value.
func (l *Leaflet) Sync(value *point.Point) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sync(value)
	if l.mounted && value != nil && value.Valid() {
		l.center = *value
	}
}

func (l *Leaflet) Click(pt point.Point) {
	l.mu.Lock()
	pick := l.click(pt)
	l.mu.Unlock()
	if pick != nil {
		pick(pt)
	}
}

// SetView recenters the map; a present marker takes priority over center.
func (l *Leaflet) SetView(center point.Point, zoom float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.mounted {
		return
	}
	l.center = center
	if l.marker != nil {
		l.center = *l.marker
	}
	if zoom > 0 {
		l.zoom = zoom
	}
}

func (l *Leaflet) SetTheme(Theme) {}

func (l *Leaflet) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.release()
}

func (l *Leaflet) Scene() Scene {
	l.mu.Lock()
	defer l.mu.Unlock()
	scene := l.scene()
	scene.APIKey = ""
	scene.TileURL = LeafletTileURL
	scene.Attribution = LeafletAttribution
	scene.MaxZoom = LeafletMaxZoom
	latLng := l.center.LatLng()
	scene.ViewLatLng = &latLng
	return scene
}
