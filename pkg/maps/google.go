package maps

import (
	"context"
	"net/url"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

// GoogleScriptURL is the Maps JavaScript API bootstrap script.
const GoogleScriptURL = "https://maps.googleapis.com/maps/api/js"

// GoogleScript returns the script URL for apiKey.
func GoogleScript(apiKey string) string {
	return GoogleScriptURL + "?" + url.Values{"key": {apiKey}, "v": {"weekly"}}.Encode()
}

// SDKLoader loads the Google Maps SDK. Load may block; the adapter calls it
// from its own goroutine.
type SDKLoader interface {
	Load(ctx context.Context, apiKey string) error
}

// SDKLoaderFunc adapts a function to SDKLoader.
type SDKLoaderFunc func(ctx context.Context, apiKey string) error

// Load calls fn.
func (fn SDKLoaderFunc) Load(ctx context.Context, apiKey string) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, apiKey)
}

// ScriptLoader resolves immediately; the browser runtime injects the script
// referenced by Scene.ScriptURL.
type ScriptLoader struct{}

// Load implements SDKLoader.
func (ScriptLoader) Load(ctx context.Context, _ string) error {
	return ctx.Err()
}

// Google drives a Google Maps map. The instance only exists once the SDK has
// loaded; a load finishing after Unmount is discarded.
type Google struct {
	surface

	loader SDKLoader
	value  *point.Point
	cancel context.CancelFunc
	gen    uint64
	ready  chan struct{}
}

// NewGoogle builds a Google adapter using apiKey.
func NewGoogle(apiKey string, s settings) *Google {
	g := &Google{loader: s.loader}
	g.init(options.MapProviderGoogle, apiKey, s)
	if g.loader == nil {
		g.loader = ScriptLoader{}
	}
	return g
}

// Mount starts the SDK load and returns immediately. Ready reports when the
// load has settled.
func (g *Google) Mount(container string, view View, onPick PickFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(container, view, onPick); err != nil {
		return err
	}
	if view.Value != nil {
		g.value = point.Ptr(*view.Value)
	}
	g.gen++
	gen := g.gen
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	ready := make(chan struct{})
	g.ready = ready

	go g.load(ctx, gen, ready)
	return nil
}

func (g *Google) load(ctx context.Context, gen uint64, ready chan struct{}) {
	defer close(ready)
	err := g.loader.Load(ctx, g.apiKey)

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.mounted || g.gen != gen {
		g.logger.Debug().Msg("discarding sdk load for unmounted map")
		return
	}
	if err != nil {
		g.logger.Warn().Err(err).Msg("google maps sdk failed to load")
		return
	}
	g.create(g.value)
}

// Ready returns a channel closed once the current SDK load has settled. It
// returns nil before the first Mount.
func (g *Google) Ready() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

// Sync tracks the value even before the SDK is loaded so the initial marker
// is correct once it is.
func (g *Google) Sync(value *point.Point) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.mounted {
		return
	}
	g.value = nil
	if value != nil && value.Valid() {
		g.value = point.Ptr(*value)
	}
	g.sync(value)
}

func (g *Google) Click(pt point.Point) {
	g.mu.Lock()
	pick := g.click(pt)
	if pick != nil {
		g.value = point.Ptr(pt)
	}
	g.mu.Unlock()
	if pick != nil {
		pick(pt)
	}
}

func (g *Google) SetTheme(theme Theme) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if theme != "" {
		g.theme = theme
	}
}

func (g *Google) Unmount() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.gen++
	g.value = nil
	g.release()
}

func (g *Google) Scene() Scene {
	g.mu.Lock()
	defer g.mu.Unlock()
	scene := g.scene()
	scene.ScriptURL = GoogleScript(g.apiKey)
	latLng := g.center.LatLng()
	scene.ViewLatLng = &latLng
	return scene
}
