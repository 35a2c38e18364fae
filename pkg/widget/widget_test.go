package widget

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mappoint/pkg/geocode"
	"github.com/goliatone/go-mappoint/pkg/maps"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

type geocoderFunc func(ctx context.Context, req geocode.Request) (point.Point, bool)

func (fn geocoderFunc) Geocode(ctx context.Context, req geocode.Request) (point.Point, bool) {
	return fn(ctx, req)
}

func ids() maps.Option {
	n := 0
	return maps.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("instance-%d", n)
	})
}

func leafletConfig() Config {
	return ConfigFromOptions(&options.MapPointOptions{
		Map:      &options.MapOptions{Provider: options.MapProviderLeaflet},
		Geocoder: &options.GeocoderOptions{Provider: options.GeocoderNominatim},
	}, "", options.EnvKeys{})
}

func mounted(t *testing.T, cfg Config, binding Binding, opts ...Option) *Widget {
	t.Helper()
	w, err := New(cfg, binding, append([]Option{WithMapOptions(ids())}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Mount("field-location", maps.ThemeLight); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return w
}

func TestConfigFromOptions(t *testing.T) {
	env := options.EnvKeys{Mapbox: "pk.env", Google: "g.env"}
	cases := []struct {
		name string
		opts *options.MapPointOptions
		want Config
	}{
		{
			name: "defaults",
			opts: nil,
			want: Config{
				MapProvider: options.MapProviderMapbox,
				MapKey:      "pk.env",
				Geocoder:    options.GeocoderMapbox,
				GeocoderKey: "pk.env",
				Center:      options.DefaultCenter,
				Zoom:        options.DefaultZoom,
				Placeholder: options.DefaultPlaceholder,
			},
		},
		{
			name: "leaflet uses nominatim without key",
			opts: &options.MapPointOptions{
				Map:      &options.MapOptions{Provider: options.MapProviderLeaflet},
				Geocoder: &options.GeocoderOptions{Placeholder: "Where?", APIKey: "unused"},
			},
			want: Config{
				MapProvider:   options.MapProviderLeaflet,
				MapKey:        "unused",
				Geocoder:      options.GeocoderNominatim,
				Center:        options.DefaultCenter,
				Zoom:          options.DefaultZoom,
				Placeholder:   "Where?",
				SearchEnabled: true,
			},
		},
		{
			name: "google map key wins",
			opts: &options.MapPointOptions{
				DefaultZoom: options.Float(5),
				Map:         &options.MapOptions{Provider: options.MapProviderGoogle, APIKey: "g.map"},
				Geocoder:    &options.GeocoderOptions{Provider: options.GeocoderGoogle},
			},
			want: Config{
				MapProvider:   options.MapProviderGoogle,
				MapKey:        "g.map",
				Geocoder:      options.GeocoderGoogle,
				GeocoderKey:   "g.map",
				Center:        options.DefaultCenter,
				Zoom:          5,
				Placeholder:   options.DefaultPlaceholder,
				SearchEnabled: true,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ConfigFromOptions(tc.opts, "", env)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMissingKeyShowsPlaceholder(t *testing.T) {
	google := ConfigFromOptions(&options.MapPointOptions{Map: &options.MapOptions{Provider: options.MapProviderGoogle}}, "", options.EnvKeys{})
	if !google.KeyMissing || google.MissingKeyMessage() != MissingGoogleKey {
		t.Fatalf("unexpected google config %+v", google)
	}

	mapbox := ConfigFromOptions(nil, "", options.EnvKeys{})
	w := mounted(t, mapbox, NewMemoryBinding(nil))
	state := w.State()
	if !state.Mounted || state.Scene != nil || state.Placeholder != MissingMapboxKey {
		t.Fatalf("expected placeholder instead of a map: %+v", state)
	}
	if w.Pick(point.Must(1, 2)) {
		t.Fatalf("pick without a map should be rejected")
	}

	withFallback := ConfigFromOptions(nil, "pk.fallback", options.EnvKeys{})
	if withFallback.KeyMissing || withFallback.MapKey != "pk.fallback" {
		t.Fatalf("fallback key should satisfy mapbox: %+v", withFallback)
	}
}

func TestPickThenClear(t *testing.T) {
	binding := NewMemoryBinding(nil)
	w := mounted(t, leafletConfig(), binding)

	if state := w.State(); state.Value != nil || state.Footer != point.EmptyPrompt || state.CanClear {
		t.Fatalf("expected idle state, got %+v", state)
	}

	picked := point.Must(10.75, 59.91)
	if !w.Pick(picked) {
		t.Fatalf("pick rejected")
	}
	state := w.State()
	if !point.Equal(binding.Value(), &picked) || !point.Equal(state.Scene.Marker, &picked) {
		t.Fatalf("pick should set value and marker: %+v", state)
	}
	if state.Footer != "Lng, Lat: 10.750000, 59.910000" || !state.CanClear {
		t.Fatalf("footer = %q", state.Footer)
	}

	w.Clear()
	state = w.State()
	if binding.Value() != nil {
		t.Fatalf("clear should reset the value")
	}
	if state.Scene.Marker != nil {
		t.Fatalf("clear should remove the marker")
	}
}

func TestSearchSetsValue(t *testing.T) {
	var seen geocode.Request
	geocoder := geocoderFunc(func(_ context.Context, req geocode.Request) (point.Point, bool) {
		seen = req
		return point.Must(10.75, 59.91), true
	})
	binding := NewMemoryBinding(nil)
	w := mounted(t, leafletConfig(), binding, WithGeocoder(geocoder))

	if !w.Search(context.Background(), "Oslo") {
		t.Fatalf("search should succeed")
	}
	want := point.Must(10.75, 59.91)
	if !point.Equal(binding.Value(), &want) || !point.Equal(w.State().Scene.Marker, &want) {
		t.Fatalf("search should set value and marker")
	}
	if seen.Provider != options.GeocoderNominatim || seen.Query != "Oslo" || seen.APIKey != "" {
		t.Fatalf("unexpected request %+v", seen)
	}
}

func TestFailedSearchKeepsPriorValue(t *testing.T) {
	prior := point.Must(1, 2)
	binding := NewMemoryBinding(&prior)
	geocoder := geocoderFunc(func(context.Context, geocode.Request) (point.Point, bool) {
		return point.Point{}, false
	})
	w := mounted(t, leafletConfig(), binding, WithGeocoder(geocoder))

	if w.Search(context.Background(), "nowhere") {
		t.Fatalf("search should fail")
	}
	if !point.Equal(binding.Value(), &prior) || binding.Writes() != 0 {
		t.Fatalf("failed search touched the value")
	}
	if w.Search(context.Background(), "   ") {
		t.Fatalf("blank search should not run")
	}
}

func TestSearchDisabledWithoutGeocoderConfig(t *testing.T) {
	cfg := ConfigFromOptions(&options.MapPointOptions{Map: &options.MapOptions{Provider: options.MapProviderLeaflet}}, "", options.EnvKeys{})
	called := false
	geocoder := geocoderFunc(func(context.Context, geocode.Request) (point.Point, bool) {
		called = true
		return point.Point{}, true
	})
	w := mounted(t, cfg, NewMemoryBinding(nil), WithGeocoder(geocoder))
	if w.Search(context.Background(), "Oslo") || called {
		t.Fatalf("search bar is hidden without geocoder options")
	}
	if w.State().SearchEnabled {
		t.Fatalf("state should report search disabled")
	}
}

func TestSearchAfterUnmountIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	geocoder := geocoderFunc(func(context.Context, geocode.Request) (point.Point, bool) {
		close(started)
		<-release
		return point.Must(10.75, 59.91), true
	})
	binding := NewMemoryBinding(nil)
	w := mounted(t, leafletConfig(), binding, WithGeocoder(geocoder))

	result := make(chan bool)
	go func() { result <- w.Search(context.Background(), "Oslo") }()
	<-started
	w.Unmount()
	close(release)

	if <-result {
		t.Fatalf("stale search should report false")
	}
	if binding.Value() != nil || binding.Writes() != 0 {
		t.Fatalf("stale search wrote the binding")
	}
}

func TestNewerSearchWins(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	geocoder := geocoderFunc(func(_ context.Context, req geocode.Request) (point.Point, bool) {
		if req.Query == "slow" {
			close(firstStarted)
			<-releaseFirst
			return point.Must(1, 1), true
		}
		return point.Must(2, 2), true
	})
	binding := NewMemoryBinding(nil)
	w := mounted(t, leafletConfig(), binding, WithGeocoder(geocoder))

	result := make(chan bool)
	go func() { result <- w.Search(context.Background(), "slow") }()
	<-firstStarted
	if !w.Search(context.Background(), "fast") {
		t.Fatalf("newer search should apply")
	}
	close(releaseFirst)
	if <-result {
		t.Fatalf("older search should be discarded")
	}
	want := point.Must(2, 2)
	if !point.Equal(binding.Value(), &want) {
		t.Fatalf("value = %v", binding.Value())
	}
}

func TestSyncExternalKeepsInstance(t *testing.T) {
	binding := NewMemoryBinding(nil)
	w := mounted(t, leafletConfig(), binding)
	before := w.State().Scene.Instance

	external := point.Must(3, 4)
	binding.SetValue(&external)
	w.SyncExternal()

	scene := w.State().Scene
	if scene.Instance != before {
		t.Fatalf("external sync recreated the map: %s -> %s", before, scene.Instance)
	}
	if !point.Equal(scene.Marker, &external) {
		t.Fatalf("marker not resynchronised")
	}

	binding.SetValue(nil)
	w.SyncExternal()
	if w.State().Scene.Marker != nil {
		t.Fatalf("programmatic reset should remove the marker")
	}
}

func TestReconfigureRecreatesOnIdentityChange(t *testing.T) {
	binding := NewMemoryBinding(point.Ptr(point.Must(5, 6)))
	cfg := leafletConfig()
	w := mounted(t, cfg, binding)
	first := w.State().Scene.Instance

	cfg.Zoom = 4
	if err := w.Reconfigure(cfg, ""); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	scene := w.State().Scene
	if scene.Instance != first || scene.Zoom != 4 {
		t.Fatalf("view change should keep the instance: %+v", scene)
	}

	if err := w.Reconfigure(cfg, "other-container"); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	scene = w.State().Scene
	if scene.Instance == first || scene.Container != "other-container" {
		t.Fatalf("container change should recreate the map: %+v", scene)
	}
	if scene.Marker == nil || *scene.Marker != point.Must(5, 6) {
		t.Fatalf("recreated map should carry the bound value: %+v", scene)
	}

	mapbox := ConfigFromOptions(&options.MapPointOptions{Map: &options.MapOptions{Provider: options.MapProviderMapbox, APIKey: "pk"}}, "", options.EnvKeys{})
	if err := w.Reconfigure(mapbox, ""); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	if got := w.State().Scene; got.Provider != options.MapProviderMapbox || got.Instance == scene.Instance {
		t.Fatalf("provider change should recreate the map: %+v", got)
	}
}

func TestSetThemeSwapsMapboxStyle(t *testing.T) {
	cfg := ConfigFromOptions(&options.MapPointOptions{Map: &options.MapOptions{APIKey: "pk"}}, "", options.EnvKeys{})
	w := mounted(t, cfg, NewMemoryBinding(point.Ptr(point.Must(1, 1))))
	before := w.State().Scene

	w.SetTheme(maps.ThemeDark)
	after := w.State().Scene
	if after.Style != maps.MapboxStyleDark || after.Instance != before.Instance || !point.Equal(after.Marker, before.Marker) {
		t.Fatalf("theme swap lost state: before %+v after %+v", before, after)
	}
}

func TestNewRequiresBinding(t *testing.T) {
	if _, err := New(leafletConfig(), nil); err != ErrNilBinding {
		t.Fatalf("expected ErrNilBinding, got %v", err)
	}
}

func TestBindingFuncs(t *testing.T) {
	var stored *point.Point
	binding := BindingFuncs{
		Get: func() *point.Point { return stored },
		Set: func(p *point.Point) { stored = p },
	}
	w := mounted(t, leafletConfig(), binding)
	w.Pick(point.Must(7, 8))
	if stored == nil || *stored != point.Must(7, 8) {
		t.Fatalf("binding funcs not written: %v", stored)
	}
}
