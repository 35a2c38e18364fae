package maps

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("map-%d", n)
	}
}

func mustNew(t *testing.T, provider options.MapProvider, opts ...Option) Adapter {
	t.Helper()
	adapter, err := New(provider, "key-123", append([]Option{WithIDGenerator(sequentialIDs())}, opts...)...)
	if err != nil {
		t.Fatalf("New(%s): %v", provider, err)
	}
	return adapter
}

func waitReady(t *testing.T, adapter Adapter) {
	t.Helper()
	g, ok := adapter.(*Google)
	if !ok {
		return
	}
	select {
	case <-g.Ready():
	case <-time.After(2 * time.Second):
		t.Fatalf("google sdk load did not settle")
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New("bing", ""); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestAdaptersShareContract(t *testing.T) {
	for _, provider := range []options.MapProvider{options.MapProviderMapbox, options.MapProviderGoogle, options.MapProviderLeaflet} {
		t.Run(string(provider), func(t *testing.T) {
			adapter := mustNew(t, provider)
			if adapter.Provider() != provider {
				t.Fatalf("provider = %s", adapter.Provider())
			}
			if err := adapter.Mount("", View{}, nil); !errors.Is(err, ErrMissingContainer) {
				t.Fatalf("expected ErrMissingContainer, got %v", err)
			}

			var picked []point.Point
			initial := point.Ptr(point.Must(10.75, 59.91))
			err := adapter.Mount("map-container", View{Center: options.DefaultCenter, Zoom: 12, Value: initial}, func(pt point.Point) {
				picked = append(picked, pt)
			})
			if err != nil {
				t.Fatalf("Mount: %v", err)
			}
			if err := adapter.Mount("map-container", View{}, nil); !errors.Is(err, ErrMounted) {
				t.Fatalf("expected ErrMounted on double mount, got %v", err)
			}
			waitReady(t, adapter)

			scene := adapter.Scene()
			if !scene.Loaded || scene.Instance != "map-1" || !point.Equal(scene.Marker, initial) {
				t.Fatalf("unexpected scene after mount: %+v", scene)
			}
			if scene.Center != *initial {
				t.Fatalf("view should start on the value, got %v", scene.Center)
			}

			moved := point.Must(5, 50)
			adapter.Sync(&moved)
			if got := adapter.Scene(); !point.Equal(got.Marker, &moved) || got.Instance != "map-1" {
				t.Fatalf("sync should move the marker on the same instance: %+v", got)
			}

			clicked := point.Must(1, 2)
			adapter.Click(clicked)
			if diff := cmp.Diff([]point.Point{clicked}, picked); diff != "" {
				t.Fatalf("pick mismatch (-want +got):\n%s", diff)
			}
			if !point.Equal(adapter.Scene().Marker, &clicked) {
				t.Fatalf("click should move the marker")
			}

			adapter.Sync(nil)
			if adapter.Scene().Marker != nil {
				t.Fatalf("sync(nil) should remove the marker")
			}

			adapter.Unmount()
			scene = adapter.Scene()
			if adapter.Mounted() || scene.Loaded || scene.Instance != "" {
				t.Fatalf("unmount should release the instance: %+v", scene)
			}
			adapter.Click(clicked)
			if len(picked) != 1 {
				t.Fatalf("click after unmount should be ignored")
			}
		})
	}
}

func TestMapboxThemeSwapKeepsState(t *testing.T) {
	adapter := mustNew(t, options.MapProviderMapbox)
	value := point.Must(10.75, 59.91)
	if err := adapter.Mount("c", View{Zoom: 9, Value: &value}, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	before := adapter.Scene()
	if before.Style != MapboxStyleLight || before.MinZoom != 1 || before.MaxZoom != 16 {
		t.Fatalf("unexpected light scene: %+v", before)
	}

	adapter.SetTheme(ThemeDark)
	after := adapter.Scene()
	if after.Style != MapboxStyleDark {
		t.Fatalf("style = %q", after.Style)
	}
	if after.Instance != before.Instance || !point.Equal(after.Marker, before.Marker) || after.Zoom != before.Zoom || after.Center != before.Center {
		t.Fatalf("theme swap changed map state: before %+v after %+v", before, after)
	}
}

func TestLeafletSceneAndView(t *testing.T) {
	adapter := mustNew(t, options.MapProviderLeaflet)
	leaflet := adapter.(*Leaflet)
	if err := leaflet.Mount("c", View{Center: point.Must(11.9, 60.6), Zoom: 12}, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	scene := leaflet.Scene()
	if scene.APIKey != "" || scene.TileURL != LeafletTileURL || scene.MaxZoom != 19 {
		t.Fatalf("unexpected leaflet scene: %+v", scene)
	}
	if *scene.ViewLatLng != [2]float64{60.6, 11.9} {
		t.Fatalf("view should be lat-first, got %v", *scene.ViewLatLng)
	}

	leaflet.SetView(point.Must(1, 1), 5)
	if got := leaflet.Scene(); got.Center != point.Must(1, 1) || got.Zoom != 5 {
		t.Fatalf("SetView not applied: %+v", got)
	}
	value := point.Must(3, 4)
	leaflet.Sync(&value)
	leaflet.SetView(point.Must(1, 1), 0)
	if got := leaflet.Scene(); got.Center != value || got.Zoom != 5 {
		t.Fatalf("value should win over center: %+v", got)
	}
}

func TestGoogleDiscardsLoadAfterUnmount(t *testing.T) {
	release := make(chan struct{})
	loader := SDKLoaderFunc(func(ctx context.Context, apiKey string) error {
		<-release
		return nil
	})
	adapter := mustNew(t, options.MapProviderGoogle, WithSDKLoader(loader))
	google := adapter.(*Google)

	if err := google.Mount("c", View{Zoom: 3}, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if google.Scene().Loaded {
		t.Fatalf("instance must not exist before the sdk loads")
	}
	ready := google.Ready()
	google.Unmount()
	close(release)
	<-ready

	if scene := google.Scene(); scene.Loaded || scene.Instance != "" {
		t.Fatalf("late load should be discarded: %+v", scene)
	}
}

func TestGoogleSyncBeforeLoad(t *testing.T) {
	release := make(chan struct{})
	loader := SDKLoaderFunc(func(ctx context.Context, apiKey string) error {
		if apiKey != "key-123" {
			return fmt.Errorf("unexpected key %q", apiKey)
		}
		<-release
		return nil
	})
	google := mustNew(t, options.MapProviderGoogle, WithSDKLoader(loader)).(*Google)
	if err := google.Mount("c", View{}, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	value := point.Must(7, 8)
	google.Sync(&value)
	close(release)
	waitReady(t, google)

	scene := google.Scene()
	if !scene.Loaded || !point.Equal(scene.Marker, &value) {
		t.Fatalf("expected marker from pre-load sync: %+v", scene)
	}
	if scene.ScriptURL != GoogleScript("key-123") {
		t.Fatalf("script url = %q", scene.ScriptURL)
	}
}

func TestGoogleLoadFailureLeavesMapUnloaded(t *testing.T) {
	loader := SDKLoaderFunc(func(context.Context, string) error { return errors.New("blocked") })
	google := mustNew(t, options.MapProviderGoogle, WithSDKLoader(loader)).(*Google)
	if err := google.Mount("c", View{}, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	waitReady(t, google)
	if google.Scene().Loaded {
		t.Fatalf("failed load should not create an instance")
	}
}

func TestParseThemeAndContainerID(t *testing.T) {
	if ParseTheme("DARK") != ThemeDark || ParseTheme("sepia") != ThemeLight {
		t.Fatalf("unexpected theme parsing")
	}
	a, b := NewContainerID(""), NewContainerID("field")
	if a == b || len(a) != len("mappoint-")+12 || b[:6] != "field-" {
		t.Fatalf("unexpected container ids %q %q", a, b)
	}
}
