package vanilla

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-mappoint/pkg/maps"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/render"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

func venueCollection() schema.Collection {
	return schema.Collection{
		Slug: "venues",
		Fields: []schema.Field{
			{Name: "title", Type: schema.KindText, Label: "Title <script>x</script>", Required: true},
			{Name: "location", Type: schema.KindPoint, Label: "Location", Admin: &schema.Admin{
				Components: &schema.Components{Field: &schema.ComponentRef{
					Path:        "mappoint/field",
					ClientProps: map[string]any{"apiKey": "pk.test"},
				}},
				MapPoint: &options.MapPointOptions{
					Geocoder: &options.GeocoderOptions{Provider: options.GeocoderNominatim, Placeholder: "Find a venue"},
				},
			}},
			{Name: "meta", Type: schema.KindGroup, Label: "Meta", Fields: []schema.Field{
				{Name: "pin", Type: schema.KindPoint, Admin: &schema.Admin{MapPoint: &options.MapPointOptions{
					Map: &options.MapOptions{Provider: options.MapProviderLeaflet},
				}}},
			}},
		},
	}
}

func newTestRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	base := []Option{
		WithEndpoint("/api/geocode"),
		WithMapOptions(maps.WithIDGenerator(func() string { return "inst" })),
	}
	r, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func TestRenderCollectionPage(t *testing.T) {
	r := newTestRenderer(t)
	result, err := r.RenderPage(context.Background(), render.Form{Collection: venueCollection()}, render.RenderOptions{
		Values: map[string]any{
			"title":    "Opera",
			"location": []any{10.75, 59.91},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(result.HTML)

	if result.Points != 2 {
		t.Fatalf("expected 2 map-point fields, got %d", result.Points)
	}
	checks := []string{
		`<title>venues</title>`,
		`name="title" value="Opera"`,
		`data-component="map-point:mapbox"`,
		`data-component="map-point:leaflet"`,
		`placeholder="Find a venue"`,
		`Lng, Lat: 10.750000, 59.910000`,
		`name="meta.pin"`,
		`id="mp-location-map"`,
		`id="mp-meta-pin-map"`,
		`<script src="/assets/mappoint.js" defer></script>`,
		`href="/assets/mappoint.css"`,
		`href="https://api.mapbox.com/mapbox-gl-js/v3.3.0/mapbox-gl.css"`,
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "<script>x</script>") {
		t.Fatalf("label was not sanitised:\n%s", out)
	}
	if n := strings.Count(out, `src="/assets/mappoint.js"`); n != 1 {
		t.Fatalf("expected runtime script once, got %d", n)
	}
	if t.Failed() {
		t.Logf("output:\n%s", out)
	}
}

func TestRenderMissingKeyPlaceholder(t *testing.T) {
	r := newTestRenderer(t)
	collection := schema.Collection{Slug: "places", Fields: []schema.Field{
		{Name: "where", Type: schema.KindPoint},
	}}
	result, err := r.RenderPage(context.Background(), render.Form{Collection: collection}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(result.HTML)
	if !strings.Contains(out, "Mapbox access token required to render map.") {
		t.Fatalf("expected placeholder:\n%s", out)
	}
	if strings.Contains(out, "data-mappoint-map") {
		t.Fatalf("map container rendered despite missing key:\n%s", out)
	}
	if strings.Contains(out, "mappoint-search") {
		t.Fatalf("search bar rendered without geocoder config:\n%s", out)
	}
}

func TestRenderUsesEnvKeys(t *testing.T) {
	r := newTestRenderer(t, WithEnv(options.EnvKeys{Mapbox: "pk.env"}))
	collection := schema.Collection{Slug: "places", Fields: []schema.Field{
		{Name: "where", Type: schema.KindPoint},
	}}
	result, err := r.RenderPage(context.Background(), render.Form{Collection: collection}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(result.HTML)
	if !strings.Contains(out, "data-mappoint-map") || !strings.Contains(out, "pk.env") {
		t.Fatalf("expected map with env key:\n%s", out)
	}
}

func TestRenderDarkThemeAndAssets(t *testing.T) {
	cfg := &theme.RendererConfig{
		Theme:   "acme",
		Variant: "dark",
		CSSVars: map[string]string{"--brand": "#123456"},
		AssetURL: func(key string) string {
			if key == ThemeStylesheetKey {
				return "/themes/acme/theme.css"
			}
			return ""
		},
	}
	r := newTestRenderer(t, WithTheme(cfg), WithEnv(options.EnvKeys{Mapbox: "pk.env"}))
	result, err := r.RenderPage(context.Background(), render.Form{Collection: schema.Collection{Slug: "x", Fields: []schema.Field{
		{Name: "where", Type: schema.KindPoint},
	}}}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(result.HTML)
	for _, want := range []string{
		`data-theme="dark"`,
		`--brand: #123456;`,
		`href="/themes/acme/theme.css"`,
		`dark-v11`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderCancelledContext(t *testing.T) {
	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, render.Form{Collection: venueCollection()}, render.RenderOptions{}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestRenderChromeClasses(t *testing.T) {
	r := newTestRenderer(t, WithChromeClasses(ChromeClasses{Form: "custom-form mp-bad"}))
	result, err := r.RenderPage(context.Background(), render.Form{Title: "Edit", Collection: schema.Collection{Slug: "x"}}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(result.HTML)
	if !strings.Contains(out, `<form class="custom-form"`) {
		t.Fatalf("expected custom form class:\n%s", out)
	}
	if !strings.Contains(out, `<body class="mappoint-page">`) {
		t.Fatalf("expected default page class:\n%s", out)
	}
}

func TestRenderErrorsAndHiddenFields(t *testing.T) {
	r := newTestRenderer(t)
	collection := schema.Collection{Slug: "x", Fields: []schema.Field{
		{Name: "title", Type: schema.KindText},
	}}
	out, err := r.Render(context.Background(), render.Form{Collection: collection}, render.RenderOptions{
		Errors:     map[string][]string{"title": {"Title <b>is</b> required"}},
		FormErrors: []string{"Could not save", "Could not save"},
		Hidden:     map[string]string{"_csrf": "tok"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		`data-invalid="true"`,
		`<p class="mappoint-error" role="alert">Title is required</p>`,
		`<input type="hidden" name="_csrf" value="tok">`,
		`<li>Could not save</li>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Count(html, "<li>Could not save</li>") != 1 {
		t.Fatalf("expected de-duplicated form errors:\n%s", html)
	}
}

func TestEmbeddedAssets(t *testing.T) {
	for _, name := range []string{StylesheetName, RuntimeScriptName} {
		data, err := fs.ReadFile(AssetsFS(), name)
		if err != nil || len(data) == 0 {
			t.Fatalf("asset %s missing: %v", name, err)
		}
	}
	runtime, err := fs.ReadFile(AssetsFS(), RuntimeScriptName)
	if err != nil {
		t.Fatalf("read runtime: %v", err)
	}
	for _, want := range []string{"minZoom: scene.minZoom", "maxZoom: scene.maxZoom", "mapboxgl.NavigationControl", "'&field='"} {
		if !strings.Contains(string(runtime), want) {
			t.Errorf("runtime missing %q", want)
		}
	}
	if _, err := fs.ReadFile(TemplatesFS(), "templates/components/map_point.tmpl"); err != nil {
		t.Fatalf("map point template missing: %v", err)
	}
}
