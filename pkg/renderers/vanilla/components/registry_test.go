package components

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

func noopRenderer(*bytes.Buffer, schema.Field, ComponentData) error { return nil }

func TestRegistryDescriptorClone(t *testing.T) {
	reg := New()

	if err := reg.Register("test", Descriptor{Renderer: noopRenderer, Stylesheets: []string{"/a.css"}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	desc, ok := reg.Descriptor("TEST ")
	if !ok {
		t.Fatalf("descriptor not found")
	}
	desc.Stylesheets = append(desc.Stylesheets, "/mutated.css")

	original, _ := reg.Descriptor("test")
	if len(original.Stylesheets) != 1 || original.Stylesheets[0] != "/a.css" {
		t.Fatalf("registry descriptor mutated: %#v", original.Stylesheets)
	}
}

func TestRegistryRegisterValidation(t *testing.T) {
	reg := New()
	if err := reg.Register(" ", Descriptor{Renderer: noopRenderer}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := reg.Register("x", Descriptor{}); err == nil {
		t.Fatal("expected error for nil renderer")
	}
}

func TestRegistryAssetsDeduplicates(t *testing.T) {
	reg := New()
	reg.MustRegister("a", Descriptor{
		Renderer:    noopRenderer,
		Stylesheets: []string{"/shared.css", "/a.css"},
		Scripts:     []Script{{Src: "/shared.js"}},
	})
	reg.MustRegister("b", Descriptor{
		Renderer:    noopRenderer,
		Stylesheets: []string{"/shared.css", "/b.css"},
		Scripts:     []Script{{Src: "/shared.js"}, {Src: "/b.js"}},
	})

	styles, scripts := reg.Assets([]string{"a", "b", "missing"})
	if diff := cmp.Diff([]string{"/shared.css", "/a.css", "/b.css"}, styles); diff != "" {
		t.Fatalf("stylesheets mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Script{{Src: "/shared.js"}, {Src: "/b.js"}}, scripts); diff != "" {
		t.Fatalf("scripts mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultRegistryMapPointAssets(t *testing.T) {
	reg := NewDefaultRegistry()

	styles, scripts := reg.Assets([]string{
		MapPointName(options.MapProviderMapbox),
		MapPointName(options.MapProviderLeaflet),
		MapPointName(options.MapProviderMapbox),
	})
	wantStyles := []string{MapboxStylesheet, RuntimeStylesheet, LeafletStylesheet}
	if diff := cmp.Diff(wantStyles, styles); diff != "" {
		t.Fatalf("stylesheets mismatch (-want +got):\n%s", diff)
	}
	var srcs []string
	for _, script := range scripts {
		srcs = append(srcs, script.Src)
	}
	if diff := cmp.Diff([]string{MapboxScript, RuntimeScript, LeafletScript}, srcs); diff != "" {
		t.Fatalf("scripts mismatch (-want +got):\n%s", diff)
	}
}

func TestMapPointName(t *testing.T) {
	if got := MapPointName(""); got != "map-point:mapbox" {
		t.Fatalf("expected default provider, got %q", got)
	}
	if got := MapPointName(options.MapProviderGoogle); got != "map-point:google" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestDefaultRegistryNames(t *testing.T) {
	want := []string{
		"array", "blocks", "collapsible", "group",
		"map-point:google", "map-point:leaflet", "map-point:mapbox",
		"row", "tabs", "text",
	}
	if diff := cmp.Diff(want, NewDefaultRegistry().Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
