package orchestrator

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mappoint/pkg/annotator"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

func presetConfig() schema.Config {
	return schema.Config{
		Collections: []schema.Collection{{
			Slug: "venues",
			Fields: []schema.Field{
				{Name: "title", Type: schema.KindText},
				{Name: "location", Type: schema.KindPoint, Admin: &schema.Admin{
					MapPoint: &options.MapPointOptions{DefaultZoom: options.Float(4)},
				}},
				{Name: "layout", Type: schema.KindBlocks, Blocks: []schema.Block{{
					Slug:   "pin",
					Fields: []schema.Field{{Name: "spot", Type: schema.KindPoint}},
				}}},
				{Name: "content", Type: schema.KindTabs, Tabs: []schema.Tab{
					{Name: "geo", Fields: []schema.Field{{Name: "origin", Type: schema.KindPoint}}},
					{Label: "Unnamed", Fields: []schema.Field{{Name: "notes", Type: schema.KindText}}},
				}},
			},
		}},
		Globals: []schema.Global{{
			Slug:   "settings",
			Fields: []schema.Field{{Name: "hq", Type: schema.KindPoint}},
		}},
	}
}

const presetYAML = `
fields:
  venues.title:
    label: Venue name
    required: true
  venues.location:
    readOnly: true
    mapPoint:
      map: {provider: leaflet}
  venues.layout.pin.spot:
    label: Spot
  venues.content.geo.origin:
    required: true
  venues.content.notes:
    label: Notes
  settings.hq:
    mapPoint:
      geocoder: {provider: nominatim}
`

func TestPresetTransformer_PatchesNestedFields(t *testing.T) {
	preset, err := NewPresetTransformer([]byte(presetYAML))
	if err != nil {
		t.Fatalf("new preset: %v", err)
	}
	in := presetConfig()
	out, err := preset.Transform(context.Background(), in)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	fields := out.Collections[0].Fields
	if fields[0].Label != "Venue name" || !fields[0].Required {
		t.Fatalf("title not patched: %+v", fields[0])
	}
	location := fields[1]
	if !location.Admin.ReadOnly {
		t.Fatalf("expected read only location")
	}
	if got := location.MapPoint().MapProviderOrDefault(); got != options.MapProviderLeaflet {
		t.Fatalf("expected leaflet, got %s", got)
	}
	if got := location.MapPoint().Zoom(); got != 4 {
		t.Fatalf("expected existing zoom to survive, got %v", got)
	}
	if got := fields[2].Blocks[0].Fields[0].Label; got != "Spot" {
		t.Fatalf("block field label = %q", got)
	}
	if !fields[3].Tabs[0].Fields[0].Required {
		t.Fatalf("named tab field not patched")
	}
	if got := fields[3].Tabs[1].Fields[0].Label; got != "Notes" {
		t.Fatalf("unnamed tab field label = %q", got)
	}
	hq := out.Globals[0].Fields[0]
	if hq.MapPoint() == nil || hq.MapPoint().Geocoder.Provider != options.GeocoderNominatim {
		t.Fatalf("global not patched: %+v", hq.Admin)
	}

	if diff := cmp.Diff(presetConfig(), in); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
}

func TestPresetTransformer_UnmatchedPatchErrors(t *testing.T) {
	preset, err := NewPresetTransformer([]byte("fields:\n  venues.missing:\n    label: X\n  venues.title:\n    label: Y\n"))
	if err != nil {
		t.Fatalf("new preset: %v", err)
	}
	_, err = preset.Transform(context.Background(), presetConfig())
	if err == nil || !strings.Contains(err.Error(), "venues.missing") {
		t.Fatalf("expected unmatched path error, got %v", err)
	}
}

func TestPresetTransformer_RejectsInvalidDocuments(t *testing.T) {
	tests := map[string]string{
		"empty":            "  ",
		"malformed":        "fields: [",
		"unknown provider": "fields:\n  venues.location:\n    mapPoint:\n      map: {provider: bing}\n",
		"blank path":       "fields:\n  \" \":\n    label: X\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewPresetTransformer([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPresetTransformer_FromFSAcceptsJSON(t *testing.T) {
	fsys := fstest.MapFS{
		"presets/venues.json": {Data: []byte(`{"fields":{"venues.title":{"label":"Name"}}}`)},
	}
	preset, err := NewPresetTransformerFromFS(fsys, "presets/venues.json")
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}
	out, err := preset.Transform(context.Background(), presetConfig())
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out.Collections[0].Fields[0].Label != "Name" {
		t.Fatalf("label not applied")
	}

	if _, err := NewPresetTransformerFromFS(fsys, "missing.yaml"); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := NewPresetTransformerFromFS(nil, "x.yaml"); err == nil {
		t.Fatalf("expected nil fs error")
	}
}

func TestPresetThenAnnotatorPipeline(t *testing.T) {
	preset, err := NewPresetTransformer([]byte("fields:\n  venues.location:\n    mapPoint:\n      geocoder: {placeholder: Find a venue}\n"))
	if err != nil {
		t.Fatalf("new preset: %v", err)
	}
	plugin := &options.MapPointOptions{
		Map:      &options.MapOptions{Provider: options.MapProviderMapbox, APIKey: "pk.plugin"},
		Geocoder: &options.GeocoderOptions{Provider: options.GeocoderMapbox},
	}
	o := New(WithSchemaTransformer(preset), WithSchemaTransformer(annotator.New(plugin)))

	out, err := o.Prepare(context.Background(), presetConfig())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	mp := out.Collections[0].Fields[1].MapPoint()
	if mp.Placeholder() != "Find a venue" {
		t.Fatalf("preset placeholder lost: %q", mp.Placeholder())
	}
	if mp.Map == nil || mp.Map.APIKey != "pk.plugin" {
		t.Fatalf("plugin key not merged: %+v", mp.Map)
	}
	if mp.Zoom() != 4 {
		t.Fatalf("field zoom lost: %v", mp.Zoom())
	}
}

func TestPresetTransformer_CancelledContext(t *testing.T) {
	preset, err := NewPresetTransformer([]byte("fields:\n  venues.title:\n    label: X\n"))
	if err != nil {
		t.Fatalf("new preset: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := preset.Transform(ctx, presetConfig()); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
