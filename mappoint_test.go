package mappoint

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-mappoint/pkg/annotator"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

func venues() schema.Config {
	return schema.Config{Collections: []schema.Collection{{
		Slug: "venues",
		Fields: []schema.Field{
			{Name: "title", Type: schema.KindText},
			{Name: "location", Type: schema.KindPoint, Label: "Location"},
		},
	}}}
}

func TestRuntimeAssetsFSContainsRuntimeBundle(t *testing.T) {
	data, err := fs.ReadFile(RuntimeAssetsFS(), "mappoint.js")
	if err != nil {
		t.Fatalf("expected runtime script to be readable: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty runtime script")
	}
	if _, err := fs.ReadFile(RuntimeAssetsFS(), "mappoint.css"); err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
}

func TestEmbeddedTemplatesContainsPage(t *testing.T) {
	if _, err := fs.Stat(EmbeddedTemplates(), "templates/page.tmpl"); err != nil {
		t.Fatalf("expected page template: %v", err)
	}
}

func TestApplyAnnotatesPointFields(t *testing.T) {
	in := venues()
	plugin := &Options{Map: &options.MapOptions{Provider: options.MapProviderGoogle}}

	out := Apply(in, plugin, EnvKeys{Google: "g-key"})

	location := out.Collections[0].Fields[1]
	ref := location.FieldComponent()
	if ref == nil || ref.Path != annotator.ComponentPath {
		t.Fatalf("expected field component, got %+v", ref)
	}
	if got := ref.ClientProps[annotator.ClientPropAPIKey]; got != "g-key" {
		t.Fatalf("expected google env key, got %v", got)
	}
	if in.Collections[0].Fields[1].Admin != nil {
		t.Fatalf("input config was mutated")
	}
	if out.Collections[0].Fields[0].Admin != nil {
		t.Fatalf("text field should not be annotated")
	}
}

func TestGenerateHTMLRendersMapPointField(t *testing.T) {
	plugin := &Options{Map: &options.MapOptions{Provider: options.MapProviderLeaflet}}
	html, err := GenerateHTML(context.Background(), venues(), "venues", plugin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "data-mappoint-value") {
		t.Fatalf("expected map point markup, got %s", out)
	}
	if !strings.Contains(out, `name="location"`) {
		t.Fatalf("expected location input, got %s", out)
	}
}
