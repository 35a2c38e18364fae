package render_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mappoint/pkg/render"
)

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, render.Form, render.RenderOptions) ([]byte, error) {
	return []byte(n), nil
}

func TestRegistry(t *testing.T) {
	reg := render.NewRegistry()
	reg.MustRegister(namedRenderer("vanilla"))
	reg.MustRegister(namedRenderer("tui"))

	if err := reg.Register(namedRenderer("vanilla")); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatal("expected nil renderer error")
	}

	def, err := reg.Get("")
	if err != nil || def.Name() != "vanilla" {
		t.Fatalf("expected first renderer as default, got %v, %v", def, err)
	}
	if _, err := reg.Get("preact"); err == nil {
		t.Fatal("expected missing renderer error")
	}
	if !reg.Has("tui") {
		t.Fatal("expected tui renderer")
	}
	if diff := cmp.Diff([]string{"tui", "vanilla"}, reg.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
