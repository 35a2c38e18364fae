// Package mappoint adds a geographic point picker to schema-driven admin
// forms. The root package re-exports the common entry points; the building
// blocks live under pkg/.
package mappoint

import (
	"context"

	"github.com/goliatone/go-mappoint/pkg/annotator"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/orchestrator"
	"github.com/goliatone/go-mappoint/pkg/render"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

// Options is the plugin-level configuration bag.
type Options = options.MapPointOptions

// EnvKeys carries the environment fallback keys.
type EnvKeys = options.EnvKeys

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// Form identifies the collection form being rendered.
type Form = render.Form

// Apply annotates every point field in cfg with the merged plugin options and
// the admin field component. cfg is not modified.
func Apply(cfg schema.Config, plugin *Options, env EnvKeys) schema.Config {
	return annotator.New(plugin, annotator.WithEnv(env)).Annotate(cfg)
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(opts ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(opts...)
}

// WithPlugin registers the annotator for plugin as a schema transformer.
func WithPlugin(plugin *Options, env EnvKeys) orchestrator.Option {
	return orchestrator.WithSchemaTransformer(annotator.New(plugin, annotator.WithEnv(env)))
}

// GenerateHTML annotates cfg, reading fallback keys from the process
// environment, and renders the named collection with the vanilla renderer.
func GenerateHTML(ctx context.Context, cfg schema.Config, collection string, plugin *Options, opts ...orchestrator.Option) ([]byte, error) {
	all := append([]orchestrator.Option{WithPlugin(plugin, options.EnvFromLookup(options.OSLookup()))}, opts...)
	return orchestrator.New(all...).Generate(ctx, orchestrator.Request{
		Config:     &cfg,
		Collection: collection,
	})
}
