package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint/pkg/render"
	"github.com/goliatone/go-mappoint/pkg/renderers/vanilla"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

const defaultRendererName = "vanilla"

// ErrCollectionNotFound is returned when a request names an unknown slug.
var ErrCollectionNotFound = errors.New("orchestrator: collection not found")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer appends a Transformer to the pipeline.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// WithSchemaFS supplies the filesystem Request.Source paths are read from.
func WithSchemaFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.schemaFS = fsys
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator coordinates loading a schema, running transformers and
// rendering one collection. Without a registry the vanilla renderer with its
// embedded templates is used.
type Orchestrator struct {
	registry        *render.Registry
	defaultRenderer string
	transformers    []Transformer
	schemaFS        fs.FS
	logger          zerolog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one render.
type Request struct {
	// Source is a schema document path inside the configured schema FS.
	// Optional when Config is supplied.
	Source string

	// Config bypasses loading. It is still passed through the transformers
	// unless Prepared is set.
	Config *schema.Config

	// Prepared marks Config as already transformed, as returned by Prepare.
	Prepared bool

	// Collection is the slug of the collection or global to render.
	Collection string

	// Title is shown by renderers; it defaults to the slug.
	Title string

	// Action is the form submit URL for HTML renderers.
	Action string

	// Renderer names the renderer to use. Empty selects the default.
	Renderer string

	RenderOptions render.RenderOptions
}

// Prepare runs every transformer over cfg. Callers that render many requests
// from one schema call it once at boot and pass Prepared requests.
func (o *Orchestrator) Prepare(ctx context.Context, cfg schema.Config) (schema.Config, error) {
	if ctx == nil {
		return schema.Config{}, errors.New("orchestrator: context is required")
	}
	for _, transformer := range o.transformers {
		if err := ctx.Err(); err != nil {
			return schema.Config{}, err
		}
		next, err := transformer.Transform(ctx, cfg)
		if err != nil {
			return schema.Config{}, fmt.Errorf("orchestrator: transform schema: %w", err)
		}
		cfg = next
	}
	return cfg, nil
}

// Generate executes the load → transform → render sequence and returns the
// rendered bytes (HTML for the default vanilla renderer).
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(req.Collection)
	if slug == "" {
		return nil, errors.New("orchestrator: collection slug is required")
	}

	cfg, err := o.resolveConfig(req)
	if err != nil {
		return nil, err
	}
	if !req.Prepared || req.Config == nil {
		if cfg, err = o.Prepare(ctx, cfg); err != nil {
			return nil, err
		}
	}

	collection, ok := findCollection(cfg, slug)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCollectionNotFound, slug)
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = slug
	}
	output, err := renderer.Render(ctx, render.Form{
		Title:      title,
		Action:     req.Action,
		Collection: collection,
	}, req.RenderOptions)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	o.logger.Debug().Str("collection", slug).Str("renderer", renderer.Name()).Int("bytes", len(output)).Msg("rendered collection")
	return output, nil
}

func (o *Orchestrator) resolveConfig(req Request) (schema.Config, error) {
	if req.Config != nil {
		return *req.Config, nil
	}
	if strings.TrimSpace(req.Source) == "" {
		return schema.Config{}, errors.New("orchestrator: source or config is required")
	}
	if o.schemaFS == nil {
		return schema.Config{}, errors.New("orchestrator: schema filesystem is nil")
	}
	cfg, err := schema.LoadFS(o.schemaFS, req.Source)
	if err != nil {
		return schema.Config{}, fmt.Errorf("orchestrator: load schema: %w", err)
	}
	return cfg, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	renderer, err := o.registry.Get("")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: no renderers registered: %w", err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.registry != nil {
		return
	}
	o.registry = render.NewRegistry()
	renderer, err := vanilla.New(vanilla.WithLogger(o.logger))
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		return
	}
	o.registry.MustRegister(renderer)
}

func findCollection(cfg schema.Config, slug string) (schema.Collection, bool) {
	if collection, ok := cfg.Collection(slug); ok {
		return collection, true
	}
	for _, global := range cfg.Globals {
		if global.Slug == slug {
			return schema.Collection{Slug: global.Slug, Fields: global.Fields, Extra: global.Extra}, true
		}
	}
	return schema.Collection{}, false
}
