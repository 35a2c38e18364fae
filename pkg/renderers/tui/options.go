package tui

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint/pkg/maps"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/widget"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits the field paths DecodeSubmission reads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme carries message prefixes applied by the renderer.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// SubmitTransformer mutates collected values before serialization.
type SubmitTransformer func(map[string]any) (map[string]any, error)

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithGeocoder enables the search action on point fields whose geocoder is
// configured. Without one the renderer only accepts typed coordinates.
func WithGeocoder(geocoder widget.Geocoder) Option {
	return func(r *Renderer) {
		r.geocoder = geocoder
	}
}

// WithEnv supplies the fallback keys used to resolve map and geocoder keys.
func WithEnv(env options.EnvKeys) Option {
	return func(r *Renderer) {
		r.env = env
	}
}

// WithMapOptions passes options to the map adapters mounted per point field.
func WithMapOptions(opts ...maps.Option) Option {
	return func(r *Renderer) {
		r.mapOpts = append(r.mapOpts, opts...)
	}
}

// WithSubmitTransformer allows callers to mutate collected values prior to
// serialization.
func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(r *Renderer) {
		r.submitTransformer = fn
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}
