package geocode

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	geocoder "github.com/goliatone/go-mappoint/pkg/geocode"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

const (
	defaultRoutePath     = "/api/geocode"
	defaultQueryParam    = "q"
	defaultProviderParam = "provider"
	defaultFieldParam    = "field"
)

// GuardFunc authorises a request before any lookup. A returned HTTPError sets
// the response status; other errors answer 403.
type GuardFunc func(r *http.Request) error

// Resolver performs lookups. *geocode.Client from pkg/geocode satisfies it.
type Resolver interface {
	Lookup(ctx context.Context, req geocoder.Request) (point.Point, error)
}

// FieldSettings is the merged map-point configuration of one field.
type FieldSettings struct {
	Options *options.MapPointOptions
	// Fallback is the public key the annotator handed to the client component.
	Fallback string
}

// FieldLookup resolves the field identifier sent by the browser runtime,
// "<collection>.<field path>", to the field's settings.
type FieldLookup func(id string) (FieldSettings, bool)

// Options configures the endpoint.
type Options struct {
	RoutePath     string
	QueryParam    string
	ProviderParam string
	FieldParam    string
	Guard         GuardFunc

	// Fields resolves field level keys. Without it only Plugin and Env apply.
	Fields FieldLookup

	// Plugin supplies the geocoder and map settings used to pick the default
	// provider and resolve keys.
	Plugin *options.MapPointOptions
	Env    options.EnvKeys

	// Resolver defaults to a pkg/geocode client built per handler.
	Resolver Resolver
	Logger   zerolog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:     defaultRoutePath,
		QueryParam:    defaultQueryParam,
		ProviderParam: defaultProviderParam,
		FieldParam:    defaultFieldParam,
		Logger:        zerolog.Nop(),
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaultRoutePath
	}
	if opts.QueryParam == "" {
		opts.QueryParam = defaultQueryParam
	}
	if opts.ProviderParam == "" {
		opts.ProviderParam = defaultProviderParam
	}
	if opts.FieldParam == "" {
		opts.FieldParam = defaultFieldParam
	}
	if opts.Plugin != nil {
		opts.Plugin = opts.Plugin.Clone()
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithQueryParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.QueryParam = name
	}
}

func WithProviderParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ProviderParam = name
	}
}

func WithFieldParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.FieldParam = name
	}
}

// WithFieldLookup lets requests naming a field use that field's keys ahead of
// the plugin and environment keys.
func WithFieldLookup(lookup FieldLookup) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Fields = lookup
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithPlugin sets the plugin options keys and default providers come from.
func WithPlugin(plugin *options.MapPointOptions) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Plugin = plugin
	}
}

// WithEnv sets the environment fallback keys.
func WithEnv(env options.EnvKeys) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Env = env
	}
}

func WithResolver(resolver Resolver) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Resolver = resolver
	}
}

func WithLogger(logger zerolog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}
