package annotator

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint/pkg/keys"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

// ComponentPath is the client component bound to annotated point fields.
const ComponentPath = "mappoint/field"

// ClientPropAPIKey is the clientProps key carrying the public api key.
const ClientPropAPIKey = "apiKey"

// FieldPublicKey returns the apiKey client prop the annotator attached to field,
// or "".
func FieldPublicKey(field schema.Field) string {
	ref := field.FieldComponent()
	if ref == nil || ref.ClientProps == nil {
		return ""
	}
	key, _ := ref.ClientProps[ClientPropAPIKey].(string)
	return strings.TrimSpace(key)
}

// Transformer rewrites a schema config.
type Transformer interface {
	Transform(ctx context.Context, cfg schema.Config) (schema.Config, error)
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, cfg schema.Config) (schema.Config, error)

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, cfg schema.Config) (schema.Config, error) {
	if fn == nil {
		return cfg, nil
	}
	return fn(ctx, cfg)
}

// Option customises an Annotator.
type Option func(*Annotator)

// WithEnv sets the environment fallback keys.
func WithEnv(env options.EnvKeys) Option {
	return func(a *Annotator) {
		a.env = env
	}
}

// WithLookup resolves the environment fallback keys through lookup.
func WithLookup(lookup options.Lookup) Option {
	return func(a *Annotator) {
		a.env = options.EnvFromLookup(lookup)
	}
}

// WithLogger routes configuration warnings to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Annotator) {
		a.logger = logger
	}
}

// WithComponentPath overrides the client component path.
func WithComponentPath(path string) Option {
	return func(a *Annotator) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			a.componentPath = trimmed
		}
	}
}

// Annotator attaches map-point metadata to point fields.
type Annotator struct {
	plugin        *options.MapPointOptions
	env           options.EnvKeys
	logger        zerolog.Logger
	componentPath string

	base      *options.MapPointOptions
	publicKey string
	warnOnce  sync.Once
}

// New constructs an Annotator for the plugin-level options. The options are
// copied; later changes by the caller are not observed.
func New(plugin *options.MapPointOptions, opts ...Option) *Annotator {
	a := &Annotator{
		plugin:        plugin.Clone(),
		logger:        zerolog.Nop(),
		componentPath: ComponentPath,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.base, a.publicKey = a.resolveBase()
	return a
}

// Enabled reports whether the plugin runs at all.
func (a *Annotator) Enabled() bool {
	return a.plugin.IsEnabled()
}

// PublicKey is the key handed to client components ("" when none).
func (a *Annotator) PublicKey() string {
	return a.publicKey
}

// Annotate returns cfg with every point field annotated. A disabled plugin
// returns cfg unchanged.
func (a *Annotator) Annotate(cfg schema.Config) schema.Config {
	if !a.Enabled() {
		return cfg
	}
	a.warnOnce.Do(a.warn)

	out := cfg
	out.Collections = a.annotateCollections(cfg.Collections)
	out.Globals = a.annotateGlobals(cfg.Globals)
	return out
}

// Transform implements Transformer. Cancellation is checked between
// collections.
func (a *Annotator) Transform(ctx context.Context, cfg schema.Config) (schema.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return cfg, err
	}
	if !a.Enabled() {
		return cfg, nil
	}
	a.warnOnce.Do(a.warn)

	out := cfg
	collections := cfg.Collections
	for i, col := range cfg.Collections {
		if err := ctx.Err(); err != nil {
			return cfg, err
		}
		fields, changed := a.annotateFields(col.Fields)
		if !changed {
			continue
		}
		collections = cloneOnce(collections, cfg.Collections)
		collections[i].Fields = fields
	}
	out.Collections = collections
	if err := ctx.Err(); err != nil {
		return cfg, err
	}
	out.Globals = a.annotateGlobals(cfg.Globals)
	return out, nil
}

// AnnotateFields annotates a bare field list.
func (a *Annotator) AnnotateFields(fields []schema.Field) []schema.Field {
	if !a.Enabled() {
		return fields
	}
	out, _ := a.annotateFields(fields)
	return out
}

// AnnotateField annotates a single node.
func (a *Annotator) AnnotateField(field schema.Field) schema.Field {
	if !a.Enabled() {
		return field
	}
	out, _ := a.annotateField(field)
	return out
}

func (a *Annotator) annotateCollections(in []schema.Collection) []schema.Collection {
	out := in
	for i, col := range in {
		fields, changed := a.annotateFields(col.Fields)
		if !changed {
			continue
		}
		out = cloneOnce(out, in)
		out[i].Fields = fields
	}
	return out
}

func (a *Annotator) annotateGlobals(in []schema.Global) []schema.Global {
	out := in
	for i, g := range in {
		fields, changed := a.annotateFields(g.Fields)
		if !changed {
			continue
		}
		out = cloneOnce(out, in)
		out[i].Fields = fields
	}
	return out
}

func (a *Annotator) annotateFields(in []schema.Field) ([]schema.Field, bool) {
	out := in
	changed := false
	for i, field := range in {
		next, ok := a.annotateField(field)
		if !ok {
			continue
		}
		out = cloneOnce(out, in)
		out[i] = next
		changed = true
	}
	return out, changed
}

func (a *Annotator) annotateField(field schema.Field) (schema.Field, bool) {
	if field.IsPoint() {
		return a.annotatePoint(field)
	}

	out := field
	changed := false
	if fields, ok := a.annotateFields(field.Fields); ok {
		out.Fields = fields
		changed = true
	}
	blocks := field.Blocks
	for i, block := range field.Blocks {
		fields, ok := a.annotateFields(block.Fields)
		if !ok {
			continue
		}
		blocks = cloneOnce(blocks, field.Blocks)
		blocks[i].Fields = fields
		changed = true
	}
	out.Blocks = blocks
	tabs := field.Tabs
	for i, tab := range field.Tabs {
		fields, ok := a.annotateFields(tab.Fields)
		if !ok {
			continue
		}
		tabs = cloneOnce(tabs, field.Tabs)
		tabs[i].Fields = fields
		changed = true
	}
	out.Tabs = tabs
	return out, changed
}

func (a *Annotator) annotatePoint(field schema.Field) (schema.Field, bool) {
	var admin schema.Admin
	if field.Admin != nil {
		admin = *field.Admin
	}

	merged := options.Merge(admin.MapPoint, a.base)
	ref := &schema.ComponentRef{
		Path:        a.componentPath,
		ClientProps: map[string]any{ClientPropAPIKey: a.publicKey},
	}
	if field.Admin != nil && reflect.DeepEqual(admin.MapPoint, &merged) && reflect.DeepEqual(field.FieldComponent(), ref) {
		return field, false
	}

	components := &schema.Components{}
	if admin.Components != nil {
		*components = *admin.Components
	}
	components.Field = ref
	admin.Components = components
	admin.MapPoint = &merged

	out := field
	out.Admin = &admin
	return out, true
}

// resolveBase fills the plugin geocoder key from the environment so the
// merge for every field sees the same fallback.
func (a *Annotator) resolveBase() (*options.MapPointOptions, string) {
	base := a.plugin.Clone()
	if base == nil {
		base = &options.MapPointOptions{}
	}
	pluginKey := ""
	if base.Geocoder != nil {
		pluginKey = strings.TrimSpace(base.Geocoder.APIKey)
	}
	envKey := a.env.ForFamily(a.keyFamily())
	public := pluginKey
	if public == "" {
		public = envKey
	}
	if pluginKey == "" && envKey != "" {
		if base.Geocoder == nil {
			base.Geocoder = &options.GeocoderOptions{}
		}
		base.Geocoder.APIKey = envKey
	}
	return base, public
}

// keyFamily picks the provider family whose env key backs the geocoder: the
// geocoder provider when it authenticates, otherwise the map provider.
func (a *Annotator) keyFamily() string {
	if a.plugin != nil && a.plugin.Geocoder != nil && keys.NeedsKey(a.plugin.Geocoder.Provider) {
		return string(a.plugin.Geocoder.Provider)
	}
	return string(a.plugin.MapProviderOrDefault())
}

func (a *Annotator) warn() {
	if a.publicKey == "" {
		a.logger.Warn().
			Str("component", "mappoint").
			Msg("no public api key in plugin options or environment; mapbox maps and geocoding may not work (set geocoder.apiKey or NEXT_PUBLIC_MAPBOX_TOKEN)")
	}
	if a.plugin == nil || a.plugin.Geocoder == nil {
		return
	}
	provider := a.plugin.Geocoder.Provider
	if keys.NeedsKey(provider) && a.publicKey == "" {
		a.logger.Warn().
			Str("component", "mappoint").
			Str("provider", string(provider)).
			Msg("geocoder provider enabled but no api key provided")
	}
}

// cloneOnce copies in the first time a change is recorded so the input slice
// stays untouched.
func cloneOnce[T any](current, in []T) []T {
	if len(current) == 0 || len(in) == 0 || &current[0] != &in[0] {
		return current
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
