package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint/pkg/maps"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/render"
	rendertemplate "github.com/goliatone/go-mappoint/pkg/render/template"
	gotemplate "github.com/goliatone/go-mappoint/pkg/render/template/gotemplate"
	"github.com/goliatone/go-mappoint/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-mappoint/pkg/widgets"
)

// DefaultAssetPrefix is where the embedded runtime assets are served.
const DefaultAssetPrefix = "/assets"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *components.Registry
	widgets          *widgets.Registry
	theme            *theme.RendererConfig
	env              options.EnvKeys
	endpoint         string
	assetPrefix      string
	policy           *bluemonday.Policy
	classes          ChromeClasses
	logger           zerolog.Logger
	mapOptions       []maps.Option
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the default component registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithWidgetRegistry replaces the default widget registry.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.widgets = registry
		}
	}
}

// WithTheme applies a go-theme renderer configuration. A "dark" variant
// selects the dark map style.
func WithTheme(themeCfg *theme.RendererConfig) Option {
	return func(cfg *config) {
		cfg.theme = themeCfg
	}
}

// WithEnv sets the fallback keys used when a field has none.
func WithEnv(env options.EnvKeys) Option {
	return func(cfg *config) {
		cfg.env = env
	}
}

// WithEndpoint sets the geocode endpoint URL used by the search bar.
func WithEndpoint(url string) Option {
	return func(cfg *config) {
		cfg.endpoint = strings.TrimSpace(url)
	}
}

// WithAssetPrefix sets the URL prefix of the embedded runtime assets when no
// theme AssetURL is configured.
func WithAssetPrefix(prefix string) Option {
	return func(cfg *config) {
		cfg.assetPrefix = strings.TrimSpace(prefix)
	}
}

// WithPolicy replaces the bluemonday policy applied to labels and titles.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithChromeClasses overrides page chrome classes.
func WithChromeClasses(classes ChromeClasses) Option {
	return func(cfg *config) {
		cfg.classes = classes
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithMapOptions passes options to the map adapters built while rendering.
func WithMapOptions(opts ...maps.Option) Option {
	return func(cfg *config) {
		cfg.mapOptions = append(cfg.mapOptions, opts...)
	}
}

// Renderer renders collection forms as HTML pages.
type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	registry    *components.Registry
	widgets     *widgets.Registry
	theme       *theme.RendererConfig
	env         options.EnvKeys
	endpoint    string
	assetPrefix string
	policy      *bluemonday.Policy
	classes     map[string]string
	logger      zerolog.Logger
	mapOptions  []maps.Option
}

// New constructs the vanilla renderer applying any provided options.
func New(opts ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:  TemplatesFS(),
		assetPrefix: DefaultAssetPrefix,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.registry == nil {
		cfg.registry = components.NewDefaultRegistry()
	}
	if cfg.widgets == nil {
		cfg.widgets = widgets.NewRegistry()
	}
	if cfg.policy == nil {
		cfg.policy = bluemonday.StrictPolicy()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:   renderer,
		registry:    cfg.registry,
		widgets:     cfg.widgets,
		theme:       cfg.theme,
		env:         cfg.env,
		endpoint:    cfg.endpoint,
		assetPrefix: cfg.assetPrefix,
		policy:      cfg.policy,
		classes:     cfg.classes.resolve(),
		logger:      cfg.logger,
		mapOptions:  cfg.mapOptions,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

var _ render.Renderer = (*Renderer)(nil)

// Result is a rendered page plus the number of map-point fields it holds.
type Result struct {
	HTML   []byte
	Points int
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, form render.Form, opts render.RenderOptions) ([]byte, error) {
	result, err := r.RenderPage(ctx, form, opts)
	if err != nil {
		return nil, err
	}
	return result.HTML, nil
}

// RenderPage renders form as a complete HTML document.
func (r *Renderer) RenderPage(ctx context.Context, form render.Form, opts render.RenderOptions) (Result, error) {
	if r.templates == nil {
		return Result{}, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	fields := newComponentRenderer(r, form.Collection.Slug, opts.Errors)
	values := opts.Values
	if values == nil {
		values = map[string]any{}
	}
	body, err := fields.renderFields("", form.Collection.Fields, values)
	if err != nil {
		return Result{}, fmt.Errorf("vanilla renderer: render fields: %w", err)
	}

	stylesheets, scripts := fields.assets()
	title := strings.TrimSpace(form.Title)
	if title == "" {
		title = form.Collection.Slug
	}

	hidden := make([]map[string]any, 0, len(opts.Hidden))
	for _, field := range render.SortedHiddenFields(opts.Hidden) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	payload := map[string]any{
		"title":       r.policy.Sanitize(title),
		"slug":        form.Collection.Slug,
		"action":      form.Action,
		"body":        body,
		"errors":      render.MergeFormErrors(opts.FormErrors),
		"hidden":      hidden,
		"classes":     r.classes,
		"stylesheets": r.resolveAssets(stylesheets),
		"scripts":     r.scriptViews(scripts),
		"theme":       r.themeView(),
	}
	result, err := r.templates.RenderTemplate(r.partial("mappoint.page", "templates/page.tmpl"), payload)
	if err != nil {
		return Result{}, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return Result{HTML: []byte(result), Points: fields.points}, nil
}

func (r *Renderer) sanitize(s string) string {
	return r.policy.Sanitize(s)
}

func (r *Renderer) mapPointContext(collection string) *components.MapPointContext {
	return &components.MapPointContext{
		Env:        r.env,
		Endpoint:   r.endpoint,
		Collection: collection,
		Theme:      MapTheme(r.theme),
		Logger:     r.logger,
		MapOptions: r.mapOptions,
	}
}

func (r *Renderer) partial(key, fallback string) string {
	if r.theme != nil {
		if candidate := strings.TrimSpace(r.theme.Partials[key]); candidate != "" {
			return candidate
		}
	}
	return fallback
}

// ThemeStylesheetKey is the theme asset key of an optional page stylesheet.
const ThemeStylesheetKey = "mappoint.stylesheet"

// assetURL resolves an asset name through the theme, then the asset prefix.
// Absolute references pass through.
func (r *Renderer) assetURL(ref string) string {
	if isAbsoluteAsset(ref) {
		return ref
	}
	if resolved := r.themeAsset(ref); resolved != "" {
		return resolved
	}
	return strings.TrimRight(r.assetPrefix, "/") + "/" + ref
}

func (r *Renderer) themeAsset(key string) string {
	if r.theme == nil || r.theme.AssetURL == nil {
		return ""
	}
	return r.theme.AssetURL(key)
}

func (r *Renderer) resolveAssets(refs []string) []string {
	out := make([]string, 0, len(refs)+1)
	for _, ref := range refs {
		out = append(out, r.assetURL(ref))
	}
	if sheet := r.themeAsset(ThemeStylesheetKey); sheet != "" {
		out = append(out, sheet)
	}
	return out
}

func (r *Renderer) scriptViews(scripts []components.Script) []map[string]any {
	out := make([]map[string]any, 0, len(scripts))
	for _, script := range scripts {
		view := map[string]any{
			"type":   script.Type,
			"inline": script.Inline,
			"async":  script.Async,
			"defer":  script.Defer,
			"module": script.Module,
		}
		if script.Src != "" {
			view["src"] = r.assetURL(script.Src)
		}
		out = append(out, view)
	}
	return out
}

func (r *Renderer) themeView() map[string]any {
	if r.theme == nil {
		return map[string]any{"variant": string(maps.ThemeLight)}
	}
	variant := r.theme.Variant
	if variant == "" {
		variant = string(maps.ThemeLight)
	}
	return map[string]any{
		"name":    r.theme.Theme,
		"variant": variant,
		"style":   cssVarsStyle(r.theme.CSSVars),
	}
}
