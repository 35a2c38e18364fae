package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	theme "github.com/goliatone/go-theme"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint"
	geocodecomp "github.com/goliatone/go-mappoint/components/geocode"
	"github.com/goliatone/go-mappoint/pkg/annotator"
	"github.com/goliatone/go-mappoint/pkg/geocode"
	"github.com/goliatone/go-mappoint/pkg/metrics"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/orchestrator"
	"github.com/goliatone/go-mappoint/pkg/render"
	"github.com/goliatone/go-mappoint/pkg/renderers/vanilla"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

const (
	assetsPrefix      = "/assets"
	collectionsPrefix = "/collections/"
	requestTimeout    = 15 * time.Second
	invalidFormNotice = "Please correct the highlighted fields."
)

type config struct {
	SchemaPath string
	PluginPath string
	PresetPath string
	// ThemePath optionally names a go-theme manifest registered next to the
	// built-in theme.
	ThemePath    string
	ThemeName    string
	ThemeVariant string
	// Upstream, when set, receives accepted documents as JSON before they
	// are stored.
	Upstream   string
	HTTPClient *http.Client

	// Schema and Plugin bypass the document paths when set.
	Schema *schema.Config
	Plugin *options.MapPointOptions

	Env      options.EnvKeys
	Resolver geocodecomp.Resolver
	Logger   zerolog.Logger
}

type server struct {
	log          zerolog.Logger
	metrics      *metrics.Metrics
	orchestrator *orchestrator.Orchestrator
	schema       schema.Config
	fields       map[string]geocodecomp.FieldSettings
	store        *documentStore
	upstream     documentSink
	router       http.Handler
}

func newServer(ctx context.Context, cfg config) (*server, error) {
	plugin, err := loadPlugin(cfg)
	if err != nil {
		return nil, err
	}
	raw, err := loadSchema(cfg)
	if err != nil {
		return nil, err
	}

	themeCfg, err := loadTheme(cfg)
	if err != nil {
		return nil, err
	}

	s := &server{
		log:     cfg.Logger,
		metrics: metrics.New(),
		store:   newDocumentStore(),
	}
	if strings.TrimSpace(cfg.Upstream) != "" {
		sink, err := newUpstreamSink(cfg.Upstream, cfg.HTTPClient)
		if err != nil {
			return nil, err
		}
		s.upstream = sink
	}

	resolver := cfg.Resolver
	if resolver == nil {
		resolver = geocode.New(
			geocode.WithLogger(cfg.Logger),
			geocode.WithRecorder(s.metrics),
		)
	}
	component := geocodecomp.New(
		geocodecomp.WithPlugin(plugin),
		geocodecomp.WithEnv(cfg.Env),
		geocodecomp.WithResolver(resolver),
		geocodecomp.WithFieldLookup(s.lookupField),
		geocodecomp.WithLogger(cfg.Logger),
	)
	endpoint := component.EndpointConfig("/")

	renderer, err := vanilla.New(
		vanilla.WithLogger(cfg.Logger),
		vanilla.WithEnv(cfg.Env),
		vanilla.WithEndpoint(endpoint.URL),
		vanilla.WithAssetPrefix(assetsPrefix),
		vanilla.WithTheme(themeCfg),
	)
	if err != nil {
		return nil, fmt.Errorf("server: vanilla renderer: %w", err)
	}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	opts := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithLogger(cfg.Logger),
	}
	if strings.TrimSpace(cfg.PresetPath) != "" {
		dir, name := splitPath(cfg.PresetPath)
		preset, err := orchestrator.NewPresetTransformerFromFS(os.DirFS(dir), name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, orchestrator.WithSchemaTransformer(preset))
	}
	opts = append(opts, orchestrator.WithSchemaTransformer(
		annotator.New(plugin, annotator.WithEnv(cfg.Env), annotator.WithLogger(cfg.Logger)),
	))
	s.orchestrator = orchestrator.New(opts...)

	if s.schema, err = s.orchestrator.Prepare(ctx, raw); err != nil {
		return nil, err
	}
	s.fields = indexPointFields(s.schema)
	s.metrics.SetAnnotatedFields(len(s.fields))
	s.log.Info().
		Int("collections", len(s.schema.Collections)).
		Int("point_fields", len(s.fields)).
		Str("theme", themeCfg.Theme).
		Str("variant", themeCfg.Variant).
		Msg("schema prepared")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", s.metrics.Handler())
	r.Handle(assetsPrefix+"/*", http.StripPrefix(assetsPrefix+"/", http.FileServerFS(mappoint.RuntimeAssetsFS())))
	if _, err := component.RegisterRoutes(r, "/"); err != nil {
		return nil, err
	}
	r.Route(strings.TrimSuffix(collectionsPrefix, "/"), func(r chi.Router) {
		r.Get("/{slug}", s.handleForm)
		r.Post("/{slug}", s.handleSubmit)
	})
	s.router = r
	return s, nil
}

// Router returns the HTTP handler serving every route.
func (s *server) Router() http.Handler {
	return s.router
}

func (s *server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		s.metrics.ObserveHTTPRequest(r.Method, route, status, duration)
		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("http_request")
	})
}

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *server) handleForm(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	s.renderForm(w, r, http.StatusOK, slug, render.RenderOptions{Values: s.store.Get(slug)})
}

func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	collection, ok := findCollection(s.schema, slug)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	values, errs := render.DecodeSubmission(collection, r.PostForm)
	wantsJSON := strings.Contains(r.Header.Get("Accept"), "application/json")
	if len(errs) > 0 {
		s.rejectSubmission(w, r, slug, wantsJSON, values, render.ErrorMapping{Fields: errs})
		return
	}

	if s.upstream != nil {
		if err := s.upstream.Save(r.Context(), slug, values); err != nil {
			var rejected *rejection
			if !errors.As(err, &rejected) {
				s.log.Error().Err(err).Str("collection", slug).Msg("upstream save failed")
				http.Error(w, "upstream unavailable", http.StatusBadGateway)
				return
			}
			s.log.Debug().Int("status", rejected.Status).Str("collection", slug).Msg("upstream rejected document")
			s.rejectSubmission(w, r, slug, wantsJSON, values, render.MapErrorPayload(collection, rejected.Errors))
			return
		}
	}

	s.store.Put(slug, values)
	s.log.Debug().Str("collection", slug).Msg("document stored")
	if wantsJSON {
		s.writeJSON(w, http.StatusOK, map[string]any{"data": values})
		return
	}
	http.Redirect(w, r, collectionsPrefix+slug, http.StatusSeeOther)
}

// rejectSubmission answers 422 with the submitted values and mapped errors,
// as JSON or as the re-rendered form.
func (s *server) rejectSubmission(w http.ResponseWriter, r *http.Request, slug string, wantsJSON bool, values map[string]any, mapping render.ErrorMapping) {
	if wantsJSON {
		payload := map[string]any{"errors": mapping.Fields}
		if len(mapping.Form) > 0 {
			payload["formErrors"] = mapping.Form
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, payload)
		return
	}
	s.renderForm(w, r, http.StatusUnprocessableEntity, slug, render.RenderOptions{
		Values:     values,
		Errors:     mapping.Fields,
		FormErrors: render.MergeFormErrors(mapping.Form, invalidFormNotice),
	})
}

// lookupField resolves geocode requests naming a map-point field.
func (s *server) lookupField(id string) (geocodecomp.FieldSettings, bool) {
	settings, ok := s.fields[id]
	return settings, ok
}

func (s *server) renderForm(w http.ResponseWriter, r *http.Request, status int, slug string, opts render.RenderOptions) {
	out, err := s.orchestrator.Generate(r.Context(), orchestrator.Request{
		Config:        &s.schema,
		Prepared:      true,
		Collection:    slug,
		Action:        collectionsPrefix + slug,
		RenderOptions: opts,
	})
	if errors.Is(err, orchestrator.ErrCollectionNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("collection", slug).Msg("render form failed")
		http.Error(w, "failed to render form", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func loadPlugin(cfg config) (*options.MapPointOptions, error) {
	if cfg.Plugin != nil {
		return cfg.Plugin.Clone(), cfg.Plugin.Validate()
	}
	if strings.TrimSpace(cfg.PluginPath) == "" {
		return &options.MapPointOptions{}, nil
	}
	dir, name := splitPath(cfg.PluginPath)
	plugin, err := options.LoadFile(os.DirFS(dir), name)
	if err != nil {
		return nil, err
	}
	return &plugin, nil
}

func loadSchema(cfg config) (schema.Config, error) {
	if cfg.Schema != nil {
		return *cfg.Schema, nil
	}
	if strings.TrimSpace(cfg.SchemaPath) == "" {
		return schema.Config{}, errors.New("server: schema path is required")
	}
	dir, name := splitPath(cfg.SchemaPath)
	return schema.LoadFS(os.DirFS(dir), name)
}

func loadTheme(cfg config) (*theme.RendererConfig, error) {
	if strings.TrimSpace(cfg.ThemePath) == "" {
		return vanilla.LoadTheme(nil, "", cfg.ThemeName, cfg.ThemeVariant)
	}
	dir, name := splitPath(cfg.ThemePath)
	return vanilla.LoadTheme(os.DirFS(dir), name, cfg.ThemeName, cfg.ThemeVariant)
}

func splitPath(path string) (string, string) {
	return filepath.Dir(path), filepath.Base(path)
}

func findCollection(cfg schema.Config, slug string) (schema.Collection, bool) {
	if collection, ok := cfg.Collection(slug); ok {
		return collection, true
	}
	for _, global := range cfg.Globals {
		if global.Slug == slug {
			return schema.Collection{Slug: global.Slug, Fields: global.Fields}, true
		}
	}
	return schema.Collection{}, false
}

// indexPointFields maps the field id of every annotated point field to its
// merged options and public key.
func indexPointFields(cfg schema.Config) map[string]geocodecomp.FieldSettings {
	index := make(map[string]geocodecomp.FieldSettings)
	add := func(slug string, fields []schema.Field) {
		schema.Walk(fields, func(path string, field schema.Field) {
			if !field.IsPoint() || field.MapPoint() == nil {
				return
			}
			index[schema.FieldID(slug, path)] = geocodecomp.FieldSettings{
				Options:  field.MapPoint(),
				Fallback: annotator.FieldPublicKey(field),
			}
		})
	}
	for _, collection := range cfg.Collections {
		add(collection.Slug, collection.Fields)
	}
	for _, global := range cfg.Globals {
		add(global.Slug, global.Fields)
	}
	return index
}
