package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goliatone/go-mappoint/pkg/logging"
	"github.com/goliatone/go-mappoint/pkg/options"
)

func main() {
	addr := flag.String("addr", envOr("HTTP_ADDR", ":8080"), "listen address")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "log level")
	schemaPath := flag.String("schema", envOr("MAPPOINT_SCHEMA", "schema.yaml"), "schema document (YAML or JSON)")
	pluginPath := flag.String("plugin", envOr("MAPPOINT_PLUGIN", ""), "plugin options document (YAML or JSON)")
	presetPath := flag.String("presets", envOr("MAPPOINT_PRESETS", ""), "field preset document (YAML or JSON)")
	themeManifest := flag.String("theme-manifest", envOr("MAPPOINT_THEME_MANIFEST", ""), "go-theme manifest (YAML or JSON) registered next to the built-in theme")
	themeName := flag.String("theme", envOr("MAPPOINT_THEME", ""), "theme name (defaults to the manifest theme, else the built-in one)")
	variant := flag.String("variant", envOr("MAPPOINT_VARIANT", "light"), "theme variant: light or dark")
	upstream := flag.String("upstream", envOr("MAPPOINT_UPSTREAM", ""), "base URL accepted documents are posted to as <upstream>/<slug>")
	envFiles := flag.String("env-file", envOr("MAPPOINT_ENV_FILE", ".env.local,.env"), "comma separated .env files consulted after the process environment")
	flag.Parse()

	logger := logging.New(*logLevel, os.Stdout)

	dotenv, err := options.DotEnvLookup(splitList(*envFiles)...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read env files")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, config{
		SchemaPath:   *schemaPath,
		PluginPath:   *pluginPath,
		PresetPath:   *presetPath,
		ThemePath:    *themeManifest,
		ThemeName:    *themeName,
		ThemeVariant: *variant,
		Upstream:     *upstream,
		Env:          options.EnvFromLookup(options.ChainLookup(options.OSLookup(), dotenv)),
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure server")
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("mappoint-server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
