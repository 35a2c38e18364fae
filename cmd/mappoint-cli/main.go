package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint"
	"github.com/goliatone/go-mappoint/pkg/annotator"
	"github.com/goliatone/go-mappoint/pkg/geocode"
	"github.com/goliatone/go-mappoint/pkg/logging"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/orchestrator"
	"github.com/goliatone/go-mappoint/pkg/point"
	"github.com/goliatone/go-mappoint/pkg/render"
	"github.com/goliatone/go-mappoint/pkg/renderers/tui"
	"github.com/goliatone/go-mappoint/pkg/renderers/vanilla"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

const usage = `Usage: %s <command> [flags]

Commands:
  annotate  write the schema with map-point metadata on every point field
  render    render one collection as an HTML form
  geocode   resolve a free-text query to coordinates
  pick      fill one collection interactively in the terminal
`

type cli struct {
	stdout      io.Writer
	stderr      io.Writer
	lookup      options.Lookup
	driver      tui.PromptDriver
	geocodeOpts []geocode.Option
	logger      zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{
		stdout: os.Stdout,
		stderr: os.Stderr,
		lookup: options.OSLookup(),
		logger: logging.NewConsole(envOr("LOG_LEVEL", "warn"), os.Stderr),
	}
	if err := c.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(os.Args[0]), err)
		os.Exit(1)
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(c.stderr, usage, "mappoint-cli")
		return flag.ErrHelp
	}
	switch args[0] {
	case "annotate":
		return c.annotate(ctx, args[1:])
	case "render":
		return c.render(ctx, args[1:])
	case "geocode":
		return c.geocode(ctx, args[1:])
	case "pick":
		return c.pick(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprintf(c.stdout, usage, "mappoint-cli")
		return nil
	default:
		fmt.Fprintf(c.stderr, usage, "mappoint-cli")
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// common holds the flags shared by the schema driven commands.
type common struct {
	schemaPath string
	pluginPath string
	envFile    string
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (cm *common) bind(fs *flag.FlagSet) {
	fs.StringVar(&cm.schemaPath, "schema", "schema.yaml", "schema document (YAML or JSON)")
	fs.StringVar(&cm.pluginPath, "plugin", "", "plugin options document (YAML or JSON)")
	fs.StringVar(&cm.envFile, "env-file", "", "optional .env file consulted after the process environment")
}

func (c *cli) load(cm common) (schema.Config, *options.MapPointOptions, options.EnvKeys, error) {
	cfg, err := schema.LoadFS(os.DirFS(filepath.Dir(cm.schemaPath)), filepath.Base(cm.schemaPath))
	if err != nil {
		return schema.Config{}, nil, options.EnvKeys{}, err
	}
	plugin := &options.MapPointOptions{}
	if strings.TrimSpace(cm.pluginPath) != "" {
		loaded, err := options.LoadFile(os.DirFS(filepath.Dir(cm.pluginPath)), filepath.Base(cm.pluginPath))
		if err != nil {
			return schema.Config{}, nil, options.EnvKeys{}, err
		}
		plugin = &loaded
	}
	lookup := c.lookup
	if strings.TrimSpace(cm.envFile) != "" {
		dotenv, err := options.DotEnvLookup(cm.envFile)
		if err != nil {
			return schema.Config{}, nil, options.EnvKeys{}, err
		}
		lookup = options.ChainLookup(lookup, dotenv)
	}
	return cfg, plugin, options.EnvFromLookup(lookup), nil
}

func (c *cli) annotate(_ context.Context, args []string) error {
	var cm common
	fs := c.flagSet("annotate")
	cm.bind(fs)
	format := fs.String("format", "", "output format: yaml or json (defaults to the schema extension)")
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, plugin, env, err := c.load(cm)
	if err != nil {
		return err
	}
	annotated := mappoint.Apply(cfg, plugin, env)

	target := schema.Format(strings.ToLower(strings.TrimSpace(*format)))
	if target == "" {
		target = schema.FormatFromPath(cm.schemaPath)
	}
	data, err := schema.Marshal(annotated, target)
	if err != nil {
		return err
	}
	return c.write(*output, data)
}

func (c *cli) render(ctx context.Context, args []string) error {
	var cm common
	fs := c.flagSet("render")
	cm.bind(fs)
	collection := fs.String("collection", "", "collection or global slug to render")
	endpoint := fs.String("endpoint", "/api/geocode", "geocode endpoint URL used by the search bar")
	assets := fs.String("assets", vanilla.DefaultAssetPrefix, "URL prefix of the runtime assets")
	themeManifest := fs.String("theme-manifest", "", "go-theme manifest (YAML or JSON) registered next to the built-in theme")
	themeName := fs.String("theme", "", "theme name (defaults to the manifest theme, else the built-in one)")
	variant := fs.String("variant", "light", "theme variant: light or dark")
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, plugin, env, err := c.load(cm)
	if err != nil {
		return err
	}
	themeCfg, err := vanilla.LoadTheme(os.DirFS(filepath.Dir(*themeManifest)), manifestName(*themeManifest), *themeName, *variant)
	if err != nil {
		return err
	}
	renderer, err := vanilla.New(
		vanilla.WithLogger(c.logger),
		vanilla.WithEnv(env),
		vanilla.WithEndpoint(*endpoint),
		vanilla.WithAssetPrefix(*assets),
		vanilla.WithTheme(themeCfg),
	)
	if err != nil {
		return err
	}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	out, err := c.orchestrator(registry, plugin, env).Generate(ctx, orchestrator.Request{
		Config:     &cfg,
		Collection: *collection,
	})
	if err != nil {
		return err
	}
	return c.write(*output, out)
}

// manifestName returns the file name of an optional manifest path.
func manifestName(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return filepath.Base(path)
}

func (c *cli) geocode(ctx context.Context, args []string) error {
	fs := c.flagSet("geocode")
	provider := fs.String("provider", string(options.GeocoderNominatim), "geocoder: nominatim, mapbox or google")
	key := fs.String("key", "", "geocoder api key (falls back to the environment for mapbox and google)")
	asJSON := fs.Bool("json", false, "print {\"lng\",\"lat\"} JSON instead of text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.Join(fs.Args(), " ")

	geocoderProvider := options.GeocoderProvider(strings.ToLower(strings.TrimSpace(*provider)))
	if !geocoderProvider.Valid() {
		return fmt.Errorf("%w: %q", geocode.ErrUnsupportedProvider, *provider)
	}
	apiKey := strings.TrimSpace(*key)
	if apiKey == "" && geocoderProvider != options.GeocoderNominatim {
		apiKey = options.EnvFromLookup(c.lookup).ForFamily(string(geocoderProvider))
	}

	client := geocode.New(append([]geocode.Option{geocode.WithLogger(c.logger)}, c.geocodeOpts...)...)
	pt, err := client.Lookup(ctx, geocode.Request{
		Provider: geocoderProvider,
		APIKey:   apiKey,
		Query:    query,
	})
	if err != nil {
		return err
	}
	if *asJSON {
		data, err := json.Marshal(map[string]float64{"lng": pt.Lng(), "lat": pt.Lat()})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.stdout, string(data))
		return err
	}
	_, err = fmt.Fprintln(c.stdout, point.Format(&pt))
	return err
}

func (c *cli) pick(ctx context.Context, args []string) error {
	var cm common
	fs := c.flagSet("pick")
	cm.bind(fs)
	collection := fs.String("collection", "", "collection or global slug to fill")
	format := fs.String("format", string(tui.OutputFormatJSON), "output format: json, form or pretty")
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	outputFormat := tui.OutputFormat(strings.ToLower(strings.TrimSpace(*format)))
	switch outputFormat {
	case tui.OutputFormatJSON, tui.OutputFormatFormURLEncoded, tui.OutputFormatPrettyText:
	default:
		return fmt.Errorf("unsupported output format %q", *format)
	}

	cfg, plugin, env, err := c.load(cm)
	if err != nil {
		return err
	}
	driver := c.driver
	if driver == nil {
		driver = tui.NewSurveyDriver(c.stderr)
	}
	geocoder := geocode.New(append([]geocode.Option{geocode.WithLogger(c.logger)}, c.geocodeOpts...)...)
	renderer := tui.New(
		tui.WithPromptDriver(driver),
		tui.WithOutputFormat(outputFormat),
		tui.WithGeocoder(geocoder),
		tui.WithEnv(env),
		tui.WithLogger(c.logger),
	)
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	out, err := c.orchestrator(registry, plugin, env).Generate(ctx, orchestrator.Request{
		Config:     &cfg,
		Collection: *collection,
	})
	if err != nil {
		return err
	}
	return c.write(*output, out)
}

func (c *cli) orchestrator(registry *render.Registry, plugin *options.MapPointOptions, env options.EnvKeys) *orchestrator.Orchestrator {
	return orchestrator.New(
		orchestrator.WithRegistry(registry),
		orchestrator.WithLogger(c.logger),
		orchestrator.WithSchemaTransformer(annotator.New(plugin,
			annotator.WithEnv(env),
			annotator.WithLogger(c.logger),
		)),
	)
}

func (c *cli) write(path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		if _, err := c.stdout.Write(data); err != nil {
			return err
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			_, err := io.WriteString(c.stdout, "\n")
			return err
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(c.stderr, "written to %s\n", path)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
