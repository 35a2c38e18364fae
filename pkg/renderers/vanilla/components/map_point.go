package components

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint/pkg/annotator"
	"github.com/goliatone/go-mappoint/pkg/maps"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
	"github.com/goliatone/go-mappoint/pkg/schema"
	"github.com/goliatone/go-mappoint/pkg/widget"
)

// MapPointContext carries page level settings for map-point fields.
type MapPointContext struct {
	// Env supplies fallback keys when neither field nor plugin set one.
	Env options.EnvKeys
	// Endpoint is the geocode endpoint the runtime calls for searches.
	Endpoint string
	// Collection prefixes field paths in the identifier sent with searches.
	Collection string
	Theme      maps.Theme
	Logger     zerolog.Logger
	MapOptions []maps.Option
}

// MapPointView is the state handed to the map-point template.
type MapPointView struct {
	Field    map[string]any `json:"field"`
	Provider string         `json:"provider"`
	State    widget.State   `json:"state"`
	Value    *point.Point   `json:"value"`
	Runtime  RuntimeConfig  `json:"runtime"`
}

// RuntimeConfig is serialised into the page for the browser runtime. It
// never carries the geocoder key; searches go through Endpoint.
type RuntimeConfig struct {
	Provider      options.MapProvider      `json:"provider"`
	Geocoder      options.GeocoderProvider `json:"geocoder,omitempty"`
	SearchEnabled bool                     `json:"searchEnabled"`
	Endpoint      string                   `json:"endpoint,omitempty"`
	Field         string                   `json:"field,omitempty"`
	Input         string                   `json:"input"`
	Scene         *maps.Scene              `json:"scene,omitempty"`
}

// BuildMapPointView resolves the field configuration and mounts a headless
// widget to capture the initial scene.
func BuildMapPointView(field schema.Field, data ComponentData) (MapPointView, error) {
	mp := data.MapPoint
	if mp == nil {
		mp = &MapPointContext{Logger: zerolog.Nop()}
	}
	value, err := point.Parse(data.Value)
	if err != nil {
		mp.Logger.Warn().Err(err).Str("path", data.Path).Msg("ignoring malformed point value")
		value = nil
	}

	cfg := widget.ConfigFromOptions(field.MapPoint(), annotator.FieldPublicKey(field), mp.Env)
	w, err := widget.New(cfg, widget.NewMemoryBinding(value),
		widget.WithLogger(mp.Logger),
		widget.WithMapOptions(mp.MapOptions...),
	)
	if err != nil {
		return MapPointView{}, err
	}
	if err := w.Mount(data.ControlID()+"-map", mp.Theme); err != nil {
		return MapPointView{}, fmt.Errorf("components: mount map for %q: %w", data.Path, err)
	}
	state := w.State()
	w.Unmount()

	return MapPointView{
		Field:    fieldView(field, data),
		Provider: string(cfg.MapProvider),
		State:    state,
		Value:    value,
		Runtime: RuntimeConfig{
			Provider:      cfg.MapProvider,
			Geocoder:      cfg.Geocoder,
			SearchEnabled: cfg.SearchEnabled,
			Endpoint:      mp.Endpoint,
			Field:         schema.FieldID(mp.Collection, data.Path),
			Input:         data.ControlID(),
			Scene:         state.Scene,
		},
	}, nil
}

func mapPointRenderer(buf *bytes.Buffer, field schema.Field, data ComponentData) error {
	if data.Template == nil {
		return fmt.Errorf("components: template renderer not configured for map-point")
	}
	view, err := BuildMapPointView(field, data)
	if err != nil {
		return err
	}
	name := resolveTemplate(data.Partials, "mappoint.field", templatePrefix+"map_point.tmpl")
	rendered, err := data.Template.RenderTemplate(name, view)
	if err != nil {
		return fmt.Errorf("components: render map-point %q: %w", data.Path, err)
	}
	buf.WriteString(rendered)
	return nil
}
