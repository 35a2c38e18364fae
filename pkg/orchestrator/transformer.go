package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

// Transformer rewrites a schema before rendering. *annotator.Annotator
// satisfies it.
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

// PresetTransformer applies declarative field patches loaded from a YAML or
// JSON document. Keys are "<slug>.<field path>", with block slugs and named
// tabs as path segments:
//
//	fields:
//	  venues.location:
//	    label: Where
//	    required: true
//	    mapPoint:
//	      map: {provider: leaflet}
//
// A mapPoint patch takes precedence over the field's own options. Run it
// before the annotator so plugin defaults fill the remaining keys.
type PresetTransformer struct {
	fields map[string]fieldPatch
}

type fieldPatch struct {
	Label    string
	Required *bool
	ReadOnly *bool
	MapPoint *options.MapPointOptions
}

type presetDocument struct {
	Fields map[string]presetField `yaml:"fields"`
}

type presetField struct {
	Label    string         `yaml:"label"`
	Required *bool          `yaml:"required"`
	ReadOnly *bool          `yaml:"readOnly"`
	MapPoint map[string]any `yaml:"mapPoint"`
}

// NewPresetTransformer constructs a transformer from raw YAML or JSON bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	fields := make(map[string]fieldPatch, len(document.Fields))
	for path, raw := range document.Fields {
		path = strings.TrimSpace(path)
		if path == "" {
			return nil, errors.New("preset transformer: empty field path")
		}
		patch := fieldPatch{Label: raw.Label, Required: raw.Required, ReadOnly: raw.ReadOnly}
		if raw.MapPoint != nil {
			opts, err := options.FromMap(raw.MapPoint)
			if err != nil {
				return nil, fmt.Errorf("preset transformer: %s: %w", path, err)
			}
			if err := opts.Validate(); err != nil {
				return nil, fmt.Errorf("preset transformer: %s: %w", path, err)
			}
			patch.MapPoint = &opts
		}
		fields[path] = patch
	}
	return &PresetTransformer{fields: fields}, nil
}

// NewPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform returns a patched copy of cfg. Every patch must match a field.
func (t *PresetTransformer) Transform(ctx context.Context, cfg schema.Config) (schema.Config, error) {
	if err := ctx.Err(); err != nil {
		return schema.Config{}, err
	}
	if t == nil || len(t.fields) == 0 {
		return cfg, nil
	}

	applied := make(map[string]bool, len(t.fields))
	out := cfg
	if len(cfg.Collections) > 0 {
		out.Collections = make([]schema.Collection, len(cfg.Collections))
		for i, collection := range cfg.Collections {
			collection.Fields = t.patchFields(collection.Slug, collection.Fields, applied)
			out.Collections[i] = collection
		}
	}
	if len(cfg.Globals) > 0 {
		out.Globals = make([]schema.Global, len(cfg.Globals))
		for i, global := range cfg.Globals {
			global.Fields = t.patchFields(global.Slug, global.Fields, applied)
			out.Globals[i] = global
		}
	}

	var missing []string
	for path := range t.fields {
		if !applied[path] {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return schema.Config{}, fmt.Errorf("preset transformer: fields not found: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func (t *PresetTransformer) patchFields(prefix string, in []schema.Field, applied map[string]bool) []schema.Field {
	if len(in) == 0 {
		return in
	}
	out := make([]schema.Field, len(in))
	for i, field := range in {
		path := joinPath(prefix, field.Name)
		if patch, ok := t.fields[path]; ok && strings.TrimSpace(field.Name) != "" {
			field = patch.apply(field)
			applied[path] = true
		}
		field.Fields = t.patchFields(path, field.Fields, applied)
		if len(field.Blocks) > 0 {
			blocks := make([]schema.Block, len(field.Blocks))
			for j, block := range field.Blocks {
				block.Fields = t.patchFields(joinPath(path, block.Slug), block.Fields, applied)
				blocks[j] = block
			}
			field.Blocks = blocks
		}
		if len(field.Tabs) > 0 {
			tabs := make([]schema.Tab, len(field.Tabs))
			for j, tab := range field.Tabs {
				tab.Fields = t.patchFields(joinPath(path, tab.Name), tab.Fields, applied)
				tabs[j] = tab
			}
			field.Tabs = tabs
		}
		out[i] = field
	}
	return out
}

func (p fieldPatch) apply(field schema.Field) schema.Field {
	if p.Label != "" {
		field.Label = p.Label
	}
	if p.Required != nil {
		field.Required = *p.Required
	}
	if p.ReadOnly == nil && p.MapPoint == nil {
		return field
	}
	admin := schema.Admin{}
	if field.Admin != nil {
		admin = *field.Admin
	}
	if p.ReadOnly != nil {
		admin.ReadOnly = *p.ReadOnly
	}
	if p.MapPoint != nil {
		merged := options.Merge(p.MapPoint, admin.MapPoint)
		admin.MapPoint = &merged
	}
	field.Admin = &admin
	return field
}

func joinPath(prefix, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return prefix
	case prefix == "":
		return name
	default:
		return prefix + "." + name
	}
}
