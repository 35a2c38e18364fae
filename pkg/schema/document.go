package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mappoint/pkg/options"
)

// Format selects the encoding used by Marshal.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the format from a file extension, defaulting to YAML.
func FormatFromPath(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// LoadFS reads and decodes a schema document from fsys.
func LoadFS(fsys fs.FS, name string) (Config, error) {
	if fsys == nil {
		return Config{}, errors.New("schema: filesystem is nil")
	}
	if strings.TrimSpace(name) == "" {
		return Config{}, errors.New("schema: path is required")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Config{}, fmt.Errorf("schema: read %s: %w", name, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("schema: %s: %w", name, err)
	}
	return cfg, nil
}

// Parse decodes a YAML or JSON schema document. JSON is accepted because it
// is a subset of YAML.
func Parse(data []byte) (Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Config{}, nil
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse document: %w", err)
	}
	return FromMap(raw)
}

// Marshal encodes cfg in the requested format.
func Marshal(cfg Config, format Format) ([]byte, error) {
	doc := cfg.ToMap()
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("schema: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("schema: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("schema: unsupported format %q", format)
	}
}

// FromMap converts a decoded document into a Config.
func FromMap(raw map[string]any) (Config, error) {
	cfg := Config{}
	if len(raw) == 0 {
		return cfg, nil
	}
	var err error
	if cfg.Collections, err = decodeList(raw["collections"], "collections", decodeCollection); err != nil {
		return Config{}, err
	}
	if cfg.Globals, err = decodeList(raw["globals"], "globals", decodeGlobal); err != nil {
		return Config{}, err
	}
	cfg.Extra = extra(raw, "collections", "globals")
	return cfg, nil
}

// ToMap is the inverse of FromMap.
func (c Config) ToMap() map[string]any {
	out := copyExtra(c.Extra)
	if len(c.Collections) > 0 {
		list := make([]any, 0, len(c.Collections))
		for _, col := range c.Collections {
			entry := copyExtra(col.Extra)
			entry["slug"] = col.Slug
			entry["fields"] = fieldsToList(col.Fields)
			list = append(list, entry)
		}
		out["collections"] = list
	}
	if len(c.Globals) > 0 {
		list := make([]any, 0, len(c.Globals))
		for _, g := range c.Globals {
			entry := copyExtra(g.Extra)
			entry["slug"] = g.Slug
			entry["fields"] = fieldsToList(g.Fields)
			list = append(list, entry)
		}
		out["globals"] = list
	}
	return out
}

// ToMap encodes a single field node.
func (f Field) ToMap() map[string]any {
	out := copyExtra(f.Extra)
	putString(out, "name", f.Name)
	putString(out, "type", string(f.Type))
	putString(out, "label", f.Label)
	if f.Required {
		out["required"] = true
	}
	if f.Fields != nil {
		out["fields"] = fieldsToList(f.Fields)
	}
	if f.Blocks != nil {
		list := make([]any, 0, len(f.Blocks))
		for _, block := range f.Blocks {
			entry := copyExtra(block.Extra)
			entry["slug"] = block.Slug
			entry["fields"] = fieldsToList(block.Fields)
			list = append(list, entry)
		}
		out["blocks"] = list
	}
	if f.Tabs != nil {
		list := make([]any, 0, len(f.Tabs))
		for _, tab := range f.Tabs {
			entry := copyExtra(tab.Extra)
			putString(entry, "name", tab.Name)
			putString(entry, "label", tab.Label)
			entry["fields"] = fieldsToList(tab.Fields)
			list = append(list, entry)
		}
		out["tabs"] = list
	}
	if admin := f.Admin.toMap(); admin != nil {
		out["admin"] = admin
	}
	return out
}

func (a *Admin) toMap() map[string]any {
	if a == nil {
		return nil
	}
	out := copyExtra(a.Extra)
	if a.ReadOnly {
		out["readOnly"] = true
	}
	if a.Components != nil {
		components := copyExtra(a.Components.Extra)
		if ref := a.Components.Field; ref != nil {
			entry := map[string]any{"path": ref.Path}
			if ref.ClientProps != nil {
				entry["clientProps"] = copyExtra(ref.ClientProps)
			}
			components["Field"] = entry
		}
		out["components"] = components
	}
	if a.MapPoint != nil {
		out["mapPoint"] = a.MapPoint.ToMap()
	}
	return out
}

func fieldsToList(fields []Field) []any {
	list := make([]any, 0, len(fields))
	for _, field := range fields {
		list = append(list, field.ToMap())
	}
	return list
}

func decodeCollection(raw map[string]any, at string) (Collection, error) {
	fields, err := decodeFields(raw["fields"], at+".fields")
	if err != nil {
		return Collection{}, err
	}
	return Collection{
		Slug:   stringValue(raw["slug"]),
		Fields: fields,
		Extra:  extra(raw, "slug", "fields"),
	}, nil
}

func decodeGlobal(raw map[string]any, at string) (Global, error) {
	col, err := decodeCollection(raw, at)
	if err != nil {
		return Global{}, err
	}
	return Global(col), nil
}

func decodeFields(raw any, at string) ([]Field, error) {
	return decodeList(raw, at, decodeField)
}

// decodeField keeps child lists of an unexpected shape in Extra so malformed
// nodes survive untouched.
func decodeField(raw map[string]any, at string) (Field, error) {
	field := Field{
		Name:  stringValue(raw["name"]),
		Type:  Kind(stringValue(raw["type"])),
		Label: stringValue(raw["label"]),
	}
	if required, ok := raw["required"].(bool); ok {
		field.Required = required
	}
	label := at
	if field.Name != "" {
		label = at + "(" + field.Name + ")"
	}
	known := []string{"name", "type", "label", "required"}
	var err error
	if list, ok := raw["fields"].([]any); ok {
		if field.Fields, err = decodeFields(list, label+".fields"); err != nil {
			return Field{}, err
		}
		known = append(known, "fields")
	}
	if list, ok := raw["blocks"].([]any); ok {
		if field.Blocks, err = decodeList(list, label+".blocks", decodeBlock); err != nil {
			return Field{}, err
		}
		known = append(known, "blocks")
	}
	if list, ok := raw["tabs"].([]any); ok {
		if field.Tabs, err = decodeList(list, label+".tabs", decodeTab); err != nil {
			return Field{}, err
		}
		known = append(known, "tabs")
	}
	if adminRaw, ok := raw["admin"].(map[string]any); ok {
		if field.Admin, err = decodeAdmin(adminRaw, label+".admin"); err != nil {
			return Field{}, err
		}
		known = append(known, "admin")
	}
	field.Extra = extra(raw, known...)
	return field, nil
}

func decodeBlock(raw map[string]any, at string) (Block, error) {
	fields, err := decodeFields(raw["fields"], at+".fields")
	if err != nil {
		return Block{}, err
	}
	return Block{
		Slug:   stringValue(raw["slug"]),
		Fields: fields,
		Extra:  extra(raw, "slug", "fields"),
	}, nil
}

func decodeTab(raw map[string]any, at string) (Tab, error) {
	fields, err := decodeFields(raw["fields"], at+".fields")
	if err != nil {
		return Tab{}, err
	}
	return Tab{
		Name:   stringValue(raw["name"]),
		Label:  stringValue(raw["label"]),
		Fields: fields,
		Extra:  extra(raw, "name", "label", "fields"),
	}, nil
}

func decodeAdmin(raw map[string]any, at string) (*Admin, error) {
	admin := &Admin{}
	if readOnly, ok := raw["readOnly"].(bool); ok {
		admin.ReadOnly = readOnly
	}
	if componentsRaw, ok := raw["components"].(map[string]any); ok {
		components := &Components{Extra: extra(componentsRaw, "Field")}
		if fieldRaw, ok := componentsRaw["Field"].(map[string]any); ok {
			ref := &ComponentRef{Path: stringValue(fieldRaw["path"])}
			if props, ok := fieldRaw["clientProps"].(map[string]any); ok {
				ref.ClientProps = copyExtra(props)
			}
			components.Field = ref
		} else if path, ok := componentsRaw["Field"].(string); ok {
			components.Field = &ComponentRef{Path: path}
		}
		admin.Components = components
	}
	if mapPointRaw, ok := raw["mapPoint"].(map[string]any); ok {
		opts, err := options.FromMap(mapPointRaw)
		if err != nil {
			return nil, fmt.Errorf("%s.mapPoint: %w", at, err)
		}
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("%s.mapPoint: %w", at, err)
		}
		admin.MapPoint = &opts
	}
	admin.Extra = extra(raw, "readOnly", "components", "mapPoint")
	return admin, nil
}

func decodeList[T any](raw any, at string, decode func(map[string]any, string) (T, error)) ([]T, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list, got %T", at, raw)
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected an object, got %T", at, i, item)
		}
		value, err := decode(entry, fmt.Sprintf("%s[%d]", at, i))
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

func extra(raw map[string]any, known ...string) map[string]any {
	var out map[string]any
outer:
	for key, value := range raw {
		for _, k := range known {
			if key == k {
				continue outer
			}
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[key] = value
	}
	return out
}

func copyExtra(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

func putString(target map[string]any, key, value string) {
	if value != "" {
		target[key] = value
	}
}

func stringValue(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
