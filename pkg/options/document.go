package options

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mappoint/pkg/point"
)

// LoadFile reads a plugin options document (YAML or JSON) from fsys.
func LoadFile(fsys fs.FS, path string) (MapPointOptions, error) {
	if fsys == nil {
		return MapPointOptions{}, errors.New("options: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return MapPointOptions{}, errors.New("options: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return MapPointOptions{}, fmt.Errorf("options: read %s: %w", path, err)
	}
	opts, err := Parse(data)
	if err != nil {
		return MapPointOptions{}, fmt.Errorf("options: %s: %w", path, err)
	}
	return opts, nil
}

// Parse decodes a YAML or JSON options document and validates it.
func Parse(data []byte) (MapPointOptions, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return MapPointOptions{}, nil
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return MapPointOptions{}, fmt.Errorf("options: parse document: %w", err)
	}
	opts, err := FromMap(raw)
	if err != nil {
		return MapPointOptions{}, err
	}
	if err := opts.Validate(); err != nil {
		return MapPointOptions{}, err
	}
	return opts, nil
}

// FromMap converts a decoded document into options. Unknown keys are ignored.
func FromMap(raw map[string]any) (MapPointOptions, error) {
	opts := MapPointOptions{}
	if len(raw) == 0 {
		return opts, nil
	}
	if value, ok := raw["enabled"]; ok && value != nil {
		enabled, ok := value.(bool)
		if !ok {
			return opts, fmt.Errorf("options: enabled must be a boolean, got %T", value)
		}
		opts.Enabled = Bool(enabled)
	}
	if value, ok := raw["defaultCenter"]; ok && value != nil {
		center, err := point.Parse(value)
		if err != nil {
			return opts, fmt.Errorf("options: defaultCenter: %w", err)
		}
		opts.DefaultCenter = center
	}
	if value, ok := raw["defaultZoom"]; ok && value != nil {
		zoom, err := number(value)
		if err != nil {
			return opts, fmt.Errorf("options: defaultZoom: %w", err)
		}
		opts.DefaultZoom = Float(zoom)
	}
	if value, ok := raw["geocoder"].(map[string]any); ok {
		opts.Geocoder = &GeocoderOptions{
			Provider:    GeocoderProvider(stringValue(value["provider"])),
			APIKey:      stringValue(value["apiKey"]),
			Placeholder: stringValue(value["placeholder"]),
		}
	}
	if value, ok := raw["map"].(map[string]any); ok {
		opts.Map = &MapOptions{
			Provider: MapProvider(stringValue(value["provider"])),
			APIKey:   stringValue(value["apiKey"]),
		}
	}
	return opts, nil
}

// ToMap is the inverse of FromMap; unset members are omitted.
func (o *MapPointOptions) ToMap() map[string]any {
	if o == nil {
		return nil
	}
	out := make(map[string]any)
	if o.Enabled != nil {
		out["enabled"] = *o.Enabled
	}
	if o.DefaultCenter != nil {
		out["defaultCenter"] = []any{o.DefaultCenter.Lng(), o.DefaultCenter.Lat()}
	}
	if o.DefaultZoom != nil {
		out["defaultZoom"] = *o.DefaultZoom
	}
	if o.Geocoder != nil {
		geocoder := make(map[string]any)
		putString(geocoder, "provider", string(o.Geocoder.Provider))
		putString(geocoder, "apiKey", o.Geocoder.APIKey)
		putString(geocoder, "placeholder", o.Geocoder.Placeholder)
		out["geocoder"] = geocoder
	}
	if o.Map != nil {
		m := make(map[string]any)
		putString(m, "provider", string(o.Map.Provider))
		putString(m, "apiKey", o.Map.APIKey)
		out["map"] = m
	}
	return out
}

func putString(target map[string]any, key, value string) {
	if value == "" {
		return
	}
	target[key] = value
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

func number(raw any) (float64, error) {
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", raw)
	}
}
