// Package point defines the coordinate value stored by map-point fields.
//
// A Point is longitude first, latitude second, matching the GeoJSON order the
// host persists. A nil *Point means the field is unset.
package point

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EmptyPrompt is shown when a field has no value yet.
const EmptyPrompt = "Click the map to set a point"

// ErrInvalid reports a coordinate pair that is not finite or cannot be parsed.
var ErrInvalid = errors.New("point: invalid coordinates")

// Point is a [lng, lat] pair. It marshals to a two element JSON array.
type Point [2]float64

// New builds a Point, rejecting NaN and infinite components.
func New(lng, lat float64) (Point, error) {
	p := Point{lng, lat}
	if !p.Valid() {
		return Point{}, fmt.Errorf("%w: %v, %v", ErrInvalid, lng, lat)
	}
	return p, nil
}

// Must mirrors New but panics on invalid input. Intended for literals.
func Must(lng, lat float64) Point {
	p, err := New(lng, lat)
	if err != nil {
		panic(err)
	}
	return p
}

// Ptr returns a pointer to a copy of p.
func Ptr(p Point) *Point {
	return &p
}

func (p Point) Lng() float64 { return p[0] }
func (p Point) Lat() float64 { return p[1] }

// LatLng returns the pair in latitude-first order for Leaflet and Google.
func (p Point) LatLng() [2]float64 {
	return [2]float64{p[1], p[0]}
}

// Valid reports whether both components are finite numbers.
func (p Point) Valid() bool {
	return isFinite(p[0]) && isFinite(p[1])
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f, %.6f", p[0], p[1])
}

// Equal compares two optional points.
func Equal(a, b *Point) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Format renders the footer text for an optional value.
func Format(p *Point) string {
	if p == nil {
		return EmptyPrompt
	}
	return "Lng, Lat: " + p.String()
}

// Parse converts loosely typed input (decoded JSON/YAML, form values) into an
// optional Point. nil input yields nil without error.
func Parse(raw any) (*Point, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case Point:
		return checked(v)
	case *Point:
		if v == nil {
			return nil, nil
		}
		return checked(*v)
	case [2]float64:
		return checked(Point(v))
	case []float64:
		if len(v) < 2 {
			return nil, fmt.Errorf("%w: need 2 components, got %d", ErrInvalid, len(v))
		}
		return checked(Point{v[0], v[1]})
	case []any:
		if len(v) < 2 {
			return nil, fmt.Errorf("%w: need 2 components, got %d", ErrInvalid, len(v))
		}
		lng, err := toFloat(v[0])
		if err != nil {
			return nil, err
		}
		lat, err := toFloat(v[1])
		if err != nil {
			return nil, err
		}
		return checked(Point{lng, lat})
	case map[string]any:
		lng, err := toFloat(firstKey(v, "lng", "lon", "longitude"))
		if err != nil {
			return nil, err
		}
		lat, err := toFloat(firstKey(v, "lat", "latitude"))
		if err != nil {
			return nil, err
		}
		return checked(Point{lng, lat})
	case string:
		return ParseString(v)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalid, raw)
	}
}

// ParseString accepts "lng,lat", a JSON array literal, or the empty string and
// "null" for an unset value.
func ParseString(raw string) (*Point, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	return checked(Point{lng, lat})
}

func checked(p Point) (*Point, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %v, %v", ErrInvalid, p[0], p[1])
	}
	return &p, nil
}

func firstKey(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := m[key]; ok {
			return value
		}
	}
	return nil
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: unsupported component %T", ErrInvalid, raw)
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
