package schema

import (
	"github.com/goliatone/go-mappoint/pkg/options"
)

// Kind tags a field node.
type Kind string

const (
	KindPoint       Kind = "point"
	KindGroup       Kind = "group"
	KindArray       Kind = "array"
	KindBlocks      Kind = "blocks"
	KindTabs        Kind = "tabs"
	KindRow         Kind = "row"
	KindCollapsible Kind = "collapsible"
	KindText        Kind = "text"
)

// ComponentRef points the admin UI at a client component.
type ComponentRef struct {
	Path        string         `json:"path"`
	ClientProps map[string]any `json:"clientProps,omitempty"`
}

// Components lists admin component overrides for a field.
type Components struct {
	Field *ComponentRef  `json:"Field,omitempty"`
	Extra map[string]any `json:"-"`
}

// Admin holds admin-only metadata. MapPoint is populated by the annotator.
type Admin struct {
	ReadOnly   bool                     `json:"readOnly,omitempty"`
	Components *Components              `json:"components,omitempty"`
	MapPoint   *options.MapPointOptions `json:"mapPoint,omitempty"`
	Extra      map[string]any           `json:"-"`
}

// Field is a node of the schema tree.
type Field struct {
	Name     string         `json:"name,omitempty"`
	Type     Kind           `json:"type"`
	Label    string         `json:"label,omitempty"`
	Required bool           `json:"required,omitempty"`
	Fields   []Field        `json:"fields,omitempty"`
	Blocks   []Block        `json:"blocks,omitempty"`
	Tabs     []Tab          `json:"tabs,omitempty"`
	Admin    *Admin         `json:"admin,omitempty"`
	Extra    map[string]any `json:"-"`
}

// Block is one entry of a blocks field.
type Block struct {
	Slug   string         `json:"slug"`
	Fields []Field        `json:"fields"`
	Extra  map[string]any `json:"-"`
}

// Tab is one entry of a tabs field.
type Tab struct {
	Name   string         `json:"name,omitempty"`
	Label  string         `json:"label,omitempty"`
	Fields []Field        `json:"fields"`
	Extra  map[string]any `json:"-"`
}

// Collection is a top-level document type.
type Collection struct {
	Slug   string         `json:"slug"`
	Fields []Field        `json:"fields"`
	Extra  map[string]any `json:"-"`
}

// Global is a singleton document type.
type Global struct {
	Slug   string         `json:"slug"`
	Fields []Field        `json:"fields"`
	Extra  map[string]any `json:"-"`
}

// Config is the root of a schema document.
type Config struct {
	Collections []Collection   `json:"collections,omitempty"`
	Globals     []Global       `json:"globals,omitempty"`
	Extra       map[string]any `json:"-"`
}

// IsPoint reports whether the field is a point field.
func (f Field) IsPoint() bool {
	return f.Type == KindPoint
}

// IsContainer reports whether the field carries nested field lists.
func (f Field) IsContainer() bool {
	return len(f.Fields) > 0 || len(f.Blocks) > 0 || len(f.Tabs) > 0
}

// MapPoint returns the field's map-point options, if annotated.
func (f Field) MapPoint() *options.MapPointOptions {
	if f.Admin == nil {
		return nil
	}
	return f.Admin.MapPoint
}

// FieldComponent returns the admin Field component reference, if any.
func (f Field) FieldComponent() *ComponentRef {
	if f.Admin == nil || f.Admin.Components == nil {
		return nil
	}
	return f.Admin.Components.Field
}

// Collection returns the collection with the given slug.
func (c Config) Collection(slug string) (Collection, bool) {
	for _, col := range c.Collections {
		if col.Slug == slug {
			return col, true
		}
	}
	return Collection{}, false
}
