package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-mappoint/pkg/annotator"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetMapPoint    = "map-point"
	WidgetGroup       = "group"
	WidgetRow         = "row"
	WidgetCollapsible = "collapsible"
	WidgetArray       = "array"
	WidgetBlocks      = "blocks"
	WidgetTabs        = "tabs"
	WidgetText        = "text"
)

// Matcher decides whether a widget renderer should handle the supplied field.
type Matcher func(field schema.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widget renderers for fields based on explicit hints,
// admin component paths or registered matchers. Higher priority wins; ties
// fall back to registration order.
type Registry struct {
	mu         sync.RWMutex
	rules      []rule
	components map[string]string
}

// NewRegistry constructs a registry with the built-in matchers and the
// map-point component path registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// RegisterComponent maps an admin component path (admin.components.Field.path)
// to a widget name.
func (r *Registry) RegisterComponent(path, widget string) {
	if r == nil {
		return
	}
	path = strings.TrimSpace(path)
	widget = strings.TrimSpace(widget)
	if path == "" || widget == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.components == nil {
		r.components = make(map[string]string)
	}
	r.components[path] = widget
}

// Resolve returns the widget name for a field. An admin "widget" hint wins,
// then a known component path, then the matchers. Unknown component paths
// fall through to the matchers.
func (r *Registry) Resolve(field schema.Field) (string, bool) {
	if explicit := explicitWidget(field); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if ref := field.FieldComponent(); ref != nil {
		if widget, ok := r.components[strings.TrimSpace(ref.Path)]; ok {
			r.mu.RUnlock()
			return widget, true
		}
	}
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// ResolveAll resolves every field in the tree, keyed by dotted path.
func (r *Registry) ResolveAll(fields []schema.Field) map[string]string {
	resolved := make(map[string]string)
	schema.Walk(fields, func(path string, field schema.Field) {
		if widget, ok := r.Resolve(field); ok {
			resolved[path] = widget
		}
	})
	return resolved
}

func explicitWidget(field schema.Field) string {
	if field.Admin == nil || field.Admin.Extra == nil {
		return ""
	}
	if widget, ok := field.Admin.Extra["widget"].(string); ok {
		return strings.TrimSpace(widget)
	}
	return ""
}

func (r *Registry) registerBuiltins() {
	r.RegisterComponent(annotator.ComponentPath, WidgetMapPoint)

	r.Register(WidgetMapPoint, 100, func(field schema.Field) bool {
		return field.IsPoint()
	})
	r.Register(WidgetBlocks, 80, func(field schema.Field) bool {
		return field.Type == schema.KindBlocks || len(field.Blocks) > 0
	})
	r.Register(WidgetTabs, 80, func(field schema.Field) bool {
		return field.Type == schema.KindTabs || len(field.Tabs) > 0
	})
	r.Register(WidgetArray, 70, func(field schema.Field) bool {
		return field.Type == schema.KindArray
	})
	r.Register(WidgetRow, 60, func(field schema.Field) bool {
		return field.Type == schema.KindRow
	})
	r.Register(WidgetCollapsible, 60, func(field schema.Field) bool {
		return field.Type == schema.KindCollapsible
	})
	r.Register(WidgetGroup, 50, func(field schema.Field) bool {
		return field.Type == schema.KindGroup || len(field.Fields) > 0
	})
	r.Register(WidgetText, 0, func(schema.Field) bool {
		return true
	})
}
