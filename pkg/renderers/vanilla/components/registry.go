package components

import (
	"bytes"
	"fmt"
	"html"
	"slices"
	"strings"
	"sync"

	rendertemplate "github.com/goliatone/go-mappoint/pkg/render/template"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

// Renderer writes the control markup for one field into buf.
type Renderer func(buf *bytes.Buffer, field schema.Field, data ComponentData) error

// ChildRenderer renders a nested field. scope is an extra path segment (an
// array index or tab name) inserted between the parent path and the child
// name. container is the document object holding the child's value; unnamed
// children read the container itself.
type ChildRenderer func(scope string, field schema.Field, container map[string]any) (string, error)

// ComponentData carries helpers and per-field state for component renderers.
type ComponentData struct {
	Template    rendertemplate.TemplateRenderer
	RenderChild ChildRenderer
	// Path is the dotted input name of the field.
	Path     string
	Value    any
	Partials map[string]string
	// Sanitize cleans user supplied text before it reaches the page.
	Sanitize func(string) string
	MapPoint *MapPointContext
}

// Text sanitises s, falling back to HTML escaping.
func (d ComponentData) Text(s string) string {
	if d.Sanitize != nil {
		return d.Sanitize(s)
	}
	return html.EscapeString(s)
}

// ControlID is the DOM id of the field control.
func (d ComponentData) ControlID() string {
	return controlID(d.Path)
}

// Script describes JavaScript dependencies a component needs to emit once per
// render. Relative sources name embedded runtime assets.
type Script struct {
	Src    string
	Type   string
	Inline string
	Async  bool
	Defer  bool
	Module bool
	Attrs  map[string]string
}

// Descriptor bundles the renderer implementation with any asset dependencies.
type Descriptor struct {
	Name        string
	Renderer    Renderer
	Stylesheets []string
	Scripts     []Script
}

// Registry tracks component descriptors keyed by name.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		components: make(map[string]Descriptor),
	}
}

// Clone returns a deep copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cloned := New()
	for name, descriptor := range r.components {
		cloned.components[name] = cloneDescriptor(descriptor)
	}
	return cloned
}

// Register associates a descriptor with name, replacing any existing entry.
func (r *Registry) Register(name string, descriptor Descriptor) error {
	if name = normalize(name); name == "" {
		return fmt.Errorf("components: component name is required")
	}
	if descriptor.Renderer == nil {
		return fmt.Errorf("components: renderer for %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	descriptor.Name = name
	r.components[name] = cloneDescriptor(descriptor)
	return nil
}

// MustRegister mirrors Register but panics on error.
func (r *Registry) MustRegister(name string, descriptor Descriptor) {
	if err := r.Register(name, descriptor); err != nil {
		panic(err)
	}
}

// Descriptor fetches a descriptor by name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.components[normalize(name)]
	if !ok {
		return Descriptor{}, false
	}
	return cloneDescriptor(descriptor), true
}

// Names returns the sorted registered component names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Assets collects the stylesheets and scripts of names in order, each
// emitted once.
func (r *Registry) Assets(names []string) (stylesheets []string, scripts []Script) {
	if len(names) == 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seenStyles := make(map[string]struct{})
	seenScripts := make(map[string]struct{})

	for _, name := range names {
		descriptor, ok := r.components[normalize(name)]
		if !ok {
			continue
		}
		for _, href := range descriptor.Stylesheets {
			if href == "" {
				continue
			}
			if _, exists := seenStyles[href]; exists {
				continue
			}
			seenStyles[href] = struct{}{}
			stylesheets = append(stylesheets, href)
		}
		for _, script := range descriptor.Scripts {
			key := scriptKey(script)
			if _, exists := seenScripts[key]; exists {
				continue
			}
			seenScripts[key] = struct{}{}
			scripts = append(scripts, cloneScript(script))
		}
	}
	return stylesheets, scripts
}

func cloneDescriptor(src Descriptor) Descriptor {
	clone := Descriptor{
		Name:        src.Name,
		Renderer:    src.Renderer,
		Stylesheets: slices.Clone(src.Stylesheets),
		Scripts:     make([]Script, len(src.Scripts)),
	}
	for idx, script := range src.Scripts {
		clone.Scripts[idx] = cloneScript(script)
	}
	return clone
}

func cloneScript(script Script) Script {
	script.Attrs = cloneStringMap(script.Attrs)
	return script
}

func cloneStringMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

func scriptKey(script Script) string {
	if script.Src != "" {
		return "src:" + script.Src
	}
	return "inline:" + script.Inline
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
