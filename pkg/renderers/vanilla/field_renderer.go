package vanilla

import (
	"bytes"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/goliatone/go-mappoint/pkg/render/template"
	"github.com/goliatone/go-mappoint/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-mappoint/pkg/schema"
	"github.com/goliatone/go-mappoint/pkg/widgets"
)

// componentRenderer renders one page worth of fields and records which
// components were used so their assets can be emitted once.
type componentRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	widgets   *widgets.Registry
	partials  map[string]string
	sanitize  func(string) string
	fieldCls  string
	mapPoint  *components.MapPointContext
	errors    map[string][]string

	usedComponents map[string]struct{}
	order          []string
	points         int
}

func newComponentRenderer(r *Renderer, collection string, errors map[string][]string) *componentRenderer {
	var partials map[string]string
	if r.theme != nil {
		partials = r.theme.Partials
	}
	return &componentRenderer{
		templates:      r.templates,
		registry:       r.registry,
		widgets:        r.widgets,
		partials:       partials,
		sanitize:       r.sanitize,
		fieldCls:       r.classes["field"],
		mapPoint:       r.mapPointContext(collection),
		errors:         errors,
		usedComponents: make(map[string]struct{}),
	}
}

func (r *componentRenderer) renderFields(path string, fields []schema.Field, container map[string]any) (string, error) {
	var out strings.Builder
	for _, field := range fields {
		rendered, err := r.render(path, field, container)
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)
	}
	return out.String(), nil
}

func (r *componentRenderer) render(parentPath string, field schema.Field, container map[string]any) (string, error) {
	path := joinPath(parentPath, field.Name)

	widgetName, ok := r.widgets.Resolve(field)
	if !ok {
		widgetName = widgets.WidgetText
	}
	componentName := widgetName
	if widgetName == widgets.WidgetMapPoint {
		componentName = components.MapPointName(field.MapPoint().MapProviderOrDefault())
	}

	descriptor, ok := r.registry.Descriptor(componentName)
	if !ok {
		return "", fmt.Errorf("component %q not registered for field %q", componentName, path)
	}

	value := any(container)
	if strings.TrimSpace(field.Name) != "" {
		value = container[field.Name]
	}

	data := components.ComponentData{
		Template:    r.templates,
		RenderChild: r.childRenderer(path),
		Path:        path,
		Value:       value,
		Partials:    r.partials,
		Sanitize:    r.sanitize,
		MapPoint:    r.mapPoint,
	}

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, field, data); err != nil {
		return "", fmt.Errorf("render component %q for field %q: %w", componentName, path, err)
	}

	if _, seen := r.usedComponents[componentName]; !seen {
		r.usedComponents[componentName] = struct{}{}
		r.order = append(r.order, componentName)
	}
	if widgetName == widgets.WidgetMapPoint {
		r.points++
	}

	if componentHandlesChrome(componentName) {
		return control.String(), nil
	}
	return r.buildFieldMarkup(field, path, componentName, control.String()), nil
}

func (r *componentRenderer) childRenderer(parentPath string) components.ChildRenderer {
	return func(scope string, field schema.Field, container map[string]any) (string, error) {
		if container == nil {
			container = map[string]any{}
		}
		return r.render(joinPath(parentPath, scope), field, container)
	}
}

// assets returns the de-duplicated stylesheets and scripts in first use order.
func (r *componentRenderer) assets() (stylesheets []string, scripts []components.Script) {
	if r.registry == nil || len(r.order) == 0 {
		return nil, nil
	}
	return r.registry.Assets(slices.Clone(r.order))
}

func (r *componentRenderer) buildFieldMarkup(field schema.Field, path, componentName, control string) string {
	var builder strings.Builder
	builder.Grow(len(control) + 256)

	builder.WriteString(`<div class="`)
	builder.WriteString(html.EscapeString(r.fieldCls))
	builder.WriteString(`" data-component="`)
	builder.WriteString(html.EscapeString(componentName))
	builder.WriteString(`" data-path="`)
	builder.WriteString(html.EscapeString(path))
	builder.WriteString(`"`)
	if len(r.errors[path]) > 0 {
		builder.WriteString(` data-invalid="true"`)
	}
	builder.WriteString(`>`)
	builder.WriteByte('\n')

	if label := strings.TrimSpace(field.Label); label != "" {
		builder.WriteString(`  <label`)
		if labelSupportsFor(componentName) {
			builder.WriteString(` for="`)
			builder.WriteString(html.EscapeString(controlID(path)))
			builder.WriteString(`"`)
		}
		builder.WriteString(`>`)
		builder.WriteString(r.text(label))
		if field.Required {
			builder.WriteString(` *`)
		}
		builder.WriteString("</label>\n")
	}

	for _, line := range strings.Split(control, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		builder.WriteString("  ")
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	for _, message := range r.errors[path] {
		builder.WriteString(`  <p class="mappoint-error" role="alert">`)
		builder.WriteString(r.text(message))
		builder.WriteString("</p>\n")
	}

	builder.WriteString("</div>\n")
	return builder.String()
}

func (r *componentRenderer) text(s string) string {
	if r.sanitize != nil {
		return r.sanitize(s)
	}
	return html.EscapeString(s)
}

