package components

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

const (
	templatePrefix = "templates/components/"
)

// Third-party map libraries loaded by the map-point descriptors.
const (
	MapboxStylesheet  = "https://api.mapbox.com/mapbox-gl-js/v3.3.0/mapbox-gl.css"
	MapboxScript      = "https://api.mapbox.com/mapbox-gl-js/v3.3.0/mapbox-gl.js"
	LeafletStylesheet = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
	LeafletScript     = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
)

// Embedded runtime assets, resolved against the asset URL at render time.
const (
	RuntimeStylesheet = "mappoint.css"
	RuntimeScript     = "mappoint.js"
)

// BlockTypeKey names the block slug inside a blocks item.
const BlockTypeKey = "blockType"

// NewDefaultRegistry constructs a registry pre-populated with the built-in
// components used by the vanilla renderer.
func NewDefaultRegistry() *Registry {
	registry := New()

	registry.MustRegister(NameText, Descriptor{
		Renderer: templateComponentRenderer("mappoint.text", templatePrefix+"text.tmpl"),
	})
	registry.MustRegister(NameGroup, Descriptor{Renderer: groupRenderer})
	registry.MustRegister(NameRow, Descriptor{Renderer: rowRenderer})
	registry.MustRegister(NameCollapsible, Descriptor{Renderer: collapsibleRenderer})
	registry.MustRegister(NameArray, Descriptor{Renderer: arrayRenderer})
	registry.MustRegister(NameBlocks, Descriptor{Renderer: blocksRenderer})
	registry.MustRegister(NameTabs, Descriptor{Renderer: tabsRenderer})

	runtime := Script{Src: RuntimeScript, Defer: true}
	registry.MustRegister(MapPointName(options.MapProviderMapbox), Descriptor{
		Renderer:    mapPointRenderer,
		Stylesheets: []string{MapboxStylesheet, RuntimeStylesheet},
		Scripts:     []Script{{Src: MapboxScript}, runtime},
	})
	registry.MustRegister(MapPointName(options.MapProviderLeaflet), Descriptor{
		Renderer:    mapPointRenderer,
		Stylesheets: []string{LeafletStylesheet, RuntimeStylesheet},
		Scripts:     []Script{{Src: LeafletScript}, runtime},
	})
	// The Google loader URL carries the key, so the runtime injects it from
	// the scene's scriptUrl.
	registry.MustRegister(MapPointName(options.MapProviderGoogle), Descriptor{
		Renderer:    mapPointRenderer,
		Stylesheets: []string{RuntimeStylesheet},
		Scripts:     []Script{runtime},
	})

	return registry
}

func templateComponentRenderer(partialKey, templateName string) Renderer {
	return func(buf *bytes.Buffer, field schema.Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}
		payload := map[string]any{
			"field": fieldView(field, data),
			"value": scalarString(data.Value),
		}
		rendered, err := data.Template.RenderTemplate(resolveTemplate(data.Partials, partialKey, templateName), payload)
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", templateName, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}

func resolveTemplate(partials map[string]string, key, fallback string) string {
	if partials != nil {
		if candidate := strings.TrimSpace(partials[key]); candidate != "" {
			return candidate
		}
	}
	return fallback
}

// fieldView is the template facing description of a field.
func fieldView(field schema.Field, data ComponentData) map[string]any {
	readOnly := field.Admin != nil && field.Admin.ReadOnly
	return map[string]any{
		"name":     data.Path,
		"id":       data.ControlID(),
		"label":    strings.TrimSpace(field.Label),
		"required": field.Required,
		"readOnly": readOnly,
		"type":     string(field.Type),
	}
}

func groupRenderer(buf *bytes.Buffer, field schema.Field, data ComponentData) error {
	return writeFieldset(buf, field, data, "mappoint-group", asMap(data.Value))
}

func rowRenderer(buf *bytes.Buffer, field schema.Field, data ComponentData) error {
	return writeFieldset(buf, field, data, "mappoint-row", asMap(data.Value))
}

func collapsibleRenderer(buf *bytes.Buffer, field schema.Field, data ComponentData) error {
	var builder strings.Builder
	builder.WriteString(`<details class="mappoint-collapsible" open`)
	writeID(&builder, data.ControlID())
	builder.WriteString(`>`)
	builder.WriteString(`<summary>`)
	if label := strings.TrimSpace(field.Label); label != "" {
		builder.WriteString(data.Text(label))
	} else {
		builder.WriteString(`Details`)
	}
	builder.WriteString(`</summary>`)
	if err := writeChildren(&builder, "", field.Fields, asMap(data.Value), data); err != nil {
		return err
	}
	builder.WriteString(`</details>`)
	buf.WriteString(builder.String())
	return nil
}

func writeFieldset(buf *bytes.Buffer, field schema.Field, data ComponentData, class string, container map[string]any) error {
	var builder strings.Builder
	builder.WriteString(`<fieldset class="`)
	builder.WriteString(class)
	builder.WriteString(`"`)
	writeID(&builder, data.ControlID())
	labelID := ""
	if strings.TrimSpace(field.Label) != "" {
		labelID = labelIDFor(data.Path)
		builder.WriteString(` aria-labelledby="`)
		builder.WriteString(html.EscapeString(labelID))
		builder.WriteString(`"`)
	}
	builder.WriteString(`>`)
	if label := strings.TrimSpace(field.Label); label != "" {
		builder.WriteString(`<legend`)
		writeID(&builder, labelID)
		builder.WriteString(`>`)
		builder.WriteString(data.Text(label))
		builder.WriteString(`</legend>`)
	}
	if err := writeChildren(&builder, "", field.Fields, container, data); err != nil {
		return err
	}
	builder.WriteString(`</fieldset>`)
	buf.WriteString(builder.String())
	return nil
}

func arrayRenderer(buf *bytes.Buffer, field schema.Field, data ComponentData) error {
	items := asList(data.Value)
	if len(items) == 0 {
		items = []any{map[string]any{}}
	}

	var builder strings.Builder
	builder.WriteString(`<fieldset class="mappoint-array" role="group"`)
	writeID(&builder, data.ControlID())
	builder.WriteString(` data-items="`)
	builder.WriteString(strconv.Itoa(len(items)))
	builder.WriteString(`">`)
	if label := strings.TrimSpace(field.Label); label != "" {
		builder.WriteString(`<legend>`)
		builder.WriteString(data.Text(label))
		builder.WriteString(`</legend>`)
	}
	for idx, item := range items {
		builder.WriteString(`<div class="mappoint-array-item" data-index="`)
		builder.WriteString(strconv.Itoa(idx))
		builder.WriteString(`">`)
		if err := writeChildren(&builder, strconv.Itoa(idx), field.Fields, asMap(item), data); err != nil {
			return err
		}
		builder.WriteString(`</div>`)
	}
	builder.WriteString(`</fieldset>`)
	buf.WriteString(builder.String())
	return nil
}

func blocksRenderer(buf *bytes.Buffer, field schema.Field, data ComponentData) error {
	var builder strings.Builder
	builder.WriteString(`<fieldset class="mappoint-blocks"`)
	writeID(&builder, data.ControlID())
	slugs := make([]string, 0, len(field.Blocks))
	for _, block := range field.Blocks {
		slugs = append(slugs, block.Slug)
	}
	builder.WriteString(` data-blocks="`)
	builder.WriteString(html.EscapeString(strings.Join(slugs, " ")))
	builder.WriteString(`">`)
	if label := strings.TrimSpace(field.Label); label != "" {
		builder.WriteString(`<legend>`)
		builder.WriteString(data.Text(label))
		builder.WriteString(`</legend>`)
	}

	for idx, raw := range asList(data.Value) {
		item := asMap(raw)
		slug, _ := item[BlockTypeKey].(string)
		block, ok := findBlock(field.Blocks, slug)
		if !ok {
			continue
		}
		scope := strconv.Itoa(idx)
		builder.WriteString(`<section class="mappoint-block" data-block="`)
		builder.WriteString(html.EscapeString(block.Slug))
		builder.WriteString(`">`)
		builder.WriteString(`<input type="hidden" name="`)
		builder.WriteString(html.EscapeString(joinPath(data.Path, scope, BlockTypeKey)))
		builder.WriteString(`" value="`)
		builder.WriteString(html.EscapeString(block.Slug))
		builder.WriteString(`">`)
		if err := writeChildren(&builder, scope, block.Fields, item, data); err != nil {
			return err
		}
		builder.WriteString(`</section>`)
	}
	builder.WriteString(`</fieldset>`)
	buf.WriteString(builder.String())
	return nil
}

func tabsRenderer(buf *bytes.Buffer, field schema.Field, data ComponentData) error {
	base := asMap(data.Value)

	var builder strings.Builder
	builder.WriteString(`<div class="mappoint-tabs"`)
	writeID(&builder, data.ControlID())
	builder.WriteString(`><div role="tablist">`)
	for idx, tab := range field.Tabs {
		builder.WriteString(`<button type="button" role="tab" data-tab="`)
		builder.WriteString(strconv.Itoa(idx))
		builder.WriteString(`" aria-selected="`)
		builder.WriteString(strconv.FormatBool(idx == 0))
		builder.WriteString(`">`)
		builder.WriteString(data.Text(tabTitle(tab)))
		builder.WriteString(`</button>`)
	}
	builder.WriteString(`</div>`)

	for idx, tab := range field.Tabs {
		scope, container := "", base
		if name := strings.TrimSpace(tab.Name); name != "" {
			scope, container = name, asMap(base[name])
		}
		builder.WriteString(`<div role="tabpanel" data-tab="`)
		builder.WriteString(strconv.Itoa(idx))
		builder.WriteString(`"`)
		if idx > 0 {
			builder.WriteString(` hidden`)
		}
		builder.WriteString(`>`)
		if err := writeChildren(&builder, scope, tab.Fields, container, data); err != nil {
			return err
		}
		builder.WriteString(`</div>`)
	}
	builder.WriteString(`</div>`)
	buf.WriteString(builder.String())
	return nil
}

func writeChildren(builder *strings.Builder, scope string, fields []schema.Field, container map[string]any, data ComponentData) error {
	if data.RenderChild == nil {
		return nil
	}
	for _, child := range fields {
		rendered, err := data.RenderChild(scope, child, container)
		if err != nil {
			return err
		}
		builder.WriteString(rendered)
	}
	return nil
}

func findBlock(blocks []schema.Block, slug string) (schema.Block, bool) {
	for _, block := range blocks {
		if block.Slug == slug {
			return block, true
		}
	}
	return schema.Block{}, false
}

func tabTitle(tab schema.Tab) string {
	if label := strings.TrimSpace(tab.Label); label != "" {
		return label
	}
	if name := strings.TrimSpace(tab.Name); name != "" {
		return name
	}
	return "Tab"
}

func writeID(builder *strings.Builder, id string) {
	if id == "" {
		return
	}
	builder.WriteString(` id="`)
	builder.WriteString(html.EscapeString(id))
	builder.WriteString(`"`)
}

func asMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

func asList(value any) []any {
	list, _ := value.([]any)
	return list
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func controlID(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	return "mp-" + strings.ReplaceAll(trimmed, ".", "-")
}

func labelIDFor(path string) string {
	id := controlID(path)
	if id == "" {
		return ""
	}
	return id + "-label"
}

func joinPath(parts ...string) string {
	keep := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			keep = append(keep, part)
		}
	}
	return strings.Join(keep, ".")
}
