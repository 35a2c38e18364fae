package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-mappoint/pkg/annotator"
	"github.com/goliatone/go-mappoint/pkg/maps"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
	"github.com/goliatone/go-mappoint/pkg/render"
	"github.com/goliatone/go-mappoint/pkg/schema"
	"github.com/goliatone/go-mappoint/pkg/widget"
)

// Point field actions, in the order they are offered.
const (
	ActionCoordinates = "Enter coordinates"
	ActionSearch      = "Search location"
	ActionClear       = "Clear"
	ActionDone        = "Done"
)

var _ render.Renderer = (*Renderer)(nil)

// Renderer implements render.Renderer for terminal sessions. Each point field
// mounts a widget against an in-memory binding and offers typed coordinates,
// geocoder search and clear until the user is done.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	geocoder          widget.Geocoder
	env               options.EnvKeys
	mapOpts           []maps.Option
	submitTransformer SubmitTransformer
	theme             Theme
	logger            zerolog.Logger
}

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(opts ...Option) *Renderer {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for every field of the collection, seeded with opts.Values,
// and returns the collected document in the configured format.
func (r *Renderer) Render(ctx context.Context, form render.Form, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, ErrNilDriver
	}

	state := NewState(opts.Values, opts.Errors)
	for _, msg := range opts.FormErrors {
		r.errorf(ctx, "%s", msg)
	}
	if title := strings.TrimSpace(form.Title); title != "" {
		r.infof(ctx, "%s", title)
	}

	if err := r.promptFields(ctx, "", form.Collection.Fields, state); err != nil {
		return nil, err
	}

	values := state.Values()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(form.Collection, values)
}

func (r *Renderer) promptFields(ctx context.Context, prefix string, fields []schema.Field, state *State) error {
	for _, field := range fields {
		if err := r.promptField(ctx, prefix, field, state); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptField(ctx context.Context, prefix string, field schema.Field, state *State) error {
	path := joinPath(prefix, field.Name)
	for _, msg := range state.ErrorsFor(path) {
		r.errorf(ctx, "%s: %s", path, msg)
	}
	if field.Admin != nil && field.Admin.ReadOnly {
		return nil
	}

	switch field.Type {
	case schema.KindPoint:
		return r.promptPoint(ctx, path, field, state)
	case schema.KindArray:
		return r.promptArray(ctx, path, field, state)
	case schema.KindBlocks:
		return r.promptBlocks(ctx, path, field, state)
	case schema.KindTabs:
		for _, tab := range field.Tabs {
			if err := r.promptFields(ctx, joinPath(path, tab.Name), tab.Fields, state); err != nil {
				return err
			}
		}
		return nil
	case schema.KindGroup, schema.KindRow, schema.KindCollapsible:
		return r.promptFields(ctx, path, field.Fields, state)
	default:
		if len(field.Fields) > 0 {
			return r.promptFields(ctx, path, field.Fields, state)
		}
		return r.promptText(ctx, path, field, state)
	}
}

func (r *Renderer) promptText(ctx context.Context, path string, field schema.Field, state *State) error {
	if path == "" {
		return nil
	}
	label := displayLabel(field)
	defaultVal := ""
	if v, ok := state.GetValue(path); ok && v != nil {
		defaultVal = fmt.Sprint(v)
	}

	for {
		var response string
		var err error
		if field.Type == "textarea" {
			response, err = r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: defaultVal})
		} else {
			response, err = r.driver.Input(ctx, InputConfig{Message: label, Default: defaultVal})
		}
		if err != nil {
			return err
		}
		if field.Required && strings.TrimSpace(response) == "" {
			r.errorf(ctx, "%s: %s", path, render.MessageRequired)
			continue
		}
		return state.SetValue(path, response)
	}
}

func (r *Renderer) promptArray(ctx context.Context, path string, field schema.Field, state *State) error {
	if path == "" {
		return nil
	}
	existing := state.Len(path)
	if existing == 0 {
		add, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add items to %s?", displayLabel(field)),
			Default: field.Required,
		})
		if err != nil {
			return err
		}
		if !add {
			return state.SetValue(path, []any{})
		}
	}

	for idx := 0; ; idx++ {
		itemPath := joinPath(path, strconv.Itoa(idx))
		if _, ok := state.GetValue(itemPath); !ok {
			if err := state.SetValue(itemPath, map[string]any{}); err != nil {
				return err
			}
		}
		if err := r.promptFields(ctx, itemPath, field.Fields, state); err != nil {
			return err
		}
		if idx+1 < existing {
			continue
		}
		more, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Add another?"})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

func (r *Renderer) promptBlocks(ctx context.Context, path string, field schema.Field, state *State) error {
	if path == "" || len(field.Blocks) == 0 {
		return nil
	}
	count := state.Len(path)
	for idx := 0; idx < count; idx++ {
		itemPath := joinPath(path, strconv.Itoa(idx))
		slug, _ := state.GetValue(joinPath(itemPath, render.BlockTypeKey))
		block, ok := findBlock(field.Blocks, fmt.Sprint(slug))
		if !ok {
			r.logger.Warn().Str("path", itemPath).Interface("blockType", slug).Msg("skipping unknown block")
			continue
		}
		if err := r.promptFields(ctx, itemPath, block.Fields, state); err != nil {
			return err
		}
	}

	slugs := make([]string, len(field.Blocks))
	for i, block := range field.Blocks {
		slugs[i] = block.Slug
	}
	for idx := count; ; idx++ {
		add, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add a block to %s?", displayLabel(field)),
		})
		if err != nil {
			return err
		}
		if !add {
			if idx == 0 {
				return state.SetValue(path, []any{})
			}
			return nil
		}
		choice, err := r.driver.Select(ctx, SelectConfig{Message: "Block type", Options: slugs})
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(slugs) {
			r.errorf(ctx, "%s: invalid block selection", path)
			idx--
			continue
		}
		itemPath := joinPath(path, strconv.Itoa(idx))
		if err := state.SetValue(itemPath, map[string]any{render.BlockTypeKey: slugs[choice]}); err != nil {
			return err
		}
		if err := r.promptFields(ctx, itemPath, field.Blocks[choice].Fields, state); err != nil {
			return err
		}
	}
}

func (r *Renderer) promptPoint(ctx context.Context, path string, field schema.Field, state *State) error {
	if path == "" {
		r.logger.Warn().Msg("skipping unnamed point field")
		return nil
	}

	var current *point.Point
	if raw, ok := state.GetValue(path); ok {
		parsed, err := point.Parse(raw)
		if err != nil {
			r.logger.Warn().Err(err).Str("path", path).Msg("ignoring malformed point value")
		} else {
			current = parsed
		}
	}

	cfg := widget.ConfigFromOptions(field.MapPoint(), annotator.FieldPublicKey(field), r.env)
	binding := widget.NewMemoryBinding(current)
	w, err := widget.New(cfg, binding,
		widget.WithGeocoder(r.geocoder),
		widget.WithLogger(r.logger),
		widget.WithMapOptions(r.mapOpts...),
	)
	if err != nil {
		return fmt.Errorf("tui: %s: %w", path, err)
	}
	if err := w.Mount(maps.NewContainerID("tui"), maps.ThemeLight); err != nil {
		return fmt.Errorf("tui: %s: mount: %w", path, err)
	}
	defer w.Unmount()

	if msg := cfg.MissingKeyMessage(); msg != "" {
		r.infof(ctx, "%s", msg)
	}

	label := displayLabel(field)
	for {
		st := w.State()
		actions := []string{ActionCoordinates}
		if st.SearchEnabled && r.geocoder != nil {
			actions = append(actions, ActionSearch)
		}
		if st.CanClear {
			actions = append(actions, ActionClear)
		}
		actions = append(actions, ActionDone)

		defaultIdx := 0
		if st.Value != nil {
			defaultIdx = len(actions) - 1
		}
		choice, err := r.driver.Select(ctx, SelectConfig{
			Message:      fmt.Sprintf("%s (%s)", label, st.Footer),
			Options:      actions,
			DefaultIndex: defaultIdx,
		})
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(actions) {
			continue
		}

		switch actions[choice] {
		case ActionCoordinates:
			if err := r.enterCoordinates(ctx, w, binding, path); err != nil {
				return err
			}
		case ActionSearch:
			query, err := r.driver.Input(ctx, InputConfig{Message: st.SearchPlaceholder})
			if err != nil {
				return err
			}
			if strings.TrimSpace(query) == "" {
				continue
			}
			if !w.Search(ctx, query) {
				if err := ctx.Err(); err != nil {
					return err
				}
				r.infof(ctx, "No result for %q", query)
			}
		case ActionClear:
			w.Clear()
		case ActionDone:
			if field.Required && binding.Value() == nil {
				r.errorf(ctx, "%s: %s", path, render.MessageRequired)
				continue
			}
			return state.SetValue(path, pointValue(binding.Value()))
		}
	}
}

func (r *Renderer) enterCoordinates(ctx context.Context, w *widget.Widget, binding *widget.MemoryBinding, path string) error {
	defaultVal := ""
	if value := binding.Value(); value != nil {
		defaultVal = strconv.FormatFloat(value.Lng(), 'f', -1, 64) + ", " + strconv.FormatFloat(value.Lat(), 'f', -1, 64)
	}
	raw, err := r.driver.Input(ctx, InputConfig{
		Message: "Coordinates (lng, lat)",
		Default: defaultVal,
		Validator: func(s string) error {
			_, err := point.ParseString(s)
			return err
		},
	})
	if err != nil {
		return err
	}
	pt, err := point.ParseString(raw)
	if err != nil {
		r.errorf(ctx, "%s: %s", path, render.MessageInvalidPoint)
		return nil
	}
	if pt == nil {
		w.Clear()
		return nil
	}
	// without a mounted map there is nothing to click; write through the binding
	if !w.Pick(*pt) {
		binding.SetValue(pt)
	}
	return nil
}

func (r *Renderer) infof(ctx context.Context, format string, args ...any) {
	_ = r.driver.Info(ctx, r.theme.InfoPrefix+fmt.Sprintf(format, args...))
}

func (r *Renderer) errorf(ctx context.Context, format string, args ...any) {
	_ = r.driver.Info(ctx, r.theme.ErrorPrefix+fmt.Sprintf(format, args...))
}

func (r *Renderer) serialize(collection schema.Collection, values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(collection, values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func displayLabel(field schema.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func pointValue(p *point.Point) any {
	if p == nil {
		return nil
	}
	return []any{p.Lng(), p.Lat()}
}

func findBlock(blocks []schema.Block, slug string) (schema.Block, bool) {
	for _, block := range blocks {
		if block.Slug == slug {
			return block, true
		}
	}
	return schema.Block{}, false
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

// flattenForm encodes values with the dotted paths DecodeSubmission reads.
// Point values are written as JSON arrays.
func flattenForm(collection schema.Collection, values map[string]any) string {
	points := make(map[string]struct{})
	pointShapes("", collection.Fields, points)
	out := url.Values{}
	flatten("", "", values, points, out)
	return out.Encode()
}

// pointShapes collects point field paths as they appear in a document, with
// list indexes dropped. Block slugs never appear in document paths.
func pointShapes(prefix string, fields []schema.Field, out map[string]struct{}) {
	for _, field := range fields {
		path := joinPath(prefix, field.Name)
		if field.IsPoint() && path != "" {
			out[path] = struct{}{}
		}
		pointShapes(path, field.Fields, out)
		for _, block := range field.Blocks {
			pointShapes(path, block.Fields, out)
		}
		for _, tab := range field.Tabs {
			pointShapes(joinPath(path, tab.Name), tab.Fields, out)
		}
	}
}

// flatten walks value; shape is the path with list indexes dropped, used to
// recognise point fields inside arrays and blocks.
func flatten(prefix, shape string, value any, points map[string]struct{}, out url.Values) {
	if _, ok := points[shape]; ok && shape != "" {
		if value == nil {
			out.Set(prefix, "null")
			return
		}
		encoded, err := json.Marshal(value)
		if err == nil {
			out.Set(prefix, string(encoded))
		}
		return
	}
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			flatten(joinPath(prefix, key), joinPath(shape, key), val, points, out)
		}
	case []any:
		for idx, val := range v {
			flatten(joinPath(prefix, strconv.Itoa(idx)), shape, val, points, out)
		}
	case nil:
		out.Set(prefix, "")
	default:
		out.Set(prefix, fmt.Sprint(v))
	}
}

func prettyPrint(values map[string]any) string {
	var b strings.Builder
	writePretty(&b, "", values)
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			writePretty(b, joinPath(prefix, key), v[key])
		}
	case []any:
		if pt, err := point.Parse(v); err == nil && pt != nil {
			fmt.Fprintf(b, "%s=%s\n", prefix, point.Format(pt))
			return
		}
		for idx, val := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), val)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, v)
		}
	}
}
