package render

// RenderOptions carries per-request data renderers use without touching the
// schema.
type RenderOptions struct {
	// Values is the document being edited, shaped like the schema: named
	// groups are objects, arrays and blocks are lists, points are [lng, lat].
	Values map[string]any
	// Errors holds field messages keyed by dotted path.
	Errors map[string][]string
	// FormErrors are messages not tied to a field.
	FormErrors []string
	// Hidden inputs emitted inside the form.
	Hidden map[string]string
}
