package vanilla

// ChromeClass is a typed identifier for semantic page chrome CSS classes.
type ChromeClass string

const (
	ClassPage    ChromeClass = "mappoint-page"
	ClassForm    ChromeClass = "mappoint-form"
	ClassHeader  ChromeClass = "mappoint-header"
	ClassField   ChromeClass = "mappoint-field-wrapper"
	ClassActions ChromeClass = "mappoint-actions"
)

// ChromeClasses overrides the default chrome classes. Empty entries keep the
// default.
type ChromeClasses struct {
	Page    string
	Form    string
	Header  string
	Field   string
	Actions string
}

func (c ChromeClasses) resolve() map[string]string {
	return map[string]string{
		"page":    pick(c.Page, ClassPage),
		"form":    pick(c.Form, ClassForm),
		"header":  pick(c.Header, ClassHeader),
		"field":   pick(c.Field, ClassField),
		"actions": pick(c.Actions, ClassActions),
	}
}

func pick(value string, fallback ChromeClass) string {
	if value = sanitizeClassList(value); value != "" {
		return value
	}
	return string(fallback)
}
