package tui

import (
	"errors"
	"strconv"
	"strings"
)

var errEmptyPath = errors.New("tui: empty value path")

// State tracks collected values and server-provided errors keyed by dotted
// paths. Numeric segments address list items.
type State struct {
	values map[string]any
	errors map[string][]string
}

// NewState seeds the state with prefilled values and errors. Both are copied.
func NewState(prefill map[string]any, errs map[string][]string) *State {
	values, _ := deepCopy(prefill).(map[string]any)
	if values == nil {
		values = make(map[string]any)
	}
	out := make(map[string][]string, len(errs))
	for path, messages := range errs {
		out[path] = append([]string(nil), messages...)
	}
	return &State{values: values, errors: out}
}

// Values returns the collected document.
func (s *State) Values() map[string]any {
	if s == nil {
		return nil
	}
	return s.values
}

// ErrorsFor returns the errors attached to a dotted path.
func (s *State) ErrorsFor(path string) []string {
	if s == nil {
		return nil
	}
	return s.errors[path]
}

// GetValue resolves a dotted path.
func (s *State) GetValue(path string) (any, bool) {
	if s == nil || path == "" {
		return nil, false
	}
	var current any = s.values
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// SetValue writes value at path, creating intermediate maps and lists.
func (s *State) SetValue(path string, value any) error {
	if s == nil || path == "" {
		return errEmptyPath
	}
	root := setPath(s.values, strings.Split(path, "."), value)
	s.values = root.(map[string]any)
	return nil
}

// Len reports the number of items stored in the list at path.
func (s *State) Len(path string) int {
	value, _ := s.GetValue(path)
	list, _ := value.([]any)
	return len(list)
}

func setPath(node any, segments []string, value any) any {
	if len(segments) == 0 {
		return value
	}
	segment := segments[0]
	// a numeric segment under an existing map is a plain key
	if idx, err := strconv.Atoi(segment); err == nil && idx >= 0 {
		if list, ok := node.([]any); ok || node == nil {
			for len(list) <= idx {
				list = append(list, nil)
			}
			list[idx] = setPath(list[idx], segments[1:], value)
			return list
		}
	}
	m, ok := node.(map[string]any)
	if !ok || m == nil {
		m = make(map[string]any)
	}
	m[segment] = setPath(m[segment], segments[1:], value)
	return m
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}
