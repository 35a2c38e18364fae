package widget

import (
	"sync"

	"github.com/goliatone/go-mappoint/pkg/point"
)

// Binding is the host-provided field state.
type Binding interface {
	Value() *point.Point
	SetValue(*point.Point)
}

// BindingFuncs adapts a getter/setter pair to Binding.
type BindingFuncs struct {
	Get func() *point.Point
	Set func(*point.Point)
}

// Value implements Binding.
func (b BindingFuncs) Value() *point.Point {
	if b.Get == nil {
		return nil
	}
	return b.Get()
}

// SetValue implements Binding.
func (b BindingFuncs) SetValue(value *point.Point) {
	if b.Set != nil {
		b.Set(value)
	}
}

// MemoryBinding keeps the value in memory. It is used by the CLI and tests.
type MemoryBinding struct {
	mu     sync.Mutex
	value  *point.Point
	writes int
}

// NewMemoryBinding returns a binding holding initial.
func NewMemoryBinding(initial *point.Point) *MemoryBinding {
	b := &MemoryBinding{}
	if initial != nil {
		b.value = point.Ptr(*initial)
	}
	return b
}

// Value implements Binding.
func (b *MemoryBinding) Value() *point.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.value == nil {
		return nil
	}
	return point.Ptr(*b.value)
}

// SetValue implements Binding.
func (b *MemoryBinding) SetValue(value *point.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	if value == nil {
		b.value = nil
		return
	}
	b.value = point.Ptr(*value)
}

// Writes counts SetValue calls.
func (b *MemoryBinding) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}
