package render

import (
	"context"

	"github.com/goliatone/go-mappoint/pkg/schema"
)

// Form identifies the collection form being rendered.
type Form struct {
	Title      string
	Action     string
	Collection schema.Collection
}

// Renderer converts a collection form into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form Form, options RenderOptions) ([]byte, error)
}
