package geocode

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"
)

// OpenAPIPath is appended to the endpoint route to serve its description.
const OpenAPIPath = "/openapi.json"

//go:embed openapi.yaml
var openAPIDocument []byte

// OpenAPIDocument returns the embedded YAML description.
func OpenAPIDocument() []byte {
	return bytes.Clone(openAPIDocument)
}

// LoadOpenAPI parses and validates the embedded description. When mountPath
// is set the endpoint path is rewritten to it.
func LoadOpenAPI(ctx context.Context, mountPath string) (*openapi3.T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("geocode: load openapi: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("geocode: validate openapi: %w", err)
	}
	if mountPath != "" && mountPath != defaultRoutePath && doc.Paths != nil {
		paths := openapi3.NewPaths()
		for path, item := range doc.Paths.Map() {
			if path == defaultRoutePath {
				path = mountPath
			}
			paths.Set(path, item)
		}
		doc.Paths = paths
	}
	return doc, nil
}

// OpenAPIHandler serves the description as JSON for the endpoint mounted at
// mountPath. The document is loaded once.
func OpenAPIHandler(mountPath string) (http.Handler, error) {
	doc, err := LoadOpenAPI(context.Background(), mountPath)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("geocode: encode openapi: %w", err)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(payload)
	}), nil
}
