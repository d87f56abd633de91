// Package openapi loads the API contract so the server refuses to start on a broken document.
package openapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document is a validated API contract together with its raw bytes.
type Document struct {
	Spec *openapi3.T
	raw  []byte
	path string
}

// Load reads and validates the OpenAPI document at path.
func Load(ctx context.Context, path string) (*Document, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	spec, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi %s: %w", path, err)
	}
	if err := spec.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi %s: %w", path, err)
	}

	raw, err := spec.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode openapi %s: %w", path, err)
	}
	return &Document{Spec: spec, raw: raw, path: path}, nil
}

// Operations lists "METHOD path" for every operation in the document.
func (d *Document) Operations() []string {
	var ops []string
	for _, path := range d.Spec.Paths.InMatchingOrder() {
		item := d.Spec.Paths.Value(path)
		for method := range item.Operations() {
			ops = append(ops, method+" "+path)
		}
	}
	return ops
}

// ServeYAML serves the document file as written.
func (d *Document) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	http.ServeFile(w, r, d.path)
}

// ServeJSON serves the validated document as JSON.
func (d *Document) ServeJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(d.raw)
}
