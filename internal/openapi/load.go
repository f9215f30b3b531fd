package openapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	consts "github.com/khanhnv2901/hapi-cli/internal/shared/constants"
)

// Document is a parsed OpenAPI contract: the endpoint index plus what the
// report needs to know about the API.
type Document struct {
	Title   string
	Version string
	Index   *Index
	// Warnings collects non-fatal validation findings.
	Warnings []string
}

// Load reads a JSON or YAML OpenAPI file from disk.
func Load(ctx context.Context, path string) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, &SchemaError{Source: path, Reason: "unsupported file format, only JSON or YAML files are accepted"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SchemaError{Source: path, Reason: "cannot read file", Err: err}
	}

	doc, err := Parse(ctx, data)
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) && se.Source == "" {
			se.Source = path
		}
		return nil, err
	}
	return doc, nil
}

// Parse decodes an OpenAPI document held in memory. Documents starting with
// an object brace are read as JSON, everything else as YAML.
func Parse(ctx context.Context, data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &SchemaError{Reason: "document is empty"}
	}

	root, err := decodeNode(data)
	if err != nil {
		return nil, &SchemaError{Reason: "invalid JSON/YAML format", Err: err}
	}

	index, err := BuildIndex(root)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Title: consts.FallbackAPITitle,
		Index: index,
	}

	top := root
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = top.Content[0]
	}
	if info := mappingValue(top, "info"); info != nil {
		if title := mappingValue(info, "title"); title != nil && strings.TrimSpace(title.Value) != "" {
			doc.Title = strings.TrimSpace(title.Value)
		}
		if version := mappingValue(info, "version"); version != nil {
			doc.Version = version.Value
		}
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	spec, err := loader.LoadFromData(data)
	if err != nil {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("document could not be fully resolved: %v", err))
		return doc, nil
	}
	if err := spec.Validate(ctx); err != nil {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("document does not validate against OpenAPI 3: %v", err))
	}
	return doc, nil
}

func decodeNode(data []byte) (*yaml.Node, error) {
	if isJSON(data) {
		return decodeJSON(data)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}
