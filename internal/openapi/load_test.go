package openapi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
)

func TestLoad_JSON(t *testing.T) {
	doc, err := Load(context.Background(), filepath.Join("testdata", "petstore.json"))
	require.NoError(t, err)

	assert.Equal(t, "Swagger Petstore", doc.Title)
	assert.Equal(t, "1.0.0", doc.Version)
	assert.Equal(t, []string{"/pet", "/pet/findByStatus", "/user/login"}, doc.Index.Paths())
	assert.Equal(t, []string{"put", "post"}, doc.Index.Verbs("/pet"))

	codes, ok := doc.Index.ResponseCodes("/pet", "put")
	require.True(t, ok)
	assert.Equal(t, []string{"200", "400", "404"}, codes)
	for _, w := range doc.Warnings {
		assert.NotContains(t, w, "could not be fully resolved")
	}
}

func TestParse_JSONEscapedSlash(t *testing.T) {
	data := []byte(`{
  "openapi": "3.0.0",
  "info": {"title": "Escapes \/ API", "version": "1"},
  "paths": {
    "\/users": {"get": {"responses": {"200": {"description": "ok"}}}},
    "\/users\/{id}": {"delete": {"responses": {"204": {"description": "gone"}}}}
  }
}`)

	doc, err := Parse(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "Escapes / API", doc.Title)
	assert.Equal(t, []string{"/users", "/users/{id}"}, doc.Index.Paths())
	assert.Equal(t, []string{"get"}, doc.Index.Verbs("/users"))
	assert.Equal(t, []string{"delete"}, doc.Index.Verbs("/users/{id}"))
}

func TestParse_JSONTrailingData(t *testing.T) {
	_, err := Parse(context.Background(), []byte(`{"openapi": "3.0.0", "paths": {}} {}`))
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.True(t, errors.Is(err, apperrors.ErrSchema))
}

func TestLoad_YAML(t *testing.T) {
	doc, err := Load(context.Background(), filepath.Join("testdata", "petstore.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"/store/inventory", "/pet/{petId}"}, doc.Index.Paths())
	assert.Equal(t, []string{"get", "delete"}, doc.Index.Verbs("/pet/{petId}"))

	codes, ok := doc.Index.ResponseCodes("/pet/{petId}", "get")
	require.True(t, ok)
	assert.Equal(t, []string{"200", "404"}, codes)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(context.Background(), "schema.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSchema))
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSchema))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_InvalidSyntax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"paths": {`), 0o600))

	_, err := Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSchema))
	assert.Contains(t, err.Error(), path)
}

func TestParse_TitleFallback(t *testing.T) {
	doc, err := Parse(context.Background(), []byte("paths: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "API", doc.Title)
	assert.Equal(t, 0, doc.Index.Len())
	assert.NotEmpty(t, doc.Warnings)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(context.Background(), []byte("  \n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSchema))
}
