package checker

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/khanhnv2901/hapi-cli/internal/openapi"
	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
	"github.com/khanhnv2901/hapi-cli/internal/transport"
)

type fakeSender struct {
	handler  func(req transport.Request) (*transport.Response, error)
	requests []transport.Request
}

func (f *fakeSender) Send(_ context.Context, req transport.Request) (*transport.Response, error) {
	f.requests = append(f.requests, req)
	if f.handler == nil {
		return &transport.Response{StatusCode: http.StatusOK, Header: http.Header{}}, nil
	}
	return f.handler(req)
}

func statusResponse(code int, header http.Header) *transport.Response {
	if header == nil {
		header = http.Header{}
	}
	return &transport.Response{StatusCode: code, Header: header}
}

var errConnRefused = &transport.Error{Method: http.MethodGet, URL: "http://127.0.0.1:1", Err: errors.New("connection refused")}

func mustIndex(t *testing.T, items ...openapi.PathItem) *openapi.Index {
	t.Helper()
	ix, err := openapi.NewIndex(items)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return ix
}

func testEnv(t *testing.T, sender Sender, index *openapi.Index) Env {
	t.Helper()
	return Env{
		Sender: sender,
		Index:  index,
		Rand:   rand.New(rand.NewPCG(1, 2)),
		Logger: zaptest.NewLogger(t).Sugar(),
	}
}

func newCheck(t *testing.T, name string, env Env, overrides OptionValues) Check {
	t.Helper()
	d, ok := Default().Lookup(name)
	if !ok {
		t.Fatalf("check %s not registered", name)
	}
	cfg, err := d.Configure(overrides)
	if err != nil {
		t.Fatalf("Configure(%v): %v", overrides, err)
	}
	c, err := d.Instantiate(env, cfg)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	return c
}

func runCheck(t *testing.T, c Check) (Result, Section) {
	t.Helper()
	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result, c.Format(result)
}

func isInvalidOption(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidOption)
}
