package checker

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/khanhnv2901/hapi-cli/internal/openapi"
	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
	"github.com/khanhnv2901/hapi-cli/internal/transport"
)

// EndpointNotInSchemaError is returned when an operator-supplied endpoint
// has no matching path in the schema.
type EndpointNotInSchemaError struct {
	Endpoint   string
	Suggestion string
}

func (e *EndpointNotInSchemaError) Error() string {
	msg := fmt.Sprintf("endpoint %q not found in schema", e.Endpoint)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(", did you mean %q?", e.Suggestion)
	}
	return msg
}

func (e *EndpointNotInSchemaError) Is(target error) bool {
	return target == apperrors.ErrEndpointNotInSchema
}

// sampleEndpoints picks up to n distinct paths using rng.
func sampleEndpoints(rng *rand.Rand, paths []string, n int) []string {
	if n >= len(paths) {
		n = len(paths)
	}
	out := make([]string, 0, n)
	for _, i := range rng.Perm(len(paths))[:n] {
		out = append(out, paths[i])
	}
	return out
}

// cleanEndpoints trims whitespace and drops empty entries.
func cleanEndpoints(endpoints []string) []string {
	out := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// selectEndpoints returns the explicit endpoints if any were configured,
// otherwise a random sample of at most n schema paths.
func selectEndpoints(env Env, explicit []string, n int) []string {
	if explicit = cleanEndpoints(explicit); len(explicit) > 0 {
		return explicit
	}
	return sampleEndpoints(env.Rand, env.Index.Paths(), n)
}

// resolveSchemaEndpoint maps an operator-supplied endpoint to its schema path.
func resolveSchemaEndpoint(index *openapi.Index, endpoint string) (string, error) {
	if path, ok := index.Lookup(endpoint); ok {
		return path, nil
	}
	suggestion, _ := index.Closest(endpoint)
	return "", &EndpointNotInSchemaError{Endpoint: endpoint, Suggestion: suggestion}
}

// send checks for cancellation before issuing req.
func send(ctx context.Context, sender Sender, req transport.Request) (*transport.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sender.Send(ctx, req)
}

const noEndpointsWarning = "No endpoints were specified and the schema declares none, so no requests were sent."
