package errors

import "errors"

// Domain errors
var (
	// Input errors
	ErrSchema              = errors.New("invalid OpenAPI schema")
	ErrUnknownCheck        = errors.New("unknown check")
	ErrEndpointNotInSchema = errors.New("endpoint not found in schema")
	ErrInvalidOption       = errors.New("invalid check option")

	// Runtime errors
	ErrTransport         = errors.New("request failed")
	ErrOutputWrite       = errors.New("report could not be written")
	ErrInterrupted       = errors.New("assessment interrupted")
	ErrInvalidTransition = errors.New("invalid check state transition")

	// Registry errors
	ErrInvalidDescriptor = errors.New("invalid check descriptor")
	ErrDuplicateCheck    = errors.New("check already registered")
)
