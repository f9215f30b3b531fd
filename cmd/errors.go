package cmd

import (
	"errors"
	"fmt"
	"strings"

	consts "github.com/khanhnv2901/hapi-cli/internal/shared/constants"
	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
)

// UsageError marks an invalid invocation (bad flag, unknown check, missing
// required setting). It exits with status 2.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// ExitError carries an explicit exit status for an error that has already
// been reported to the operator.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// cobra reports these without a typed error.
var cobraUsagePrefixes = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"required flag",
	"accepts ",
	"invalid argument",
	"flag needs an argument",
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return consts.ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var usage *UsageError
	switch {
	case errors.Is(err, apperrors.ErrInterrupted):
		return consts.ExitInterrupted
	case errors.As(err, &usage),
		errors.Is(err, apperrors.ErrUnknownCheck),
		errors.Is(err, apperrors.ErrInvalidOption):
		return consts.ExitUsage
	}

	msg := err.Error()
	for _, prefix := range cobraUsagePrefixes {
		if strings.HasPrefix(msg, prefix) {
			return consts.ExitUsage
		}
	}
	return consts.ExitFailure
}
