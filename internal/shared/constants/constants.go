package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// ResponseBodyLimitBytes caps how many bytes of a response body the transport keeps.
	ResponseBodyLimitBytes = 64 * 1024
	// DefaultRequestTimeout bounds a single request when no timeout is configured.
	DefaultRequestTimeout = 10 * time.Second
	// ReportFileSuffix is appended to the API title when naming report files.
	ReportFileSuffix = "_hAPI_report"
	// FallbackAPITitle is used when the schema has no info.title.
	FallbackAPITitle = "API"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)
