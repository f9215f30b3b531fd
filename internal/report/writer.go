package report

import (
	"errors"
	"fmt"
	"os"

	consts "github.com/khanhnv2901/hapi-cli/internal/shared/constants"
	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
	"github.com/khanhnv2901/hapi-cli/internal/shared/security"
)

// maxReportVersions bounds the "(n)" counter of a report file name.
const maxReportVersions = 10000

// WriteError is returned when a report file cannot be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("write report: %v", e.Err)
	}
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool {
	return target == apperrors.ErrOutputWrite
}

// BaseName returns the report file stem for an API title.
func BaseName(apiTitle string) string {
	title := security.SanitizeFileName(apiTitle)
	if title == "" {
		title = consts.FallbackAPITitle
	}
	return title + consts.ReportFileSuffix
}

// FileName returns the name of the given version of a report: version 0
// is "<base>.<ext>", later versions are "<base>(n).<ext>".
func FileName(apiTitle, ext string, version int) string {
	if version == 0 {
		return fmt.Sprintf("%s.%s", BaseName(apiTitle), ext)
	}
	return fmt.Sprintf("%s(%d).%s", BaseName(apiTitle), version, ext)
}

// Save writes content into dir under the report name derived from
// apiTitle. An existing report is never overwritten: the first free
// "(n)" version is used instead. It returns the path written.
func Save(dir, apiTitle, ext string, content []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, consts.DefaultDirPerm); err != nil {
		return "", &WriteError{Path: dir, Err: err}
	}

	for version := 0; version < maxReportVersions; version++ {
		path, err := security.ResolveWithin(dir, FileName(apiTitle, ext, version))
		if err != nil {
			return "", &WriteError{Err: err}
		}

		// #nosec G304 -- path is resolved within the output directory
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, consts.DefaultFilePerm)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", &WriteError{Path: path, Err: err}
		}

		if _, err := f.Write(content); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", &WriteError{Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			return "", &WriteError{Path: path, Err: err}
		}
		return path, nil
	}
	return "", &WriteError{Err: fmt.Errorf("more than %d reports named %s in %s", maxReportVersions, BaseName(apiTitle), dir)}
}
