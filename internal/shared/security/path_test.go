package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveWithinValidPath(t *testing.T) {
	base := t.TempDir()

	resolved, err := ResolveWithin(base, "report.html")
	if err != nil {
		t.Fatalf("ResolveWithin returned error: %v", err)
	}
	if !strings.HasPrefix(resolved, base) {
		t.Fatalf("expected resolved path %s to stay within base %s", resolved, base)
	}

	if err := os.WriteFile(resolved, []byte("ok"), 0o600); err != nil {
		t.Fatalf("failed to write resolved file: %v", err)
	}
}

func TestResolveWithinBlocksEscape(t *testing.T) {
	base := t.TempDir()
	_, err := ResolveWithin(base, "..", "etc", "passwd")
	if !errors.Is(err, ErrPathEscape) {
		t.Fatalf("expected ErrPathEscape, got %v", err)
	}
}

func TestResolveWithinEmptyBase(t *testing.T) {
	_, err := ResolveWithin("", "some", "path")
	if err == nil {
		t.Fatal("expected error for empty base directory")
	}
	if err.Error() != "base directory is required" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestResolveWithinMultipleElements(t *testing.T) {
	base := t.TempDir()

	resolved, err := ResolveWithin(base, "a", "b", "file.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := filepath.Join(base, "a", "b", "file.txt")
	if resolved != expected {
		t.Errorf("expected %s, got %s", expected, resolved)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "spaces", in: "Swagger Petstore", want: "Swagger_Petstore"},
		{name: "separators", in: "../etc/passwd", want: "etcpasswd"},
		{name: "windows separators", in: `a\b:c`, want: "abc"},
		{name: "trimmed", in: "  Pets API  ", want: "Pets_API"},
		{name: "only dots", in: "..", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.in); got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
