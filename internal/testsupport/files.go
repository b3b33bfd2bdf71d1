package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// SeedFile writes placeholder bytes to path, creating parent directories.
// Useful for faking downloaded artifacts that stages only stat, not parse.
func SeedFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if content == "" {
		content = "x"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
