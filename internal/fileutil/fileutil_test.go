package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wallacegraphics/packslip/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestWriteTempFile - Content round-trip and cleanup
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	path, cleanup, err := fileutil.WriteTempFile("<html>slip</html>", "html")
	if err != nil {
		t.Fatalf("WriteTempFile() error = %v", err)
	}

	if !strings.HasSuffix(path, ".html") {
		t.Errorf("path = %q, want .html suffix", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading temp file: %v", err)
	}
	if string(content) != "<html>slip</html>" {
		t.Errorf("content = %q", content)
	}

	cleanup()
	if fileutil.FileExists(path) {
		t.Error("cleanup should remove the file")
	}
}

func TestWriteTempFileInvalidExtension(t *testing.T) {
	t.Parallel()

	if _, _, err := fileutil.WriteTempFile("x", ""); !errors.Is(err, fileutil.ErrExtensionEmpty) {
		t.Errorf("empty extension error = %v", err)
	}
	if _, _, err := fileutil.WriteTempFile("x", "../html"); !errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		t.Errorf("traversal extension error = %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestValidateExtension
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{"valid", "html", nil},
		{"empty", "", fileutil.ErrExtensionEmpty},
		{"forward slash", "a/b", fileutil.ErrExtensionPathTraversal},
		{"backslash", `a\b`, fileutil.ErrExtensionPathTraversal},
		{"null byte", "a\x00b", fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFileExists
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if !fileutil.FileExists(file) {
		t.Error("regular file should exist")
	}
	if fileutil.FileExists(dir) {
		t.Error("directories are not files")
	}
	if fileutil.FileExists(filepath.Join(dir, "missing")) {
		t.Error("missing path should not exist")
	}
}
