package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")

	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Fatalf("CreateDirectoryIfNotExists() error = %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("created path is not a directory")
	}

	// Idempotent on existing directories
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Errorf("CreateDirectoryIfNotExists() on existing dir error = %v", err)
	}
}

func TestGetHomeDownloadsDir(t *testing.T) {
	dir, err := GetHomeDownloadsDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	if !strings.HasSuffix(dir, "Downloads") {
		t.Errorf("GetHomeDownloadsDir() = %s, expected a Downloads path", dir)
	}
}

func TestResolveExisting(t *testing.T) {
	if _, err := resolveExisting(""); err == nil {
		t.Error("resolveExisting(\"\") should fail")
	}

	if _, err := resolveExisting(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("resolveExisting() should fail for missing files")
	}

	file := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	abs, err := resolveExisting(file)
	if err != nil {
		t.Fatalf("resolveExisting() error = %v", err)
	}
	if !filepath.IsAbs(abs) {
		t.Errorf("resolveExisting() = %s, expected an absolute path", abs)
	}
}
