package httputil

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid threads post", "https://www.threads.net/@user/post/C9xyz", false},
		{"valid cdn url", "https://scontent.cdninstagram.com/v/video.mp4?efg=abc", false},
		{"http rejected", "http://www.threads.net/@user/post/C9xyz", true},
		{"no host", "https://", true},
		{"garbage", "not a url\x7f://", true},
		{"empty", "", true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidateURL(test.url)
			if (err != nil) != test.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", test.url, err, test.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean name", "C9xyzABC", "C9xyzABC"},
		{"strips directories", "/etc/passwd", "passwd"},
		{"replaces separators", `a\b:c`, "a_b_c"},
		{"collapses whitespace", "a   b\t c", "a b c"},
		{"empty falls back", "", FallbackOutputName},
		{"dot falls back", ".", FallbackOutputName},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := SanitizeFilename(test.input); got != test.expected {
				t.Errorf("SanitizeFilename(%q) = %q, expected %q", test.input, got, test.expected)
			}
		})
	}
}

func TestSanitizeFilename_Caps(t *testing.T) {
	long := strings.Repeat("a", 500)
	if got := SanitizeFilename(long); len(got) != MaxFilenameLength {
		t.Errorf("SanitizeFilename() length = %d, expected %d", len(got), MaxFilenameLength)
	}
}

func TestDefaultOutputName(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"post url", "https://www.threads.net/@user/post/C9xyzABC", "C9xyzABC"},
		{"trailing slash", "https://www.threads.net/@user/post/C9xyzABC/", "C9xyzABC"},
		{"bare host", "https://www.threads.net/", FallbackOutputName},
		{"unparseable", "::::", FallbackOutputName},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := DefaultOutputName(test.url); got != test.expected {
				t.Errorf("DefaultOutputName(%q) = %q, expected %q", test.url, got, test.expected)
			}
		})
	}
}

func TestSafeDownloadPath(t *testing.T) {
	dir := t.TempDir()

	path, err := SafeDownloadPath(dir, "video.mp4")
	if err != nil {
		t.Fatalf("SafeDownloadPath() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("SafeDownloadPath() = %q, expected it inside %q", path, dir)
	}

	// Traversal attempts are neutralized by sanitization, never escape the dir
	path, err = SafeDownloadPath(dir, "../../escape.mp4")
	if err != nil {
		t.Fatalf("SafeDownloadPath() error = %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("SafeDownloadPath() = %q escapes %q", path, dir)
	}
}
