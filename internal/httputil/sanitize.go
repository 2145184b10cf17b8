package httputil

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxFilenameLength caps derived filenames so they stay portable.
const MaxFilenameLength = 200

// FallbackOutputName is used when no usable name can be derived from a post URL.
const FallbackOutputName = "threads_video"

var collapseSpaces = regexp.MustCompile(`\s+`)

// ValidateURL checks that a URL is well-formed and uses HTTPS.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// SanitizeFilename removes path traversal and dangerous characters from a
// filename. Returns just the base name, stripped of any directory components.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)

	replacer := strings.NewReplacer(
		"..", "_",
		"/", "_",
		"\\", "_",
		"\x00", "",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)
	name = strings.TrimSpace(collapseSpaces.ReplaceAllString(name, " "))

	if len(name) > MaxFilenameLength {
		name = name[:MaxFilenameLength]
	}

	if name == "" || name == "." || name == ".." {
		return FallbackOutputName
	}

	return name
}

// DefaultOutputName derives an output base name from a post URL: the last
// non-empty path segment (the post ID), sanitized.
func DefaultOutputName(postURL string) string {
	u, err := url.Parse(postURL)
	if err != nil {
		return FallbackOutputName
	}

	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return SanitizeFilename(segments[i])
		}
	}
	return FallbackOutputName
}

// SafeDownloadPath resolves and validates a download path ensuring it stays
// within the target directory.
func SafeDownloadPath(dir, filename string) (string, error) {
	sanitized := SanitizeFilename(filename)

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	resolved, err := filepath.Abs(filepath.Join(absDir, sanitized))
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	if !strings.HasPrefix(resolved, absDir+string(filepath.Separator)) && resolved != absDir {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", resolved, absDir)
	}

	return resolved, nil
}
