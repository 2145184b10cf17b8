package sniff

import (
	"strings"
	"testing"

	"github.com/chromedp/cdproto/network"

	"github.com/podjisin/tvd/internal/model"
)

func TestHeaderContentLength(t *testing.T) {
	tests := []struct {
		name    string
		headers network.Headers
		want    int64
	}{
		{
			name:    "canonical casing",
			headers: network.Headers{"Content-Length": "12345"},
			want:    12345,
		},
		{
			name:    "lowercase",
			headers: network.Headers{"content-length": "99"},
			want:    99,
		},
		{
			name:    "missing",
			headers: network.Headers{"Content-Type": "video/mp4"},
			want:    model.LengthUnknown,
		},
		{
			name:    "non-numeric value",
			headers: network.Headers{"Content-Length": "banana"},
			want:    model.LengthUnknown,
		},
		{
			name:    "non-string value",
			headers: network.Headers{"Content-Length": 42},
			want:    model.LengthUnknown,
		},
		{
			name:    "empty",
			headers: network.Headers{},
			want:    model.LengthUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headerContentLength(tt.headers); got != tt.want {
				t.Errorf("headerContentLength() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTruncateURL(t *testing.T) {
	short := "https://cdn.example.com/v.mp4"
	if got := truncateURL(short); got != short {
		t.Errorf("truncateURL() altered a short URL: %s", got)
	}

	long := "https://cdn.example.com/" + strings.Repeat("x", 200)
	got := truncateURL(long)
	if len(got) != 83 {
		t.Errorf("truncateURL() length = %d, want 83", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncateURL() should end with ellipsis, got %s", got)
	}
}

func TestNew_DefaultLogger(t *testing.T) {
	s := New(nil)
	if s.log == nil {
		t.Error("New(nil) should fall back to the standard logger")
	}
}
