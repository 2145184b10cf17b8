package sniff

import (
	"testing"

	"github.com/podjisin/tvd/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url      string
		expected model.MediaKind
	}{
		{"https://cdn.example.com/video.mp4", model.MediaKindMP4},
		{"https://cdn.example.com/video.MP4", model.MediaKindMP4},
		{"https://cdn.example.com/video.mp4?efg=abc&oh=def", model.MediaKindMP4},
		{"https://cdn.example.com/stream.m3u8", model.MediaKindM3U8},
		{"https://cdn.example.com/stream.M3U8?token=xyz", model.MediaKindM3U8},
		{"https://cdn.example.com/video.mp4.jpg", model.MediaKindUnknown},
		{"https://cdn.example.com/page.html", model.MediaKindUnknown},
		{"https://cdn.example.com/mp4", model.MediaKindUnknown},
		{"", model.MediaKindUnknown},
	}

	for _, test := range tests {
		if got := Classify(test.url); got != test.expected {
			t.Errorf("Classify(%q) = %s, expected %s", test.url, got, test.expected)
		}
	}
}
