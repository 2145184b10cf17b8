package sniff

import (
	"regexp"

	"github.com/podjisin/tvd/internal/model"
)

// Media URL patterns. The query-string alternative matters because CDN URLs
// carry signing parameters after the extension.
var (
	mp4Pattern  = regexp.MustCompile(`(?i)\.mp4($|\?)`)
	m3u8Pattern = regexp.MustCompile(`(?i)\.m3u8($|\?)`)
)

// Classify maps a URL to a media kind by extension.
func Classify(rawURL string) model.MediaKind {
	switch {
	case mp4Pattern.MatchString(rawURL):
		return model.MediaKindMP4
	case m3u8Pattern.MatchString(rawURL):
		return model.MediaKindM3U8
	default:
		return model.MediaKindUnknown
	}
}
