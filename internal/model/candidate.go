package model

import "sort"

// MediaKind classifies a sniffed media resource by container format.
type MediaKind string

const (
	MediaKindMP4     MediaKind = "mp4"
	MediaKindM3U8    MediaKind = "m3u8"
	MediaKindUnknown MediaKind = "unknown"
)

// LengthUnknown marks a candidate whose response did not report a Content-Length.
const LengthUnknown int64 = -1

// MediaCandidate is one media resource observed while rendering a post.
type MediaCandidate struct {
	URL           string    `json:"url"`
	Kind          MediaKind `json:"kind"`
	ContentType   string    `json:"content_type"`
	Status        int       `json:"status"`
	ContentLength int64     `json:"content_length"`
}

// Resolution is the outcome of rendering a post: every media candidate seen
// on the wire plus the user agent the browser session used. The user agent is
// replayed on follow-up requests so the CDN serves the same bytes.
type Resolution struct {
	Candidates []MediaCandidate
	UserAgent  string
}

// PickBest returns the preferred candidate: direct MP4 files beat streaming
// manifests, larger content-length breaks ties. Returns false for an empty slice.
func PickBest(candidates []MediaCandidate) (MediaCandidate, bool) {
	if len(candidates) == 0 {
		return MediaCandidate{}, false
	}

	sorted := make([]MediaCandidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := sorted[i].score(), sorted[j].score()
		if si.isMP4 != sj.isMP4 {
			return si.isMP4
		}
		return si.length > sj.length
	})

	return sorted[0], true
}

type candidateScore struct {
	isMP4  bool
	length int64
}

func (c MediaCandidate) score() candidateScore {
	length := c.ContentLength
	if length < 0 {
		length = 0
	}
	return candidateScore{isMP4: c.Kind == MediaKindMP4, length: length}
}

// Dedupe removes duplicate URLs keeping the first occurrence, which is
// usually the most complete response for that resource.
func Dedupe(candidates []MediaCandidate) []MediaCandidate {
	seen := make(map[string]struct{}, len(candidates))
	uniq := make([]MediaCandidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.URL]; ok {
			continue
		}
		seen[c.URL] = struct{}{}
		uniq = append(uniq, c)
	}
	return uniq
}
