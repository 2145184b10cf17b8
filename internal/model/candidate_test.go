package model

import "testing"

func TestPickBest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []MediaCandidate
		wantURL    string
		wantOK     bool
	}{
		{
			name:       "empty slice",
			candidates: nil,
			wantOK:     false,
		},
		{
			name: "mp4 beats m3u8 regardless of length",
			candidates: []MediaCandidate{
				{URL: "https://cdn.example.com/v.m3u8", Kind: MediaKindM3U8, ContentLength: 9999},
				{URL: "https://cdn.example.com/v.mp4", Kind: MediaKindMP4, ContentLength: 100},
			},
			wantURL: "https://cdn.example.com/v.mp4",
			wantOK:  true,
		},
		{
			name: "larger mp4 wins",
			candidates: []MediaCandidate{
				{URL: "https://cdn.example.com/low.mp4", Kind: MediaKindMP4, ContentLength: 1000},
				{URL: "https://cdn.example.com/high.mp4", Kind: MediaKindMP4, ContentLength: 5000},
			},
			wantURL: "https://cdn.example.com/high.mp4",
			wantOK:  true,
		},
		{
			name: "unknown length treated as zero",
			candidates: []MediaCandidate{
				{URL: "https://cdn.example.com/unknown.mp4", Kind: MediaKindMP4, ContentLength: LengthUnknown},
				{URL: "https://cdn.example.com/known.mp4", Kind: MediaKindMP4, ContentLength: 1},
			},
			wantURL: "https://cdn.example.com/known.mp4",
			wantOK:  true,
		},
		{
			name: "only manifests",
			candidates: []MediaCandidate{
				{URL: "https://cdn.example.com/a.m3u8", Kind: MediaKindM3U8, ContentLength: 10},
				{URL: "https://cdn.example.com/b.m3u8", Kind: MediaKindM3U8, ContentLength: 20},
			},
			wantURL: "https://cdn.example.com/b.m3u8",
			wantOK:  true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			best, ok := PickBest(test.candidates)
			if ok != test.wantOK {
				t.Fatalf("PickBest() ok = %v, expected %v", ok, test.wantOK)
			}
			if ok && best.URL != test.wantURL {
				t.Errorf("PickBest() = %s, expected %s", best.URL, test.wantURL)
			}
		})
	}
}

func TestPickBest_DoesNotMutateInput(t *testing.T) {
	candidates := []MediaCandidate{
		{URL: "https://cdn.example.com/a.m3u8", Kind: MediaKindM3U8},
		{URL: "https://cdn.example.com/b.mp4", Kind: MediaKindMP4},
	}

	if _, ok := PickBest(candidates); !ok {
		t.Fatal("expected a candidate")
	}

	if candidates[0].URL != "https://cdn.example.com/a.m3u8" {
		t.Error("PickBest reordered the caller's slice")
	}
}

func TestDedupe(t *testing.T) {
	candidates := []MediaCandidate{
		{URL: "https://cdn.example.com/v.mp4", Status: 200},
		{URL: "https://cdn.example.com/v.m3u8", Status: 200},
		{URL: "https://cdn.example.com/v.mp4", Status: 206},
	}

	uniq := Dedupe(candidates)
	if len(uniq) != 2 {
		t.Fatalf("Dedupe() returned %d candidates, expected 2", len(uniq))
	}

	// First occurrence must be kept
	if uniq[0].Status != 200 {
		t.Errorf("Dedupe() kept status %d, expected the first occurrence (200)", uniq[0].Status)
	}
}

func TestDedupe_Empty(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Errorf("Dedupe(nil) returned %d candidates, expected 0", len(got))
	}
}
