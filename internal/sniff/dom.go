package sniff

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/podjisin/tvd/internal/model"
)

// ExtractFromHTML scrapes the rendered DOM for media URLs when network
// sniffing saw nothing: video elements and Open Graph video meta tags.
// Relative URLs are resolved against the page URL.
func ExtractFromHTML(pageHTML, pageURL string) []model.MediaCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var candidates []model.MediaCandidate

	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		if base != nil {
			if ref, err := url.Parse(raw); err == nil {
				raw = base.ResolveReference(ref).String()
			}
		}
		kind := Classify(raw)
		if kind == model.MediaKindUnknown {
			return
		}
		candidates = append(candidates, model.MediaCandidate{
			URL:           raw,
			Kind:          kind,
			ContentLength: model.LengthUnknown,
		})
	}

	doc.Find("video[src], video source[src]").Each(func(i int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			add(src)
		}
	})

	metaSelectors := "meta[property='og:video'], meta[property='og:video:url'], meta[property='og:video:secure_url']"
	doc.Find(metaSelectors).Each(func(i int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok {
			add(content)
		}
	})

	return model.Dedupe(candidates)
}

// LooksRestricted reports whether the rendered page is a login wall instead
// of the post content.
func LooksRestricted(pageHTML string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return false
	}

	if doc.Find("input[type='password']").Length() > 0 {
		return true
	}
	if doc.Find("form[action*='login']").Length() > 0 {
		return true
	}
	return false
}
