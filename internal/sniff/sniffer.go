package sniff

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/podjisin/tvd/internal/httputil"
	"github.com/podjisin/tvd/internal/model"
)

const (
	// DefaultTimeout bounds how long the session waits for media responses.
	DefaultTimeout = 35 * time.Second

	// sessionGrace covers browser startup and teardown beyond the sniff window.
	sessionGrace = 25 * time.Second

	pollInterval = 500 * time.Millisecond

	// lingerAfterFirst lets late variants of the same video arrive before the
	// session closes.
	lingerAfterFirst = time.Second

	// Default Chromium window dimensions, used to aim the playback click.
	viewportWidth  = 1280
	viewportHeight = 800
)

// Sniffer locates media resources by rendering posts in a browser session.
type Sniffer struct {
	log   *logrus.Logger
	onLog func(string)
	mu    sync.Mutex
}

// New creates a sniffer. A nil logger falls back to the standard logrus logger.
func New(log *logrus.Logger) *Sniffer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sniffer{log: log}
}

// SetLogCallback mirrors sniffer log lines to the given function, used by the
// GUI log panel.
func (s *Sniffer) SetLogCallback(fn func(string)) {
	s.mu.Lock()
	s.onLog = fn
	s.mu.Unlock()
}

func (s *Sniffer) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.log.Info(msg)
	s.mu.Lock()
	fn := s.onLog
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// Locate renders the post and returns every media candidate observed, plus
// the session user agent. Candidates are deduplicated preserving first
// occurrence. Returns model.ErrRestrictedPost when the page is a login wall
// and model.ErrNoMedia when nothing was found before the deadline.
func (s *Sniffer) Locate(ctx context.Context, req model.ResolveRequest) (*model.Resolution, error) {
	if err := httputil.ValidateURL(req.PostURL); err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.WindowSize(viewportWidth, viewportHeight),
	)
	if req.Headful {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if req.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(req.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout+sessionGrace)
	defer cancelTimeout()

	var (
		candMu     sync.Mutex
		candidates []model.MediaCandidate
	)

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok {
			return
		}
		kind := Classify(resp.Response.URL)
		if kind == model.MediaKindUnknown {
			return
		}

		candMu.Lock()
		candidates = append(candidates, model.MediaCandidate{
			URL:           resp.Response.URL,
			Kind:          kind,
			ContentType:   resp.Response.MimeType,
			Status:        int(resp.Response.Status),
			ContentLength: headerContentLength(resp.Response.Headers),
		})
		candMu.Unlock()

		s.logf("Found %s: %s", kind, truncateURL(resp.Response.URL))
	})

	s.logf("Loading %s", req.PostURL)
	if err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(req.PostURL),
	); err != nil {
		return nil, fmt.Errorf("loading post: %w", err)
	}

	var userAgent string
	if err := chromedp.Run(browserCtx,
		chromedp.Evaluate(`navigator.userAgent`, &userAgent),
	); err != nil {
		return nil, fmt.Errorf("reading user agent: %w", err)
	}

	count := func() int {
		candMu.Lock()
		defer candMu.Unlock()
		return len(candidates)
	}

	deadline := time.Now().Add(timeout)
	nudged := false
	for time.Now().Before(deadline) {
		if count() > 0 {
			time.Sleep(lingerAfterFirst)
			break
		}

		if !nudged {
			nudged = true
			// Threads sometimes waits for a user gesture before fetching media.
			if err := chromedp.Run(browserCtx, playbackNudge()); err != nil {
				s.log.WithError(err).Debug("playback nudge failed")
			}
			continue
		}

		select {
		case <-browserCtx.Done():
			return nil, fmt.Errorf("browser session ended: %w", browserCtx.Err())
		case <-time.After(pollInterval):
		}
	}

	candMu.Lock()
	found := model.Dedupe(candidates)
	candMu.Unlock()

	restricted := false
	if len(found) == 0 {
		found, restricted = s.domFallback(browserCtx, req.PostURL)
	}
	if len(found) == 0 {
		if restricted {
			return nil, model.ErrRestrictedPost
		}
		return nil, model.ErrNoMedia
	}

	return &model.Resolution{Candidates: found, UserAgent: userAgent}, nil
}

// domFallback scrapes the rendered page when network sniffing saw nothing.
// The second return reports whether the page looks like a login wall.
func (s *Sniffer) domFallback(browserCtx context.Context, pageURL string) ([]model.MediaCandidate, bool) {
	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		s.log.WithError(err).Debug("DOM snapshot failed")
		return nil, false
	}

	if found := ExtractFromHTML(html, pageURL); len(found) > 0 {
		s.logf("Found %d candidate(s) in the DOM", len(found))
		return found, false
	}

	return nil, LooksRestricted(html)
}

// playbackNudge scrolls the post into view and clicks the viewport center,
// the same gesture sequence a user would make to start playback.
func playbackNudge() chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Evaluate(`window.scrollBy(0, 300)`, nil),
		chromedp.Sleep(pollInterval),
		chromedp.Evaluate(`window.scrollBy(0, -300)`, nil),
		chromedp.Sleep(pollInterval),
		chromedp.MouseClickXY(viewportWidth/2, viewportHeight/2),
	}
}

// headerContentLength pulls Content-Length out of CDP response headers, which
// arrive with whatever casing the server used.
func headerContentLength(headers network.Headers) int64 {
	for key, value := range headers {
		if !strings.EqualFold(key, "content-length") {
			continue
		}
		if text, ok := value.(string); ok {
			if length, err := strconv.ParseInt(text, 10, 64); err == nil {
				return length
			}
		}
	}
	return model.LengthUnknown
}

func truncateURL(rawURL string) string {
	const max = 80
	if len(rawURL) <= max {
		return rawURL
	}
	return rawURL[:max] + "..."
}
