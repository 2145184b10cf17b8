package model

import "time"

// ResolveRequest configures one browser session against a post URL.
type ResolveRequest struct {
	PostURL     string
	Headful     bool          // show the Chromium window
	Timeout     time.Duration // how long to wait for media responses
	UserDataDir string        // persistent Chromium profile dir, empty for ephemeral
}

// DownloadRequest describes one user-initiated download.
type DownloadRequest struct {
	PostURL     string
	OutputPath  string // empty means derive from the post URL into the output dir
	Headful     bool
	Timeout     time.Duration
	UserDataDir string
}

// ResolveOptions extracts the browser session parameters from the request.
func (r DownloadRequest) ResolveOptions() ResolveRequest {
	return ResolveRequest{
		PostURL:     r.PostURL,
		Headful:     r.Headful,
		Timeout:     r.Timeout,
		UserDataDir: r.UserDataDir,
	}
}
