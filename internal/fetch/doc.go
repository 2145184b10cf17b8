package fetch

// Package fetch implements the download pipeline: resolve a post URL through
// the resource locator, pick the best media candidate, then either stream the
// file over HTTP with resume support or delegate HLS muxing to ffmpeg. It
// manages task lifecycle and progress propagation to the UI.
