package model

import "errors"

// Sentinel errors for the user-facing failure taxonomy. Each maps to a
// readable status message; none is retried automatically.
var (
	// ErrNoMedia means the post rendered but no media URL was observed.
	ErrNoMedia = errors.New("no media URLs found on the page")

	// ErrRestrictedPost means the post appears to require a login.
	ErrRestrictedPost = errors.New("post is restricted or requires login")

	// ErrNoCandidate means candidates were found but none was usable.
	ErrNoCandidate = errors.New("could not pick a media candidate")
)
