package crawler

import "errors"

var (
	// ErrInvalidConfig is returned when the crawl budget is unusable.
	ErrInvalidConfig = errors.New("invalid crawl config")

	// ErrInvalidRootURL is returned when the root URL is not an absolute
	// http(s) URL.
	ErrInvalidRootURL = errors.New("invalid root url")
)
