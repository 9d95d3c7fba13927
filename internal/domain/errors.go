package domain

import "errors"

var (
	ErrMissingParameter    = errors.New("missing_parameter")
	ErrInvalidWindow       = errors.New("invalid_window")
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")
	ErrMalformedPage       = errors.New("upstream_malformed")
	// ErrFeedTooLarge is returned when the window is not exhausted within the page cap.
	ErrFeedTooLarge = errors.New("feed_too_large")
)
