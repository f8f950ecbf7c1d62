// Package ai implements the rate-limited, retrying analysis client that
// turns one call transcript into a structured analysis outcome.
package ai

import "errors"

var (
	// ErrRateLimited indicates the remote service returned HTTP 429.
	ErrRateLimited = errors.New("analysis service rate limit exceeded")

	// ErrUnauthorized indicates the API key was rejected (HTTP 401/403).
	ErrUnauthorized = errors.New("analysis service rejected credentials")

	// ErrMalformedResponse indicates the response contained no parsable
	// JSON object.
	ErrMalformedResponse = errors.New("response contained no valid JSON object")
)
