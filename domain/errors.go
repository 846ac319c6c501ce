package domain

import "errors"

var (
	// ErrUnauthorized indicates missing or invalid credentials at the API.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnauthenticated indicates a fetch was attempted before login completed.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrAuthFailed indicates the identity provider rejected or aborted login.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrMalformedResponse indicates the API returned a body we could not decode.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrStalePage indicates a page was requested against a timeline that has
	// since been replaced by a fresh initial fetch.
	ErrStalePage = errors.New("stale page discarded")
)
