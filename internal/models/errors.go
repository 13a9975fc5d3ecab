// Package models defines data structures for finq
package models

import "errors"

// Pipeline errors. Clients wrap upstream failures with ErrSourceUnavailable;
// services convert all of these into empty results at their boundary.
var (
	// ErrSourceUnavailable indicates an upstream fetch failed or returned an unexpected shape
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNotFound indicates a lookup legitimately found nothing
	ErrNotFound = errors.New("not found")

	// ErrMalformedModelOutput indicates the language model returned text that is not the requested structure
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrInvalidInput indicates the caller supplied unusable parameters
	ErrInvalidInput = errors.New("invalid input")
)
