package domain

import "errors"

var (
	// ErrExtractionEmpty signals a source file that yielded no text.
	// Non-fatal: ingestion skips the document.
	ErrExtractionEmpty = errors.New("extracted text is empty")
	// ErrEmbeddingUnavailable signals an embedding provider failure that
	// survived the retry policy.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrStorage signals a vector index failure (upsert or query).
	ErrStorage = errors.New("storage error")
	// ErrInvalidMetadata signals metadata that violates the scalar-only
	// invariant of the backing store.
	ErrInvalidMetadata = errors.New("metadata value is not a scalar")
	// ErrSessionNotFound signals an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrCompanyNotFound signals a company name absent from the session's matches.
	ErrCompanyNotFound = errors.New("company not found in matches")
)
