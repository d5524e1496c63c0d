package domain

import "errors"

// Domain errors represent failures the entry points may want to recognise.
var (
	// ErrEmptyQuery indicates a blank question was submitted.
	ErrEmptyQuery = errors.New("empty query")

	// ErrNoDocuments indicates no supported document was found to ingest
	// or the index holds no chunks.
	ErrNoDocuments = errors.New("no documents")

	// ErrIndexMismatch indicates the persisted index was built with a
	// different embedder or model than the one configured.
	ErrIndexMismatch = errors.New("index was built with a different embedder")

	// ErrPageOutOfRange indicates an extracted field points at a page the PDF does not have.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrInvalidExtraction indicates the model response did not match the extraction schema.
	ErrInvalidExtraction = errors.New("invalid extraction")
)
