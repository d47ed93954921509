// Package seederrors provides standard error types for the seed injector.
//
// These sentinel errors allow callers to check for specific error conditions
// using errors.Is(), enabling programmatic error handling.
package seederrors

import "errors"

// Reassembler enumeration/read errors
var (
	// ErrNoChunksFound indicates the chunk glob produced zero matches.
	ErrNoChunksFound = errors.New("no payload chunks found")

	// ErrChunkRead indicates an I/O failure reading a chunk file.
	ErrChunkRead = errors.New("failed to read chunk")
)

// Reassembler verification/extraction errors
var (
	// ErrDigestMismatch indicates the reassembled payload's digest does not
	// match the expected digest. No extraction is performed.
	ErrDigestMismatch = errors.New("payload digest mismatch")

	// ErrUnsafeTarEntry indicates a tar entry with an absolute path or a
	// path that escapes the extraction root via "..".
	ErrUnsafeTarEntry = errors.New("unsafe tar entry path")

	// ErrExtraction indicates a gzip or tar decoding failure.
	ErrExtraction = errors.New("failed to extract payload")
)

// Registry startup errors
var (
	// ErrBind indicates the listener socket could not be bound.
	ErrBind = errors.New("failed to bind listener")
)

// Image layout errors
var (
	// ErrNotFound indicates the requested manifest or blob does not exist
	// or is not a regular file. It is recovered locally and surfaced as
	// HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrLayoutCorrupt indicates index.json is missing or unparseable when
	// the layout is opened. It is returned before the registry starts, so
	// the process exits with it; it is not turned into an HTTP 404.
	ErrLayoutCorrupt = errors.New("image layout corrupt")
)
