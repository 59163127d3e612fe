package blobstore

import "errors"

// Sentinel kinds for blob store errors.
var (
	ErrNotFound    = errors.New("blob not found")
	ErrInvalidRoot = errors.New("invalid blob root")
	ErrCorrupt     = errors.New("stored blob is corrupt")
	ErrUnavailable = errors.New("blob store unavailable")
)
