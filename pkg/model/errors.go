package model

import "github.com/m-mizutani/goerr/v2"

// Input errors: local, never retried, surfaced immediately.
var (
	ErrEmptyInput        = goerr.New("input is empty")
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrSchema            = goerr.New("schema mismatch")
	ErrDimensionMismatch = goerr.New("embedding dimension mismatch")
)

// ErrNotFound is recoverable: callers should treat it as "no result"
// unless they explicitly required existence.
var ErrNotFound = goerr.New("not found")

// Collaborator errors carry the raw collaborator message. Retrying is
// the caller's decision, never done here.
var (
	ErrGeneration = goerr.New("question generation failed")
	ErrTransform  = goerr.New("query transformation failed")
	ErrEmbedding  = goerr.New("embedding generation failed")
	ErrIndex      = goerr.New("vector index operation failed")
)
