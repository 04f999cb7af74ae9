package models

import "errors"

// Pipeline error taxonomy. Only ErrDecodeFailed and ErrEmptyEnsemble reach the
// caller; everything else has a defined internal fallback.
var (
	// ErrModelNotFound - no model file at any candidate path. Non-fatal,
	// switches the pipeline to mock mode.
	ErrModelNotFound = errors.New("model file not found")

	// ErrInferenceFailed - the engine produced no output for a tensor. Caught
	// per augmentation branch; the branch is dropped from the ensemble.
	ErrInferenceFailed = errors.New("inference produced no output")

	// ErrDecodeFailed - the submitted bytes are not a decodable image. Fatal
	// to the request and surfaced to the caller.
	ErrDecodeFailed = errors.New("image decode failed")

	// ErrEmptyEnsemble - every augmentation branch failed; nothing to combine.
	ErrEmptyEnsemble = errors.New("no augmentation branch produced a result")

	// ErrQueueUnavailable - publish to the job queue failed; submission falls
	// back to the synchronous path.
	ErrQueueUnavailable = errors.New("job queue unavailable")
)
