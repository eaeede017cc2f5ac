package risk

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactNotFound matches any *ArtifactNotFoundError.
	ErrArtifactNotFound = errors.New("model artifact not found")

	// ErrInference matches any *InferenceError.
	ErrInference = errors.New("inference failed")
)

// ArtifactNotFoundError reports a missing model file.
type ArtifactNotFoundError struct {
	Path string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("model artifact not found at %s", e.Path)
}

func (e *ArtifactNotFoundError) Is(target error) bool {
	return target == ErrArtifactNotFound
}

// InferenceError wraps any failure while decoding the artifact or computing
// class probabilities.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func (e *InferenceError) Is(target error) bool {
	return target == ErrInference
}
