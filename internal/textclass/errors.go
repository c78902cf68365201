package textclass

import "errors"

var (
	// ErrEmptyVocabulary is returned by Fit when no term survives pruning.
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	// ErrArtifactNotFound means no persisted artifact exists yet.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrInvalidArtifact means a persisted artifact could not be decoded or
	// failed validation.
	ErrInvalidArtifact = errors.New("invalid artifact")
	// ErrInference wraps failures on the statistical prediction path.
	ErrInference = errors.New("inference failed")
	// ErrInvalidTrainingData is returned for empty or mislabelled training input.
	ErrInvalidTrainingData = errors.New("invalid training data")
)
