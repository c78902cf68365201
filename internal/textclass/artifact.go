package textclass

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ArtifactVersion is bumped whenever the persisted layout changes.
const ArtifactVersion = 1

// Artifact is a fitted vectorizer + classifier pair.
type Artifact struct {
	Version    int            `json:"version"`
	Dimension  int            `json:"dimension"`
	Vocabulary *Vocabulary    `json:"vocabulary"`
	Model      *LogisticModel `json:"model"`
	TrainedAt  time.Time      `json:"trained_at"`
}

// NewArtifact pairs a vocabulary with a model and records the dimension.
func NewArtifact(vocab *Vocabulary, model *LogisticModel) *Artifact {
	return &Artifact{
		Version:    ArtifactVersion,
		Dimension:  vocab.Size(),
		Vocabulary: vocab,
		Model:      model,
		TrainedAt:  time.Now().UTC(),
	}
}

// Validate checks that the vocabulary, IDF table and weights agree on one
// dimension and that every value is finite.
func (a *Artifact) Validate() error {
	if a == nil || a.Vocabulary == nil || a.Model == nil {
		return fmt.Errorf("%w: missing vocabulary or model", ErrInvalidArtifact)
	}
	if a.Version != ArtifactVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidArtifact, a.Version)
	}
	n := a.Dimension
	if n <= 0 {
		return fmt.Errorf("%w: dimension %d", ErrInvalidArtifact, n)
	}
	if len(a.Vocabulary.Terms) != n || len(a.Vocabulary.IDF) != n || len(a.Model.Weights) != n {
		return fmt.Errorf("%w: dimension %d but %d terms, %d idf values, %d weights",
			ErrInvalidArtifact, n, len(a.Vocabulary.Terms), len(a.Vocabulary.IDF), len(a.Model.Weights))
	}
	if a.Vocabulary.NGramMin < 1 || a.Vocabulary.NGramMax < a.Vocabulary.NGramMin {
		return fmt.Errorf("%w: ngram range [%d, %d]", ErrInvalidArtifact, a.Vocabulary.NGramMin, a.Vocabulary.NGramMax)
	}

	seen := make([]bool, n)
	for term, idx := range a.Vocabulary.Terms {
		if idx < 0 || idx >= n || seen[idx] {
			return fmt.Errorf("%w: bad index %d for term %q", ErrInvalidArtifact, idx, term)
		}
		seen[idx] = true
	}
	for i := 0; i < n; i++ {
		if !finite(a.Vocabulary.IDF[i]) || !finite(a.Model.Weights[i]) {
			return fmt.Errorf("%w: non-finite parameter at index %d", ErrInvalidArtifact, i)
		}
	}
	if !finite(a.Model.Bias) {
		return fmt.Errorf("%w: non-finite bias", ErrInvalidArtifact)
	}
	return nil
}

// MarshalArtifact encodes a validated artifact.
func MarshalArtifact(a *Artifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return json.MarshalIndent(a, "", "  ")
}

// UnmarshalArtifact decodes and validates an artifact.
func UnmarshalArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ArtifactLoader supplies the persisted artifact to a Scorer.
type ArtifactLoader interface {
	Load() (*Artifact, error)
}

// FileArtifactStore keeps the artifact as a JSON file on local disk.
type FileArtifactStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileArtifactStore creates a store rooted at path. The parent directory
// is created on Save.
func NewFileArtifactStore(path string) *FileArtifactStore {
	return &FileArtifactStore{path: path}
}

// Path returns the artifact location.
func (s *FileArtifactStore) Path() string {
	return s.path
}

// Load reads the artifact. A missing file yields ErrArtifactNotFound.
func (s *FileArtifactStore) Load() (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	return UnmarshalArtifact(data)
}

// Save writes the artifact through a temp file so readers never observe a
// partial write.
func (s *FileArtifactStore) Save(a *Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := MarshalArtifact(a)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
