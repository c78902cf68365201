package textclass

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Label is the public verdict of a classification.
type Label string

const (
	LabelFake Label = "FAKE"
	LabelReal Label = "REAL"
)

// Source records which path produced a Result.
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
	SourceDefault   Source = "default"
)

// Result is a label with a confidence in [0, 100].
type Result struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// NeutralResult is returned for input with no usable words.
var NeutralResult = Result{Label: LabelReal, Confidence: 50.0, Source: SourceDefault}

// State is the lifecycle of a Scorer's model.
type State int32

const (
	StateLoading State = iota
	StateReady
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var errModelUnavailable = fmt.Errorf("%w: model unavailable", ErrInference)

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithArtifact injects an already fitted artifact, skipping the loader.
func WithArtifact(a *Artifact) ScorerOption {
	return func(s *Scorer) {
		s.injected = a
	}
}

// WithFallbackBuilder replaces the built-in fallback synthesis.
func WithFallbackBuilder(build func() (*Artifact, error)) ScorerOption {
	return func(s *Scorer) {
		s.fallback = build
	}
}

// Scorer classifies text with a cached artifact and degrades to the keyword
// heuristic when the statistical path is unavailable. It is safe for
// concurrent use; the artifact is read-only once loaded.
type Scorer struct {
	loader   ArtifactLoader
	logger   *logrus.Entry
	fallback func() (*Artifact, error)
	injected *Artifact

	once     sync.Once
	artifact *Artifact
	state    atomic.Int32
}

// NewScorer creates a Scorer. The artifact is loaded on the first call to
// Load or Classify.
func NewScorer(loader ArtifactLoader, logger *logrus.Entry, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		loader:   loader,
		logger:   logger,
		fallback: BuildFallbackArtifact,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.StandardLogger())
	}

	if s.injected != nil {
		if err := s.injected.Validate(); err != nil {
			s.logger.WithError(err).Warn("Ignoring injected artifact")
		} else {
			s.once.Do(func() { s.ready(s.injected, "injected") })
		}
	}
	return s
}

// Load resolves the artifact exactly once. It never fails: a missing or
// corrupt artifact is replaced by the fallback model, and if that cannot be
// built the scorer runs on the heuristic alone.
func (s *Scorer) Load() {
	s.once.Do(s.load)
}

func (s *Scorer) load() {
	a, err := s.loadPersisted()
	if err == nil {
		err = a.Validate()
	}
	if err == nil {
		s.ready(a, "persisted")
		return
	}

	entry := s.logger.WithError(err)
	if errors.Is(err, ErrArtifactNotFound) {
		entry.Info("No trained model found, building fallback model")
	} else {
		entry.Warn("Failed to load trained model, building fallback model")
	}

	a, err = s.fallback()
	if err == nil {
		err = a.Validate()
	}
	if err != nil {
		s.logger.WithError(err).Error("Fallback model unavailable, using keyword heuristic only")
		s.state.Store(int32(StateDegraded))
		return
	}
	s.ready(a, "fallback")
}

func (s *Scorer) loadPersisted() (*Artifact, error) {
	if s.loader == nil {
		return nil, ErrArtifactNotFound
	}
	return s.loader.Load()
}

func (s *Scorer) ready(a *Artifact, origin string) {
	s.artifact = a
	s.state.Store(int32(StateReady))
	s.logger.WithFields(logrus.Fields{
		"origin":    origin,
		"dimension": a.Dimension,
	}).Info("Classification model ready")
}

// State reports the current lifecycle state.
func (s *Scorer) State() State {
	return State(s.state.Load())
}

// Artifact returns the loaded artifact, or nil before Load or when degraded.
func (s *Scorer) Artifact() *Artifact {
	if s.State() != StateReady {
		return nil
	}
	return s.artifact
}

// Classify labels text as FAKE or REAL. It always returns a result.
func (s *Scorer) Classify(text string) Result {
	tokens := Normalize(text)
	if len(tokens) == 0 {
		return NeutralResult
	}

	s.Load()

	res, err := s.predict(tokens)
	if err != nil {
		s.logger.WithError(err).Debug("Statistical path failed, using heuristic")
		return HeuristicClassify(text)
	}
	return res
}

func (s *Scorer) predict(tokens []string) (Result, error) {
	a := s.Artifact()
	if a == nil {
		return Result{}, errModelUnavailable
	}

	x := a.Vocabulary.Transform(tokens)
	class, prob, err := a.Model.Predict(x)
	if err != nil {
		return Result{}, err
	}

	label := LabelFake
	if class == ClassReal {
		label = LabelReal
	}
	return Result{Label: label, Confidence: prob * 100, Source: SourceModel}, nil
}
