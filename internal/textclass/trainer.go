package textclass

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// TrainConfig bundles the settings of an offline training run.
type TrainConfig struct {
	Vectorizer VectorizerConfig
	Classifier ClassifierConfig
	// TestSize is the held-out fraction; 0 evaluates on the training set.
	TestSize float64
	Seed     int64
}

// DefaultTrainConfig mirrors the production training run: 20% held out,
// seed 42.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Vectorizer: DefaultVectorizerConfig(),
		Classifier: DefaultClassifierConfig(),
		TestSize:   0.2,
		Seed:       42,
	}
}

// TrainResult is the outcome of Train.
type TrainResult struct {
	Artifact  *Artifact
	Report    Report
	TrainSize int
	TestSize  int
}

// BuildArtifact fits a vectorizer and classifier on all examples.
func BuildArtifact(examples []Example, vcfg VectorizerConfig, ccfg ClassifierConfig) (*Artifact, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: no examples", ErrInvalidTrainingData)
	}

	corpus := make([][]string, len(examples))
	labels := make([]int, len(examples))
	for i, ex := range examples {
		corpus[i] = Normalize(ex.Text)
		labels[i] = ex.Label
	}

	vocab, err := Fit(corpus, vcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to fit vectorizer: %w", err)
	}

	xs := make([]Vector, len(corpus))
	for i, tokens := range corpus {
		xs[i] = vocab.Transform(tokens)
	}

	model, err := TrainLogistic(xs, labels, ccfg)
	if err != nil {
		return nil, fmt.Errorf("failed to train classifier: %w", err)
	}

	return NewArtifact(vocab, model), nil
}

// BuildFallbackArtifact fits the default configuration on FallbackDataset.
func BuildFallbackArtifact() (*Artifact, error) {
	return BuildArtifact(FallbackDataset(), DefaultVectorizerConfig(), DefaultClassifierConfig())
}

// Train shuffles and splits examples, fits an artifact on the training part
// and evaluates it on the held-out part.
func Train(examples []Example, cfg TrainConfig) (*TrainResult, error) {
	n := len(examples)
	if n == 0 {
		return nil, fmt.Errorf("%w: no examples", ErrInvalidTrainingData)
	}
	if cfg.TestSize < 0 || cfg.TestSize >= 1 {
		return nil, fmt.Errorf("%w: test size %.2f must be in [0, 1)", ErrInvalidTrainingData, cfg.TestSize)
	}

	for i, ex := range examples {
		if ex.Label != ClassFake && ex.Label != ClassReal {
			return nil, fmt.Errorf("%w: label %d at example %d", ErrInvalidTrainingData, ex.Label, i)
		}
	}

	nTest := int(math.Ceil(cfg.TestSize * float64(n)))
	if nTest >= n {
		return nil, fmt.Errorf("%w: %d examples leave nothing to train on", ErrInvalidTrainingData, n)
	}

	perm := rand.New(rand.NewSource(cfg.Seed)).Perm(n)
	test := make([]Example, 0, nTest)
	train := make([]Example, 0, n-nTest)
	for i, idx := range perm {
		if i < nTest {
			test = append(test, examples[idx])
		} else {
			train = append(train, examples[idx])
		}
	}

	artifact, err := BuildArtifact(train, cfg.Vectorizer, cfg.Classifier)
	if err != nil {
		return nil, err
	}

	eval := test
	if len(eval) == 0 {
		eval = train
	}
	truth := make([]int, len(eval))
	pred := make([]int, len(eval))
	for i, ex := range eval {
		truth[i] = ex.Label
		class, _, err := artifact.Model.Predict(artifact.Vocabulary.Transform(Normalize(ex.Text)))
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate: %w", err)
		}
		pred[i] = class
	}

	return &TrainResult{
		Artifact:  artifact,
		Report:    Evaluate(truth, pred),
		TrainSize: len(train),
		TestSize:  len(test),
	}, nil
}

// ClassMetrics are precision, recall and F1 for one class.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report summarises predictions against ground truth.
type Report struct {
	Accuracy    float64
	Classes     [2]ClassMetrics
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
	Total       int
}

var classNames = [2]string{"Fake", "Real"}

// Evaluate computes a Report. Undefined ratios (no predictions or no support
// for a class) are reported as 0.
func Evaluate(truth, pred []int) Report {
	var r Report
	r.Total = len(truth)
	if r.Total == 0 {
		return r
	}

	var tp, fp, fn [2]int
	correct := 0
	for i := range truth {
		t, p := truth[i], pred[i]
		if t == p {
			correct++
			tp[t]++
			continue
		}
		fp[p]++
		fn[t]++
	}
	r.Accuracy = float64(correct) / float64(r.Total)

	for c := 0; c < 2; c++ {
		m := ClassMetrics{
			Precision: ratio(tp[c], tp[c]+fp[c]),
			Recall:    ratio(tp[c], tp[c]+fn[c]),
			Support:   tp[c] + fn[c],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes[c] = m

		r.MacroAvg.Precision += m.Precision / 2
		r.MacroAvg.Recall += m.Recall / 2
		r.MacroAvg.F1 += m.F1 / 2

		w := float64(m.Support) / float64(r.Total)
		r.WeightedAvg.Precision += m.Precision * w
		r.WeightedAvg.Recall += m.Recall * w
		r.WeightedAvg.F1 += m.F1 * w
	}
	r.MacroAvg.Support = r.Total
	r.WeightedAvg.Support = r.Total

	return r
}

// String renders the report as a fixed-width table.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for c, m := range r.Classes {
		writeRow(&b, classNames[c], m)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.Total)
	writeRow(&b, "macro avg", r.MacroAvg)
	writeRow(&b, "weighted avg", r.WeightedAvg)
	return b.String()
}

func writeRow(b *strings.Builder, name string, m ClassMetrics) {
	fmt.Fprintf(b, "%12s %10.2f %10.2f %10.2f %10d\n", name, m.Precision, m.Recall, m.F1, m.Support)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
