package textclass

import (
	"fmt"
	"math"
)

// Class labels used by the classifier.
const (
	ClassFake = 0
	ClassReal = 1
)

// ClassifierConfig controls logistic regression training.
type ClassifierConfig struct {
	// C is the inverse regularization strength.
	C       float64
	MaxIter int
	// Tol is the stopping threshold on the largest gradient component.
	Tol float64
}

// DefaultClassifierConfig returns C=1, 1000 iterations, tol 1e-4.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{C: 1.0, MaxIter: 1000, Tol: 1e-4}
}

func (c ClassifierConfig) withDefaults() ClassifierConfig {
	d := DefaultClassifierConfig()
	if c.C <= 0 {
		c.C = d.C
	}
	if c.MaxIter <= 0 {
		c.MaxIter = d.MaxIter
	}
	if c.Tol <= 0 {
		c.Tol = d.Tol
	}
	return c
}

// LogisticModel is a fitted binary linear model.
type LogisticModel struct {
	Weights    []float64 `json:"weights"`
	Bias       float64   `json:"bias"`
	Iterations int       `json:"iterations"`
	Converged  bool      `json:"converged"`
}

// TrainLogistic fits an L2-regularised logistic regression by full-batch
// gradient descent on ½‖w‖² + C·Σ logloss. The bias is not penalised.
func TrainLogistic(xs []Vector, labels []int, cfg ClassifierConfig) (*LogisticModel, error) {
	cfg = cfg.withDefaults()
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidTrainingData)
	}
	if len(xs) != len(labels) {
		return nil, fmt.Errorf("%w: %d samples but %d labels", ErrInvalidTrainingData, len(xs), len(labels))
	}

	dim := xs[0].Dim
	var sumSq float64
	for i, x := range xs {
		if x.Dim != dim {
			return nil, fmt.Errorf("%w: sample %d has %d dims, want %d", ErrInvalidTrainingData, i, x.Dim, dim)
		}
		if labels[i] != ClassFake && labels[i] != ClassReal {
			return nil, fmt.Errorf("%w: label %d at sample %d", ErrInvalidTrainingData, labels[i], i)
		}
		for _, v := range x.Values {
			sumSq += v * v
		}
	}

	// Lipschitz bound of the gradient: 1 + C/4 · Σ(‖x‖² + 1)
	lipschitz := 1 + cfg.C/4*(sumSq+float64(len(xs)))
	step := 1 / lipschitz

	m := &LogisticModel{Weights: make([]float64, dim)}
	gradW := make([]float64, dim)

	for iter := 0; iter < cfg.MaxIter; iter++ {
		copy(gradW, m.Weights)
		var gradB float64
		for i, x := range xs {
			residual := cfg.C * (sigmoid(m.score(x)) - float64(labels[i]))
			for k, idx := range x.Indices {
				gradW[idx] += residual * x.Values[k]
			}
			gradB += residual
		}

		maxGrad := math.Abs(gradB)
		for _, g := range gradW {
			maxGrad = math.Max(maxGrad, math.Abs(g))
		}
		m.Iterations = iter
		if maxGrad < cfg.Tol {
			m.Converged = true
			break
		}

		for j, g := range gradW {
			m.Weights[j] -= step * g
		}
		m.Bias -= step * gradB
		m.Iterations = iter + 1
	}

	return m, nil
}

// Predict returns the predicted class and the probability assigned to it.
func (m *LogisticModel) Predict(x Vector) (int, float64, error) {
	if x.Dim != len(m.Weights) {
		return 0, 0, fmt.Errorf("%w: vector has %d dims, model expects %d", ErrInference, x.Dim, len(m.Weights))
	}
	for _, idx := range x.Indices {
		if idx < 0 || idx >= len(m.Weights) {
			return 0, 0, fmt.Errorf("%w: feature index %d out of range", ErrInference, idx)
		}
	}

	z := m.score(x)
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, 0, fmt.Errorf("%w: non-finite score", ErrInference)
	}

	p := sigmoid(z)
	if p >= 0.5 {
		return ClassReal, p, nil
	}
	return ClassFake, 1 - p, nil
}

func (m *LogisticModel) score(x Vector) float64 {
	z := m.Bias
	for k, idx := range x.Indices {
		z += m.Weights[idx] * x.Values[k]
	}
	return z
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
