package textclass_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newscheck/backend/internal/textclass"
)

func TestTrain_SampleDataset(t *testing.T) {
	result, err := textclass.Train(textclass.SampleDataset(), textclass.DefaultTrainConfig())
	require.NoError(t, err)

	assert.Equal(t, 16, result.TrainSize)
	assert.Equal(t, 4, result.TestSize)
	assert.Equal(t, 4, result.Report.Total)
	assert.GreaterOrEqual(t, result.Report.Accuracy, 0.0)
	assert.LessOrEqual(t, result.Report.Accuracy, 1.0)
	assert.NoError(t, result.Artifact.Validate())
	assert.LessOrEqual(t, result.Artifact.Dimension, 5000)
}

func TestTrain_Deterministic(t *testing.T) {
	a, err := textclass.Train(textclass.SampleDataset(), textclass.DefaultTrainConfig())
	require.NoError(t, err)
	b, err := textclass.Train(textclass.SampleDataset(), textclass.DefaultTrainConfig())
	require.NoError(t, err)

	assert.Equal(t, a.Artifact.Vocabulary, b.Artifact.Vocabulary)
	assert.Equal(t, a.Artifact.Model, b.Artifact.Model)
	assert.Equal(t, a.Report, b.Report)
}

func TestTrain_NoHoldOut(t *testing.T) {
	cfg := textclass.DefaultTrainConfig()
	cfg.TestSize = 0

	result, err := textclass.Train(textclass.FallbackDataset(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 6, result.TrainSize)
	assert.Equal(t, 0, result.TestSize)
	assert.Equal(t, 6, result.Report.Total)
}

func TestTrain_InvalidInput(t *testing.T) {
	_, err := textclass.Train(nil, textclass.DefaultTrainConfig())
	assert.ErrorIs(t, err, textclass.ErrInvalidTrainingData)

	cfg := textclass.DefaultTrainConfig()
	cfg.TestSize = 1
	_, err = textclass.Train(textclass.SampleDataset(), cfg)
	assert.ErrorIs(t, err, textclass.ErrInvalidTrainingData)

	_, err = textclass.Train([]textclass.Example{{Text: "x", Label: 3}}, textclass.DefaultTrainConfig())
	assert.ErrorIs(t, err, textclass.ErrInvalidTrainingData)
}

func TestEvaluate(t *testing.T) {
	r := textclass.Evaluate([]int{0, 0, 1, 1}, []int{0, 1, 1, 1})

	assert.Equal(t, 0.75, r.Accuracy)
	assert.Equal(t, 4, r.Total)

	fake := r.Classes[textclass.ClassFake]
	assert.Equal(t, 1.0, fake.Precision)
	assert.Equal(t, 0.5, fake.Recall)
	assert.InDelta(t, 2.0/3.0, fake.F1, 1e-12)
	assert.Equal(t, 2, fake.Support)

	realMetrics := r.Classes[textclass.ClassReal]
	assert.InDelta(t, 2.0/3.0, realMetrics.Precision, 1e-12)
	assert.Equal(t, 1.0, realMetrics.Recall)
	assert.InDelta(t, 0.8, realMetrics.F1, 1e-12)

	assert.InDelta(t, (2.0/3.0+0.8)/2, r.MacroAvg.F1, 1e-12)

	out := r.String()
	assert.Contains(t, out, "precision")
	assert.Contains(t, out, "Fake")
	assert.Contains(t, out, "weighted avg")
	assert.Contains(t, out, "0.75")
}

func TestEvaluate_Empty(t *testing.T) {
	r := textclass.Evaluate(nil, nil)
	assert.Equal(t, 0, r.Total)
	assert.Equal(t, 0.0, r.Accuracy)
}

func TestLoadExamples(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.csv"),
		[]byte("text,label\n\"Secret cure, revealed\",fake\nCouncil approves budget,1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b", "deep.csv"),
		[]byte("label,text\nREAL,University study finds\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "ignored.txt"), []byte("nope"), 0644))

	examples, err := textclass.LoadExamples(filepath.Join(dir, "**", "*.csv"))
	require.NoError(t, err)
	require.Len(t, examples, 3)

	labels := map[string]int{}
	for _, ex := range examples {
		labels[ex.Text] = ex.Label
	}
	assert.Equal(t, textclass.ClassFake, labels["Secret cure, revealed"])
	assert.Equal(t, textclass.ClassReal, labels["Council approves budget"])
	assert.Equal(t, textclass.ClassReal, labels["University study finds"])
}

func TestLoadExamples_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := textclass.LoadExamples(filepath.Join(dir, "*.csv"))
	assert.ErrorIs(t, err, textclass.ErrInvalidTrainingData)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.csv"), []byte("text,label\nhello,maybe\n"), 0644))
	_, err = textclass.LoadExamples(filepath.Join(dir, "*.csv"))
	assert.ErrorIs(t, err, textclass.ErrInvalidTrainingData)
}

func TestReadExamples_MissingColumns(t *testing.T) {
	_, err := textclass.ReadExamples(strings.NewReader("body,category\nx,1\n"))
	assert.ErrorIs(t, err, textclass.ErrInvalidTrainingData)

	_, err = textclass.ReadExamples(strings.NewReader(""))
	assert.ErrorIs(t, err, textclass.ErrInvalidTrainingData)
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{"0", textclass.ClassFake, false},
		{"fake", textclass.ClassFake, false},
		{" FAKE ", textclass.ClassFake, false},
		{"1", textclass.ClassReal, false},
		{"Real", textclass.ClassReal, false},
		{"2", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			label, err := textclass.ParseLabel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, label)
		})
	}
}
