package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newscheck/backend/internal/textclass"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NEWSCHECK_CONFIG", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTrainBuiltinSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")

	out, err := runCLI(t, "train", "--out", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Train examples: 16  Test examples: 4")
	assert.Contains(t, out, "Accuracy: ")
	assert.Contains(t, out, "precision")
	assert.Contains(t, out, "Model saved to "+path)

	a, err := textclass.NewFileArtifactStore(path).Load()
	require.NoError(t, err)
	assert.NoError(t, a.Validate())
}

func TestTrainFromCSVGlob(t *testing.T) {
	dir := t.TempDir()
	var rows strings.Builder
	rows.WriteString("text,label\n")
	for i := 0; i < 5; i++ {
		rows.WriteString("shocking secret miracle cure revealed,0\n")
		rows.WriteString("officials publish quarterly budget report,1\n")
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sets", "a"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sets", "a", "news.csv"), []byte(rows.String()), 0644))

	path := filepath.Join(dir, "out", "model.json")
	out, err := runCLI(t, "train",
		"--data", filepath.Join(dir, "sets", "**", "*.csv"),
		"--out", path,
		"--test-size", "0.3",
		"--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Train examples: 7  Test examples: 3")
	assert.Contains(t, out, "Accuracy: 1.0000")

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestTrainRejectsBadTestSize(t *testing.T) {
	_, err := runCLI(t, "train", "--out", filepath.Join(t.TempDir(), "m.json"), "--test-size", "1.5")
	assert.Error(t, err)
}

func TestTrainMissingData(t *testing.T) {
	_, err := runCLI(t, "train", "--data", filepath.Join(t.TempDir(), "*.csv"))
	assert.Error(t, err)
}
