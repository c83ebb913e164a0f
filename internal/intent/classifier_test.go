package intent

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrainingSet() []TrainingSample {
	return []TrainingSample{
		{Text: "list all files in the directory", Label: "list_files"},
		{Text: "show me the files here", Label: "list_files"},
		{Text: "what files are in this folder", Label: "list_files"},
		{Text: "ls the current directory", Label: "list_files"},
		{Text: "display directory contents", Label: "list_files"},
		{Text: "delete the old log file", Label: "delete_file"},
		{Text: "remove this file please", Label: "delete_file"},
		{Text: "get rid of that temp file", Label: "delete_file"},
		{Text: "erase the backup", Label: "delete_file"},
		{Text: "trash this document", Label: "delete_file"},
	}
}

func TestTrainRequiresMinimumSamples(t *testing.T) {
	_, err := Train([]TrainingSample{{Text: "a", Label: "x"}})
	require.Error(t, err)
}

func TestTrainRequiresTwoLabels(t *testing.T) {
	samples := make([]TrainingSample, 0, 10)
	for i := 0; i < 10; i++ {
		samples = append(samples, TrainingSample{Text: "list files", Label: "only_label"})
	}
	_, err := Train(samples)
	require.Error(t, err)
}

func TestTrainAndPredict(t *testing.T) {
	result, err := Train(sampleTrainingSet())
	require.NoError(t, err)
	require.True(t, result.Classifier.Trained)

	label, confidence, alts := result.Classifier.Predict("please list the files in this folder")
	assert.Equal(t, "list_files", label)
	assert.Greater(t, confidence, 0.0)
	assert.LessOrEqual(t, len(alts), 3)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	result, err := Train(sampleTrainingSet())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "classifier.gob")
	require.NoError(t, Save(result.Classifier, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Trained)
	assert.Equal(t, result.Classifier.Classes, loaded.Classes)

	label, _, _ := loaded.Predict("delete that old file now")
	assert.Equal(t, "delete_file", label)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.gob"))
	assert.Error(t, err)
}
