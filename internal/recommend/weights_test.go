package recommend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWeightsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWeights_OverlaysDefaults(t *testing.T) {
	path := writeWeightsFile(t, "social: 0.2\ntemporal: 0.04\n")

	w, err := LoadWeights(path)
	require.NoError(t, err)

	assert.Equal(t, 0.2, w[AlgSocial])
	assert.Equal(t, 0.04, w[AlgTemporal])
	// Unmentioned algorithms keep their defaults.
	assert.Equal(t, DefaultWeights()[AlgProgression], w[AlgProgression])
}

func TestLoadWeights_RejectsUnknownAlgorithm(t *testing.T) {
	path := writeWeightsFile(t, "collaborattive_filtering: 0.2\n")

	_, err := LoadWeights(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown algorithm")
}

func TestLoadWeights_ClampsOutOfRange(t *testing.T) {
	path := writeWeightsFile(t, "mastery_progression: 0.9\nsocial: 0.0\n")

	w, err := LoadWeights(path)
	require.NoError(t, err)

	assert.Equal(t, MaxAlgorithmWeight, w[AlgProgression])
	assert.Equal(t, MinAlgorithmWeight, w[AlgSocial])
}

func TestLoadWeights_MissingFile(t *testing.T) {
	_, err := LoadWeights(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultWeights_WithinBounds(t *testing.T) {
	for name, v := range DefaultWeights() {
		assert.GreaterOrEqual(t, v, MinAlgorithmWeight, name)
		assert.LessOrEqual(t, v, MaxAlgorithmWeight, name)
	}
}
