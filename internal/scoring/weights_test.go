// internal/scoring/weights_test.go
package scoring

import (
	"os"
	"path/filepath"
	"testing"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Core Functionality Tests
// ==========================

func TestWeightStore_SeedsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")

	store, err := NewWeightStore(path, false, logger.NewTestLogger(t))

	assert.NoError(t, err)
	assert.Equal(t, models.DefaultWeights(), store.Get())

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "demand_strength")
}

func TestWeightStore_LoadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := `weights:
  demand_strength: 0.4
  demand_velocity: 0.3
  competition_proxy: 0.1
  feasibility: 0.1
  automation_friendly: 0.05
  monetization_clarity: 0.05
`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := NewWeightStore(path, false, logger.NewTestLogger(t))

	assert.NoError(t, err)
	assert.InDelta(t, 0.4, store.Get().DemandStrength, 0.0001)
	assert.InDelta(t, 0.05, store.Get().MonetizationClarity, 0.0001)
}

func TestWeightStore_UpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")

	store, err := NewWeightStore(path, false, logger.NewTestLogger(t))
	assert.NoError(t, err)

	next := models.WeightConfig{DemandStrength: 1, Feasibility: 1}
	assert.NoError(t, store.Update(next))
	assert.Equal(t, next, store.Get())

	// A fresh store over the same file sees the written profile.
	reopened, err := NewWeightStore(path, false, logger.NewTestLogger(t))
	assert.NoError(t, err)
	assert.Equal(t, next, reopened.Get())
}

// ==========================
// Validation Tests
// ==========================

func TestWeightStore_UpdateRejectsNegative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")

	store, err := NewWeightStore(path, false, logger.NewTestLogger(t))
	assert.NoError(t, err)

	err = store.Update(models.WeightConfig{DemandStrength: -0.5})

	assert.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidConfiguration))
	assert.Equal(t, models.DefaultWeights(), store.Get())
}

func TestWeightStore_NegativeFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := `weights:
  demand_strength: -0.4
`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewWeightStore(path, false, logger.NewTestLogger(t))

	assert.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeInvalidConfiguration))
}

func TestWeightStore_EmptyFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("weights: {}\n"), 0o644))

	store, err := NewWeightStore(path, false, logger.NewTestLogger(t))

	assert.NoError(t, err)
	assert.Equal(t, models.DefaultWeights(), store.Get())
}
