package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EVAL_DEFAULT_THRESHOLD", "")
	t.Setenv("EVAL_COLLABORATOR_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, 70.0, cfg.Evaluation.DefaultThreshold)
	assert.Equal(t, 4, cfg.Evaluation.RetrievalTopK)
	assert.Equal(t, 20, cfg.Evaluation.HistoryWindow)
	assert.Equal(t, 60*time.Second, cfg.Evaluation.CollaboratorTimeout)
	assert.Equal(t, 1000, cfg.Evaluation.ChunkSize)
	assert.Equal(t, 200, cfg.Evaluation.ChunkOverlap)
	assert.Zero(t, cfg.App.SessionTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EVAL_DEFAULT_THRESHOLD", "85.5")
	t.Setenv("EVAL_COLLABORATOR_TIMEOUT", "5s")
	t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, 85.5, cfg.Evaluation.DefaultThreshold)
	assert.Equal(t, 5*time.Second, cfg.Evaluation.CollaboratorTimeout)
	assert.Equal(t, StorageDriverMemory, cfg.App.StorageDriver)
	assert.True(t, cfg.Otel.Enabled)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("EVAL_RETRIEVAL_TOP_K", "many")
	t.Setenv("SESSION_TTL", "forever")

	cfg := Load()

	assert.Equal(t, 4, cfg.Evaluation.RetrievalTopK)
	assert.Zero(t, cfg.App.SessionTTL)
}
