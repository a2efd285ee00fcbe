package collector

import (
	"testing"
	"time"

	"github.com/bundlewatch/bundlewatch/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestWorkerConfig_Defaults(t *testing.T) {
	cfg := WorkerConfig{}.withDefaults()
	assert.Equal(t, 15*time.Minute, cfg.Interval)
	assert.Equal(t, 2*time.Minute, cfg.TickBudget)

	cfg = WorkerConfig{Interval: -1, TickBudget: -1}.withDefaults()
	assert.Equal(t, 15*time.Minute, cfg.Interval)
	assert.Equal(t, 2*time.Minute, cfg.TickBudget)
}

func TestNewWorkerConfig_UsesConfiguredInterval(t *testing.T) {
	cfg := NewWorkerConfig(config.Config{CollectInterval: 5 * time.Minute})
	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, 2*time.Minute, cfg.TickBudget)
}
