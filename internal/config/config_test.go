package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("PORT", "9090")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "memory-test-service", cfg.Server.ServiceName)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, time.Second, cfg.LLM.CallDelay)
	assert.Equal(t, 3, cfg.Workflow.MinMemoriesForTest)
	assert.Equal(t, 3, cfg.Workflow.MinTestsForReport)
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "1500ms", 1500 * time.Millisecond},
		{"bare seconds", "30", 30 * time.Second},
		{"garbage falls back", "soon", 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", 5*time.Second))
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST", " http://a.example , ,http://b.example")
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, getEnvAsList("TEST_LIST", nil))

	t.Setenv("TEST_LIST", "")
	assert.Equal(t, []string{"*"}, getEnvAsList("TEST_LIST", []string{"*"}))
}
