package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DRIVER", "CONCURRENCY", "CAPTURE_TIMEOUT_SEC", "TEMPLATE_VARS", "USE_MOCK_EMBEDDINGS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, DriverMock, cfg.Driver)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 300*time.Second, cfg.CaptureTimeout())
	assert.False(t, cfg.UseMockEmbeddings)
	assert.Equal(t, "John Smith", cfg.TemplateVars["name"])
	assert.Equal(t, "San Francisco", cfg.TemplateVars["city"])
	assert.Equal(t, "California", cfg.TemplateVars["state"])
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DRIVER", DriverReplay)
	t.Setenv("CONCURRENCY", "9")
	t.Setenv("USE_MOCK_EMBEDDINGS", "true")
	t.Setenv("CAPTURE_TIMEOUT_SEC", "not-a-number")

	cfg := Load()
	assert.Equal(t, DriverReplay, cfg.Driver)
	assert.Equal(t, 9, cfg.Concurrency)
	assert.True(t, cfg.UseMockEmbeddings)
	assert.Equal(t, 300, cfg.CaptureTimeoutSec)
}

func TestParseVars(t *testing.T) {
	vars := ParseVars(" name = Jane Doe ,broken, =x,city=Austin")
	assert.Equal(t, map[string]string{"name": "Jane Doe", "city": "Austin"}, vars)
}
