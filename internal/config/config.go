package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Driver modes.
const (
	DriverMock    = "mock"
	DriverHTTP    = "http"
	DriverCommand = "command"
	DriverReplay  = "replay"
)

const defaultTemplateVars = "name=John Smith,city=San Francisco,state=California"

type Config struct {
	Environment string
	LogLevel    string
	Port        string

	TemplatesDir string
	OutputDir    string
	RegistryPath string

	AgentURL          string
	Driver            string
	DriverURL         string
	DriverCommand     string
	ReplayPath        string
	CaptureTimeoutSec int
	Concurrency       int
	TemplateVars      map[string]string

	EmbeddingURL      string
	EmbeddingModel    string
	EmbeddingAPIKey   string
	UseMockEmbeddings bool
	NERURL            string
	UseMockNER        bool
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "local"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnv("PORT", "8080"),

		TemplatesDir: getEnv("TEMPLATES_DIR", "conversation_templates"),
		OutputDir:    getEnv("OUTPUT_DIR", "validation_results"),
		RegistryPath: getEnv("REGISTRY_PATH", ""),

		AgentURL:          getEnv("AGENT_URL", ""),
		Driver:            getEnv("DRIVER", DriverMock),
		DriverURL:         getEnv("DRIVER_URL", ""),
		DriverCommand:     getEnv("DRIVER_COMMAND", ""),
		ReplayPath:        getEnv("REPLAY_PATH", ""),
		CaptureTimeoutSec: getEnvInt("CAPTURE_TIMEOUT_SEC", 300),
		Concurrency:       getEnvInt("CONCURRENCY", 4),
		TemplateVars:      ParseVars(getEnv("TEMPLATE_VARS", defaultTemplateVars)),

		EmbeddingURL:      getEnv("EMBEDDING_URL", ""),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),
		EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", ""),
		UseMockEmbeddings: getEnvBool("USE_MOCK_EMBEDDINGS", false),
		NERURL:            getEnv("NER_URL", ""),
		UseMockNER:        getEnvBool("USE_MOCK_NER", false),
	}
}

func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.CaptureTimeoutSec) * time.Second
}

// ParseVars parses "k=v,k2=v2" into a map. Entries without '=' are ignored.
func ParseVars(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
