package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol). All providers (groq,
	// openai, ollama) use the same config shape.
	LLMProvider string // Provider identifier: groq, openai, ollama
	LLMAPIKey   string
	LLMBaseURL  string // Optional, has a default per provider
	TextModel   string // Model for text advisory and routing
	VisionModel string // Model for image-based pest diagnosis
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)

	// Embedding configuration for subsidy scheme retrieval.
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingModel      string
	EmbeddingDimensions int

	// Storage
	Driver string // "postgres", empty disables scheme retrieval
	DSN    string

	// Weather proxy. Empty disables the weather endpoint.
	OpenWeatherAPIKey string

	Mode    string
	Addr    string
	Port    int
	Data    string
	Version string
}

// Provider default configurations for the LLM. Used when the base URL or
// model names are not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL     string
	TextModel   string
	VisionModel string
}{
	"groq": {
		BaseURL:     "https://api.groq.com/openai/v1",
		TextModel:   "llama-3.3-70b-versatile",
		VisionModel: "llama-3.2-11b-vision-preview",
	},
	"openai": {
		BaseURL:     "https://api.openai.com/v1",
		TextModel:   "gpt-4o-mini",
		VisionModel: "gpt-4o",
	},
	"ollama": {
		BaseURL:     "http://localhost:11434/v1",
		TextModel:   "llama3.1",
		VisionModel: "llava",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// IsRetrievalEnabled returns true if both the scheme database and the
// embedding provider are configured.
func (p *Profile) IsRetrievalEnabled() bool {
	return p.DSN != "" && p.EmbeddingAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("AGRIGPT_LLM_PROVIDER", "groq")
	p.LLMAPIKey = getEnvOrDefault("AGRIGPT_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("AGRIGPT_LLM_BASE_URL", "")
	p.TextModel = getEnvOrDefault("AGRIGPT_TEXT_MODEL", "")
	p.VisionModel = getEnvOrDefault("AGRIGPT_VISION_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("AGRIGPT_LLM_TIMEOUT_SECONDS", 120)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("unknown LLM provider, using default: groq", "provider", p.LLMProvider)
		p.LLMProvider = "groq"
	}
	defaults := llmProviderDefaults[p.LLMProvider]
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = defaults.BaseURL
	}
	if p.TextModel == "" {
		p.TextModel = defaults.TextModel
	}
	if p.VisionModel == "" {
		p.VisionModel = defaults.VisionModel
	}

	// Embedding configuration. The API key falls back to the LLM key so a
	// single-key setup works out of the box.
	p.EmbeddingAPIKey = getEnvOrDefault("AGRIGPT_EMBEDDING_API_KEY", p.LLMAPIKey)
	p.EmbeddingBaseURL = getEnvOrDefault("AGRIGPT_EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	p.EmbeddingModel = getEnvOrDefault("AGRIGPT_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingDimensions = getEnvOrDefaultInt("AGRIGPT_EMBEDDING_DIMENSIONS", 1536)

	p.Driver = getEnvOrDefault("AGRIGPT_DRIVER", "postgres")
	p.DSN = getEnvOrDefault("AGRIGPT_DSN", "")

	p.OpenWeatherAPIKey = getEnvOrDefault("AGRIGPT_OPENWEATHER_API_KEY", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		if p.Mode == "prod" {
			if runtime.GOOS == "windows" {
				p.Data = filepath.Join(os.Getenv("ProgramData"), "agrigpt")
			} else {
				p.Data = "/var/opt/agrigpt"
			}
		} else {
			p.Data = "data"
		}
	}
	if !filepath.IsAbs(p.Data) {
		absDir, err := filepath.Abs(filepath.Join(filepath.Dir(os.Args[0]), p.Data))
		if err != nil {
			return err
		}
		p.Data = absDir
	}
	if _, err := os.Stat(p.Data); os.IsNotExist(err) {
		if err := os.MkdirAll(p.Data, 0770); err != nil {
			slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver != "" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	return nil
}
