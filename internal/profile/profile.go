package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the assistant server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where ghiseu stores sessions, uploads and cases
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// PublicURL prefixes navigation links sent to the UI (empty keeps them relative)
	PublicURL string

	// Session Configuration
	SessionStore    string        // GHISEU_SESSION_STORE: memory | db (default: memory)
	SessionTTL      time.Duration // GHISEU_SESSION_TTL (default: 24h)
	SessionCapacity int           // GHISEU_SESSION_CAPACITY (default: 10000)
	MaxHistoryTurns int           // GHISEU_MAX_HISTORY_TURNS (default: 30)
	HopLimit        int           // GHISEU_HOP_LIMIT (default: 25)
	ChecklistDir    string        // GHISEU_CHECKLIST_DIR (default: embedded checklists)

	// AI Configuration
	AIEnabled              bool    // GHISEU_AI_ENABLED
	AILLMProvider          string  // GHISEU_AI_LLM_PROVIDER (default: openai)
	AIOpenAIAPIKey         string  // GHISEU_AI_OPENAI_API_KEY
	AIOpenAIBaseURL        string  // GHISEU_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AIDeepSeekAPIKey       string  // GHISEU_AI_DEEPSEEK_API_KEY
	AIDeepSeekBaseURL      string  // GHISEU_AI_DEEPSEEK_BASE_URL (default: https://api.deepseek.com)
	AISiliconFlowAPIKey    string  // GHISEU_AI_SILICONFLOW_API_KEY
	AISiliconFlowBaseURL   string  // GHISEU_AI_SILICONFLOW_BASE_URL (default: https://api.siliconflow.cn/v1)
	AIOllamaBaseURL        string  // GHISEU_AI_OLLAMA_BASE_URL (default: http://localhost:11434/v1)
	AILLMModel             string  // GHISEU_AI_LLM_MODEL (default: gpt-4o-mini)
	AIClassifierEnabled    bool    // GHISEU_AI_CLASSIFIER_ENABLED (default: true when AI is enabled)
	AIClassifierThreshold  float64 // GHISEU_AI_CLASSIFIER_THRESHOLD (default: 0.55)
	AIDocNormalizerEnabled bool    // GHISEU_AI_DOC_NORMALIZER_ENABLED

	// Upload Processing Configuration
	OCREnabled         bool   // GHISEU_OCR_ENABLED (default: false)
	TextExtractEnabled bool   // GHISEU_TEXTEXTRACT_ENABLED (default: false)
	TesseractPath      string // GHISEU_OCR_TESSERACT_PATH (default: tesseract)
	TessdataPath       string // GHISEU_OCR_TESSDATA_PATH (default: "")
	OCRLanguages       string // GHISEU_OCR_LANGUAGES (default: ron+eng)
	TikaServerURL      string // GHISEU_TEXTEXTRACT_TIKA_URL (default: http://localhost:9998)

	// Rate limiting (per session)
	RateLimitPerSecond float64 // GHISEU_RATE_LIMIT_RPS (default: 2)
	RateLimitBurst     int     // GHISEU_RATE_LIMIT_BURST (default: 5)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and at least one API key or base URL is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && (p.AIOpenAIAPIKey != "" || p.AIDeepSeekAPIKey != "" || p.AISiliconFlowAPIKey != "" || p.AILLMProvider == "ollama")
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("invalid bool in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return b
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid int in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("invalid float in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return f
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}

// FromEnv loads the assistant, AI and upload settings from GHISEU_* environment variables.
// Server binding fields (mode, port, data, driver, dsn) are owned by the CLI flags.
func (p *Profile) FromEnv() {
	p.PublicURL = getEnvOrDefault("GHISEU_PUBLIC_URL", p.PublicURL)

	p.SessionStore = getEnvOrDefault("GHISEU_SESSION_STORE", "memory")
	p.SessionTTL = getDurationEnv("GHISEU_SESSION_TTL", 24*time.Hour)
	p.SessionCapacity = getIntEnv("GHISEU_SESSION_CAPACITY", 10000)
	p.MaxHistoryTurns = getIntEnv("GHISEU_MAX_HISTORY_TURNS", 30)
	p.HopLimit = getIntEnv("GHISEU_HOP_LIMIT", 25)
	p.ChecklistDir = os.Getenv("GHISEU_CHECKLIST_DIR")

	p.AIEnabled = getBoolEnv("GHISEU_AI_ENABLED", false)
	p.AILLMProvider = getEnvOrDefault("GHISEU_AI_LLM_PROVIDER", "openai")
	p.AIOpenAIAPIKey = os.Getenv("GHISEU_AI_OPENAI_API_KEY")
	p.AIOpenAIBaseURL = getEnvOrDefault("GHISEU_AI_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.AIDeepSeekAPIKey = os.Getenv("GHISEU_AI_DEEPSEEK_API_KEY")
	p.AIDeepSeekBaseURL = getEnvOrDefault("GHISEU_AI_DEEPSEEK_BASE_URL", "https://api.deepseek.com")
	p.AISiliconFlowAPIKey = os.Getenv("GHISEU_AI_SILICONFLOW_API_KEY")
	p.AISiliconFlowBaseURL = getEnvOrDefault("GHISEU_AI_SILICONFLOW_BASE_URL", "https://api.siliconflow.cn/v1")
	p.AIOllamaBaseURL = getEnvOrDefault("GHISEU_AI_OLLAMA_BASE_URL", "http://localhost:11434/v1")
	p.AILLMModel = getEnvOrDefault("GHISEU_AI_LLM_MODEL", "gpt-4o-mini")
	p.AIClassifierEnabled = getBoolEnv("GHISEU_AI_CLASSIFIER_ENABLED", p.AIEnabled)
	p.AIClassifierThreshold = getFloatEnv("GHISEU_AI_CLASSIFIER_THRESHOLD", 0.55)
	p.AIDocNormalizerEnabled = getBoolEnv("GHISEU_AI_DOC_NORMALIZER_ENABLED", false)

	p.OCREnabled = getBoolEnv("GHISEU_OCR_ENABLED", false)
	p.TextExtractEnabled = getBoolEnv("GHISEU_TEXTEXTRACT_ENABLED", false)
	p.TesseractPath = getEnvOrDefault("GHISEU_OCR_TESSERACT_PATH", "tesseract")
	p.TessdataPath = os.Getenv("GHISEU_OCR_TESSDATA_PATH")
	p.OCRLanguages = getEnvOrDefault("GHISEU_OCR_LANGUAGES", "ron+eng")
	p.TikaServerURL = getEnvOrDefault("GHISEU_TEXTEXTRACT_TIKA_URL", "http://localhost:9998")

	p.RateLimitPerSecond = getFloatEnv("GHISEU_RATE_LIMIT_RPS", 2)
	p.RateLimitBurst = getIntEnv("GHISEU_RATE_LIMIT_BURST", 5)
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

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "ghiseu")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/ghiseu"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "", "sqlite":
		p.Driver = "sqlite"
		if p.DSN == "" {
			dbFile := fmt.Sprintf("ghiseu_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn is required for the postgres driver")
		}
	default:
		return errors.Errorf("unsupported driver %q: only sqlite and postgres are supported", p.Driver)
	}

	if p.SessionStore != "memory" && p.SessionStore != "db" {
		return errors.Errorf("unsupported session store %q: use memory or db", p.SessionStore)
	}
	if p.HopLimit <= 0 {
		return errors.New("hop limit must be positive")
	}
	if p.AIClassifierThreshold < 0 || p.AIClassifierThreshold > 1 {
		return errors.Errorf("classifier threshold %.2f is outside [0, 1]", p.AIClassifierThreshold)
	}

	return nil
}
