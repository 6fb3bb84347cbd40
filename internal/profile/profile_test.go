package profile

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ghiseuEnvVars = []string{
	"GHISEU_PUBLIC_URL",
	"GHISEU_SESSION_STORE",
	"GHISEU_SESSION_TTL",
	"GHISEU_SESSION_CAPACITY",
	"GHISEU_MAX_HISTORY_TURNS",
	"GHISEU_HOP_LIMIT",
	"GHISEU_CHECKLIST_DIR",
	"GHISEU_AI_ENABLED",
	"GHISEU_AI_LLM_PROVIDER",
	"GHISEU_AI_OPENAI_API_KEY",
	"GHISEU_AI_OPENAI_BASE_URL",
	"GHISEU_AI_DEEPSEEK_API_KEY",
	"GHISEU_AI_DEEPSEEK_BASE_URL",
	"GHISEU_AI_SILICONFLOW_API_KEY",
	"GHISEU_AI_SILICONFLOW_BASE_URL",
	"GHISEU_AI_OLLAMA_BASE_URL",
	"GHISEU_AI_LLM_MODEL",
	"GHISEU_AI_CLASSIFIER_ENABLED",
	"GHISEU_AI_CLASSIFIER_THRESHOLD",
	"GHISEU_AI_DOC_NORMALIZER_ENABLED",
	"GHISEU_OCR_ENABLED",
	"GHISEU_TEXTEXTRACT_ENABLED",
	"GHISEU_OCR_TESSERACT_PATH",
	"GHISEU_OCR_TESSDATA_PATH",
	"GHISEU_OCR_LANGUAGES",
	"GHISEU_TEXTEXTRACT_TIKA_URL",
	"GHISEU_RATE_LIMIT_RPS",
	"GHISEU_RATE_LIMIT_BURST",
}

// clearEnv unsets every GHISEU_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range ghiseuEnvVars {
		t.Setenv(key, "")
	}
}

func TestProfileDefaults(t *testing.T) {
	clearEnv(t)

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "memory", p.SessionStore)
	assert.Equal(t, 24*time.Hour, p.SessionTTL)
	assert.Equal(t, 10000, p.SessionCapacity)
	assert.Equal(t, 30, p.MaxHistoryTurns)
	assert.Equal(t, 25, p.HopLimit)
	assert.Empty(t, p.ChecklistDir)

	assert.False(t, p.AIEnabled)
	assert.False(t, p.AIClassifierEnabled)
	assert.Equal(t, "openai", p.AILLMProvider)
	assert.Equal(t, "https://api.openai.com/v1", p.AIOpenAIBaseURL)
	assert.Equal(t, "https://api.deepseek.com", p.AIDeepSeekBaseURL)
	assert.Equal(t, "gpt-4o-mini", p.AILLMModel)
	assert.InDelta(t, 0.55, p.AIClassifierThreshold, 1e-9)

	assert.False(t, p.OCREnabled)
	assert.Equal(t, "tesseract", p.TesseractPath)
	assert.Equal(t, "ron+eng", p.OCRLanguages)
	assert.Equal(t, "http://localhost:9998", p.TikaServerURL)

	assert.InDelta(t, 2.0, p.RateLimitPerSecond, 1e-9)
	assert.Equal(t, 5, p.RateLimitBurst)
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		check    func(t *testing.T, p *Profile)
	}{
		{
			name:     "AI enabled turns classifier on",
			envVar:   "GHISEU_AI_ENABLED",
			envValue: "true",
			check: func(t *testing.T, p *Profile) {
				assert.True(t, p.AIEnabled)
				assert.True(t, p.AIClassifierEnabled)
			},
		},
		{
			name:     "session ttl",
			envVar:   "GHISEU_SESSION_TTL",
			envValue: "90m",
			check: func(t *testing.T, p *Profile) {
				assert.Equal(t, 90*time.Minute, p.SessionTTL)
			},
		},
		{
			name:     "hop limit",
			envVar:   "GHISEU_HOP_LIMIT",
			envValue: "10",
			check: func(t *testing.T, p *Profile) {
				assert.Equal(t, 10, p.HopLimit)
			},
		},
		{
			name:     "invalid int keeps default",
			envVar:   "GHISEU_MAX_HISTORY_TURNS",
			envValue: "many",
			check: func(t *testing.T, p *Profile) {
				assert.Equal(t, 30, p.MaxHistoryTurns)
			},
		},
		{
			name:     "classifier threshold",
			envVar:   "GHISEU_AI_CLASSIFIER_THRESHOLD",
			envValue: "0.7",
			check: func(t *testing.T, p *Profile) {
				assert.InDelta(t, 0.7, p.AIClassifierThreshold, 1e-9)
			},
		},
		{
			name:     "ocr languages",
			envVar:   "GHISEU_OCR_LANGUAGES",
			envValue: "ron",
			check: func(t *testing.T, p *Profile) {
				assert.Equal(t, "ron", p.OCRLanguages)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.envVar, tt.envValue)

			p := &Profile{}
			p.FromEnv()
			tt.check(t, p)
		})
	}
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    bool
	}{
		{"disabled", Profile{AIEnabled: false, AIOpenAIAPIKey: "k"}, false},
		{"enabled without key", Profile{AIEnabled: true, AILLMProvider: "openai"}, false},
		{"enabled with openai key", Profile{AIEnabled: true, AIOpenAIAPIKey: "k"}, true},
		{"enabled with deepseek key", Profile{AIEnabled: true, AIDeepSeekAPIKey: "k"}, true},
		{"ollama needs no key", Profile{AIEnabled: true, AILLMProvider: "ollama"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.IsAIEnabled())
		})
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	t.Run("sqlite dsn derived from data dir", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: dir, SessionStore: "memory", HopLimit: 25, AIClassifierThreshold: 0.55}
		require.NoError(t, p.Validate())
		assert.Equal(t, "sqlite", p.Driver)
		assert.Contains(t, p.DSN, "ghiseu_dev.db")
	})

	t.Run("unknown mode falls back to demo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Data: dir, SessionStore: "memory", HopLimit: 25}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: dir, Driver: "postgres", SessionStore: "memory", HopLimit: 25}
		assert.Error(t, p.Validate())
	})

	t.Run("mysql is rejected", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: dir, Driver: "mysql", DSN: "x", SessionStore: "memory", HopLimit: 25}
		assert.Error(t, p.Validate())
	})

	t.Run("unknown session store", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: dir, SessionStore: "redis", HopLimit: 25}
		assert.Error(t, p.Validate())
	})

	t.Run("hop limit must be positive", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: dir, SessionStore: "memory"}
		assert.Error(t, p.Validate())
	})

	t.Run("missing data dir", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: dir + string(os.PathSeparator) + "missing", SessionStore: "memory", HopLimit: 25}
		assert.Error(t, p.Validate())
	})
}
