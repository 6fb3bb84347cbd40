package ai

import (
	"errors"

	"github.com/hrygo/ghiseu/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM           LLMConfig
	Classifier    ClassifierConfig
	DocNormalizer DocNormalizerConfig
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string // openai, deepseek, siliconflow, ollama
	Model       string // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 256
	Temperature float32 // default: 0
}

// ClassifierConfig controls the intent classifier used by the router agent.
type ClassifierConfig struct {
	Enabled bool
	// Threshold below which a classifier answer is replaced by the rule fallback.
	Threshold float64
}

// DocNormalizerConfig controls the LLM pass of document-kind normalisation.
type DocNormalizerConfig struct {
	Enabled bool
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
		Classifier: ClassifierConfig{
			Threshold: p.AIClassifierThreshold,
		},
	}
	if cfg.Classifier.Threshold <= 0 {
		cfg.Classifier.Threshold = 0.55
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.Classifier.Enabled = p.AIClassifierEnabled
	cfg.DocNormalizer.Enabled = p.AIDocNormalizerEnabled

	// LLM configuration
	cfg.LLM = LLMConfig{
		Provider:    p.AILLMProvider,
		Model:       p.AILLMModel,
		MaxTokens:   256,
		Temperature: 0,
	}

	switch p.AILLMProvider {
	case "deepseek":
		cfg.LLM.APIKey = p.AIDeepSeekAPIKey
		cfg.LLM.BaseURL = p.AIDeepSeekBaseURL
	case "openai":
		cfg.LLM.APIKey = p.AIOpenAIAPIKey
		cfg.LLM.BaseURL = p.AIOpenAIBaseURL
	case "siliconflow":
		cfg.LLM.APIKey = p.AISiliconFlowAPIKey
		cfg.LLM.BaseURL = p.AISiliconFlowBaseURL
	case "ollama":
		cfg.LLM.BaseURL = p.AIOllamaBaseURL
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.Classifier.Threshold < 0 || c.Classifier.Threshold > 1 {
		return errors.New("classifier threshold must be within [0, 1]")
	}

	return nil
}
