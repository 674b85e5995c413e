package ai

import (
	"errors"

	"github.com/reclaimhq/reclaim/internal/profile"
)

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string // openai, siliconflow (OpenAI-compatible)
	Model      string // text-embedding-3-small, BAAI/bge-m3, ...
	Dimensions int
	APIKey     string
	BaseURL    string
	// RequestsPerSec bounds outbound embedding calls. Zero disables the limiter.
	RequestsPerSec float64
}

// NewEmbeddingConfigFromProfile creates embedding config from profile.
func NewEmbeddingConfigFromProfile(p *profile.Profile) *EmbeddingConfig {
	return &EmbeddingConfig{
		Provider:       p.AIProvider,
		Model:          p.AIModel,
		Dimensions:     p.AIDimensions,
		APIKey:         p.AIAPIKey,
		BaseURL:        p.AIBaseURL,
		RequestsPerSec: p.AIRequestsPerSec,
	}
}

// Validate checks the embedding configuration.
func (c *EmbeddingConfig) Validate() error {
	if c.Provider == "" {
		return errors.New("embedding provider is required")
	}
	if c.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	return nil
}
