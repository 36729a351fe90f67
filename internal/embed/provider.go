package embed

import (
	"context"
	"fmt"

	"github.com/sensefold/sensefold/internal/model"
)

// Provider produces embedding vectors for gloss texts. Embedding
// similarity is an optional additive signal: a nil provider or a failed
// call degrades reduction to token overlap only, never to an error.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider builds a provider from configuration. An empty provider
// name returns (nil, nil): embeddings disabled.
func NewProvider(cfg model.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
