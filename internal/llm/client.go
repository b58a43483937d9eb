// Package llm provides clients for external text-analysis providers.
//
// All provider-format assumptions stay inside this package so the rubric
// and aggregation logic remain provider-agnostic.
package llm

import (
	"context"
	"time"
)

// Client defines the interface for analysis providers. Implementations
// treat the provider as an opaque prompt-in, text-out function.
type Client interface {
	// Analyze sends the prompt and returns the provider's raw text reply.
	// A single attempt is made; the caller degrades on failure rather
	// than retrying.
	Analyze(ctx context.Context, prompt string) (string, error)
}

// Config holds provider client settings.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int
}
