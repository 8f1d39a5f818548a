package llm

import (
	"context"
	"errors"
)

// ErrUnavailable marks a provider that is unreachable or out of transient
// retry budget. Callers decide whether to skip the page or abort the session;
// it is never silently ignored.
var ErrUnavailable = errors.New("inference capability unavailable")

// Provider defines the interface for inference providers.
// The engine assumes nothing beyond this contract: the response may be slow,
// malformed, or missing entirely.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Infer sends one bounded, schema-described request and returns the raw
	// response text. Transient transport failures are retried internally;
	// persistent failure wraps ErrUnavailable.
	Infer(ctx context.Context, req InferRequest) (*InferResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// InferRequest contains one page-review inference request
type InferRequest struct {
	// System carries the reviewer instructions (strict JSON contract, no
	// invented measurements, confidence policy)
	System string

	// Prompt is the page-scoped user content: project metadata, applicable
	// rules with thresholds and citations, and extracted text if present
	Prompt string

	// ImageRefs are opaque rendered-page handles from the rendering
	// collaborator. Providers that support vision attach them; others note
	// the reference in text.
	ImageRefs []string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// InferResponse contains the raw provider output, prior to any validation
type InferResponse struct {
	Content    string // raw text, possibly fenced or malformed
	Model      string
	TokensUsed int
}

// Config holds inference provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout per request, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// RequestRetries bounds transient transport retries per call
	RequestRetries int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "openai",
		Timeout:        90,
		MaxTokens:      2000,
		RequestRetries: 3,
	}
}
