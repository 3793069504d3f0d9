// Package synth converts natural-language questions into candidate ClickHouse
// SQL by calling a hosted language model. The model is treated as an opaque,
// non-deterministic service: one round trip per question, no retries, and no
// fallback SQL when the call fails.
package synth

import (
	"context"
	"fmt"

	"github.com/ovitag/porterbot/internal/config"
)

// Provider is the boundary to a hosted LLM.
type Provider interface {
	// GenerateSQL converts a natural-language question into a candidate query
	// using the given schema context. The returned SQL has not yet been through
	// the correction pipeline and must never be executed directly.
	GenerateSQL(ctx context.Context, req Request) (Candidate, error)

	// Name returns the provider name for logging.
	Name() string
}

// Request carries the question and its grounding context. SystemPrompt is
// built once at startup (BuildSystemPrompt over the static schema context)
// and reused for every question.
type Request struct {
	Question     string
	SystemPrompt string
	MaxTokens    int // 0 = provider default
}

// Candidate is the synthesizer's output: SQL plus a human explanation.
type Candidate struct {
	SQL         string
	Explanation string
	Tokens      int // tokens consumed, for cost tracking
}

// Error reports a failed or unparseable synthesis call. The caller surfaces
// it to the user with a suggestion to rephrase; nothing retries automatically.
type Error struct {
	Provider string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("synthesis failed (%s): %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("synthesis failed (%s): %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewProvider builds the configured provider. Supported: "openai" (and any
// OpenAI-compatible endpoint), "azure" (Azure OpenAI deployments), "anthropic".
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case "openai", "":
		model := cfg.LLMModel
		if model == "" {
			model = "gpt-4o"
		}
		baseURL := cfg.LLMBaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return NewOpenAIProvider(cfg.LLMAPIKey, model, baseURL, cfg.LLMTimeout), nil

	case "azure":
		return NewAzureProvider(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.AzureDeployment, cfg.AzureAPIVersion, cfg.LLMTimeout), nil

	case "anthropic":
		model := cfg.LLMModel
		if model == "" {
			model = "claude-sonnet-4-20250514"
		}
		baseURL := cfg.LLMBaseURL
		if baseURL == "" {
			baseURL = "https://api.anthropic.com/v1"
		}
		return NewAnthropicProvider(cfg.LLMAPIKey, model, baseURL, cfg.LLMTimeout), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: openai, azure, anthropic)", cfg.LLMProvider)
	}
}
