package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// OpenAIProvider implements Provider for OpenAI-compatible chat completion
// APIs, including Azure OpenAI deployments.
type OpenAIProvider struct {
	apiKey     string
	model      string
	baseURL    string
	azure      bool
	deployment string
	apiVersion string
	client     *http.Client
}

// NewOpenAIProvider creates a provider for api.openai.com or any compatible
// endpoint (OpenRouter, Together, Groq, local proxies).
func NewOpenAIProvider(apiKey, model, baseURL string, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewAzureProvider creates a provider for an Azure OpenAI deployment. Azure
// routes by deployment name and api-version rather than model.
func NewAzureProvider(apiKey, endpoint, deployment, apiVersion string, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:     apiKey,
		baseURL:    endpoint,
		azure:      true,
		deployment: deployment,
		apiVersion: apiVersion,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	if p.azure {
		return "azure"
	}
	return "openai"
}

func (p *OpenAIProvider) endpoint() string {
	if p.azure {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			p.baseURL, url.PathEscape(p.deployment), url.QueryEscape(p.apiVersion))
	}
	return p.baseURL + "/chat/completions"
}

// GenerateSQL sends the question to the chat completions API and parses the
// returned SQL. Errors are wrapped in *Error for uniform handling upstream.
func (p *OpenAIProvider) GenerateSQL(ctx context.Context, req Request) (Candidate, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	payload := openAIRequest{
		Model: p.model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.Question},
		},
		MaxCompletionTokens: maxTokens,
		Temperature:         0,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Candidate{}, &Error{Provider: p.Name(), Message: "marshal request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(body))
	if err != nil {
		return Candidate{}, &Error{Provider: p.Name(), Message: "create request", Cause: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if p.azure {
		httpReq.Header.Set("api-key", p.apiKey)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Candidate{}, &Error{Provider: p.Name(), Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Candidate{}, &Error{Provider: p.Name(), Message: "read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp openAIErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return Candidate{}, &Error{Provider: p.Name(), Message: errResp.Error.Message}
		}
		return Candidate{}, &Error{Provider: p.Name(), Message: fmt.Sprintf("API returned status %d", resp.StatusCode)}
	}

	var result openAIResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Candidate{}, &Error{Provider: p.Name(), Message: "parse response", Cause: err}
	}
	if len(result.Choices) == 0 {
		return Candidate{}, &Error{Provider: p.Name(), Message: "empty choices array"}
	}

	sql := ParseSQL(result.Choices[0].Message.Content)
	if sql == "" {
		return Candidate{}, &Error{Provider: p.Name(), Message: "response contained no SELECT statement"}
	}

	return Candidate{SQL: sql, Tokens: result.Usage.TotalTokens}, nil
}

// OpenAI API request/response types

type openAIRequest struct {
	Model               string          `json:"model,omitempty"`
	Messages            []openAIMessage `json:"messages"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	Temperature         float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
