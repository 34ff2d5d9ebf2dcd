package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o"
)

// OpenAIConfig configures an OpenAI-compatible chat completions client.
// A zero Timeout leaves the call bounded only by the request context.
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature *float64
	Timeout     time.Duration
}

// OpenAIProvider implements LLMProvider against any /chat/completions endpoint
// that speaks the OpenAI wire format.
type OpenAIProvider struct {
	endpoint    string
	apiKey      string
	model       string
	temperature *float64
	httpClient  *http.Client
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{
		endpoint:    base + "/chat/completions",
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the transcript and returns the first choice's content, trimmed.
func (p *OpenAIProvider) Complete(ctx context.Context, transcript []Turn) (string, error) {
	if len(transcript) == 0 {
		return "", newError(KindUnexpected, "empty transcript", nil)
	}

	msgs := make([]chatMessage, 0, len(transcript))
	for _, t := range transcript {
		msgs = append(msgs, chatMessage{Role: string(t.Role), Content: t.Content})
	}
	reqBody, err := json.Marshal(chatRequest{
		Model:       ModelFrom(ctx, p.model),
		Messages:    msgs,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", newError(KindUnexpected, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", newError(KindUnexpected, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", newError(KindProvider, "do request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(KindProvider, "read response", err)
	}

	var cr chatResponse
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &cr) == nil && cr.Error != nil {
			msg = cr.Error.Message
		}
		return "", newError(KindProvider, fmt.Sprintf("status %d: %s", resp.StatusCode, msg), nil)
	}
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", newError(KindUnexpected, "unmarshal response", err)
	}
	if cr.Error != nil {
		return "", newError(KindProvider, "api error: "+cr.Error.Message, nil)
	}
	if len(cr.Choices) == 0 {
		return "", newError(KindEmptyResponse, "no choices in completion", nil)
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}
