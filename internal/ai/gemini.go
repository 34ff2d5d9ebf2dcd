package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements LLMProvider using Google's Gemini models.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey, model string, temperature float32) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Complete replays the transcript as a chat session and sends the final user turn.
// A GenerativeModel is built per call; the shared one would race on History.
func (p *GeminiProvider) Complete(ctx context.Context, transcript []Turn) (string, error) {
	system, history, last, err := splitTranscript(transcript)
	if err != nil {
		return "", newError(KindUnexpected, "build chat", err)
	}

	model := p.client.GenerativeModel(ModelFrom(ctx, p.model))
	model.SetTemperature(p.temperature)
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", newError(KindProvider, "gemini generation error", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", newError(KindEmptyResponse, "no response candidates from Gemini", nil)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}
	text := strings.TrimSpace(responseText.String())
	if text == "" {
		return "", newError(KindEmptyResponse, "gemini returned no text", nil)
	}
	return text, nil
}

// splitTranscript maps transcript turns onto Gemini's chat shape: system turns
// become the system instruction, the final turn is the message to send and
// everything in between is history. Gemini calls the assistant "model".
func splitTranscript(transcript []Turn) (system string, history []*genai.Content, last string, err error) {
	if len(transcript) == 0 {
		return "", nil, "", errors.New("empty transcript")
	}
	final := transcript[len(transcript)-1]
	if final.Role != RoleUser {
		return "", nil, "", fmt.Errorf("last turn must be from the user, got %q", final.Role)
	}

	var sys []string
	for _, t := range transcript[:len(transcript)-1] {
		switch t.Role {
		case RoleSystem:
			sys = append(sys, t.Content)
		case RoleUser:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(t.Content)}})
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(t.Content)}})
		default:
			return "", nil, "", fmt.Errorf("unknown role %q", t.Role)
		}
	}
	return strings.Join(sys, "\n\n"), history, final.Content, nil
}
