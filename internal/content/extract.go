package content

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrExtractionFailed wraps any underlying provider error so callers can
// recognize an extraction-specific failure without inspecting provider
// internals.
var ErrExtractionFailed = errors.New("content: extraction failed")

// Extractor turns (body, prompt) into extracted text via an LLM. Extraction
// failures never fail the whole scrape (spec §4.5, §7) — callers fall back
// to the pre-extraction content, annotated, on error.
type Extractor interface {
	Extract(ctx context.Context, body []byte, prompt string) (string, error)
}

// messagesClient captures the subset of the Anthropic SDK used here, so
// tests can substitute a stub without a live API key.
type messagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicExtractor is the concrete LLM-backed Extractor.
type AnthropicExtractor struct {
	msg       messagesClient
	model     string
	maxTokens int64
}

// NewAnthropicExtractor builds an Extractor from an API key and model id.
func NewAnthropicExtractor(apiKey, model string, maxTokens int64) *AnthropicExtractor {
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicExtractor{msg: &client.Messages, model: model, maxTokens: maxTokens}
}

func (e *AnthropicExtractor) Extract(ctx context.Context, body []byte, prompt string) (string, error) {
	userText := fmt.Sprintf("%s\n\n---\n\n%s", prompt, string(body))
	msg, err := e.msg.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(e.model),
		MaxTokens: e.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userText)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	if out == "" {
		return "", fmt.Errorf("%w: empty response", ErrExtractionFailed)
	}
	return out, nil
}

// NoopExtractor is used when no LLM provider is configured. It always
// fails, matching the contract that extraction is skipped entirely when no
// provider is available (spec §4.5, §8: extracted tier exists "iff extract
// and LLM configured").
type NoopExtractor struct{}

func (NoopExtractor) Extract(ctx context.Context, body []byte, prompt string) (string, error) {
	return "", fmt.Errorf("%w: no LLM provider configured", ErrExtractionFailed)
}
