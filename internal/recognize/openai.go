package recognize

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/linuxmatters/speechenergy/internal/logger"
)

// DefaultModel is the OpenAI transcription model used when none is set.
const DefaultModel = openai.Whisper1

// OpenAIRecognizer transcribes audio with the OpenAI transcription endpoint
type OpenAIRecognizer struct {
	client   *openai.Client
	model    string
	language string
}

// NewOpenAI creates a recognizer for apiKey. An empty model uses DefaultModel.
func NewOpenAI(apiKey, model, language string) (*OpenAIRecognizer, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model, language), nil
}

// NewOpenAIWithConfig creates a recognizer from a full client config, for
// proxies and compatible endpoints.
func NewOpenAIWithConfig(cfg openai.ClientConfig, model, language string) *OpenAIRecognizer {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIRecognizer{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
	}
}

// Recognize uploads the file at path and returns the transcript text.
func (r *OpenAIRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	log := logger.With("recognize")
	log.Debug().Str("model", r.model).Str("file", path).Msg("transcribing")

	req := openai.AudioRequest{
		Model:    r.model,
		FilePath: path,
		Language: r.language,
		Format:   openai.AudioResponseFormatText,
	}
	resp, err := r.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecognition, err)
	}

	return resp.Text, nil
}
