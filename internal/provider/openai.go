package provider

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAIModel = openai.Whisper1

	openAITimeout     = 60 * time.Second
	openAIPlaceholder = "your_api_key_here"
)

// OpenAIConfig - настройки OpenAI (или совместимого) API транскрипции.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAI распознаёт речь через /v1/audio/transcriptions.
type OpenAI struct {
	remote
	cfg    OpenAIConfig
	client *openai.Client
}

// NewOpenAI создаёт провайдер. httpClient может быть nil.
func NewOpenAI(cfg OpenAIConfig, httpClient *http.Client) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient == nil {
		httpClient = newHTTPClient(openAITimeout, false)
	}
	oc.HTTPClient = httpClient
	return &OpenAI{cfg: cfg, client: openai.NewClientWithConfig(oc)}
}

func (o *OpenAI) Name() string { return "OpenAI" }

func (o *OpenAI) ValidateConfig(context.Context) error {
	key := strings.TrimSpace(o.cfg.APIKey)
	if key == "" || key == openAIPlaceholder {
		return configErrorf(NameOpenAI, "OPENAI_API_KEY not set in .env file")
	}
	if o.cfg.Model == "" {
		return configErrorf(NameOpenAI, "OpenAI model not set")
	}
	return nil
}

func (o *OpenAI) AvailableModels() []string {
	return []string{openai.Whisper1, "gpt-4o-transcribe", "gpt-4o-mini-transcribe"}
}

func (o *OpenAI) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, openAITimeout)
	defer cancel()

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.cfg.Model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(wav),
		Language: NormalizeLanguage(language),
	})
	if err != nil {
		return "", o.mapError(err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (o *OpenAI) mapError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	slog.Error("openai transcription error", "status", status, "error", err)
	switch status {
	case http.StatusUnauthorized:
		return &ConfigError{Provider: NameOpenAI, Msg: "Invalid OpenAI API key", Err: err}
	case http.StatusForbidden:
		return &ConfigError{Provider: NameOpenAI, Msg: "OpenAI API access forbidden", Err: err}
	case 0:
		return &RuntimeError{Provider: NameOpenAI, Msg: "Network error", Err: err}
	}
	return &RuntimeError{Provider: NameOpenAI, StatusCode: status, Msg: "OpenAI API error", Err: err}
}
