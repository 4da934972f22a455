package provider

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultDeepgramModel    = "nova-2-general"
	DefaultDeepgramEndpoint = "https://api.eu.deepgram.com/v1/listen"

	deepgramTimeout     = 10 * time.Second
	deepgramPlaceholder = "your_api_key_here"
)

// DeepgramConfig - настройки облачного Deepgram.
type DeepgramConfig struct {
	APIKey   string
	Model    string
	Endpoint string
}

// Deepgram распознаёт речь через REST API Deepgram.
type Deepgram struct {
	remote
	cfg    DeepgramConfig
	client *http.Client
}

// NewDeepgram создаёт провайдер. client может быть nil.
func NewDeepgram(cfg DeepgramConfig, client *http.Client) *Deepgram {
	if cfg.Model == "" {
		cfg.Model = DefaultDeepgramModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultDeepgramEndpoint
	}
	if client == nil {
		client = newHTTPClient(deepgramTimeout, false)
	}
	return &Deepgram{cfg: cfg, client: client}
}

func (d *Deepgram) Name() string { return "Deepgram" }

func (d *Deepgram) ValidateConfig(context.Context) error {
	key := strings.TrimSpace(d.cfg.APIKey)
	if key == "" || key == deepgramPlaceholder {
		return configErrorf(NameDeepgram, "DEEPGRAM_API_KEY not set in .env file")
	}
	if d.cfg.Model == "" {
		return configErrorf(NameDeepgram, "DEEPGRAM_MODEL not set")
	}
	if d.cfg.Endpoint == "" {
		return configErrorf(NameDeepgram, "DEEPGRAM_ENDPOINT not set")
	}
	return nil
}

func (d *Deepgram) AvailableModels() []string {
	return []string{"nova-2-general", "nova-2"}
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	u, err := url.Parse(d.cfg.Endpoint)
	if err != nil {
		return "", &ConfigError{Provider: NameDeepgram, Msg: "invalid Deepgram endpoint", Err: err}
	}
	q := u.Query()
	q.Set("model", d.cfg.Model)
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	if lang := NormalizeLanguage(language); lang != "" {
		q.Set("language", lang)
	}
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, deepgramTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(wav))
	if err != nil {
		return "", &RuntimeError{Provider: NameDeepgram, Msg: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Token "+d.cfg.APIKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := d.client.Do(req)
	if err != nil {
		slog.Error("deepgram network error", "error", err)
		return "", &RuntimeError{Provider: NameDeepgram, Msg: "Network error", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		slog.Error("deepgram api error", "status", resp.StatusCode, "body", readErrorBody(resp.Body))
		return "", configErrorf(NameDeepgram, "Invalid Deepgram API key")
	case http.StatusForbidden:
		slog.Error("deepgram api error", "status", resp.StatusCode, "body", readErrorBody(resp.Body))
		return "", configErrorf(NameDeepgram, "Deepgram API access forbidden (check API key permissions)")
	default:
		slog.Error("deepgram api error", "status", resp.StatusCode, "body", readErrorBody(resp.Body))
		return "", &RuntimeError{
			Provider:   NameDeepgram,
			StatusCode: resp.StatusCode,
			Msg:        "Deepgram API returned status code " + resp.Status,
		}
	}

	var body deepgramResponse
	if err := decodeJSON(resp.Body, &body); err != nil {
		return "", &RuntimeError{Provider: NameDeepgram, Msg: "invalid Deepgram response", Err: err}
	}
	if len(body.Results.Channels) == 0 || len(body.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return strings.TrimSpace(body.Results.Channels[0].Alternatives[0].Transcript), nil
}
