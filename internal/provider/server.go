package provider

import (
	"bytes"
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultServerEndpoint = "http://localhost:8000/v1/audio/transcriptions"

	transcriptionsPath = "/v1/audio/transcriptions"
	healthTimeout      = 5 * time.Second
	// Первое обращение может скачивать модель на сервере.
	serverTimeout = 300 * time.Second
)

// ServerConfig - настройки faster-whisper-server (OpenAI-совместимый API).
type ServerConfig struct {
	Endpoint string
	APIKey   string
	// InsecureSkipVerify отключает проверку TLS сертификата.
	InsecureSkipVerify bool
}

// Server распознаёт речь на удалённом faster-whisper-server.
type Server struct {
	remote
	cfg    ServerConfig
	client *http.Client
}

// NewServer создаёт провайдер. client может быть nil.
func NewServer(cfg ServerConfig, client *http.Client) *Server {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultServerEndpoint
	}
	if client == nil {
		client = newHTTPClient(serverTimeout, cfg.InsecureSkipVerify)
	}
	return &Server{cfg: cfg, client: client}
}

func (s *Server) Name() string { return "Faster Whisper Server" }

// AvailableModels пуст: модель настраивается на сервере.
func (s *Server) AvailableModels() []string { return []string{} }

// HealthURL возвращает адрес проверки доступности сервера.
func (s *Server) HealthURL() (string, error) {
	if strings.Contains(s.cfg.Endpoint, transcriptionsPath) {
		return strings.Replace(s.cfg.Endpoint, transcriptionsPath, "/health", 1), nil
	}
	u, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		return "", err
	}
	u.Path = "/health"
	u.RawQuery = ""
	return u.String(), nil
}

func (s *Server) ValidateConfig(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.Endpoint) == "" {
		return configErrorf(NameServer, "FASTER_WHISPER_ENDPOINT not set")
	}
	health, err := s.HealthURL()
	if err != nil {
		return &ConfigError{Provider: NameServer, Msg: "invalid FASTER_WHISPER_ENDPOINT", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, health, nil)
	if err != nil {
		return &ConfigError{Provider: NameServer, Msg: "invalid FASTER_WHISPER_ENDPOINT", Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &ConfigError{Provider: NameServer, Msg: "Faster Whisper Server timeout at " + s.cfg.Endpoint, Err: err}
		}
		return &ConfigError{Provider: NameServer, Msg: "Cannot connect to Faster Whisper Server at " + s.cfg.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return configErrorf(NameServer, "Faster Whisper Server health check failed: %d", resp.StatusCode)
	}
	return nil
}

// Transcribe отправляет WAV формой multipart.
// Ошибки сервера и сети только логируются: результат пустой.
func (s *Server) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", &RuntimeError{Provider: NameServer, Msg: "build request", Err: err}
	}
	if _, err := fw.Write(wav); err != nil {
		return "", &RuntimeError{Provider: NameServer, Msg: "build request", Err: err}
	}
	if lang := NormalizeLanguage(language); lang != "" {
		if err := mw.WriteField("language", lang); err != nil {
			return "", &RuntimeError{Provider: NameServer, Msg: "build request", Err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return "", &RuntimeError{Provider: NameServer, Msg: "build request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, serverTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, &body)
	if err != nil {
		return "", &RuntimeError{Provider: NameServer, Msg: "build request", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("faster whisper server network error", "error", err)
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("faster whisper server error", "status", resp.StatusCode, "body", readErrorBody(resp.Body))
		return "", nil
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(resp.Body, &out); err != nil {
		slog.Error("faster whisper server response", "error", err)
		return "", nil
	}
	return strings.TrimSpace(out.Text), nil
}
