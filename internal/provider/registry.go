package provider

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"voicesnip/internal/models"
)

// Имена провайдеров, как они хранятся в настройках.
const (
	NameLocalCPU = "whisper-local-cpu"
	NameLocalGPU = "whisper-local-gpu"
	NameDeepgram = "deepgram-cloud"
	NameServer   = "faster-whisper-server"
	NameOpenAI   = "openai-cloud"
)

const localPrefix = "whisper-local-"

// Config - настройки всех вариантов. Используется только поле выбранного.
type Config struct {
	Local    LocalConfig
	Deepgram DeepgramConfig
	Server   ServerConfig
	OpenAI   OpenAIConfig
}

// Deps - общие зависимости провайдеров.
type Deps struct {
	Models     *models.Manager
	Loader     EngineLoader
	HTTPClient *http.Client
}

type constructor func(cfg Config, deps Deps) Provider

var registry = map[string]constructor{
	NameLocalCPU: newLocal,
	NameLocalGPU: newLocal,
	NameDeepgram: func(cfg Config, deps Deps) Provider { return NewDeepgram(cfg.Deepgram, deps.HTTPClient) },
	NameServer:   func(cfg Config, deps Deps) Provider { return NewServer(cfg.Server, deps.HTTPClient) },
	NameOpenAI:   func(cfg Config, deps Deps) Provider { return NewOpenAI(cfg.OpenAI, deps.HTTPClient) },
}

func newLocal(cfg Config, deps Deps) Provider {
	return NewLocal(cfg.Local, deps.Models, deps.Loader)
}

// Names возвращает известные имена провайдеров по алфавиту.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New создаёт провайдер по имени. Суффикс -cpu/-gpu локальных имён
// задаёт устройство.
func New(name string, cfg Config, deps Deps) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	ctor, ok := registry[key]
	if !ok {
		return nil, configErrorf(name, "Unknown provider '%s'. Available: %s", name, strings.Join(Names(), ", "))
	}

	if strings.HasPrefix(key, localPrefix) {
		if strings.HasSuffix(key, "gpu") {
			cfg.Local.Device = DeviceGPU
		} else {
			cfg.Local.Device = DeviceCPU
		}
	}
	return ctor(cfg, deps), nil
}

// IsLocal сообщает, работает ли провайдер на этой машине.
func IsLocal(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), localPrefix)
}

// BaseName возвращает ключ для хранения модели в настройках:
// оба локальных варианта делят одну модель.
func BaseName(name string) string {
	switch strings.ToLower(name) {
	case NameLocalCPU, NameLocalGPU:
		return "whisper"
	case NameServer:
		return "faster-whisper-server"
	case NameDeepgram:
		return "deepgram"
	case NameOpenAI:
		return "openai"
	}
	return name
}

// FeatureFor возвращает флаг установки, без которого провайдер недоступен.
func FeatureFor(name string) (string, error) {
	switch strings.ToLower(name) {
	case NameLocalCPU:
		return "whisper", nil
	case NameLocalGPU:
		return "cuda", nil
	case NameServer:
		return "faster-whisper-server", nil
	case NameDeepgram:
		return "deepgram", nil
	case NameOpenAI:
		return "openai", nil
	}
	return "", fmt.Errorf("unknown provider %q", name)
}

// DisplayName - подпись провайдера в меню.
func DisplayName(name string) string {
	switch strings.ToLower(name) {
	case NameLocalCPU:
		return "Whisper Local CPU (Free)"
	case NameLocalGPU:
		return "Whisper Local GPU (Free, CUDA)"
	case NameServer:
		return "Faster Whisper Server"
	case NameDeepgram:
		return "Deepgram Cloud (API Key required)"
	case NameOpenAI:
		return "OpenAI Cloud (API Key required)"
	}
	return name
}
