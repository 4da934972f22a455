package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"voicesnip/internal/models"
	"voicesnip/internal/provider"
)

// envFiles - файлы с секретами в порядке поиска.
var envFiles = []string{".env", "voicesnip.ini"}

// LoadEnv загружает переменные окружения из первого найденного файла рядом
// с исполняемым файлом, иначе из рабочего каталога. Уже заданные переменные
// не перезаписываются. Возвращает путь загруженного файла или "".
func LoadEnv() (string, error) {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		if exe, err = filepath.EvalSymlinks(exe); err == nil {
			dirs = append(dirs, filepath.Dir(exe))
		}
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return loadEnvFrom(dirs...)
}

func loadEnvFrom(dirs ...string) (string, error) {
	for _, dir := range dirs {
		for _, name := range envFiles {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := godotenv.Load(path); err != nil {
				return "", fmt.Errorf("load %s: %w", path, err)
			}
			slog.Info("environment loaded", "path", path)
			return path, nil
		}
	}
	return "", nil
}

// ProviderConfig собирает конфигурацию провайдеров из окружения.
// Непустой model перекрывает модель выбранного провайдера name.
func ProviderConfig(name, model string) provider.Config {
	cfg := provider.Config{
		Local: provider.LocalConfig{
			Model:     firstNonEmpty(os.Getenv("WHISPER_MODEL"), models.DefaultModel),
			Precision: models.Precision(strings.ToLower(os.Getenv("WHISPER_PRECISION"))),
		},
		Deepgram: provider.DeepgramConfig{
			APIKey:   os.Getenv("DEEPGRAM_API_KEY"),
			Model:    os.Getenv("DEEPGRAM_MODEL"),
			Endpoint: os.Getenv("DEEPGRAM_ENDPOINT"),
		},
		Server: provider.ServerConfig{
			Endpoint:           os.Getenv("FASTER_WHISPER_ENDPOINT"),
			APIKey:             os.Getenv("FASTER_WHISPER_API_KEY"),
			InsecureSkipVerify: !envBool("FASTER_WHISPER_VERIFY_SSL", true),
		},
		OpenAI: provider.OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   os.Getenv("OPENAI_MODEL"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
	}

	if model == "" {
		return cfg
	}
	switch provider.BaseName(name) {
	case "whisper":
		cfg.Local.Model = model
	case "deepgram":
		cfg.Deepgram.Model = model
	case "openai":
		cfg.OpenAI.Model = model
	}
	return cfg
}

// ModelsDir возвращает каталог моделей из VOICESNIP_MODELS_DIR или каталог по умолчанию.
func ModelsDir() (string, error) {
	if dir := os.Getenv("VOICESNIP_MODELS_DIR"); dir != "" {
		return dir, nil
	}
	dir, err := models.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("models dir: %w", err)
	}
	return dir, nil
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
