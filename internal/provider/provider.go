// Package provider описывает контракт движков распознавания речи и их реестр.
//
// Transcribe возвращает три вида результата:
//   - ("текст", nil) - речь распознана;
//   - ("", nil) - речь не обнаружена, это не ошибка;
//   - ошибка, для которой errors.Is(err, ErrConfig) или errors.Is(err, ErrRuntime).
package provider

import (
	"context"
	"strings"
)

// Provider - движок распознавания речи.
type Provider interface {
	// Name возвращает отображаемое имя.
	Name() string
	// ValidateConfig проверяет настройки. Сетевые запросы только там,
	// где без них нельзя (проверка доступности сервера).
	ValidateConfig(ctx context.Context) error
	// AvailableModels возвращает модели для выбора. Пустой список -
	// модель задаётся на стороне сервера.
	AvailableModels() []string
	// Transcribe распознаёт WAV. language "" или "auto" - автоопределение.
	Transcribe(ctx context.Context, wav []byte, language string) (string, error)
	// UnloadModel освобождает загруженную модель. Повторный вызов безопасен.
	UnloadModel()
	// IsModelDownloaded сообщает, есть ли модель в локальном кэше.
	IsModelDownloaded() bool
}

// NormalizeLanguage переводит "auto" в пустую строку (автоопределение).
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "auto" {
		return ""
	}
	return lang
}

// remote - общая часть облачных и серверных движков.
type remote struct{}

func (remote) UnloadModel()            {}
func (remote) IsModelDownloaded() bool { return true }
