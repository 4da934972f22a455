// Package i18n provides internationalization support.
package i18n

import (
	"strings"
	"sync"
)

// Language represents a UI language.
type Language string

const (
	EN Language = "en"
	DE Language = "de"
	RU Language = "ru"
)

var (
	mu      sync.RWMutex
	current = EN
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	EN: {
		"app_name":    "VoiceSnip",
		"app_tooltip": "VoiceSnip - push-to-talk dictation",

		// Tray menu
		"tray_idle":               "Stopped",
		"tray_ready":              "Ready (%s)",
		"tray_start":              "Start",
		"tray_start_hint":         "Listen for the hotkey",
		"tray_stop":               "Stop",
		"tray_stop_hint":          "Stop listening and unload the model",
		"tray_language":           "Language",
		"tray_lang_de":            "German",
		"tray_lang_en":            "English",
		"tray_lang_auto":          "Auto-Detection",
		"tray_provider":           "Provider",
		"tray_hotkey":             "Hotkey",
		"tray_notifications":      "Notifications",
		"tray_notifications_hint": "Show desktop notifications",
		"tray_quit":               "Quit",
		"tray_quit_hint":          "Close the application",

		// Status lines
		"status_recording":     "Recording...",
		"status_device_config": "Device configuration error",
		"status_device_busy":   "Device already in use",
		"status_device_open":   "Error opening microphone",
		"status_no_audio":      "No audio data recorded",
		"status_processing":    "Processing...",
		"status_busy":          "Previous recording still processing",
		"status_transcribed":   "Transcribed: ",
		"status_no_text":       "No text recognized",
		"status_config_error":  "Configuration error: ",
		"status_api_error":     "API error: ",
		"status_error":         "Error: ",
		"status_insert_error":  "Could not insert text: ",
		"status_gpu_fallback":  "GPU unavailable, the model runs on CPU",

		// Dialogs
		"dialog_error_title":    "VoiceSnip Error",
		"dialog_start_failed":   "Could not start VoiceSnip",
		"dialog_model_title":    "Model Download",
		"dialog_model_download": "The model '%s' is not cached yet and will be downloaded on the first recording. This can take a few minutes.",
		"dialog_not_installed":  "No installation profile found. Please run the installer first.",
		"dialog_invalid_hotkey": "Invalid hotkey",
	},
	DE: {
		"app_name":    "VoiceSnip",
		"app_tooltip": "VoiceSnip - Diktieren per Tastendruck",

		"tray_idle":               "Gestoppt",
		"tray_ready":              "Bereit (%s)",
		"tray_start":              "Starten",
		"tray_start_hint":         "Auf Tastenkombination warten",
		"tray_stop":               "Stoppen",
		"tray_stop_hint":          "Zuhören beenden und Modell entladen",
		"tray_language":           "Sprache",
		"tray_lang_de":            "Deutsch",
		"tray_lang_en":            "Englisch",
		"tray_lang_auto":          "Automatische Erkennung",
		"tray_provider":           "Anbieter",
		"tray_hotkey":             "Tastenkombination",
		"tray_notifications":      "Benachrichtigungen",
		"tray_notifications_hint": "Desktop-Benachrichtigungen anzeigen",
		"tray_quit":               "Beenden",
		"tray_quit_hint":          "Anwendung schließen",

		"status_recording":     "Aufnahme...",
		"status_device_config": "Fehler in der Gerätekonfiguration",
		"status_device_busy":   "Gerät wird bereits verwendet",
		"status_device_open":   "Fehler beim Öffnen des Mikrofons",
		"status_no_audio":      "Keine Audiodaten aufgenommen",
		"status_processing":    "Verarbeitung...",
		"status_busy":          "Vorherige Aufnahme wird noch verarbeitet",
		"status_transcribed":   "Erkannt: ",
		"status_no_text":       "Kein Text erkannt",
		"status_config_error":  "Konfigurationsfehler: ",
		"status_api_error":     "API-Fehler: ",
		"status_error":         "Fehler: ",
		"status_insert_error":  "Text konnte nicht eingefügt werden: ",
		"status_gpu_fallback":  "GPU nicht verfügbar, das Modell läuft auf der CPU",

		"dialog_error_title":    "VoiceSnip Fehler",
		"dialog_start_failed":   "VoiceSnip konnte nicht gestartet werden",
		"dialog_model_title":    "Modell-Download",
		"dialog_model_download": "Das Modell '%s' ist noch nicht vorhanden und wird bei der ersten Aufnahme heruntergeladen. Das kann einige Minuten dauern.",
		"dialog_not_installed":  "Kein Installationsprofil gefunden. Bitte zuerst das Installationsprogramm ausführen.",
		"dialog_invalid_hotkey": "Ungültige Tastenkombination",
	},
	RU: {
		"app_name":    "VoiceSnip",
		"app_tooltip": "VoiceSnip - голосовой ввод",

		"tray_idle":               "Остановлен",
		"tray_ready":              "Готов к работе (%s)",
		"tray_start":              "Запустить",
		"tray_start_hint":         "Ждать горячую клавишу",
		"tray_stop":               "Остановить",
		"tray_stop_hint":          "Перестать слушать и выгрузить модель",
		"tray_language":           "Язык",
		"tray_lang_de":            "Немецкий",
		"tray_lang_en":            "English",
		"tray_lang_auto":          "Авто",
		"tray_provider":           "Движок",
		"tray_hotkey":             "Горячая клавиша",
		"tray_notifications":      "Уведомления",
		"tray_notifications_hint": "Показывать уведомления",
		"tray_quit":               "Выход",
		"tray_quit_hint":          "Закрыть приложение",

		"status_recording":     "Запись...",
		"status_device_config": "Ошибка настройки устройства",
		"status_device_busy":   "Устройство уже используется",
		"status_device_open":   "Не удалось открыть микрофон",
		"status_no_audio":      "Аудио не записано",
		"status_processing":    "Распознавание...",
		"status_busy":          "Предыдущая запись ещё обрабатывается",
		"status_transcribed":   "Распознано: ",
		"status_no_text":       "Не удалось распознать",
		"status_config_error":  "Ошибка конфигурации: ",
		"status_api_error":     "Ошибка API: ",
		"status_error":         "Ошибка: ",
		"status_insert_error":  "Не удалось вставить текст: ",
		"status_gpu_fallback":  "GPU недоступен, модель работает на CPU",

		"dialog_error_title":    "Ошибка VoiceSnip",
		"dialog_start_failed":   "Не удалось запустить VoiceSnip",
		"dialog_model_title":    "Загрузка модели",
		"dialog_model_download": "Модель '%s' ещё не скачана и будет загружена при первой записи. Это может занять несколько минут.",
		"dialog_not_installed":  "Профиль установки не найден. Сначала запустите установщик.",
		"dialog_invalid_hotkey": "Неверная горячая клавиша",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	return lookup(current, key)
}

func lookup(lang Language, key string) string {
	if s, ok := translations[lang][key]; ok {
		return s
	}
	if s, ok := translations[EN][key]; ok {
		return s
	}
	return key
}

// statusKeys - ключи строк статуса ядра. Фиксированные строки сравниваются
// целиком, строки с двоеточием по префиксу.
var statusKeys = []string{
	"status_recording",
	"status_device_config",
	"status_device_busy",
	"status_device_open",
	"status_no_audio",
	"status_processing",
	"status_busy",
	"status_transcribed",
	"status_no_text",
	"status_config_error",
	"status_api_error",
	"status_error",
	"status_insert_error",
}

// Status переводит строку статуса ядра (всегда на английском) на текущий язык.
// Неизвестные строки возвращаются как есть.
func Status(s string) string {
	mu.RLock()
	lang := current
	mu.RUnlock()
	if lang == EN {
		return s
	}

	for _, key := range statusKeys {
		en := translations[EN][key]
		if strings.HasSuffix(en, ": ") {
			if rest, ok := strings.CutPrefix(s, en); ok {
				return lookup(lang, key) + rest
			}
			continue
		}
		if s == en {
			return lookup(lang, key)
		}
	}
	return s
}

// SetLanguage sets the current UI language. Unknown languages fall back to English.
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := translations[lang]; !ok {
		lang = EN
	}
	current = lang
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// AvailableLanguages returns list of supported languages.
func AvailableLanguages() []Language {
	return []Language{EN, DE, RU}
}

// LanguageName returns display name for a language.
func LanguageName(lang Language) string {
	switch lang {
	case EN:
		return "English"
	case DE:
		return "Deutsch"
	case RU:
		return "Русский"
	default:
		return string(lang)
	}
}
