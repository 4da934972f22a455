// Package config хранит настройки пользователя, секреты из окружения
// и описание установки.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"voicesnip/internal/hotkey"
	"voicesnip/internal/provider"
)

// AppDirName - имя каталога приложения внутри каталога конфигурации ОС.
const AppDirName = "voicesnip"

// DefaultLanguage - язык распознавания по умолчанию.
const DefaultLanguage = "de"

// Languages - языки, предлагаемые в меню. Пустая строка - автоопределение.
var Languages = []string{"de", "en", ""}

// ProviderModel хранит выбранную модель одного провайдера.
type ProviderModel struct {
	Model string
}

// providerData - секция "provider": выбранный провайдер и модели по базовому имени.
type providerData struct {
	Selected string
	Models   map[string]ProviderModel
}

// settingsData структура для сериализации. Размер окна сохраняется
// для совместимости с файлами прежних версий.
type settingsData struct {
	DeviceName    string         `json:"device_name,omitempty"`
	Language      *string        `json:"language,omitempty"`
	Hotkey        string         `json:"hotkey,omitempty"`
	Provider      map[string]any `json:"provider,omitempty"`
	WhisperDevice string         `json:"whisper_device,omitempty"`
	WindowWidth   int            `json:"window_width,omitempty"`
	WindowHeight  int            `json:"window_height,omitempty"`
	Notifications *bool          `json:"notifications,omitempty"`
	UILanguage    string         `json:"ui_language,omitempty"`
}

// Settings хранит настройки приложения.
type Settings struct {
	mu            sync.RWMutex
	deviceName    string
	language      string
	hotkey        string
	provider      providerData
	windowWidth   int
	windowHeight  int
	notifications bool
	uiLanguage    string
	path          string
}

// DefaultPath возвращает путь к config.json в каталоге конфигурации пользователя.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, AppDirName, "config.json"), nil
}

// NewSettings создаёт настройки по умолчанию без файла.
func NewSettings() *Settings {
	return &Settings{
		language:      DefaultLanguage,
		hotkey:        hotkey.DefaultChord,
		provider:      providerData{Selected: provider.NameLocalCPU, Models: map[string]ProviderModel{}},
		notifications: true,
		uiLanguage:    "en",
	}
}

// Load читает настройки из файла. Отсутствующий или повреждённый файл
// даёт настройки по умолчанию.
func Load(path string) *Settings {
	s := NewSettings()
	s.path = path
	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read config", "path", path, "error", err)
		}
		return s
	}

	var d settingsData
	if err := sonic.Unmarshal(data, &d); err != nil {
		slog.Warn("config.json is corrupted, resetting to defaults", "path", path, "error", err)
		return s
	}
	s.apply(d)
	return s
}

func (s *Settings) apply(d settingsData) {
	s.deviceName = d.DeviceName
	if d.Language != nil {
		s.language = *d.Language
	}
	if d.Hotkey != "" {
		s.hotkey = d.Hotkey
	}
	if d.Notifications != nil {
		s.notifications = *d.Notifications
	}
	if d.UILanguage != "" {
		s.uiLanguage = d.UILanguage
	}
	s.windowWidth = d.WindowWidth
	s.windowHeight = d.WindowHeight

	for key, v := range d.Provider {
		switch val := v.(type) {
		case string:
			if key == "selected" {
				s.provider.Selected = val
			}
		case map[string]any:
			if m, ok := val["model"].(string); ok && m != "" {
				s.provider.Models[key] = ProviderModel{Model: m}
			}
		}
	}
	s.provider.Selected = migrateProvider(s.provider.Selected, d.WhisperDevice)
}

// migrateProvider переводит старые имена провайдеров в текущие.
func migrateProvider(name, whisperDevice string) string {
	switch name {
	case "":
		return provider.NameLocalCPU
	case "whisper":
		if whisperDevice == "cuda" {
			return provider.NameLocalGPU
		}
		return provider.NameLocalCPU
	case "deepgram":
		return provider.NameDeepgram
	}
	return name
}

// Save записывает настройки в файл, создавая каталог.
func (s *Settings) Save() error {
	s.mu.RLock()
	path := s.path
	d := s.snapshot()
	s.mu.RUnlock()

	if path == "" {
		return nil
	}
	data, err := sonic.ConfigStd.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (s *Settings) snapshot() settingsData {
	lang := s.language
	notif := s.notifications
	prov := map[string]any{"selected": s.provider.Selected}
	for base, m := range s.provider.Models {
		prov[base] = map[string]any{"model": m.Model}
	}
	return settingsData{
		DeviceName:    s.deviceName,
		Language:      &lang,
		Hotkey:        s.hotkey,
		Provider:      prov,
		WindowWidth:   s.windowWidth,
		WindowHeight:  s.windowHeight,
		Notifications: &notif,
		UILanguage:    s.uiLanguage,
	}
}

// Path возвращает путь к файлу настроек.
func (s *Settings) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// DeviceName возвращает имя сохранённого микрофона.
func (s *Settings) DeviceName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceName
}

// SetDeviceName устанавливает имя микрофона.
func (s *Settings) SetDeviceName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceName = name
}

// Language возвращает язык распознавания ("" - автоопределение).
func (s *Settings) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage устанавливает язык распознавания.
func (s *Settings) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = strings.ToLower(strings.TrimSpace(lang))
}

// Hotkey возвращает строку горячей клавиши.
func (s *Settings) Hotkey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hotkey
}

// SetHotkey устанавливает горячую клавишу.
func (s *Settings) SetHotkey(chord string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotkey = chord
}

// Provider возвращает имя выбранного провайдера.
func (s *Settings) Provider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider.Selected
}

// SetProvider выбирает провайдер.
func (s *Settings) SetProvider(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider.Selected = name
}

// Model возвращает сохранённую модель провайдера. Оба локальных варианта
// делят одну запись.
func (s *Settings) Model(providerName string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider.Models[provider.BaseName(providerName)].Model
}

// SetModel сохраняет модель для провайдера.
func (s *Settings) SetModel(providerName, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider.Models[provider.BaseName(providerName)] = ProviderModel{Model: model}
}

// NotificationsEnabled возвращает true если уведомления включены.
func (s *Settings) NotificationsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifications
}

// ToggleNotifications переключает уведомления и сохраняет настройки.
func (s *Settings) ToggleNotifications() bool {
	s.mu.Lock()
	s.notifications = !s.notifications
	enabled := s.notifications
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		slog.Warn("save config", "error", err)
	}
	return enabled
}

// UILanguage возвращает язык интерфейса.
func (s *Settings) UILanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uiLanguage
}

// SetUILanguage устанавливает язык интерфейса.
func (s *Settings) SetUILanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uiLanguage = lang
}
