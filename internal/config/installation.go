package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/ini.v1"

	"voicesnip/internal/provider"
)

// InstallationFile - имя файла с описанием установки.
const InstallationFile = "installation_profile.ini"

// ErrNotInstalled возвращается, если файл установки отсутствует.
var ErrNotInstalled = errors.New("installation profile not found")

// Installation описывает установленный профиль и доступные функции.
type Installation struct {
	Profile     string
	Features    []string
	InstallDate string
}

// DefaultInstallationPath возвращает путь к файлу установки.
func DefaultInstallationPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, AppDirName, InstallationFile), nil
}

// LoadInstallation читает и проверяет файл установки.
func LoadInstallation(path string) (*Installation, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotInstalled, path)
		}
		return nil, fmt.Errorf("installation profile: %w", err)
	}

	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("invalid installation config: %w", err)
	}
	if !f.HasSection("installation") {
		return nil, errors.New("invalid installation config: missing [installation] section")
	}
	sec := f.Section("installation")

	inst := &Installation{
		Profile:     strings.TrimSpace(sec.Key("profile").String()),
		InstallDate: sec.Key("install_date").MustString("unknown"),
	}
	for _, feat := range sec.Key("features").Strings(",") {
		if feat = strings.ToLower(strings.TrimSpace(feat)); feat != "" {
			inst.Features = append(inst.Features, feat)
		}
	}
	if inst.Profile == "" || len(inst.Features) == 0 {
		return nil, errors.New("invalid installation config: missing profile or features")
	}
	return inst, nil
}

// Has сообщает, установлена ли функция.
func (i *Installation) Has(feature string) bool {
	return slices.Contains(i.Features, strings.ToLower(feature))
}

// providerOrder - порядок провайдеров в меню.
var providerOrder = []string{
	provider.NameLocalCPU,
	provider.NameLocalGPU,
	provider.NameServer,
	provider.NameDeepgram,
	provider.NameOpenAI,
}

// Providers возвращает провайдеры, доступные в этой установке.
// GPU вариант требует и whisper, и cuda.
func (i *Installation) Providers() []string {
	var out []string
	for _, name := range providerOrder {
		feat, err := provider.FeatureFor(name)
		if err != nil || !i.Has(feat) {
			continue
		}
		if name == provider.NameLocalGPU && !i.Has("whisper") {
			continue
		}
		out = append(out, name)
	}
	return out
}
