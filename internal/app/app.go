// Package app владеет сессией: собирает ядро из настроек, связывает его
// с треем, уведомлениями и диалогами.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"voicesnip/internal/audio"
	"voicesnip/internal/config"
	"voicesnip/internal/core"
	"voicesnip/internal/dialog"
	"voicesnip/internal/hotkey"
	"voicesnip/internal/i18n"
	"voicesnip/internal/input"
	"voicesnip/internal/notify"
	"voicesnip/internal/provider"
	"voicesnip/internal/tray"
)

// validateTimeout ограничивает проверку провайдера при запуске.
const validateTimeout = 10 * time.Second

// UI - то, что сессия показывает пользователю. Реализуется треем.
type UI interface {
	SetStatus(status string)
	SetState(state tray.State)
	SetRunning(running bool)
	SetSummary(hotkey, provider, language string)
}

// Options - зависимости приложения.
type Options struct {
	Settings     *config.Settings
	Installation *config.Installation
	Audio        audio.Source
	Keys         hotkey.Source
	Inserter     input.Inserter
	Deps         provider.Deps
}

// App представляет главное приложение.
type App struct {
	opts     Options
	settings *config.Settings
	notifier *notify.Notifier
	ui       UI

	showError func(title, message string)
	showInfo  func(title, message string)

	mu         sync.Mutex
	session    *core.Core
	modelHints map[string]bool

	fallbackShown atomic.Bool
}

// deviceReporter - провайдер, который может сменить устройство при загрузке модели.
type deviceReporter interface {
	ActiveDevice() provider.Device
}

// New создаёт приложение.
func New(opts Options) *App {
	if uiLang := opts.Settings.UILanguage(); uiLang != "" {
		i18n.SetLanguage(i18n.Language(uiLang))
	}
	a := &App{
		opts:       opts,
		settings:   opts.Settings,
		notifier:   notify.New(opts.Settings.NotificationsEnabled()),
		showError:  dialog.ShowError,
		showInfo:   dialog.ShowInfo,
		modelHints: make(map[string]bool),
	}
	return a
}

// Run показывает трей и запускает сессию. Блокирует до выхода.
func (a *App) Run() {
	t := tray.New(tray.Callbacks{
		OnToggle:              a.toggle,
		OnHotkey:              a.chooseHotkey,
		OnProvider:            a.chooseProvider,
		OnLanguage:            a.chooseLanguage,
		OnNotificationsToggle: a.toggleNotifications,
		OnQuit:                a.Stop,
	})
	a.ui = t
	t.Run(a.settings.NotificationsEnabled(), func() {
		if err := a.Start(); err != nil {
			a.reportStartError(err)
		}
	})
}

// Running сообщает, запущена ли сессия.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

// Start собирает ядро по текущим настройкам и подписывается на горячую клавишу.
// Настройки сохраняются только после успешного запуска.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil {
		return nil
	}

	name := a.providerName()
	if name == "" {
		return errors.New("no speech provider is enabled in this installation")
	}
	model := a.settings.Model(name)

	dev, err := a.pickDevice()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
	defer cancel()
	c, err := core.New(ctx, core.Options{
		DeviceID:       dev.ID,
		SampleRate:     dev.SampleRate,
		Language:       a.settings.Language(),
		Hotkey:         a.settings.Hotkey(),
		ProviderName:   name,
		ProviderConfig: config.ProviderConfig(name, model),
		Deps:           a.opts.Deps,
		Audio:          a.opts.Audio,
		Inserter:       a.opts.Inserter,
	})
	if err != nil {
		return err
	}
	p := c.Provider()
	c.SetStatusCallback(func(s string) {
		a.onStatus(s)
		a.noteFallback(name, p, s)
	})
	if err := c.Start(a.opts.Keys); err != nil {
		c.Close()
		return err
	}
	a.session = c

	a.settings.SetDeviceName(dev.Name)
	a.settings.SetProvider(name)
	if model != "" {
		a.settings.SetModel(name, model)
	}
	a.settings.SetHotkey(c.Chord().String())
	if err := a.settings.Save(); err != nil {
		slog.Warn("save config", "error", err)
	}

	slog.Info("session started", "provider", name, "device", dev.Name, "rate", dev.SampleRate)
	if a.ui != nil {
		a.ui.SetRunning(true)
		a.ui.SetState(tray.StateReady)
		a.ui.SetStatus(fmt.Sprintf(i18n.T("tray_ready"), c.Chord().String()))
		a.ui.SetSummary(c.Chord().String(), provider.DisplayName(name), languageLabel(a.settings.Language()))
	}

	if provider.IsLocal(name) && !c.Provider().IsModelDownloaded() && !a.modelHints[name] {
		a.modelHints[name] = true
		go a.showInfo(i18n.T("dialog_model_title"), fmt.Sprintf(i18n.T("dialog_model_download"), model))
	}
	return nil
}

// Stop закрывает сессию и выгружает модель.
func (a *App) Stop() {
	a.mu.Lock()
	c := a.session
	a.session = nil
	a.mu.Unlock()

	if c == nil {
		return
	}
	c.Stop()
	// задание, пережившее Close, держит модель до конца распознавания
	go c.Provider().UnloadModel()
	slog.Info("session stopped")
	if a.ui != nil {
		a.ui.SetRunning(false)
		a.ui.SetStatus(i18n.T("tray_idle"))
	}
}

// restart применяет изменённые настройки к работающей сессии.
func (a *App) restart() {
	if !a.Running() {
		return
	}
	a.Stop()
	if err := a.Start(); err != nil {
		a.reportStartError(err)
	}
}

// providerName возвращает выбранный провайдер, если установка его разрешает,
// иначе первый разрешённый.
func (a *App) providerName() string {
	name := a.settings.Provider()
	if a.opts.Installation == nil {
		return name
	}
	allowed := a.opts.Installation.Providers()
	if slices.Contains(allowed, name) {
		return name
	}
	if len(allowed) == 0 {
		return ""
	}
	slog.Warn("provider not enabled in installation, using fallback", "provider", name, "fallback", allowed[0])
	return allowed[0]
}

// pickDevice находит сохранённый микрофон или берёт устройство по умолчанию.
func (a *App) pickDevice() (audio.InputDevice, error) {
	devices, err := audio.ListInputDevices(a.opts.Audio)
	if err != nil {
		return audio.InputDevice{}, fmt.Errorf("list input devices: %w", err)
	}
	if dev, ok := audio.FindDevice(devices, a.settings.DeviceName()); ok {
		return dev, nil
	}
	for _, d := range devices {
		if d.IsDefault {
			return d, nil
		}
	}
	if len(devices) > 0 {
		return devices[0], nil
	}
	return audio.InputDevice{
		DeviceInfo: audio.DeviceInfo{ID: audio.DefaultDevice},
		SampleRate: audio.TargetSampleRate,
	}, nil
}

func (a *App) onStatus(status string) {
	shown := i18n.Status(status)
	level := core.Classify(status)

	if a.ui != nil {
		a.ui.SetStatus(shown)
		switch status {
		case core.StatusRecording:
			a.ui.SetState(tray.StateRecording)
		case core.StatusProcessing:
			a.ui.SetState(tray.StateProcessing)
		default:
			a.ui.SetState(tray.StateReady)
		}
	}

	switch level {
	case core.LevelSuccess:
		text, _ := core.TranscribedText(status)
		a.notifier.Success(text)
	case core.LevelWarning:
		a.notifier.Info(shown)
	case core.LevelError:
		a.notifier.Error(shown)
	}
}

// noteFallback один раз сообщает, что модель для GPU загрузилась на CPU.
// Устройство известно только после первого задания.
func (a *App) noteFallback(name string, p provider.Provider, status string) {
	if name != provider.NameLocalGPU || core.Classify(status) == core.LevelProgress {
		return
	}
	dr, ok := p.(deviceReporter)
	if !ok || dr.ActiveDevice() != provider.DeviceCPU {
		return
	}
	if !a.fallbackShown.CompareAndSwap(false, true) {
		return
	}
	slog.Warn("gpu provider fell back to cpu", "provider", name)
	a.notifier.Info(i18n.T("status_gpu_fallback"))
}

func (a *App) reportStartError(err error) {
	slog.Error("session start failed", "error", err)
	msg := err.Error()
	if errors.Is(err, hotkey.ErrInvalidChord) {
		msg = i18n.T("dialog_invalid_hotkey") + ": " + msg
	}
	if a.ui != nil {
		a.ui.SetRunning(false)
		a.ui.SetStatus(i18n.T("dialog_start_failed"))
	}
	a.showError(i18n.T("dialog_error_title"), i18n.T("dialog_start_failed")+"\n\n"+msg)
}

func (a *App) toggle() bool {
	if a.Running() {
		a.Stop()
		return false
	}
	if err := a.Start(); err != nil {
		a.reportStartError(err)
		return false
	}
	return true
}

func (a *App) chooseHotkey() {
	chord, err := dialog.SelectHotkey(a.settings.Hotkey())
	if err != nil {
		if !errors.Is(err, dialog.ErrCanceled) {
			a.showError(i18n.T("dialog_error_title"), i18n.T("dialog_invalid_hotkey")+": "+err.Error())
		}
		return
	}
	a.settings.SetHotkey(chord)
	a.restart()
}

func (a *App) chooseProvider() {
	names := provider.Names()
	if a.opts.Installation != nil {
		names = a.opts.Installation.Providers()
	}
	labels := make([]string, len(names))
	for i, n := range names {
		labels[i] = provider.DisplayName(n)
	}
	idx, err := dialog.SelectItem(i18n.T("app_name"), i18n.T("tray_provider"), labels, slices.Index(names, a.settings.Provider()))
	if err != nil {
		return
	}
	a.settings.SetProvider(names[idx])
	a.restart()
}

func (a *App) chooseLanguage() {
	labels := make([]string, len(config.Languages))
	for i, l := range config.Languages {
		labels[i] = languageLabel(l)
	}
	idx, err := dialog.SelectItem(i18n.T("app_name"), i18n.T("tray_language"), labels, slices.Index(config.Languages, a.settings.Language()))
	if err != nil {
		return
	}
	a.settings.SetLanguage(config.Languages[idx])
	a.restart()
}

func (a *App) toggleNotifications() bool {
	enabled := a.settings.ToggleNotifications()
	a.notifier.SetEnabled(enabled)
	return enabled
}

func languageLabel(code string) string {
	switch code {
	case "de":
		return i18n.T("tray_lang_de")
	case "en":
		return i18n.T("tray_lang_en")
	case "":
		return i18n.T("tray_lang_auto")
	}
	return code
}
