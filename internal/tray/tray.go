// Package tray предоставляет системный трей с меню.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"voicesnip/embedded"
	"voicesnip/internal/i18n"
)

// State - состояние приложения для иконки трея.
type State int

const (
	StateStopped State = iota
	StateReady
	StateRecording
	StateProcessing
)

// Icon возвращает иконку состояния.
func (s State) Icon() []byte {
	switch s {
	case StateReady:
		return embedded.IconReady
	case StateRecording:
		return embedded.IconRecording
	case StateProcessing:
		return embedded.IconProcessing
	default:
		return embedded.IconIdle
	}
}

// Callbacks содержит обработчики событий меню.
type Callbacks struct {
	// OnToggle запускает или останавливает сессию, возвращает true если сессия запущена.
	OnToggle              func() bool
	OnHotkey              func()
	OnProvider            func()
	OnLanguage            func()
	OnNotificationsToggle func() bool
	OnQuit                func()
}

// Tray управляет иконкой в системном трее.
type Tray struct {
	callbacks Callbacks

	mu      sync.Mutex
	running bool

	status   *systray.MenuItem
	toggle   *systray.MenuItem
	hotkey   *systray.MenuItem
	provider *systray.MenuItem
	language *systray.MenuItem
	notifyOn *systray.MenuItem
	quitBtn  *systray.MenuItem
}

// New создаёт новый Tray.
func New(callbacks Callbacks) *Tray {
	return &Tray{callbacks: callbacks}
}

// Run запускает системный трей. Блокирующая функция.
func (t *Tray) Run(notificationsOn bool, onReady func()) {
	systray.Run(func() {
		t.onReady(notificationsOn)
		if onReady != nil {
			onReady()
		}
	}, func() {})
}

func (t *Tray) onReady(notificationsOn bool) {
	systray.SetIcon(embedded.IconIdle)
	systray.SetTitle(i18n.T("app_name"))
	systray.SetTooltip(i18n.T("app_tooltip"))

	t.status = systray.AddMenuItem(i18n.T("tray_idle"), "")
	t.status.Disable()

	systray.AddSeparator()

	t.toggle = systray.AddMenuItem(i18n.T("tray_start"), i18n.T("tray_start_hint"))
	t.hotkey = systray.AddMenuItem(i18n.T("tray_hotkey"), "")
	t.provider = systray.AddMenuItem(i18n.T("tray_provider"), "")
	t.language = systray.AddMenuItem(i18n.T("tray_language"), "")
	t.notifyOn = systray.AddMenuItemCheckbox(i18n.T("tray_notifications"), i18n.T("tray_notifications_hint"), notificationsOn)

	systray.AddSeparator()

	t.quitBtn = systray.AddMenuItem(i18n.T("tray_quit"), i18n.T("tray_quit_hint"))

	t.RefreshUI()
	go t.handleMenuEvents()
}

func (t *Tray) handleMenuEvents() {
	for {
		select {
		case <-t.toggle.ClickedCh:
			if t.callbacks.OnToggle != nil {
				t.SetRunning(t.callbacks.OnToggle())
			}
		case <-t.hotkey.ClickedCh:
			if t.callbacks.OnHotkey != nil {
				t.callbacks.OnHotkey()
			}
		case <-t.provider.ClickedCh:
			if t.callbacks.OnProvider != nil {
				t.callbacks.OnProvider()
			}
		case <-t.language.ClickedCh:
			if t.callbacks.OnLanguage != nil {
				t.callbacks.OnLanguage()
			}
		case <-t.notifyOn.ClickedCh:
			if t.callbacks.OnNotificationsToggle != nil {
				if t.callbacks.OnNotificationsToggle() {
					t.notifyOn.Check()
				} else {
					t.notifyOn.Uncheck()
				}
			}
		case <-t.quitBtn.ClickedCh:
			if t.callbacks.OnQuit != nil {
				t.callbacks.OnQuit()
			}
			systray.Quit()
			return
		}
	}
}

// SetRunning переключает подпись пункта Start/Stop.
func (t *Tray) SetRunning(running bool) {
	t.mu.Lock()
	t.running = running
	t.mu.Unlock()

	if t.toggle == nil {
		return
	}
	if running {
		t.toggle.SetTitle(i18n.T("tray_stop"))
		t.toggle.SetTooltip(i18n.T("tray_stop_hint"))
	} else {
		t.toggle.SetTitle(i18n.T("tray_start"))
		t.toggle.SetTooltip(i18n.T("tray_start_hint"))
		t.SetState(StateStopped)
	}
}

// SetState обновляет иконку.
func (t *Tray) SetState(state State) {
	systray.SetIcon(state.Icon())
}

// SetStatus показывает строку статуса в меню и подсказке.
func (t *Tray) SetStatus(status string) {
	systray.SetTooltip(i18n.T("app_name") + " - " + status)
	if t.status != nil {
		t.status.SetTitle(status)
	}
}

// SetSummary показывает текущие горячую клавишу, провайдер и язык в пунктах меню.
func (t *Tray) SetSummary(hotkey, provider, language string) {
	if t.hotkey == nil {
		return
	}
	t.hotkey.SetTitle(fmt.Sprintf("%s: %s", i18n.T("tray_hotkey"), hotkey))
	t.provider.SetTitle(fmt.Sprintf("%s: %s", i18n.T("tray_provider"), provider))
	t.language.SetTitle(fmt.Sprintf("%s: %s", i18n.T("tray_language"), language))
}

// Quit закрывает системный трей.
func (t *Tray) Quit() {
	systray.Quit()
}

// RefreshUI обновляет тексты меню на текущем языке.
func (t *Tray) RefreshUI() {
	systray.SetTooltip(i18n.T("app_tooltip"))

	t.mu.Lock()
	running := t.running
	t.mu.Unlock()
	t.SetRunning(running)

	if t.notifyOn != nil {
		t.notifyOn.SetTitle(i18n.T("tray_notifications"))
		t.notifyOn.SetTooltip(i18n.T("tray_notifications_hint"))
	}
	if t.quitBtn != nil {
		t.quitBtn.SetTitle(i18n.T("tray_quit"))
		t.quitBtn.SetTooltip(i18n.T("tray_quit_hint"))
	}
}
