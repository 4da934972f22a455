package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"voicesnip/internal/audio"
	"voicesnip/internal/config"
	"voicesnip/internal/core"
	"voicesnip/internal/hotkey"
	"voicesnip/internal/i18n"
	"voicesnip/internal/input"
	"voicesnip/internal/provider"
	"voicesnip/internal/tray"
)

type fakeStream struct{}

func (fakeStream) Start() error { return nil }
func (fakeStream) Stop() error  { return nil }
func (fakeStream) Close() error { return nil }

type fakeAudio struct {
	devices []audio.DeviceInfo
}

func (f *fakeAudio) Devices() ([]audio.DeviceInfo, error) { return f.devices, nil }
func (f *fakeAudio) SupportsRate(_, rate int) bool        { return rate == 48000 }

func (f *fakeAudio) Open(audio.StreamConfig, func([]int16)) (audio.Stream, error) {
	return fakeStream{}, nil
}

type fakeKeys struct {
	mu         sync.Mutex
	subscribed bool
	chord      hotkey.Chord
}

func (k *fakeKeys) Subscribe(c hotkey.Chord, _ hotkey.Handler) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.subscribed = true
	k.chord = c
	return nil
}

func (k *fakeKeys) Unsubscribe() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.subscribed = false
	return nil
}

type fakeUI struct {
	mu      sync.Mutex
	status  string
	state   tray.State
	running bool
	summary []string
}

func (u *fakeUI) SetStatus(s string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = s
}

func (u *fakeUI) SetState(s tray.State) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state = s
}

func (u *fakeUI) SetRunning(r bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.running = r
}

func (u *fakeUI) SetSummary(h, p, l string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.summary = []string{h, p, l}
}

type harness struct {
	app      *App
	ui       *fakeUI
	keys     *fakeKeys
	settings *config.Settings
	errors   []string
}

func newHarness(t *testing.T, features ...string) *harness {
	t.Helper()
	t.Setenv("DEEPGRAM_API_KEY", "secret")
	i18n.SetLanguage(i18n.EN)

	settings := config.Load(filepath.Join(t.TempDir(), "config.json"))
	settings.ToggleNotifications()
	settings.SetProvider(provider.NameDeepgram)

	h := &harness{
		ui:       &fakeUI{},
		keys:     &fakeKeys{},
		settings: settings,
	}
	h.app = New(Options{
		Settings:     settings,
		Installation: &config.Installation{Profile: "test", Features: features},
		Audio: &fakeAudio{devices: []audio.DeviceInfo{
			{ID: 3, Name: "USB Audio Mic", MaxInputChannels: 1, IsDefault: true},
		}},
		Keys:     h.keys,
		Inserter: input.InserterFunc(func(context.Context, string) error { return nil }),
	})
	h.app.ui = h.ui
	h.app.showError = func(_, msg string) { h.errors = append(h.errors, msg) }
	h.app.showInfo = func(string, string) {}
	return h
}

func TestStartStop(t *testing.T) {
	h := newHarness(t, "deepgram")

	if err := h.app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !h.app.Running() {
		t.Fatal("session not running after Start")
	}
	if !h.keys.subscribed {
		t.Error("hotkey not subscribed")
	}
	if h.keys.chord.String() != "ctrl+space" {
		t.Errorf("chord = %s", h.keys.chord)
	}
	if !h.ui.running || h.ui.state != tray.StateReady {
		t.Errorf("ui running=%v state=%v", h.ui.running, h.ui.state)
	}
	if h.ui.status != "Ready (ctrl+space)" {
		t.Errorf("status = %q", h.ui.status)
	}
	if len(h.ui.summary) != 3 || h.ui.summary[1] != provider.DisplayName(provider.NameDeepgram) {
		t.Errorf("summary = %v", h.ui.summary)
	}

	reloaded := config.Load(h.settings.Path())
	if reloaded.DeviceName() != "USB Audio Mic" {
		t.Errorf("saved device = %q", reloaded.DeviceName())
	}
	if reloaded.Provider() != provider.NameDeepgram {
		t.Errorf("saved provider = %q", reloaded.Provider())
	}

	// повторный старт ничего не делает
	if err := h.app.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	h.app.Stop()
	if h.app.Running() {
		t.Error("session still running after Stop")
	}
	if h.keys.subscribed {
		t.Error("hotkey still subscribed")
	}
	if h.ui.running || h.ui.status != "Stopped" {
		t.Errorf("ui running=%v status=%q", h.ui.running, h.ui.status)
	}
	h.app.Stop()
}

func TestStartFallsBackToAllowedProvider(t *testing.T) {
	h := newHarness(t, "deepgram")
	h.settings.SetProvider(provider.NameServer)

	if err := h.app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.app.Stop()

	if got := h.settings.Provider(); got != provider.NameDeepgram {
		t.Errorf("provider = %q, want fallback to deepgram", got)
	}
}

func TestStartWithoutProviders(t *testing.T) {
	h := newHarness(t)
	if err := h.app.Start(); err == nil {
		t.Fatal("Start succeeded without enabled providers")
	}
	if h.app.Running() {
		t.Error("session running")
	}
}

func TestStartInvalidHotkey(t *testing.T) {
	h := newHarness(t, "deepgram")
	h.settings.SetHotkey("ctrl+bogus")

	err := h.app.Start()
	if !errors.Is(err, hotkey.ErrInvalidChord) {
		t.Fatalf("err = %v, want ErrInvalidChord", err)
	}
	if h.keys.subscribed {
		t.Error("hotkey subscribed despite error")
	}
}

func TestStartConfigError(t *testing.T) {
	h := newHarness(t, "deepgram")
	t.Setenv("DEEPGRAM_API_KEY", "")

	err := h.app.Start()
	if !errors.Is(err, provider.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
}

func TestToggleReportsStartError(t *testing.T) {
	h := newHarness(t, "deepgram")
	h.settings.SetHotkey("ctrl+bogus")

	if h.app.toggle() {
		t.Fatal("toggle reported running")
	}
	if len(h.errors) != 1 || !strings.Contains(h.errors[0], "Invalid hotkey") {
		t.Errorf("errors = %v", h.errors)
	}
	if h.ui.status != "Could not start VoiceSnip" {
		t.Errorf("status = %q", h.ui.status)
	}

	h.settings.SetHotkey("ctrl+space")
	if !h.app.toggle() {
		t.Fatal("toggle did not start")
	}
	if h.app.toggle() {
		t.Fatal("second toggle did not stop")
	}
}

func TestOnStatusState(t *testing.T) {
	h := newHarness(t, "deepgram")

	tests := []struct {
		status string
		state  tray.State
	}{
		{core.StatusRecording, tray.StateRecording},
		{core.StatusProcessing, tray.StateProcessing},
		{"Transcribed: hi", tray.StateReady},
		{core.StatusNoAudio, tray.StateReady},
		{"API Error: boom", tray.StateReady},
	}
	for _, tt := range tests {
		h.app.onStatus(tt.status)
		if h.ui.state != tt.state {
			t.Errorf("onStatus(%q) state = %v, want %v", tt.status, h.ui.state, tt.state)
		}
		if h.ui.status != i18n.Status(tt.status) {
			t.Errorf("onStatus(%q) status = %q", tt.status, h.ui.status)
		}
	}
}

func TestOnStatusTranslated(t *testing.T) {
	h := newHarness(t, "deepgram")
	i18n.SetLanguage(i18n.DE)
	defer i18n.SetLanguage(i18n.EN)

	h.app.onStatus(core.StatusRecording)
	if h.ui.status == core.StatusRecording {
		t.Errorf("status not translated: %q", h.ui.status)
	}
}

func TestToggleNotifications(t *testing.T) {
	h := newHarness(t, "deepgram")

	if !h.app.toggleNotifications() {
		t.Fatal("notifications not enabled")
	}
	if !h.app.notifier.Enabled() {
		t.Error("notifier not enabled")
	}
	if h.app.toggleNotifications() || h.app.notifier.Enabled() {
		t.Error("notifications not disabled")
	}
}

func TestLanguageLabel(t *testing.T) {
	i18n.SetLanguage(i18n.EN)
	for _, code := range config.Languages {
		if languageLabel(code) == "" {
			t.Errorf("empty label for %q", code)
		}
	}
	if languageLabel("fr") != "fr" {
		t.Error("unknown code not passed through")
	}
}

type fallbackProvider struct {
	provider.Provider
	device provider.Device
}

func (f fallbackProvider) ActiveDevice() provider.Device { return f.device }

func TestNoteFallback(t *testing.T) {
	tests := []struct {
		name   string
		prov   string
		p      provider.Provider
		status string
		want   bool
	}{
		{"gpu on cpu", provider.NameLocalGPU, fallbackProvider{device: provider.DeviceCPU}, "Transcribed: hi", true},
		{"gpu on gpu", provider.NameLocalGPU, fallbackProvider{device: provider.DeviceGPU}, "Transcribed: hi", false},
		{"progress status", provider.NameLocalGPU, fallbackProvider{device: provider.DeviceCPU}, core.StatusProcessing, false},
		{"cpu provider", provider.NameLocalCPU, fallbackProvider{device: provider.DeviceCPU}, core.StatusNoText, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "deepgram")
			h.app.noteFallback(tt.prov, tt.p, tt.status)
			if got := h.app.fallbackShown.Load(); got != tt.want {
				t.Errorf("fallback shown = %v, want %v", got, tt.want)
			}
		})
	}
}
