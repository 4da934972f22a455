package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"voicesnip/internal/audio"
	"voicesnip/internal/hotkey"
	"voicesnip/internal/observe"
	"voicesnip/internal/provider"
)

// 100 мс тишины при 16 кГц.
const chunk = 1600

type harness struct {
	core     *Core
	audio    *fakeAudio
	provider *fakeProvider
	inserter *fakeInserter
	status   *statusLog
	texts    chan string
}

func newHarness(t *testing.T, p *fakeProvider, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		audio:    &fakeAudio{},
		provider: p,
		inserter: newFakeInserter(),
		status:   &statusLog{},
		texts:    make(chan string, 8),
	}
	opts := Options{
		DeviceID:   audio.DefaultDevice,
		SampleRate: 16000,
		Language:   "de",
		Hotkey:     "ctrl+space",
		Provider:   p,
		Audio:      h.audio,
		Inserter:   h.inserter,
		Metrics:    testMetrics(t, nil),
	}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	c.SetStatusCallback(h.status.add)
	c.SetTextCallback(func(s string) { h.texts <- s })
	h.core = c
	return h
}

func testMetrics(t *testing.T, reader *sdkmetric.ManualReader) *observe.Metrics {
	t.Helper()
	if reader == nil {
		reader = sdkmetric.NewManualReader()
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// utterance: зажать ctrl+space, подать n блоков, отпустить space.
func (h *harness) utterance(chunks int) {
	h.core.OnPress(hotkey.KeyCtrlL)
	h.core.OnPress(hotkey.KeySpace)
	for range chunks {
		h.audio.push(chunk)
	}
	h.core.OnRelease(hotkey.KeySpace)
	h.core.OnRelease(hotkey.KeyCtrlL)
}

func (h *harness) waitStatus(t *testing.T, msg string) {
	t.Helper()
	eventually(t, "status "+msg, func() bool { return h.status.has(msg) })
}

func TestEndToEndTranscription(t *testing.T) {
	h := newHarness(t, &fakeProvider{})

	h.core.OnPress(hotkey.KeyCtrlL)
	h.core.OnPress(hotkey.KeySpace)
	if h.core.State() != Recording {
		t.Fatalf("State = %v, want recording", h.core.State())
	}
	for range 3 {
		h.audio.push(chunk)
	}
	h.core.OnRelease(hotkey.KeySpace)

	select {
	case got := <-h.inserter.inserted:
		if got != "hello world" {
			t.Errorf("inserted %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("text was not inserted")
	}
	h.waitStatus(t, "Transcribed: hello world")

	if got := <-h.texts; got != "hello world" {
		t.Errorf("text callback got %q", got)
	}
	select {
	case extra := <-h.inserter.inserted:
		t.Errorf("inserted twice: %q", extra)
	case <-time.After(50 * time.Millisecond):
	}

	want := []string{StatusRecording, StatusProcessing, "Transcribed: hello world"}
	if got := h.status.all(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("statuses = %q, want %q", got, want)
	}

	call := h.provider.call(0)
	if call.lang != "de" {
		t.Errorf("language = %q", call.lang)
	}
	pcm, err := audio.DecodeWAV(call.wav)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if pcm.SampleRate != 16000 || pcm.Channels != 1 || pcm.BitDepth != 16 || len(pcm.Samples) != 3*chunk {
		t.Errorf("wav = rate %d, channels %d, depth %d, samples %d", pcm.SampleRate, pcm.Channels, pcm.BitDepth, len(pcm.Samples))
	}
	eventually(t, "idle", func() bool { return h.core.State() == Idle })
}

func TestTriggerAloneNeverRecords(t *testing.T) {
	h := newHarness(t, &fakeProvider{})

	h.core.OnPress(hotkey.KeySpace)
	h.core.OnRelease(hotkey.KeySpace)

	if n := h.audio.openCount(); n != 0 {
		t.Errorf("audio opened %d times", n)
	}
	if got := h.status.all(); len(got) != 0 {
		t.Errorf("statuses = %q", got)
	}
	if h.core.State() != Idle {
		t.Errorf("State = %v", h.core.State())
	}
}

func TestReleaseOfOtherKeyKeepsRecording(t *testing.T) {
	h := newHarness(t, &fakeProvider{})

	h.core.OnPress(hotkey.KeyCtrlR)
	h.core.OnPress(hotkey.KeySpace)
	h.core.OnPress(hotkey.Char('x'))
	h.core.OnRelease(hotkey.Char('x'))

	if h.core.State() != Recording {
		t.Errorf("State = %v, want recording", h.core.State())
	}
	h.core.OnRelease(hotkey.KeyCtrlR)
	if h.core.State() == Recording {
		t.Error("releasing a modifier must stop recording")
	}
}

func TestRepeatedPressDoesNotReopen(t *testing.T) {
	h := newHarness(t, &fakeProvider{})

	h.core.OnPress(hotkey.KeyCtrlL)
	h.core.OnPress(hotkey.KeySpace)
	h.core.OnPress(hotkey.KeySpace)
	if n := h.audio.openCount(); n != 1 {
		t.Errorf("audio opened %d times", n)
	}
}

func TestNoAudio(t *testing.T) {
	h := newHarness(t, &fakeProvider{})

	h.utterance(0)

	if !h.status.has(StatusNoAudio) {
		t.Errorf("statuses = %q", h.status.all())
	}
	if h.provider.callCount() != 0 {
		t.Error("provider called without audio")
	}
}

func TestBusyDropsSecondRecording(t *testing.T) {
	release := make(chan struct{})
	p := &fakeProvider{fn: func(ctx context.Context) (string, error) {
		<-release
		return "first", nil
	}}
	h := newHarness(t, p)

	h.utterance(1)
	eventually(t, "first job", func() bool { return p.callCount() == 1 })
	if h.core.State() != Processing {
		t.Errorf("State = %v, want processing", h.core.State())
	}

	// новая запись возможна, пока идёт распознавание
	h.utterance(2)
	h.waitStatus(t, StatusBusy)
	close(release)

	select {
	case got := <-h.inserter.inserted:
		if got != "first" {
			t.Errorf("inserted %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first job did not finish")
	}
	if n := p.callCount(); n != 1 {
		t.Errorf("provider called %d times, want 1", n)
	}
	pcm, err := audio.DecodeWAV(p.call(0).wav)
	if err != nil {
		t.Fatal(err)
	}
	if len(pcm.Samples) != chunk {
		t.Errorf("first job samples = %d, want %d", len(pcm.Samples), chunk)
	}

	// слот освобождён, следующая запись обрабатывается
	eventually(t, "idle", func() bool { return h.core.State() == Idle })
	p.mu.Lock()
	p.fn = nil
	p.mu.Unlock()
	h.utterance(1)
	eventually(t, "third job", func() bool { return p.callCount() == 2 })
}

func TestJobOutcomes(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context) (string, error)
		want string
	}{
		{"empty", func(context.Context) (string, error) { return "", nil }, StatusNoText},
		{"config", func(context.Context) (string, error) {
			return "", &provider.ConfigError{Provider: "fake", Msg: "Invalid API key"}
		}, "Configuration error: Invalid API key"},
		{"runtime", func(context.Context) (string, error) {
			return "", &provider.RuntimeError{Provider: "fake", Msg: "Network error"}
		}, "API error: Network error"},
		{"unexpected", func(context.Context) (string, error) { return "", errors.New("boom") }, "Error: boom"},
		{"panic", func(context.Context) (string, error) { panic("kaboom") }, "Error: kaboom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeProvider{fn: tt.fn})
			h.utterance(1)
			h.waitStatus(t, tt.want)

			select {
			case got := <-h.inserter.inserted:
				t.Errorf("inserted %q", got)
			default:
			}
			// ошибка задания не ломает следующую запись
			eventually(t, "idle", func() bool { return h.core.State() == Idle })
			h.utterance(1)
			eventually(t, "second job", func() bool { return h.provider.callCount() == 2 })
		})
	}
}

func TestInsertFailureIsReported(t *testing.T) {
	h := newHarness(t, &fakeProvider{})
	h.inserter.err = errors.New("xdotool missing")

	h.utterance(1)
	h.waitStatus(t, "Could not insert text: xdotool missing")
}

func TestDeviceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config", &audio.DeviceError{Kind: audio.DeviceConfig, Err: errors.New("invalid sample rate")}, StatusDeviceConfig},
		{"busy", &audio.DeviceError{Kind: audio.DeviceBusy, Err: errors.New("device unavailable")}, StatusDeviceBusy},
		{"other", errors.New("driver exploded"), StatusDeviceOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeProvider{})
			h.audio.openErr = tt.err

			h.core.OnPress(hotkey.KeyCtrlL)
			h.core.OnPress(hotkey.KeySpace)

			if !h.status.has(tt.want) {
				t.Errorf("statuses = %q, want %q", h.status.all(), tt.want)
			}
			if h.core.State() != Idle {
				t.Errorf("State = %v, want idle", h.core.State())
			}

			// следующее нажатие снова пробует открыть устройство
			h.core.OnRelease(hotkey.KeySpace)
			h.audio.mu.Lock()
			h.audio.openErr = nil
			h.audio.mu.Unlock()
			h.core.OnPress(hotkey.KeySpace)
			if h.core.State() != Recording {
				t.Errorf("retry State = %v, want recording", h.core.State())
			}
		})
	}
}

func TestAutoLanguage(t *testing.T) {
	h := newHarness(t, &fakeProvider{}, func(o *Options) { o.Language = "auto" })
	h.utterance(1)
	eventually(t, "job", func() bool { return h.provider.callCount() == 1 })
	if lang := h.provider.call(0).lang; lang != "" {
		t.Errorf("language = %q, want auto-detect", lang)
	}
}

func TestNewFailures(t *testing.T) {
	base := func() Options {
		return Options{Hotkey: "ctrl+space", Provider: &fakeProvider{}, Audio: &fakeAudio{}, Inserter: newFakeInserter()}
	}

	opts := base()
	opts.Hotkey = "ctrl+"
	if _, err := New(context.Background(), opts); !errors.Is(err, hotkey.ErrInvalidChord) {
		t.Errorf("invalid chord: err = %v", err)
	}

	opts = base()
	opts.Provider = &fakeProvider{validateErr: &provider.ConfigError{Msg: "API key missing"}}
	if _, err := New(context.Background(), opts); !errors.Is(err, provider.ErrConfig) {
		t.Errorf("validation: err = %v", err)
	}

	opts = base()
	opts.Provider = nil
	opts.ProviderName = "nope"
	_, err := New(context.Background(), opts)
	if !errors.Is(err, provider.ErrConfig) || !strings.Contains(err.Error(), provider.NameDeepgram) {
		t.Errorf("unknown provider: err = %v", err)
	}
}

func TestNewBuildsProviderFromRegistry(t *testing.T) {
	c, err := New(context.Background(), Options{
		ProviderName: provider.NameDeepgram,
		ProviderConfig: provider.Config{Deepgram: provider.DeepgramConfig{
			APIKey: "test-key",
		}},
		Audio:    &fakeAudio{},
		Inserter: newFakeInserter(),
		Metrics:  testMetrics(t, nil),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if c.Chord().String() != hotkey.DefaultChord {
		t.Errorf("Chord = %s", c.Chord())
	}
	if c.Provider() == nil {
		t.Error("provider not set")
	}
}

func TestCloseSuppressesCallbacks(t *testing.T) {
	release := make(chan struct{})
	p := &fakeProvider{fn: func(context.Context) (string, error) {
		<-release
		return "late", nil
	}}
	h := newHarness(t, p)

	h.utterance(1)
	eventually(t, "job", func() bool { return p.callCount() == 1 })

	closed := make(chan struct{})
	go func() {
		h.core.Close()
		close(closed)
	}()
	eventually(t, "closing", func() bool { return h.core.closing.Load() })
	before := len(h.status.all())
	close(release)
	<-closed

	if got := h.status.all(); len(got) != before {
		t.Errorf("statuses after close: %q", got[before:])
	}
	select {
	case txt := <-h.texts:
		t.Errorf("text callback after close: %q", txt)
	default:
	}
}

func TestCloseWaitIsBounded(t *testing.T) {
	release := make(chan struct{})
	p := &fakeProvider{fn: func(ctx context.Context) (string, error) {
		select {
		case <-release:
			return "late text", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}}
	h := newHarness(t, p, func(o *Options) { o.ShutdownTimeout = 50 * time.Millisecond })

	h.utterance(1)
	eventually(t, "job", func() bool { return p.callCount() == 1 })

	start := time.Now()
	h.core.Close()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Close took %v", elapsed)
	}
	if h.core.State() != Processing {
		t.Fatalf("State = %v, job should still run", h.core.State())
	}

	// задание не прерывается и вставляет текст уже после Close
	close(release)
	select {
	case got := <-h.inserter.inserted:
		if got != "late text" {
			t.Errorf("inserted %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was aborted by Close")
	}
	eventually(t, "job exit", func() bool { return h.core.State() == Idle })
	h.core.Close()
}

func TestCloseRacingRelease(t *testing.T) {
	for range 50 {
		h := newHarness(t, &fakeProvider{})
		h.core.OnPress(hotkey.KeyCtrlL)
		h.core.OnPress(hotkey.KeySpace)
		h.audio.push(chunk)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.core.OnRelease(hotkey.KeySpace)
		}()
		go func() {
			defer wg.Done()
			h.core.Close()
		}()
		wg.Wait()

		h.core.Close()
		eventually(t, "idle", func() bool { return h.core.State() == Idle })
	}
}

func TestCloseStopsRecording(t *testing.T) {
	h := newHarness(t, &fakeProvider{})
	h.core.OnPress(hotkey.KeyCtrlL)
	h.core.OnPress(hotkey.KeySpace)
	h.audio.push(chunk)

	h.core.Close()
	if h.core.State() != Idle {
		t.Errorf("State = %v", h.core.State())
	}
	h.core.OnRelease(hotkey.KeySpace)
	if h.provider.callCount() != 0 {
		t.Error("job started after close")
	}
}

func TestPanickingCallbackIsRecovered(t *testing.T) {
	h := newHarness(t, &fakeProvider{})
	h.core.SetStatusCallback(func(string) { panic("ui gone") })
	h.core.SetTextCallback(func(string) { panic("ui gone") })

	h.utterance(1)
	select {
	case got := <-h.inserter.inserted:
		if got != "hello world" {
			t.Errorf("inserted %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("panicking callback stopped the job")
	}
}

func TestStartStop(t *testing.T) {
	h := newHarness(t, &fakeProvider{})
	src := &fakeKeySource{}

	if err := h.core.Start(src); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !src.chord.Equal(hotkey.MustParse("ctrl+space")) {
		t.Errorf("subscribed chord = %s", src.chord)
	}
	if err := h.core.Start(src); err == nil {
		t.Error("second Start should fail")
	}

	src.press(hotkey.KeyCtrlL)
	src.press(hotkey.KeySpace)
	h.audio.push(chunk)
	src.release(hotkey.KeySpace)
	<-h.inserter.inserted

	h.core.Stop()
	if src.subscribed || src.unsubscribed != 1 {
		t.Errorf("subscribed=%v unsubscribed=%d", src.subscribed, src.unsubscribed)
	}
	if err := h.core.Start(src); err == nil {
		t.Error("Start after Stop should fail")
	}
}

func TestJobMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	h := newHarness(t, &fakeProvider{}, func(o *Options) { o.Metrics = testMetrics(t, reader) })

	h.utterance(1)
	<-h.inserter.inserted
	eventually(t, "idle", func() bool { return h.core.State() == Idle })

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
		}
	}
	for _, name := range []string{"voicesnip.jobs", "voicesnip.recordings", "voicesnip.transcription.duration"} {
		if !found[name] {
			t.Errorf("metric %s not recorded", name)
		}
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Recording: "recording", Processing: "processing"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q", s, s.String())
		}
	}
}
