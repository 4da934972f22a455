// Package core связывает горячую клавишу, запись и распознавание в один цикл
// "зажал - сказал - отпустил - текст вставлен".
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"voicesnip/internal/audio"
	"voicesnip/internal/hotkey"
	"voicesnip/internal/input"
	"voicesnip/internal/observe"
	"voicesnip/internal/provider"
)

// DefaultShutdownTimeout - сколько Close ждёт текущее задание распознавания.
const DefaultShutdownTimeout = 2 * time.Second

// Строки статуса.
const (
	StatusRecording    = "Recording..."
	StatusDeviceConfig = "Device configuration error"
	StatusDeviceBusy   = "Device already in use"
	StatusDeviceOpen   = "Error opening microphone"
	StatusNoAudio      = "No audio data recorded"
	StatusProcessing   = "Processing..."
	StatusBusy         = "Previous recording still processing"
	StatusNoText       = "No text recognized"

	statusTranscribed = "Transcribed: %s"
	statusConfigError = "Configuration error: %v"
	statusAPIError    = "API error: %v"
	statusError       = "Error: %v"
	statusInsertError = "Could not insert text: %v"
)

// State - состояние цикла записи.
type State int

const (
	Idle State = iota
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	default:
		return "idle"
	}
}

// Options - параметры сессии.
type Options struct {
	// DeviceID - микрофон, audio.DefaultDevice для устройства по умолчанию.
	DeviceID   int
	SampleRate int
	// Language - код языка, "" или "auto" для автоопределения.
	Language string
	// Hotkey - строка комбинации, например "ctrl+space".
	Hotkey string

	// ProviderName и ProviderConfig выбирают движок через реестр.
	ProviderName   string
	ProviderConfig provider.Config
	Deps           provider.Deps
	// Provider, если задан, используется вместо реестра.
	Provider provider.Provider

	Audio    audio.Source
	Inserter input.Inserter
	// Metrics по умолчанию observe.DefaultMetrics().
	Metrics *observe.Metrics

	ShutdownTimeout time.Duration
}

// Core - оркестратор сессии. Одновременно идёт не больше одной записи
// и не больше одного задания распознавания.
type Core struct {
	hotkeys  *hotkey.Manager
	recorder *audio.Recorder
	provider provider.Provider
	inserter input.Inserter
	metrics  *observe.Metrics

	deviceID     int
	sampleRate   int
	language     string
	providerName string
	timeout      time.Duration

	// events сериализует обработку клавиш в порядке поступления.
	events sync.Mutex

	slot   *semaphore.Weighted
	jobs   sync.WaitGroup
	active atomic.Int32

	// ctx заданий не отменяется: распознавание ограничено таймаутами провайдера.
	ctx context.Context

	closing   atomic.Bool
	closeOnce sync.Once

	cbMu     sync.RWMutex
	onStatus func(string)
	onText   func(string)

	srcMu  sync.Mutex
	source hotkey.Source
}

// New разбирает комбинацию, создаёт провайдер и проверяет его настройки.
// Любая ошибка прерывает запуск сессии.
func New(ctx context.Context, opts Options) (*Core, error) {
	if opts.Hotkey == "" {
		opts.Hotkey = hotkey.DefaultChord
	}
	mgr, err := hotkey.NewManagerFromString(opts.Hotkey)
	if err != nil {
		return nil, err
	}
	if opts.Audio == nil {
		return nil, errors.New("core: audio source is required")
	}
	if opts.Inserter == nil {
		return nil, errors.New("core: text inserter is required")
	}

	p := opts.Provider
	name := opts.ProviderName
	if p == nil {
		if p, err = provider.New(opts.ProviderName, opts.ProviderConfig, opts.Deps); err != nil {
			return nil, err
		}
	} else if name == "" {
		name = p.Name()
	}
	if err := p.ValidateConfig(ctx); err != nil {
		return nil, err
	}

	if opts.SampleRate <= 0 {
		opts.SampleRate = audio.TargetSampleRate
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.DefaultMetrics()
	}

	c := &Core{
		hotkeys:      mgr,
		recorder:     audio.NewRecorder(opts.Audio),
		provider:     p,
		inserter:     opts.Inserter,
		metrics:      opts.Metrics,
		deviceID:     opts.DeviceID,
		sampleRate:   opts.SampleRate,
		language:     provider.NormalizeLanguage(opts.Language),
		providerName: name,
		timeout:      opts.ShutdownTimeout,
		slot:         semaphore.NewWeighted(1),
		ctx:          context.Background(),
	}
	slog.Info("core ready", "provider", name, "hotkey", mgr.Chord().String(), "device", opts.DeviceID, "rate", opts.SampleRate)
	return c, nil
}

// SetStatusCallback задаёт получателя строк статуса.
func (c *Core) SetStatusCallback(fn func(string)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onStatus = fn
}

// SetTextCallback задаёт получателя распознанного текста.
func (c *Core) SetTextCallback(fn func(string)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onText = fn
}

// Provider возвращает движок сессии. UnloadModel вызывать только после Close.
func (c *Core) Provider() provider.Provider {
	return c.provider
}

// Chord возвращает комбинацию сессии.
func (c *Core) Chord() hotkey.Chord {
	return c.hotkeys.Chord()
}

// State возвращает текущее состояние.
func (c *Core) State() State {
	switch {
	case c.recorder.IsRecording():
		return Recording
	case c.active.Load() > 0:
		return Processing
	default:
		return Idle
	}
}

// Start подписывает ядро на источник клавиш.
func (c *Core) Start(src hotkey.Source) error {
	c.srcMu.Lock()
	defer c.srcMu.Unlock()

	if c.closing.Load() {
		return errors.New("core: session is closed")
	}
	if c.source != nil {
		return errors.New("core: already started")
	}
	c.hotkeys.Reset()
	if err := src.Subscribe(c.hotkeys.Chord(), hotkey.Handler{
		OnPress:   c.OnPress,
		OnRelease: c.OnRelease,
	}); err != nil {
		return fmt.Errorf("subscribe key events: %w", err)
	}
	c.source = src
	return nil
}

// Stop отписывается от источника клавиш и закрывает сессию.
func (c *Core) Stop() {
	c.srcMu.Lock()
	src := c.source
	c.source = nil
	c.srcMu.Unlock()

	if src != nil {
		if err := src.Unsubscribe(); err != nil {
			slog.Warn("unsubscribe key events", "error", err)
		}
	}
	c.Close()
}

// OnPress обрабатывает нажатие клавиши.
func (c *Core) OnPress(k hotkey.Key) {
	c.events.Lock()
	defer c.events.Unlock()

	c.hotkeys.Press(k)
	if c.closing.Load() || c.recorder.IsRecording() || !c.hotkeys.Satisfied() {
		return
	}
	c.startRecording()
}

// OnRelease обрабатывает отпускание клавиши.
func (c *Core) OnRelease(k hotkey.Key) {
	c.events.Lock()
	defer c.events.Unlock()

	c.hotkeys.Release(k)
	if c.recorder.IsRecording() && c.hotkeys.IsChordKey(k) {
		c.stopRecording()
	}
}

func (c *Core) startRecording() {
	c.status(StatusRecording)

	err := c.recorder.Start(c.deviceID, c.sampleRate)
	if err == nil {
		c.metrics.RecordRecording(c.ctx)
		return
	}

	slog.Error("open audio device", "device", c.deviceID, "error", err)
	var de *audio.DeviceError
	kind := audio.DeviceOther
	if errors.As(err, &de) {
		kind = de.Kind
	}
	switch kind {
	case audio.DeviceConfig:
		c.status(StatusDeviceConfig)
	case audio.DeviceBusy:
		c.status(StatusDeviceBusy)
	default:
		c.status(StatusDeviceOpen)
	}
}

func (c *Core) stopRecording() {
	if !c.recorder.Stop() {
		c.status(StatusNoAudio)
		return
	}
	if c.closing.Load() {
		return
	}
	c.status(StatusProcessing)

	if !c.slot.TryAcquire(1) {
		slog.Warn("transcription busy, recording dropped")
		c.metrics.RecordJob(c.ctx, observe.ResultDropped)
		c.status(StatusBusy)
		return
	}

	// Аудио забирается до запуска задания: следующая запись не затрёт буфер.
	wav, err := c.recorder.DrainWAV()
	if err != nil {
		c.slot.Release(1)
		if errors.Is(err, audio.ErrNoAudio) {
			c.status(StatusNoAudio)
			return
		}
		c.status(fmt.Sprintf(statusError, err))
		return
	}

	id := uuid.NewString()
	c.active.Add(1)
	c.jobs.Add(1)
	go c.runJob(id, wav)
}

func (c *Core) runJob(id string, wav []byte) {
	log := slog.With("job", id, "provider", c.providerName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("transcription panic", "panic", r)
			c.metrics.RecordJob(c.ctx, observe.ResultError)
			c.status(fmt.Sprintf(statusError, r))
		}
		// слот освобождается раньше счётчика: Idle значит, что новое задание примут
		c.slot.Release(1)
		c.active.Add(-1)
		c.jobs.Done()
	}()

	log.Info("transcription started", "bytes", len(wav))
	start := time.Now()
	text, err := c.provider.Transcribe(c.ctx, wav, c.language)
	c.metrics.RecordTranscription(c.ctx, c.providerName, time.Since(start))

	switch {
	case errors.Is(err, provider.ErrConfig):
		log.Error("transcription config error", "error", err)
		c.metrics.RecordJob(c.ctx, observe.ResultConfigError)
		c.status(fmt.Sprintf(statusConfigError, err))
	case errors.Is(err, provider.ErrRuntime):
		log.Error("transcription failed", "error", err)
		c.metrics.RecordJob(c.ctx, observe.ResultRuntimeError)
		c.status(fmt.Sprintf(statusAPIError, err))
	case err != nil:
		log.Error("transcription error", "error", err)
		c.metrics.RecordJob(c.ctx, observe.ResultError)
		c.status(fmt.Sprintf(statusError, err))
	case text == "":
		log.Info("no speech recognized", "elapsed", time.Since(start))
		c.metrics.RecordJob(c.ctx, observe.ResultEmpty)
		c.status(StatusNoText)
	default:
		log.Info("transcription done", "chars", len(text), "elapsed", time.Since(start))
		c.metrics.RecordJob(c.ctx, observe.ResultText)
		c.status(fmt.Sprintf(statusTranscribed, text))
		c.text(text)
		if err := c.inserter.Insert(c.ctx, text); err != nil {
			log.Error("insert text", "error", err)
			c.status(fmt.Sprintf(statusInsertError, err))
		}
	}
}

// Close завершает сессию: останавливает запись и ждёт текущее задание
// не дольше ShutdownTimeout. Задание не прерывается и после таймаута
// доходит до вставки текста. Повторный вызов ничего не делает.
func (c *Core) Close() {
	c.closeOnce.Do(func() {
		// под events: stopRecording не добавит задание после начала ожидания
		c.events.Lock()
		c.closing.Store(true)
		c.events.Unlock()
		c.recorder.Cleanup()

		done := make(chan struct{})
		go func() {
			c.jobs.Wait()
			close(done)
		}()

		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			slog.Warn("transcription still running after shutdown timeout", "timeout", c.timeout)
		}
	})
}

func (c *Core) status(msg string) {
	c.cbMu.RLock()
	fn := c.onStatus
	c.cbMu.RUnlock()
	c.deliver("status", fn, msg)
}

func (c *Core) text(s string) {
	c.cbMu.RLock()
	fn := c.onText
	c.cbMu.RUnlock()
	c.deliver("text", fn, s)
}

// deliver вызывает обработчик, пока сессия не закрывается. Паника обработчика
// не роняет ядро.
func (c *Core) deliver(kind string, fn func(string), s string) {
	if fn == nil || c.closing.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("callback panic", "callback", kind, "panic", r)
		}
	}()
	fn(s)
}
