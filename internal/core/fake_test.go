package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"voicesnip/internal/audio"
	"voicesnip/internal/hotkey"
)

type fakeStream struct{}

func (fakeStream) Start() error { return nil }
func (fakeStream) Stop() error  { return nil }
func (fakeStream) Close() error { return nil }

// fakeAudio - источник звука, блоки подаются тестом через push.
type fakeAudio struct {
	mu      sync.Mutex
	openErr error
	opens   int
	cb      func([]int16)
}

func (f *fakeAudio) Devices() ([]audio.DeviceInfo, error) { return nil, nil }
func (f *fakeAudio) SupportsRate(int, int) bool           { return true }

func (f *fakeAudio) Open(_ audio.StreamConfig, onChunk func([]int16)) (audio.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.cb = onChunk
	return fakeStream{}, nil
}

func (f *fakeAudio) push(n int) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(make([]int16, n))
	}
}

func (f *fakeAudio) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

type transcribeCall struct {
	wav  []byte
	lang string
}

// fakeProvider отвечает через fn; по умолчанию "hello world".
type fakeProvider struct {
	validateErr error
	fn          func(ctx context.Context) (string, error)

	mu       sync.Mutex
	calls    []transcribeCall
	unloaded int
}

func (p *fakeProvider) Name() string                         { return "fake" }
func (p *fakeProvider) ValidateConfig(context.Context) error { return p.validateErr }
func (p *fakeProvider) AvailableModels() []string            { return nil }
func (p *fakeProvider) IsModelDownloaded() bool              { return true }

func (p *fakeProvider) UnloadModel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloaded++
}

func (p *fakeProvider) Transcribe(ctx context.Context, wav []byte, lang string) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, transcribeCall{wav: wav, lang: lang})
	fn := p.fn
	p.mu.Unlock()
	if fn == nil {
		return "hello world", nil
	}
	return fn(ctx)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *fakeProvider) call(i int) transcribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[i]
}

// fakeInserter запоминает вставленный текст.
type fakeInserter struct {
	err      error
	inserted chan string
}

func newFakeInserter() *fakeInserter {
	return &fakeInserter{inserted: make(chan string, 8)}
}

func (f *fakeInserter) Insert(_ context.Context, text string) error {
	f.inserted <- text
	return f.err
}

// statusLog собирает строки статуса.
type statusLog struct {
	mu   sync.Mutex
	msgs []string
}

func (s *statusLog) add(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *statusLog) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

func (s *statusLog) has(msg string) bool {
	for _, m := range s.all() {
		if m == msg {
			return true
		}
	}
	return false
}

// fakeKeySource доставляет события клавиш подписчику.
type fakeKeySource struct {
	mu           sync.Mutex
	chord        hotkey.Chord
	h            hotkey.Handler
	subscribed   bool
	unsubscribed int
}

func (s *fakeKeySource) Subscribe(chord hotkey.Chord, h hotkey.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chord, s.h, s.subscribed = chord, h, true
	return nil
}

func (s *fakeKeySource) Unsubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = false
	s.unsubscribed++
	return nil
}

func (s *fakeKeySource) press(k hotkey.Key)   { s.h.OnPress(k) }
func (s *fakeKeySource) release(k hotkey.Key) { s.h.OnRelease(k) }

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
