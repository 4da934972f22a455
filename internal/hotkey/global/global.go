// Package global подключает глобальные горячие клавиши ОС как источник событий клавиатуры.
package global

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode"

	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"

	vs "voicesnip/internal/hotkey"
)

// repeatGrace - окно, в котором keyup+keydown считаются автоповтором.
const repeatGrace = 40 * time.Millisecond

// Source регистрирует комбинацию в ОС и переводит её keydown/keyup
// в события нажатия/отпускания каждой клавиши комбинации.
type Source struct {
	mu     sync.Mutex
	hk     *hotkey.Hotkey
	chord  vs.Chord
	stopCh chan struct{}
	done   chan struct{}
}

var _ vs.Source = (*Source)(nil)

// New создаёт источник глобальных горячих клавиш.
func New() *Source {
	return &Source{}
}

// Subscribe регистрирует горячую клавишу и начинает доставку событий.
func (s *Source) Subscribe(chord vs.Chord, h vs.Handler) error {
	if err := s.Unsubscribe(); err != nil {
		slog.Warn("hotkey: unregister previous", "error", err)
	}

	mods := make([]hotkey.Modifier, 0, len(chord.Modifiers))
	for _, m := range chord.Modifiers {
		mod, ok := modifierMap[m]
		if !ok {
			return fmt.Errorf("%w: modifier %q is not supported on this platform", vs.ErrInvalidChord, m)
		}
		mods = append(mods, mod)
	}

	key, ok := lookupKey(chord.Trigger)
	if !ok {
		return fmt.Errorf("%w: key %q cannot be registered globally", vs.ErrInvalidChord, chord.Trigger)
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %s: %w", chord, err)
	}
	slog.Info("hotkey registered", "chord", chord.String())

	s.mu.Lock()
	s.hk = hk
	s.chord = chord
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.listen(hk, chord, h, s.stopCh, s.done)
	s.mu.Unlock()
	return nil
}

func (s *Source) listen(hk *hotkey.Hotkey, chord vs.Chord, h vs.Handler, stopCh, done chan struct{}) {
	defer close(done)

	var (
		down    bool
		pending <-chan time.Time
	)

	press := func() {
		for _, k := range chord.Keys() {
			if h.OnPress != nil {
				h.OnPress(k)
			}
		}
	}
	release := func() {
		keys := chord.Keys()
		for i := len(keys) - 1; i >= 0; i-- {
			if h.OnRelease != nil {
				h.OnRelease(keys[i])
			}
		}
	}

	for {
		select {
		case <-stopCh:
			if down {
				release()
			}
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			if pending != nil {
				// keyup сразу перед keydown - автоповтор, отпускания не было
				pending = nil
				continue
			}
			if down {
				continue
			}
			down = true
			press()
		case _, ok := <-hk.Keyup():
			if !ok {
				return
			}
			if down {
				pending = time.After(repeatGrace)
			}
		case <-pending:
			pending = nil
			down = false
			release()
		}
	}
}

// Unsubscribe отменяет регистрацию горячей клавиши.
func (s *Source) Unsubscribe() error {
	s.mu.Lock()
	hk := s.hk
	stopCh := s.stopCh
	done := s.done
	s.hk = nil
	s.stopCh = nil
	s.done = nil
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}
	if hk == nil {
		return nil
	}

	// Unregister может зависнуть на некоторых оконных менеджерах
	errCh := make(chan error, 1)
	go func() { errCh <- hk.Unregister() }()
	select {
	case err := <-errCh:
		return err
	case <-time.After(500 * time.Millisecond):
		slog.Warn("hotkey unregister timeout")
		return nil
	}
}

// RunOnMainThread запускает функцию в главном потоке (требование для macOS).
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}

func lookupKey(k vs.Key) (hotkey.Key, bool) {
	if k.IsChar() {
		key, ok := charKeys[unicode.ToLower(k.Char)]
		return key, ok
	}
	key, ok := namedKeys[k.Name]
	return key, ok
}

var namedKeys = map[string]hotkey.Key{
	"space": hotkey.KeySpace,
	"enter": hotkey.KeyReturn,
	"tab":   hotkey.KeyTab,
	"esc":   hotkey.KeyEscape,
	"f1":    hotkey.KeyF1,
	"f2":    hotkey.KeyF2,
	"f3":    hotkey.KeyF3,
	"f4":    hotkey.KeyF4,
	"f5":    hotkey.KeyF5,
	"f6":    hotkey.KeyF6,
	"f7":    hotkey.KeyF7,
	"f8":    hotkey.KeyF8,
	"f9":    hotkey.KeyF9,
	"f10":   hotkey.KeyF10,
	"f11":   hotkey.KeyF11,
	"f12":   hotkey.KeyF12,
}

var charKeys = map[rune]hotkey.Key{
	'a': hotkey.KeyA,
	'b': hotkey.KeyB,
	'c': hotkey.KeyC,
	'd': hotkey.KeyD,
	'e': hotkey.KeyE,
	'f': hotkey.KeyF,
	'g': hotkey.KeyG,
	'h': hotkey.KeyH,
	'i': hotkey.KeyI,
	'j': hotkey.KeyJ,
	'k': hotkey.KeyK,
	'l': hotkey.KeyL,
	'm': hotkey.KeyM,
	'n': hotkey.KeyN,
	'o': hotkey.KeyO,
	'p': hotkey.KeyP,
	'q': hotkey.KeyQ,
	'r': hotkey.KeyR,
	's': hotkey.KeyS,
	't': hotkey.KeyT,
	'u': hotkey.KeyU,
	'v': hotkey.KeyV,
	'w': hotkey.KeyW,
	'x': hotkey.KeyX,
	'y': hotkey.KeyY,
	'z': hotkey.KeyZ,
	'0': hotkey.Key0,
	'1': hotkey.Key1,
	'2': hotkey.Key2,
	'3': hotkey.Key3,
	'4': hotkey.Key4,
	'5': hotkey.Key5,
	'6': hotkey.Key6,
	'7': hotkey.Key7,
	'8': hotkey.Key8,
	'9': hotkey.Key9,
}
