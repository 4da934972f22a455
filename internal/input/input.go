// Package input вставляет распознанный текст в активное окно.
package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// InsertTimeout ограничивает одну операцию вставки.
const InsertTimeout = 10 * time.Second

// ErrToolNotFound возвращается, если внешняя утилита ввода не установлена.
var ErrToolNotFound = errors.New("text input tool not found")

// Inserter вводит текст в текущее активное поле ввода.
type Inserter interface {
	Insert(ctx context.Context, text string) error
}

// New создаёт платформо-специфичный Inserter.
func New() (Inserter, error) {
	return newInserter()
}

// InserterFunc адаптирует функцию к Inserter.
type InserterFunc func(ctx context.Context, text string) error

// Insert вызывает f.
func (f InserterFunc) Insert(ctx context.Context, text string) error {
	return f(ctx, text)
}

var terminalMarkers = []string{
	"terminal", "konsole", "xterm", "alacritty", "kitty", "wezterm",
	"tilix", "terminator", "urxvt", "rxvt", "foot", "st-256color",
	"consolewindowclass", "cascadia_hosting_window_class", "mintty",
	"iterm", "putty",
}

// IsTerminal сообщает, похож ли класс окна на эмулятор терминала.
// В терминалах Ctrl+V не вставляет, поэтому текст печатается посимвольно.
func IsTerminal(class string) bool {
	c := strings.ToLower(strings.TrimSpace(class))
	if c == "" {
		return false
	}
	for _, m := range terminalMarkers {
		if strings.Contains(c, m) {
			return true
		}
	}
	return false
}

// Задержки, за которые целевое окно успевает прочитать буфер обмена.
var (
	clipboardSettle = 80 * time.Millisecond
	pasteSettle     = 120 * time.Millisecond
)

// pasteViaClipboard кладёт текст в буфер обмена, отправляет сочетание вставки
// и восстанавливает прежнее содержимое буфера.
func pasteViaClipboard(ctx context.Context, text string, withSuper bool) error {
	orig, readErr := clipboard.ReadAll()
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	defer func() {
		if readErr != nil {
			return
		}
		if err := clipboard.WriteAll(orig); err != nil {
			slog.Warn("restore clipboard", "error", err)
		}
	}()

	if err := sleepCtx(ctx, clipboardSettle); err != nil {
		return err
	}

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("keyboard: %w", err)
	}
	if withSuper {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	kb.SetKeys(keybd_event.VK_V)
	if err := kb.Launching(); err != nil {
		return fmt.Errorf("send paste: %w", err)
	}
	return sleepCtx(ctx, pasteSettle)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
