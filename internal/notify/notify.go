// Package notify предоставляет системные уведомления.
package notify

import (
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"

	"voicesnip/internal/i18n"
)

// maxLen - предел длины текста уведомления в символах.
const maxLen = 100

// Notifier отправляет системные уведомления.
type Notifier struct {
	mu      sync.RWMutex
	enabled bool
	send    func(title, message string) error
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Enabled возвращает true если уведомления включены.
func (n *Notifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Success показывает распознанный текст.
func (n *Notifier) Success(text string) {
	n.notify(i18n.T("app_name"), truncate(text))
}

// Error показывает ошибку.
func (n *Notifier) Error(msg string) {
	n.notify(i18n.T("dialog_error_title"), truncate(msg))
}

// Info показывает информационное сообщение.
func (n *Notifier) Info(msg string) {
	n.notify(i18n.T("app_name"), truncate(msg))
}

func (n *Notifier) notify(title, message string) {
	n.mu.RLock()
	enabled, send := n.enabled, n.send
	n.mu.RUnlock()
	if !enabled {
		return
	}
	// ошибки уведомлений не критичны
	if err := send(title, message); err != nil {
		slog.Debug("notification failed", "error", err)
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
