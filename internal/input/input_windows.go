//go:build windows

package input

import (
	"context"
	"fmt"
	"log/slog"
	"syscall"
	"unicode/utf16"
	"unsafe"
)

var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	procSendInput           = user32.NewProc("SendInput")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procGetClassNameW       = user32.NewProc("GetClassNameW")
)

const (
	inputKeyboard    = 1
	keyEventFKeyUp   = 0x0002
	keyEventFUnicode = 0x0004
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type kbInput struct {
	inputType uint32
	ki        keyboardInput
	padding   uint64
}

type windowsInserter struct{}

func newInserter() (Inserter, error) {
	return &windowsInserter{}, nil
}

// Insert печатает текст в консольные окна и вставляет через буфер обмена в остальные.
func (t *windowsInserter) Insert(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, InsertTimeout)
	defer cancel()

	class := foregroundClass()
	if IsTerminal(class) {
		slog.Debug("typing into terminal", "class", class)
		return sendUnicode(text)
	}
	if err := pasteViaClipboard(ctx, text, false); err != nil {
		slog.Warn("clipboard paste failed, typing instead", "error", err)
		return sendUnicode(text)
	}
	return nil
}

func foregroundClass() string {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return ""
	}
	buf := make([]uint16, 256)
	n, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf[:n])
}

func sendUnicode(text string) error {
	units := utf16.Encode([]rune(text))
	inputs := make([]kbInput, 0, len(units)*2)
	for _, u := range units {
		inputs = append(inputs,
			kbInput{inputType: inputKeyboard, ki: keyboardInput{wScan: u, dwFlags: keyEventFUnicode}},
			kbInput{inputType: inputKeyboard, ki: keyboardInput{wScan: u, dwFlags: keyEventFUnicode | keyEventFKeyUp}},
		)
	}
	if len(inputs) == 0 {
		return nil
	}

	sent, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		uintptr(unsafe.Sizeof(inputs[0])),
	)
	if int(sent) != len(inputs) {
		return fmt.Errorf("SendInput: %d of %d events sent: %w", sent, len(inputs), err)
	}
	return nil
}
