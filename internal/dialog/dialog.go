// Package dialog показывает диалоги zenity: ошибки, сообщения и выбор настроек.
package dialog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ncruces/zenity"

	"voicesnip/internal/hotkey"
)

// ErrCanceled возвращается, если пользователь закрыл диалог.
var ErrCanceled = zenity.ErrCanceled

// Подписи модификаторов в диалоге и их токены в строке горячей клавиши.
var (
	modOptions = []string{"Ctrl", "Alt", "Shift", "Super (Win/Cmd)"}
	modTokens  = []string{"ctrl", "alt", "shift", "cmd"}
)

// keyOptions - клавиши-триггеры, которые можно зарегистрировать глобально.
var keyOptions = func() []string {
	keys := []string{"Space", "Enter", "Tab"}
	for c := 'A'; c <= 'Z'; c++ {
		keys = append(keys, string(c))
	}
	for i := 1; i <= 12; i++ {
		keys = append(keys, fmt.Sprintf("F%d", i))
	}
	return keys
}()

// SelectHotkey предлагает выбрать модификаторы и клавишу.
// Возвращает строку комбинации, проверенную hotkey.Parse.
func SelectHotkey(current string) (string, error) {
	chord, _ := hotkey.Parse(current)

	var currentMods []string
	for _, m := range chord.Modifiers {
		for i, tok := range modTokens {
			if m.Name == tok {
				currentMods = append(currentMods, modOptions[i])
			}
		}
	}

	mods, err := zenity.ListMultiple(
		"Modifiers:",
		modOptions,
		zenity.Title("VoiceSnip - Hotkey"),
		zenity.DefaultItems(currentMods...),
	)
	if err != nil {
		return current, err
	}

	key, err := zenity.List(
		"Key:",
		keyOptions,
		zenity.Title("VoiceSnip - Hotkey"),
		zenity.DefaultItems(keyLabel(chord.Trigger)),
	)
	if err != nil {
		return current, err
	}
	return buildChord(mods, key)
}

// buildChord собирает строку комбинации из подписей диалога.
func buildChord(mods []string, key string) (string, error) {
	var parts []string
	for _, label := range mods {
		for i, opt := range modOptions {
			if label == opt {
				parts = append(parts, modTokens[i])
			}
		}
	}
	if key == "" {
		return "", errors.New("no key selected")
	}
	parts = append(parts, strings.ToLower(key))

	chord, err := hotkey.Parse(strings.Join(parts, "+"))
	if err != nil {
		return "", err
	}
	return chord.String(), nil
}

func keyLabel(k hotkey.Key) string {
	s := k.String()
	if s == "" {
		return ""
	}
	if k.IsChar() || strings.HasPrefix(s, "f") {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SelectItem предлагает выбрать один вариант из списка подписей.
// Возвращает индекс выбранного варианта.
func SelectItem(title, text string, labels []string, current int) (int, error) {
	var defaults []string
	if current >= 0 && current < len(labels) {
		defaults = append(defaults, labels[current])
	}
	choice, err := zenity.List(text, labels, zenity.Title(title), zenity.DefaultItems(defaults...))
	if err != nil {
		return -1, err
	}
	for i, l := range labels {
		if l == choice {
			return i, nil
		}
	}
	return -1, ErrCanceled
}

// ShowInfo показывает информационное сообщение.
func ShowInfo(title, message string) {
	_ = zenity.Info(message, zenity.Title(title))
}

// ShowError показывает сообщение об ошибке.
func ShowError(title, message string) {
	_ = zenity.Error(message, zenity.Title(title))
}
