package hotkey

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// DefaultChord - горячая клавиша по умолчанию.
const DefaultChord = "ctrl+space"

// ErrInvalidChord возвращается для некорректной строки горячей клавиши.
var ErrInvalidChord = errors.New("invalid hotkey")

// Chord - комбинация: набор модификаторов и ровно одна клавиша-триггер.
type Chord struct {
	// Modifiers в порядке ctrl, alt, shift, cmd, без повторов.
	Modifiers []Key
	Trigger   Key
	// Raw - исходная строка.
	Raw string
}

// Parse разбирает строку вида "ctrl+shift+space".
// Последний токен, не являющийся модификатором, становится триггером.
func Parse(s string) (Chord, error) {
	if strings.TrimSpace(s) == "" {
		return Chord{}, fmt.Errorf("%w: hotkey cannot be empty", ErrInvalidChord)
	}

	var tokens []string
	for _, part := range strings.Split(s, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	if len(tokens) == 0 {
		return Chord{}, fmt.Errorf("%w: invalid hotkey format %q", ErrInvalidChord, s)
	}

	chord := Chord{Raw: s}
	seen := make(map[Key]bool)
	var trigger *Key

	for _, tok := range tokens {
		if m, ok := modifierNames[tok]; ok {
			seen[m] = true
			continue
		}
		k, ok := LookupKey(tok)
		if !ok {
			return Chord{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidChord, tok, s)
		}
		trigger = &k
	}

	if trigger == nil {
		return Chord{}, fmt.Errorf("%w: no trigger key found in %q", ErrInvalidChord, s)
	}
	chord.Trigger = *trigger

	for _, m := range modifierOrder {
		if seen[m] {
			chord.Modifiers = append(chord.Modifiers, m)
		}
	}
	return chord, nil
}

// MustParse как Parse, но паникует при ошибке. Только для констант.
func MustParse(s string) Chord {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String возвращает строковое представление горячей клавиши.
func (c Chord) String() string {
	parts := make([]string, 0, len(c.Modifiers)+1)
	for _, m := range c.Modifiers {
		parts = append(parts, m.String())
	}
	parts = append(parts, c.Trigger.String())
	return strings.Join(parts, "+")
}

// Equal сравнивает комбинации без учёта исходной строки и регистра символа.
func (c Chord) Equal(o Chord) bool {
	if !slices.Equal(c.Modifiers, o.Modifiers) {
		return false
	}
	if c.Trigger.IsChar() && o.Trigger.IsChar() {
		return sameChar(c.Trigger.Char, o.Trigger.Char)
	}
	return c.Trigger == o.Trigger
}

// Keys возвращает все клавиши комбинации: модификаторы и триггер.
func (c Chord) Keys() []Key {
	keys := make([]Key, 0, len(c.Modifiers)+1)
	keys = append(keys, c.Modifiers...)
	return append(keys, c.Trigger)
}

// FormatKeys собирает строку горячей клавиши из записанного набора клавиш.
// Если ни одна клавиша не распознана, возвращает DefaultChord.
func FormatKeys(keys []Key) string {
	mods := make(map[Key]bool)
	var names []string

	for _, k := range keys {
		n := Normalize(k)
		switch {
		case IsModifier(n):
			mods[n] = true
		case n.IsChar():
			if unicode.IsPrint(n.Char) && !unicode.IsSpace(n.Char) {
				names = append(names, string(unicode.ToLower(n.Char)))
			}
		case n.Name != "":
			if _, ok := namedKeys[n.Name]; ok {
				names = append(names, n.Name)
			}
		}
	}

	var parts []string
	for _, m := range modifierOrder {
		if mods[m] {
			parts = append(parts, m.Name)
		}
	}
	parts = append(parts, names...)
	if len(parts) == 0 {
		return DefaultChord
	}
	return strings.Join(parts, "+")
}
