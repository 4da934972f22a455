package hotkey

import (
	"strings"
	"unicode"
)

// Key - идентификатор клавиши из потока событий клавиатуры.
// Именованные клавиши задаются Name, символьные - Char.
type Key struct {
	Name string
	Char rune
}

// Named создаёт именованную клавишу.
func Named(name string) Key {
	return Key{Name: name}
}

// Char создаёт символьную клавишу.
func Char(r rune) Key {
	return Key{Char: r}
}

// IsChar возвращает true для клавиш, печатающих символ.
func (k Key) IsChar() bool {
	return k.Name == "" && k.Char != 0
}

// String возвращает имя клавиши в формате строки горячей клавиши.
func (k Key) String() string {
	if k.IsChar() {
		return string(unicode.ToLower(k.Char))
	}
	return k.Name
}

// Канонические модификаторы.
var (
	KeyCtrl  = Named("ctrl")
	KeyAlt   = Named("alt")
	KeyShift = Named("shift")
	KeyCmd   = Named("cmd")
)

// Левые/правые варианты модификаторов.
var (
	KeyCtrlL  = Named("ctrl_l")
	KeyCtrlR  = Named("ctrl_r")
	KeyAltL   = Named("alt_l")
	KeyAltR   = Named("alt_r")
	KeyShiftL = Named("shift_l")
	KeyShiftR = Named("shift_r")
	KeyCmdL   = Named("cmd_l")
	KeyCmdR   = Named("cmd_r")
)

// Специальные клавиши.
var (
	KeySpace = Named("space")
	KeyEnter = Named("enter")
	KeyTab   = Named("tab")
	KeyEsc   = Named("esc")
)

// modifierOrder - порядок модификаторов при сериализации.
var modifierOrder = []Key{KeyCtrl, KeyAlt, KeyShift, KeyCmd}

// modifierNames маппинг токена строки -> модификатор.
var modifierNames = map[string]Key{
	"ctrl":    KeyCtrl,
	"control": KeyCtrl,
	"alt":     KeyAlt,
	"shift":   KeyShift,
	"cmd":     KeyCmd,
	"super":   KeyCmd,
}

// namedKeys маппинг токена строки -> специальная клавиша.
var namedKeys = map[string]Key{
	"space":  KeySpace,
	"enter":  KeyEnter,
	"return": KeyEnter,
	"tab":    KeyTab,
	"esc":    KeyEsc,
	"escape": KeyEsc,
	"f1":     Named("f1"),
	"f2":     Named("f2"),
	"f3":     Named("f3"),
	"f4":     Named("f4"),
	"f5":     Named("f5"),
	"f6":     Named("f6"),
	"f7":     Named("f7"),
	"f8":     Named("f8"),
	"f9":     Named("f9"),
	"f10":    Named("f10"),
	"f11":    Named("f11"),
	"f12":    Named("f12"),
}

// sideVariants сводит левые/правые модификаторы к каноническим.
var sideVariants = map[Key]Key{
	KeyCtrlL:  KeyCtrl,
	KeyCtrlR:  KeyCtrl,
	KeyAltL:   KeyAlt,
	KeyAltR:   KeyAlt,
	KeyShiftL: KeyShift,
	KeyShiftR: KeyShift,
	KeyCmdL:   KeyCmd,
	KeyCmdR:   KeyCmd,
}

// Normalize сводит левый/правый вариант модификатора к каноническому.
// Остальные клавиши возвращаются без изменений.
func Normalize(k Key) Key {
	if n, ok := sideVariants[k]; ok {
		return n
	}
	return k
}

// IsModifier возвращает true для модификаторов (с учётом левых/правых вариантов).
func IsModifier(k Key) bool {
	switch Normalize(k) {
	case KeyCtrl, KeyAlt, KeyShift, KeyCmd:
		return true
	}
	return false
}

// LookupKey возвращает клавишу по имени из строки горячей клавиши.
func LookupKey(name string) (Key, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if m, ok := modifierNames[name]; ok {
		return m, true
	}
	if k, ok := namedKeys[name]; ok {
		return k, true
	}
	r := []rune(name)
	if len(r) == 1 {
		return Char(r[0]), true
	}
	return Key{}, false
}

func sameChar(a, b rune) bool {
	return unicode.ToLower(a) == unicode.ToLower(b)
}
