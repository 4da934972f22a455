//go:build linux

package global

import (
	"golang.design/x/hotkey"

	vs "voicesnip/internal/hotkey"
)

// modifierMap маппинг модификатора -> hotkey.Modifier для Linux
var modifierMap = map[vs.Key]hotkey.Modifier{
	vs.KeyCtrl:  hotkey.ModCtrl,
	vs.KeyShift: hotkey.ModShift,
	vs.KeyAlt:   hotkey.Mod1, // Alt = Mod1 на X11
	vs.KeyCmd:   hotkey.Mod4, // Super/Win = Mod4 на X11
}
