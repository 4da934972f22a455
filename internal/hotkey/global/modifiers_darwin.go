//go:build darwin

package global

import (
	"golang.design/x/hotkey"

	vs "voicesnip/internal/hotkey"
)

// modifierMap маппинг модификатора -> hotkey.Modifier для macOS
var modifierMap = map[vs.Key]hotkey.Modifier{
	vs.KeyCtrl:  hotkey.ModCtrl,
	vs.KeyShift: hotkey.ModShift,
	vs.KeyAlt:   hotkey.ModOption,
	vs.KeyCmd:   hotkey.ModCmd,
}
