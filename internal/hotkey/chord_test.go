package hotkey

import (
	"errors"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"ctrl+space", "ctrl+space"},
		{"Ctrl + Space", "ctrl+space"},
		{"shift+ctrl+a", "ctrl+shift+a"},
		{"control+alt+F5", "ctrl+alt+f5"},
		{"super+return", "cmd+enter"},
		{"ctrl++x", "ctrl+x"},
		{"escape", "esc"},
		{"ctrl+ctrl+space", "ctrl+space"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got := c.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
			again, err := Parse(c.String())
			if err != nil {
				t.Fatalf("reparse %q: %v", c.String(), err)
			}
			if !again.Equal(c) {
				t.Fatalf("reparsed chord %v differs from %v", again, c)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "+", "+ +", "ctrl", "ctrl+shift", "ctrl+nosuchkey"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidChord) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidChord", in, err)
		}
	}
}

func TestParseKeepsRaw(t *testing.T) {
	c := MustParse("Ctrl+Space")
	if c.Raw != "Ctrl+Space" {
		t.Fatalf("Raw = %q", c.Raw)
	}
	if c.Trigger != KeySpace {
		t.Fatalf("Trigger = %v, want space", c.Trigger)
	}
	if len(c.Modifiers) != 1 || c.Modifiers[0] != KeyCtrl {
		t.Fatalf("Modifiers = %v", c.Modifiers)
	}
}

func TestLastNonModifierWins(t *testing.T) {
	c := MustParse("ctrl+a+b")
	if c.Trigger != Char('b') {
		t.Fatalf("Trigger = %v, want b", c.Trigger)
	}
}

func TestEqualIgnoresCharCase(t *testing.T) {
	a := Chord{Modifiers: []Key{KeyCtrl}, Trigger: Char('A')}
	b := MustParse("ctrl+a")
	if !a.Equal(b) {
		t.Fatal("expected chords to be equal")
	}
	if a.Equal(MustParse("alt+a")) {
		t.Fatal("different modifiers must not be equal")
	}
}

func TestFormatKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		keys []Key
		want string
	}{
		{"empty", nil, DefaultChord},
		{"sides normalized", []Key{KeyShiftR, KeyCtrlL, Char('K')}, "ctrl+shift+k"},
		{"named", []Key{KeyAltL, KeySpace}, "alt+space"},
		{"unknown dropped", []Key{Named("mystery")}, DefaultChord},
		{"modifiers only", []Key{KeyCmdL}, "cmd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatKeys(tt.keys); got != tt.want {
				t.Fatalf("FormatKeys() = %q, want %q", got, tt.want)
			}
		})
	}
}
