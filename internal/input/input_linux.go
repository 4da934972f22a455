//go:build linux

package input

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type linuxInserter struct {
	useWayland bool
	run        func(ctx context.Context, name string, args ...string) error
}

func newInserter() (Inserter, error) {
	return &linuxInserter{
		useWayland: os.Getenv("WAYLAND_DISPLAY") != "",
		run:        runTool,
	}, nil
}

// Insert печатает текст через xdotool (X11) или wtype (Wayland).
// Буфер обмена и primary selection не трогаются.
func (t *linuxInserter) Insert(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, InsertTimeout)
	defer cancel()

	name, args := t.command(text)
	err := t.run(ctx, name, args...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%w: %s (install: sudo apt install %s)", ErrToolNotFound, name, name)
	case ctx.Err() != nil:
		return fmt.Errorf("%s: text insertion timed out: %w", name, ctx.Err())
	default:
		return fmt.Errorf("%s: %w", name, err)
	}
}

func (t *linuxInserter) command(text string) (string, []string) {
	if t.useWayland {
		return "wtype", []string{"--", text}
	}
	return "xdotool", []string{"type", "--clearmodifiers", "--", text}
}

func runTool(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil && len(out) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return err
}
