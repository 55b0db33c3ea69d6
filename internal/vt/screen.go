// Package vt renders raw PTY byte streams into visible terminal lines and
// derives the incremental text that appeared since the previous render.
package vt

import (
	"strings"
	"sync"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/vt"
)

// Cols and Rows are the fixed PTY dimensions the whole shell subsystem uses.
const (
	Cols = 160
	Rows = 500

	// MaxBufferBytes bounds the cumulative raw buffer kept for rendering an
	// increment — only the tail is ever re-rendered.
	MaxBufferBytes = 100_000
)

// Screen is a VT100 emulator fixed at Cols x Rows, line mode on. It is
// idempotent over the cumulative buffer: Render() always reflects the
// authoritative current screen state for every byte written so far.
type Screen struct {
	mu  sync.Mutex
	emu *vt.Emulator
}

// NewScreen creates a Screen at the fixed dimensions used by the shell
// subsystem.
func NewScreen() *Screen {
	return &Screen{emu: vt.NewEmulator(Cols, Rows)}
}

// Write feeds raw PTY bytes into the emulator.
func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emu.Write(p)
}

// Render returns the current screen contents as lines, with trailing
// fully-blank lines dropped. No ANSI escape sequences leak into the output.
func (s *Screen) Render() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return renderLines(s.emu.Render())
}

// CursorPosition returns the 0-based cursor position of the live screen.
func (s *Screen) CursorPosition() uv.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emu.CursorPosition()
}

// Close releases emulator resources.
func (s *Screen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emu.Close()
}

// renderLines splits a raw rendered screen dump into lines and trims
// trailing blank lines, matching render_terminal_output's screen.display
// reversal-and-trim behavior.
func renderLines(rendered string) []string {
	lines := strings.Split(rendered, "\n")
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[:end]
}

// Render feeds the given cumulative bytes through a fresh emulator and
// returns the rendered lines. Useful for one-shot renders of buffers that
// don't have a live Screen (e.g. replaying stored pending output).
func Render(cumulative []byte) []string {
	s := NewScreen()
	defer s.Close()
	s.Write(cumulative)
	return s.Render()
}
