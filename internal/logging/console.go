package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// LevelStyles colours level labels for one output.
type LevelStyles struct {
	Debug lipgloss.Style
	Info  lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
}

// NewLevelStyles returns level styles bound to w's colour profile.
func NewLevelStyles(w io.Writer) LevelStyles {
	r := lipgloss.NewRenderer(w)
	return LevelStyles{
		Debug: r.NewStyle().Foreground(lipgloss.Color("8")),
		Info:  r.NewStyle().Foreground(lipgloss.Color("2")),
		Warn:  r.NewStyle().Foreground(lipgloss.Color("3")),
		Error: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

// Render styles label according to level.
func (s LevelStyles) Render(level slog.Level, label string) string {
	switch {
	case level >= slog.LevelError:
		return s.Error.Render(label)
	case level >= slog.LevelWarn:
		return s.Warn.Render(label)
	case level >= slog.LevelInfo:
		return s.Info.Render(label)
	default:
		return s.Debug.Render(label)
	}
}

// consoleLevelStyle returns a LevelStyle func for w, or nil when w is not a
// terminal.
func consoleLevelStyle(w io.Writer) func(slog.Level, string) string {
	if !IsTerminal(w) {
		return nil
	}
	return NewLevelStyles(w).Render
}
