package stats

import "golang.org/x/term"

// TerminalWidth probes the terminal width of fd, falling back when the
// stream is not a terminal or the probe fails.
func TerminalWidth(fd int, fallback int) int {
	if !term.IsTerminal(fd) {
		return fallback
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
