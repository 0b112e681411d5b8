package app

import (
	"fmt"
	"io"
	"os"
)

const (
	ColorRed   = "31"
	ColorGreen = "32"
)

// Color wraps text with ANSI color code when stdout is a terminal and NO_COLOR is not set.
func Color(text, code string) string {
	if code == "" || !colorEnabled() {
		return text
	}
	return "\x1b[" + code + "m" + text + "\x1b[0m"
}

// Wrote reports a written file on w.
func Wrote(w io.Writer, path string, n int) {
	fmt.Fprintf(w, "%s %s (%d bytes)\n", Color("Wrote:", ColorGreen), path, n)
}

func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
