package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the cavity banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Blue to teal, top to bottom
	lines := []struct {
		text  string
		color string
	}{
		{"   ___            _ _        ", "#60a5fa"},
		{"  / __|__ ___ __ (_) |_ _  _ ", "#38bdf8"},
		{" | (__/ _` \\ V / | |  _| || |", "#22d3ee"},
		{"  \\___\\__,_|\\_/  |_|\\__|\\_, |", "#2dd4bf"},
		{"                        |__/ ", "#34d399"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
