package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the mender banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _ __ ___   ___ _ __   __| | ___ _ __ ", "#34d399"},
		{" | '_ ` _ \\ / _ \\ '_ \\ / _` |/ _ \\ '__|", "#2dd4bf"},
		{" | | | | | |  __/ | | | (_| |  __/ |   ", "#22d3ee"},
		{" |_| |_| |_|\\___|_| |_|\\__,_|\\___|_|   ", "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
