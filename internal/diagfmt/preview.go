package diagfmt

import (
	"bufio"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ColorDiff writes a unified diff, colouring headers, hunks, additions and
// removals when enabled.
func ColorDiff(w io.Writer, diff string, enabled bool) error {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	header, hunk := mk(color.Bold), mk(color.FgCyan)
	add, del := mk(color.FgGreen), mk(color.FgRed)

	bw := bufio.NewWriter(w)
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		var c *color.Color
		switch {
		case strings.HasPrefix(body, "--- "), strings.HasPrefix(body, "+++ "):
			c = header
		case strings.HasPrefix(body, "@@"):
			c = hunk
		case strings.HasPrefix(body, "+"):
			c = add
		case strings.HasPrefix(body, "-"):
			c = del
		}
		if c != nil {
			body = c.Sprint(body)
		}
		if _, err := bw.WriteString(body + line[len(strings.TrimSuffix(line, "\n")):]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
