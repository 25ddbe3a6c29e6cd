package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"cxxtweak/internal/diag"
	"cxxtweak/internal/source"
)

type palette struct {
	sev   map[diag.Severity]*color.Color
	path  *color.Color
	caret *color.Color
	note  *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   mk(color.FgRed, color.Bold),
			diag.SevWarning: mk(color.FgYellow, color.Bold),
			diag.SevInfo:    mk(color.FgCyan, color.Bold),
		},
		path:  mk(color.Bold),
		caret: mk(color.FgGreen, color.Bold),
		note:  mk(color.FgBlue),
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждой диагностики печатает
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// затем строку исходника с подчёркиванием ^~~~ по Span и заметки.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := prettyOne(w, &d, fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	sevColor := p.sev[d.Severity]
	if sevColor == nil {
		sevColor = p.sev[diag.SevInfo]
	}
	loc := location(d.Primary, fs, opts)
	if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n", p.path.Sprint(loc), sevColor.Sprint(d.Severity), d.Code.ID(), d.Message); err != nil {
		return err
	}
	if err := snippet(w, d.Primary, fs, opts, p); err != nil {
		return err
	}
	if !opts.ShowNotes {
		return nil
	}
	for _, n := range d.Notes {
		if _, err := fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note"), location(n.Span, fs, opts), n.Msg); err != nil {
			return err
		}
	}
	return nil
}

func location(sp source.Span, fs *source.FileSet, opts PrettyOpts) string {
	if fs == nil || int(sp.File) >= fs.Len() {
		return "<unknown>"
	}
	f := fs.Get(sp.File)
	pos := f.Position(sp.Start)
	return fmt.Sprintf("%s:%d:%d", FormatPath(f.Path, opts.PathMode, opts.BaseDir), pos.Line, pos.Col)
}

// snippet prints the first line of sp with a caret line under it. Caret
// columns follow display width, so tabs and wide runes stay aligned.
func snippet(w io.Writer, sp source.Span, fs *source.FileSet, opts PrettyOpts, p palette) error {
	if fs == nil || int(sp.File) >= fs.Len() {
		return nil
	}
	f := fs.Get(sp.File)
	pos := f.Position(sp.Start)
	line := f.Line(pos.Line)
	if line == "" {
		return nil
	}
	startCol := int(pos.Col) - 1
	endCol := len(line)
	if endPos := f.Position(sp.End); endPos.Line == pos.Line {
		endCol = int(endPos.Col) - 1
	}
	startCol = min(max(startCol, 0), len(line))
	endCol = min(max(endCol, startCol), len(line))

	tab := opts.TabWidth
	if tab <= 0 {
		tab = 4
	}
	expanded := expandTabs(line, tab)
	pad := displayWidth(line[:startCol], tab)
	width := max(displayWidth(line[:endCol], tab)-pad, 1)

	gutter := fmt.Sprintf("%5d | ", pos.Line)
	underline := "^" + strings.Repeat("~", width-1)
	_, err := fmt.Fprintf(w, "%s%s\n%s%s%s\n", gutter, expanded,
		strings.Repeat(" ", len(gutter)-2)+"| ", strings.Repeat(" ", pad), p.caret.Sprint(underline))
	return err
}

func expandTabs(s string, tab int) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tab - col%tab
			sb.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		sb.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return sb.String()
}

func displayWidth(s string, tab int) int {
	return runewidth.StringWidth(expandTabs(s, tab))
}
