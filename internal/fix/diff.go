package fix

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines around each hunk.
const DefaultContext = 3

type lineOp struct {
	kind byte // ' ', '-', '+'
	text string
	old  int // 0-based line index in before, перед этой строкой
	new  int
}

// UnifiedDiff renders a unified diff between before and after.
// It returns "" when the contents are equal.
func UnifiedDiff(path string, before, after []byte, context int) string {
	if string(before) == string(after) {
		return ""
	}
	if context < 0 {
		context = DefaultContext
	}
	ops := lineOps(string(before), string(after))

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	for i := 0; i < len(ops); {
		if ops[i].kind == ' ' {
			i++
			continue
		}
		start := max(0, i-context)
		end := i + 1
		for j := i + 1; j < len(ops); j++ {
			if ops[j].kind != ' ' {
				end = j + 1
				continue
			}
			if j-end+1 > 2*context {
				break
			}
		}
		end = min(len(ops), end+context)
		writeHunk(&sb, ops[start:end])
		i = end
	}
	return sb.String()
}

func lineOps(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []lineOp
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			op := lineOp{text: line, old: oldLine, new: newLine}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				op.kind = ' '
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				op.kind = '-'
				oldLine++
			case diffmatchpatch.DiffInsert:
				op.kind = '+'
				newLine++
			}
			ops = append(ops, op)
		}
	}
	return ops
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func writeHunk(sb *strings.Builder, ops []lineOp) {
	oldCount, newCount := 0, 0
	for _, op := range ops {
		if op.kind != '+' {
			oldCount++
		}
		if op.kind != '-' {
			newCount++
		}
	}
	oldStart, newStart := ops[0].old, ops[0].new
	if oldCount > 0 {
		oldStart++
	}
	if newCount > 0 {
		newStart++
	}
	fmt.Fprintf(sb, "@@ -%s +%s @@\n", hunkRange(oldStart, oldCount), hunkRange(newStart, newCount))
	for _, op := range ops {
		sb.WriteByte(op.kind)
		sb.WriteString(op.text)
		if !strings.HasSuffix(op.text, "\n") {
			sb.WriteString("\n\\ No newline at end of file\n")
		}
	}
}

func hunkRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}
