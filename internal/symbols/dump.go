package symbols

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Dump prints the scope tree with the names stored in each primary scope.
func (t *Table) Dump(w io.Writer) error {
	var err error
	var rec func(id ScopeID, depth int)
	rec = func(id ScopeID, depth int) {
		if err != nil {
			return
		}
		s := t.Scopes.Get(id)
		indent := strings.Repeat("  ", depth)
		head := fmt.Sprintf("%s%s %s", indent, id, s.Kind)
		if s.Symbol.IsValid() && s.Symbol != t.Global {
			head += fmt.Sprintf(" %q", t.QualifiedName(s.Symbol))
		}
		if s.Primary != id {
			head += fmt.Sprintf(" (reopens %s)", s.Primary)
		}
		if _, err = fmt.Fprintln(w, head); err != nil {
			return
		}
		lines := make([]string, 0, len(s.Symbols))
		for _, symID := range s.Symbols {
			sym := t.Symbols.Get(symID)
			line := fmt.Sprintf("%s  - %s %s", indent, sym.Kind, t.Name(symID))
			if flags := sym.Flags.Strings(); len(flags) > 0 {
				line += " [" + strings.Join(flags, ",") + "]"
			}
			for _, target := range sym.Targets {
				line += " -> " + t.QualifiedName(target)
			}
			lines = append(lines, line)
		}
		sort.Strings(lines)
		for _, d := range s.Directives {
			lines = append(lines, fmt.Sprintf("%s  using namespace %s", indent, t.QualifiedName(d)))
		}
		for _, line := range lines {
			if _, err = fmt.Fprintln(w, line); err != nil {
				return
			}
		}
		for _, c := range s.Children {
			rec(c, depth+1)
		}
	}
	rec(t.Root, 0)
	return err
}
