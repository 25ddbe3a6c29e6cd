package tweak

import (
	"fmt"
	"strings"

	"cxxtweak/internal/fix"
)

// Apply deletes the qualifier and inserts the using-declaration.
func (a *AddUsing) Apply(sel *Selection) (Effect, error) {
	span := sel.Span()

	first, last, ok := sel.Tree.QualifierTokens(a.node)
	if !ok {
		panic(fmt.Sprintf("addusing: node %d has no qualifier after Prepare", a.node))
	}
	spelled, ok := sel.Buf.SpelledForExpanded(first, last)
	if !ok {
		return Effect{}, ErrQualifierSpan
	}

	var edits fix.Replacements
	expect := string(sel.File.Content[spelled.Start:spelled.End])
	if err := edits.Add(fix.Delete(spelled, expect)); err != nil {
		return Effect{}, err
	}

	point, err := findInsertionPoint(sel, a.ns, a.name)
	if err != nil {
		return Effect{}, err
	}
	if point.Valid {
		if int(point.Loc) > len(sel.File.Content) {
			panic(fmt.Sprintf("addusing: insertion point %d outside the main file", point.Loc))
		}
		var sb strings.Builder
		sb.WriteString(point.Prefix)
		sb.WriteString("using ")
		sb.WriteString(sel.Symbols.Table.QualifiedName(a.ns))
		sb.WriteString("::")
		sb.WriteString(a.name)
		sb.WriteString(";")
		sb.WriteString(point.Suffix)
		if err := edits.Add(fix.Insert(sel.FileID(), point.Loc, sb.String())); err != nil {
			return Effect{}, err
		}
	}
	span.Point("addusing.apply", fmt.Sprintf("%d edits", edits.Len()))
	return MainFileEdit(sel.FileID(), edits), nil
}
