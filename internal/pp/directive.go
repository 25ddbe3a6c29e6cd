package pp

import (
	"fmt"

	"cxxtweak/internal/diag"
	"cxxtweak/internal/token"
)

// directive consumes one `#...` line starting at e.rawPos.
func (e *engine) directive() {
	hash := e.raw[e.rawPos]
	e.rawPos++
	line := e.restOfLine()
	if len(line) == 0 {
		return // null directive
	}
	name := line[0]
	args := line[1:]
	switch name.Text {
	case "define":
		e.define(hash, args)
	case "undef":
		if len(args) == 0 || args[0].Kind != token.Ident {
			e.report(diag.PPMalformedDirective, name, "macro name missing in #undef")
			return
		}
		delete(e.macros, args[0].Text)
	case "include", "include_next", "import":
		diag.ReportInfo(e.opts.Reporter, diag.PPIgnoredDirective, hash.Span.Cover(name.Span),
			fmt.Sprintf("#%s is not followed; included declarations are unknown", name.Text)).Emit()
	case "if", "ifdef", "ifndef", "elif", "elifdef", "elifndef", "else", "endif",
		"pragma", "error", "warning", "line", "ident", "sccs":
		// все ветки условной компиляции остаются в потоке
	default:
		if name.Kind != token.Number { // "# 12 file.c" - linemarker
			e.report(diag.PPMalformedDirective, name, fmt.Sprintf("unknown directive #%s", name.Text))
		}
	}
}

func (e *engine) restOfLine() []token.Token {
	start := e.rawPos
	for e.rawPos < len(e.raw) {
		t := e.raw[e.rawPos]
		if t.Kind == token.EOF || t.AtLineStart() {
			break
		}
		e.rawPos++
	}
	return e.raw[start:e.rawPos]
}

func (e *engine) define(hash token.Token, line []token.Token) {
	if len(line) == 0 || line[0].Kind != token.Ident {
		e.report(diag.PPMalformedDirective, hash, "macro name missing in #define")
		return
	}
	m := &Macro{Name: line[0].Text, Def: hash.Span.Cover(line[len(line)-1].Span)}
	rest := line[1:]

	if len(rest) > 0 && rest[0].Kind == token.LParen && !rest[0].SpaceBefore() {
		m.FunctionLike = true
		i, ok := e.parseParams(m, rest)
		if !ok {
			return
		}
		rest = rest[i:]
	}
	m.Body = rest

	for i, t := range m.Body {
		if m.FunctionLike && t.Kind == token.Hash {
			if i+1 >= len(m.Body) || m.paramIndex(m.Body[i+1].Text) < 0 {
				e.report(diag.PPBadStringify, t, "'#' is not followed by a macro parameter")
				return
			}
		}
		if t.Kind == token.HashHash && (i == 0 || i == len(m.Body)-1) {
			e.report(diag.PPBadPaste, t, "'##' cannot appear at either end of a macro expansion")
			return
		}
	}

	if old, ok := e.macros[m.Name]; ok && !old.sameDefinition(m) {
		diag.ReportWarning(e.opts.Reporter, diag.PPMacroRedefined, line[0].Span, fmt.Sprintf("%q macro redefined", m.Name)).
			WithNote(old.Def, "previous definition is here").
			Emit()
	}
	e.macros[m.Name] = m
}

// parseParams reads `(a, b, ...)` and returns how many tokens it used.
func (e *engine) parseParams(m *Macro, toks []token.Token) (int, bool) {
	i := 1
	expectParam := true
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.Kind == token.RParen && (!expectParam || len(m.Params) == 0):
			return i + 1, true
		case expectParam && t.Kind == token.Ident:
			m.Params = append(m.Params, t.Text)
			if i+1 < len(toks) && toks[i+1].Kind == token.Ellipsis { // GNU: args...
				m.Variadic = true
				i++
			}
			expectParam = false
		case expectParam && t.Kind == token.Ellipsis:
			m.Params = append(m.Params, vaArgs)
			m.Variadic = true
			expectParam = false
		case !expectParam && t.Kind == token.Comma && !m.Variadic:
			expectParam = true
		default:
			e.report(diag.PPMalformedDirective, t, "invalid token in macro parameter list")
			return i, false
		}
		i++
	}
	e.report(diag.PPMalformedDirective, toks[0], "missing ')' in macro parameter list")
	return i, false
}

func (e *engine) report(code diag.Code, at token.Token, msg string) {
	diag.ReportError(e.opts.Reporter, code, at.Span, msg).Emit()
}
