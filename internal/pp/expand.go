package pp

import (
	"strings"

	"cxxtweak/internal/diag"
	"cxxtweak/internal/lexer"
	"cxxtweak/internal/source"
	"cxxtweak/internal/token"
)

// ppToken is a token in flight through the expander.
type ppToken struct {
	Kind     token.Kind
	Flags    token.Flags
	Text     string
	Loc      Loc
	noExpand bool // встретился внутри собственного раскрытия
	marker   bool // placemarker для пустого аргумента рядом с ##
}

type frame struct {
	toks    []ppToken
	pos     int
	macro   *Macro      // выключен, пока фрейм на стеке
	exp     ExpansionID // для barrier: раскрытие, чей аргумент пред-раскрываем
	barrier bool        // пред-раскрытие аргумента: дальше не читаем
}

type engine struct {
	file     *source.File
	opts     Options
	raw      []token.Token
	rawPos   int
	macros   map[string]*Macro
	stack    []*frame
	pushback []ppToken
	disabled map[*Macro]int
	exps     []Expansion // exps[0] - заглушка для NoExpansion
}

func fileToken(t token.Token) ppToken {
	return ppToken{
		Kind:  t.Kind,
		Flags: t.Flags,
		Text:  t.Text,
		Loc:   Loc{Kind: LocFile, Off: t.Span.Start, End: t.Span.End},
	}
}

// read returns the next token: pushed-back, from the innermost macro frame,
// or from the file. ok is false at end of file or at an argument barrier.
func (e *engine) read() (ppToken, bool) {
	if n := len(e.pushback); n > 0 {
		t := e.pushback[n-1]
		e.pushback = e.pushback[:n-1]
		return t, true
	}
	for len(e.stack) > 0 {
		f := e.stack[len(e.stack)-1]
		if f.pos < len(f.toks) {
			t := f.toks[f.pos]
			f.pos++
			return t, true
		}
		if f.barrier {
			return ppToken{}, false
		}
		e.pop()
	}
	for e.rawPos < len(e.raw) {
		t := e.raw[e.rawPos]
		if t.Kind == token.EOF {
			return ppToken{}, false
		}
		if t.Kind == token.Hash && t.AtLineStart() {
			e.directive()
			continue
		}
		e.rawPos++
		return fileToken(t), true
	}
	return ppToken{}, false
}

func (e *engine) unread(toks ...ppToken) {
	for i := len(toks) - 1; i >= 0; i-- {
		e.pushback = append(e.pushback, toks[i])
	}
}

func (e *engine) push(f *frame) {
	if f.macro != nil {
		e.disabled[f.macro]++
	}
	e.stack = append(e.stack, f)
}

func (e *engine) pop() {
	f := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	if f.macro != nil {
		e.disabled[f.macro]--
	}
}

// handle expands t if it names an enabled macro, otherwise emits it.
func (e *engine) handle(t ppToken, emit func(ppToken)) {
	if t.Kind != token.Ident || t.noExpand {
		emit(t)
		return
	}
	m, ok := e.macros[t.Text]
	if !ok {
		emit(t)
		return
	}
	if e.disabled[m] > 0 {
		t.noExpand = true
		emit(t)
		return
	}
	if !m.FunctionLike {
		exp := e.newExpansion(m, t, t)
		e.pushExpansion(m, exp, t, e.substitute(m, exp, nil))
		return
	}

	next, ok := e.read()
	if !ok {
		emit(t)
		return
	}
	if next.Kind != token.LParen {
		e.unread(next)
		emit(t)
		return
	}
	args, consumed, ok := e.collectArgs(m, t, next)
	if !ok {
		emit(t)
		e.unread(consumed...)
		return
	}
	exp := e.newExpansion(m, t, consumed[len(consumed)-1])
	e.pushExpansion(m, exp, t, e.substitute(m, exp, args))
}

func (e *engine) pushExpansion(m *Macro, exp ExpansionID, name ppToken, toks []ppToken) {
	if len(toks) > 0 {
		toks[0].Flags = name.Flags
	}
	e.push(&frame{toks: toks, macro: m, exp: exp})
}

// newExpansion records an invocation from name to last (the ')' or the name itself).
func (e *engine) newExpansion(m *Macro, name, last ppToken) ExpansionID {
	parent := name.Loc.Expansion
	if parent == NoExpansion {
		parent = e.barrierExpansion()
	}
	id := ExpansionID(len(e.exps)) // #nosec G115 -- bounded by token count
	x := Expansion{ID: id, Macro: m.Name, Parent: parent, Name: name.Loc, First: -1, Last: -1}
	if parent == NoExpansion {
		x.Span = source.Span{File: e.file.ID, Start: name.Loc.Off, End: last.Loc.End}
	} else if last.Loc.Kind == LocFile {
		// имя пришло из макроса, а аргументы дочитаны из файла:
		// внешнее раскрытие покрывает и их
		top := &e.exps[e.outermost(parent)]
		if last.Loc.End > top.Span.End {
			top.Span.End = last.Loc.End
		}
	}
	e.exps = append(e.exps, x)
	return id
}

func (e *engine) outermost(id ExpansionID) ExpansionID {
	for e.exps[id].Parent != NoExpansion {
		id = e.exps[id].Parent
	}
	return id
}

func (e *engine) barrierExpansion() ExpansionID {
	for i := len(e.stack) - 1; i >= 0; i-- {
		if e.stack[i].barrier {
			return e.stack[i].exp
		}
	}
	return NoExpansion
}

// collectArgs reads a parenthesised argument list after lparen.
// consumed holds every token read (for pushing back on failure); its last
// element is the closing ')'.
func (e *engine) collectArgs(m *Macro, name, lparen ppToken) (args [][]ppToken, consumed []ppToken, ok bool) {
	consumed = []ppToken{lparen}
	depth := 0
	cur := []ppToken{}
	for {
		t, more := e.read()
		if !more {
			diag.ReportError(e.opts.Reporter, diag.PPUnterminatedArgs, e.spanOf(name),
				"unterminated argument list invoking macro "+m.Name).Emit()
			return nil, consumed, false
		}
		consumed = append(consumed, t)
		switch t.Kind {
		case token.LParen:
			depth++
		case token.RParen:
			if depth == 0 {
				args = append(args, cur)
				return e.checkArgCount(m, name, args, consumed)
			}
			depth--
		case token.Comma:
			if depth == 0 && !(m.Variadic && len(args) == len(m.Params)-1) {
				args = append(args, cur)
				cur = []ppToken{}
				continue
			}
		}
		cur = append(cur, t)
	}
}

func (e *engine) checkArgCount(m *Macro, name ppToken, args [][]ppToken, consumed []ppToken) ([][]ppToken, []ppToken, bool) {
	switch {
	case len(m.Params) == 0 && len(args) == 1 && len(args[0]) == 0:
		return nil, consumed, true
	case len(args) == len(m.Params):
		return args, consumed, true
	case m.Variadic && len(args) == len(m.Params)-1:
		return append(args, []ppToken{}), consumed, true
	}
	diag.ReportError(e.opts.Reporter, diag.PPArgCountMismatch, e.spanOf(name),
		"wrong number of arguments for macro "+m.Name).Emit()
	return nil, consumed, false
}

func (e *engine) spanOf(t ppToken) source.Span {
	return source.Span{File: e.file.ID, Start: t.Loc.Off, End: t.Loc.End}
}

// preExpand fully macro-replaces one argument, never reading past it.
func (e *engine) preExpand(arg []ppToken, exp ExpansionID) []ppToken {
	saved := e.pushback
	e.pushback = nil
	e.push(&frame{toks: arg, barrier: true, exp: exp})
	depth := len(e.stack)
	var out []ppToken
	for {
		t, ok := e.read()
		if !ok {
			break
		}
		e.handle(t, func(t ppToken) { out = append(out, t) })
	}
	e.stack = e.stack[:depth-1]
	e.pushback = saved
	return out
}

// substitute builds the replacement list of one expansion.
func (e *engine) substitute(m *Macro, exp ExpansionID, args [][]ppToken) []ppToken {
	body := m.Body
	var pieces [][]ppToken
	expanded := make(map[int][]ppToken)

	for i := 0; i < len(body); i++ {
		bt := body[i]
		if bt.Kind == token.HashHash {
			pieces = append(pieces, nil)
			continue
		}
		if m.FunctionLike && bt.Kind == token.Hash && i+1 < len(body) {
			if p := m.paramIndex(body[i+1].Text); p >= 0 {
				str := e.stringify(args[p], bt, body[i+1], exp)
				pieces = append(pieces, []ppToken{str})
				i++
				continue
			}
		}
		if p := m.paramIndex(bt.Text); p >= 0 && bt.Kind == token.Ident {
			nextToPaste := (i > 0 && body[i-1].Kind == token.HashHash) ||
				(i+1 < len(body) && body[i+1].Kind == token.HashHash)
			var toks []ppToken
			if nextToPaste {
				toks = args[p]
				if len(toks) == 0 {
					toks = []ppToken{{marker: true, Loc: bodyLoc(bt, exp)}}
				}
			} else {
				if _, done := expanded[p]; !done {
					expanded[p] = e.preExpand(args[p], exp)
				}
				toks = expanded[p]
			}
			pieces = append(pieces, retagArg(toks, exp, p, bt.Flags))
			continue
		}
		pieces = append(pieces, []ppToken{{
			Kind:  bt.Kind,
			Flags: bt.Flags &^ token.FlagLineStart,
			Text:  bt.Text,
			Loc:   bodyLoc(bt, exp),
		}})
	}
	return e.paste(pieces, body, exp)
}

// paste joins pieces; a nil piece stands for a ## operator.
func (e *engine) paste(pieces [][]ppToken, body []token.Token, exp ExpansionID) []ppToken {
	var out []ppToken
	pending := false
	opIdx := 0
	for _, piece := range pieces {
		if piece == nil {
			pending = true
			for opIdx < len(body) && body[opIdx].Kind != token.HashHash {
				opIdx++
			}
			opIdx++
			continue
		}
		if pending && len(out) > 0 && len(piece) > 0 {
			op := body[opIdx-1]
			lhs := out[len(out)-1]
			out = out[:len(out)-1]
			out = append(out, e.pasteTokens(lhs, piece[0], op, exp)...)
			piece = piece[1:]
		}
		pending = false
		out = append(out, piece...)
	}
	res := out[:0]
	for _, t := range out {
		if !t.marker {
			res = append(res, t)
		}
	}
	return res
}

func (e *engine) pasteTokens(lhs, rhs ppToken, op token.Token, exp ExpansionID) []ppToken {
	switch {
	case lhs.marker:
		return []ppToken{rhs}
	case rhs.marker:
		return []ppToken{lhs}
	}
	text := lhs.Text + rhs.Text
	toks := lexer.LexString(text)
	if len(toks) != 1 || toks[0].Text != text {
		diag.ReportWarning(e.opts.Reporter, diag.PPBadPaste, op.Span,
			"pasting \""+lhs.Text+"\" and \""+rhs.Text+"\" does not give a valid preprocessing token").Emit()
		return []ppToken{lhs, rhs}
	}
	return []ppToken{{
		Kind:  toks[0].Kind,
		Flags: lhs.Flags,
		Text:  text,
		Loc:   bodyLoc(op, exp),
	}}
}

func (e *engine) stringify(arg []ppToken, hash, param token.Token, exp ExpansionID) ppToken {
	var sb strings.Builder
	sb.WriteByte('"')
	for i, t := range arg {
		if i > 0 && t.Flags&(token.FlagSpaceBefore|token.FlagLineStart) != 0 {
			sb.WriteByte(' ')
		}
		if t.Kind == token.String || t.Kind == token.Char {
			sb.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(t.Text))
			continue
		}
		sb.WriteString(t.Text)
	}
	sb.WriteByte('"')
	return ppToken{
		Kind:  token.String,
		Flags: hash.Flags &^ token.FlagLineStart,
		Text:  sb.String(),
		Loc:   Loc{Kind: LocMacroBody, Off: hash.Span.Start, End: param.Span.End, Expansion: exp},
	}
}

func bodyLoc(t token.Token, exp ExpansionID) Loc {
	return Loc{Kind: LocMacroBody, Off: t.Span.Start, End: t.Span.End, Expansion: exp}
}

// retagArg marks argument tokens written in the file as belonging to
// argument p of exp. Tokens produced by macro bodies keep their origin.
func retagArg(toks []ppToken, exp ExpansionID, p int, flags token.Flags) []ppToken {
	out := make([]ppToken, len(toks))
	for i, t := range toks {
		if !t.marker && t.Loc.Kind != LocMacroBody {
			t.Loc = Loc{Kind: LocMacroArg, Off: t.Loc.Off, End: t.Loc.End, Expansion: exp, Arg: p}
		}
		t.Flags &^= token.FlagLineStart
		if i == 0 {
			t.Flags = t.Flags&^token.FlagSpaceBefore | flags&token.FlagSpaceBefore
		}
		out[i] = t
	}
	return out
}
