package lexer

import (
	"cxxtweak/internal/source"
	"cxxtweak/internal/token"
)

// Lexer produces preprocessing tokens for one file.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token
	hold   []token.Trivia
	atBOL  bool
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
		atBOL:  true,
	}
}

// Next returns the next significant token with its Leading trivia attached.
// After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()
	flags := lx.flags()

	if lx.cursor.EOF() {
		return token.Token{
			Kind:    token.EOF,
			Flags:   flags | token.FlagLineStart,
			Span:    source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off},
			Leading: lx.takeHold(),
		}
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		tok = lx.scanIdentOrLiteral()
	case isDec(ch), ch == '.' && isDec(lx.cursor.PeekAt(1)):
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanQuoted('"', token.String, lx.cursor.Mark())
	case ch == '\'':
		tok = lx.scanQuoted('\'', token.Char, lx.cursor.Mark())
	default:
		tok = lx.scanOperatorOrPunct()
	}

	tok.Flags = flags
	tok.Leading = lx.takeHold()
	lx.atBOL = false
	return tok
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

func (lx *Lexer) flags() token.Flags {
	var f token.Flags
	if lx.atBOL {
		f |= token.FlagLineStart
	}
	if len(lx.hold) > 0 {
		f |= token.FlagSpaceBefore
	}
	return f
}

func (lx *Lexer) takeHold() []token.Trivia {
	if len(lx.hold) == 0 {
		return nil
	}
	out := lx.hold
	lx.hold = nil
	return out
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

// Tokenize lexes the whole file; the final token is always EOF.
func Tokenize(file *source.File, opts Options) []token.Token {
	lx := New(file, opts)
	var out []token.Token
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// LexString lexes text that has no file of its own, such as the result of
// a token paste. Spans refer to offsets inside text.
func LexString(text string) []token.Token {
	f := &source.File{Content: []byte(text), LineStarts: []uint32{0}}
	toks := Tokenize(f, Options{})
	return toks[:len(toks)-1]
}
