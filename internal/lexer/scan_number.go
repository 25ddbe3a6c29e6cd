package lexer

import (
	"cxxtweak/internal/token"
)

// scanNumber scans a pp-number: digit or .digit followed by identifier
// characters, dots, digit separators and signed exponents.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for {
		b := lx.cursor.Peek()
		switch {
		case (b == 'e' || b == 'E' || b == 'p' || b == 'P') &&
			(lx.cursor.PeekAt(1) == '+' || lx.cursor.PeekAt(1) == '-'):
			lx.cursor.Bump()
			lx.cursor.Bump()
		case b == '\'' && isIdentContinueByte(lx.cursor.PeekAt(1)):
			lx.cursor.Bump()
			lx.cursor.Bump()
		case isIdentContinueByte(b) || b == '.':
			lx.cursor.Bump()
		default:
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.Number, Span: sp, Text: lx.text(sp)}
		}
	}
}
