package lexer

import (
	"cxxtweak/internal/diag"
	"cxxtweak/internal/token"
)

// scanQuoted scans "..." or '...' starting at the quote; start may point
// earlier when an encoding prefix was already consumed.
func (lx *Lexer) scanQuoted(quote byte, kind token.Kind, start Mark) token.Token {
	lx.cursor.Bump() // открывающая кавычка
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch b {
		case quote:
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
		case '\\':
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		case '\n':
			return lx.unterminated(kind, start)
		}
		lx.cursor.Bump()
	}
	return lx.unterminated(kind, start)
}

// scanRawString scans R"delim( ... )delim".
func (lx *Lexer) scanRawString(start Mark) token.Token {
	lx.cursor.Bump() // '"'
	delimStart := lx.cursor.Off
	for !lx.cursor.EOF() && lx.cursor.Peek() != '(' {
		if b := lx.cursor.Peek(); b == '"' || b == '\n' || b == ' ' {
			return lx.unterminated(token.String, start)
		}
		lx.cursor.Bump()
	}
	closing := ")" + string(lx.file.Content[delimStart:lx.cursor.Off]) + "\""
	for !lx.cursor.EOF() {
		if lx.cursor.EatString(closing) {
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.String, Span: sp, Text: lx.text(sp)}
		}
		lx.cursor.Bump()
	}
	return lx.unterminated(token.String, start)
}

func (lx *Lexer) unterminated(kind token.Kind, start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	if kind == token.Char {
		lx.errLex(diag.LexUnterminatedChar, sp, "unterminated character literal")
	} else {
		lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	}
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
