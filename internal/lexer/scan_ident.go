package lexer

import (
	"cxxtweak/internal/diag"
	"cxxtweak/internal/token"
)

// encoding prefixes that may glue onto a following literal
var stringPrefixes = map[string]bool{
	"L": true, "u": true, "U": true, "u8": true,
	"R": true, "LR": true, "uR": true, "UR": true, "u8R": true,
}

// scanIdentOrLiteral scans an identifier; L"..", u8R"(..)" and friends
// continue into the literal.
func (lx *Lexer) scanIdentOrLiteral() token.Token {
	start := lx.cursor.Mark()
	r, sz := lx.peekRune()
	if r >= utf8RuneSelf && !isIdentStartRune(r) {
		lx.cursor.Off += uint32(sz) // #nosec G115
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownChar, sp, "unexpected character")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	for {
		r, sz := lx.peekRune()
		if sz == 0 {
			break
		}
		if r < utf8RuneSelf {
			if !isIdentContinueByte(byte(r)) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		if !isIdentContinueRune(r) {
			break
		}
		lx.bumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	if stringPrefixes[text] {
		switch q := lx.cursor.Peek(); {
		case q == '"' && text[len(text)-1] == 'R':
			return lx.scanRawString(start)
		case q == '"':
			return lx.scanQuoted('"', token.String, start)
		case q == '\'' && text[len(text)-1] != 'R':
			return lx.scanQuoted('\'', token.Char, start)
		}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}
