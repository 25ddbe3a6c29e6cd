package lexer

import (
	"cxxtweak/internal/diag"
	"cxxtweak/internal/token"
)

// collectLeadingTrivia собирает подряд идущие trivia перед значимым токеном.
//   - ' ', '\t', '\v', '\f' коалесцируются в один TriviaSpace
//   - подряд идущие '\n' - один TriviaNewline
//   - "\\\n" - TriviaLineSplice, строку не завершает
//   - //... и /* ... */ - комментарии
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case isHorizontalSpace(b):
			for isHorizontalSpace(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, start)
			continue
		case b == '\n':
			for lx.cursor.Peek() == '\n' {
				lx.cursor.Bump()
			}
			lx.atBOL = true
			lx.pushTrivia(token.TriviaNewline, start)
			continue
		case b == '\\' && lx.cursor.PeekAt(1) == '\n':
			lx.cursor.Bump()
			lx.cursor.Bump()
			lx.pushTrivia(token.TriviaLineSplice, start)
			continue
		case b == '/' && lx.cursor.PeekAt(1) == '/':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				if lx.cursor.Peek() == '\\' && lx.cursor.PeekAt(1) == '\n' {
					lx.cursor.Bump()
				}
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaLineComment, start)
			continue
		case b == '/' && lx.cursor.PeekAt(1) == '*':
			lx.cursor.Bump()
			lx.cursor.Bump()
			closed := false
			for !lx.cursor.EOF() {
				if lx.cursor.EatString("*/") {
					closed = true
					break
				}
				lx.cursor.Bump()
			}
			sp := lx.cursor.SpanFrom(start)
			if !closed {
				lx.errLex(diag.LexUnterminatedBlockComment, sp, "unterminated block comment")
			}
			lx.pushTrivia(token.TriviaBlockComment, start)
			continue
		}
		break
	}
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: lx.text(sp)})
}

func isHorizontalSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\v' || b == '\f' || b == '\r'
}
