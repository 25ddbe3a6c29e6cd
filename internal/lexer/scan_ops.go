package lexer

import (
	"cxxtweak/internal/diag"
	"cxxtweak/internal/token"
)

// Жадность: сначала трёхсимвольные, потом двухсимвольные.
var punctuators = []struct {
	text string
	kind token.Kind
}{
	{"...", token.Ellipsis},
	{"<=>", token.Punct},
	{"->*", token.Punct},
	{"<<=", token.Punct},
	{">>=", token.Punct},
	{"::", token.ColonColon},
	{"##", token.HashHash},
	{"->", token.Punct},
	{"++", token.Punct},
	{"--", token.Punct},
	{"<<", token.Punct},
	{">>", token.Punct},
	{"<=", token.Punct},
	{">=", token.Punct},
	{"==", token.Punct},
	{"!=", token.Punct},
	{"&&", token.Punct},
	{"||", token.Punct},
	{"+=", token.Punct},
	{"-=", token.Punct},
	{"*=", token.Punct},
	{"/=", token.Punct},
	{"%=", token.Punct},
	{"&=", token.Punct},
	{"|=", token.Punct},
	{"^=", token.Punct},
	{".*", token.Punct},
}

var singlePunct = map[byte]token.Kind{
	';': token.Semicolon,
	',': token.Comma,
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
	'#': token.Hash,
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	for _, p := range punctuators {
		if lx.cursor.EatString(p.text) {
			return emit(p.kind)
		}
	}

	ch := lx.cursor.Bump()
	if k, ok := singlePunct[ch]; ok {
		return emit(k)
	}
	switch ch {
	case '[', ']', '<', '>', '=', '+', '-', '*', '/', '%', '&', '|', '^',
		'!', '~', '?', ':', '.', '@':
		return emit(token.Punct)
	}
	tok := emit(token.Invalid)
	lx.errLex(diag.LexUnknownChar, tok.Span, "unexpected character")
	return tok
}
