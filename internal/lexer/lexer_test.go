package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"cxxtweak/internal/diag"
	"cxxtweak/internal/lexer"
	"cxxtweak/internal/source"
	"cxxtweak/internal/token"
)

func lex(t *testing.T, input string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.cpp", []byte(input)))
	bag := diag.NewBag(16)
	toks := lexer.Tokenize(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return toks[:len(toks)-1], bag
}

func render(toks []token.Token) string {
	parts := make([]string, len(toks))
	for i, tok := range toks {
		parts[i] = fmt.Sprintf("%v(%s)", tok.Kind, tok.Text)
	}
	return strings.Join(parts, " ")
}

func TestTokenKinds(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a::b::f();", "Ident(a) ColonColon(::) Ident(b) ColonColon(::) Ident(f) LParen(() RParen()) Semicolon(;)"},
		{"namespace x{}", "Ident(namespace) Ident(x) LBrace({) RBrace(})"},
		{"#define M(x) x##y #x", "Hash(#) Ident(define) Ident(M) LParen(() Ident(x) RParen()) Ident(x) HashHash(##) Ident(y) Hash(#) Ident(x)"},
		{"1.5e+10f 0x1'000 .5", "Number(1.5e+10f) Number(0x1'000) Number(.5)"},
		{`L"w" u8"s" 'c' R"d(a")b)d"`, `String(L"w") String(u8"s") Char('c') String(R"d(a")b)d")`},
		{"a->b <=> c ... >>=", "Ident(a) Punct(->) Ident(b) Punct(<=>) Ident(c) Ellipsis(...) Punct(>>=)"},
		{"x/*c*/y//z\nw", "Ident(x) Ident(y) Ident(w)"},
		{"f(a,b)", "Ident(f) LParen(() Ident(a) Comma(,) Ident(b) RParen())"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, bag := lex(t, tt.input)
			if got := render(toks); got != tt.want {
				t.Errorf("tokens:\n got %s\nwant %s", got, tt.want)
			}
			if bag.HasErrors() {
				t.Errorf("unexpected diagnostics: %v", bag.Items())
			}
		})
	}
}

func TestLineStartAndSplice(t *testing.T) {
	toks, _ := lex(t, "#define A \\\n  1\nint")
	var starts []string
	for _, tok := range toks {
		if tok.AtLineStart() {
			starts = append(starts, tok.Text)
		}
	}
	if got := strings.Join(starts, ","); got != "#,int" {
		t.Errorf("line starts = %q, want \"#,int\"", got)
	}
	if toks[1].SpaceBefore() || !toks[2].SpaceBefore() {
		t.Errorf("space flags wrong: %v %v", toks[1].Flags, toks[2].Flags)
	}
}

func TestSpansMatchText(t *testing.T) {
	input := "namespace  a { /* x */ using ns::y; }"
	toks, _ := lex(t, input)
	for _, tok := range toks {
		if got := input[tok.Span.Start:tok.Span.End]; got != tok.Text {
			t.Errorf("span %v covers %q, text %q", tok.Span, got, tok.Text)
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diag.Code
	}{
		{`"abc`, diag.LexUnterminatedString},
		{"'a\n", diag.LexUnterminatedChar},
		{"/* open", diag.LexUnterminatedBlockComment},
		{"`", diag.LexUnknownChar},
	}
	for _, tt := range tests {
		_, bag := lex(t, tt.input)
		if bag.Len() == 0 || bag.Items()[0].Code != tt.code {
			t.Errorf("%q: diagnostics %v, want %v", tt.input, bag.Items(), tt.code)
		}
	}
}

func TestLexString(t *testing.T) {
	toks := lexer.LexString("ab##")
	if len(toks) != 2 || toks[0].Text != "ab" || toks[1].Kind != token.HashHash {
		t.Errorf("LexString = %s", render(toks))
	}
}
