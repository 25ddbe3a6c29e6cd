package token

import (
	"cxxtweak/internal/source"
)

// Flags describe the whitespace context of a token.
type Flags uint8

const (
	// FlagLineStart: first token on its logical line (directives start here).
	FlagLineStart Flags = 1 << iota
	// FlagSpaceBefore: whitespace or a comment separates it from the previous token.
	FlagSpaceBefore
)

// Token is a single preprocessing token with its leading trivia.
type Token struct {
	Kind    Kind
	Flags   Flags
	Span    source.Span
	Text    string
	Leading []Trivia
}

func (t Token) Is(k Kind) bool { return t.Kind == k }

// IsIdent reports whether the token is an identifier, optionally with the given spelling.
func (t Token) IsIdent(names ...string) bool {
	if t.Kind != Ident {
		return false
	}
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if t.Text == n {
			return true
		}
	}
	return false
}

func (t Token) AtLineStart() bool { return t.Flags&FlagLineStart != 0 }
func (t Token) SpaceBefore() bool { return t.Flags&FlagSpaceBefore != 0 }
