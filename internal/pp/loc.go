package pp

import (
	"fmt"

	"cxxtweak/internal/source"
)

// LocKind says where an expanded token was spelled.
type LocKind uint8

const (
	LocFile      LocKind = iota // written directly in the file
	LocMacroArg                 // written in the file as part of a macro argument
	LocMacroBody                // produced by a macro body (incl. # and ##)
)

func (k LocKind) String() string {
	switch k {
	case LocFile:
		return "file"
	case LocMacroArg:
		return "arg"
	case LocMacroBody:
		return "body"
	}
	return "?"
}

// ExpansionID indexes Buffer.Expansions; 0 means "not from a macro".
type ExpansionID uint32

const NoExpansion ExpansionID = 0

// Loc is the origin of one expanded token.
// Off/End is the spelled byte range in the file: the token itself for
// file and argument tokens, the definition token for body tokens.
type Loc struct {
	Kind      LocKind
	Off       uint32
	End       uint32
	Expansion ExpansionID
	Arg       int
}

func (l Loc) String() string {
	if l.Kind == LocFile {
		return fmt.Sprintf("file@%d-%d", l.Off, l.End)
	}
	return fmt.Sprintf("%s@%d-%d(exp %d arg %d)", l.Kind, l.Off, l.End, l.Expansion, l.Arg)
}

// IsMacro reports whether the token came out of any macro expansion.
func (l Loc) IsMacro() bool { return l.Kind != LocFile }

// Written identifies the text buffer a location is written in. Two
// locations in the same file, or in the same argument of the same
// expansion, compare equal; every macro body expansion is its own buffer.
type Written struct {
	Kind      LocKind
	Expansion ExpansionID
	Arg       int
}

// WrittenIn returns the buffer l is written in.
func (l Loc) WrittenIn() Written {
	switch l.Kind {
	case LocMacroArg:
		return Written{Kind: LocMacroArg, Expansion: l.Expansion, Arg: l.Arg}
	case LocMacroBody:
		return Written{Kind: LocMacroBody, Expansion: l.Expansion, Arg: -1}
	}
	return Written{Kind: LocFile}
}

// Expansion is one macro invocation.
type Expansion struct {
	ID     ExpansionID
	Macro  string
	Parent ExpansionID
	// Name is where the macro name token came from.
	Name Loc
	// Span is the file range of the invocation; only set on outermost
	// expansions (Parent == NoExpansion).
	Span source.Span
	// First/Last bracket the expanded tokens this expansion produced,
	// nested expansions included. First is -1 for empty expansions.
	First int
	Last  int
}
