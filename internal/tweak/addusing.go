package tweak

import (
	"errors"
	"fmt"

	"cxxtweak/internal/ast"
	"cxxtweak/internal/symbols"
)

// AddUsingID is the ID of the AddUsing tweak.
const AddUsingID = "add-using"

var (
	// ErrQualifierSpan: the qualifier does not map to one contiguous range
	// of the main file.
	ErrQualifierSpan = errors.New("could not determine length of the qualifier")
	// ErrNamespaceBrace: the enclosing namespace has no opening brace.
	ErrNamespaceBrace = errors.New("namespace with no {")
	// ErrNoInsertionPoint: nothing in the file to anchor a using-declaration to.
	ErrNoInsertionPoint = errors.New("cannot find place to insert \"using\"")
)

// AddUsing removes the namespace qualifier under the cursor and adds a
// using-declaration for the name instead.
//
// Only qualifiers made of namespace names are handled. The declaration goes
// next to the last using-declaration that is visible at the cursor; without
// one, right after the opening brace of the innermost enclosing namespace;
// failing that, above the first top-level declaration. Only the occurrence
// under the cursor is rewritten.
type AddUsing struct {
	// node carries the qualifier; set by Prepare.
	node ast.NodeID
	// ns is the namespace the qualifier names, as written.
	ns   symbols.SymbolID
	name string
}

func init() {
	Register(func() Tweak { return &AddUsing{} })
}

func (*AddUsing) ID() string     { return AddUsingID }
func (*AddUsing) Intent() Intent { return IntentRefactor }
func (*AddUsing) Hidden() bool   { return false }

func (a *AddUsing) Title() string {
	return fmt.Sprintf("Add using-declaration for %s and remove qualifier.", a.name)
}
