package symbols

import "fmt"

// ScopeID identifies a declaration context in the table.
type ScopeID uint32

const (
	// NoScopeID marks the absence of a scope reference.
	NoScopeID ScopeID = 0
)

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

func (id ScopeID) String() string { return fmt.Sprintf("scope#%d", uint32(id)) }

// SymbolID identifies a declared entity.
type SymbolID uint32

const (
	// NoSymbolID marks the absence of a symbol reference.
	NoSymbolID SymbolID = 0
)

// IsValid reports whether the symbol ID refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }

func (id SymbolID) String() string { return fmt.Sprintf("sym#%d", uint32(id)) }
