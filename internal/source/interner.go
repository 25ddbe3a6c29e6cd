package source

import (
	"golang.org/x/text/unicode/norm"
)

// StringID is an interned identifier; NoStringID is the empty string.
type StringID uint32

const NoStringID StringID = 0

// Interner maps identifier spellings to small integer keys.
// Spellings are NFC-normalised first so that UCN-free Unicode identifiers
// written in different normal forms intern to the same key.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern returns the key for s, allocating one on first sight.
func (i *Interner) Intern(s string) StringID {
	if !norm.NFC.IsNormalString(s) {
		s = norm.NFC.String(s)
	}
	if id, ok := i.index[s]; ok {
		return id
	}
	cpy := string([]byte(s))    // не держим исходный буфер
	id := StringID(len(i.byID)) // #nosec G115 -- identifier count stays far below 2^32
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup returns the spelling for id.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup panics on an unknown id.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

func (i *Interner) Len() int {
	return len(i.byID)
}
