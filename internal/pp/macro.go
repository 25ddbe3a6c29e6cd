package pp

import (
	"slices"

	"cxxtweak/internal/source"
	"cxxtweak/internal/token"
)

const vaArgs = "__VA_ARGS__"

// Macro is a #define.
type Macro struct {
	Name         string
	FunctionLike bool
	Params       []string // для variadic последний параметр поглощает запятые
	Variadic     bool
	Body         []token.Token
	Def          source.Span
}

func (m *Macro) paramIndex(name string) int {
	if !m.FunctionLike {
		return -1
	}
	return slices.Index(m.Params, name)
}

// sameDefinition compares replacement lists the way redefinition checks do:
// same tokens, same whitespace separation.
func (m *Macro) sameDefinition(o *Macro) bool {
	if m.FunctionLike != o.FunctionLike || m.Variadic != o.Variadic ||
		!slices.Equal(m.Params, o.Params) || len(m.Body) != len(o.Body) {
		return false
	}
	for i := range m.Body {
		a, b := m.Body[i], o.Body[i]
		if a.Text != b.Text || (i > 0 && a.SpaceBefore() != b.SpaceBefore()) {
			return false
		}
	}
	return true
}
