package ast

type Flags uint16

const (
	FlagGlobal     Flags = 1 << iota // квалификатор начинается с "::"
	FlagInline                       // inline namespace
	FlagAnonymous                    // namespace {} / lambda
	FlagTemplate                     // template-id or templated declaration
	FlagDefinition                   // has a body
	FlagLambda
)

// Node is one syntax node. First and Last index pp.Buffer.Tokens and
// bound the expanded tokens the node covers.
type Node struct {
	Kind     Kind
	Flags    Flags
	Parent   NodeID
	Children []NodeID
	First    int
	Last     int

	// Name is the declared or referenced identifier: the namespace name,
	// the last component of a using-declaration, the base identifier of a
	// qualified type. Names holds every declarator of a Var/TypeAlias.
	Name    string
	NameTok int
	Names   []string

	// Qual is the rightmost qualifier segment written before Name.
	Qual NodeID

	// Syntax is the tree-sitter node type the node was built from.
	Syntax string
}

func (n *Node) Has(f Flags) bool { return n.Flags&f != 0 }

// Covers reports whether the node spans tokens [first, last].
func (n *Node) Covers(first, last int) bool {
	return n.First <= first && last <= n.Last
}
