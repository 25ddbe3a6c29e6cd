package tweak

import (
	"fmt"
	"strings"
)

// DumpNodeID is the ID of the DumpNode tweak.
const DumpNodeID = "dump-node"

// DumpNode shows the syntax subtree under the cursor together with the
// declaration context and symbol it resolves to. It is hidden: clients
// only offer it when asked for by ID.
type DumpNode struct{}

func init() {
	Register(func() Tweak { return &DumpNode{} })
}

func (*DumpNode) ID() string     { return DumpNodeID }
func (*DumpNode) Title() string  { return "Dump syntax node" }
func (*DumpNode) Intent() Intent { return IntentInfo }
func (*DumpNode) Hidden() bool   { return true }

func (*DumpNode) Prepare(sel *Selection) bool {
	return sel.Tree != nil && sel.Node.IsValid()
}

func (*DumpNode) Apply(sel *Selection) (Effect, error) {
	var sb strings.Builder
	if err := sel.Tree.DumpNode(&sb, sel.Node); err != nil {
		return Effect{}, err
	}
	if res := sel.Symbols; res != nil {
		fmt.Fprintf(&sb, "context: %s\n", res.Table.Scopes.Get(sel.Context()).Kind)
		if sym := res.Symbol(sel.Node); sym.IsValid() {
			fmt.Fprintf(&sb, "symbol: %s (%s)\n", res.Table.QualifiedName(sym), res.Table.Symbols.Get(sym).Kind)
		}
	}
	return ShowMessage(sb.String()), nil
}
