package ast

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"cxxtweak/internal/diag"
	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
)

// Parse runs tree-sitter-cpp over the expanded text of buf and converts
// the result into a Tree. Syntax errors are reported, not returned: the
// tree is always usable.
func Parse(ctx context.Context, buf *pp.Buffer, rep diag.Reporter) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())

	src := []byte(buf.Text)
	ts, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", buf.File.Path, err)
	}

	c := &converter{b: NewBuilder(buf), buf: buf, src: src, rep: rep}
	c.children(ts.RootNode(), c.b.Root())
	return c.b.Finish(), nil
}

type converter struct {
	b   *Builder
	buf *pp.Buffer
	src []byte
	rep diag.Reporter
}

func (c *converter) visit(n *sitter.Node, parent NodeID) {
	if n == nil {
		return
	}
	if n.IsMissing() {
		c.missing(n)
		return
	}
	if n.Type() == "ERROR" {
		diag.ReportError(c.rep, diag.SynError, c.spanAt(n.StartByte()), "syntax error").Emit()
		c.generic(n, parent)
		return
	}
	if !n.IsNamed() {
		return
	}
	switch n.Type() {
	case "comment":
	case "namespace_definition":
		c.namespace(n, parent)
	case "namespace_alias_definition":
		c.namespaceAlias(n, parent)
	case "using_declaration":
		c.using(n, parent)
	case "alias_declaration":
		c.aliasDecl(n, parent)
	case "type_definition":
		c.typedef(n, parent)
	case "function_definition":
		c.functionDef(n, parent)
	case "declaration", "field_declaration":
		c.declaration(n, parent)
	case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
		c.parameter(n, parent)
	case "struct_specifier", "class_specifier", "union_specifier", "enum_specifier":
		c.record(n, parent)
	case "template_declaration":
		c.template(n, parent)
	case "compound_statement":
		c.block(n, parent)
	case "lambda_expression":
		c.lambda(n, parent)
	case "qualified_identifier":
		c.qualified(n, parent)
	case "type_identifier", "primitive_type", "sized_type_specifier", "template_type", "auto", "placeholder_type_specifier":
		c.typeRef(n, parent)
	default:
		c.generic(n, parent)
	}
}

func (c *converter) children(n *sitter.Node, parent NodeID) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c.visit(n.Child(i), parent)
	}
}

// node prepares a Node covering n. ok is false when n maps to no tokens.
func (c *converter) node(kind Kind, n *sitter.Node) (Node, bool) {
	first, last, ok := c.buf.TokensIn(n.StartByte(), n.EndByte())
	return Node{Kind: kind, First: first, Last: last, NameTok: -1, Syntax: n.Type()}, ok
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

func (c *converter) firstTok(n *sitter.Node) int {
	if first, _, ok := c.buf.TokensIn(n.StartByte(), n.EndByte()); ok {
		return first
	}
	return -1
}

func (c *converter) lastTok(n *sitter.Node) int {
	if _, last, ok := c.buf.TokensIn(n.StartByte(), n.EndByte()); ok {
		return last
	}
	return -1
}

func (c *converter) generic(n *sitter.Node, parent NodeID) NodeID {
	nd, ok := c.node(KindOther, n)
	if !ok {
		c.children(n, parent)
		return NoNodeID
	}
	id := c.b.Add(parent, nd)
	c.children(n, id)
	return id
}

func (c *converter) missing(n *sitter.Node) {
	diag.ReportError(c.rep, diag.SynMissing, c.spanAt(n.StartByte()),
		fmt.Sprintf("missing %s", n.Type())).Emit()
}

// spanAt maps an expanded offset to the file range of the token at or
// before it.
func (c *converter) spanAt(off uint32) source.Span {
	toks := c.buf.Tokens
	if len(toks) == 0 {
		return source.Span{File: c.buf.File.ID}
	}
	i := sort.Search(len(toks), func(i int) bool { return toks[i].Off > off }) - 1
	if i < 0 {
		i = 0
	}
	return c.buf.ExpansionSpan(toks[i].Loc)
}

func (c *converter) namespace(n *sitter.Node, parent NodeID) {
	base, ok := c.node(KindNamespace, n)
	if !ok {
		return
	}
	var names []*sitter.Node
	if name := n.ChildByFieldName("name"); name != nil {
		if name.Type() == "nested_namespace_specifier" {
			names = collect(name, "namespace_identifier", "identifier")
		} else {
			names = []*sitter.Node{name}
		}
	}
	body := n.ChildByFieldName("body")
	if body != nil {
		base.Flags |= FlagDefinition
	}

	cur := parent
	if len(names) == 0 {
		nd := base
		nd.Flags |= FlagAnonymous
		if hasChild(n, "inline") {
			nd.Flags |= FlagInline
		}
		cur = c.b.Add(cur, nd)
	}
	// namespace a::b { ... } -> два вложенных узла над одним телом
	for i, name := range names {
		nd := base
		nd.Name = c.text(name)
		nd.NameTok = c.firstTok(name)
		if i == len(names)-1 && hasChild(n, "inline") {
			nd.Flags |= FlagInline
		}
		cur = c.b.Add(cur, nd)
	}
	if body != nil {
		c.children(body, cur)
	}
}

func (c *converter) namespaceAlias(n *sitter.Node, parent NodeID) {
	nd, ok := c.node(KindNamespaceAlias, n)
	if !ok {
		return
	}
	name := n.ChildByFieldName("name")
	if name != nil {
		nd.Name = c.text(name)
		nd.NameTok = c.firstTok(name)
	}
	id := c.b.Add(parent, nd)

	var target *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if ch := n.NamedChild(i); !same(ch, name) && ch.Type() != "comment" {
			target = ch
		}
	}
	if target != nil {
		c.path(id, target)
	}
}

// path attaches a namespace path written as a whole (alias targets and
// using-directives) to owner; every component, the last included, becomes
// a segment.
func (c *converter) path(owner NodeID, target *sitter.Node) {
	var (
		global bool
		parts  []*sitter.Node
	)
	switch target.Type() {
	case "qualified_identifier":
		var name *sitter.Node
		global, parts, name = qualParts(target)
		if name != nil {
			parts = append(parts, name)
		}
	case "nested_namespace_specifier":
		global = c.startsWithColons(target)
		parts = collect(target, "namespace_identifier", "identifier")
	default:
		parts = []*sitter.Node{target}
	}
	segs := make([]Seg, 0, len(parts))
	for i, p := range parts {
		s := c.seg(p)
		if i == len(parts)-1 {
			s.Colon = c.lastTok(p)
		}
		segs = append(segs, s)
	}
	ids := c.b.Qualify(owner, global, c.firstTok(target), segs...)
	c.segmentArgs(ids, parts)
}

func (c *converter) startsWithColons(n *sitter.Node) bool {
	i := c.firstTok(n)
	return i >= 0 && c.buf.Tokens[i].Text == "::"
}

func (c *converter) seg(p *sitter.Node) Seg {
	s := Seg{NameTok: c.firstTok(p)}
	switch p.Type() {
	case "template_type", "template_function":
		s.Template = true
		if name := p.ChildByFieldName("name"); name != nil {
			s.Name = c.text(name)
		}
	case "namespace_identifier", "identifier", "type_identifier":
		s.Name = c.text(p)
	default:
		// decltype(...) и прочее: имени нет, сегмент не разрешится
		s.NameTok = -1
	}
	s.Colon = c.lastTok(p)
	if next := s.Colon + 1; s.Colon >= 0 && next < len(c.buf.Tokens) && c.buf.Tokens[next].Text == "::" {
		s.Colon = next
	}
	return s
}

// segmentArgs converts the template arguments of templated segments.
func (c *converter) segmentArgs(ids []NodeID, parts []*sitter.Node) {
	for i, p := range parts {
		if i >= len(ids) {
			break
		}
		if args := p.ChildByFieldName("arguments"); args != nil {
			c.visit(args, ids[i])
		}
	}
}

// qualify attaches the scope components of a qualified_identifier to owner.
func (c *converter) qualify(owner NodeID, q *sitter.Node, global bool, scopes []*sitter.Node) {
	segs := make([]Seg, 0, len(scopes))
	for _, s := range scopes {
		segs = append(segs, c.seg(s))
	}
	ids := c.b.Qualify(owner, global, c.firstTok(q), segs...)
	c.segmentArgs(ids, scopes)
}

// qualParts splits a qualified_identifier into its scope components and
// the final name. tree-sitter nests the chain to the right.
func qualParts(q *sitter.Node) (global bool, scopes []*sitter.Node, name *sitter.Node) {
	first := true
	for cur := q; cur != nil && cur.Type() == "qualified_identifier"; cur = name {
		scope := cur.ChildByFieldName("scope")
		switch {
		case scope != nil:
			scopes = append(scopes, scope)
		case first:
			global = true
		}
		first = false
		name = cur.ChildByFieldName("name")
	}
	return global, scopes, name
}

func (c *converter) baseName(name *sitter.Node) (string, int) {
	if name == nil {
		return "", -1
	}
	switch name.Type() {
	case "template_type", "template_function", "template_method":
		if inner := name.ChildByFieldName("name"); inner != nil {
			return c.text(inner), c.firstTok(inner)
		}
		return "", -1
	case "qualified_identifier":
		_, _, last := qualParts(name)
		return c.baseName(last)
	}
	return c.text(name), c.firstTok(name)
}

func (c *converter) qualified(n *sitter.Node, parent NodeID) {
	global, scopes, name := qualParts(n)
	kind := KindNameRef
	if name != nil && (name.Type() == "type_identifier" || name.Type() == "template_type") {
		kind = KindQualifiedType
	}
	nd, ok := c.node(kind, n)
	if !ok {
		return
	}
	nd.Name, nd.NameTok = c.baseName(name)
	if name != nil && (name.Type() == "template_type" || name.Type() == "template_function") {
		nd.Flags |= FlagTemplate
	}
	id := c.b.Add(parent, nd)
	c.qualify(id, n, global, scopes)
	if name == nil {
		return
	}
	if kind == KindQualifiedType {
		c.typeRef(name, id)
		return
	}
	if args := name.ChildByFieldName("arguments"); args != nil {
		c.visit(args, id)
	}
}

func (c *converter) typeRef(n *sitter.Node, parent NodeID) {
	nd, ok := c.node(KindTypeRef, n)
	if !ok {
		return
	}
	nd.Name, nd.NameTok = c.baseName(n)
	if n.Type() == "template_type" {
		nd.Flags |= FlagTemplate
	}
	id := c.b.Add(parent, nd)
	if args := n.ChildByFieldName("arguments"); args != nil {
		c.visit(args, id)
	}
}

func (c *converter) using(n *sitter.Node, parent NodeID) {
	if hasChild(n, "enum") {
		c.generic(n, parent)
		return
	}
	var target *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if ch := n.NamedChild(i); ch.Type() != "comment" {
			target = ch
		}
	}

	if hasChild(n, "namespace") {
		nd, ok := c.node(KindUsingDirective, n)
		if !ok {
			return
		}
		if target != nil {
			nd.Name, nd.NameTok = c.baseName(target)
		}
		id := c.b.Add(parent, nd)
		if target != nil {
			c.path(id, target)
		}
		return
	}

	nd, ok := c.node(KindUsingDecl, n)
	if !ok {
		return
	}
	if target == nil {
		c.b.Add(parent, nd)
		return
	}
	if target.Type() != "qualified_identifier" {
		nd.Name, nd.NameTok = c.text(target), c.firstTok(target)
		c.b.Add(parent, nd)
		return
	}
	global, scopes, name := qualParts(target)
	nd.Name, nd.NameTok = c.baseName(name)
	id := c.b.Add(parent, nd)
	c.qualify(id, target, global, scopes)
}

func (c *converter) aliasDecl(n *sitter.Node, parent NodeID) {
	nd, ok := c.node(KindTypeAlias, n)
	if !ok {
		return
	}
	name := n.ChildByFieldName("name")
	if name != nil {
		nd.Name, nd.NameTok = c.text(name), c.firstTok(name)
		nd.Names = []string{nd.Name}
	}
	id := c.b.Add(parent, nd)
	for i := 0; i < int(n.ChildCount()); i++ {
		if ch := n.Child(i); !same(ch, name) {
			c.visit(ch, id)
		}
	}
}

func (c *converter) typedef(n *sitter.Node, parent NodeID) {
	nd, ok := c.node(KindTypeAlias, n)
	if !ok {
		return
	}
	typ := n.ChildByFieldName("type")
	decls := c.declarators(n, typ)
	for _, d := range decls {
		if name := declaredName(d); name != nil {
			nd.Names = append(nd.Names, c.text(name))
		}
	}
	if len(nd.Names) > 0 {
		nd.Name = nd.Names[0]
	}
	id := c.b.Add(parent, nd)
	c.declChildren(n, id, decls)
}

func (c *converter) functionDef(n *sitter.Node, parent NodeID) {
	nd, ok := c.node(KindFunction, n)
	if !ok {
		return
	}
	nd.Flags |= FlagDefinition
	decl := n.ChildByFieldName("declarator")
	var name *sitter.Node
	if fd := functionDeclarator(decl); fd != nil {
		name = fd.ChildByFieldName("declarator")
	} else {
		name = declaredName(decl)
	}
	c.declareFunction(n, parent, nd, name, []*sitter.Node{decl})
}

func (c *converter) declareFunction(n *sitter.Node, parent NodeID, nd Node, name *sitter.Node, decls []*sitter.Node) {
	nd.Name, nd.NameTok = c.baseName(name)
	id := c.b.Add(parent, nd)
	if name != nil && name.Type() == "qualified_identifier" {
		global, scopes, _ := qualParts(name)
		c.qualify(id, name, global, scopes)
	}
	c.declChildren(n, id, decls)
}

// declChildren converts the children of a declaration. Declarators are
// walked without their declared name; everything else is visited.
func (c *converter) declChildren(n *sitter.Node, owner NodeID, decls []*sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		isDecl := false
		for _, d := range decls {
			if same(ch, d) {
				isDecl = true
				break
			}
		}
		if isDecl {
			c.declarator(ch, owner)
		} else {
			c.visit(ch, owner)
		}
	}
}

func (c *converter) declarator(d *sitter.Node, owner NodeID) {
	if d == nil || isName(d) {
		return
	}
	inner := d.ChildByFieldName("declarator")
	if inner == nil && (d.Type() == "reference_declarator" || d.Type() == "parenthesized_declarator") {
		inner = lastNamed(d)
	}
	for i := 0; i < int(d.ChildCount()); i++ {
		ch := d.Child(i)
		if same(ch, inner) {
			c.declarator(ch, owner)
		} else {
			c.visit(ch, owner)
		}
	}
}

var declaratorTypes = map[string]bool{
	"identifier":                    true,
	"field_identifier":              true,
	"qualified_identifier":          true,
	"operator_name":                 true,
	"destructor_name":               true,
	"template_function":             true,
	"type_identifier":               true,
	"init_declarator":               true,
	"function_declarator":           true,
	"pointer_declarator":            true,
	"reference_declarator":          true,
	"array_declarator":              true,
	"parenthesized_declarator":      true,
	"attributed_declarator":         true,
	"structured_binding_declarator": true,
	"operator_cast":                 true,
}

// declarators lists the declarator children of a declaration: named
// children after the type that look like declarators, up to a default
// member initializer.
func (c *converter) declarators(n, typ *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	seenType := typ == nil
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if same(ch, typ) {
			seenType = true
			continue
		}
		if !ch.IsNamed() {
			if ch.Type() == "=" || ch.Type() == "{" {
				break
			}
			continue
		}
		if seenType && declaratorTypes[ch.Type()] {
			out = append(out, ch)
		}
	}
	return out
}

func (c *converter) declaration(n *sitter.Node, parent NodeID) {
	typ := n.ChildByFieldName("type")
	decls := c.declarators(n, typ)
	if len(decls) == 0 {
		c.children(n, parent)
		return
	}
	if len(decls) == 1 {
		if fd := functionDeclarator(decls[0]); fd != nil {
			nd, ok := c.node(KindFunction, n)
			if !ok {
				return
			}
			c.declareFunction(n, parent, nd, fd.ChildByFieldName("declarator"), decls)
			return
		}
	}
	nd, ok := c.node(KindVar, n)
	if !ok {
		return
	}
	for _, d := range decls {
		if name := declaredName(d); name != nil {
			s, _ := c.baseName(name)
			nd.Names = append(nd.Names, s)
		}
	}
	if len(nd.Names) > 0 {
		nd.Name = nd.Names[0]
		nd.NameTok = c.firstTok(declaredName(decls[0]))
	}
	id := c.b.Add(parent, nd)
	c.declChildren(n, id, decls)
}

func (c *converter) parameter(n *sitter.Node, parent NodeID) {
	nd, ok := c.node(KindVar, n)
	if !ok {
		return
	}
	decl := n.ChildByFieldName("declarator")
	if name := declaredName(decl); name != nil {
		nd.Name, nd.NameTok = c.text(name), c.firstTok(name)
		nd.Names = []string{nd.Name}
	}
	id := c.b.Add(parent, nd)
	var decls []*sitter.Node
	if decl != nil {
		decls = append(decls, decl)
	}
	c.declChildren(n, id, decls)
}

func (c *converter) record(n *sitter.Node, parent NodeID) {
	name := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if body == nil {
		switch {
		case name == nil:
			c.generic(n, parent)
		case name.Type() == "qualified_identifier":
			// struct a::S x; -> обычный квалифицированный тип
			c.qualified(name, parent)
		default:
			nd, ok := c.node(KindRecord, n)
			if !ok {
				return
			}
			nd.Name, nd.NameTok = c.baseName(name)
			c.b.Add(parent, nd)
		}
		return
	}

	nd, ok := c.node(KindRecord, n)
	if !ok {
		return
	}
	nd.Flags |= FlagDefinition
	nd.Name, nd.NameTok = c.baseName(name)
	if name != nil && name.Type() == "template_type" {
		nd.Flags |= FlagTemplate
	}
	id := c.b.Add(parent, nd)
	if name != nil && name.Type() == "qualified_identifier" {
		global, scopes, _ := qualParts(name)
		c.qualify(id, name, global, scopes)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		switch ch := n.Child(i); {
		case same(ch, name):
		case same(ch, body):
			c.children(body, id)
		default:
			c.visit(ch, id)
		}
	}
}

func (c *converter) template(n *sitter.Node, parent NodeID) {
	id := c.generic(n, parent)
	if !id.IsValid() {
		return
	}
	for _, ch := range c.b.Node(id).Children {
		if k := c.b.Node(ch); k.Kind.IsDecl() {
			k.Flags |= FlagTemplate
		}
	}
}

func (c *converter) block(n *sitter.Node, parent NodeID) {
	nd, ok := c.node(KindBlock, n)
	if !ok {
		return
	}
	c.children(n, c.b.Add(parent, nd))
}

func (c *converter) lambda(n *sitter.Node, parent NodeID) {
	nd, ok := c.node(KindFunction, n)
	if !ok {
		return
	}
	nd.Flags |= FlagLambda | FlagAnonymous | FlagDefinition
	c.children(n, c.b.Add(parent, nd))
}

// functionDeclarator finds the function_declarator that declares a
// function (not a pointer to one) inside d.
func functionDeclarator(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			if inner := d.ChildByFieldName("declarator"); inner != nil && isName(inner) {
				return d
			}
			return nil
		case "pointer_declarator", "reference_declarator", "attributed_declarator":
			next := d.ChildByFieldName("declarator")
			if next == nil {
				next = lastNamed(d)
			}
			d = next
		default:
			return nil
		}
	}
	return nil
}

// declaredName digs the declared identifier out of a declarator.
func declaredName(d *sitter.Node) *sitter.Node {
	for d != nil {
		if isName(d) {
			return d
		}
		next := d.ChildByFieldName("declarator")
		if next == nil {
			next = lastNamed(d)
		}
		d = next
	}
	return nil
}

func isName(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier", "field_identifier", "qualified_identifier", "operator_name",
		"destructor_name", "template_function", "type_identifier":
		return true
	}
	return false
}

func lastNamed(n *sitter.Node) *sitter.Node {
	if k := int(n.NamedChildCount()); k > 0 {
		return n.NamedChild(k - 1)
	}
	return nil
}

func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

// collect returns the descendants of n with one of the given types, in
// source order.
func collect(n *sitter.Node, types ...string) []*sitter.Node {
	var out []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		for _, t := range types {
			if n.Type() == t {
				out = append(out, n)
				return
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(n)
	return out
}

func same(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
