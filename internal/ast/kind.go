package ast

// Kind tags a node. The refactoring passes switch on it instead of
// asking tree-sitter node types.
type Kind uint8

const (
	KindOther Kind = iota
	KindTranslationUnit
	KindNamespace
	KindNamespaceAlias
	KindRecord
	KindFunction
	KindVar
	KindTypeAlias
	KindBlock
	KindUsingDecl
	KindUsingDirective
	KindNameRef
	KindQualifiedType
	KindTypeRef
	KindQualifierSegment
)

var kindNames = [...]string{
	KindOther:            "Other",
	KindTranslationUnit:  "TranslationUnit",
	KindNamespace:        "Namespace",
	KindNamespaceAlias:   "NamespaceAlias",
	KindRecord:           "Record",
	KindFunction:         "Function",
	KindVar:              "Var",
	KindTypeAlias:        "TypeAlias",
	KindBlock:            "Block",
	KindUsingDecl:        "UsingDecl",
	KindUsingDirective:   "UsingDirective",
	KindNameRef:          "NameRef",
	KindQualifiedType:    "QualifiedType",
	KindTypeRef:          "TypeRef",
	KindQualifierSegment: "QualifierSegment",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsDecl reports whether nodes of this kind are declarations.
func (k Kind) IsDecl() bool {
	switch k {
	case KindTranslationUnit, KindNamespace, KindNamespaceAlias, KindRecord,
		KindFunction, KindVar, KindTypeAlias, KindUsingDecl, KindUsingDirective:
		return true
	}
	return false
}

// OpensContext reports whether a declaration of this kind is itself a
// declaration context.
func (k Kind) OpensContext() bool {
	switch k {
	case KindTranslationUnit, KindNamespace, KindRecord, KindFunction:
		return true
	}
	return false
}

// IsTypeLocus reports whether the node stands for a written type.
func (k Kind) IsTypeLocus() bool {
	return k == KindTypeRef || k == KindQualifiedType
}
