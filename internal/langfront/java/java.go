// Package java implements langfront.Program for Java source using
// tree-sitter's Java grammar. It mirrors internal/langfront/csharp's
// single-compilation-unit resolver almost exactly; the two front ends
// exist side by side because the analyzer and graph packages depend only
// on langfront's interfaces, never on a specific grammar.
package java

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/cspurity/cspurity/internal/langfront"
)

// Parse parses a single Java source file.
func Parse(src []byte) (*Program, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	language := tree_sitter.NewLanguage(tree_sitter_java.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, err
	}

	tree := parser.Parse(src, nil)
	root := tree.RootNode()

	p := &Program{
		src:  src,
		tree: tree,
		res: &resolver{
			src:     src,
			classes: make(map[string]*classInfo),
		},
	}
	p.collectClasses(root)
	p.collectMethods(root)
	return p, nil
}

type classInfo struct {
	name    string
	members map[string]*symbolInfo
	methods map[string]*symbolInfo
}

type symbolInfo struct {
	kind     langfront.SymbolKind
	isStatic bool
	declNode *tree_sitter.Node
	src      []byte
}

func (s *symbolInfo) Kind() langfront.SymbolKind { return s.kind }
func (s *symbolInfo) IsStatic() bool             { return s.isStatic }

func (s *symbolInfo) DeclaringReferences() []langfront.DeclaringReference {
	if s.declNode == nil {
		return nil
	}
	return []langfront.DeclaringReference{declRef{wrap(s.declNode, s.src)}}
}

type declRef struct{ node langfront.Node }

func (r declRef) Syntax() langfront.Node { return r.node }

type resolver struct {
	src     []byte
	classes map[string]*classInfo
}

// SymbolOf resolves a method invocation, field access, object creation, or
// bare identifier the same way the C# resolver does: only references whose
// receiver is literally "this" (or implicit) or a class name declared in
// this file resolve; everything else is reported unresolved.
func (r *resolver) SymbolOf(n langfront.Node) (langfront.Symbol, bool) {
	tn, ok := n.(tsNode)
	if !ok || tn.n == nil {
		return nil, false
	}
	node := tn.n

	switch node.Kind() {
	case "method_invocation":
		return r.resolveMethodInvocation(node)
	case "field_access":
		return r.resolveFieldAccess(node)
	case "object_creation_expression":
		return nil, false
	case "identifier":
		cls := r.enclosingClassName(node)
		return r.lookupMember(cls, nodeText(node, r.src))
	default:
		return nil, false
	}
}

func (r *resolver) resolveMethodInvocation(node *tree_sitter.Node) (langfront.Symbol, bool) {
	name := node.ChildByFieldName("name")
	if name == nil {
		return nil, false
	}
	methodName := nodeText(name, r.src)

	object := node.ChildByFieldName("object")
	if object == nil || object.Kind() == "this" {
		cls := r.enclosingClassName(node)
		return r.lookupMethod(cls, methodName)
	}
	return r.lookupMethod(nodeText(object, r.src), methodName)
}

func (r *resolver) resolveFieldAccess(node *tree_sitter.Node) (langfront.Symbol, bool) {
	name := node.ChildByFieldName("field")
	if name == nil {
		return nil, false
	}
	fieldName := nodeText(name, r.src)

	object := node.ChildByFieldName("object")
	if object == nil || object.Kind() == "this" {
		cls := r.enclosingClassName(node)
		return r.lookupMember(cls, fieldName)
	}
	return r.lookupMember(nodeText(object, r.src), fieldName)
}

func (r *resolver) lookupMethod(className, name string) (langfront.Symbol, bool) {
	ci, ok := r.classes[className]
	if !ok {
		return nil, false
	}
	sym, ok := ci.methods[name]
	return sym, ok
}

func (r *resolver) lookupMember(className, name string) (langfront.Symbol, bool) {
	ci, ok := r.classes[className]
	if !ok {
		return nil, false
	}
	sym, ok := ci.members[name]
	return sym, ok
}

func (r *resolver) enclosingClassName(n *tree_sitter.Node) string {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Kind() {
		case "class_declaration", "record_declaration", "interface_declaration":
			if nameNode := cur.ChildByFieldName("name"); nameNode != nil {
				return nodeText(nameNode, r.src)
			}
			return ""
		}
	}
	return ""
}

// IdentifiersIn mirrors the C# resolver's predicate: every identifier
// reference in n's subtree that names a value, not a declaration.
func (r *resolver) IdentifiersIn(n langfront.Node) []langfront.Node {
	tn, ok := n.(tsNode)
	if !ok || tn.n == nil {
		return nil
	}
	var out []langfront.Node
	var walk func(node *tree_sitter.Node)
	walk = func(node *tree_sitter.Node) {
		if node == nil {
			return
		}
		if node.Kind() == "identifier" && !isDeclaringName(node) {
			out = append(out, wrap(node, r.src))
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(tn.n)
	return out
}

func isDeclaringName(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "method_declaration", "class_declaration", "record_declaration",
		"interface_declaration", "formal_parameter", "constructor_declaration",
		"variable_declarator":
		name := parent.ChildByFieldName("name")
		return name != nil && name.Id() == node.Id()
	default:
		return false
	}
}

func nodeText(n *tree_sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start > uint(len(src)) || end > uint(len(src)) || start > end {
		return ""
	}
	return string(src[start:end])
}

func hasModifier(node *tree_sitter.Node, src []byte, modifier string) bool {
	modifiers := findChildByType(node, "modifiers")
	if modifiers == nil {
		return false
	}
	for i := uint(0); i < modifiers.ChildCount(); i++ {
		if nodeText(modifiers.Child(i), src) == modifier {
			return true
		}
	}
	return false
}

func findChildByType(node *tree_sitter.Node, nodeType string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == nodeType {
			return child
		}
	}
	return nil
}
