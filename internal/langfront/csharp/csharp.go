// Package csharp implements langfront.Program for C# source, using
// tree-sitter's C# grammar. It is a deliberately narrow resolver: it only
// ever needs to answer two questions: does an invocation land on a
// method declared in this same file, and does an identifier reference a
// static field or property declared in this same file. So it resolves
// within a single compilation unit and reports every other reference as
// unresolved. That is a conservative choice, not a limitation worth
// expanding: a wider resolver would need a real C# compilation model.
package csharp

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/cspurity/cspurity/internal/langfront"
)

// Parse parses a single C# source file and builds the Program used to
// drive the purity analyzer.
func Parse(src []byte) (*Program, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	language := tree_sitter.NewLanguage(tree_sitter_csharp.Language())
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

// classInfo is the simplified symbol table for one class/struct/record: its
// fields, properties, and methods, by simple name.
type classInfo struct {
	name    string
	members map[string]*symbolInfo // fields and properties
	methods map[string]*symbolInfo
}

// symbolInfo is the only langfront.Symbol implementation this front end
// needs: a kind, a static flag, and the declaration node (if any) a caller
// can chase back into the tree.
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

// resolver implements langfront.Resolver against the single-file symbol
// table built while parsing.
type resolver struct {
	src     []byte
	classes map[string]*classInfo
}

// SymbolOf resolves an invocation, bare member access, or object-creation
// node to the class member it textually names, when that name is one this
// front end can determine without type inference: an implicit-this call or
// field read inside the declaring class, or a qualified reference whose
// receiver is literally a class name declared in this file.
func (r *resolver) SymbolOf(n langfront.Node) (langfront.Symbol, bool) {
	tn, ok := n.(tsNode)
	if !ok || tn.n == nil {
		return nil, false
	}
	node := tn.n

	switch node.Kind() {
	case "invocation_expression":
		return r.resolveInvocation(node)
	case "member_access_expression":
		return r.resolveMemberAccess(node)
	case "object_creation_expression":
		return r.resolveObjectCreation(node)
	case "identifier":
		return r.resolveBareIdentifier(node)
	default:
		return nil, false
	}
}

func (r *resolver) resolveInvocation(node *tree_sitter.Node) (langfront.Symbol, bool) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return nil, false
	}
	switch fn.Kind() {
	case "identifier":
		cls := r.enclosingClassName(node)
		return r.lookupMethod(cls, nodeText(fn, r.src))
	case "member_access_expression":
		return r.resolveMemberAccess(fn)
	default:
		return nil, false
	}
}

func (r *resolver) resolveMemberAccess(node *tree_sitter.Node) (langfront.Symbol, bool) {
	object := node.ChildByFieldName("expression")
	name := node.ChildByFieldName("name")
	if name == nil {
		return nil, false
	}
	memberName := nodeText(name, r.src)

	if object == nil || object.Kind() == "this_expression" {
		cls := r.enclosingClassName(node)
		if sym, ok := r.lookupMethod(cls, memberName); ok {
			return sym, true
		}
		return r.lookupMember(cls, memberName)
	}

	objectText := nodeText(object, r.src)
	if sym, ok := r.lookupMethod(objectText, memberName); ok {
		return sym, true
	}
	return r.lookupMember(objectText, memberName)
}

func (r *resolver) resolveObjectCreation(node *tree_sitter.Node) (langfront.Symbol, bool) {
	// A `new T(...)` never lands on a method declared in this program;
	// it is always reported unresolved so FromInvocation treats it as an
	// external dependency keyed on T's name (how `new Random()` reaches
	// the prior-knowledge table).
	return nil, false
}

func (r *resolver) resolveBareIdentifier(node *tree_sitter.Node) (langfront.Symbol, bool) {
	cls := r.enclosingClassName(node)
	return r.lookupMember(cls, nodeText(node, r.src))
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

// enclosingClassName walks up from n to the nearest class/struct/record
// declaration and returns its simple name, or "" if n is not inside one.
func (r *resolver) enclosingClassName(n *tree_sitter.Node) string {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Kind() {
		case "class_declaration", "struct_declaration", "record_declaration":
			if nameNode := cur.ChildByFieldName("name"); nameNode != nil {
				return nodeText(nameNode, r.src)
			}
			return ""
		}
	}
	return ""
}

// IdentifiersIn returns every identifier reference inside n's subtree that
// could plausibly be a value read, skipping the identifiers that merely
// name a declaration (method names, parameter names, class names).
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

// isDeclaringName reports whether node is the name child of a declaration
// (a definition site, not a reference).
func isDeclaringName(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "method_declaration", "class_declaration", "struct_declaration",
		"record_declaration", "parameter", "constructor_declaration",
		"property_declaration", "interface_declaration":
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
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "modifier":
			for j := uint(0); j < child.ChildCount(); j++ {
				if nodeText(child.Child(j), src) == modifier {
					return true
				}
			}
		case modifier:
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
