package java

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cspurity/cspurity/internal/langfront"
)

// Program is a parsed Java compilation unit.
type Program struct {
	src     []byte
	tree    *tree_sitter.Tree
	res     *resolver
	methods []langfront.MethodDecl
}

func (p *Program) Methods() []langfront.MethodDecl { return p.methods }
func (p *Program) Resolver() langfront.Resolver    { return p.res }

// ReceiverText renders the qualified name a dependency site names,
// without arguments: the form an external identity carries.
func (p *Program) ReceiverText(invocation langfront.Node) string {
	tn, ok := invocation.(tsNode)
	if !ok || tn.n == nil {
		return invocation.Text()
	}
	n := tn.n
	switch n.Kind() {
	case "method_invocation":
		object := n.ChildByFieldName("object")
		name := n.ChildByFieldName("name")
		if object != nil && name != nil {
			return nodeText(object, p.src) + "." + nodeText(name, p.src)
		}
		if name != nil {
			return nodeText(name, p.src)
		}
		return nodeText(n, p.src)
	case "object_creation_expression":
		if t := n.ChildByFieldName("type"); t != nil {
			return nodeText(t, p.src)
		}
		return nodeText(n, p.src)
	default:
		return nodeText(n, p.src)
	}
}

func (p *Program) collectClasses(root *tree_sitter.Node) {
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "class_declaration", "record_declaration", "interface_declaration":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(nameNode, p.src)
				if name != "" {
					if _, exists := p.res.classes[name]; !exists {
						p.res.classes[name] = &classInfo{
							name:    name,
							members: make(map[string]*symbolInfo),
							methods: make(map[string]*symbolInfo),
						}
					}
					p.collectMembers(n, p.res.classes[name])
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
}

func (p *Program) collectMembers(classNode *tree_sitter.Node, ci *classInfo) {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		if child == nil || child.Kind() != "field_declaration" {
			continue
		}
		isStatic := hasModifier(child, p.src, "static")
		declarator := findChildByType(child, "variable_declarator")
		if declarator == nil {
			continue
		}
		nameNode := declarator.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nodeText(nameNode, p.src)
		ci.members[name] = &symbolInfo{
			kind: langfront.SymbolKindField, isStatic: isStatic,
			declNode: declarator, src: p.src,
		}
	}
}

func (p *Program) collectMethods(root *tree_sitter.Node) {
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "method_declaration" {
			p.addMethod(n)
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
}

func (p *Program) addMethod(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, p.src)
	class := p.res.enclosingClassName(n)
	isStatic := hasModifier(n, p.src, "static")

	if class != "" {
		if ci, ok := p.res.classes[class]; ok {
			ci.methods[name] = &symbolInfo{
				kind: langfront.SymbolKindMethod, isStatic: isStatic,
				declNode: n, src: p.src,
			}
		}
	}

	body := n.ChildByFieldName("body")

	var invocations []langfront.Node
	if body != nil {
		for _, site := range collectDependencySites(body) {
			invocations = append(invocations, wrap(site, p.src))
		}
	}

	p.methods = append(p.methods, langfront.MethodDecl{
		Node:           wrap(n, p.src),
		ReturnType:     returnTypeOf(n, p.src),
		EnclosingClass: class,
		Name:           name,
		Invocations:    invocations,
	})
}

func returnTypeOf(node *tree_sitter.Node, src []byte) string {
	if t := node.ChildByFieldName("type"); t != nil {
		return nodeText(t, src)
	}
	return "void"
}

// collectDependencySites walks a method body collecting dependency
// sites: calls, object creation (`new Random()`), and bare field access
// not already covered by an enclosing call (`System.out` and shared
// clock/config instances are reached that way).
func collectDependencySites(body *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "method_invocation", "object_creation_expression":
			out = append(out, n)
		case "field_access":
			var object *tree_sitter.Node
			if parent := n.Parent(); parent != nil && parent.Kind() == "method_invocation" {
				object = parent.ChildByFieldName("object")
			}
			if object == nil || object.Id() != n.Id() {
				out = append(out, n)
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return out
}
