package csharp

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cspurity/cspurity/internal/langfront"
)

// Program is a parsed C# compilation unit.
type Program struct {
	src     []byte
	tree    *tree_sitter.Tree
	res     *resolver
	methods []langfront.MethodDecl
}

func (p *Program) Methods() []langfront.MethodDecl { return p.methods }
func (p *Program) Resolver() langfront.Resolver    { return p.res }

// ReceiverText renders the qualified name an invocation, bare member
// access, or object-creation node names, without arguments: the form an
// external identity carries, and the form the prior-knowledge table's
// entries are written in.
func (p *Program) ReceiverText(invocation langfront.Node) string {
	tn, ok := invocation.(tsNode)
	if !ok || tn.n == nil {
		return invocation.Text()
	}
	n := tn.n
	switch n.Kind() {
	case "invocation_expression":
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return nodeText(n, p.src)
		}
		return nodeText(fn, p.src)
	case "object_creation_expression":
		if t := n.ChildByFieldName("type"); t != nil {
			return nodeText(t, p.src)
		}
		return nodeText(n, p.src)
	default:
		return nodeText(n, p.src)
	}
}

// collectClasses finds every class/struct/record declaration and records
// its fields, properties, and (placeholder) method table.
func (p *Program) collectClasses(root *tree_sitter.Node) {
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "class_declaration", "struct_declaration", "record_declaration":
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
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "field_declaration":
			isStatic := hasModifier(child, p.src, "static")
			varDecl := findChildByType(child, "variable_declaration")
			if varDecl == nil {
				continue
			}
			for j := uint(0); j < varDecl.ChildCount(); j++ {
				vd := varDecl.Child(j)
				if vd == nil || vd.Kind() != "variable_declarator" {
					continue
				}
				nameNode := findChildByType(vd, "identifier")
				if nameNode == nil {
					continue
				}
				name := nodeText(nameNode, p.src)
				ci.members[name] = &symbolInfo{
					kind: langfront.SymbolKindField, isStatic: isStatic,
					declNode: vd, src: p.src,
				}
			}
		case "property_declaration":
			isStatic := hasModifier(child, p.src, "static")
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nodeText(nameNode, p.src)
			ci.members[name] = &symbolInfo{
				kind: langfront.SymbolKindProperty, isStatic: isStatic,
				declNode: child, src: p.src,
			}
		}
	}
}

// collectMethods finds every method declaration, registers its symbol in
// its enclosing class's method table, and builds the MethodDecl the
// analyzer consumes.
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
		nameNode = findChildByType(n, "identifier")
	}
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
	if body == nil {
		body = findChildByType(n, "block")
	}
	if body == nil {
		body = findChildByType(n, "arrow_expression_clause")
	}

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

// returnTypeOf recovers the return type text preceding a method's name.
// The grammar's field name for it has shifted across versions, so both
// candidates are tried before falling back to a positional scan for the
// first type-shaped child. The scan stops at the name field to avoid
// mistaking the method name for an identifier-shaped return type.
func returnTypeOf(node *tree_sitter.Node, src []byte) string {
	for _, field := range []string{"type", "returns"} {
		if t := node.ChildByFieldName(field); t != nil {
			return nodeText(t, src)
		}
	}
	nameNode := node.ChildByFieldName("name")
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if nameNode != nil && child.Id() == nameNode.Id() {
			break
		}
		switch child.Kind() {
		case "predefined_type", "void_keyword", "identifier", "generic_name",
			"qualified_name", "nullable_type", "array_type", "pointer_type":
			return nodeText(child, src)
		}
	}
	return "void"
}

// collectDependencySites walks a method body collecting the three kinds of
// node that can name a dependency: calls, object creation (for
// `new Random()`-style RNG dependencies), and bare member access not
// already covered by an enclosing call (for `DateTime.Now`-style clock
// dependencies).
func collectDependencySites(body *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "invocation_expression", "object_creation_expression":
			out = append(out, n)
		case "member_access_expression":
			var fn *tree_sitter.Node
			if parent := n.Parent(); parent != nil && parent.Kind() == "invocation_expression" {
				fn = parent.ChildByFieldName("function")
			}
			if fn == nil || fn.Id() != n.Id() {
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
