package method

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cspurity/cspurity/internal/langfront"
)

type fakeNode struct {
	id   uintptr
	kind string
	text string
}

func (n fakeNode) ID() uintptr  { return n.id }
func (n fakeNode) Kind() string { return n.kind }
func (n fakeNode) Text() string { return n.text }

type fakeDeclRef struct{ node langfront.Node }

func (r fakeDeclRef) Syntax() langfront.Node { return r.node }

type fakeSymbol struct {
	kind   langfront.SymbolKind
	static bool
	refs   []langfront.DeclaringReference
}

func (s fakeSymbol) Kind() langfront.SymbolKind                          { return s.kind }
func (s fakeSymbol) IsStatic() bool                                      { return s.static }
func (s fakeSymbol) DeclaringReferences() []langfront.DeclaringReference { return s.refs }

type fakeResolver struct {
	symbols map[uintptr]langfront.Symbol
	idents  map[uintptr][]langfront.Node
}

func (r fakeResolver) SymbolOf(n langfront.Node) (langfront.Symbol, bool) {
	s, ok := r.symbols[n.ID()]
	return s, ok
}

func (r fakeResolver) IdentifiersIn(n langfront.Node) []langfront.Node {
	return r.idents[n.ID()]
}

func declOf(id uintptr, ret, class, name string) langfront.MethodDecl {
	return langfront.MethodDecl{
		Node:           fakeNode{id: id, kind: "method_declaration"},
		ReturnType:     ret,
		EnclosingClass: class,
		Name:           name,
	}
}

func TestNormalizeExternal(t *testing.T) {
	assert.Equal(t, "Console.WriteLine", NormalizeExternal("Console\n    .WriteLine"))
	assert.Equal(t, "Foo.Bar", NormalizeExternal(" Foo\n.\tBar \r"))
	assert.Equal(t, "", NormalizeExternal(" \t\r\n"))
}

func TestEqual_ResolvedIdentitiesCompareByNode(t *testing.T) {
	res := fakeResolver{}
	a := NewResolved(declOf(1, "int", "C", "foo"), res)
	sameNode := NewResolved(declOf(1, "int", "C", "foo"), res)
	other := NewResolved(declOf(2, "int", "C", "foo"), res)

	assert.True(t, a.Equal(sameNode))
	assert.False(t, a.Equal(other), "same name, different declaration node: not equal")
}

func TestEqual_ExternalIdentitiesCompareByIdentifier(t *testing.T) {
	assert.True(t, NewExternal("Console.WriteLine").Equal(NewExternal("Console.WriteLine")))
	assert.False(t, NewExternal("Console.WriteLine").Equal(NewExternal("Console.Write")))
}

func TestEqual_ResolvedNeverEqualsExternal(t *testing.T) {
	res := fakeResolver{}
	resolved := NewResolved(declOf(1, "int", "C", "foo"), res)
	external := NewExternal("C.foo")

	assert.False(t, resolved.Equal(external))
	assert.False(t, external.Equal(resolved))
}

func TestDisplay(t *testing.T) {
	res := fakeResolver{}
	resolved := NewResolved(declOf(1, "int", "C", "foo"), res)
	external := NewExternal("Console.WriteLine")

	assert.Equal(t, "int C.foo", resolved.Display())
	assert.Equal(t, "Console.WriteLine", external.Display())
}

func TestClassDotName(t *testing.T) {
	res := fakeResolver{}
	resolved := NewResolved(declOf(1, "int", "C", "foo"), res)

	assert.Equal(t, "C.foo", resolved.ClassDotName())
	assert.Equal(t, "", NewExternal("x").ClassDotName())
}

func TestFromInvocation_NoSymbolIsExternalAndMissing(t *testing.T) {
	inv := fakeNode{id: 10, kind: "invocation_expression"}
	res := fakeResolver{symbols: map[uintptr]langfront.Symbol{}}

	id, missing := FromInvocation(inv, "Unrecognized.call", res, nil)

	assert.True(t, missing)
	assert.False(t, id.IsResolved())
	assert.Equal(t, "Unrecognized.call", id.External())
}

func TestFromInvocation_SymbolWithInTreeDeclarationResolves(t *testing.T) {
	decl := declOf(1, "int", "C", "bar")
	inv := fakeNode{id: 10, kind: "invocation_expression"}
	res := fakeResolver{symbols: map[uintptr]langfront.Symbol{
		10: fakeSymbol{
			kind: langfront.SymbolKindMethod,
			refs: []langfront.DeclaringReference{fakeDeclRef{node: decl.Node}},
		},
	}}
	byID := map[uintptr]langfront.MethodDecl{1: decl}

	id, missing := FromInvocation(inv, "bar", res, byID)

	assert.False(t, missing)
	require.True(t, id.IsResolved())
	assert.Equal(t, "int C.bar", id.Display())
}

func TestFromInvocation_SymbolDeclaredOutsideTreeIsExternalNotMissing(t *testing.T) {
	inv := fakeNode{id: 10, kind: "invocation_expression"}
	foreign := fakeNode{id: 99, kind: "method_declaration"}
	res := fakeResolver{symbols: map[uintptr]langfront.Symbol{
		10: fakeSymbol{
			kind: langfront.SymbolKindMethod,
			refs: []langfront.DeclaringReference{fakeDeclRef{node: foreign}},
		},
	}}

	id, missing := FromInvocation(inv, "Lib.helper", res, map[uintptr]langfront.MethodDecl{})

	assert.False(t, missing, "a symbol that resolved but isn't in this tree is an ordinary external call")
	assert.False(t, id.IsResolved())
	assert.Equal(t, "Lib.helper", id.External())
}

func TestReadsStaticProgramState(t *testing.T) {
	declNode := fakeNode{id: 1, kind: "method_declaration"}
	ident := fakeNode{id: 20, kind: "identifier", text: "s"}

	cases := []struct {
		name   string
		symbol langfront.Symbol
		found  bool
		want   bool
	}{
		{"static field", fakeSymbol{kind: langfront.SymbolKindField, static: true}, true, true},
		{"static property", fakeSymbol{kind: langfront.SymbolKindProperty, static: true}, true, true},
		{"instance field", fakeSymbol{kind: langfront.SymbolKindField, static: false}, true, false},
		{"static method", fakeSymbol{kind: langfront.SymbolKindMethod, static: true}, true, false},
		{"unresolved identifier", nil, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			symbols := map[uintptr]langfront.Symbol{}
			if tc.found {
				symbols[ident.ID()] = tc.symbol
			}
			res := fakeResolver{
				symbols: symbols,
				idents:  map[uintptr][]langfront.Node{declNode.ID(): {ident}},
			}
			m := NewResolved(langfront.MethodDecl{
				Node: declNode, ReturnType: "int", EnclosingClass: "C", Name: "f",
			}, res)

			assert.Equal(t, tc.want, m.ReadsStaticProgramState())
		})
	}
}

func TestReadsStaticProgramState_UnresolvedIdentifierAbortsScan(t *testing.T) {
	declNode := fakeNode{id: 1, kind: "method_declaration"}
	unresolved := fakeNode{id: 20, kind: "identifier", text: "mystery"}
	staticField := fakeNode{id: 21, kind: "identifier", text: "s"}

	res := fakeResolver{
		symbols: map[uintptr]langfront.Symbol{
			staticField.ID(): fakeSymbol{kind: langfront.SymbolKindField, static: true},
		},
		idents: map[uintptr][]langfront.Node{
			declNode.ID(): {unresolved, staticField},
		},
	}
	m := NewResolved(langfront.MethodDecl{
		Node: declNode, ReturnType: "int", EnclosingClass: "C", Name: "f",
	}, res)

	assert.False(t, m.ReadsStaticProgramState(),
		"the scan stops at the first unresolvable identifier, even if a static field read follows")
}

func TestReadsStaticProgramState_ExternalIsFalse(t *testing.T) {
	assert.False(t, NewExternal("Console.WriteLine").ReadsStaticProgramState())
}
