package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cspurity/cspurity/internal/langfront"
	"github.com/cspurity/cspurity/internal/method"
	"github.com/cspurity/cspurity/internal/purity"
)

func ext(name string) method.Identity { return method.NewExternal(name) }

// fakeNode is the minimal langfront.Node a graph test needs to build a
// resolved identity without depending on a real tree-sitter front end.
type fakeNode struct {
	id uintptr
}

func (n fakeNode) ID() uintptr  { return n.id }
func (n fakeNode) Kind() string { return "method_declaration" }
func (n fakeNode) Text() string { return "" }

type noopResolver struct{}

func (noopResolver) SymbolOf(n langfront.Node) (langfront.Symbol, bool) { return nil, false }
func (noopResolver) IdentifiersIn(n langfront.Node) []langfront.Node    { return nil }

func resolved(id uintptr, name string) method.Identity {
	return method.NewResolved(langfront.MethodDecl{
		Node: fakeNode{id: id}, ReturnType: "void", EnclosingClass: "C", Name: name,
	}, noopResolver{})
}

func TestAddMethod_IdempotentDefaultsToPure(t *testing.T) {
	g := New()
	m := ext("a")

	g.AddMethod(m)
	g.AddMethod(m)

	require.True(t, g.HasMethod(m))
	lvl, err := g.GetPurity(m)
	require.NoError(t, err)
	assert.Equal(t, purity.Pure, lvl)
	assert.Equal(t, 1, g.Len())
}

func TestAddDependency_CreatesRowsAndCallerIndex(t *testing.T) {
	g := New()
	a, b := ext("a"), ext("b")

	g.AddDependency(a, b)

	assert.True(t, g.HasDependency(a, b))
	assert.ElementsMatch(t, []method.Identity{a}, g.GetCallers(b))
	assert.Equal(t, 1, g.EdgeCount())
}

func TestAddDependency_DuplicateIsAbsorbed(t *testing.T) {
	g := New()
	a, b := ext("a"), ext("b")

	g.AddDependency(a, b)
	g.AddDependency(a, b)

	assert.Equal(t, 1, g.EdgeCount())
}

func TestRemoveDependency_ErrorsOnMissingEdge(t *testing.T) {
	g := New()
	a, b := ext("a"), ext("b")
	g.AddMethod(a)
	g.AddMethod(b)

	err := g.RemoveDependency(a, b)
	assert.Error(t, err)
}

func TestRemoveDependency_ErrorsOnMissingRow(t *testing.T) {
	g := New()
	a, b := ext("a"), ext("b")

	err := g.RemoveDependency(a, b)
	assert.Error(t, err)
}

func TestPropagatePurity_JoinsRatherThanOverwrites(t *testing.T) {
	g := New()
	caller, impureDep, pureDep := ext("caller"), ext("impureDep"), ext("pureDep")

	g.AddDependency(caller, impureDep)
	g.AddDependency(caller, pureDep)
	require.NoError(t, g.SetPurity(impureDep, purity.Impure))

	g.PropagatePurity(impureDep)
	lvl, err := g.GetPurity(caller)
	require.NoError(t, err)
	assert.Equal(t, purity.Impure, lvl, "caller must drop to Impure once one dependency resolves Impure")

	// pureDep resolving afterward must not raise caller back to Pure: the
	// join with the already-Impure level keeps it at Impure.
	g.PropagatePurity(pureDep)
	lvl, err = g.GetPurity(caller)
	require.NoError(t, err)
	assert.Equal(t, purity.Impure, lvl)
	assert.Equal(t, 0, g.EdgeCount(), "both edges must be removed once each dependency propagates")
}

func TestStripExternal_KeepsOnlyResolvedRows(t *testing.T) {
	g := New()
	kept := resolved(1, "Foo")
	dropped := ext("dropped")
	g.AddDependency(kept, dropped)

	stripped := g.StripExternal()
	assert.True(t, stripped.HasMethod(kept))
	assert.False(t, stripped.HasMethod(dropped))
}

func TestCopy_IsIndependent(t *testing.T) {
	g := New()
	a, b := ext("a"), ext("b")
	g.AddDependency(a, b)

	clone := g.Copy()
	require.NoError(t, clone.RemoveDependency(a, b))

	assert.True(t, g.HasDependency(a, b), "mutating the clone must not affect the original")
}

func TestRecomputeWorkingSet_OnlyDependencyFreeRowsEnter(t *testing.T) {
	g := New()
	a, b := ext("a"), ext("b")
	g.AddDependency(a, b)
	g.RecomputeWorkingSet()

	snapshot := g.WorkingSet().Snapshot(g)
	assert.ElementsMatch(t, []method.Identity{b}, snapshot, "only the dependency-free row belongs in the working set")
}

func TestDependencies_ReturnsCurrentSet(t *testing.T) {
	g := New()
	a, b, c := ext("a"), ext("b"), ext("c")
	g.AddDependency(a, b)
	g.AddDependency(a, c)

	deps := g.Dependencies(a)
	assert.ElementsMatch(t, []method.Identity{b, c}, deps)
}
