// Package graph implements the analyzer's lookup table: the mutable
// central data structure mapping method identity to (dependency set,
// purity level), plus the working set projection over it.
//
// Rows are keyed on method.Key and a reverse "callers" index is maintained
// incrementally rather than scanned per query, so GetCallers and
// PropagatePurity are cheap even on large call graphs.
package graph

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/cspurity/cspurity/internal/cserrors"
	"github.com/cspurity/cspurity/internal/method"
	"github.com/cspurity/cspurity/internal/purity"
)

var (
	errNoSuchMethod = errors.New("no such method")
	errNoSuchEdge   = errors.New("no such dependency edge")
)

// row is one table entry: a method, its unresolved callees, and its
// current purity.
type row struct {
	identity method.Identity
	// deps is the ordered, duplicate-free dependency set, stored as both
	// a slice (for deterministic iteration/propagation order) and a
	// membership set (for O(1) HasDependency/RemoveDependency).
	deps     []method.Key
	depSet   map[method.Key]struct{}
	purityLv purity.Level
}

// Graph is the lookup table. It is built once per Analyze call and owned
// exclusively by it; nothing else aliases or mutates it.
type Graph struct {
	rows map[method.Key]*row
	// callers is the reverse index: callers[n] = {m | n in deps(m)}. It
	// is maintained incrementally by AddDependency/RemoveDependency.
	callers map[method.Key]map[method.Key]struct{}
	working *WorkingSet

	// insertionOrder records row keys in the order AddMethod first saw
	// them, giving RecomputeWorkingSet a deterministic row order despite
	// Go's randomized map iteration.
	insertionOrder []method.Key
}

// New creates an empty lookup table.
func New() *Graph {
	return &Graph{
		rows:    make(map[method.Key]*row),
		callers: make(map[method.Key]map[method.Key]struct{}),
		working: newWorkingSet(),
	}
}

// hashKey gives every Key a stable 64-bit fingerprint via xxhash, for
// callers that want a cheap dense handle instead of the Key struct itself.
// The table's own correctness never depends on this; it is a convenience
// projection.
func hashKey(k method.Key) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%v", k))
}

// HashKey exposes hashKey for packages that display or order methods by a
// stable dense handle (internal/report).
func HashKey(id method.Identity) uint64 {
	return hashKey(id.Key())
}

// AddMethod adds m with an empty dependency set and Pure purity if absent.
// Idempotent.
func (g *Graph) AddMethod(m method.Identity) {
	k := m.Key()
	if _, ok := g.rows[k]; ok {
		return
	}
	g.rows[k] = &row{
		identity: m,
		depSet:   make(map[method.Key]struct{}),
		purityLv: purity.Pure,
	}
	g.insertionOrder = append(g.insertionOrder, k)
	if _, ok := g.callers[k]; !ok {
		g.callers[k] = make(map[method.Key]struct{})
	}
}

// RemoveMethod removes m's row. Removing an absent method is a
// precondition violation and errors.
func (g *Graph) RemoveMethod(m method.Identity) error {
	k := m.Key()
	r, ok := g.rows[k]
	if !ok {
		return cserrors.New(cserrors.KindStructural, "RemoveMethod", errNoSuchMethod).WithMethod(m.Display())
	}
	for _, dep := range r.deps {
		if callers, ok := g.callers[dep]; ok {
			delete(callers, k)
		}
	}
	delete(g.callers, k)
	delete(g.rows, k)
	return nil
}

// HasMethod reports whether m has a row.
func (g *Graph) HasMethod(m method.Identity) bool {
	_, ok := g.rows[m.Key()]
	return ok
}

// AddDependency ensures both m and n have rows, then adds n to m's
// dependency set if not already present. Each call site contributes at
// most one dependency; duplicates are absorbed here.
func (g *Graph) AddDependency(m, n method.Identity) {
	g.AddMethod(m)
	g.AddMethod(n)

	mk, nk := m.Key(), n.Key()
	r := g.rows[mk]
	if _, exists := r.depSet[nk]; exists {
		return
	}
	r.depSet[nk] = struct{}{}
	r.deps = append(r.deps, nk)
	g.callers[nk][mk] = struct{}{}
}

// RemoveDependency removes n from m's dependency set. A missing row or a
// missing edge is a precondition violation and errors.
func (g *Graph) RemoveDependency(m, n method.Identity) error {
	mk, nk := m.Key(), n.Key()
	r, ok := g.rows[mk]
	if !ok {
		return cserrors.New(cserrors.KindStructural, "RemoveDependency", errNoSuchMethod).WithMethod(m.Display())
	}
	if _, ok := r.depSet[nk]; !ok {
		return cserrors.New(cserrors.KindStructural, "RemoveDependency", errNoSuchEdge).WithMethod(n.Display())
	}
	delete(r.depSet, nk)
	for i, d := range r.deps {
		if d == nk {
			r.deps = append(r.deps[:i], r.deps[i+1:]...)
			break
		}
	}
	if callers, ok := g.callers[nk]; ok {
		delete(callers, mk)
	}
	return nil
}

// HasDependency reports whether n is currently in m's dependency set.
func (g *Graph) HasDependency(m, n method.Identity) bool {
	r, ok := g.rows[m.Key()]
	if !ok {
		return false
	}
	_, ok = r.depSet[n.Key()]
	return ok
}

// GetPurity reads m's purity. It fails if m is absent.
func (g *Graph) GetPurity(m method.Identity) (purity.Level, error) {
	r, ok := g.rows[m.Key()]
	if !ok {
		return 0, cserrors.New(cserrors.KindStructural, "GetPurity", errNoSuchMethod).WithMethod(m.Display())
	}
	return r.purityLv, nil
}

// SetPurity overwrites m's purity. It fails if m is absent.
func (g *Graph) SetPurity(m method.Identity, p purity.Level) error {
	r, ok := g.rows[m.Key()]
	if !ok {
		return cserrors.New(cserrors.KindStructural, "SetPurity", errNoSuchMethod).WithMethod(m.Display())
	}
	r.purityLv = p
	return nil
}

// GetCallers returns every c whose dependency set contains m.
func (g *Graph) GetCallers(m method.Identity) []method.Identity {
	callerKeys, ok := g.callers[m.Key()]
	if !ok || len(callerKeys) == 0 {
		return nil
	}
	out := make([]method.Identity, 0, len(callerKeys))
	for ck := range callerKeys {
		if r, ok := g.rows[ck]; ok {
			out = append(out, r.identity)
		}
	}
	return out
}

// PropagatePurity folds m's purity into every caller of m via the lattice
// join, then removes the now-resolved dependency edge from each caller.
//
// The join, rather than a plain overwrite, is what keeps purity monotonic:
// a caller with several unresolved callees must not rise back above a
// level an earlier callee already propagated, whatever order the callees
// happen to resolve in.
func (g *Graph) PropagatePurity(m method.Identity) {
	mr, ok := g.rows[m.Key()]
	if !ok {
		return
	}
	p := mr.purityLv
	for _, c := range g.GetCallers(m) {
		cur, err := g.GetPurity(c)
		if err != nil {
			continue
		}
		_ = g.SetPurity(c, purity.Join(cur, p))
		_ = g.RemoveDependency(c, m)
	}
}

// StripExternal returns a copy containing only rows whose identity is
// resolved to a declaration in the analyzed tree.
func (g *Graph) StripExternal() *Graph {
	out := New()
	for k, r := range g.rows {
		if !r.identity.IsResolved() {
			continue
		}
		out.rows[k] = &row{
			identity: r.identity,
			deps:     append([]method.Key(nil), r.deps...),
			depSet:   copyKeySet(r.depSet),
			purityLv: r.purityLv,
		}
	}
	for k, callers := range g.callers {
		if _, ok := out.rows[k]; !ok {
			continue
		}
		filtered := make(map[method.Key]struct{})
		for ck := range callers {
			if _, ok := out.rows[ck]; ok {
				filtered[ck] = struct{}{}
			}
		}
		out.callers[k] = filtered
	}
	for _, k := range g.insertionOrder {
		if _, ok := out.rows[k]; ok {
			out.insertionOrder = append(out.insertionOrder, k)
		}
	}
	return out
}

// Copy deep-clones every row. The parsed tree and resolver referenced by
// each Identity are shared, not cloned.
func (g *Graph) Copy() *Graph {
	out := New()
	for k, r := range g.rows {
		out.rows[k] = &row{
			identity: r.identity,
			deps:     append([]method.Key(nil), r.deps...),
			depSet:   copyKeySet(r.depSet),
			purityLv: r.purityLv,
		}
	}
	for k, callers := range g.callers {
		out.callers[k] = copyKeySet(callers)
	}
	out.insertionOrder = append([]method.Key(nil), g.insertionOrder...)
	out.working = g.working.clone()
	return out
}

// Methods returns every row's identity, in no particular order. Callers
// that need a stable order should sort by HashKey or Display.
func (g *Graph) Methods() []method.Identity {
	out := make([]method.Identity, 0, len(g.rows))
	for _, r := range g.rows {
		out = append(out, r.identity)
	}
	return out
}

// Len reports the number of rows in the table.
func (g *Graph) Len() int { return len(g.rows) }

// EdgeCount reports the total number of dependency edges remaining; every
// propagation strictly shrinks it, which is what bounds the fixed-point
// loop.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, r := range g.rows {
		total += len(r.deps)
	}
	return total
}

// WorkingSet returns the table's owned working set.
func (g *Graph) WorkingSet() *WorkingSet { return g.working }

// RecomputeWorkingSet projects the current rows into the working set:
// every row with an empty dependency set, not previously emitted, in
// row-insertion order.
func (g *Graph) RecomputeWorkingSet() {
	g.working.recompute(g)
}

func copyKeySet(in map[method.Key]struct{}) map[method.Key]struct{} {
	out := make(map[method.Key]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

// Dependencies returns m's current dependency set, in insertion order.
func (g *Graph) Dependencies(m method.Identity) []method.Identity {
	r, ok := g.rows[m.Key()]
	if !ok {
		return nil
	}
	out := make([]method.Identity, 0, len(r.deps))
	for _, dk := range r.deps {
		if dr, ok := g.rows[dk]; ok {
			out = append(out, dr.identity)
		}
	}
	return out
}
