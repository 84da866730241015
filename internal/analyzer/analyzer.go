// Package analyzer implements the fixed-point purity driver: build the
// initial call graph from the parsed program, repeatedly drain the working
// set applying the impurity criteria, propagate resolved purities to
// callers, recompute the working set, and stop once a full sweep makes no
// change.
package analyzer

import (
	"github.com/cspurity/cspurity/internal/graph"
	"github.com/cspurity/cspurity/internal/knowledge"
	"github.com/cspurity/cspurity/internal/langfront"
	"github.com/cspurity/cspurity/internal/method"
	"github.com/cspurity/cspurity/internal/purity"
)

// Analyzer runs the purity inference engine against a parsed program.
type Analyzer struct {
	knowledge *knowledge.Table
}

// New creates an Analyzer seeded with the given prior-knowledge table.
func New(table *knowledge.Table) *Analyzer {
	if table == nil {
		table = knowledge.NewTable()
	}
	return &Analyzer{knowledge: table}
}

// Analyze builds the lookup table from prog and runs it to a fixed point.
// The engine is single-threaded and synchronous; Analyze's only observable
// effect is the returned table.
func (a *Analyzer) Analyze(prog langfront.Program) *graph.Graph {
	g := a.build(prog)
	a.run(g)
	return g
}

// build constructs the initial lookup table: one row per method
// declaration, with immediate (one-hop) dependencies only. The fixed-point
// loop computes the transitive closure, so recursing into callees here
// would only duplicate that work and inflate the initial dependency sets.
func (a *Analyzer) build(prog langfront.Program) *graph.Graph {
	g := graph.New()
	resolver := prog.Resolver()
	decls := prog.Methods()

	declByNodeID := make(map[uintptr]langfront.MethodDecl, len(decls))
	for _, d := range decls {
		declByNodeID[d.Node.ID()] = d
	}

	for _, d := range decls {
		m := method.NewResolved(d, resolver)
		g.AddMethod(m)

		for _, inv := range d.Invocations {
			receiver := method.NormalizeExternal(prog.ReceiverText(inv))
			n, symbolMissing := method.FromInvocation(inv, receiver, resolver, declByNodeID)
			g.AddDependency(m, n)
			if symbolMissing {
				_ = g.SetPurity(n, purity.Unknown)
			}
		}
	}

	g.RecomputeWorkingSet()
	return g
}

// run drives the fixed-point loop. Termination: PropagatePurity strictly
// shrinks the total edge count every time it fires, and no new methods are
// introduced after build, so the loop is bounded by the initial edge
// count.
//
// A working-set member always reaches PropagatePurity once processed,
// whether or not one of the impurity criteria changed its own level. A
// member can enter the working set with nothing to change about itself
// (an earlier propagation emptied its dependency set and already lowered
// its purity) and its callers still need that edge resolved. Always
// propagating is also what keeps the edge-count termination argument
// intact.
func (a *Analyzer) run(g *graph.Graph) {
	for {
		batch := g.WorkingSet().Snapshot(g)
		for _, m := range batch {
			a.processOne(g, m)
			g.PropagatePurity(m)
		}
		g.RecomputeWorkingSet()
		if len(batch) == 0 {
			return
		}
	}
}

// processOne applies the impurity criteria to m in order, possibly
// changing m's own purity: prior knowledge first, then an
// already-propagated Unknown, then the static-state read scan. A method
// that matches none of them keeps whatever purity it already has (its Pure
// default, or an Impure level an earlier propagation gave it).
func (a *Analyzer) processOne(g *graph.Graph, m method.Identity) {
	if lvl, ok := a.lookupPriorKnowledge(m); ok {
		_ = g.SetPurity(m, lvl)
		return
	}

	if cur, err := g.GetPurity(m); err == nil && cur == purity.Unknown {
		return
	}

	if m.IsResolved() && m.ReadsStaticProgramState() {
		_ = g.SetPurity(m, purity.Impure)
		return
	}
}

// lookupPriorKnowledge reconciles the lookup keys: a resolved method's
// display form is tried first, then its return-type-free "<class>.<name>"
// form, then its bare name; an external identity uses its raw identifier.
func (a *Analyzer) lookupPriorKnowledge(m method.Identity) (purity.Level, bool) {
	if m.IsResolved() {
		return a.knowledge.LookupIdentity(m.Display(), m.ClassDotName(), m.Name())
	}
	return a.knowledge.LookupIdentity(m.External())
}
