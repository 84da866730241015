package graph

import "github.com/cspurity/cspurity/internal/method"

// WorkingSet is the projection over the lookup table that feeds the
// fixed-point loop: the rows with an empty dependency set that have never
// been emitted before, recomputed after every propagation pass.
type WorkingSet struct {
	items   []method.Key
	history map[method.Key]struct{}
}

func newWorkingSet() *WorkingSet {
	return &WorkingSet{history: make(map[method.Key]struct{})}
}

func (w *WorkingSet) clone() *WorkingSet {
	out := &WorkingSet{
		items:   append([]method.Key(nil), w.items...),
		history: make(map[method.Key]struct{}, len(w.history)),
	}
	for k := range w.history {
		out.history[k] = struct{}{}
	}
	return out
}

// recompute clears the sequence and appends every row whose dependency set
// is empty and which has not previously entered the working set, in the
// graph's row-insertion order. The history set persists across
// recomputations, so a method enters at most once in the analyzer's
// lifetime: once its dependencies have all been resolved, revisiting it
// would only repeat work.
func (w *WorkingSet) recompute(g *Graph) {
	w.items = w.items[:0]
	for _, k := range g.insertionOrder {
		r, ok := g.rows[k]
		if !ok || len(r.deps) != 0 {
			continue
		}
		if _, seen := w.history[k]; seen {
			continue
		}
		w.history[k] = struct{}{}
		w.items = append(w.items, k)
	}
}

// Snapshot returns the working set as last recomputed, resolved back to
// Identity values. The analyzer driver must snapshot before mutating the
// graph: propagation can change other rows' eligibility mid-pass, and the
// driver only wants the batch produced by the preceding recompute.
func (w *WorkingSet) Snapshot(g *Graph) []method.Identity {
	out := make([]method.Identity, 0, len(w.items))
	for _, k := range w.items {
		if r, ok := g.rows[k]; ok {
			out = append(out, r.identity)
		}
	}
	return out
}

// Len reports the size of the last-computed working set.
func (w *WorkingSet) Len() int { return len(w.items) }
