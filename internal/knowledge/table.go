// Package knowledge implements the prior-knowledge table: a fixed mapping
// from qualified external method names to their a-priori purity levels,
// used to seed the fixed-point propagation.
package knowledge

import (
	"github.com/cspurity/cspurity/internal/purity"
	"github.com/hbollon/go-edlib"
)

// Entry is one (qualified-name, purity) pair.
type Entry struct {
	Name  string
	Level purity.Level
}

// builtin is the default prior-knowledge table: console I/O, file and
// directory I/O, HTTP verbs, thread control, clocks, random-number
// generators, and resource disposal.
//
// Console.Read appears twice on purpose; Table's constructor keeps the
// first occurrence, and the duplicate exercises that rule.
var builtin = []Entry{
	{"Console.Write", purity.Impure},
	{"Console.WriteLine", purity.Impure},
	{"Console.Read", purity.Impure},
	{"Console.ReadLine", purity.Impure},
	{"Console.ReadKey", purity.Impure},
	{"Console.Read", purity.Impure}, // duplicate: first match wins

	{"File.Create", purity.Impure},
	{"File.Move", purity.Impure},
	{"File.Delete", purity.Impure},
	{"File.ReadAllText", purity.Impure},
	{"File.ReadAllBytes", purity.Impure},
	{"File.ReadAllLines", purity.Impure},
	{"File.WriteAllText", purity.Impure},
	{"File.WriteAllBytes", purity.Impure},
	{"File.AppendAllText", purity.Impure},
	{"File.Open", purity.Impure},

	{"Directory.CreateDirectory", purity.Impure},
	{"Directory.Move", purity.Impure},
	{"Directory.Delete", purity.Impure},
	{"Directory.GetFiles", purity.Impure},

	{"HttpClient.GetAsync", purity.Impure},
	{"HttpClient.PostAsync", purity.Impure},
	{"HttpClient.PutAsync", purity.Impure},
	{"HttpClient.DeleteAsync", purity.Impure},
	{"HttpClient.Send", purity.Impure},

	{"Thread.Start", purity.Impure},
	{"Thread.Abort", purity.Impure},
	{"Thread.Sleep", purity.Impure},

	// Clocks and RNG are usually reached as a bare member access or an
	// object-creation expression rather than a parenthesized call
	// (`DateTime.Now`, `new Random()`), so the front ends treat those
	// node kinds as dependency sites too.
	{"DateTime.Now", purity.Impure},
	{"DateTime.UtcNow", purity.Impure},
	{"DateTime.Today", purity.Impure},
	{"Environment.TickCount", purity.Impure},
	{"Stopwatch.StartNew", purity.Impure},
	{"Random", purity.Impure},
	{"Guid.NewGuid", purity.Impure},

	{"System.out.println", purity.Impure},
	{"System.out.print", purity.Impure},
	{"System.currentTimeMillis", purity.Impure},
	{"System.nanoTime", purity.Impure},
	{"Instant.now", purity.Impure},
	{"Math.random", purity.Impure},
	{"Files.readAllBytes", purity.Impure},
	{"Files.write", purity.Impure},

	{"Dispose", purity.Impure},
	{"close", purity.Impure},
}

// Table is the built, deduplicated prior-knowledge table.
type Table struct {
	order  []string
	byName map[string]purity.Level
}

// NewTable builds a Table from the built-in entries plus any project-level
// extensions. First match wins, so builtin entries always take priority
// over later duplicates, and extra entries only fill gaps the built-ins
// leave.
func NewTable(extra ...Entry) *Table {
	t := &Table{byName: make(map[string]purity.Level, len(builtin)+len(extra))}
	for _, e := range builtin {
		t.add(e)
	}
	for _, e := range extra {
		t.add(e)
	}
	return t
}

func (t *Table) add(e Entry) {
	if _, exists := t.byName[e.Name]; exists {
		return
	}
	t.byName[e.Name] = e.Level
	t.order = append(t.order, e.Name)
}

// Lookup returns the prior purity for an exact qualified name, if any.
func (t *Table) Lookup(name string) (purity.Level, bool) {
	l, ok := t.byName[name]
	return l, ok
}

// LookupIdentity tries each candidate key in order and returns the first
// match. A resolved method passes its full display form, then its
// return-type-free "<class>.<name>" form, then its bare method name (for
// entries like "Dispose" that are meant to match any class's method of
// that name). An external identity passes only its raw identifier. Empty
// candidates are skipped.
func (t *Table) LookupIdentity(candidates ...string) (purity.Level, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if l, ok := t.byName[c]; ok {
			return l, true
		}
	}
	return 0, false
}

// Suggest finds the closest known name to an unmatched identifier using
// Levenshtein edit distance, for the "did you mean...?" hint on Unknown
// report rows. It returns ok=false when nothing within a reasonable edit
// distance exists.
func (t *Table) Suggest(name string) (string, bool) {
	if name == "" || len(t.order) == 0 {
		return "", false
	}
	const threshold = 0.6
	best := ""
	bestScore := float32(0)
	for _, candidate := range t.order {
		score, err := edlib.StringsSimilarity(name, candidate, edlib.Levenshtein)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if bestScore >= threshold {
		return best, true
	}
	return "", false
}
