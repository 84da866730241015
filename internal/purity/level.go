// Package purity defines the four-valued purity lattice used throughout the
// analyzer: Impure < Unknown < ParametricallyImpure < Pure.
package purity

import "fmt"

// Level is a point in the purity lattice. The zero value is Impure, the
// lattice bottom, so an accidentally zero-valued Level fails safe.
type Level int

const (
	// Impure is the lattice bottom: the method reads/writes mutable
	// program-wide state, performs I/O, or calls something that does.
	Impure Level = iota
	// Unknown marks a method whose purity could not be decided because
	// symbol information was missing somewhere in its call chain.
	Unknown
	// ParametricallyImpure marks a method whose purity depends on a
	// function-valued argument it was passed. No analysis rule currently
	// assigns it; the level exists so callback-sensitive rules can be
	// added without reshaping the lattice.
	ParametricallyImpure
	// Pure is the lattice top: the method's result depends only on its
	// arguments and it has no effects beyond returning it.
	Pure
)

var names = [...]string{
	Impure:               "Impure",
	Unknown:              "Unknown",
	ParametricallyImpure: "ParametricallyImpure",
	Pure:                 "Pure",
}

// String renders the level name as it appears in the report.
func (l Level) String() string {
	if l < Impure || l > Pure {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return names[l]
}

// Parse converts a textual tag back into a Level. It is needed only by the
// prior-knowledge table and the project config, both authored as
// (name, tag) pairs.
func Parse(s string) (Level, bool) {
	for l, n := range names {
		if n == s {
			return Level(l), true
		}
	}
	return 0, false
}

// Join combines a caller's level with a callee's, taking the lesser of the
// two. Pure is the identity, Impure absorbs.
func Join(a, b Level) Level {
	if a < b {
		return a
	}
	return b
}

// Less reports whether l is strictly below other in the lattice.
func (l Level) Less(other Level) bool {
	return l < other
}
