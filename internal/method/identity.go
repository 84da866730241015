// Package method implements method identity: a tagged value naming a
// method, whether resolved to a declaration in the analyzed tree or known
// only by an external, textual name.
//
// Identity is an explicit two-variant value: exactly one of the resolved
// or external halves is populated, and the resolved flag, not nilness,
// says which.
package method

import (
	"fmt"
	"strings"

	"github.com/cspurity/cspurity/internal/langfront"
)

// Identity names a method, resolved or external. A resolved identity and
// an external identity are never equal, even when their display forms
// coincide.
type Identity struct {
	resolved bool

	// resolved fields
	node           langfront.Node
	returnType     string
	enclosingClass string
	name           string
	resolver       langfront.Resolver

	// external fields
	external string
}

// Key is Identity's comparable projection, safe to use as a map key
// regardless of whether the front end's concrete Node/Resolver types happen
// to be comparable. The lookup table (internal/graph) keys every row on
// Key, never on Identity itself.
type Key struct {
	resolved bool
	nodeID   uintptr
	external string
}

// NewResolved builds a resolved identity from a method declaration.
func NewResolved(decl langfront.MethodDecl, resolver langfront.Resolver) Identity {
	return Identity{
		resolved:       true,
		node:           decl.Node,
		returnType:     decl.ReturnType,
		enclosingClass: decl.EnclosingClass,
		name:           decl.Name,
		resolver:       resolver,
	}
}

// NewExternal builds an external identity from an already-normalized
// identifier string.
func NewExternal(identifier string) Identity {
	return Identity{external: identifier}
}

// NormalizeExternal strips whitespace and line breaks from a raw receiver
// expression, so call sites written across several lines still produce one
// canonical external identifier.
func NormalizeExternal(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FromInvocation builds the identity an invocation expression contributes
// as a dependency: resolved if the resolver finds a symbol with a declaring
// reference that lands on one of this program's own method declarations,
// external otherwise.
//
// declByNodeID maps every method declaration node ID discovered in the
// program back to its MethodDecl, so a declaring reference can be
// recognized as belonging to the analyzed tree.
//
// The second return value reports whether the resolver found no symbol at
// all for invocation: true semantic uncertainty, as opposed to a symbol
// that resolves fine but simply isn't declared in this tree (an ordinary
// external call, e.g. a standard-library method). The analyzer driver uses
// this to seed the resulting external row's purity at Unknown instead of
// the usual default Pure.
func FromInvocation(
	invocation langfront.Node,
	receiverText string,
	resolver langfront.Resolver,
	declByNodeID map[uintptr]langfront.MethodDecl,
) (id Identity, symbolMissing bool) {
	sym, ok := resolver.SymbolOf(invocation)
	if !ok {
		return NewExternal(receiverText), true
	}
	for _, ref := range sym.DeclaringReferences() {
		syntax := ref.Syntax()
		if syntax == nil {
			continue
		}
		if decl, found := declByNodeID[syntax.ID()]; found {
			return NewResolved(decl, resolver), false
		}
	}
	return NewExternal(receiverText), false
}

// IsResolved reports whether this is a resolved identity.
func (id Identity) IsResolved() bool { return id.resolved }

// Key returns id's comparable projection.
func (id Identity) Key() Key {
	if id.resolved {
		return Key{resolved: true, nodeID: id.node.ID()}
	}
	return Key{external: id.external}
}

// Equal reports whether id and other name the same method. Resolved
// identities compare by declaration node; external identities compare by
// identifier string.
func (id Identity) Equal(other Identity) bool {
	return id.Key() == other.Key()
}

// Display renders id for the report:
// "<return-type> <enclosing-class>.<method-name>" when resolved, or the raw
// external identifier otherwise.
func (id Identity) Display() string {
	if id.resolved {
		return fmt.Sprintf("%s %s.%s", id.returnType, id.enclosingClass, id.name)
	}
	return id.external
}

// External returns id's raw external identifier. It is only meaningful when
// IsResolved is false.
func (id Identity) External() string {
	return id.external
}

// Name returns the bare method name, with no class or return type. It is
// only meaningful when IsResolved is true; it is the last prior-knowledge
// lookup key, so entries like "Dispose" match any class's method of that
// name.
func (id Identity) Name() string {
	return id.name
}

// ClassDotName returns "<enclosing-class>.<method-name>" without the return
// type: the fallback prior-knowledge lookup key for a resolved method whose
// full display form (which includes the return type) doesn't match any
// entry. It is only meaningful when IsResolved is true.
func (id Identity) ClassDotName() string {
	if !id.resolved {
		return ""
	}
	return id.enclosingClass + "." + id.name
}

// ReadsStaticProgramState scans every identifier-name reference textually
// inside the declaration; the first one that resolves to a static field or
// property makes the method impure. An identifier that fails to resolve at
// all aborts the scan in favor of "false" rather than risk a false
// positive; the analyzer's other criteria may still apply.
func (id Identity) ReadsStaticProgramState() bool {
	if !id.resolved {
		return false
	}
	for _, ref := range id.resolver.IdentifiersIn(id.node) {
		sym, ok := id.resolver.SymbolOf(ref)
		if !ok {
			return false
		}
		if !sym.IsStatic() {
			continue
		}
		switch sym.Kind() {
		case langfront.SymbolKindField, langfront.SymbolKindProperty:
			return true
		}
	}
	return false
}
