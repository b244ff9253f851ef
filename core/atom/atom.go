// Package atom defines the triple and atom primitives the mining engine
// refines: interned 32-bit identifiers for subjects, predicates, objects,
// and the variable/constant distinction atoms are built from.
package atom

import "fmt"

// Triple is a subject-predicate-object fact, all three positions interned
// 32-bit identifiers into a KB string dictionary.
type Triple [3]uint32

// Term is a single atom position. The Variable flag distinguishes a
// variable from a constant: for a constant, ID is the plain interned id;
// for a variable, ID is a small per-rule variable index. The same numeric
// ID can therefore name a constant and a variable at once.
type Term struct {
	ID       uint32
	Variable bool
}

// Const builds a constant term from an interned id.
func Const(id uint32) Term { return Term{ID: id} }

// Var builds a variable term from a small per-rule variable index.
func Var(idx uint32) Term { return Term{ID: idx, Variable: true} }

func (t Term) String() string {
	if t.Variable {
		return fmt.Sprintf("?v%d", t.ID)
	}
	return fmt.Sprintf("%d", t.ID)
}

// Position names the three slots of an atom, used when canonicalizing for
// hashing and when operators report which slot they bound.
type Position int

const (
	Subject Position = iota
	Predicate
	Object
)

// Atom is a triple pattern: a predicate plus subject/object terms, each of
// which may be bound to a constant or left as a variable.
type Atom struct {
	Predicate uint32
	Subject   Term
	Object    Term
}

// IsType reports whether this atom uses the reserved rdf:type-like relation
// id passed by the caller; used for real_length depth accounting, which
// excludes type atoms per the depth-gating rule. A typeRelation of 0 means
// "no type relation", so IsType(0) is always false.
func (a Atom) IsType(typeRelation uint32) bool {
	return typeRelation != 0 && a.Predicate == typeRelation
}

// HasConstant reports whether either position of the atom is bound to a
// constant rather than a variable.
func (a Atom) HasConstant() bool {
	return !a.Subject.Variable || !a.Object.Variable
}

// Variables returns the distinct variable ids referenced by this atom, in
// subject-then-object order.
func (a Atom) Variables() []uint32 {
	var out []uint32
	if a.Subject.Variable {
		out = append(out, a.Subject.ID)
	}
	if a.Object.Variable && !(a.Subject.Variable && a.Object.ID == a.Subject.ID) {
		out = append(out, a.Object.ID)
	}
	return out
}

func (a Atom) String() string {
	return fmt.Sprintf("%d(%s,%s)", a.Predicate, a.Subject, a.Object)
}

// Equal reports structural equality: same predicate and same term kind/id
// in each position. Variable ids are only meaningful within one rule's
// canonical numbering, so callers comparing atoms across rules must
// canonicalize first (see rule.CanonicalKey).
func (a Atom) Equal(b Atom) bool {
	return a.Predicate == b.Predicate && a.Subject == b.Subject && a.Object == b.Object
}
