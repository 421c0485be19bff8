// signature.go — declared-name signatures and use-site checking.
//
// One table per compilation unit resolves every fluent, predicate, constant,
// task and action name statically; argument types are syntactically known at
// parse time, so no runtime dispatch exists anywhere downstream.
package planc

import "fmt"

// SymbolKind classifies a declared name.
type SymbolKind int

const (
	SymFluent SymbolKind = iota
	SymConstant
	SymPredicate
	SymTask
	SymAction
)

func (k SymbolKind) String() string {
	switch k {
	case SymFluent:
		return "fluent"
	case SymConstant:
		return "constant"
	case SymPredicate:
		return "predicate"
	case SymTask:
		return "task"
	case SymAction:
		return "action"
	}
	return "symbol"
}

// Signature is the declared shape of a name: ordered parameter types plus a
// value type (boolean for predicates, tasks and actions).
type Signature struct {
	Name   string
	Kind   SymbolKind
	Params []IRParam
	Value  ValueType
	Pos    Position
}

// Arity returns the declared parameter count.
func (s *Signature) Arity() int { return len(s.Params) }

// SignatureTable maps declared names to signatures.
type SignatureTable struct {
	hier  *Hierarchy
	names map[string]*Signature
	order []*Signature
}

// NewSignatureTable creates an empty table checking against h.
func NewSignatureTable(h *Hierarchy) *SignatureTable {
	return &SignatureTable{hier: h, names: map[string]*Signature{}}
}

// Register adds a signature. Redeclaring a name with an identical signature
// succeeds idempotently (the corpus declares fluents after use on occasion);
// a differing redeclaration fails.
func (t *SignatureTable) Register(sig *Signature) error {
	if old, ok := t.names[sig.Name]; ok {
		if sameSignature(old, sig) {
			return nil
		}
		return fmt.Errorf("%s %q was already declared with a different signature", old.Kind, sig.Name)
	}
	t.names[sig.Name] = sig
	t.order = append(t.order, sig)
	return nil
}

// Lookup returns the signature for name, or nil.
func (t *SignatureTable) Lookup(name string) *Signature { return t.names[name] }

// All returns every registered signature in declaration order.
func (t *SignatureTable) All() []*Signature { return t.order }

// CheckCall verifies arity and argument types of a use site. argTypes holds
// the already-resolved type of each argument; a nil entry means the argument
// could not be typed (a prior error) and is skipped, so one bad argument
// does not cascade.
func (t *SignatureTable) CheckCall(sig *Signature, argTypes []*ValueType) error {
	if len(argTypes) != sig.Arity() {
		return fmt.Errorf("%s %q expects %d argument(s), got %d",
			sig.Kind, sig.Name, sig.Arity(), len(argTypes))
	}
	for i, at := range argTypes {
		if at == nil {
			continue
		}
		want := sig.Params[i].Type
		if !t.assignable(*at, want) {
			return fmt.Errorf("argument %d of %s %q: cannot use %s where %s is required",
				i+1, sig.Kind, sig.Name, at.String(), want.String())
		}
	}
	return nil
}

// assignable reports whether a value of type got may appear where want is
// declared. Object types use the subtype relation; numeric bounds are not
// checked here (grounding-time concern).
func (t *SignatureTable) assignable(got, want ValueType) bool {
	if want.Kind == ValueObject {
		if got.Kind != ValueObject {
			return false
		}
		return t.hier.IsSubtype(got.Object, want.Object)
	}
	if got.Kind == want.Kind {
		return true
	}
	// An integer is acceptable where a float is required.
	return want.Kind == ValueFloat && got.Kind == ValueInt
}

func sameSignature(a, b *Signature) bool {
	if a.Kind != b.Kind || a.Arity() != b.Arity() {
		return false
	}
	if !sameValueType(a.Value, b.Value) {
		return false
	}
	for i := range a.Params {
		if !sameValueType(a.Params[i].Type, b.Params[i].Type) {
			return false
		}
	}
	return true
}

func sameValueType(a, b ValueType) bool {
	if a.Kind != b.Kind || a.HasBounds != b.HasBounds {
		return false
	}
	if a.Kind == ValueObject {
		return a.Object != nil && b.Object != nil && a.Object.Name == b.Object.Name
	}
	if a.HasBounds {
		return a.Lo == b.Lo && a.Hi == b.Hi
	}
	return true
}
