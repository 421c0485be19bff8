// types.go — the type hierarchy resolver.
//
// Declared types form a DAG, not a tree: a type may list several supertypes
// and the same ancestor may be reachable through different intermediates
// (Block < Movable < Location, TableSpace < Unmovable < Location). Subtype
// queries therefore use reachability over the supertype sets, never a
// single-parent walk.
package planc

import (
	"fmt"
	"strings"
)

// RootTypeName is the implicit universal root. Every declared type without
// supertypes becomes its direct child.
const RootTypeName = "object"

// Type is a declared object type. Referenced by pointer, never duplicated;
// immutable once its declaration has been seen.
type Type struct {
	Name   string
	Supers []*Type
	Pos    Position

	// placeholder marks a type first seen only as a supertype name; the
	// declaration that names it fills in its real supertypes.
	placeholder bool
}

func (t *Type) String() string { return t.Name }

// Hierarchy holds all declared types of a compilation unit plus the
// reflexive-transitive subtype closure.
type Hierarchy struct {
	root  *Type
	types map[string]*Type
	order []*Type // declaration order, root first

	// ancestors[name] is the set of reflexive-transitive supertypes.
	// The closure is monotonic: declaring a new type never changes the
	// ancestor set of any previously declared type.
	ancestors map[string]map[string]bool
}

// NewHierarchy creates a hierarchy containing only the implicit root.
func NewHierarchy() *Hierarchy {
	root := &Type{Name: RootTypeName}
	h := &Hierarchy{
		root:      root,
		types:     map[string]*Type{RootTypeName: root},
		order:     []*Type{root},
		ancestors: map[string]map[string]bool{RootTypeName: {RootTypeName: true}},
	}
	return h
}

// Root returns the implicit universal root type.
func (h *Hierarchy) Root() *Type { return h.root }

// Lookup returns the named type, or nil when undeclared.
func (h *Hierarchy) Lookup(name string) *Type { return h.types[name] }

// Types returns all types in declaration order, root first.
func (h *Hierarchy) Types() []*Type { return h.order }

// Declare adds a type with the given supertype names. Supertypes that are
// not declared yet are created as direct children of the root (the corpus
// declares types in free order); a later Declare for the same name fills in
// its supertypes. Re-declaring a type with differing supertypes is an error.
func (h *Hierarchy) Declare(name string, supers []string, pos Position) (*Type, error) {
	t, exists := h.types[name]
	if exists && !t.placeholder && !h.sameSupers(t, supers) {
		return nil, fmt.Errorf("type %q was already declared with different supertypes", name)
	}
	if !exists {
		t = &Type{Name: name, Pos: pos}
		h.types[name] = t
		h.order = append(h.order, t)
	}
	t.placeholder = false
	if len(supers) > 0 {
		t.Supers = nil
		for _, s := range supers {
			super, ok := h.types[s]
			if !ok {
				super = &Type{Name: s, Pos: pos, placeholder: true}
				super.Supers = []*Type{h.root}
				h.types[s] = super
				h.order = append(h.order, super)
			}
			t.Supers = append(t.Supers, super)
		}
	} else if len(t.Supers) == 0 {
		t.Supers = []*Type{h.root}
	}
	return t, nil
}

func (h *Hierarchy) sameSupers(t *Type, supers []string) bool {
	if len(supers) == 0 {
		return len(t.Supers) == 1 && t.Supers[0] == h.root
	}
	if len(t.Supers) != len(supers) {
		return false
	}
	for i, s := range t.Supers {
		if s.Name != supers[i] {
			return false
		}
	}
	return true
}

// CycleError is returned by Resolve when the supertype relation is cyclic.
// Members lists the types on the offending cycle in traversal order.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic type hierarchy: %s", strings.Join(e.Members, " < "))
}

// Resolve finalizes the hierarchy: detects cycles and computes the
// reflexive-transitive closure used by subtype queries. It must be called
// after all Declare calls and before any IsSubtype query.
func (h *Hierarchy) Resolve() error {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(h.types))
	var cycle []string

	var visit func(t *Type, path []string) bool
	visit = func(t *Type, path []string) bool {
		switch color[t.Name] {
		case gray:
			// Found a back edge; slice the path down to the repeated member.
			for i, n := range path {
				if n == t.Name {
					cycle = append(append([]string{}, path[i:]...), t.Name)
					return true
				}
			}
			cycle = append(append([]string{}, path...), t.Name)
			return true
		case black:
			return false
		}
		color[t.Name] = gray
		for _, s := range t.Supers {
			if visit(s, append(path, t.Name)) {
				return true
			}
		}
		color[t.Name] = black
		return false
	}

	for _, t := range h.order {
		if visit(t, nil) {
			return &CycleError{Members: cycle}
		}
	}

	// Closure in topological-friendly passes: a type's ancestors are itself
	// plus the ancestors of its supertypes. DFS memoization keeps this one
	// pass per type.
	var collect func(t *Type) map[string]bool
	collect = func(t *Type) map[string]bool {
		if a, ok := h.ancestors[t.Name]; ok {
			return a
		}
		a := map[string]bool{t.Name: true}
		for _, s := range t.Supers {
			for n := range collect(s) {
				a[n] = true
			}
		}
		h.ancestors[t.Name] = a
		return a
	}
	for _, t := range h.order {
		collect(t)
	}
	return nil
}

// IsSubtype reports whether sub is a reflexive-transitive subtype of super.
func (h *Hierarchy) IsSubtype(sub, super *Type) bool {
	if sub == nil || super == nil {
		return false
	}
	if a, ok := h.ancestors[sub.Name]; ok {
		return a[super.Name]
	}
	// Resolve not called yet; fall back to reachability.
	seen := map[string]bool{}
	var walk func(t *Type) bool
	walk = func(t *Type) bool {
		if t.Name == super.Name {
			return true
		}
		if seen[t.Name] {
			return false
		}
		seen[t.Name] = true
		for _, s := range t.Supers {
			if walk(s) {
				return true
			}
		}
		return false
	}
	return walk(sub)
}
