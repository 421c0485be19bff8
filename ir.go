// ir.go — the validated intermediate representation.
//
// Domain and Problem are built once by the semantic builder and never
// mutated afterwards, so any number of downstream consumers (grounders,
// planners) can share them without synchronization. Expression bodies are
// the checked AST nodes themselves; after validation they are treated as
// immutable.
package planc

import "fmt"

// ValueKind classifies a signature's value or parameter type.
type ValueKind int

const (
	ValueBool ValueKind = iota
	ValueInt
	ValueFloat
	ValueObject
)

func (k ValueKind) String() string {
	switch k {
	case ValueBool:
		return "boolean"
	case ValueInt:
		return "integer"
	case ValueFloat:
		return "float"
	case ValueObject:
		return "object"
	}
	return "unknown"
}

// ValueType is a resolved value type: boolean, integer (optionally bounded
// to [Lo, Hi]), float, or a declared object type.
type ValueType struct {
	Kind      ValueKind
	Object    *Type // set when Kind == ValueObject
	HasBounds bool
	Lo, Hi    float64
}

func (v ValueType) String() string {
	switch {
	case v.Kind == ValueObject && v.Object != nil:
		return v.Object.Name
	case v.Kind == ValueInt && v.HasBounds:
		return fmt.Sprintf("integer [%g, %g]", v.Lo, v.Hi)
	default:
		return v.Kind.String()
	}
}

// Instance is a named object bound to exactly one declared type.
type Instance struct {
	Name string
	Type *Type
}

// IRParam is a resolved typed parameter of an action, task, or signature.
type IRParam struct {
	Name string
	Type ValueType
}

// DurationConstraint is one relational constraint over an action's duration
// variable. Multiple constraints in one body conjoin; they are never
// collapsed into a single exact value.
type DurationConstraint struct {
	Op   string // ":=" "==" "<" "<=" ">" ">="
	Expr Expr
}

// Statement is a validated condition or effect anchored to a qualifier.
type Statement struct {
	Qual Qualifier

	// Effect fields; Target/Op/Value are set when IsEffect.
	IsEffect bool
	Target   *Ref
	Op       string // ":=" ":+=" ":-="
	Value    Expr

	// Condition expression when !IsEffect.
	Cond Expr

	// When guards a conditional effect; nil for unconditional statements.
	When *Statement
}

// ActionTemplate is a durative action: typed parameters, duration
// constraints and timed statements. Grounding happens downstream.
type ActionTemplate struct {
	Name       string
	Params     []IRParam
	Duration   []DurationConstraint
	Statements []*Statement
}

// Task is a compound task header of the hierarchical dialect.
type Task struct {
	Name   string
	Params []IRParam
}

// Subtask is one resolved subtask reference in a method's network.
type Subtask struct {
	Name     string
	IsAction bool // resolved to a primitive action rather than a task
	Args     []string
}

// Method decomposes one task into an ordered or unordered subtask network.
type Method struct {
	Name     string
	Params   []IRParam
	Task     *Task
	TaskArgs []string
	Precond  Expr // nil when absent
	Subtasks []Subtask
	Ordered  bool
}

// Value is a concrete initial-state value after wildcard resolution.
type Value struct {
	Kind   ValueKind
	Int    int64
	Float  float64
	Bool   bool
	Object string // instance name when Kind == ValueObject
}

func (v Value) String() string {
	switch v.Kind {
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueFloat:
		return fmt.Sprintf("%g", v.Float)
	default:
		return v.Object
	}
}

// Assignment is one resolved initial-state fact: a fluent applied to
// concrete instance names, with its value.
type Assignment struct {
	Fluent string
	Args   []string
	Value  Value
}

// Domain is the closed set of types, signatures, action templates and
// task/method definitions for one compilation unit.
type Domain struct {
	Name       string
	Types      *Hierarchy
	Signatures *SignatureTable
	Actions    []*ActionTemplate
	Tasks      []*Task
	Methods    []*Method
}

// Task returns the declared task with the given name, or nil.
func (d *Domain) Task(name string) *Task {
	for _, t := range d.Tasks {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Action returns the action template with the given name, or nil.
func (d *Domain) Action(name string) *ActionTemplate {
	for _, a := range d.Actions {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Problem holds instances, the resolved initial state, and goal conditions,
// referencing exactly one Domain.
type Problem struct {
	Domain    *Domain
	Instances []*Instance
	Init      []Assignment
	Goals     []*Statement
}

// Instance returns the named instance, or nil.
func (p *Problem) Instance(name string) *Instance {
	for _, in := range p.Instances {
		if in.Name == name {
			return in
		}
	}
	return nil
}

// InstancesOf returns the names of all instances whose type is t or a
// subtype of t, in declaration order.
func (p *Problem) InstancesOf(t *Type) []string {
	var out []string
	for _, in := range p.Instances {
		if p.Domain.Types.IsSubtype(in.Type, t) {
			out = append(out, in.Name)
		}
	}
	return out
}
