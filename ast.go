// ast.go — dialect ASTs produced by the two parsers.
//
// Both parsers emit plain syntax trees; no name resolution or type checking
// happens here. The semantic builder walks these and produces the IR.
package planc

// Expr is a syntactic expression node.
type Expr interface {
	Pos() Position
	exprNode()
}

// Literal is a numeric or boolean constant.
type Literal struct {
	P     Position
	IsInt bool
	Int   int64
	Float float64
	Bool  bool
	Kind  LiteralKind
}

type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
)

// Ref is a name use: a fluent/predicate application, an instance, a
// parameter, or a bare constant. Args is nil for a bare name.
type Ref struct {
	P    Position
	Name string
	Args []Expr
}

// Wildcard is the '*' placeholder argument in fact-table entries.
type Wildcard struct {
	P Position
}

// Unary is a prefix operator application ("-" or "not").
type Unary struct {
	P  Position
	Op string
	X  Expr
}

// Binary is an infix operator application.
type Binary struct {
	P    Position
	Op   string // "+" "-" "*" "/" "<" "<=" ">" ">=" "==" "!=" "and" "or" "xor" "implies" ":=" ":+=" ":-="
	X, Y Expr
}

// Quant is a quantified boolean expression, `forall(T v) { e1; e2; }` or
// `exists(...)`. The body expressions are conjoined.
type Quant struct {
	P      Position
	Exists bool
	Vars   []Param
	Body   []Expr
}

func (e *Literal) Pos() Position  { return e.P }
func (e *Ref) Pos() Position      { return e.P }
func (e *Wildcard) Pos() Position { return e.P }
func (e *Unary) Pos() Position    { return e.P }
func (e *Binary) Pos() Position   { return e.P }
func (e *Quant) Pos() Position    { return e.P }

func (*Literal) exprNode()  {}
func (*Ref) exprNode()      {}
func (*Wildcard) exprNode() {}
func (*Unary) exprNode()    {}
func (*Binary) exprNode()   {}
func (*Quant) exprNode()    {}

// TypeExpr is a syntactic value-type reference: boolean, integer with
// optional bounds, float, or a declared object type by name.
type TypeExpr struct {
	P       Position
	Kind    ValueKind
	Name    string // object type name when Kind == ValueObject
	Bounded bool   // integer/float with declared [lo, hi]
	Lo, Hi  Expr
}

// Param is a typed formal parameter.
type Param struct {
	P    Position
	Name string
	Type TypeExpr
}

// IntervalSyntax is an unresolved temporal qualifier as written, e.g.
// [start], [all], [start+2, end), (1 + start, end]. Lo/Hi hold the raw
// endpoint expressions in which "start" and "end" appear as Refs.
type IntervalSyntax struct {
	P          Position
	Paren      bool // opened with '(' rather than '['
	OpenLower  bool
	OpenUpper  bool
	Lo         Expr
	Hi         Expr // nil for instant forms
	HasComma   bool
	IsAllToken bool // the literal [all] / (all) form
}

// --- temporal dialect (ANML-style) ---

// TemporalFile is the AST of one temporal-dialect compilation unit.
type TemporalFile struct {
	Name  string // source file name, used in diagnostics
	Decls []Decl
}

// Decl is a top-level temporal-dialect declaration or statement.
type Decl interface {
	Pos() Position
	declNode()
}

// TypeDecl is `type A < B < C;`. Multiple supertypes feed the DAG.
type TypeDecl struct {
	P      Position
	Name   string
	Supers []string
}

// InstanceDecl is `instance T a, b, c;`.
type InstanceDecl struct {
	P     Position
	Type  TypeExpr
	Names []string
}

// FluentDecl is `fluent`/`constant` with optional parameters and optional
// inline initialization (`fluent boolean ok := true;`).
type FluentDecl struct {
	P        Position
	Constant bool
	Value    TypeExpr
	Name     string
	Params   []Param
	Init     Expr // nil when absent
}

// ActionDecl is an action template: parameters plus a body of duration
// constraints and qualifier-prefixed statements.
type ActionDecl struct {
	P      Position
	Name   string
	Params []Param
	Body   []ActionStmt
}

// ActionStmt is one statement inside an action body.
type ActionStmt interface {
	Pos() Position
	actionStmtNode()
}

// DurationStmt is one relational constraint on the action's duration:
// `duration := e`, `duration == e`, `duration <= e`, or the bounded form
// `duration :in [lo, hi]` (delivered as two DurationStmts by the parser).
type DurationStmt struct {
	P    Position
	Op   string // ":=" "==" "<" "<=" ">" ">="
	Expr Expr
}

// TimedStmt is a condition or effect anchored to a temporal qualifier.
// A `{ }` block sharing one qualifier is flattened into one TimedStmt per
// inner statement, each carrying the shared qualifier.
type TimedStmt struct {
	P        Position
	Interval *IntervalSyntax // nil means the dialect's default anchor
	Expr     Expr
}

// WhenStmt is a conditional effect inside an action body: the effect
// statements apply only in states where the condition holds.
type WhenStmt struct {
	P       Position
	Cond    *TimedStmt
	Effects []*TimedStmt
}

// GoalDecl is a `goal { ... }` block or `goal <timed-stmt>;`.
type GoalDecl struct {
	P     Position
	Items []*TimedStmt
}

func (d *TypeDecl) Pos() Position     { return d.P }
func (d *InstanceDecl) Pos() Position { return d.P }
func (d *FluentDecl) Pos() Position   { return d.P }
func (d *ActionDecl) Pos() Position   { return d.P }
func (d *GoalDecl) Pos() Position     { return d.P }
func (d *TimedStmt) Pos() Position    { return d.P }
func (d *DurationStmt) Pos() Position { return d.P }
func (d *WhenStmt) Pos() Position     { return d.P }

func (*TypeDecl) declNode()     {}
func (*InstanceDecl) declNode() {}
func (*FluentDecl) declNode()   {}
func (*ActionDecl) declNode()   {}
func (*GoalDecl) declNode()     {}
func (*TimedStmt) declNode()    {}

func (*DurationStmt) actionStmtNode() {}
func (*TimedStmt) actionStmtNode()    {}
func (*WhenStmt) actionStmtNode()     {}

// --- hierarchical dialect (S-expression HTN) ---

// HTNFile is the AST of one hierarchical-dialect compilation unit.
type HTNFile struct {
	Name         string // source file name
	DomainName   string
	Requirements []string
	Types        []TypeDecl // reuses (name, supertypes) pairs; one super each
	Predicates   []*PredicateDecl
	Tasks        []*TaskDecl
	Methods      []*MethodDecl
	Actions      []*HTNAction
}

// PredicateDecl is one entry of the :predicates section.
type PredicateDecl struct {
	P      Position
	Name   string
	Params []Param
}

// TaskDecl is a compound task header: name and typed parameters, no body.
type TaskDecl struct {
	P      Position
	Name   string
	Params []Param
}

// SubtaskRef is one subtask occurrence inside a method's network.
type SubtaskRef struct {
	P    Position
	Name string   // declared task or primitive action name
	Args []string // method parameter names
}

// MethodDecl decomposes exactly one task into a subtask network.
type MethodDecl struct {
	P        Position
	Name     string
	Params   []Param
	Task     SubtaskRef // the task this method decomposes
	Precond  Expr       // nil when absent
	Subtasks []SubtaskRef
	Ordered  bool // :ordered-subtasks vs :subtasks
}

// HTNAction is a primitive action of the hierarchical dialect.
type HTNAction struct {
	P       Position
	Name    string
	Params  []Param
	Precond Expr // nil when absent
	Effect  Expr // nil when absent; `and`/`not` tree of literals
}
