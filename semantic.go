// semantic.go — the semantic builder for the temporal dialect, plus the
// compilation entry points shared by both dialects.
//
// The builder walks the dialect ASTs using the hierarchy resolver, the
// signature table and the qualifier resolver, reporting everything it finds
// to the unit's diagnostics collector. Non-fatal errors do not stop the
// walk: unresolved names get best-effort fallback bindings so independent
// errors later in the file still surface in one pass. Only a cyclic type
// hierarchy halts building, since no sound IR exists past that point.
package planc

import (
	"strings"
)

// Dialect identifies the surface syntax of a compilation unit.
type Dialect int

const (
	DialectTemporal Dialect = iota
	DialectHierarchical
)

// DetectDialect chooses the parser by the file's distinguishing opening
// construct: a hierarchical file begins with `(define`.
func DetectDialect(src string) Dialect {
	i := 0
	for i < len(src) {
		switch {
		case src[i] == ' ' || src[i] == '\t' || src[i] == '\r' || src[i] == '\n':
			i++
		case src[i] == ';': // hierarchical line comment
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
		default:
			rest := src[i:]
			if strings.HasPrefix(rest, "(") {
				rest = strings.TrimLeft(rest[1:], " \t\r\n")
				if strings.HasPrefix(rest, "define") {
					return DialectHierarchical
				}
			}
			return DialectTemporal
		}
	}
	return DialectTemporal
}

// Result is the outcome of compiling one unit.
type Result struct {
	Domain  *Domain
	Problem *Problem
	Diags   *Diagnostics
}

// Usable reports whether the IR may be handed to downstream consumers.
func (r *Result) Usable() bool { return r.Diags.Clean() }

// Compile parses and semantically checks one source file, dispatching on
// the detected dialect.
func Compile(filename, src string) *Result {
	diags := NewDiagnostics(filename)
	if DetectDialect(src) == DialectHierarchical {
		file := ParseHTN(filename, src, diags)
		return buildHTN(file, diags)
	}
	file := ParseTemporal(filename, src, diags)
	return buildTemporal(file, diags)
}

// --- temporal-dialect building ---

// initEntry is one pre-resolution initial-state assignment; args may be
// wildcards.
type initEntry struct {
	fluent    *Signature
	args      []initArg
	value     Value
	pos       Position
	declIndex int
	wildcards int
}

type initArg struct {
	wildcard bool
	name     string // instance name when !wildcard
}

type builder struct {
	diags *Diagnostics
	hier  *Hierarchy
	sigs  *SignatureTable
	dom   *Domain
	prob  *Problem

	instances map[string]*Instance
	inits     []initEntry
}

func buildTemporal(file *TemporalFile, diags *Diagnostics) *Result {
	b := &builder{
		diags:     diags,
		hier:      NewHierarchy(),
		instances: map[string]*Instance{},
	}
	b.sigs = NewSignatureTable(b.hier)
	b.dom = &Domain{Name: file.Name, Types: b.hier, Signatures: b.sigs}
	b.prob = &Problem{Domain: b.dom}
	res := &Result{Domain: b.dom, Problem: b.prob, Diags: diags}

	// Pass 1: types. The hierarchy must be closed before anything is
	// type-checked.
	for _, d := range file.Decls {
		td, ok := d.(*TypeDecl)
		if !ok {
			continue
		}
		if _, err := b.hier.Declare(td.Name, td.Supers, td.P); err != nil {
			diags.Report(td.P, KindDuplicate, "%s", err.Error())
		}
	}
	if err := b.hier.Resolve(); err != nil {
		ce := err.(*CycleError)
		pos := Position{Line: 1, Col: 1}
		if t := b.hier.Lookup(ce.Members[0]); t != nil {
			pos = t.Pos
		}
		diags.Report(pos, KindCyclicHierarchy, "%s", ce.Error())
		return res
	}

	// Pass 2: signatures and instances, so free declaration order (use
	// before declaration) works.
	for _, d := range file.Decls {
		switch dd := d.(type) {
		case *FluentDecl:
			b.declareFluent(dd)
		case *InstanceDecl:
			b.declareInstances(dd)
		case *ActionDecl:
			b.declareActionSig(dd)
		}
	}

	// Pass 3: bodies, initial state and goals.
	declIndex := 0
	for _, d := range file.Decls {
		switch dd := d.(type) {
		case *FluentDecl:
			if dd.Init != nil {
				b.fluentInlineInit(dd, declIndex)
				declIndex++
			}
		case *ActionDecl:
			b.buildAction(dd)
		case *TimedStmt:
			b.topLevelStmt(dd, &declIndex)
		case *timedGroup:
			for _, ts := range dd.Items {
				b.topLevelStmt(ts, &declIndex)
			}
		case *GoalDecl:
			for _, ts := range dd.Items {
				b.goalStmt(ts)
			}
		}
	}

	b.resolveWildcards()
	return res
}

// resolveValueType turns a syntactic type expression into a resolved one,
// falling back to the root object type when the name is unknown.
func (b *builder) resolveValueType(te TypeExpr) ValueType {
	switch te.Kind {
	case ValueObject:
		t := b.hier.Lookup(te.Name)
		if t == nil {
			b.diags.Report(te.P, KindUndefined, "unknown type %q", te.Name)
			t = b.hier.Root()
		}
		return ValueType{Kind: ValueObject, Object: t}
	case ValueInt, ValueFloat:
		vt := ValueType{Kind: te.Kind}
		if te.Bounded {
			lo, okLo := foldConst(te.Lo)
			hi, okHi := foldConst(te.Hi)
			if !okLo || !okHi {
				b.diags.Report(te.P, KindSyntax, "numeric type bounds must be literal")
			} else {
				vt.HasBounds, vt.Lo, vt.Hi = true, lo, hi
				if lo > hi {
					b.diags.Report(te.P, KindSyntax, "numeric type lower bound %g exceeds upper bound %g", lo, hi)
				}
			}
		}
		return vt
	default:
		return ValueType{Kind: ValueBool}
	}
}

func (b *builder) resolveParams(params []Param) []IRParam {
	out := make([]IRParam, 0, len(params))
	for _, p := range params {
		out = append(out, IRParam{Name: p.Name, Type: b.resolveValueType(p.Type)})
	}
	return out
}

func (b *builder) declareFluent(d *FluentDecl) {
	kind := SymFluent
	if d.Constant {
		kind = SymConstant
	}
	sig := &Signature{
		Name:   d.Name,
		Kind:   kind,
		Params: b.resolveParams(d.Params),
		Value:  b.resolveValueType(d.Value),
		Pos:    d.P,
	}
	if err := b.sigs.Register(sig); err != nil {
		b.diags.Report(d.P, KindDuplicate, "%s", err.Error())
	}
}

func (b *builder) declareInstances(d *InstanceDecl) {
	vt := b.resolveValueType(d.Type)
	if vt.Kind != ValueObject {
		b.diags.Report(d.P, KindArityOrType, "instances require an object type, not %s", vt.String())
		return
	}
	for _, name := range d.Names {
		if prev, ok := b.instances[name]; ok {
			if prev.Type == vt.Object {
				continue
			}
			b.diags.Report(d.P, KindDuplicate, "instance %q was already declared with type %q", name, prev.Type.Name)
			continue
		}
		in := &Instance{Name: name, Type: vt.Object}
		b.instances[name] = in
		b.prob.Instances = append(b.prob.Instances, in)
	}
}

func (b *builder) declareActionSig(d *ActionDecl) {
	sig := &Signature{
		Name:   d.Name,
		Kind:   SymAction,
		Params: b.resolveParams(d.Params),
		Value:  ValueType{Kind: ValueBool},
		Pos:    d.P,
	}
	if err := b.sigs.Register(sig); err != nil {
		b.diags.Report(d.P, KindDuplicate, "%s", err.Error())
	}
}

// scope is the local name environment inside an action body.
type scope struct {
	params map[string]ValueType
}

func (b *builder) buildAction(d *ActionDecl) {
	act := &ActionTemplate{Name: d.Name, Params: b.resolveParams(d.Params)}
	sc := &scope{params: map[string]ValueType{}}
	paramNames := map[string]bool{}
	for _, p := range act.Params {
		sc.params[p.Name] = p.Type
		paramNames[p.Name] = true
	}

	for _, stmt := range d.Body {
		switch s := stmt.(type) {
		case *DurationStmt:
			b.buildDuration(act, s, sc)
		case *TimedStmt:
			st := b.buildStatement(s, sc, paramNames, false)
			if st != nil {
				act.Statements = append(act.Statements, st)
			}
		case *WhenStmt:
			b.buildWhen(act, s, sc, paramNames)
		}
	}
	b.dom.Actions = append(b.dom.Actions, act)
}

// buildWhen attaches the guard to every effect of a conditional block.
// The guard is an ordinary condition statement; an untimed guard holds
// over the whole span like any other in-action condition.
func (b *builder) buildWhen(act *ActionTemplate, s *WhenStmt, sc *scope, paramNames map[string]bool) {
	cond := b.buildStatement(s.Cond, sc, paramNames, false)
	if cond != nil && cond.IsEffect {
		b.diags.Report(s.Cond.P, KindSyntax, "'when' takes a condition, not an assignment")
		cond = nil
	}
	for _, e := range s.Effects {
		st := b.buildStatement(e, sc, paramNames, false)
		if st == nil {
			continue
		}
		if !st.IsEffect {
			b.diags.Report(e.P, KindSyntax, "'when' block entries must be assignments")
			continue
		}
		if cond != nil {
			st.When = cond
			act.Statements = append(act.Statements, st)
		}
	}
}

// buildDuration validates one relational duration constraint. The operand
// must be numeric over literals and the action's own parameters.
func (b *builder) buildDuration(act *ActionTemplate, s *DurationStmt, sc *scope) {
	vt := b.exprType(s.Expr, sc)
	if vt != nil && vt.Kind != ValueInt && vt.Kind != ValueFloat {
		b.diags.Report(s.P, KindMalformedDuration,
			"duration constraint requires a numeric operand, got %s", vt.String())
		return
	}
	act.Duration = append(act.Duration, DurationConstraint{Op: s.Op, Expr: s.Expr})
}

// buildStatement resolves the qualifier and classifies the statement as a
// condition or an effect. topLevel statements use the dialect's top-level
// defaults instead of the in-action ones.
func (b *builder) buildStatement(s *TimedStmt, sc *scope, paramNames map[string]bool, topLevel bool) *Statement {
	isEffect := false
	if bin, ok := s.Expr.(*Binary); ok {
		switch bin.Op {
		case ":=", ":+=", ":-=":
			isEffect = true
		}
	}

	var qual Qualifier
	if s.Interval == nil {
		// Untimed in-action statements: conditions hold over the whole
		// span, effects land at the end.
		if isEffect {
			qual = AtEnd()
		} else {
			qual = OverAll()
		}
	} else {
		q, err := ResolveQualifier(s.Interval, paramNames)
		if err != nil {
			b.diags.Report(s.Interval.P, KindInvalidQualifier, "%s %s", describeInterval(s.Interval), err.Error())
			return nil
		}
		qual = q
	}

	if isEffect {
		bin := s.Expr.(*Binary)
		target, ok := bin.X.(*Ref)
		if !ok {
			b.diags.Report(bin.X.Pos(), KindSyntax, "left side of %q must be a fluent application", bin.Op)
			return nil
		}
		sig := b.checkTargetRef(target, sc)
		valT := b.exprType(bin.Y, sc)
		if sig != nil {
			if sig.Kind == SymConstant {
				b.diags.Report(target.P, KindArityOrType, "constant %q cannot appear as an effect target", sig.Name)
			}
			if valT != nil && !b.sigs.assignable(*valT, sig.Value) {
				b.diags.Report(bin.Y.Pos(), KindArityOrType,
					"cannot assign %s to %s %q of type %s", valT.String(), sig.Kind, sig.Name, sig.Value.String())
			}
			if bin.Op != ":=" && sig.Value.Kind != ValueInt && sig.Value.Kind != ValueFloat {
				b.diags.Report(target.P, KindArityOrType, "%q requires a numeric fluent", bin.Op)
			}
		}
		return &Statement{Qual: qual, IsEffect: true, Target: target, Op: bin.Op, Value: bin.Y}
	}

	vt := b.exprType(s.Expr, sc)
	if vt != nil && vt.Kind != ValueBool {
		b.diags.Report(s.Expr.Pos(), KindArityOrType, "condition must be boolean, got %s", vt.String())
	}
	return &Statement{Qual: qual, Cond: s.Expr}
}

// checkTargetRef checks an effect target's arity and argument types and
// returns its signature (nil when unresolved).
func (b *builder) checkTargetRef(r *Ref, sc *scope) *Signature {
	sig := b.sigs.Lookup(r.Name)
	if sig == nil {
		b.diags.Report(r.P, KindUndefined, "undefined fluent %q", r.Name)
		return nil
	}
	argTypes := make([]*ValueType, len(r.Args))
	for i, a := range r.Args {
		if _, ok := a.(*Wildcard); ok {
			// Wildcards are checked during initial-state resolution; here
			// they type as the declared parameter type.
			if i < len(sig.Params) {
				t := sig.Params[i].Type
				argTypes[i] = &t
			}
			continue
		}
		argTypes[i] = b.exprType(a, sc)
	}
	if err := b.sigs.CheckCall(sig, argTypes); err != nil {
		b.diags.Report(r.P, KindArityOrType, "%s", err.Error())
	}
	return sig
}

// exprType type-checks an expression and returns its resolved type, or nil
// when it could not be typed (the error is already reported).
func (b *builder) exprType(e Expr, sc *scope) *ValueType {
	switch x := e.(type) {
	case *Literal:
		switch x.Kind {
		case LitInt:
			return &ValueType{Kind: ValueInt}
		case LitFloat:
			return &ValueType{Kind: ValueFloat}
		default:
			return &ValueType{Kind: ValueBool}
		}
	case *Wildcard:
		b.diags.Report(x.P, KindSyntax, "wildcard '*' is only allowed as a fact-table argument")
		return nil
	case *Ref:
		return b.refType(x, sc)
	case *Unary:
		t := b.exprType(x.X, sc)
		if t == nil {
			return nil
		}
		if x.Op == "-" {
			if t.Kind != ValueInt && t.Kind != ValueFloat {
				b.diags.Report(x.P, KindArityOrType, "operator '-' requires a numeric operand, got %s", t.String())
				return nil
			}
			return t
		}
		if t.Kind != ValueBool {
			b.diags.Report(x.P, KindArityOrType, "operator 'not' requires a boolean operand, got %s", t.String())
			return nil
		}
		return t
	case *Binary:
		return b.binaryType(x, sc)
	case *Quant:
		return b.quantType(x, sc)
	default:
		return nil
	}
}

// quantType checks a forall/exists expression. The quantified variables
// extend the enclosing scope and shadow parameters of the same name.
func (b *builder) quantType(x *Quant, sc *scope) *ValueType {
	inner := &scope{params: map[string]ValueType{}}
	if sc != nil {
		for k, v := range sc.params {
			inner.params[k] = v
		}
	}
	for _, p := range x.Vars {
		inner.params[p.Name] = b.resolveValueType(p.Type)
	}
	for _, e := range x.Body {
		t := b.exprType(e, inner)
		if t != nil && t.Kind != ValueBool {
			b.diags.Report(e.Pos(), KindArityOrType, "quantifier body must be boolean, got %s", t.String())
		}
	}
	return &ValueType{Kind: ValueBool}
}

func (b *builder) binaryType(x *Binary, sc *scope) *ValueType {
	switch x.Op {
	case ":=", ":+=", ":-=":
		b.diags.Report(x.P, KindSyntax, "assignment %q cannot be nested inside an expression", x.Op)
		return nil
	case "+", "-", "*", "/":
		lt := b.exprType(x.X, sc)
		rt := b.exprType(x.Y, sc)
		for _, t := range []*ValueType{lt, rt} {
			if t != nil && t.Kind != ValueInt && t.Kind != ValueFloat {
				b.diags.Report(x.P, KindArityOrType, "operator %q requires numeric operands, got %s", x.Op, t.String())
				return nil
			}
		}
		if lt == nil || rt == nil {
			return nil
		}
		if lt.Kind == ValueFloat || rt.Kind == ValueFloat || x.Op == "/" {
			return &ValueType{Kind: ValueFloat}
		}
		return &ValueType{Kind: ValueInt}
	case "<", "<=", ">", ">=":
		for _, side := range []Expr{x.X, x.Y} {
			t := b.exprType(side, sc)
			if t != nil && t.Kind != ValueInt && t.Kind != ValueFloat {
				b.diags.Report(side.Pos(), KindArityOrType, "operator %q requires numeric operands, got %s", x.Op, t.String())
			}
		}
		return &ValueType{Kind: ValueBool}
	case "==", "!=":
		lt := b.exprType(x.X, sc)
		rt := b.exprType(x.Y, sc)
		if lt != nil && rt != nil && !comparable(*lt, *rt, b.hier) {
			b.diags.Report(x.P, KindArityOrType, "cannot compare %s with %s", lt.String(), rt.String())
		}
		return &ValueType{Kind: ValueBool}
	case "and", "or", "xor", "implies":
		for _, side := range []Expr{x.X, x.Y} {
			t := b.exprType(side, sc)
			if t != nil && t.Kind != ValueBool {
				b.diags.Report(side.Pos(), KindArityOrType, "operator %q requires boolean operands, got %s", x.Op, t.String())
			}
		}
		return &ValueType{Kind: ValueBool}
	default:
		return nil
	}
}

func comparable(a, b ValueType, h *Hierarchy) bool {
	if a.Kind == ValueObject && b.Kind == ValueObject {
		return h.IsSubtype(a.Object, b.Object) || h.IsSubtype(b.Object, a.Object)
	}
	if a.Kind == b.Kind {
		return true
	}
	numeric := func(k ValueKind) bool { return k == ValueInt || k == ValueFloat }
	return numeric(a.Kind) && numeric(b.Kind)
}

func (b *builder) refType(r *Ref, sc *scope) *ValueType {
	if sc != nil {
		if t, ok := sc.params[r.Name]; ok {
			if r.Args != nil {
				b.diags.Report(r.P, KindArityOrType, "parameter %q is not callable", r.Name)
				return nil
			}
			return &t
		}
	}
	if in, ok := b.instances[r.Name]; ok && r.Args == nil {
		return &ValueType{Kind: ValueObject, Object: in.Type}
	}
	sig := b.sigs.Lookup(r.Name)
	if sig == nil {
		b.diags.Report(r.P, KindUndefined, "undefined symbol %q", r.Name)
		return nil
	}
	args := r.Args
	if args == nil {
		args = []Expr{}
	}
	argTypes := make([]*ValueType, len(args))
	for i, a := range args {
		argTypes[i] = b.exprType(a, sc)
	}
	if err := b.sigs.CheckCall(sig, argTypes); err != nil {
		b.diags.Report(r.P, KindArityOrType, "%s", err.Error())
		v := sig.Value
		return &v
	}
	v := sig.Value
	return &v
}

// --- initial state and goals ---

// topLevelStmt routes a bare timed statement: assignments feed the fact
// table, conditions join the goal set.
func (b *builder) topLevelStmt(s *TimedStmt, declIndex *int) {
	if bin, ok := s.Expr.(*Binary); ok && bin.Op == ":=" {
		b.initAssignment(s, bin, *declIndex)
		*declIndex++
		return
	}
	if bin, ok := s.Expr.(*Binary); ok && (bin.Op == ":+=" || bin.Op == ":-=") {
		b.diags.Report(s.P, KindSyntax, "%q is only valid inside an action body", bin.Op)
		return
	}
	b.goalStmt(s)
}

// goalStmt accumulates one condition into the conjunctive goal set.
// Untimed goals anchor at end.
func (b *builder) goalStmt(s *TimedStmt) {
	st := b.buildGoalStatement(s)
	if st != nil {
		b.prob.Goals = append(b.prob.Goals, st)
	}
}

func (b *builder) buildGoalStatement(s *TimedStmt) *Statement {
	qual := AtEnd()
	if s.Interval != nil {
		q, err := ResolveQualifier(s.Interval, nil)
		if err != nil {
			b.diags.Report(s.Interval.P, KindInvalidQualifier, "%s %s", describeInterval(s.Interval), err.Error())
			return nil
		}
		qual = q
	}
	if bin, ok := s.Expr.(*Binary); ok {
		switch bin.Op {
		case ":=", ":+=", ":-=":
			b.diags.Report(s.P, KindSyntax, "a goal must be a condition, not an assignment")
			return nil
		}
	}
	vt := b.exprType(s.Expr, nil)
	if vt != nil && vt.Kind != ValueBool {
		b.diags.Report(s.Expr.Pos(), KindArityOrType, "goal condition must be boolean, got %s", vt.String())
	}
	return &Statement{Qual: qual, Cond: s.Expr}
}

// initAssignment records one fact-table entry, wildcards included.
func (b *builder) initAssignment(s *TimedStmt, bin *Binary, declIndex int) {
	if s.Interval != nil {
		q, err := ResolveQualifier(s.Interval, nil)
		if err != nil {
			b.diags.Report(s.Interval.P, KindInvalidQualifier, "%s %s", describeInterval(s.Interval), err.Error())
			return
		}
		// Outside an action, `start` is the plan start, the same instant
		// as the absolute tick 0.
		if q.Kind != QualInstant || q.At.Anchor == AnchorEnd || q.At.Anchor == AnchorAll {
			b.diags.Report(s.Interval.P, KindInvalidQualifier,
				"initial-state assignments require the plan-start instant, got %s", q.String())
			return
		}
		if v, ok := foldConstOrZero(q.At.Offset); !ok || v != 0 {
			b.diags.Report(s.Interval.P, KindInvalidQualifier,
				"timed initial assignments beyond tick 0 are not supported")
			return
		}
	}
	target, ok := bin.X.(*Ref)
	if !ok {
		b.diags.Report(bin.X.Pos(), KindSyntax, "left side of ':=' must be a fluent application")
		return
	}
	sig := b.checkTargetRef(target, nil)
	if sig == nil {
		return
	}
	val, ok := b.constValue(bin.Y, sig.Value)
	if !ok {
		return
	}
	entry := initEntry{fluent: sig, value: val, pos: target.P, declIndex: declIndex}
	args := target.Args
	if args == nil {
		args = []Expr{}
	}
	for _, a := range args {
		switch arg := a.(type) {
		case *Wildcard:
			entry.args = append(entry.args, initArg{wildcard: true})
			entry.wildcards++
		case *Ref:
			if arg.Args != nil {
				b.diags.Report(arg.P, KindSyntax, "fact-table arguments must be instances or wildcards")
				return
			}
			entry.args = append(entry.args, initArg{name: arg.Name})
		default:
			b.diags.Report(a.Pos(), KindSyntax, "fact-table arguments must be instances or wildcards")
			return
		}
	}
	b.inits = append(b.inits, entry)
}

// fluentInlineInit treats `fluent T f(...) := v;` as a default for every
// tuple: a fact-table entry with a wildcard in every position.
func (b *builder) fluentInlineInit(d *FluentDecl, declIndex int) {
	sig := b.sigs.Lookup(d.Name)
	if sig == nil {
		return
	}
	val, ok := b.constValue(d.Init, sig.Value)
	if !ok {
		return
	}
	entry := initEntry{fluent: sig, value: val, pos: d.P, declIndex: declIndex}
	for range sig.Params {
		entry.args = append(entry.args, initArg{wildcard: true})
		entry.wildcards++
	}
	b.inits = append(b.inits, entry)
}

// constValue evaluates an initial-state value: a literal (folded), or an
// instance name for object-typed fluents.
func (b *builder) constValue(e Expr, want ValueType) (Value, bool) {
	if r, ok := e.(*Ref); ok && r.Args == nil {
		in, ok := b.instances[r.Name]
		if !ok {
			b.diags.Report(r.P, KindUndefined, "undefined instance %q", r.Name)
			return Value{}, false
		}
		if want.Kind != ValueObject || !b.hier.IsSubtype(in.Type, want.Object) {
			b.diags.Report(r.P, KindArityOrType, "cannot assign instance %q (%s) to a %s fluent",
				in.Name, in.Type.Name, want.String())
			return Value{}, false
		}
		return Value{Kind: ValueObject, Object: in.Name}, true
	}
	if lit, ok := e.(*Literal); ok && lit.Kind == LitBool {
		if want.Kind != ValueBool {
			b.diags.Report(e.Pos(), KindArityOrType, "cannot assign a boolean to a %s fluent", want.String())
			return Value{}, false
		}
		return Value{Kind: ValueBool, Bool: lit.Bool}, true
	}
	if v, ok := foldConst(e); ok {
		switch want.Kind {
		case ValueInt:
			return Value{Kind: ValueInt, Int: int64(v)}, true
		case ValueFloat:
			return Value{Kind: ValueFloat, Float: v}, true
		default:
			b.diags.Report(e.Pos(), KindArityOrType, "cannot assign a number to a %s fluent", want.String())
			return Value{}, false
		}
	}
	b.diags.Report(e.Pos(), KindSyntax, "initial values must be literals or instance names")
	return Value{}, false
}

// --- wildcard/default resolution ---

// resolveWildcards applies the layered fact-table policy: explicit tuples
// always win; wildcard entries fill the remaining tuples, most specific
// first (fewest wildcard positions), first-declared on ties.
func (b *builder) resolveWildcards() {
	assigned := map[string]bool{}
	key := func(name string, args []string) string {
		return name + "(" + strings.Join(args, ",") + ")"
	}

	// Explicit entries first, in declaration order; a later explicit entry
	// for the same tuple replaces the earlier value.
	valueAt := map[string]int{} // key -> index into prob.Init
	for _, e := range b.inits {
		if e.wildcards > 0 {
			continue
		}
		args := make([]string, len(e.args))
		for i, a := range e.args {
			args[i] = a.name
		}
		k := key(e.fluent.Name, args)
		if idx, ok := valueAt[k]; ok {
			b.prob.Init[idx].Value = e.value
			continue
		}
		b.prob.Init = append(b.prob.Init, Assignment{Fluent: e.fluent.Name, Args: args, Value: e.value})
		valueAt[k] = len(b.prob.Init) - 1
		assigned[k] = true
	}

	// Wildcard entries, most specific first. Two wildcards covering the
	// same tuple resolve deterministically: fewest wildcard positions
	// wins, then declaration order.
	wild := make([]initEntry, 0, len(b.inits))
	for _, e := range b.inits {
		if e.wildcards > 0 {
			wild = append(wild, e)
		}
	}
	for i := 0; i < len(wild); i++ {
		for j := i + 1; j < len(wild); j++ {
			less := wild[j].wildcards < wild[i].wildcards ||
				(wild[j].wildcards == wild[i].wildcards && wild[j].declIndex < wild[i].declIndex)
			if less {
				wild[i], wild[j] = wild[j], wild[i]
			}
		}
	}
	for _, e := range wild {
		for _, tuple := range b.expandEntry(e) {
			k := key(e.fluent.Name, tuple)
			if assigned[k] {
				continue
			}
			assigned[k] = true
			b.prob.Init = append(b.prob.Init, Assignment{Fluent: e.fluent.Name, Args: tuple, Value: e.value})
		}
	}
}

// expandEntry enumerates the concrete tuples a wildcard entry covers, in
// instance declaration order per position.
func (b *builder) expandEntry(e initEntry) [][]string {
	tuples := [][]string{{}}
	for i, a := range e.args {
		var choices []string
		if a.wildcard {
			if i < len(e.fluent.Params) && e.fluent.Params[i].Type.Kind == ValueObject {
				choices = b.prob.InstancesOf(e.fluent.Params[i].Type.Object)
			}
			if len(choices) == 0 {
				b.diags.Warn(e.pos, "wildcard in %q covers no declared instances", e.fluent.Name)
				return nil
			}
		} else {
			choices = []string{a.name}
		}
		next := make([][]string, 0, len(tuples)*len(choices))
		for _, t := range tuples {
			for _, c := range choices {
				row := make([]string, len(t), len(t)+1)
				copy(row, t)
				next = append(next, append(row, c))
			}
		}
		tuples = next
	}
	return tuples
}
