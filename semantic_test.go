// semantic_test.go
package planc

import (
	"reflect"
	"strings"
	"testing"
)

const deliveryUnit = `
type loc;
type robot;
instance loc depot, market;
instance robot r1;

fluent boolean at(robot r, loc l);
constant integer distance(loc a, loc b);
fluent rational battery := 1.0;

distance(depot, market) := 5;
distance(depot, *) := 0;
distance(*, *) := 9;

[start] at(r1, depot) := true;

action move(robot r, loc from, loc to) {
    duration :in [2, 10];
    [start] at(r, from);
    [end] at(r, to) := true;
    [end] at(r, from) := false;
}

goal { at(r1, market); }
`

func compileClean(t *testing.T, src string) *Result {
	t.Helper()
	res := Compile("unit.anml", src)
	if !res.Usable() {
		t.Fatalf("compile not clean:\n%s", res.Diags.String())
	}
	return res
}

func findInit(res *Result, fluent string, args ...string) (Value, bool) {
	for _, a := range res.Problem.Init {
		if a.Fluent != fluent || len(a.Args) != len(args) {
			continue
		}
		same := true
		for i := range args {
			if a.Args[i] != args[i] {
				same = false
			}
		}
		if same {
			return a.Value, true
		}
	}
	return Value{}, false
}

func Test_Compile_Temporal_EndToEnd(t *testing.T) {
	res := compileClean(t, deliveryUnit)
	if res.Domain.Name != "unit.anml" {
		t.Fatalf("domain name = %q", res.Domain.Name)
	}
	if len(res.Problem.Instances) != 3 {
		t.Fatalf("want 3 instances, got %d", len(res.Problem.Instances))
	}
	move := res.Domain.Action("move")
	if move == nil {
		t.Fatalf("action move missing from the domain")
	}
	if len(move.Duration) != 2 {
		t.Fatalf("duration :in must yield two conjoined bounds, got %d", len(move.Duration))
	}
	if len(move.Statements) != 3 {
		t.Fatalf("want 3 statements, got %d", len(move.Statements))
	}
	if move.Statements[0].IsEffect || move.Statements[0].Qual.At.Anchor != AnchorStart {
		t.Fatalf("first statement should be a start condition")
	}
	if !move.Statements[1].IsEffect || move.Statements[1].Qual.At.Anchor != AnchorEnd {
		t.Fatalf("second statement should be an end effect")
	}
	if len(res.Problem.Goals) != 1 {
		t.Fatalf("want 1 goal, got %d", len(res.Problem.Goals))
	}
}

func Test_Compile_WildcardLayering(t *testing.T) {
	res := compileClean(t, deliveryUnit)
	// Explicit beats every wildcard, regardless of declaration order.
	if v, ok := findInit(res, "distance", "depot", "market"); !ok || v.Int != 5 {
		t.Fatalf("distance(depot, market) = %v, want explicit 5", v)
	}
	// The more specific wildcard wins over the fully wild one.
	if v, ok := findInit(res, "distance", "depot", "depot"); !ok || v.Int != 0 {
		t.Fatalf("distance(depot, depot) = %v, want 0 from distance(depot, *)", v)
	}
	// Remaining tuples fall through to the fully wild default.
	if v, ok := findInit(res, "distance", "market", "depot"); !ok || v.Int != 9 {
		t.Fatalf("distance(market, depot) = %v, want 9 from distance(*, *)", v)
	}
	if v, ok := findInit(res, "distance", "market", "market"); !ok || v.Int != 9 {
		t.Fatalf("distance(market, market) = %v, want 9", v)
	}
}

func Test_Compile_ExplicitBeatsLaterWildcard(t *testing.T) {
	res := compileClean(t, `
type loc;
instance loc a, b;
constant integer distance(loc x, loc y);
distance(a, *) := 0;
distance(a, b) := 1;
`)
	if v, ok := findInit(res, "distance", "a", "b"); !ok || v.Int != 1 {
		t.Fatalf("distance(a, b) = %v, want the explicit 1", v)
	}
	if v, ok := findInit(res, "distance", "a", "a"); !ok || v.Int != 0 {
		t.Fatalf("distance(a, a) = %v, want the wildcard 0", v)
	}
}

func Test_Compile_InlineInitIsFullWildcard(t *testing.T) {
	res := compileClean(t, `
type sw;
instance sw s1, s2;
fluent boolean on(sw s) := false;
[start] on(s1) := true;
`)
	if v, ok := findInit(res, "on", "s1"); !ok || v.Bool != true {
		t.Fatalf("on(s1) = %v, want the explicit true", v)
	}
	if v, ok := findInit(res, "on", "s2"); !ok || v.Bool != false {
		t.Fatalf("on(s2) = %v, want the declared default false", v)
	}
}

func Test_Compile_BareConditionIsGoal(t *testing.T) {
	res := compileClean(t, `
type loc;
instance loc depot;
fluent boolean done;
[end] done;
`)
	if len(res.Problem.Goals) != 1 {
		t.Fatalf("want 1 goal, got %d", len(res.Problem.Goals))
	}
	g := res.Problem.Goals[0]
	if g.Qual.Kind != QualInstant || g.Qual.At.Anchor != AnchorEnd {
		t.Fatalf("goal qualifier = %s, want the plan end", g.Qual.String())
	}
}

func Test_Compile_SingleArityErrorDoesNotSuppressOthers(t *testing.T) {
	res := Compile("unit.anml", `
type loc;
instance loc depot;
fluent boolean at(loc l);
[end] at(depot, depot);
[end] nowhere(depot);
`)
	if got := res.Diags.CountKind(KindArityOrType); got != 1 {
		t.Fatalf("want exactly 1 arity error, got %d:\n%s", got, res.Diags.String())
	}
	if got := res.Diags.CountKind(KindUndefined); got != 1 {
		t.Fatalf("the unrelated undefined-symbol error must survive:\n%s", res.Diags.String())
	}
}

func Test_Compile_SubtypeArgumentAccepted(t *testing.T) {
	compileClean(t, `
type vehicle;
type truck < vehicle;
instance truck t1;
fluent boolean moving(vehicle v);
[start] moving(t1) := true;
`)
}

func Test_Compile_SupertypeArgumentRejected(t *testing.T) {
	res := Compile("unit.anml", `
type vehicle;
type truck < vehicle;
instance vehicle v1;
fluent boolean parked(truck t);
[end] parked(v1);
`)
	if res.Diags.CountKind(KindArityOrType) != 1 {
		t.Fatalf("a supertype argument must be rejected:\n%s", res.Diags.String())
	}
}

func Test_Compile_CycleIsFatalAndHaltsBuilding(t *testing.T) {
	res := Compile("unit.anml", `
type a < b;
type b < a;
fluent boolean p(undeclared u);
`)
	if res.Diags.CountKind(KindCyclicHierarchy) != 1 {
		t.Fatalf("want exactly 1 cycle error:\n%s", res.Diags.String())
	}
	if !res.Diags.HasFatal() {
		t.Fatalf("the cycle must be fatal")
	}
	// Building halts: the bad fluent declaration is never reached.
	if res.Diags.CountKind(KindUndefined) != 0 {
		t.Fatalf("no semantic checking may run past a cyclic hierarchy:\n%s", res.Diags.String())
	}
	if res.Usable() {
		t.Fatalf("a fatal unit must not be usable")
	}
}

func Test_Compile_ConstantCannotBeActionEffect(t *testing.T) {
	res := Compile("unit.anml", `
type loc;
constant integer dist(loc a, loc b);
instance loc x;
action a(loc l) {
    [end] dist(l, l) := 3;
}
`)
	if res.Diags.CountKind(KindArityOrType) != 1 {
		t.Fatalf("assigning a constant inside an action must fail:\n%s", res.Diags.String())
	}
}

func Test_Compile_DurationOperandMustBeNumeric(t *testing.T) {
	res := Compile("unit.anml", `
fluent boolean ok;
action a() {
    duration := true;
}
`)
	if res.Diags.CountKind(KindMalformedDuration) != 1 {
		t.Fatalf("a boolean duration operand must be rejected:\n%s", res.Diags.String())
	}
}

func Test_Compile_UntimedDefaultsInsideAction(t *testing.T) {
	res := compileClean(t, `
type loc;
instance loc l1;
fluent boolean busy;
action a() {
    busy;
    busy := false;
}
`)
	act := res.Domain.Action("a")
	if act.Statements[0].Qual.Kind != QualAllSpan {
		t.Fatalf("an untimed condition holds over the whole span, got %s", act.Statements[0].Qual.String())
	}
	if act.Statements[1].Qual.At.Anchor != AnchorEnd {
		t.Fatalf("an untimed effect lands at the end, got %s", act.Statements[1].Qual.String())
	}
}

func Test_Compile_RecompileIsIdempotent(t *testing.T) {
	first := Compile("unit.anml", deliveryUnit)
	second := Compile("unit.anml", deliveryUnit)
	if first.Diags.Len() != second.Diags.Len() {
		t.Fatalf("diagnostic count changed across recompiles: %d vs %d", first.Diags.Len(), second.Diags.Len())
	}
	var a, b []string
	for _, x := range first.Problem.Init {
		a = append(a, x.Fluent+"("+strings.Join(x.Args, ",")+")="+x.Value.String())
	}
	for _, x := range second.Problem.Init {
		b = append(b, x.Fluent+"("+strings.Join(x.Args, ",")+")="+x.Value.String())
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("initial state changed across recompiles:\n%v\n%v", a, b)
	}
}

func Test_Compile_StrayBraceTerminates(t *testing.T) {
	// An unbalanced closer used to stall recovery at the same token.
	res := Compile("unit.anml", "type a;\n}\n")
	if got := res.Diags.CountKind(KindSyntax); got != 1 {
		t.Fatalf("want 1 syntax error, got %d:\n%s", got, res.Diags.String())
	}
	if res.Domain.Types.Lookup("a") == nil {
		t.Fatalf("declaration before the stray brace was lost")
	}
}

func Test_Compile_ForwardReferencedMultiSuperType(t *testing.T) {
	res := compileClean(t, `
type a < b;
type c;
type d;
type b < c < d;
`)
	h := res.Domain.Types
	if !h.IsSubtype(h.Lookup("a"), h.Lookup("c")) || !h.IsSubtype(h.Lookup("a"), h.Lookup("d")) {
		t.Fatalf("forward-referenced b must carry both of its supertypes")
	}
}

func Test_Compile_QuantifiedGoal(t *testing.T) {
	res := compileClean(t, `
type loc;
type robot;
instance loc depot;
instance robot r1;
fluent boolean visited(robot r, loc l);

goal forall(robot r, loc l) { visited(r, l); };
`)
	if len(res.Problem.Goals) != 1 {
		t.Fatalf("want 1 goal, got %d", len(res.Problem.Goals))
	}
	q, ok := res.Problem.Goals[0].Cond.(*Quant)
	if !ok {
		t.Fatalf("goal condition is %T, want *Quant", res.Problem.Goals[0].Cond)
	}
	if q.Exists || len(q.Vars) != 2 {
		t.Fatalf("quantifier shape wrong: %+v", q)
	}
}

func Test_Compile_QuantifierVariableShadowsNothing(t *testing.T) {
	// An exists variable is visible only inside its own body.
	res := Compile("unit.anml", `
type robot;
instance robot r1;
fluent boolean idle(robot r);

goal exists(robot r) { idle(r); };
goal idle(r);
`)
	if got := res.Diags.CountKind(KindUndefined); got != 1 {
		t.Fatalf("the second goal's r must be undefined, got %d:\n%s", got, res.Diags.String())
	}
}

func Test_Compile_QuantifierBodyMustBeBoolean(t *testing.T) {
	res := Compile("unit.anml", `
type robot;
fluent integer charge(robot r);

goal forall(robot r) { charge(r); };
`)
	if res.Diags.CountKind(KindArityOrType) != 1 {
		t.Fatalf("numeric quantifier body must be rejected:\n%s", res.Diags.String())
	}
}

func Test_Compile_ConditionalEffect(t *testing.T) {
	res := compileClean(t, `
type robot;
instance robot r1;
fluent boolean fragile(robot r);
fluent boolean broken(robot r);

action drop(robot r) {
    duration := 1;
    when [start] fragile(r) { [end] broken(r) := true; };
}
`)
	act := res.Domain.Action("drop")
	if len(act.Statements) != 1 {
		t.Fatalf("want 1 statement, got %d", len(act.Statements))
	}
	st := act.Statements[0]
	if !st.IsEffect || st.When == nil {
		t.Fatalf("conditional effect must carry a guard, got %+v", st)
	}
	if st.When.IsEffect || st.When.Qual.At.Anchor != AnchorStart {
		t.Fatalf("guard must be a start condition, got %+v", st.When)
	}
	if st.Qual.At.Anchor != AnchorEnd {
		t.Fatalf("guarded effect must keep its own qualifier")
	}
}

func Test_Compile_WhenBlockRejectsConditions(t *testing.T) {
	res := Compile("unit.anml", `
type robot;
fluent boolean p(robot r);
fluent boolean q(robot r);

action a(robot r) {
    when p(r) { q(r); };
}
`)
	if res.Diags.CountKind(KindSyntax) != 1 {
		t.Fatalf("a bare condition inside 'when' must be rejected:\n%s", res.Diags.String())
	}
}

// --- hierarchical dialect ---

const courierDomain = `
(define (domain courier)
  (:requirements :typing :hierarchy)
  (:types truck package - physobj
          location physobj - object)
  (:predicates
    (at ?o - physobj ?l - location)
    (in ?p - package ?t - truck))
  (:task deliver :parameters (?p - package ?l - location))
  (:method m-deliver
    :parameters (?p - package ?t - truck ?l1 ?l2 - location)
    :task (deliver ?p ?l2)
    :precondition (at ?p ?l1)
    :ordered-subtasks (and
      (drive ?t ?l1)
      (load ?t ?p ?l1)
      (drive ?t ?l2)
      (unload ?t ?p ?l2)))
  (:action drive
    :parameters (?t - truck ?l - location)
    :effect (at ?t ?l))
  (:action load
    :parameters (?t - truck ?p - package ?l - location)
    :precondition (and (at ?p ?l) (at ?t ?l))
    :effect (and (in ?p ?t) (not (at ?p ?l))))
  (:action unload
    :parameters (?t - truck ?p - package ?l - location)
    :precondition (in ?p ?t)
    :effect (and (at ?p ?l) (not (in ?p ?t))))
)
`

func Test_Compile_HTN_EndToEnd(t *testing.T) {
	res := compileClean(t, courierDomain)
	if res.Domain.Name != "courier" {
		t.Fatalf("domain name = %q", res.Domain.Name)
	}
	if res.Domain.Task("deliver") == nil {
		t.Fatalf("task deliver missing")
	}
	if len(res.Domain.Methods) != 1 || len(res.Domain.Actions) != 3 {
		t.Fatalf("got %d methods, %d actions", len(res.Domain.Methods), len(res.Domain.Actions))
	}
}

func Test_Compile_HTN_OrderedSubtasksResolved(t *testing.T) {
	res := compileClean(t, courierDomain)
	m := res.Domain.Methods[0]
	if !m.Ordered {
		t.Fatalf("ordered flag lost")
	}
	var names []string
	for _, s := range m.Subtasks {
		names = append(names, s.Name)
		if !s.IsAction {
			t.Fatalf("subtask %q should resolve to a primitive action", s.Name)
		}
	}
	want := []string{"drive", "load", "drive", "unload"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("subtask order = %v, want %v", names, want)
	}
	if m.Task == nil || m.Task.Name != "deliver" {
		t.Fatalf("decomposed task = %+v", m.Task)
	}
}

func Test_Compile_HTN_EffectsBecomeEndAssignments(t *testing.T) {
	res := compileClean(t, courierDomain)
	load := res.Domain.Action("load")
	var effects int
	for _, s := range load.Statements {
		if !s.IsEffect {
			continue
		}
		effects++
		if s.Qual.At.Anchor != AnchorEnd || s.Op != ":=" {
			t.Fatalf("effect statement = %+v", s)
		}
	}
	if effects != 2 {
		t.Fatalf("load has %d effects, want 2 (one per literal)", effects)
	}
	// The negated literal assigns false.
	last := load.Statements[len(load.Statements)-1]
	if lit, ok := last.Value.(*Literal); !ok || lit.Bool {
		t.Fatalf("(not ...) must assign false, got %+v", last.Value)
	}
}

func Test_Compile_HTN_MethodlessTaskWarns(t *testing.T) {
	res := Compile("d.hddl", `
(define (domain d)
  (:task orphan :parameters ()))
`)
	if !res.Usable() {
		t.Fatalf("a methodless task is a warning, not an error:\n%s", res.Diags.String())
	}
	if res.Diags.CountKind(KindWarning) != 1 {
		t.Fatalf("want 1 warning:\n%s", res.Diags.String())
	}
}

func Test_Compile_HTN_UndefinedSubtask(t *testing.T) {
	res := Compile("d.hddl", `
(define (domain d)
  (:task top :parameters ())
  (:method m :task (top) :subtasks (missing)))
`)
	if res.Diags.CountKind(KindUndefined) != 1 {
		t.Fatalf("an unresolved subtask must be reported:\n%s", res.Diags.String())
	}
}

func Test_Compile_HTN_SubtaskArityChecked(t *testing.T) {
	res := Compile("d.hddl", `
(define (domain d)
  (:types location - object)
  (:task go :parameters (?a ?b - location))
  (:method m
    :parameters (?x - location)
    :task (go ?x)
    :subtasks ()))
`)
	if res.Diags.CountKind(KindArityOrType) != 1 {
		t.Fatalf("a task reference with wrong arity must be reported:\n%s", res.Diags.String())
	}
}

func Test_Compile_DialectDetection(t *testing.T) {
	if DetectDialect("  ; comment\n (define (domain d))") != DialectHierarchical {
		t.Fatalf("a leading (define ...) selects the hierarchical dialect")
	}
	if DetectDialect("// comment\ntype a;") != DialectTemporal {
		t.Fatalf("free-form statements select the temporal dialect")
	}
	if DetectDialect("(p and q);") != DialectTemporal {
		t.Fatalf("a parenthesized expression is not a (define ...) form")
	}
}
