// parser_temporal_test.go
package planc

import (
	"testing"
)

func parseT(t *testing.T, src string) (*TemporalFile, *Diagnostics) {
	t.Helper()
	diags := NewDiagnostics("test.anml")
	file := ParseTemporal("test.anml", src, diags)
	return file, diags
}

func parseTClean(t *testing.T, src string) *TemporalFile {
	t.Helper()
	file, diags := parseT(t, src)
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diags.String())
	}
	return file
}

func Test_ParseTemporal_TypeDeclMultipleSupers(t *testing.T) {
	file := parseTClean(t, `type truck < vehicle < movable;`)
	td, ok := file.Decls[0].(*TypeDecl)
	if !ok {
		t.Fatalf("decl is %T, want *TypeDecl", file.Decls[0])
	}
	if td.Name != "truck" || len(td.Supers) != 2 || td.Supers[0] != "vehicle" || td.Supers[1] != "movable" {
		t.Fatalf("parsed %q < %v", td.Name, td.Supers)
	}
}

func Test_ParseTemporal_InstanceMultiName(t *testing.T) {
	file := parseTClean(t, `instance loc depot, market, home;`)
	id := file.Decls[0].(*InstanceDecl)
	if id.Type.Name != "loc" || len(id.Names) != 3 || id.Names[2] != "home" {
		t.Fatalf("parsed instance %q %v", id.Type.Name, id.Names)
	}
}

func Test_ParseTemporal_FluentDecls(t *testing.T) {
	file := parseTClean(t, `
fluent boolean at(robot r, loc l);
constant integer [0, 100] distance(loc a, loc b);
fluent rational battery := 1.0;
`)
	if len(file.Decls) != 3 {
		t.Fatalf("want 3 decls, got %d", len(file.Decls))
	}
	f0 := file.Decls[0].(*FluentDecl)
	if f0.Constant || f0.Name != "at" || len(f0.Params) != 2 || f0.Value.Kind != ValueBool {
		t.Fatalf("at parsed wrong: %+v", f0)
	}
	f1 := file.Decls[1].(*FluentDecl)
	if !f1.Constant || f1.Value.Kind != ValueInt || !f1.Value.Bounded {
		t.Fatalf("distance parsed wrong: %+v", f1)
	}
	f2 := file.Decls[2].(*FluentDecl)
	if f2.Value.Kind != ValueFloat || f2.Init == nil {
		t.Fatalf("battery parsed wrong: %+v", f2)
	}
}

func Test_ParseTemporal_ActionBody(t *testing.T) {
	file := parseTClean(t, `
action move(robot r, loc from, loc to) {
    duration := 5;
    [start] at(r, from);
    [all] connected(from, to);
    [end] at(r, to) := true;
}
`)
	act := file.Decls[0].(*ActionDecl)
	if act.Name != "move" || len(act.Params) != 3 {
		t.Fatalf("header parsed wrong: %q %d params", act.Name, len(act.Params))
	}
	if len(act.Body) != 4 {
		t.Fatalf("want 4 body statements, got %d", len(act.Body))
	}
	if d, ok := act.Body[0].(*DurationStmt); !ok || d.Op != ":=" {
		t.Fatalf("first statement is not duration := : %+v", act.Body[0])
	}
}

func Test_ParseTemporal_DurationInDesugarsToTwoBounds(t *testing.T) {
	file := parseTClean(t, `
action wait() {
    duration :in [2, 10];
}
`)
	act := file.Decls[0].(*ActionDecl)
	if len(act.Body) != 2 {
		t.Fatalf("want 2 desugared duration statements, got %d", len(act.Body))
	}
	lo := act.Body[0].(*DurationStmt)
	hi := act.Body[1].(*DurationStmt)
	if lo.Op != ">=" || hi.Op != "<=" {
		t.Fatalf("ops = %q, %q; want >=, <=", lo.Op, hi.Op)
	}
}

func Test_ParseTemporal_QualifierForms(t *testing.T) {
	// The three instant/interval surface forms all parse inside a body.
	file := parseTClean(t, `
action a() {
    [start+10] p;
    [start + 1.0] q;
    (1 + start, end] r;
}
`)
	act := file.Decls[0].(*ActionDecl)
	if len(act.Body) != 3 {
		t.Fatalf("want 3 statements, got %d", len(act.Body))
	}
	s0 := act.Body[0].(*TimedStmt)
	if s0.Interval == nil || s0.Interval.HasComma {
		t.Fatalf("[start+10] should be an instant interval: %+v", s0.Interval)
	}
	s2 := act.Body[2].(*TimedStmt)
	if s2.Interval == nil || !s2.Interval.OpenLower || s2.Interval.OpenUpper || !s2.Interval.HasComma {
		t.Fatalf("(1 + start, end] openness parsed wrong: %+v", s2.Interval)
	}
}

func Test_ParseTemporal_ParenExprNotMistakenForInterval(t *testing.T) {
	// A parenthesized condition at statement head must stay an expression.
	file := parseTClean(t, `
action a() {
    (p and q);
}
`)
	act := file.Decls[0].(*ActionDecl)
	s := act.Body[0].(*TimedStmt)
	if s.Interval != nil {
		t.Fatalf("parenthesized expression was parsed as an interval")
	}
	if _, ok := s.Expr.(*Binary); !ok {
		t.Fatalf("expr is %T, want *Binary", s.Expr)
	}
}

func Test_ParseTemporal_GoalBlock(t *testing.T) {
	file := parseTClean(t, `
goal {
    at(r1, depot);
    [end] battery > 0.5;
}
`)
	g := file.Decls[0].(*GoalDecl)
	if len(g.Items) != 2 {
		t.Fatalf("want 2 goal items, got %d", len(g.Items))
	}
	if g.Items[1].Interval == nil {
		t.Fatalf("second goal lost its interval")
	}
}

func Test_ParseTemporal_TopLevelTimedGroup(t *testing.T) {
	file := parseTClean(t, `
[start] {
    at(r1, depot) := true;
    battery := 1.0;
}
`)
	grp, ok := file.Decls[0].(*timedGroup)
	if !ok {
		t.Fatalf("decl is %T, want *timedGroup", file.Decls[0])
	}
	if len(grp.Items) != 2 {
		t.Fatalf("want 2 grouped statements, got %d", len(grp.Items))
	}
	for _, item := range grp.Items {
		if item.Interval == nil {
			t.Fatalf("grouped statement lost the shared qualifier")
		}
	}
}

func Test_ParseTemporal_Precedence(t *testing.T) {
	file := parseTClean(t, `x := 1 + 2 * 3;`)
	ts := file.Decls[0].(*TimedStmt)
	assign := ts.Expr.(*Binary)
	sum := assign.Y.(*Binary)
	if sum.Op != "+" {
		t.Fatalf("top of RHS is %q, want +", sum.Op)
	}
	if prod, ok := sum.Y.(*Binary); !ok || prod.Op != "*" {
		t.Fatalf("* must bind tighter than +")
	}
}

func Test_ParseTemporal_RecoversAcrossBadStatements(t *testing.T) {
	// Each bad statement is one SyntaxError; parsing resumes at ';' so the
	// later good declarations still arrive.
	file, diags := parseT(t, `
type a;
type < ;
instance a x;
fluent boolean ok(;
type b;
`)
	if got := diags.CountKind(KindSyntax); got != 2 {
		t.Fatalf("want 2 syntax errors, got %d:\n%s", got, diags.String())
	}
	var names []string
	for _, d := range file.Decls {
		if td, ok := d.(*TypeDecl); ok {
			names = append(names, td.Name)
		}
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("surviving type decls = %v, want [a b]", names)
	}
}

func Test_ParseTemporal_MalformedDurationOperator(t *testing.T) {
	_, diags := parseT(t, `
action a() {
    duration + 5;
}
`)
	if diags.CountKind(KindMalformedDuration) != 1 {
		t.Fatalf("want one MalformedDurationConstraintError:\n%s", diags.String())
	}
}

func Test_ParseTemporal_StrayClosingBraceRecovered(t *testing.T) {
	// A `}` with no open block cannot resync to a ';'; the parser must
	// still consume it and reach the declarations after it.
	file, diags := parseT(t, `
type a;
}
type b;
`)
	if got := diags.CountKind(KindSyntax); got != 1 {
		t.Fatalf("want 1 syntax error, got %d:\n%s", got, diags.String())
	}
	var names []string
	for _, d := range file.Decls {
		if td, ok := d.(*TypeDecl); ok {
			names = append(names, td.Name)
		}
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("surviving type decls = %v, want [a b]", names)
	}
}

func Test_ParseTemporal_QuantifiedExpression(t *testing.T) {
	file := parseTClean(t, `
goal forall(loc l, robot r) { visited(r, l); reachable(l); };
`)
	g := file.Decls[0].(*GoalDecl)
	q, ok := g.Items[0].Expr.(*Quant)
	if !ok {
		t.Fatalf("goal expr is %T, want *Quant", g.Items[0].Expr)
	}
	if q.Exists {
		t.Fatalf("forall parsed as exists")
	}
	if len(q.Vars) != 2 || q.Vars[0].Name != "l" || q.Vars[1].Name != "r" {
		t.Fatalf("quantifier vars = %+v", q.Vars)
	}
	if len(q.Body) != 2 {
		t.Fatalf("want 2 body expressions, got %d", len(q.Body))
	}
}

func Test_ParseTemporal_ExistsExpression(t *testing.T) {
	file := parseTClean(t, `goal exists(robot r) { idle(r); };`)
	q := file.Decls[0].(*GoalDecl).Items[0].Expr.(*Quant)
	if !q.Exists || len(q.Vars) != 1 || q.Vars[0].Type.Name != "robot" {
		t.Fatalf("exists parsed wrong: %+v", q)
	}
}

func Test_ParseTemporal_EmptyQuantifierBodyRejected(t *testing.T) {
	_, diags := parseT(t, `goal forall(loc l) { };`)
	if diags.CountKind(KindSyntax) == 0 {
		t.Fatalf("empty quantifier body must be a syntax error")
	}
}

func Test_ParseTemporal_WhenBlock(t *testing.T) {
	file := parseTClean(t, `
action move(robot r) {
    when [start] fragile(r) { [end] broken(r) := true; };
}
`)
	act := file.Decls[0].(*ActionDecl)
	w, ok := act.Body[0].(*WhenStmt)
	if !ok {
		t.Fatalf("body stmt is %T, want *WhenStmt", act.Body[0])
	}
	if w.Cond.Interval == nil {
		t.Fatalf("condition lost its qualifier")
	}
	if len(w.Effects) != 1 {
		t.Fatalf("want 1 effect, got %d", len(w.Effects))
	}
	bin, ok := w.Effects[0].Expr.(*Binary)
	if !ok || bin.Op != ":=" {
		t.Fatalf("effect is %T, want assignment", w.Effects[0].Expr)
	}
}

func Test_ParseTemporal_EmptyWhenBlockRejected(t *testing.T) {
	_, diags := parseT(t, `
action a() {
    when p() { };
}
`)
	if diags.CountKind(KindSyntax) == 0 {
		t.Fatalf("empty 'when' block must be a syntax error")
	}
}
