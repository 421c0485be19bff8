// diagnostic_test.go
package planc

import (
	"strings"
	"testing"
)

func Test_Diagnostics_StableFormat(t *testing.T) {
	c := NewDiagnostics("warehouse.anml")
	c.Report(Position{Line: 3, Col: 7}, KindUndefined, "undefined symbol %q", "depot")
	got := c.Items()[0].String()
	want := `warehouse.anml:3:7: UndefinedSymbolError: undefined symbol "depot"`
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func Test_Diagnostics_SortedBySourcePosition(t *testing.T) {
	c := NewDiagnostics("f")
	c.Report(Position{Line: 9, Col: 1}, KindSyntax, "later")
	c.Report(Position{Line: 2, Col: 5}, KindSyntax, "earlier")
	c.Report(Position{Line: 2, Col: 1}, KindSyntax, "earliest")
	items := c.Items()
	if items[0].Msg != "earliest" || items[1].Msg != "earlier" || items[2].Msg != "later" {
		t.Fatalf("items out of order: %v", items)
	}
}

func Test_Diagnostics_CleanAndFatal(t *testing.T) {
	c := NewDiagnostics("f")
	if !c.Clean() {
		t.Fatalf("an empty collector is clean")
	}
	c.Warn(Position{Line: 1, Col: 1}, "just a warning")
	if !c.Clean() {
		t.Fatalf("warnings alone keep the unit usable")
	}
	c.Report(Position{Line: 1, Col: 1}, KindArityOrType, "wrong arity")
	if c.Clean() {
		t.Fatalf("an error makes the unit unusable")
	}
	if c.HasFatal() {
		t.Fatalf("an ordinary error is not fatal")
	}
	c.Report(Position{Line: 1, Col: 1}, KindCyclicHierarchy, "cycle")
	if !c.HasFatal() {
		t.Fatalf("a hierarchy cycle is fatal")
	}
}

func Test_Diagnostics_OnlyCycleIsFatal(t *testing.T) {
	for _, k := range []ErrorKind{
		KindLexical, KindSyntax, KindDuplicate, KindUndefined,
		KindArityOrType, KindInvalidQualifier, KindMalformedDuration,
	} {
		if defaultSeverity(k) != SeverityError {
			t.Fatalf("%s severity = %v, want error", k, defaultSeverity(k))
		}
	}
	if defaultSeverity(KindCyclicHierarchy) != SeverityFatal {
		t.Fatalf("a cyclic hierarchy must be fatal")
	}
}

func Test_Diagnostics_CountKind(t *testing.T) {
	c := NewDiagnostics("f")
	c.Report(Position{Line: 1, Col: 1}, KindSyntax, "a")
	c.Report(Position{Line: 2, Col: 1}, KindSyntax, "b")
	c.Report(Position{Line: 3, Col: 1}, KindUndefined, "c")
	if c.CountKind(KindSyntax) != 2 || c.CountKind(KindUndefined) != 1 {
		t.Fatalf("counts wrong:\n%s", c.String())
	}
}

func Test_RenderDiagnostic_CaretPlacement(t *testing.T) {
	src := "type a;\ntype vehicle < robot\ninstance loc depot;"
	d := Diagnostic{
		File: "f.anml", Pos: Position{Line: 2, Col: 13},
		Kind: KindSyntax, Severity: SeverityError, Msg: "expected ';'",
	}
	out := RenderDiagnostic(d, src)
	lines := strings.Split(out, "\n")
	// header, blank, context, error line, caret, context
	if len(lines) < 6 {
		t.Fatalf("snippet too short:\n%s", out)
	}
	caret := lines[4]
	if !strings.HasSuffix(caret, "^") {
		t.Fatalf("caret line = %q", caret)
	}
	// The caret column lines up under column 13 after the "     | " gutter.
	if got := len(caret) - len("     | "); got != 13 {
		t.Fatalf("caret at visual column %d, want 13:\n%s", got, out)
	}
	if !strings.Contains(lines[0], "f.anml:2:13") {
		t.Fatalf("header = %q", lines[0])
	}
}

func Test_RenderDiagnostic_ClampsOutOfRange(t *testing.T) {
	d := Diagnostic{File: "f", Pos: Position{Line: 99, Col: 99}, Kind: KindSyntax, Msg: "m"}
	out := RenderDiagnostic(d, "one line only")
	if !strings.Contains(out, "one line only") {
		t.Fatalf("clamped rendering lost the source line:\n%s", out)
	}
}
