// temporal_test.go
package planc

import (
	"reflect"
	"strings"
	"testing"
)

// ivOf parses one statement with the given qualifier and returns its raw
// interval syntax.
func ivOf(t *testing.T, qualifier string) *IntervalSyntax {
	t.Helper()
	diags := NewDiagnostics("test.anml")
	file := ParseTemporal("test.anml", qualifier+" p;", diags)
	if diags.Len() != 0 {
		t.Fatalf("parse of %q:\n%s", qualifier, diags.String())
	}
	ts, ok := file.Decls[0].(*TimedStmt)
	if !ok {
		t.Fatalf("decl is %T, want *TimedStmt", file.Decls[0])
	}
	if ts.Interval == nil {
		t.Fatalf("%q did not parse as an interval", qualifier)
	}
	return ts.Interval
}

func resolveQ(t *testing.T, qualifier string) Qualifier {
	t.Helper()
	q, err := ResolveQualifier(ivOf(t, qualifier), nil)
	if err != nil {
		t.Fatalf("ResolveQualifier(%q): %v", qualifier, err)
	}
	return q
}

func Test_Qualifier_StartInstant(t *testing.T) {
	q := resolveQ(t, "[start]")
	if q.Kind != QualInstant || q.At.Anchor != AnchorStart || q.At.Offset != nil {
		t.Fatalf("[start] resolved to %s", q.String())
	}
}

func Test_Qualifier_StartPlusIntegerOffset(t *testing.T) {
	q := resolveQ(t, "[start+10]")
	if q.Kind != QualInstant || q.At.Anchor != AnchorStart {
		t.Fatalf("[start+10] resolved to %s", q.String())
	}
	if v, ok := foldConst(q.At.Offset); !ok || v != 10 {
		t.Fatalf("offset = %v, want 10", q.At.Offset)
	}
}

func Test_Qualifier_StartPlusFloatOffset(t *testing.T) {
	q := resolveQ(t, "[start + 1.0]")
	if q.Kind != QualInstant || q.At.Anchor != AnchorStart {
		t.Fatalf("[start + 1.0] resolved to %s", q.String())
	}
	if v, ok := foldConst(q.At.Offset); !ok || v != 1.0 {
		t.Fatalf("offset = %v, want 1.0", q.At.Offset)
	}
}

func Test_Qualifier_HalfOpenMixedAnchors(t *testing.T) {
	// `(1 + start, end]`: the offset may precede the anchor.
	q := resolveQ(t, "(1 + start, end]")
	if q.Kind != QualInterval {
		t.Fatalf("resolved to %s", q.String())
	}
	if q.Lower.Anchor != AnchorStart || q.Upper.Anchor != AnchorEnd {
		t.Fatalf("anchors = %s, %s", q.Lower.Anchor, q.Upper.Anchor)
	}
	if v, ok := foldConst(q.Lower.Offset); !ok || v != 1 {
		t.Fatalf("lower offset = %v, want 1", q.Lower.Offset)
	}
	if !q.OpenLower || q.OpenUpper {
		t.Fatalf("openness = (%t, %t), want (true, false)", q.OpenLower, q.OpenUpper)
	}
}

func Test_Qualifier_AllSpan(t *testing.T) {
	q := resolveQ(t, "[all]")
	if q.Kind != QualAllSpan {
		t.Fatalf("[all] resolved to %s", q.String())
	}
}

func Test_Qualifier_AbsoluteTick(t *testing.T) {
	q := resolveQ(t, "[10]")
	if q.Kind != QualInstant || q.At.Anchor != AnchorAbsolute {
		t.Fatalf("[10] resolved to %s", q.String())
	}
	want := AtTick(q.At.Offset)
	if !reflect.DeepEqual(q, want) {
		t.Fatalf("[10] resolved to %s, want the canonical tick form %s", q.String(), want.String())
	}
}

func Test_Qualifier_EndMinusOffset(t *testing.T) {
	q := resolveQ(t, "[end - 2]")
	if q.At.Anchor != AnchorEnd {
		t.Fatalf("anchor = %s", q.At.Anchor)
	}
	if v, ok := foldConst(q.At.Offset); !ok || v != -2 {
		t.Fatalf("offset = %v, want -2", q.At.Offset)
	}
}

func Test_Qualifier_SubtractedAnchorRejected(t *testing.T) {
	_, err := ResolveQualifier(ivOf(t, "[1 - start]"), nil)
	if err == nil {
		t.Fatalf("1 - start has no anchored reading and must be rejected")
	}
}

func Test_Qualifier_LiteralBoundsInverted(t *testing.T) {
	_, err := ResolveQualifier(ivOf(t, "[start + 5, start + 2]"), nil)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("inverted literal bounds must be rejected, got %v", err)
	}
}

func Test_Qualifier_EndBeforeStartRejected(t *testing.T) {
	_, err := ResolveQualifier(ivOf(t, "[end, start]"), nil)
	if err == nil {
		t.Fatalf("an end-to-start interval must be rejected")
	}
}

func Test_Qualifier_SymbolicOffsetDeferred(t *testing.T) {
	// Parameter offsets cannot be ordered statically; resolution succeeds.
	params := map[string]bool{"d": true}
	q, err := ResolveQualifier(ivOf(t, "[start + d, end]"), params)
	if err != nil {
		t.Fatalf("symbolic offset must be deferred, got %v", err)
	}
	if q.Lower.Anchor != AnchorStart {
		t.Fatalf("anchor = %s", q.Lower.Anchor)
	}
}

func Test_Qualifier_UnknownOffsetNameRejected(t *testing.T) {
	if _, err := ResolveQualifier(ivOf(t, "[start + d]"), nil); err == nil {
		t.Fatalf("an offset naming nothing in scope must be rejected")
	}
}

func Test_Qualifier_DoubleAnchorRejected(t *testing.T) {
	if _, err := ResolveQualifier(ivOf(t, "[start + end]"), nil); err == nil {
		t.Fatalf("two anchors in one endpoint must be rejected")
	}
}
