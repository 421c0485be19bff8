// temporal.go — normalization of timepoint and interval expressions.
//
// Every surface form ([start], [end], [all], (all), [0], [start+10],
// (1 + start, end], ...) resolves to one canonical Qualifier. Offsets stay
// symbolic when they mention action parameters; the lower<=upper sanity
// check only fires when both bounds are literal.
package planc

import (
	"fmt"
	"strings"
)

// Anchor is a canonical timepoint anchor.
type Anchor int

const (
	AnchorStart Anchor = iota // relative to the action's start
	AnchorEnd                 // relative to the action's end
	AnchorAbsolute            // absolute tick on the plan timeline
	AnchorAll                 // the action's full span
)

func (a Anchor) String() string {
	switch a {
	case AnchorStart:
		return "start"
	case AnchorEnd:
		return "end"
	case AnchorAbsolute:
		return "absolute"
	case AnchorAll:
		return "all"
	}
	return "anchor"
}

// Timepoint is an anchor plus an offset expression. A nil Offset means zero.
type Timepoint struct {
	Anchor Anchor
	Offset Expr
}

func (tp Timepoint) String() string {
	if tp.Offset == nil {
		return tp.Anchor.String()
	}
	if v, ok := foldConst(tp.Offset); ok {
		if tp.Anchor == AnchorAbsolute {
			return fmt.Sprintf("%g", v)
		}
		return fmt.Sprintf("%s+%g", tp.Anchor, v)
	}
	return fmt.Sprintf("%s+<expr>", tp.Anchor)
}

// QualifierKind distinguishes the canonical forms.
type QualifierKind int

const (
	QualInstant QualifierKind = iota
	QualInterval
	QualAllSpan
)

// Qualifier is the canonical temporal qualifier carried by every condition
// and effect statement.
type Qualifier struct {
	Kind QualifierKind

	// Instant form.
	At Timepoint

	// Interval form with per-endpoint openness.
	Lower, Upper         Timepoint
	OpenLower, OpenUpper bool
}

func (q Qualifier) String() string {
	switch q.Kind {
	case QualAllSpan:
		return "[all]"
	case QualInstant:
		return "[" + q.At.String() + "]"
	default:
		lo, hi := "[", "]"
		if q.OpenLower {
			lo = "("
		}
		if q.OpenUpper {
			hi = ")"
		}
		return fmt.Sprintf("%s%s, %s%s", lo, q.Lower.String(), q.Upper.String(), hi)
	}
}

// AtStart / AtEnd / OverAll are the common canonical qualifiers.
func AtStart() Qualifier { return Qualifier{Kind: QualInstant, At: Timepoint{Anchor: AnchorStart}} }
func AtEnd() Qualifier   { return Qualifier{Kind: QualInstant, At: Timepoint{Anchor: AnchorEnd}} }
func OverAll() Qualifier { return Qualifier{Kind: QualAllSpan} }

// AtTick returns the absolute-instant qualifier for a literal tick.
func AtTick(e Expr) Qualifier {
	return Qualifier{Kind: QualInstant, At: Timepoint{Anchor: AnchorAbsolute, Offset: e}}
}

// ResolveQualifier normalizes a parsed interval into canonical form.
// params names the enclosing action's parameters; offsets may reference
// them and are then accepted without the literal bound check.
func ResolveQualifier(iv *IntervalSyntax, params map[string]bool) (Qualifier, error) {
	if iv.IsAllToken {
		return OverAll(), nil
	}
	lower, err := resolveTimepoint(iv.Lo, params)
	if err != nil {
		return Qualifier{}, err
	}
	if iv.Hi == nil {
		// Instant form; openness is meaningless on a point.
		if lower.Anchor == AnchorAbsolute {
			return AtTick(lower.Offset), nil
		}
		return Qualifier{Kind: QualInstant, At: lower}, nil
	}
	upper, err := resolveTimepoint(iv.Hi, params)
	if err != nil {
		return Qualifier{}, err
	}
	q := Qualifier{
		Kind:      QualInterval,
		Lower:     lower,
		Upper:     upper,
		OpenLower: iv.OpenLower,
		OpenUpper: iv.OpenUpper,
	}
	if err := checkLiteralOrder(q); err != nil {
		return Qualifier{}, err
	}
	return q, nil
}

// resolveTimepoint decomposes an endpoint expression into anchor + offset.
// Accepted shapes: `start`, `end`, a numeric expression (absolute), and a
// single +/- chain in which `start` or `end` occurs exactly once on either
// side (`start + 1.0`, `1 + start`, `end - x`).
func resolveTimepoint(e Expr, params map[string]bool) (Timepoint, error) {
	if e == nil {
		return Timepoint{Anchor: AnchorAbsolute}, nil
	}
	n := countAnchorRefs(e)
	switch n {
	case 0:
		if err := checkOffsetExpr(e, params); err != nil {
			return Timepoint{}, err
		}
		return Timepoint{Anchor: AnchorAbsolute, Offset: e}, nil
	case 1:
		anchor, offset, err := extractAnchor(e)
		if err != nil {
			return Timepoint{}, err
		}
		if offset != nil {
			if err := checkOffsetExpr(offset, params); err != nil {
				return Timepoint{}, err
			}
		}
		return Timepoint{Anchor: anchor, Offset: offset}, nil
	default:
		return Timepoint{}, fmt.Errorf("timepoint mentions start/end more than once")
	}
}

func countAnchorRefs(e Expr) int {
	switch x := e.(type) {
	case *Ref:
		if x.Args == nil && (x.Name == "start" || x.Name == "end") {
			return 1
		}
		return 0
	case *Unary:
		return countAnchorRefs(x.X)
	case *Binary:
		return countAnchorRefs(x.X) + countAnchorRefs(x.Y)
	default:
		return 0
	}
}

// extractAnchor removes the single start/end reference from a +/- chain and
// returns the remaining offset expression (nil when the anchor stood alone).
func extractAnchor(e Expr) (Anchor, Expr, error) {
	if r, ok := e.(*Ref); ok && r.Args == nil {
		switch r.Name {
		case "start":
			return AnchorStart, nil, nil
		case "end":
			return AnchorEnd, nil, nil
		}
	}
	b, ok := e.(*Binary)
	if !ok || (b.Op != "+" && b.Op != "-") {
		return 0, nil, fmt.Errorf("unsupported timepoint expression")
	}
	switch {
	case countAnchorRefs(b.X) == 1:
		anchor, rest, err := extractAnchor(b.X)
		if err != nil {
			return 0, nil, err
		}
		rhs := b.Y
		if b.Op == "-" {
			rhs = &Unary{P: b.Y.Pos(), Op: "-", X: b.Y}
		}
		if rest == nil {
			return anchor, rhs, nil
		}
		return anchor, &Binary{P: b.P, Op: "+", X: rest, Y: rhs}, nil
	case countAnchorRefs(b.Y) == 1:
		if b.Op == "-" {
			// `1 - start` has no sensible anchored reading.
			return 0, nil, fmt.Errorf("cannot subtract a timepoint anchor")
		}
		anchor, rest, err := extractAnchor(b.Y)
		if err != nil {
			return 0, nil, err
		}
		if rest == nil {
			return anchor, b.X, nil
		}
		return anchor, &Binary{P: b.P, Op: "+", X: b.X, Y: rest}, nil
	default:
		return 0, nil, fmt.Errorf("unsupported timepoint expression")
	}
}

// checkOffsetExpr accepts constants and linear expressions over the
// enclosing action's own parameters; anything else is rejected.
func checkOffsetExpr(e Expr, params map[string]bool) error {
	switch x := e.(type) {
	case *Literal:
		return nil
	case *Ref:
		if x.Args != nil {
			return fmt.Errorf("fluent application %q is not a valid timepoint offset", x.Name)
		}
		if params != nil && params[x.Name] {
			return nil
		}
		return fmt.Errorf("unknown name %q in timepoint offset", x.Name)
	case *Unary:
		if x.Op != "-" {
			return fmt.Errorf("operator %q is not allowed in a timepoint offset", x.Op)
		}
		return checkOffsetExpr(x.X, params)
	case *Binary:
		switch x.Op {
		case "+", "-", "*", "/":
		default:
			return fmt.Errorf("operator %q is not allowed in a timepoint offset", x.Op)
		}
		if err := checkOffsetExpr(x.X, params); err != nil {
			return err
		}
		return checkOffsetExpr(x.Y, params)
	default:
		return fmt.Errorf("unsupported timepoint offset expression")
	}
}

// checkLiteralOrder rejects intervals whose bounds are both literal and
// provably inverted. Symbolic offsets are deferred to grounding time.
func checkLiteralOrder(q Qualifier) error {
	if q.Lower.Anchor != q.Upper.Anchor {
		// start <= end always holds for a well-formed action span; mixed
		// anchors are only refutable when lower is end and upper is start.
		if q.Lower.Anchor == AnchorEnd && q.Upper.Anchor == AnchorStart {
			return fmt.Errorf("interval runs from end back to start")
		}
		return nil
	}
	lo, okLo := foldConstOrZero(q.Lower.Offset)
	hi, okHi := foldConstOrZero(q.Upper.Offset)
	if okLo && okHi && lo > hi {
		return fmt.Errorf("interval lower bound %g exceeds upper bound %g", lo, hi)
	}
	return nil
}

// foldConst evaluates a fully-literal numeric expression.
func foldConst(e Expr) (float64, bool) {
	switch x := e.(type) {
	case *Literal:
		switch x.Kind {
		case LitInt:
			return float64(x.Int), true
		case LitFloat:
			return x.Float, true
		}
		return 0, false
	case *Unary:
		if x.Op != "-" {
			return 0, false
		}
		v, ok := foldConst(x.X)
		return -v, ok
	case *Binary:
		a, okA := foldConst(x.X)
		b, okB := foldConst(x.Y)
		if !okA || !okB {
			return 0, false
		}
		switch x.Op {
		case "+":
			return a + b, true
		case "-":
			return a - b, true
		case "*":
			return a * b, true
		case "/":
			if b == 0 {
				return 0, false
			}
			return a / b, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func foldConstOrZero(e Expr) (float64, bool) {
	if e == nil {
		return 0, true
	}
	return foldConst(e)
}

// describeInterval renders the raw surface text of an interval for error
// messages, best effort.
func describeInterval(iv *IntervalSyntax) string {
	var b strings.Builder
	if iv.OpenLower {
		b.WriteByte('(')
	} else {
		b.WriteByte('[')
	}
	b.WriteString("...")
	if iv.OpenUpper {
		b.WriteByte(')')
	} else {
		b.WriteByte(']')
	}
	return b.String()
}
