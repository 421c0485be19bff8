// diag.go — structured diagnostics for one compilation unit.
//
// The collector is append-only and safe for concurrent use, so a caller may
// inspect it mid-run (linter use case) while a compile is still appending.
package planc

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Severity orders diagnostics; anything above SeverityWarning makes the
// unit's IR unusable.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	}
	return "unknown"
}

// ErrorKind names a diagnostic category.
type ErrorKind string

const (
	KindLexical           ErrorKind = "LexicalError"
	KindSyntax            ErrorKind = "SyntaxError"
	KindDuplicate         ErrorKind = "DuplicateDeclarationError"
	KindUndefined         ErrorKind = "UndefinedSymbolError"
	KindArityOrType       ErrorKind = "ArityOrTypeMismatchError"
	KindCyclicHierarchy   ErrorKind = "CyclicTypeHierarchyError"
	KindInvalidQualifier  ErrorKind = "InvalidQualifierError"
	KindMalformedDuration ErrorKind = "MalformedDurationConstraintError"
	KindWarning           ErrorKind = "Warning"
)

// defaultSeverity maps each kind to its severity. Only a type-hierarchy
// cycle is fatal: no sound IR exists once the subtype relation is cyclic.
func defaultSeverity(k ErrorKind) Severity {
	switch k {
	case KindCyclicHierarchy:
		return SeverityFatal
	case KindWarning:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Diagnostic is one collected finding attributed to a source location.
type Diagnostic struct {
	File     string
	Pos      Position
	Kind     ErrorKind
	Severity Severity
	Msg      string
}

// String renders the stable textual format: <file>:<line>:<col>: <Kind>: <msg>.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Pos.Line, d.Pos.Col, d.Kind, d.Msg)
}

// Diagnostics accumulates findings across a whole compilation run.
type Diagnostics struct {
	mu    sync.Mutex
	file  string
	items []Diagnostic
}

// NewDiagnostics creates a collector attributing findings to file.
func NewDiagnostics(file string) *Diagnostics {
	return &Diagnostics{file: file}
}

// Report appends a diagnostic with the kind's default severity.
func (c *Diagnostics) Report(pos Position, kind ErrorKind, format string, args ...any) {
	c.add(Diagnostic{
		File:     c.file,
		Pos:      pos,
		Kind:     kind,
		Severity: defaultSeverity(kind),
		Msg:      fmt.Sprintf(format, args...),
	})
}

// Warn appends a warning-severity diagnostic.
func (c *Diagnostics) Warn(pos Position, format string, args ...any) {
	c.add(Diagnostic{
		File:     c.file,
		Pos:      pos,
		Kind:     KindWarning,
		Severity: SeverityWarning,
		Msg:      fmt.Sprintf(format, args...),
	})
}

func (c *Diagnostics) add(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Items returns a snapshot of the collected diagnostics in source order.
func (c *Diagnostics) Items() []Diagnostic {
	c.mu.Lock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.Line != out[j].Pos.Line {
			return out[i].Pos.Line < out[j].Pos.Line
		}
		return out[i].Pos.Col < out[j].Pos.Col
	})
	return out
}

// Len returns the number of collected diagnostics.
func (c *Diagnostics) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// HasFatal reports whether a fatal diagnostic was recorded.
func (c *Diagnostics) HasFatal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.items {
		if d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Clean reports whether the unit's IR may be handed to downstream consumers:
// zero diagnostics above warning severity.
func (c *Diagnostics) Clean() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.items {
		if d.Severity > SeverityWarning {
			return false
		}
	}
	return true
}

// CountKind returns how many diagnostics of the given kind were recorded.
func (c *Diagnostics) CountKind(kind ErrorKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// String renders all diagnostics, one per line, in source order.
func (c *Diagnostics) String() string {
	var b strings.Builder
	for _, d := range c.Items() {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}
