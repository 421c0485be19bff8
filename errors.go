// errors.go: caret-snippet rendering for diagnostics
//
// Turns collected diagnostics into readable, Python-style error snippets
// with a caret pointing at the offending column:
//
//	planning.anml:3:12: SyntaxError: expected ';' after declaration
//
//	   2 | fluent boolean at(robot r, loc l);
//	   3 | type vehicle < robot
//	       |            ^
//	   4 | instance loc depot;
//
// The snippet shows up to one line of context before and after the error,
// numbers the lines, and places a caret under the 1-based column. Output is
// plain text, suitable for logs and terminals. Rendering is independent of
// the builder and the parsers; the driver uses it for its --explain mode.
package planc

import (
	"fmt"
	"strings"
)

// RenderDiagnostic formats one diagnostic as a caret-annotated snippet of
// src. Line and column are 1-based and clamped to the source bounds, so a
// diagnostic pointing past the end still renders safely.
func RenderDiagnostic(d Diagnostic, src string) string {
	lines := strings.Split(src, "\n")
	line, col := d.Pos.Line, d.Pos.Col
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}

	var b strings.Builder
	b.WriteString(d.String())
	b.WriteString("\n\n")
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}

// RenderAll formats every diagnostic in the collector with snippets,
// separated by blank lines, in source order.
func RenderAll(diags *Diagnostics, src string) string {
	items := diags.Items()
	parts := make([]string, 0, len(items))
	for _, d := range items {
		parts = append(parts, RenderDiagnostic(d, src))
	}
	return strings.Join(parts, "\n")
}
