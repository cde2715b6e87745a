// Package diag collects the coded front-end diagnostics.
// Each diagnostic is a source line plus a one-letter error code; the list
// keeps at most one diagnostic per line and prints them in line order.
package diag

import (
	"fmt"
	"io"
	"sort"
)

// Error codes reported by the front end.
const (
	IllegalFormat    = "a" // illegal character in format string, or lone & / |
	Redefined        = "b" // name redefined in the same scope
	Undefined        = "c" // undefined name
	ArgCount         = "d" // wrong number of call arguments
	ArgKind          = "e" // scalar/array argument mismatch
	VoidReturnsValue = "f" // return with a value in a void function
	MissingReturn    = "g" // int function does not end in a return
	AssignConst      = "h" // assignment to a constant
	MissingSemicolon = "i"
	MissingRParen    = "j"
	MissingRBracket  = "k"
	PrintfArgCount   = "l" // %d count differs from argument count
	StrayLoopControl = "m" // break/continue outside a loop
)

// Diagnostic is one front-end error
type Diagnostic struct {
	Line int
	Code string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d %s", d.Line, d.Code)
}

// List accumulates diagnostics
type List struct {
	items []Diagnostic
}

// Add records a diagnostic
func (l *List) Add(line int, code string) {
	l.items = append(l.items, Diagnostic{Line: line, Code: code})
}

// Merge appends every diagnostic of other
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}

// Len returns the number of recorded diagnostics (before per-line dedup)
func (l *List) Len() int {
	return len(l.items)
}

// Sorted returns the diagnostics ordered by line, first report per line wins
func (l *List) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Line < out[j].Line
	})
	var dedup []Diagnostic
	for _, d := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Line == d.Line {
			continue
		}
		dedup = append(dedup, d)
	}
	return dedup
}

// Write prints the sorted diagnostics, one per line
func (l *List) Write(w io.Writer) {
	for _, d := range l.Sorted() {
		fmt.Fprintln(w, d.String())
	}
}

var descriptions = map[string]string{
	IllegalFormat:    "illegal character in format string",
	Redefined:        "name redefined",
	Undefined:        "undefined name",
	ArgCount:         "wrong number of arguments",
	ArgKind:          "argument kind mismatch",
	VoidReturnsValue: "void function returns a value",
	MissingReturn:    "missing return at end of function",
	AssignConst:      "assignment to constant",
	MissingSemicolon: "missing ';'",
	MissingRParen:    "missing ')'",
	MissingRBracket:  "missing ']'",
	PrintfArgCount:   "printf argument count mismatch",
	StrayLoopControl: "break or continue outside a loop",
}

// Describe returns a short English description of code
func Describe(code string) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "unknown error"
}
