package driver

import (
	"fmt"
	"io"

	"github.com/raymyers/ralph-sysy/pkg/ast"
	"github.com/raymyers/ralph-sysy/pkg/lexer"
	"github.com/raymyers/ralph-sysy/pkg/mips"
	"github.com/raymyers/ralph-sysy/pkg/quad"
)

// Dump names an intermediate result and the file suffix it is written to.
// An empty suffix means the dump only goes to stdout.
type Dump struct {
	Name   string
	Suffix string
	Write  func(r *Result, w io.Writer)
	Ready  func(r *Result) bool // the producing stage ran
}

// Dumps lists every available dump in pipeline order
var Dumps = []Dump{
	{"tokens", ".tokens", WriteTokens, func(r *Result) bool { return r.Tokens != nil }},
	{"parse", ".parsed", WriteTree, func(r *Result) bool { return r.Program != nil }},
	{"symbols", ".symbols", WriteSymbols, func(r *Result) bool { return r.Table != nil }},
	{"ir", ".ir", WriteIR, func(r *Result) bool { return r.Quads != nil }},
	{"asm", "", WriteAsm, func(r *Result) bool { return r.Asm != nil }}, // the output file itself
}

// WriteTokens prints one "CATEGORY literal" line per token
func WriteTokens(r *Result, w io.Writer) {
	for _, tok := range r.Tokens {
		if tok.Type == lexer.TokenEOF {
			break
		}
		fmt.Fprintf(w, "%s %s\n", tok.Type.Code(), tok.Literal)
	}
}

// WriteTree pretty-prints the syntax tree
func WriteTree(r *Result, w io.Writer) {
	if r.Program != nil {
		ast.NewPrinter(w).PrintProgram(r.Program)
	}
}

// WriteSymbols prints the scope tree, one "scope name type" line per symbol
func WriteSymbols(r *Result, w io.Writer) {
	if r.Table != nil {
		r.Table.Dump(w)
	}
}

// WriteIR prints the quads
func WriteIR(r *Result, w io.Writer) {
	quad.NewPrinter(w).PrintProgram(r.Quads)
}

// WriteAsm prints the assembly program
func WriteAsm(r *Result, w io.Writer) {
	if r.Asm != nil {
		mips.NewPrinter(w).PrintProgram(r.Asm)
	}
}
