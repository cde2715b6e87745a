// Package driver runs the compiler pipeline on one source text:
// lex, parse, resolve, lower to quads, generate MIPS assembly.
//
// Front-end problems are reported as coded diagnostics and stop the run
// before IR generation. The passes after the front end panic on contract
// violations; Compile recovers those and returns an *InternalError.
package driver

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/raymyers/ralph-sysy/pkg/asmgen"
	"github.com/raymyers/ralph-sysy/pkg/ast"
	"github.com/raymyers/ralph-sysy/pkg/config"
	"github.com/raymyers/ralph-sysy/pkg/diag"
	"github.com/raymyers/ralph-sysy/pkg/irgen"
	"github.com/raymyers/ralph-sysy/pkg/lexer"
	"github.com/raymyers/ralph-sysy/pkg/mips"
	"github.com/raymyers/ralph-sysy/pkg/parser"
	"github.com/raymyers/ralph-sysy/pkg/quad"
	"github.com/raymyers/ralph-sysy/pkg/sema"
	"github.com/raymyers/ralph-sysy/pkg/symbol"
)

// ErrDiagnostics is returned when the source has front-end errors.
// Result.Diags and Result.Errors describe them.
var ErrDiagnostics = errors.New("source has errors")

// ErrNoEntry is returned when no function has the configured entry name
var ErrNoEntry = errors.New("entry function not defined")

// InternalError is a panic recovered from a pass after the front end
type InternalError struct {
	Stage string
	Value any
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %v", e.Stage, e.Value)
}

// Result holds everything one compilation produced. Fields after the
// failing stage are left empty.
type Result struct {
	Tokens  []lexer.Token
	Program *ast.Program
	Table   *symbol.Table
	Quads   []quad.Quad
	Asm     *mips.Program
	Lines   []string
	Funcs   []asmgen.FuncInfo

	Diags  []diag.Diagnostic // sorted, one per line
	Errors []string          // structural errors without a code

	Fingerprint uint64 // xxhash of the assembly text
}

// Text returns the assembly as one newline-terminated string
func (r *Result) Text() string {
	if len(r.Lines) == 0 {
		return ""
	}
	return strings.Join(r.Lines, "\n") + "\n"
}

// Compile runs the whole pipeline on src
func Compile(src string, cfg config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	res := &Result{}

	if err := res.frontEnd(src); err != nil {
		return res, err
	}
	if !hasFunc(res.Program, cfg.Entry) {
		return res, fmt.Errorf("%w: %s", ErrNoEntry, cfg.Entry)
	}

	if err := stage("irgen", func() {
		res.Quads = irgen.Generate(res.Program, res.Table)
	}); err != nil {
		return res, err
	}
	slog.Debug("quads generated", "count", len(res.Quads))

	if err := stage("asmgen", func() {
		res.Asm, res.Funcs = asmgen.TransformProgram(res.Quads, cfg.CodegenOptions())
		res.Lines = mips.Lines(res.Asm)
	}); err != nil {
		return res, err
	}
	for _, f := range res.Funcs {
		slog.Debug("function", "name", f.Name, "frame", f.FrameSize, "params", f.Params,
			"loads", f.Alloc.Loads, "spills", f.Alloc.Spills)
	}

	res.Fingerprint = xxhash.Sum64String(res.Text())
	return res, nil
}

// frontEnd lexes, parses and resolves src. Every coded diagnostic is
// collected before giving up so one run reports them all.
func (res *Result) frontEnd(src string) error {
	start := time.Now()
	l := lexer.New(src)
	res.Tokens = l.Tokenize()

	var diags diag.List
	p := parser.New(lexer.NewStream(res.Tokens))
	res.Program = p.ParseProgram()
	diags.Merge(l.Diagnostics())
	diags.Merge(p.Diagnostics())
	res.Errors = append(res.Errors, p.Errors()...)
	slog.Debug("stage done", "stage", "parse", "elapsed", time.Since(start))

	if len(res.Errors) == 0 {
		start = time.Now()
		sr := sema.Analyze(res.Program)
		res.Table = sr.Table
		diags.Merge(&sr.Diags)
		res.Errors = append(res.Errors, sr.Errors...)
		slog.Debug("stage done", "stage", "sema", "elapsed", time.Since(start))
	}

	res.Diags = diags.Sorted()
	if len(res.Diags) > 0 || len(res.Errors) > 0 {
		return fmt.Errorf("%w: %d diagnostics, %d errors", ErrDiagnostics, len(res.Diags), len(res.Errors))
	}
	return nil
}

// stage runs fn, turning a panic into an *InternalError
func stage(name string, fn func()) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &InternalError{Stage: name, Value: r}
		}
		slog.Debug("stage done", "stage", name, "elapsed", time.Since(start), "failed", err != nil)
	}()
	fn()
	return nil
}

func hasFunc(prog *ast.Program, name string) bool {
	for _, f := range prog.AllFuncs() {
		if f.Name == name {
			return true
		}
	}
	return false
}
