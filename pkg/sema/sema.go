// Package sema resolves names in a parsed SysY program.
//
// Analysis builds the scope tree, attaches every scope and declared symbol to
// the syntax tree, and reports the coded diagnostics of the front end
// (redefinition, undefined names, argument checks, return checks, printf
// checks, stray break/continue, assignment to constants).
package sema

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-sysy/pkg/ast"
	"github.com/raymyers/ralph-sysy/pkg/diag"
	"github.com/raymyers/ralph-sysy/pkg/symbol"
)

// Result is the outcome of semantic analysis
type Result struct {
	Table *symbol.Table
	Diags diag.List
	// Errors are structural problems without a diagnostic code, such as
	// indexing a scalar. They stop compilation like parser errors.
	Errors []string
}

// OK reports whether the program may be handed to IR generation
func (r *Result) OK() bool {
	return r.Diags.Len() == 0 && len(r.Errors) == 0
}

// Analyzer walks the tree once, in source order.
type Analyzer struct {
	res       *Result
	scope     *symbol.Scope
	fn        *ast.FuncDef
	loopDepth int
}

// Analyze resolves prog and returns its scope tree and diagnostics.
// Scopes and symbols are attached to prog in place.
func Analyze(prog *ast.Program) *Result {
	a := &Analyzer{res: &Result{Table: symbol.NewTable()}}
	a.scope = a.res.Table.Global
	a.scope.Define(&symbol.Symbol{
		Name:    "getint",
		Kind:    symbol.Func,
		ScopeID: a.scope.ID,
		Builtin: true,
	})

	for _, d := range prog.Decls {
		a.decl(d)
	}
	for _, f := range prog.AllFuncs() {
		a.funcDef(f)
	}
	return a.res
}

func (a *Analyzer) errorf(format string, args ...any) {
	a.res.Errors = append(a.res.Errors, fmt.Sprintf(format, args...))
}

func (a *Analyzer) report(line int, code string) {
	a.res.Diags.Add(line, code)
}

func (a *Analyzer) push() *symbol.Scope {
	a.scope = a.res.Table.Push(a.scope)
	return a.scope
}

func (a *Analyzer) pop() {
	a.scope = a.scope.Parent
}

func (a *Analyzer) decl(d *ast.Decl) {
	kind := symbol.Var
	switch {
	case d.Const:
		kind = symbol.Const
	case d.Static:
		kind = symbol.Static
	}
	folded := d.Const || d.Static || a.scope.IsGlobal()
	for _, def := range d.Defs {
		if def.Size != nil {
			a.expr(def.Size)
			if !a.isConstExpr(def.Size) {
				a.errorf("line %d: size of %s is not constant", def.Line, def.Name)
			}
		}
		for _, e := range def.Init {
			a.expr(e)
			if folded && !a.isConstExpr(e) {
				a.errorf("line %d: initializer of %s is not constant", def.Line, def.Name)
			}
		}
		if def.Init != nil && def.Array != def.InitList {
			a.errorf("line %d: initializer shape of %s does not match its declaration", def.Line, def.Name)
		}
		// defined after its initializer: "int a = a;" refers to an outer a
		def.Sym = &symbol.Symbol{
			Name:    def.Name,
			Kind:    kind,
			IsArray: def.Array,
			ScopeID: a.scope.ID,
			Line:    def.Line,
		}
		if !a.scope.Define(def.Sym) {
			a.report(def.Line, diag.Redefined)
		}
	}
}

func (a *Analyzer) funcDef(f *ast.FuncDef) {
	if !f.Main {
		sym := &symbol.Symbol{
			Name:    f.Name,
			Kind:    symbol.Func,
			Void:    f.Void,
			ScopeID: a.scope.ID,
			Line:    f.Line,
		}
		for _, p := range f.Params {
			if p.Array {
				sym.Params = append(sym.Params, symbol.Array)
			} else {
				sym.Params = append(sym.Params, symbol.Scalar)
			}
		}
		if !a.scope.Define(sym) {
			a.report(f.Line, diag.Redefined)
		}
	}

	a.fn = f
	f.Scope = a.push()
	for _, p := range f.Params {
		p.Sym = &symbol.Symbol{
			Name:    p.Name,
			Kind:    symbol.Var,
			IsArray: p.Array,
			ScopeID: a.scope.ID,
			Param:   true,
			Line:    p.Line,
		}
		if !a.scope.Define(p.Sym) {
			a.report(p.Line, diag.Redefined)
		}
	}
	// the body shares the parameter scope
	for _, item := range f.Body.Items {
		a.stmt(item)
	}
	if !f.Void && !endsInReturn(f.Body) {
		a.report(f.Body.EndLine, diag.MissingReturn)
	}
	a.pop()
	a.fn = nil
}

// endsInReturn reports whether the last statement of b always returns
func endsInReturn(b *ast.Block) bool {
	if len(b.Items) == 0 {
		return false
	}
	return alwaysReturns(b.Items[len(b.Items)-1])
}

func alwaysReturns(s ast.Stmt) bool {
	switch s := s.(type) {
	case ast.Return:
		return true
	case *ast.Block:
		return endsInReturn(s)
	case ast.If:
		return s.Else != nil && alwaysReturns(s.Then) && alwaysReturns(s.Else)
	}
	return false
}

func (a *Analyzer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case ast.DeclStmt:
		a.decl(s.Decl)
	case *ast.Block:
		s.Scope = a.push()
		for _, item := range s.Items {
			a.stmt(item)
		}
		a.pop()
	case ast.Assign:
		a.assign(s)
	case ast.ExprStmt:
		if s.Expr != nil {
			a.expr(s.Expr)
		}
	case ast.If:
		a.expr(s.Cond)
		a.stmt(s.Then)
		if s.Else != nil {
			a.stmt(s.Else)
		}
	case ast.For:
		for _, as := range s.Init {
			a.assign(as)
		}
		if s.Cond != nil {
			a.expr(s.Cond)
		}
		for _, as := range s.Update {
			a.assign(as)
		}
		a.loopDepth++
		a.stmt(s.Body)
		a.loopDepth--
	case ast.Break:
		if a.loopDepth == 0 {
			a.report(s.Line, diag.StrayLoopControl)
		}
	case ast.Continue:
		if a.loopDepth == 0 {
			a.report(s.Line, diag.StrayLoopControl)
		}
	case ast.Return:
		if s.Expr != nil {
			if a.fn != nil && a.fn.Void {
				a.report(s.Line, diag.VoidReturnsValue)
			}
			a.expr(s.Expr)
		}
	case ast.Printf:
		a.printf(s)
	case nil:
	default:
		panic(fmt.Sprintf("sema: unexpected statement %T", s))
	}
}

func (a *Analyzer) assign(s ast.Assign) {
	a.expr(s.Value)
	sym := a.lval(s.Target)
	switch {
	case sym == nil:
	case sym.IsConst():
		a.report(s.Line, diag.AssignConst)
	case sym.IsArray && s.Target.Index == nil:
		a.errorf("line %d: cannot assign to array %s", s.Line, s.Target.Name)
	}
}

func (a *Analyzer) printf(s ast.Printf) {
	if !legalFormat(s.Format) {
		a.report(s.Line, diag.IllegalFormat)
	}
	if strings.Count(s.Format, "%d") != len(s.Args) {
		a.report(s.Line, diag.PrintfArgCount)
	}
	for _, e := range s.Args {
		a.expr(e)
	}
}

// legalFormat checks the raw text of a format string: printable characters
// other than '"' and '#'..'\'', with '\' only in "\n" and '%' only in "%d".
func legalFormat(f string) bool {
	for i := 0; i < len(f); i++ {
		c := f[i]
		switch {
		case c == '\\':
			if i+1 >= len(f) || f[i+1] != 'n' {
				return false
			}
			i++
		case c == '%':
			if i+1 >= len(f) || f[i+1] != 'd' {
				return false
			}
			i++
		case c == 32 || c == 33 || (c >= 40 && c <= 126):
		default:
			return false
		}
	}
	return true
}

// lval resolves a variable reference; nil when undefined
func (a *Analyzer) lval(lv ast.LVal) *symbol.Symbol {
	sym := a.scope.Lookup(lv.Name)
	if lv.Index != nil {
		a.expr(lv.Index)
	}
	if sym == nil || sym.IsFunc() {
		a.report(lv.Line, diag.Undefined)
		return nil
	}
	if lv.Index != nil && !sym.IsArray {
		a.errorf("line %d: %s is not an array", lv.Line, lv.Name)
	}
	return sym
}

func (a *Analyzer) expr(e ast.Expr) {
	switch e := e.(type) {
	case ast.Number:
	case ast.LVal:
		if sym := a.lval(e); sym != nil && sym.IsArray && e.Index == nil {
			a.errorf("line %d: array %s used as a value", e.Line, e.Name)
		}
	case ast.Paren:
		a.expr(e.Expr)
	case ast.Unary:
		a.expr(e.Expr)
	case ast.Binary:
		a.expr(e.Left)
		a.expr(e.Right)
	case ast.Call:
		a.call(e)
	default:
		panic(fmt.Sprintf("sema: unexpected expression %T", e))
	}
}

func (a *Analyzer) call(c ast.Call) {
	for _, arg := range c.Args {
		if lv, ok := ast.PlainLVal(arg); ok && lv.Index == nil {
			// a whole array is passed by address
			a.lval(lv)
			continue
		}
		a.expr(arg)
	}
	fn := a.res.Table.Global.LookupLocal(c.Name)
	if fn == nil || !fn.IsFunc() {
		a.report(c.Line, diag.Undefined)
		return
	}
	if len(c.Args) != len(fn.Params) {
		a.report(c.Line, diag.ArgCount)
		return
	}
	for i, arg := range c.Args {
		if !a.argMatches(arg, fn.Params[i]) {
			a.report(c.Line, diag.ArgKind)
			return
		}
	}
}

// argMatches reports whether arg can be passed to a parameter of kind want.
// An array parameter takes a whole, non-constant array; a scalar parameter
// takes anything but a whole array.
func (a *Analyzer) argMatches(arg ast.Expr, want symbol.ParamKind) bool {
	var whole *symbol.Symbol
	if lv, ok := ast.PlainLVal(arg); ok && lv.Index == nil {
		if sym := a.scope.Lookup(lv.Name); sym != nil && sym.IsArray {
			whole = sym
		}
	}
	if want == symbol.Array {
		return whole != nil && !whole.IsConst()
	}
	return whole == nil
}

// isConstExpr reports whether e can be folded at compile time: literals,
// constants and arithmetic over them.
func (a *Analyzer) isConstExpr(e ast.Expr) bool {
	switch e := e.(type) {
	case ast.Number:
		return true
	case ast.LVal:
		sym := a.scope.Lookup(e.Name)
		if sym == nil || !sym.IsConst() || sym.IsArray != (e.Index != nil) {
			return false
		}
		return e.Index == nil || a.isConstExpr(e.Index)
	case ast.Paren:
		return a.isConstExpr(e.Expr)
	case ast.Unary:
		return a.isConstExpr(e.Expr)
	case ast.Binary:
		switch e.Op {
		case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
			return a.isConstExpr(e.Left) && a.isConstExpr(e.Right)
		}
	}
	return false
}
