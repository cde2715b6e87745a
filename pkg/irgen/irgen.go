// Package irgen lowers a resolved SysY syntax tree to quads.
//
// The generator walks the tree once. Scopes are entered through the
// *symbol.Scope each block carries, and names are resolved through a
// visibility stack in which a declared symbol appears only after its
// initializer has been lowered. Structural problems that semantic analysis
// should have rejected cause a panic with an "irgen:" message.
package irgen

import (
	"fmt"

	"github.com/raymyers/ralph-sysy/pkg/ast"
	"github.com/raymyers/ralph-sysy/pkg/quad"
	"github.com/raymyers/ralph-sysy/pkg/symbol"
)

// Generator holds the state of one lowering run
type Generator struct {
	b       *quad.Builder
	global  *symbol.Scope
	visible []map[string]*symbol.Symbol

	constScalar map[quad.Operand]int32
	constArray  map[quad.Operand][]int32

	breaks    []quad.Operand
	continues []quad.Operand
}

// New creates a generator resolving function names in table's global scope
func New(table *symbol.Table) *Generator {
	return &Generator{
		b:           quad.NewBuilder(),
		global:      table.Global,
		constScalar: make(map[quad.Operand]int32),
		constArray:  make(map[quad.Operand][]int32),
	}
}

// Generate lowers a resolved program and returns its quads: the global
// segment followed by every function, main last.
func Generate(prog *ast.Program, table *symbol.Table) []quad.Quad {
	g := New(table)
	g.Program(prog)
	return g.b.Quads()
}

// Program lowers prog into the generator's builder
func (g *Generator) Program(prog *ast.Program) {
	g.push()
	for _, d := range prog.Decls {
		g.decl(d)
	}
	for _, f := range prog.AllFuncs() {
		g.funcDef(f)
	}
	g.pop()
}

// Quads returns everything emitted so far
func (g *Generator) Quads() []quad.Quad {
	return g.b.Quads()
}

// ConstValue returns the folded value of a constant scalar
func (g *Generator) ConstValue(op quad.Operand) (int32, bool) {
	v, ok := g.constScalar[op]
	return v, ok
}

// --- visibility ---

func (g *Generator) push() {
	g.visible = append(g.visible, make(map[string]*symbol.Symbol))
}

func (g *Generator) pop() {
	g.visible = g.visible[:len(g.visible)-1]
}

func (g *Generator) activate(sym *symbol.Symbol) {
	if sym == nil {
		panic("irgen: declaration without a resolved symbol")
	}
	g.visible[len(g.visible)-1][sym.Name] = sym
}

func (g *Generator) resolve(name string) *symbol.Symbol {
	for i := len(g.visible) - 1; i >= 0; i-- {
		if sym, ok := g.visible[i][name]; ok {
			return sym
		}
	}
	panic(fmt.Sprintf("irgen: unresolved identifier %s", name))
}

// Name returns the IR operand of a variable symbol
func Name(sym *symbol.Symbol) quad.Operand {
	switch {
	case sym.ScopeID == symbol.GlobalScopeID:
		return quad.Global(sym.Name)
	case sym.Param:
		return quad.Param(sym.ScopeID, sym.Name)
	case sym.IsStatic():
		return quad.Static(sym.ScopeID, sym.Name)
	default:
		return quad.Local(sym.ScopeID, sym.Name)
	}
}

// --- declarations ---

func (g *Generator) decl(d *ast.Decl) {
	for _, def := range d.Defs {
		g.def(d, def)
	}
}

func (g *Generator) def(d *ast.Decl, def *ast.Def) {
	sym := def.Sym
	if sym == nil {
		panic(fmt.Sprintf("irgen: declaration of %s without a resolved symbol", def.Name))
	}
	name := Name(sym)
	inData := sym.ScopeID == symbol.GlobalScopeID || sym.IsStatic()

	size := int32(1)
	if def.Array {
		size = g.fold(def.Size)
	}
	if inData {
		g.b.EmitGlobal(quad.OpGDecl, name, quad.Imm(size), quad.None)
	} else {
		g.b.Emit(quad.OpDecl, name, quad.Imm(size), quad.None)
	}

	switch {
	case d.Const && def.Array:
		values := make([]int32, max(size, 0))
		for i, e := range def.Init {
			v := g.fold(e)
			if i < len(values) {
				values[i] = v
			}
			g.initElem(inData, quad.Imm(v), i, name)
		}
		g.constArray[name] = values
	case d.Const:
		v := g.fold(def.Init[0])
		g.constScalar[name] = v
		g.initScalar(inData, quad.Imm(v), name)
	case def.Init == nil:
	case inData && def.Array:
		for i, e := range def.Init {
			g.initElem(true, quad.Imm(g.fold(e)), i, name)
		}
	case inData:
		g.initScalar(true, quad.Imm(g.fold(def.Init[0])), name)
	case def.Array:
		for i, e := range def.Init {
			g.initElem(false, g.expr(e), i, name)
		}
	default:
		g.initScalar(false, g.expr(def.Init[0]), name)
	}

	g.activate(sym)
}

func (g *Generator) initScalar(inData bool, v, name quad.Operand) {
	if inData {
		g.b.EmitGlobal(quad.OpGInit, v, quad.None, name)
		return
	}
	g.b.Emit(quad.OpMove, v, quad.None, name)
}

func (g *Generator) initElem(inData bool, v quad.Operand, i int, name quad.Operand) {
	idx := quad.Imm(int32(i))
	if inData {
		g.b.EmitGlobal(quad.OpGInitArr, v, idx, name)
		return
	}
	g.b.Emit(quad.OpStoreArr, v, idx, name)
}

// --- functions and statements ---

func (g *Generator) funcDef(f *ast.FuncDef) {
	fn := quad.Func(f.Name)
	g.b.Emit(quad.OpFunc, fn, quad.None, quad.None)

	g.push()
	for _, p := range f.Params {
		g.activate(p.Sym)
		if p.Array {
			g.b.Emit(quad.OpFParamArr, Name(p.Sym), quad.None, quad.None)
		} else {
			g.b.Emit(quad.OpFParam, Name(p.Sym), quad.None, quad.None)
		}
	}
	for _, item := range f.Body.Items {
		g.stmt(item)
	}
	g.pop()

	if !g.endsInRet() {
		if f.Void {
			g.b.Emit(quad.OpRet, quad.None, quad.None, quad.None)
		} else {
			g.b.Emit(quad.OpRet, quad.Imm(0), quad.None, quad.None)
		}
	}
	g.b.Emit(quad.OpEndFunc, fn, quad.None, quad.None)
}

func (g *Generator) endsInRet() bool {
	last, ok := g.b.LastQuad()
	return ok && last.Op == quad.OpRet
}

func (g *Generator) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case ast.DeclStmt:
		g.decl(s.Decl)
	case *ast.Block:
		g.push()
		for _, item := range s.Items {
			g.stmt(item)
		}
		g.pop()
	case ast.Assign:
		g.assign(s)
	case ast.ExprStmt:
		if s.Expr != nil {
			g.expr(s.Expr)
		}
	case ast.If:
		g.ifStmt(s)
	case ast.For:
		g.forStmt(s)
	case ast.Break:
		if n := len(g.breaks); n > 0 {
			g.b.Emit(quad.OpJ, quad.None, quad.None, g.breaks[n-1])
		}
	case ast.Continue:
		if n := len(g.continues); n > 0 {
			g.b.Emit(quad.OpJ, quad.None, quad.None, g.continues[n-1])
		}
	case ast.Return:
		if s.Expr == nil {
			g.b.Emit(quad.OpRet, quad.None, quad.None, quad.None)
			return
		}
		g.b.Emit(quad.OpRet, g.expr(s.Expr), quad.None, quad.None)
	case ast.Printf:
		g.printf(s)
	default:
		panic(fmt.Sprintf("irgen: unexpected statement %T", s))
	}
}

func (g *Generator) assign(s ast.Assign) {
	v := g.expr(s.Value)
	sym := g.resolve(s.Target.Name)
	name := Name(sym)
	if s.Target.Index == nil {
		g.b.Emit(quad.OpMove, v, quad.None, name)
		return
	}
	if !sym.IsArray {
		panic(fmt.Sprintf("irgen: %s is not an array", sym.Name))
	}
	idx := g.expr(s.Target.Index)
	g.b.Emit(quad.OpStoreArr, v, idx, name)
}

func (g *Generator) ifStmt(s ast.If) {
	if s.Else == nil {
		end := g.b.NewLabel("if_end")
		g.cond(s.Cond, end)
		g.stmt(s.Then)
		g.label(end)
		return
	}

	elseLabel := g.b.NewLabel("if_else")
	end := g.b.NewLabel("if_end")
	g.cond(s.Cond, elseLabel)
	g.stmt(s.Then)
	thenReturns := g.endsInRet()
	if !thenReturns {
		g.jump(end)
	}
	g.label(elseLabel)
	g.stmt(s.Else)
	if thenReturns && g.endsInRet() {
		// nothing falls through to the join
		return
	}
	g.label(end)
}

func (g *Generator) forStmt(s ast.For) {
	for _, as := range s.Init {
		g.assign(as)
	}
	condLabel := g.b.NewLabel("for_cond")
	step := g.b.NewLabel("for_step")
	end := g.b.NewLabel("for_end")

	cont := condLabel
	if len(s.Update) > 0 {
		cont = step
	}
	g.breaks = append(g.breaks, end)
	g.continues = append(g.continues, cont)

	g.label(condLabel)
	if s.Cond != nil {
		g.cond(s.Cond, end)
	}
	g.stmt(s.Body)
	g.label(step)
	for _, as := range s.Update {
		g.assign(as)
	}
	g.jump(condLabel)
	g.label(end)

	g.breaks = g.breaks[:len(g.breaks)-1]
	g.continues = g.continues[:len(g.continues)-1]
}

func (g *Generator) label(l quad.Operand) {
	g.b.Emit(quad.OpLabel, quad.None, quad.None, l)
}

func (g *Generator) jump(l quad.Operand) {
	g.b.Emit(quad.OpJ, quad.None, quad.None, l)
}

// printf evaluates every argument into a temporary before any output is
// emitted, then scans the format once.
func (g *Generator) printf(s ast.Printf) {
	args := make([]quad.Operand, 0, len(s.Args))
	for _, e := range s.Args {
		v := g.expr(e)
		if v.Kind != quad.KindTemp {
			t := g.b.NewTemp()
			g.b.Emit(quad.OpMove, v, quad.None, t)
			v = t
		}
		args = append(args, v)
	}

	var buf []byte
	flush := func() {
		if len(buf) > 0 {
			g.b.Emit(quad.OpPrintStr, quad.Str(string(buf)), quad.None, quad.None)
			buf = buf[:0]
		}
	}
	next := 0
	f := s.Format
	for i := 0; i < len(f); i++ {
		switch {
		case f[i] == '%' && i+1 < len(f) && f[i+1] == 'd':
			flush()
			if next >= len(args) {
				panic("irgen: printf has more %d than arguments")
			}
			g.b.Emit(quad.OpPrintInt, args[next], quad.None, quad.None)
			next++
			i++
		case f[i] == '\\' && i+1 < len(f) && f[i+1] == 'n':
			buf = append(buf, '\n')
			i++
		default:
			buf = append(buf, f[i])
		}
	}
	flush()
}
