package irgen

import (
	"fmt"

	"github.com/raymyers/ralph-sysy/pkg/ast"
	"github.com/raymyers/ralph-sysy/pkg/quad"
)

var binaryOps = map[ast.BinaryOp]quad.Op{
	ast.OpAdd: quad.OpAdd,
	ast.OpSub: quad.OpSub,
	ast.OpMul: quad.OpMul,
	ast.OpDiv: quad.OpDiv,
	ast.OpMod: quad.OpMod,
	ast.OpLt:  quad.OpLt,
	ast.OpLe:  quad.OpLe,
	ast.OpGt:  quad.OpGt,
	ast.OpGe:  quad.OpGe,
	ast.OpEq:  quad.OpEq,
	ast.OpNe:  quad.OpNe,
}

// expr lowers e and returns the operand holding its value: an immediate
// for a literal, a temporary otherwise, None for a void call.
func (g *Generator) expr(e ast.Expr) quad.Operand {
	switch e := e.(type) {
	case ast.Number:
		return quad.Imm(e.Value)
	case ast.Paren:
		return g.expr(e.Expr)
	case ast.LVal:
		return g.load(e)
	case ast.Unary:
		src := g.expr(e.Expr)
		switch e.Op {
		case ast.OpPlus:
			return src
		case ast.OpNeg:
			t := g.b.NewTemp()
			g.b.Emit(quad.OpNeg, src, quad.None, t)
			return t
		case ast.OpNot:
			t := g.b.NewTemp()
			g.b.Emit(quad.OpNot, src, quad.None, t)
			return t
		}
		panic(fmt.Sprintf("irgen: unknown unary operator %v", e.Op))
	case ast.Binary:
		op, ok := binaryOps[e.Op]
		if !ok {
			panic(fmt.Sprintf("irgen: operator %s outside a condition", e.Op))
		}
		left := g.expr(e.Left)
		right := g.expr(e.Right)
		t := g.b.NewTemp()
		g.b.Emit(op, left, right, t)
		return t
	case ast.Call:
		return g.call(e)
	}
	panic(fmt.Sprintf("irgen: unexpected expression %T", e))
}

func (g *Generator) load(lv ast.LVal) quad.Operand {
	sym := g.resolve(lv.Name)
	name := Name(sym)
	t := g.b.NewTemp()
	if lv.Index == nil {
		g.b.Emit(quad.OpLoad, name, quad.None, t)
		return t
	}
	if !sym.IsArray {
		panic(fmt.Sprintf("irgen: %s is not an array", sym.Name))
	}
	idx := g.expr(lv.Index)
	g.b.Emit(quad.OpLoadArr, name, idx, t)
	return t
}

func (g *Generator) call(c ast.Call) quad.Operand {
	if c.Name == "getint" && len(c.Args) == 0 {
		t := g.b.NewTemp()
		g.b.Emit(quad.OpGetInt, quad.None, quad.None, t)
		return t
	}
	callee := g.global.LookupLocal(c.Name)
	if callee == nil || !callee.IsFunc() {
		panic(fmt.Sprintf("irgen: call to unknown function %s", c.Name))
	}

	type arg struct {
		op  quad.Op
		val quad.Operand
	}
	args := make([]arg, 0, len(c.Args))
	for _, e := range c.Args {
		if lv, ok := ast.PlainLVal(e); ok && lv.Index == nil {
			if sym := g.resolve(lv.Name); sym.IsArray {
				args = append(args, arg{quad.OpParamAddr, Name(sym)})
				continue
			}
		}
		args = append(args, arg{quad.OpParamVal, g.expr(e)})
	}
	for _, a := range args {
		g.b.Emit(a.op, a.val, quad.None, quad.None)
	}

	n := quad.Imm(int32(len(args)))
	if callee.Void {
		g.b.Emit(quad.OpCall, quad.Func(c.Name), n, quad.None)
		return quad.None
	}
	t := g.b.NewTemp()
	g.b.Emit(quad.OpCall, quad.Func(c.Name), n, t)
	return t
}

// --- conditions ---

// cond lowers a condition that branches to falseLabel when it is zero and
// falls through otherwise. || and && short-circuit.
func (g *Generator) cond(e ast.Expr, falseLabel quad.Operand) {
	terms := flatten(e, ast.OpOr)
	if len(terms) == 1 {
		g.andChain(terms[0], falseLabel)
		return
	}

	pass := g.b.NewLabel("pass")
	for _, term := range terms[:len(terms)-1] {
		next := g.b.NewLabel("next")
		g.andChain(term, next)
		g.jump(pass)
		g.label(next)
	}
	g.andChain(terms[len(terms)-1], falseLabel)
	g.label(pass)
}

func (g *Generator) andChain(e ast.Expr, falseLabel quad.Operand) {
	for _, term := range flatten(e, ast.OpAnd) {
		v := g.expr(term)
		g.b.Emit(quad.OpBez, v, quad.None, falseLabel)
	}
}

// flatten returns the operands of a left-associated chain of op
func flatten(e ast.Expr, op ast.BinaryOp) []ast.Expr {
	b, ok := e.(ast.Binary)
	if !ok || b.Op != op {
		return []ast.Expr{e}
	}
	return append(flatten(b.Left, op), flatten(b.Right, op)...)
}

// --- constant folding ---

// fold evaluates a constant expression over literals and folded constants
func (g *Generator) fold(e ast.Expr) int32 {
	switch e := e.(type) {
	case ast.Number:
		return e.Value
	case ast.Paren:
		return g.fold(e.Expr)
	case ast.LVal:
		sym := g.resolve(e.Name)
		name := Name(sym)
		if e.Index == nil {
			v, ok := g.constScalar[name]
			if !ok {
				panic(fmt.Sprintf("irgen: %s is not a constant", e.Name))
			}
			return v
		}
		values, ok := g.constArray[name]
		if !ok {
			panic(fmt.Sprintf("irgen: %s is not a constant array", e.Name))
		}
		i := g.fold(e.Index)
		if i < 0 || int(i) >= len(values) {
			panic(fmt.Sprintf("irgen: constant index %d out of range for %s", i, e.Name))
		}
		return values[i]
	case ast.Unary:
		v := g.fold(e.Expr)
		switch e.Op {
		case ast.OpPlus:
			return v
		case ast.OpNeg:
			return -v
		case ast.OpNot:
			if v == 0 {
				return 1
			}
			return 0
		}
	case ast.Binary:
		l, r := g.fold(e.Left), g.fold(e.Right)
		switch e.Op {
		case ast.OpAdd:
			return l + r
		case ast.OpSub:
			return l - r
		case ast.OpMul:
			return l * r
		case ast.OpDiv, ast.OpMod:
			if r == 0 {
				panic("irgen: division by zero in constant expression")
			}
			if e.Op == ast.OpDiv {
				return l / r
			}
			return l % r
		}
	}
	panic(fmt.Sprintf("irgen: not a constant expression: %T", e))
}
