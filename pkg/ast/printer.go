package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs the AST as indented SysY source
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new AST printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indent: 0}
}

// PrintProgram prints a complete program
func (p *Printer) PrintProgram(prog *Program) {
	for _, d := range prog.Decls {
		p.printDecl(d)
	}
	if len(prog.Decls) > 0 {
		fmt.Fprintln(p.w)
	}
	for _, f := range prog.AllFuncs() {
		p.printFuncDef(f)
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printFuncDef(f *FuncDef) {
	ret := "int"
	if f.Void {
		ret = "void"
	}
	fmt.Fprintf(p.w, "%s %s(", ret, f.Name)
	for i, param := range f.Params {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprintf(p.w, "int %s", param.Name)
		if param.Array {
			fmt.Fprint(p.w, "[]")
		}
	}
	fmt.Fprintln(p.w, ")")
	p.printBlock(f.Body)
}

func (p *Printer) printDecl(d *Decl) {
	p.writeIndent()
	switch {
	case d.Const:
		fmt.Fprint(p.w, "const int ")
	case d.Static:
		fmt.Fprint(p.w, "static int ")
	default:
		fmt.Fprint(p.w, "int ")
	}
	for i, def := range d.Defs {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprint(p.w, def.Name)
		if def.Array {
			fmt.Fprint(p.w, "[")
			if def.Size != nil {
				p.printExpr(def.Size)
			}
			fmt.Fprint(p.w, "]")
		}
		if def.Init != nil {
			fmt.Fprint(p.w, " = ")
			if def.InitList {
				fmt.Fprint(p.w, "{")
				p.printExprList(def.Init)
				fmt.Fprint(p.w, "}")
			} else {
				p.printExpr(def.Init[0])
			}
		}
	}
	fmt.Fprintln(p.w, ";")
}

func (p *Printer) printBlock(b *Block) {
	p.writeIndent()
	fmt.Fprintln(p.w, "{")
	p.indent++
	for _, stmt := range b.Items {
		p.printStmt(stmt)
	}
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *Block:
		p.printBlock(s)
		return
	case DeclStmt:
		p.printDecl(s.Decl)
		return
	}

	p.writeIndent()
	switch s := stmt.(type) {
	case Assign:
		p.printAssign(s)
		fmt.Fprintln(p.w, ";")
	case ExprStmt:
		if s.Expr != nil {
			p.printExpr(s.Expr)
		}
		fmt.Fprintln(p.w, ";")
	case If:
		fmt.Fprint(p.w, "if (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printNested(s.Then)
		if s.Else != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "else")
			p.printNested(s.Else)
		}
	case For:
		fmt.Fprint(p.w, "for (")
		p.printAssignList(s.Init)
		fmt.Fprint(p.w, "; ")
		if s.Cond != nil {
			p.printExpr(s.Cond)
		}
		fmt.Fprint(p.w, "; ")
		p.printAssignList(s.Update)
		fmt.Fprintln(p.w, ")")
		p.printNested(s.Body)
	case Break:
		fmt.Fprintln(p.w, "break;")
	case Continue:
		fmt.Fprintln(p.w, "continue;")
	case Return:
		fmt.Fprint(p.w, "return")
		if s.Expr != nil {
			fmt.Fprint(p.w, " ")
			p.printExpr(s.Expr)
		}
		fmt.Fprintln(p.w, ";")
	case Printf:
		fmt.Fprintf(p.w, "printf(\"%s\"", s.Format)
		for _, a := range s.Args {
			fmt.Fprint(p.w, ", ")
			p.printExpr(a)
		}
		fmt.Fprintln(p.w, ");")
	default:
		fmt.Fprintf(p.w, "/* unknown stmt %T */;\n", stmt)
	}
}

// printNested prints a sub-statement one level deeper unless it is a block
func (p *Printer) printNested(s Stmt) {
	if b, ok := s.(*Block); ok {
		p.printBlock(b)
		return
	}
	p.indent++
	p.printStmt(s)
	p.indent--
}

func (p *Printer) printAssign(a Assign) {
	p.printExpr(a.Target)
	fmt.Fprint(p.w, " = ")
	p.printExpr(a.Value)
}

func (p *Printer) printAssignList(list []Assign) {
	for i, a := range list {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		p.printAssign(a)
	}
}

func (p *Printer) printExprList(list []Expr) {
	for i, e := range list {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		p.printExpr(e)
	}
}

func (p *Printer) printExpr(expr Expr) {
	switch e := expr.(type) {
	case Number:
		fmt.Fprintf(p.w, "%d", e.Value)
	case LVal:
		fmt.Fprint(p.w, e.Name)
		if e.Index != nil {
			fmt.Fprint(p.w, "[")
			p.printExpr(e.Index)
			fmt.Fprint(p.w, "]")
		}
	case Unary:
		fmt.Fprint(p.w, e.Op.String())
		p.printExpr(e.Expr)
	case Binary:
		p.printExpr(e.Left)
		fmt.Fprintf(p.w, " %s ", e.Op)
		p.printExpr(e.Right)
	case Paren:
		fmt.Fprint(p.w, "(")
		p.printExpr(e.Expr)
		fmt.Fprint(p.w, ")")
	case Call:
		fmt.Fprintf(p.w, "%s(", e.Name)
		p.printExprList(e.Args)
		fmt.Fprint(p.w, ")")
	case nil:
		fmt.Fprint(p.w, "/* nil */")
	default:
		fmt.Fprintf(p.w, "/* unknown expr %T */", expr)
	}
}
