// Package ast defines the syntax tree for SysY programs.
// Blocks and function definitions own the scope semantic analysis creates
// for them, so later passes enter scopes through the tree itself.
package ast

import "github.com/raymyers/ralph-sysy/pkg/symbol"

// Node is the base interface for all AST nodes
type Node interface {
	implNode()
}

// Expr is the interface for all expression nodes
type Expr interface {
	Node
	implExpr()
}

// Stmt is the interface for all statement nodes
type Stmt interface {
	Node
	implStmt()
}

// BinaryOp represents binary operators
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd // &&
	OpOr  // ||
)

func (op BinaryOp) String() string {
	names := []string{"+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "&&", "||"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// IsLogical reports whether op is && or ||
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// UnaryOp represents unary operators
type UnaryOp int

const (
	OpPlus UnaryOp = iota // +
	OpNeg                 // -
	OpNot                 // !
)

func (op UnaryOp) String() string {
	names := []string{"+", "-", "!"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// --- Expressions ---

// Number represents an integer literal
type Number struct {
	Value int32
}

// LVal is a variable reference, optionally indexed: x or a[i]
type LVal struct {
	Name  string
	Index Expr // nil when not indexed
	Line  int
}

// Unary represents a unary expression
type Unary struct {
	Op   UnaryOp
	Expr Expr
}

// Binary represents a binary expression
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Paren represents a parenthesized expression
type Paren struct {
	Expr Expr
}

// Call represents a function call, including the getint() built-in
type Call struct {
	Name string
	Args []Expr
	Line int
}

// --- Statements ---

// Assign represents lval = expr
type Assign struct {
	Target LVal
	Value  Expr
	Line   int
}

// ExprStmt is an expression statement; Expr is nil for an empty statement
type ExprStmt struct {
	Expr Expr
}

// Block represents a compound statement
type Block struct {
	Items   []Stmt
	EndLine int           // line of the closing brace
	Scope   *symbol.Scope // set by semantic analysis; nil for a function body
}

// If represents if/else
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

// For represents for (init; cond; update) body
type For struct {
	Init   []Assign
	Cond   Expr // nil when absent
	Update []Assign
	Body   Stmt
}

// Break represents break
type Break struct {
	Line int
}

// Continue represents continue
type Continue struct {
	Line int
}

// Return represents a return statement
type Return struct {
	Expr Expr // nil for bare return
	Line int
}

// Printf represents printf("fmt", args...). Format is the raw text between
// the quotes with escapes as written.
type Printf struct {
	Format string
	Args   []Expr
	Line   int
}

// DeclStmt is a declaration appearing inside a block
type DeclStmt struct {
	Decl *Decl
}

// --- Declarations ---

// Decl is one const/var declaration line
type Decl struct {
	Const  bool
	Static bool
	Defs   []*Def
	Line   int
}

// Def is one declarator of a Decl
type Def struct {
	Name     string
	Array    bool
	Size     Expr   // array length, nil for scalars
	Init     []Expr // initializer values; nil when absent
	InitList bool   // initializer written with braces
	Line     int
	Sym      *symbol.Symbol // set by semantic analysis
}

// Param is one formal parameter
type Param struct {
	Name  string
	Array bool
	Line  int
	Sym   *symbol.Symbol
}

// FuncDef is a function definition; main is represented with Main set
type FuncDef struct {
	Name   string
	Void   bool
	Main   bool
	Params []*Param
	Body   *Block
	Line   int
	Scope  *symbol.Scope // parameters and outermost body declarations
}

// Program is a whole compilation unit
type Program struct {
	Decls []*Decl
	Funcs []*FuncDef // user functions in declaration order, main excluded
	Main  *FuncDef
}

// AllFuncs returns the user functions followed by main
func (p *Program) AllFuncs() []*FuncDef {
	out := make([]*FuncDef, 0, len(p.Funcs)+1)
	out = append(out, p.Funcs...)
	if p.Main != nil {
		out = append(out, p.Main)
	}
	return out
}

// PlainLVal returns the bare variable an expression consists of, looking
// through parentheses; ok is false for anything else.
func PlainLVal(e Expr) (LVal, bool) {
	switch x := e.(type) {
	case LVal:
		return x, true
	case Paren:
		return PlainLVal(x.Expr)
	}
	return LVal{}, false
}

// Marker methods for interface implementation

func (Number) implNode() {}
func (Number) implExpr() {}
func (LVal) implNode()   {}
func (LVal) implExpr()   {}
func (Unary) implNode()  {}
func (Unary) implExpr()  {}
func (Binary) implNode() {}
func (Binary) implExpr() {}
func (Paren) implNode()  {}
func (Paren) implExpr()  {}
func (Call) implNode()   {}
func (Call) implExpr()   {}

func (Assign) implNode()    {}
func (Assign) implStmt()    {}
func (ExprStmt) implNode()  {}
func (ExprStmt) implStmt()  {}
func (*Block) implNode()    {}
func (*Block) implStmt()    {}
func (If) implNode()        {}
func (If) implStmt()        {}
func (For) implNode()       {}
func (For) implStmt()       {}
func (Break) implNode()     {}
func (Break) implStmt()     {}
func (Continue) implNode()  {}
func (Continue) implStmt()  {}
func (Return) implNode()    {}
func (Return) implStmt()    {}
func (Printf) implNode()    {}
func (Printf) implStmt()    {}
func (DeclStmt) implNode()  {}
func (DeclStmt) implStmt()  {}
func (*FuncDef) implNode()  {}
func (*Decl) implNode()     {}
func (*Program) implNode()  {}
