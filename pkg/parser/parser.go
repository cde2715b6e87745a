// Package parser implements a recursive descent parser for SysY
package parser

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"github.com/raymyers/ralph-sysy/pkg/ast"
	"github.com/raymyers/ralph-sysy/pkg/diag"
	"github.com/raymyers/ralph-sysy/pkg/lexer"
)

// TokenSource yields tokens one at a time; *lexer.Lexer and *lexer.Stream
// both satisfy it.
type TokenSource interface {
	NextToken() lexer.Token
}

// Parser parses SysY source code into an AST
type Parser struct {
	l         TokenSource
	curToken  lexer.Token
	peekToken lexer.Token
	ahead     []lexer.Token // tokens read past peekToken
	prevLine  int           // line of the last consumed token
	errors    []string
	diags     diag.List
}

// New creates a new Parser reading from l
func New(l TokenSource) *Parser {
	p := &Parser{l: l, prevLine: 1}
	// Read two tokens to initialize curToken and peekToken
	p.peekToken = p.read()
	p.nextToken()
	return p
}

func (p *Parser) read() lexer.Token {
	if len(p.ahead) > 0 {
		tok := p.ahead[0]
		p.ahead = p.ahead[1:]
		return tok
	}
	return p.l.NextToken()
}

func (p *Parser) nextToken() {
	if p.curToken.Line > 0 {
		p.prevLine = p.curToken.Line
	}
	p.curToken = p.peekToken
	p.peekToken = p.read()
}

// Errors returns the list of unrecoverable parsing errors
func (p *Parser) Errors() []string {
	return p.errors
}

// Diagnostics returns the coded syntax diagnostics (missing ; ) ])
func (p *Parser) Diagnostics() *diag.List {
	return &p.diags
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("line %d, col %d: %s",
		p.curToken.Line, p.curToken.Column, msg))
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, p.curToken.Type))
	return false
}

// expectCoded consumes t or, when it is missing, reports code on the line of
// the previous token and carries on as if t had been present.
func (p *Parser) expectCoded(t lexer.TokenType, code string) {
	if p.curTokenIs(t) {
		p.nextToken()
		return
	}
	p.diags.Add(p.prevLine, code)
}

func (p *Parser) expectSemicolon() { p.expectCoded(lexer.TokenSemicolon, diag.MissingSemicolon) }
func (p *Parser) expectRParen()    { p.expectCoded(lexer.TokenRParen, diag.MissingRParen) }
func (p *Parser) expectRBracket()  { p.expectCoded(lexer.TokenRBracket, diag.MissingRBracket) }

// ParseProgram parses a whole compilation unit:
// {Decl} {FuncDef} MainFuncDef
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}

	for !p.curTokenIs(lexer.TokenEOF) {
		switch {
		case p.curTokenIs(lexer.TokenConst) || p.curTokenIs(lexer.TokenStatic):
			prog.Decls = append(prog.Decls, p.parseDecl())
		case p.curTokenIs(lexer.TokenVoid):
			prog.Funcs = append(prog.Funcs, p.parseFuncDef())
		case p.curTokenIs(lexer.TokenInt_) && p.peekTokenIs(lexer.TokenMain):
			prog.Main = p.parseFuncDef()
		case p.curTokenIs(lexer.TokenInt_) && p.peekTokenIs(lexer.TokenIdent):
			if p.isFuncStart() {
				prog.Funcs = append(prog.Funcs, p.parseFuncDef())
			} else {
				prog.Decls = append(prog.Decls, p.parseDecl())
			}
		default:
			p.addError(fmt.Sprintf("unexpected token at top level: %s", p.curToken.Type))
			p.nextToken()
		}
	}

	if prog.Main == nil && len(p.errors) == 0 {
		p.addError("missing main function")
	}
	return prog
}

// isFuncStart distinguishes "int f(" from "int x" with the current lookahead:
// cur=int, peek=ident. The token after peek is buffered in ahead.
func (p *Parser) isFuncStart() bool {
	if len(p.ahead) == 0 {
		p.ahead = append(p.ahead, p.l.NextToken())
	}
	return p.ahead[0].Type == lexer.TokenLParen
}

func (p *Parser) parseFuncDef() *ast.FuncDef {
	fn := &ast.FuncDef{Line: p.curToken.Line, Void: p.curTokenIs(lexer.TokenVoid)}
	p.nextToken() // consume return type

	switch {
	case p.curTokenIs(lexer.TokenMain):
		fn.Name = "main"
		fn.Main = true
		p.nextToken()
	case p.curTokenIs(lexer.TokenIdent):
		fn.Name = p.curToken.Literal
		p.nextToken()
	default:
		p.addError(fmt.Sprintf("expected function name, got %s", p.curToken.Type))
	}

	p.expect(lexer.TokenLParen)
	if p.curTokenIs(lexer.TokenInt_) {
		fn.Params = p.parseParams()
	}
	p.expectRParen()

	if !p.curTokenIs(lexer.TokenLBrace) {
		p.addError(fmt.Sprintf("expected '{', got %s", p.curToken.Type))
		fn.Body = &ast.Block{EndLine: p.prevLine}
		return fn
	}
	fn.Body = p.parseBlock()
	return fn
}

func (p *Parser) parseParams() []*ast.Param {
	var params []*ast.Param
	for {
		if !p.expect(lexer.TokenInt_) {
			return params
		}
		param := &ast.Param{Line: p.curToken.Line}
		if p.curTokenIs(lexer.TokenIdent) {
			param.Name = p.curToken.Literal
			p.nextToken()
		} else {
			p.addError(fmt.Sprintf("expected parameter name, got %s", p.curToken.Type))
		}
		if p.curTokenIs(lexer.TokenLBracket) {
			p.nextToken()
			param.Array = true
			p.expectRBracket()
		}
		params = append(params, param)
		if !p.curTokenIs(lexer.TokenComma) {
			return params
		}
		p.nextToken()
	}
}

func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Items: []ast.Stmt{}}

	p.nextToken() // consume '{'

	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		stmt := p.parseBlockItem()
		if stmt != nil {
			block.Items = append(block.Items, stmt)
		}
	}

	block.EndLine = p.curToken.Line
	if !p.expect(lexer.TokenRBrace) {
		block.EndLine = p.prevLine
	}
	return block
}

func (p *Parser) parseBlockItem() ast.Stmt {
	switch p.curToken.Type {
	case lexer.TokenConst, lexer.TokenStatic, lexer.TokenInt_:
		return ast.DeclStmt{Decl: p.parseDecl()}
	}
	return p.parseStatement()
}

// parseDecl parses ConstDecl or VarDecl
func (p *Parser) parseDecl() *ast.Decl {
	d := &ast.Decl{Line: p.curToken.Line}
	switch {
	case p.curTokenIs(lexer.TokenConst):
		d.Const = true
		p.nextToken()
	case p.curTokenIs(lexer.TokenStatic):
		d.Static = true
		p.nextToken()
	}
	p.expect(lexer.TokenInt_)

	for {
		def := p.parseDef(d.Const)
		if def == nil {
			break
		}
		d.Defs = append(d.Defs, def)
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	p.expectSemicolon()
	return d
}

func (p *Parser) parseDef(isConst bool) *ast.Def {
	if !p.curTokenIs(lexer.TokenIdent) {
		p.addError(fmt.Sprintf("expected identifier, got %s", p.curToken.Type))
		p.nextToken()
		return nil
	}
	def := &ast.Def{Name: p.curToken.Literal, Line: p.curToken.Line}
	p.nextToken()

	if p.curTokenIs(lexer.TokenLBracket) {
		p.nextToken()
		def.Array = true
		def.Size = p.parseAddExp()
		p.expectRBracket()
	}

	if p.curTokenIs(lexer.TokenAssign) {
		p.nextToken()
		if p.curTokenIs(lexer.TokenLBrace) {
			p.nextToken()
			def.InitList = true
			def.Init = []ast.Expr{}
			for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
				def.Init = append(def.Init, p.parseAddExp())
				if !p.curTokenIs(lexer.TokenComma) {
					break
				}
				p.nextToken()
			}
			p.expect(lexer.TokenRBrace)
		} else {
			def.Init = []ast.Expr{p.parseAddExp()}
		}
	} else if isConst {
		p.addError(fmt.Sprintf("constant %s needs an initializer", def.Name))
	}
	return def
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenBreak:
		s := ast.Break{Line: p.curToken.Line}
		p.nextToken()
		p.expectSemicolon()
		return s
	case lexer.TokenContinue:
		s := ast.Continue{Line: p.curToken.Line}
		p.nextToken()
		p.expectSemicolon()
		return s
	case lexer.TokenReturn:
		return p.parseReturnStatement()
	case lexer.TokenPrintf:
		return p.parsePrintf()
	case lexer.TokenSemicolon:
		p.nextToken()
		return ast.ExprStmt{}
	}

	if !p.startsExpr() {
		p.addError(fmt.Sprintf("unexpected token in statement: %s", p.curToken.Type))
		p.nextToken()
		return nil
	}

	line := p.curToken.Line
	expr := p.parseAddExp()
	if p.curTokenIs(lexer.TokenAssign) {
		target, ok := expr.(ast.LVal)
		if !ok {
			p.addError("left side of assignment is not assignable")
		}
		p.nextToken()
		value := p.parseAddExp()
		p.expectSemicolon()
		return ast.Assign{Target: target, Value: value, Line: line}
	}
	p.expectSemicolon()
	return ast.ExprStmt{Expr: expr}
}

func (p *Parser) startsExpr() bool {
	switch p.curToken.Type {
	case lexer.TokenIdent, lexer.TokenInt, lexer.TokenLParen,
		lexer.TokenPlus, lexer.TokenMinus, lexer.TokenNot:
		return true
	}
	return false
}

func (p *Parser) parseIf() ast.Stmt {
	p.nextToken() // consume 'if'
	p.expect(lexer.TokenLParen)
	s := ast.If{Cond: p.parseLOrExp()}
	p.expectRParen()
	s.Then = p.parseStatement()
	if p.curTokenIs(lexer.TokenElse) {
		p.nextToken()
		s.Else = p.parseStatement()
	}
	return s
}

func (p *Parser) parseFor() ast.Stmt {
	p.nextToken() // consume 'for'
	p.expect(lexer.TokenLParen)
	var s ast.For
	if !p.curTokenIs(lexer.TokenSemicolon) {
		s.Init = p.parseForAssigns()
	}
	p.expectSemicolon()
	if !p.curTokenIs(lexer.TokenSemicolon) {
		s.Cond = p.parseLOrExp()
	}
	p.expectSemicolon()
	if !p.curTokenIs(lexer.TokenRParen) {
		s.Update = p.parseForAssigns()
	}
	p.expectRParen()
	s.Body = p.parseStatement()
	return s
}

func (p *Parser) parseForAssigns() []ast.Assign {
	var list []ast.Assign
	for {
		line := p.curToken.Line
		target := p.parseLVal()
		p.expect(lexer.TokenAssign)
		list = append(list, ast.Assign{Target: target, Value: p.parseAddExp(), Line: line})
		if !p.curTokenIs(lexer.TokenComma) {
			return list
		}
		p.nextToken()
	}
}

func (p *Parser) parseReturnStatement() ast.Stmt {
	s := ast.Return{Line: p.curToken.Line}
	p.nextToken() // consume 'return'

	if p.startsExpr() {
		s.Expr = p.parseAddExp()
	}
	p.expectSemicolon()
	return s
}

func (p *Parser) parsePrintf() ast.Stmt {
	s := ast.Printf{Line: p.curToken.Line}
	p.nextToken() // consume 'printf'
	p.expect(lexer.TokenLParen)
	if p.curTokenIs(lexer.TokenString) {
		s.Format = p.curToken.Literal
		p.nextToken()
	} else {
		p.addError(fmt.Sprintf("expected format string, got %s", p.curToken.Type))
	}
	for p.curTokenIs(lexer.TokenComma) {
		p.nextToken()
		s.Args = append(s.Args, p.parseAddExp())
	}
	p.expectRParen()
	p.expectSemicolon()
	return s
}

// --- Expressions, lowest precedence first ---

func (p *Parser) parseLOrExp() ast.Expr {
	left := p.parseLAndExp()
	for p.curTokenIs(lexer.TokenOr) {
		p.nextToken()
		left = ast.Binary{Op: ast.OpOr, Left: left, Right: p.parseLAndExp()}
	}
	return left
}

func (p *Parser) parseLAndExp() ast.Expr {
	left := p.parseEqExp()
	for p.curTokenIs(lexer.TokenAnd) {
		p.nextToken()
		left = ast.Binary{Op: ast.OpAnd, Left: left, Right: p.parseEqExp()}
	}
	return left
}

func (p *Parser) parseEqExp() ast.Expr {
	left := p.parseRelExp()
	for {
		var op ast.BinaryOp
		switch p.curToken.Type {
		case lexer.TokenEq:
			op = ast.OpEq
		case lexer.TokenNe:
			op = ast.OpNe
		default:
			return left
		}
		p.nextToken()
		left = ast.Binary{Op: op, Left: left, Right: p.parseRelExp()}
	}
}

func (p *Parser) parseRelExp() ast.Expr {
	left := p.parseAddExp()
	for {
		var op ast.BinaryOp
		switch p.curToken.Type {
		case lexer.TokenLt:
			op = ast.OpLt
		case lexer.TokenLe:
			op = ast.OpLe
		case lexer.TokenGt:
			op = ast.OpGt
		case lexer.TokenGe:
			op = ast.OpGe
		default:
			return left
		}
		p.nextToken()
		left = ast.Binary{Op: op, Left: left, Right: p.parseAddExp()}
	}
}

func (p *Parser) parseAddExp() ast.Expr {
	left := p.parseMulExp()
	for {
		var op ast.BinaryOp
		switch p.curToken.Type {
		case lexer.TokenPlus:
			op = ast.OpAdd
		case lexer.TokenMinus:
			op = ast.OpSub
		default:
			return left
		}
		p.nextToken()
		left = ast.Binary{Op: op, Left: left, Right: p.parseMulExp()}
	}
}

func (p *Parser) parseMulExp() ast.Expr {
	left := p.parseUnaryExp()
	for {
		var op ast.BinaryOp
		switch p.curToken.Type {
		case lexer.TokenStar:
			op = ast.OpMul
		case lexer.TokenSlash:
			op = ast.OpDiv
		case lexer.TokenPercent:
			op = ast.OpMod
		default:
			return left
		}
		p.nextToken()
		left = ast.Binary{Op: op, Left: left, Right: p.parseUnaryExp()}
	}
}

func (p *Parser) parseUnaryExp() ast.Expr {
	switch p.curToken.Type {
	case lexer.TokenPlus:
		p.nextToken()
		return ast.Unary{Op: ast.OpPlus, Expr: p.parseUnaryExp()}
	case lexer.TokenMinus:
		p.nextToken()
		return ast.Unary{Op: ast.OpNeg, Expr: p.parseUnaryExp()}
	case lexer.TokenNot:
		p.nextToken()
		return ast.Unary{Op: ast.OpNot, Expr: p.parseUnaryExp()}
	case lexer.TokenIdent:
		if p.peekTokenIs(lexer.TokenLParen) {
			return p.parseCall()
		}
	}
	return p.parsePrimaryExp()
}

func (p *Parser) parseCall() ast.Expr {
	call := ast.Call{Name: p.curToken.Literal, Line: p.curToken.Line}
	p.nextToken() // consume name
	p.nextToken() // consume '('
	if p.startsExpr() {
		for {
			call.Args = append(call.Args, p.parseAddExp())
			if !p.curTokenIs(lexer.TokenComma) {
				break
			}
			p.nextToken()
		}
	}
	p.expectRParen()
	return call
}

func (p *Parser) parsePrimaryExp() ast.Expr {
	switch p.curToken.Type {
	case lexer.TokenLParen:
		p.nextToken()
		e := ast.Paren{Expr: p.parseAddExp()}
		p.expectRParen()
		return e
	case lexer.TokenIdent:
		return p.parseLVal()
	case lexer.TokenInt:
		return p.parseNumber()
	}
	p.addError(fmt.Sprintf("expected expression, got %s", p.curToken.Type))
	p.nextToken()
	return ast.Number{}
}

func (p *Parser) parseLVal() ast.LVal {
	lv := ast.LVal{Name: p.curToken.Literal, Line: p.curToken.Line}
	if !p.expect(lexer.TokenIdent) {
		return lv
	}
	if p.curTokenIs(lexer.TokenLBracket) {
		p.nextToken()
		lv.Index = p.parseAddExp()
		p.expectRBracket()
	}
	return lv
}

func (p *Parser) parseNumber() ast.Expr {
	lit := p.curToken.Literal
	p.nextToken()
	wide, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		p.addError(fmt.Sprintf("bad integer literal %q", lit))
		return ast.Number{}
	}
	value, err := safecast.Conv[int32](wide)
	if err != nil {
		p.addError(fmt.Sprintf("integer literal %s out of range", lit))
		return ast.Number{}
	}
	return ast.Number{Value: value}
}
