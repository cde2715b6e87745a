package lexer

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals
	TokenIdent  // main, foo, x
	TokenInt    // 42
	TokenString // "hello %d\n"

	// Keywords
	TokenConst    // const
	TokenInt_     // int
	TokenStatic   // static
	TokenBreak    // break
	TokenContinue // continue
	TokenMain     // main
	TokenVoid     // void
	TokenReturn   // return
	TokenIf       // if
	TokenElse     // else
	TokenFor      // for
	TokenPrintf   // printf

	// Operators
	TokenNot     // !
	TokenAnd     // &&
	TokenOr      // ||
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %
	TokenLt      // <
	TokenLe      // <=
	TokenGt      // >
	TokenGe      // >=
	TokenEq      // ==
	TokenNe      // !=
	TokenAssign  // =

	// Delimiters
	TokenSemicolon // ;
	TokenComma     // ,
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenLBrace    // {
	TokenRBrace    // }
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenIllegal:   "ILLEGAL",
	TokenIdent:     "IDENT",
	TokenInt:       "INT",
	TokenString:    "STRING",
	TokenConst:     "const",
	TokenInt_:      "int",
	TokenStatic:    "static",
	TokenBreak:     "break",
	TokenContinue:  "continue",
	TokenMain:      "main",
	TokenVoid:      "void",
	TokenReturn:    "return",
	TokenIf:        "if",
	TokenElse:      "else",
	TokenFor:       "for",
	TokenPrintf:    "printf",
	TokenNot:       "!",
	TokenAnd:       "&&",
	TokenOr:        "||",
	TokenPlus:      "+",
	TokenMinus:     "-",
	TokenStar:      "*",
	TokenSlash:     "/",
	TokenPercent:   "%",
	TokenLt:        "<",
	TokenLe:        "<=",
	TokenGt:        ">",
	TokenGe:        ">=",
	TokenEq:        "==",
	TokenNe:        "!=",
	TokenAssign:    "=",
	TokenSemicolon: ";",
	TokenComma:     ",",
	TokenLParen:    "(",
	TokenRParen:    ")",
	TokenLBracket:  "[",
	TokenRBracket:  "]",
	TokenLBrace:    "{",
	TokenRBrace:    "}",
}

// tokenCodes are the category names used by the token dump (-dtokens)
var tokenCodes = map[TokenType]string{
	TokenIdent:     "IDENFR",
	TokenInt:       "INTCON",
	TokenString:    "STRCON",
	TokenConst:     "CONSTTK",
	TokenInt_:      "INTTK",
	TokenStatic:    "STATICTK",
	TokenBreak:     "BREAKTK",
	TokenContinue:  "CONTINUETK",
	TokenMain:      "MAINTK",
	TokenVoid:      "VOIDTK",
	TokenReturn:    "RETURNTK",
	TokenIf:        "IFTK",
	TokenElse:      "ELSETK",
	TokenFor:       "FORTK",
	TokenPrintf:    "PRINTFTK",
	TokenNot:       "NOT",
	TokenAnd:       "AND",
	TokenOr:        "OR",
	TokenPlus:      "PLUS",
	TokenMinus:     "MINU",
	TokenStar:      "MULT",
	TokenSlash:     "DIV",
	TokenPercent:   "MOD",
	TokenLt:        "LSS",
	TokenLe:        "LEQ",
	TokenGt:        "GRE",
	TokenGe:        "GEQ",
	TokenEq:        "EQL",
	TokenNe:        "NEQ",
	TokenAssign:    "ASSIGN",
	TokenSemicolon: "SEMICN",
	TokenComma:     "COMMA",
	TokenLParen:    "LPARENT",
	TokenRParen:    "RPARENT",
	TokenLBracket:  "LBRACK",
	TokenRBracket:  "RBRACK",
	TokenLBrace:    "LBRACE",
	TokenRBrace:    "RBRACE",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Code returns the category name of the token type, e.g. IDENFR or SEMICN
func (t TokenType) Code() string {
	if code, ok := tokenCodes[t]; ok {
		return code
	}
	return t.String()
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// keywords maps keyword strings to token types
var keywords = map[string]TokenType{
	"const":    TokenConst,
	"int":      TokenInt_,
	"static":   TokenStatic,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"main":     TokenMain,
	"void":     TokenVoid,
	"return":   TokenReturn,
	"if":       TokenIf,
	"else":     TokenElse,
	"for":      TokenFor,
	"printf":   TokenPrintf,
}

// LookupIdent returns the token type for an identifier (keyword or IDENT)
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
