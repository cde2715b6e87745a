package ast

import (
	"bytes"
	"testing"
)

func TestOpStrings(t *testing.T) {
	if OpAnd.String() != "&&" || OpNe.String() != "!=" || BinaryOp(99).String() != "?" {
		t.Errorf("unexpected binary op names")
	}
	if OpNot.String() != "!" || OpNeg.String() != "-" {
		t.Errorf("unexpected unary op names")
	}
	if !OpOr.IsLogical() || OpLt.IsLogical() {
		t.Errorf("IsLogical wrong")
	}
}

func TestPlainLVal(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		ok   bool
	}{
		{"bare", LVal{Name: "a"}, true},
		{"parenthesized", Paren{Expr: Paren{Expr: LVal{Name: "a"}}}, true},
		{"indexed still plain", LVal{Name: "a", Index: Number{Value: 1}}, true},
		{"binary", Binary{Op: OpAdd, Left: LVal{Name: "a"}, Right: Number{Value: 1}}, false},
		{"number", Number{Value: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lv, ok := PlainLVal(tt.expr)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && lv.Name != "a" {
				t.Errorf("name = %q, want a", lv.Name)
			}
		})
	}
}

func TestPrintProgram(t *testing.T) {
	prog := &Program{
		Decls: []*Decl{
			{Const: true, Defs: []*Def{{Name: "n", Init: []Expr{Number{Value: 3}}}}},
		},
		Main: &FuncDef{
			Name: "main",
			Main: true,
			Body: &Block{Items: []Stmt{
				DeclStmt{Decl: &Decl{Defs: []*Def{{
					Name: "a", Array: true, Size: LVal{Name: "n"},
					Init: []Expr{Number{Value: 1}, Number{Value: 2}}, InitList: true,
				}}}},
				If{
					Cond: Binary{Op: OpGt, Left: LVal{Name: "n"}, Right: Number{Value: 0}},
					Then: Return{Expr: Unary{Op: OpNeg, Expr: LVal{Name: "n"}}},
				},
				Printf{Format: `%d\n`, Args: []Expr{LVal{Name: "a", Index: Number{Value: 0}}}},
				Return{Expr: Number{Value: 0}},
			}},
		},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)

	want := `const int n = 3;

int main()
{
  int a[n] = {1, 2};
  if (n > 0)
    return -n;
  printf("%d\n", a[0]);
  return 0;
}

`
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}
