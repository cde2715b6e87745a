package quad

import (
	"fmt"
	"strings"
)

// Op is a quad opcode
type Op int

const (
	OpDecl     Op = iota // decl x, n          local array/scalar of n words
	OpGDecl              // gdecl x, n         global or static of n words
	OpMove               // move a, r          r = a
	OpGInit              // ginit a, r         data-segment initial value
	OpStoreArr           // storearr v, i, a   a[i] = v
	OpGInitArr           // ginitarr v, i, a   data-segment element initial value
	OpLoad               // load a, r          r = a
	OpLoadArr            // loadarr a, i, r    r = a[i]

	OpAdd
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
	OpNeg // neg a, r
	OpNot // not a, r

	OpLabel   // L1_x:
	OpJ       // j L
	OpBez     // bez a, L          branch when a == 0
	OpFunc    // func f
	OpEndFunc // endfunc f
	OpFParam
	OpFParamArr
	OpParamVal
	OpParamAddr
	OpCall // call f, n[, r]
	OpRet  // ret[ a]

	OpPrintInt
	OpPrintStr
	OpGetInt // getint() r
)

var opNames = map[Op]string{
	OpDecl:      "decl",
	OpGDecl:     "gdecl",
	OpMove:      "move",
	OpGInit:     "ginit",
	OpStoreArr:  "storearr",
	OpGInitArr:  "ginitarr",
	OpLoad:      "load",
	OpLoadArr:   "loadarr",
	OpAdd:       "add",
	OpSub:       "sub",
	OpMul:       "mul",
	OpDiv:       "div",
	OpMod:       "mod",
	OpLt:        "lt",
	OpLe:        "le",
	OpGt:        "gt",
	OpGe:        "ge",
	OpEq:        "eq",
	OpNe:        "ne",
	OpNeg:       "neg",
	OpNot:       "not",
	OpLabel:     "label",
	OpJ:         "j",
	OpBez:       "bez",
	OpFunc:      "func",
	OpEndFunc:   "endfunc",
	OpFParam:    "fparam",
	OpFParamArr: "fparam_arr",
	OpParamVal:  "param_val",
	OpParamAddr: "param_addr",
	OpCall:      "call",
	OpRet:       "ret",
	OpPrintInt:  "print_int",
	OpPrintStr:  "print_str",
	OpGetInt:    "getint",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// IsBinary reports whether op is a two-source arithmetic or comparison op
func (op Op) IsBinary() bool {
	return op >= OpAdd && op <= OpNe
}

// Quad is a single four-field instruction. Quads are values and are never
// mutated once emitted.
type Quad struct {
	Op   Op
	Arg1 Operand
	Arg2 Operand
	Res  Operand
}

func (q Quad) String() string {
	switch q.Op {
	case OpDecl, OpGDecl:
		size := q.Arg2
		if size.IsNone() {
			size = Imm(1)
		}
		return fmt.Sprintf("%s %s, %s", q.Op, q.Arg1, size)
	case OpMove, OpGInit, OpLoad, OpNeg, OpNot:
		return fmt.Sprintf("%s %s, %s", q.Op, q.Arg1, q.Res)
	case OpStoreArr, OpGInitArr, OpLoadArr:
		return fmt.Sprintf("%s %s, %s, %s", q.Op, q.Arg1, q.Arg2, q.Res)
	case OpLabel:
		return q.Res.String() + ":"
	case OpJ:
		return "j " + q.Res.String()
	case OpBez:
		return fmt.Sprintf("bez %s, %s", q.Arg1, q.Res)
	case OpFunc, OpEndFunc, OpFParam, OpFParamArr, OpParamVal, OpParamAddr, OpPrintInt:
		return fmt.Sprintf("%s %s", q.Op, q.Arg1)
	case OpCall:
		if q.Res.IsNone() {
			return fmt.Sprintf("call %s, %s", q.Arg1, q.Arg2)
		}
		return fmt.Sprintf("call %s, %s, %s", q.Arg1, q.Arg2, q.Res)
	case OpRet:
		if q.Arg1.IsNone() {
			return "ret"
		}
		return "ret " + q.Arg1.String()
	case OpPrintStr:
		return "print_str " + Quote(q.Arg1.Name)
	case OpGetInt:
		return "getint() " + q.Res.String()
	}
	// binary ops and anything unknown
	return fmt.Sprintf("%s %s, %s, %s", q.Op, q.Arg1, q.Arg2, q.Res)
}

// Quote renders s as a double-quoted literal escaping backslash, quote and newline
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
