// Package quad defines the quadruple intermediate representation.
// A program is a flat sequence of four-field instructions (op, arg1, arg2,
// res): a global segment of declarations and initializers followed by the
// function bodies, each delimited by func/endfunc markers. There are no
// basic blocks; control flow is carried entirely by labels, jumps and
// conditional branches.
package quad

import (
	"fmt"
	"strconv"
)

// Kind tags the storage class of an operand
type Kind int

const (
	KindNone   Kind = iota
	KindImm         // integer literal
	KindLabel       // branch target
	KindGlobal      // file-scope variable
	KindParam       // function parameter
	KindStatic      // static local, lives in the data segment
	KindLocal       // ordinary local
	KindTemp        // compiler temporary
	KindFunc        // function name (call target, func/endfunc marker)
	KindStr         // string literal text (print_str)
)

var kindNames = map[Kind]string{
	KindNone:   "none",
	KindImm:    "imm",
	KindLabel:  "label",
	KindGlobal: "global",
	KindParam:  "param",
	KindStatic: "static",
	KindLocal:  "local",
	KindTemp:   "temp",
	KindFunc:   "func",
	KindStr:    "str",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "?"
}

// Operand is one field of a quad. It is comparable and can be used as a map key.
type Operand struct {
	Kind  Kind
	Value int32  // KindImm
	ID    int    // KindLabel, KindTemp
	Scope int    // KindParam, KindStatic, KindLocal
	Name  string // source name, label suffix, function name or string text
}

// None is the absent operand
var None = Operand{}

// Imm creates an integer literal operand
func Imm(v int32) Operand { return Operand{Kind: KindImm, Value: v} }

// Label creates a label operand; suffix may be empty
func Label(id int, suffix string) Operand {
	return Operand{Kind: KindLabel, ID: id, Name: suffix}
}

// Global creates a file-scope variable operand
func Global(name string) Operand { return Operand{Kind: KindGlobal, Name: name} }

// Param creates a parameter operand owned by the given scope
func Param(scope int, name string) Operand {
	return Operand{Kind: KindParam, Scope: scope, Name: name}
}

// Static creates a static local operand owned by the given scope
func Static(scope int, name string) Operand {
	return Operand{Kind: KindStatic, Scope: scope, Name: name}
}

// Local creates an ordinary local operand owned by the given scope
func Local(scope int, name string) Operand {
	return Operand{Kind: KindLocal, Scope: scope, Name: name}
}

// Temp creates a temporary operand
func Temp(id int) Operand { return Operand{Kind: KindTemp, ID: id} }

// Func creates a function name operand
func Func(name string) Operand { return Operand{Kind: KindFunc, Name: name} }

// Str creates a string literal operand (unescaped text)
func Str(text string) Operand { return Operand{Kind: KindStr, Name: text} }

// IsNone reports whether the operand is absent
func (o Operand) IsNone() bool { return o.Kind == KindNone }

// IsImm reports whether the operand is an integer literal
func (o Operand) IsImm() bool { return o.Kind == KindImm }

// IsMemoryGlobal reports whether the operand lives in the data segment
// and is addressed by its label
func (o Operand) IsMemoryGlobal() bool {
	return o.Kind == KindGlobal || o.Kind == KindStatic
}

// IsFrame reports whether the operand lives in the current stack frame
func (o Operand) IsFrame() bool {
	return o.Kind == KindParam || o.Kind == KindLocal || o.Kind == KindTemp
}

// String renders the operand in the textual IR grammar:
// 12, L3_if_end, g_x, p2_x, s2_x, v2_x, t7.
func (o Operand) String() string {
	switch o.Kind {
	case KindNone:
		return ""
	case KindImm:
		return strconv.FormatInt(int64(o.Value), 10)
	case KindLabel:
		if o.Name == "" {
			return fmt.Sprintf("L%d", o.ID)
		}
		return fmt.Sprintf("L%d_%s", o.ID, o.Name)
	case KindGlobal:
		return "g_" + o.Name
	case KindParam:
		return fmt.Sprintf("p%d_%s", o.Scope, o.Name)
	case KindStatic:
		return fmt.Sprintf("s%d_%s", o.Scope, o.Name)
	case KindLocal:
		return fmt.Sprintf("v%d_%s", o.Scope, o.Name)
	case KindTemp:
		return fmt.Sprintf("t%d", o.ID)
	case KindFunc, KindStr:
		return o.Name
	default:
		panic(fmt.Sprintf("quad: unknown operand kind %d", o.Kind))
	}
}
