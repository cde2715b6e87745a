// Package stacking lays out the activation record of each function.
// Every parameter, local and temporary named in a function's quads gets a
// fixed word-aligned slot addressed relative to $fp; globals and statics
// live in the data segment and take no frame space.
package stacking

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/raymyers/ralph-sysy/pkg/quad"
)

const (
	wordSize = 4
	// linkageSize covers the saved $ra and $fp at the top of the frame
	linkageSize = 2 * wordSize
)

// MIPS frame layout (callee's view, after the prologue):
//
//	+---------------------------+  <- old $sp
//	| saved $ra                 |  Size-4
//	| saved $fp                 |  Size-8
//	| ...                       |
//	| slots, insertion order    |  0, 4, 8, ...
//	+---------------------------+  <- $fp == $sp
//
// Stack-passed arguments (fifth onward) sit above the frame at Size+4*(i-4).

// FrameLayout describes the stack frame of one function
type FrameLayout struct {
	Func   string
	Main   bool
	Params []quad.Operand // in declaration order
	Size   int32          // bytes, including the linkage area

	order   []quad.Operand
	words   map[quad.Operand]int
	offsets map[quad.Operand]int32
}

// Build scans the body of fn (the quads strictly between its func and
// endfunc markers) and assigns a slot to every frame operand in order of
// first appearance. Main is set when fn is the program entry.
func Build(fn string, body []quad.Quad, entry string) *FrameLayout {
	fl := &FrameLayout{
		Func:  fn,
		Main:  fn == entry,
		words: make(map[quad.Operand]int),
	}

	for _, q := range body {
		switch q.Op {
		case quad.OpFParam, quad.OpFParamArr:
			fl.addParam(q.Arg1)
			fl.reserve(q.Arg1, 1)
			continue
		}

		for _, op := range [...]quad.Operand{q.Arg1, q.Arg2, q.Res} {
			if !op.IsFrame() {
				continue
			}
			if op.Kind == quad.KindParam {
				fl.addParam(op)
			}
			fl.reserve(op, 1)
		}

		switch q.Op {
		case quad.OpDecl:
			if q.Arg1.Kind == quad.KindLocal || q.Arg1.Kind == quad.KindTemp {
				fl.words[q.Arg1] = max(1, int(q.Arg2.Value))
			}
		case quad.OpStoreArr:
			fl.growForIndex(q.Res, q.Arg2)
		case quad.OpLoadArr:
			fl.growForIndex(q.Arg1, q.Arg2)
		}
	}

	fl.assignOffsets()
	return fl
}

// reserve records op with n words unless it is already known
func (fl *FrameLayout) reserve(op quad.Operand, n int) {
	if _, ok := fl.words[op]; ok {
		return
	}
	fl.order = append(fl.order, op)
	fl.words[op] = n
}

func (fl *FrameLayout) addParam(op quad.Operand) {
	for _, p := range fl.Params {
		if p == op {
			return
		}
	}
	fl.Params = append(fl.Params, op)
}

// growForIndex widens a frame array accessed with a literal index. Arrays
// declared with decl already have their size; this covers arrays whose
// declaration the body does not carry.
func (fl *FrameLayout) growForIndex(array, index quad.Operand) {
	if !index.IsImm() || array.Kind == quad.KindParam || !array.IsFrame() {
		return
	}
	if need := int(index.Value) + 1; need > fl.words[array] {
		fl.words[array] = need
	}
}

func (fl *FrameLayout) assignOffsets() {
	fl.offsets = make(map[quad.Operand]int32, len(fl.order))
	offset := 0
	for _, op := range fl.order {
		fl.offsets[op] = toInt32(offset)
		offset += fl.words[op] * wordSize
	}
	fl.Size = toInt32(offset + linkageSize)
}

func toInt32(n int) int32 {
	v, err := safecast.Conv[int32](n)
	if err != nil {
		panic(fmt.Sprintf("stacking: frame offset %d: %v", n, err))
	}
	return v
}

// Offset returns the $fp-relative byte offset of a frame operand.
// It panics for a name the function never mentions.
func (fl *FrameLayout) Offset(op quad.Operand) int32 {
	off, ok := fl.offsets[op]
	if !ok {
		panic(fmt.Sprintf("stacking: %s has no slot in the frame of %s", op, fl.Func))
	}
	return off
}

// Has reports whether op has a slot in this frame
func (fl *FrameLayout) Has(op quad.Operand) bool {
	_, ok := fl.offsets[op]
	return ok
}

// Words returns the number of words reserved for op (0 when absent)
func (fl *FrameLayout) Words(op quad.Operand) int {
	return fl.words[op]
}

// Slots returns every frame operand in slot order
func (fl *FrameLayout) Slots() []quad.Operand {
	return fl.order
}

// IncomingArgOffset returns the $fp-relative offset of the i-th argument
// (i >= 4) pushed by the caller above this frame
func (fl *FrameLayout) IncomingArgOffset(i int) int32 {
	return fl.Size + toInt32((i-4)*wordSize)
}
