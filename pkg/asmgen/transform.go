// Package asmgen transforms quads to MIPS assembly.
// This is the final compilation phase, producing assembly that the MARS and
// SPIM simulators can load and run.
package asmgen

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/raymyers/ralph-sysy/pkg/mips"
	"github.com/raymyers/ralph-sysy/pkg/quad"
	"github.com/raymyers/ralph-sysy/pkg/regalloc"
	"github.com/raymyers/ralph-sysy/pkg/stacking"
)

// Syscalls holds the simulator service numbers the generated code uses
type Syscalls struct {
	PrintInt int32 `yaml:"print_int" toml:"print_int"`
	PrintStr int32 `yaml:"print_str" toml:"print_str"`
	ReadInt  int32 `yaml:"read_int" toml:"read_int"`
	Exit     int32 `yaml:"exit" toml:"exit"`
}

// Options controls code generation
type Options struct {
	Entry    string // function called by the startup code
	Syscalls Syscalls
}

// DefaultOptions returns the MARS/SPIM conventions with main as entry
func DefaultOptions() Options {
	return Options{
		Entry: "main",
		Syscalls: Syscalls{
			PrintInt: mips.SysPrintInt,
			PrintStr: mips.SysPrintStr,
			ReadInt:  mips.SysReadInt,
			Exit:     mips.SysExit,
		},
	}
}

// FuncInfo summarizes the translation of one function
type FuncInfo struct {
	Name      string
	Entry     bool // called by the startup code
	FrameSize int32
	Params    int
	Alloc     regalloc.Stats
}

// TransformProgram translates a whole quad program: the global segment
// becomes the .data section, every func/endfunc body becomes a function.
func TransformProgram(quads []quad.Quad, opts Options) (*mips.Program, []FuncInfo) {
	globals, funcs := quad.SplitFunctions(quads)

	strs := newStringTable()
	prog := &mips.Program{
		Startup: []mips.Instruction{
			mips.MOVE{Rd: mips.FP, Rs: mips.SP},
			mips.JAL{Target: mips.Label(opts.Entry)},
			mips.LI{Rt: mips.V0, Imm: opts.Syscalls.Exit},
			mips.SYSCALL{},
		},
		Functions: make([]*mips.Function, 0, len(funcs)),
	}
	infos := make([]FuncInfo, 0, len(funcs))

	for _, fn := range funcs {
		f, info := transformFunction(fn, strs, opts)
		prog.Functions = append(prog.Functions, f)
		infos = append(infos, info)
	}

	// strings are numbered while translating, so data comes last
	prog.Data = append(collectGlobals(globals), strs.data()...)
	return prog, infos
}

// genContext holds state while translating one function
type genContext struct {
	frame   *stacking.FrameLayout
	out     *mips.Function
	ra      *regalloc.Allocator
	strs    *stringTable
	sys     Syscalls
	pending []quad.Quad // param_val / param_addr awaiting their call
}

func transformFunction(fn quad.Function, strs *stringTable, opts Options) (*mips.Function, FuncInfo) {
	frame := stacking.Build(fn.Name, fn.Body, opts.Entry)
	out := mips.NewFunction(mips.Label(fn.Name))
	ctx := &genContext{
		frame: frame,
		out:   out,
		ra:    regalloc.New(frame, out),
		strs:  strs,
		sys:   opts.Syscalls,
	}

	ctx.emit(stacking.GeneratePrologue(frame)...)
	ctx.bindParams()
	for _, q := range fn.Body {
		ctx.translateQuad(q)
	}
	ctx.ra.FlushAll()
	ctx.emit(stacking.GenerateEpilogue(frame)...)

	return out, FuncInfo{
		Name:      fn.Name,
		Entry:     frame.Main,
		FrameSize: frame.Size,
		Params:    len(frame.Params),
		Alloc:     ctx.ra.Stats(),
	}
}

func (ctx *genContext) emit(insts ...mips.Instruction) {
	for _, inst := range insts {
		ctx.out.Append(inst)
	}
}

// bindParams moves incoming arguments into registers: the first four from
// $a0-$a3, the rest from the caller's outgoing area above the frame.
func (ctx *genContext) bindParams() {
	for i, p := range ctx.frame.Params {
		dst := ctx.ra.Write(p)
		if i < len(mips.ArgRegs) {
			ctx.emit(mips.MOVE{Rd: dst, Rs: mips.ArgRegs[i]})
			continue
		}
		ctx.emit(mips.LW{Rt: dst, Addr: mips.Off(ctx.frame.IncomingArgOffset(i), mips.FP)})
	}
}

var aluOps = map[quad.Op]mips.ALUOp{
	quad.OpAdd: mips.Addu,
	quad.OpSub: mips.Subu,
	quad.OpMul: mips.Mul,
	quad.OpLt:  mips.Slt,
	quad.OpGt:  mips.Sgt,
	quad.OpLe:  mips.Sle,
	quad.OpGe:  mips.Sge,
	quad.OpEq:  mips.Seq,
	quad.OpNe:  mips.Sne,
}

// translateQuad translates one quad of a function body
func (ctx *genContext) translateQuad(q quad.Quad) {
	switch q.Op {
	case quad.OpDecl, quad.OpFParam, quad.OpFParamArr:
		// frame layout only

	case quad.OpAdd, quad.OpSub, quad.OpMul,
		quad.OpLt, quad.OpGt, quad.OpLe, quad.OpGe, quad.OpEq, quad.OpNe:
		rs := ctx.ra.Read(q.Arg1)
		rt := ctx.ra.ReadAvoid(q.Arg2, rs)
		rd := ctx.ra.Write(q.Res)
		ctx.emit(mips.ALU{Op: aluOps[q.Op], Rd: rd, Rs: rs, Rt: rt})
	case quad.OpDiv, quad.OpMod:
		rs := ctx.ra.Read(q.Arg1)
		rt := ctx.ra.ReadAvoid(q.Arg2, rs)
		rd := ctx.ra.Write(q.Res)
		ctx.emit(mips.DIV{Rs: rs, Rt: rt})
		if q.Op == quad.OpDiv {
			ctx.emit(mips.MFLO{Rd: rd})
		} else {
			ctx.emit(mips.MFHI{Rd: rd})
		}
	case quad.OpNeg:
		rs := ctx.ra.Read(q.Arg1)
		rd := ctx.ra.Write(q.Res)
		ctx.emit(mips.ALU{Op: mips.Subu, Rd: rd, Rs: mips.Zero, Rt: rs})
	case quad.OpNot:
		rs := ctx.ra.Read(q.Arg1)
		rd := ctx.ra.Write(q.Res)
		ctx.emit(mips.ALU{Op: mips.Seq, Rd: rd, Rs: rs, Rt: mips.Zero})
	case quad.OpMove, quad.OpLoad:
		rs := ctx.ra.Read(q.Arg1)
		rd := ctx.ra.Write(q.Res)
		ctx.emit(mips.MOVE{Rd: rd, Rs: rs})

	case quad.OpLoadArr:
		ctx.elementAddress(q.Arg1, q.Arg2)
		rd := ctx.ra.Write(q.Res)
		ctx.emit(mips.LW{Rt: rd, Addr: mips.Off(0, mips.T9)})
	case quad.OpStoreArr:
		ctx.elementAddress(q.Res, q.Arg2)
		v := ctx.ra.Read(q.Arg1)
		ctx.emit(mips.SW{Rt: v, Addr: mips.Off(0, mips.T9)})

	case quad.OpLabel:
		ctx.ra.FlushAll()
		ctx.out.AppendLabel(label(q.Res))
	case quad.OpJ:
		ctx.ra.FlushAll()
		ctx.emit(mips.J{Target: label(q.Res)})
	case quad.OpBez:
		r := ctx.ra.Read(q.Arg1)
		ctx.ra.FlushAll()
		ctx.emit(mips.BEQZ{Rs: r, Target: label(q.Res)})

	case quad.OpParamVal, quad.OpParamAddr:
		ctx.pending = append(ctx.pending, q)
	case quad.OpCall:
		ctx.translateCall(q)
	case quad.OpRet:
		if q.Arg1.IsNone() {
			ctx.emit(mips.MOVE{Rd: mips.V0, Rs: mips.Zero})
		} else {
			ctx.emit(mips.MOVE{Rd: mips.V0, Rs: ctx.ra.Read(q.Arg1)})
		}
		ctx.ra.FlushAll()
		ctx.emit(mips.J{Target: stacking.ExitLabel(ctx.frame.Func)})

	case quad.OpPrintInt:
		r := ctx.ra.Read(q.Arg1)
		ctx.emit(
			mips.MOVE{Rd: mips.A0, Rs: r},
			mips.LI{Rt: mips.V0, Imm: ctx.sys.PrintInt},
			mips.SYSCALL{},
		)
	case quad.OpPrintStr:
		ctx.emit(
			mips.LA{Rt: mips.A0, Label: ctx.strs.label(q.Arg1.Name)},
			mips.LI{Rt: mips.V0, Imm: ctx.sys.PrintStr},
			mips.SYSCALL{},
		)
	case quad.OpGetInt:
		ctx.ra.BeforeCall()
		ctx.emit(
			mips.LI{Rt: mips.V0, Imm: ctx.sys.ReadInt},
			mips.SYSCALL{},
		)
		ctx.ra.AfterCall(q.Res)

	default:
		panic(fmt.Sprintf("asmgen: unexpected quad %q in %s", q, ctx.frame.Func))
	}
}

// elementAddress leaves &array[index] in $t9, using $t8 for the scaled index
func (ctx *genContext) elementAddress(array, index quad.Operand) {
	idx := ctx.ra.Read(index)
	ctx.emit(mips.SLL{Rd: mips.T8, Rt: idx, Shamt: 2})
	switch {
	case array.IsMemoryGlobal():
		ctx.emit(mips.LA{Rt: mips.T9, Label: label(array)})
	case array.Kind == quad.KindParam:
		// an array parameter holds the caller's base address
		base := ctx.ra.Read(array)
		ctx.emit(mips.MOVE{Rd: mips.T9, Rs: base})
	default:
		ctx.emit(mips.ADDIU{Rt: mips.T9, Rs: mips.FP, Imm: ctx.frame.Offset(array)})
	}
	ctx.emit(mips.ALU{Op: mips.Addu, Rd: mips.T9, Rs: mips.T9, Rt: mips.T8})
}

// translateCall passes up to four arguments in $a0-$a3 and the rest in an
// outgoing area pushed just below $sp for the duration of the call.
func (ctx *genContext) translateCall(q quad.Quad) {
	ctx.ra.BeforeCall()

	extra := max(0, len(ctx.pending)-len(mips.ArgRegs))
	if extra > 0 {
		ctx.emit(mips.ADDIU{Rt: mips.SP, Rs: mips.SP, Imm: -immediate(extra * 4)})
	}
	for i, arg := range ctx.pending {
		r := ctx.argument(arg)
		if i < len(mips.ArgRegs) {
			ctx.emit(mips.MOVE{Rd: mips.ArgRegs[i], Rs: r})
		} else {
			ctx.emit(mips.SW{Rt: r, Addr: mips.Off(immediate((i-4)*4), mips.SP)})
		}
	}
	ctx.emit(mips.JAL{Target: mips.Label(q.Arg1.Name)})
	if extra > 0 {
		ctx.emit(mips.ADDIU{Rt: mips.SP, Rs: mips.SP, Imm: immediate(extra * 4)})
	}

	ctx.ra.AfterCall(q.Res)
	ctx.pending = ctx.pending[:0]
}

// argument materializes one pending argument in a register
func (ctx *genContext) argument(arg quad.Quad) mips.Reg {
	a := arg.Arg1
	if arg.Op == quad.OpParamVal {
		return ctx.ra.Read(a)
	}
	switch {
	case a.IsMemoryGlobal():
		ctx.emit(mips.LA{Rt: mips.T8, Label: label(a)})
		return mips.T8
	case a.Kind == quad.KindParam:
		return ctx.ra.Read(a)
	default:
		ctx.emit(mips.ADDIU{Rt: mips.T8, Rs: mips.FP, Imm: ctx.frame.Offset(a)})
		return mips.T8
	}
}

func label(op quad.Operand) mips.Label {
	return mips.Label(op.String())
}

func immediate(n int) int32 {
	v, err := safecast.Conv[int32](n)
	if err != nil {
		panic(fmt.Sprintf("asmgen: immediate %d: %v", n, err))
	}
	return v
}
