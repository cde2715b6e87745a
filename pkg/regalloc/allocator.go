// Package regalloc binds quad operands to the temporary registers $t0-$t7
// while a function is being translated.
//
// Allocation is local and greedy: a value stays in its register only until
// the next label, jump, branch, call or return, where every dirty binding
// is written back to its home location and all bindings are dropped.
// Every variable therefore has a valid home in memory at each block
// boundary, which keeps control-flow joins trivially correct.
package regalloc

import (
	"github.com/raymyers/ralph-sysy/pkg/mips"
	"github.com/raymyers/ralph-sysy/pkg/quad"
	"github.com/raymyers/ralph-sysy/pkg/stacking"
)

// Pool is the set of registers the allocator hands out, in preference order.
// $t8 and $t9 are reserved for address arithmetic.
var Pool = [...]mips.Reg{mips.T0, mips.T1, mips.T2, mips.T3, mips.T4, mips.T5, mips.T6, mips.T7}

// noReg is never a pool member; used when nothing must be avoided
const noReg = mips.Reg(-1)

type binding struct {
	op    quad.Operand // an immediate or a variable; None when free
	dirty bool
}

// Stats counts the memory traffic the allocator generated
type Stats struct {
	Loads  int
	Spills int
}

// Allocator tracks register bindings for one function
type Allocator struct {
	frame *stacking.FrameLayout
	out   *mips.Function
	regs  [len(Pool)]binding
	where map[quad.Operand]int // bound operand -> pool index
	stats Stats
}

// New creates an allocator emitting loads and spills into out
func New(frame *stacking.FrameLayout, out *mips.Function) *Allocator {
	return &Allocator{
		frame: frame,
		out:   out,
		where: make(map[quad.Operand]int),
	}
}

// Stats returns the loads and spills emitted so far
func (a *Allocator) Stats() Stats {
	return a.stats
}

// Home returns the memory location of a variable: its data label for a
// global or static, its frame slot otherwise.
func (a *Allocator) Home(op quad.Operand) mips.Addr {
	if op.IsMemoryGlobal() {
		return mips.Sym(mips.Label(op.String()))
	}
	return mips.Off(a.frame.Offset(op), mips.FP)
}

// Read returns a register holding op's current value, loading it if it is
// not already bound. The absent operand reads as $zero.
func (a *Allocator) Read(op quad.Operand) mips.Reg {
	return a.ReadAvoid(op, noReg)
}

// ReadAvoid is Read but never evicts into avoid, so that a second source
// operand cannot displace the first.
func (a *Allocator) ReadAvoid(op quad.Operand, avoid mips.Reg) mips.Reg {
	if op.IsNone() {
		return mips.Zero
	}
	if i, ok := a.where[op]; ok {
		return Pool[i]
	}
	i := a.alloc(op, avoid)
	r := Pool[i]
	if op.IsImm() {
		a.out.Append(mips.LI{Rt: r, Imm: op.Value})
		return r
	}
	a.out.Append(mips.LW{Rt: r, Addr: a.Home(op)})
	a.stats.Loads++
	return r
}

// Write returns the register that will receive a new value for op and
// marks the binding dirty. The old value is not loaded.
func (a *Allocator) Write(op quad.Operand) mips.Reg {
	i, ok := a.where[op]
	if !ok {
		i = a.alloc(op, noReg)
	}
	a.regs[i].dirty = true
	return Pool[i]
}

// FlushAll writes every dirty binding back in pool order and forgets all
// bindings.
func (a *Allocator) FlushAll() {
	for i := range a.regs {
		a.spill(i)
	}
	a.forget()
}

// BeforeCall flushes all bindings; the callee may use every pool register.
func (a *Allocator) BeforeCall() {
	a.FlushAll()
}

// AfterCall drops the bindings made while marshaling arguments, whose
// registers the callee has clobbered, and stores $v0 into dest's home when
// dest is present.
func (a *Allocator) AfterCall(dest quad.Operand) {
	a.forget()
	if dest.IsNone() {
		return
	}
	a.out.Append(mips.SW{Rt: mips.V0, Addr: a.Home(dest)})
	a.stats.Spills++
}

// alloc picks the first free register other than avoid, or evicts the
// first register other than avoid, and binds op to it clean.
func (a *Allocator) alloc(op quad.Operand, avoid mips.Reg) int {
	pick := -1
	for i, b := range a.regs {
		if b.op.IsNone() && Pool[i] != avoid {
			pick = i
			break
		}
	}
	if pick < 0 {
		pick = 0
		for i := range a.regs {
			if Pool[i] != avoid {
				pick = i
				break
			}
		}
		a.spill(pick)
		delete(a.where, a.regs[pick].op)
	}
	a.regs[pick] = binding{op: op}
	a.where[op] = pick
	return pick
}

// spill writes register i back to its home if it holds a modified variable
func (a *Allocator) spill(i int) {
	b := &a.regs[i]
	if b.op.IsNone() || b.op.IsImm() || !b.dirty {
		return
	}
	a.out.Append(mips.SW{Rt: Pool[i], Addr: a.Home(b.op)})
	a.stats.Spills++
	b.dirty = false
}

func (a *Allocator) forget() {
	for i := range a.regs {
		a.regs[i] = binding{}
	}
	clear(a.where)
}
