// Package mips defines the MIPS32 assembly representation.
// This is the final output of the compiler, printed in the syntax accepted
// by the MARS and SPIM simulators.
package mips

// Reg is a MIPS general purpose register
type Reg int

const (
	Zero Reg = iota
	V0
	A0
	A1
	A2
	A3
	T0
	T1
	T2
	T3
	T4
	T5
	T6
	T7
	T8
	T9
	SP
	FP
	RA
)

var regNames = [...]string{
	Zero: "$zero",
	V0:   "$v0",
	A0:   "$a0",
	A1:   "$a1",
	A2:   "$a2",
	A3:   "$a3",
	T0:   "$t0",
	T1:   "$t1",
	T2:   "$t2",
	T3:   "$t3",
	T4:   "$t4",
	T5:   "$t5",
	T6:   "$t6",
	T7:   "$t7",
	T8:   "$t8",
	T9:   "$t9",
	SP:   "$sp",
	FP:   "$fp",
	RA:   "$ra",
}

func (r Reg) String() string {
	if r >= 0 && int(r) < len(regNames) {
		return regNames[r]
	}
	return "$?"
}

// ArgRegs are the registers carrying the first four call arguments
var ArgRegs = [4]Reg{A0, A1, A2, A3}

// Syscall service numbers (MARS/SPIM)
const (
	SysPrintInt = 1
	SysPrintStr = 4
	SysReadInt  = 5
	SysExit     = 10
)

// Label represents a branch target or data label
type Label string

// Addr is a memory operand: either a data label or offset(base)
type Addr struct {
	Label  Label
	Base   Reg
	Offset int32
}

// Sym addresses a word in the data segment by label
func Sym(l Label) Addr { return Addr{Label: l} }

// Off addresses base+offset
func Off(offset int32, base Reg) Addr { return Addr{Base: base, Offset: offset} }

// --- Instruction Interface ---

// Instruction is the interface for MIPS instructions
type Instruction interface {
	implInstruction()
}

// ALUOp selects a three-register arithmetic or set instruction
type ALUOp int

const (
	Addu ALUOp = iota
	Subu
	Mul
	Slt
	Sgt
	Sle
	Sge
	Seq
	Sne
)

var aluNames = [...]string{"addu", "subu", "mul", "slt", "sgt", "sle", "sge", "seq", "sne"}

func (op ALUOp) String() string {
	if op >= 0 && int(op) < len(aluNames) {
		return aluNames[op]
	}
	return "?"
}

// ALU - rd = rs op rt
type ALU struct {
	Op         ALUOp
	Rd, Rs, Rt Reg
}

// ADDIU - Add immediate unsigned (no overflow trap)
type ADDIU struct {
	Rt, Rs Reg
	Imm    int32
}

// SLL - Shift left logical
type SLL struct {
	Rd, Rt Reg
	Shamt  int
}

// DIV - Signed divide into HI/LO
type DIV struct {
	Rs, Rt Reg
}

// MFLO - Move from LO (quotient)
type MFLO struct {
	Rd Reg
}

// MFHI - Move from HI (remainder)
type MFHI struct {
	Rd Reg
}

// LI - Load immediate
type LI struct {
	Rt  Reg
	Imm int32
}

// LA - Load address of a label
type LA struct {
	Rt    Reg
	Label Label
}

// MOVE - Register copy
type MOVE struct {
	Rd, Rs Reg
}

// LW - Load word
type LW struct {
	Rt   Reg
	Addr Addr
}

// SW - Store word
type SW struct {
	Rt   Reg
	Addr Addr
}

// J - Jump
type J struct {
	Target Label
}

// JAL - Jump and link
type JAL struct {
	Target Label
}

// JR - Jump register
type JR struct {
	Rs Reg
}

// BEQZ - Branch when Rs is zero, printed as beq rs, $zero, target
type BEQZ struct {
	Rs     Reg
	Target Label
}

// SYSCALL - System call selected by $v0
type SYSCALL struct{}

// LabelDef - Label definition (pseudo-instruction)
type LabelDef struct {
	Name Label
}

func (ALU) implInstruction()      {}
func (ADDIU) implInstruction()    {}
func (SLL) implInstruction()      {}
func (DIV) implInstruction()      {}
func (MFLO) implInstruction()     {}
func (MFHI) implInstruction()     {}
func (LI) implInstruction()       {}
func (LA) implInstruction()       {}
func (MOVE) implInstruction()     {}
func (LW) implInstruction()       {}
func (SW) implInstruction()       {}
func (J) implInstruction()        {}
func (JAL) implInstruction()      {}
func (JR) implInstruction()       {}
func (BEQZ) implInstruction()     {}
func (SYSCALL) implInstruction()  {}
func (LabelDef) implInstruction() {}

// --- Data directives ---

// Data is an entry of the .data section
type Data interface {
	implData()
}

// Word is a labelled list of .word values
type Word struct {
	Name   Label
	Values []int32
}

// Asciiz is a labelled null-terminated string; Text is unescaped
type Asciiz struct {
	Name Label
	Text string
}

func (Word) implData()   {}
func (Asciiz) implData() {}

// --- Function and Program ---

// Function represents an assembly function
type Function struct {
	Name Label
	Code []Instruction
}

// Program represents a complete assembly program
type Program struct {
	Data      []Data
	Startup   []Instruction // runs before any function: calls main, exits
	Functions []*Function
}

// NewFunction creates a new assembly function
func NewFunction(name Label) *Function {
	return &Function{
		Name: name,
		Code: make([]Instruction, 0),
	}
}

// Append adds an instruction to the function
func (f *Function) Append(inst Instruction) {
	f.Code = append(f.Code, inst)
}

// AppendLabel adds a label definition
func (f *Function) AppendLabel(name Label) {
	f.Code = append(f.Code, LabelDef{Name: name})
}
