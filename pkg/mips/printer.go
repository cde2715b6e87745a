package mips

import (
	"fmt"
	"io"
	"strings"

	"github.com/raymyers/ralph-sysy/pkg/quad"
)

// Printer outputs MIPS assembly in MARS syntax: labels flush left,
// instructions as "  <mnemonic> <operands>".
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new assembly printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram outputs an entire program
func (p *Printer) PrintProgram(prog *Program) {
	for _, line := range Lines(prog) {
		fmt.Fprintln(p.w, line)
	}
}

// Lines renders a program as assembly text lines, without newlines
func Lines(prog *Program) []string {
	var out []string
	out = append(out, ".data")
	for _, d := range prog.Data {
		out = append(out, FormatData(d))
	}
	out = append(out, ".text")
	for _, inst := range prog.Startup {
		out = append(out, Format(inst))
	}
	for _, f := range prog.Functions {
		out = append(out, FunctionLines(f)...)
	}
	return out
}

// FunctionLines renders one function starting with its entry label
func FunctionLines(f *Function) []string {
	out := make([]string, 0, len(f.Code)+1)
	out = append(out, string(f.Name)+":")
	for _, inst := range f.Code {
		out = append(out, Format(inst))
	}
	return out
}

// FormatData renders one .data entry
func FormatData(d Data) string {
	switch d := d.(type) {
	case Word:
		if len(d.Values) == 0 {
			return fmt.Sprintf("%s: .word 0", d.Name)
		}
		vals := make([]string, len(d.Values))
		for i, v := range d.Values {
			vals[i] = fmt.Sprint(v)
		}
		return fmt.Sprintf("%s: .word %s", d.Name, strings.Join(vals, ", "))
	case Asciiz:
		return fmt.Sprintf("%s: .asciiz %s", d.Name, quad.Quote(d.Text))
	}
	panic(fmt.Sprintf("mips: unknown data entry %T", d))
}

func (a Addr) String() string {
	if a.Label != "" {
		return string(a.Label)
	}
	return fmt.Sprintf("%d(%s)", a.Offset, a.Base)
}

// Format renders one instruction as a text line
func Format(inst Instruction) string {
	switch i := inst.(type) {
	case LabelDef:
		return string(i.Name) + ":"

	// Arithmetic
	case ALU:
		return fmt.Sprintf("  %s %s, %s, %s", i.Op, i.Rd, i.Rs, i.Rt)
	case ADDIU:
		return fmt.Sprintf("  addiu %s, %s, %d", i.Rt, i.Rs, i.Imm)
	case SLL:
		return fmt.Sprintf("  sll %s, %s, %d", i.Rd, i.Rt, i.Shamt)
	case DIV:
		return fmt.Sprintf("  div %s, %s", i.Rs, i.Rt)
	case MFLO:
		return fmt.Sprintf("  mflo %s", i.Rd)
	case MFHI:
		return fmt.Sprintf("  mfhi %s", i.Rd)

	// Moves
	case LI:
		return fmt.Sprintf("  li %s, %d", i.Rt, i.Imm)
	case LA:
		return fmt.Sprintf("  la %s, %s", i.Rt, i.Label)
	case MOVE:
		return fmt.Sprintf("  move %s, %s", i.Rd, i.Rs)

	// Memory
	case LW:
		return fmt.Sprintf("  lw %s, %s", i.Rt, i.Addr)
	case SW:
		return fmt.Sprintf("  sw %s, %s", i.Rt, i.Addr)

	// Control flow
	case J:
		return fmt.Sprintf("  j %s", i.Target)
	case JAL:
		return fmt.Sprintf("  jal %s", i.Target)
	case JR:
		return fmt.Sprintf("  jr %s", i.Rs)
	case BEQZ:
		return fmt.Sprintf("  beq %s, $zero, %s", i.Rs, i.Target)
	case SYSCALL:
		return "  syscall"
	}
	panic(fmt.Sprintf("mips: unknown instruction %T", inst))
}
