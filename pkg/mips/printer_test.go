package mips

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatArithmetic(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{"addu", ALU{Op: Addu, Rd: T2, Rs: T0, Rt: T1}, "  addu $t2, $t0, $t1"},
		{"subu", ALU{Op: Subu, Rd: T0, Rs: Zero, Rt: T0}, "  subu $t0, $zero, $t0"},
		{"mul", ALU{Op: Mul, Rd: T3, Rs: T1, Rt: T2}, "  mul $t3, $t1, $t2"},
		{"slt", ALU{Op: Slt, Rd: T0, Rs: T1, Rt: T2}, "  slt $t0, $t1, $t2"},
		{"sgt", ALU{Op: Sgt, Rd: T0, Rs: T1, Rt: T2}, "  sgt $t0, $t1, $t2"},
		{"sle", ALU{Op: Sle, Rd: T0, Rs: T1, Rt: T2}, "  sle $t0, $t1, $t2"},
		{"sge", ALU{Op: Sge, Rd: T0, Rs: T1, Rt: T2}, "  sge $t0, $t1, $t2"},
		{"seq", ALU{Op: Seq, Rd: T0, Rs: T1, Rt: Zero}, "  seq $t0, $t1, $zero"},
		{"sne", ALU{Op: Sne, Rd: T0, Rs: T1, Rt: T2}, "  sne $t0, $t1, $t2"},
		{"addiu", ADDIU{Rt: SP, Rs: SP, Imm: -24}, "  addiu $sp, $sp, -24"},
		{"sll", SLL{Rd: T8, Rt: T0, Shamt: 2}, "  sll $t8, $t0, 2"},
		{"div", DIV{Rs: T0, Rt: T1}, "  div $t0, $t1"},
		{"mflo", MFLO{Rd: T2}, "  mflo $t2"},
		{"mfhi", MFHI{Rd: T2}, "  mfhi $t2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.inst); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatMovesAndMemory(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{"li", LI{Rt: T0, Imm: -7}, "  li $t0, -7"},
		{"la", LA{Rt: T9, Label: "g_arr"}, "  la $t9, g_arr"},
		{"move", MOVE{Rd: FP, Rs: SP}, "  move $fp, $sp"},
		{"lw frame", LW{Rt: T1, Addr: Off(8, FP)}, "  lw $t1, 8($fp)"},
		{"lw label", LW{Rt: T1, Addr: Sym("g_x")}, "  lw $t1, g_x"},
		{"sw frame", SW{Rt: RA, Addr: Off(20, SP)}, "  sw $ra, 20($sp)"},
		{"sw label", SW{Rt: V0, Addr: Sym("s2_n")}, "  sw $v0, s2_n"},
		{"sw zero offset", SW{Rt: T0, Addr: Off(0, T9)}, "  sw $t0, 0($t9)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.inst); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatControlFlow(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{"label", LabelDef{Name: "L3_if_end"}, "L3_if_end:"},
		{"j", J{Target: "main_ret"}, "  j main_ret"},
		{"jal", JAL{Target: "f"}, "  jal f"},
		{"jr", JR{Rs: RA}, "  jr $ra"},
		{"beqz", BEQZ{Rs: T4, Target: "L1_for_end"}, "  beq $t4, $zero, L1_for_end"},
		{"syscall", SYSCALL{}, "  syscall"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.inst); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatData(t *testing.T) {
	tests := []struct {
		name string
		d    Data
		want string
	}{
		{"scalar", Word{Name: "g_x", Values: []int32{5}}, "g_x: .word 5"},
		{"array", Word{Name: "g_a", Values: []int32{1, 0, -3}}, "g_a: .word 1, 0, -3"},
		{"empty", Word{Name: "g_z"}, "g_z: .word 0"},
		{"string", Asciiz{Name: ".str0", Text: "v=\n"}, `.str0: .asciiz "v=\n"`},
		{"escapes", Asciiz{Name: ".str1", Text: `a"b\c`}, `.str1: .asciiz "a\"b\\c"`},
		{"same escaping as the quad dump", Asciiz{Name: ".str2", Text: "\"x\"\\\n"}, `.str2: .asciiz "\"x\"\\\n"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatData(tt.d); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegisterNames(t *testing.T) {
	for r, want := range map[Reg]string{Zero: "$zero", V0: "$v0", A3: "$a3", T0: "$t0", T9: "$t9", SP: "$sp", FP: "$fp", RA: "$ra"} {
		if got := r.String(); got != want {
			t.Errorf("Reg(%d).String() = %q, want %q", int(r), got, want)
		}
	}
	if got := Reg(99).String(); got != "$?" {
		t.Errorf("out of range register = %q", got)
	}
}

func TestPrintProgram(t *testing.T) {
	fn := NewFunction("main")
	fn.Append(ADDIU{Rt: SP, Rs: SP, Imm: -8})
	fn.AppendLabel("main_ret")
	fn.Append(JR{Rs: RA})

	prog := &Program{
		Data: []Data{
			Word{Name: "g_n", Values: []int32{3}},
			Asciiz{Name: ".str0", Text: "hi"},
		},
		Startup: []Instruction{
			MOVE{Rd: FP, Rs: SP},
			JAL{Target: "main"},
			LI{Rt: V0, Imm: SysExit},
			SYSCALL{},
		},
		Functions: []*Function{fn},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)

	want := []string{
		".data",
		"g_n: .word 3",
		`.str0: .asciiz "hi"`,
		".text",
		"  move $fp, $sp",
		"  jal main",
		"  li $v0, 10",
		"  syscall",
		"main:",
		"  addiu $sp, $sp, -8",
		"main_ret:",
		"  jr $ra",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("program mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, Lines(prog)); diff != "" {
		t.Errorf("Lines mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown instruction")
		}
	}()
	Format(nil)
}
