package stacking

import "github.com/raymyers/ralph-sysy/pkg/mips"

// ExitLabel is the single exit point every return of fn jumps to
func ExitLabel(fn string) mips.Label {
	return mips.Label(fn + "_ret")
}

// GeneratePrologue allocates the frame, saves $ra and $fp and points $fp
// at the new frame:
//
//	addiu $sp, $sp, -Size
//	sw    $ra, Size-4($sp)
//	sw    $fp, Size-8($sp)
//	move  $fp, $sp
func GeneratePrologue(layout *FrameLayout) []mips.Instruction {
	return []mips.Instruction{
		mips.ADDIU{Rt: mips.SP, Rs: mips.SP, Imm: -layout.Size},
		mips.SW{Rt: mips.RA, Addr: mips.Off(layout.Size-wordSize, mips.SP)},
		mips.SW{Rt: mips.FP, Addr: mips.Off(layout.Size-2*wordSize, mips.SP)},
		mips.MOVE{Rd: mips.FP, Rs: mips.SP},
	}
}

// GenerateEpilogue defines the exit label, restores $fp and $ra, releases
// the frame and returns.
func GenerateEpilogue(layout *FrameLayout) []mips.Instruction {
	return []mips.Instruction{
		mips.LabelDef{Name: ExitLabel(layout.Func)},
		mips.MOVE{Rd: mips.SP, Rs: mips.FP},
		mips.LW{Rt: mips.FP, Addr: mips.Off(layout.Size-2*wordSize, mips.SP)},
		mips.LW{Rt: mips.RA, Addr: mips.Off(layout.Size-wordSize, mips.SP)},
		mips.ADDIU{Rt: mips.SP, Rs: mips.SP, Imm: layout.Size},
		mips.JR{Rs: mips.RA},
	}
}
