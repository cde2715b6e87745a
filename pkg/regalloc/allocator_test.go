package regalloc

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raymyers/ralph-sysy/pkg/mips"
	"github.com/raymyers/ralph-sysy/pkg/quad"
	"github.com/raymyers/ralph-sysy/pkg/stacking"
)

// frameWith builds a layout in which each operand gets one word, in order
func frameWith(ops ...quad.Operand) *stacking.FrameLayout {
	var body []quad.Quad
	for _, op := range ops {
		body = append(body, quad.Quad{Op: quad.OpMove, Arg1: quad.Imm(0), Res: op})
	}
	return stacking.Build("f", body, "main")
}

func setup(ops ...quad.Operand) (*Allocator, *mips.Function) {
	out := mips.NewFunction("f")
	return New(frameWith(ops...), out), out
}

func TestReadLoadsOnce(t *testing.T) {
	x := quad.Local(2, "x")
	a, out := setup(x)

	r1 := a.Read(x)
	r2 := a.Read(x)
	if r1 != mips.T0 || r2 != mips.T0 {
		t.Errorf("Read = %s, %s; want $t0 twice", r1, r2)
	}
	want := []mips.Instruction{mips.LW{Rt: mips.T0, Addr: mips.Off(0, mips.FP)}}
	if diff := cmp.Diff(want, out.Code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}
	if got := a.Stats().Loads; got != 1 {
		t.Errorf("Loads = %d, want 1", got)
	}
}

func TestReadNoneIsZero(t *testing.T) {
	a, out := setup()
	if r := a.Read(quad.None); r != mips.Zero {
		t.Errorf("Read(None) = %s, want $zero", r)
	}
	if len(out.Code) != 0 {
		t.Errorf("unexpected code %v", out.Code)
	}
}

func TestImmediateLoadedOnlyWhenNewlyBound(t *testing.T) {
	a, out := setup()
	a.Read(quad.Imm(5))
	a.Read(quad.Imm(5))
	a.Read(quad.Imm(-1))
	want := []mips.Instruction{
		mips.LI{Rt: mips.T0, Imm: 5},
		mips.LI{Rt: mips.T1, Imm: -1},
	}
	if diff := cmp.Diff(want, out.Code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}
}

func TestGlobalsUseLabels(t *testing.T) {
	g := quad.Global("n")
	s := quad.Static(3, "k")
	a, out := setup()
	a.Read(g)
	r := a.Write(s)
	a.FlushAll()
	want := []mips.Instruction{
		mips.LW{Rt: mips.T0, Addr: mips.Sym("g_n")},
		mips.SW{Rt: r, Addr: mips.Sym("s3_k")},
	}
	if diff := cmp.Diff(want, out.Code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteMarksDirtyAndFlushSpills(t *testing.T) {
	x, y := quad.Local(2, "x"), quad.Temp(1)
	a, out := setup(x, y)

	rx := a.Write(x)
	ry := a.Read(y)
	a.FlushAll()

	want := []mips.Instruction{
		mips.LW{Rt: ry, Addr: mips.Off(4, mips.FP)},
		mips.SW{Rt: rx, Addr: mips.Off(0, mips.FP)},
	}
	if diff := cmp.Diff(want, out.Code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}

	// bindings are gone after a flush
	out.Code = nil
	a.Read(x)
	if len(out.Code) != 1 {
		t.Errorf("expected a reload after flush, got %v", out.Code)
	}
}

func TestFlushSpillsInPoolOrder(t *testing.T) {
	x, y := quad.Local(2, "x"), quad.Local(2, "y")
	a, out := setup(x, y)
	a.Write(x) // $t0
	a.Write(y) // $t1
	a.FlushAll()
	want := []mips.Instruction{
		mips.SW{Rt: mips.T0, Addr: mips.Off(0, mips.FP)},
		mips.SW{Rt: mips.T1, Addr: mips.Off(4, mips.FP)},
	}
	if diff := cmp.Diff(want, out.Code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}
}

func TestEvictionSpillsDirtyVictim(t *testing.T) {
	var temps []quad.Operand
	for i := 1; i <= 9; i++ {
		temps = append(temps, quad.Temp(i))
	}
	a, out := setup(temps...)

	for _, tmp := range temps[:8] {
		a.Write(tmp)
	}
	if len(out.Code) != 0 {
		t.Fatalf("no code expected while registers are free, got %v", out.Code)
	}
	r := a.Write(temps[8])
	if r != mips.T0 {
		t.Errorf("victim = %s, want $t0", r)
	}
	want := []mips.Instruction{mips.SW{Rt: mips.T0, Addr: mips.Off(0, mips.FP)}}
	if diff := cmp.Diff(want, out.Code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}

	// t1 was evicted, so reading it reloads from its slot
	out.Code = nil
	a.Read(temps[0])
	if len(out.Code) < 1 {
		t.Fatal("expected reload of evicted temporary")
	}
	last := out.Code[len(out.Code)-1]
	if lw, ok := last.(mips.LW); !ok || lw.Addr != mips.Off(0, mips.FP) {
		t.Errorf("last instruction = %v, want lw from 0($fp)", last)
	}
}

func TestEvictionOfCleanValueStoresNothing(t *testing.T) {
	var vars []quad.Operand
	for i := 1; i <= 9; i++ {
		vars = append(vars, quad.Temp(i))
	}
	a, out := setup(vars...)
	for _, v := range vars[:8] {
		a.Read(v)
	}
	out.Code = nil
	a.Read(vars[8])
	want := []mips.Instruction{mips.LW{Rt: mips.T0, Addr: mips.Off(32, mips.FP)}}
	if diff := cmp.Diff(want, out.Code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}
}

func TestReadAvoidKeepsFirstOperand(t *testing.T) {
	var vars []quad.Operand
	for i := 1; i <= 9; i++ {
		vars = append(vars, quad.Temp(i))
	}
	a, _ := setup(vars...)
	for _, v := range vars[:8] {
		a.Read(v)
	}
	rs := a.Read(vars[0]) // bound to $t0
	rt := a.ReadAvoid(vars[8], rs)
	if rt == rs {
		t.Errorf("ReadAvoid evicted the avoided register %s", rs)
	}
	if rt != mips.T1 {
		t.Errorf("ReadAvoid = %s, want $t1", rt)
	}
}

func TestAfterCallStoresResultAndForgets(t *testing.T) {
	x, res := quad.Local(2, "x"), quad.Temp(1)
	a, out := setup(x, res)

	a.BeforeCall()
	a.Read(x) // argument marshaling
	a.AfterCall(res)
	a.Read(x)

	want := []mips.Instruction{
		mips.LW{Rt: mips.T0, Addr: mips.Off(0, mips.FP)},
		mips.SW{Rt: mips.V0, Addr: mips.Off(4, mips.FP)},
		mips.LW{Rt: mips.T0, Addr: mips.Off(0, mips.FP)},
	}
	if diff := cmp.Diff(want, out.Code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}
}

func TestAfterCallWithoutResult(t *testing.T) {
	a, out := setup()
	a.BeforeCall()
	a.AfterCall(quad.None)
	if len(out.Code) != 0 {
		t.Errorf("unexpected code %v", out.Code)
	}
}
