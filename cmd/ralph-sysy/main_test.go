package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const okProgram = "int main() {\n    return 0;\n}\n"

const badProgram = "int main() {\n    int a = 1\n    return a;\n}\n"

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(normalizeFlags(args))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestDumpFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	for _, name := range dumpFlagNames {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to exist", name)
		}
	}
}

func TestNormalizeFlags(t *testing.T) {
	got := normalizeFlags([]string{"-dir", "-dtokens", "--dasm", "-o", "out.s", "-dirty", "prog.sy"})
	want := []string{"--dir", "--dtokens", "--dasm", "-o", "out.s", "-dirty", "prog.sy"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalizeFlags mismatch (-want +got):\n%s", diff)
	}
}

func TestNoArgsPrintsHelp(t *testing.T) {
	out, _, err := execute()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected usage text, got %q", out)
	}
}

func TestCompileWritesOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.sy", okProgram)

	out, errOut, err := execute(src)
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, errOut)
	}
	if out != "" {
		t.Errorf("expected no stdout, got %q", out)
	}
	asm := readFile(t, filepath.Join(dir, "prog.asm"))
	if !strings.HasPrefix(asm, ".data\n") || !strings.Contains(asm, "main_ret:\n") {
		t.Errorf("unexpected assembly:\n%s", asm)
	}
}

func TestOutputFlag(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.sy", okProgram)
	dest := filepath.Join(dir, "mips.txt")

	if _, errOut, err := execute("-o", dest, src); err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, errOut)
	}
	if !strings.Contains(readFile(t, dest), "  jal main\n") {
		t.Error("output file lacks the startup call")
	}
	if _, err := os.Stat(filepath.Join(dir, "prog.asm")); !errors.Is(err, os.ErrNotExist) {
		t.Error("default output should not be written when -o is given")
	}
}

func TestOutputFlagRejectsManyInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.sy", okProgram)
	b := writeSource(t, dir, "b.sy", okProgram)

	_, errOut, err := execute("-o", filepath.Join(dir, "x.asm"), a, b)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(errOut, "more than one input") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestIRDump(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.sy", okProgram)

	out, errOut, err := execute("-dir", src)
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, errOut)
	}
	want := "func main\nret 0\nendfunc main\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
	if got := readFile(t, filepath.Join(dir, "prog.ir")); got != want {
		t.Errorf("prog.ir = %q, want %q", got, want)
	}
}

func TestAsmDumpEchoesOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.sy", okProgram)

	out, _, err := execute("--dasm", src)
	if err != nil {
		t.Fatal(err)
	}
	if out != readFile(t, filepath.Join(dir, "prog.asm")) {
		t.Error("--dasm output differs from the written assembly")
	}
}

func TestTokenDumpOnFailure(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.sy", badProgram)

	out, _, err := execute("-dtokens", src)
	if !errors.Is(err, ErrCompileFailed) {
		t.Fatalf("err = %v, want ErrCompileFailed", err)
	}
	if !strings.HasPrefix(out, "INTTK int\nMAINTK main\n") {
		t.Errorf("expected tokens on stdout, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.tokens")); err != nil {
		t.Errorf("token file not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.asm")); !errors.Is(err, os.ErrNotExist) {
		t.Error("no assembly should be written for a failing input")
	}
}

func TestDiagnosticsOnStderr(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.sy", badProgram)

	_, errOut, err := execute(src)
	if !errors.Is(err, ErrCompileFailed) {
		t.Fatalf("err = %v, want ErrCompileFailed", err)
	}
	want := src + ": 2 i (missing ';')\n"
	if errOut != want {
		t.Errorf("stderr = %q, want %q", errOut, want)
	}
}

func TestErrorsFile(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.sy", badProgram)
	errPath := filepath.Join(dir, "error.txt")

	_, errOut, err := execute("--errors", errPath, src)
	if err == nil {
		t.Fatal("expected an error")
	}
	if errOut != "" {
		t.Errorf("diagnostics should go to the file, stderr = %q", errOut)
	}
	if got := readFile(t, errPath); got != "2 i\n" {
		t.Errorf("error file = %q, want %q", got, "2 i\n")
	}
}

func TestInternalErrorReported(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "div.sy", "const int a = 1 / 0;\nint main() {\n    return a;\n}\n")

	_, errOut, err := execute(src)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(errOut, "internal error in irgen") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestMissingInput(t *testing.T) {
	_, errOut, err := execute(filepath.Join(t.TempDir(), "nope.sy"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(errOut, "nope.sy") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestParallelFingerprintsKeepOrder(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.sy", "b.sy", "c.sy", "d.sy"} {
		files = append(files, writeSource(t, dir, name, okProgram))
	}

	out, errOut, err := execute(append([]string{"-j", "3", "--fingerprint"}, files...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, errOut)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != len(files) {
		t.Fatalf("expected %d lines, got %q", len(files), out)
	}
	first := strings.Fields(lines[0])[0]
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[1] != files[i] {
			t.Errorf("line %d = %q, want fingerprint of %s", i, line, files[i])
			continue
		}
		if len(fields[0]) != 16 || fields[0] != first {
			t.Errorf("identical inputs should share a fingerprint: %q vs %q", fields[0], first)
		}
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.sy", okProgram)
	cfgPath := writeSource(t, dir, "sysy.toml", "output_ext = \".s\"\n\n[syscalls]\nexit = 17\n")

	if _, errOut, err := execute("--config", cfgPath, src); err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, errOut)
	}
	asm := readFile(t, filepath.Join(dir, "prog.s"))
	if !strings.Contains(asm, "  li $v0, 17\n") {
		t.Errorf("configured exit syscall missing:\n%s", asm)
	}
}

func TestBadConfigFile(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.sy", okProgram)
	cfgPath := writeSource(t, dir, "sysy.yaml", "entyr: main\n")

	_, errOut, err := execute("--config", cfgPath, src)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(errOut, "entyr") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestFailingInputDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	good1 := writeSource(t, dir, "a.sy", okProgram)
	bad := writeSource(t, dir, "b.sy", badProgram)
	good2 := writeSource(t, dir, "c.sy", okProgram)

	out, errOut, err := execute("-j", "2", "--fingerprint", good1, bad, good2)
	if !errors.Is(err, ErrCompileFailed) {
		t.Fatalf("err = %v, want ErrCompileFailed", err)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], good1) || !strings.HasSuffix(lines[1], good2) {
		t.Errorf("expected fingerprints of both good inputs in order, got %q", out)
	}
	if errOut != bad+": 2 i (missing ';')\n" {
		t.Errorf("unexpected stderr %q", errOut)
	}
	for _, name := range []string{"a.asm", "c.asm"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestMissingEntryReported(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.sy", okProgram)
	cfgPath := writeSource(t, dir, "sysy.yaml", "entry: start\n")

	_, errOut, err := execute("--config", cfgPath, src)
	if !errors.Is(err, ErrCompileFailed) {
		t.Fatalf("err = %v, want ErrCompileFailed", err)
	}
	if !strings.Contains(errOut, "entry function not defined: start") {
		t.Errorf("unexpected stderr %q", errOut)
	}
	if _, err := os.Stat(filepath.Join(dir, "prog.asm")); !errors.Is(err, os.ErrNotExist) {
		t.Error("no assembly should be written without an entry")
	}
}
