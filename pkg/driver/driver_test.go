package driver

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-sysy/pkg/config"
)

// CompileTestSpec is one case of testdata/compile.yaml
type CompileTestSpec struct {
	Name         string   `yaml:"name"`
	Input        string   `yaml:"input"`
	Expect       []string `yaml:"expect"`        // must appear in the assembly
	ExpectOrder  []string `yaml:"expect_order"`  // must appear in this order
	ExpectUnique []string `yaml:"expect_unique"` // must appear exactly once
	ExpectNot    []string `yaml:"expect_not"`    // must not appear
	Diags        []string `yaml:"diags"`         // expected "<line> <code>" diagnostics
	Internal     string   `yaml:"internal"`      // stage expected to fail internally
}

// CompileTestFile is the layout of testdata/compile.yaml
type CompileTestFile struct {
	Tests []CompileTestSpec `yaml:"tests"`
}

func TestCompileYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/compile.yaml")
	if err != nil {
		t.Fatalf("failed to read compile.yaml: %v", err)
	}
	var tf CompileTestFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		t.Fatalf("failed to parse compile.yaml: %v", err)
	}
	if len(tf.Tests) == 0 {
		t.Fatal("no tests in compile.yaml")
	}

	for _, tc := range tf.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			res, err := Compile(tc.Input, config.Default())

			switch {
			case tc.Internal != "":
				var ie *InternalError
				if !errors.As(err, &ie) {
					t.Fatalf("err = %v, want InternalError", err)
				}
				if ie.Stage != tc.Internal {
					t.Errorf("stage = %q, want %q", ie.Stage, tc.Internal)
				}
				return
			case tc.Diags != nil:
				if !errors.Is(err, ErrDiagnostics) {
					t.Fatalf("err = %v, want ErrDiagnostics", err)
				}
				var got []string
				for _, d := range res.Diags {
					got = append(got, d.String())
				}
				if diff := cmp.Diff(tc.Diags, got); diff != "" {
					t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
				}
				if res.Quads != nil {
					t.Error("no quads expected when the front end fails")
				}
				return
			}

			if err != nil {
				t.Fatalf("Compile: %v\nerrors: %v", err, res.Errors)
			}
			text := res.Text()
			for _, exp := range tc.Expect {
				if !strings.Contains(text, exp) {
					t.Errorf("expected %q in output:\n%s", exp, text)
				}
			}
			pos := 0
			for _, exp := range tc.ExpectOrder {
				i := strings.Index(text[pos:], exp)
				if i < 0 {
					t.Errorf("expected %q after offset %d in output:\n%s", exp, pos, text)
					break
				}
				pos += i + len(exp)
			}
			for _, exp := range tc.ExpectUnique {
				if n := strings.Count(text, exp); n != 1 {
					t.Errorf("expected %q exactly once, found %d times", exp, n)
				}
			}
			for _, exp := range tc.ExpectNot {
				if strings.Contains(text, exp) {
					t.Errorf("did not expect %q in output:\n%s", exp, text)
				}
			}
		})
	}
}

const sumProgram = `int g = 2;
int add(int a, int b) {
    return a + b;
}
int main() {
    int x;
    x = getint();
    printf("sum=%d\n", add(x, g));
    return 0;
}
`

func TestCompileResult(t *testing.T) {
	res, err := Compile(sumProgram, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tokens) == 0 || res.Program == nil || res.Table == nil || len(res.Quads) == 0 {
		t.Fatal("every stage should populate the result")
	}
	var names []string
	for _, f := range res.Funcs {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"add", "main"}, names); diff != "" {
		t.Errorf("functions mismatch (-want +got):\n%s", diff)
	}
	if res.Lines[0] != ".data" || res.Lines[len(res.Lines)-1] != "  jr $ra" {
		t.Errorf("unexpected assembly bounds %q ... %q", res.Lines[0], res.Lines[len(res.Lines)-1])
	}
	if res.Fingerprint != xxhash.Sum64String(res.Text()) {
		t.Error("fingerprint does not match assembly text")
	}
}

func TestCompileDeterministic(t *testing.T) {
	first, err := Compile(sumProgram, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		again, err := Compile(sumProgram, config.Default())
		if err != nil {
			t.Fatal(err)
		}
		if again.Fingerprint != first.Fingerprint {
			t.Fatal("fingerprint changed between runs")
		}
		if diff := cmp.Diff(first.Lines, again.Lines); diff != "" {
			t.Fatalf("assembly changed between runs:\n%s", diff)
		}
	}
}

func TestCompileUsesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Syscalls.Exit = 17
	res, err := Compile(sumProgram, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text(), "  li $v0, 17\n") {
		t.Error("configured exit syscall not used")
	}

	cfg.Entry = ""
	if _, err := Compile(sumProgram, cfg); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestMissingEntryIsAnError(t *testing.T) {
	cfg := config.Default()
	cfg.Entry = "start"
	res, err := Compile("int main() {\n    return 0;\n}\n", cfg)
	if !errors.Is(err, ErrNoEntry) {
		t.Fatalf("err = %v, want ErrNoEntry", err)
	}
	if !strings.Contains(err.Error(), "start") {
		t.Errorf("error %q should name the entry", err)
	}
	if res.Quads != nil || res.Asm != nil {
		t.Error("backend should not run without an entry")
	}
}

func TestConfiguredEntry(t *testing.T) {
	src := "int start() {\n    return 1;\n}\nint main() {\n    return 0;\n}\n"
	cfg := config.Default()
	cfg.Entry = "start"
	res, err := Compile(src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text(), "  jal start\n") || !strings.Contains(res.Text(), "\nstart:\n") {
		t.Errorf("startup should call the start function:\n%s", res.Text())
	}
	entries := map[string]bool{}
	for _, f := range res.Funcs {
		entries[f.Name] = f.Entry
	}
	if diff := cmp.Diff(map[string]bool{"start": true, "main": false}, entries); diff != "" {
		t.Errorf("entry flags mismatch (-want +got):\n%s", diff)
	}
}

func TestStructuralErrorStopsCompilation(t *testing.T) {
	res, err := Compile("int main() { int x; x[0] = 1; return 0; }", config.Default())
	if !errors.Is(err, ErrDiagnostics) {
		t.Fatalf("err = %v, want ErrDiagnostics", err)
	}
	if len(res.Errors) == 0 {
		t.Error("expected a structural error for indexing a scalar")
	}
	if res.Quads != nil || res.Asm != nil {
		t.Error("backend should not run")
	}
}

func TestDumps(t *testing.T) {
	res, err := Compile("int main() {\n    return 0;\n}\n", config.Default())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	WriteTokens(res, &buf)
	wantTokens := "INTTK int\nMAINTK main\nLPARENT (\nRPARENT )\nLBRACE {\nRETURNTK return\nINTCON 0\nSEMICN ;\nRBRACE }\n"
	if diff := cmp.Diff(wantTokens, buf.String()); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	WriteIR(res, &buf)
	if diff := cmp.Diff("func main\nret 0\nendfunc main\n", buf.String()); diff != "" {
		t.Errorf("IR mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	WriteAsm(res, &buf)
	if buf.String() != res.Text() {
		t.Error("asm dump differs from Result.Text")
	}

	buf.Reset()
	WriteSymbols(res, &buf)
	if buf.Len() != 0 {
		t.Errorf("main-only program has no dumped symbols, got %q", buf.String())
	}

	var names []string
	for _, d := range Dumps {
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"tokens", "parse", "symbols", "ir", "asm"}, names); diff != "" {
		t.Errorf("dump names mismatch (-want +got):\n%s", diff)
	}
}
