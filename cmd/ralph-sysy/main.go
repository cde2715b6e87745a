package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/raymyers/ralph-sysy/pkg/config"
	"github.com/raymyers/ralph-sysy/pkg/diag"
	"github.com/raymyers/ralph-sysy/pkg/driver"
)

var version = "0.1.0"

// ErrCompileFailed is returned when at least one input did not compile
var ErrCompileFailed = errors.New("compilation failed")

// options holds the command-line flags of one invocation
type options struct {
	output      string
	configPath  string
	errorsPath  string
	fingerprint bool
	verbose     bool
	jobs        int
	dumps       config.Dumps
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Accept single-dash dump flags such as -dir alongside --dir
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// dumpFlagNames lists the dump flags that also accept a single dash
var dumpFlagNames = []string{"dtokens", "dparse", "dsymbols", "dir", "dasm"}

// normalizeFlags converts single-dash dump flags like -dir to --dir
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, flagName := range dumpFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var opts options
	rootCmd := &cobra.Command{
		Use:   "ralph-sysy [file...]",
		Short: "ralph-sysy compiles SysY programs to MIPS assembly",
		Long: `ralph-sysy compiles programs in a small C subset (SysY) to MIPS32
assembly for the MARS and SPIM simulators. Intermediate results can be
dumped next to each input: tokens, syntax tree, symbols and quads.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				fmt.Fprintf(errOut, "ralph-sysy: %v\n", err)
				return err
			}
			if opts.output != "" && len(args) > 1 {
				err := errors.New("-o cannot be used with more than one input")
				fmt.Fprintf(errOut, "ralph-sysy: %v\n", err)
				return err
			}
			setupLogging(errOut, cfg.Verbose)
			return compileAll(args, cfg, opts, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "Write assembly to this file (single input only)")
	flags.StringVar(&opts.configPath, "config", "", "Load settings from a YAML or TOML file")
	flags.StringVar(&opts.errorsPath, "errors", "", "Write diagnostics to this file instead of stderr")
	flags.BoolVar(&opts.fingerprint, "fingerprint", false, "Print an xxhash fingerprint of each output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline stages")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "Compile up to this many files at once (0: one per CPU)")

	// Dump flags
	flags.BoolVar(&opts.dumps.Tokens, "dtokens", false, "Dump tokens")
	flags.BoolVar(&opts.dumps.Parse, "dparse", false, "Dump after parsing")
	flags.BoolVar(&opts.dumps.Symbols, "dsymbols", false, "Dump symbol table")
	flags.BoolVar(&opts.dumps.IR, "dir", false, "Dump quads")
	flags.BoolVar(&opts.dumps.Asm, "dasm", false, "Print assembly to stdout as well")

	return rootCmd
}

// resolveConfig loads the config file, if any, and applies the flags the
// user actually set on top of it.
func resolveConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	if flags.Changed("jobs") {
		cfg.Jobs = opts.jobs
	}
	cfg.Dumps.Tokens = cfg.Dumps.Tokens || opts.dumps.Tokens
	cfg.Dumps.Parse = cfg.Dumps.Parse || opts.dumps.Parse
	cfg.Dumps.Symbols = cfg.Dumps.Symbols || opts.dumps.Symbols
	cfg.Dumps.IR = cfg.Dumps.IR || opts.dumps.IR
	cfg.Dumps.Asm = cfg.Dumps.Asm || opts.dumps.Asm

	return cfg, cfg.Validate()
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// fileResult is everything one input produced; it is reported after all
// inputs finished so output order follows argument order.
type fileResult struct {
	path   string
	res    *driver.Result
	err    error
	stdout bytes.Buffer
}

func compileAll(files []string, cfg config.Config, opts options, out, errOut io.Writer) error {
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*fileResult, len(files))
	var g errgroup.Group
	g.SetLimit(min(jobs, len(files)))
	// per-file failures travel in fileResult so every input gets reported
	for i, path := range files {
		g.Go(func() error {
			results[i] = compileFile(path, cfg, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	pal := newPalette(errOut)
	var diagOut bytes.Buffer
	failed := false
	for _, fr := range results {
		out.Write(fr.stdout.Bytes())
		if fr.err == nil {
			continue
		}
		failed = true
		reportFailure(fr, pal, errOut, &diagOut, opts.errorsPath != "")
	}

	if opts.errorsPath != "" && failed {
		if err := os.WriteFile(opts.errorsPath, diagOut.Bytes(), 0o644); err != nil {
			fmt.Fprintf(errOut, "ralph-sysy: error writing %s: %v\n", opts.errorsPath, err)
		}
	}
	if failed {
		return ErrCompileFailed
	}
	return nil
}

func compileFile(path string, cfg config.Config, opts options) *fileResult {
	fr := &fileResult{path: path}
	src, err := os.ReadFile(path)
	if err != nil {
		fr.err = err
		return fr
	}

	fr.res, fr.err = driver.Compile(string(src), cfg)
	base := outputBase(path)
	if fr.res != nil {
		if err := writeDumps(fr, base, cfg.Dumps); err != nil && fr.err == nil {
			fr.err = err
		}
	}
	if fr.err != nil {
		return fr
	}

	outPath := opts.output
	if outPath == "" {
		outPath = base + cfg.OutputExt
	}
	if err := os.WriteFile(outPath, []byte(fr.res.Text()), 0o644); err != nil {
		fr.err = err
		return fr
	}
	if opts.fingerprint {
		fmt.Fprintf(&fr.stdout, "%016x  %s\n", fr.res.Fingerprint, path)
	}
	return fr
}

// writeDumps writes each enabled dump to <base><suffix> and echoes it
func writeDumps(fr *fileResult, base string, dumps config.Dumps) error {
	enabled := map[string]bool{
		"tokens":  dumps.Tokens,
		"parse":   dumps.Parse,
		"symbols": dumps.Symbols,
		"ir":      dumps.IR,
		"asm":     dumps.Asm,
	}
	for _, d := range driver.Dumps {
		if !enabled[d.Name] || !d.Ready(fr.res) {
			continue
		}
		var buf bytes.Buffer
		d.Write(fr.res, &buf)
		if d.Suffix != "" {
			if err := os.WriteFile(base+d.Suffix, buf.Bytes(), 0o644); err != nil {
				return err
			}
		}
		fr.stdout.Write(buf.Bytes())
	}
	return nil
}

// outputBase strips the source extension: prog.sy -> prog
func outputBase(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func reportFailure(fr *fileResult, pal palette, errOut io.Writer, diagOut *bytes.Buffer, toFile bool) {
	var ie *driver.InternalError
	switch {
	case errors.As(fr.err, &ie):
		fmt.Fprintf(errOut, "%s: %s\n", pal.file.Sprint(fr.path), pal.code.Sprint(ie.Error()))
	case errors.Is(fr.err, driver.ErrDiagnostics):
		for _, d := range fr.res.Diags {
			if toFile {
				fmt.Fprintln(diagOut, d.String())
				continue
			}
			fmt.Fprintf(errOut, "%s: %d %s %s\n", pal.file.Sprint(fr.path), d.Line,
				pal.code.Sprint(d.Code), pal.note.Sprint("("+diag.Describe(d.Code)+")"))
		}
		for _, e := range fr.res.Errors {
			fmt.Fprintf(errOut, "%s: %s\n", pal.file.Sprint(fr.path), e)
		}
	default:
		fmt.Fprintf(errOut, "ralph-sysy: %s: %v\n", fr.path, fr.err)
	}
}

// palette colours diagnostics when they go to a terminal
type palette struct {
	file, code, note *color.Color
}

func newPalette(w io.Writer) palette {
	p := palette{
		file: color.New(color.Bold),
		code: color.New(color.FgRed, color.Bold),
		note: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.file, p.code, p.note} {
		if isTerminal(w) {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
