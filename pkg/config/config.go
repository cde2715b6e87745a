// Package config loads compiler settings from a YAML or TOML file.
// Values not present in the file keep their defaults; command-line flags
// are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-sysy/pkg/asmgen"
)

// ErrUnknownFormat is returned for a config file that is neither YAML nor TOML
var ErrUnknownFormat = errors.New("unknown config format")

// Dumps selects the intermediate results written next to the output
type Dumps struct {
	Tokens  bool `yaml:"tokens" toml:"tokens"`
	Parse   bool `yaml:"parse" toml:"parse"`
	Symbols bool `yaml:"symbols" toml:"symbols"`
	IR      bool `yaml:"ir" toml:"ir"`
	Asm     bool `yaml:"asm" toml:"asm"`
}

// Any reports whether at least one dump is enabled
func (d Dumps) Any() bool {
	return d.Tokens || d.Parse || d.Symbols || d.IR || d.Asm
}

// Config holds every setting of a compiler run
type Config struct {
	Entry     string          `yaml:"entry" toml:"entry"`
	OutputExt string          `yaml:"output_ext" toml:"output_ext"`
	Jobs      int             `yaml:"jobs" toml:"jobs"` // 0: one per CPU
	Verbose   bool            `yaml:"verbose" toml:"verbose"`
	Dumps     Dumps           `yaml:"dumps" toml:"dumps"`
	Syscalls  asmgen.Syscalls `yaml:"syscalls" toml:"syscalls"`
}

// Default returns the settings used when no config file is given
func Default() Config {
	opts := asmgen.DefaultOptions()
	return Config{
		Entry:     opts.Entry,
		OutputExt: ".asm",
		Syscalls:  opts.Syscalls,
	}
}

// Load reads path on top of Default. The format is chosen by extension:
// .yaml/.yml or .toml.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
	default:
		return cfg, fmt.Errorf("%s: %w (want .yaml, .yml or .toml)", path, ErrUnknownFormat)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that the settings describe a runnable configuration
func (c Config) Validate() error {
	if !identRE.MatchString(c.Entry) {
		return fmt.Errorf("entry %q is not an identifier", c.Entry)
	}
	if c.OutputExt == "" {
		return errors.New("output_ext must not be empty")
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be >= 0, got %d", c.Jobs)
	}
	services := []int32{c.Syscalls.PrintInt, c.Syscalls.PrintStr, c.Syscalls.ReadInt, c.Syscalls.Exit}
	for _, s := range services {
		if s <= 0 {
			return fmt.Errorf("syscall numbers must be positive, got %d", s)
		}
	}
	slices.Sort(services)
	if len(slices.Compact(services)) != 4 {
		return errors.New("syscall numbers must be distinct")
	}
	return nil
}

// CodegenOptions returns the code generator settings of c
func (c Config) CodegenOptions() asmgen.Options {
	return asmgen.Options{Entry: c.Entry, Syscalls: c.Syscalls}
}
