package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/moka-guys/snparray/audit"
	"github.com/moka-guys/snparray/config"
	"github.com/moka-guys/snparray/interval"
)

// runFlags holds the flags every subcommand shares, plus the flags that
// override configuration values.
type runFlags struct {
	fs           *flag.FlagSet
	configPath   string
	manifestPath string
	// overrides maps a flag name to the update it makes to the
	// configuration when given on the command line.
	overrides map[string]func(*config.Config)
}

func newRunFlags(fs *flag.FlagSet) *runFlags {
	rf := &runFlags{fs: fs, overrides: map[string]func(*config.Config){}}
	fs.StringVar(&rf.configPath, "config", "", "YAML run configuration. Flags given on the command line override its values.")
	fs.StringVar(&rf.manifestPath, "manifest", "", "If set, write a YAML run manifest (inputs, configuration, output fingerprints) to this path.")
	return rf
}

func (rf *runFlags) intVar(name string, def int, usage string, set func(*config.Config, int)) {
	v := rf.fs.Int(name, def, usage)
	rf.overrides[name] = func(c *config.Config) { set(c, *v) }
}

func (rf *runFlags) boolVar(name string, def bool, usage string, set func(*config.Config, bool)) {
	v := rf.fs.Bool(name, def, usage)
	rf.overrides[name] = func(c *config.Config) { set(c, *v) }
}

func (rf *runFlags) stringVar(name, def, usage string, set func(*config.Config, string)) {
	v := rf.fs.String(name, def, usage)
	rf.overrides[name] = func(c *config.Config) { set(c, *v) }
}

func (rf *runFlags) float64Var(name string, def float64, usage string, set func(*config.Config, float64)) {
	v := rf.fs.Float64(name, def, usage)
	rf.overrides[name] = func(c *config.Config) { set(c, *v) }
}

// config returns the validated run configuration: defaults, then the
// -config file, then explicitly given flags.
func (rf *runFlags) config(ctx context.Context) (config.Config, error) {
	cfg := config.Default()
	if rf.configPath != "" {
		if err := requireFiles(rf.configPath); err != nil {
			return cfg, err
		}
		var err error
		if cfg, err = config.Load(ctx, rf.configPath); err != nil {
			return cfg, err
		}
	}
	rf.fs.Visit(func(f *flag.Flag) {
		if set, ok := rf.overrides[f.Name]; ok {
			set(&cfg)
		}
	})
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return cfg, err
	}
	log.Printf("configuration:\n%s", data)
	return cfg, nil
}

// manifest writes the run manifest if -manifest was given.
func (rf *runFlags) manifest(ctx context.Context, command string, cfg config.Config, inputs, outputs []string, stats map[string]int64) error {
	if rf.manifestPath == "" {
		return nil
	}
	m := audit.New(command, cfg)
	if err := m.AddInputs(ctx, inputs...); err != nil {
		return err
	}
	if err := m.AddOutputs(ctx, outputs...); err != nil {
		return err
	}
	for k, v := range stats {
		m.SetStat(k, v)
	}
	return m.Write(ctx, rf.manifestPath)
}

// requireFiles checks that every path names an existing regular file.
func requireFiles(paths ...string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return errors.E(errors.NotExist, fmt.Sprintf("input %s", p), err)
		}
		if info.IsDir() {
			return errors.E(errors.Invalid, fmt.Sprintf("input %s is a directory", p))
		}
	}
	return nil
}

// requireDir checks that dir is an existing directory.
func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.E(errors.NotExist, fmt.Sprintf("directory %s", dir), err)
	}
	if !info.IsDir() {
		return errors.E(errors.Invalid, fmt.Sprintf("%s is not a directory", dir))
	}
	return nil
}

// requireOutput checks that path can be created: its directory exists.
func requireOutput(path string) error {
	if path == "" {
		return errors.E(errors.Invalid, "an output path is required")
	}
	return requireDir(filepath.Dir(path))
}

// parseChroms parses a comma-separated chromosome list.  An empty list
// means all chromosomes.
func parseChroms(s string) ([]interval.Chrom, error) {
	if s == "" {
		return nil, nil
	}
	var out []interval.Chrom
	for _, name := range strings.Split(s, ",") {
		c := interval.ParseChrom(strings.TrimSpace(name))
		if !c.Valid() {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown chromosome %q", name))
		}
		out = append(out, c)
	}
	return out, nil
}

// parseRegions parses a comma-separated list of chr:start-end regions
// (1-based closed, as samtools writes them).  An empty list means no
// restriction.
func parseRegions(s string) ([]interval.Interval, error) {
	if s == "" {
		return nil, nil
	}
	var out []interval.Interval
	for _, r := range strings.Split(s, ",") {
		region, err := interval.ParseRegion(strings.TrimSpace(r))
		if err != nil {
			return nil, errors.E(errors.Invalid, err)
		}
		if !interval.ParseChrom(region.Chrom).Valid() {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown chromosome in region %q", r))
		}
		out = append(out, region)
	}
	return out, nil
}

// argsError reports a wrong positional argument count.
func argsError(cmd string, want string, argv []string) error {
	return fmt.Errorf("%s takes %s, but got %v", cmd, want, argv)
}

func logDone(cmd string, outputs []string) {
	log.Printf("%s: wrote %s", cmd, strings.Join(outputs, ", "))
}
