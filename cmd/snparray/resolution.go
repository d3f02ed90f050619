package main

import (
	"context"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/moka-guys/snparray/config"
	"github.com/moka-guys/snparray/interval"
	"github.com/moka-guys/snparray/resolution"
	"v.io/x/lib/cmdline"
)

type resolutionFlags struct {
	run    *runFlags
	out     string
	chroms  string
	regions string
}

func addResolutionFlags(cmd *cmdline.Command, defaultOut string) *resolutionFlags {
	def := config.Default()
	flags := &resolutionFlags{run: newRunFlags(&cmd.Flags)}
	cmd.Flags.StringVar(&flags.out, "out", defaultOut, "Output path prefix; writes <out>.tsv and <out>.summary.tsv")
	cmd.Flags.StringVar(&flags.chroms, "chroms", "", "Comma-separated chromosomes to process. Default: chr1-chr22, chrX, chrY")
	cmd.Flags.StringVar(&flags.regions, "region", "", "Comma-separated chr:start-end regions (1-based); only input rows overlapping them are used")
	flags.run.intVar("window", def.Window, "Number of consecutive probes per window", func(c *config.Config, v int) { c.Window = v })
	flags.run.boolVar("one-based-input", def.OneBasedInput, "Probe files use 1-based closed coordinates", func(c *config.Config, v bool) { c.OneBasedInput = v })
	return flags
}

func (f *resolutionFlags) opts(ctx context.Context) (config.Config, resolution.Opts, error) {
	cfg, err := f.run.config(ctx)
	if err != nil {
		return cfg, resolution.Opts{}, err
	}
	chroms, err := parseChroms(f.chroms)
	if err != nil {
		return cfg, resolution.Opts{}, err
	}
	regions, err := parseRegions(f.regions)
	if err != nil {
		return cfg, resolution.Opts{}, err
	}
	return cfg, resolution.Opts{
		Window:  cfg.Window,
		Chroms:  chroms,
		Load:    interval.LoadOpts{OneBasedInput: cfg.OneBasedInput},
		Regions: regions,
	}, nil
}

// resolutionCmd is the shared body of the resolution and generes
// subcommands.
func resolutionCmd(ctx context.Context, name string, f *resolutionFlags, argv []string,
	run func(ctx context.Context, a, b, out string, opts resolution.Opts) (resolution.Paths, error)) error {
	if len(argv) != 2 {
		return argsError(name, "two BED paths", argv)
	}
	if err := requireFiles(argv...); err != nil {
		return err
	}
	if err := requireOutput(f.out); err != nil {
		return err
	}
	cfg, opts, err := f.opts(ctx)
	if err != nil {
		return err
	}
	paths, err := run(ctx, argv[0], argv[1], f.out, opts)
	if err != nil {
		return err
	}
	outputs := []string{paths.Rows, paths.Summary}
	logDone(name, outputs)
	return f.run.manifest(ctx, name, cfg, argv, outputs, nil)
}

func newCmdResolution() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "resolution",
		Short: "Count array A probes per window of array B probes",
		Long: `
For every window of consecutive array B probes on a chromosome, count the
array A probes that intersect the window's extent.  Writes one row per
window and per-chromosome and genome-wide summaries of window span and
count.`,
		ArgsName: "arrayA.bed arrayB.bed",
	}
	flags := addResolutionFlags(cmd, "resolution")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return resolutionCmd(vcontext.Background(), "resolution", flags, argv, resolution.CountFiles)
	})
	return cmd
}

func newCmdGeneres() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "generes",
		Short: "Measure probe resolution inside annotated regions",
		Long: `
For each region, window the probes that intersect it and report the span of
every window.  Regions with no more probes than the window size produce no
rows.`,
		ArgsName: "regions.bed probes.bed",
	}
	flags := addResolutionFlags(cmd, "generes")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return resolutionCmd(vcontext.Background(), "generes", flags, argv, resolution.GeneSpanFiles)
	})
	return cmd
}
