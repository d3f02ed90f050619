package main

import (
	"context"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/moka-guys/snparray/config"
	"github.com/moka-guys/snparray/interval"
	"github.com/moka-guys/snparray/mask"
	"v.io/x/lib/cmdline"
)

type maskFlags struct {
	run     *runFlags
	out     string
	regions string
}

func runMask(ctx context.Context, f *maskFlags, argv []string) error {
	if len(argv) != 3 {
		return argsError("mask", "probes, annotation and genome paths", argv)
	}
	if err := requireFiles(argv...); err != nil {
		return err
	}
	if err := requireOutput(f.out); err != nil {
		return err
	}
	cfg, err := f.run.config(ctx)
	if err != nil {
		return err
	}
	regions, err := parseRegions(f.regions)
	if err != nil {
		return err
	}
	opts := mask.DefaultOpts
	opts.Regions = regions
	opts.ProbesPath, opts.AnnotationPath, opts.GenomePath = argv[0], argv[1], argv[2]
	opts.OutPath = f.out
	opts.MinProbeDistance = cfg.MinProbeDistance
	opts.Annotation.HeaderLines = cfg.AnnotationHeaderLines
	opts.Write.Assembly = cfg.Assembly
	opts.OneBasedProbes = cfg.OneBasedInput
	stats, err := mask.Generate(ctx, opts)
	if err != nil {
		return err
	}
	outputs := []string{f.out}
	logDone("mask", outputs)
	runStats := map[string]int64{
		"probes":          int64(stats.Probes),
		"coding_regions":  int64(stats.CodingRegions),
		"noncoding":       int64(stats.NonCoding),
		"noncoding_bases": stats.NonCodingBases,
		"dropped_genes":   int64(stats.DroppedGenes),
		"masked":          int64(stats.Masked),
	}
	for c, n := range stats.MaskedByChrom {
		if n > 0 {
			runStats["masked_"+interval.Chrom(c).String()] = int64(n)
		}
	}
	return f.run.manifest(ctx, "mask", cfg, argv, outputs, runStats)
}

func newCmdMask() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "mask",
		Short: "Generate the overlap-map masking track",
		Long: `
Selects the probes lying in regions free of protein-coding genes (the
complement of the annotation's refseq/coding genes within the genome) that
are at least -min-probe-distance probes away from the nearest coding gene,
and writes them as a BED track.  The genome is a FASTA index (.fai), a FASTA
file, or a two-column "name length" genome file.`,
		ArgsName: "probes.bed annotation.aed genome",
	}
	def := config.Default()
	flags := &maskFlags{run: newRunFlags(&cmd.Flags)}
	cmd.Flags.StringVar(&flags.out, "out", "probes_to_mask.bed", "Output BED path")
	cmd.Flags.StringVar(&flags.regions, "region", "", "Comma-separated chr:start-end regions (1-based); only probes overlapping them are masked")
	flags.run.intVar("min-probe-distance", def.MinProbeDistance, "Minimum distance, in probes, from the nearest coding gene",
		func(c *config.Config, v int) { c.MinProbeDistance = v })
	flags.run.stringVar("assembly", def.Assembly, "Assembly written to the track header",
		func(c *config.Config, v string) { c.Assembly = v })
	flags.run.intVar("annotation-header-lines", def.AnnotationHeaderLines, "Leading annotation lines to skip",
		func(c *config.Config, v int) { c.AnnotationHeaderLines = v })
	flags.run.boolVar("one-based-input", def.OneBasedInput, "Probe file uses 1-based closed coordinates",
		func(c *config.Config, v bool) { c.OneBasedInput = v })
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runMask(vcontext.Background(), flags, argv)
	})
	return cmd
}
