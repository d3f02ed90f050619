package main

import (
	"context"
	"os"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/moka-guys/snparray/config"
	"github.com/moka-guys/snparray/legacy"
	"github.com/moka-guys/snparray/liftover"
	"v.io/x/lib/cmdline"
)

type normalizeFlags struct {
	run      *runFlags
	out      string
	maxEdits int
}

func runNormalize(ctx context.Context, f *normalizeFlags, argv []string) error {
	if len(argv) != 1 {
		return argsError("normalize", "one export path", argv)
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
	_, stats, err := legacy.NormalizeFile(ctx, argv[0], f.out, legacy.Opts{ReferralMaxEdits: f.maxEdits})
	if err != nil {
		return err
	}
	outputs := []string{f.out}
	logDone("normalize", outputs)
	return f.run.manifest(ctx, "normalize", cfg, argv, outputs, map[string]int64{
		"rows":       int64(stats.Rows),
		"calls":      int64(stats.Calls),
		"dropped":    int64(stats.Dropped),
		"normalized": int64(stats.Normalized),
	})
}

func newCmdNormalize() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "normalize",
		Short: "Decode the legacy CNV call export",
		Long: `
Loads the legacy database export, folds the per-phenotype rows of each call
together, decodes sex, classification, CNV type and tissue group, and
derives the age, display color and browser detail of every call.  Calls
without a decodable sex are dropped.`,
		ArgsName: "export.tsv",
	}
	flags := &normalizeFlags{run: newRunFlags(&cmd.Flags)}
	cmd.Flags.StringVar(&flags.out, "out", "normalized.tsv", "Output TSV path")
	cmd.Flags.IntVar(&flags.maxEdits, "referral-max-edits", legacy.DefaultOpts.ReferralMaxEdits,
		"Levenshtein tolerance when matching referral keywords; 0 requires exact keywords")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runNormalize(vcontext.Background(), flags, argv)
	})
	return cmd
}

type reconcileFlags struct {
	run      *runFlags
	outDir   string
	workDir  string
	maxEdits int
}

// reconcile lifts and publishes the calls of export using runner.
func reconcile(ctx context.Context, f *reconcileFlags, cfg config.Config, export string, runner liftover.Runner) (liftover.Report, error) {
	recs, err := legacy.LoadFromPath(ctx, export)
	if err != nil {
		return liftover.Report{}, err
	}
	calls, dropped := legacy.NormalizeAll(legacy.AggregatePhenotypes(recs), legacy.Opts{ReferralMaxEdits: f.maxEdits})
	workDir := f.workDir
	if workDir == "" {
		if workDir, err = os.MkdirTemp(f.outDir, ".liftover-"); err != nil {
			return liftover.Report{}, err
		}
		defer func() {
			if e := os.RemoveAll(workDir); e != nil {
				log.Error.Printf("reconcile: remove %s: %v", workDir, e)
			}
		}()
	}
	report, err := liftover.Reconcile(ctx, liftover.Opts{
		WorkDir:   workDir,
		ChainPath: cfg.LiftOver.Chain,
		OutDir:    f.outDir,
	}, calls, runner)
	if err == nil {
		log.Printf("reconcile: %d call(s) dropped without a decodable sex", dropped)
	}
	return report, err
}

func runReconcile(ctx context.Context, f *reconcileFlags, argv []string) error {
	if len(argv) != 1 {
		return argsError("reconcile", "one export path", argv)
	}
	cfg, err := f.run.config(ctx)
	if err != nil {
		return err
	}
	if cfg.LiftOver.Chain == "" {
		return errors.E(errors.Invalid, "reconcile needs a chain file (-chain or liftover.chain)")
	}
	if err := requireFiles(argv[0], cfg.LiftOver.Chain); err != nil {
		return err
	}
	if err := requireDir(f.outDir); err != nil {
		return err
	}
	if f.workDir != "" {
		if err := requireDir(f.workDir); err != nil {
			return err
		}
	}
	runner := liftover.ExecRunner{Binary: cfg.LiftOver.Binary, MinMatch: cfg.LiftOver.MinMatch}
	report, err := reconcile(ctx, f, cfg, argv[0], runner)
	if err != nil {
		return err
	}
	logDone("reconcile", report.Outputs)
	stats := map[string]int64{
		"exported":   int64(report.Exported),
		"reconciled": int64(report.Reconciled),
		"unmapped":   int64(report.Unmapped),
	}
	for name, n := range report.TrackSizes {
		stats["track_"+name] = int64(n)
	}
	return f.run.manifest(ctx, "reconcile", cfg, []string{argv[0], cfg.LiftOver.Chain}, report.Outputs, stats)
}

func newCmdReconcile() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "reconcile",
		Short: "Lift legacy CNV calls to the new build and write browser tracks",
		Long: `
Normalizes the legacy export, exports every call with a minted key, runs the
UCSC liftOver binary, joins the lifted coordinates back to the calls and
writes whole-chromosome/focal gain/loss tracks plus an unmapped report to
-out-dir.  A failing stage aborts the run and names the stage.`,
		ArgsName: "export.tsv",
	}
	def := config.Default()
	flags := &reconcileFlags{run: newRunFlags(&cmd.Flags)}
	cmd.Flags.StringVar(&flags.outDir, "out-dir", ".", "Directory for the track files")
	cmd.Flags.StringVar(&flags.workDir, "work-dir", "", "Directory for liftOver request and response files. Default: a temporary directory in -out-dir, removed afterwards")
	cmd.Flags.IntVar(&flags.maxEdits, "referral-max-edits", legacy.DefaultOpts.ReferralMaxEdits,
		"Levenshtein tolerance when matching referral keywords; 0 requires exact keywords")
	flags.run.stringVar("chain", def.LiftOver.Chain, "liftOver chain file",
		func(c *config.Config, v string) { c.LiftOver.Chain = v })
	flags.run.stringVar("liftover", def.LiftOver.Binary, "liftOver executable name or path",
		func(c *config.Config, v string) { c.LiftOver.Binary = v })
	flags.run.float64Var("min-match", def.LiftOver.MinMatch, "liftOver -minMatch; 0 uses the binary's default",
		func(c *config.Config, v float64) { c.LiftOver.MinMatch = v })
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runReconcile(vcontext.Background(), flags, argv)
	})
	return cmd
}
