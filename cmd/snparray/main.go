// Command snparray supports the migration of the SNP-array service to a new
// array platform and genome build.
//
//   snparray resolution arrayA.bed arrayB.bed
//     counts arrayA probes per window of arrayB probes.
//   snparray generes regions.bed probes.bed
//     measures the span of probe windows inside each region.
//   snparray mask probes.bed Genes.aed genome.fa.fai
//     writes the overlap-map track of probes far from coding genes.
//   snparray normalize export.tsv
//     decodes the legacy CNV call export.
//   snparray reconcile export.tsv
//     lifts legacy calls to the new build and writes browser tracks.
//
// Every subcommand takes -config, a YAML file of run parameters that flags
// override, and -manifest, which records inputs, parameters and output
// fingerprints of the run.
package main

import (
	"os"

	"github.com/grailbio/base/grail"
	"v.io/x/lib/cmdline"
)

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "snparray",
		Short:    "SNP-array interval reconciliation and resolution tools",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdResolution(),
			newCmdGeneres(),
			newCmdMask(),
			newCmdNormalize(),
			newCmdReconcile(),
		},
	}
}

func main() {
	shutdown := grail.Init()
	cmdline.HideGlobalFlagsExcept()
	env := cmdline.EnvFromOS()
	err := cmdline.ParseAndRun(newCmdRoot(), env, os.Args[1:])
	shutdown()
	os.Exit(cmdline.ExitCode(err, env.Stderr))
}
