package liftover

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/grailbio/base/log"
	"github.com/moka-guys/snparray/legacy"
	"github.com/moka-guys/snparray/util"
)

// Opts configures Reconcile.
type Opts struct {
	// WorkDir receives the liftOver request and response files.
	WorkDir string
	// ChainPath is the liftOver chain file.
	ChainPath string
	// OutDir receives the track files and the unmapped report.
	OutDir string
}

// UnmappedFile is the name of the unmapped report in Opts.OutDir.
const UnmappedFile = "unmapped.tsv"

// Report summarizes a Reconcile run.
type Report struct {
	Exported   int
	Reconciled int
	Unmapped   int
	// TrackSizes holds the record count of each track, by name.
	TrackSizes map[string]int
	// Outputs lists the files written, tracks first, then the unmapped
	// report.
	Outputs []string
}

// Request returns the liftOver file names of a run in opts.WorkDir.
func (opts Opts) Request() Request {
	return Request{
		InPath:       filepath.Join(opts.WorkDir, "request.bed"),
		ChainPath:    opts.ChainPath,
		MappedPath:   filepath.Join(opts.WorkDir, "mapped.bed"),
		UnmappedPath: filepath.Join(opts.WorkDir, "unmapped.bed"),
	}
}

// Reconcile lifts calls to the new build and publishes them: export with
// minted keys, run liftOver through runner, join the response back by key,
// classify, and write the tracks.  A failing stage aborts the run before
// any later stage writes.  The tracks and the unmapped report are published
// together or not at all.
func Reconcile(ctx context.Context, opts Opts, calls []legacy.NormalizedRecord, runner Runner) (Report, error) {
	var report Report
	req := opts.Request()
	exported := Export(calls)
	report.Exported = len(exported)
	if err := WriteRequest(ctx, req.InPath, exported); err != nil {
		return report, &CollaboratorFailure{Stage: StageExport, Err: err}
	}
	log.Printf("liftover.Reconcile: exported %d call(s) to %s", len(exported), req.InPath)

	if err := runner.Lift(ctx, req); err != nil {
		if _, ok := err.(*CollaboratorFailure); ok {
			return report, err
		}
		return report, &CollaboratorFailure{Stage: StageLift, Err: err}
	}
	mapped, unmapped, err := ReadResponse(ctx, req)
	if err != nil {
		return report, err
	}
	res, err := Rejoin(exported, mapped, unmapped)
	if err != nil {
		return report, err
	}
	report.Reconciled = len(res.Reconciled)
	report.Unmapped = len(res.Unmapped)
	for _, u := range res.Unmapped {
		log.Debug.Printf("liftover.Reconcile: %s %v unmapped: %s", u.Call.PatientID, u.Interval(), u.Reason)
	}

	tracks := Classify(res.Reconciled)
	report.TrackSizes = make(map[string]int, len(tracks))
	for _, t := range tracks {
		report.TrackSizes[t.Name] = len(t.Records)
	}
	var batch util.Batch
	defer batch.Abort()
	unmappedPath := filepath.Join(opts.OutDir, UnmappedFile)
	if err := StageTracks(ctx, &batch, opts.OutDir, tracks); err != nil {
		return report, &CollaboratorFailure{Stage: StageWrite, Err: err}
	}
	if err := StageUnmapped(ctx, &batch, unmappedPath, res.Unmapped); err != nil {
		return report, &CollaboratorFailure{Stage: StageWrite, Err: fmt.Errorf("%s: %v", unmappedPath, err)}
	}
	outputs := batch.Paths()
	if err := batch.Commit(ctx); err != nil {
		return report, &CollaboratorFailure{Stage: StageWrite, Err: err}
	}
	report.Outputs = outputs
	log.Printf("liftover.Reconcile: %d reconciled, %d unmapped of %d exported", report.Reconciled, report.Unmapped, report.Exported)
	return report, nil
}
