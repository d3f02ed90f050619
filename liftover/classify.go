package liftover

import (
	"context"
	"io"
	"path/filepath"

	"github.com/moka-guys/snparray/encoding/bedtrack"
	"github.com/moka-guys/snparray/legacy"
	"github.com/moka-guys/snparray/util"
)

// Track names, in output order.
const (
	WholeChromosomeGain = "whole_chromosome_gain"
	WholeChromosomeLoss = "whole_chromosome_loss"
	FocalGain           = "focal_gain"
	FocalLoss           = "focal_loss"
	Unclassified        = "unclassified"
)

var trackNames = []string{WholeChromosomeGain, WholeChromosomeLoss, FocalGain, FocalLoss, Unclassified}

// Track is one output track.
type Track struct {
	Name    string
	Records []bedtrack.Record
}

func trackName(c *legacy.NormalizedRecord) string {
	var gain bool
	switch c.CNVType.Direction() {
	case legacy.CopyNumberGain:
		gain = true
	case legacy.CopyNumberLoss:
	default:
		return Unclassified
	}
	switch {
	case c.WholeChromosome && gain:
		return WholeChromosomeGain
	case c.WholeChromosome:
		return WholeChromosomeLoss
	case gain:
		return FocalGain
	}
	return FocalLoss
}

// TrackRecord renders a reconciled call at its lifted coordinates.
func TrackRecord(r Reconciled) bedtrack.Record {
	c := r.Call
	return bedtrack.Record{
		Chrom: r.Lifted.Chrom,
		Start: r.Lifted.Start,
		End:   r.Lifted.End,
		Name:  c.PatientID,
		Color: c.Color,
		Name2: c.CNVType.String() + " " + c.Pathogenicity.String(),
		HTML:  c.HTML,
	}
}

// Classify partitions reconciled calls into the whole-chromosome and focal
// gain and loss tracks.  Mosaic calls go to the track of their direction;
// calls without a CNV type go to the unclassified track.  Every track is
// returned, in a fixed order, even when empty, and records keep their input
// order.
func Classify(reconciled []Reconciled) []Track {
	tracks := make([]Track, len(trackNames))
	pos := map[string]int{}
	for i, name := range trackNames {
		tracks[i].Name = name
		pos[name] = i
	}
	for _, r := range reconciled {
		i := pos[trackName(r.Call)]
		tracks[i].Records = append(tracks[i].Records, TrackRecord(r))
	}
	return tracks
}

// TrackPath returns the file of the named track in dir.
func TrackPath(dir, name string) string {
	return filepath.Join(dir, name+".bed")
}

// StageTracks adds each track, at TrackPath(dir, name), to b in track
// order.
func StageTracks(ctx context.Context, b *util.Batch, dir string, tracks []Track) error {
	for _, t := range tracks {
		if err := bedtrack.Stage(ctx, b, TrackPath(dir, t.Name), t.Records); err != nil {
			return err
		}
	}
	return nil
}

// StageUnmapped adds the report of calls liftOver could not map to b, with
// the reason as the last column.
func StageUnmapped(ctx context.Context, b *util.Batch, path string, unmapped []Unmapped) error {
	recs := make([]Record, len(unmapped))
	for i, u := range unmapped {
		recs[i] = u.Record
		recs[i].Payload = []string{u.Call.PatientID, u.Reason}
	}
	return b.Add(ctx, path, func(w io.Writer) error {
		return WriteRecords(w, recs)
	})
}
