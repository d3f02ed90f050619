package legacy

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/grailbio/base/log"
	"github.com/moka-guys/snparray/encoding/bedtrack"
)

// Age strings for records that are not aged.
const (
	AgeNotRelevant = "Age not relevant for tissue type"
	AgeUnknown     = "Age unknown"
)

// dateLayouts are the date formats seen in the legacy export, tried in
// order.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// Opts controls Normalize.
type Opts struct {
	// ReferralMaxEdits is the Levenshtein tolerance for matching referral
	// keywords that do not occur verbatim.  0 disables fuzzy matching.
	ReferralMaxEdits int
}

// DefaultOpts is the default Opts.
var DefaultOpts = Opts{ReferralMaxEdits: 1}

// NormalizedRecord is a Record with its categorical codes decoded.
type NormalizedRecord struct {
	Record
	Sex             Sex
	Pathogenicity   Pathogenicity
	CNVType         CNVType
	TissueGroup     TissueGroup
	Color           bedtrack.RGB
	Age             string
	WholeChromosome bool
	// HTML is the browser detail text shown when the call is clicked.
	HTML string
}

// Normalize decodes rec.  It returns false when no sex column holds a
// decodable value; such records are dropped from the published tracks.
func Normalize(rec Record, opts Opts) (NormalizedRecord, bool) {
	sex, ok := DecodeSex(rec.Gender, rec.Sexed, rec.BookinSex)
	if !ok {
		return NormalizedRecord{}, false
	}
	n := NormalizedRecord{
		Record:          rec,
		Sex:             sex,
		Pathogenicity:   DecodePathogenicity(rec.PathogenicCode),
		CNVType:         DecodeCNVType(rec.CopiesCode),
		TissueGroup:     DecodeTissueGroup(rec.Referral, opts.ReferralMaxEdits),
		WholeChromosome: DecodeWholeChromosome(rec.WholeChromosome),
	}
	if n.CNVType == CNVUnspecified {
		n.CNVType = DecodeCNVType(rec.CNVTypeID)
	}
	n.Color = Color(n.CNVType, n.Pathogenicity)
	n.Age = age(rec, n.TissueGroup)
	n.HTML = detailHTML(n)
	return n, true
}

// NormalizeAll normalizes recs in order and returns the kept records along
// with the number dropped.
func NormalizeAll(recs []Record, opts Opts) ([]NormalizedRecord, int) {
	out := make([]NormalizedRecord, 0, len(recs))
	dropped := 0
	for _, r := range recs {
		n, ok := Normalize(r, opts)
		if !ok {
			log.Debug.Printf("legacy.NormalizeAll: row %d (patient %s): no decodable sex, dropped", r.Line, r.PatientID)
			dropped++
			continue
		}
		out = append(out, n)
	}
	if dropped > 0 {
		log.Printf("legacy.NormalizeAll: dropped %d of %d records without a decodable sex", dropped, len(recs))
	}
	return out, dropped
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// age returns the patient's age at request for general referrals.  The
// reference date is RequestedDate, or DateReceived when that is missing.
func age(rec Record, group TissueGroup) string {
	if group != GeneralReferral {
		return AgeNotRelevant
	}
	dob, ok := parseDate(rec.BookinDOB)
	if !ok {
		if dob, ok = parseDate(rec.DoB); !ok {
			return AgeUnknown
		}
	}
	ref, ok := parseDate(rec.RequestedDate)
	if !ok {
		if ref, ok = parseDate(rec.DateReceived); !ok {
			return AgeUnknown
		}
	}
	return formatAge(dob, ref)
}

// formatAge buckets the age at ref of someone born at dob: whole years
// when at least one year, else whole months, else "<1 month".
func formatAge(dob, ref time.Time) string {
	if ref.Before(dob) {
		return AgeUnknown
	}
	years := ref.Year() - dob.Year()
	months := int(ref.Month()) - int(dob.Month())
	if ref.Day() < dob.Day() {
		months--
	}
	if months < 0 {
		years--
		months += 12
	}
	switch {
	case years > 0:
		return fmt.Sprintf("%d years", years)
	case months > 0:
		return fmt.Sprintf("%d months", months)
	}
	return "<1 month"
}

func detailHTML(n NormalizedRecord) string {
	var b strings.Builder
	field := func(name, value string) {
		value = normalizeSpace(value)
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("<br>")
		}
		fmt.Fprintf(&b, "<b>%s:</b> %s", name, html.EscapeString(value))
	}
	field("Result", n.PatientResult)
	field("Band", n.Band)
	field("Phenotype", n.Phenotype)
	field("Classification", n.Pathogenicity.String())
	field("Age", n.Age)
	return b.String()
}
