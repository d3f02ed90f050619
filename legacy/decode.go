package legacy

import (
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/moka-guys/snparray/encoding/bedtrack"
)

// Sex is a decoded patient sex.  Records whose sex cannot be decoded are
// dropped, so there is no unknown value.
type Sex uint8

const (
	Male Sex = iota + 1
	Female
)

func (s Sex) String() string {
	switch s {
	case Male:
		return "Male"
	case Female:
		return "Female"
	}
	return ""
}

// sexCodes decodes the values found in the three legacy sex columns.  The
// numeric codes follow the legacy booking form (1 male, 2 female).
var sexCodes = map[string]Sex{
	"male":   Male,
	"m":      Male,
	"1":      Male,
	"female": Female,
	"f":      Female,
	"2":      Female,
}

// DecodeSex returns the first of values that decodes to a sex.
func DecodeSex(values ...string) (Sex, bool) {
	for _, v := range values {
		if s, ok := sexCodes[strings.ToLower(strings.TrimSpace(v))]; ok {
			return s, true
		}
	}
	return 0, false
}

// Pathogenicity is an ACMG-style classification.
type Pathogenicity uint8

const (
	PathogenicityUnspecified Pathogenicity = iota
	UncertainSignificance
	LikelyPathogenic
	Pathogenic
)

var pathogenicityNames = [...]string{
	PathogenicityUnspecified: "Unspecified",
	UncertainSignificance:    "Uncertain significance",
	LikelyPathogenic:         "Likely pathogenic",
	Pathogenic:               "Pathogenic",
}

func (p Pathogenicity) String() string {
	return pathogenicityNames[p]
}

// Class returns the numeric class (3, 4 or 5), or 0 when unspecified.
func (p Pathogenicity) Class() int {
	if p == PathogenicityUnspecified {
		return 0
	}
	return int(p) + 2
}

var pathogenicityCodes = map[string]Pathogenicity{
	"1202218781": UncertainSignificance,
	"1202218783": LikelyPathogenic,
	"1202218788": Pathogenic,
}

// DecodePathogenicity maps a legacy classification code.
func DecodePathogenicity(code string) Pathogenicity {
	return pathogenicityCodes[strings.TrimSpace(code)]
}

// CNVType is the copy-number change of a call.
type CNVType uint8

const (
	CNVUnspecified CNVType = iota
	CopyNumberLoss
	CopyNumberGain
	MosaicLoss
	MosaicGain
)

var cnvTypeNames = [...]string{
	CNVUnspecified: "Unspecified",
	CopyNumberLoss: "Copy number loss",
	CopyNumberGain: "Copy number gain",
	MosaicLoss:     "Mosaic loss",
	MosaicGain:     "Mosaic gain",
}

func (c CNVType) String() string {
	return cnvTypeNames[c]
}

// Direction folds mosaic types into their direction: CopyNumberLoss,
// CopyNumberGain or CNVUnspecified.
func (c CNVType) Direction() CNVType {
	switch c {
	case CopyNumberLoss, MosaicLoss:
		return CopyNumberLoss
	case CopyNumberGain, MosaicGain:
		return CopyNumberGain
	}
	return CNVUnspecified
}

var cnvTypeCodes = map[string]CNVType{
	"1190384936": CopyNumberLoss,
	"1190384938": CopyNumberGain,
	"1190384940": MosaicLoss,
	"1190384942": MosaicGain,
}

// DecodeCNVType maps a legacy copy-number change code.
func DecodeCNVType(code string) CNVType {
	return cnvTypeCodes[strings.TrimSpace(code)]
}

// TissueGroup groups referral reasons by specimen type.
type TissueGroup uint8

const (
	TissueUnspecified TissueGroup = iota
	Prenatal
	POCTissue
	GeneralReferral
)

var tissueGroupNames = [...]string{
	TissueUnspecified: "Unspecified",
	Prenatal:          "Prenatal",
	POCTissue:         "POC/Tissue",
	GeneralReferral:   "General referral",
}

func (g TissueGroup) String() string {
	return tissueGroupNames[g]
}

// referralKeywords are checked in order; the first keyword found in the
// referral text decides the group.
var referralKeywords = []struct {
	word  string
	group TissueGroup
}{
	{"prenatal", Prenatal},
	{"poc", POCTissue},
	{"tissue", POCTissue},
	{"general", GeneralReferral},
	{"gen ref", GeneralReferral},
	{"pseudorush", GeneralReferral},
}

// DecodeTissueGroup derives the tissue group from free referral text such
// as "Repeat prenatal" or "Gen Ref - pseudorush".  When no keyword occurs
// verbatim, words within maxEdits Levenshtein edits of a keyword of five or
// more letters also match, which absorbs typos in the hand-entered
// referral names.
func DecodeTissueGroup(referral string, maxEdits int) TissueGroup {
	text := strings.ToLower(normalizeSpace(referral))
	if text == "" {
		return TissueUnspecified
	}
	for _, k := range referralKeywords {
		if strings.Contains(text, k.word) {
			return k.group
		}
	}
	if maxEdits <= 0 {
		return TissueUnspecified
	}
	words := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '/' || r == '-' || r == ',' || r == '(' || r == ')'
	})
	for _, k := range referralKeywords {
		if len(k.word) < 5 || strings.Contains(k.word, " ") {
			continue
		}
		for _, w := range words {
			if matchr.Levenshtein(w, k.word) <= maxEdits {
				return k.group
			}
		}
	}
	return TissueUnspecified
}

// ColorUnspecified is the color of a call whose (CNV type, pathogenicity)
// combination has no entry in the color table.
var ColorUnspecified = bedtrack.RGB{R: 128, G: 128, B: 128}

type colorKey struct {
	cnv  CNVType
	path Pathogenicity
}

// colors holds the display color of every (CNV type, pathogenicity) pair.
// Losses are red, gains blue; mosaic calls use separate hues, and color
// intensity follows the classification.
var colors = map[colorKey]bedtrack.RGB{
	{CopyNumberLoss, Pathogenic}:            {R: 255, G: 0, B: 0},
	{CopyNumberLoss, LikelyPathogenic}:      {R: 255, G: 102, B: 102},
	{CopyNumberLoss, UncertainSignificance}: {R: 255, G: 178, B: 178},
	{CopyNumberGain, Pathogenic}:            {R: 0, G: 0, B: 255},
	{CopyNumberGain, LikelyPathogenic}:      {R: 102, G: 102, B: 255},
	{CopyNumberGain, UncertainSignificance}: {R: 178, G: 178, B: 255},
	{MosaicLoss, Pathogenic}:                {R: 204, G: 0, B: 102},
	{MosaicLoss, LikelyPathogenic}:          {R: 230, G: 92, B: 160},
	{MosaicLoss, UncertainSignificance}:     {R: 242, G: 170, B: 205},
	{MosaicGain, Pathogenic}:                {R: 0, G: 153, B: 153},
	{MosaicGain, LikelyPathogenic}:          {R: 77, G: 190, B: 190},
	{MosaicGain, UncertainSignificance}:     {R: 160, G: 220, B: 220},
}

// Color returns the display color for a call.
func Color(cnv CNVType, path Pathogenicity) bedtrack.RGB {
	if c, ok := colors[colorKey{cnv, path}]; ok {
		return c
	}
	return ColorUnspecified
}

// DecodeWholeChromosome decodes the whole-chromosome flag; the legacy
// database stores true as -1.
func DecodeWholeChromosome(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "-1", "1", "true", "yes":
		return true
	}
	return false
}
