package legacy

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/moka-guys/snparray/encoding/bedtrack"
	"github.com/moka-guys/snparray/interval"
	"github.com/stretchr/testify/require"
)

const exportHeader = "Chromo\tStart19\tStop19\tPatientID\tPathogenic\tReferral\tStatus\tCNVTypeID\tGender\tSexed\tBookinSex\tPatientResult\tDESCtwo\tDateRecieved\tPatientIDInheritance\tPhenotype\tCopies\tChange\tWholeChromosome\tBookinDOB\tDoB\tRequestedDate\n"

// exportRow builds a data row from column=value pairs; unnamed columns are
// empty.
func exportRow(kv map[string]string) string {
	cols := strings.Split(strings.TrimSuffix(exportHeader, "\n"), "\t")
	vals := make([]string, len(cols))
	for i, c := range cols {
		vals[i] = kv[c]
	}
	return strings.Join(vals, "\t") + "\n"
}

func TestLoad(t *testing.T) {
	in := exportHeader +
		exportRow(map[string]string{"Chromo": "chr1", "Start19": "1000", "Stop19": "2000.0", "PatientID": "P1", "Copies": " 1190384936 ", "Phenotype": "Delay"}) +
		exportRow(map[string]string{"Chromo": "chr2", "Start19": "10", "Stop19": "20", "PatientID": "P2"})
	recs, err := Load(strings.NewReader(in))
	assert.NoError(t, err)
	require.Len(t, recs, 2)
	expect.EQ(t, recs[0].Line, 1)
	expect.EQ(t, recs[0].End, interval.PosType(2000))
	expect.EQ(t, recs[0].CopiesCode, "1190384936")
	expect.EQ(t, recs[1].Interval(), interval.Interval{Chrom: "chr2", Start: 10, End: 20, Label: "P2"})

	for _, bad := range []map[string]string{
		{"Chromo": "chr1", "Start19": "x", "Stop19": "20"},
		{"Chromo": "chr1", "Start19": "30", "Stop19": "20"},
	} {
		_, err := Load(strings.NewReader(exportHeader + exportRow(bad)))
		var mre *interval.MalformedRowError
		expect.True(t, errors.As(err, &mre))
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.tsv")
	assert.NoError(t, os.WriteFile(path, []byte(exportHeader+exportRow(map[string]string{"Chromo": "chr1", "Start19": "5", "Stop19": "bad"})), 0644))
	_, err := LoadFromPath(context.Background(), path)
	var mre *interval.MalformedRowError
	require.True(t, errors.As(err, &mre))
	expect.EQ(t, mre.Path, path)
	expect.EQ(t, mre.Line, 1)
}

func TestAggregatePhenotypes(t *testing.T) {
	recs := []Record{
		{PatientID: "P1", Start: 1, End: 2, Phenotype: "Global\ndevelopmental  delay"},
		{PatientID: "P2", Start: 1, End: 2, Phenotype: "Seizures"},
		{PatientID: "P1", Start: 1, End: 2, Phenotype: "Microcephaly"},
		{PatientID: "P1", Start: 5, End: 9, Phenotype: "Global developmental delay"},
		{PatientID: "P3", Start: 1, End: 2},
	}
	got := AggregatePhenotypes(recs)
	require.Len(t, got, 4)
	expect.EQ(t, got[0].Phenotype, "Global developmental delay; Microcephaly")
	expect.EQ(t, got[1].Phenotype, "Seizures")
	expect.EQ(t, got[2].Start, interval.PosType(5))
	expect.EQ(t, got[2].Phenotype, "Global developmental delay; Microcephaly")
	expect.EQ(t, got[3].Phenotype, "")
}

func TestDecodeSex(t *testing.T) {
	tests := []struct {
		values []string
		want   Sex
		ok     bool
	}{
		{[]string{"Female", "", ""}, Female, true},
		{[]string{"", "M", "F"}, Male, true},
		{[]string{"unknown", "", "2"}, Female, true},
		{[]string{" male ", "", ""}, Male, true},
		{[]string{"", "", ""}, 0, false},
		{[]string{"U", "?", "3"}, 0, false},
	}
	for _, test := range tests {
		got, ok := DecodeSex(test.values...)
		expect.EQ(t, ok, test.ok, test.values)
		expect.EQ(t, got, test.want, test.values)
	}
}

func TestDecodeCodes(t *testing.T) {
	expect.EQ(t, DecodePathogenicity("1202218781"), UncertainSignificance)
	expect.EQ(t, DecodePathogenicity("1202218783"), LikelyPathogenic)
	expect.EQ(t, DecodePathogenicity("1202218788"), Pathogenic)
	expect.EQ(t, DecodePathogenicity("42"), PathogenicityUnspecified)
	expect.EQ(t, Pathogenic.Class(), 5)
	expect.EQ(t, UncertainSignificance.Class(), 3)
	expect.EQ(t, PathogenicityUnspecified.Class(), 0)

	expect.EQ(t, DecodeCNVType("1190384936"), CopyNumberLoss)
	expect.EQ(t, DecodeCNVType("1190384942"), MosaicGain)
	expect.EQ(t, DecodeCNVType(""), CNVUnspecified)
	expect.EQ(t, MosaicLoss.Direction(), CopyNumberLoss)
	expect.EQ(t, MosaicGain.Direction(), CopyNumberGain)
	expect.EQ(t, CNVUnspecified.Direction(), CNVUnspecified)

	expect.True(t, DecodeWholeChromosome("-1"))
	expect.True(t, DecodeWholeChromosome("TRUE"))
	expect.False(t, DecodeWholeChromosome("0"))
	expect.False(t, DecodeWholeChromosome(""))
}

func TestDecodeTissueGroup(t *testing.T) {
	tests := []struct {
		referral string
		want     TissueGroup
	}{
		{"Prenatal", Prenatal},
		{"Repeat PRENATAL sample", Prenatal},
		{"POC", POCTissue},
		{"Tissue - fetal", POCTissue},
		{"General", GeneralReferral},
		{"Gen Ref", GeneralReferral},
		{"Pseudorush", GeneralReferral},
		{"Prenatl", Prenatal},
		{"Generl referral", GeneralReferral},
		{"Oncology", TissueUnspecified},
		{"", TissueUnspecified},
	}
	for _, test := range tests {
		expect.EQ(t, DecodeTissueGroup(test.referral, 1), test.want, test.referral)
	}
	expect.EQ(t, DecodeTissueGroup("Prenatl", 0), TissueUnspecified)
}

func TestColor(t *testing.T) {
	expect.EQ(t, Color(CopyNumberLoss, Pathogenic), bedtrack.RGB{R: 255})
	expect.EQ(t, Color(CopyNumberGain, UncertainSignificance), bedtrack.RGB{R: 178, G: 178, B: 255})
	expect.EQ(t, Color(CNVUnspecified, Pathogenic), ColorUnspecified)
	expect.EQ(t, Color(MosaicGain, PathogenicityUnspecified), ColorUnspecified)
	expect.EQ(t, len(colors), 12)
}

func TestNormalizePrenatalLoss(t *testing.T) {
	n, ok := Normalize(Record{
		Chrom:     "chr1",
		Start:     100,
		End:       200,
		PatientID: "P1",
		Gender:    "Female",
		Referral:  "Prenatal",
		// Date fields are ignored outside general referrals.
		BookinDOB:  "2001-02-03",
		CopiesCode: "1190384936",
	}, DefaultOpts)
	require.True(t, ok)
	expect.EQ(t, n.Sex.String(), "Female")
	expect.EQ(t, n.TissueGroup.String(), "Prenatal")
	expect.EQ(t, n.CNVType.String(), "Copy number loss")
	expect.EQ(t, n.Age, "Age not relevant for tissue type")
	expect.EQ(t, n.Color, ColorUnspecified)
}

func TestNormalizeCNVTypeIDFallback(t *testing.T) {
	n, ok := Normalize(Record{PatientID: "P1", Gender: "M", CNVTypeID: "1190384942"}, DefaultOpts)
	require.True(t, ok)
	expect.EQ(t, n.CNVType, MosaicGain)

	n, ok = Normalize(Record{PatientID: "P1", Gender: "M", CopiesCode: "1190384936", CNVTypeID: "1190384942"}, DefaultOpts)
	require.True(t, ok)
	expect.EQ(t, n.CNVType, CopyNumberLoss)
}

func TestNormalizeDropsUnsexed(t *testing.T) {
	_, ok := Normalize(Record{PatientID: "P1", Gender: "Unknown"}, DefaultOpts)
	expect.False(t, ok)

	recs := []Record{{PatientID: "A", Sexed: "M"}, {PatientID: "B"}, {PatientID: "C", BookinSex: "2"}}
	got, dropped := NormalizeAll(recs, DefaultOpts)
	expect.EQ(t, dropped, 1)
	require.Len(t, got, 2)
	expect.EQ(t, got[1].Sex, Female)
}

func TestAge(t *testing.T) {
	general := Record{Gender: "M", Referral: "General referral"}
	tests := []struct {
		dob, bookinDOB, requested, received string
		want                                string
	}{
		{"2000-06-15", "", "2010-06-15", "", "10 years"},
		{"2000-06-15", "", "2010-06-14", "", "9 years"},
		{"", "2020-01-31", "2020-03-01 09:30:00", "", "1 months"},
		{"", "15/06/2020", "", "20/06/2020", "<1 month"},
		{"", "", "2020-01-01", "", AgeUnknown},
		{"2020-01-01", "", "not a date", "", AgeUnknown},
		{"2021-01-01", "", "2020-01-01", "", AgeUnknown},
	}
	for _, test := range tests {
		rec := general
		rec.DoB = test.dob
		rec.BookinDOB = test.bookinDOB
		rec.RequestedDate = test.requested
		rec.DateReceived = test.received
		n, ok := Normalize(rec, DefaultOpts)
		require.True(t, ok)
		expect.EQ(t, n.Age, test.want, test)
	}
}

func TestFormatAge(t *testing.T) {
	d := func(s string) time.Time {
		v, err := time.Parse("2006-01-02", s)
		assert.NoError(t, err)
		return v
	}
	expect.EQ(t, formatAge(d("2019-12-31"), d("2020-12-31")), "1 years")
	expect.EQ(t, formatAge(d("2020-01-01"), d("2020-12-31")), "11 months")
	expect.EQ(t, formatAge(d("2020-01-01"), d("2020-01-01")), "<1 month")
}

func TestDetailHTML(t *testing.T) {
	n, ok := Normalize(Record{
		Gender:         "F",
		PatientResult:  "arr[GRCh37] 1p36.33 <loss>",
		Band:           "1p36.33",
		Phenotype:      "Seizures & delay",
		PathogenicCode: "1202218788",
		Referral:       "POC",
	}, DefaultOpts)
	require.True(t, ok)
	expect.EQ(t, n.HTML, "<b>Result:</b> arr[GRCh37] 1p36.33 &lt;loss&gt;<br>"+
		"<b>Band:</b> 1p36.33<br>"+
		"<b>Phenotype:</b> Seizures &amp; delay<br>"+
		"<b>Classification:</b> Pathogenic<br>"+
		"<b>Age:</b> Age not relevant for tissue type")
}

func TestWriteNormalized(t *testing.T) {
	n, ok := Normalize(Record{
		Chrom: "chr1", Start: 100, End: 200, PatientID: "P1",
		Gender: "Female", Referral: "Prenatal", CopiesCode: "1190384936",
		PathogenicCode: "1202218788", WholeChromosome: "-1", Phenotype: "a\tb",
	}, DefaultOpts)
	require.True(t, ok)
	var buf bytes.Buffer
	assert.NoError(t, WriteNormalized(&buf, []NormalizedRecord{n}))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	expect.EQ(t, lines[0], strings.Join(normalizedHeader, "\t"))
	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, len(normalizedHeader))
	expect.EQ(t, fields[:12], []string{
		"chr1", "100", "200", "P1", "Female", "Pathogenic", "5", "Copy number loss",
		"Prenatal", "Age not relevant for tissue type", "true", "255,0,0",
	})
	expect.EQ(t, fields[14], "a b")
}

func TestNormalizeFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := filepath.Join(dir, "export.tsv")
	assert.NoError(t, os.WriteFile(in, []byte(exportHeader+
		exportRow(map[string]string{"Chromo": "chr1", "Start19": "1", "Stop19": "5", "PatientID": "P1", "Gender": "Female", "Phenotype": "A"})+
		exportRow(map[string]string{"Chromo": "chr1", "Start19": "1", "Stop19": "5", "PatientID": "P1", "Gender": "Female", "Phenotype": "B"})+
		exportRow(map[string]string{"Chromo": "chr2", "Start19": "1", "Stop19": "5", "PatientID": "P2"})), 0644))
	out := filepath.Join(dir, "normalized.tsv")
	norm, stats, err := NormalizeFile(ctx, in, out, DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, stats, Stats{Rows: 3, Calls: 2, Dropped: 1, Normalized: 1})
	require.Len(t, norm, 1)
	expect.EQ(t, norm[0].Phenotype, "A; B")
	data, err := os.ReadFile(out)
	assert.NoError(t, err)
	expect.EQ(t, strings.Count(string(data), "\n"), 2)
}
