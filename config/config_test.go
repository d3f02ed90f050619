package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		edit func(*Config)
		want string
	}{
		{func(c *Config) { c.Window = 0 }, "window"},
		{func(c *Config) { c.MinProbeDistance = -3 }, "min-probe-distance"},
		{func(c *Config) { c.Assembly = "" }, "assembly"},
		{func(c *Config) { c.LiftOver.MinMatch = 1.5 }, "liftover.min-match"},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.edit(&cfg)
		err := cfg.Validate()
		require.Error(t, err)
		expect.HasSubstr(t, err.Error(), tt.want)
	}
}

func TestDecode(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Decode(strings.NewReader(`
window: 5
min-probe-distance: 20
liftover:
  chain: hg19ToHg38.over.chain.gz
`)))
	expect.EQ(t, cfg.Window, 5)
	expect.EQ(t, cfg.MinProbeDistance, 20)
	expect.EQ(t, cfg.LiftOver.Chain, "hg19ToHg38.over.chain.gz")
	// Keys absent from the document keep their defaults.
	expect.EQ(t, cfg.LiftOver.Binary, "liftOver")
	expect.EQ(t, cfg.AnnotationHeaderLines, 11)

	err := cfg.Decode(strings.NewReader("windw: 3\n"))
	require.Error(t, err)

	empty := Default()
	assert.NoError(t, empty.Decode(strings.NewReader("")))
	expect.EQ(t, empty, Default())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snparray.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("window: 0\nassembly: hg19\n"), 0644))
	cfg, err := Load(context.Background(), path)
	assert.NoError(t, err)
	expect.EQ(t, cfg.Assembly, "hg19")
	require.Error(t, cfg.Validate())

	data, err := cfg.Marshal()
	assert.NoError(t, err)
	expect.HasSubstr(t, string(data), "assembly: hg19")

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
