// Package audit records what a run read, how it was configured and what it
// wrote, so a re-run can be checked for byte-identical output.  Files are
// identified by their farmhash Fingerprint64.
package audit

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/moka-guys/snparray/config"
	"github.com/moka-guys/snparray/util"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File identifies the content of one file.
type File struct {
	Path        string `yaml:"path"`
	Size        int64  `yaml:"size"`
	Fingerprint string `yaml:"fingerprint"`
}

// Manifest describes one run.  It deliberately carries no timestamps, so
// identical runs produce identical manifests.
type Manifest struct {
	Command string            `yaml:"command"`
	Config  config.Config     `yaml:"config"`
	Inputs  []File            `yaml:"inputs"`
	Outputs []File            `yaml:"outputs"`
	Stats   map[string]int64  `yaml:"stats,omitempty"`
	Notes   map[string]string `yaml:"notes,omitempty"`
}

// New returns an empty manifest for command run with cfg.
func New(command string, cfg config.Config) *Manifest {
	return &Manifest{Command: command, Config: cfg}
}

// Fingerprint reads path and returns its identity.
func Fingerprint(ctx context.Context, path string) (fp File, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return fp, err
	}
	defer file.CloseAndReport(ctx, f, &err)
	data, err := ioutil.ReadAll(f.Reader(ctx))
	if err != nil {
		return fp, errors.Wrapf(err, "audit: read %s", path)
	}
	return File{Path: path, Size: int64(len(data)), Fingerprint: fmt.Sprintf("%016x", farm.Fingerprint64(data))}, nil
}

func fingerprintAll(ctx context.Context, paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		fp, err := Fingerprint(ctx, p)
		if err != nil {
			return nil, err
		}
		files = append(files, fp)
	}
	return files, nil
}

// AddInputs fingerprints and records input files.
func (m *Manifest) AddInputs(ctx context.Context, paths ...string) error {
	files, err := fingerprintAll(ctx, paths)
	if err != nil {
		return err
	}
	m.Inputs = append(m.Inputs, files...)
	return nil
}

// AddOutputs fingerprints and records output files.
func (m *Manifest) AddOutputs(ctx context.Context, paths ...string) error {
	files, err := fingerprintAll(ctx, paths)
	if err != nil {
		return err
	}
	m.Outputs = append(m.Outputs, files...)
	return nil
}

// SetStat records a run statistic.
func (m *Manifest) SetStat(name string, v int64) {
	if m.Stats == nil {
		m.Stats = map[string]int64{}
	}
	m.Stats[name] = v
}

// Encode writes m as YAML.
func (m *Manifest) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

// Write writes m to path atomically.
func (m *Manifest) Write(ctx context.Context, path string) error {
	if err := util.WriteFile(ctx, path, m.Encode); err != nil {
		return err
	}
	log.Debug.Printf("audit: wrote manifest %s (%d inputs, %d outputs)", path, len(m.Inputs), len(m.Outputs))
	return nil
}

// Read parses a manifest.
func Read(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil {
		return nil, errors.Wrap(err, "audit: decode manifest")
	}
	return m, nil
}

// Mismatch is a recorded file whose content changed.
type Mismatch struct {
	Want, Got File
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: fingerprint %s (%d bytes), recorded %s (%d bytes)", m.Want.Path, m.Got.Fingerprint, m.Got.Size, m.Want.Fingerprint, m.Want.Size)
}

// Verify re-fingerprints every recorded output and returns those that no
// longer match.  A missing output is an error.
func (m *Manifest) Verify(ctx context.Context) ([]Mismatch, error) {
	var out []Mismatch
	for _, want := range m.Outputs {
		got, err := Fingerprint(ctx, want.Path)
		if err != nil {
			return nil, err
		}
		if got != want {
			out = append(out, Mismatch{Want: want, Got: got})
		}
	}
	return out, nil
}
