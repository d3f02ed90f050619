// Package config holds the run parameters shared by the snparray
// subcommands.  Values come from built-in defaults, then an optional YAML
// file, then command-line flags, and are validated once before a run.
package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"gopkg.in/yaml.v3"
)

// Config is the complete run configuration.
type Config struct {
	// Window is the probe-window size used by the resolution engine.
	Window int `yaml:"window" validate:"gte=1"`
	// MinProbeDistance is the rank distance, in probes, a mask candidate must
	// keep from the nearest coding region.
	MinProbeDistance int `yaml:"min-probe-distance" validate:"gte=1"`
	// Assembly names the build written to the overlap-map track header.
	Assembly string `yaml:"assembly" validate:"required"`
	// AnnotationHeaderLines is the number of leading lines skipped in the
	// gene annotation (AED) file.
	AnnotationHeaderLines int `yaml:"annotation-header-lines" validate:"gte=0"`
	// OneBasedInput converts 1-based closed probe coordinates on load.
	OneBasedInput bool `yaml:"one-based-input"`

	LiftOver LiftOver `yaml:"liftover"`
}

// LiftOver configures the external coordinate-remapping step.
type LiftOver struct {
	// Binary is the liftOver executable name or path.
	Binary string `yaml:"binary" validate:"required"`
	// Chain is the chain file passed to the binary.
	Chain string `yaml:"chain"`
	// MinMatch is passed as -minMatch when positive.
	MinMatch float64 `yaml:"min-match" validate:"gte=0,lte=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window:                2,
		MinProbeDistance:      50,
		Assembly:              "hg38",
		AnnotationHeaderLines: 11,
		LiftOver: LiftOver{
			Binary: "liftOver",
		},
	}
}

var validate = validator.New()

// Validate checks every field constraint.  The returned error lists each
// failing field by its YAML name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.E(errors.Invalid, "config", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s, got %v", yamlName(fe.Namespace()), fe.Tag(), fe.Param(), fe.Value()))
	}
	return errors.E(errors.Invalid, "config: "+strings.Join(msgs, "; "))
}

// yamlName maps a validator namespace such as Config.LiftOver.MinMatch to
// the YAML key path liftover.min-match.
func yamlName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}
	for i, p := range parts {
		if name, ok := yamlNames[p]; ok {
			parts[i] = name
		}
	}
	return strings.Join(parts, ".")
}

var yamlNames = map[string]string{
	"Window":                "window",
	"MinProbeDistance":      "min-probe-distance",
	"Assembly":              "assembly",
	"AnnotationHeaderLines": "annotation-header-lines",
	"LiftOver":              "liftover",
	"Binary":                "binary",
	"MinMatch":              "min-match",
}

// Decode overlays the YAML document in r onto c.  Unknown keys are
// rejected.  c is not validated.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return errors.E(errors.Invalid, "config: decode", err)
	}
	return nil
}

// Load returns Default() overlaid with the YAML file at path.  The result
// is not validated, since flags may still override it.
func Load(ctx context.Context, path string) (cfg Config, err error) {
	cfg = Default()
	f, err := file.Open(ctx, path)
	if err != nil {
		return cfg, err
	}
	defer file.CloseAndReport(ctx, f, &err)
	data, err := ioutil.ReadAll(f.Reader(ctx))
	if err != nil {
		return cfg, err
	}
	if err = cfg.Decode(bytes.NewReader(data)); err != nil {
		return cfg, errors.E(path, err)
	}
	return cfg, nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
