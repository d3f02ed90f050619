package liftover

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"v.io/x/lib/envvar"
	"v.io/x/lib/lookpath"
)

// Pipeline stages, as reported by CollaboratorFailure.
const (
	StageExport = "export"
	StageLift   = "liftover"
	StageRead   = "read-response"
	StageRejoin = "rejoin"
	StageWrite  = "write-tracks"
)

// CollaboratorFailure reports a failed pipeline stage: the external
// liftOver process erred or its output could not be used.
type CollaboratorFailure struct {
	Stage string
	Err   error
}

func (e *CollaboratorFailure) Error() string {
	return fmt.Sprintf("liftover: %s stage failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *CollaboratorFailure) Unwrap() error {
	return e.Err
}

// Request names the files of one liftOver invocation.
type Request struct {
	InPath       string
	ChainPath    string
	MappedPath   string
	UnmappedPath string
}

// Runner remaps the records of req.InPath, writing req.MappedPath and
// req.UnmappedPath.
type Runner interface {
	Lift(ctx context.Context, req Request) error
}

// ExecRunner runs the UCSC liftOver binary:
//
//   liftOver [-minMatch=m] in chain mapped unmapped
type ExecRunner struct {
	// Binary is the executable name, resolved through PATH, or a path.
	Binary string
	// MinMatch is passed as -minMatch when positive.
	MinMatch float64
	// Env is the environment of the child process; nil means the current
	// process environment.
	Env map[string]string
}

// Lift implements Runner.
func (r ExecRunner) Lift(ctx context.Context, req Request) error {
	env := r.Env
	if env == nil {
		env = envvar.SliceToMap(os.Environ())
	}
	bin, err := lookpath.Look(env, r.Binary)
	if err != nil {
		return &CollaboratorFailure{Stage: StageLift, Err: err}
	}
	var args []string
	if r.MinMatch > 0 {
		args = append(args, "-minMatch="+strconv.FormatFloat(r.MinMatch, 'g', -1, 64))
	}
	args = append(args, req.InPath, req.ChainPath, req.MappedPath, req.UnmappedPath)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = envvar.MapToSlice(env)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	log.Debug.Printf("liftover: running %s %s", bin, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return &CollaboratorFailure{Stage: StageLift, Err: fmt.Errorf("%s: %v: %s", bin, err, strings.TrimSpace(stderr.String()))}
	}
	for _, path := range []string{req.MappedPath, req.UnmappedPath} {
		if _, err := os.Stat(path); err != nil {
			return &CollaboratorFailure{Stage: StageLift, Err: fmt.Errorf("%s produced no output: %v", bin, err)}
		}
	}
	return nil
}
