// Package command runs the external download tools, capturing both output
// streams in full so backends can parse them.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound means the executable is not installed on this host. Backends
// treat this as a recoverable condition, distinct from the tool running and
// failing.
var ErrNotFound = errors.New("executable not found")

// A Result is everything a backend needs to interpret a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// A Runner spawns external processes. The zero value is not usable; construct
// with NewRunner.
type Runner struct {
	log *zap.SugaredLogger
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{log: logger.Sugar().Named("command")}
}

// Run executes name with args, blocking until the process exits. A missing
// executable returns ErrNotFound. A non-zero exit is not an error at this
// level: the Result carries the exit code and captured streams, and the
// backend decides what it means.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Infof("running: %s %s", name, strings.Join(args, " "))
	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			r.log.Warnf("%s exited with code %d", name, res.ExitCode)
			return res, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return res, nil
}
