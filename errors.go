package godownloader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidURL rejects a request before any backend is consulted.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrNoBackend means the URL parsed fine but no registered backend accepts it.
	ErrNoBackend = errors.New("unsupported URL")
	// ErrToolUnavailable means none of a backend's external executables are
	// installed. This is a deployment problem, not a content problem.
	ErrToolUnavailable = errors.New("no transfer tool available")
	// ErrNoArtifact means the external tool exited zero but nothing retrievable
	// was found afterwards.
	ErrNoArtifact = errors.New("download completed but no file was produced")
)

// An ExecError is an external tool that ran and exited non-zero. Stderr holds
// the full captured diagnostic stream.
type ExecError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ExecError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return fmt.Sprintf("%s failed (exit %d): %s", e.Tool, e.ExitCode, msg)
	}
	return fmt.Sprintf("%s failed (exit %d)", e.Tool, e.ExitCode)
}
