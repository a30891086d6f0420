package godownloader

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yaq1n0/godownloader/internal/artifact"
	"github.com/yaq1n0/godownloader/internal/workspace"
	"github.com/yaq1n0/godownloader/util"
)

// An Orchestrator runs one download end to end: validate the URL, pick a
// backend, execute it inside a fresh temporary workspace. It performs no
// retries across backends; the single format-renegotiation retry inside the
// media backend is the only retry in the system.
type Orchestrator struct {
	registry *Registry
	log      *zap.SugaredLogger
}

func NewOrchestrator(registry *Registry, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		log:      logger.Sugar().Named("orchestrator"),
	}
}

// A Download is the resolved outcome of a successful run. The caller owns the
// workspace and must Close once the artifacts have been moved or streamed.
type Download struct {
	ID        uuid.UUID
	Backend   string
	Artifacts []string
	Workspace *workspace.Workspace
}

// Files flattens Artifacts into regular files: artifact directories are
// enumerated, vanished paths are dropped, and if nothing usable remains the
// workspace itself is scanned as a last resort.
func (d *Download) Files() []string {
	var files []string
	for _, a := range d.Artifacts {
		info, err := os.Stat(a)
		if err != nil {
			continue
		}
		if info.IsDir() {
			files = append(files, artifact.ListFiles(a)...)
		} else {
			files = append(files, a)
		}
	}
	if len(files) == 0 {
		files = artifact.ListFiles(d.Workspace.Path())
	}
	return files
}

// Close deletes the download's workspace.
func (d *Download) Close() error {
	return d.Workspace.Cleanup()
}

// Run executes a download attempt for rawURL. The URL is validated before any
// backend is consulted and before anything touches the filesystem. On failure
// no workspace is left behind.
//
// The backend's external process is waited on for as long as it takes; there
// is deliberately no timeout here, so a hung tool hangs the request.
func (o *Orchestrator) Run(ctx context.Context, rawURL string) (*Download, error) {
	u, err := util.ValidateURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	backend, err := o.registry.Select(u)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	id := uuid.New()
	log := o.log.With("id", id.String(), "backend", backend.Name())
	log.Infof("downloading %s", rawURL)

	artifacts, err := backend.Execute(ctx, rawURL, ws.Path())
	if err != nil {
		log.Warnf("download failed: %v", err)
		if cleanupErr := ws.Cleanup(); cleanupErr != nil {
			log.Errorf("failed to clean up workspace %s: %v", ws.Path(), cleanupErr)
		}
		return nil, err
	}
	log.Infof("download finished with %d artifact(s)", len(artifacts))

	return &Download{
		ID:        id,
		Backend:   backend.Name(),
		Artifacts: artifacts,
		Workspace: ws,
	}, nil
}
