// Package workspace provides per-download temporary directories.
package workspace

import (
	"fmt"
	"os"
	"sync"
)

// A Workspace is a temporary directory owned exclusively by a single download
// attempt. It is never shared between concurrent requests and is deleted
// exactly once, whichever exit path gets there first.
type Workspace struct {
	path    string
	cleanup sync.Once
}

func New() (*Workspace, error) {
	path, err := os.MkdirTemp("", "godownloader-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &Workspace{path: path}, nil
}

func (w *Workspace) Path() string {
	return w.path
}

// Exists reports whether the workspace directory is still on disk.
func (w *Workspace) Exists() bool {
	_, err := os.Stat(w.path)
	return err == nil
}

// Cleanup recursively deletes the workspace. Safe to call any number of
// times; only the first call deletes.
func (w *Workspace) Cleanup() error {
	var err error
	w.cleanup.Do(func() {
		err = os.RemoveAll(w.path)
	})
	return err
}
