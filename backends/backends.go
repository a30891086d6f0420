// Package backends assembles the standard backend registry.
package backends

import (
	"go.uber.org/zap"

	"github.com/yaq1n0/godownloader"
	"github.com/yaq1n0/godownloader/backends/direct"
	"github.com/yaq1n0/godownloader/backends/gallerydl"
	"github.com/yaq1n0/godownloader/backends/ytdlp"
	"github.com/yaq1n0/godownloader/internal/command"
)

// NewRegistry returns a registry with the standard backends ordered
// most-specific to least-specific: media sites, then gallery sites, then the
// generic http(s) fallback.
func NewRegistry(run *command.Runner, logger *zap.Logger) *godownloader.Registry {
	r := &godownloader.Registry{}
	r.MustAdd(ytdlp.New(run, logger), godownloader.PriorityHighest)
	r.MustAdd(gallerydl.New(run, logger), godownloader.PriorityDefault)
	r.MustAdd(direct.New(run, logger), godownloader.PriorityLowest)
	return r
}
