// Package direct implements the catch-all backend for plain file URLs,
// delegating to whichever of wget or curl is installed.
package direct

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/yaq1n0/godownloader"
	"github.com/yaq1n0/godownloader/internal/command"
	"github.com/yaq1n0/godownloader/util"
)

// Runner is the slice of internal/command that this backend needs.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*command.Result, error)
}

type Backend struct {
	run Runner
	log *zap.SugaredLogger
}

func New(run Runner, logger *zap.Logger) *Backend {
	return &Backend{run: run, log: logger.Sugar().Named("direct")}
}

func (b *Backend) Name() string {
	return "direct"
}

// Hosts is nil: this backend accepts any downloadable URL and must be
// registered last.
func (b *Backend) Hosts() []string {
	return nil
}

func (b *Backend) Match(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

// Execute tries the transfer tools in fixed order; the first one that is
// installed and exits zero wins. A missing executable moves on to the next
// tool. When no tool is installed at all the failure is ErrToolUnavailable,
// an environment problem distinct from a transfer that ran and failed.
func (b *Backend) Execute(ctx context.Context, rawURL, workdir string) ([]string, error) {
	attempts := [][]string{
		{"wget", "-P", workdir, rawURL},
		{"curl", "-o", filepath.Join(workdir, outputName(rawURL)), rawURL},
	}

	var failures *multierror.Error
	anyPresent := false
	for _, argv := range attempts {
		res, err := b.run.Run(ctx, argv[0], argv[1:]...)
		if err != nil {
			if errors.Is(err, command.ErrNotFound) {
				b.log.Debugf("%s not installed, trying next tool", argv[0])
				continue
			}
			return nil, err
		}
		anyPresent = true
		if res.ExitCode == 0 {
			return []string{workdir}, nil
		}
		failures = multierror.Append(failures, &godownloader.ExecError{
			Tool:     argv[0],
			ExitCode: res.ExitCode,
			Stderr:   string(res.Stderr),
		})
	}

	if !anyPresent {
		return nil, godownloader.ErrToolUnavailable
	}
	return nil, failures.ErrorOrNil()
}

// outputName picks a name for tools that do not derive one themselves, taking
// the URL's final path element when it has a usable one.
func outputName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if name, err := util.FilenameFromURL(u); err == nil {
			return util.SanitizeFilename(name)
		}
	}
	return "downloaded_file"
}
