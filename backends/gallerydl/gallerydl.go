// Package gallerydl implements the gallery backend, wrapping the gallery-dl
// executable for image hosting and gallery sites.
package gallerydl

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/yaq1n0/godownloader"
	"github.com/yaq1n0/godownloader/internal/command"
)

const tool = "gallery-dl"

var hosts = []string{
	"reddit.com", "imgur.com", "deviantart.com", "artstation.com",
	"pixiv.net", "danbooru.donmai.us", "gelbooru.com",
}

// Runner is the slice of internal/command that this backend needs.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*command.Result, error)
}

type Backend struct {
	run Runner
	log *zap.SugaredLogger
}

func New(run Runner, logger *zap.Logger) *Backend {
	return &Backend{run: run, log: logger.Sugar().Named(tool)}
}

func (b *Backend) Name() string {
	return "gallerydl"
}

func (b *Backend) Hosts() []string {
	return hosts
}

func (b *Backend) Match(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	for _, h := range hosts {
		if strings.Contains(host, h) {
			return true
		}
	}
	return false
}

// Execute runs gallery-dl into workdir. The tool manages its own file naming
// and can produce a large, variable set of files, so there is no output
// parsing: success is the exit code, and the artifact is the working
// directory itself for the caller to enumerate.
func (b *Backend) Execute(ctx context.Context, rawURL, workdir string) ([]string, error) {
	res, err := b.run.Run(ctx, tool, "--destination", workdir, rawURL)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &godownloader.ExecError{Tool: tool, ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
	}
	return []string{workdir}, nil
}
