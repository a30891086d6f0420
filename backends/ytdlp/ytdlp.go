// Package ytdlp implements the media backend, wrapping the yt-dlp executable
// for video and streaming sites.
package ytdlp

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yaq1n0/godownloader"
	"github.com/yaq1n0/godownloader/generic"
	"github.com/yaq1n0/godownloader/internal/artifact"
	"github.com/yaq1n0/godownloader/internal/command"
)

const tool = "yt-dlp"

const (
	// formatDefault prefers a merged audio+video stream but degrades
	// gracefully when the site offers nothing combined.
	formatDefault  = "best/bestvideo+bestaudio/best"
	formatFallback = "best"
)

// noFormatMarker in the diagnostic stream triggers the single
// format-renegotiation retry with formatFallback. The retry is not recursive;
// a second failure is final.
const noFormatMarker = "Requested format is not available"

// Sites yt-dlp handles better than a direct fetch.
var hosts = []string{
	"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com",
	"twitch.tv", "tiktok.com", "instagram.com", "twitter.com", "x.com",
}

// Container formats the directory-scan fallback accepts.
var mediaExtensions = generic.NewSet(".mp4", ".mkv", ".webm", ".avi", ".mov", ".flv", ".m4v")

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
	return "ytdlp"
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

// Execute runs yt-dlp into workdir and extracts the produced files from its
// JSON-lines output, falling back to scanning workdir for known media
// containers. A zero exit with no discoverable artifact is a failure: the
// contract is a retrievable file, not a happy exit code.
func (b *Backend) Execute(ctx context.Context, rawURL, workdir string) ([]string, error) {
	res, err := b.run.Run(ctx, tool, args(formatDefault, true, workdir, rawURL)...)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		stderr := string(res.Stderr)
		if !strings.Contains(stderr, noFormatMarker) {
			return nil, &godownloader.ExecError{Tool: tool, ExitCode: res.ExitCode, Stderr: stderr}
		}
		b.log.Infof("requested format unavailable, retrying with %q", formatFallback)
		res, err = b.run.Run(ctx, tool, args(formatFallback, false, workdir, rawURL)...)
		if err != nil {
			return nil, err
		}
		if res.ExitCode != 0 {
			return nil, &godownloader.ExecError{Tool: tool, ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
		}
	}

	paths := artifact.ParseJSONLines(res.Stdout, workdir)
	if len(paths) == 0 {
		b.log.Infof("no artifacts in JSON output, scanning %s", workdir)
		if scanned := artifact.ScanDir(workdir, mediaExtensions); len(scanned) > 0 {
			paths = scanned[:1]
		}
	}
	if len(paths) == 0 {
		return nil, godownloader.ErrNoArtifact
	}
	return paths, nil
}

func args(format string, merge bool, workdir, rawURL string) []string {
	argv := []string{
		"--no-playlist",
		"--format", format,
		"--output", filepath.Join(workdir, "%(title)s.%(ext)s"),
		"--print-json",
		"--no-write-info-json",
		"--no-write-thumbnail",
		"--no-write-description",
	}
	if merge {
		argv = append(argv, "--merge-output-format", "mp4")
	}
	return append(argv, "--ignore-errors", rawURL)
}
