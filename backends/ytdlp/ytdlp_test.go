package ytdlp

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yaq1n0/godownloader"
	"github.com/yaq1n0/godownloader/internal/command"
)

// fakeRunner replays one scripted Result per invocation and records argv.
type fakeRunner struct {
	results []*command.Result
	errs    []error
	calls   [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (*command.Result, error) {
	i := len(f.calls)
	f.calls = append(f.calls, append([]string{name}, args...))
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.results[i], nil
}

func mustParse(t *testing.T, rawURL string) *url.URL {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMatch(t *testing.T) {
	assert := assert_.New(t)
	b := New(&fakeRunner{}, zap.NewNop())

	assert.True(b.Match(mustParse(t, "https://www.youtube.com/watch?v=abc")))
	assert.True(b.Match(mustParse(t, "https://youtu.be/abc")))
	assert.True(b.Match(mustParse(t, "https://clips.twitch.tv/x")))
	assert.False(b.Match(mustParse(t, "https://example.com/file.mp4")))
	assert.False(b.Match(mustParse(t, "https://imgur.com/gallery/x")))
}

func TestExecuteParsesJSON(t *testing.T) {
	assert := assert_.New(t)
	workdir := t.TempDir()
	clip := touch(t, workdir, "clip.mp4")

	run := &fakeRunner{results: []*command.Result{
		{Stdout: []byte("warming up\n" + `{"_filename": "clip.mp4"}` + "\n")},
	}}
	b := New(run, zap.NewNop())

	paths, err := b.Execute(context.Background(), "https://youtu.be/abc", workdir)
	assert.NoError(err)
	assert.Equal([]string{clip}, paths)

	// One invocation, with the flexible format selector.
	assert.Len(run.calls, 1)
	assert.Contains(run.calls[0], formatDefault)
	assert.Contains(run.calls[0], "--merge-output-format")
}

func TestExecuteScanFallback(t *testing.T) {
	assert := assert_.New(t)
	workdir := t.TempDir()
	video := touch(t, workdir, "found.webm")
	touch(t, workdir, "notes.txt")

	run := &fakeRunner{results: []*command.Result{
		{Stdout: []byte("no json here\n")},
	}}
	b := New(run, zap.NewNop())

	paths, err := b.Execute(context.Background(), "https://youtu.be/abc", workdir)
	assert.NoError(err)
	assert.Equal([]string{video}, paths)
}

func TestExecuteNoArtifactIsSoftFailure(t *testing.T) {
	assert := assert_.New(t)
	run := &fakeRunner{results: []*command.Result{{}}}
	b := New(run, zap.NewNop())

	// Zero exit, empty output, empty workdir: still a failure.
	_, err := b.Execute(context.Background(), "https://youtu.be/abc", t.TempDir())
	assert.ErrorIs(err, godownloader.ErrNoArtifact)
}

func TestExecuteFormatRetry(t *testing.T) {
	assert := assert_.New(t)
	workdir := t.TempDir()
	clip := touch(t, workdir, "clip.mp4")

	run := &fakeRunner{results: []*command.Result{
		{ExitCode: 1, Stderr: []byte("ERROR: Requested format is not available")},
		{Stdout: []byte(`{"_filename": "clip.mp4"}`)},
	}}
	b := New(run, zap.NewNop())

	paths, err := b.Execute(context.Background(), "https://youtu.be/abc", workdir)
	assert.NoError(err)
	assert.Equal([]string{clip}, paths)

	assert.Len(run.calls, 2)
	assert.Contains(run.calls[1], formatFallback)
	assert.NotContains(strings.Join(run.calls[1], " "), "--merge-output-format")
}

func TestExecuteFormatRetryExhausted(t *testing.T) {
	assert := assert_.New(t)
	run := &fakeRunner{results: []*command.Result{
		{ExitCode: 1, Stderr: []byte("ERROR: Requested format is not available")},
		{ExitCode: 1, Stderr: []byte("ERROR: Requested format is not available")},
	}}
	b := New(run, zap.NewNop())

	// The retry is not recursive: the second failure is final.
	_, err := b.Execute(context.Background(), "https://youtu.be/abc", t.TempDir())
	var execErr *godownloader.ExecError
	assert.ErrorAs(err, &execErr)
	assert.Len(run.calls, 2)
}

func TestExecuteOtherFailureNotRetried(t *testing.T) {
	assert := assert_.New(t)
	run := &fakeRunner{results: []*command.Result{
		{ExitCode: 1, Stderr: []byte("ERROR: This video is unavailable")},
	}}
	b := New(run, zap.NewNop())

	_, err := b.Execute(context.Background(), "https://youtu.be/abc", t.TempDir())
	var execErr *godownloader.ExecError
	assert.ErrorAs(err, &execErr)
	assert.Contains(execErr.Stderr, "unavailable")
	assert.Len(run.calls, 1)
}

func TestExecuteToolMissing(t *testing.T) {
	assert := assert_.New(t)
	run := &fakeRunner{errs: []error{command.ErrNotFound}}
	b := New(run, zap.NewNop())

	_, err := b.Execute(context.Background(), "https://youtu.be/abc", t.TempDir())
	assert.ErrorIs(err, command.ErrNotFound)
}
