package gallerydl

import (
	"context"
	"net/url"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yaq1n0/godownloader"
	"github.com/yaq1n0/godownloader/internal/command"
)

type fakeRunner struct {
	result *command.Result
	err    error
	calls  [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (*command.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.result, f.err
}

func mustParse(t *testing.T, rawURL string) *url.URL {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestMatch(t *testing.T) {
	assert := assert_.New(t)
	b := New(&fakeRunner{}, zap.NewNop())

	assert.True(b.Match(mustParse(t, "https://www.reddit.com/r/pics/comments/x")))
	assert.True(b.Match(mustParse(t, "https://imgur.com/gallery/abc")))
	assert.False(b.Match(mustParse(t, "https://youtube.com/watch?v=abc")))
	assert.False(b.Match(mustParse(t, "https://example.com/a.jpg")))
}

func TestExecuteSuccessYieldsWorkdir(t *testing.T) {
	assert := assert_.New(t)
	workdir := t.TempDir()
	run := &fakeRunner{result: &command.Result{}}
	b := New(run, zap.NewNop())

	paths, err := b.Execute(context.Background(), "https://imgur.com/gallery/abc", workdir)
	assert.NoError(err)
	assert.Equal([]string{workdir}, paths)

	assert.Len(run.calls, 1)
	assert.Equal([]string{tool, "--destination", workdir, "https://imgur.com/gallery/abc"}, run.calls[0])
}

func TestExecuteNonZeroExit(t *testing.T) {
	assert := assert_.New(t)
	run := &fakeRunner{result: &command.Result{ExitCode: 4, Stderr: []byte("error: 404")}}
	b := New(run, zap.NewNop())

	_, err := b.Execute(context.Background(), "https://imgur.com/gallery/abc", t.TempDir())
	var execErr *godownloader.ExecError
	assert.ErrorAs(err, &execErr)
	assert.Equal(tool, execErr.Tool)
	assert.Equal(4, execErr.ExitCode)
}

func TestExecuteToolMissing(t *testing.T) {
	assert := assert_.New(t)
	run := &fakeRunner{err: command.ErrNotFound}
	b := New(run, zap.NewNop())

	_, err := b.Execute(context.Background(), "https://imgur.com/gallery/abc", t.TempDir())
	assert.ErrorIs(err, command.ErrNotFound)
}
