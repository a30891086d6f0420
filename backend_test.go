package godownloader

import (
	"context"
	"net/url"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

// stubBackend matches URLs whose host contains any of its hosts, or everything
// when hosts is nil.
type stubBackend struct {
	name     string
	hosts    []string
	executed int
	result   []string
	err      error
}

func (b *stubBackend) Name() string    { return b.name }
func (b *stubBackend) Hosts() []string { return b.hosts }

func (b *stubBackend) Match(u *url.URL) bool {
	if b.hosts == nil {
		return true
	}
	for _, h := range b.hosts {
		if u.Host == h {
			return true
		}
	}
	return false
}

func (b *stubBackend) Execute(context.Context, string, string) ([]string, error) {
	b.executed++
	return b.result, b.err
}

func mustParse(t *testing.T, rawURL string) *url.URL {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestRegistryAdd(t *testing.T) {
	assert := assert_.New(t)
	r := &Registry{}

	assert.NoError(r.Add(&stubBackend{name: "a"}, PriorityDefault))
	assert.ErrorIs(r.Add(&stubBackend{name: "a"}, PriorityDefault), ErrDuplicateBackend)
	assert.ErrorIs(r.Add(&stubBackend{name: ""}, PriorityDefault), ErrInvalidBackend)
	assert.ErrorIs(r.Add(nil, PriorityDefault), ErrInvalidBackend)
}

func TestRegistryOrder(t *testing.T) {
	assert := assert_.New(t)
	r := &Registry{}
	r.MustAdd(&stubBackend{name: "fallback"}, PriorityLowest)
	r.MustAdd(&stubBackend{name: "media", hosts: []string{"youtube.com"}}, PriorityHighest)
	r.MustAdd(&stubBackend{name: "gallery", hosts: []string{"imgur.com"}}, PriorityDefault)

	// Ordered by priority regardless of registration order.
	assert.Equal([]string{"media", "gallery", "fallback"}, r.List())
}

func TestRegistrySelectFirstMatchWins(t *testing.T) {
	assert := assert_.New(t)
	r := &Registry{}
	media := &stubBackend{name: "media", hosts: []string{"youtube.com"}}
	catchall := &stubBackend{name: "fallback"}
	r.MustAdd(media, PriorityHighest)
	r.MustAdd(catchall, PriorityLowest)

	b, err := r.Select(mustParse(t, "https://youtube.com/watch?v=abc"))
	assert.NoError(err)
	assert.Equal("media", b.Name())

	b, err = r.Select(mustParse(t, "https://example.com/file.zip"))
	assert.NoError(err)
	assert.Equal("fallback", b.Name())
}

func TestRegistrySelectDeterministic(t *testing.T) {
	assert := assert_.New(t)
	r := &Registry{}
	r.MustAdd(&stubBackend{name: "first", hosts: []string{"both.example"}}, PriorityDefault)
	r.MustAdd(&stubBackend{name: "second", hosts: []string{"both.example"}}, PriorityDefault)

	// Equal priority: registration order breaks the tie, every time.
	u := mustParse(t, "https://both.example/x")
	for i := 0; i < 10; i++ {
		b, err := r.Select(u)
		assert.NoError(err)
		assert.Equal("first", b.Name())
	}
}

func TestRegistrySelectNoMatch(t *testing.T) {
	assert := assert_.New(t)
	r := &Registry{}
	r.MustAdd(&stubBackend{name: "media", hosts: []string{"youtube.com"}}, PriorityDefault)

	_, err := r.Select(mustParse(t, "https://example.com/x"))
	assert.ErrorIs(err, ErrNoBackend)
	assert.Contains(err.Error(), "example.com")
}

func TestExecErrorMessage(t *testing.T) {
	assert := assert_.New(t)

	err := &ExecError{Tool: "wget", ExitCode: 8, Stderr: "server error\n"}
	assert.Equal("wget failed (exit 8): server error", err.Error())

	err = &ExecError{Tool: "curl", ExitCode: 22}
	assert.Equal("curl failed (exit 22)", err.Error())
}
