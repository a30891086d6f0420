package util

import (
	"net/url"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	assert := assert_.New(t)

	u, err := ValidateURL("https://example.com/a.bin")
	assert.NoError(err)
	assert.Equal("example.com", u.Host)

	u, err = ValidateURL("http://youtube.com/watch?v=abc")
	assert.NoError(err)
	assert.Equal("youtube.com", u.Host)

	for _, bad := range []string{
		"",
		"   ",
		"not a url",
		"ftp://example.com/a.bin",
		"example.com/a.bin",
		"https://",
		"/relative/path",
	} {
		_, err := ValidateURL(bad)
		assert.Error(err, "expected %q to be rejected", bad)
	}
}

func TestFilenameFromURL(t *testing.T) {
	assert := assert_.New(t)

	cases := map[string]string{
		"https://example.com/video.mp4":      "video.mp4",
		"https://example.com/a/b/c.webm":     "c.webm",
		"https://example.com/a/b/c.webm/":    "c.webm",
		"https://example.com/noextension":    "noextension",
		"https://example.com/dir/file.x?y=1": "file.x",
	}
	for rawURL, want := range cases {
		u, err := url.Parse(rawURL)
		assert.NoError(err)
		got, err := FilenameFromURL(u)
		assert.NoError(err)
		assert.Equal(want, got)
	}

	for _, rawURL := range []string{
		"https://example.com",
		"https://example.com/",
		"https://example.com/..",
		"https://example.com/.",
	} {
		u, err := url.Parse(rawURL)
		assert.NoError(err)
		_, err = FilenameFromURL(u)
		assert.ErrorIs(err, ErrNoFilename)
	}

	_, err := FilenameFromURL(nil)
	assert.ErrorIs(err, ErrNoFilename)
}

func TestSanitizeFilename(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal("clip.mp4", SanitizeFilename("clip.mp4"))
	assert.Equal("clip.mp4", SanitizeFilename("../../etc/clip.mp4"))
	assert.Equal("download", SanitizeFilename(""))
	assert.Equal("download", SanitizeFilename("."))
	assert.NotContains(SanitizeFilename("a/b:c*d.mp4"), "/")
}
