package util

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yaq1n0/godownloader/generic"
)

var (
	ErrNoFilename = errors.New("cannot extract valid filename")
	ErrEmptyURL   = errors.New("URL cannot be empty")
)

var downloadableSchemes = generic.NewSet("http", "https")

// ValidateURL parses s and checks that it is an absolute http(s) URL with a
// non-empty host. Everything that reaches a backend has passed this check.
func ValidateURL(s string) (*url.URL, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !downloadableSchemes.Contains(u.Scheme) {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("URL has no host")
	}
	return u, nil
}

// FilenameFromURL extracts the final path element of a URL as a filename, or
// ErrNoFilename if the path has nothing usable.
func FilenameFromURL(u *url.URL) (string, error) {
	if u == nil {
		return "", ErrNoFilename
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return "", ErrNoFilename
	}
	elements := strings.Split(path, "/")
	filename := elements[len(elements)-1]
	// Reject "filenames" that are just ".", "..", etc.
	if filename == "" || strings.ReplaceAll(filename, ".", "") == "" {
		return "", ErrNoFilename
	}
	return filename, nil
}
