// Package store manages the permanent download directory. The directory
// itself is the only persisted state: every query is recomputed from the
// filesystem, and nothing is ever indexed elsewhere.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yaq1n0/godownloader/util"
)

// How many files a batch relocation moves at once.
const relocateConcurrency = 4

// ErrInvalidFilename rejects names that are not plain file names, e.g.
// attempts to reach outside the download directory.
var ErrInvalidFilename = errors.New("invalid filename")

// A ManagedFile is a read-only projection over one file in the download
// directory, recomputed on every query.
type ManagedFile struct {
	Filename     string    `json:"filename"`
	FullPath     string    `json:"full_path"`
	SizeBytes    uint64    `json:"size_bytes"`
	CreatedTime  time.Time `json:"created_time"`
	ModifiedTime time.Time `json:"modified_time"`
}

// A Store owns one download directory. Concurrent use is safe: names are
// claimed with exclusive creates, so two stores (or two processes) pointed at
// the same directory never overwrite each other.
type Store struct {
	dir string
	log *zap.SugaredLogger
}

func New(dir string, logger *zap.Logger) *Store {
	return &Store{dir: dir, log: logger.Sugar().Named("store")}
}

func (s *Store) Dir() string {
	return s.dir
}

// Relocate moves source into the download directory under preferred (or its
// own base name), resolving collisions with _1, _2, ... suffixes before the
// extension. It never overwrites an existing file and fails if source does
// not exist.
//
// The claimed destination is taken over with a rename when source lives on
// the same filesystem; a byte copy is the fallback for cross-device moves.
func (s *Store) Relocate(source, preferred string) (string, error) {
	if _, err := os.Stat(source); err != nil {
		return "", fmt.Errorf("source file does not exist: %w", err)
	}
	name := filepath.Base(source)
	if preferred != "" {
		name = util.SanitizeFilename(preferred)
	}
	f, dest, err := s.Create(name)
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", err
	}

	// Renaming onto dest is safe: the exclusive create claimed it, so the
	// only file being replaced is our own empty placeholder.
	if err := os.Rename(source, dest); err == nil {
		s.log.Infof("relocated %s -> %s", source, dest)
		return dest, nil
	}

	f, err = os.OpenFile(dest, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to reopen %s: %w", dest, err)
	}
	if err := copyInto(f, source); err != nil {
		f.Close()
		os.Remove(dest)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Remove(source); err != nil {
		s.log.Warnf("failed to remove relocated source %s: %v", source, err)
	}
	s.log.Infof("relocated %s -> %s", source, dest)
	return dest, nil
}

// RelocateAll moves a batch of files into the download directory, a few at a
// time. Failures are aggregated per file; the returned paths are the files
// that did move, even when the batch partially fails.
func (s *Store) RelocateAll(sources []string) ([]string, error) {
	moved := make([]string, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(relocateConcurrency)
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			dest, err := s.Relocate(source, "")
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", filepath.Base(source), err)
				return nil
			}
			moved[i] = dest
			return nil
		})
	}
	_ = g.Wait()

	var result *multierror.Error
	var ok []string
	for i := range sources {
		if errs[i] != nil {
			result = multierror.Append(result, errs[i])
		} else {
			ok = append(ok, moved[i])
		}
	}
	return ok, result.ErrorOrNil()
}

// Create claims an unused name in the download directory and opens it for
// writing. The exclusive create is the collision check: if the name is taken,
// _1, _2, ... variants are tried until one succeeds. The final path is
// returned alongside the open file.
func (s *Store) Create(name string) (*os.File, string, error) {
	if err := os.MkdirAll(s.dir, 0775); err != nil {
		return nil, "", fmt.Errorf("failed to create download directory: %w", err)
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		dest := filepath.Join(s.dir, candidate)
		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, dest, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("failed to create %s: %w", dest, err)
		}
	}
}

// List returns metadata for the files in the download directory matching the
// glob pattern, sorted by name. A missing directory is an empty listing, not
// an error.
func (s *Store) List(pattern string) ([]ManagedFile, error) {
	if pattern == "" {
		pattern = "*"
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	files := make([]ManagedFile, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, projection(match, info))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}

// Info returns metadata for one named file, or fs.ErrNotExist.
func (s *Store) Info(filename string) (*ManagedFile, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	file := projection(path, info)
	return &file, nil
}

// Delete removes one named file from the download directory.
func (s *Store) Delete(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	s.log.Infof("deleted %s", path)
	return nil
}

// Check reports whether the download directory exists and is writable, by
// actually writing to it.
func (s *Store) Check() error {
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("download directory not accessible: %w", err)
	}
	probe, err := os.CreateTemp(s.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("download directory not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// resolve maps a client-supplied filename to a path inside the download
// directory, rejecting anything that is not a plain file name.
func (s *Store) resolve(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return filepath.Join(s.dir, filename), nil
}

func projection(path string, info os.FileInfo) ManagedFile {
	// Birth time is not portable; modification time stands in for both.
	return ManagedFile{
		Filename:     info.Name(),
		FullPath:     path,
		SizeBytes:    uint64(info.Size()),
		CreatedTime:  info.ModTime(),
		ModifiedTime: info.ModTime(),
	}
}

func copyInto(dst *os.File, source string) error {
	src, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", source, err)
	}
	defer src.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy %s: %w", source, err)
	}
	return nil
}
