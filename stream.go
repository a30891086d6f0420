package godownloader

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/yaq1n0/godownloader/util"
)

// A StreamSession hands a single downloaded file to the transport layer. It
// owns the download's workspace for the lifetime of the response: Close must
// run after transmission on every exit path, and the underlying workspace
// deletes itself at most once no matter how many paths reach it.
type StreamSession struct {
	download *Download
	file     string
}

// NewStreamSession picks the file to stream (the first discovered file when
// there are several). If the download produced nothing streamable the
// workspace is deleted immediately and ErrNoArtifact is returned, before any
// transport is attempted.
func NewStreamSession(d *Download) (*StreamSession, error) {
	files := d.Files()
	if len(files) == 0 {
		if err := d.Close(); err != nil {
			return nil, fmt.Errorf("%w (workspace cleanup also failed: %v)", ErrNoArtifact, err)
		}
		return nil, ErrNoArtifact
	}
	return &StreamSession{download: d, file: files[0]}, nil
}

// File is the absolute path of the file to transmit.
func (s *StreamSession) File() string {
	return s.file
}

// Filename is the name to advertise to the client.
func (s *StreamSession) Filename() string {
	return filepath.Base(s.file)
}

// ContentType infers a media type from the file extension.
func (s *StreamSession) ContentType() string {
	if t := mime.TypeByExtension(filepath.Ext(s.file)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Rename gives the file a caller-supplied name before transmission, keeping
// the downloaded extension when the new name has none. An empty name is a
// no-op.
func (s *StreamSession) Rename(name string) error {
	if name == "" {
		return nil
	}
	name = util.SanitizeFilename(name)
	if filepath.Ext(name) == "" {
		name += filepath.Ext(s.file)
	}
	renamed := filepath.Join(filepath.Dir(s.file), name)
	if renamed == s.file {
		return nil
	}
	if err := os.Rename(s.file, renamed); err != nil {
		return fmt.Errorf("failed to rename streamed file: %w", err)
	}
	s.file = renamed
	return nil
}

// Close deletes the workspace and everything in it, including the streamed
// file.
func (s *StreamSession) Close() error {
	return s.download.Close()
}
