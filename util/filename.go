package util

import (
	"path/filepath"

	"github.com/flytam/filenamify"
)

// SanitizeFilename makes a caller-supplied name safe to create inside the
// download directory: path components are stripped and characters the
// filesystem would reject are replaced.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	safe, err := filenamify.Filenamify(name, filenamify.Options{Replacement: "_"})
	if err != nil || safe == "" || safe == "." {
		return "download"
	}
	return safe
}
