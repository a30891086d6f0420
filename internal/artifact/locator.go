// Package artifact locates downloaded files, first by parsing tool output and
// then by scanning the working directory. All backends share this one
// extraction algorithm; they differ only in what "the output" and "candidate
// extensions" mean.
package artifact

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yaq1n0/godownloader/generic"
)

// yt-dlp JSON records routinely exceed bufio's default line limit.
const maxOutputLine = 4 * 1024 * 1024

// ParseJSONLines extracts artifact paths from JSON-lines process output. Each
// line is parsed independently and a line that is not a JSON object is
// skipped, not fatal. Within a record, per-file paths in the
// "requested_downloads" list take precedence over the top-level "_filename"
// field. Relative paths are resolved against workdir, and only paths that
// exist on disk are returned.
func ParseJSONLines(output []byte, workdir string) []string {
	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), maxOutputLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}
		var record map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			continue
		}
		if raw, ok := record["requested_downloads"]; ok {
			var downloads []struct {
				Filepath string `json:"filepath"`
			}
			if err := json.Unmarshal(raw, &downloads); err != nil {
				continue
			}
			for _, d := range downloads {
				if p, ok := resolve(workdir, d.Filepath); ok {
					paths = append(paths, p)
				}
			}
		} else if raw, ok := record["_filename"]; ok {
			var filename string
			if err := json.Unmarshal(raw, &filename); err != nil {
				continue
			}
			if p, ok := resolve(workdir, filename); ok {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// ScanDir returns the regular files in dir whose (lowercased) extension is in
// exts, sorted by name.
func ScanDir(dir string, exts generic.Set[string]) []string {
	var paths []string
	for _, p := range ListFiles(dir) {
		if exts.Contains(strings.ToLower(filepath.Ext(p))) {
			paths = append(paths, p)
		}
	}
	return paths
}

// ListFiles returns the absolute paths of all regular files directly inside
// dir, sorted by name. A missing or unreadable directory yields nil.
func ListFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if p, ok := resolve(dir, entry.Name()); ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// resolve makes path absolute relative to workdir and checks it refers to an
// existing file.
func resolve(workdir, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(workdir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
