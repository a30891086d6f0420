package api

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yaq1n0/godownloader"
	"github.com/yaq1n0/godownloader/internal/store"
)

// downloadResponse is the persist-mode envelope. Download failures are
// reported inside it with a 200 status: the request itself was served, the
// download is what failed.
type downloadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Filename string `json:"filename,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) saveFromPath(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromPath(r, "/save/")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.save(w, r, req)
}

func (s *Server) saveFromBody(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromBody(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.save(w, r, req)
}

// save downloads the target and moves the result into the permanent download
// directory.
func (s *Server) save(w http.ResponseWriter, r *http.Request, req downloadRequest) {
	s.mark("save")
	cfg, err := s.cfg.Get()
	if err != nil {
		s.internalError(w, err)
		return
	}
	st := store.New(cfg.DownloadDirectory, s.log.Desugar())

	d, err := s.orch.Run(r.Context(), req.URL)
	if err != nil {
		writeJSON(w, http.StatusOK, downloadResponse{
			Success: false,
			Message: "Download failed",
			Error:   err.Error(),
		})
		return
	}
	defer d.Close()

	files := d.Files()
	switch len(files) {
	case 0:
		writeJSON(w, http.StatusOK, downloadResponse{
			Success: false,
			Message: "Download failed",
			Error:   godownloader.ErrNoArtifact.Error(),
		})
	case 1:
		dest, err := st.Relocate(files[0], req.CustomFilename)
		if err != nil {
			writeJSON(w, http.StatusOK, downloadResponse{
				Success: false,
				Message: "Download completed but failed to save files",
				Error:   err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, downloadResponse{
			Success:  true,
			Message:  "Download completed",
			Filename: filepath.Base(dest),
			FilePath: dest,
		})
	default:
		moved, err := st.RelocateAll(files)
		if err != nil {
			writeJSON(w, http.StatusOK, downloadResponse{
				Success: false,
				Message: "Download completed but failed to save files",
				Error:   err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, downloadResponse{
			Success:  true,
			Message:  fmt.Sprintf("%d files downloaded", len(moved)),
			FilePath: cfg.DownloadDirectory,
		})
	}
}

func (s *Server) streamFromPath(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromPath(r, "/download/")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.stream(w, r, req)
}

func (s *Server) streamFromBody(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromBody(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.stream(w, r, req)
}

// stream downloads the target and sends the file back in the response body.
// Nothing is persisted; the workspace is reclaimed once the response is done.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, req downloadRequest) {
	s.mark("download")
	d, err := s.orch.Run(r.Context(), req.URL)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Download failed: %v", err))
		return
	}

	sess, err := godownloader.NewStreamSession(d)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "No downloadable content found")
		return
	}
	defer sess.Close()

	if req.CustomFilename != "" {
		if err := sess.Rename(req.CustomFilename); err != nil {
			s.log.Warnf("rename before streaming failed: %v", err)
		}
	}

	f, err := os.Open(sess.File())
	if err != nil {
		s.internalError(w, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", sess.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sess.Filename()))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	if _, err := io.Copy(w, f); err != nil {
		// Too late for a status code; the client most likely went away.
		s.log.Warnf("streaming %s aborted: %v", sess.Filename(), err)
	}
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	s.mark("files")
	cfg, err := s.cfg.Get()
	if err != nil {
		s.internalError(w, err)
		return
	}
	st := store.New(cfg.DownloadDirectory, s.log.Desugar())

	files, err := st.List(r.URL.Query().Get("pattern"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"files":              files,
		"count":              len(files),
		"download_directory": cfg.DownloadDirectory,
	})
}

func (s *Server) fileInfo(w http.ResponseWriter, r *http.Request) {
	s.mark("files")
	cfg, err := s.cfg.Get()
	if err != nil {
		s.internalError(w, err)
		return
	}
	st := store.New(cfg.DownloadDirectory, s.log.Desugar())

	filename := r.URL.Query().Get(":filename")
	info, err := st.Info(filename)
	switch {
	case errors.Is(err, store.ErrInvalidFilename):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("File not found: %s", filename))
	case err != nil:
		s.internalError(w, err)
	default:
		writeJSON(w, http.StatusOK, info)
	}
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	s.mark("delete")
	cfg, err := s.cfg.Get()
	if err != nil {
		s.internalError(w, err)
		return
	}
	st := store.New(cfg.DownloadDirectory, s.log.Desugar())

	filename := r.URL.Query().Get(":filename")
	switch err := st.Delete(filename); {
	case errors.Is(err, store.ErrInvalidFilename):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("File not found: %s", filename))
	case err != nil:
		s.internalError(w, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("Deleted %s", filename),
		})
	}
}

// health reports whether the service can do its job right now: configuration
// loadable, download directory present and writable.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.cfg.Get()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	st := store.New(cfg.DownloadDirectory, s.log.Desugar())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                        "ok",
		"download_directory":            cfg.DownloadDirectory,
		"download_directory_accessible": st.Check() == nil,
	})
}

// status describes the service and which sites get a specialized backend.
func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	var domains []string
	for _, b := range s.registry.Backends() {
		hosts := b.Hosts()
		if hosts == nil {
			domains = append(domains, "Any HTTP/HTTPS URL")
			continue
		}
		domains = append(domains, hosts...)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":           "godownloader",
		"supported_domains": domains,
		"endpoints": []string{
			"GET /save/{url}", "POST /save",
			"GET /download/{url}", "POST /download",
			"GET /files", "GET /files/{filename}", "DELETE /files/{filename}",
			"GET /health",
		},
	})
}
