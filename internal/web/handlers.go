package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/dumpmerge/internal/artifact"
	"github.com/JonMunkholm/dumpmerge/internal/core"
	"github.com/JonMunkholm/dumpmerge/internal/logging"
)

// multipartMemory is the part of an upload kept in memory; the rest spills
// to disk.
const multipartMemory = 32 << 20

// FormatInfo describes a registered input format.
type FormatInfo struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	Extensions []string `json:"extensions,omitempty"`
	Schemes    []string `json:"schemes,omitempty"`
}

// StoredResponse is returned by /api/normalize when store=true.
type StoredResponse struct {
	RunID    string `json:"run_id"`
	Location string `json:"location"`
	Entries  int    `json:"entries"`
	Rows     int    `json:"rows"`
	Skipped  int    `json:"skipped"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if l := s.service.Limiter(); l != nil {
		resp["runs"] = l.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	defs := s.service.ListFormats()
	infos := make([]FormatInfo, len(defs))
	for i, def := range defs {
		infos[i] = FormatInfo{
			Key:        def.Key,
			Label:      def.Label,
			Extensions: def.Extensions,
			Schemes:    def.Schemes,
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleNormalize runs one uploaded dump and returns its mapping, or stores
// the mapping and returns where it went.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if core.MaxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, core.MaxFileSize+multipartMemory)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: request body over %d bytes", core.ErrFileTooLarge, tooLarge.Limit), 0)
			return
		}
		writeError(w, r, fmt.Errorf("invalid form: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, 0)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if _, err := core.FormatFor(filename); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if core.MaxFileSize > 0 && header.Size > core.MaxFileSize {
		respondError(w, r, fmt.Errorf("%w: %s is %d bytes", core.ErrFileTooLarge, filename, header.Size), 0)
		return
	}

	store, err := strconv.ParseBool(r.FormValue("store"))
	if err != nil {
		store = false
	}
	if store && s.store == nil {
		writeError(w, r, errNoStore, http.StatusNotImplemented)
		return
	}

	path, err := spoolUpload(file, filepath.Ext(filename))
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer os.Remove(path)

	ctx := r.Context()
	logger := logging.WithFields(ctx, "source", filename)
	result, err := s.service.Run(ctx, core.RunRequest{
		Location: path,
		Label:    filename,
		Table:    r.FormValue("table"),
		Sheet:    r.FormValue("sheet"),
		Encoding: r.FormValue("encoding"),
		Reporter: core.NewLogReporter(logger),
	})
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	logger = logger.With("run_id", result.RunID)

	data, err := artifact.Encode(result.Mapping)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if !store {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Run-ID", result.RunID)
		w.Header().Set("X-Entries", strconv.Itoa(result.Mapping.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			logger.Warn("write response", "error", err)
		}
		return
	}

	name := result.RunID + "/" + filepath.Base(artifact.OutputName(filename, s.cfg.Output.Suffix))
	location, err := s.store.Put(ctx, name, data)
	if err != nil {
		respondError(w, r, fmt.Errorf("store output: %w", err), http.StatusInternalServerError)
		return
	}
	s.service.SetLocation(result.RunID, location)
	logger.Info("data has been written", "location", location)

	writeJSON(w, http.StatusOK, StoredResponse{
		RunID:    result.RunID,
		Location: location,
		Entries:  result.Mapping.Len(),
		Rows:     result.Rows,
		Skipped:  result.Skipped,
	})
}

// spoolUpload copies an upload to a temp file keeping its extension, since
// format dispatch and the SQLite and XLSX readers need a path.
func spoolUpload(src io.Reader, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "dumpmerge-*"+strings.ToLower(ext))
	if err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}
	return tmp.Name(), nil
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)
	writeJSON(w, http.StatusOK, s.service.RecentRuns(limit))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.service.GetRun(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, r, errRunNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
