package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/carupload/internal/core"
	"github.com/JonMunkholm/carupload/internal/logging"
	"github.com/JonMunkholm/carupload/internal/web/views"
)

// uploadField is the multipart field carrying the CSV files.
const uploadField = "files"

// handleUpload parses and stores every uploaded file before responding.
// Files are processed in order; a failure stops the loop but earlier files
// stay stored.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	files, ok := s.uploadedFiles(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	for _, fh := range files {
		if err := s.saveFile(r.Context(), fh); err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) saveFile(ctx context.Context, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return &core.CSVReadError{Err: err}
	}
	defer f.Close()

	logging.WithFields(ctx, "filename", fh.Filename).Info("saving file", "size", fh.Size)
	_, err = s.service.SaveSync(ctx, f)
	return err
}

// handleUploadAsync queues every uploaded file and responds without waiting
// for the jobs. Job outcomes are only logged.
func (s *Server) handleUploadAsync(w http.ResponseWriter, r *http.Request) {
	files, ok := s.uploadedFiles(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	for _, fh := range files {
		// Multipart temp files are removed when the request ends.
		data, err := readFile(fh)
		if err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
			return
		}

		if _, err := s.service.SaveAsync(r.Context(), bytes.NewReader(data)); err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusCreated)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, &core.CSVReadError{Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &core.CSVReadError{Err: err}
	}
	return data, nil
}

// uploadedFiles parses the multipart form and returns the uploaded files.
// On failure it writes a 400 response and returns false.
func (s *Server) uploadedFiles(w http.ResponseWriter, r *http.Request) ([]*multipart.FileHeader, bool) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("upload exceeds %d bytes", maxSize))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}

	files := r.MultipartForm.File[uploadField]
	if len(files) == 0 {
		r.MultipartForm.RemoveAll()
		writeError(w, http.StatusBadRequest, "no files provided")
		return nil, false
	}
	return files, true
}

// isTooLarge reports whether err came from http.MaxBytesReader. The
// multipart reader does not always wrap the underlying error.
func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

// handleListVehicles returns every stored vehicle as JSON.
func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.listVehicles(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// handleIndex renders the stored vehicles as an HTML table.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.listVehicles(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.VehiclePage(vehicles).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render vehicle page", "error", err)
	}
}

// listVehicles runs the list job and waits for it, bounded by
// UPLOAD_LIST_TIMEOUT and the request context.
func (s *Server) listVehicles(ctx context.Context) ([]core.Vehicle, error) {
	h, err := s.service.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.ListTimeout)
	defer cancel()

	vehicles, err := h.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []core.Vehicle{}
	}
	return vehicles, nil
}

// handleExecutorStatus returns the executor snapshot.
func (s *Server) handleExecutorStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ExecutorStatus())
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const healthTimeout = 2 * time.Second

// handleHealth reports whether the store is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := s.health.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: core.MapError(err).Code})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
