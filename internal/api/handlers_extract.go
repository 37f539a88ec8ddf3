package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"litmap/internal/convert"
	"litmap/internal/location"
	"litmap/internal/pipeline"
)

// extractionRequest is the JSON body for POST /api/extractions. Pointer
// fields distinguish "absent" from zero; overlap 0 is a valid override.
type extractionRequest struct {
	Text           string   `json:"text"`
	Title          string   `json:"title"`
	ChunkSize      *int     `json:"chunk_size"`
	Overlap        *int     `json:"overlap"`
	Scales         []string `json:"scales"`
	Labels         []string `json:"labels"`
	Model          string   `json:"model"`
	PromptTemplate string   `json:"prompt_template"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req extractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	scales, err := parseScales(req.Scales)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.submitJob(w, pipeline.Request{
		Text:           req.Text,
		Title:          req.Title,
		ChunkSize:      req.ChunkSize,
		Overlap:        req.Overlap,
		Scales:         scales,
		Labels:         req.Labels,
		Model:          req.Model,
		PromptTemplate: req.PromptTemplate,
	})
}

func (s *Server) handleExtractUpload(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB absorbs multipart form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !convert.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	limited := io.LimitReader(file, s.cfg.MaxUploadBytes+1)
	conv, err := convert.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pdf, ok := conv.(*convert.PDFConverter); ok {
		pdf.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}
	text, err := conv.Convert(limited, filename)
	if err != nil {
		jsonError(w, "failed to extract text: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if int64(len(text)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if strings.TrimSpace(text) == "" {
		jsonError(w, "file contains no extractable text", http.StatusUnprocessableEntity)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = filename
	}

	req := pipeline.Request{
		Text:           text,
		Title:          title,
		Model:          r.FormValue("model"),
		PromptTemplate: r.FormValue("prompt_template"),
	}
	if v := r.FormValue("chunk_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "chunk_size must be an integer", http.StatusBadRequest)
			return
		}
		req.ChunkSize = &n
	}
	if v := r.FormValue("overlap"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "overlap must be an integer", http.StatusBadRequest)
			return
		}
		req.Overlap = &n
	}
	if v := r.FormValue("scales"); v != "" {
		scales, err := parseScales(strings.Split(v, ","))
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Scales = scales
	}
	if v := r.FormValue("labels"); v != "" {
		req.Labels = strings.Split(v, ",")
	}

	s.submitJob(w, req)
}

func (s *Server) submitJob(w http.ResponseWriter, req pipeline.Request) {
	job := pipeline.NewJob(req)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/extractions/%s/status", job.ID),
	})
}

func (s *Server) handleExtractionStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"title":    snap.Title,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

func (s *Server) handleExtractionLocations(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	locs, done := job.Result()
	if !done {
		snap := job.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error":  "job not finished",
			"status": snap.Status,
			"phase":  snap.Phase,
		})
		return
	}
	if locs == nil {
		locs = []location.Geocoded{}
	}

	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":    snap.ID,
		"title":     snap.Title,
		"status":    snap.Status,
		"count":     len(locs),
		"locations": locs,
	})
}

func parseScales(raw []string) ([]location.Scale, error) {
	scales := make([]location.Scale, 0, len(raw))
	for _, s := range raw {
		scale := location.Scale(strings.ToLower(strings.TrimSpace(s)))
		if scale == "" {
			continue
		}
		if !location.ValidScale(scale) {
			return nil, fmt.Errorf("unknown scale %q (valid: %v)", s, location.AllScales())
		}
		scales = append(scales, scale)
	}
	return scales, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
