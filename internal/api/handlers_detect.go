package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/aiscan/internal/document"
	"github.com/dgallion1/aiscan/internal/metrics"
	"github.com/dgallion1/aiscan/internal/parser"
	"github.com/dgallion1/aiscan/internal/pipeline"
)

type detectResponse struct {
	Filename     string           `json:"filename,omitempty"`
	File         *document.Report `json:"file,omitempty"`
	Text         *document.Report `json:"text,omitempty"`
	OverallScore float64          `json:"overall_score"`
}

// handleDetect analyzes an uploaded file and/or pasted text synchronously.
// When both are given, overall_score is the text score.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	o, err := parseOverrides(r.FormValue)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var resp detectResponse
	found := false

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		filename := sanitizeFilename(header.Filename)
		if !parser.IsSupportedExtension(filename) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read file", http.StatusInternalServerError)
			return
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}

		report, err := s.analyzer.With(o).AnalyzeFile(r.Context(), data, filename)
		if err != nil {
			metrics.IncDocumentFailed("file")
			s.writeAnalyzeError(w, r, err)
			return
		}
		metrics.ObserveDocument("file", report.Chunks, report.Score)
		resp.Filename = filename
		resp.File = report
		resp.OverallScore = report.Score
		found = true
	case !errors.Is(err, http.ErrMissingFile):
		jsonError(w, "invalid file: "+err.Error(), http.StatusBadRequest)
		return
	}

	if text := r.FormValue("input_text"); strings.TrimSpace(text) != "" {
		report, err := s.textAnalyzer().With(o).AnalyzeText(r.Context(), text)
		if err != nil {
			metrics.IncDocumentFailed("text")
			s.writeAnalyzeError(w, r, err)
			return
		}
		metrics.ObserveDocument("text", report.Chunks, report.Score)
		resp.Text = report
		resp.OverallScore = report.Score
		found = true
	}

	if !found {
		jsonError(w, "file or input_text is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type detectTextRequest struct {
	Text      string   `json:"text"`
	Threshold *float64 `json:"threshold,omitempty"`
	MinWords  *int     `json:"min_words,omitempty"`
	MaxWords  *int     `json:"max_words,omitempty"`
}

func (s *Server) handleDetectText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req detectTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	o := pipeline.Overrides{Threshold: req.Threshold, MinWords: req.MinWords, MaxWords: req.MaxWords}
	report, err := s.textAnalyzer().With(o).AnalyzeText(r.Context(), req.Text)
	if err != nil {
		metrics.IncDocumentFailed("text")
		s.writeAnalyzeError(w, r, err)
		return
	}
	metrics.ObserveDocument("text", report.Chunks, report.Score)
	writeJSON(w, http.StatusOK, report)
}

// parseOverrides reads optional threshold, min_words and max_words form
// values. Range checks happen in the analyzer.
func parseOverrides(get func(string) string) (pipeline.Overrides, error) {
	var o pipeline.Overrides
	if v := get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, fmt.Errorf("threshold must be a number: %q", v)
		}
		o.Threshold = &f
	}
	for _, field := range []struct {
		name string
		dst  **int
	}{{"min_words", &o.MinWords}, {"max_words", &o.MaxWords}} {
		if v := get(field.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return o, fmt.Errorf("%s must be an integer: %q", field.name, v)
			}
			*field.dst = &n
		}
	}
	return o, nil
}

// writeAnalyzeError maps caller mistakes to 400, local extraction faults to
// 500 and classifier failures to 502.
func (s *Server) writeAnalyzeError(w http.ResponseWriter, r *http.Request, err error) {
	if pipeline.IsInputError(err) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	loggerFrom(r.Context(), s.log).Error("analysis failed", "error", err)
	if errors.Is(err, pipeline.ErrExtract) {
		jsonError(w, "extraction error", http.StatusInternalServerError)
		return
	}
	jsonError(w, "classifier error: "+err.Error(), http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
