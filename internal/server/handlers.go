// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/shipcheck/internal/compare"
	"github.com/pdiddy/shipcheck/internal/convert"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type previewResponse struct {
	envelope
	Documents map[types.Slot]types.DocumentResult `json:"documents,omitempty"`
	Warning   string                              `json:"warning,omitempty"`
}

type statsResponse struct {
	envelope
	Stats *types.PatternStats `json:"stats,omitempty"`
}

type compareResponse struct {
	envelope
	Results *types.ComparisonReport `json:"results,omitempty"`
}

// flexString decodes a JSON string, number or null into a string, so a
// value typed into a numeric input arrives unchanged.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	}
	return nil
}

type compareDirectResponse struct {
	envelope
	Documents map[types.Slot]types.DocumentResult `json:"documents,omitempty"`
	Warning   string                              `json:"warning,omitempty"`
	Results   *types.ComparisonReport             `json:"results,omitempty"`
}

type previewRequest struct {
	Documents map[types.Slot]struct {
		Filename string `json:"filename"`
		Text     string `json:"text"`
	} `json:"documents"`
}

type learnRequest struct {
	DocID string      `json:"doc_id"`
	Field types.Field `json:"field"`
	Value flexString  `json:"value"`
}

type compareCell struct {
	Value flexString `json:"value"`
	Label string     `json:"label"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	res, ok := s.preview(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{
		envelope:  envelope{Success: true},
		Documents: res.Documents,
		Warning:   res.Warning,
	})
}

// handleCompareDirect previews the documents and compares the extracted
// values as if every one had been confirmed unchanged.
func (s *Server) handleCompareDirect(w http.ResponseWriter, r *http.Request) {
	res, ok := s.preview(w, r)
	if !ok {
		return
	}
	rep := compare.Compare(compare.Confirm(res.Documents))
	s.deps.Metrics.ObserveReport(rep)
	writeJSON(w, http.StatusOK, compareDirectResponse{
		envelope:  envelope{Success: true},
		Documents: res.Documents,
		Warning:   res.Warning,
		Results:   &rep,
	})
}

// preview reads the documents of a multipart or JSON request and extracts
// them. On failure the error response is already written.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) (*types.PreviewResult, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)

	var (
		docs []types.SlotDocument
		err  error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		docs, err = s.readUploads(r)
	} else {
		docs, err = readPreviewJSON(r.Body)
	}
	if err != nil {
		writeError(w, requestErrorStatus(err), err)
		return nil, false
	}

	res, err := s.deps.Orchestrator.Preview(r.Context(), docs)
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return res, true
}

// readUploads converts the files uploaded under the slot names. Slots
// without a file are skipped.
func (s *Server) readUploads(r *http.Request) ([]types.SlotDocument, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	dir, err := os.MkdirTemp("", "shipcheck-upload-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	var docs []types.SlotDocument
	for _, slot := range types.Slots {
		f, hdr, err := r.FormFile(string(slot))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, err
		}
		name := filepath.Base(hdr.Filename)
		if name == "" || name == "." || name == string(filepath.Separator) {
			name = string(slot) + ".pdf"
		}
		path := filepath.Join(dir, string(slot)+"_"+name)
		err = saveUpload(f, path)
		f.Close()
		if err != nil {
			return nil, err
		}

		text, err := convert.ReadText(r.Context(), s.deps.Converter, path)
		if err != nil {
			return nil, &uploadError{slot: slot, err: err}
		}
		docs = append(docs, types.SlotDocument{
			Slot:     slot,
			Document: types.Document{Filename: name, RawText: text},
		})
	}
	return docs, nil
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func readPreviewJSON(body io.Reader) ([]types.SlotDocument, error) {
	var req previewRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, &badRequestError{msg: "invalid JSON body: " + err.Error()}
	}
	var docs []types.SlotDocument
	for _, slot := range types.Slots {
		d, ok := req.Documents[slot]
		if !ok || strings.TrimSpace(d.Text) == "" {
			continue
		}
		name := d.Filename
		if name == "" {
			name = string(slot) + ".txt"
		}
		docs = append(docs, types.SlotDocument{
			Slot:     slot,
			Document: types.Document{Filename: filepath.Base(name), RawText: d.Text},
		})
	}
	return docs, nil
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	if req.DocID == "" {
		writeError(w, http.StatusBadRequest, errors.New("doc_id is required"))
		return
	}
	if err := s.deps.Learner.Learn(r.Context(), req.DocID, req.Field, string(req.Value)); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Stats.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{envelope: envelope{Success: true}, Stats: &st})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req map[types.Slot]map[types.Field]compareCell
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}

	values := make(types.ConfirmedValues, len(req))
	for slot, fields := range req {
		if !slot.Valid() {
			continue
		}
		cells := make(map[types.Field]types.ConfirmedValue, len(fields))
		for f, c := range fields {
			if f.Valid() {
				cells[f] = types.ConfirmedValue{Value: string(c.Value), Label: c.Label}
			}
		}
		values[slot] = cells
	}

	rep := compare.Compare(values)
	s.deps.Metrics.ObserveReport(rep)
	writeJSON(w, http.StatusOK, compareResponse{envelope: envelope{Success: true}, Results: &rep})
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

// uploadError is an uploaded file that could not be read as text.
type uploadError struct {
	slot types.Slot
	err  error
}

func (e *uploadError) Error() string {
	return fmt.Sprintf("could not read %s: %v", e.slot, e.err)
}

func (e *uploadError) Unwrap() error { return e.err }

// requestErrorStatus maps a request parsing failure to a status code.
func requestErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	var upload *uploadError
	switch {
	case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &upload):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// statusFor maps the domain error taxonomy to a status code.
func statusFor(err error) int {
	var (
		insufficient *types.InsufficientDocumentsError
		invalid      *types.InvalidValueError
		notFound     *types.NotFoundError
		storage      *types.StorageError
	)
	switch {
	case errors.As(err, &insufficient), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &storage):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("writing response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, envelope{Success: false, Error: errorMessage(err)})
}

// errorMessage is the user-facing text of err. Typed domain errors carry
// their own wording; eris wrapping adds context that stays in the logs.
func errorMessage(err error) string {
	var (
		insufficient *types.InsufficientDocumentsError
		invalid      *types.InvalidValueError
		notFound     *types.NotFoundError
		storage      *types.StorageError
	)
	switch {
	case errors.As(err, &insufficient):
		return insufficient.Error()
	case errors.As(err, &invalid):
		return invalid.Error()
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &storage):
		return "could not save the learned pattern"
	}
	return err.Error()
}
