package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/loanledger/internal/core"
	"github.com/JonMunkholm/loanledger/internal/export"
	"github.com/JonMunkholm/loanledger/internal/ingest"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

// dateLayout is the wire format of filter dates.
const dateLayout = "2006-01-02"

// maxJSONBody bounds filter and update payloads.
const maxJSONBody = 1 << 20

// filterRequest is the wire form of core.FilterSpec. An open-ended date range
// omits one bound.
type filterRequest struct {
	Lots     []string `json:"lots"`
	Advisors []string `json:"advisors"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
	Query    string   `json:"query,omitempty"`
}

func (f filterRequest) spec() (core.FilterSpec, error) {
	spec := core.FilterSpec{
		Lots:     nonEmpty(f.Lots),
		Advisors: nonEmpty(f.Advisors),
		Query:    strings.TrimSpace(f.Query),
	}
	if f.From == "" && f.To == "" {
		return spec, nil
	}

	dr := core.DateRange{To: time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)}
	if f.From != "" {
		t, err := time.Parse(dateLayout, f.From)
		if err != nil {
			return core.FilterSpec{}, fmt.Errorf("%w: from: %w", errMalformed, err)
		}
		dr.From = t
	}
	if f.To != "" {
		t, err := time.Parse(dateLayout, f.To)
		if err != nil {
			return core.FilterSpec{}, fmt.Errorf("%w: to: %w", errMalformed, err)
		}
		dr.To = t
	}
	if dr.To.Before(dr.From) {
		return core.FilterSpec{}, fmt.Errorf("%w: date range ends before it starts", errMalformed)
	}
	spec.DateRange = &dr
	return spec, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload ingests the multipart "file" field and makes it the active
// session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Ingest.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, fmt.Errorf("%w: %w", ingest.ErrFileTooLarge, err), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %w", errMalformed, err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}

	snap, err := s.session.Load(r.Context(), ingest.Document{Name: header.Filename, Data: data})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

// handleSnapshot returns the current session state.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot()
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

// handleSetFilter replaces the active filter.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	spec, err := req.spec()
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	snap, err := s.session.SetFilter(r.Context(), spec)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

// handleUpdateCell commits a single cell edit.
func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req core.UpdateCellRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.RowKey) == "" || strings.TrimSpace(req.Column) == "" {
		respondError(w, r, fmt.Errorf("%w: rowKey and column are required", errMalformed), http.StatusBadRequest)
		return
	}

	snap, err := s.session.Commit(r.Context(), req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

// handleHistory lists committed edits, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.session.History()
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if entries == nil {
		entries = []core.EditEntry{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleExport streams the edited ledger as an xlsx attachment. The workbook
// is built in memory first so a failure can still produce an error response.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := s.session.Export(r.Context(), &buf)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleReset discards the active session.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}
	return nil
}
