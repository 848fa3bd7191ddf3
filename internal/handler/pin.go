package handler

import (
	"net/http"

	"github.com/shumpiss/pinlog/internal/domain"
)

// ListPins handles GET /pins?order=asc|desc.
// Newest first by default. Supports ?page= and ?limit=.
func (s *Server) ListPins(w http.ResponseWriter, r *http.Request) {
	ascending, err := ascendingParam(r)
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	params, err := pageParams(r)
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	pins, err := s.pins.GetPinsByDate(r.Context(), ascending)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paginate(pins, params))
}

// CreatePin handles POST /pins.
func (s *Server) CreatePin(w http.ResponseWriter, r *http.Request) {
	var in domain.PinInput
	if err := decodeJSON(r, &in); err != nil {
		writeRequestError(w, codeInvalidRequest, err)
		return
	}
	created, err := s.pins.AddPin(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePin handles PUT /pins/{pinId}.
func (s *Server) UpdatePin(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "pinId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	var p domain.Pin
	if err := decodeJSON(r, &p); err != nil {
		writeRequestError(w, codeInvalidRequest, err)
		return
	}
	p.ID = id

	updated, err := s.pins.UpdatePin(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeletePin handles DELETE /pins/{pinId}. Deleting an unknown id succeeds.
func (s *Server) DeletePin(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "pinId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	if err := s.pins.DeletePin(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearPins handles DELETE /pins.
func (s *Server) ClearPins(w http.ResponseWriter, r *http.Request) {
	if err := s.pins.ClearAllPins(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPinsGrouped handles GET /pins/grouped.
// Pins bucketed by calendar day, most recent day first.
func (s *Server) GetPinsGrouped(w http.ResponseWriter, r *http.Request) {
	groups, err := s.pins.GetPinsByDateGrouped(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// ExportPins handles GET /pins/export.
func (s *Server) ExportPins(w http.ResponseWriter, r *http.Request) {
	doc, err := s.pins.ExportPins(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAttachment(w, "application/json", "pinlog-pins.json", []byte(doc))
}

// PinImportResponse summarizes a successful pin import.
type PinImportResponse struct {
	Pins int `json:"pins"`
}

// ImportPins handles POST /pins/import. The body is a document produced by
// GET /pins/export; it replaces every stored pin or nothing at all.
func (s *Server) ImportPins(w http.ResponseWriter, r *http.Request) {
	doc, err := readBody(r)
	if err != nil {
		writeRequestError(w, codeInvalidRequest, err)
		return
	}
	pins, err := s.pins.ImportPins(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PinImportResponse{Pins: len(pins)})
}
