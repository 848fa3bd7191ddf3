package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/shumpiss/pinlog/internal/domain"
	"github.com/shumpiss/pinlog/internal/repo"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"location_id", "location_name", "location_address", "lat", "lng", "location_created_at",
	"instance_id", "instance_title", "instance_description", "instance_created_at", "types",
}

// GetExport handles GET /export.
// The default JSON format is the full snapshot document accepted by POST /import.
// Use ?format=csv for a flat table with one row per instance.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	format, err := formatParam(r)
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}

	if format == formatCSV {
		rows, err := s.export.Export(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeAttachment(w, "text/csv", "pinlog-locations.csv", buildCSV(rows))
		return
	}

	doc, err := s.locations.ExportData(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAttachment(w, "application/json", "pinlog-locations.json", []byte(doc))
}

// ImportResponse summarizes a successful location import.
type ImportResponse struct {
	Locations int `json:"locations"`
	Instances int `json:"instances"`
}

// ImportData handles POST /import. The body is a document produced by
// GET /export; it replaces every stored location or nothing at all.
func (s *Server) ImportData(w http.ResponseWriter, r *http.Request) {
	doc, err := readBody(r)
	if err != nil {
		writeRequestError(w, codeInvalidRequest, err)
		return
	}
	locs, err := s.locations.ImportData(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{
		Locations: len(locs),
		Instances: domain.InstanceCount(locs),
	})
}

// ClearData handles DELETE /data, removing every location and instance.
func (s *Server) ClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.locations.ClearAllData(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// buildCSV encodes rows as CSV.
// Types within a row are pipe-separated ("|") to keep each instance on a single line.
func buildCSV(rows []domain.ExportRow) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write(rowToCSVRecord(r))
	}
	w.Flush()
	return buf.Bytes()
}

// rowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Locations without instances leave the instance columns empty.
func rowToCSVRecord(r domain.ExportRow) []string {
	instanceCreated := ""
	if r.InstanceCreatedAt != nil {
		instanceCreated = repo.FormatTime(*r.InstanceCreatedAt)
	}
	return []string{
		r.LocationID,
		r.LocationName,
		r.LocationAddress,
		strconv.FormatFloat(r.Lat, 'f', -1, 64),
		strconv.FormatFloat(r.Lng, 'f', -1, 64),
		repo.FormatTime(r.LocationCreatedAt),
		r.InstanceID,
		r.InstanceTitle,
		r.InstanceDescription,
		instanceCreated,
		strings.Join(r.Types, "|"),
	}
}
