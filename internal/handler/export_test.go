package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shumpiss/pinlog/internal/domain"
)

// exportRowFixture returns a fully-populated domain.ExportRow for testing.
func exportRowFixture() domain.ExportRow {
	created := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return domain.ExportRow{
		LocationID:          "loc-1",
		LocationName:        "Big Sur Campground",
		LocationAddress:     "Big Sur, CA",
		Lat:                 36.2704,
		Lng:                 -121.8081,
		LocationCreatedAt:   time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		InstanceID:          "inst-1",
		InstanceTitle:       "Sunset",
		InstanceDescription: "Great weather",
		InstanceCreatedAt:   &created,
		Types:               []string{"shit", "piss"},
	}
}

func csvExportHandler(rows []domain.ExportRow) http.Handler {
	svc := &mockExportServicer{
		export: func(_ context.Context) ([]domain.ExportRow, error) { return rows, nil },
	}
	return newHTTPHandler(nil, nil, svc)
}

// ---- GET /export, JSON ----------------------------------------------------

func TestGetExport_DefaultJSON_IsSnapshotDocument(t *testing.T) {
	const doc = "[\n  {\n    \"id\": \"loc-1\"\n  }\n]"
	svc := &mockLocationServicer{
		exportData: func(_ context.Context) (string, error) { return doc, nil },
	}

	rec := serve(newHTTPHandler(svc, nil, nil), http.MethodGet, "/export", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "pinlog-locations.json")
	assert.Equal(t, doc, rec.Body.String())
}

func TestGetExport_UnknownFormat_Returns400(t *testing.T) {
	rec := serve(newHTTPHandler(nil, nil, nil), http.MethodGet, "/export?format=xml", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", decodeError(t, rec).Code)
}

// ---- GET /export, CSV -----------------------------------------------------

func TestGetExport_CSV_EmptyResult_HasHeaderRow(t *testing.T) {
	rec := serve(csvExportHandler([]domain.ExportRow{}), http.MethodGet, "/export?format=csv", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "location_id,"), "CSV should start with header row, got: %q", body)
}

func TestGetExport_CSV_OneRow_HasHeaderAndDataRow(t *testing.T) {
	row := exportRowFixture()

	rec := serve(csvExportHandler([]domain.ExportRow{row}), http.MethodGet, "/export?format=csv", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	// Header + 1 data row.
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "instance_title")
	assert.Equal(t,
		"loc-1,Big Sur Campground,\"Big Sur, CA\",36.2704,-121.8081,2024-06-01T08:00:00.000Z,"+
			"inst-1,Sunset,Great weather,2024-06-15T12:00:00.000Z,shit|piss",
		lines[1])
}

func TestGetExport_CSV_LocationWithoutInstances_EmptyInstanceColumns(t *testing.T) {
	row := domain.ExportRow{
		LocationID:        "loc-2",
		LocationName:      "Empty",
		LocationCreatedAt: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	rec := serve(csvExportHandler([]domain.ExportRow{row}), http.MethodGet, "/export?format=csv", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "loc-2,Empty,,0,0,2024-07-01T00:00:00.000Z,,,,,", lines[1])
}

func TestGetExport_CSV_ServiceError_Returns500(t *testing.T) {
	svc := &mockExportServicer{
		export: func(_ context.Context) ([]domain.ExportRow, error) {
			return nil, domain.NewError(domain.CodeLocationsLoadError, "Failed to load locations", nil)
		},
	}

	rec := serve(newHTTPHandler(nil, nil, svc), http.MethodGet, "/export?format=csv", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ---- POST /import, DELETE /data --------------------------------------------

func TestImportData_ReportsCounts(t *testing.T) {
	svc := &mockLocationServicer{
		importData: func(_ context.Context, data string) ([]domain.Location, error) {
			assert.Equal(t, `[]`, data)
			return []domain.Location{locationFixture(), locationFixture()}, nil
		},
	}

	rec := serve(newHTTPHandler(svc, nil, nil), http.MethodPost, "/import", jsonBodyRaw(`[]`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"locations":2,"instances":2}`, rec.Body.String())
}

func TestImportData_InvalidDocument_Returns422WithProblems(t *testing.T) {
	svc := &mockLocationServicer{
		importData: func(_ context.Context, _ string) ([]domain.Location, error) {
			return nil, domain.NewError(domain.CodeInvalidImportData, "Invalid location data format",
				map[string]any{"problems": []string{"[0].instances: required"}})
		},
	}

	rec := serve(newHTTPHandler(svc, nil, nil), http.MethodPost, "/import", jsonBodyRaw(`[{"id":"x"}]`))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "INVALID_IMPORT_DATA", detail.Code)
	assert.Equal(t, []string{"[0].instances: required"}, detail.Problems)
}

func TestClearData_Returns204(t *testing.T) {
	cleared := false
	svc := &mockLocationServicer{
		clear: func(_ context.Context) error {
			cleared = true
			return nil
		},
	}

	rec := serve(newHTTPHandler(svc, nil, nil), http.MethodDelete, "/data", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, cleared)
}
