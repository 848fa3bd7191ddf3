package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shumpiss/pinlog/internal/domain"
	"github.com/shumpiss/pinlog/internal/handler"
)

// mockLocationServicer is a test double for handler.LocationServicer.
// Set only the method fields your test needs.
type mockLocationServicer struct {
	load           func(ctx context.Context) ([]domain.Location, error)
	add            func(ctx context.Context, in domain.LocationInput) (domain.Location, error)
	update         func(ctx context.Context, loc domain.Location) (domain.Location, error)
	remove         func(ctx context.Context, id string) error
	addInstance    func(ctx context.Context, in domain.InstanceInput) (domain.Instance, error)
	updateInstance func(ctx context.Context, inst domain.Instance) (domain.Instance, error)
	removeInstance func(ctx context.Context, locationID, instanceID string) error
	clear          func(ctx context.Context) error
	exportData     func(ctx context.Context) (string, error)
	importData     func(ctx context.Context, data string) ([]domain.Location, error)
	byDate         func(ctx context.Context, ascending bool) ([]domain.Instance, error)
	locationByID   func(ctx context.Context, id string) (domain.Location, bool, error)
	instanceByID   func(ctx context.Context, id string) (domain.InstanceRef, bool, error)
}

func (m *mockLocationServicer) LoadLocations(ctx context.Context) ([]domain.Location, error) {
	return m.load(ctx)
}
func (m *mockLocationServicer) AddLocation(ctx context.Context, in domain.LocationInput) (domain.Location, error) {
	return m.add(ctx, in)
}
func (m *mockLocationServicer) UpdateLocation(ctx context.Context, loc domain.Location) (domain.Location, error) {
	return m.update(ctx, loc)
}
func (m *mockLocationServicer) DeleteLocation(ctx context.Context, id string) error {
	return m.remove(ctx, id)
}
func (m *mockLocationServicer) AddInstance(ctx context.Context, in domain.InstanceInput) (domain.Instance, error) {
	return m.addInstance(ctx, in)
}
func (m *mockLocationServicer) UpdateInstance(ctx context.Context, inst domain.Instance) (domain.Instance, error) {
	return m.updateInstance(ctx, inst)
}
func (m *mockLocationServicer) DeleteInstance(ctx context.Context, locationID, instanceID string) error {
	return m.removeInstance(ctx, locationID, instanceID)
}
func (m *mockLocationServicer) ClearAllData(ctx context.Context) error {
	return m.clear(ctx)
}
func (m *mockLocationServicer) ExportData(ctx context.Context) (string, error) {
	return m.exportData(ctx)
}
func (m *mockLocationServicer) ImportData(ctx context.Context, data string) ([]domain.Location, error) {
	return m.importData(ctx, data)
}
func (m *mockLocationServicer) GetInstancesByDate(ctx context.Context, ascending bool) ([]domain.Instance, error) {
	return m.byDate(ctx, ascending)
}
func (m *mockLocationServicer) GetLocationByID(ctx context.Context, id string) (domain.Location, bool, error) {
	return m.locationByID(ctx, id)
}
func (m *mockLocationServicer) GetInstanceByID(ctx context.Context, id string) (domain.InstanceRef, bool, error) {
	return m.instanceByID(ctx, id)
}

// compile-time check: mockLocationServicer must satisfy handler.LocationServicer.
var _ handler.LocationServicer = (*mockLocationServicer)(nil)

// mockPinServicer is a test double for handler.PinServicer.
type mockPinServicer struct {
	add       func(ctx context.Context, in domain.PinInput) (domain.Pin, error)
	update    func(ctx context.Context, p domain.Pin) (domain.Pin, error)
	remove    func(ctx context.Context, id string) error
	clear     func(ctx context.Context) error
	exportAll func(ctx context.Context) (string, error)
	importAll func(ctx context.Context, data string) ([]domain.Pin, error)
	byDate    func(ctx context.Context, ascending bool) ([]domain.Pin, error)
	grouped   func(ctx context.Context) ([]domain.DateGroup, error)
}

func (m *mockPinServicer) AddPin(ctx context.Context, in domain.PinInput) (domain.Pin, error) {
	return m.add(ctx, in)
}
func (m *mockPinServicer) UpdatePin(ctx context.Context, p domain.Pin) (domain.Pin, error) {
	return m.update(ctx, p)
}
func (m *mockPinServicer) DeletePin(ctx context.Context, id string) error {
	return m.remove(ctx, id)
}
func (m *mockPinServicer) ClearAllPins(ctx context.Context) error {
	return m.clear(ctx)
}
func (m *mockPinServicer) ExportPins(ctx context.Context) (string, error) {
	return m.exportAll(ctx)
}
func (m *mockPinServicer) ImportPins(ctx context.Context, data string) ([]domain.Pin, error) {
	return m.importAll(ctx, data)
}
func (m *mockPinServicer) GetPinsByDate(ctx context.Context, ascending bool) ([]domain.Pin, error) {
	return m.byDate(ctx, ascending)
}
func (m *mockPinServicer) GetPinsByDateGrouped(ctx context.Context) ([]domain.DateGroup, error) {
	return m.grouped(ctx)
}

var _ handler.PinServicer = (*mockPinServicer)(nil)

// mockExportServicer is a test double for handler.ExportServicer.
type mockExportServicer struct {
	export func(ctx context.Context) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context) ([]domain.ExportRow, error) {
	return m.export(ctx)
}

var _ handler.ExportServicer = (*mockExportServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into the chi router.
// This mirrors how main.go wires it in production, minus metrics and fallback.
func newHTTPHandler(locs handler.LocationServicer, pins handler.PinServicer, export handler.ExportServicer) http.Handler {
	srv := handler.NewServer(locs, pins, export, nil)
	return handler.NewRouter(srv, handler.RouterConfig{})
}

// serve runs one request through h and returns the recorder.
func serve(h http.Handler, method, target string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// decodeError decodes an ErrorResponse body.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

var fixtureTime = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func locationFixture() domain.Location {
	return domain.Location{
		ID:        "loc-1",
		Lat:       47.6062,
		Lng:       -122.3321,
		Name:      "Pike Place",
		Address:   "85 Pike St, Seattle",
		CreatedAt: fixtureTime,
		Instances: []domain.Instance{instanceFixture()},
	}
}

func instanceFixture() domain.Instance {
	return domain.Instance{
		ID:          "inst-1",
		LocationID:  "loc-1",
		Title:       "Morning coffee",
		Description: "first visit",
		Types:       []domain.PinType{domain.PinTypeCum},
		CreatedAt:   fixtureTime.Add(time.Hour),
	}
}

func pinFixture() domain.Pin {
	return domain.Pin{
		ID:        "pin-1",
		Lat:       40.7128,
		Lng:       -74.006,
		Title:     "Ferry terminal",
		Type:      string(domain.PinTypeShit),
		Types:     []string{string(domain.PinTypeShit)},
		CreatedAt: fixtureTime,
	}
}

// jsonBodyRaw wraps a literal, possibly malformed, request body.
func jsonBodyRaw(s string) *bytes.Buffer {
	return bytes.NewBufferString(s)
}

// serveWithHeader runs a GET with one extra request header.
func serveWithHeader(h http.Handler, target, key, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(key, value)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
