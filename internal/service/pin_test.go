package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shumpiss/pinlog/internal/domain"
	"github.com/shumpiss/pinlog/internal/repo"
	"github.com/shumpiss/pinlog/internal/service"
)

func pinInput() domain.PinInput {
	return domain.PinInput{Lat: 51.5, Lng: -0.12, Title: "Old pin", Type: "shit"}
}

func TestPinService_AddPin(t *testing.T) {
	svc, _ := newPinService()
	ctx := context.Background()

	in := pinInput()
	in.Title = "  Old pin "
	in.Description = " note "
	p, err := svc.AddPin(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, "Old pin", p.Title)
	assert.Equal(t, "note", p.Description)
	assert.Equal(t, testStart, p.CreatedAt)

	pins, err := svc.LoadPins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Pin{p}, pins)
}

func TestPinService_AddPin_TypeDefaultsToFirstOfTypes(t *testing.T) {
	svc, _ := newPinService()

	in := pinInput()
	in.Type = ""
	in.Types = []string{"piss", "cum"}
	p, err := svc.AddPin(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "piss", p.Type)
	assert.Equal(t, []string{"piss", "cum"}, p.Types)
}

func TestPinService_AddPin_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.PinInput)
		code   domain.Code
	}{
		{"empty title", func(in *domain.PinInput) { in.Title = " " }, domain.CodeInvalidPinTitle},
		{"long title", func(in *domain.PinInput) { in.Title = strings.Repeat("t", domain.MaxTitleLength+1) }, domain.CodeInvalidPinTitle},
		{"long description", func(in *domain.PinInput) { in.Description = strings.Repeat("d", domain.MaxDescriptionLength+1) }, domain.CodeInvalidPinDescription},
		{"unknown type", func(in *domain.PinInput) { in.Type = "poop" }, domain.CodeInvalidPinType},
		{"no type at all", func(in *domain.PinInput) { in.Type = "" }, domain.CodeInvalidPinType},
		{"unknown entry in types", func(in *domain.PinInput) { in.Types = []string{"cum", "x"} }, domain.CodeInvalidPinType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newPinService()
			in := pinInput()
			tt.mutate(&in)

			_, err := svc.AddPin(context.Background(), in)

			assert.True(t, domain.HasCode(err, tt.code), "got %v", err)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestPinService_UpdatePin(t *testing.T) {
	svc, _ := newPinService()
	ctx := context.Background()
	p, err := svc.AddPin(ctx, pinInput())
	require.NoError(t, err)

	upd := p
	upd.Title = "Renamed"
	upd.CreatedAt = time.Time{}
	got, err := svc.UpdatePin(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)

	upd.ID = "ghost"
	_, err = svc.UpdatePin(ctx, upd)
	assert.True(t, domain.HasCode(err, domain.CodePinNotFound))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPinService_DeletePin(t *testing.T) {
	svc, _ := newPinService()
	ctx := context.Background()
	p, err := svc.AddPin(ctx, pinInput())
	require.NoError(t, err)

	assert.True(t, domain.HasCode(svc.DeletePin(ctx, ""), domain.CodeInvalidIDs))
	assert.NoError(t, svc.DeletePin(ctx, "ghost"))
	require.NoError(t, svc.DeletePin(ctx, p.ID))

	pins, err := svc.LoadPins(ctx)
	require.NoError(t, err)
	assert.Empty(t, pins)
}

func TestPinService_GetPinsByDateGrouped(t *testing.T) {
	svc, _ := newPinService()
	ctx := context.Background()
	day1 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, svc.SavePins(ctx, []domain.Pin{
		{ID: "a", Title: "a", Type: "cum", CreatedAt: day1},
		{ID: "b", Title: "b", Type: "cum", CreatedAt: day2},
		{ID: "c", Title: "c", Type: "cum", CreatedAt: day1.Add(time.Hour)},
	}))

	groups, err := svc.GetPinsByDateGrouped(ctx)

	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "2025-06-02", groups[0].Date)
	assert.Equal(t, "b", groups[0].Pins[0].ID)
	assert.Equal(t, "2025-06-01", groups[1].Date)
	require.Len(t, groups[1].Pins, 2)
	assert.Equal(t, "c", groups[1].Pins[0].ID)
	assert.Equal(t, "a", groups[1].Pins[1].ID)
}

func TestPinService_GetPinsByDateGrouped_TimeZone(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	svc, _ := newPinService(service.WithTimeZone(zone))
	ctx := context.Background()
	require.NoError(t, svc.SavePins(ctx, []domain.Pin{
		{ID: "late", Title: "x", Type: "piss", CreatedAt: time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC)},
	}))

	groups, err := svc.GetPinsByDateGrouped(ctx)

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "2025-06-01", groups[0].Date)
}

func TestPinService_ExportImport(t *testing.T) {
	src, _ := newPinService()
	ctx := context.Background()
	_, err := src.AddPin(ctx, pinInput())
	require.NoError(t, err)
	want, err := src.LoadPins(ctx)
	require.NoError(t, err)

	doc, err := src.ExportPins(ctx)
	require.NoError(t, err)

	dst, _ := newPinService()
	got, err := dst.ImportPins(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPinService_ImportRejected_LeavesSnapshot(t *testing.T) {
	svc, store := newPinService()
	ctx := context.Background()
	_, err := svc.AddPin(ctx, pinInput())
	require.NoError(t, err)
	before, _, _ := store.Get(ctx, repo.PinsKey)

	_, err = svc.ImportPins(ctx, `[{"id":"p","title":"ok","lat":0,"lng":0,"type":"nope","createdAt":"2025-06-01T00:00:00Z"}]`)

	assert.True(t, domain.HasCode(err, domain.CodeInvalidImportData))
	after, _, _ := store.Get(ctx, repo.PinsKey)
	assert.Equal(t, before, after)
}

func TestPinService_ClearAllPins(t *testing.T) {
	svc, _ := newPinService()
	ctx := context.Background()
	_, err := svc.AddPin(ctx, pinInput())
	require.NoError(t, err)

	require.NoError(t, svc.ClearAllPins(ctx))

	pins, err := svc.LoadPins(ctx)
	require.NoError(t, err)
	assert.Empty(t, pins)
}
