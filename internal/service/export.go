package service

import (
	"context"
	"fmt"

	"github.com/shumpiss/pinlog/internal/domain"
	"github.com/shumpiss/pinlog/internal/repo"
)

// ExportService assembles the flat (one row per instance) export.
type ExportService struct {
	locations repo.LocationRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(locations repo.LocationRepo) *ExportService {
	return &ExportService{locations: locations}
}

// Export returns one ExportRow per instance across all locations.
// Locations with no instances contribute one row with empty instance fields.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	locs, err := s.locations.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	return domain.FlattenLocations(locs), nil
}
