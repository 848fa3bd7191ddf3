package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/shumpiss/pinlog/internal/domain"
	"github.com/shumpiss/pinlog/internal/repo"
	"github.com/shumpiss/pinlog/internal/tracing"
)

const entityLocation = "location"

// LocationService implements business logic for locations and their instances.
type LocationService struct {
	repo repo.LocationRepo
	log  *slog.Logger
	opts options
	mu   sync.Mutex
}

// NewLocationService constructs a LocationService backed by the provided LocationRepo.
func NewLocationService(r repo.LocationRepo, log *slog.Logger, opts ...Option) *LocationService {
	return &LocationService{repo: r, log: log, opts: buildOptions(opts)}
}

// LoadLocations returns the stored snapshot; an empty store yields an empty slice.
func (s *LocationService) LoadLocations(ctx context.Context) (_ []domain.Location, err error) {
	ctx, end := tracing.StartSpan(ctx, "location.load")
	defer func() { end(err) }()

	locs, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.LocationService.LoadLocations: %w", err)
	}
	s.log.DebugContext(ctx, "loaded locations", "locations", len(locs), "instances", domain.InstanceCount(locs))
	return locs, nil
}

// SaveLocations replaces the whole snapshot.
func (s *LocationService) SaveLocations(ctx context.Context, locs []domain.Location) (err error) {
	ctx, end := tracing.StartSpan(ctx, "location.save")
	defer func() { end(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.save(ctx, "save", locs)
	if err != nil {
		return fmt.Errorf("service.LocationService.SaveLocations: %w", err)
	}
	return nil
}

// AddLocation validates and appends a new location with no instances.
func (s *LocationService) AddLocation(ctx context.Context, in domain.LocationInput) (_ domain.Location, err error) {
	ctx, end := tracing.StartSpan(ctx, "location.add")
	defer func() { end(err) }()

	name := domain.NormalizeText(in.Name)
	if !domain.ValidName(name) {
		return domain.Location{}, fmt.Errorf("service.LocationService.AddLocation: %w", invalidLocationName())
	}
	coords := domain.Coordinates{Lat: in.Lat, Lng: in.Lng}
	if !coords.Valid() {
		return domain.Location{}, fmt.Errorf("service.LocationService.AddLocation: %w", invalidCoordinates(coords))
	}

	loc := domain.Location{
		ID:        s.opts.newID(),
		Lat:       in.Lat,
		Lng:       in.Lng,
		Name:      name,
		Address:   domain.NormalizeText(in.Address),
		CreatedAt: s.opts.stamp(),
		Instances: []domain.Instance{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.AddLocation: %w", err)
	}
	if err = s.save(ctx, "add", append(locs, loc)); err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.AddLocation: %w", err)
	}

	s.log.InfoContext(ctx, "created location", "id", loc.ID, "name", loc.Name)
	return loc, nil
}

// UpdateLocation replaces a stored location in place and returns what was stored.
// A nil Instances keeps the stored instances; a zero CreatedAt keeps the stored
// timestamp.
func (s *LocationService) UpdateLocation(ctx context.Context, loc domain.Location) (_ domain.Location, err error) {
	ctx, end := tracing.StartSpan(ctx, "location.update", attribute.String("location.id", loc.ID))
	defer func() { end(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.UpdateLocation: %w", err)
	}
	idx := indexOfLocation(locs, loc.ID)
	if idx == -1 {
		return domain.Location{}, fmt.Errorf("service.LocationService.UpdateLocation: %w", locationNotFound(loc.ID))
	}

	loc.Name = domain.NormalizeText(loc.Name)
	if !domain.ValidName(loc.Name) {
		return domain.Location{}, fmt.Errorf("service.LocationService.UpdateLocation: %w", invalidLocationName())
	}
	if !loc.Coordinates().Valid() {
		return domain.Location{}, fmt.Errorf("service.LocationService.UpdateLocation: %w", invalidCoordinates(loc.Coordinates()))
	}
	loc.Address = domain.NormalizeText(loc.Address)

	stored := locs[idx]
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = stored.CreatedAt
	}
	if loc.Instances == nil {
		loc.Instances = stored.Instances
	} else {
		instances := make([]domain.Instance, len(loc.Instances))
		for i, in := range loc.Instances {
			if in.LocationID == "" {
				in.LocationID = loc.ID
			}
			if in.LocationID != loc.ID || in.ID == "" {
				return domain.Location{}, fmt.Errorf("service.LocationService.UpdateLocation: %w",
					domain.NewError(domain.CodeInvalidIDs, "Instance does not belong to this location",
						map[string]any{"locationId": loc.ID, "instanceId": in.ID}))
			}
			if in, err = normalizeInstance(in); err != nil {
				return domain.Location{}, fmt.Errorf("service.LocationService.UpdateLocation: %w", err)
			}
			if in.CreatedAt.IsZero() {
				in.CreatedAt = s.opts.stamp()
			}
			instances[i] = in
		}
		loc.Instances = instances
	}

	locs[idx] = loc
	if err = s.save(ctx, "update", locs); err != nil {
		return domain.Location{}, fmt.Errorf("service.LocationService.UpdateLocation: %w", err)
	}

	s.log.InfoContext(ctx, "updated location", "id", loc.ID, "name", loc.Name)
	return loc, nil
}

// DeleteLocation removes a location and every instance recorded at it.
// Deleting an unknown id is logged and otherwise ignored.
func (s *LocationService) DeleteLocation(ctx context.Context, id string) (err error) {
	ctx, end := tracing.StartSpan(ctx, "location.delete", attribute.String("location.id", id))
	defer func() { end(err) }()

	if id == "" {
		return fmt.Errorf("service.LocationService.DeleteLocation: %w",
			domain.NewError(domain.CodeInvalidIDs, "Invalid location ID", nil))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("service.LocationService.DeleteLocation: %w", err)
	}
	idx := indexOfLocation(locs, id)
	if idx == -1 {
		s.log.WarnContext(ctx, "attempted to delete non-existent location", "id", id)
		return nil
	}
	removed := len(locs[idx].Instances)

	if err = s.save(ctx, "delete", slices.Delete(locs, idx, idx+1)); err != nil {
		return fmt.Errorf("service.LocationService.DeleteLocation: %w", err)
	}

	s.log.InfoContext(ctx, "deleted location", "id", id, "instances_removed", removed)
	return nil
}

// AddInstance validates and appends a new instance to its location.
func (s *LocationService) AddInstance(ctx context.Context, in domain.InstanceInput) (_ domain.Instance, err error) {
	ctx, end := tracing.StartSpan(ctx, "instance.add", attribute.String("location.id", in.LocationID))
	defer func() { end(err) }()

	inst, err := normalizeInstance(domain.Instance{
		LocationID:  in.LocationID,
		Title:       in.Title,
		Description: in.Description,
		Types:       slices.Clone(in.Types),
	})
	if err != nil {
		return domain.Instance{}, fmt.Errorf("service.LocationService.AddInstance: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Instance{}, fmt.Errorf("service.LocationService.AddInstance: %w", err)
	}
	idx := indexOfLocation(locs, in.LocationID)
	if idx == -1 {
		return domain.Instance{}, fmt.Errorf("service.LocationService.AddInstance: %w", locationNotFound(in.LocationID))
	}

	inst.ID = s.opts.newID()
	inst.CreatedAt = s.opts.stamp()
	locs[idx].Instances = append(locs[idx].Instances, inst)

	if err = s.save(ctx, "add_instance", locs); err != nil {
		return domain.Instance{}, fmt.Errorf("service.LocationService.AddInstance: %w", err)
	}

	s.log.InfoContext(ctx, "created instance",
		"instance_id", inst.ID, "location_id", inst.LocationID, "location", locs[idx].Name, "types", inst.Types)
	return inst, nil
}

// UpdateInstance replaces an instance within its location and returns what was stored.
func (s *LocationService) UpdateInstance(ctx context.Context, inst domain.Instance) (_ domain.Instance, err error) {
	ctx, end := tracing.StartSpan(ctx, "instance.update", attribute.String("instance.id", inst.ID))
	defer func() { end(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Instance{}, fmt.Errorf("service.LocationService.UpdateInstance: %w", err)
	}
	li := indexOfLocation(locs, inst.LocationID)
	if li == -1 {
		return domain.Instance{}, fmt.Errorf("service.LocationService.UpdateInstance: %w", locationNotFound(inst.LocationID))
	}
	ii := indexOfInstance(locs[li].Instances, inst.ID)
	if ii == -1 {
		return domain.Instance{}, fmt.Errorf("service.LocationService.UpdateInstance: %w", instanceNotFound(inst.ID))
	}

	if inst, err = normalizeInstance(inst); err != nil {
		return domain.Instance{}, fmt.Errorf("service.LocationService.UpdateInstance: %w", err)
	}
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = locs[li].Instances[ii].CreatedAt
	}
	locs[li].Instances[ii] = inst

	if err = s.save(ctx, "update_instance", locs); err != nil {
		return domain.Instance{}, fmt.Errorf("service.LocationService.UpdateInstance: %w", err)
	}

	s.log.InfoContext(ctx, "updated instance", "instance_id", inst.ID, "location_id", inst.LocationID)
	return inst, nil
}

// DeleteInstance removes one instance from its location. Deleting an unknown
// instance is logged and otherwise ignored; an unknown location is an error.
func (s *LocationService) DeleteInstance(ctx context.Context, locationID, instanceID string) (err error) {
	ctx, end := tracing.StartSpan(ctx, "instance.delete", attribute.String("instance.id", instanceID))
	defer func() { end(err) }()

	if locationID == "" || instanceID == "" {
		return fmt.Errorf("service.LocationService.DeleteInstance: %w",
			domain.NewError(domain.CodeInvalidIDs, "Invalid location or instance ID", nil))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("service.LocationService.DeleteInstance: %w", err)
	}
	li := indexOfLocation(locs, locationID)
	if li == -1 {
		return fmt.Errorf("service.LocationService.DeleteInstance: %w", locationNotFound(locationID))
	}
	ii := indexOfInstance(locs[li].Instances, instanceID)
	if ii == -1 {
		s.log.WarnContext(ctx, "attempted to delete non-existent instance", "instance_id", instanceID, "location_id", locationID)
		return nil
	}
	locs[li].Instances = slices.Delete(locs[li].Instances, ii, ii+1)

	if err = s.save(ctx, "delete_instance", locs); err != nil {
		return fmt.Errorf("service.LocationService.DeleteInstance: %w", err)
	}

	s.log.InfoContext(ctx, "deleted instance", "instance_id", instanceID, "location_id", locationID)
	return nil
}

// ClearAllData removes the whole location snapshot.
func (s *LocationService) ClearAllData(ctx context.Context) (err error) {
	ctx, end := tracing.StartSpan(ctx, "location.clear")
	defer func() { end(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Counts are informational; a corrupt snapshot must still be clearable.
	nLocs, nInst := 0, 0
	if locs, loadErr := s.repo.Load(ctx); loadErr == nil {
		nLocs, nInst = len(locs), domain.InstanceCount(locs)
	}

	err = s.repo.Clear(ctx)
	s.opts.recorder.StorageOp(entityLocation, "clear", err)
	if err != nil {
		return fmt.Errorf("service.LocationService.ClearAllData: %w", err)
	}

	s.log.InfoContext(ctx, "cleared all data", "locations", nLocs, "instances", nInst)
	return nil
}

// ExportData renders the snapshot as indented JSON.
func (s *LocationService) ExportData(ctx context.Context) (_ string, err error) {
	ctx, end := tracing.StartSpan(ctx, "location.export")
	defer func() { end(err) }()

	locs, err := s.repo.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("service.LocationService.ExportData: %w", err)
	}
	out, err := repo.EncodeLocations(locs, true)
	if err != nil {
		return "", fmt.Errorf("service.LocationService.ExportData: %w",
			domain.WrapError(domain.CodeLocationsLoadError, "Failed to export locations", err))
	}
	return out, nil
}

// ImportData replaces the snapshot with a previously exported document.
// Nothing is written unless the whole document is valid; on rejection the
// error's Context["problems"] lists every finding.
func (s *LocationService) ImportData(ctx context.Context, data string) (_ []domain.Location, err error) {
	ctx, end := tracing.StartSpan(ctx, "location.import")
	defer func() { end(err) }()

	res := CheckLocationImport(data)
	if !res.OK() {
		s.log.ErrorContext(ctx, "failed to import locations", "problems", res.Problems)
		s.opts.recorder.StorageOp(entityLocation, "import", domain.ErrValidation)
		return nil, fmt.Errorf("service.LocationService.ImportData: %w",
			domain.NewError(domain.CodeInvalidImportData, "Invalid location data format",
				map[string]any{"problems": res.Problems}))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.save(ctx, "import", res.Locations); err != nil {
		return nil, fmt.Errorf("service.LocationService.ImportData: %w", err)
	}

	s.log.InfoContext(ctx, "imported locations",
		"locations", len(res.Locations), "instances", domain.InstanceCount(res.Locations))
	return res.Locations, nil
}

// GetAllInstances flattens every location's instances in snapshot order.
func (s *LocationService) GetAllInstances(ctx context.Context) ([]domain.Instance, error) {
	locs, err := s.LoadLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.LocationService.GetAllInstances: %w", err)
	}
	out := make([]domain.Instance, 0, domain.InstanceCount(locs))
	for _, l := range locs {
		out = append(out, l.Instances...)
	}
	return out, nil
}

// GetInstancesByDate returns every instance ordered by creation time.
// Instances with equal timestamps keep their snapshot order in both directions.
func (s *LocationService) GetInstancesByDate(ctx context.Context, ascending bool) ([]domain.Instance, error) {
	all, err := s.GetAllInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.LocationService.GetInstancesByDate: %w", err)
	}
	slices.SortStableFunc(all, func(a, b domain.Instance) int {
		if ascending {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return all, nil
}

// GetLocationByID looks up a location. found is false when no location has id.
func (s *LocationService) GetLocationByID(ctx context.Context, id string) (_ domain.Location, found bool, err error) {
	locs, err := s.LoadLocations(ctx)
	if err != nil {
		return domain.Location{}, false, fmt.Errorf("service.LocationService.GetLocationByID: %w", err)
	}
	if i := indexOfLocation(locs, id); i != -1 {
		return locs[i], true, nil
	}
	return domain.Location{}, false, nil
}

// GetInstanceByID finds an instance anywhere in the snapshot, together with
// its location.
func (s *LocationService) GetInstanceByID(ctx context.Context, id string) (_ domain.InstanceRef, found bool, err error) {
	locs, err := s.LoadLocations(ctx)
	if err != nil {
		return domain.InstanceRef{}, false, fmt.Errorf("service.LocationService.GetInstanceByID: %w", err)
	}
	for _, l := range locs {
		if i := indexOfInstance(l.Instances, id); i != -1 {
			return domain.InstanceRef{Location: l, Instance: l.Instances[i]}, true, nil
		}
	}
	return domain.InstanceRef{}, false, nil
}

// save persists locs and reports the outcome. Callers hold s.mu.
func (s *LocationService) save(ctx context.Context, op string, locs []domain.Location) error {
	err := s.repo.Save(ctx, locs)
	s.opts.recorder.StorageOp(entityLocation, op, err)
	if err == nil {
		s.log.DebugContext(ctx, "saved locations", "op", op, "locations", len(locs), "instances", domain.InstanceCount(locs))
	}
	return err
}

// normalizeInstance trims text fields and validates types and description.
func normalizeInstance(in domain.Instance) (domain.Instance, error) {
	in.Title = domain.NormalizeText(in.Title)
	in.Description = domain.NormalizeText(in.Description)
	if !domain.ValidTypes(in.Types) {
		return in, domain.NewError(domain.CodeInvalidInstanceTypes, "At least one type must be selected",
			map[string]any{"types": in.Types})
	}
	if !domain.ValidDescription(in.Description) {
		return in, domain.NewError(domain.CodeInvalidInstanceDescription, "Instance description too long",
			map[string]any{"max": domain.MaxDescriptionLength})
	}
	return in, nil
}

func indexOfLocation(locs []domain.Location, id string) int {
	return slices.IndexFunc(locs, func(l domain.Location) bool { return l.ID == id })
}

func indexOfInstance(ins []domain.Instance, id string) int {
	return slices.IndexFunc(ins, func(i domain.Instance) bool { return i.ID == id })
}

func invalidLocationName() *domain.Error {
	return domain.NewError(domain.CodeInvalidLocationName, "Invalid location name",
		map[string]any{"max": domain.MaxTitleLength})
}

func invalidCoordinates(c domain.Coordinates) *domain.Error {
	return domain.NewError(domain.CodeInvalidCoordinates, "Coordinates out of range",
		map[string]any{"lat": c.Lat, "lng": c.Lng})
}

func locationNotFound(id string) *domain.Error {
	return domain.NewError(domain.CodeLocationNotFound, "Location not found", map[string]any{"locationId": id})
}

func instanceNotFound(id string) *domain.Error {
	return domain.NewError(domain.CodeInstanceNotFound, "Instance not found", map[string]any{"instanceId": id})
}
