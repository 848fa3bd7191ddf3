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

const entityPin = "pin"

// dateKeyLayout is the bucket key for grouped pins.
const dateKeyLayout = "2006-01-02"

// PinService implements business logic for legacy flat pins.
// Pins are kept for data recorded before locations existed; nothing converts
// them into locations.
type PinService struct {
	repo repo.PinRepo
	log  *slog.Logger
	opts options
	mu   sync.Mutex
}

// NewPinService constructs a PinService backed by the provided PinRepo.
func NewPinService(r repo.PinRepo, log *slog.Logger, opts ...Option) *PinService {
	return &PinService{repo: r, log: log, opts: buildOptions(opts)}
}

// LoadPins returns the stored pins.
func (s *PinService) LoadPins(ctx context.Context) (_ []domain.Pin, err error) {
	ctx, end := tracing.StartSpan(ctx, "pin.load")
	defer func() { end(err) }()

	pins, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.PinService.LoadPins: %w", err)
	}
	s.log.DebugContext(ctx, "loaded pins", "pins", len(pins))
	return pins, nil
}

// SavePins replaces the whole pin snapshot.
func (s *PinService) SavePins(ctx context.Context, pins []domain.Pin) (err error) {
	ctx, end := tracing.StartSpan(ctx, "pin.save")
	defer func() { end(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.save(ctx, "save", pins); err != nil {
		return fmt.Errorf("service.PinService.SavePins: %w", err)
	}
	return nil
}

// AddPin validates and appends a new pin.
func (s *PinService) AddPin(ctx context.Context, in domain.PinInput) (_ domain.Pin, err error) {
	ctx, end := tracing.StartSpan(ctx, "pin.add")
	defer func() { end(err) }()

	p, err := normalizePin(domain.Pin{
		Lat:         in.Lat,
		Lng:         in.Lng,
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Types:       slices.Clone(in.Types),
	})
	if err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.AddPin: %w", err)
	}
	p.ID = s.opts.newID()
	p.CreatedAt = s.opts.stamp()

	s.mu.Lock()
	defer s.mu.Unlock()

	pins, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.AddPin: %w", err)
	}
	if err = s.save(ctx, "add", append(pins, p)); err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.AddPin: %w", err)
	}

	s.log.InfoContext(ctx, "created pin", "id", p.ID, "title", p.Title)
	return p, nil
}

// UpdatePin replaces a stored pin and returns what was stored. A zero
// CreatedAt keeps the stored timestamp.
func (s *PinService) UpdatePin(ctx context.Context, p domain.Pin) (_ domain.Pin, err error) {
	ctx, end := tracing.StartSpan(ctx, "pin.update", attribute.String("pin.id", p.ID))
	defer func() { end(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	pins, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.UpdatePin: %w", err)
	}
	idx := indexOfPin(pins, p.ID)
	if idx == -1 {
		return domain.Pin{}, fmt.Errorf("service.PinService.UpdatePin: %w",
			domain.NewError(domain.CodePinNotFound, "Pin not found", map[string]any{"pinId": p.ID}))
	}
	if p, err = normalizePin(p); err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.UpdatePin: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = pins[idx].CreatedAt
	}
	pins[idx] = p

	if err = s.save(ctx, "update", pins); err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.UpdatePin: %w", err)
	}

	s.log.InfoContext(ctx, "updated pin", "id", p.ID, "title", p.Title)
	return p, nil
}

// DeletePin removes a pin. Deleting an unknown id is logged and otherwise ignored.
func (s *PinService) DeletePin(ctx context.Context, id string) (err error) {
	ctx, end := tracing.StartSpan(ctx, "pin.delete", attribute.String("pin.id", id))
	defer func() { end(err) }()

	if id == "" {
		return fmt.Errorf("service.PinService.DeletePin: %w",
			domain.NewError(domain.CodeInvalidIDs, "Invalid pin ID", nil))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pins, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("service.PinService.DeletePin: %w", err)
	}
	idx := indexOfPin(pins, id)
	if idx == -1 {
		s.log.WarnContext(ctx, "attempted to delete non-existent pin", "id", id)
		return nil
	}
	if err = s.save(ctx, "delete", slices.Delete(pins, idx, idx+1)); err != nil {
		return fmt.Errorf("service.PinService.DeletePin: %w", err)
	}

	s.log.InfoContext(ctx, "deleted pin", "id", id)
	return nil
}

// ClearAllPins removes the whole pin snapshot.
func (s *PinService) ClearAllPins(ctx context.Context) (err error) {
	ctx, end := tracing.StartSpan(ctx, "pin.clear")
	defer func() { end(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	if pins, loadErr := s.repo.Load(ctx); loadErr == nil {
		n = len(pins)
	}
	err = s.repo.Clear(ctx)
	s.opts.recorder.StorageOp(entityPin, "clear", err)
	if err != nil {
		return fmt.Errorf("service.PinService.ClearAllPins: %w", err)
	}

	s.log.InfoContext(ctx, "cleared all pins", "pins", n)
	return nil
}

// ExportPins renders the pin snapshot as indented JSON.
func (s *PinService) ExportPins(ctx context.Context) (string, error) {
	pins, err := s.LoadPins(ctx)
	if err != nil {
		return "", fmt.Errorf("service.PinService.ExportPins: %w", err)
	}
	out, err := repo.EncodePins(pins, true)
	if err != nil {
		return "", fmt.Errorf("service.PinService.ExportPins: %w",
			domain.WrapError(domain.CodeStorageLoadError, "Failed to export pins", err))
	}
	return out, nil
}

// ImportPins replaces the pin snapshot with a previously exported document.
// Nothing is written unless the whole document is valid.
func (s *PinService) ImportPins(ctx context.Context, data string) (_ []domain.Pin, err error) {
	ctx, end := tracing.StartSpan(ctx, "pin.import")
	defer func() { end(err) }()

	res := CheckPinImport(data)
	if !res.OK() {
		s.log.ErrorContext(ctx, "failed to import pins", "problems", res.Problems)
		s.opts.recorder.StorageOp(entityPin, "import", domain.ErrValidation)
		return nil, fmt.Errorf("service.PinService.ImportPins: %w",
			domain.NewError(domain.CodeInvalidImportData, "Invalid pin data format",
				map[string]any{"problems": res.Problems}))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.save(ctx, "import", res.Pins); err != nil {
		return nil, fmt.Errorf("service.PinService.ImportPins: %w", err)
	}
	s.log.InfoContext(ctx, "imported pins", "pins", len(res.Pins))
	return res.Pins, nil
}

// GetPinsByDate returns pins ordered by creation time; ties keep stored order.
func (s *PinService) GetPinsByDate(ctx context.Context, ascending bool) ([]domain.Pin, error) {
	pins, err := s.LoadPins(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.PinService.GetPinsByDate: %w", err)
	}
	slices.SortStableFunc(pins, func(a, b domain.Pin) int {
		if ascending {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return pins, nil
}

// GetPinsByDateGrouped buckets pins by local calendar date. Buckets are
// ordered most recent first and pins inside a bucket newest first.
func (s *PinService) GetPinsByDateGrouped(ctx context.Context) ([]domain.DateGroup, error) {
	pins, err := s.GetPinsByDate(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("service.PinService.GetPinsByDateGrouped: %w", err)
	}
	groups := []domain.DateGroup{}
	index := map[string]int{}
	for _, p := range pins {
		key := p.CreatedAt.In(s.opts.zone).Format(dateKeyLayout)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.DateGroup{Date: key})
		}
		groups[i].Pins = append(groups[i].Pins, p)
	}
	return groups, nil
}

func (s *PinService) save(ctx context.Context, op string, pins []domain.Pin) error {
	err := s.repo.Save(ctx, pins)
	s.opts.recorder.StorageOp(entityPin, op, err)
	if err == nil {
		s.log.DebugContext(ctx, "saved pins", "op", op, "pins", len(pins))
	}
	return err
}

// normalizePin trims text fields and validates title, description and types.
func normalizePin(p domain.Pin) (domain.Pin, error) {
	p.Title = domain.NormalizeText(p.Title)
	p.Description = domain.NormalizeText(p.Description)
	if !domain.ValidName(p.Title) {
		return p, domain.NewError(domain.CodeInvalidPinTitle, "Invalid pin title",
			map[string]any{"max": domain.MaxTitleLength})
	}
	if !domain.ValidDescription(p.Description) {
		return p, domain.NewError(domain.CodeInvalidPinDescription, "Pin description too long",
			map[string]any{"max": domain.MaxDescriptionLength})
	}
	if !(domain.Coordinates{Lat: p.Lat, Lng: p.Lng}).Valid() {
		return p, invalidCoordinates(domain.Coordinates{Lat: p.Lat, Lng: p.Lng})
	}
	typ, types, ok := resolvePinTypes(p.Type, p.Types)
	if !ok {
		return p, domain.NewError(domain.CodeInvalidPinType, "Invalid pin type",
			map[string]any{"type": p.Type, "types": p.Types})
	}
	p.Type, p.Types = typ, types
	return p, nil
}

// resolvePinTypes applies the primary-type rule: typ must be known, or empty
// with a non-empty types list whose first entry becomes the primary type.
// Every entry in types must be known.
func resolvePinTypes(typ string, types []string) (string, []string, bool) {
	for _, t := range types {
		if !domain.IsValidPinType(t) {
			return "", nil, false
		}
	}
	if typ == "" {
		if len(types) == 0 {
			return "", nil, false
		}
		typ = types[0]
	}
	if !domain.IsValidPinType(typ) {
		return "", nil, false
	}
	if len(types) == 0 {
		types = nil
	}
	return typ, types, true
}

func indexOfPin(pins []domain.Pin, id string) int {
	return slices.IndexFunc(pins, func(p domain.Pin) bool { return p.ID == id })
}
