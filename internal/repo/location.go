package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shumpiss/pinlog/internal/domain"
	"github.com/shumpiss/pinlog/internal/kv"
)

// LocationRepo defines the persistence operations for the location snapshot.
// The service layer depends on this interface, not the concrete implementation,
// which allows the service to be unit-tested with a mock.
type LocationRepo interface {
	// Load returns the stored locations, or an empty slice when nothing is stored.
	// Returns a LOCATIONS_LOAD_ERROR when the store fails or the data is malformed.
	Load(ctx context.Context) ([]domain.Location, error)

	// Save replaces the stored snapshot with locs in a single write.
	// Returns a LOCATIONS_SAVE_ERROR on failure.
	Save(ctx context.Context, locs []domain.Location) error

	// Clear removes the snapshot entirely.
	Clear(ctx context.Context) error
}

// kvLocationRepo is the item-store implementation of LocationRepo.
type kvLocationRepo struct {
	store kv.Store
	log   *slog.Logger
}

// NewLocationRepo constructs a LocationRepo backed by store.
func NewLocationRepo(store kv.Store, log *slog.Logger) LocationRepo {
	return &kvLocationRepo{store: store, log: log}
}

func (r *kvLocationRepo) Load(ctx context.Context) ([]domain.Location, error) {
	data, ok, err := r.store.Get(ctx, LocationsKey)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to read locations", "key", LocationsKey, "error", err)
		return nil, fmt.Errorf("repo.LocationRepo.Load: %w",
			domain.WrapError(domain.CodeLocationsLoadError, "Failed to load locations", err))
	}
	if !ok || data == "" {
		return []domain.Location{}, nil
	}
	locs, err := DecodeLocations(data)
	if err != nil {
		r.log.ErrorContext(ctx, "stored locations are malformed", "key", LocationsKey, "bytes", len(data), "error", err)
		return nil, fmt.Errorf("repo.LocationRepo.Load: %w",
			domain.WrapError(domain.CodeLocationsLoadError, "Failed to load locations", err))
	}
	return locs, nil
}

func (r *kvLocationRepo) Save(ctx context.Context, locs []domain.Location) error {
	data, err := EncodeLocations(locs, false)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to encode locations", "count", len(locs), "error", err)
		return fmt.Errorf("repo.LocationRepo.Save: %w",
			domain.WrapError(domain.CodeLocationsSaveError, "Failed to save locations", err))
	}
	if err := r.store.Set(ctx, LocationsKey, data); err != nil {
		r.log.ErrorContext(ctx, "failed to write locations", "key", LocationsKey, "count", len(locs), "error", err)
		return fmt.Errorf("repo.LocationRepo.Save: %w",
			domain.WrapError(domain.CodeLocationsSaveError, "Failed to save locations", err))
	}
	writeVersion(ctx, r.store, r.log)
	return nil
}

func (r *kvLocationRepo) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, LocationsKey); err != nil {
		r.log.ErrorContext(ctx, "failed to clear locations", "key", LocationsKey, "error", err)
		return fmt.Errorf("repo.LocationRepo.Clear: %w",
			domain.WrapError(domain.CodeLocationsSaveError, "Failed to clear locations", err))
	}
	return nil
}

// writeVersion records the storage schema version. A failure here does not
// fail the save that triggered it; the snapshot itself is already written.
func writeVersion(ctx context.Context, store kv.Store, log *slog.Logger) {
	if err := store.Set(ctx, VersionKey, strconv.Itoa(domain.StorageVersion)); err != nil {
		log.WarnContext(ctx, "failed to write storage version", "key", VersionKey, "error", err)
	}
}

// StoredVersion returns the version marker, or 0 when none has been written.
func StoredVersion(ctx context.Context, store kv.Store) (int, error) {
	v, ok, err := store.Get(ctx, VersionKey)
	if err != nil {
		return 0, fmt.Errorf("repo.StoredVersion: %w", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("repo.StoredVersion: parse %q: %w", v, err)
	}
	return n, nil
}
