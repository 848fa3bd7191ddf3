package repo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shumpiss/pinlog/internal/domain"
	"github.com/shumpiss/pinlog/internal/kv"
)

// PinRepo defines the persistence operations for the legacy pin snapshot.
type PinRepo interface {
	// Load returns the stored pins, or an empty slice when nothing is stored.
	// Returns a STORAGE_LOAD_ERROR when the store fails or the data is malformed.
	Load(ctx context.Context) ([]domain.Pin, error)

	// Save replaces the stored snapshot. Returns a STORAGE_SAVE_ERROR on failure.
	Save(ctx context.Context, pins []domain.Pin) error

	// Clear removes the snapshot entirely.
	Clear(ctx context.Context) error
}

type kvPinRepo struct {
	store kv.Store
	log   *slog.Logger
}

// NewPinRepo constructs a PinRepo backed by store.
func NewPinRepo(store kv.Store, log *slog.Logger) PinRepo {
	return &kvPinRepo{store: store, log: log}
}

func (r *kvPinRepo) Load(ctx context.Context) ([]domain.Pin, error) {
	data, ok, err := r.store.Get(ctx, PinsKey)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to read pins", "key", PinsKey, "error", err)
		return nil, fmt.Errorf("repo.PinRepo.Load: %w",
			domain.WrapError(domain.CodeStorageLoadError, "Failed to load pins", err))
	}
	if !ok || data == "" {
		return []domain.Pin{}, nil
	}
	pins, err := DecodePins(data)
	if err != nil {
		r.log.ErrorContext(ctx, "stored pins are malformed", "key", PinsKey, "bytes", len(data), "error", err)
		return nil, fmt.Errorf("repo.PinRepo.Load: %w",
			domain.WrapError(domain.CodeStorageLoadError, "Failed to load pins", err))
	}
	return pins, nil
}

func (r *kvPinRepo) Save(ctx context.Context, pins []domain.Pin) error {
	data, err := EncodePins(pins, false)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to encode pins", "count", len(pins), "error", err)
		return fmt.Errorf("repo.PinRepo.Save: %w",
			domain.WrapError(domain.CodeStorageSaveError, "Failed to save pins", err))
	}
	if err := r.store.Set(ctx, PinsKey, data); err != nil {
		r.log.ErrorContext(ctx, "failed to write pins", "key", PinsKey, "count", len(pins), "error", err)
		return fmt.Errorf("repo.PinRepo.Save: %w",
			domain.WrapError(domain.CodeStorageSaveError, "Failed to save pins", err))
	}
	writeVersion(ctx, r.store, r.log)
	return nil
}

func (r *kvPinRepo) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, PinsKey); err != nil {
		r.log.ErrorContext(ctx, "failed to clear pins", "key", PinsKey, "error", err)
		return fmt.Errorf("repo.PinRepo.Clear: %w",
			domain.WrapError(domain.CodeStorageSaveError, "Failed to clear pins", err))
	}
	return nil
}
