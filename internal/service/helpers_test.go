package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shumpiss/pinlog/internal/domain"
	"github.com/shumpiss/pinlog/internal/kv"
	"github.com/shumpiss/pinlog/internal/logging"
	"github.com/shumpiss/pinlog/internal/repo"
	"github.com/shumpiss/pinlog/internal/service"
)

// mockLocationRepo is a hand-written test double for repo.LocationRepo.
// Each method is a function field; set only the ones your test needs.
type mockLocationRepo struct {
	load  func(ctx context.Context) ([]domain.Location, error)
	save  func(ctx context.Context, locs []domain.Location) error
	clear func(ctx context.Context) error
}

func (m *mockLocationRepo) Load(ctx context.Context) ([]domain.Location, error) { return m.load(ctx) }
func (m *mockLocationRepo) Save(ctx context.Context, locs []domain.Location) error {
	return m.save(ctx, locs)
}
func (m *mockLocationRepo) Clear(ctx context.Context) error { return m.clear(ctx) }

// compile-time check: mockLocationRepo must satisfy repo.LocationRepo.
var _ repo.LocationRepo = (*mockLocationRepo)(nil)

// fakeRecorder remembers every reported operation as "entity.op:result".
type fakeRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (f *fakeRecorder) StorageOp(entity, op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := "ok"
	if err != nil {
		result = "error"
	}
	f.ops = append(f.ops, entity+"."+op+":"+result)
}

// fixedClock returns a clock that advances one minute on every call,
// starting at start.
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Minute)
		return t
	}
}

// sequentialIDs returns "id-1", "id-2", ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var testStart = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

// newLocationService wires a LocationService over an in-memory item store.
func newLocationService(opts ...service.Option) (*service.LocationService, kv.Store) {
	store := kv.NewMemory()
	opts = append([]service.Option{
		service.WithClock(fixedClock(testStart)),
		service.WithIDGenerator(sequentialIDs()),
	}, opts...)
	return service.NewLocationService(repo.NewLocationRepo(store, logging.Discard()), logging.Discard(), opts...), store
}

func newPinService(opts ...service.Option) (*service.PinService, kv.Store) {
	store := kv.NewMemory()
	opts = append([]service.Option{
		service.WithClock(fixedClock(testStart)),
		service.WithIDGenerator(sequentialIDs()),
		service.WithTimeZone(time.UTC),
	}, opts...)
	return service.NewPinService(repo.NewPinRepo(store, logging.Discard()), logging.Discard(), opts...), store
}
