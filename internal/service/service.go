// Package service contains the business logic for the pinlog stores.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// Every mutation reads the whole snapshot, changes it in memory and writes it
// back; a per-service mutex keeps those read-modify-write cycles from
// interleaving inside one process.
package service

import (
	"time"

	"github.com/google/uuid"
)

// Recorder receives the outcome of every store operation.
// *metrics.Metrics satisfies it.
type Recorder interface {
	StorageOp(entity, op string, err error)
}

type nopRecorder struct{}

func (nopRecorder) StorageOp(string, string, error) {}

// Option customizes a service at construction.
type Option func(*options)

type options struct {
	now      func() time.Time
	newID    func() string
	recorder Recorder
	zone     *time.Location
}

func defaultOptions() options {
	return options{
		now:      time.Now,
		newID:    newID,
		recorder: nopRecorder{},
		zone:     time.Local,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the time source used for createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the id generator.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

// WithRecorder reports operation outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithTimeZone sets the zone used to bucket pins by calendar date.
func WithTimeZone(zone *time.Location) Option {
	return func(o *options) {
		if zone != nil {
			o.zone = zone
		}
	}
}

// newID returns a time-ordered UUIDv7, so ids sort roughly by creation.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// stamp returns the current time at the precision snapshots store.
func (o options) stamp() time.Time {
	return o.now().UTC().Truncate(time.Millisecond)
}
