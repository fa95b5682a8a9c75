package storage

import (
	"context"

	"github.com/fitdex/fitdex/pkg/telemetry"
)

// Instrumented records every operation of an underlying Store.
type Instrumented struct {
	Store
	backend string
	metrics *telemetry.Metrics
}

// Instrument wraps store so each call is counted and timed under backend.
func Instrument(store Store, backend string, metrics *telemetry.Metrics) *Instrumented {
	return &Instrumented{Store: store, backend: backend, metrics: metrics}
}

// Get records and delegates.
func (s *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	timer := telemetry.NewTimer()
	value, found, err := s.Store.Get(ctx, key)
	s.metrics.RecordStorageOperation(s.backend, "get", err, timer.Duration())
	return value, found, err
}

// Set records and delegates.
func (s *Instrumented) Set(ctx context.Context, key string, value []byte) error {
	timer := telemetry.NewTimer()
	err := s.Store.Set(ctx, key, value)
	s.metrics.RecordStorageOperation(s.backend, "set", err, timer.Duration())
	return err
}

// Remove records and delegates.
func (s *Instrumented) Remove(ctx context.Context, key string) error {
	timer := telemetry.NewTimer()
	err := s.Store.Remove(ctx, key)
	s.metrics.RecordStorageOperation(s.backend, "remove", err, timer.Duration())
	return err
}

// Keys delegates when the underlying store can list keys.
func (s *Instrumented) Keys(ctx context.Context) ([]string, error) {
	lister, ok := s.Store.(KeyLister)
	if !ok {
		return nil, ErrKeysUnsupported
	}
	return lister.Keys(ctx)
}
