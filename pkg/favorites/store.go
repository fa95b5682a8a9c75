// Package favorites keeps the user's favorite exercises in memory and
// mirrors every change to durable storage under a single key.
package favorites

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fitdex/fitdex/pkg/bootstrap"
	"github.com/fitdex/fitdex/pkg/exercise"
	"github.com/fitdex/fitdex/pkg/fault"
	"github.com/fitdex/fitdex/pkg/notify"
	"github.com/fitdex/fitdex/pkg/serial"
	"github.com/fitdex/fitdex/pkg/storage"
	"github.com/fitdex/fitdex/pkg/telemetry"
)

// Key is the storage key holding the JSON array of favorites.
const Key = "@favorites"

const storeName = "favorites"

// EventKind names a change to the collection.
type EventKind string

const (
	EventHydrated EventKind = "hydrated"
	EventAdded    EventKind = "added"
	EventRemoved  EventKind = "removed"
	EventFailed   EventKind = "failed"
)

// Event is published after each committed change, and after a failed mutation.
type Event struct {
	Kind EventKind
	// Name is the exercise added or removed.
	Name string
	// Count is the collection size after the event.
	Count int
	// Err is set for EventFailed.
	Err error
}

// Store is the favorites collection. All methods are safe for concurrent use.
// Hydrate and the mutating operations run one at a time in call order.
type Store struct {
	storage storage.Store
	queue   *serial.Queue
	hub     *notify.Hub[Event]
	logger  zerolog.Logger
	tel     *telemetry.Telemetry

	mu      sync.RWMutex
	items   []exercise.Exercise
	loading bool
	err     error
	status  bootstrap.Status
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The store logs under component=favorites.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger.With().Str("component", storeName).Logger()
	}
}

// WithTelemetry enables metrics and tracing for store operations.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(s *Store) { s.tel = tel }
}

// New creates an empty store backed by kv. Call Hydrate to load saved favorites.
func New(kv storage.Store, opts ...Option) *Store {
	s := &Store{
		storage: kv,
		hub:     notify.NewHub[Event](),
		logger:  zerolog.Nop(),
		status:  bootstrap.StatusPending,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = serial.New(serial.WithDepthFunc(func(depth int) {
		s.tel.MetricsOrNil().SetQueueDepth(storeName, depth)
	}))
	return s
}

// Name identifies the store to the initializer.
func (s *Store) Name() string { return storeName }

// Hydrate replaces the collection with the persisted snapshot. A missing,
// unreadable or malformed snapshot leaves the collection empty; the failure
// is logged and reflected in the returned status, never returned as an error.
func (s *Store) Hydrate(ctx context.Context) bootstrap.Status {
	status := bootstrap.StatusReadFailed

	_ = s.tel.TrackOperation(ctx, storeName, "hydrate", func(ctx context.Context) (string, error) {
		err := s.queue.Do(ctx, func(ctx context.Context) error {
			s.mu.Lock()
			s.loading = true
			s.mu.Unlock()

			items, st := s.load(ctx)

			s.mu.Lock()
			s.items = items
			s.loading = false
			s.status = st
			s.mu.Unlock()

			status = st
			s.publish(Event{Kind: EventHydrated, Count: len(items)})
			return nil
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("Hydration abandoned")
			s.mu.Lock()
			s.loading = false
			s.status = status
			s.mu.Unlock()
		}
		return telemetry.OutcomeOK, nil
	})

	s.tel.MetricsOrNil().RecordHydration(storeName, status.String())
	s.tel.MetricsOrNil().SetFavoritesCount(s.Len())
	return status
}

func (s *Store) load(ctx context.Context) ([]exercise.Exercise, bootstrap.Status) {
	raw, found, err := s.storage.Get(ctx, Key)
	if err != nil {
		s.logger.Error().Err(fault.NewStorageReadError("favorites.hydrate", Key, err)).
			Msg("Failed to load favorites, starting empty")
		return nil, bootstrap.StatusReadFailed
	}
	if !found {
		s.logger.Debug().Msg("No saved favorites")
		return nil, bootstrap.StatusEmpty
	}

	var items []exercise.Exercise
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Error().Err(err).Str("key", Key).Msg("Saved favorites are malformed, starting empty")
		return nil, bootstrap.StatusMalformed
	}

	items = dedupe(items)
	s.logger.Debug().Int("count", len(items)).Msg("Favorites loaded")
	return items, bootstrap.StatusLoaded
}

// dedupe drops repeated names, keeping the first occurrence.
func dedupe(items []exercise.Exercise) []exercise.Exercise {
	seen := make(map[string]struct{}, len(items))
	out := make([]exercise.Exercise, 0, len(items))
	for _, ex := range items {
		if _, ok := seen[ex.Key()]; ok {
			continue
		}
		seen[ex.Key()] = struct{}{}
		out = append(out, ex)
	}
	return out
}

// Add appends ex unless an exercise with the same name is already present.
// It reports whether the collection changed. A duplicate is not an error
// and performs no write. When persisting fails the collection is unchanged
// and a storage write error is returned.
func (s *Store) Add(ctx context.Context, ex exercise.Exercise) (bool, error) {
	if ex.Name == "" {
		err := fault.NewValidationError("favorites.add", "exercise name is required", nil)
		s.fail(err)
		return false, err
	}

	var added bool
	err := s.tel.TrackOperation(ctx, storeName, "add", func(ctx context.Context) (string, error) {
		err := s.queue.Do(ctx, func(ctx context.Context) error {
			s.clearErr()

			s.mu.RLock()
			current := s.items
			dup := indexOf(current, ex.Name) >= 0
			s.mu.RUnlock()

			if dup {
				return nil
			}

			next := make([]exercise.Exercise, len(current), len(current)+1)
			copy(next, current)
			next = append(next, ex)

			if err := s.persist(ctx, "favorites.add", next); err != nil {
				return err
			}

			s.mu.Lock()
			s.items = next
			s.mu.Unlock()

			added = true
			s.publish(Event{Kind: EventAdded, Name: ex.Name, Count: len(next)})
			return nil
		})
		if err != nil {
			return "", err
		}
		if !added {
			return telemetry.OutcomeNoop, nil
		}
		return telemetry.OutcomeOK, nil
	})
	if err != nil {
		s.fail(err)
		return false, err
	}

	if added {
		s.logger.Info().Str("exercise", ex.Name).Msg("Favorite added")
		s.tel.MetricsOrNil().SetFavoritesCount(s.Len())
	}
	return added, nil
}

// Remove deletes the exercise called name and returns name. Removing a
// name that is not present succeeds without writing.
func (s *Store) Remove(ctx context.Context, name string) (string, error) {
	err := s.tel.TrackOperation(ctx, storeName, "remove", func(ctx context.Context) (string, error) {
		removed := false
		err := s.queue.Do(ctx, func(ctx context.Context) error {
			s.clearErr()

			s.mu.RLock()
			current := s.items
			s.mu.RUnlock()

			if indexOf(current, name) < 0 {
				return nil
			}

			next := make([]exercise.Exercise, 0, len(current))
			for _, ex := range current {
				if ex.Name != name {
					next = append(next, ex)
				}
			}

			if err := s.persist(ctx, "favorites.remove", next); err != nil {
				return err
			}

			s.mu.Lock()
			s.items = next
			s.mu.Unlock()

			removed = true
			s.publish(Event{Kind: EventRemoved, Name: name, Count: len(next)})
			return nil
		})
		if err != nil {
			return "", err
		}
		if !removed {
			return telemetry.OutcomeNoop, nil
		}
		s.logger.Info().Str("exercise", name).Msg("Favorite removed")
		return telemetry.OutcomeOK, nil
	})
	if err != nil {
		s.fail(err)
		return "", err
	}

	s.tel.MetricsOrNil().SetFavoritesCount(s.Len())
	return name, nil
}

func (s *Store) persist(ctx context.Context, op string, items []exercise.Exercise) error {
	if items == nil {
		items = []exercise.Exercise{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fault.NewStorageWriteError(op, Key, err)
	}
	if err := s.storage.Set(ctx, Key, raw); err != nil {
		return fault.NewStorageWriteError(op, Key, err)
	}
	return nil
}

func indexOf(items []exercise.Exercise, name string) int {
	for i, ex := range items {
		if ex.Name == name {
			return i
		}
	}
	return -1
}

// Contains reports whether an exercise called name is in the collection.
func (s *Store) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.items, name) >= 0
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []exercise.Exercise {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]exercise.Exercise, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Loading reports whether a hydration is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error of the last failed mutation, if any.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// ClearError forgets the last error.
func (s *Store) ClearError() {
	s.clearErr()
}

// Status returns the outcome of the last hydration.
func (s *Store) Status() bootstrap.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Subscribe registers fn for change notifications and returns a cancel
// function. fn runs on the goroutine that made the change while the store
// is still busy with it, so fn must not call Hydrate, Add or Remove.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	return s.hub.Subscribe(fn)
}

func (s *Store) clearErr() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	s.err = err
	count := len(s.items)
	s.mu.Unlock()

	s.logger.Error().Err(err).Msg("Favorites operation failed")
	s.hub.Publish(Event{Kind: EventFailed, Err: err, Count: count})
}

func (s *Store) publish(e Event) {
	s.hub.Publish(e)
}
