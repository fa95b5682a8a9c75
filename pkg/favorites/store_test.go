package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/fitdex/fitdex/pkg/bootstrap"
	"github.com/fitdex/fitdex/pkg/exercise"
	"github.com/fitdex/fitdex/pkg/fault"
	"github.com/fitdex/fitdex/pkg/storage"
	"github.com/fitdex/fitdex/pkg/telemetry"
)

var errInjected = errors.New("injected storage failure")

// faultyStorage wraps a Store and fails reads or writes on demand.
type faultyStorage struct {
	storage.Store
	failGet atomic.Bool
	failSet atomic.Bool
	sets    atomic.Int32
}

func newFaultyStorage() *faultyStorage {
	return &faultyStorage{Store: storage.NewMemoryStore()}
}

func (f *faultyStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failGet.Load() {
		return nil, false, errInjected
	}
	return f.Store.Get(ctx, key)
}

func (f *faultyStorage) Set(ctx context.Context, key string, value []byte) error {
	f.sets.Add(1)
	if f.failSet.Load() {
		return errInjected
	}
	return f.Store.Set(ctx, key, value)
}

func newTestStore(t *testing.T, kv storage.Store) *Store {
	t.Helper()
	s := New(kv, WithLogger(zerolog.New(nil).Level(zerolog.Disabled)))
	if status := s.Hydrate(context.Background()); status.Degraded() {
		t.Fatalf("unexpected hydration status %s", status)
	}
	return s
}

func pushUp() exercise.Exercise {
	return exercise.Exercise{Name: "Push-up", Type: "strength", Muscle: "chest", Difficulty: "beginner"}
}

func squat() exercise.Exercise {
	return exercise.Exercise{Name: "Squat", Type: "strength", Muscle: "quadriceps", Difficulty: "intermediate"}
}

func TestAddThenContains(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStore())
	ctx := context.Background()

	for _, ex := range []exercise.Exercise{pushUp(), squat()} {
		added, err := s.Add(ctx, ex)
		if err != nil {
			t.Fatalf("failed to add %s: %v", ex.Name, err)
		}
		if !added {
			t.Errorf("expected %s to be added", ex.Name)
		}
		if !s.Contains(ex.Name) {
			t.Errorf("expected store to contain %s", ex.Name)
		}
	}

	list := s.List()
	if len(list) != 2 || list[0].Name != "Push-up" || list[1].Name != "Squat" {
		t.Errorf("expected insertion order, got %v", list)
	}
}

func TestAddDuplicateIsNoop(t *testing.T) {
	kv := newFaultyStorage()
	s := newTestStore(t, kv)
	ctx := context.Background()

	if _, err := s.Add(ctx, pushUp()); err != nil {
		t.Fatalf("failed to add: %v", err)
	}
	writes := kv.sets.Load()

	dup := pushUp()
	dup.Difficulty = "expert"
	added, err := s.Add(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate add returned error: %v", err)
	}
	if added {
		t.Error("expected duplicate add to report false")
	}
	if s.Len() != 1 {
		t.Errorf("expected one entry, got %d", s.Len())
	}
	if s.List()[0].Difficulty != "beginner" {
		t.Error("expected the original record to be kept")
	}
	if kv.sets.Load() != writes {
		t.Error("expected no write for a duplicate")
	}
}

func TestAddRequiresName(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStore())

	_, err := s.Add(context.Background(), exercise.Exercise{Muscle: "chest"})
	if !fault.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if s.Len() != 0 {
		t.Error("expected empty collection")
	}
}

func TestRemoveThenContains(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStore())
	ctx := context.Background()

	_, _ = s.Add(ctx, pushUp())
	_, _ = s.Add(ctx, squat())

	name, err := s.Remove(ctx, "Push-up")
	if err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if name != "Push-up" {
		t.Errorf("expected removed name, got %q", name)
	}
	if s.Contains("Push-up") {
		t.Error("expected Push-up to be gone")
	}
	if !s.Contains("Squat") {
		t.Error("expected Squat to remain")
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	kv := newFaultyStorage()
	s := newTestStore(t, kv)
	ctx := context.Background()

	_, _ = s.Add(ctx, pushUp())
	writes := kv.sets.Load()

	name, err := s.Remove(ctx, "Deadlift")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Deadlift" {
		t.Errorf("expected name to be echoed, got %q", name)
	}
	if s.Len() != 1 {
		t.Errorf("expected collection unchanged, got %d", s.Len())
	}
	if kv.sets.Load() != writes {
		t.Error("expected no write for an unknown name")
	}
}

func TestHydrateReproducesCollection(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := newTestStore(t, kv)
	ctx := context.Background()

	_, _ = s.Add(ctx, pushUp())
	_, _ = s.Add(ctx, squat())
	_, _ = s.Remove(ctx, "Push-up")

	reloaded := New(kv)
	if status := reloaded.Hydrate(ctx); status != bootstrap.StatusLoaded {
		t.Fatalf("expected loaded, got %s", status)
	}

	got, want := reloaded.List(), s.List()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestHydrateStatus(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(*faultyStorage)
		want    bootstrap.Status
		wantLen int
	}{
		{
			name:    "absent",
			prepare: func(*faultyStorage) {},
			want:    bootstrap.StatusEmpty,
		},
		{
			name: "malformed",
			prepare: func(f *faultyStorage) {
				_ = f.Store.Set(ctx, Key, []byte(`{"not":"an array"`))
			},
			want: bootstrap.StatusMalformed,
		},
		{
			name:    "read failure",
			prepare: func(f *faultyStorage) { f.failGet.Store(true) },
			want:    bootstrap.StatusReadFailed,
		},
		{
			name: "duplicates collapsed",
			prepare: func(f *faultyStorage) {
				_ = f.Store.Set(ctx, Key, []byte(`[{"name":"Plank"},{"name":"Plank","type":"cardio"},{"name":"Squat"}]`))
			},
			want:    bootstrap.StatusLoaded,
			wantLen: 2,
		},
		{
			name: "empty array",
			prepare: func(f *faultyStorage) {
				_ = f.Store.Set(ctx, Key, []byte(`[]`))
			},
			want: bootstrap.StatusLoaded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newFaultyStorage()
			tt.prepare(kv)

			s := New(kv)
			if got := s.Hydrate(ctx); got != tt.want {
				t.Errorf("expected status %s, got %s", tt.want, got)
			}
			if s.Status() != tt.want {
				t.Errorf("expected Status() %s, got %s", tt.want, s.Status())
			}
			if s.Len() != tt.wantLen {
				t.Errorf("expected %d items, got %d", tt.wantLen, s.Len())
			}
			if s.Loading() {
				t.Error("expected loading to be false after hydration")
			}
			if s.Err() != nil {
				t.Errorf("hydration must not set an error, got %v", s.Err())
			}
		})
	}
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	kv := newFaultyStorage()
	s := newTestStore(t, kv)
	ctx := context.Background()

	_, _ = s.Add(ctx, pushUp())
	kv.failSet.Store(true)

	added, err := s.Add(ctx, squat())
	if !fault.IsStorageWrite(err) {
		t.Fatalf("expected storage write error, got %v", err)
	}
	if !errors.Is(err, errInjected) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	if added {
		t.Error("expected added to be false")
	}
	if s.Contains("Squat") {
		t.Error("expected failed add to leave the collection unchanged")
	}
	if s.Err() == nil {
		t.Error("expected last error to be recorded")
	}

	if _, err := s.Remove(ctx, "Push-up"); !fault.IsStorageWrite(err) {
		t.Fatalf("expected storage write error on remove, got %v", err)
	}
	if !s.Contains("Push-up") {
		t.Error("expected failed remove to leave the collection unchanged")
	}

	s.ClearError()
	if s.Err() != nil {
		t.Error("expected error to be cleared")
	}

	// Durable state still matches memory.
	kv.failSet.Store(false)
	reloaded := New(kv)
	reloaded.Hydrate(ctx)
	if reloaded.Len() != 1 || !reloaded.Contains("Push-up") {
		t.Errorf("expected durable state to hold only Push-up, got %v", reloaded.List())
	}
}

func TestConcurrentAdds(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := newTestStore(t, kv)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Add(ctx, exercise.Exercise{Name: fmt.Sprintf("exercise-%02d", i)}); err != nil {
				t.Errorf("add %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != n {
		t.Fatalf("expected %d favorites, got %d", n, s.Len())
	}

	reloaded := New(kv)
	reloaded.Hydrate(ctx)
	if reloaded.Len() != n {
		t.Errorf("expected %d persisted favorites, got %d", n, reloaded.Len())
	}
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t, newFaultyStorage())
	ctx := context.Background()

	var events []Event
	cancel := s.Subscribe(func(e Event) {
		// Queries are allowed from a subscriber.
		_ = s.Contains(e.Name)
		events = append(events, e)
	})

	_, _ = s.Add(ctx, pushUp())
	_, _ = s.Add(ctx, pushUp())
	_, _ = s.Remove(ctx, "Push-up")
	cancel()
	_, _ = s.Add(ctx, squat())

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %v", events)
	}
	if events[0].Kind != EventAdded || events[0].Count != 1 {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[1].Kind != EventRemoved || events[1].Name != "Push-up" || events[1].Count != 0 {
		t.Errorf("unexpected second event %+v", events[1])
	}
}

func TestMetricsRecorded(t *testing.T) {
	cfg := telemetry.DefaultConfig()
	cfg.Logging.Level = "error"
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("failed to create telemetry: %v", err)
	}
	defer tel.Shutdown(context.Background())

	s := New(storage.NewMemoryStore(), WithTelemetry(tel))
	ctx := context.Background()
	s.Hydrate(ctx)
	_, _ = s.Add(ctx, pushUp())
	_, _ = s.Add(ctx, pushUp())

	n, err := testutil.GatherAndCount(tel.Metrics.Registry(), "fitdex_store_operations_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n < 3 {
		t.Errorf("expected hydrate, add and noop samples, got %d", n)
	}
}
