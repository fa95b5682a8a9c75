package bootstrap

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeHydrator struct {
	name    string
	status  Status
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newFakeHydrator(name string, status Status) *fakeHydrator {
	return &fakeHydrator{
		name:    name,
		status:  status,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *fakeHydrator) Name() string { return f.name }

func (f *fakeHydrator) Hydrate(ctx context.Context) Status {
	if f.calls.Add(1) == 1 {
		close(f.started)
	}
	select {
	case <-f.release:
	case <-ctx.Done():
		return StatusReadFailed
	}
	return f.status
}

func TestRunHydratesConcurrently(t *testing.T) {
	auth := newFakeHydrator("auth", StatusLoaded)
	favs := newFakeHydrator("favorites", StatusEmpty)
	initializer := New([]Hydrator{favs, auth})

	done := make(chan Report)
	go func() { done <- initializer.Run(context.Background()) }()

	// Both start before either is released.
	for _, h := range []*fakeHydrator{auth, favs} {
		select {
		case <-h.started:
		case <-time.After(time.Second):
			t.Fatalf("%s did not start concurrently", h.name)
		}
	}

	select {
	case <-initializer.Ready():
		t.Fatal("ready before hydrators settled")
	default:
	}

	close(auth.release)
	select {
	case <-initializer.Ready():
		t.Fatal("ready with one hydrator outstanding")
	case <-time.After(20 * time.Millisecond):
	}
	close(favs.release)

	report := <-done
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %v", report.Results)
	}
	if report.Results[0].Store != "auth" || report.Results[1].Store != "favorites" {
		t.Errorf("expected results ordered by name, got %v", report.Results)
	}
	if st, _ := report.Status("favorites"); st != StatusEmpty {
		t.Errorf("expected favorites empty, got %s", st)
	}
	if len(report.Degraded()) != 0 {
		t.Errorf("expected no degraded stores, got %v", report.Degraded())
	}
}

func TestRunIsIdempotent(t *testing.T) {
	h := newFakeHydrator("favorites", StatusLoaded)
	close(h.release)
	initializer := New([]Hydrator{h})

	first := initializer.Run(context.Background())
	second := initializer.Run(context.Background())

	if h.calls.Load() != 1 {
		t.Errorf("expected one hydration, got %d", h.calls.Load())
	}
	if len(first.Results) != 1 || len(second.Results) != 1 {
		t.Errorf("expected identical reports, got %v and %v", first, second)
	}
}

func TestWait(t *testing.T) {
	h := newFakeHydrator("auth", StatusMalformed)
	initializer := New([]Hydrator{h})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := initializer.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded before Run, got %v", err)
	}

	close(h.release)
	go initializer.Run(context.Background())

	report, err := initializer.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := report.Degraded(); len(got) != 1 || got[0] != "auth" {
		t.Errorf("expected auth degraded, got %v", got)
	}
}

func TestStatusDegraded(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusPending:    false,
		StatusLoaded:     false,
		StatusEmpty:      false,
		StatusReadFailed: true,
		StatusMalformed:  true,
	} {
		if status.Degraded() != want {
			t.Errorf("%s.Degraded() = %v, want %v", status, !want, want)
		}
	}
}
