// Package bootstrap hydrates the application stores at startup and gates
// the rest of the program on their completion.
package bootstrap

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fitdex/fitdex/pkg/telemetry"
)

// Hydrator is a store that can restore its state from durable storage.
// Hydrate never fails outward; it reports how the load went.
type Hydrator interface {
	Name() string
	Hydrate(ctx context.Context) Status
}

// Result is the outcome of one store's hydration.
type Result struct {
	Store    string        `json:"store"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
}

// Report collects the results of a Run, ordered by store name.
type Report struct {
	Results  []Result      `json:"results"`
	Duration time.Duration `json:"duration"`
}

// Status returns the hydration status of the named store.
func (r Report) Status(store string) (Status, bool) {
	for _, res := range r.Results {
		if res.Store == store {
			return res.Status, true
		}
	}
	return "", false
}

// Degraded returns the stores that started empty because of a failure.
func (r Report) Degraded() []string {
	var names []string
	for _, res := range r.Results {
		if res.Status.Degraded() {
			names = append(names, res.Store)
		}
	}
	return names
}

// Initializer runs every registered Hydrator concurrently, once.
type Initializer struct {
	hydrators []Hydrator
	logger    zerolog.Logger
	tel       *telemetry.Telemetry

	once   sync.Once
	ready  chan struct{}
	report Report
}

// Option configures an Initializer.
type Option func(*Initializer)

// WithLogger sets the logger. The initializer logs under component=bootstrap.
func WithLogger(logger zerolog.Logger) Option {
	return func(i *Initializer) {
		i.logger = logger.With().Str("component", "bootstrap").Logger()
	}
}

// WithTelemetry traces the initialization.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(i *Initializer) { i.tel = tel }
}

// New creates an initializer for hydrators.
func New(hydrators []Hydrator, opts ...Option) *Initializer {
	i := &Initializer{
		hydrators: hydrators,
		logger:    zerolog.Nop(),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run hydrates all stores concurrently and returns when every one has
// settled. Only the first call does the work; later calls wait for it and
// return the same report.
func (i *Initializer) Run(ctx context.Context) Report {
	i.once.Do(func() {
		defer close(i.ready)
		i.report = i.run(ctx)
	})
	<-i.ready
	return i.report
}

func (i *Initializer) run(ctx context.Context) Report {
	if i.tel != nil {
		ctx = i.tel.WithContext(ctx)
	}
	op := telemetry.StartOperation(ctx, "bootstrap.run")
	defer op.End(nil)
	ctx = op.Ctx

	start := time.Now()
	results := make([]Result, len(i.hydrators))

	g, gctx := errgroup.WithContext(ctx)
	for idx, h := range i.hydrators {
		idx, h := idx, h
		g.Go(func() error {
			t := time.Now()
			status := h.Hydrate(gctx)
			results[idx] = Result{Store: h.Name(), Status: status, Duration: time.Since(t)}

			event := i.logger.Debug()
			if status.Degraded() {
				event = i.logger.Warn()
			}
			event.Str("store", h.Name()).
				Str("status", status.String()).
				Dur("duration", results[idx].Duration).
				Msg("Store hydrated")
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].Store < results[b].Store })
	report := Report{Results: results, Duration: time.Since(start)}

	i.logger.Info().
		Int("stores", len(results)).
		Dur("duration", report.Duration).
		Msg("Stores initialized")
	return report
}

// Ready is closed once Run has completed.
func (i *Initializer) Ready() <-chan struct{} {
	return i.ready
}

// Wait blocks until Run has completed or ctx is done.
func (i *Initializer) Wait(ctx context.Context) (Report, error) {
	select {
	case <-i.ready:
		return i.report, nil
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}
