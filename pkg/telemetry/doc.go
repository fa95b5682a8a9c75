// Package telemetry provides observability instrumentation for fitdex.
//
// It integrates structured logging (zerolog), tracing (OpenTelemetry) and
// metrics (Prometheus). The stores never require it: every entry point is
// safe to call on a nil *Telemetry or nil *Metrics.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// # Store operations
//
// Stores wrap each operation so it gets a span and a metric sample:
//
//	err := tel.TrackOperation(ctx, "favorites", "add", func(ctx context.Context) (string, error) {
//	    ...
//	    return telemetry.OutcomeNoop, nil
//	})
//
// # Metrics
//
//   - fitdex_store_operations_total{store,operation,outcome}
//   - fitdex_store_operation_duration_seconds{store,operation}
//   - fitdex_hydrations_total{store,status}
//   - fitdex_favorites
//   - fitdex_signed_in
//   - fitdex_mutation_queue_depth{store}
//   - fitdex_storage_operations_total{backend,operation,outcome}
//   - fitdex_exercise_api_requests_total{outcome}
//
// Exporters: "stdout" (development), "otlp" (collector over gRPC), "none".
package telemetry
