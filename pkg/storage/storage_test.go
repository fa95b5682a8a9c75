package storage

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"github.com/fitdex/fitdex/pkg/telemetry"
)

// testKeyValueContract exercises the behaviour every backend must share.
func testKeyValueContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	// Absent key
	_, found, err := store.Get(ctx, "@user_data")
	if err != nil {
		t.Fatalf("get absent key: %v", err)
	}
	if found {
		t.Fatal("expected absent key to be not found")
	}

	// Set then get
	if err := store.Set(ctx, "@user_data", []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, found, err := store.Get(ctx, "@user_data")
	if err != nil || !found {
		t.Fatalf("get after set: found=%v err=%v", found, err)
	}
	if string(value) != `{"id":"1"}` {
		t.Errorf("expected stored value, got %s", value)
	}

	// Overwrite
	if err := store.Set(ctx, "@user_data", []byte(`{"id":"2"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, _ = store.Get(ctx, "@user_data")
	if string(value) != `{"id":"2"}` {
		t.Errorf("expected overwritten value, got %s", value)
	}

	// Keys
	if err := store.Set(ctx, "@favorites", []byte(`[]`)); err != nil {
		t.Fatalf("set second key: %v", err)
	}
	if lister, ok := store.(KeyLister); ok {
		keys, err := lister.Keys(ctx)
		if err != nil {
			t.Fatalf("keys: %v", err)
		}
		if !reflect.DeepEqual(keys, []string{"@favorites", "@user_data"}) {
			t.Errorf("unexpected keys %v", keys)
		}
	}

	// Remove, twice
	if err := store.Remove(ctx, "@user_data"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, "@user_data"); err != nil {
		t.Fatalf("remove absent key: %v", err)
	}
	if _, found, _ := store.Get(ctx, "@user_data"); found {
		t.Error("expected key to be removed")
	}

	// Removing one key leaves the other
	if _, found, _ := store.Get(ctx, "@favorites"); !found {
		t.Error("expected other key to remain")
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Errorf("health check: %v", err)
	}
}

func TestMemoryKeyValue(t *testing.T) {
	testKeyValueContract(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	in := []byte("abc")
	_ = store.Set(ctx, "k", in)
	in[0] = 'x'

	out, _, _ := store.Get(ctx, "k")
	if string(out) != "abc" {
		t.Errorf("expected stored copy to be unaffected, got %s", out)
	}

	out[1] = 'y'
	again, _, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("expected returned copy to be independent, got %s", again)
	}
}

// TestRedisKeyValue runs against a real server when FITDEX_TEST_REDIS_ADDR is set
func TestRedisKeyValue(t *testing.T) {
	addr := os.Getenv("FITDEX_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FITDEX_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	prefix := "fitdex-test:" + time.Now().Format("150405.000000") + ":"
	store := NewRedisStore(client, prefix)
	t.Cleanup(func() {
		keys, _ := store.Keys(context.Background())
		for _, k := range keys {
			_ = store.Remove(context.Background(), k)
		}
	})

	testKeyValueContract(t, store)
}

func TestRedisStorePrefix(t *testing.T) {
	store := NewRedisStore(nil, "")
	if got := store.key("@favorites"); got != "fitdex:@favorites" {
		t.Errorf("expected default prefix, got %s", got)
	}

	custom := NewRedisStore(nil, "app:")
	if got := custom.key("@user_data"); got != "app:@user_data" {
		t.Errorf("expected custom prefix, got %s", got)
	}
}

func TestNewRedisStoreFromConfigRequiresAddr(t *testing.T) {
	if _, err := NewRedisStoreFromConfig(RedisConfig{}); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := mem.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", mem)
	}

	if _, err := Open(ctx, Config{Driver: "etcd"}); err == nil {
		t.Error("expected error for unsupported driver")
	}

	if _, err := Open(ctx, Config{Driver: DriverSQLite}); err == nil {
		t.Error("expected error for sqlite without path")
	}
}

type listlessStore struct{ Store }

func TestInstrumentedRecordsOperations(t *testing.T) {
	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: true, Namespace: "test"})
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	store := Instrument(NewMemoryStore(), DriverMemory, metrics)
	testKeyValueContract(t, store)

	count, err := testutil.GatherAndCount(metrics.Registry(), "test_storage_operations_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count == 0 {
		t.Error("expected storage operation samples")
	}

	bare := Instrument(listlessStore{NewMemoryStore()}, "custom", metrics)
	if _, err := bare.Keys(context.Background()); !errors.Is(err, ErrKeysUnsupported) {
		t.Errorf("expected ErrKeysUnsupported, got %v", err)
	}
}
