package bootstrap_test

import (
	"context"
	"testing"

	"github.com/fitdex/fitdex/pkg/auth"
	"github.com/fitdex/fitdex/pkg/bootstrap"
	"github.com/fitdex/fitdex/pkg/exercise"
	"github.com/fitdex/fitdex/pkg/favorites"
	"github.com/fitdex/fitdex/pkg/storage"
)

// TestInitializeStores hydrates both stores from one backend and checks
// the session is only consulted after both have settled.
func TestInitializeStores(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()

	seedAuth := auth.New(kv)
	seedAuth.Hydrate(ctx)
	if _, err := seedAuth.SignUp(ctx, "Jo", "jo@x.com", "secret1"); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	seedFavs := favorites.New(kv)
	seedFavs.Hydrate(ctx)
	if _, err := seedFavs.Add(ctx, exercise.Exercise{Name: "Plank"}); err != nil {
		t.Fatalf("failed to seed favorite: %v", err)
	}

	authStore := auth.New(kv)
	favStore := favorites.New(kv)
	initializer := bootstrap.New([]bootstrap.Hydrator{authStore, favStore})

	go initializer.Run(ctx)
	report, err := initializer.Wait(ctx)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}

	if !authStore.IsAuthenticated() || authStore.Loading() {
		t.Error("expected restored session after initialization")
	}
	if !favStore.Contains("Plank") {
		t.Error("expected restored favorites after initialization")
	}
	for _, res := range report.Results {
		if res.Status != bootstrap.StatusLoaded {
			t.Errorf("%s: expected loaded, got %s", res.Store, res.Status)
		}
	}
}
