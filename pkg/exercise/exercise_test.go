package exercise

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCatalogSizes(t *testing.T) {
	if len(Muscles) != 16 {
		t.Errorf("expected 16 muscle groups, got %d", len(Muscles))
	}
	if len(Types) != 7 {
		t.Errorf("expected 7 exercise types, got %d", len(Types))
	}
	if len(Difficulties) != 3 {
		t.Errorf("expected 3 difficulty levels, got %d", len(Difficulties))
	}
}

func TestCatalogLookup(t *testing.T) {
	tests := []struct {
		catalog Catalog
		value   string
		wantID  string
		found   bool
	}{
		{Muscles, "biceps", "biceps", true},
		{Muscles, "Lower Back", "lower_back", true},
		{Muscles, " LATS ", "lats", true},
		{Types, "olympic_weightlifting", "olympic_weightlifting", true},
		{Difficulties, "Expert", "expert", true},
		{Difficulties, "godlike", "", false},
	}

	for _, tt := range tests {
		cat, ok := tt.catalog.Lookup(tt.value)
		if ok != tt.found {
			t.Errorf("Lookup(%q) found = %v, want %v", tt.value, ok, tt.found)
			continue
		}
		if cat.ID != tt.wantID {
			t.Errorf("Lookup(%q) = %q, want %q", tt.value, cat.ID, tt.wantID)
		}
	}
}

func TestCatalogNormalize(t *testing.T) {
	id, err := Types.Normalize("type", "")
	if err != nil || id != "" {
		t.Errorf("expected empty value to pass through, got %q %v", id, err)
	}

	id, err = Types.Normalize("type", "Strength")
	if err != nil || id != "strength" {
		t.Errorf("expected strength, got %q %v", id, err)
	}

	_, err = Types.Normalize("type", "yoga")
	if err == nil || !strings.Contains(err.Error(), "unknown type") {
		t.Errorf("expected unknown type error, got %v", err)
	}
}

func TestExerciseJSON(t *testing.T) {
	raw := `{"name":"Incline Hammer Curls","type":"strength","muscle":"biceps","equipment":"dumbbell","difficulty":"beginner","instructions":"Curl."}`

	var ex Exercise
	if err := json.Unmarshal([]byte(raw), &ex); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if ex.Key() != "Incline Hammer Curls" || ex.Equipment != "dumbbell" {
		t.Errorf("unexpected exercise %+v", ex)
	}

	if got := ex.Summary(); got != "Incline Hammer Curls (biceps, strength, beginner)" {
		t.Errorf("unexpected summary %q", got)
	}
	if got := (Exercise{Name: "Plank"}).Summary(); got != "Plank" {
		t.Errorf("unexpected bare summary %q", got)
	}
}
