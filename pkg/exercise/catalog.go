package exercise

import (
	"fmt"
	"strings"
)

// Category is one browse option: the API filter value and a display name.
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Catalog is an ordered list of browse options for one filter.
type Catalog []Category

// Muscles lists the muscle groups accepted by the muscle filter.
var Muscles = Catalog{
	{ID: "abdominals", Name: "Abdominals"},
	{ID: "abductors", Name: "Abductors"},
	{ID: "adductors", Name: "Adductors"},
	{ID: "biceps", Name: "Biceps"},
	{ID: "calves", Name: "Calves"},
	{ID: "chest", Name: "Chest"},
	{ID: "forearms", Name: "Forearms"},
	{ID: "glutes", Name: "Glutes"},
	{ID: "hamstrings", Name: "Hamstrings"},
	{ID: "lats", Name: "Lats"},
	{ID: "lower_back", Name: "Lower Back"},
	{ID: "middle_back", Name: "Middle Back"},
	{ID: "neck", Name: "Neck"},
	{ID: "quadriceps", Name: "Quadriceps"},
	{ID: "traps", Name: "Traps"},
	{ID: "triceps", Name: "Triceps"},
}

// Types lists the exercise types accepted by the type filter.
var Types = Catalog{
	{ID: "cardio", Name: "Cardio"},
	{ID: "olympic_weightlifting", Name: "Olympic Weightlifting"},
	{ID: "plyometrics", Name: "Plyometrics"},
	{ID: "powerlifting", Name: "Powerlifting"},
	{ID: "strength", Name: "Strength"},
	{ID: "stretching", Name: "Stretching"},
	{ID: "strongman", Name: "Strongman"},
}

// Difficulties lists the levels accepted by the difficulty filter.
var Difficulties = Catalog{
	{ID: "beginner", Name: "Beginner"},
	{ID: "intermediate", Name: "Intermediate"},
	{ID: "expert", Name: "Expert"},
}

// Lookup finds a category by ID or display name, case-insensitively.
func (c Catalog) Lookup(value string) (Category, bool) {
	v := strings.TrimSpace(value)
	for _, cat := range c {
		if strings.EqualFold(cat.ID, v) || strings.EqualFold(cat.Name, v) {
			return cat, true
		}
	}
	return Category{}, false
}

// Contains reports whether id is a known category ID.
func (c Catalog) Contains(id string) bool {
	for _, cat := range c {
		if cat.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the category IDs in catalog order.
func (c Catalog) IDs() []string {
	ids := make([]string, len(c))
	for i, cat := range c {
		ids[i] = cat.ID
	}
	return ids
}

// Normalize resolves value to a category ID. An empty value stays empty.
func (c Catalog) Normalize(kind, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	cat, ok := c.Lookup(value)
	if !ok {
		return "", fmt.Errorf("unknown %s %q (valid: %s)", kind, value, strings.Join(c.IDs(), ", "))
	}
	return cat.ID, nil
}

// Catalogs maps each filter name to its catalog.
func Catalogs() map[string]Catalog {
	return map[string]Catalog{
		"muscle":     Muscles,
		"type":       Types,
		"difficulty": Difficulties,
	}
}
