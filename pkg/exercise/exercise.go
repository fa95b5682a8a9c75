// Package exercise holds the exercise record returned by the remote search
// API and the fixed browse catalogs offered to the user.
package exercise

import "strings"

// Exercise is an exercise record as returned by the search API.
// Name identifies the exercise within a favorites collection.
type Exercise struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Muscle       string `json:"muscle"`
	Difficulty   string `json:"difficulty"`
	Instructions string `json:"instructions"`
	Equipment    string `json:"equipment,omitempty"`
}

// Key returns the identity used for de-duplication.
func (e Exercise) Key() string {
	return e.Name
}

// Summary renders a one-line description for listings.
func (e Exercise) Summary() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Muscle, e.Type, e.Difficulty} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return e.Name
	}
	return e.Name + " (" + strings.Join(parts, ", ") + ")"
}
