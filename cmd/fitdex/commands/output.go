package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fitdex/fitdex/pkg/auth"
	"github.com/fitdex/fitdex/pkg/exercise"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printExercises(w io.Writer, items []exercise.Exercise, isFavorite func(string) bool) error {
	if jsonOutput {
		if items == nil {
			items = []exercise.Exercise{}
		}
		return printJSON(w, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "No exercises.")
		return nil
	}
	for i, ex := range items {
		marker := " "
		if isFavorite != nil && isFavorite(ex.Name) {
			marker = "★"
		}
		fmt.Fprintf(w, "%s %2d. %s\n", marker, i+1, ex.Summary())
		if verbose {
			if ex.Equipment != "" {
				fmt.Fprintf(w, "       equipment: %s\n", ex.Equipment)
			}
			if ex.Instructions != "" {
				fmt.Fprintf(w, "       %s\n", strings.TrimSpace(ex.Instructions))
			}
		}
	}
	return nil
}

func printUser(w io.Writer, user *auth.User) error {
	if jsonOutput {
		return printJSON(w, user)
	}
	if user == nil {
		fmt.Fprintln(w, "Not signed in.")
		return nil
	}
	fmt.Fprintf(w, "Name:   %s\n", user.Name)
	fmt.Fprintf(w, "Email:  %s\n", user.Email)
	fmt.Fprintf(w, "ID:     %s\n", user.ID)
	if user.Avatar != nil {
		fmt.Fprintf(w, "Avatar: %s\n", *user.Avatar)
	}
	return nil
}
