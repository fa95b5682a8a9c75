package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fitdex/fitdex/pkg/exercise"
)

func newFavoritesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite exercises",
	}

	cmd.AddCommand(newFavoritesListCommand())
	cmd.AddCommand(newFavoritesAddCommand())
	cmd.AddCommand(newFavoritesRemoveCommand())
	cmd.AddCommand(newFavoritesCheckCommand())

	return cmd
}

func newFavoritesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorite exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			return printExercises(cmd.OutOrStdout(), a.favorites.List(), nil)
		},
	}
}

func newFavoritesAddCommand() *cobra.Command {
	var ex exercise.Exercise

	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Add an exercise to favorites",
		Example: `  fitdex favorites add "Incline Hammer Curls" --muscle biceps --type strength --difficulty beginner`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex.Name = strings.TrimSpace(args[0])

			for _, f := range []struct {
				kind    string
				value   *string
				catalog exercise.Catalog
			}{
				{"muscle", &ex.Muscle, exercise.Muscles},
				{"type", &ex.Type, exercise.Types},
				{"difficulty", &ex.Difficulty, exercise.Difficulties},
			} {
				id, err := f.catalog.Normalize(f.kind, *f.value)
				if err != nil {
					return err
				}
				*f.value = id
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			added, err := a.favorites.Add(cmd.Context(), ex)
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s to favorites\n", ex.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already a favorite\n", ex.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ex.Muscle, "muscle", "", "muscle group")
	cmd.Flags().StringVar(&ex.Type, "type", "", "exercise type")
	cmd.Flags().StringVar(&ex.Difficulty, "difficulty", "", "difficulty level")
	cmd.Flags().StringVar(&ex.Equipment, "equipment", "", "equipment needed")
	cmd.Flags().StringVar(&ex.Instructions, "instructions", "", "how to perform the exercise")

	return cmd
}

func newFavoritesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove an exercise from favorites",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			name := args[0]
			present := a.favorites.Contains(name)
			if _, err := a.favorites.Remove(cmd.Context(), name); err != nil {
				return err
			}
			if present {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s from favorites\n", name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was not a favorite\n", name)
			}
			return nil
		},
	}
}

func newFavoritesCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <name>",
		Short: "Check whether an exercise is a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			ok := a.favorites.Contains(args[0])
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{"name": args[0], "favorite": ok})
			}
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "★ %s is a favorite\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not a favorite\n", args[0])
			}
			return nil
		},
	}
}
