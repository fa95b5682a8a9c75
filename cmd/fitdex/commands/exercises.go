package commands

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fitdex/fitdex/pkg/exercise"
	"github.com/fitdex/fitdex/pkg/exerciseapi"
)

func newExercisesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "exercises",
		Aliases: []string{"ex"},
		Short:   "Search and browse exercises",
	}

	cmd.AddCommand(newExercisesSearchCommand())
	cmd.AddCommand(newExercisesCatalogCommand())

	return cmd
}

func newExercisesSearchCommand() *cobra.Command {
	var (
		q        exerciseapi.Query
		favorite bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the exercise database",
		Example: `  # Exercises for the biceps
  fitdex exercises search --muscle biceps

  # Beginner cardio, saving every result as a favorite
  fitdex exercises search --type cardio --difficulty beginner --favorite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.API.APIKey == "" {
				log.Warn().Msg("No API key configured; set FITDEX_API_KEY")
			}

			results, err := a.apiClient().Search(cmd.Context(), q)
			if err != nil {
				return err
			}

			if favorite {
				added := 0
				for _, ex := range results {
					ok, err := a.favorites.Add(cmd.Context(), ex)
					if err != nil {
						return err
					}
					if ok {
						added++
					}
				}
				if !jsonOutput {
					defer fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Added %d new favorites\n", added)
				}
			}

			return printExercises(cmd.OutOrStdout(), results, a.favorites.Contains)
		},
	}

	cmd.Flags().StringVar(&q.Muscle, "muscle", "", "muscle group")
	cmd.Flags().StringVar(&q.Type, "type", "", "exercise type")
	cmd.Flags().StringVar(&q.Difficulty, "difficulty", "", "difficulty level")
	cmd.Flags().StringVar(&q.Name, "name", "", "exercise name (partial match)")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "number of results to skip")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "add every result to favorites")

	return cmd
}

func newExercisesCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "catalog [muscle|type|difficulty]",
		Short:     "List the browse categories",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"muscle", "type", "difficulty"},
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogs := exercise.Catalogs()

			kinds := make([]string, 0, len(catalogs))
			if len(args) == 1 {
				if _, ok := catalogs[args[0]]; !ok {
					return fmt.Errorf("unknown catalog %q (valid: muscle, type, difficulty)", args[0])
				}
				kinds = append(kinds, args[0])
			} else {
				for kind := range catalogs {
					kinds = append(kinds, kind)
				}
				sort.Strings(kinds)
			}

			if jsonOutput {
				out := make(map[string]exercise.Catalog, len(kinds))
				for _, kind := range kinds {
					out[kind] = catalogs[kind]
				}
				return printJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			for i, kind := range kinds {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "%s:\n", kind)
				for _, cat := range catalogs[kind] {
					fmt.Fprintf(w, "  %-22s %s\n", cat.ID, cat.Name)
				}
			}
			return nil
		},
	}
}
