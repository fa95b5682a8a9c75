package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fitdex",
		Short: "fitdex - browse exercises and keep your favorites",
		Long: `fitdex looks up exercises by muscle group, type or difficulty and keeps
a local list of favorites alongside a simple local profile.

Favorites and the signed-in profile are stored locally (SQLite by default,
or Redis) and restored at startup.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default $FITDEX_CONFIG or ./fitdex.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newFavoritesCommand())
	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newExercisesCommand())
	rootCmd.AddCommand(newStorageCommand())
	rootCmd.AddCommand(newShellCommand())

	return rootCmd
}
