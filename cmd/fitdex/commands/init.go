package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fitdex/fitdex/pkg/config"
	"github.com/fitdex/fitdex/pkg/storage"
)

func newInitCommand() *cobra.Command {
	var (
		dataDir string
		driver  string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a fitdex workspace",
		Long: `Initialize a fitdex workspace: create the data directory, write a default
configuration file and prepare the storage backend.`,
		Example: `  # Initialize in the current directory
  fitdex init

  # Keep data somewhere else
  fitdex init --data-dir ~/.local/share/fitdex

  # Use Redis instead of SQLite
  fitdex init --driver redis`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := config.ResolvePath(configPath)

			log.Info().
				Str("config", path).
				Str("driver", driver).
				Msg("Initializing workspace")

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if dataDir == "" {
				dataDir = filepath.Join(filepath.Dir(path), "data")
			}
			cfg.DataDir = dataDir
			cfg.Storage.Driver = driver
			if driver == storage.DriverSQLite {
				cfg.Storage.SQLite.Path = filepath.Join(dataDir, "fitdex.db")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			fmt.Printf("Initializing fitdex workspace in %s\n\n", dataDir)

			if err := os.MkdirAll(dataDir, 0o700); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dataDir, err)
			}
			fmt.Printf("✓ Created directory: %s\n", dataDir)

			store, err := storage.Open(ctx, cfg.Storage)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			if err := store.Close(); err != nil {
				return fmt.Errorf("failed to close storage: %w", err)
			}
			switch driver {
			case storage.DriverSQLite:
				fmt.Printf("✓ Initialized SQLite database: %s\n", cfg.Storage.SQLite.Path)
			case storage.DriverRedis:
				fmt.Printf("✓ Reached Redis at %s\n", cfg.Storage.Redis.Addr)
			}

			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Printf("✓ Created config file: %s\n", path)

			fmt.Printf("\n✅ Workspace initialized successfully!\n\n")
			fmt.Printf("Next steps:\n")
			fmt.Printf("  1. Export your API key:\n")
			fmt.Printf("     export %s=<key>\n\n", config.EnvAPIKey)
			fmt.Printf("  2. Sign in:\n")
			fmt.Printf("     fitdex auth signin --email you@example.com --password <pass>\n\n")
			fmt.Printf("  3. Browse exercises:\n")
			fmt.Printf("     fitdex exercises search --muscle biceps\n\n")

			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory (default: data/ next to the config file)")
	cmd.Flags().StringVar(&driver, "driver", storage.DriverSQLite, "storage driver (sqlite, redis, memory)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
