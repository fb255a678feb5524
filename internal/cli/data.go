package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javajoker/clubhub/internal/database"
	"github.com/javajoker/clubhub/internal/preferences"
	"github.com/javajoker/clubhub/internal/seed"
	"github.com/javajoker/clubhub/internal/services"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the clubs table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := database.Initialize(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer database.Close(db)

			if err := database.RunMigrations(db); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled clubs into the database",
		Long:  "seed creates every bundled club missing from the database and fills empty rolling papers on existing ones.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := database.Initialize(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer database.Close(db)

			if err := database.RunMigrations(db); err != nil {
				return err
			}

			gateway := services.NewClubGateway(db, nil, cfg.Database.NotifyChannel)
			result, err := gateway.Seed(commandContext(cmd), seed.Clubs())
			if err != nil {
				return fmt.Errorf("failed to seed clubs: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded clubs: %d created, %d updated\n", result.Created, result.Updated)
			return nil
		},
	}
}

func newSourceCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "source [mock|remote]",
		Short:     "Show or set the persisted data source",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"mock", "remote"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}

			store := preferences.NewFileStore(cfg.Preferences.Path)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				if err := store.SetUseMockData(args[0] == "mock"); err != nil {
					return err
				}
			}

			mock, err := store.UseMockData()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, sourceName(mock))
			return nil
		},
	}
}

func sourceName(mock bool) string {
	if mock {
		return "mock"
	}
	return "remote"
}
