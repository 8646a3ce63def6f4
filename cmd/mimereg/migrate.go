package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mimereg/internal/config"
	"github.com/JonMunkholm/mimereg/internal/store/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations, or roll back with --down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requires STORE_DRIVER=%s, got %q", config.DriverPostgres, a.cfg.Database.Driver)
			}
			if down > 0 {
				return postgres.MigrateDown(a.cfg.Database.URL, down)
			}
			return postgres.Migrate(a.cfg.Database.URL)
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations instead of applying")
	return cmd
}
