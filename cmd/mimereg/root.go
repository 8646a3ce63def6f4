package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mimereg/internal/config"
	"github.com/JonMunkholm/mimereg/internal/core"
	"github.com/JonMunkholm/mimereg/internal/logging"
	"github.com/JonMunkholm/mimereg/internal/seed"
	"github.com/JonMunkholm/mimereg/internal/store/memory"
	"github.com/JonMunkholm/mimereg/internal/store/postgres"
)

// app carries state shared by every subcommand once the root has loaded
// configuration.
type app struct {
	envFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "mimereg",
		Short:         "Registry of mime types and the file extensions that map to them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", "",
		"dotenv file to load before reading the environment (default: .env if present)")

	cmd.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
		newLookupCmd(a),
	)
	return cmd
}

// printError writes err for a terminal user. Errors with a known user
// message are shown in that form, with the technical cause underneath.
func printError(w io.Writer, err error) {
	if core.IsUserFacing(err) {
		fmt.Fprintf(w, "Error: %s\n  cause: %v\n", core.FormatUserError(err), err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// load reads the dotenv file, then configuration, then sets up logging.
// An explicit --env-file must exist; the implicit .env is optional.
// Values from the file override the process environment.
func (a *app) load() error {
	if a.envFile != "" {
		if err := godotenv.Overload(a.envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", a.envFile, err)
		}
	} else if err := godotenv.Overload(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

// openRegistry builds the registry on the configured store. The returned
// func releases the store.
func (a *app) openRegistry(ctx context.Context, migrate bool) (*core.Registry, func(), error) {
	opts := []core.Option{core.WithLookupCache(a.cfg.Lookup.CacheSize, a.cfg.Lookup.CacheTTL)}

	switch a.cfg.Database.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store; data is lost on exit")
		return core.NewRegistry(memory.New(), opts...), func() {}, nil

	case config.DriverPostgres:
		if migrate {
			if err := postgres.Migrate(a.cfg.Database.URL); err != nil {
				return nil, nil, err
			}
		}
		pool, err := postgres.Connect(ctx, a.cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return core.NewRegistry(postgres.New(pool), opts...), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", a.cfg.Database.Driver)
}

// newPipeline wires the seed pipeline to the configured feed.
func (a *app) newPipeline(reg *core.Registry) (*seed.Pipeline, error) {
	fetcher, err := seed.NewHTTPFetcher(a.cfg.Seed)
	if err != nil {
		return nil, err
	}
	return seed.New(reg, fetcher, seed.Options{
		Documents:        a.cfg.Seed.Documents,
		FetchConcurrency: a.cfg.Seed.FetchConcurrency,
	}), nil
}
