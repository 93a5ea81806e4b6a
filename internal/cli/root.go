// Package cli wires the larder commands together with cobra.
package cli

import (
	"context"
	"fmt"

	"github.com/eleven-am/larder/internal/logger"
	"github.com/eleven-am/larder/internal/migrator"
	"github.com/eleven-am/larder/pkg/larder"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// globals holds the persistent flags and the config loaded from them
type globals struct {
	configFile  string
	databaseURL string
	debug       bool
	verbose     bool

	config *Config
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&globals{})
}

func newRootCommand(g *globals) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "larder",
		Short: "Larder - nutrition tracking backend",
		Long: `Larder tracks food items, recipes built from them and the meals
eaten, with nutrition values derived from ingredient weights.

Larder provides:
- An HTTP API for food items, food collections and meals
- Embedded schema migrations for PostgreSQL
- Account bootstrapping for administrators`,
		Version:       larder.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetVerbosity(g.debug, g.verbose)

			config, err := LoadConfig(g.configFile)
			if err != nil {
				return err
			}
			if g.databaseURL != "" {
				config.Database.URL = g.databaseURL
			}
			g.config = config

			logger.CLI().Debug("configuration loaded",
				"config", g.configFile,
				"addr", config.Server.Addr,
				"max_connections", config.Database.MaxConnections)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default: larder.yaml)")
	rootCmd.PersistentFlags().StringVar(&g.databaseURL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(newServeCommand(g))
	rootCmd.AddCommand(newMigrateCommand(g))
	rootCmd.AddCommand(newUserCommand(g))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// connect opens the configured database, sized by max_connections
func (g *globals) connect(ctx context.Context) (*sqlx.DB, error) {
	if err := g.config.validateDatabase(); err != nil {
		return nil, err
	}

	dbConfig := migrator.NewDBConfig(g.config.Database.URL)
	if g.config.Database.MaxConnections > 0 {
		dbConfig.MaxOpenConns = g.config.Database.MaxConnections
	}
	if dbConfig.MaxIdleConns > dbConfig.MaxOpenConns {
		dbConfig.MaxIdleConns = dbConfig.MaxOpenConns
	}

	db, err := dbConfig.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
