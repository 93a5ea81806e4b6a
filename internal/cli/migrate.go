package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/larder/internal/migrator"
	"github.com/spf13/cobra"
)

func newMigrateCommand(g *globals) *cobra.Command {
	var (
		dryRun              bool
		createDBIfNotExists bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		Long: `Apply every embedded migration that has not been recorded in the
migrations table yet. Each migration runs in its own transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			if err := g.config.validateDatabase(); err != nil {
				return err
			}
			if createDBIfNotExists {
				if err := migrator.EnsureDatabaseExists(ctx, g.config.Database.URL); err != nil {
					return err
				}
			}

			db, err := g.connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := migrator.NewMigrator(db, g.config.Migrations.Table)
			if err != nil {
				return err
			}

			if dryRun {
				pending, err := m.Pending(ctx)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					cmd.Println("Schema is up to date")
					return nil
				}
				for _, mig := range pending {
					cmd.Printf("Would apply %04d_%s\n", mig.Version, mig.Name)
				}
				return nil
			}

			applied, err := m.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			for _, mig := range applied {
				cmd.Printf("Applied %04d_%s\n", mig.Version, mig.Name)
			}
			cmd.Printf("%d migration(s) applied\n", len(applied))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List pending migrations without applying them")
	cmd.Flags().BoolVar(&createDBIfNotExists, "create-if-not-exists", false, "Create the database if it does not exist")

	return cmd
}
