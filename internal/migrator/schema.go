package migrator

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/larder/internal/logger"
	"github.com/eleven-am/larder/internal/orm"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DefaultTable records which migrations have been applied
const DefaultTable = "schema_migrations"

// Migration is one embedded schema change. Files are named
// <version>_<name>.sql and applied in version order.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations returns the embedded migrations sorted by version
func Migrations() ([]Migration, error) {
	return loadMigrations(migrationFiles, "migrations")
}

func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		base := strings.TrimSuffix(entry.Name(), ".sql")
		versionPart, name, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %q: expected <version>_<name>.sql", entry.Name())
		}
		version, err := strconv.Atoi(versionPart)
		if err != nil {
			return nil, fmt.Errorf("migration %q: invalid version: %w", entry.Name(), err)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %q and %q share version %d", other, entry.Name(), version)
		}
		seen[version] = entry.Name()

		body, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %q: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{Version: version, Name: name, SQL: string(body)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Migrator applies embedded migrations and tracks them in a version table
type Migrator struct {
	storm      *orm.Storm
	table      string
	migrations []Migration
	log        logger.Logger
}

func NewMigrator(db *sqlx.DB, table string) (*Migrator, error) {
	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}
	return &Migrator{
		storm:      orm.NewStorm(db),
		table:      table,
		migrations: migrations,
		log:        logger.Migration(),
	}, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL
)`, quoteIdentifier(m.table))

	if _, err := m.storm.GetExecutor().ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create %s: %w", m.table, err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]bool, error) {
	query, args, err := squirrel.Select("version").
		From(quoteIdentifier(m.table)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var versions []int
	if err := m.storm.GetExecutor().SelectContext(ctx, &versions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// Pending lists migrations not yet recorded in the version table
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range m.migrations {
		if !applied[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns the ones it applied
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	for i, mig := range pending {
		log := m.log.WithFields(map[string]interface{}{"version": mig.Version, "name": mig.Name})
		log.Info("applying migration")

		err := m.storm.WithTransaction(ctx, func(tx *orm.Storm) error {
			if _, err := tx.GetExecutor().ExecContext(ctx, mig.SQL); err != nil {
				return err
			}

			query, args, err := squirrel.Insert(quoteIdentifier(m.table)).
				Columns("version", "name", "applied_at").
				Values(mig.Version, mig.Name, time.Now().UTC()).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}
			_, err = tx.GetExecutor().ExecContext(ctx, query, args...)
			return err
		})
		if err != nil {
			return pending[:i], fmt.Errorf("migration %04d_%s failed: %w", mig.Version, mig.Name, err)
		}
	}

	return pending, nil
}
