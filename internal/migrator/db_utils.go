package migrator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/eleven-am/larder/internal/logger"
	"github.com/jmoiron/sqlx"
)

// EnsureDatabaseExists creates the database named in dsn when it is missing.
// It connects to the "postgres" maintenance database to do so.
func EnsureDatabaseExists(ctx context.Context, dsn string) error {
	dbName, adminDSN, err := parseDSNForDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse DSN: %w", err)
	}

	db, err := sqlx.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer db.Close()

	return ensureDatabase(ctx, db, dbName)
}

func ensureDatabase(ctx context.Context, db *sqlx.DB, dbName string) error {
	log := logger.Migration().WithField("database", dbName)

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := db.GetContext(ctx, &exists, query, dbName); err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}

	if exists {
		log.Debug("database already exists")
		return nil
	}

	log.Info("database does not exist, creating")
	createSQL := fmt.Sprintf("CREATE DATABASE %s", quoteIdentifier(dbName))
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create database '%s': %w", dbName, err)
	}
	log.Info("database created")

	return nil
}

// parseDSNForDB extracts database name and returns admin DSN
func parseDSNForDB(dsn string) (dbName string, adminDSN string, err error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("invalid database URL format: %w", err)
		}
		dbName = strings.TrimPrefix(u.Path, "/")
		if dbName == "" {
			return "", "", fmt.Errorf("no database name found in URL")
		}
		u.Path = "/postgres"
		return dbName, u.String(), nil
	}

	params := make(map[string]string)
	var keys []string
	for _, kv := range strings.Fields(dsn) {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			params[parts[0]] = parts[1]
			keys = append(keys, parts[0])
		}
	}

	dbName = params["dbname"]
	if dbName == "" {
		return "", "", fmt.Errorf("no database name found in DSN")
	}

	adminParts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "dbname" {
			adminParts = append(adminParts, "dbname=postgres")
		} else {
			adminParts = append(adminParts, fmt.Sprintf("%s=%s", k, params[k]))
		}
	}

	return dbName, strings.Join(adminParts, " "), nil
}

// quoteIdentifier quotes a PostgreSQL identifier to prevent SQL injection
func quoteIdentifier(name string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(name, `"`, `""`))
}

// GetDatabaseURL builds a database URL from components
func GetDatabaseURL(host, port, user, password, dbname, sslmode string) string {
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, url.QueryEscape(password), host, port, dbname, sslmode)
}
