package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed schema.sql
var initialSchema string

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending migrations.
	Migrate(ctx context.Context) error

	// CurrentVersion returns the current schema version.
	CurrentVersion(ctx context.Context) (int, error)

	// Rollback rolls back to a target version.
	Rollback(ctx context.Context, targetVersion int) error
}

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      string
	down    string
}

type migrator struct {
	db         *DB
	migrations []migration
}

// NewMigrator creates a new database migrator.
func NewMigrator(db *DB) Migrator {
	return &migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func getMigrations() []migration {
	migrations := []migration{
		{
			version: 1,
			name:    "initial_schema",
			up:      initialSchema,
			down:    getDownMigration1(),
		},
		{
			version: 2,
			name:    "audit_export_indexes",
			up:      getAuditExportIndexes(),
			down:    getDownMigration2(),
		},
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations
}

func getDownMigration1() string {
	return `
DROP TABLE IF EXISTS alerts;
DROP TABLE IF EXISTS audit_entries;
DROP TABLE IF EXISTS policy_rules;
`
}

// getAuditExportIndexes adds indexes backing the audit-export filters
// (tenant + date range, resource lookup).
func getAuditExportIndexes() string {
	return `
CREATE INDEX IF NOT EXISTS idx_audit_tenant_date ON audit_entries(tenant_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_entries(resource_type, resource_id);
CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_entries(action);
`
}

func getDownMigration2() string {
	return `
DROP INDEX IF EXISTS idx_audit_action;
DROP INDEX IF EXISTS idx_audit_resource;
DROP INDEX IF EXISTS idx_audit_tenant_date;
`
}

// Migrate applies all pending migrations in order, each in its own
// transaction, recording progress in schema_migrations.
func (m *migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if mig.version <= current {
			continue
		}

		err := m.db.WithTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range splitStatements(mig.up) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d (%s) failed: %w", mig.version, mig.name, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
				mig.version, mig.name,
			)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration version, or 0.
func (m *migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return 0, err
	}

	var version sql.NullInt64
	err := m.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// Rollback reverts migrations down to targetVersion.
func (m *migrator) Rollback(ctx context.Context, targetVersion int) error {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if targetVersion >= current {
		return nil
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if mig.version > current || mig.version <= targetVersion {
			continue
		}

		err := m.db.WithTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range splitStatements(mig.down) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("rollback %d (%s) failed: %w", mig.version, mig.name, err)
				}
			}
			_, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", mig.version)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *migrator) ensureMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// splitStatements splits a migration script on semicolons, dropping comments
// and blank fragments. Sufficient for the DDL used here.
func splitStatements(script string) []string {
	var statements []string
	for _, raw := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
