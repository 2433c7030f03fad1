package recorder

import (
	"crypto/md5"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migration struct {
	version  string
	content  string
	checksum string
}

// migrate applies every embedded migration not yet recorded in
// schema_migrations. An applied migration whose file changed is an error.
func migrate(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
	}
	return nil
}

func loadMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		content, err := fs.ReadFile(migrationsFS, path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		// "001_initial_schema.sql" -> "001"
		version, _, _ := strings.Cut(entry.Name(), "_")
		out = append(out, migration{
			version:  version,
			content:  string(content),
			checksum: fmt.Sprintf("%x", md5.Sum(content)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func applyMigration(db *sql.DB, m migration) error {
	var existing string
	err := db.QueryRow("SELECT checksum FROM schema_migrations WHERE version = ?", m.version).Scan(&existing)
	if err == nil {
		if existing != m.checksum {
			return fmt.Errorf("checksum mismatch: recorded %s, embedded %s", existing, m.checksum)
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check migration status: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(m.content); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, checksum) VALUES (?, ?)", m.version, m.checksum); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
