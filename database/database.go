// Package database — SQLite bağlantısı ve migration yönetimi.
//
// modernc.org/sqlite (pure Go, CGo'suz) kullanılır. Migration dosyaları
// binary'ye gömülüdür; uygulanan migration'lar schema_migrations tablosunda
// takip edilir, her migration kendi transaction'ında çalışır.
package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Connect, veritabanı dosyasını açar ve bekleyen migration'ları uygular.
func Connect(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("database dir create failed: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open failed: %w", err)
	}

	// SQLite tek writer'lıdır; bağlantı havuzunu küçük tutmak lock
	// çekişmesini azaltır.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[database] connected: %s", path)
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("migration table create failed: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("migration dir read failed: %w", err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		applied, err := isApplied(db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		content, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("migration %s read failed: %w", name, err)
		}

		if err := applyMigration(db, name, string(content)); err != nil {
			return err
		}
		log.Printf("[database] applied migration %s", name)
	}

	return nil
}

func isApplied(db *sql.DB, version string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("migration check failed: %w", err)
	}
	return count > 0, nil
}

func applyMigration(db *sql.DB, version, content string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %s begin failed: %w", version, err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(content) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migration %s statement failed: %w\nstatement: %s", version, err, stmt)
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("migration %s record failed: %w", version, err)
	}

	return tx.Commit()
}

// splitStatements, migration dosyasını noktalı virgülden böler.
// Trigger gövdesindeki BEGIN...END blokları bölünmez.
func splitStatements(content string) []string {
	var stmts []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")

		upper := strings.ToUpper(trimmed)
		if strings.Contains(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		if inTrigger && strings.HasPrefix(upper, "END;") {
			inTrigger = false
			stmts = append(stmts, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		if !inTrigger && strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	if rest := strings.TrimSpace(current.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}
