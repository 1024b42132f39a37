package db

import (
	"database/sql"
	"embed"
	"fmt"
	"log"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const sqlitePrefix = "sqlite:"

var placeholder = regexp.MustCompile(`\$(\d+)`)

type DB struct {
	conn   *sql.DB
	driver string
}

// Connect opens Postgres for a regular DSN, or SQLite for "sqlite:<path>".
func Connect(dsn string) (*DB, error) {
	driver, source := "postgres", dsn
	if strings.HasPrefix(dsn, sqlitePrefix) {
		driver = "sqlite"
		source = strings.TrimPrefix(strings.TrimPrefix(dsn, sqlitePrefix), "//")
		source += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == "sqlite" {
		// One writer at a time; SQLite serializes anyway.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	log.Printf("[DB] Connected to %s\n", driver)
	return &DB{conn: conn, driver: driver}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) Ping() error {
	return d.conn.Ping()
}

// rebind rewrites $N placeholders into SQLite's ?N form.
func (d *DB) rebind(query string) string {
	if d.driver != "sqlite" {
		return query
	}
	return placeholder.ReplaceAllString(query, "?${1}")
}

func (d *DB) Migrate() error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}

	for _, entry := range entries {
		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		if _, err := d.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", entry.Name(), err)
		}
		log.Printf("[DB] Applied migration: %s\n", entry.Name())
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
