package sqliteutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Opens (creating parent directories when necessary) a sqlite database
// and applies the given schema. Schemas are expected to be idempotent,
// `CREATE TABLE IF NOT EXISTS ...`.
func OpenDB(schema, path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
