package session

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB is the durable client-side state database. It holds the persisted
// session record and the session-scoped response cache.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the state database at path and runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping state database: %w", err)
	}
	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

const (
	keyToken = "token"
	keyUser  = "user"
)

// writeSession stores the token and identity records in one transaction, so
// a crash can never leave one without the other.
func (d *DB) writeSession(token, userJSON string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, kv := range []struct{ k, v string }{
		{keyToken, token},
		{keyUser, userJSON},
	} {
		_, err := tx.Exec(
			`INSERT INTO session (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = ?`,
			kv.k, kv.v, kv.v,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// readSession returns the persisted token and identity JSON.
// Missing records come back as empty strings.
func (d *DB) readSession() (token, userJSON string, err error) {
	token, err = d.getValue(keyToken)
	if err != nil {
		return "", "", err
	}
	userJSON, err = d.getValue(keyUser)
	if err != nil {
		return "", "", err
	}
	return token, userJSON, nil
}

// clearSession removes both session records. Safe to call when absent.
func (d *DB) clearSession() error {
	_, err := d.db.Exec(`DELETE FROM session WHERE key IN (?, ?)`, keyToken, keyUser)
	return err
}

func (d *DB) getValue(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// GetCache returns a cached payload by key. ok is false on a miss.
func (d *DB) GetCache(key string) (value string, ok bool, err error) {
	err = d.db.QueryRow(`SELECT value FROM cache WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetCache upserts a cached payload.
func (d *DB) SetCache(key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO cache (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// ClearCache drops every cached payload. Invalidation is wholesale, never
// per-item.
func (d *DB) ClearCache() error {
	_, err := d.db.Exec(`DELETE FROM cache`)
	return err
}
