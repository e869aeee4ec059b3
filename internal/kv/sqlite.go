package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the durable Store backed by the profile's huddle.db.
type SQLite struct {
	sqlWriter
	db *sql.DB
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Open creates a new SQLite connection with WAL mode and recommended pragmas.
// The pool is capped at one connection so update units never interleave.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &SQLite{sqlWriter: sqlWriter{q: db}, db: db}, nil
}

// DB exposes the underlying handle for migrations and diagnostics.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Update runs fn inside a single transaction.
func (s *SQLite) Update(fn func(w Writer) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(sqlWriter{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqlWriter struct {
	q queryer
}

func (w sqlWriter) Get(key string) ([]byte, error) {
	var value []byte
	err := w.q.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (w sqlWriter) Set(key string, value []byte) error {
	_, err := w.q.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	return err
}

func (w sqlWriter) Append(key string, value []byte) error {
	_, err := w.q.Exec(`INSERT INTO kv_log (key, value, created_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UnixMilli())
	return err
}

// Range returns entries in insertion order (rowid), never by timestamp.
func (w sqlWriter) Range(key string) ([][]byte, error) {
	rows, err := w.q.Query(`SELECT value FROM kv_log WHERE key = ? ORDER BY id ASC`, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := [][]byte{}
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		entries = append(entries, v)
	}
	return entries, rows.Err()
}

func (w sqlWriter) Len(key string) (int, error) {
	var n int
	err := w.q.QueryRow(`SELECT COUNT(*) FROM kv_log WHERE key = ?`, key).Scan(&n)
	return n, err
}
