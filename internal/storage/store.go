// Package storage is the read-only access boundary for browser SQLite stores.
//
// A store is never queried in place. Open copies the database file and its
// -wal/-shm companions into a private temporary directory and runs every
// query against that copy, so the browser's own files are only ever read
// sequentially and never locked, checkpointed or vacuumed.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound means the path does not name an existing regular file.
	ErrNotFound = goerr.New("store file not found")
	// ErrUnreadable means the file exists but cannot be read as a SQLite store.
	ErrUnreadable = goerr.New("store file unreadable")
)

// sqliteMagic is the first 16 bytes of any SQLite database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// Store is a read-only handle on a private copy of a SQLite database.
type Store struct {
	db      *sql.DB
	source  string
	copyDir string
	digest  string
}

// Open validates path, copies it to a temporary directory and opens the copy
// in query-only mode. The caller must Close the store on every path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := validate(path); err != nil {
		return nil, err
	}

	copyDir, digest, err := safeCopy(path)
	if err != nil {
		return nil, err
	}

	copyPath := filepath.Join(copyDir, filepath.Base(path))
	db, err := sql.Open("sqlite3", copyPath+"?_query_only=1")
	if err != nil {
		os.RemoveAll(copyDir)
		return nil, goerr.Wrap(ErrUnreadable, "open database copy",
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		os.RemoveAll(copyDir)
		return nil, goerr.Wrap(ErrUnreadable, "connect to database copy",
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}

	return &Store{db: db, source: path, copyDir: copyDir, digest: digest}, nil
}

// Source returns the path of the original store file.
func (s *Store) Source() string { return s.source }

// Digest returns the hex SHA-256 of the original store file as copied.
func (s *Store) Digest() string { return s.digest }

// HasTable reports whether the database defines a table called name.
func (s *Store) HasTable(ctx context.Context, name string) (bool, error) {
	var found string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(ErrUnreadable, "read schema",
			goerr.V("path", s.source), goerr.V("cause", err.Error()))
	}
	return true, nil
}

// Query runs a read-only query against the copy.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(ErrUnreadable, "query store",
			goerr.V("path", s.source), goerr.V("cause", err.Error()))
	}
	return rows, nil
}

// Close releases the database handle and removes the private copy. It is
// safe to call more than once.
func (s *Store) Close() error {
	var err error
	if s.db != nil {
		err = s.db.Close()
		s.db = nil
	}
	if s.copyDir != "" {
		if rmErr := os.RemoveAll(s.copyDir); rmErr != nil && err == nil {
			err = rmErr
		}
		s.copyDir = ""
	}
	return err
}

// validate checks that path names a non-empty SQLite file.
func validate(path string) error {
	if path == "" {
		return goerr.Wrap(ErrNotFound, "no path configured")
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return goerr.Wrap(ErrNotFound, fmt.Sprintf("%s does not exist", path), goerr.V("path", path))
		}
		return goerr.Wrap(ErrUnreadable, fmt.Sprintf("cannot stat %s", path),
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}
	if info.IsDir() {
		return goerr.Wrap(ErrNotFound, fmt.Sprintf("%s is a directory, expected a database file", path),
			goerr.V("path", path))
	}
	if info.Size() == 0 {
		return goerr.Wrap(ErrUnreadable, fmt.Sprintf("%s is empty", path), goerr.V("path", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return goerr.Wrap(ErrUnreadable, fmt.Sprintf("cannot open %s", path),
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, sqliteMagic) {
		return goerr.Wrap(ErrUnreadable, fmt.Sprintf("%s is not a SQLite database", path),
			goerr.V("path", path))
	}
	return nil
}

// safeCopy copies path and any -wal/-shm companions into a fresh temporary
// directory and returns the directory and the SHA-256 of the main file.
func safeCopy(path string) (string, string, error) {
	dir, err := os.MkdirTemp("", "btr-store-*")
	if err != nil {
		return "", "", goerr.Wrap(ErrUnreadable, "create temp directory", goerr.V("cause", err.Error()))
	}

	base := filepath.Base(path)
	h := sha256.New()
	if err := copyFile(path, filepath.Join(dir, base), h); err != nil {
		os.RemoveAll(dir)
		return "", "", goerr.Wrap(ErrUnreadable, fmt.Sprintf("copy %s", path),
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}

	// Companions are best-effort: a missing WAL only means fewer recent rows.
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		companion := path + suffix
		if _, err := os.Stat(companion); err == nil {
			_ = copyFile(companion, filepath.Join(dir, base+suffix), nil)
		}
	}

	return dir, hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies src to dst, also feeding the bytes to tee when non-nil.
func copyFile(src, dst string, tee io.Writer) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	var w io.Writer = out
	if tee != nil {
		w = io.MultiWriter(out, tee)
	}
	if _, err := io.Copy(w, in); err != nil {
		return err
	}
	return out.Close()
}
