package artifact

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// webkitOffset is the WebKit-to-Unix epoch distance in microseconds.
const webkitOffset int64 = 11_644_473_600_000_000

func unixToWebKit(unixMicros int64) int64 {
	return unixMicros + webkitOffset
}

// createDB creates a SQLite database at dir/name, runs the DDL, and inserts
// every row with insert.
func createDB(t *testing.T, dir, name, ddl, insert string, rows [][]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(ddl)
	require.NoError(t, err)

	stmt, err := db.Prepare(insert)
	require.NoError(t, err)
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.Exec(r...)
		require.NoError(t, err)
	}
	return path
}

func chromeHistoryDB(t *testing.T, dir string, rows [][]any) string {
	t.Helper()
	return createDB(t, dir, "History", `CREATE TABLE urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url LONGVARCHAR,
		title LONGVARCHAR,
		visit_count INTEGER DEFAULT 0 NOT NULL,
		typed_count INTEGER DEFAULT 0 NOT NULL,
		last_visit_time INTEGER NOT NULL,
		hidden INTEGER DEFAULT 0 NOT NULL
	)`, `INSERT INTO urls (url, title, last_visit_time) VALUES (?, ?, ?)`, rows)
}

func chromeCookiesDB(t *testing.T, dir string, rows [][]any) string {
	t.Helper()
	return createDB(t, dir, "Cookies", `CREATE TABLE cookies (
		creation_utc INTEGER NOT NULL,
		host_key TEXT NOT NULL,
		top_frame_site_key TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		encrypted_value BLOB NOT NULL DEFAULT x'',
		path TEXT NOT NULL DEFAULT '/',
		expires_utc INTEGER NOT NULL DEFAULT 0,
		is_secure INTEGER NOT NULL DEFAULT 0,
		is_httponly INTEGER NOT NULL DEFAULT 0,
		last_access_utc INTEGER NOT NULL DEFAULT 0
	)`, `INSERT INTO cookies (host_key, name, creation_utc, expires_utc, last_access_utc) VALUES (?, ?, ?, ?, ?)`, rows)
}

func firefoxPlacesDB(t *testing.T, dir string, rows [][]any) string {
	t.Helper()
	return createDB(t, dir, "places.sqlite", `CREATE TABLE moz_places (
		id INTEGER PRIMARY KEY,
		url LONGVARCHAR,
		title LONGVARCHAR,
		rev_host LONGVARCHAR,
		visit_count INTEGER DEFAULT 0,
		hidden INTEGER DEFAULT 0 NOT NULL,
		typed INTEGER DEFAULT 0 NOT NULL,
		frecency INTEGER DEFAULT -1 NOT NULL,
		last_visit_date INTEGER
	)`, `INSERT INTO moz_places (url, title, last_visit_date) VALUES (?, ?, ?)`, rows)
}

func firefoxCookiesDB(t *testing.T, dir string, rows [][]any) string {
	t.Helper()
	return createDB(t, dir, "cookies.sqlite", `CREATE TABLE moz_cookies (
		id INTEGER PRIMARY KEY,
		originAttributes TEXT NOT NULL DEFAULT '',
		name TEXT,
		value TEXT,
		host TEXT,
		path TEXT,
		expiry INTEGER,
		lastAccessed INTEGER,
		creationTime INTEGER,
		isSecure INTEGER,
		isHttpOnly INTEGER
	)`, `INSERT INTO moz_cookies (host, name, creationTime, expiry, lastAccessed) VALUES (?, ?, ?, ?, ?)`, rows)
}
