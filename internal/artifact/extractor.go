// Package artifact reads browser history and cookie stores into normalized
// records. Each supported browser family is described by a schema naming the
// tables and columns to read and the timestamp encoding of each column; all
// timestamps are converted to the canonical timeline before a record is
// returned.
package artifact

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/runnerr0/btr/internal/logging"
	"github.com/runnerr0/btr/internal/storage"
	"github.com/runnerr0/btr/internal/timeline"
)

// Extractor reads the stores of one browser family.
type Extractor interface {
	Browser() Browser
	ExtractHistory(ctx context.Context, src Source) (*HistorySet, error)
	ExtractCookies(ctx context.Context, src Source) (*CookieSet, error)
}

// For returns the extractor for b. Edge is a recognised tag without an
// implementation and fails with ErrUnsupportedBrowser before any I/O.
func For(b Browser) (Extractor, error) {
	switch b {
	case Chrome:
		return &sqliteExtractor{browser: Chrome, schema: chromeSchema}, nil
	case Firefox:
		return &sqliteExtractor{browser: Firefox, schema: firefoxSchema}, nil
	case Edge:
		return nil, goerr.Wrap(ErrUnsupportedBrowser, "edge stores cannot be extracted yet",
			goerr.V("browser", b))
	default:
		return nil, goerr.Wrap(ErrUnsupportedBrowser, fmt.Sprintf("unknown browser %q", b),
			goerr.V("browser", b))
	}
}

// parseFunc converts a raw column value to the canonical timeline.
type parseFunc func(field, raw string) (timeline.Timestamp, error)

// column is a timestamp column and its encoding.
type column struct {
	name  string
	parse parseFunc
}

// schema describes where one browser family keeps the logical fields
// url, title, last_visit_time and host, name, creation_time, expiry_time,
// last_accessed_time.
type schema struct {
	historyTable string
	historyQuery string
	visited      column

	cookieTable string
	cookieQuery string
	created     column
	expires     column
	accessed    column
}

type sqliteExtractor struct {
	browser Browser
	schema  schema
}

func (x *sqliteExtractor) Browser() Browser { return x.browser }

// ExtractHistory reads every history row in store order. Rows without a visit
// time are discarded; rows whose visit time is not an integer are discarded
// and reported in Dropped.
func (x *sqliteExtractor) ExtractHistory(ctx context.Context, src Source) (*HistorySet, error) {
	store, err := x.open(ctx, KindHistory, src, x.schema.historyTable)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	rows, err := store.Query(ctx, x.schema.historyQuery)
	if err != nil {
		return nil, unreadable(KindHistory, src, err)
	}
	defer rows.Close()

	logger := logging.From(ctx)
	set := &HistorySet{Records: []HistoryRecord{}, Digest: store.Digest()}

	for rows.Next() {
		var url, title, visited sql.NullString
		if err := rows.Scan(&url, &title, &visited); err != nil {
			return nil, unreadable(KindHistory, src, err)
		}
		if !visited.Valid || visited.String == "" || url.String == "" {
			set.Untimed++
			continue
		}

		ts, err := x.schema.visited.parse(x.schema.visited.name, visited.String)
		if err != nil {
			err = goerr.Wrap(err, "drop history row", goerr.V("url", url.String))
			logger.Warn("dropping history row", "store", src.Path, "error", err)
			set.Dropped = append(set.Dropped, err)
			continue
		}
		if ts.IsZero() {
			set.Untimed++
			continue
		}

		set.Records = append(set.Records, HistoryRecord{
			URL:       url.String,
			Title:     title.String,
			VisitedAt: ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, unreadable(KindHistory, src, err)
	}

	logger.Debug("history extracted",
		"browser", x.browser, "store", src.Path, "sha256", set.Digest,
		"records", len(set.Records), "untimed", set.Untimed, "dropped", len(set.Dropped))
	return set, nil
}

// ExtractCookies reads every cookie row in store order. Cookies are not
// filtered on creation time; a missing creation time stays zero.
func (x *sqliteExtractor) ExtractCookies(ctx context.Context, src Source) (*CookieSet, error) {
	store, err := x.open(ctx, KindCookies, src, x.schema.cookieTable)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	rows, err := store.Query(ctx, x.schema.cookieQuery)
	if err != nil {
		return nil, unreadable(KindCookies, src, err)
	}
	defer rows.Close()

	logger := logging.From(ctx)
	set := &CookieSet{Records: []CookieRecord{}, Digest: store.Digest()}

	for rows.Next() {
		var host, name, created, expires, accessed sql.NullString
		if err := rows.Scan(&host, &name, &created, &expires, &accessed); err != nil {
			return nil, unreadable(KindCookies, src, err)
		}

		rec := CookieRecord{Host: host.String, Name: name.String}
		err := firstErr(
			x.schema.created.into(&rec.CreatedAt, created),
			x.schema.expires.into(&rec.ExpiresAt, expires),
			x.schema.accessed.into(&rec.LastAccessedAt, accessed),
		)
		if err != nil {
			err = goerr.Wrap(err, "drop cookie row", goerr.V("host", rec.Host), goerr.V("name", rec.Name))
			logger.Warn("dropping cookie row", "store", src.Path, "error", err)
			set.Dropped = append(set.Dropped, err)
			continue
		}

		set.Records = append(set.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unreadable(KindCookies, src, err)
	}

	logger.Debug("cookies extracted",
		"browser", x.browser, "store", src.Path, "sha256", set.Digest,
		"records", len(set.Records), "dropped", len(set.Dropped))
	return set, nil
}

// open opens the store and confirms it has the expected table, so that a
// store of the wrong browser is reported as unreadable rather than as a
// query failure deep in a scan.
func (x *sqliteExtractor) open(ctx context.Context, kind Kind, src Source, table string) (*storage.Store, error) {
	store, err := openStore(ctx, kind, src)
	if err != nil {
		return nil, err
	}

	ok, err := store.HasTable(ctx, table)
	if err != nil {
		store.Close()
		return nil, unreadable(kind, src, err)
	}
	if !ok {
		store.Close()
		return nil, unreadable(kind, src,
			fmt.Errorf("no %s table; is this a %s %s store?", table, x.browser, kind))
	}
	return store, nil
}

// into parses raw into dst. NULL and empty values leave dst absent.
func (c column) into(dst *timeline.Timestamp, raw sql.NullString) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	ts, err := c.parse(c.name, raw.String)
	if err != nil {
		return err
	}
	*dst = ts
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
