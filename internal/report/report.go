// Package report writes record sets for people and for scripts. Data goes
// only to the writer it is given; diagnostics never pass through here.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/runnerr0/btr/internal/artifact"
	"github.com/runnerr0/btr/internal/timeline"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Formats lists every output format.
func Formats() []Format {
	return []Format{FormatCSV, FormatTable, FormatJSON}
}

// ParseFormat maps a name to a Format. The empty string is CSV.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatTable, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want csv, table or json)", name)
}

// Options controls rendering.
type Options struct {
	Format Format
	// RawTimes emits canonical integer microseconds instead of RFC 3339.
	RawTimes bool
}

// Writer renders record sets to one sink.
type Writer struct {
	out  io.Writer
	opts Options
}

// New returns a Writer rendering to out.
func New(out io.Writer, opts Options) *Writer {
	if opts.Format == "" {
		opts.Format = FormatCSV
	}
	return &Writer{out: out, opts: opts}
}

var (
	historyHeader = []string{"url", "title", "visitedAt"}
	cookieHeader  = []string{"host", "name", "createdAt", "expiresAt", "lastAccessedAt"}
)

// History writes history records in input order.
func (w *Writer) History(records []artifact.HistoryRecord) error {
	if w.opts.Format == FormatJSON {
		return w.json(w.jsonHistory(records))
	}
	return w.rows(historyHeader, w.historyRows(records))
}

// Cookies writes cookie records in input order.
func (w *Writer) Cookies(records []artifact.CookieRecord) error {
	if w.opts.Format == FormatJSON {
		return w.json(w.jsonCookies(records))
	}
	return w.rows(cookieHeader, w.cookieRows(records))
}

// All writes the history records followed by the cookie records. JSON output
// is a single object with "history" and "cookies" arrays; csv and table
// output are two blocks separated by a blank line.
func (w *Writer) All(history []artifact.HistoryRecord, cookies []artifact.CookieRecord) error {
	if w.opts.Format == FormatJSON {
		return w.json(jsonAll{History: w.jsonHistory(history), Cookies: w.jsonCookies(cookies)})
	}
	if err := w.rows(historyHeader, w.historyRows(history)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w.out); err != nil {
		return fmt.Errorf("write separator: %w", err)
	}
	return w.rows(cookieHeader, w.cookieRows(cookies))
}

func (w *Writer) historyRows(records []artifact.HistoryRecord) [][]string {
	rows := make([][]string, len(records))
	for i, h := range records {
		rows[i] = []string{h.URL, h.Title, w.timeText(h.VisitedAt)}
	}
	return rows
}

func (w *Writer) cookieRows(records []artifact.CookieRecord) [][]string {
	rows := make([][]string, len(records))
	for i, c := range records {
		rows[i] = []string{c.Host, c.Name,
			w.timeText(c.CreatedAt), w.timeText(c.ExpiresAt), w.timeText(c.LastAccessedAt)}
	}
	return rows
}

func (w *Writer) jsonHistory(records []artifact.HistoryRecord) []jsonHistory {
	out := make([]jsonHistory, len(records))
	for i, h := range records {
		out[i] = jsonHistory{URL: h.URL, Title: h.Title, VisitedAt: w.timeValue(h.VisitedAt)}
	}
	return out
}

func (w *Writer) jsonCookies(records []artifact.CookieRecord) []jsonCookie {
	out := make([]jsonCookie, len(records))
	for i, c := range records {
		out[i] = jsonCookie{
			Host:           c.Host,
			Name:           c.Name,
			CreatedAt:      w.timeValue(c.CreatedAt),
			ExpiresAt:      w.timeValue(c.ExpiresAt),
			LastAccessedAt: w.timeValue(c.LastAccessedAt),
		}
	}
	return out
}

type jsonAll struct {
	History []jsonHistory `json:"history"`
	Cookies []jsonCookie  `json:"cookies"`
}

type jsonHistory struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	VisitedAt any    `json:"visitedAt"`
}

type jsonCookie struct {
	Host           string `json:"host"`
	Name           string `json:"name"`
	CreatedAt      any    `json:"createdAt"`
	ExpiresAt      any    `json:"expiresAt"`
	LastAccessedAt any    `json:"lastAccessedAt"`
}

func (w *Writer) rows(header []string, rows [][]string) error {
	if w.opts.Format == FormatTable {
		return w.table(header, rows)
	}

	cw := csv.NewWriter(w.out)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func (w *Writer) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(sanitize(r), "\t"))
	}
	if len(rows) == 0 {
		fmt.Fprintln(tw, "(none)")
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func (w *Writer) json(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// timeText renders a timestamp for csv and table output. Absent timestamps
// are empty.
func (w *Writer) timeText(ts timeline.Timestamp) string {
	if w.opts.RawTimes {
		if ts.IsZero() {
			return ""
		}
		return strconv.FormatInt(ts.Micros(), 10)
	}
	return ts.String()
}

// timeValue renders a timestamp for json output: a number with RawTimes, a
// string otherwise, and null when absent.
func (w *Writer) timeValue(ts timeline.Timestamp) any {
	if ts.IsZero() {
		return nil
	}
	if w.opts.RawTimes {
		return ts.Micros()
	}
	return ts.String()
}

var whitespace = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// sanitize keeps tabs and newlines in titles from breaking table columns.
func sanitize(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = whitespace.Replace(f)
	}
	return out
}
