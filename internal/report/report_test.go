package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/runnerr0/btr/internal/artifact"
	"github.com/runnerr0/btr/internal/config"
	"github.com/runnerr0/btr/internal/locator"
	"github.com/runnerr0/btr/internal/timeline"
)

// 2023-11-14T22:13:20.123456Z
const sampleTime = timeline.Timestamp(1_700_000_000_123_456)

func sampleCookies() []artifact.CookieRecord {
	return []artifact.CookieRecord{
		{Host: ".example.com", Name: "sid", CreatedAt: sampleTime, ExpiresAt: sampleTime + 1_000_000},
		{Host: "b.example", Name: "x,y", CreatedAt: sampleTime},
	}
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSV_Cookies(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{}).Cookies(sampleCookies()))

	rows := readCSV(t, buf.String())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"host", "name", "createdAt", "expiresAt", "lastAccessedAt"}, rows[0])
	assert.Equal(t, []string{".example.com", "sid", "2023-11-14T22:13:20.123456Z", "2023-11-14T22:13:21.123456Z", ""}, rows[1])
	assert.Equal(t, "x,y", rows[2][1])
}

func TestCSV_HistoryRawTimes(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, Options{Format: FormatCSV, RawTimes: true})
	require.NoError(t, w.History([]artifact.HistoryRecord{
		{URL: "https://example.com/", Title: "Example \"quoted\"", VisitedAt: sampleTime},
	}))

	rows := readCSV(t, buf.String())
	assert.Equal(t, []string{"url", "title", "visitedAt"}, rows[0])
	assert.Equal(t, []string{"https://example.com/", "Example \"quoted\"", "1700000000123456"}, rows[1])
}

func TestCSV_EmptyHasHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{}).Cookies(nil))
	assert.Equal(t, "host,name,createdAt,expiresAt,lastAccessedAt\n", buf.String())
}

func TestTable_Cookies(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{Format: FormatTable}).Cookies(sampleCookies()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "HOST"))
	assert.Contains(t, lines[0], "CREATEDAT")
	assert.Contains(t, lines[1], ".example.com")
	assert.Contains(t, lines[1], "2023-11-14T22:13:20.123456Z")
}

func TestTable_SanitizesTitles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{Format: FormatTable}).History([]artifact.HistoryRecord{
		{URL: "https://a/", Title: "multi\nline\ttitle", VisitedAt: sampleTime},
	}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "multi line title")
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{Format: FormatTable}).History(nil))
	assert.Contains(t, buf.String(), "(none)")
}

func TestJSON_Cookies(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{Format: FormatJSON}).Cookies(sampleCookies()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "sid", got[0]["name"])
	assert.Equal(t, "2023-11-14T22:13:20.123456Z", got[0]["createdAt"])
	assert.Nil(t, got[0]["lastAccessedAt"])
}

func TestJSON_RawTimesAreNumbers(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, Options{Format: FormatJSON, RawTimes: true})
	require.NoError(t, w.History([]artifact.HistoryRecord{{URL: "https://a/", VisitedAt: sampleTime}}))

	var got []struct {
		VisitedAt int64 `json:"visitedAt"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(1_700_000_000_123_456), got[0].VisitedAt)
}

func TestJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{Format: FormatJSON}).Cookies(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestCSV_AllWritesTwoBlocks(t *testing.T) {
	var buf bytes.Buffer
	history := []artifact.HistoryRecord{{URL: "https://a/", Title: "A", VisitedAt: sampleTime}}
	require.NoError(t, New(&buf, Options{}).All(history, sampleCookies()))

	blocks := strings.Split(buf.String(), "\n\n")
	require.Len(t, blocks, 2)

	h := readCSV(t, blocks[0])
	assert.Equal(t, []string{"url", "title", "visitedAt"}, h[0])
	assert.Len(t, h, 2)

	c := readCSV(t, blocks[1])
	assert.Equal(t, []string{"host", "name", "createdAt", "expiresAt", "lastAccessedAt"}, c[0])
	assert.Len(t, c, 3)
}

func TestJSON_AllIsOneObject(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{Format: FormatJSON}).All(nil, sampleCookies()))

	var got struct {
		History []map[string]any `json:"history"`
		Cookies []map[string]any `json:"cookies"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.NotNil(t, got.History)
	assert.Empty(t, got.History)
	require.Len(t, got.Cookies, 2)
	assert.Equal(t, "x,y", got.Cookies[1]["name"])
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "csv": FormatCSV, "TABLE": FormatTable, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestLocations(t *testing.T) {
	locs := locator.Locations{
		Target:  locator.Target{OS: config.Linux, User: "alice", Root: "/"},
		Browser: artifact.Firefox,
		History: locator.Location{
			Source: artifact.Source{Path: "/p/places.sqlite", Override: "paths.linux.firefox.history"},
			Origin: locator.OriginConfig,
		},
		Cookies: locator.Location{
			Source: artifact.Source{Override: "paths.linux.firefox.cookies"},
			Origin: locator.OriginDefault,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Locations(&buf, locs))

	var doc yamlLocations
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "linux", doc.OS)
	assert.Equal(t, "firefox", doc.Browser)
	assert.Equal(t, "/p/places.sqlite", doc.Stores["history"].Path)
	assert.Equal(t, "config", doc.Stores["history"].Origin)
	assert.Equal(t, "", doc.Stores["cookies"].Path)
	assert.Equal(t, "paths.linux.firefox.cookies", doc.Stores["cookies"].Override)
}
