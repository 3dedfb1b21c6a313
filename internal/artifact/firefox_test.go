package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/btr/internal/timeline"
)

func firefoxExtractor(t *testing.T) Extractor {
	t.Helper()
	x, err := For(Firefox)
	require.NoError(t, err)
	require.Equal(t, Firefox, x.Browser())
	return x
}

func TestFirefoxHistory_PRTimeIsCanonical(t *testing.T) {
	dir := t.TempDir()
	path := firefoxPlacesDB(t, dir, [][]any{
		{"https://mozilla.org/", "Mozilla", int64(1_700_000_000_123_456)},
		{"place:sort=8", "Recent", nil},
		{"https://example.org/", nil, int64(1_600_000_000_000_000)},
	})

	set, err := firefoxExtractor(t).ExtractHistory(context.Background(), Source{Path: path})
	require.NoError(t, err)

	require.Len(t, set.Records, 2)
	assert.Equal(t, timeline.Timestamp(1_700_000_000_123_456), set.Records[0].VisitedAt)
	assert.Equal(t, "Mozilla", set.Records[0].Title)
	assert.Equal(t, "https://example.org/", set.Records[1].URL)
	assert.Equal(t, "", set.Records[1].Title)
	assert.Equal(t, 1, set.Untimed)
}

func TestFirefoxCookies_ExpiryInSeconds(t *testing.T) {
	dir := t.TempDir()
	path := firefoxCookiesDB(t, dir, [][]any{
		{".mozilla.org", "_ga", int64(1_700_000_000_000_000), int64(1_800_000_000), int64(1_700_000_500_000_000)},
	})

	set, err := firefoxExtractor(t).ExtractCookies(context.Background(), Source{Path: path})
	require.NoError(t, err)

	require.Len(t, set.Records, 1)
	assert.Equal(t, CookieRecord{
		Host:           ".mozilla.org",
		Name:           "_ga",
		CreatedAt:      timeline.Timestamp(1_700_000_000_000_000),
		ExpiresAt:      timeline.Timestamp(1_800_000_000_000_000),
		LastAccessedAt: timeline.Timestamp(1_700_000_500_000_000),
	}, set.Records[0])
}

func TestFirefoxCookies_NullTimesStayAbsent(t *testing.T) {
	dir := t.TempDir()
	path := firefoxCookiesDB(t, dir, [][]any{
		{"a.example", "x", nil, nil, nil},
	})

	set, err := firefoxExtractor(t).ExtractCookies(context.Background(), Source{Path: path})
	require.NoError(t, err)

	require.Len(t, set.Records, 1)
	assert.True(t, set.Records[0].CreatedAt.IsZero())
	assert.True(t, set.Records[0].ExpiresAt.IsZero())
	assert.True(t, set.Records[0].LastAccessedAt.IsZero())
	assert.Empty(t, set.Dropped)
}
