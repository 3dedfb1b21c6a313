package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrowser(t *testing.T) {
	tests := []struct {
		in      string
		want    Browser
		wantErr bool
	}{
		{in: "chrome", want: Chrome},
		{in: "Firefox", want: Firefox},
		{in: " edge ", want: Edge},
		{in: "safari", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBrowser(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedBrowser)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFor_EdgeIsUnsupported(t *testing.T) {
	x, err := For(Edge)
	assert.Nil(t, x)
	assert.ErrorIs(t, err, ErrUnsupportedBrowser)
}

func TestFor_UnknownBrowser(t *testing.T) {
	_, err := For(Browser("opera"))
	assert.ErrorIs(t, err, ErrUnsupportedBrowser)
	assert.Contains(t, err.Error(), "opera")
}

func TestExtract_MissingStoreNamesOverride(t *testing.T) {
	x := chromeExtractor(t)
	src := Source{
		Path:     filepath.Join(t.TempDir(), "nope", "History"),
		Override: "paths.linux.chrome.history",
	}

	_, err := x.ExtractHistory(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreNotFound)
	assert.Contains(t, err.Error(), "paths.linux.chrome.history")
	assert.Contains(t, err.Error(), "--history")
}

func TestExtract_EmptyPathIsNotFound(t *testing.T) {
	_, err := chromeExtractor(t).ExtractCookies(context.Background(), Source{})
	assert.ErrorIs(t, err, ErrStoreNotFound)
	assert.Contains(t, err.Error(), "--cookies")
}

func TestExtract_NotSQLiteIsUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "History")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a database file"), 0o600))

	_, err := chromeExtractor(t).ExtractHistory(context.Background(), Source{Path: path})
	assert.ErrorIs(t, err, ErrStoreUnreadable)
	assert.NotErrorIs(t, err, ErrStoreNotFound)
}

func TestExtract_WrongBrowserSchemaIsUnreadable(t *testing.T) {
	// A Chrome History handed to the Firefox extractor.
	path := chromeHistoryDB(t, t.TempDir(), [][]any{
		{"https://a.example/", "A", unixToWebKit(1)},
	})

	_, err := firefoxExtractor(t).ExtractHistory(context.Background(), Source{Path: path})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnreadable)
	assert.Contains(t, err.Error(), "moz_places")
}

func TestExtract_CancelledContext(t *testing.T) {
	path := chromeHistoryDB(t, t.TempDir(), [][]any{
		{"https://a.example/", "A", unixToWebKit(1)},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chromeExtractor(t).ExtractHistory(ctx, Source{Path: path})
	assert.Error(t, err)
}
