package artifact

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/runnerr0/btr/internal/timeline"
)

// Browser identifies a browser family whose stores share one on-disk schema.
type Browser string

const (
	Chrome  Browser = "chrome"
	Firefox Browser = "firefox"
	// Edge is recognised so that paths can be configured and shown, but no
	// extractor exists for it yet.
	Edge Browser = "edge"
)

// Browsers lists every recognised browser tag.
func Browsers() []Browser {
	return []Browser{Chrome, Firefox, Edge}
}

// ParseBrowser maps a user-supplied name to a Browser. Unknown names fail
// with ErrUnsupportedBrowser.
func ParseBrowser(name string) (Browser, error) {
	b := Browser(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Browsers() {
		if b == known {
			return b, nil
		}
	}
	return "", goerr.Wrap(ErrUnsupportedBrowser, "unknown browser "+name, goerr.V("browser", name))
}

// Kind is the type of store a path points at.
type Kind string

const (
	KindHistory Kind = "history"
	KindCookies Kind = "cookies"
	// KindCache paths are resolved and reported but never read.
	KindCache Kind = "cache"
)

// Kinds lists every store kind.
func Kinds() []Kind {
	return []Kind{KindHistory, KindCookies, KindCache}
}

// Source is a store location handed to an extractor.
type Source struct {
	// Path is the store file on the host filesystem. Empty means the store
	// could not be located.
	Path string
	// Override is the configuration key that points at this store, quoted in
	// errors so the user knows what to set.
	Override string
}

// HistoryRecord is one visited URL with its last visit time.
type HistoryRecord struct {
	URL       string
	Title     string
	VisitedAt timeline.Timestamp
}

// CookieRecord is one cookie's identity and lifecycle timestamps.
type CookieRecord struct {
	Host           string
	Name           string
	CreatedAt      timeline.Timestamp
	ExpiresAt      timeline.Timestamp
	LastAccessedAt timeline.Timestamp
}

// HistorySet is the result of reading a history store.
type HistorySet struct {
	Records []HistoryRecord
	// Dropped holds one ErrMalformedTimestamp per row that was discarded.
	Dropped []error
	// Untimed counts rows discarded because they carry no visit time.
	Untimed int
	// Digest is the SHA-256 of the store file that was read.
	Digest string
}

// CookieSet is the result of reading a cookie store.
type CookieSet struct {
	Records []CookieRecord
	Dropped []error
	Digest  string
}
