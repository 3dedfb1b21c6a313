package artifact

import "github.com/runnerr0/btr/internal/timeline"

// Chrome-family stores use WebKit time (microseconds since 1601) throughout.
var chromeSchema = schema{
	historyTable: "urls",
	historyQuery: `SELECT url, title, last_visit_time FROM urls`,
	visited:      column{"last_visit_time", timeline.ParseWebKit},

	cookieTable: "cookies",
	cookieQuery: `SELECT host_key, name, creation_utc, expires_utc, last_access_utc FROM cookies`,
	created:     column{"creation_utc", timeline.ParseWebKit},
	expires:     column{"expires_utc", timeline.ParseWebKit},
	accessed:    column{"last_access_utc", timeline.ParseWebKit},
}

// Firefox-family stores use PRTime, except moz_cookies.expiry which is in
// seconds.
var firefoxSchema = schema{
	historyTable: "moz_places",
	historyQuery: `SELECT url, title, last_visit_date FROM moz_places`,
	visited:      column{"last_visit_date", timeline.ParsePRTime},

	cookieTable: "moz_cookies",
	cookieQuery: `SELECT host, name, creationTime, expiry, lastAccessed FROM moz_cookies`,
	created:     column{"creationTime", timeline.ParsePRTime},
	expires:     column{"expiry", timeline.ParseUnixSeconds},
	accessed:    column{"lastAccessed", timeline.ParsePRTime},
}
