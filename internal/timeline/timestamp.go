// Package timeline normalizes browser-native timestamp encodings into one
// canonical timeline and filters records by time range.
//
// Every timestamp that leaves an extractor is a Timestamp: signed microseconds
// since 1970-01-01 00:00:00 UTC, where zero means "absent". Nothing downstream
// of this package needs to know which browser produced a value.
package timeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ErrMalformedTimestamp is returned when a raw field cannot be parsed as an
// integer in its expected base. It is a per-record error: callers drop the
// record and keep going.
var ErrMalformedTimestamp = goerr.New("malformed timestamp")

// webkitEpochOffsetMicros is the distance between the Windows NT / WebKit epoch
// (1601-01-01 00:00:00 UTC) and the Unix epoch, in microseconds.
const webkitEpochOffsetMicros int64 = 11_644_473_600_000_000

// Timestamp is a point on the canonical timeline in microseconds since the
// Unix epoch, UTC. The zero value means the timestamp is absent.
type Timestamp int64

// displayLayout is RFC 3339 pinned to microsecond precision.
const displayLayout = "2006-01-02T15:04:05.000000Z07:00"

// IsZero reports whether the timestamp is absent.
func (t Timestamp) IsZero() bool { return t == 0 }

// Micros returns the raw canonical value.
func (t Timestamp) Micros() int64 { return int64(t) }

// Time converts the timestamp to a UTC time.Time. An absent timestamp yields
// the zero time.Time.
func (t Timestamp) Time() time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.UnixMicro(int64(t)).UTC()
}

// String renders the timestamp as RFC 3339 with microseconds, or "" if absent.
func (t Timestamp) String() string {
	if t == 0 {
		return ""
	}
	return t.Time().Format(displayLayout)
}

// FromTime converts a time.Time to a Timestamp. The zero time maps to zero.
func FromTime(t time.Time) Timestamp {
	if t.IsZero() {
		return 0
	}
	return Timestamp(t.UnixMicro())
}

// Now returns the current wall-clock time on the canonical timeline.
func Now() Timestamp {
	return FromTime(time.Now())
}

// FromPRTime converts a Firefox PRTime (microseconds since 1970) value.
// PRTime already uses the canonical epoch and unit.
func FromPRTime(us int64) Timestamp {
	return Timestamp(us)
}

// FromWebKit converts a Chrome/WebKit timestamp (microseconds since 1601).
func FromWebKit(us int64) Timestamp {
	if us == 0 {
		return 0
	}
	return Timestamp(us - webkitEpochOffsetMicros)
}

// FromFiletime converts a Windows FILETIME (100ns ticks since 1601).
func FromFiletime(ticks int64) Timestamp {
	if ticks == 0 {
		return 0
	}
	return Timestamp(ticks/10 - webkitEpochOffsetMicros)
}

// FromUnixSeconds converts whole seconds since 1970. Firefox stores cookie
// expiry this way.
func FromUnixSeconds(s int64) Timestamp {
	switch {
	case s > math.MaxInt64/1_000_000:
		return Timestamp(math.MaxInt64)
	case s < math.MinInt64/1_000_000:
		return Timestamp(math.MinInt64)
	}
	return Timestamp(s * 1_000_000)
}

// ParsePRTime parses a base-10 PRTime value read from field.
func ParsePRTime(field, raw string) (Timestamp, error) {
	v, err := parseInt(field, raw, 10)
	if err != nil {
		return 0, err
	}
	return FromPRTime(v), nil
}

// ParseWebKit parses a base-10 WebKit timestamp read from field.
func ParseWebKit(field, raw string) (Timestamp, error) {
	v, err := parseInt(field, raw, 10)
	if err != nil {
		return 0, err
	}
	return FromWebKit(v), nil
}

// ParseUnixSeconds parses a base-10 seconds-since-1970 value read from field.
func ParseUnixSeconds(field, raw string) (Timestamp, error) {
	v, err := parseInt(field, raw, 10)
	if err != nil {
		return 0, err
	}
	return FromUnixSeconds(v), nil
}

// ParseFiletime parses a hexadecimal FILETIME read from field. A leading "0x"
// is accepted.
func ParseFiletime(field, raw string) (Timestamp, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := parseInt(field, s, 16)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, goerr.Wrap(ErrMalformedTimestamp, "negative FILETIME in "+field,
			goerr.V("field", field), goerr.V("value", raw))
	}
	return FromFiletime(v), nil
}

// ParseBound parses a caller-supplied range bound. Windows-targeted runs pass
// filetime=true and supply hexadecimal FILETIME; everything else is decimal
// Unix seconds. An empty string is an unset bound and yields zero.
func ParseBound(field, raw string, filetime bool) (Timestamp, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	if filetime {
		return ParseFiletime(field, raw)
	}
	return ParseUnixSeconds(field, strings.TrimSpace(raw))
}

func parseInt(field, raw string, base int) (int64, error) {
	v, err := strconv.ParseInt(raw, base, 64)
	if err != nil {
		return 0, goerr.Wrap(ErrMalformedTimestamp, "cannot parse "+field,
			goerr.V("field", field), goerr.V("value", raw), goerr.V("cause", err.Error()))
	}
	return v, nil
}
