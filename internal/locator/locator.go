// Package locator resolves where a browser keeps its history, cookie and
// cache stores for a given target OS, user and filesystem root.
//
// Each store is resolved independently with the precedence command-line flag,
// then configuration override, then the built-in default for the target.
// The result is an immutable value; nothing here mutates shared state.
package locator

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/afero"

	"github.com/runnerr0/btr/internal/artifact"
	"github.com/runnerr0/btr/internal/config"
	"github.com/runnerr0/btr/internal/logging"
)

// Origin records which layer supplied a store path.
type Origin string

const (
	OriginDefault Origin = "default"
	OriginConfig  Origin = "config"
	OriginFlag    Origin = "flag"
)

// Target is the system whose browser data is analysed. Root is where that
// system's filesystem is mounted: "/" for a live Linux or macOS system, or
// the mount point of an image.
type Target struct {
	OS   config.OS
	User string
	Root string
}

// DefaultTarget describes the running system and the current user.
func DefaultTarget() Target {
	return Target{OS: config.HostOS(), User: CurrentUser(), Root: DefaultRoot()}
}

// CurrentUser returns the login name of the process owner, or "" when it
// cannot be determined.
func CurrentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		// Windows reports DOMAIN\user.
		return u.Username[strings.LastIndex(u.Username, `\`)+1:]
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}

// DefaultRoot is the root of the live filesystem.
func DefaultRoot() string {
	if runtime.GOOS == "windows" {
		drive := os.Getenv("SystemDrive")
		if drive == "" {
			drive = "C:"
		}
		return drive + `\`
	}
	return "/"
}

// Flags are store paths given directly on the command line.
type Flags struct {
	History string
	Cookies string
}

// Location is one resolved store.
type Location struct {
	artifact.Source
	Origin Origin
}

// Locations is the resolved set of stores for one browser and target.
type Locations struct {
	Target  Target
	Browser artifact.Browser
	History Location
	Cookies Location
	Cache   Location
}

// Source returns the store of the given kind.
func (l Locations) Source(kind artifact.Kind) artifact.Source {
	switch kind {
	case artifact.KindHistory:
		return l.History.Source
	case artifact.KindCookies:
		return l.Cookies.Source
	default:
		return l.Cache.Source
	}
}

// Locator resolves store paths against a filesystem.
type Locator struct {
	fs afero.Fs
}

// New returns a Locator probing fs. A nil fs means the host filesystem.
func New(fs afero.Fs) *Locator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Locator{fs: fs}
}

// Resolve returns the stores for browser on target. A store that cannot be
// found is returned with an empty path, so that reading it fails with a
// message naming its override key.
func (l *Locator) Resolve(ctx context.Context, t Target, browser artifact.Browser, overrides config.Overrides, flags Flags) (Locations, error) {
	if t.User == "" {
		return Locations{}, goerr.New("cannot determine the user whose browser data to analyse; pass --user")
	}
	if t.Root == "" {
		t.Root = DefaultRoot()
	}

	var defaults map[artifact.Kind]string
	switch browser {
	case artifact.Chrome, artifact.Edge:
		defaults = l.chromiumDefaults(t, browser)
	case artifact.Firefox:
		defaults = l.firefoxDefaults(ctx, t)
	default:
		return Locations{}, goerr.Wrap(artifact.ErrUnsupportedBrowser, fmt.Sprintf("no store layout for %q", browser),
			goerr.V("browser", browser))
	}

	resolve := func(kind artifact.Kind, flag string) Location {
		loc := Location{Source: artifact.Source{Override: config.OverrideKey(t.OS, browser, kind)}}
		if flag != "" {
			loc.Path, loc.Origin = flag, OriginFlag
		} else if p, ok := overrides.Lookup(t.OS, browser, kind); ok {
			loc.Path, loc.Origin = p, OriginConfig
		} else {
			loc.Path, loc.Origin = defaults[kind], OriginDefault
		}
		return loc
	}

	locs := Locations{
		Target:  t,
		Browser: browser,
		History: resolve(artifact.KindHistory, flags.History),
		Cookies: resolve(artifact.KindCookies, flags.Cookies),
		Cache:   resolve(artifact.KindCache, ""),
	}

	logger := logging.From(ctx)
	for _, kind := range artifact.Kinds() {
		logger.Debug("store located", "browser", browser, "kind", kind,
			"path", locs.Source(kind).Path, "origin", locs.origin(kind))
	}
	return locs, nil
}

func (l Locations) origin(kind artifact.Kind) Origin {
	switch kind {
	case artifact.KindHistory:
		return l.History.Origin
	case artifact.KindCookies:
		return l.Cookies.Origin
	default:
		return l.Cache.Origin
	}
}

func (l *Locator) chromiumDefaults(t Target, browser artifact.Browser) map[artifact.Kind]string {
	layout, ok := chromiumLayouts[t.OS][browser]
	if !ok {
		return nil
	}
	home := homeDir(t)
	profile := under(home, layout.profile...)

	// Chrome 96 moved the cookie store into Network/.
	cookies := under(profile, "Network", "Cookies")
	if !isFile(l.fs, cookies) {
		cookies = under(profile, "Cookies")
	}

	return map[artifact.Kind]string{
		artifact.KindHistory: under(profile, "History"),
		artifact.KindCookies: cookies,
		artifact.KindCache:   under(home, layout.cache...),
	}
}

func (l *Locator) firefoxDefaults(ctx context.Context, t Target) map[artifact.Kind]string {
	layout, ok := firefoxLayouts[t.OS]
	if !ok {
		return nil
	}
	home := homeDir(t)
	profilesRoot := under(home, layout.profiles...)

	p, ok := findFirefoxProfile(l.fs, t.Root, profilesRoot)
	if !ok {
		logging.From(ctx).Warn("firefox profile not found; set the store paths in the config file if firefox is installed",
			"profiles", profilesRoot,
			"history_key", config.OverrideKey(t.OS, artifact.Firefox, artifact.KindHistory),
			"cookies_key", config.OverrideKey(t.OS, artifact.Firefox, artifact.KindCookies))
		return nil
	}

	out := map[artifact.Kind]string{
		artifact.KindHistory: under(p.Dir, "places.sqlite"),
		artifact.KindCookies: under(p.Dir, "cookies.sqlite"),
	}
	if p.Rel != "" {
		out[artifact.KindCache] = under(under(home, layout.cacheRoot...), p.Rel, "cache2")
	}
	return out
}
