package locator

import (
	"path/filepath"

	"github.com/runnerr0/btr/internal/artifact"
	"github.com/runnerr0/btr/internal/config"
)

// chromiumLayout is where a Chromium-family browser keeps its default
// profile, relative to the user's home directory.
type chromiumLayout struct {
	profile []string
	cache   []string
}

// firefoxLayout is where Firefox keeps profiles.ini and where it keeps the
// disk cache of each profile, relative to the user's home directory.
type firefoxLayout struct {
	profiles  []string
	cacheRoot []string
}

var chromiumLayouts = map[config.OS]map[artifact.Browser]chromiumLayout{
	config.Linux: {
		artifact.Chrome: {
			profile: []string{".config", "google-chrome", "Default"},
			cache:   []string{".cache", "google-chrome", "Default", "Cache"},
		},
		artifact.Edge: {
			profile: []string{".config", "microsoft-edge", "Default"},
			cache:   []string{".cache", "microsoft-edge", "Default", "Cache"},
		},
	},
	config.Windows: {
		artifact.Chrome: {
			profile: []string{"AppData", "Local", "Google", "Chrome", "User Data", "Default"},
			cache:   []string{"AppData", "Local", "Google", "Chrome", "User Data", "Default", "Cache"},
		},
		artifact.Edge: {
			profile: []string{"AppData", "Local", "Microsoft", "Edge", "User Data", "Default"},
			cache:   []string{"AppData", "Local", "Microsoft", "Edge", "User Data", "Default", "Cache"},
		},
	},
	config.Darwin: {
		artifact.Chrome: {
			profile: []string{"Library", "Application Support", "Google", "Chrome", "Default"},
			cache:   []string{"Library", "Caches", "Google", "Chrome", "Default", "Cache"},
		},
		artifact.Edge: {
			profile: []string{"Library", "Application Support", "Microsoft Edge", "Default"},
			cache:   []string{"Library", "Caches", "Microsoft Edge", "Default", "Cache"},
		},
	},
}

var firefoxLayouts = map[config.OS]firefoxLayout{
	config.Linux: {
		profiles:  []string{".mozilla", "firefox"},
		cacheRoot: []string{".cache", "mozilla", "firefox"},
	},
	config.Windows: {
		profiles:  []string{"AppData", "Roaming", "Mozilla", "Firefox"},
		cacheRoot: []string{"AppData", "Local", "Mozilla", "Firefox"},
	},
	config.Darwin: {
		profiles:  []string{"Library", "Application Support", "Firefox"},
		cacheRoot: []string{"Library", "Caches", "Firefox"},
	},
}

// homeDir returns the user's home directory on the target, under root.
func homeDir(t Target) string {
	switch t.OS {
	case config.Windows:
		return filepath.Join(t.Root, "Users", t.User)
	case config.Darwin:
		if t.User == "root" {
			return filepath.Join(t.Root, "var", "root")
		}
		return filepath.Join(t.Root, "Users", t.User)
	default:
		if t.User == "root" {
			return filepath.Join(t.Root, "root")
		}
		return filepath.Join(t.Root, "home", t.User)
	}
}

func under(base string, segments ...string) string {
	return filepath.Join(append([]string{base}, segments...)...)
}
