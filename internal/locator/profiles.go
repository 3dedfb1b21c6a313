package locator

import (
	"bufio"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// profile is a Firefox profile directory. Rel is the directory relative to
// the profiles root when the profile is stored there, which is also where
// its cache lives relative to the cache root.
type profile struct {
	Dir string
	Rel string
}

// findFirefoxProfile returns the default profile under profilesRoot. It reads
// profiles.ini first and otherwise falls back to the first directory whose
// name contains ".default", checking the Profiles subdirectory used on
// Windows and macOS as well as the root itself.
func findFirefoxProfile(fs afero.Fs, root, profilesRoot string) (profile, bool) {
	if p, ok := parseProfilesIni(fs, root, profilesRoot); ok {
		return p, true
	}
	for _, sub := range []string{"", "Profiles"} {
		if p, ok := scanDefaultDir(fs, profilesRoot, sub); ok {
			return p, true
		}
	}
	return profile{}, false
}

// parseProfilesIni finds the default profile named by profiles.ini.
//
// Priority:
//  1. [Install*] section Default= key, used by modern Firefox
//  2. [Profile*] section with Default=1, used by older profiles
//
// A profile listed in the file whose directory does not exist is ignored.
func parseProfilesIni(fs afero.Fs, root, profilesRoot string) (profile, bool) {
	f, err := fs.Open(filepath.Join(profilesRoot, "profiles.ini"))
	if err != nil {
		return profile{}, false
	}
	defer f.Close()

	type section struct {
		path       string
		isRelative bool
		isDefault  bool
	}

	var installDefault string
	var profileDefault *section
	var cur *section
	var inInstall bool

	flush := func() {
		if cur != nil && cur.isDefault && cur.path != "" && profileDefault == nil {
			profileDefault = cur
		}
		cur = nil
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			flush()
			name := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			inInstall = strings.HasPrefix(name, "Install")
			if strings.HasPrefix(name, "Profile") {
				cur = &section{isRelative: true}
			}
			continue
		}

		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key, val := strings.TrimSpace(k), strings.TrimSpace(v)

		switch {
		case inInstall && key == "Default" && installDefault == "":
			installDefault = val
		case cur != nil && key == "Path":
			cur.path = val
		case cur != nil && key == "IsRelative":
			cur.isRelative = val != "0"
		case cur != nil && key == "Default":
			cur.isDefault = val == "1"
		}
	}
	flush()

	if installDefault != "" {
		if p, ok := profileAt(fs, root, profilesRoot, installDefault, !looksAbsolute(installDefault)); ok {
			return p, true
		}
	}
	if profileDefault != nil {
		return profileAt(fs, root, profilesRoot, profileDefault.path, profileDefault.isRelative)
	}
	return profile{}, false
}

// profileAt turns a profiles.ini Path value into a directory on the host.
// Absolute paths are absolute on the target, so they are placed under root.
func profileAt(fs afero.Fs, root, profilesRoot, path string, relative bool) (profile, bool) {
	var p profile
	if relative {
		p.Rel = filepath.FromSlash(path)
		p.Dir = filepath.Join(profilesRoot, p.Rel)
	} else {
		p.Dir = filepath.Join(root, stripVolume(filepath.FromSlash(strings.ReplaceAll(path, `\`, "/"))))
	}
	if !isDir(fs, p.Dir) {
		return profile{}, false
	}
	return p, true
}

// scanDefaultDir returns the first directory, in name order, under
// profilesRoot/sub whose name contains ".default".
func scanDefaultDir(fs afero.Fs, profilesRoot, sub string) (profile, bool) {
	dir := filepath.Join(profilesRoot, sub)
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return profile{}, false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if e.IsDir() && strings.Contains(e.Name(), ".default") {
			rel := filepath.Join(sub, e.Name())
			return profile{Dir: filepath.Join(profilesRoot, rel), Rel: rel}, true
		}
	}
	return profile{}, false
}

func looksAbsolute(path string) bool {
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) {
		return true
	}
	// Drive letter, as in C:\ or C:/.
	return len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/')
}

// stripVolume removes a Windows drive letter so the remainder can be joined
// under a mount point.
func stripVolume(path string) string {
	if len(path) >= 2 && path[1] == ':' {
		return path[2:]
	}
	return path
}

func isDir(fs afero.Fs, path string) bool {
	ok, err := afero.DirExists(fs, path)
	return err == nil && ok
}

func isFile(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}
