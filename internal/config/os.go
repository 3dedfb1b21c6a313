package config

import (
	"fmt"
	"runtime"
	"strings"
)

// OS identifies the operating system whose filesystem layout is analysed.
// It is the layout of the target, which need not be the host: a Windows
// image can be analysed from a Linux workstation.
type OS string

const (
	Linux   OS = "linux"
	Windows OS = "windows"
	Darwin  OS = "darwin"
)

// OSes lists every supported target OS.
func OSes() []OS {
	return []OS{Linux, Windows, Darwin}
}

// ParseOS maps a name to an OS case-insensitively. "macos" and "osx" are
// accepted for Darwin.
func ParseOS(name string) (OS, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linux":
		return Linux, nil
	case "windows":
		return Windows, nil
	case "darwin", "macos", "osx":
		return Darwin, nil
	}
	return "", fmt.Errorf("unknown operating system %q", name)
}

// HostOS returns the OS the process runs on. Unrecognised platforms are
// treated as Linux.
func HostOS() OS {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin":
		return Darwin
	default:
		return Linux
	}
}
