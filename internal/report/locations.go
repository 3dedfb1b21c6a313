package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/btr/internal/locator"
)

type yamlStore struct {
	Path     string `yaml:"path"`
	Origin   string `yaml:"origin"`
	Override string `yaml:"override"`
}

type yamlLocations struct {
	OS      string               `yaml:"os"`
	User    string               `yaml:"user"`
	Root    string               `yaml:"root"`
	Browser string               `yaml:"browser"`
	Stores  map[string]yamlStore `yaml:"stores"`
}

// Locations writes the resolved store paths as YAML. A store that could not
// be found is shown with an empty path.
func Locations(out io.Writer, locs locator.Locations) error {
	doc := yamlLocations{
		OS:      string(locs.Target.OS),
		User:    locs.Target.User,
		Root:    locs.Target.Root,
		Browser: string(locs.Browser),
		Stores: map[string]yamlStore{
			"history": store(locs.History),
			"cookies": store(locs.Cookies),
			"cache":   store(locs.Cache),
		},
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write locations: %w", err)
	}
	return enc.Close()
}

func store(l locator.Location) yamlStore {
	return yamlStore{Path: l.Path, Origin: string(l.Origin), Override: l.Override}
}
