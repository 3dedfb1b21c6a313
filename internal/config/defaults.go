package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/btr/internal/artifact"
	"github.com/runnerr0/btr/internal/detect"
)

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Paths: Overrides{},
		Analysis: AnalysisConfig{
			WindowMicros: detect.DefaultWindowMicros,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

const templateHeader = `# btr configuration.
#
# paths.<os>.<browser>.<store> overrides where a store is read from. The value
# "default" keeps the built-in location for the target OS and user.
# os: linux, windows, darwin. browser: chrome, firefox, edge.
# store: history, cookies, cache.
`

// Template renders a configuration file listing every override key with the
// value "default" and the default analysis and logging settings.
func Template() ([]byte, error) {
	paths := map[string]map[string]map[string]string{}
	for _, sys := range OSes() {
		browsers := map[string]map[string]string{}
		for _, b := range artifact.Browsers() {
			stores := map[string]string{}
			for _, k := range artifact.Kinds() {
				stores[string(k)] = "default"
			}
			browsers[string(b)] = stores
		}
		paths[string(sys)] = browsers
	}

	def := DefaultConfig()
	doc := struct {
		Paths    map[string]map[string]map[string]string `yaml:"paths"`
		Analysis AnalysisConfig                          `yaml:"analysis"`
		Logging  LoggingConfig                           `yaml:"logging"`
	}{paths, def.Analysis, def.Logging}

	body, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling config template: %w", err)
	}
	return append([]byte(templateHeader), body...), nil
}
