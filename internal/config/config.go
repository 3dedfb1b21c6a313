package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/runnerr0/btr/internal/artifact"
	"github.com/runnerr0/btr/internal/logging"
)

// Default config file path.
const DefaultConfigPath = "~/.config/btr/config.yaml"

// ErrInvalidConfiguration means the configuration file cannot be read or
// references a key that does not exist. It is always fatal and is reported
// before any store path is resolved.
var ErrInvalidConfiguration = goerr.New("invalid configuration")

// Config holds all btr configuration.
type Config struct {
	Paths    Overrides      `yaml:"paths"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type AnalysisConfig struct {
	WindowMicros uint64 `yaml:"window_micros"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Every failure, including unknown keys, is an ErrInvalidConfiguration.
func Load(path string) (*Config, error) {
	path, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfiguration, fmt.Sprintf("reading config file %s (%v)", path, err),
			goerr.V("path", path))
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, goerr.Wrap(err, "config file "+path, goerr.V("path", path))
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults.
//
// OS tables may also sit at the top level of the document, outside paths,
// as in configs written for earlier btr releases. Entries under paths win
// over top-level ones for the same store.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	data, legacy, err := splitTopLevelOS(data)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfiguration, fmt.Sprintf("parsing config (%v)", err))
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, goerr.Wrap(ErrInvalidConfiguration, fmt.Sprintf("parsing config (%v)", err))
	}
	cfg.Paths = legacy.overlay(cfg.Paths)

	if _, ok := logging.ParseLevel(cfg.Logging.Level); !ok {
		return nil, goerr.Wrap(ErrInvalidConfiguration, fmt.Sprintf("unknown logging.level %q", cfg.Logging.Level),
			goerr.V("level", cfg.Logging.Level))
	}
	return cfg, nil
}

// splitTopLevelOS removes top-level OS keys from the document and decodes
// them as path overrides. The rest of the document is re-encoded for strict
// decoding.
func splitTopLevelOS(data []byte) ([]byte, Overrides, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return data, Overrides{}, nil
	}

	top := doc.Content[0]
	osTables := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	kept := make([]*yaml.Node, 0, len(top.Content))
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		if _, err := ParseOS(key.Value); err == nil {
			osTables.Content = append(osTables.Content, key, val)
			continue
		}
		kept = append(kept, key, val)
	}
	if len(osTables.Content) == 0 {
		return data, Overrides{}, nil
	}

	var legacy Overrides
	if err := osTables.Decode(&legacy); err != nil {
		return nil, nil, err
	}
	top.Content = kept
	rest, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, nil, err
	}
	return rest, legacy, nil
}

// overlay returns o with every store set in top replacing the same store in
// o. Neither input is modified.
func (o Overrides) overlay(top Overrides) Overrides {
	out := Overrides{}
	for _, src := range []Overrides{o, top} {
		for sys, browsers := range src {
			if out[sys] == nil {
				out[sys] = map[artifact.Browser]StorePaths{}
			}
			for b, sp := range browsers {
				cur := out[sys][b]
				if sp.History != "" {
					cur.History = sp.History
				}
				if sp.Cookies != "" {
					cur.Cookies = sp.Cookies
				}
				if sp.Cache != "" {
					cur.Cache = sp.Cache
				}
				out[sys][b] = cur
			}
		}
	}
	return out
}

// LoadDefault loads the config at DefaultConfigPath. A missing file is not an
// error: the defaults are returned and found reports false.
func LoadDefault() (cfg *Config, found bool, err error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return DefaultConfig(), false, nil
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return DefaultConfig(), false, nil
	}
	cfg, err = Load(path)
	return cfg, true, err
}

// WriteTemplate writes a commented configuration template to path, creating
// parent directories. An existing file is never overwritten.
func WriteTemplate(path string) error {
	path, err := expandPath(path)
	if err != nil {
		return err
	}

	data, err := Template()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("refusing to overwrite existing config %s", path)
		}
		return fmt.Errorf("writing config template: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing config template: %w", err)
	}
	return f.Close()
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// Overrides maps OS and browser to configured store paths. It is built once
// when the configuration is decoded and only read afterwards.
type Overrides map[OS]map[artifact.Browser]StorePaths

// StorePaths holds the configured path of each store kind. Empty means the
// locator default applies.
type StorePaths struct {
	History PathValue
	Cookies PathValue
	Cache   PathValue
}

// Lookup returns the configured path for one store and whether one is set.
func (o Overrides) Lookup(sys OS, browser artifact.Browser, kind artifact.Kind) (string, bool) {
	sp, ok := o[sys][browser]
	if !ok {
		return "", false
	}
	var v PathValue
	switch kind {
	case artifact.KindHistory:
		v = sp.History
	case artifact.KindCookies:
		v = sp.Cookies
	case artifact.KindCache:
		v = sp.Cache
	}
	return string(v), v != ""
}

// OverrideKey is the dotted configuration key for one store path, used in
// messages that tell the user what to set.
func OverrideKey(sys OS, browser artifact.Browser, kind artifact.Kind) string {
	return fmt.Sprintf("paths.%s.%s.%s", sys, browser, kind)
}

// UnmarshalYAML validates every OS, browser and store kind key. OS keys are
// matched case-insensitively, so "Linux" and "linux" name the same table.
func (o *Overrides) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]map[string]storeEntries
	if err := node.Decode(&raw); err != nil {
		return err
	}

	out := Overrides{}
	for osName, browsers := range raw {
		osKey, err := ParseOS(osName)
		if err != nil {
			return fmt.Errorf("paths.%s: %w", osName, err)
		}
		if out[osKey] == nil {
			out[osKey] = map[artifact.Browser]StorePaths{}
		}

		for browserName, stores := range browsers {
			b, err := artifact.ParseBrowser(browserName)
			if err != nil {
				return fmt.Errorf("paths.%s.%s: unknown browser", osName, browserName)
			}

			sp := out[osKey][b]
			for _, e := range stores {
				kindName, v := e.kind, e.path
				switch artifact.Kind(strings.ToLower(kindName)) {
				case artifact.KindHistory:
					sp.History = v
				case artifact.KindCookies:
					sp.Cookies = v
				case artifact.KindCache:
					sp.Cache = v
				default:
					return fmt.Errorf("paths.%s.%s.%s: unknown store kind", osName, browserName, kindName)
				}
			}
			out[osKey][b] = sp
		}
	}

	*o = out
	return nil
}

type storeEntry struct {
	kind string
	path PathValue
}

// storeEntries is the store table of one browser: either a mapping of kind
// to path, or a list of single-key mappings such as
// [{history: /x/History}, {cookies: default}]. List entries apply in order.
type storeEntries []storeEntry

func (s *storeEntries) UnmarshalYAML(node *yaml.Node) error {
	var out storeEntries
	add := func(m *yaml.Node) error {
		for i := 0; i+1 < len(m.Content); i += 2 {
			var v PathValue
			if err := m.Content[i+1].Decode(&v); err != nil {
				return err
			}
			out = append(out, storeEntry{kind: m.Content[i].Value, path: v})
		}
		return nil
	}

	switch node.Kind {
	case yaml.MappingNode:
		if err := add(node); err != nil {
			return err
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
				return fmt.Errorf("line %d: store list entry must be a single key: path mapping", item.Line)
			}
			if err := add(item); err != nil {
				return err
			}
		}
	case yaml.ScalarNode:
		if node.ShortTag() != "!!null" {
			return fmt.Errorf("line %d: store table must be a mapping or a list", node.Line)
		}
	default:
		return fmt.Errorf("line %d: store table must be a mapping or a list", node.Line)
	}

	*s = out
	return nil
}

// PathValue is one configured path. In YAML it may be a scalar or a list with
// a single entry; "default" and empty both mean unset.
type PathValue string

func (p *PathValue) UnmarshalYAML(node *yaml.Node) error {
	var s string
	switch node.Kind {
	case yaml.ScalarNode:
		s = node.Value
	case yaml.SequenceNode:
		switch len(node.Content) {
		case 0:
		case 1:
			if node.Content[0].Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: path list entry must be a string", node.Line)
			}
			s = node.Content[0].Value
		default:
			return fmt.Errorf("line %d: path list must have a single entry, got %d", node.Line, len(node.Content))
		}
	default:
		return fmt.Errorf("line %d: path must be a string", node.Line)
	}

	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "default") || node.ShortTag() == "!!null" {
		s = ""
	}
	*p = PathValue(s)
	return nil
}
