package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up when none is given.
const DefaultFileName = "benchup.yaml"

// Format is a configuration file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf selects the encoding from the file extension; YAML is the default.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load reads the configuration at path. An empty path yields the defaults;
// unknown keys are rejected.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, NewConfigNotFoundError(path)
		}
		return Config{}, NewUserError(ErrCodeConfigNotFound, "cannot read configuration file").
			WithContext(path).
			WithUnderlying(err)
	}

	cfg, err := Parse(data, FormatOf(path))
	if err != nil {
		return Config{}, NewConfigParseError(path, err)
	}
	return cfg, nil
}

// Parse decodes data and fills unset keys from the defaults.
func Parse(data []byte, format Format) (Config, error) {
	var cfg Config
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	default:
		if len(bytes.TrimSpace(data)) > 0 {
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&cfg); err != nil {
				return Config{}, err
			}
		}
	}
	return withDefaults(cfg), nil
}

func withDefaults(c Config) Config {
	d := Default()
	setDefault(&c.SiteName, d.SiteName)
	setDefault(&c.SystemUser, d.SystemUser)
	setDefault(&c.DBType, d.DBType)
	setDefault(&c.DBHost, d.DBHost)
	setDefault(&c.WorkingFolder, d.WorkingFolder)
	setDefault(&c.RuntimeVersion, d.RuntimeVersion)
	setDefault(&c.FrappeBranch, d.FrappeBranch)
	setDefault(&c.Preset, d.Preset)
	if c.Apps == nil {
		c.Apps = d.Apps
	}
	return c
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Marshal encodes cfg in the given format.
func Marshal(cfg Config, format Format) ([]byte, error) {
	if format == FormatTOML {
		return toml.Marshal(cfg)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path, readable by the owner only since it may hold secrets.
func Save(path string, cfg Config) error {
	data, err := Marshal(cfg, FormatOf(path))
	if err != nil {
		return NewUserError(ErrCodeConfigWrite, "cannot encode configuration").WithUnderlying(err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return NewUserError(ErrCodeConfigWrite, "cannot create configuration directory").
				WithContext(dir).
				WithUnderlying(err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return NewUserError(ErrCodeConfigWrite, fmt.Sprintf("cannot write %s", path)).
			WithContext(path).
			WithUnderlying(err)
	}
	return nil
}
