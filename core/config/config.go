package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/logger"
	"github.com/tristendillon/dashc/core/models"
)

type Config struct {
	Python      string   `yaml:"python" toml:"python"`
	Entry       string   `yaml:"entry" toml:"entry"`
	Mode        string   `yaml:"mode" toml:"mode"`
	Compression string   `yaml:"compression" toml:"compression"`
	Readonly    bool     `yaml:"readonly" toml:"readonly"`
	Quoting     string   `yaml:"quoting" toml:"quoting"`
	TemplateDir string   `yaml:"template_dir" toml:"template_dir"`
	Exclude     []string `yaml:"exclude" toml:"exclude"`
	Output      string   `yaml:"output" toml:"output"`

	// Path is the file the config was read from, empty for defaults
	Path string `yaml:"-" toml:"-"`
}

type pyproject struct {
	Tool struct {
		Dashc Config `toml:"dashc"`
	} `toml:"tool"`
}

func Default() *Config {
	return &Config{
		Python:      "python3",
		Mode:        models.Flat.String(),
		Compression: models.Compressed.String(),
		Quoting:     "single",
	}
}

// Load reads the first of dashc.yaml, dashc.toml or pyproject.toml
// ([tool.dashc]) found in dir. Missing keys keep their defaults.
func Load(dir string) (*Config, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working dir: %w", err)
		}
		dir = wd
	}

	candidates := []string{
		filepath.Join(dir, "dashc.yaml"),
		filepath.Join(dir, "dashc.yml"),
		filepath.Join(dir, "dashc.toml"),
		filepath.Join(dir, "pyproject.toml"),
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		cfg, found, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		if found {
			return cfg, nil
		}
	}

	logger.Debug("No config file found in %s, using default config", dir)
	return Default(), nil
}

// LoadFile parses a single config file. found is false for a pyproject.toml
// without a [tool.dashc] table.
func LoadFile(path string) (cfg *Config, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg = Default()
	switch {
	case filepath.Base(path) == "pyproject.toml":
		var probe struct {
			Tool struct {
				Dashc map[string]interface{} `toml:"dashc"`
			} `toml:"tool"`
		}
		if err := toml.Unmarshal(data, &probe); err != nil {
			return nil, false, dasherr.Wrap(dasherr.ConfigInvalid, path, "failed to parse toml", err)
		}
		if probe.Tool.Dashc == nil {
			logger.Debug("%s has no [tool.dashc] table", path)
			return nil, false, nil
		}
		project := pyproject{}
		project.Tool.Dashc = *cfg
		if err := toml.Unmarshal(data, &project); err != nil {
			return nil, false, dasherr.Wrap(dasherr.ConfigInvalid, path, "failed to parse toml", err)
		}
		*cfg = project.Tool.Dashc
	case filepath.Ext(path) == ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, false, dasherr.Wrap(dasherr.ConfigInvalid, path, "failed to parse toml", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, false, dasherr.Wrap(dasherr.ConfigInvalid, path, "failed to parse yaml", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, dasherr.Wrap(dasherr.ConfigInvalid, path, "invalid config", err)
	}

	cfg.Path = path
	logger.Debug("Config file found: %s", path)
	logger.Debug("Config: %+v", *cfg)
	return cfg, true, nil
}

// Validate checks enum-like fields
func (c *Config) Validate() error {
	if _, err := models.ParseArchiveMode(c.Mode); err != nil {
		return err
	}
	if _, err := models.ParseEncoding(c.Compression); err != nil {
		return err
	}
	switch c.Quoting {
	case "", "single", "double":
	default:
		return fmt.Errorf("unknown quoting %q: must be 'single' or 'double'", c.Quoting)
	}
	return nil
}
