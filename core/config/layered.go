package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	dasherr "github.com/tristendillon/dashc/core/errors"
)

// EnvPrefix prefixes environment overrides, e.g. DASHC_MODE=container
const EnvPrefix = "DASHC"

// flagKeys maps config keys to the command line flags that set them
var flagKeys = map[string]string{
	"python":       "python",
	"entry":        "entry",
	"mode":         "mode",
	"compression":  "compression",
	"readonly":     "readonly",
	"quoting":      "quoting",
	"template_dir": "template-dir",
	"exclude":      "exclude",
	"output":       "output",
}

// Layer resolves the effective config: flags set on the command line win
// over DASHC_* environment variables, which win over base.
func Layer(base *Config, flags *pflag.FlagSet) (*Config, error) {
	if base == nil {
		base = Default()
	}

	v := viper.New()
	v.SetDefault("python", base.Python)
	v.SetDefault("entry", base.Entry)
	v.SetDefault("mode", base.Mode)
	v.SetDefault("compression", base.Compression)
	v.SetDefault("readonly", base.Readonly)
	v.SetDefault("quoting", base.Quoting)
	v.SetDefault("template_dir", base.TemplateDir)
	v.SetDefault("exclude", base.Exclude)
	v.SetDefault("output", base.Output)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, err
				}
			}
		}
	}

	cfg := &Config{
		Python:      v.GetString("python"),
		Entry:       v.GetString("entry"),
		Mode:        v.GetString("mode"),
		Compression: v.GetString("compression"),
		Readonly:    v.GetBool("readonly"),
		Quoting:     v.GetString("quoting"),
		TemplateDir: v.GetString("template_dir"),
		Exclude:     v.GetStringSlice("exclude"),
		Output:      v.GetString("output"),
		Path:        base.Path,
	}

	if err := cfg.Validate(); err != nil {
		return nil, dasherr.Wrap(dasherr.ConfigInvalid, cfg.Path, "invalid settings", err)
	}
	return cfg, nil
}
