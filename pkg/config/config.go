// Package config loads styrene's tool configuration: built-in defaults,
// then a TOML file, then STYRENE_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix = "STYRENE_"
	// RelPath is the config file location under the XDG config dirs.
	RelPath = "styrene/config.toml"
)

type Config struct {
	Log   LogConfig         `koanf:"log"`
	Build BuildConfig       `koanf:"build"`
	Tools map[string]string `koanf:"tools"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type BuildConfig struct {
	Arch    string   `koanf:"arch"`
	Format  string   `koanf:"format"`
	PkgDirs []string `koanf:"pkgdirs"`
}

// Defaults are the built-in values. Tool names map to themselves so the
// PATH lookup happens at run time.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"log.level":      "",
		"log.json":       false,
		"build.arch":     "",
		"build.format":   "zip",
		"build.pkgdirs":  []string{},
		"tools.pacman":   "pacman",
		"tools.vercmp":   "vercmp",
		"tools.gcc":      "gcc",
		"tools.makensis": "makensis",
		"tools.zip":      "zip",
	}
}

// Path returns the config file to load. An explicit path always wins;
// otherwise the XDG config dirs are searched and "" means none was found.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	p, err := xdg.SearchConfigFile(RelPath)
	if err != nil {
		return ""
	}
	return p
}

// Load builds the configuration. A missing explicit file is an error; a
// missing default file is not.
func Load(explicit string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := Path(explicit); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

// ToolPaths maps tool names to the executables to run.
func (c *Config) ToolPaths() map[string]string {
	paths := make(map[string]string, len(c.Tools))
	for name, path := range c.Tools {
		if path != "" && path != name {
			paths[name] = path
		}
	}
	return paths
}
