// Package ioconfig provides I/O operations for loading layered settings
// from YAML files. This is an impure package that handles file system and
// environment access.
package ioconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/findata/findwh/pkg/config"
	"github.com/spf13/viper"
)

// EnvToken in a config file name is replaced by the environment name, so
// one list of file names can serve dev and prod layers.
const EnvToken = "{ENV}"

// load reads the layered config files in order and merges them over the
// built-in defaults. A top-level key supplied by more than one file is a
// fatal error: layers add settings, they never overwrite each other.
func load(env string, paths []string) (*config.Config, error) {
	merged := map[string]any{}
	owner := map[string]string{}

	for _, p := range paths {
		path := strings.ReplaceAll(p, EnvToken, env)

		v := viper.New()
		v.SetConfigType("yaml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		for key, val := range v.AllSettings() {
			if prev, ok := owner[key]; ok {
				return nil, fmt.Errorf(
					"duplicate settings %q: defined in %s and %s",
					key, prev, path,
				)
			}
			owner[key] = path
			merged[key] = expandEnv(val)
		}
	}

	// Unmarshal over defaults so absent keys keep their default values.
	// Precedence: env vars > config files > defaults.
	v := viper.New()
	v.SetEnvPrefix("FINDWH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.MergeConfigMap(merged); err != nil {
		return nil, fmt.Errorf("failed to merge config layers: %w", err)
	}

	cfg := config.New()
	cfg.Environment = env
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// expandEnv substitutes ${VAR} references in string values, recursing
// through nested maps and slices the YAML decoder produces.
func expandEnv(val any) any {
	switch v := val.(type) {
	case string:
		return os.ExpandEnv(v)
	case map[string]any:
		for k, nested := range v {
			v[k] = expandEnv(nested)
		}
		return v
	case []any:
		for i, nested := range v {
			v[i] = expandEnv(nested)
		}
		return v
	default:
		return val
	}
}
