package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/drone/envsubst"
	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/vfs"
	v1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/eventcore/pkg/utils"
)

var REALM = logging.DefineRealm("eventcore/config", "configuration")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

const ENV_PREFIX = "EVENTCORE_"

// Lookup resolves environment variables.
type Lookup func(name string) (string, bool)

// Parse parses a YAML configuration after expanding variable references.
// Unknown fields are rejected.
func Parse(data []byte, lookup ...Lookup) (*Config, error) {
	env := utils.OptionalDefaulted[Lookup](os.LookupEnv, lookup...)
	expanded, err := envsubst.Eval(string(data), func(name string) string {
		v, _ := env(name)
		return v
	})
	if err != nil {
		return nil, fmt.Errorf("variable expansion: %w", err)
	}
	var cfg Config
	err = yaml.UnmarshalStrict([]byte(expanded), &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadFile reads a configuration file. A missing file
// yields a nil configuration.
func ReadFile(fs vfs.FileSystem, path string, lookup ...Lookup) (*Config, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	cfg, err := Parse(data, lookup...)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// FromEnv provides the configuration settings found in
// EVENTCORE_* environment variables.
func FromEnv(lookup ...Lookup) (*Config, error) {
	env := utils.OptionalDefaulted[Lookup](os.LookupEnv, lookup...)
	var cfg Config
	var errs []error

	get := func(name string) (string, bool) {
		v, ok := env(ENV_PREFIX + name)
		return v, ok && v != ""
	}
	flag := func(name string, field **bool) {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", ENV_PREFIX, name, err))
				return
			}
			*field = &b
		}
	}

	flag("DIAGNOSTICS", &cfg.Diagnostics.Enabled)
	flag("RECORD", &cfg.Diagnostics.Record)
	flag("CLEAR_ON_SESSION", &cfg.Diagnostics.ClearOnSession)
	flag("KEEP_EMPTY_SLOTS", &cfg.Registry.KeepEmptySlots)
	if v, ok := get("PERIOD"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPERIOD: %w", ENV_PREFIX, err))
		} else {
			cfg.Loop.Period = &v1.Duration{Duration: d}
		}
	}
	if v, ok := get("PORT"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPORT: %w", ENV_PREFIX, err))
		} else {
			cfg.Server.Port = &p
		}
	}
	if v, ok := get("PREFERENCES"); ok {
		cfg.Recorder.Preferences = &v
	}
	return &cfg, errors.Join(errs...)
}

// Load merges the defaults, the given configuration files in order
// and the environment settings.
func Load(fs vfs.FileSystem, paths []string, lookup ...Lookup) (*Config, error) {
	cfg := Default()
	for _, p := range paths {
		c, err := ReadFile(fs, p, lookup...)
		if err != nil {
			return nil, err
		}
		if c == nil {
			log.Debug("config file {{path}} not found", "path", p)
			continue
		}
		log.Debug("merging config file {{path}}", "path", p)
		cfg.Merge(c)
	}
	env, err := FromEnv(lookup...)
	if err != nil {
		return nil, err
	}
	cfg.Merge(env)
	return cfg, nil
}
