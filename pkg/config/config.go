// Package config provides the configuration of an event host.
// Configuration files are YAML documents which may refer to environment
// variables (${VAR}). Files are merged in order on top of the defaults,
// followed by EVENTCORE_* environment variables.
package config

import (
	"time"

	v1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/mandelsoft/eventcore/pkg/events"
	"github.com/mandelsoft/eventcore/pkg/utils"
)

const (
	DEFAULT_PERIOD = 100 * time.Millisecond
	DEFAULT_PORT   = 8080
)

type Config struct {
	Diagnostics Diagnostics `json:"diagnostics,omitempty"`
	Registry    Registry    `json:"registry,omitempty"`
	Loop        Loop        `json:"loop,omitempty"`
	Server      Server      `json:"server,omitempty"`
	Recorder    Recorder    `json:"recorder,omitempty"`
}

type Diagnostics struct {
	// Enabled switches the diagnostic hook of the registry.
	Enabled *bool `json:"enabled,omitempty"`
	// Record is the initial recording state, if no preferences are stored.
	Record *bool `json:"record,omitempty"`
	// ClearOnSession purges the recorded history when a new session starts.
	ClearOnSession *bool `json:"clearOnSession,omitempty"`
}

type Registry struct {
	KeepEmptySlots *bool `json:"keepEmptySlots,omitempty"`
}

type Loop struct {
	Period *v1.Duration `json:"period,omitempty"`
}

type Server struct {
	Port *int `json:"port,omitempty"`
}

type Recorder struct {
	// Preferences is the path of the recorder preferences file.
	Preferences *string `json:"preferences,omitempty"`
}

// Default returns a configuration with all fields set.
func Default() *Config {
	return &Config{
		Diagnostics: Diagnostics{
			Enabled:        utils.Pointer(false),
			Record:         utils.Pointer(true),
			ClearOnSession: utils.Pointer(false),
		},
		Registry: Registry{
			KeepEmptySlots: utils.Pointer(false),
		},
		Loop: Loop{
			Period: &v1.Duration{Duration: DEFAULT_PERIOD},
		},
		Server: Server{
			Port: utils.Pointer(DEFAULT_PORT),
		},
		Recorder: Recorder{
			Preferences: utils.Pointer(""),
		},
	}
}

// Merge overwrites all fields set in add.
func (c *Config) Merge(add *Config) {
	if add == nil {
		return
	}
	merge(&c.Diagnostics.Enabled, add.Diagnostics.Enabled)
	merge(&c.Diagnostics.Record, add.Diagnostics.Record)
	merge(&c.Diagnostics.ClearOnSession, add.Diagnostics.ClearOnSession)
	merge(&c.Registry.KeepEmptySlots, add.Registry.KeepEmptySlots)
	merge(&c.Loop.Period, add.Loop.Period)
	merge(&c.Server.Port, add.Server.Port)
	merge(&c.Recorder.Preferences, add.Recorder.Preferences)
}

func merge[T any](field **T, value *T) {
	if value != nil {
		*field = value
	}
}

func value[T any](p *T) T {
	if p == nil {
		var _nil T
		return _nil
	}
	return *p
}

func (c *Config) DiagnosticsEnabled() bool {
	return value(c.Diagnostics.Enabled)
}

func (c *Config) Record() bool {
	return value(c.Diagnostics.Record)
}

func (c *Config) ClearOnSession() bool {
	return value(c.Diagnostics.ClearOnSession)
}

func (c *Config) Period() time.Duration {
	if c.Loop.Period == nil || c.Loop.Period.Duration <= 0 {
		return DEFAULT_PERIOD
	}
	return c.Loop.Period.Duration
}

func (c *Config) Port() int {
	if c.Server.Port == nil {
		return DEFAULT_PORT
	}
	return *c.Server.Port
}

func (c *Config) PreferencesPath() string {
	return value(c.Recorder.Preferences)
}

// RegistryOptions provides the registry options described
// by the configuration.
func (c *Config) RegistryOptions() []events.Option {
	opts := []events.Option{
		events.WithDiagnostics(c.DiagnosticsEnabled()),
	}
	if value(c.Registry.KeepEmptySlots) {
		opts = append(opts, events.WithKeepEmptySlots())
	}
	return opts
}
