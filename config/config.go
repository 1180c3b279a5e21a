// Package config loads the daemon configuration from an HCL file.
//
//	tick           = "10ms"
//	max_events     = 128
//	log_level      = "info"
//	clamp_timeouts = false
//
//	keepalive "watchdog" {
//	  path     = "/dev/watchdog"
//	  interval = "10s"
//	  timeout  = "1s"
//	  payload  = "."
//
//	  magic_close = "V"
//	}
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joeycumines/logiface"
	"github.com/spf13/afero"
)

// Values used for settings the configuration file omits.
const (
	// DefaultTick is the timer wheel resolution.
	DefaultTick = 10 * time.Millisecond
	// DefaultMaxEvents is the number of events a single
	// multiplexer wait returns at most.
	DefaultMaxEvents = 128
	// DefaultLogLevel is the minimum level of logged events.
	DefaultLogLevel = logiface.LevelInformational
	// DefaultPayload is written by a keepalive without payload.
	DefaultPayload = "."
)

// Config is the decoded and validated daemon configuration.
type Config struct {
	Tick          time.Duration
	MaxEvents     int
	LogLevel      logiface.Level
	ClampTimeouts bool
	Keepalives    []Keepalive
}

// Keepalive periodically writes Payload to the file at Path.
// A Timeout > 0 bounds how long a write waits for the file
// to become writable.
// MagicClose, if set, is written right before the file is closed,
// which disarms a Linux watchdog device.
type Keepalive struct {
	Name       string
	Path       string
	Interval   time.Duration
	Timeout    time.Duration
	Payload    []byte
	MagicClose []byte
}

type hclFile struct {
	Tick          *string         `hcl:"tick,optional"`
	MaxEvents     *int            `hcl:"max_events,optional"`
	LogLevel      *string         `hcl:"log_level,optional"`
	ClampTimeouts *bool           `hcl:"clamp_timeouts,optional"`
	Keepalives    []*hclKeepalive `hcl:"keepalive,block"`
}

type hclKeepalive struct {
	Name     string  `hcl:"name,label"`
	Path     string  `hcl:"path"`
	Interval string  `hcl:"interval"`
	Timeout  *string `hcl:"timeout,optional"`
	Payload  *string `hcl:"payload,optional"`

	MagicClose *string `hcl:"magic_close,optional"`
}

// Load reads and parses the configuration file at path from fs.
func Load(fs afero.Fs, path string) (*Config, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(src, path)
}

// Parse parses an HCL configuration.
// filename is only used in diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	var raw hclFile
	if diags := gohcl.DecodeBody(f.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	c := &Config{
		Tick:      DefaultTick,
		MaxEvents: DefaultMaxEvents,
		LogLevel:  DefaultLogLevel,
	}
	if raw.Tick != nil {
		d, err := parsePositive(*raw.Tick)
		if err != nil {
			return nil, fmt.Errorf("tick: %w", err)
		}
		c.Tick = d
	}
	if raw.MaxEvents != nil {
		if *raw.MaxEvents < 1 {
			return nil, fmt.Errorf("max_events: must be positive, got %d", *raw.MaxEvents)
		}
		c.MaxEvents = *raw.MaxEvents
	}
	if raw.LogLevel != nil {
		l, err := ParseLevel(*raw.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
		c.LogLevel = l
	}
	if raw.ClampTimeouts != nil {
		c.ClampTimeouts = *raw.ClampTimeouts
	}

	names := make(map[string]struct{}, len(raw.Keepalives))
	for _, k := range raw.Keepalives {
		if _, ok := names[k.Name]; ok {
			return nil, fmt.Errorf("keepalive %q: declared more than once", k.Name)
		}
		names[k.Name] = struct{}{}

		ka, err := k.keepalive()
		if err != nil {
			return nil, fmt.Errorf("keepalive %q: %w", k.Name, err)
		}
		c.Keepalives = append(c.Keepalives, ka)
	}
	return c, nil
}

func (k *hclKeepalive) keepalive() (Keepalive, error) {
	ka := Keepalive{
		Name:    k.Name,
		Path:    k.Path,
		Payload: []byte(DefaultPayload),
	}
	if k.Path == "" {
		return ka, errors.New("path: must not be empty")
	}
	d, err := parsePositive(k.Interval)
	if err != nil {
		return ka, fmt.Errorf("interval: %w", err)
	}
	ka.Interval = d
	if k.Timeout != nil {
		if ka.Timeout, err = time.ParseDuration(*k.Timeout); err != nil {
			return ka, fmt.Errorf("timeout: %w", err)
		}
		if ka.Timeout < 0 {
			return ka, errors.New("timeout: must not be negative")
		}
	}
	if k.Payload != nil {
		if *k.Payload == "" {
			return ka, errors.New("payload: must not be empty")
		}
		ka.Payload = []byte(*k.Payload)
	}
	if k.MagicClose != nil {
		if *k.MagicClose == "" {
			return ka, errors.New("magic_close: must not be empty")
		}
		ka.MagicClose = []byte(*k.MagicClose)
	}
	return ka, nil
}

func parsePositive(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

// ParseLevel parses a log level name as printed by logiface.Level.
// "error" and "warn" are accepted as aliases.
func ParseLevel(s string) (logiface.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "error":
		return logiface.LevelError, nil
	case "warn":
		return logiface.LevelWarning, nil
	}
	for l := logiface.LevelDisabled; l <= logiface.LevelTrace; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return logiface.LevelDisabled, fmt.Errorf("unknown level %q", s)
}
