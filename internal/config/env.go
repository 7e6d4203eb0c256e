package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "TESSERA_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envSetting struct {
	name string // without EnvPrefix
	path string
	set  func(c *Config, value string) error
}

var envSettings = []envSetting{
	{"LOG_LEVEL", "logging.level", setString(func(c *Config) *string { return &c.Logging.Level })},
	{"LOG_FORMAT", "logging.format", setString(func(c *Config) *string { return &c.Logging.Format })},
	{"LOG_FILE", "logging.file", setString(func(c *Config) *string { return &c.Logging.File })},
	{"LINE_ENDING", "buffer.line_ending", setString(func(c *Config) *string { return &c.Buffer.LineEnding })},
	{"READ_ONLY", "buffer.read_only", setBool(func(c *Config) *bool { return &c.Buffer.ReadOnly })},
	{"TAB_LENGTH", "display.tab_length", setInt(func(c *Config) *int { return &c.Display.TabLength })},
	{"SOFT_WRAP_COLUMN", "display.soft_wrap_column", setInt(func(c *Config) *int { return &c.Display.SoftWrapColumn })},
	{"WORD_WRAP", "display.word_wrap", setBool(func(c *Config) *bool { return &c.Display.WordWrap })},
	{"LINE_HEIGHT", "display.line_height", setFloat(func(c *Config) *float64 { return &c.Display.LineHeight })},
	{"SCRIPT_TIMEOUT", "plugin.timeout_ms", setMillis(func(c *Config) *int { return &c.Plugin.TimeoutMS })},
}

// ApplyEnv overrides settings from TESSERA_* variables found by lookup and
// validates the result. Empty values are treated as set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, s := range envSettings {
		val, ok := lookup(EnvPrefix + s.name)
		if !ok {
			continue
		}
		if err := s.set(c, val); err != nil {
			return &ValidationError{Path: s.path, Value: val, Message: err.Error()}
		}
	}
	return c.Validate()
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = strings.TrimSpace(v)
		return nil
	}
}

func setInt(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("not an integer")
		}
		*field(c) = n
		return nil
	}
}

func setFloat(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("not a number")
		}
		*field(c) = f
		return nil
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("not a boolean")
		}
		*field(c) = b
		return nil
	}
}

// setMillis accepts a plain millisecond count or a Go duration.
func setMillis(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		v = strings.TrimSpace(v)
		if n, err := strconv.Atoi(v); err == nil {
			*field(c) = n
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("not a duration")
		}
		*field(c) = int(d / time.Millisecond)
		return nil
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, true
	case "false", "no", "off", "0", "":
		return false, true
	}
	return false, false
}
