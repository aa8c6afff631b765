// Package logsink implements the external "Logging Sink" collaborator named
// in spec.md §4.5: an asynchronous textual sink the Supervisor emits into
// but never otherwise depends on (no rotation policy, file layout, or
// format choice is visible to the core). It is grounded directly in the
// original C++ implementation's CppLog module (see DESIGN.md and
// SPEC_FULL.md §3.2).
package logsink

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OpenMode selects how the sink's underlying file is opened.
type OpenMode int

const (
	// AddTo appends to an existing log file (the original's LogMode::ADDTO).
	AddTo OpenMode = iota
	// WriteOnly truncates the log file on open (LogMode::WRITEONLY).
	WriteOnly
)

// TimeFormat selects the layout used to prefix timestamped records,
// matching the five variants of the original CppLog module exactly.
type TimeFormat int

const (
	FullA    TimeFormat = iota // "2006-01-02 15:04:05"
	FullB                      // "2006/01/02 15:04:05"
	YMDA                       // "2006-01-02"
	YMDB                       // "2006/01/02"
	TimeOnly                   // "15:04:05"
)

func (f TimeFormat) layout() string {
	switch f {
	case FullB:
		return "2006/01/02 15:04:05"
	case YMDA:
		return "2006-01-02"
	case YMDB:
		return "2006/01/02"
	case TimeOnly:
		return "15:04:05"
	default:
		return "2006-01-02 15:04:05"
	}
}

// Config is the log configuration document of spec.md §6.
type Config struct {
	Path       string     `yaml:"log_path"`
	Name       string     `yaml:"log_name"`
	OpenModeRaw string    `yaml:"open_mode"`
	TimeFormatRaw string  `yaml:"time_format"`
	Backup     bool       `yaml:"backup"`
	MaxSizeMiB int64      `yaml:"max_log_size"`

	OpenMode   OpenMode   `yaml:"-"`
	Format     TimeFormat `yaml:"-"`
}

// LoadSinkConfig decodes a log configuration document from a YAML file.
func LoadSinkConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("logsink: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("logsink: decoding %s: %w", path, err)
	}
	cfg.resolveEnums()
	return cfg, nil
}

func (c *Config) resolveEnums() {
	switch c.OpenModeRaw {
	case "WRITEONLY":
		c.OpenMode = WriteOnly
	default:
		c.OpenMode = AddTo
	}

	switch c.TimeFormatRaw {
	case "FULLB":
		c.Format = FullB
	case "YMDA":
		c.Format = YMDA
	case "YMDB":
		c.Format = YMDB
	case "TIMEONLY":
		c.Format = TimeOnly
	default:
		c.Format = FullA
	}
}
