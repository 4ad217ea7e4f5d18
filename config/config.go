package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/iamNilotpal/gzlog/internal/adapters/compression"
	"github.com/iamNilotpal/gzlog/internal/core/domain"
	"github.com/iamNilotpal/gzlog/internal/core/services/notify"
	"github.com/iamNilotpal/gzlog/internal/core/services/rotation"
	"github.com/iamNilotpal/gzlog/pkg/errors"
)

// Well-known stream names. stdout and stderr are backed by the process
// streams, main is the application's own logger.
const (
	StreamMain   = "main"
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

type Config struct {
	Directory     string                    `yaml:"directory"`      // Directory holding every <stream>.log
	TimeLayout    string                    `yaml:"time_layout"`    // Go layout of the record timestamp
	Rotation      domain.RotationPolicy     `yaml:"rotation"`       // Policy shared by rotating streams
	Compression   domain.CompressionOptions `yaml:"compression"`    // Archive codec
	AsyncArchive  bool                      `yaml:"async_archive"`  // Compress off the writing goroutine
	Streams       map[string]StreamConfig   `yaml:"streams"`        // Streams by name
	Capture       bool                      `yaml:"capture"`        // Redirect the process stdout/stderr descriptors
	Console       bool                      `yaml:"console"`        // Mirror main to the original stdout
	Libraries     []string                  `yaml:"libraries"`      // Library logger names attached to main
	Notifier      NotifierConfig            `yaml:"notifier"`       // Error alerts; credentials come from the environment
	EnableMetrics bool                      `yaml:"enable_metrics"` // Enable metrics collection
}

// Holds per stream configuration
type StreamConfig struct {
	Rotate   bool          `yaml:"rotate"`   // Rotate per the shared policy, otherwise grow forever
	Redirect bool          `yaml:"redirect"` // Create the stream at all
	Level    zapcore.Level `yaml:"level"`    // Minimum level written to the file
}

// Holds notification tuning
type NotifierConfig struct {
	Cooldown time.Duration `yaml:"cooldown"` // Minimum time between alerts
	Timeout  time.Duration `yaml:"timeout"`  // HTTP timeout of one alert
	Async    bool          `yaml:"async"`    // Send alerts off the writing goroutine; stderr waits on sync sends
}

// Returns a Config struct with reasonable default values.
func DefaultConfig() *Config {
	return &Config{
		Directory:   "logs",
		Capture:     true,
		Console:     true,
		Rotation:    *rotation.DefaultPolicy(),
		Compression: *compression.DefaultOptions(),
		Streams:     DefaultStreams(),
		Notifier: NotifierConfig{
			Cooldown: notify.DefaultCooldown,
			Timeout:  notify.DefaultTimeout,
			Async:    true,
		},
	}
}

// Returns the main, stdout and stderr streams. Only main rotates.
func DefaultStreams() map[string]StreamConfig {
	return map[string]StreamConfig{
		StreamMain:   {Rotate: true, Redirect: true, Level: zapcore.InfoLevel},
		StreamStdout: {Rotate: false, Redirect: true, Level: zapcore.InfoLevel},
		StreamStderr: {Rotate: false, Redirect: true, Level: zapcore.ErrorLevel},
	}
}

// Loads configuration from a YAML file. Omitted keys keep their defaults; an
// omitted streams section selects DefaultStreams.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	config.Streams = nil

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if len(config.Streams) == 0 {
		config.Streams = DefaultStreams()
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks the parts of the configuration that do not depend on the
// filesystem. Rotation and compression settings are validated again by the
// services that consume them.
func Validate(config *Config) error {
	if strings.TrimSpace(config.Directory) == "" {
		return errors.NewValidationError("directory", config.Directory, fmt.Errorf("directory is required"))
	}

	redirected := 0
	for name, stream := range config.Streams {
		if err := validateStreamName(name); err != nil {
			return errors.NewValidationError("streams", name, err)
		}
		if stream.Redirect {
			redirected++
		}
	}
	if redirected == 0 {
		return errors.NewValidationError(
			"streams", len(config.Streams), fmt.Errorf("at least one stream must be redirected"),
		)
	}

	codec := config.Compression
	if codec.Algorithm == "" {
		codec.Algorithm = domain.CompressionGzip
	}
	if err := compression.Validate(&codec); err != nil {
		return errors.NewValidationError("compression", config.Compression, err)
	}

	if config.Notifier.Cooldown < 0 {
		return errors.NewValidationError("notifier.cooldown", config.Notifier.Cooldown, fmt.Errorf("must not be negative"))
	}
	if config.Notifier.Timeout < 0 {
		return errors.NewValidationError("notifier.timeout", config.Notifier.Timeout, fmt.Errorf("must not be negative"))
	}

	return nil
}

func validateStreamName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid stream name %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("stream name %q must not contain path separators", name)
	}
	return nil
}
