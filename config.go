package vertexshim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	InitialStreamBufferSize = 1024 * 1024
	// This has to be at least 4k or some drivers reject constant attribute data.
	ConstantVertexBufferSize = 4096
	MaxVertexAttribs         = 16
)

// Config sizes the buffers owned by a Manager.
type Config struct {
	InitialStreamBufferSize  uint64 `yaml:"initial_stream_buffer_size"`
	ConstantVertexBufferSize uint64 `yaml:"constant_vertex_buffer_size"`
	MaxVertexAttribs         int    `yaml:"max_vertex_attribs"`

	LogPrefix string `yaml:"log_prefix"`
	LogLevel  string `yaml:"log_level"`
	Debug     bool   `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		InitialStreamBufferSize:  InitialStreamBufferSize,
		ConstantVertexBufferSize: ConstantVertexBufferSize,
		MaxVertexAttribs:         MaxVertexAttribs,
		LogPrefix:                "vertexshim",
		LogLevel:                 "info",
	}
}

// ParseConfig reads YAML on top of the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

func (c Config) Validate() error {
	if c.ConstantVertexBufferSize < ConstantVertexBufferSize {
		return fmt.Errorf("constant_vertex_buffer_size %d is below the %d byte minimum", c.ConstantVertexBufferSize, ConstantVertexBufferSize)
	}
	if c.InitialStreamBufferSize < c.ConstantVertexBufferSize {
		return fmt.Errorf("initial_stream_buffer_size %d is smaller than constant_vertex_buffer_size %d", c.InitialStreamBufferSize, c.ConstantVertexBufferSize)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxVertexAttribs < 1 || c.MaxVertexAttribs > 32 {
		return fmt.Errorf("max_vertex_attribs %d out of range [1, 32]", c.MaxVertexAttribs)
	}
	return nil
}

// Level returns the configured log level, LevelDebug when Debug is set.
func (c Config) Level() Level {
	if c.Debug {
		return LevelDebug
	}
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return LevelInfo
	}
	return level
}
