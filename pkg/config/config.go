// Package config reads the optional cardstencil.yaml file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xob0t/CardStencil/pkg/logging"
)

// FileName is the config file looked up in the working directory.
const FileName = "cardstencil.yaml"

// Config represents cardstencil.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Assets  AssetsConfig  `yaml:"assets"`
	Preview PreviewConfig `yaml:"preview"`
	Export  ExportConfig  `yaml:"export"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig contains HTTP settings.
type ServerConfig struct {
	Addr      string `yaml:"addr,omitempty"`
	PublicURL string `yaml:"publicUrl,omitempty"` // base for relative asset URLs
}

// AssetsConfig points at template and sticker files.
type AssetsConfig struct {
	Dir     string `yaml:"dir,omitempty"`     // serves /templates/ and /stickers/
	Catalog string `yaml:"catalog,omitempty"` // YAML catalog or .cardpack bundle
}

// PreviewConfig contains SVG preview settings.
type PreviewConfig struct {
	Width float64 `yaml:"width,omitempty"`
}

// ExportConfig contains PNG export settings.
type ExportConfig struct {
	Concurrency int    `yaml:"concurrency,omitempty"`
	FontDir     string `yaml:"fontDir,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080"},
		Assets:  AssetsConfig{Dir: "assets"},
		Preview: PreviewConfig{Width: 320},
		Export:  ExportConfig{Concurrency: 4},
		Log:     LogConfig{Level: "info"},
	}
}

// LoadOptional reads path if present. A missing file yields Defaults.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	logging.Logger().Debug("config loaded", "path", path)
	return cfg, nil
}

// Parse decodes YAML over Defaults. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	d := Defaults()
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	c.Server.PublicURL = strings.TrimRight(strings.TrimSpace(c.Server.PublicURL), "/")
	if !(c.Preview.Width > 0) {
		c.Preview.Width = d.Preview.Width
	}
	if c.Export.Concurrency <= 0 {
		c.Export.Concurrency = d.Export.Concurrency
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level { return logging.ParseLevel(c.Log.Level) }

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
