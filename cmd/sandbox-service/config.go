package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"evalbox/internal/sandbox/engine"
	"evalbox/internal/sandbox/spec"
	"evalbox/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8090"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// IdentityConfig holds the optional reduced-privilege launch identity.
type IdentityConfig struct {
	Enabled bool   `yaml:"enabled"`
	UID     uint32 `yaml:"uid"`
	GID     uint32 `yaml:"gid"`
}

// SandboxConfig holds sandbox engine settings.
type SandboxConfig struct {
	Identity        IdentityConfig    `yaml:"identity"`
	DefaultEnv      map[string]string `yaml:"defaultEnv"`
	SampleInterval  time.Duration     `yaml:"sampleInterval"`
	MaxBytesPerRead int               `yaml:"maxBytesPerRead"`
	ReaderMode      string            `yaml:"readerMode"`
}

func (c SandboxConfig) toEngineConfig() engine.Config {
	cfg := engine.Config{
		DefaultEnv:      c.DefaultEnv,
		SampleInterval:  c.SampleInterval,
		MaxBytesPerRead: c.MaxBytesPerRead,
		ReaderMode:      engine.ReaderMode(c.ReaderMode),
	}
	if c.Identity.Enabled {
		cfg.Identity = &spec.Identity{UID: c.Identity.UID, GID: c.Identity.GID}
	}
	return cfg
}

// AppConfig holds sandbox-service config.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Sandbox SandboxConfig `yaml:"sandbox"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	return &cfg, nil
}
