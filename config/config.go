//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads dispatcher, logging and telemetry settings from a file
// and the environment.
//
// Environment variables use the TRPC_TOOL prefix with dots replaced by
// underscores, e.g. TRPC_TOOL_DISPATCHER_POOL_SIZE=16.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"trpc.group/trpc-go/trpc-tool-go/log"
	"trpc.group/trpc-go/trpc-tool-go/telemetry/metric"
	"trpc.group/trpc-go/trpc-tool-go/telemetry/trace"
	"trpc.group/trpc-go/trpc-tool-go/tool"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRPC_TOOL"

// Config is the root configuration.
type Config struct {
	Log        LogConfig             `mapstructure:"log"`
	Dispatcher DispatcherConfig      `mapstructure:"dispatcher"`
	Telemetry  TelemetryConfig       `mapstructure:"telemetry"`
	Tools      map[string]ToolConfig `mapstructure:"tools"`
}

// LogConfig configures the log package.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DispatcherConfig configures the reference dispatcher.
type DispatcherConfig struct {
	// PoolSize bounds the goroutines running synchronous tool calls.
	PoolSize int `mapstructure:"pool_size"`
}

// TelemetryConfig configures trace and metric export.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Protocol string `mapstructure:"protocol"`
	Endpoint string `mapstructure:"endpoint"`
}

// ToolConfig holds per-tool settings keyed by tool name.
type ToolConfig struct {
	// Mode is an execution mode name such as "sync" or "async".
	Mode string `mapstructure:"mode"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", log.LevelInfo)
	v.SetDefault("log.format", log.FormatConsole)
	v.SetDefault("dispatcher.pool_size", 64)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.protocol", "grpc")
	v.SetDefault("telemetry.endpoint", "")
}

// Load reads the file at path (YAML, JSON or TOML by extension) and applies
// environment overrides. An empty path yields defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Dispatcher.PoolSize <= 0 {
		return fmt.Errorf("dispatcher.pool_size must be positive, got %d", c.Dispatcher.PoolSize)
	}
	switch c.Telemetry.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", c.Telemetry.Protocol)
	}
	_, err := c.Modes()
	return err
}

// Modes parses the per-tool modes. Reserved modes parse successfully; the
// registry rejects them when the tool is registered. Tool names are
// lowercased by the loader.
func (c *Config) Modes() (map[string]tool.ExecutionMode, error) {
	modes := make(map[string]tool.ExecutionMode, len(c.Tools))
	var errs []error
	for name, tc := range c.Tools {
		if tc.Mode == "" {
			continue
		}
		mode, err := tool.ParseExecutionMode(tc.Mode)
		if err != nil {
			errs = append(errs, fmt.Errorf("tools.%s.mode: %w", name, err))
			continue
		}
		modes[name] = mode
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return modes, nil
}

// Setup applies the log settings and, when enabled, starts trace and metric
// export. The returned cleanup flushes the exporters.
func (c *Config) Setup(ctx context.Context) (clean func() error, err error) {
	log.SetLevel(c.Log.Level)
	if c.Log.Format == log.FormatJSON {
		log.Default = log.New(log.FormatJSON, zapcore.AddSync(os.Stdout))
	}
	if !c.Telemetry.Enabled {
		return func() error { return nil }, nil
	}

	traceOpts := []trace.Option{trace.WithProtocol(c.Telemetry.Protocol)}
	metricOpts := []metric.Option{metric.WithProtocol(c.Telemetry.Protocol)}
	if c.Telemetry.Endpoint != "" {
		traceOpts = append(traceOpts, trace.WithEndpoint(c.Telemetry.Endpoint))
		metricOpts = append(metricOpts, metric.WithEndpoint(c.Telemetry.Endpoint))
	}
	cleanTrace, err := trace.Start(ctx, traceOpts...)
	if err != nil {
		return nil, err
	}
	cleanMetric, err := metric.Start(ctx, metricOpts...)
	if err != nil {
		return nil, errors.Join(err, cleanTrace())
	}
	return func() error {
		return errors.Join(cleanTrace(), cleanMetric())
	}, nil
}
