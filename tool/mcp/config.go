//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

package mcp

import (
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// transport specifies the transport method: "stdio" or "streamable".
type transport string

const (
	transportStdio      transport = "stdio"
	transportStreamable transport = "streamable"

	defaultSetName = "mcp"
)

var defaultClientInfo = mcp.Implementation{
	Name:    "trpc-tool-go",
	Version: "1.0.0",
}

// ConnectionConfig defines the configuration for connecting to an MCP server.
type ConnectionConfig struct {
	// Transport specifies the transport method: "stdio" or "streamable".
	Transport string `json:"transport"`

	// Streamable HTTP configuration.
	ServerURL string            `json:"server_url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`

	// STDIO configuration.
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`

	// Timeout bounds every MCP request whose context has no deadline.
	Timeout time.Duration `json:"timeout,omitempty"`

	ClientInfo mcp.Implementation `json:"client_info,omitempty"`
}

type toolSetConfig struct {
	name     string
	patterns []string
}

// ToolSetOption is a function type for configuring ToolSet.
type ToolSetOption func(*toolSetConfig)

// WithName sets the tool set name, default is "mcp".
func WithName(name string) ToolSetOption {
	return func(c *toolSetConfig) {
		c.name = name
	}
}

// WithToolFilter keeps only the server tools whose names match one of the
// glob patterns. Without a filter every tool is kept.
func WithToolFilter(patterns ...string) ToolSetOption {
	return func(c *toolSetConfig) {
		c.patterns = append(c.patterns, patterns...)
	}
}

func (c *toolSetConfig) validate() error {
	for _, p := range c.patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid tool filter pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}
	return nil
}

func (c *toolSetConfig) keep(name string) bool {
	if len(c.patterns) == 0 {
		return true
	}
	for _, p := range c.patterns {
		if doublestar.MatchUnvalidated(p, name) {
			return true
		}
	}
	return false
}

func validateTransport(t string) (transport, error) {
	switch t {
	case "stdio":
		return transportStdio, nil
	case "streamable", "streamable_http":
		return transportStreamable, nil
	default:
		return "", fmt.Errorf("unsupported transport: %s, supported: stdio, streamable", t)
	}
}
