//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package mcp exposes the tools of an MCP server as asynchronous tools. Every
// call is a round trip to the server, so the tools have no synchronous path of
// their own; synchronous callers go through tool.SyncBridge.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"trpc.group/trpc-go/trpc-tool-go/log"
	"trpc.group/trpc-go/trpc-tool-go/tool"
	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// errClosed is returned by calls made after the session was closed.
var errClosed = errors.New("transport is closed")

// session is the part of an MCP client the tool set depends on.
type session interface {
	listTools(ctx context.Context) ([]mcp.Tool, error)
	callTool(ctx context.Context, name string, arguments map[string]any) ([]mcp.Content, error)
	close() error
}

// ToolSet implements tool.ToolSet over an MCP server.
type ToolSet struct {
	config  toolSetConfig
	session session

	mu    sync.RWMutex
	tools []tool.Tool
}

var _ tool.ToolSet = (*ToolSet)(nil)

// NewMCPToolSet creates a tool set for the server described by config. The
// connection is opened lazily on the first Tools or tool call.
func NewMCPToolSet(config ConnectionConfig, opts ...ToolSetOption) (*ToolSet, error) {
	if _, err := validateTransport(config.Transport); err != nil {
		return nil, err
	}
	if config.ClientInfo.Name == "" {
		config.ClientInfo = defaultClientInfo
	}
	return newToolSet(newSessionManager(config), opts...)
}

func newToolSet(s session, opts ...ToolSetOption) (*ToolSet, error) {
	cfg := toolSetConfig{name: defaultSetName}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &ToolSet{config: cfg, session: s}, nil
}

// Tools implements tool.ToolSet. It refreshes the list from the server and
// falls back to the last known list when that fails.
func (ts *ToolSet) Tools(ctx context.Context) []tool.Tool {
	if err := ts.Refresh(ctx); err != nil {
		log.Errorf("failed to refresh MCP tools: %v", err)
	}
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := make([]tool.Tool, len(ts.tools))
	copy(out, ts.tools)
	return out
}

// Refresh lists the server's tools and replaces the cached list.
func (ts *ToolSet) Refresh(ctx context.Context) error {
	mcpTools, err := ts.session.listTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tools from MCP server: %w", err)
	}
	tools := make([]tool.Tool, 0, len(mcpTools))
	for _, t := range mcpTools {
		if ts.config.keep(t.Name) {
			tools = append(tools, newMCPTool(t, ts.session))
		}
	}
	log.Debugf("refreshed MCP tools: %d of %d kept", len(tools), len(mcpTools))

	ts.mu.Lock()
	ts.tools = tools
	ts.mu.Unlock()
	return nil
}

// Close implements tool.ToolSet.
func (ts *ToolSet) Close() error {
	if err := ts.session.close(); err != nil {
		return fmt.Errorf("failed to close MCP session: %w", err)
	}
	return nil
}

// Name implements tool.ToolSet.
func (ts *ToolSet) Name() string {
	return ts.config.name
}

// sessionManager connects to the server on first use and serialises
// reconnection.
type sessionManager struct {
	config ConnectionConfig

	mu     sync.RWMutex
	client mcp.Connector
	closed bool
}

func newSessionManager(config ConnectionConfig) *sessionManager {
	return &sessionManager{config: config}
}

// connected returns the initialised client, connecting first when needed.
func (m *sessionManager) connected(ctx context.Context) (mcp.Connector, error) {
	m.mu.RLock()
	client, closed := m.client, m.closed
	m.mu.RUnlock()
	if closed {
		return nil, errClosed
	}
	if client != nil {
		return client, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errClosed
	}
	if m.client != nil {
		return m.client, nil
	}
	client, err := m.createClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}
	initCtx, cancel := m.timeoutContext(ctx)
	defer cancel()
	initResp, err := client.Initialize(initCtx, &mcp.InitializeRequest{})
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Warnf("failed to close MCP client after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}
	log.Debugf("MCP session initialized: server=%s version=%s protocol=%s",
		initResp.ServerInfo.Name, initResp.ServerInfo.Version, initResp.ProtocolVersion)
	m.client = client
	return client, nil
}

func (m *sessionManager) createClient() (mcp.Connector, error) {
	transportType, err := validateTransport(m.config.Transport)
	if err != nil {
		return nil, err
	}
	switch transportType {
	case transportStdio:
		return mcp.NewStdioClient(mcp.StdioTransportConfig{
			ServerParams: mcp.StdioServerParameters{
				Command: m.config.Command,
				Args:    m.config.Args,
			},
			Timeout: m.config.Timeout,
		}, m.config.ClientInfo)
	case transportStreamable:
		var options []mcp.ClientOption
		if len(m.config.Headers) > 0 {
			headers := http.Header{}
			for k, v := range m.config.Headers {
				headers.Set(k, v)
			}
			options = append(options, mcp.WithHTTPHeaders(headers))
		}
		return mcp.NewClient(m.config.ServerURL, m.config.ClientInfo, options...)
	default:
		return nil, fmt.Errorf("unsupported transport: %s", m.config.Transport)
	}
}

// timeoutContext applies the configured timeout unless ctx already has a
// deadline.
func (m *sessionManager) timeoutContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config.Timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			return context.WithTimeout(ctx, m.config.Timeout)
		}
	}
	return ctx, func() {}
}

func (m *sessionManager) listTools(ctx context.Context) ([]mcp.Tool, error) {
	client, err := m.connected(ctx)
	if err != nil {
		return nil, err
	}
	listCtx, cancel := m.timeoutContext(ctx)
	defer cancel()
	resp, err := client.ListTools(listCtx, &mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return resp.Tools, nil
}

func (m *sessionManager) callTool(ctx context.Context, name string, arguments map[string]any) ([]mcp.Content, error) {
	client, err := m.connected(ctx)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := m.timeoutContext(ctx)
	defer cancel()
	req := &mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments
	resp, err := client.CallTool(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call tool %s: %w", name, err)
	}
	return resp.Content, nil
}

func (m *sessionManager) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.client == nil {
		return nil
	}
	err := m.client.Close()
	m.client = nil
	return err
}
