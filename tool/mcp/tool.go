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
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-tool-go/tool"
	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// mcpTool is an async-only tool backed by one MCP server tool.
type mcpTool struct {
	name        string
	description string
	inputSchema *tool.Schema
	session     session
}

var (
	_ tool.AsyncTool       = (*mcpTool)(nil)
	_ tool.AsyncPreference = (*mcpTool)(nil)
)

func newMCPTool(t mcp.Tool, s session) *mcpTool {
	return &mcpTool{
		name:        t.Name,
		description: t.Description,
		inputSchema: convertSchema(t.InputSchema),
		session:     s,
	}
}

// Declaration implements tool.Tool.
func (t *mcpTool) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:        t.name,
		Description: t.description,
		InputSchema: t.inputSchema,
	}
}

// CallAsync sends the call to the server and returns without waiting for the
// reply. The future resolves to the server's content list.
func (t *mcpTool) CallAsync(ctx context.Context, jsonArgs []byte, _ tool.ExecutionContext) *tool.Future {
	return tool.Go(ctx, func(ctx context.Context) (any, error) {
		arguments := map[string]any{}
		if len(jsonArgs) > 0 {
			if err := json.Unmarshal(jsonArgs, &arguments); err != nil {
				return nil, tool.NewExecutionError(t.name, fmt.Errorf("failed to parse tool arguments: %w", err))
			}
		}
		if arguments == nil {
			arguments = map[string]any{}
		}
		content, err := t.session.callTool(ctx, t.name, arguments)
		if err != nil {
			return nil, tool.NewExecutionError(t.name, err)
		}
		return content, nil
	})
}

// SupportsAsync implements tool.AsyncPreference.
func (t *mcpTool) SupportsAsync() bool { return true }

// TextOf joins the text parts of an MCP tool result, one per line. Other
// content kinds are skipped.
func TextOf(contents []mcp.Content) string {
	var parts []string
	for _, c := range contents {
		if text, ok := c.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// convertSchema converts an MCP JSON schema of any shape into a tool.Schema
// by round-tripping it through JSON.
func convertSchema(raw any) *tool.Schema {
	fallback := &tool.Schema{Type: "object"}
	if raw == nil {
		return fallback
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fallback
	}
	var schema tool.Schema
	if err := json.Unmarshal(data, &schema); err != nil || schema.Type == "" {
		return fallback
	}
	return &schema
}
