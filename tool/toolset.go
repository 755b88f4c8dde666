//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

package tool

import "context"

// ToolSet is a named group of tools that are registered together.
type ToolSet interface {
	// Tools returns the tools currently in the set.
	Tools(context.Context) []Tool

	// Close releases any resources held by the ToolSet.
	Close() error

	// Name returns the name of the ToolSet, used as a prefix when tool names collide.
	Name() string
}

// StaticToolSet is a ToolSet over a fixed list of tools.
type StaticToolSet struct {
	name  string
	tools []Tool
}

// NewToolSet returns a ToolSet holding tools.
func NewToolSet(name string, tools ...Tool) *StaticToolSet {
	return &StaticToolSet{name: name, tools: tools}
}

// Tools implements ToolSet.
func (s *StaticToolSet) Tools(context.Context) []Tool {
	out := make([]Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// Close implements ToolSet.
func (s *StaticToolSet) Close() error { return nil }

// Name implements ToolSet.
func (s *StaticToolSet) Name() string { return s.name }
