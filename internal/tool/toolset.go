//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"

	"trpc.group/trpc-go/trpc-tool-go/tool"
)

// NamedToolSet wraps a ToolSet to automatically prefix tool names with the toolset name.
// This prevents tool name conflicts when multiple toolsets provide tools with the same name.
type NamedToolSet struct {
	toolSet tool.ToolSet
}

// NewNamedToolSet creates a new named toolset wrapper.
// If the toolSet is already a NamedToolSet, it returns itself to avoid double-wrapping.
func NewNamedToolSet(toolSet tool.ToolSet) *NamedToolSet {
	if t, ok := toolSet.(*NamedToolSet); ok {
		return t
	}
	return &NamedToolSet{toolSet: toolSet}
}

// Tools returns tools with names prefixed by the toolset name.
func (s *NamedToolSet) Tools(ctx context.Context) []tool.Tool {
	tools := s.toolSet.Tools(ctx)
	prefix := s.toolSet.Name()
	if prefix == "" {
		return tools
	}
	out := make([]tool.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, Rename(t, prefix+"_"+tool.NameOf(t)))
	}
	return out
}

// Close implements the ToolSet interface.
func (s *NamedToolSet) Close() error {
	return s.toolSet.Close()
}

// Name implements the ToolSet interface.
func (s *NamedToolSet) Name() string {
	return s.toolSet.Name()
}

// Rename returns a view of t declared under name. The view has exactly the
// call paths of t, and keeps its async preference, so that capability
// detection on the renamed tool gives the same answer as on the original.
func Rename(t tool.Tool, name string) tool.Tool {
	if bridge, ok := t.(*tool.SyncBridge); ok {
		t = bridge.Unwrap()
	}
	base := renamed{original: t, name: name}
	callable, isCallable := t.(tool.CallableTool)
	async, isAsync := t.(tool.AsyncTool)
	switch {
	case isCallable && isAsync:
		return &renamedDual{renamedCallable{base, callable}, async}
	case isAsync:
		return &renamedAsync{base, async}
	case isCallable:
		return &renamedCallable{base, callable}
	default:
		return &base
	}
}

type renamed struct {
	original tool.Tool
	name     string
}

// Declaration returns the original declaration under the new name.
func (r *renamed) Declaration() *tool.Declaration {
	decl := r.original.Declaration()
	if decl == nil {
		return &tool.Declaration{Name: r.name}
	}
	out := *decl
	out.Name = r.name
	return &out
}

// Original returns the wrapped tool.
func (r *renamed) Original() tool.Tool {
	return r.original
}

type renamedCallable struct {
	renamed
	callable tool.CallableTool
}

func (r *renamedCallable) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	return r.callable.Call(ctx, jsonArgs)
}

func (r *renamedCallable) CallWithContext(ctx context.Context, jsonArgs []byte, execCtx tool.ExecutionContext) (any, error) {
	return r.callable.CallWithContext(ctx, jsonArgs, execCtx)
}

type renamedAsync struct {
	renamed
	async tool.AsyncTool
}

func (r *renamedAsync) CallAsync(ctx context.Context, jsonArgs []byte, execCtx tool.ExecutionContext) *tool.Future {
	return r.async.CallAsync(ctx, jsonArgs, execCtx)
}

func (r *renamedAsync) SupportsAsync() bool {
	return supportsAsync(r.async)
}

type renamedDual struct {
	renamedCallable
	async tool.AsyncTool
}

func (r *renamedDual) CallAsync(ctx context.Context, jsonArgs []byte, execCtx tool.ExecutionContext) *tool.Future {
	return r.async.CallAsync(ctx, jsonArgs, execCtx)
}

func (r *renamedDual) SupportsAsync() bool {
	return supportsAsync(r.async)
}

func supportsAsync(t tool.AsyncTool) bool {
	if pref, ok := t.(tool.AsyncPreference); ok {
		return pref.SupportsAsync()
	}
	return true
}
