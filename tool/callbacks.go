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
)

// CallInfo describes a single dispatched tool call.
type CallInfo struct {
	// ID uniquely identifies the call.
	ID string
	// Name is the declared tool name.
	Name string
	// Declaration is the tool's declaration.
	Declaration *Declaration
	// Mode is the mode the call is executed in.
	Mode ExecutionMode
	// Args holds the JSON arguments. Before callbacks may replace them.
	Args []byte
	// ExecContext is the execution context passed with the call, possibly nil.
	ExecContext ExecutionContext
}

// BeforeToolCallback is called before a tool is executed.
// Returns (customResult, error).
// - customResult: if not nil, this result will be returned and tool execution will be skipped.
// - error: if not nil, tool execution will be stopped with this error.
type BeforeToolCallback func(ctx context.Context, call *CallInfo) (any, error)

// AfterToolCallback is called after a tool is executed.
// Returns (customResult, error).
// - customResult: if not nil, this result will be used instead of the actual tool result.
// - error: if not nil, this error will be returned.
type AfterToolCallback func(ctx context.Context, call *CallInfo, result any, runErr error) (any, error)

// Callbacks holds callbacks for tool operations.
type Callbacks struct {
	// BeforeTool is a list of callbacks that are called before the tool is executed.
	BeforeTool []BeforeToolCallback
	// AfterTool is a list of callbacks that are called after the tool is executed.
	AfterTool []AfterToolCallback
}

// NewCallbacks creates a new Callbacks instance for tool.
func NewCallbacks() *Callbacks {
	return &Callbacks{}
}

// RegisterBeforeTool registers a before tool callback.
func (c *Callbacks) RegisterBeforeTool(cb BeforeToolCallback) *Callbacks {
	c.BeforeTool = append(c.BeforeTool, cb)
	return c
}

// RegisterAfterTool registers an after tool callback.
func (c *Callbacks) RegisterAfterTool(cb AfterToolCallback) *Callbacks {
	c.AfterTool = append(c.AfterTool, cb)
	return c
}

// RunBeforeTool runs the before callbacks in order and stops at the first one
// that returns a custom result or an error.
func (c *Callbacks) RunBeforeTool(ctx context.Context, call *CallInfo) (any, error) {
	if c == nil {
		return nil, nil
	}
	for _, cb := range c.BeforeTool {
		customResult, err := cb(ctx, call)
		if err != nil {
			return nil, err
		}
		if customResult != nil {
			return customResult, nil
		}
	}
	return nil, nil
}

// RunAfterTool runs the after callbacks in order and stops at the first one
// that returns a custom result or an error.
func (c *Callbacks) RunAfterTool(ctx context.Context, call *CallInfo, result any, runErr error) (any, error) {
	if c == nil {
		return nil, nil
	}
	for _, cb := range c.AfterTool {
		customResult, err := cb(ctx, call, result, runErr)
		if err != nil {
			return nil, err
		}
		if customResult != nil {
			return customResult, nil
		}
	}
	return nil, nil
}
