//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package tool defines the tool contracts: the synchronous CallableTool, the
// non-blocking AsyncTool, and the execution modes a dispatcher may use.
package tool

import (
	"context"
)

// Tool is anything that can describe itself to a dispatcher.
type Tool interface {
	// Declaration returns the metadata describing the tool.
	Declaration() *Declaration
}

// CallableTool defines the interface for tools that can be called synchronously.
//
// Call and CallWithContext must return identical results for identical
// arguments when the execution context is nil.
type CallableTool interface {
	// Call calls the tool without an execution context.
	Call(ctx context.Context, jsonArgs []byte) (any, error)

	// CallWithContext calls the tool with an optional execution context.
	// Returns the result of execution or an error if the operation fails.
	CallWithContext(ctx context.Context, jsonArgs []byte, execCtx ExecutionContext) (any, error)

	Tool
}

// AsyncTool defines the interface for tools with a non-blocking call path.
type AsyncTool interface {
	// CallAsync starts the call and returns a future for its result.
	// It must not block the caller and must be safe for concurrent use.
	// Implementations should stop work when ctx is cancelled.
	CallAsync(ctx context.Context, jsonArgs []byte, execCtx ExecutionContext) *Future

	Tool
}

// AsyncPreference is implemented by async tools that want to control whether a
// dispatcher may use their non-blocking path. Tools that do not implement it
// are treated as preferring async.
type AsyncPreference interface {
	SupportsAsync() bool
}

// LongRunner is implemented by tools whose calls are expected to take a
// significant amount of time.
type LongRunner interface {
	LongRunning() bool
}

// IsLongRunning reports whether t declares itself long running. Wrappers that
// expose the tool they wrap through Original are looked through.
func IsLongRunning(t Tool) bool {
	for t != nil {
		if lr, ok := t.(LongRunner); ok {
			return lr.LongRunning()
		}
		wrapper, ok := t.(interface{ Original() Tool })
		if !ok {
			return false
		}
		t = wrapper.Original()
	}
	return false
}

// ExecutionContext is opaque auxiliary data passed alongside tool arguments.
// A nil ExecutionContext means no context was supplied.
type ExecutionContext map[string]any

// Get returns the value stored under key. It is safe to call on a nil map.
func (c ExecutionContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

type execCtxKey struct{}

// WithExecutionContext returns a copy of ctx carrying execCtx, so that function
// tools can reach it without changing their signature.
func WithExecutionContext(ctx context.Context, execCtx ExecutionContext) context.Context {
	if execCtx == nil {
		return ctx
	}
	return context.WithValue(ctx, execCtxKey{}, execCtx)
}

// ExecutionContextFrom returns the execution context stored in ctx, or nil.
func ExecutionContextFrom(ctx context.Context) ExecutionContext {
	execCtx, _ := ctx.Value(execCtxKey{}).(ExecutionContext)
	return execCtx
}

// Declaration describes the metadata of a tool, such as its name, description, and expected arguments.
type Declaration struct {
	// Name is the unique identifier of the tool
	Name string `json:"name"`

	// Description explains the tool's purpose and functionality
	Description string `json:"description"`

	// InputSchema defines the expected input for the tool in JSON schema format.
	InputSchema *Schema `json:"inputSchema"`

	// OutputSchema defines the expected output for the tool in JSON schema format.
	OutputSchema *Schema `json:"outputSchema,omitempty"`
}

// Schema represents the subset of JSON Schema used for tool arguments and responses.
type Schema struct {
	//  Type Specifies the data type (e.g., "object", "array", "string", "number")
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of the arguments, each with its own schema
	Properties map[string]*Schema `json:"properties,omitempty"`
	// For array types, defines the schema of items in the array
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties: Controls whether properties not defined in Properties are allowed
	AdditionalProperties any `json:"additionalProperties,omitempty"`
}

// NameOf returns the declared name of t, or "" when it has no declaration.
func NameOf(t Tool) string {
	if t == nil {
		return ""
	}
	if decl := t.Declaration(); decl != nil {
		return decl.Name
	}
	return ""
}
