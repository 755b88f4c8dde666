//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package function wraps plain Go functions as tools.
package function

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	itool "trpc.group/trpc-go/trpc-tool-go/internal/tool"
	"trpc.group/trpc-go/trpc-tool-go/tool"
)

// Func is the signature wrapped by both function tools. The execution context
// passed with the call is available through tool.ExecutionContextFrom(ctx).
type Func[I, O any] func(ctx context.Context, input I) (O, error)

// Option is a function that configures a function tool.
type Option func(*functionToolOptions)

// functionToolOptions holds the configuration options for function tools.
type functionToolOptions struct {
	name          string
	description   string
	unmarshaler   unmarshaler
	longRunning   bool
	supportsAsync bool
}

// WithName sets the name of the function tool.
func WithName(name string) Option {
	return func(opts *functionToolOptions) {
		opts.name = name
	}
}

// WithDescription sets the description of the function tool.
func WithDescription(description string) Option {
	return func(opts *functionToolOptions) {
		opts.description = description
	}
}

// WithLongRunning marks the tool as taking a significant amount of time.
func WithLongRunning(longRunning bool) Option {
	return func(opts *functionToolOptions) {
		opts.longRunning = longRunning
	}
}

// WithSupportsAsync sets whether an async function tool lets dispatchers use
// its non-blocking path. It defaults to true and has no effect on sync tools.
func WithSupportsAsync(supportsAsync bool) Option {
	return func(opts *functionToolOptions) {
		opts.supportsAsync = supportsAsync
	}
}

func newOptions(opts []Option) *functionToolOptions {
	options := &functionToolOptions{
		unmarshaler:   &jsonUnmarshaler{},
		supportsAsync: true,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// base holds what sync and async function tools share.
type base[I, O any] struct {
	name         string
	description  string
	inputSchema  *tool.Schema
	outputSchema *tool.Schema
	fn           Func[I, O]
	longRunning  bool
	unmarshaler  unmarshaler
}

func newBase[I, O any](fn func(context.Context, I) (O, error), options *functionToolOptions) base[I, O] {
	return base[I, O]{
		name:         options.name,
		description:  options.description,
		inputSchema:  itool.GenerateJSONSchema(reflect.TypeOf((*I)(nil)).Elem()),
		outputSchema: itool.GenerateJSONSchema(reflect.TypeOf((*O)(nil)).Elem()),
		fn:           fn,
		longRunning:  options.longRunning,
		unmarshaler:  options.unmarshaler,
	}
}

// Declaration returns the tool's name, description and reflected schemas.
func (b *base[I, O]) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:         b.name,
		Description:  b.description,
		InputSchema:  b.inputSchema,
		OutputSchema: b.outputSchema,
	}
}

// LongRunning indicates whether the tool is expected to run for a long time.
func (b *base[I, O]) LongRunning() bool {
	return b.longRunning
}

// run decodes the arguments and calls fn. Every failure names the tool.
func (b *base[I, O]) run(ctx context.Context, jsonArgs []byte, execCtx tool.ExecutionContext) (any, error) {
	var input I
	if len(jsonArgs) > 0 {
		if err := b.unmarshaler.Unmarshal(jsonArgs, &input); err != nil {
			return nil, tool.NewExecutionError(b.name, fmt.Errorf("decode arguments: %w", err))
		}
	}
	if b.fn == nil {
		return nil, tool.NewExecutionError(b.name, fmt.Errorf("no function provided"))
	}
	out, err := b.fn(tool.WithExecutionContext(ctx, execCtx), input)
	if err != nil {
		return nil, tool.NewExecutionError(b.name, err)
	}
	return out, nil
}

// FunctionTool is a synchronous tool backed by a Go function.
type FunctionTool[I, O any] struct {
	base[I, O]
}

var (
	_ tool.CallableTool = (*FunctionTool[struct{}, struct{}])(nil)
	_ tool.LongRunner   = (*FunctionTool[struct{}, struct{}])(nil)
)

// NewFunctionTool wraps fn as a synchronous tool. The input schema is
// reflected from I and the output schema from O.
func NewFunctionTool[I, O any](fn func(context.Context, I) (O, error), opts ...Option) *FunctionTool[I, O] {
	return &FunctionTool[I, O]{base: newBase(fn, newOptions(opts))}
}

// Call is CallWithContext with a nil execution context.
func (ft *FunctionTool[I, O]) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	return ft.CallWithContext(ctx, jsonArgs, nil)
}

// CallWithContext unmarshals the arguments into I and calls the function.
func (ft *FunctionTool[I, O]) CallWithContext(ctx context.Context, jsonArgs []byte, execCtx tool.ExecutionContext) (any, error) {
	return ft.run(ctx, jsonArgs, execCtx)
}

// AsyncFunctionTool is an async-only tool backed by a Go function. Each call
// runs the function on its own goroutine. It has no native synchronous path;
// wrap it with tool.NewSyncBridge to call it synchronously.
type AsyncFunctionTool[I, O any] struct {
	base[I, O]
	supportsAsync bool
}

var (
	_ tool.AsyncTool       = (*AsyncFunctionTool[struct{}, struct{}])(nil)
	_ tool.AsyncPreference = (*AsyncFunctionTool[struct{}, struct{}])(nil)
	_ tool.LongRunner      = (*AsyncFunctionTool[struct{}, struct{}])(nil)
)

// NewAsyncFunctionTool wraps fn as an async-only tool.
func NewAsyncFunctionTool[I, O any](fn func(context.Context, I) (O, error), opts ...Option) *AsyncFunctionTool[I, O] {
	options := newOptions(opts)
	return &AsyncFunctionTool[I, O]{
		base:          newBase(fn, options),
		supportsAsync: options.supportsAsync,
	}
}

// CallAsync starts the function and returns without waiting for it. The
// function should watch ctx to stop early on cancellation.
func (at *AsyncFunctionTool[I, O]) CallAsync(ctx context.Context, jsonArgs []byte, execCtx tool.ExecutionContext) *tool.Future {
	return tool.Go(ctx, func(ctx context.Context) (any, error) {
		return at.run(ctx, jsonArgs, execCtx)
	})
}

// SupportsAsync reports the preference set with WithSupportsAsync.
func (at *AsyncFunctionTool[I, O]) SupportsAsync() bool {
	return at.supportsAsync
}

type unmarshaler interface {
	Unmarshal([]byte, any) error
}

type jsonUnmarshaler struct{}

// Unmarshal unmarshals JSON data into the provided interface.
func (j *jsonUnmarshaler) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
