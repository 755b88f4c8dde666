//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package dispatcher routes tool calls to the sync or async path of
// registered tools.
//
// A call takes the async path only when the tool's capabilities say it
// supports async and the requested mode is ASYNC. Every other dispatchable
// call runs synchronously on a bounded worker pool, through the tool's own
// sync path or, for async-only tools, through tool.SyncBridge. Reserved modes
// are rejected and never fall back to sync.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	itelemetry "trpc.group/trpc-go/trpc-tool-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-tool-go/log"
	tmetric "trpc.group/trpc-go/trpc-tool-go/telemetry/metric"
	"trpc.group/trpc-go/trpc-tool-go/telemetry/trace"
	"trpc.group/trpc-go/trpc-tool-go/tool"
)

const defaultPoolSize = 64

// ErrOverloaded is returned when every worker is busy.
var ErrOverloaded = errors.New("dispatcher overloaded")

// Option configures a Dispatcher.
type Option func(*options)

type options struct {
	poolSize  int
	callbacks *tool.Callbacks
	meter     metric.Meter
	tracer    oteltrace.Tracer
}

// WithPoolSize bounds the number of synchronous calls running at once.
// Calls beyond the bound fail with ErrOverloaded.
func WithPoolSize(size int) Option {
	return func(o *options) {
		o.poolSize = size
	}
}

// WithCallbacks sets the before/after callbacks run around every call. For
// calls on the async path the after callbacks run on the goroutine that
// resolves the tool's future.
func WithCallbacks(callbacks *tool.Callbacks) Option {
	return func(o *options) {
		o.callbacks = callbacks
	}
}

// WithMeter overrides the meter used for call counters. The default is the
// telemetry/metric Meter at construction time.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithTracer overrides the tracer. The default is the telemetry/trace Tracer
// at call time.
func WithTracer(tracer oteltrace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// Dispatcher executes calls against a Registry. It keeps no state across
// calls besides the worker pool, and is safe for concurrent use.
type Dispatcher struct {
	registry  *Registry
	pool      *ants.Pool
	callbacks *tool.Callbacks
	tracer    oteltrace.Tracer

	calls     metric.Int64Counter
	failures  metric.Int64Counter
	fallbacks metric.Int64Counter
}

// New creates a Dispatcher over reg.
func New(reg *Registry, opts ...Option) (*Dispatcher, error) {
	if reg == nil {
		return nil, errors.New("dispatcher: nil registry")
	}
	o := &options{poolSize: defaultPoolSize}
	for _, opt := range opts {
		opt(o)
	}
	if o.meter == nil {
		o.meter = tmetric.Meter
	}

	pool, err := ants.NewPool(o.poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create tool worker pool: %w", err)
	}
	d := &Dispatcher{
		registry:  reg,
		pool:      pool,
		callbacks: o.callbacks,
		tracer:    o.tracer,
	}
	if d.calls, err = o.meter.Int64Counter(itelemetry.MetricToolCalls,
		metric.WithDescription("Tool calls dispatched.")); err != nil {
		return nil, err
	}
	if d.failures, err = o.meter.Int64Counter(itelemetry.MetricToolFailures,
		metric.WithDescription("Tool calls that failed.")); err != nil {
		return nil, err
	}
	if d.fallbacks, err = o.meter.Int64Counter(itelemetry.MetricToolFallbacks,
		metric.WithDescription("Async-only tool calls run through the synchronous bridge.")); err != nil {
		return nil, err
	}
	return d, nil
}

// Registry returns the registry the dispatcher reads from.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch starts a call in the tool's registered mode and returns at once.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, jsonArgs []byte, execCtx tool.ExecutionContext) *tool.Future {
	reg, ok := d.registry.Get(name)
	if !ok {
		return tool.Failed(fmt.Errorf("dispatch %s: %w", name, ErrToolNotFound))
	}
	return d.dispatch(ctx, reg, reg.Mode, jsonArgs, execCtx)
}

// DispatchMode starts a call in an explicit mode. SYNC always takes a
// synchronous path. ASYNC takes the async path only when the tool supports
// it. PARALLEL, STREAMING and unknown modes fail with an UnsupportedModeError.
func (d *Dispatcher) DispatchMode(ctx context.Context, name string, mode tool.ExecutionMode, jsonArgs []byte,
	execCtx tool.ExecutionContext) *tool.Future {
	reg, ok := d.registry.Get(name)
	if !ok {
		return tool.Failed(fmt.Errorf("dispatch %s: %w", name, ErrToolNotFound))
	}
	return d.dispatch(ctx, reg, mode, jsonArgs, execCtx)
}

// Call dispatches in the registered mode and waits for the result or for
// ctx to be done.
func (d *Dispatcher) Call(ctx context.Context, name string, jsonArgs []byte, execCtx tool.ExecutionContext) (any, error) {
	return d.Dispatch(ctx, name, jsonArgs, execCtx).Await(ctx)
}

// Close releases the worker pool. Later calls fail.
func (d *Dispatcher) Close() {
	d.pool.Release()
}

// callPath is the concrete way a call is executed.
type callPath int

const (
	pathSync callPath = iota + 1
	pathAsync
	pathBridge
)

// selectPath maps a requested mode onto a call path. Every mode is handled
// explicitly.
func selectPath(reg Registration, mode tool.ExecutionMode) (callPath, error) {
	caps := reg.Capabilities
	switch mode {
	case tool.ModeSync:
		if caps.HasSync {
			return pathSync, nil
		}
		return pathBridge, nil
	case tool.ModeAsync:
		if caps.SupportsAsync {
			return pathAsync, nil
		}
		if caps.HasSync {
			return pathSync, nil
		}
		return pathBridge, nil
	case tool.ModeParallel, tool.ModeStreaming:
		return 0, tool.CheckDispatchable(reg.Name(), mode)
	default:
		return 0, tool.CheckDispatchable(reg.Name(), mode)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, reg Registration, mode tool.ExecutionMode, jsonArgs []byte,
	execCtx tool.ExecutionContext) *tool.Future {
	attrs := metric.WithAttributes(itelemetry.ToolAttributes(reg.Name(), mode)...)
	d.calls.Add(ctx, 1, attrs)

	path, err := selectPath(reg, mode)
	if err != nil {
		d.failures.Add(ctx, 1, attrs)
		log.Errorf("dispatch %s: %v", reg.Name(), err)
		return tool.Failed(err)
	}
	if path == pathBridge {
		d.fallbacks.Add(ctx, 1, attrs)
	}

	decl := reg.Declaration
	call := &tool.CallInfo{
		ID:          uuid.NewString(),
		Name:        reg.Name(),
		Declaration: &decl,
		Mode:        mode,
		Args:        jsonArgs,
		ExecContext: execCtx,
	}
	ctx, span := d.startSpan(ctx, call, path == pathBridge)

	promise := tool.NewPromise()
	var once sync.Once
	finish := func(result any, err error) {
		once.Do(func() {
			result, err = d.after(ctx, call, result, err)
			itelemetry.TraceToolResult(span, result, err)
			span.End()
			if err != nil {
				d.failures.Add(ctx, 1, attrs)
				promise.Reject(err)
				return
			}
			promise.Resolve(result)
		})
	}

	task := func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("tool %s panicked: %v", call.Name, r)
				finish(nil, tool.NewExecutionError(call.Name,
					fmt.Errorf("panic: %v\n%s", r, debug.Stack())))
			}
		}()
		custom, err := d.callbacks.RunBeforeTool(ctx, call)
		if err != nil {
			log.Errorf("Before tool callback failed for %s: %v", call.Name, err)
			finish(nil, fmt.Errorf("tool callback error: %w", err))
			return
		}
		if custom != nil {
			finish(custom, nil)
			return
		}

		switch path {
		case pathAsync:
			d.startAsync(ctx, reg, call, finish)
		case pathSync:
			callable := reg.Tool.(tool.CallableTool)
			result, err := callable.CallWithContext(ctx, call.Args, call.ExecContext)
			finish(result, tool.NewExecutionError(call.Name, err))
		case pathBridge:
			bridge := tool.NewSyncBridge(reg.Tool.(tool.AsyncTool))
			finish(bridge.CallWithContext(ctx, call.Args, call.ExecContext))
		}
	}

	if err := d.pool.Submit(task); err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			err = fmt.Errorf("dispatch %s: %w", call.Name, ErrOverloaded)
		} else {
			err = fmt.Errorf("dispatch %s: %w", call.Name, err)
		}
		finish(nil, err)
	}
	return promise.Future()
}

// startAsync hands the call to the tool's async path. The pool worker returns
// immediately; finish runs when the tool's future resolves.
func (d *Dispatcher) startAsync(ctx context.Context, reg Registration, call *tool.CallInfo, finish func(any, error)) {
	future := reg.Tool.(tool.AsyncTool).CallAsync(ctx, call.Args, call.ExecContext)
	if future == nil {
		finish(nil, tool.NewExecutionError(call.Name, tool.ErrNilFuture))
		return
	}
	future.Then(func(result any, err error) {
		finish(result, tool.NewExecutionError(call.Name, err))
	})
}

// after runs the after callbacks. A custom result replaces the outcome,
// including a failure.
// A panicking callback fails the call instead of leaving it unresolved.
func (d *Dispatcher) after(ctx context.Context, call *tool.CallInfo, result any, runErr error) (out any, outErr error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("After tool callback for %s panicked: %v", call.Name, r)
			out, outErr = nil, fmt.Errorf("tool callback error: panic: %v", r)
		}
	}()
	custom, err := d.callbacks.RunAfterTool(ctx, call, result, runErr)
	if err != nil {
		log.Errorf("After tool callback failed for %s: %v", call.Name, err)
		return nil, fmt.Errorf("tool callback error: %w", err)
	}
	if custom != nil {
		return custom, nil
	}
	return result, runErr
}

func (d *Dispatcher) startSpan(ctx context.Context, call *tool.CallInfo, fallback bool) (context.Context, oteltrace.Span) {
	tracer := d.tracer
	if tracer == nil {
		tracer = trace.Tracer
	}
	ctx, span := tracer.Start(ctx, itelemetry.NewExecuteToolSpanName(call.Name))
	itelemetry.TraceToolCall(span, call, fallback)
	return ctx, span
}
