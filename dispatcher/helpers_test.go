//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

package dispatcher_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"trpc.group/trpc-go/trpc-tool-go/dispatcher"
	"trpc.group/trpc-go/trpc-tool-go/log"
	"trpc.group/trpc-go/trpc-tool-go/tool"
	"trpc.group/trpc-go/trpc-tool-go/tool/function"
)

type sumInput struct {
	A int `json:"a"`
	B int `json:"b"`
}

type sumOutput struct {
	Sum int `json:"sum"`
}

func sum(_ context.Context, in sumInput) (sumOutput, error) {
	return sumOutput{Sum: in.A + in.B}, nil
}

var errBoom = errors.New("boom")

// pathTool records which call path served each call.
type pathTool struct {
	name          string
	supportsAsync bool
	syncCalls     atomic.Int32
	asyncCalls    atomic.Int32
	fail          bool
}

func (p *pathTool) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: p.name, Description: "records its call path"}
}

func (p *pathTool) result(jsonArgs []byte) (any, error) {
	if p.fail {
		return nil, errBoom
	}
	return "ok:" + string(jsonArgs), nil
}

func (p *pathTool) CallAsync(ctx context.Context, jsonArgs []byte, _ tool.ExecutionContext) *tool.Future {
	p.asyncCalls.Add(1)
	return tool.Go(ctx, func(context.Context) (any, error) {
		return p.result(jsonArgs)
	})
}

func (p *pathTool) SupportsAsync() bool { return p.supportsAsync }

// asyncOnlyTool exposes just the async path of a pathTool.
type asyncOnlyTool struct{ *pathTool }

// dualTool exposes both paths of a pathTool.
type dualTool struct{ asyncOnlyTool }

func (d dualTool) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	return d.CallWithContext(ctx, jsonArgs, nil)
}

func (d dualTool) CallWithContext(_ context.Context, jsonArgs []byte, _ tool.ExecutionContext) (any, error) {
	d.syncCalls.Add(1)
	return d.result(jsonArgs)
}

func newAsyncOnly(name string, supportsAsync bool) (tool.Tool, *pathTool) {
	p := &pathTool{name: name, supportsAsync: supportsAsync}
	return asyncOnlyTool{p}, p
}

func newDual(name string, supportsAsync bool) (tool.Tool, *pathTool) {
	p := &pathTool{name: name, supportsAsync: supportsAsync}
	return dualTool{asyncOnlyTool{p}}, p
}

// declOnly has no call path.
type declOnly struct{ name string }

func (d declOnly) Declaration() *tool.Declaration { return &tool.Declaration{Name: d.name} }

func newSumTool(name string) tool.Tool {
	return function.NewFunctionTool(sum, function.WithName(name), function.WithDescription("adds two numbers"))
}

func newDispatcher(t *testing.T, reg *dispatcher.Registry, opts ...dispatcher.Option) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(reg, opts...)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func mustRegister(t *testing.T, reg *dispatcher.Registry, tl tool.Tool, opts ...dispatcher.RegisterOption) dispatcher.Registration {
	t.Helper()
	r, err := reg.Register(tl, opts...)
	require.NoError(t, err)
	return r
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	old := log.Default
	log.Default = zap.New(core).Sugar()
	t.Cleanup(func() { log.Default = old })
	return logs
}

func fallbackEntries(logs *observer.ObservedLogs, name string) int {
	return logs.FilterMessage("using synchronous fallback for async tool: " + name).Len()
}
