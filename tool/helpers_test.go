//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

package tool_test

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"trpc.group/trpc-go/trpc-tool-go/log"
	"trpc.group/trpc-go/trpc-tool-go/tool"
)

// asyncOnly implements only the async call path.
type asyncOnly struct {
	name string
	call func(ctx context.Context, jsonArgs []byte, execCtx tool.ExecutionContext) *tool.Future
}

func (a *asyncOnly) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: a.name, Description: "async only"}
}

func (a *asyncOnly) CallAsync(ctx context.Context, jsonArgs []byte, execCtx tool.ExecutionContext) *tool.Future {
	return a.call(ctx, jsonArgs, execCtx)
}

// asyncDisabled is an async tool that opts out of its async path.
type asyncDisabled struct {
	asyncOnly
}

func (a *asyncDisabled) SupportsAsync() bool { return false }

// syncOnly implements only the sync call path.
type syncOnly struct {
	name string
}

func (s *syncOnly) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: s.name}
}

func (s *syncOnly) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	return s.CallWithContext(ctx, jsonArgs, nil)
}

func (s *syncOnly) CallWithContext(_ context.Context, jsonArgs []byte, _ tool.ExecutionContext) (any, error) {
	return "sync:" + string(jsonArgs), nil
}

// dualPath implements both paths.
type dualPath struct {
	syncOnly
}

func (d *dualPath) CallAsync(ctx context.Context, jsonArgs []byte, execCtx tool.ExecutionContext) *tool.Future {
	return tool.Go(ctx, func(ctx context.Context) (any, error) {
		return d.CallWithContext(ctx, jsonArgs, execCtx)
	})
}

// echoAsync resolves with the arguments and, when present, the "user" value
// of the execution context.
func echoAsync(name string) *asyncOnly {
	return &asyncOnly{
		name: name,
		call: func(ctx context.Context, jsonArgs []byte, execCtx tool.ExecutionContext) *tool.Future {
			return tool.Go(ctx, func(context.Context) (any, error) {
				out := string(jsonArgs)
				if user, ok := execCtx.Get("user"); ok {
					out += "@" + user.(string)
				}
				return out, nil
			})
		},
	}
}

// observeLogs routes the package logger into an in-memory observer for the
// duration of the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	old := log.Default
	log.Default = zap.New(core).Sugar()
	t.Cleanup(func() { log.Default = old })
	return logs
}
