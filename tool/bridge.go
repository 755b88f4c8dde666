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

	"trpc.group/trpc-go/trpc-tool-go/log"
)

// SyncBridge adapts an AsyncTool to the CallableTool interface by blocking on
// the future returned from CallAsync.
//
// The bridge is a degradation path: every synchronous call is logged at debug
// level with the tool's name. It applies no timeout of its own, so a future
// that never resolves blocks the caller forever; bound the call through the
// context handed to the async tool instead.
type SyncBridge struct {
	async AsyncTool
}

var (
	_ CallableTool    = (*SyncBridge)(nil)
	_ AsyncTool       = (*SyncBridge)(nil)
	_ AsyncPreference = (*SyncBridge)(nil)
)

// NewSyncBridge wraps t so that it can be called synchronously.
func NewSyncBridge(t AsyncTool) *SyncBridge {
	return &SyncBridge{async: t}
}

// Unwrap returns the wrapped async tool.
func (b *SyncBridge) Unwrap() AsyncTool {
	return b.async
}

// Declaration returns the wrapped tool's declaration.
func (b *SyncBridge) Declaration() *Declaration {
	return b.async.Declaration()
}

// Call is CallWithContext with a nil execution context.
func (b *SyncBridge) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	return b.CallWithContext(ctx, jsonArgs, nil)
}

// CallWithContext starts the async call and waits for it to resolve.
// Failures carry the tool name; a failure that already names this tool is
// returned as is.
func (b *SyncBridge) CallWithContext(ctx context.Context, jsonArgs []byte, execCtx ExecutionContext) (any, error) {
	name := NameOf(b.async)
	log.Debugf("using synchronous fallback for async tool: %s", name)

	future := b.async.CallAsync(ctx, jsonArgs, execCtx)
	if future == nil {
		return nil, NewExecutionError(name, ErrNilFuture)
	}
	result, err := future.Wait()
	if err != nil {
		return nil, NewExecutionError(name, err)
	}
	return result, nil
}

// CallAsync forwards to the wrapped tool.
func (b *SyncBridge) CallAsync(ctx context.Context, jsonArgs []byte, execCtx ExecutionContext) *Future {
	return b.async.CallAsync(ctx, jsonArgs, execCtx)
}

// SupportsAsync forwards the wrapped tool's preference.
func (b *SyncBridge) SupportsAsync() bool {
	if pref, ok := b.async.(AsyncPreference); ok {
		return pref.SupportsAsync()
	}
	return true
}

// AsCallable returns a synchronous view of t: t itself when it is a
// CallableTool, a SyncBridge when it is only an AsyncTool, and false when it
// has no call path at all. A tool that is only callable never gains an async
// path this way.
func AsCallable(t Tool) (CallableTool, bool) {
	if callable, ok := t.(CallableTool); ok {
		return callable, true
	}
	if async, ok := t.(AsyncTool); ok {
		return NewSyncBridge(async), true
	}
	return nil, false
}
