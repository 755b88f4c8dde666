//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

package tool

// Capabilities records which call paths a tool offers. It is computed once
// when the tool is registered and must not change for the tool's lifetime.
type Capabilities struct {
	// HasSync is true when the tool implements CallableTool natively.
	HasSync bool `json:"hasSync"`
	// HasAsync is true when the tool implements AsyncTool.
	HasAsync bool `json:"hasAsync"`
	// SupportsAsync is true when the async path may be used. It is never true
	// without HasAsync.
	SupportsAsync bool `json:"supportsAsync"`
}

// DescribeCapabilities inspects t once and returns its capabilities.
// A SyncBridge counts as async-only: its sync path is the fallback, not a
// native one.
func DescribeCapabilities(t Tool) Capabilities {
	var c Capabilities
	if _, isBridge := t.(*SyncBridge); !isBridge {
		_, c.HasSync = t.(CallableTool)
	}
	_, c.HasAsync = t.(AsyncTool)
	if c.HasAsync {
		c.SupportsAsync = true
		if pref, ok := t.(AsyncPreference); ok {
			c.SupportsAsync = pref.SupportsAsync()
		}
	}
	return c
}

// Callable reports whether the tool can be called in any way.
func (c Capabilities) Callable() bool {
	return c.HasSync || c.HasAsync
}

// PreferredMode is the mode a dispatcher should use when none was declared.
func (c Capabilities) PreferredMode() ExecutionMode {
	if c.SupportsAsync {
		return ModeAsync
	}
	return ModeSync
}
