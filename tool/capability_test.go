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
	"testing"

	"github.com/stretchr/testify/assert"

	"trpc.group/trpc-go/trpc-tool-go/tool"
)

func TestDescribeCapabilities(t *testing.T) {
	tests := []struct {
		name string
		tool tool.Tool
		want tool.Capabilities
		mode tool.ExecutionMode
	}{
		{
			name: "async only defaults to supporting async",
			tool: echoAsync("a"),
			want: tool.Capabilities{HasAsync: true, SupportsAsync: true},
			mode: tool.ModeAsync,
		},
		{
			name: "async opt-out is respected",
			tool: &asyncDisabled{asyncOnly: *echoAsync("a")},
			want: tool.Capabilities{HasAsync: true, SupportsAsync: false},
			mode: tool.ModeSync,
		},
		{
			name: "sync only never gains async",
			tool: &syncOnly{name: "s"},
			want: tool.Capabilities{HasSync: true},
			mode: tool.ModeSync,
		},
		{
			name: "both paths",
			tool: &dualPath{syncOnly{name: "d"}},
			want: tool.Capabilities{HasSync: true, HasAsync: true, SupportsAsync: true},
			mode: tool.ModeAsync,
		},
		{
			name: "bridge is still async only",
			tool: tool.NewSyncBridge(echoAsync("b")),
			want: tool.Capabilities{HasAsync: true, SupportsAsync: true},
			mode: tool.ModeAsync,
		},
		{
			name: "no call path",
			tool: declOnly{},
			want: tool.Capabilities{},
			mode: tool.ModeSync,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tool.DescribeCapabilities(tt.tool)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.mode, got.PreferredMode())
			assert.Equal(t, tt.want.HasSync || tt.want.HasAsync, got.Callable())
		})
	}
}
