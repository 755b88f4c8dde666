//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

package mcp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-tool-go/dispatcher"
	"trpc.group/trpc-go/trpc-tool-go/tool"
	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// fakeSession serves a fixed tool list and echoes calls.
type fakeSession struct {
	mu      sync.Mutex
	tools   []mcp.Tool
	listErr error
	callErr error
	block   bool
	calls   []map[string]any
	closed  bool
}

func (f *fakeSession) listTools(context.Context) ([]mcp.Tool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tools, nil
}

func (f *fakeSession) callTool(ctx context.Context, name string, arguments map[string]any) ([]mcp.Content, error) {
	f.mu.Lock()
	f.calls = append(f.calls, arguments)
	block, callErr := f.block, f.callErr
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if callErr != nil {
		return nil, callErr
	}
	return []mcp.Content{mcp.TextContent{Text: "called " + name}}, nil
}

func (f *fakeSession) close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newFake() *fakeSession {
	return &fakeSession{tools: []mcp.Tool{
		{Name: "get_weather", Description: "Get current weather"},
		{Name: "get_news", Description: "Get latest news"},
		{Name: "delete_all", Description: "Dangerous"},
	}}
}

func names(tools []tool.Tool) []string {
	var out []string
	for _, tl := range tools {
		out = append(out, tool.NameOf(tl))
	}
	return out
}

func TestNewMCPToolSet(t *testing.T) {
	ts, err := NewMCPToolSet(ConnectionConfig{Transport: "streamable", ServerURL: "http://localhost:3000/mcp"})
	require.NoError(t, err)
	assert.Equal(t, "mcp", ts.Name())

	ts, err = NewMCPToolSet(ConnectionConfig{Transport: "stdio", Command: "echo"}, WithName("weather"))
	require.NoError(t, err)
	assert.Equal(t, "weather", ts.Name())

	_, err = NewMCPToolSet(ConnectionConfig{Transport: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unsupported transport")

	_, err = NewMCPToolSet(ConnectionConfig{Transport: "stdio"}, WithToolFilter("["))
	assert.Error(t, err)
}

func TestToolSet_Tools(t *testing.T) {
	ts, err := newToolSet(newFake())
	require.NoError(t, err)
	tools := ts.Tools(context.Background())
	assert.Equal(t, []string{"get_weather", "get_news", "delete_all"}, names(tools))

	for _, tl := range tools {
		caps := tool.DescribeCapabilities(tl)
		assert.False(t, caps.HasSync)
		assert.True(t, caps.SupportsAsync)
	}
	decl := tools[0].Declaration()
	assert.Equal(t, "Get current weather", decl.Description)
	require.NotNil(t, decl.InputSchema)
	assert.Equal(t, "object", decl.InputSchema.Type)
}

func TestToolSet_Filter(t *testing.T) {
	ts, err := newToolSet(newFake(), WithToolFilter("get_*"))
	require.NoError(t, err)
	assert.Equal(t, []string{"get_weather", "get_news"}, names(ts.Tools(context.Background())))
}

func TestToolSet_KeepsCacheOnRefreshFailure(t *testing.T) {
	fake := newFake()
	ts, err := newToolSet(fake)
	require.NoError(t, err)
	require.Len(t, ts.Tools(context.Background()), 3)

	fake.mu.Lock()
	fake.listErr = errors.New("connection refused")
	fake.mu.Unlock()
	assert.Len(t, ts.Tools(context.Background()), 3)
	assert.ErrorContains(t, ts.Refresh(context.Background()), "connection refused")
}

func TestToolSet_RegisterUnreachableServer(t *testing.T) {
	fake := newFake()
	fake.listErr = errors.New("connection refused")
	ts, err := newToolSet(fake, WithName("weather"))
	require.NoError(t, err)

	reg := dispatcher.NewRegistry()
	_, err = reg.RegisterToolSet(context.Background(), ts)
	assert.ErrorContains(t, err, "connection refused")
	assert.Empty(t, reg.List())

	fake.mu.Lock()
	fake.listErr = nil
	fake.mu.Unlock()
	regs, err := reg.RegisterToolSet(context.Background(), ts)
	require.NoError(t, err)
	assert.Len(t, regs, 3)
	assert.Equal(t, "weather_get_weather", regs[0].Name())
}

func TestToolSet_Close(t *testing.T) {
	fake := newFake()
	ts, err := newToolSet(fake)
	require.NoError(t, err)
	require.NoError(t, ts.Close())
	assert.True(t, fake.closed)
}

func TestMCPTool_CallAsync(t *testing.T) {
	fake := newFake()
	ts, err := newToolSet(fake)
	require.NoError(t, err)
	weather := ts.Tools(context.Background())[0].(tool.AsyncTool)

	result, err := weather.CallAsync(context.Background(), []byte(`{"location":"Shenzhen"}`), nil).Wait()
	require.NoError(t, err)
	contents, ok := result.([]mcp.Content)
	require.True(t, ok)
	assert.Equal(t, "called get_weather", TextOf(contents))
	assert.Equal(t, []map[string]any{{"location": "Shenzhen"}}, fake.calls)

	// Empty and null arguments become an empty object.
	_, err = weather.CallAsync(context.Background(), nil, nil).Wait()
	require.NoError(t, err)
	_, err = weather.CallAsync(context.Background(), []byte(`null`), nil).Wait()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, fake.calls[1])
	assert.Equal(t, map[string]any{}, fake.calls[2])
}

func TestMCPTool_Failures(t *testing.T) {
	fake := newFake()
	ts, err := newToolSet(fake)
	require.NoError(t, err)
	weather := ts.Tools(context.Background())[0].(tool.AsyncTool)

	_, err = weather.CallAsync(context.Background(), []byte(`{bad`), nil).Wait()
	var execErr *tool.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "get_weather", execErr.ToolName)
	assert.Contains(t, err.Error(), "failed to parse tool arguments")

	fake.mu.Lock()
	fake.callErr = errClosed
	fake.mu.Unlock()
	_, err = weather.CallAsync(context.Background(), []byte(`{}`), nil).Wait()
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, errClosed)
}

func TestMCPTool_BridgeHonoursContext(t *testing.T) {
	fake := newFake()
	fake.block = true
	ts, err := newToolSet(fake)
	require.NoError(t, err)
	callable, ok := tool.AsCallable(ts.Tools(context.Background())[1])
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = callable.Call(ctx, []byte(`{}`))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var execErr *tool.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "get_news", execErr.ToolName)
}

func TestSessionManager_Closed(t *testing.T) {
	m := newSessionManager(ConnectionConfig{Transport: "stdio", Command: "echo"})
	require.NoError(t, m.close())
	_, err := m.listTools(context.Background())
	assert.ErrorIs(t, err, errClosed)
	_, err = m.callTool(context.Background(), "x", nil)
	assert.ErrorIs(t, err, errClosed)
}

func TestSessionManager_TimeoutContext(t *testing.T) {
	m := newSessionManager(ConnectionConfig{Timeout: time.Second})
	ctx, cancel := m.timeoutContext(context.Background())
	defer cancel()
	_, ok := ctx.Deadline()
	assert.True(t, ok)

	parent, parentCancel := context.WithTimeout(context.Background(), time.Hour)
	defer parentCancel()
	ctx, cancel = m.timeoutContext(parent)
	defer cancel()
	assert.Equal(t, parent, ctx)

	m = newSessionManager(ConnectionConfig{})
	ctx, cancel = m.timeoutContext(context.Background())
	defer cancel()
	_, ok = ctx.Deadline()
	assert.False(t, ok)
}

func TestConvertSchema(t *testing.T) {
	assert.Equal(t, &tool.Schema{Type: "object"}, convertSchema(nil))
	assert.Equal(t, &tool.Schema{Type: "object"}, convertSchema(map[string]any{"type": 3}))

	got := convertSchema(map[string]any{
		"type":     "object",
		"required": []any{"location"},
		"properties": map[string]any{
			"location": map[string]any{"type": "string", "description": "City name"},
			"days":     map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
		},
		"additionalProperties": false,
	})
	assert.Equal(t, "object", got.Type)
	assert.Equal(t, []string{"location"}, got.Required)
	assert.Equal(t, "City name", got.Properties["location"].Description)
	assert.Equal(t, "integer", got.Properties["days"].Items.Type)
	assert.Equal(t, false, got.AdditionalProperties)
}

func TestValidateTransport(t *testing.T) {
	for in, want := range map[string]transport{
		"stdio":           transportStdio,
		"streamable":      transportStreamable,
		"streamable_http": transportStreamable,
	} {
		got, err := validateTransport(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := validateTransport("sse")
	assert.Error(t, err)
}
