//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

package duckduckgo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-tool-go/tool"
)

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func await(t *testing.T, f *tool.Future) (any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Await(ctx)
}

func TestTool_Declaration(t *testing.T) {
	ddg := NewTool()
	decl := ddg.Declaration()
	require.NotNil(t, decl)
	assert.Equal(t, Name, decl.Name)
	require.NotNil(t, decl.InputSchema)
	assert.Contains(t, decl.InputSchema.Properties, "query")
	assert.Equal(t, []string{"query"}, decl.InputSchema.Required)

	caps := tool.DescribeCapabilities(ddg)
	assert.Equal(t, tool.Capabilities{HasAsync: true, SupportsAsync: true}, caps)
}

func TestTool_RelatedTopics(t *testing.T) {
	server := newServer(t, `{
		"RelatedTopics": [
			{"Text": "Go (programming language) - a statically typed language", "FirstURL": "https://duckduckgo.com/Go"},
			{"Text": "", "FirstURL": "https://duckduckgo.com/skip"},
			{"Text": "Gopher - the Go mascot", "FirstURL": "https://duckduckgo.com/Gopher"}
		]
	}`)
	ddg := NewTool(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	v, err := await(t, ddg.CallAsync(context.Background(), []byte(`{"query":"golang"}`), nil))
	require.NoError(t, err)
	resp := v.(Response)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Go (programming language)", resp.Results[0].Title)
	assert.Equal(t, "Gopher", resp.Results[1].Title)
	assert.Equal(t, "Found 2 results for query 'golang'", resp.Summary)
}

func TestTool_InstantAnswer(t *testing.T) {
	server := newServer(t, `{
		"Answer": "4",
		"AbstractText": "Arithmetic.",
		"AbstractSource": "Wikipedia",
		"Definition": "sum of two and two",
		"DefinitionSource": "Wiktionary"
	}`)
	ddg := NewTool(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	v, err := await(t, ddg.CallAsync(context.Background(), []byte(`{"query":"2 + 2"}`), nil))
	require.NoError(t, err)
	resp := v.(Response)
	assert.Equal(t,
		"Answer: 4 | Abstract: Arithmetic. | Source: Wikipedia | Definition: sum of two and two | Definition Source: Wiktionary",
		resp.Summary)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "DuckDuckGo search: 2 + 2", resp.Results[0].Title)
	assert.Equal(t, "https://duckduckgo.com/?q=2+%2B+2", resp.Results[0].URL)
}

func TestTool_CapsResults(t *testing.T) {
	var topics []string
	for i := 0; i < maxResults+3; i++ {
		topics = append(topics, `{"Text": "t - x", "FirstURL": "https://duckduckgo.com/t"}`)
	}
	server := newServer(t, `{"RelatedTopics": [`+strings.Join(topics, ",")+`]}`)
	ddg := NewTool(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	v, err := await(t, ddg.CallAsync(context.Background(), []byte(`{"query":"t"}`), nil))
	require.NoError(t, err)
	assert.Len(t, v.(Response).Results, maxResults)
}

func TestTool_EmptyQuery(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits++ }))
	defer server.Close()
	ddg := NewTool(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	v, err := await(t, ddg.CallAsync(context.Background(), []byte(`{"query":"  "}`), nil))
	require.NoError(t, err)
	assert.Equal(t, "Error: Empty search query provided", v.(Response).Summary)
	assert.Empty(t, v.(Response).Results)
	assert.Zero(t, hits)
}

func TestTool_ServerErrorDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	ddg := NewTool(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	v, err := await(t, ddg.CallAsync(context.Background(), []byte(`{"query":"go"}`), nil))
	require.NoError(t, err)
	resp := v.(Response)
	assert.Equal(t, "go", resp.Query)
	assert.Contains(t, resp.Summary, "Error performing search")
	assert.Contains(t, resp.Summary, "503")
}

func TestTool_BadArguments(t *testing.T) {
	ddg := NewTool()
	_, err := await(t, ddg.CallAsync(context.Background(), []byte(`{"query":`), nil))
	require.Error(t, err)

	var execErr *tool.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, Name, execErr.ToolName)
}

func TestTool_CancellationRejects(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)
	ddg := NewTool(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	ctx, cancel := context.WithCancel(context.Background())
	f := ddg.CallAsync(ctx, []byte(`{"query":"slow"}`), nil)
	cancel()

	_, err := await(t, f)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTool_ThroughSyncBridge(t *testing.T) {
	server := newServer(t, `{"AbstractText": "A search engine."}`)
	ddg := NewTool(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	callable, ok := tool.AsCallable(ddg)
	require.True(t, ok)
	require.IsType(t, &tool.SyncBridge{}, callable)

	v, err := callable.Call(context.Background(), []byte(`{"query":"duckduckgo"}`))
	require.NoError(t, err)
	assert.Equal(t, "Abstract: A search engine.", v.(Response).Summary)
}

func TestTitleOf(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"dash separated", "Steve Jobs - Apple co-founder", "Steve Jobs"},
		{"no dash", "  Plain topic  ", "Plain topic"},
		{"leading dash", " - only tail", "- only tail"},
		{"too long", strings.Repeat("a", maxTitleLength+10), strings.Repeat("a", maxTitleLength-3) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titleOf(tt.text))
		})
	}
}
