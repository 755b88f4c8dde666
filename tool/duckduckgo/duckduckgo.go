//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package duckduckgo provides an asynchronous DuckDuckGo Instant Answer tool.
// It answers factual, encyclopedic queries such as entities, definitions and
// calculations. It is not suited to live data like weather or news.
package duckduckgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	itool "trpc.group/trpc-go/trpc-tool-go/internal/tool"
	"trpc.group/trpc-go/trpc-tool-go/log"
	"trpc.group/trpc-go/trpc-tool-go/tool"
	"trpc.group/trpc-go/trpc-tool-go/tool/duckduckgo/internal/client"
)

const (
	// Name is the declared name of the search tool.
	Name = "duckduckgo_search"

	maxResults       = 5
	maxTitleLength   = 50
	defaultBaseURL   = "https://api.duckduckgo.com"
	defaultUserAgent = "trpc-tool-go-duckduckgo/1.0"
	defaultTimeout   = 30 * time.Second
)

// Option is a functional option for configuring the DuckDuckGo tool.
type Option func(*config)

type config struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// WithBaseURL sets the base URL for the DuckDuckGo API.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithUserAgent sets the user agent for HTTP requests.
func WithUserAgent(userAgent string) Option {
	return func(c *config) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient sets the HTTP client to use.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

// Request is the tool input.
type Request struct {
	Query string `json:"query" jsonschema:"description=The search query to execute on DuckDuckGo,required"`
}

// Response is the tool output.
type Response struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Summary string   `json:"summary"`
}

// Result is a single search hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Tool is the DuckDuckGo search tool. It only offers the async call path;
// synchronous callers go through tool.SyncBridge.
type Tool struct {
	client *client.Client
	decl   *tool.Declaration
}

var _ tool.AsyncTool = (*Tool)(nil)

// NewTool creates a new DuckDuckGo search tool with the provided options.
func NewTool(opts ...Option) *Tool {
	cfg := &config{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Tool{
		client: client.New(cfg.baseURL, cfg.userAgent, cfg.httpClient),
		decl: &tool.Declaration{
			Name: Name,
			Description: "Search using DuckDuckGo's Instant Answer API for factual, encyclopedic " +
				"information: entities ('Tesla company'), definitions ('photosynthesis'), " +
				"calculations ('2+2') and historical facts. Not suitable for real-time data " +
				"such as weather, stock prices or news.",
			InputSchema:  itool.GenerateJSONSchema(reflect.TypeOf(Request{})),
			OutputSchema: itool.GenerateJSONSchema(reflect.TypeOf(Response{})),
		},
	}
}

// Declaration implements tool.Tool.
func (t *Tool) Declaration() *tool.Declaration {
	return t.decl
}

// CallAsync starts the search and returns at once. Search failures resolve
// to a Response whose summary describes the error; only malformed arguments
// and cancellation reject the future.
func (t *Tool) CallAsync(ctx context.Context, jsonArgs []byte, _ tool.ExecutionContext) *tool.Future {
	return tool.Go(ctx, func(ctx context.Context) (any, error) {
		var req Request
		if len(jsonArgs) > 0 {
			if err := json.Unmarshal(jsonArgs, &req); err != nil {
				return nil, tool.NewExecutionError(Name, fmt.Errorf("decode arguments: %w", err))
			}
		}
		resp, err := t.search(ctx, req)
		if err != nil {
			return nil, tool.NewExecutionError(Name, err)
		}
		return resp, nil
	})
}

func (t *Tool) search(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return degraded(req.Query, "Error: Empty search query provided"), nil
	}

	answer, err := t.client.Search(ctx, req.Query)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Response{}, err
		}
		log.Warnf("duckduckgo search for %q failed: %v", req.Query, err)
		return degraded(req.Query, fmt.Sprintf("Error performing search: %v", err)), nil
	}

	parts := summaryParts(answer)
	results := relatedResults(answer.RelatedTopics)
	if len(results) == 0 && len(parts) > 0 {
		results = append(results, Result{
			Title:       "DuckDuckGo search: " + req.Query,
			URL:         "https://duckduckgo.com/?q=" + url.QueryEscape(req.Query),
			Description: strings.Join(parts, " | "),
		})
	}

	summary := fmt.Sprintf("Found %d results for query '%s'", len(results), req.Query)
	if len(parts) > 0 {
		summary = strings.Join(parts, " | ")
	}
	return Response{Query: req.Query, Results: results, Summary: summary}, nil
}

func degraded(query, summary string) Response {
	return Response{Query: query, Results: []Result{}, Summary: summary}
}

func summaryParts(a *client.Response) []string {
	var parts []string
	if a.Answer != "" {
		parts = append(parts, "Answer: "+a.Answer)
	}
	if a.AbstractText != "" {
		parts = append(parts, "Abstract: "+a.AbstractText)
		if a.AbstractSource != "" {
			parts = append(parts, "Source: "+a.AbstractSource)
		}
	}
	if a.Definition != "" {
		parts = append(parts, "Definition: "+a.Definition)
		if a.DefinitionSource != "" {
			parts = append(parts, "Definition Source: "+a.DefinitionSource)
		}
	}
	return parts
}

func relatedResults(topics []client.RelatedTopic) []Result {
	var results []Result
	for _, topic := range topics {
		if len(results) == maxResults {
			break
		}
		if topic.Text == "" || topic.FirstURL == "" {
			continue
		}
		results = append(results, Result{
			Title:       titleOf(topic.Text),
			URL:         topic.FirstURL,
			Description: topic.Text,
		})
	}
	return results
}

// titleOf takes the text before the first " - " and caps its length.
func titleOf(text string) string {
	title, _, _ := strings.Cut(text, " - ")
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(text)
	}
	if len(title) > maxTitleLength {
		return title[:maxTitleLength-3] + "..."
	}
	return title
}
