//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the names, attributes and collector connection
// shared by the trace and metric packages and by the dispatcher.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"trpc.group/trpc-go/trpc-tool-go/tool"
)

// telemetry service constants.
const (
	ServiceName      = "trpc-tool-go"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-go-tool"
	InstrumentName   = "trpc.tool.go"

	SpanNamePrefixExecuteTool = "execute_tool"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// span attribute keys.
const (
	KeyCallID     = "trpc.go.tool.call_id"
	KeyToolMode   = "trpc.go.tool.mode"
	KeyToolArgs   = "trpc.go.tool.call_args"
	KeyToolResult = "trpc.go.tool.result"
	KeyFallback   = "trpc.go.tool.sync_fallback"
)

// metric instrument names.
const (
	MetricToolCalls     = "trpc.go.tool.calls"
	MetricToolFailures  = "trpc.go.tool.failures"
	MetricToolFallbacks = "trpc.go.tool.sync_fallbacks"
)

// NewExecuteToolSpanName returns the span name for a tool call.
func NewExecuteToolSpanName(toolName string) string {
	if toolName == "" {
		return SpanNamePrefixExecuteTool
	}
	return SpanNamePrefixExecuteTool + " " + toolName
}

// ToolAttributes returns the attributes that identify a call on spans and
// counters alike.
func ToolAttributes(name string, mode tool.ExecutionMode) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("gen_ai.tool.name", name),
		attribute.String(KeyToolMode, mode.String()),
	}
}

// TraceToolCall records the call on span before it runs.
func TraceToolCall(span trace.Span, call *tool.CallInfo, fallback bool) {
	span.SetAttributes(ToolAttributes(call.Name, call.Mode)...)
	span.SetAttributes(
		attribute.String("gen_ai.operation.name", "tool.execute"),
		attribute.String(KeyCallID, call.ID),
		attribute.Bool(KeyFallback, fallback),
	)
	if call.Declaration != nil {
		span.SetAttributes(attribute.String("gen_ai.tool.description", call.Declaration.Description))
	}
	args := string(call.Args)
	if !json.Valid(call.Args) {
		args = "<not json>"
	}
	span.SetAttributes(attribute.String(KeyToolArgs, args))
}

// TraceToolResult records the outcome of a call on span.
func TraceToolResult(span trace.Span, result any, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if bts, mErr := json.Marshal(result); mErr == nil {
		span.SetAttributes(attribute.String(KeyToolResult, string(bts)))
	} else {
		span.SetAttributes(attribute.String(KeyToolResult, "<not json serializable>"))
	}
	span.SetStatus(codes.Ok, "")
}

// NewResource describes the exporting service.
func NewResource(ctx context.Context, name, version, namespace string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNamespace(namespace),
			semconv.ServiceName(name),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// NewGRPCConn creates a new gRPC connection to the OpenTelemetry Collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	// TLS is recommended in production.
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
