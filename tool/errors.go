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
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMode is matched by every UnsupportedModeError.
	ErrUnsupportedMode = errors.New("unsupported execution mode")
	// ErrNilFuture is returned when an async tool hands back a nil future.
	ErrNilFuture = errors.New("async call returned a nil future")
	// ErrNotCallable is returned for tools with neither a sync nor an async call path.
	ErrNotCallable = errors.New("tool has no call path")
)

// ExecutionError reports that a tool's own logic failed.
type ExecutionError struct {
	// ToolName is the declared name of the failing tool.
	ToolName string
	// Cause is the underlying failure.
	Cause error
}

// Error implements error.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s execution failed: %v", e.ToolName, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// NewExecutionError wraps cause with the tool name. It returns nil for a nil
// cause and returns cause unchanged when it already is an ExecutionError for
// the same tool.
func NewExecutionError(toolName string, cause error) error {
	if cause == nil {
		return nil
	}
	var execErr *ExecutionError
	if errors.As(cause, &execErr) && execErr.ToolName == toolName {
		return cause
	}
	return &ExecutionError{ToolName: toolName, Cause: cause}
}

// UnsupportedModeError reports an attempt to register or dispatch a tool in a
// mode that cannot be executed.
type UnsupportedModeError struct {
	ToolName string
	Mode     ExecutionMode
	// Reason is optional detail, e.g. "mode is reserved".
	Reason string
}

// Error implements error.
func (e *UnsupportedModeError) Error() string {
	msg := fmt.Sprintf("tool %s: %s %s", e.ToolName, ErrUnsupportedMode, e.Mode)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is makes errors.Is(err, ErrUnsupportedMode) hold.
func (e *UnsupportedModeError) Is(target error) bool {
	return target == ErrUnsupportedMode
}

// CheckDispatchable returns an UnsupportedModeError unless mode can be
// executed. Every mode is handled explicitly; reserved modes never fall
// through to sync.
func CheckDispatchable(toolName string, mode ExecutionMode) error {
	switch mode {
	case ModeSync, ModeAsync:
		return nil
	case ModeParallel, ModeStreaming:
		return &UnsupportedModeError{ToolName: toolName, Mode: mode, Reason: "mode is reserved and not implemented"}
	default:
		return &UnsupportedModeError{ToolName: toolName, Mode: mode, Reason: "unknown mode"}
	}
}
