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
	"fmt"
	"strings"
)

// ExecutionMode hints at how a tool should be executed.
//
// Only ModeSync and ModeAsync are dispatchable. ModeParallel and ModeStreaming
// are reserved: consumers must reject them instead of treating them as sync.
type ExecutionMode int

// Execution modes. The zero value is ModeUnknown so that an unset mode never
// reads as ModeSync.
const (
	ModeUnknown ExecutionMode = iota
	// ModeSync blocks the caller until the tool finishes. Suited to short,
	// CPU-bound work.
	ModeSync
	// ModeAsync returns immediately with a Future. Suited to I/O-bound or
	// long-running work.
	ModeAsync
	// ModeParallel is reserved for fan-out of independent tool calls.
	ModeParallel
	// ModeStreaming is reserved for incremental delivery of partial results.
	ModeStreaming
)

// Mode names as they appear in configuration files.
const (
	ModeNameSync      = "sync"
	ModeNameAsync     = "async"
	ModeNameParallel  = "parallel"
	ModeNameStreaming = "streaming"
)

// Modes returns every defined execution mode, reserved ones included.
func Modes() []ExecutionMode {
	return []ExecutionMode{ModeSync, ModeAsync, ModeParallel, ModeStreaming}
}

// String implements fmt.Stringer.
func (m ExecutionMode) String() string {
	switch m {
	case ModeSync:
		return ModeNameSync
	case ModeAsync:
		return ModeNameAsync
	case ModeParallel:
		return ModeNameParallel
	case ModeStreaming:
		return ModeNameStreaming
	default:
		return fmt.Sprintf("ExecutionMode(%d)", int(m))
	}
}

// IsValid reports whether m is one of the four defined modes.
func (m ExecutionMode) IsValid() bool {
	switch m {
	case ModeSync, ModeAsync, ModeParallel, ModeStreaming:
		return true
	default:
		return false
	}
}

// IsReserved reports whether m is defined but not implemented.
func (m ExecutionMode) IsReserved() bool {
	switch m {
	case ModeParallel, ModeStreaming:
		return true
	default:
		return false
	}
}

// IsDispatchable reports whether a dispatcher can execute a tool in mode m.
func (m ExecutionMode) IsDispatchable() bool {
	switch m {
	case ModeSync, ModeAsync:
		return true
	case ModeParallel, ModeStreaming:
		return false
	default:
		return false
	}
}

// ParseExecutionMode parses a mode name, case-insensitively.
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ModeNameSync:
		return ModeSync, nil
	case ModeNameAsync:
		return ModeAsync, nil
	case ModeNameParallel:
		return ModeParallel, nil
	case ModeNameStreaming:
		return ModeStreaming, nil
	default:
		return ModeUnknown, fmt.Errorf("unknown execution mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ExecutionMode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("cannot marshal %s", m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ExecutionMode) UnmarshalText(text []byte) error {
	parsed, err := ParseExecutionMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
