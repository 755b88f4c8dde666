//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	itool "trpc.group/trpc-go/trpc-tool-go/internal/tool"
	"trpc.group/trpc-go/trpc-tool-go/log"
	"trpc.group/trpc-go/trpc-tool-go/tool"
)

var (
	// ErrToolNotFound is returned for names that are not registered.
	ErrToolNotFound = errors.New("tool not found")
	// ErrEmptyName is returned when a tool declares no name.
	ErrEmptyName = errors.New("tool name is empty")
	// ErrDuplicateTool is returned when a name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")
)

// Registration is the immutable record kept for a registered tool.
// Registries hand out copies; changing one has no effect on dispatch.
type Registration struct {
	// Tool is the registered tool.
	Tool tool.Tool
	// Declaration is a snapshot of the tool's declaration at registration.
	Declaration tool.Declaration
	// Mode is the declared execution mode, never a reserved one.
	Mode tool.ExecutionMode
	// Capabilities is computed once when the tool is registered.
	Capabilities tool.Capabilities
	// LongRunning is true when the tool declares its calls as slow.
	LongRunning bool
}

// Name returns the registered tool name.
func (r Registration) Name() string {
	return r.Declaration.Name
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	mode tool.ExecutionMode
}

// WithMode declares the execution mode for the tool, overriding both the
// registry's configured modes and the mode inferred from capabilities.
func WithMode(mode tool.ExecutionMode) RegisterOption {
	return func(o *registerOptions) {
		o.mode = mode
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithModeOverrides sets per-tool modes, typically from config.Config.Modes.
// Names are matched exactly first, then case-insensitively.
func WithModeOverrides(modes map[string]tool.ExecutionMode) RegistryOption {
	return func(r *Registry) {
		for name, mode := range modes {
			r.overrides[name] = mode
		}
	}
}

// Registry holds the tools a Dispatcher can call. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]Registration
	overrides map[string]tool.ExecutionMode
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries:   make(map[string]Registration),
		overrides: make(map[string]tool.ExecutionMode),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register describes t and stores it under its declared name.
//
// The mode is taken from WithMode, then from the registry's overrides, and
// otherwise from the tool's preferred mode. Reserved modes, and ASYNC for a
// tool with no async path, are rejected with an UnsupportedModeError.
func (r *Registry) Register(t tool.Tool, opts ...RegisterOption) (Registration, error) {
	reg, err := r.describe(t, opts...)
	if err != nil {
		return Registration{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[reg.Name()]; exists {
		return Registration{}, fmt.Errorf("register %s: %w", reg.Name(), ErrDuplicateTool)
	}
	r.entries[reg.Name()] = reg
	log.Debugf("registered tool %s in %s mode (sync=%t async=%t supportsAsync=%t longRunning=%t)",
		reg.Name(), reg.Mode, reg.Capabilities.HasSync, reg.Capabilities.HasAsync, reg.Capabilities.SupportsAsync,
		reg.LongRunning)
	return reg, nil
}

func (r *Registry) describe(t tool.Tool, opts ...RegisterOption) (Registration, error) {
	if t == nil {
		return Registration{}, fmt.Errorf("register: %w", tool.ErrNotCallable)
	}
	decl := t.Declaration()
	if decl == nil || decl.Name == "" {
		return Registration{}, ErrEmptyName
	}
	name := decl.Name

	caps := tool.DescribeCapabilities(t)
	if !caps.Callable() {
		return Registration{}, fmt.Errorf("register %s: %w", name, tool.ErrNotCallable)
	}

	o := &registerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	mode := o.mode
	if mode == tool.ModeUnknown {
		mode = r.override(name)
	}
	if mode == tool.ModeUnknown {
		mode = caps.PreferredMode()
	}

	if err := tool.CheckDispatchable(name, mode); err != nil {
		return Registration{}, err
	}
	if mode == tool.ModeAsync && !caps.HasAsync {
		return Registration{}, &tool.UnsupportedModeError{
			ToolName: name,
			Mode:     mode,
			Reason:   "tool has no async call path",
		}
	}
	return Registration{
		Tool:         t,
		Declaration:  *decl,
		Mode:         mode,
		Capabilities: caps,
		LongRunning:  tool.IsLongRunning(t),
	}, nil
}

func (r *Registry) override(name string) tool.ExecutionMode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if mode, ok := r.overrides[name]; ok {
		return mode
	}
	if mode, ok := r.overrides[strings.ToLower(name)]; ok {
		return mode
	}
	return tool.ModeUnknown
}

// refresher is implemented by tool sets that load their tools from a remote
// source and can report when that fails.
type refresher interface {
	Refresh(ctx context.Context) error
}

// RegisterToolSet registers every tool of ts under "<set>_<tool>" names.
// Either all tools are registered or, on the first failure, none are. A tool
// set that can refresh is refreshed first, and a failed refresh fails the
// registration instead of registering an empty set.
func (r *Registry) RegisterToolSet(ctx context.Context, ts tool.ToolSet, opts ...RegisterOption) ([]Registration, error) {
	if rs, ok := ts.(refresher); ok {
		if err := rs.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("register tool set %s: %w", ts.Name(), err)
		}
	}
	named := itool.NewNamedToolSet(ts)
	var added []Registration
	for _, t := range named.Tools(ctx) {
		reg, err := r.Register(t, opts...)
		if err != nil {
			for _, prev := range added {
				r.Unregister(prev.Name())
			}
			return nil, fmt.Errorf("register tool set %s: %w", ts.Name(), err)
		}
		added = append(added, reg)
	}
	return added, nil
}

// Get returns the registration for name.
func (r *Registry) Get(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[name]
	return reg, ok
}

// Unregister removes name and reports whether it was registered.
// Calls already dispatched are not affected.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return false
	}
	delete(r.entries, name)
	return true
}

// List returns all registrations sorted by name.
func (r *Registry) List() []Registration {
	r.mu.RLock()
	out := make([]Registration, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Match returns the registrations whose names match a doublestar glob such
// as "fs_*" or "{calc,math}_*", sorted by name.
func (r *Registry) Match(pattern string) ([]Registration, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("match %q: %w", pattern, doublestar.ErrBadPattern)
	}
	var out []Registration
	for _, reg := range r.List() {
		if ok, _ := doublestar.Match(pattern, reg.Name()); ok {
			out = append(out, reg)
		}
	}
	return out, nil
}
