//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package debug provides a HTTP server for inspecting and calling the tools
// held by a dispatcher.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"trpc.group/trpc-go/trpc-tool-go/dispatcher"
	"trpc.group/trpc-go/trpc-tool-go/log"
	"trpc.group/trpc-go/trpc-tool-go/tool"
)

const defaultCallTimeout = 30 * time.Second

// Server exposes HTTP endpoints over a Dispatcher and its Registry.
type Server struct {
	dispatcher  *dispatcher.Dispatcher
	router      *mux.Router
	callTimeout time.Duration
}

// Option configures the Server instance.
type Option func(*Server)

// WithCallTimeout bounds every call made through the server. A non-positive
// value leaves calls bounded only by the request context.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Server) { s.callTimeout = d }
}

// New creates a new debug server over d.
func New(d *dispatcher.Dispatcher, opts ...Option) *Server {
	s := &Server{
		dispatcher:  d,
		router:      mux.NewRouter(),
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/tools", s.handleListTools).Methods(http.MethodGet)
	s.router.HandleFunc("/tools/{name}", s.handleGetTool).Methods(http.MethodGet)
	s.router.HandleFunc("/tools/{name}/call", s.handleCall).Methods(http.MethodPost)

	// OPTIONS handler to allow CORS pre-flight.
	preflight := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	s.router.HandleFunc("/tools/{name}/call", preflight).Methods(http.MethodOptions)
}

// toolInfo is the JSON view of a registration.
type toolInfo struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Mode         tool.ExecutionMode `json:"mode"`
	Capabilities tool.Capabilities  `json:"capabilities"`
	LongRunning  bool               `json:"longRunning,omitempty"`
	InputSchema  *tool.Schema       `json:"inputSchema,omitempty"`
}

func newToolInfo(reg dispatcher.Registration) toolInfo {
	return toolInfo{
		Name:         reg.Name(),
		Description:  reg.Declaration.Description,
		Mode:         reg.Mode,
		Capabilities: reg.Capabilities,
		LongRunning:  reg.LongRunning,
		InputSchema:  reg.Declaration.InputSchema,
	}
}

// callRequest is the body of a call. Mode defaults to the registered mode.
type callRequest struct {
	Args    json.RawMessage       `json:"args,omitempty"`
	Mode    string                `json:"mode,omitempty"`
	Context tool.ExecutionContext `json:"context,omitempty"`
}

type callResponse struct {
	Tool   string `json:"tool"`
	Mode   string `json:"mode,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	registry := s.dispatcher.Registry()
	regs := registry.List()
	if pattern := r.URL.Query().Get("pattern"); pattern != "" {
		var err error
		if regs, err = registry.Match(pattern); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	infos := make([]toolInfo, 0, len(regs))
	for _, reg := range regs {
		infos = append(infos, newToolInfo(reg))
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	reg, ok := s.dispatcher.Registry().Get(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, dispatcher.ErrToolNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, newToolInfo(reg))
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	reg, ok := s.dispatcher.Registry().Get(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, dispatcher.ErrToolNotFound)
		return
	}

	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	mode := reg.Mode
	if req.Mode != "" {
		parsed, err := tool.ParseExecutionMode(req.Mode)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		mode = parsed
	}
	args := []byte(req.Args)
	if len(args) == 0 {
		args = []byte("{}")
	}

	ctx := r.Context()
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}
	log.Debugf("debug server call: tool=%s mode=%s", name, mode)
	result, err := s.dispatcher.DispatchMode(ctx, name, mode, args, req.Context).Await(ctx)

	resp := callResponse{Tool: name, Mode: mode.String()}
	if err != nil {
		resp.Error = err.Error()
		s.writeJSON(w, statusFor(err), resp)
		return
	}
	resp.Result = result
	s.writeJSON(w, http.StatusOK, resp)
}

// statusFor maps a dispatch failure onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dispatcher.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, tool.ErrUnsupportedMode):
		return http.StatusBadRequest
	case errors.Is(err, dispatcher.ErrOverloaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("debug server: encode response: %v", err)
	}
}
