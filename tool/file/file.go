//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package file provides a read-only tool set over a base directory:
// read_file and list_file run synchronously, search_file runs asynchronously
// since recursive globs can walk large trees.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"trpc.group/trpc-go/trpc-tool-go/internal/encoding"
	"trpc.group/trpc-go/trpc-tool-go/tool"
	"trpc.group/trpc-go/trpc-tool-go/tool/function"
)

const (
	// SetName is the tool set name and the prefix of registered tool names.
	SetName = "fs"

	defaultBaseDir     = "."
	defaultMaxFileSize = 1024 * 1024
)

// Option is a functional option for configuring the file tool set.
type Option func(*toolSet)

// WithBaseDir sets the directory every path is resolved against, default is
// the current directory.
func WithBaseDir(baseDir string) Option {
	return func(f *toolSet) {
		f.baseDir = baseDir
	}
}

// WithMaxFileSize sets the largest file read_file will return, default is 1MB.
func WithMaxFileSize(size int64) Option {
	return func(f *toolSet) {
		f.maxFileSize = size
	}
}

type toolSet struct {
	baseDir     string
	maxFileSize int64
	root        *os.Root
	tools       []tool.Tool
}

// NewToolSet creates the file tool set. The base directory must exist and
// stays open until Close. Paths, including symlink targets, cannot leave it.
func NewToolSet(opts ...Option) (tool.ToolSet, error) {
	f := &toolSet{baseDir: defaultBaseDir, maxFileSize: defaultMaxFileSize}
	for _, opt := range opts {
		opt(f)
	}
	f.baseDir = filepath.Clean(f.baseDir)
	stat, err := os.Stat(f.baseDir)
	if err != nil {
		return nil, fmt.Errorf("base directory '%s' does not exist: %w", f.baseDir, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("base directory '%s' is not a directory", f.baseDir)
	}
	if f.root, err = os.OpenRoot(f.baseDir); err != nil {
		return nil, fmt.Errorf("opening base directory '%s': %w", f.baseDir, err)
	}

	f.tools = []tool.Tool{
		function.NewFunctionTool(f.readFile,
			function.WithName("read_file"),
			function.WithDescription("Reads a file relative to the base directory. Optional 'start_line' "+
				"(1-based) and 'num_lines' select a range of lines."),
		),
		function.NewFunctionTool(f.listFile,
			function.WithName("list_file"),
			function.WithDescription("Lists the files and folders directly inside 'path', relative to the "+
				"base directory. An empty path lists the base directory."),
		),
		function.NewAsyncFunctionTool(f.searchFile,
			function.WithName("search_file"),
			function.WithDescription("Finds files and folders under 'path' matching a glob 'pattern'. "+
				"Supports '*', '?', '[...]', '{a,b}' and recursive '**', e.g. '**/*.go'."),
		),
	}
	return f, nil
}

// Tools implements tool.ToolSet.
func (f *toolSet) Tools(context.Context) []tool.Tool {
	return f.tools
}

// Close implements tool.ToolSet.
func (f *toolSet) Close() error { return f.root.Close() }

// Name implements tool.ToolSet.
func (f *toolSet) Name() string { return SetName }

// resolvePath turns a request path into a name inside the base directory's
// root. Absolute and ".." paths are refused here; the root refuses symlinks
// that lead outside it.
func (f *toolSet) resolvePath(rel string) (string, error) {
	if rel == "" {
		return ".", nil
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid path %q: must be relative and stay inside the base directory", rel)
	}
	return filepath.ToSlash(filepath.Clean(rel)), nil
}

type readFileRequest struct {
	FileName  string `json:"file_name" jsonschema:"description=Path relative to the base directory,required"`
	StartLine int    `json:"start_line,omitempty" jsonschema:"description=First line to read; 1-based"`
	NumLines  int    `json:"num_lines,omitempty" jsonschema:"description=Maximum number of lines to read"`
}

type readFileResponse struct {
	FileName   string `json:"file_name"`
	Contents   string `json:"contents"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	TotalLines int    `json:"total_lines"`
	// Encoding is the detected source encoding; contents are always UTF-8.
	Encoding string `json:"encoding,omitempty"`
}

func (f *toolSet) readFile(_ context.Context, req readFileRequest) (readFileResponse, error) {
	rsp := readFileResponse{FileName: req.FileName}
	if req.StartLine < 0 || req.NumLines < 0 {
		return rsp, fmt.Errorf("start_line and num_lines must not be negative")
	}
	name, err := f.resolvePath(req.FileName)
	if err != nil {
		return rsp, err
	}
	stat, err := f.root.Stat(name)
	if err != nil {
		return rsp, fmt.Errorf("accessing file '%s': %w", req.FileName, err)
	}
	if stat.IsDir() {
		return rsp, fmt.Errorf("target path '%s' is a directory, not a file", req.FileName)
	}
	if stat.Size() > f.maxFileSize {
		return rsp, fmt.Errorf("file size %d exceeds the limit of %d bytes", stat.Size(), f.maxFileSize)
	}
	contents, err := fs.ReadFile(f.root.FS(), name)
	if err != nil {
		return rsp, fmt.Errorf("reading file: %w", err)
	}
	if len(contents) == 0 {
		return rsp, nil
	}
	text, enc, err := encoding.ToUTF8(contents)
	if err != nil {
		return rsp, fmt.Errorf("decoding file '%s': %w", req.FileName, err)
	}
	rsp.Encoding = string(enc)

	lines := strings.Split(text, "\n")
	rsp.TotalLines = len(lines)
	rsp.StartLine = 1
	if req.StartLine > 0 {
		rsp.StartLine = req.StartLine
	}
	if rsp.StartLine > rsp.TotalLines {
		return rsp, fmt.Errorf("start line %d is out of range, total lines: %d", rsp.StartLine, rsp.TotalLines)
	}
	rsp.EndLine = rsp.TotalLines
	if req.NumLines > 0 {
		rsp.EndLine = min(rsp.StartLine+req.NumLines-1, rsp.TotalLines)
	}
	rsp.Contents = strings.Join(lines[rsp.StartLine-1:rsp.EndLine], "\n")
	return rsp, nil
}

type listFileRequest struct {
	Path string `json:"path,omitempty" jsonschema:"description=Directory relative to the base directory"`
}

type entries struct {
	Path    string   `json:"path"`
	Files   []string `json:"files"`
	Folders []string `json:"folders"`
}

func (f *toolSet) listFile(_ context.Context, req listFileRequest) (entries, error) {
	rsp := entries{Path: req.Path}
	dir, err := f.resolvePath(req.Path)
	if err != nil {
		return rsp, err
	}
	dirEntries, err := fs.ReadDir(f.root.FS(), dir)
	if err != nil {
		return rsp, fmt.Errorf("listing '%s': %w", req.Path, err)
	}
	for _, entry := range dirEntries {
		if entry.IsDir() {
			rsp.Folders = append(rsp.Folders, entry.Name())
		} else {
			rsp.Files = append(rsp.Files, entry.Name())
		}
	}
	return rsp, nil
}

type searchFileRequest struct {
	Path          string `json:"path,omitempty" jsonschema:"description=Directory to search in; relative to the base directory"`
	Pattern       string `json:"pattern" jsonschema:"description=Glob pattern such as **/*.go,required"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"description=Match case sensitively"`
}

func (f *toolSet) searchFile(ctx context.Context, req searchFileRequest) (entries, error) {
	rsp := entries{Path: req.Path}
	if req.Pattern == "" {
		return rsp, errors.New("pattern cannot be empty")
	}
	if !doublestar.ValidatePattern(req.Pattern) {
		return rsp, fmt.Errorf("invalid pattern %q: %w", req.Pattern, doublestar.ErrBadPattern)
	}
	dir, err := f.resolvePath(req.Path)
	if err != nil {
		return rsp, err
	}

	opts := []doublestar.GlobOption{doublestar.WithFailOnIOErrors()}
	if !req.CaseSensitive {
		opts = append(opts, doublestar.WithCaseInsensitive())
	}
	fsys, err := fs.Sub(f.root.FS(), dir)
	if err != nil {
		return rsp, fmt.Errorf("searching '%s': %w", req.Path, err)
	}
	err = doublestar.GlobWalk(fsys, req.Pattern, func(match string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if match == "." {
			return nil
		}
		if d.IsDir() {
			rsp.Folders = append(rsp.Folders, match)
		} else {
			rsp.Files = append(rsp.Files, match)
		}
		return nil
	}, opts...)
	if err != nil {
		return rsp, fmt.Errorf("searching '%s' for '%s': %w", req.Path, req.Pattern, err)
	}
	sort.Strings(rsp.Files)
	sort.Strings(rsp.Folders)
	return rsp, nil
}
