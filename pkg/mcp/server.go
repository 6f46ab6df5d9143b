// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes task generation as Model Context Protocol tools.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jllopis/sdlcgen/pkg/analysis"
	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/export"
	"github.com/jllopis/sdlcgen/pkg/generate"
	"github.com/jllopis/sdlcgen/pkg/intake"
	"github.com/jllopis/sdlcgen/pkg/roles"
)

// Tool names.
const (
	ToolGenerateTasks       = "generate_tasks"
	ToolOrchestrationPrompt = "orchestration_prompt"
)

// Server wraps the mcp-go server with the generation tools registered.
type Server struct {
	mcpServer    *server.MCPServer
	runner       *generate.Runner
	orchestrator analysis.Orchestrator
	limits       intake.Limits
	unavailable  error
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLimits sets the intake limits applied to generate_tasks batches.
func WithLimits(l intake.Limits) Option {
	return func(s *Server) { s.limits = l }
}

// WithUnavailable makes every tool fail with err. It is used when the
// analysis service credential is missing.
func WithUnavailable(err error) Option {
	return func(s *Server) { s.unavailable = err }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server exposing runner and orchestrator as tools.
func NewServer(name, version string, runner *generate.Runner, orchestrator analysis.Orchestrator, opts ...Option) *Server {
	s := &Server{
		mcpServer:    server.NewMCPServer(name, version, server.WithToolCapabilities(false), server.WithRecovery()),
		runner:       runner,
		orchestrator: orchestrator,
		limits:       intake.DefaultLimits(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	formats := make([]string, 0, len(export.Formats))
	for _, f := range export.Formats {
		formats = append(formats, string(f))
	}

	s.mcpServer.AddTool(mcp.NewTool(ToolGenerateTasks,
		mcp.WithDescription(fmt.Sprintf(
			"Analyze project documents and return SDLC roles with tasks and AI prompts. "+
				"Accepts up to %d files of at most %.1fMB each (PDF, DOCX, PPTX, TXT, MD, CSV).",
			s.limits.MaxFiles, s.limits.MaxFileSizeMB())),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("Local document paths, processed in the given order"),
			mcp.WithStringItems(),
		),
		mcp.WithString("format",
			mcp.Description("Output encoding"),
			mcp.Enum(formats...),
			mcp.DefaultString(string(export.FormatJSON)),
		),
	), s.handleGenerate)

	s.mcpServer.AddTool(mcp.NewTool(ToolOrchestrationPrompt,
		mcp.WithDescription("Write a single prompt that coordinates AI agents across the given roles and tasks"),
		mcp.WithString("roles",
			mcp.Required(),
			mcp.Description("JSON array of roles as returned by generate_tasks"),
		),
		mcp.WithString("instruction",
			mcp.Description("Free-form goal for the orchestration prompt"),
		),
	), s.handleOrchestration)
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools over stdin and stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.unavailable != nil {
		return s.toolError(ctx, ToolGenerateTasks, s.unavailable), nil
	}
	paths, err := req.RequireStringSlice("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := export.ParseFormat(req.GetString("format", string(export.FormatJSON)))
	if err != nil {
		return s.toolError(ctx, ToolGenerateTasks, err), nil
	}

	files := make([]intake.File, 0, len(paths))
	for _, p := range paths {
		f, err := intake.FromPath(p)
		if err != nil {
			return s.toolError(ctx, ToolGenerateTasks,
				errors.New(errors.CodeReadFailure, fmt.Sprintf("failed to read file %q", p), err)), nil
		}
		files = append(files, f)
	}
	if err := s.limits.Validate(files); err != nil {
		return s.toolError(ctx, ToolGenerateTasks, err), nil
	}

	res, err := s.runner.Run(ctx, files)
	if err != nil {
		return s.toolError(ctx, ToolGenerateTasks, err), nil
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, res.Aggregate); err != nil {
		return s.toolError(ctx, ToolGenerateTasks, err), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleOrchestration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.unavailable != nil {
		return s.toolError(ctx, ToolOrchestrationPrompt, s.unavailable), nil
	}
	raw, err := req.RequireString("roles")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var agg roles.Aggregate
	if err := json.Unmarshal([]byte(raw), &agg); err != nil {
		return s.toolError(ctx, ToolOrchestrationPrompt,
			errors.New(errors.CodeInvalidInput, "roles must be a JSON array of roles", err)), nil
	}

	prompt, err := s.orchestrator.Prompt(ctx, agg, req.GetString("instruction", ""))
	if err != nil {
		return s.toolError(ctx, ToolOrchestrationPrompt, err), nil
	}
	return mcp.NewToolResultText(prompt), nil
}

func (s *Server) toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	se := errors.As(err)
	s.logger.WarnContext(ctx, "mcp.tool.error",
		slog.String("tool", tool),
		slog.String("code", string(se.Code)),
		slog.String("error", err.Error()),
	)
	return mcp.NewToolResultError(errors.UserMessage(err))
}
